package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"meetway.dev/meetway/config"
	"meetway.dev/meetway/geo"
	"meetway.dev/meetway/meet"
)

var heatmapCmd = &cobra.Command{
	Use:   "heatmap <station1> <station2> [station3...]",
	Short: "Computes reachability of every stop for a group of participants",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runHeatmap,
}

var (
	heatmapTime  string
	heatmapLimit int
)

func init() {
	heatmapCmd.Flags().StringVarP(&heatmapTime, "time", "t", "09:00:00", "Departure time, HH:MM:SS")
	heatmapCmd.Flags().IntVarP(&heatmapLimit, "limit", "l", 20, "Print at most this many stops, ranked by max elapsed time")
}

func runHeatmap(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	idx, err := loadIndex(cfg)
	if err != nil {
		return err
	}

	t0, ok := geo.ParseClock(heatmapTime)
	if !ok {
		return fmt.Errorf("invalid --time %q, want HH:MM:SS", heatmapTime)
	}

	specs := make([]meet.ParticipantSpec, len(args))
	for i, station := range args {
		specs[i] = meet.ParticipantSpec{Label: fmt.Sprintf("rider-%d", i+1), StationQuery: station}
	}

	result, err := meet.FindHeatmap(idx, specs, meet.HeatmapOptions{
		SearchOptions: meet.SearchOptions{T0: t0, Constants: cfg.Search.Constants()},
	})
	if err != nil {
		return err
	}

	stops := make([]*meet.StopHeat, 0, len(result.Stops))
	for _, heat := range result.Stops {
		if len(heat.PerParticipant) == len(specs) {
			stops = append(stops, heat)
		}
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].MaxElapsed < stops[j].MaxElapsed })

	fmt.Printf("%s, %d iterations, %d stops reached by everyone\n", result.Reason, result.Iterations, len(stops))
	for i, heat := range stops {
		if i >= heatmapLimit {
			break
		}
		fmt.Printf("  %-24s total=%ds max=%ds\n", heat.StopID, heat.TotalElapsed, heat.MaxElapsed)
	}

	return nil
}
