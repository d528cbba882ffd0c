package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meetway.dev/meetway/config"
	"meetway.dev/meetway/geo"
	"meetway.dev/meetway/meet"
)

var meetCmd = &cobra.Command{
	Use:   "meet <station1> <station2> [station3...]",
	Short: "Finds the first common stop every participant can reach",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMeet,
}

var meetTime string

func init() {
	meetCmd.Flags().StringVarP(&meetTime, "time", "t", "09:00:00", "Departure time, HH:MM:SS")
}

func runMeet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	idx, err := loadIndex(cfg)
	if err != nil {
		return err
	}

	t0, ok := geo.ParseClock(meetTime)
	if !ok {
		return fmt.Errorf("invalid --time %q, want HH:MM:SS", meetTime)
	}

	specs := make([]meet.ParticipantSpec, len(args))
	for i, station := range args {
		specs[i] = meet.ParticipantSpec{Label: fmt.Sprintf("rider-%d", i+1), StationQuery: station}
	}

	result, err := meet.FindMeeting(idx, specs, meet.SearchOptions{T0: t0, Constants: cfg.Search.Constants()})
	if err != nil {
		return err
	}

	if result.MeetStop == "" {
		if result.Reason == meet.ReasonTripCap {
			fmt.Printf("no meeting stop found: %s exceeded the trip time cap (%s, %d iterations)\n",
				result.CapParticipant, result.Reason, result.Iterations)
			return nil
		}
		fmt.Printf("no meeting stop found (%s, %d iterations)\n", result.Reason, result.Iterations)
		return nil
	}

	fmt.Printf("meet at %s (%s), arriving %s, fairness %ds\n",
		result.MeetName, result.MeetStop, geo.FormatClockHM(result.MeetTime), result.Fairness)
	for _, p := range result.Participants {
		fmt.Printf("  %s: %ds elapsed, arrives %s\n", p.Label, p.Elapsed, geo.FormatClockHM(p.Arrive))
	}

	return nil
}
