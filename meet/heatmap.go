package meet

import "meetway.dev/meetway/schedule"

// StopHeat accumulates every participant's elapsed time to a stop.
type StopHeat struct {
	StopID         string
	StationID      string
	TotalElapsed   int
	MaxElapsed     int
	PerParticipant map[string]int
}

// HeatmapResult is the outcome of FindHeatmap: reachability of every stop
// settled by all participants, instead of a single first-meeting answer.
// Stops settled by only some participants are not included.
type HeatmapResult struct {
	Reason     TerminationReason
	Iterations int
	Stops      map[string]*StopHeat
}

// HeatmapOptions extends SearchOptions with throttled progress callbacks
// per spec §4.7.
type HeatmapOptions struct {
	SearchOptions
	// OnStopUpdate fires when a stop enters the result, i.e. once every
	// participant has settled it. It is throttled to at most once per
	// ProgressEvery such stops (0 or 1 disables throttling, firing for
	// every stop that enters the result).
	OnStopUpdate  func(*StopHeat)
	ProgressEvery int
}

// FindHeatmap shares the interleaved-pop core of FindMeeting (C4/C5) but
// never exits early: every participant's heap is drained (subject to the
// same MaxTrip/TripCap/iteration guards), and the reachability of every stop
// settled by all participants is recorded instead of stopping at the first
// common stop.
func FindHeatmap(idx *schedule.Index, specs []ParticipantSpec, opts HeatmapOptions) (*HeatmapResult, error) {
	c := opts.Constants
	if err := validateParticipantCount(len(specs), c.MaxParticipants); err != nil {
		return nil, err
	}

	participants, midpoint, err := primeParticipants(idx, NewResolver(idx), specs, opts.T0, c)
	if err != nil {
		return nil, err
	}

	// pending tracks every settled (participant, stop) pair; a stop only
	// graduates into stops (and the result) once every participant has
	// reached it, mirroring meetingDone's full-coverage check.
	pending := map[string]*StopHeat{}
	stops := map[string]*StopHeat{}
	settles := 0

	never := func(string) bool { return false }

	reason, iterations, _ := runSearch(idx, c, participants, midpoint, opts.Yield, never,
		func(label, stop string, elapsed int) {
			heat, ok := pending[stop]
			if !ok {
				heat = &StopHeat{StopID: stop, StationID: mustStationID(idx, stop), PerParticipant: map[string]int{}}
				pending[stop] = heat
			}
			heat.PerParticipant[label] = elapsed
			heat.TotalElapsed = 0
			heat.MaxElapsed = 0
			for _, e := range heat.PerParticipant {
				heat.TotalElapsed += e
				if e > heat.MaxElapsed {
					heat.MaxElapsed = e
				}
			}

			if len(heat.PerParticipant) != len(participants) {
				return
			}
			stops[stop] = heat

			settles++
			if opts.OnStopUpdate != nil {
				if opts.ProgressEvery <= 1 || settles%opts.ProgressEvery == 0 {
					opts.OnStopUpdate(heat)
				}
			}
		})

	if reason == ReasonEmptyQueue {
		reason = ReasonBudgetExhausted
	}

	return &HeatmapResult{Reason: reason, Iterations: iterations, Stops: stops}, nil
}
