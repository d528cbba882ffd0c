package meet

import (
	"meetway.dev/meetway/model"
	"meetway.dev/meetway/pqueue"
	"meetway.dev/meetway/schedule"
)

// SearchOptions tunes one FindMeeting/FindHeatmap call.
type SearchOptions struct {
	T0        int
	Constants Constants
	// Yield is polled every 1000 iterations; returning false cancels the
	// search cooperatively (TerminationReason ReasonCancelled).
	Yield func(iterations int) bool
}

// ParticipantResult is one rider's half of a settled meeting.
type ParticipantResult struct {
	Label   string
	Elapsed int
	Arrive  int
	Path    []model.Step
}

// MeetingResult is the outcome of FindMeeting.
type MeetingResult struct {
	MeetStop string
	MeetName string
	MeetTime int
	Fairness int
	Reason   TerminationReason
	// CapParticipant is the label of the rider whose relaxation first
	// exceeded MaxTrip; set only when Reason is ReasonTripCap, per the
	// {CAP, participant_label} response contract of spec.md §3/§6/§7.
	CapParticipant string
	Iterations     int
	Participants   []ParticipantResult
}

const minParticipants = 2

func validateParticipantCount(n int, max int) error {
	if n < minParticipants {
		return newError(ErrTooFewParticipants, "need at least %d participants, got %d", minParticipants, n)
	}
	if n > max {
		return newError(ErrTooManyParticipants, "at most %d participants allowed, got %d", max, n)
	}
	return nil
}

// FindMeeting runs the interleaved, per-participant time-expanded Dijkstra
// of spec §4.6 and returns the first stop every participant reaches.
func FindMeeting(idx *schedule.Index, specs []ParticipantSpec, opts SearchOptions) (*MeetingResult, error) {
	c := opts.Constants
	if err := validateParticipantCount(len(specs), c.MaxParticipants); err != nil {
		return nil, err
	}

	participants, midpoint, err := primeParticipants(idx, NewResolver(idx), specs, opts.T0, c)
	if err != nil {
		return nil, err
	}

	reason, iterations, capParticipant := runSearch(idx, c, participants, midpoint, opts.Yield, meetingDone(participants), nil)

	meetStop := findMeetingStop(participants)
	result := &MeetingResult{Reason: reason, Iterations: iterations}
	if reason == ReasonTripCap {
		result.CapParticipant = capParticipant
	}

	if meetStop == "" {
		return result, nil
	}

	result.MeetStop = meetStop
	result.MeetName, _ = idx.StationName(mustStationID(idx, meetStop))

	maxArrive, minElapsed, maxElapsed := 0, -1, 0
	for _, p := range participants {
		info := p.reachedFirst[meetStop]
		path := reconstructPath(p, meetStop)
		result.Participants = append(result.Participants, ParticipantResult{
			Label:   p.label,
			Elapsed: int(info.Elapsed),
			Arrive:  info.Arrive,
			Path:    path,
		})
		if info.Arrive > maxArrive {
			maxArrive = info.Arrive
		}
		e := int(info.Elapsed)
		if minElapsed == -1 || e < minElapsed {
			minElapsed = e
		}
		if e > maxElapsed {
			maxElapsed = e
		}
	}
	result.MeetTime = maxArrive
	result.Fairness = maxElapsed - minElapsed

	return result, nil
}

func mustStationID(idx *schedule.Index, stopID string) string {
	if station, ok := idx.StationID(stopID); ok {
		return station
	}
	return stopID
}

// meetingDone returns a predicate that is true once every participant has
// a reachedFirst entry for the candidate stop.
func meetingDone(participants []*participant) func(stop string) bool {
	return func(stop string) bool {
		for _, p := range participants {
			if _, ok := p.reachedFirst[stop]; !ok {
				return false
			}
		}
		return true
	}
}

// findMeetingStop returns the first stop (by settle order) reached by
// every participant, or "" if none settled for all.
func findMeetingStop(participants []*participant) string {
	if len(participants) == 0 {
		return ""
	}
	for stop := range participants[0].reachedFirst {
		all := true
		for _, p := range participants[1:] {
			if _, ok := p.reachedFirst[stop]; !ok {
				all = false
				break
			}
		}
		if all {
			return stop
		}
	}
	return ""
}

// runSearch drives the shared interleaved-pop core: at each iteration the
// participant with the smallest top-of-heap elapsed is popped and
// relaxed. done(stop) is polled after every settle to allow early exit
// (meeting search); heatmap mode passes a predicate that never returns
// true and instead drains every heap. onSettle, if non-nil, is invoked
// once per newly-settled (participant, stop) pair — the heatmap variant
// uses it to accumulate StopHeat without a second copy of this loop.
func runSearch(
	idx *schedule.Index,
	c Constants,
	participants []*participant,
	midpoint LatLon,
	yield func(int) bool,
	done func(stop string) bool,
	onSettle func(label, stop string, elapsed int),
) (TerminationReason, int, string) {
	iterations := 0
	capHit := false
	capParticipant := ""

	for {
		if yield != nil && iterations%1000 == 0 && iterations > 0 {
			if !yield(iterations) {
				return ReasonCancelled, iterations, ""
			}
		}
		if iterations >= c.IterationCap {
			return ReasonIterationLimit, iterations, ""
		}

		pi, key, entry, ok := popSmallest(participants)
		if !ok {
			if capHit {
				return ReasonTripCap, iterations, capParticipant
			}
			return ReasonEmptyQueue, iterations, ""
		}
		iterations++

		p := participants[pi]
		stop := entry.ToStop
		elapsed := key.Elapsed

		if elapsed > float64(c.MaxTrip) {
			if !capHit {
				capHit = true
				capParticipant = p.label
			}
			p.capExceeded = true
			continue
		}

		if best, seen := p.bestElapsed[stop]; seen && best <= elapsed {
			continue
		}
		p.bestElapsed[stop] = elapsed

		if _, already := p.reachedFirst[stop]; !already {
			p.reachedFirst[stop] = reachedInfo{Arrive: entry.Step.Arrive, Elapsed: elapsed}
			p.parent[stop] = parentEntry{From: entry.Step.FromStop, Step: entry.Step}
			if onSettle != nil {
				onSettle(p.label, stop, int(elapsed))
			}
		}

		if done(stop) {
			return ReasonMeetingFound, iterations, ""
		}

		expand(idx, c, p, stop, entry.Step.Arrive, elapsed, midpoint)
	}
}

// popSmallest finds, across all participants, the heap whose top key is
// smallest, and pops it. Ties broken by participant index for
// determinism.
func popSmallest(participants []*participant) (int, pqueue.Key, frontierEntry, bool) {
	best := -1
	var bestKey pqueue.Key
	for i, p := range participants {
		k, _, ok := p.heap.Peek()
		if !ok {
			continue
		}
		if best == -1 || k.Less(bestKey) {
			best = i
			bestKey = k
		}
	}
	if best == -1 {
		return 0, pqueue.Key{}, frontierEntry{}, false
	}
	_, payload := participants[best].heap.Pop()
	return best, bestKey, payload.(frontierEntry), true
}

func reconstructPath(p *participant, stop string) []model.Step {
	var steps []model.Step
	cur := stop
	for {
		entry, ok := p.parent[cur]
		if !ok {
			break
		}
		steps = append(steps, entry.Step)
		if entry.Step.Kind == model.StepStart {
			break
		}
		cur = entry.From
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}
