package meet

import (
	"math"

	"meetway.dev/meetway/geo"
	"meetway.dev/meetway/model"
	"meetway.dev/meetway/pqueue"
	"meetway.dev/meetway/schedule"
)

// LatLon is a geographic point used for address-seeded origins.
type LatLon struct {
	Lat float64
	Lon float64
}

// ParticipantSpec describes one rider's origin: either a textual station
// query (optionally pinned to a specific platform) or a raw address.
type ParticipantSpec struct {
	Label          string
	StationQuery   string
	ExplicitStopID string
	Address        *LatLon
}

type reachedInfo struct {
	Arrive  int
	Elapsed float64
}

type parentEntry struct {
	From string
	Step model.Step
}

// participant is the owned, per-query state of C5: heap of pending
// expansions, best-known elapsed per stop, first-settled record, and the
// parent chain for path reconstruction.
type participant struct {
	label string
	t0    int

	heap         *pqueue.Queue
	bestElapsed  map[string]float64
	reachedFirst map[string]reachedInfo
	parent       map[string]parentEntry
	distCache    map[string]float64

	capExceeded bool
}

func newParticipant(label string, t0 int) *participant {
	return &participant{
		label:        label,
		t0:           t0,
		heap:         pqueue.New(),
		bestElapsed:  map[string]float64{},
		reachedFirst: map[string]reachedInfo{},
		parent:       map[string]parentEntry{},
		distCache:    map[string]float64{},
	}
}

func (p *participant) distToMidpoint(idx *schedule.Index, stopID string, midpoint LatLon) float64 {
	if d, ok := p.distCache[stopID]; ok {
		return d
	}
	stop, ok := idx.Stop(stopID)
	d := 0.0
	if ok {
		d = geo.HaversineMeters(midpoint.Lat, midpoint.Lon, stop.Lat, stop.Lon)
	}
	p.distCache[stopID] = d
	return d
}

func (p *participant) push(idx *schedule.Index, midpoint LatLon, toStop string, step model.Step, elapsed float64) {
	key := pqueue.Key{
		Elapsed:     elapsed,
		ArrivalAbs:  float64(step.Arrive),
		MidpointDst: p.distToMidpoint(idx, toStop, midpoint),
		ToStop:      toStop,
	}
	p.heap.Push(key, frontierEntry{ToStop: toStop, Step: step, Elapsed: elapsed})
}

type frontierEntry struct {
	ToStop  string
	Step    model.Step
	Elapsed float64
}

// originCoord resolves the geographic point a spec's participant departs
// from, needed to compute the midpoint tiebreaker and, for station
// origins, to choose the first platform.
func originCoord(idx *schedule.Index, resolver *Resolver, spec ParticipantSpec, t0 int) (LatLon, string, error) {
	if spec.Address != nil {
		return *spec.Address, "", nil
	}

	stationID, _, err := resolver.ResolveStation(spec.StationQuery)
	if err != nil {
		return LatLon{}, "", err
	}

	platform := spec.ExplicitStopID
	if platform != "" {
		if owner, ok := idx.StationID(platform); !ok || owner != stationID {
			return LatLon{}, "", newError(ErrStartPlatformMismatch,
				"start_stop_id %q does not belong to station %q", platform, stationID)
		}
	} else {
		picked, ok := resolver.PickStartPlatform(stationID, t0)
		if !ok {
			return LatLon{}, "", newError(ErrNoDeparturePlatform, "station %q has no platforms", stationID)
		}
		platform = picked
	}

	stop, _ := idx.Stop(platform)
	return LatLon{Lat: stop.Lat, Lon: stop.Lon}, platform, nil
}

// primeParticipants resolves every spec's origin, computes the shared
// midpoint tiebreaker, and seeds each participant's heap (station START
// entry, or address WALK entries).
func primeParticipants(
	idx *schedule.Index,
	resolver *Resolver,
	specs []ParticipantSpec,
	t0 int,
	c Constants,
) ([]*participant, LatLon, error) {
	type resolved struct {
		coord    LatLon
		platform string
	}

	resolveds := make([]resolved, len(specs))
	var sumLat, sumLon float64
	for i, spec := range specs {
		coord, platform, err := originCoord(idx, resolver, spec, t0)
		if err != nil {
			return nil, LatLon{}, err
		}
		resolveds[i] = resolved{coord: coord, platform: platform}
		sumLat += coord.Lat
		sumLon += coord.Lon
	}

	midpoint := LatLon{Lat: sumLat / float64(len(specs)), Lon: sumLon / float64(len(specs))}

	participants := make([]*participant, len(specs))
	for i, spec := range specs {
		p := newParticipant(spec.Label, t0)

		if spec.Address != nil {
			nearby := idx.NearbyStopsFromPoint(spec.Address.Lat, spec.Address.Lon, c.MaxInitialWalk)
			if len(nearby) == 0 {
				return nil, LatLon{}, newError(ErrNoStationsNearAddress,
					"no stations within %.0fm of participant %q's address", c.MaxInitialWalk, spec.Label)
			}
			for _, n := range nearby {
				walkSec := maxInt(c.MinTravel, ceilDiv(n.Distance, c.WalkSpeed))
				step := model.Step{
					Kind:       model.StepWalk,
					Owner:      spec.Label,
					FromStop:   "",
					ToStop:     n.StopID,
					Depart:     t0,
					Arrive:     t0 + walkSec,
					WalkSec:    walkSec,
					WalkSource: model.WalkSourceAddress,
					DistanceM:  math.Round(n.Distance),
					HasDist:    true,
				}
				p.push(idx, midpoint, n.StopID, step, float64(walkSec))
			}
		} else {
			platform := resolveds[i].platform
			step := model.Step{
				Kind:     model.StepStart,
				Owner:    spec.Label,
				FromStop: "",
				ToStop:   platform,
				Depart:   t0,
				Arrive:   t0,
			}
			p.push(idx, midpoint, platform, step, 0)
		}

		participants[i] = p
	}

	return participants, midpoint, nil
}

// expand enumerates the three classes of out-edges from (cur, curTime,
// elapsed) and pushes them onto p's heap — C5's edge enumerator.
func expand(idx *schedule.Index, c Constants, p *participant, cur string, curTime int, elapsed float64, midpoint LatLon) {
	expandWalkEdges(idx, c, p, cur, curTime, elapsed, midpoint)
	expandGeoWalks(idx, c, p, cur, curTime, elapsed, midpoint)
	expandRides(idx, p, cur, curTime, elapsed, midpoint)
}

func expandWalkEdges(idx *schedule.Index, c Constants, p *participant, cur string, curTime int, elapsed float64, midpoint LatLon) {
	for _, edge := range idx.WalkEdges(cur) {
		walkSec := maxInt(c.MinTravel, edge.Time)
		step := model.Step{
			Kind:       model.StepWalk,
			Owner:      p.label,
			FromStop:   cur,
			ToStop:     edge.To,
			Depart:     curTime,
			Arrive:     curTime + walkSec,
			WalkSec:    walkSec,
			WalkSource: edge.Source,
		}
		p.push(idx, midpoint, edge.To, step, elapsed+float64(walkSec))
	}
}

func expandGeoWalks(idx *schedule.Index, c Constants, p *participant, cur string, curTime int, elapsed float64, midpoint LatLon) {
	candidates, err := idx.NearbyStopsWithinRadius(cur, c.MaxWalkRadius)
	if err != nil {
		return
	}
	for _, cand := range candidates {
		if idx.HasProvidedPair(cur, cand.StopID) {
			continue
		}
		walkSec := maxInt(c.MinTravel, ceilDiv(cand.Distance, c.WalkSpeed))
		if walkSec > c.MaxWalkTime {
			continue
		}
		step := model.Step{
			Kind:       model.StepWalk,
			Owner:      p.label,
			FromStop:   cur,
			ToStop:     cand.StopID,
			Depart:     curTime,
			Arrive:     curTime + walkSec,
			WalkSec:    walkSec,
			WalkSource: model.WalkSourceGeo,
			DistanceM:  math.Round(cand.Distance),
			HasDist:    true,
		}
		p.push(idx, midpoint, cand.StopID, step, elapsed+float64(walkSec))
	}
}

func expandRides(idx *schedule.Index, p *participant, cur string, curTime int, elapsed float64, midpoint LatLon) {
	for _, board := range idx.RowsAtStop(cur) {
		if board.Departure < curTime {
			continue
		}
		wait := board.Departure - curTime

		group := idx.TripGroup(board.TripID)
		for _, alight := range group {
			if alight.StopSequence <= board.StopSequence || !alight.HasArrival() {
				continue
			}
			ride := alight.Arrival - board.Departure
			trip, _ := idx.TripInfo(board.TripID)
			headsign := alight.Headsign
			if headsign == "" {
				headsign = trip.Headsign
			}
			step := model.Step{
				Kind:     model.StepRide,
				Owner:    p.label,
				FromStop: cur,
				ToStop:   alight.StopID,
				Depart:   board.Departure,
				Arrive:   alight.Arrival,
				TripID:   board.TripID,
				RouteID:  trip.RouteID,
				Headsign: headsign,
				WaitSec:  wait,
				RideSec:  ride,
			}
			p.push(idx, midpoint, alight.StopID, step, elapsed+float64(wait+ride))
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func ceilDiv(distance, speed float64) int {
	return int(math.Ceil(distance / speed))
}
