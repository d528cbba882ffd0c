package meet

import (
	"sort"
	"strings"

	"meetway.dev/meetway/schedule"
)

// Resolver maps textual station queries to canonical station ids, and
// picks a starting platform for a station at a given time — C8.
type Resolver struct {
	idx *schedule.Index
}

// NewResolver wraps a built schedule index.
func NewResolver(idx *schedule.Index) *Resolver {
	return &Resolver{idx: idx}
}

type stationMatch struct {
	entry schedule.StationEntry
	score int
	idx   int
}

// ResolveStation maps a textual query to a (station id, display name)
// pair via ranked substring matching.
func (r *Resolver) ResolveStation(query string) (string, string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", "", newError(ErrEmptyQuery, "empty station query")
	}

	var matches []stationMatch
	for _, entry := range r.idx.StationList() {
		at := strings.Index(entry.LowerName, q)
		if at < 0 {
			continue
		}

		score := 1
		if entry.LowerName == q {
			score = 3
		} else if at == 0 {
			score = 2
		}

		matches = append(matches, stationMatch{entry: entry, score: score, idx: at})
	}

	if len(matches) == 0 {
		return "", "", newError(ErrNoStationMatch, "no station matches %q", query)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.entry.Popularity != b.entry.Popularity {
			return a.entry.Popularity > b.entry.Popularity
		}
		if a.idx != b.idx {
			return a.idx < b.idx
		}
		return a.entry.Name < b.entry.Name
	})

	seen := map[string]bool{}
	deduped := matches[:0]
	for _, m := range matches {
		if seen[m.entry.LowerName] {
			continue
		}
		seen[m.entry.LowerName] = true
		deduped = append(deduped, m)
	}

	best := deduped[0]
	return best.entry.ID, best.entry.Name, nil
}

// PickStartPlatform chooses the station's platform whose earliest
// departure at or after t0 is minimal. If no platform has a qualifying
// departure, any platform is returned so dead-hour queries remain
// seedable. Returns ok=false only if the station has zero platforms.
func (r *Resolver) PickStartPlatform(stationID string, t0 int) (string, bool) {
	platforms := r.idx.StationPlatforms(stationID)
	if len(platforms) == 0 {
		return "", false
	}

	best := ""
	bestDeparture := -1
	for _, platform := range platforms {
		for _, row := range r.idx.RowsAtStop(platform) {
			if row.Departure >= t0 {
				if bestDeparture == -1 || row.Departure < bestDeparture {
					bestDeparture = row.Departure
					best = platform
				}
				break // RowsAtStop is sorted ascending by departure
			}
		}
	}

	if best == "" {
		best = platforms[0]
	}
	return best, true
}
