// Package schedule builds and queries the in-memory schedule index: stops
// by id, station/platform maps, per-stop sorted departures, per-trip
// ordered stop sequences, walk edges, and the spatial grid used for
// nearest-neighbour queries.
package schedule

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"meetway.dev/meetway/geo"
	"meetway.dev/meetway/model"
	"meetway.dev/meetway/storage"
)

// StationEntry is one row of the station lookup list consulted by the
// station resolver.
type StationEntry struct {
	ID         string
	Name       string
	LowerName  string
	Popularity int
}

// NearbyStop is one result of a nearest-neighbour query.
type NearbyStop struct {
	StopID   string
	Distance float64
}

// Index is the read-only, built-once schedule index. Safe for concurrent
// reads once Build has returned; nothing mutates it afterwards.
type Index struct {
	built bool

	stopByID           map[string]model.Stop
	stopIDToStationID  map[string]string
	stationToPlatforms map[string][]string
	stationName        map[string]string

	rowsAtStop map[string][]model.StopTime
	tripGroups map[string][]model.StopTime

	tripInfo  map[string]model.Trip
	routeInfo map[string]model.Route

	walkEdges     map[string][]model.WalkEdge
	providedPairs map[[2]string]bool

	grid map[geo.CellKey][]string

	stationList []StationEntry
}

// NewIndex builds a schedule index from everything a FeedReader holds.
func NewIndex(reader storage.FeedReader) (*Index, error) {
	idx := &Index{}
	if err := idx.Build(reader); err != nil {
		return nil, err
	}
	return idx, nil
}

// Build ingests reader's rows into the index. Idempotent: a second call
// on an already-built index returns immediately. Call Reset first to
// force a rebuild.
func (idx *Index) Build(reader storage.FeedReader) error {
	if idx.built {
		return nil
	}

	stops, err := reader.Stops()
	if err != nil {
		return errors.Wrap(err, "reading stops")
	}
	routes, err := reader.Routes()
	if err != nil {
		return errors.Wrap(err, "reading routes")
	}
	trips, err := reader.Trips()
	if err != nil {
		return errors.Wrap(err, "reading trips")
	}
	stopTimes, err := reader.StopTimes()
	if err != nil {
		return errors.Wrap(err, "reading stop_times")
	}
	pathways, err := reader.Pathways()
	if err != nil {
		return errors.Wrap(err, "reading pathways")
	}
	transfers, err := reader.Transfers()
	if err != nil {
		return errors.Wrap(err, "reading transfers")
	}

	idx.stopByID = make(map[string]model.Stop, len(stops))
	for _, s := range stops {
		idx.stopByID[s.ID] = s
	}

	idx.buildStations(stops)

	idx.rowsAtStop = make(map[string][]model.StopTime)
	idx.tripGroups = make(map[string][]model.StopTime)
	// parse already discards rows with no departure_sec; every row here
	// carries a valid Departure (Arrival may still be -1).
	for _, st := range stopTimes {
		idx.rowsAtStop[st.StopID] = append(idx.rowsAtStop[st.StopID], st)
		idx.tripGroups[st.TripID] = append(idx.tripGroups[st.TripID], st)
	}
	for stopID := range idx.rowsAtStop {
		rows := idx.rowsAtStop[stopID]
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Departure < rows[j].Departure
		})
		idx.rowsAtStop[stopID] = rows
	}
	for tripID := range idx.tripGroups {
		rows := idx.tripGroups[tripID]
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].StopSequence < rows[j].StopSequence
		})
		idx.tripGroups[tripID] = rows
	}

	idx.tripInfo = make(map[string]model.Trip, len(trips))
	for _, t := range trips {
		idx.tripInfo[t.ID] = t
	}
	idx.routeInfo = make(map[string]model.Route, len(routes))
	for _, r := range routes {
		idx.routeInfo[r.ID] = r
	}

	idx.buildWalkEdges(pathways, transfers)
	idx.buildGrid(stops)
	idx.buildStationList()

	idx.built = true
	return nil
}

// Reset clears the index so the next Build call re-ingests from scratch.
func (idx *Index) Reset() {
	*idx = Index{}
}

func (idx *Index) buildStations(stops []model.Stop) {
	idx.stopIDToStationID = make(map[string]string, len(stops))
	idx.stationToPlatforms = make(map[string][]string)

	for _, s := range stops {
		stationID := s.ParentStation
		if stationID == "" {
			stationID = s.ID
		}
		idx.stopIDToStationID[s.ID] = stationID
		idx.stationToPlatforms[stationID] = append(idx.stationToPlatforms[stationID], s.ID)
	}

	// Station display name: the stop_name of the explicit station record
	// (location_type=1) if present, else the name with the highest
	// occurrence count among the station's platforms (ties by name),
	// else the station id itself.
	idx.stationName = make(map[string]string, len(idx.stationToPlatforms))
	for stationID, platforms := range idx.stationToPlatforms {
		if station, ok := idx.stopByID[stationID]; ok && station.LocationType == model.LocationTypeStation {
			idx.stationName[stationID] = station.Name
			continue
		}

		counts := map[string]int{}
		for _, p := range platforms {
			if stop, ok := idx.stopByID[p]; ok && stop.Name != "" {
				counts[stop.Name]++
			}
		}
		if len(counts) == 0 {
			idx.stationName[stationID] = stationID
			continue
		}

		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if counts[names[i]] != counts[names[j]] {
				return counts[names[i]] > counts[names[j]]
			}
			return names[i] < names[j]
		})
		idx.stationName[stationID] = names[0]
	}
}

func (idx *Index) buildWalkEdges(pathways []model.Pathway, transfers []model.Transfer) {
	idx.walkEdges = make(map[string][]model.WalkEdge)
	idx.providedPairs = make(map[[2]string]bool)

	addEdge := func(from, to string, seconds int, source model.WalkSource) {
		t := seconds
		if t < 30 {
			t = 30
		}
		idx.walkEdges[from] = append(idx.walkEdges[from], model.WalkEdge{To: to, Time: t, Source: source})
		idx.providedPairs[[2]string{from, to}] = true
	}

	for _, pw := range pathways {
		addEdge(pw.FromStopID, pw.ToStopID, pw.TraversalTime, model.WalkSourcePathway)
	}
	for _, tr := range transfers {
		addEdge(tr.FromStopID, tr.ToStopID, tr.MinTransferTime, model.WalkSourceTransfer)
	}
}

func (idx *Index) buildGrid(stops []model.Stop) {
	idx.grid = make(map[geo.CellKey][]string)
	for _, s := range stops {
		if s.Lat == 0 && s.Lon == 0 {
			continue
		}
		key := geo.Cell(s.Lat, s.Lon)
		idx.grid[key] = append(idx.grid[key], s.ID)
	}
}

func (idx *Index) buildStationList() {
	popularity := map[string]int{}
	for stopID, rows := range idx.rowsAtStop {
		stationID := idx.stopIDToStationID[stopID]
		popularity[stationID] += len(rows)
	}

	byLowerName := map[string]StationEntry{}
	for stationID, name := range idx.stationName {
		entry := StationEntry{
			ID:         stationID,
			Name:       name,
			LowerName:  strings.ToLower(name),
			Popularity: popularity[stationID],
		}
		existing, ok := byLowerName[entry.LowerName]
		if !ok || entry.Popularity > existing.Popularity {
			byLowerName[entry.LowerName] = entry
		}
	}

	list := make([]StationEntry, 0, len(byLowerName))
	for _, entry := range byLowerName {
		list = append(list, entry)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Popularity != list[j].Popularity {
			return list[i].Popularity > list[j].Popularity
		}
		return list[i].Name < list[j].Name
	})

	idx.stationList = list
}

// Stop returns the stop record for id.
func (idx *Index) Stop(stopID string) (model.Stop, bool) {
	s, ok := idx.stopByID[stopID]
	return s, ok
}

// StationID returns the station a stop belongs to (its parent_station, or
// itself if it has none).
func (idx *Index) StationID(stopID string) (string, bool) {
	s, ok := idx.stopIDToStationID[stopID]
	return s, ok
}

// StationName returns a station's canonical display name.
func (idx *Index) StationName(stationID string) (string, bool) {
	n, ok := idx.stationName[stationID]
	return n, ok
}

// StationPlatforms returns the stop ids belonging to a station.
func (idx *Index) StationPlatforms(stationID string) []string {
	return idx.stationToPlatforms[stationID]
}

// RowsAtStop returns the stop-time rows at stopID, sorted by departure.
func (idx *Index) RowsAtStop(stopID string) []model.StopTime {
	return idx.rowsAtStop[stopID]
}

// TripGroup returns trip tripID's stop-time rows, sorted by stop_sequence.
func (idx *Index) TripGroup(tripID string) []model.StopTime {
	return idx.tripGroups[tripID]
}

// TripInfo returns trip metadata.
func (idx *Index) TripInfo(tripID string) (model.Trip, bool) {
	t, ok := idx.tripInfo[tripID]
	return t, ok
}

// RouteInfo returns route metadata.
func (idx *Index) RouteInfo(routeID string) (model.Route, bool) {
	r, ok := idx.routeInfo[routeID]
	return r, ok
}

// WalkEdges returns the pathway/transfer walk edges leaving stopID.
func (idx *Index) WalkEdges(stopID string) []model.WalkEdge {
	return idx.walkEdges[stopID]
}

// HasProvidedPair reports whether (from, to) came from an explicit
// pathway or transfer row — a pair whose GEO synthesis must be skipped.
func (idx *Index) HasProvidedPair(from, to string) bool {
	return idx.providedPairs[[2]string{from, to}]
}

// StationList returns the deduplicated, popularity-sorted station lookup
// list consulted by the station resolver.
func (idx *Index) StationList() []StationEntry {
	return idx.stationList
}

// NearbyStopsWithinRadius enumerates stops other than origin within
// radiusM meters, using the grid as a candidate filter and haversine as
// the exact check. No ordering guarantee; no duplicates.
func (idx *Index) NearbyStopsWithinRadius(origin string, radiusM float64) ([]NearbyStop, error) {
	stop, ok := idx.stopByID[origin]
	if !ok {
		return nil, errors.Errorf("unknown stop_id '%s'", origin)
	}
	return idx.nearbyFromPoint(stop.Lat, stop.Lon, origin, radiusM), nil
}

// NearbyStopsFromPoint enumerates stops within radiusM meters of an
// arbitrary (lat, lon) point not necessarily a stop itself — used for
// address seeding.
func (idx *Index) NearbyStopsFromPoint(lat, lon, radiusM float64) []NearbyStop {
	return idx.nearbyFromPoint(lat, lon, "", radiusM)
}

func (idx *Index) nearbyFromPoint(lat, lon float64, exclude string, radiusM float64) []NearbyStop {
	origin := geo.Cell(lat, lon)
	latCells, lonCells := geo.CellRadius(lat, radiusM)

	seen := map[string]bool{}
	if exclude != "" {
		seen[exclude] = true
	}

	var out []NearbyStop
	for dLat := -latCells; dLat <= latCells; dLat++ {
		for dLon := -lonCells; dLon <= lonCells; dLon++ {
			cell := geo.CellKey{Lat: origin.Lat + dLat, Lon: origin.Lon + dLon}
			for _, stopID := range idx.grid[cell] {
				if seen[stopID] {
					continue
				}
				seen[stopID] = true

				stop := idx.stopByID[stopID]
				d := geo.HaversineMeters(lat, lon, stop.Lat, stop.Lon)
				if d <= radiusM {
					out = append(out, NearbyStop{StopID: stopID, Distance: d})
				}
			}
		}
	}

	return out
}
