package meet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetway.dev/meetway/meet"
	"meetway.dev/meetway/model"
	"meetway.dev/meetway/schedule"
	"meetway.dev/meetway/storage"
)

func buildResolverIndex(t *testing.T) *schedule.Index {
	return buildIndex(t, func(w storage.FeedWriter) {
		require.NoError(t, w.WriteStop(model.Stop{ID: "hbf", Name: "Hauptbahnhof", Lat: 1, Lon: 1, LocationType: model.LocationTypeStation}))
		require.NoError(t, w.WriteStop(model.Stop{ID: "hbf-p1", Name: "Hauptbahnhof Gleis 1", ParentStation: "hbf", Lat: 1, Lon: 1}))
		require.NoError(t, w.WriteStop(model.Stop{ID: "hof", Name: "Hof", Lat: 2, Lon: 2}))
		require.NoError(t, w.WriteStop(model.Stop{ID: "nord", Name: "Nordbahnhof", Lat: 3, Lon: 3}))
		require.NoError(t, w.BeginStopTimes())
		require.NoError(t, w.WriteStopTime(model.StopTime{TripID: "t1", StopID: "hbf-p1", StopSequence: 1, Arrival: -1, Departure: 100}))
		require.NoError(t, w.WriteStopTime(model.StopTime{TripID: "t2", StopID: "hbf-p1", StopSequence: 1, Arrival: -1, Departure: 200}))
		require.NoError(t, w.WriteStopTime(model.StopTime{TripID: "t3", StopID: "nord", StopSequence: 1, Arrival: -1, Departure: 50}))
		require.NoError(t, w.EndStopTimes())
	})
}

func TestResolveStation_ExactBeatsSubstring(t *testing.T) {
	idx := buildResolverIndex(t)
	r := meet.NewResolver(idx)

	id, name, err := r.ResolveStation("hof")
	require.NoError(t, err)
	assert.Equal(t, "hof", id)
	assert.Equal(t, "Hof", name)
}

func TestResolveStation_SubstringTieBrokenByPopularity(t *testing.T) {
	idx := buildResolverIndex(t)
	r := meet.NewResolver(idx)

	// "bahnhof" is a substring of both "Hauptbahnhof" and "Nordbahnhof" —
	// neither is exact nor a prefix, so the tie is broken by popularity
	// (hbf has 2 stop_time rows, nord has 1).
	id, _, err := r.ResolveStation("bahnhof")
	require.NoError(t, err)
	assert.Equal(t, "hbf", id)
}

func TestResolveStation_EmptyQueryRejected(t *testing.T) {
	idx := buildResolverIndex(t)
	r := meet.NewResolver(idx)

	_, _, err := r.ResolveStation("   ")
	se, ok := meet.AsSearchError(err)
	require.True(t, ok)
	assert.Equal(t, meet.ErrEmptyQuery, se.Kind)
}

func TestResolveStation_NoMatch(t *testing.T) {
	idx := buildResolverIndex(t)
	r := meet.NewResolver(idx)

	_, _, err := r.ResolveStation("zzz-nonexistent")
	se, ok := meet.AsSearchError(err)
	require.True(t, ok)
	assert.Equal(t, meet.ErrNoStationMatch, se.Kind)
}

func TestPickStartPlatform_EarliestDepartureAtOrAfterT0(t *testing.T) {
	idx := buildResolverIndex(t)
	r := meet.NewResolver(idx)

	platform, ok := r.PickStartPlatform("hbf", 150)
	require.True(t, ok)
	assert.Equal(t, "hbf-p1", platform)
}

func TestPickStartPlatform_FallsBackWhenNoQualifyingDeparture(t *testing.T) {
	idx := buildResolverIndex(t)
	r := meet.NewResolver(idx)

	// No departure at or after t0: the first member of the station, which is
	// the station record "hbf" itself, is returned.
	platform, ok := r.PickStartPlatform("hbf", 10_000)
	require.True(t, ok)
	assert.Equal(t, "hbf", platform)
}

func TestPickStartPlatform_UnknownStation(t *testing.T) {
	idx := buildResolverIndex(t)
	r := meet.NewResolver(idx)

	_, ok := r.PickStartPlatform("does-not-exist", 0)
	assert.False(t, ok)
}
