package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"meetway.dev/meetway/model"
	"meetway.dev/meetway/storage"
)

type storageBuilder func() (storage.Storage, error)

func writeSampleFeed(t *testing.T, s storage.Storage, hash string) {
	w, err := s.GetWriter(hash)
	require.NoError(t, err)

	require.NoError(t, w.WriteAgency(model.Agency{ID: "a1", Name: "Agency", Timezone: "UTC"}))
	require.NoError(t, w.WriteStop(model.Stop{ID: "s1", Name: "Stop 1", Lat: 1, Lon: 1}))
	require.NoError(t, w.WriteStop(model.Stop{ID: "s2", Name: "Stop 2", Lat: 2, Lon: 2}))
	require.NoError(t, w.WriteRoute(model.Route{ID: "r1", AgencyID: "a1", LongName: "Route 1", Type: model.RouteTypeBus}))
	require.NoError(t, w.WriteTrip(model.Trip{ID: "t1", RouteID: "r1", Headsign: "Downtown"}))
	require.NoError(t, w.WritePathway(model.Pathway{FromStopID: "s1", ToStopID: "s2", TraversalTime: 45}))
	require.NoError(t, w.WriteTransfer(model.Transfer{FromStopID: "s1", ToStopID: "s2", MinTransferTime: 60}))

	require.NoError(t, w.BeginStopTimes())
	require.NoError(t, w.WriteStopTime(model.StopTime{TripID: "t1", StopID: "s1", StopSequence: 0, Arrival: -1, Departure: 3600}))
	require.NoError(t, w.WriteStopTime(model.StopTime{TripID: "t1", StopID: "s2", StopSequence: 1, Arrival: 3700, Departure: 3700}))
	require.NoError(t, w.EndStopTimes())

	require.NoError(t, w.Close())
}

func testRoundTrip(t *testing.T, sb storageBuilder) {
	s, err := sb()
	require.NoError(t, err)

	has, err := s.Has("feed-1")
	require.NoError(t, err)
	require.False(t, has)

	writeSampleFeed(t, s, "feed-1")

	has, err = s.Has("feed-1")
	require.NoError(t, err)
	require.True(t, has)

	r, err := s.GetReader("feed-1")
	require.NoError(t, err)

	agencies, err := r.Agencies()
	require.NoError(t, err)
	require.Len(t, agencies, 1)
	require.Equal(t, "Agency", agencies[0].Name)

	stops, err := r.Stops()
	require.NoError(t, err)
	require.Len(t, stops, 2)

	routes, err := r.Routes()
	require.NoError(t, err)
	require.Len(t, routes, 1)
	require.Equal(t, model.RouteTypeBus, routes[0].Type)

	trips, err := r.Trips()
	require.NoError(t, err)
	require.Len(t, trips, 1)

	stopTimes, err := r.StopTimes()
	require.NoError(t, err)
	require.Len(t, stopTimes, 2)
	require.False(t, stopTimes[0].HasArrival())
	require.True(t, stopTimes[1].HasArrival())

	pathways, err := r.Pathways()
	require.NoError(t, err)
	require.Len(t, pathways, 1)
	require.Equal(t, 45, pathways[0].TraversalTime)

	transfers, err := r.Transfers()
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	require.Equal(t, 60, transfers[0].MinTransferTime)
}

func TestMemoryStorageRoundTrip(t *testing.T) {
	testRoundTrip(t, func() (storage.Storage, error) {
		return storage.NewMemoryStorage(), nil
	})
}

func TestSQLiteStorageRoundTrip(t *testing.T) {
	testRoundTrip(t, func() (storage.Storage, error) {
		return storage.NewSQLiteStorage()
	})
}

func TestMemoryStorageMissingFeed(t *testing.T) {
	s := storage.NewMemoryStorage()
	_, err := s.GetReader("does-not-exist")
	require.Error(t, err)
}
