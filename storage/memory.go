package storage

import (
	"fmt"

	"meetway.dev/meetway/model"
)

// In-memory implementation of Storage, used by tests and by the CLI/HTTP
// surface when STORAGE_BACKEND is "memory" (the default).

type MemoryStorage struct {
	Feeds map[string]*MemoryStorageFeed
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Feeds: map[string]*MemoryStorageFeed{},
	}
}

func (s *MemoryStorage) Has(hash string) (bool, error) {
	_, ok := s.Feeds[hash]
	return ok, nil
}

func (s *MemoryStorage) GetReader(hash string) (FeedReader, error) {
	f, ok := s.Feeds[hash]
	if !ok {
		return nil, fmt.Errorf("feed not found: %s", hash)
	}
	return f, nil
}

func (s *MemoryStorage) GetWriter(hash string) (FeedWriter, error) {
	f := &MemoryStorageFeed{}
	s.Feeds[hash] = f
	return f, nil
}

// MemoryStorageFeed holds every row of one ingested feed as plain slices.
// Unlike the SQL backends there is no indexing here — schedule.Index does
// its own indexing pass once after reading these back, so writes just
// append in arrival order.
type MemoryStorageFeed struct {
	agencies  []model.Agency
	stops     []model.Stop
	routes    []model.Route
	trips     []model.Trip
	stopTimes []model.StopTime
	pathways  []model.Pathway
	transfers []model.Transfer
}

func (f *MemoryStorageFeed) WriteAgency(agency model.Agency) error {
	f.agencies = append(f.agencies, agency)
	return nil
}

func (f *MemoryStorageFeed) WriteStop(stop model.Stop) error {
	f.stops = append(f.stops, stop)
	return nil
}

func (f *MemoryStorageFeed) WriteRoute(route model.Route) error {
	f.routes = append(f.routes, route)
	return nil
}

func (f *MemoryStorageFeed) WriteTrip(trip model.Trip) error {
	f.trips = append(f.trips, trip)
	return nil
}

func (f *MemoryStorageFeed) WritePathway(pw model.Pathway) error {
	f.pathways = append(f.pathways, pw)
	return nil
}

func (f *MemoryStorageFeed) WriteTransfer(tr model.Transfer) error {
	f.transfers = append(f.transfers, tr)
	return nil
}

func (f *MemoryStorageFeed) BeginStopTimes() error { return nil }

func (f *MemoryStorageFeed) WriteStopTime(st model.StopTime) error {
	f.stopTimes = append(f.stopTimes, st)
	return nil
}

func (f *MemoryStorageFeed) EndStopTimes() error { return nil }

func (f *MemoryStorageFeed) Close() error { return nil }

func (f *MemoryStorageFeed) Agencies() ([]model.Agency, error) {
	return f.agencies, nil
}

func (f *MemoryStorageFeed) Stops() ([]model.Stop, error) {
	return f.stops, nil
}

func (f *MemoryStorageFeed) Routes() ([]model.Route, error) {
	return f.routes, nil
}

func (f *MemoryStorageFeed) Trips() ([]model.Trip, error) {
	return f.trips, nil
}

func (f *MemoryStorageFeed) StopTimes() ([]model.StopTime, error) {
	return f.stopTimes, nil
}

func (f *MemoryStorageFeed) Pathways() ([]model.Pathway, error) {
	return f.pathways, nil
}

func (f *MemoryStorageFeed) Transfers() ([]model.Transfer, error) {
	return f.transfers, nil
}
