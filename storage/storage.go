package storage

import (
	"time"

	"meetway.dev/meetway/model"
)

// Storage holds ingested feeds, keyed by a content hash. Unlike a feed
// manager's network-refresh lifecycle (out of scope here — spec.md
// excludes feed loading from disk or network as a collaborator), this is
// deliberately minimal: ingest once, read many times.
type Storage interface {
	// GetWriter returns a FeedWriter for a brand new feed identified by
	// hash.
	GetWriter(hash string) (FeedWriter, error)

	// GetReader returns a reader for a previously written feed.
	GetReader(hash string) (FeedReader, error)

	// Has reports whether a feed with the given hash has already been
	// ingested, so a caller can skip re-parsing unchanged feed bytes.
	Has(hash string) (bool, error)
}

// FeedMetadata carries the handful of facts about an ingested feed beyond
// its raw rows.
type FeedMetadata struct {
	Hash        string
	RetrievedAt time.Time
	Timezone    string
}

// FeedWriter writes GTFS records for a single feed. As stop_times.txt
// tends to be very large, BeginStopTimes/EndStopTimes bracket all
// WriteStopTime calls, allowing transactions/batching.
type FeedWriter interface {
	WriteAgency(agency model.Agency) error
	WriteStop(stop model.Stop) error
	WriteRoute(route model.Route) error
	WriteTrip(trip model.Trip) error
	WritePathway(pw model.Pathway) error
	WriteTransfer(tr model.Transfer) error
	BeginStopTimes() error
	WriteStopTime(st model.StopTime) error
	EndStopTimes() error
	Close() error
}

// FeedReader reads back everything written through a FeedWriter for the
// same feed hash.
type FeedReader interface {
	Agencies() ([]model.Agency, error)
	Stops() ([]model.Stop, error)
	Routes() ([]model.Route, error)
	Trips() ([]model.Trip, error)
	StopTimes() ([]model.StopTime, error)
	Pathways() ([]model.Pathway, error)
	Transfers() ([]model.Transfer, error)
}
