package storage

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"meetway.dev/meetway/model"
)

const (
	PSQLTripBatchSize     = 10000
	PSQLStopTimeBatchSize = 5000
)

type PSQLStorage struct {
	db *sql.DB
}

type PSQLFeedWriter struct {
	id          string
	db          *sql.DB
	tripBuf     []model.Trip
	stopTimeBuf []model.StopTime
}

type PSQLFeedReader struct {
	id string
	db *sql.DB
}

// NewPSQLStorage opens a Postgres-backed Storage using the provided
// connection string. If clearDB is true, all feed tables are dropped on
// startup — only useful for tests.
func NewPSQLStorage(connStr string, clearDB bool) (*PSQLStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if clearDB {
		_, err = db.Exec(`
DROP TABLE IF EXISTS agency;
DROP TABLE IF EXISTS stops;
DROP TABLE IF EXISTS routes;
DROP TABLE IF EXISTS trips;
DROP TABLE IF EXISTS stop_times;
DROP TABLE IF EXISTS pathways;
DROP TABLE IF EXISTS transfers;
`)
		if err != nil {
			return nil, fmt.Errorf("clearing db: %w", err)
		}
	}

	return &PSQLStorage{db: db}, nil
}

func (s *PSQLStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close db: %w", err)
	}
	return nil
}

func (s *PSQLStorage) Has(hash string) (bool, error) {
	var exists bool
	row := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM stops WHERE hash = $1)`, hash)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("checking feed existence: %w", err)
	}
	return exists, nil
}

func (s *PSQLStorage) GetReader(hash string) (FeedReader, error) {
	return &PSQLFeedReader{id: hash, db: s.db}, nil
}

var psqlTables = map[string]string{
	"agency": `
CREATE TABLE IF NOT EXISTS agency (
    hash TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    url TEXT,
    timezone TEXT,
    PRIMARY KEY(hash, id)
);`,
	"stops": `
CREATE TABLE IF NOT EXISTS stops (
    hash TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    lat DOUBLE PRECISION NOT NULL,
    lon DOUBLE PRECISION NOT NULL,
    location_type INTEGER NOT NULL,
    parent_station TEXT,
    PRIMARY KEY(hash, id)
);
CREATE INDEX IF NOT EXISTS stops_parent_station ON stops (parent_station);
`,
	"routes": `
CREATE TABLE IF NOT EXISTS routes (
    hash TEXT NOT NULL,
    id TEXT NOT NULL,
    agency_id TEXT,
    short_name TEXT,
    long_name TEXT NOT NULL,
    type INTEGER NOT NULL,
    PRIMARY KEY(hash, id)
);`,
	"trips": `
CREATE TABLE IF NOT EXISTS trips (
    hash TEXT NOT NULL,
    id TEXT NOT NULL,
    route_id TEXT NOT NULL,
    headsign TEXT,
    direction_id INTEGER,
    shape_id TEXT,
    PRIMARY KEY(hash, id)
);
CREATE INDEX IF NOT EXISTS trips_route_id ON trips (route_id);
`,
	"stop_times": `
CREATE TABLE IF NOT EXISTS stop_times (
    hash TEXT NOT NULL,
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time INTEGER NOT NULL,
    departure_time INTEGER NOT NULL,
    headsign TEXT,
    PRIMARY KEY(hash, trip_id, stop_sequence)
);
CREATE INDEX IF NOT EXISTS stop_times_trip_id ON stop_times (trip_id);
CREATE INDEX IF NOT EXISTS stop_times_stop_id ON stop_times (stop_id);
`,
	"pathways": `
CREATE TABLE IF NOT EXISTS pathways (
    hash TEXT NOT NULL,
    from_stop_id TEXT NOT NULL,
    to_stop_id TEXT NOT NULL,
    traversal_time INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS pathways_from_stop_id ON pathways (hash, from_stop_id);
`,
	"transfers": `
CREATE TABLE IF NOT EXISTS transfers (
    hash TEXT NOT NULL,
    from_stop_id TEXT NOT NULL,
    to_stop_id TEXT NOT NULL,
    min_transfer_time INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS transfers_from_stop_id ON transfers (hash, from_stop_id);
`,
}

func (s *PSQLStorage) GetWriter(hash string) (FeedWriter, error) {
	for name, query := range psqlTables {
		if _, err := s.db.Exec(query); err != nil {
			return nil, fmt.Errorf("creating %s table: %s", name, err)
		}
	}

	for name := range psqlTables {
		if _, err := s.db.Exec(`DELETE FROM `+name+` WHERE hash = $1`, hash); err != nil {
			return nil, fmt.Errorf("deleting %s records: %s", name, err)
		}
	}

	return &PSQLFeedWriter{id: hash, db: s.db}, nil
}

func (w *PSQLFeedWriter) WriteAgency(a model.Agency) error {
	_, err := w.db.Exec(`
INSERT INTO agency (hash, id, name, url, timezone)
VALUES ($1, $2, $3, $4, $5)`,
		w.id, a.ID, a.Name, a.URL, a.Timezone,
	)
	if err != nil {
		return fmt.Errorf("inserting agency: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteStop(stop model.Stop) error {
	var parentStation sql.NullString
	if stop.ParentStation != "" {
		parentStation = sql.NullString{String: stop.ParentStation, Valid: true}
	}
	_, err := w.db.Exec(`
INSERT INTO stops (hash, id, name, description, lat, lon, location_type, parent_station)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.id, stop.ID, stop.Name, stop.Desc, stop.Lat, stop.Lon, stop.LocationType, parentStation,
	)
	if err != nil {
		return fmt.Errorf("inserting stop: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteRoute(route model.Route) error {
	_, err := w.db.Exec(`
INSERT INTO routes (hash, id, agency_id, short_name, long_name, type)
VALUES ($1, $2, $3, $4, $5, $6)`,
		w.id, route.ID, route.AgencyID, route.ShortName, route.LongName, route.Type,
	)
	if err != nil {
		return fmt.Errorf("inserting route: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteTrip(trip model.Trip) error {
	w.tripBuf = append(w.tripBuf, trip)

	if len(w.tripBuf) >= PSQLTripBatchSize {
		if err := w.flushTrips(); err != nil {
			return fmt.Errorf("flushing trips: %w", err)
		}
	}

	return nil
}

func (w *PSQLFeedWriter) flushTrips() error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(pq.CopyIn(
		"trips", "hash", "id", "route_id", "headsign", "direction_id", "shape_id",
	))
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, trip := range w.tripBuf {
		if _, err := stmt.Exec(w.id, trip.ID, trip.RouteID, trip.Headsign, trip.DirectionID, trip.ShapeID); err != nil {
			return fmt.Errorf("COPY trip: %w", err)
		}
	}

	if _, err := stmt.Exec(); err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	w.tripBuf = nil

	return nil
}

func (w *PSQLFeedWriter) WritePathway(pw model.Pathway) error {
	_, err := w.db.Exec(`
INSERT INTO pathways (hash, from_stop_id, to_stop_id, traversal_time)
VALUES ($1, $2, $3, $4)`,
		w.id, pw.FromStopID, pw.ToStopID, pw.TraversalTime,
	)
	if err != nil {
		return fmt.Errorf("inserting pathway: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteTransfer(tr model.Transfer) error {
	_, err := w.db.Exec(`
INSERT INTO transfers (hash, from_stop_id, to_stop_id, min_transfer_time)
VALUES ($1, $2, $3, $4)`,
		w.id, tr.FromStopID, tr.ToStopID, tr.MinTransferTime,
	)
	if err != nil {
		return fmt.Errorf("inserting transfer: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) BeginStopTimes() error {
	return nil
}

func (w *PSQLFeedWriter) WriteStopTime(stopTime model.StopTime) error {
	w.stopTimeBuf = append(w.stopTimeBuf, stopTime)

	if len(w.stopTimeBuf) >= PSQLStopTimeBatchSize {
		if err := w.flushStopTimes(); err != nil {
			return fmt.Errorf("flushing stop_times: %w", err)
		}
	}

	return nil
}

func (w *PSQLFeedWriter) EndStopTimes() error {
	if len(w.tripBuf) > 0 {
		if err := w.flushTrips(); err != nil {
			return fmt.Errorf("flushing trips: %w", err)
		}
	}
	if len(w.stopTimeBuf) > 0 {
		if err := w.flushStopTimes(); err != nil {
			return fmt.Errorf("flushing stop_times: %w", err)
		}
	}
	return nil
}

func (w *PSQLFeedWriter) flushStopTimes() error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(pq.CopyIn(
		"stop_times", "hash", "trip_id", "stop_id", "stop_sequence", "arrival_time", "departure_time", "headsign",
	))
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, st := range w.stopTimeBuf {
		_, err = stmt.Exec(
			w.id, st.TripID, st.StopID, st.StopSequence, st.Arrival, st.Departure, st.Headsign,
		)
		if err != nil {
			return fmt.Errorf("COPY stop_time: %w", err)
		}
	}

	if _, err := stmt.Exec(); err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	w.stopTimeBuf = nil

	return nil
}

func (w *PSQLFeedWriter) Close() error {
	if _, err := w.db.Exec(`ANALYZE`); err != nil {
		return fmt.Errorf("analyzing: %w", err)
	}
	return nil
}

func (r *PSQLFeedReader) Agencies() ([]model.Agency, error) {
	rows, err := r.db.Query(`
SELECT id, name, url, timezone
FROM agency
WHERE hash = $1`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying agencies: %w", err)
	}
	defer rows.Close()

	agencies := []model.Agency{}
	for rows.Next() {
		a := model.Agency{}
		if err := rows.Scan(&a.ID, &a.Name, &a.URL, &a.Timezone); err != nil {
			return nil, fmt.Errorf("scanning agency: %w", err)
		}
		agencies = append(agencies, a)
	}

	return agencies, nil
}

func (r *PSQLFeedReader) Stops() ([]model.Stop, error) {
	rows, err := r.db.Query(`
SELECT id, name, description, lat, lon, location_type, parent_station
FROM stops
WHERE hash = $1`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying stops: %w", err)
	}
	defer rows.Close()

	stops := []model.Stop{}
	for rows.Next() {
		s := model.Stop{}
		parentStation := sql.NullString{}
		err := rows.Scan(&s.ID, &s.Name, &s.Desc, &s.Lat, &s.Lon, &s.LocationType, &parentStation)
		if err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		if parentStation.Valid {
			s.ParentStation = parentStation.String
		}
		stops = append(stops, s)
	}

	return stops, nil
}

func (r *PSQLFeedReader) Routes() ([]model.Route, error) {
	rows, err := r.db.Query(`
SELECT id, agency_id, short_name, long_name, type
FROM routes
WHERE hash = $1`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	routes := []model.Route{}
	for rows.Next() {
		route := model.Route{}
		if err := rows.Scan(&route.ID, &route.AgencyID, &route.ShortName, &route.LongName, &route.Type); err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		routes = append(routes, route)
	}

	return routes, nil
}

func (r *PSQLFeedReader) Trips() ([]model.Trip, error) {
	rows, err := r.db.Query(`
SELECT id, route_id, headsign, direction_id, shape_id
FROM trips
WHERE hash = $1`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying trips: %w", err)
	}
	defer rows.Close()

	trips := []model.Trip{}
	for rows.Next() {
		t := model.Trip{}
		if err := rows.Scan(&t.ID, &t.RouteID, &t.Headsign, &t.DirectionID, &t.ShapeID); err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		trips = append(trips, t)
	}

	return trips, nil
}

func (r *PSQLFeedReader) StopTimes() ([]model.StopTime, error) {
	rows, err := r.db.Query(`
SELECT trip_id, stop_id, headsign, stop_sequence, arrival_time, departure_time
FROM stop_times
WHERE hash = $1`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying stop times: %w", err)
	}
	defer rows.Close()

	stopTimes := []model.StopTime{}
	for rows.Next() {
		st := model.StopTime{}
		err := rows.Scan(&st.TripID, &st.StopID, &st.Headsign, &st.StopSequence, &st.Arrival, &st.Departure)
		if err != nil {
			return nil, fmt.Errorf("scanning stop time: %w", err)
		}
		stopTimes = append(stopTimes, st)
	}

	return stopTimes, nil
}

func (r *PSQLFeedReader) Pathways() ([]model.Pathway, error) {
	rows, err := r.db.Query(`
SELECT from_stop_id, to_stop_id, traversal_time
FROM pathways
WHERE hash = $1`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying pathways: %w", err)
	}
	defer rows.Close()

	pathways := []model.Pathway{}
	for rows.Next() {
		pw := model.Pathway{}
		if err := rows.Scan(&pw.FromStopID, &pw.ToStopID, &pw.TraversalTime); err != nil {
			return nil, fmt.Errorf("scanning pathway: %w", err)
		}
		pathways = append(pathways, pw)
	}

	return pathways, nil
}

func (r *PSQLFeedReader) Transfers() ([]model.Transfer, error) {
	rows, err := r.db.Query(`
SELECT from_stop_id, to_stop_id, min_transfer_time
FROM transfers
WHERE hash = $1`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying transfers: %w", err)
	}
	defer rows.Close()

	transfers := []model.Transfer{}
	for rows.Next() {
		tr := model.Transfer{}
		if err := rows.Scan(&tr.FromStopID, &tr.ToStopID, &tr.MinTransferTime); err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		transfers = append(transfers, tr)
	}

	return transfers, nil
}
