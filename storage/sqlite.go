package storage

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"meetway.dev/meetway/model"
)

type SQLiteConfig struct {
	OnDisk    bool
	Directory string
}

type SQLiteStorage struct {
	SQLiteConfig

	feeds map[string]*sql.DB
}

type SQLiteFeedWriter struct {
	db                  *sql.DB
	stopTimeInsertQuery *sql.Stmt
	stopTimeInsertTx    *sql.Tx
}

type SQLiteFeedReader struct {
	db *sql.DB
}

func NewSQLiteStorage(cfg ...SQLiteConfig) (*SQLiteStorage, error) {
	onDisk := false
	directory := ""
	if len(cfg) > 0 {
		onDisk = cfg[0].OnDisk
		directory = cfg[0].Directory
	}

	return &SQLiteStorage{
		SQLiteConfig: SQLiteConfig{
			OnDisk:    onDisk,
			Directory: directory,
		},
		feeds: map[string]*sql.DB{},
	}, nil
}

func (s *SQLiteStorage) dbPath(hash string) string {
	if !s.OnDisk {
		return ":memory:"
	}
	return s.Directory + "/" + hash + ".db"
}

func (s *SQLiteStorage) Has(hash string) (bool, error) {
	if _, ok := s.feeds[hash]; ok {
		return true, nil
	}
	if !s.OnDisk {
		return false, nil
	}
	if _, err := os.Stat(s.dbPath(hash)); err == nil {
		return true, nil
	}
	return false, nil
}

func (s *SQLiteStorage) GetReader(hash string) (FeedReader, error) {
	if db, found := s.feeds[hash]; found {
		return &SQLiteFeedReader{db: db}, nil
	}
	if !s.OnDisk {
		return nil, fmt.Errorf("feed %s does not exist", hash)
	}

	sourceName := s.dbPath(hash)
	if _, err := os.Stat(sourceName); os.IsNotExist(err) {
		return nil, fmt.Errorf("feed %s does not exist at %s", hash, sourceName)
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s.feeds[hash] = db

	return &SQLiteFeedReader{db: db}, nil
}

func (s *SQLiteStorage) GetWriter(hash string) (FeedWriter, error) {
	sourceName := s.dbPath(hash)
	if s.OnDisk {
		if _, err := os.Stat(sourceName); err == nil {
			if err := os.Remove(sourceName); err != nil {
				return nil, fmt.Errorf("removing existing database: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for name, query := range map[string]string{
		"agency": `
CREATE TABLE agency (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    url TEXT,
    timezone TEXT
);`,
		"stops": `
CREATE TABLE stops (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    desc TEXT,
    lat REAL NOT NULL,
    lon REAL NOT NULL,
    location_type INTEGER NOT NULL,
    parent_station TEXT
);
CREATE INDEX stops_parent_station ON stops (parent_station);
`,
		"routes": `
CREATE TABLE routes (
    id TEXT PRIMARY KEY,
    agency_id TEXT,
    short_name TEXT,
    long_name TEXT NOT NULL,
    type INTEGER NOT NULL
);`,
		"trips": `
CREATE TABLE trips (
    id TEXT PRIMARY KEY,
    route_id TEXT NOT NULL,
    headsign TEXT,
    direction_id INTEGER,
    shape_id TEXT
);
CREATE INDEX trips_route_id ON trips (route_id);
`,
		"stop_times": `
CREATE TABLE stop_times (
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time INTEGER NOT NULL,
    departure_time INTEGER NOT NULL,
    headsign TEXT
);
CREATE INDEX stop_times_trip_id ON stop_times (trip_id);
CREATE INDEX stop_times_stop_id ON stop_times (stop_id);
`,
		"pathways": `
CREATE TABLE pathways (
    from_stop_id TEXT NOT NULL,
    to_stop_id TEXT NOT NULL,
    traversal_time INTEGER NOT NULL
);
CREATE INDEX pathways_from_stop_id ON pathways (from_stop_id);
`,
		"transfers": `
CREATE TABLE transfers (
    from_stop_id TEXT NOT NULL,
    to_stop_id TEXT NOT NULL,
    min_transfer_time INTEGER NOT NULL
);
CREATE INDEX transfers_from_stop_id ON transfers (from_stop_id);
`,
	} {
		if _, err = db.Exec(query); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating %s table: %s", name, err)
		}
	}

	s.feeds[hash] = db

	return &SQLiteFeedWriter{db: db}, nil
}

func (f *SQLiteFeedWriter) WriteAgency(a model.Agency) error {
	_, err := f.db.Exec(`
INSERT INTO agency (id, name, url, timezone)
VALUES (?, ?, ?, ?)`,
		a.ID, a.Name, a.URL, a.Timezone,
	)
	if err != nil {
		return fmt.Errorf("inserting agency: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteStop(stop model.Stop) error {
	_, err := f.db.Exec(`
INSERT INTO stops (id, name, desc, lat, lon, location_type, parent_station)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stop.ID, stop.Name, stop.Desc, stop.Lat, stop.Lon, stop.LocationType, stop.ParentStation,
	)
	if err != nil {
		return fmt.Errorf("inserting stop: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteRoute(route model.Route) error {
	_, err := f.db.Exec(`
INSERT INTO routes (id, agency_id, short_name, long_name, type)
VALUES (?, ?, ?, ?, ?)`,
		route.ID, route.AgencyID, route.ShortName, route.LongName, route.Type,
	)
	if err != nil {
		return fmt.Errorf("inserting route: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteTrip(trip model.Trip) error {
	_, err := f.db.Exec(`
INSERT INTO trips (id, route_id, headsign, direction_id, shape_id)
VALUES (?, ?, ?, ?, ?)`,
		trip.ID, trip.RouteID, trip.Headsign, trip.DirectionID, trip.ShapeID,
	)
	if err != nil {
		return fmt.Errorf("inserting trip: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WritePathway(pw model.Pathway) error {
	_, err := f.db.Exec(`
INSERT INTO pathways (from_stop_id, to_stop_id, traversal_time)
VALUES (?, ?, ?)`,
		pw.FromStopID, pw.ToStopID, pw.TraversalTime,
	)
	if err != nil {
		return fmt.Errorf("inserting pathway: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteTransfer(tr model.Transfer) error {
	_, err := f.db.Exec(`
INSERT INTO transfers (from_stop_id, to_stop_id, min_transfer_time)
VALUES (?, ?, ?)`,
		tr.FromStopID, tr.ToStopID, tr.MinTransferTime,
	)
	if err != nil {
		return fmt.Errorf("inserting transfer: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) BeginStopTimes() error {
	var err error
	f.stopTimeInsertTx, err = f.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning stop_time insert transaction: %w", err)
	}

	f.stopTimeInsertQuery, err = f.stopTimeInsertTx.Prepare(`
INSERT INTO stop_times (trip_id, stop_id, stop_sequence, arrival_time, departure_time, headsign)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		f.stopTimeInsertTx.Rollback()
		f.stopTimeInsertTx = nil
		return fmt.Errorf("preparing stop_time insert: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) WriteStopTime(st model.StopTime) error {
	_, err := f.stopTimeInsertQuery.Exec(
		st.TripID, st.StopID, st.StopSequence, st.Arrival, st.Departure, st.Headsign,
	)
	if err != nil {
		f.stopTimeInsertQuery.Close()
		f.stopTimeInsertTx.Rollback()
		f.stopTimeInsertTx = nil
		f.stopTimeInsertQuery = nil
		return fmt.Errorf("inserting stop_time: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) EndStopTimes() error {
	f.stopTimeInsertQuery.Close()
	if err := f.stopTimeInsertTx.Commit(); err != nil {
		return fmt.Errorf("committing stop_time insert transaction: %w", err)
	}
	f.stopTimeInsertTx = nil
	f.stopTimeInsertQuery = nil

	return nil
}

func (f *SQLiteFeedWriter) Close() error {
	if _, err := f.db.Exec(`ANALYZE;`); err != nil {
		f.db.Close()
		return fmt.Errorf("analyzing database: %s", err)
	}

	return nil
}

func (f *SQLiteFeedReader) Agencies() ([]model.Agency, error) {
	rows, err := f.db.Query(`SELECT id, name, url, timezone FROM agency`)
	if err != nil {
		return nil, fmt.Errorf("querying agencies: %w", err)
	}
	defer rows.Close()

	agencies := []model.Agency{}
	for rows.Next() {
		var a model.Agency
		if err := rows.Scan(&a.ID, &a.Name, &a.URL, &a.Timezone); err != nil {
			return nil, fmt.Errorf("scanning agency: %w", err)
		}
		agencies = append(agencies, a)
	}

	return agencies, nil
}

func (f *SQLiteFeedReader) Stops() ([]model.Stop, error) {
	rows, err := f.db.Query(`
SELECT id, name, desc, lat, lon, location_type, parent_station
FROM stops`)
	if err != nil {
		return nil, fmt.Errorf("querying stops: %w", err)
	}
	defer rows.Close()

	stops := []model.Stop{}
	for rows.Next() {
		var s model.Stop
		err := rows.Scan(&s.ID, &s.Name, &s.Desc, &s.Lat, &s.Lon, &s.LocationType, &s.ParentStation)
		if err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		stops = append(stops, s)
	}

	return stops, nil
}

func (f *SQLiteFeedReader) Routes() ([]model.Route, error) {
	rows, err := f.db.Query(`
SELECT id, agency_id, short_name, long_name, type
FROM routes`)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	routes := []model.Route{}
	for rows.Next() {
		var r model.Route
		if err := rows.Scan(&r.ID, &r.AgencyID, &r.ShortName, &r.LongName, &r.Type); err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		routes = append(routes, r)
	}

	return routes, nil
}

func (f *SQLiteFeedReader) Trips() ([]model.Trip, error) {
	rows, err := f.db.Query(`
SELECT id, route_id, headsign, direction_id, shape_id
FROM trips`)
	if err != nil {
		return nil, fmt.Errorf("querying trips: %w", err)
	}
	defer rows.Close()

	trips := []model.Trip{}
	for rows.Next() {
		var t model.Trip
		if err := rows.Scan(&t.ID, &t.RouteID, &t.Headsign, &t.DirectionID, &t.ShapeID); err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		trips = append(trips, t)
	}

	return trips, nil
}

func (f *SQLiteFeedReader) StopTimes() ([]model.StopTime, error) {
	rows, err := f.db.Query(`
SELECT trip_id, stop_id, headsign, stop_sequence, arrival_time, departure_time
FROM stop_times`)
	if err != nil {
		return nil, fmt.Errorf("querying stop times: %w", err)
	}
	defer rows.Close()

	stopTimes := []model.StopTime{}
	for rows.Next() {
		var st model.StopTime
		err := rows.Scan(&st.TripID, &st.StopID, &st.Headsign, &st.StopSequence, &st.Arrival, &st.Departure)
		if err != nil {
			return nil, fmt.Errorf("scanning stop time: %w", err)
		}
		stopTimes = append(stopTimes, st)
	}

	return stopTimes, nil
}

func (f *SQLiteFeedReader) Pathways() ([]model.Pathway, error) {
	rows, err := f.db.Query(`
SELECT from_stop_id, to_stop_id, traversal_time
FROM pathways`)
	if err != nil {
		return nil, fmt.Errorf("querying pathways: %w", err)
	}
	defer rows.Close()

	pathways := []model.Pathway{}
	for rows.Next() {
		var pw model.Pathway
		if err := rows.Scan(&pw.FromStopID, &pw.ToStopID, &pw.TraversalTime); err != nil {
			return nil, fmt.Errorf("scanning pathway: %w", err)
		}
		pathways = append(pathways, pw)
	}

	return pathways, nil
}

func (f *SQLiteFeedReader) Transfers() ([]model.Transfer, error) {
	rows, err := f.db.Query(`
SELECT from_stop_id, to_stop_id, min_transfer_time
FROM transfers`)
	if err != nil {
		return nil, fmt.Errorf("querying transfers: %w", err)
	}
	defer rows.Close()

	transfers := []model.Transfer{}
	for rows.Next() {
		var tr model.Transfer
		if err := rows.Scan(&tr.FromStopID, &tr.ToStopID, &tr.MinTransferTime); err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		transfers = append(transfers, tr)
	}

	return transfers, nil
}
