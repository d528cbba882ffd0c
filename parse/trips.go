package parse

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"meetway.dev/meetway/model"
	"meetway.dev/meetway/storage"
)

type TripCSV struct {
	ID          string `csv:"trip_id"`
	RouteID     string `csv:"route_id"`
	Headsign    string `csv:"trip_headsign"`
	DirectionID int8   `csv:"direction_id"`
	ShapeID     string `csv:"shape_id"`
}

// ParseTrips loads trips.txt. Unlike the full GTFS trip record, service_id
// is not validated or retained — every trip is treated as always active
// since service-day/calendar filtering is out of scope.
func ParseTrips(
	writer storage.FeedWriter,
	data io.Reader,
	routes map[string]bool,
) (map[string]bool, error) {
	tripCsv := []*TripCSV{}
	if err := gocsv.Unmarshal(data, &tripCsv); err != nil {
		return nil, errors.Wrap(err, "unmarshaling trips csv")
	}

	trips := map[string]bool{}
	for _, t := range tripCsv {
		if trips[t.ID] {
			return nil, errors.Errorf("repeated trip_id '%s'", t.ID)
		}
		trips[t.ID] = true

		if t.ID == "" {
			return nil, errors.New("empty trip_id")
		}
		if t.RouteID == "" {
			return nil, errors.New("empty route_id")
		}
		if !routes[t.RouteID] {
			return nil, errors.Errorf("unknown route_id '%s'", t.RouteID)
		}
		if t.DirectionID != 0 && t.DirectionID != 1 {
			return nil, errors.Errorf("invalid direction_id '%d'", t.DirectionID)
		}

		err := writer.WriteTrip(model.Trip{
			ID:          t.ID,
			RouteID:     t.RouteID,
			Headsign:    t.Headsign,
			DirectionID: t.DirectionID,
			ShapeID:     t.ShapeID,
		})
		if err != nil {
			return nil, errors.Wrap(err, "writing trip")
		}
	}

	return trips, nil
}
