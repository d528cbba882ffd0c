package parse

import (
	"io"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"meetway.dev/meetway/model"
	"meetway.dev/meetway/storage"
)

type RouteCSV struct {
	ID        string `csv:"route_id"`
	AgencyID  string `csv:"agency_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Type      string `csv:"route_type"`
}

func legalRouteType(t model.RouteType) bool {
	if t >= 0 && t <= 7 {
		return true
	}
	if t >= 11 && t <= 12 {
		return true
	}
	return false
}

func ParseRoutes(writer storage.FeedWriter, data io.Reader, agency map[string]bool) (map[string]bool, error) {
	routeCsv := []*RouteCSV{}
	if err := gocsv.Unmarshal(data, &routeCsv); err != nil {
		return nil, errors.Wrap(err, "unmarshaling routes")
	}

	routes := map[string]bool{}

	for _, r := range routeCsv {
		if routes[r.ID] {
			return nil, errors.Errorf("repeated route_id: '%s'", r.ID)
		}
		routes[r.ID] = true

		if len(agency) > 1 && r.AgencyID == "" {
			return nil, errors.Errorf("route_id '%s' has no agency_id", r.ID)
		}

		if r.AgencyID != "" && !agency[r.AgencyID] {
			return nil, errors.Errorf("unknown agency_id: '%s'", r.AgencyID)
		}

		if r.ID == "" {
			return nil, errors.New("route has no route_id")
		}

		if r.ShortName == "" && r.LongName == "" {
			return nil, errors.Errorf("route_id '%s' has no short_name or long_name", r.ID)
		}

		if r.Type == "" {
			return nil, errors.Errorf("route_id '%s' has no route_type", r.ID)
		}
		routeType, err := strconv.Atoi(r.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "route_id '%s' has invalid route_type", r.ID)
		}

		if !legalRouteType(model.RouteType(routeType)) {
			return nil, errors.Errorf("route_id '%s' has invalid route_type: %d", r.ID, routeType)
		}

		err = writer.WriteRoute(model.Route{
			ID:        r.ID,
			AgencyID:  r.AgencyID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Type:      model.RouteType(routeType),
		})
		if err != nil {
			return nil, errors.Wrap(err, "writing route")
		}
	}

	return routes, nil
}
