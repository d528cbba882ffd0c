package parse

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"meetway.dev/meetway/model"
	"meetway.dev/meetway/storage"
)

type StopCSV struct {
	ID            string  `csv:"stop_id"`
	Name          string  `csv:"stop_name"`
	Desc          string  `csv:"stop_desc"`
	Lat           float64 `csv:"stop_lat"`
	Lon           float64 `csv:"stop_lon"`
	LocationType  int8    `csv:"location_type"`
	ParentStation string  `csv:"parent_station"`
}

func ParseStops(writer storage.FeedWriter, data io.Reader) (map[string]bool, error) {
	stopCsv := []*StopCSV{}
	if err := gocsv.Unmarshal(data, &stopCsv); err != nil {
		return nil, errors.Wrap(err, "unmarshaling stops csv")
	}

	stopIDs := map[string]bool{}
	parentRef := map[string]string{}
	for _, st := range stopCsv {
		if stopIDs[st.ID] {
			return nil, errors.Errorf("repeated stop_id '%s'", st.ID)
		}
		stopIDs[st.ID] = true

		if st.ID == "" {
			return nil, errors.New("empty stop_id")
		}

		locationType := model.LocationType(st.LocationType)

		if locationType != model.LocationTypeGenericNode && locationType != model.LocationTypeBoardingArea {
			// stop_name is "[o]ptional for locations which are
			// generic nodes (location_type=3) or boarding areas
			// (location_type=4)" and otherwise required
			if st.Name == "" {
				return nil, errors.Errorf("empty stop_name for stop_id '%s'", st.ID)
			}

			if st.Lat == 0 || st.Lon == 0 {
				return nil, errors.Errorf("empty stop_lat or stop_lon for stop_id '%s'", st.ID)
			}
		}

		stop := model.Stop{
			ID:            st.ID,
			Name:          st.Name,
			Desc:          st.Desc,
			Lat:           st.Lat,
			Lon:           st.Lon,
			LocationType:  locationType,
			ParentStation: st.ParentStation,
		}

		if st.ParentStation != "" {
			parentRef[st.ID] = st.ParentStation
		}

		if err := writer.WriteStop(stop); err != nil {
			return nil, errors.Wrapf(err, "writing stop '%s'", st.ID)
		}
	}

	for stopID, parentID := range parentRef {
		if !stopIDs[parentID] {
			return nil, errors.Errorf("stop '%s' references unknown parent_station '%s'", stopID, parentID)
		}
	}

	return stopIDs, nil
}
