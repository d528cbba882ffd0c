package parse

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"meetway.dev/meetway/model"
	"meetway.dev/meetway/storage"
)

type AgencyCSV struct {
	ID       string `csv:"agency_id"`
	Name     string `csv:"agency_name"`
	URL      string `csv:"agency_url"`
	Timezone string `csv:"agency_timezone"`
}

// ParseAgency loads agency.txt, returning the set of known agency IDs and
// the feed's single timezone (GTFS requires every agency in a feed to
// share one agency_timezone).
func ParseAgency(writer storage.FeedWriter, data io.Reader) (map[string]bool, string, error) {
	agencyCsv := []*AgencyCSV{}
	if err := gocsv.Unmarshal(data, &agencyCsv); err != nil {
		return nil, "", errors.Wrap(err, "unmarshaling agency csv")
	}

	if len(agencyCsv) == 0 {
		return nil, "", errors.New("no agency record found")
	}

	agencyTz := map[string]bool{}
	for _, a := range agencyCsv {
		agencyTz[a.Timezone] = true
	}
	if len(agencyTz) != 1 {
		return nil, "", errors.New("multiple agency_timezone values in feed")
	}

	tz := agencyCsv[0].Timezone
	if tz == "" {
		return nil, "", errors.New("missing agency_timezone")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, "", errors.Wrapf(err, "agency_timezone '%s' is invalid", tz)
	}

	agency := map[string]bool{}
	for _, a := range agencyCsv {
		if agency[a.ID] {
			return nil, "", errors.Errorf("duplicated agency_id: '%s'", a.ID)
		}
		agency[a.ID] = true

		if a.Name == "" {
			return nil, "", errors.New("missing agency_name")
		}

		if a.URL == "" {
			return nil, "", errors.New("missing agency_url")
		}

		err := writer.WriteAgency(model.Agency{
			ID:       a.ID,
			Name:     a.Name,
			URL:      a.URL,
			Timezone: tz,
		})
		if err != nil {
			return nil, "", errors.Wrap(err, "writing agency")
		}
	}

	return agency, tz, nil
}
