package parse

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spkg/bom"

	"meetway.dev/meetway/storage"
)

// ParseFeed unzips and ingests a GTFS-style static feed archive into
// writer. calendar.txt/calendar_dates.txt and any GTFS-realtime payloads
// are not read — service-day filtering and real-time positions are out
// of scope, so every trip in the feed is treated as always active.
func ParseFeed(writer storage.FeedWriter, buf []byte) (*storage.FeedMetadata, error) {
	file := map[string]io.ReadCloser{
		"agency.txt":     nil,
		"routes.txt":     nil,
		"stops.txt":      nil,
		"trips.txt":      nil,
		"stop_times.txt": nil,
		"pathways.txt":   nil,
		"transfers.txt":  nil,
	}

	defer func() {
		for _, rc := range file {
			if rc != nil {
				rc.Close()
			}
		}
	}()

	r, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, errors.Wrap(err, "unzipping")
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		path := strings.Split(f.Name, "/")
		fName := path[len(path)-1]

		if _, found := file[fName]; !found {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", f.Name)
		}

		file[fName] = rc
	}

	for _, required := range []string{"agency.txt", "routes.txt", "stops.txt", "trips.txt", "stop_times.txt"} {
		if file[required] == nil {
			return nil, errors.Errorf("missing %s", required)
		}
	}

	// LazyCSVReader survives sloppy use of quotes; the BOM reader
	// strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	agency, timezone, err := ParseAgency(writer, file["agency.txt"])
	if err != nil {
		return nil, errors.Wrap(err, "parsing agency.txt")
	}

	routes, err := ParseRoutes(writer, file["routes.txt"], agency)
	if err != nil {
		return nil, errors.Wrap(err, "parsing routes.txt")
	}

	trips, err := ParseTrips(writer, file["trips.txt"], routes)
	if err != nil {
		return nil, errors.Wrap(err, "parsing trips.txt")
	}

	stops, err := ParseStops(writer, file["stops.txt"])
	if err != nil {
		return nil, errors.Wrap(err, "parsing stops.txt")
	}

	if err := writer.BeginStopTimes(); err != nil {
		return nil, errors.Wrap(err, "beginning stop_times")
	}
	if err := ParseStopTimes(writer, file["stop_times.txt"], trips, stops); err != nil {
		return nil, errors.Wrap(err, "parsing stop_times.txt")
	}
	if err := writer.EndStopTimes(); err != nil {
		return nil, errors.Wrap(err, "ending stop_times")
	}

	if file["pathways.txt"] != nil {
		if err := ParsePathways(writer, file["pathways.txt"], stops); err != nil {
			return nil, errors.Wrap(err, "parsing pathways.txt")
		}
	}

	if file["transfers.txt"] != nil {
		if err := ParseTransfers(writer, file["transfers.txt"], stops); err != nil {
			return nil, errors.Wrap(err, "parsing transfers.txt")
		}
	}

	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "closing feed writer")
	}

	return &storage.FeedMetadata{
		Timezone: timezone,
	}, nil
}
