package parse

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"meetway.dev/meetway/model"
	"meetway.dev/meetway/storage"
)

type PathwayCSV struct {
	ID            string `csv:"pathway_id"`
	FromStopID    string `csv:"from_stop_id"`
	ToStopID      string `csv:"to_stop_id"`
	TraversalTime int    `csv:"traversal_time"`
}

// ParsePathways loads pathways.txt, an optional table. A missing file is
// not an error — feeds without station-internal pathway modeling just
// fall back to geographic walks for any pedestrian connection.
func ParsePathways(writer storage.FeedWriter, data io.Reader, stops map[string]bool) error {
	pathwayCsv := []*PathwayCSV{}
	if err := gocsv.Unmarshal(data, &pathwayCsv); err != nil {
		return errors.Wrap(err, "unmarshaling pathways csv")
	}

	seen := map[string]bool{}
	for _, pw := range pathwayCsv {
		if pw.ID == "" {
			return errors.New("empty pathway_id")
		}
		if seen[pw.ID] {
			return errors.Errorf("repeated pathway_id '%s'", pw.ID)
		}
		seen[pw.ID] = true

		if !stops[pw.FromStopID] {
			return errors.Errorf("pathway '%s' references unknown from_stop_id '%s'", pw.ID, pw.FromStopID)
		}
		if !stops[pw.ToStopID] {
			return errors.Errorf("pathway '%s' references unknown to_stop_id '%s'", pw.ID, pw.ToStopID)
		}
		if pw.TraversalTime < 0 {
			return errors.Errorf("pathway '%s' has negative traversal_time", pw.ID)
		}

		err := writer.WritePathway(model.Pathway{
			FromStopID:    pw.FromStopID,
			ToStopID:      pw.ToStopID,
			TraversalTime: pw.TraversalTime,
		})
		if err != nil {
			return errors.Wrapf(err, "writing pathway '%s'", pw.ID)
		}
	}

	return nil
}
