package parse

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"meetway.dev/meetway/model"
	"meetway.dev/meetway/storage"
)

// TransferType 2 is "requires a minimum amount of time between arrival
// and departure", the only kind relevant to a walking-time floor; other
// transfer types (0 recommended, 1 timed, 3 not possible) carry no
// min_transfer_time and are skipped.
const transferTypeMinimumTime = 2

type TransferCSV struct {
	FromStopID      string `csv:"from_stop_id"`
	ToStopID        string `csv:"to_stop_id"`
	TransferType    int    `csv:"transfer_type"`
	MinTransferTime int    `csv:"min_transfer_time"`
}

// ParseTransfers loads transfers.txt, an optional table.
func ParseTransfers(writer storage.FeedWriter, data io.Reader, stops map[string]bool) error {
	transferCsv := []*TransferCSV{}
	if err := gocsv.Unmarshal(data, &transferCsv); err != nil {
		return errors.Wrap(err, "unmarshaling transfers csv")
	}

	for _, tr := range transferCsv {
		if tr.TransferType != transferTypeMinimumTime {
			continue
		}

		if !stops[tr.FromStopID] {
			return errors.Errorf("transfer references unknown from_stop_id '%s'", tr.FromStopID)
		}
		if !stops[tr.ToStopID] {
			return errors.Errorf("transfer references unknown to_stop_id '%s'", tr.ToStopID)
		}
		if tr.MinTransferTime < 0 {
			return errors.Errorf("transfer '%s'->'%s' has negative min_transfer_time", tr.FromStopID, tr.ToStopID)
		}

		err := writer.WriteTransfer(model.Transfer{
			FromStopID:      tr.FromStopID,
			ToStopID:        tr.ToStopID,
			MinTransferTime: tr.MinTransferTime,
		})
		if err != nil {
			return errors.Wrapf(err, "writing transfer '%s'->'%s'", tr.FromStopID, tr.ToStopID)
		}
	}

	return nil
}
