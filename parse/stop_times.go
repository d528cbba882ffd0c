package parse

import (
	"io"
	"log"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"meetway.dev/meetway/model"
	"meetway.dev/meetway/storage"
)

type StopTimeCSV struct {
	TripID        string `csv:"trip_id"`
	StopID        string `csv:"stop_id"`
	StopSequence  uint32 `csv:"stop_sequence"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
	Headsign      string `csv:"stop_headsign"`
}

// ParseStopTimes loads stop_times.txt. Rows with no departure_time are
// discarded (logged, not fatal) rather than rejecting the whole feed —
// departure is what the meeting-point engine rides on, and a handful of
// incomplete rows in an otherwise valid feed shouldn't block ingestion.
// A present but malformed arrival_time/departure_time is treated the
// same way.
func ParseStopTimes(
	writer storage.FeedWriter,
	data io.Reader,
	trips map[string]bool,
	stops map[string]bool,
) error {
	stopTimes := []model.StopTime{}
	stopSeq := map[string][]int{}

	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(st *StopTimeCSV) error {
		i++

		if !trips[st.TripID] {
			return errors.Errorf("unknown trip_id: '%s' (row %d)", st.TripID, i+1)
		}
		if st.StopID == "" {
			return errors.Errorf("missing stop_id (row %d)", i+1)
		}
		if !stops[st.StopID] {
			return errors.Errorf("unknown stop_id: '%s' (row %d)", st.StopID, i+1)
		}

		if st.DepartureTime == "" {
			log.Printf("parse: discarding stop_time row %d (trip %s, stop %s): missing departure_time", i+1, st.TripID, st.StopID)
			return nil
		}

		departure, ok := model.ParseHMSToSeconds(st.DepartureTime)
		if !ok {
			log.Printf("parse: discarding stop_time row %d (trip %s, stop %s): malformed departure_time '%s'", i+1, st.TripID, st.StopID, st.DepartureTime)
			return nil
		}

		arrival := -1
		if st.ArrivalTime != "" {
			a, ok := model.ParseHMSToSeconds(st.ArrivalTime)
			if !ok {
				log.Printf("parse: discarding stop_time row %d (trip %s, stop %s): malformed arrival_time '%s'", i+1, st.TripID, st.StopID, st.ArrivalTime)
				return nil
			}
			arrival = a
		}

		stopSeq[st.TripID] = append(stopSeq[st.TripID], int(st.StopSequence))

		stopTime := model.StopTime{
			TripID:       st.TripID,
			StopID:       st.StopID,
			Headsign:     st.Headsign,
			StopSequence: st.StopSequence,
			Arrival:      arrival,
			Departure:    departure,
		}

		stopTimes = append(stopTimes, stopTime)

		if err := writer.WriteStopTime(stopTime); err != nil {
			return errors.Wrapf(err, "writing stop_time (row %d)", i+1)
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "unmarshaling stop_times csv")
	}

	for tripID, seq := range stopSeq {
		seqSeen := map[int]bool{}
		for _, s := range seq {
			if seqSeen[s] {
				return errors.Errorf("duplicate stop_sequence %d for trip_id '%s'", s, tripID)
			}
			seqSeen[s] = true
		}
	}

	sort.SliceStable(stopTimes, func(i, j int) bool {
		cmp := strings.Compare(stopTimes[i].TripID, stopTimes[j].TripID)
		if cmp < 0 {
			return true
		}
		if cmp == 0 {
			return stopTimes[i].StopSequence < stopTimes[j].StopSequence
		}
		return false
	})

	return nil
}
