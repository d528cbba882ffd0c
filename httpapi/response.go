package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"meetway.dev/meetway/meet"
	"meetway.dev/meetway/metrics"
)

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func newBadRequest(msg string) error { return &badRequest{msg: msg} }

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeSearchError maps a meet.ErrorKind to an HTTP status: malformed or
// unresolvable input is a client error (400/404), everything else is
// treated as an unexpected server fault.
func writeSearchError(w http.ResponseWriter, err error) {
	se, ok := meet.AsSearchError(err)
	if !ok {
		var br *badRequest
		if errors.As(err, &br) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: br.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	status := http.StatusBadRequest
	switch se.Kind {
	case meet.ErrNoStationMatch, meet.ErrNoStationsNearAddress, meet.ErrNoDeparturePlatform:
		status = http.StatusNotFound
	}
	writeJSON(w, status, errorResponse{Error: se.Error(), Kind: se.Kind.String()})
}

func observeSearch(operation, reason string, iterations int, elapsed time.Duration) {
	metrics.ObserveSearch(operation, reason, iterations, elapsed)
}
