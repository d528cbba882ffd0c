package meet

import "github.com/pkg/errors"

// ErrorKind is the error taxonomy of spec §7 — kinds, not Go types, all
// surfaced through a wrapped github.com/pkg/errors cause.
type ErrorKind int

const (
	ErrNoStationMatch ErrorKind = iota
	ErrStartPlatformMismatch
	ErrNoDeparturePlatform
	ErrNoStationsNearAddress
	ErrTooFewParticipants
	ErrTooManyParticipants
	ErrEmptyQuery
	ErrMalformedTime
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNoStationMatch:
		return "NO_STATION_MATCH"
	case ErrStartPlatformMismatch:
		return "START_PLATFORM_MISMATCH"
	case ErrNoDeparturePlatform:
		return "NO_DEPARTURE_PLATFORM"
	case ErrNoStationsNearAddress:
		return "NO_STATIONS_NEAR_ADDRESS"
	case ErrTooFewParticipants:
		return "TOO_FEW_PARTICIPANTS"
	case ErrTooManyParticipants:
		return "TOO_MANY_PARTICIPANTS"
	case ErrEmptyQuery:
		return "EMPTY_QUERY"
	case ErrMalformedTime:
		return "MALFORMED_TIME"
	default:
		return "UNKNOWN"
	}
}

// SearchError pairs an ErrorKind with the detail that produced it.
type SearchError struct {
	Kind ErrorKind
	msg  string
}

func (e *SearchError) Error() string {
	return e.Kind.String() + ": " + e.msg
}

func newError(kind ErrorKind, format string, args ...any) error {
	return errors.WithStack(&SearchError{Kind: kind, msg: errors.Errorf(format, args...).Error()})
}

// AsSearchError unwraps err looking for a *SearchError cause.
func AsSearchError(err error) (*SearchError, bool) {
	var se *SearchError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
