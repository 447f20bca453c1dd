package tasksync

import (
	"errors"

	"github.com/hearthkeep/hearthkeep/internal/api"
)

// ErrTimeout means a bounded operation exceeded its deadline. It is
// distinct from ErrUnauthenticated: a slow network must not look like a
// revoked session.
var ErrTimeout = errors.New("operation timed out")

// ErrUnauthenticated mirrors the server's session rejection.
var ErrUnauthenticated = api.ErrUnauthenticated

// ErrHouseholdUnresolved means a mutation was attempted with no validated
// household id. A local precondition failure, not a network error.
var ErrHouseholdUnresolved = errors.New("household unresolved")

// ErrNotReady means the view is not in the Ready state and the call was
// rejected outright rather than queued.
var ErrNotReady = errors.New("view not ready")

// ErrInvalidFilter means the caller passed a filter value outside
// pending, completed, all. A caller-argument error, not a view-state
// one.
var ErrInvalidFilter = errors.New("invalid filter, use pending, completed, or all")

// ErrBusy means the same kind of mutation is already in flight.
var ErrBusy = errors.New("operation already in flight")

// Kind buckets failures for presentation.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthenticated
	KindTimeout
	KindRejected
	KindHouseholdUnresolved
)

// Classify maps an error onto the failure taxonomy. Backend rejections
// carry the server message through *api.APIError.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrHouseholdUnresolved), errors.Is(err, api.ErrNoHousehold):
		return KindHouseholdUnresolved
	default:
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			return KindRejected
		}
		return KindUnknown
	}
}
