package apperr

import "errors"

// Sentinel error kinds. Services wrap these with %w and the HTTP layer maps
// them onto status codes.
var (
	// ErrBadRequest covers malformed dates, inverted windows, unknown
	// granularities and invalid bulk payloads.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound covers unknown products, clusters and notifications.
	ErrNotFound = errors.New("not found")
	// ErrConflict covers case-insensitive unique name collisions.
	ErrConflict = errors.New("already exists")
	// ErrUpstreamUnavailable is returned when the classifier cannot be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamTimeout is returned when the classifier call exceeds its deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")
)

func IsBadRequest(err error) bool { return errors.Is(err, ErrBadRequest) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
