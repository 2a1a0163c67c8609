package drive

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned (wrapped in a RemoteError) when a read or
// update is rejected with HTTP 401. The caller should drop its credential.
var ErrUnauthorized = errors.New("unauthorized")

// RemoteError represents a failed call against the remote document store.
// StatusCode is 0 when no HTTP response was received.
type RemoteError struct {
	Op         string
	StatusCode int
	Cause      error
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("drive %s failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("drive %s failed with status %d: %v", e.Op, e.StatusCode, e.Cause)
}

func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// IsUnauthorized reports whether err is the distinguished 401 condition.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
