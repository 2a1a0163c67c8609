package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a mutation names an id that is not in the list.
	ErrNotFound = errors.New("application not found")
	// ErrDuplicateID is returned when an added record reuses an existing id.
	ErrDuplicateID = errors.New("duplicate application id")
	// ErrNoAuthenticator is returned by Connect when no token source is configured.
	ErrNoAuthenticator = errors.New("no authenticator configured")
)

// MutationError represents a rejected add, update or delete
type MutationError struct {
	Op    string
	ID    string
	Cause error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.ID, e.Cause)
}

func (e *MutationError) Unwrap() error {
	return e.Cause
}

// DocumentError represents remote content that is not an application list
type DocumentError struct {
	FileID string
	Cause  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("remote document %s is not an application list: %v", e.FileID, e.Cause)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// ConnectError represents a failed user-triggered connection
type ConnectError struct {
	Message string
	Cause   error
}

func (e *ConnectError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connect error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("connect error: %s", e.Message)
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}
