// Package server provides the HTTP REST API for the job tracker.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/job-tracker/internal/auth"
	"github.com/jonathan/job-tracker/internal/drive"
	"github.com/jonathan/job-tracker/internal/reconcile"
)

// ErrConnecting rejects writes while the remote document is being resolved,
// since the resolved document would replace them.
var ErrConnecting = errors.New("remote document is loading, retry shortly")

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// validationError converts a validator failure into an ErrValidation,
// reporting only the first failing field.
func validationError(err error) *ErrValidation {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ErrValidation{Field: verrs[0].Field(), Message: verrs[0].Tag()}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		authErr    *auth.AuthError
		remoteErr  *drive.RemoteError
		docErr     *reconcile.DocumentError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, reconcile.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reconcile.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, ErrConnecting):
		return http.StatusServiceUnavailable
	case errors.Is(err, reconcile.ErrNoAuthenticator):
		return http.StatusBadRequest
	case errors.As(err, &authErr), errors.Is(err, drive.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &remoteErr), errors.As(err, &docErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
