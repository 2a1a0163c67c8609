package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/job-tracker/internal/auth"
	"github.com/jonathan/job-tracker/internal/drive"
	"github.com/jonathan/job-tracker/internal/reconcile"
	"github.com/jonathan/job-tracker/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "Company", Message: "required"}
	assert.Equal(t, "validation error: Company - required", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestValidationError(t *testing.T) {
	req := types.ApplicationRequest{Company: "Acme"}
	err := validationError(req.Validate())
	assert.Equal(t, "CurrentStage", err.Field)
	assert.Equal(t, "required", err.Message)

	err = validationError(errors.New("unexpected EOF"))
	assert.Equal(t, "body", err.Field)
}

func TestHTTPStatus(t *testing.T) {
	unauthorized := &drive.RemoteError{Op: "read", StatusCode: 401, Cause: drive.ErrUnauthorized}

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", &ErrValidation{Field: "Company", Message: "required"}, http.StatusBadRequest},
		{"not found", &reconcile.MutationError{Op: "update", ID: "x", Cause: reconcile.ErrNotFound}, http.StatusNotFound},
		{"duplicate", &reconcile.MutationError{Op: "add", ID: "x", Cause: reconcile.ErrDuplicateID}, http.StatusConflict},
		{"no authenticator", &reconcile.ConnectError{Message: "cannot authenticate", Cause: reconcile.ErrNoAuthenticator}, http.StatusBadRequest},
		{"auth failure", &reconcile.ConnectError{Message: "authentication failed", Cause: &auth.AuthError{Message: "access token is empty"}}, http.StatusUnauthorized},
		{"remote unauthorized", &reconcile.ConnectError{Message: "could not resolve", Cause: unauthorized}, http.StatusUnauthorized},
		{"remote failure", &drive.RemoteError{Op: "find", StatusCode: 500, Cause: errors.New("backend")}, http.StatusBadGateway},
		{"bad document", &reconcile.DocumentError{FileID: "f", Cause: errors.New("not a list")}, http.StatusBadGateway},
		{"wrapped", fmt.Errorf("outer: %w", reconcile.ErrNotFound), http.StatusNotFound},
		{"connecting", ErrConnecting, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
