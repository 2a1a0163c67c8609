package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/job-tracker/internal/auth"
	"github.com/jonathan/job-tracker/internal/reconcile"
	"github.com/jonathan/job-tracker/internal/types"
	"github.com/jonathan/job-tracker/internal/view"
)

// maxBodyBytes caps request bodies; a record is a few hundred bytes.
const maxBodyBytes = 1 << 20

// connectingRetryAfter is the Retry-After value, in seconds, sent with
// ErrConnecting.
const connectingRetryAfter = "1"

// listResponse is returned by GET /applications without grouping.
type listResponse struct {
	Applications []types.Application `json:"applications"`
	Count        int                 `json:"count"`
}

// groupedResponse is returned by GET /applications?group=...
type groupedResponse struct {
	Group  string       `json:"group"`
	Groups []view.Group `json:"groups"`
}

// mutationResponse reports the local result of a write and, as far as it
// is known, the remote phase.
type mutationResponse struct {
	Application *types.Application   `json:"application,omitempty"`
	Sync        reconcile.SyncStatus `json:"sync"`
	SyncError   string               `json:"sync_error,omitempty"`
}

// statusResponse is the connection summary returned by the session endpoints.
type statusResponse struct {
	Status    reconcile.Status     `json:"status"`
	Sync      reconcile.SyncStatus `json:"sync"`
	FileID    string               `json:"file_id,omitempty"`
	LastError string               `json:"last_error,omitempty"`
	Count     int                  `json:"count"`
}

// handleListApplications returns the list, optionally filtered by q, sorted
// by sort/dir, and grouped by stage, verdict or due date. Without sort the
// canonical order (newest first) is kept.
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	apps := view.Filter(s.controller.Applications(), query.Get("q"))

	if sortBy := query.Get("sort"); sortBy != "" {
		column, err := view.ParseColumn(sortBy)
		if err != nil {
			s.failure(w, &ErrValidation{Field: "sort", Message: err.Error()})
			return
		}
		dir, err := view.ParseDirection(query.Get("dir"))
		if err != nil {
			s.failure(w, &ErrValidation{Field: "dir", Message: err.Error()})
			return
		}
		apps = view.Sort(apps, column, dir)
	}

	group := query.Get("group")
	var groups []view.Group
	switch group {
	case "":
		s.jsonResponse(w, http.StatusOK, listResponse{Applications: apps, Count: len(apps)})
		return
	case "stage":
		groups = view.GroupByStage(apps)
	case "verdict":
		groups = view.GroupByVerdict(apps)
	case "due":
		groups = view.GroupByDue(apps, s.now())
	default:
		s.failure(w, &ErrValidation{Field: "group", Message: fmt.Sprintf("unknown grouping %q", group)})
		return
	}
	s.jsonResponse(w, http.StatusOK, groupedResponse{Group: group, Groups: groups})
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	app, ok := s.controller.Get(id)
	if !ok {
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("application not found: %s", id))
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

// handleCreateApplication adds a record. The id is derived from the company
// when the body does not carry one.
func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	if s.rejectWhileConnecting(w) {
		return
	}
	req, err := s.decodeApplication(w, r)
	if err != nil {
		s.failure(w, err)
		return
	}

	id := req.ID
	if id == "" {
		id = types.NewApplicationID(req.Company)
	}
	app := req.Application(id)

	sync, err := s.controller.Add(r.Context(), app)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.mutationResponse(w, r, http.StatusCreated, &app, sync)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	if s.rejectWhileConnecting(w) {
		return
	}
	id := r.PathValue("id")
	req, err := s.decodeApplication(w, r)
	if err != nil {
		s.failure(w, err)
		return
	}
	if req.ID != "" && req.ID != id {
		s.failure(w, &ErrValidation{Field: "ID", Message: "does not match the path"})
		return
	}
	app := req.Application(id)

	sync, err := s.controller.Update(r.Context(), app)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.mutationResponse(w, r, http.StatusOK, &app, sync)
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	if s.rejectWhileConnecting(w) {
		return
	}
	sync, err := s.controller.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		s.failure(w, err)
		return
	}
	s.mutationResponse(w, r, http.StatusOK, nil, sync)
}

// rejectWhileConnecting answers 503 when a startup or connect resolution is
// in flight.
func (s *Server) rejectWhileConnecting(w http.ResponseWriter) bool {
	if s.controller.Status() != reconcile.StatusConnecting {
		return false
	}
	w.Header().Set("Retry-After", connectingRetryAfter)
	s.failure(w, ErrConnecting)
	return true
}

func (s *Server) decodeApplication(w http.ResponseWriter, r *http.Request) (*types.ApplicationRequest, error) {
	var req types.ApplicationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	return &req, nil
}

// mutationResponse writes the result of a write. With ?wait=true it blocks
// until the remote phase finishes or the client goes away.
func (s *Server) mutationResponse(w http.ResponseWriter, r *http.Request, status int, app *types.Application, sync *reconcile.Sync) {
	resp := mutationResponse{Application: app, Sync: reconcile.SyncPending}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	switch {
	case sync.Skipped():
		resp.Sync = reconcile.SyncLocalOnly
	case wait:
		if err := sync.Wait(r.Context()); err == nil {
			resp.Sync = reconcile.SyncSynced
		} else if r.Context().Err() == nil {
			resp.Sync = reconcile.SyncFailed
			resp.SyncError = err.Error()
		}
	}

	s.jsonResponse(w, status, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.status())
}

// handleConnect connects to the remote store. A body carrying an access
// token uses that token; an empty body runs the configured authenticator.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var authn auth.Authenticator

	var req types.ConnectRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		s.failure(w, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	default:
		if err := req.Validate(); err != nil {
			s.failure(w, validationError(err))
			return
		}
		authn = auth.StaticToken{AccessToken: req.AccessToken, ExpiresIn: req.ExpiresIn}
	}

	if err := s.controller.Connect(r.Context(), authn); err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.status())
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.controller.Disconnect(r.Context())
	s.jsonResponse(w, http.StatusOK, s.status())
}

// handleEvents streams controller state as Server-Sent Events: the current
// state first, then one "state" event per change, with periodic pings.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	updates, cancel := s.controller.Subscribe()
	defer cancel()

	if err := sse.WriteEvent("state", s.controller.State()); err != nil {
		return
	}

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case state := <-updates:
			if err := sse.WriteEvent("state", state); err != nil {
				return
			}
		case <-ticker.C:
			if err := sse.WritePing(s.now()); err != nil {
				return
			}
		}
	}
}

func (s *Server) status() statusResponse {
	state := s.controller.State()
	return statusResponse{
		Status:    state.Status,
		Sync:      state.Sync,
		FileID:    state.FileID,
		LastError: state.LastError,
		Count:     len(state.Applications),
	}
}
