// Package reconcile owns the canonical application list and keeps the local
// cache and the remote document in step with it.
//
// Every mutation completes in two phases. The in-memory list and the local
// cache are updated before the call returns; the remote patch runs in the
// background and reports through the returned Sync and the SyncStatus.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/jonathan/job-tracker/internal/auth"
	"github.com/jonathan/job-tracker/internal/drive"
	"github.com/jonathan/job-tracker/internal/schemas"
	"github.com/jonathan/job-tracker/internal/storage"
	"github.com/jonathan/job-tracker/internal/types"
)

// DefaultDocumentName is the single well-known remote file name.
const DefaultDocumentName = "job-tracker.json"

// Status is the remote connection state.
type Status string

const (
	StatusDisconnected Status = "Disconnected"
	StatusConnecting   Status = "Connecting"
	StatusConnected    Status = "Connected"
)

// Remote is the remote document store. *drive.Client implements it.
type Remote interface {
	FindDocument(ctx context.Context, token, filename string) (*types.FileInfo, error)
	ReadDocument(ctx context.Context, token, fileID string) (json.RawMessage, error)
	CreateDocument(ctx context.Context, token, filename string, apps []types.Application) (*types.FileInfo, error)
	UpdateDocument(ctx context.Context, token, fileID string, apps []types.Application) error
}

// State is a snapshot of the controller.
type State struct {
	Applications []types.Application `json:"applications"`
	Status       Status              `json:"status"`
	Sync         SyncStatus          `json:"sync"`
	FileID       string              `json:"fileId,omitempty"`
	LastError    string              `json:"lastError,omitempty"`
}

// Options configures a Controller.
type Options struct {
	Cache   *storage.Cache
	Session *storage.Session
	Remote  Remote
	// Authenticator is used by Connect when no other is given. May be nil.
	Authenticator auth.Authenticator
	DocumentName  string
	// Seed is the list used when the cache holds nothing usable.
	Seed   []types.Application
	Logger *log.Logger
}

// Controller is the reconciliation controller.
type Controller struct {
	cache    *storage.Cache
	session  *storage.Session
	remote   Remote
	authn    auth.Authenticator
	document string
	logger   *log.Logger

	mu         sync.Mutex
	apps       []types.Application
	status     Status
	syncStatus SyncStatus
	fileID     string
	lastErr    string
	pushSeq    uint64
	started    bool

	inflight sync.WaitGroup

	subsMu sync.Mutex
	subs   map[chan State]struct{}
}

// New creates a controller and loads the initial list from the cache.
func New(ctx context.Context, opts Options) *Controller {
	c := &Controller{
		cache:      opts.Cache,
		session:    opts.Session,
		remote:     opts.Remote,
		authn:      opts.Authenticator,
		document:   opts.DocumentName,
		logger:     opts.Logger,
		status:     StatusDisconnected,
		syncStatus: SyncIdle,
		subs:       make(map[chan State]struct{}),
	}
	if c.document == "" {
		c.document = DefaultDocumentName
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	c.apps = types.CloneApplications(c.cache.Load(ctx, types.CloneApplications(opts.Seed)))
	return c
}

// Start restores the stored credential and resolves the remote document.
// It runs once; later calls do nothing. Failures are logged and leave the
// controller usable in local-only mode.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	tok, ok := c.session.LoadToken(ctx)
	if !ok {
		c.logger.Printf("[sync] no stored credential, running local-only")
		c.setSync(SyncLocalOnly)
		return
	}

	if err := c.resolve(ctx, tok.AccessToken, nil); err != nil {
		c.logger.Printf("[sync] startup reconciliation failed: %v", err)
	}
}

// Connect obtains a fresh token, stores it, and resolves the remote
// document. A newly created document is seeded with the current list; an
// existing one replaces it. a may be nil to use the configured authenticator.
func (c *Controller) Connect(ctx context.Context, a auth.Authenticator) error {
	if a == nil {
		a = c.authn
	}
	if a == nil {
		return &ConnectError{Message: "cannot authenticate", Cause: ErrNoAuthenticator}
	}

	grant, err := a.Authenticate(ctx)
	if err != nil {
		c.recordError(err)
		return &ConnectError{Message: "authentication failed", Cause: err}
	}
	c.session.SaveToken(ctx, grant.AccessToken, grant.ExpiresIn)

	c.mu.Lock()
	c.started = true
	current := types.CloneApplications(c.apps)
	c.mu.Unlock()

	if err := c.resolve(ctx, grant.AccessToken, current); err != nil {
		c.logger.Printf("[sync] connect failed: %v", err)
		return &ConnectError{Message: "could not resolve remote document", Cause: err}
	}
	return nil
}

// Disconnect drops the credential and stops remote sync. The remote file
// handle is kept for the next connection.
func (c *Controller) Disconnect(ctx context.Context) {
	c.session.ClearToken(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusDisconnected
	c.syncStatus = SyncLocalOnly
	c.publishLocked()
}

// resolve finds the remote document (cached handle, then discovery, then
// creation) and moves to Connected. createWith is the content of a newly
// created document.
func (c *Controller) resolve(ctx context.Context, token string, createWith []types.Application) error {
	prior := c.setStatus(StatusConnecting)

	err := c.resolveDocument(ctx, token, createWith)
	if err == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err.Error()
	if errors.Is(err, drive.ErrUnauthorized) {
		c.logger.Printf("[sync] credential rejected, switching to local-only")
		c.session.ClearToken(ctx)
		c.status = StatusDisconnected
		c.syncStatus = SyncLocalOnly
	} else {
		c.status = prior
	}
	c.publishLocked()
	return err
}

func (c *Controller) resolveDocument(ctx context.Context, token string, createWith []types.Application) error {
	if id := c.session.LoadFileID(ctx); id != "" {
		apps, err := c.readApplications(ctx, token, id)
		if err == nil {
			c.adopt(ctx, id, apps)
			c.logger.Printf("[sync] loaded remote document %s (%d applications)", id, len(apps))
			return nil
		}
		if errors.Is(err, drive.ErrUnauthorized) {
			return err
		}
		c.logger.Printf("[sync] cached file %s unreadable, rediscovering: %v", id, err)
		c.session.ClearFileID(ctx)
	}

	info, err := c.remote.FindDocument(ctx, token, c.document)
	if err != nil {
		return err
	}

	if info != nil {
		c.session.SaveFileID(ctx, info.ID)
		apps, err := c.readApplications(ctx, token, info.ID)
		if err != nil {
			return err
		}
		c.adopt(ctx, info.ID, apps)
		c.logger.Printf("[sync] discovered remote document %s (%d applications)", info.ID, len(apps))
		return nil
	}

	created, err := c.remote.CreateDocument(ctx, token, c.document, createWith)
	if err != nil {
		return err
	}
	c.session.SaveFileID(ctx, created.ID)

	c.mu.Lock()
	c.pushSeq++
	c.fileID = created.ID
	c.status = StatusConnected
	c.syncStatus = SyncSynced
	c.lastErr = ""
	c.publishLocked()
	c.mu.Unlock()

	c.logger.Printf("[sync] created remote document %s (%d applications)", created.ID, len(createWith))
	return nil
}

func (c *Controller) readApplications(ctx context.Context, token, fileID string) ([]types.Application, error) {
	raw, err := c.remote.ReadDocument(ctx, token, fileID)
	if err != nil {
		return nil, err
	}
	if err := schemas.ValidateDocument(raw); err != nil {
		return nil, &DocumentError{FileID: fileID, Cause: err}
	}
	var apps []types.Application
	if err := json.Unmarshal(raw, &apps); err != nil {
		return nil, &DocumentError{FileID: fileID, Cause: err}
	}
	return types.CloneApplications(apps), nil
}

// adopt replaces the local list with remote content.
func (c *Controller) adopt(ctx context.Context, fileID string, apps []types.Application) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pushSeq++ // pushes from before this resolution are stale
	c.apps = apps
	c.cache.Save(ctx, apps)
	c.fileID = fileID
	c.status = StatusConnected
	c.syncStatus = SyncSynced
	c.lastErr = ""
	c.publishLocked()
}

// Add prepends app to the list. An empty id is assigned from the company name.
func (c *Controller) Add(ctx context.Context, app types.Application) (*Sync, error) {
	c.mu.Lock()
	if app.ID == "" {
		app.ID = types.NewApplicationID(app.Company)
	}
	if c.indexLocked(app.ID) >= 0 {
		c.mu.Unlock()
		return nil, &MutationError{Op: "add", ID: app.ID, Cause: ErrDuplicateID}
	}

	next := make([]types.Application, 0, len(c.apps)+1)
	next = append(next, app)
	next = append(next, c.apps...)
	return c.commitLocked(ctx, next), nil
}

// Update replaces the record with the same id.
func (c *Controller) Update(ctx context.Context, app types.Application) (*Sync, error) {
	c.mu.Lock()
	i := c.indexLocked(app.ID)
	if i < 0 {
		c.mu.Unlock()
		return nil, &MutationError{Op: "update", ID: app.ID, Cause: ErrNotFound}
	}

	next := types.CloneApplications(c.apps)
	next[i] = app
	return c.commitLocked(ctx, next), nil
}

// Delete removes the record with the given id.
func (c *Controller) Delete(ctx context.Context, id string) (*Sync, error) {
	c.mu.Lock()
	if c.indexLocked(id) < 0 {
		c.mu.Unlock()
		return nil, &MutationError{Op: "delete", ID: id, Cause: ErrNotFound}
	}

	next := make([]types.Application, 0, len(c.apps))
	for _, app := range c.apps {
		if app.ID != id {
			next = append(next, app)
		}
	}
	return c.commitLocked(ctx, next), nil
}

// commitLocked installs next as the canonical list, writes it to the cache
// and, when connected, starts the remote patch. It releases c.mu.
func (c *Controller) commitLocked(ctx context.Context, next []types.Application) *Sync {
	c.apps = next
	c.cache.Save(ctx, next)

	if c.status != StatusConnected || c.fileID == "" {
		c.syncStatus = SyncLocalOnly
		c.publishLocked()
		c.mu.Unlock()
		return skippedSync()
	}

	tok, ok := c.session.LoadToken(ctx)
	if !ok {
		c.logger.Printf("[sync] credential expired, switching to local-only")
		c.status = StatusDisconnected
		c.syncStatus = SyncLocalOnly
		c.publishLocked()
		c.mu.Unlock()
		return skippedSync()
	}

	c.pushSeq++
	seq := c.pushSeq
	fileID := c.fileID
	snapshot := types.CloneApplications(next)
	c.syncStatus = SyncPending
	c.publishLocked()
	c.inflight.Add(1)
	c.mu.Unlock()

	s := newSync()
	pushCtx := context.WithoutCancel(ctx)
	go func() {
		defer c.inflight.Done()
		err := c.remote.UpdateDocument(pushCtx, tok.AccessToken, fileID, snapshot)
		c.finishPush(pushCtx, seq, err)
		s.resolve(err)
	}()
	return s
}

func (c *Controller) finishPush(ctx context.Context, seq uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A newer push or a new session owns the status now
	if seq != c.pushSeq {
		if err != nil {
			c.logger.Printf("[sync] superseded remote update failed: %v", err)
		}
		return
	}

	switch {
	case errors.Is(err, drive.ErrUnauthorized):
		c.logger.Printf("[sync] remote rejected credential, switching to local-only")
		c.session.ClearToken(ctx)
		c.status = StatusDisconnected
		c.syncStatus = SyncLocalOnly
		c.lastErr = err.Error()
	case err != nil:
		c.logger.Printf("[sync] remote update failed, change kept locally: %v", err)
		c.syncStatus = SyncFailed
		c.lastErr = err.Error()
	case c.status == StatusConnected:
		c.syncStatus = SyncSynced
		c.lastErr = ""
	}
	c.publishLocked()
}

// Wait blocks until every in-flight remote patch has finished.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// ClearCache removes the cached list. The in-memory list is untouched.
func (c *Controller) ClearCache(ctx context.Context) {
	c.cache.Clear(ctx)
}

// Applications returns a copy of the canonical list.
func (c *Controller) Applications() []types.Application {
	c.mu.Lock()
	defer c.mu.Unlock()
	return types.CloneApplications(c.apps)
}

// Get returns the record with the given id.
func (c *Controller) Get(id string) (types.Application, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.apps[i], true
	}
	return types.Application{}, false
}

// Status returns the connection state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Subscribe returns a channel that receives the latest state after every
// change. Slow readers only see the most recent state. Call cancel to stop.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	c.subsMu.Lock()
	c.subs[ch] = struct{}{}
	c.subsMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, ch)
			c.subsMu.Unlock()
		})
	}
	return ch, cancel
}

func (c *Controller) stateLocked() State {
	return State{
		Applications: types.CloneApplications(c.apps),
		Status:       c.status,
		Sync:         c.syncStatus,
		FileID:       c.fileID,
		LastError:    c.lastErr,
	}
}

// publishLocked sends the current state to subscribers, replacing any
// state they have not read yet. Requires c.mu.
func (c *Controller) publishLocked() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	if len(c.subs) == 0 {
		return
	}

	st := c.stateLocked()
	for ch := range c.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

func (c *Controller) indexLocked(id string) int {
	for i, app := range c.apps {
		if app.ID == id {
			return i
		}
	}
	return -1
}

// setStatus moves to status and returns the previous one.
func (c *Controller) setStatus(status Status) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	prior := c.status
	c.status = status
	c.publishLocked()
	return prior
}

func (c *Controller) setSync(status SyncStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncStatus = status
	c.publishLocked()
}

func (c *Controller) recordError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err.Error()
	c.publishLocked()
}
