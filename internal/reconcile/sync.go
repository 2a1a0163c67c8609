package reconcile

import "context"

// SyncStatus describes the remote phase of the most recent change.
type SyncStatus string

const (
	SyncIdle      SyncStatus = "idle"
	SyncPending   SyncStatus = "pending"
	SyncSynced    SyncStatus = "synced"
	SyncFailed    SyncStatus = "failed"
	SyncLocalOnly SyncStatus = "local-only"
)

// Sync tracks the remote phase of one mutation. The local phase has
// already completed by the time a Sync is handed out.
type Sync struct {
	done    chan struct{}
	err     error
	skipped bool
}

func newSync() *Sync {
	return &Sync{done: make(chan struct{})}
}

// skippedSync is resolved at once: no remote session was active.
func skippedSync() *Sync {
	s := newSync()
	s.skipped = true
	close(s.done)
	return s
}

func (s *Sync) resolve(err error) {
	s.err = err
	close(s.done)
}

// Done is closed when the remote phase has finished.
func (s *Sync) Done() <-chan struct{} {
	return s.done
}

// Err returns the remote failure, if any. Only meaningful after Done.
func (s *Sync) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Skipped reports whether the change was kept local only.
func (s *Sync) Skipped() bool {
	return s.skipped
}

// Wait blocks until the remote phase finishes or ctx is done.
func (s *Sync) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
