package storage

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/types"
)

// DefaultTokenLifetime applies when the token grant does not say how long it lives.
const DefaultTokenLifetime = 3600 // seconds

// Session holds the remote connection credentials: the bearer token in
// session-scoped storage and the remote file handle in durable storage.
// The two have independent lifecycles.
type Session struct {
	tokens  db.SlotStore
	handles db.SlotStore
	now     func() time.Time
	logger  *log.Logger
}

// SessionConfig holds configuration for the session store.
type SessionConfig struct {
	Now    func() time.Time
	Logger *log.Logger
}

// NewSession creates a session store. tokens must be scoped to the login
// session; handles may be durable.
func NewSession(tokens, handles db.SlotStore, config *SessionConfig) *Session {
	if config == nil {
		config = &SessionConfig{}
	}
	s := &Session{
		tokens:  tokens,
		handles: handles,
		now:     config.Now,
		logger:  config.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// SaveToken stores the token with an absolute expiry of now + expiresIn seconds.
func (s *Session) SaveToken(ctx context.Context, accessToken string, expiresIn int) {
	if expiresIn <= 0 {
		expiresIn = DefaultTokenLifetime
	}
	rec := types.TokenRecord{
		AccessToken: accessToken,
		Expiry:      s.now().UnixMilli() + int64(expiresIn)*1000,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Printf("[session] failed to encode token: %v", err)
		return
	}
	if err := s.tokens.Set(ctx, db.KeyDriveToken, string(data)); err != nil {
		s.logger.Printf("[session] failed to save token: %v", err)
	}
}

// LoadToken returns the stored token. ok is false when it is missing,
// malformed or expired.
func (s *Session) LoadToken(ctx context.Context) (types.TokenRecord, bool) {
	raw, ok, err := s.tokens.Get(ctx, db.KeyDriveToken)
	if err != nil || !ok || raw == "" {
		return types.TokenRecord{}, false
	}
	var rec types.TokenRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return types.TokenRecord{}, false
	}
	if rec.AccessToken == "" || rec.Expiry == 0 {
		return types.TokenRecord{}, false
	}
	if rec.Expired(s.now().UnixMilli()) {
		return types.TokenRecord{}, false
	}
	return rec, true
}

// ClearToken removes the token.
func (s *Session) ClearToken(ctx context.Context) {
	if err := s.tokens.Delete(ctx, db.KeyDriveToken); err != nil {
		s.logger.Printf("[session] failed to clear token: %v", err)
	}
}

// SaveFileID stores the remote document id.
func (s *Session) SaveFileID(ctx context.Context, id string) {
	if err := s.handles.Set(ctx, db.KeyDriveFileID, id); err != nil {
		s.logger.Printf("[session] failed to save file id: %v", err)
	}
}

// LoadFileID returns the stored document id, or "" when there is none.
func (s *Session) LoadFileID(ctx context.Context) string {
	id, ok, err := s.handles.Get(ctx, db.KeyDriveFileID)
	if err != nil || !ok {
		return ""
	}
	return id
}

// ClearFileID removes the stored document id.
func (s *Session) ClearFileID(ctx context.Context) {
	if err := s.handles.Delete(ctx, db.KeyDriveFileID); err != nil {
		s.logger.Printf("[session] failed to clear file id: %v", err)
	}
}
