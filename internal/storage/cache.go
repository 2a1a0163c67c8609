// Package storage provides the tracker's local persistence surfaces: the
// application list cache and the session credential store. Neither holds
// its own copy of the list, and neither ever returns a storage fault to
// its caller.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/schemas"
	"github.com/jonathan/job-tracker/internal/types"
)

// DefaultCacheTTL is how long a saved list stays valid.
const DefaultCacheTTL = 7 * 24 * time.Hour

// cachedPayload is the stored shape of the list.
type cachedPayload struct {
	Data    []types.Application `json:"data"`
	SavedAt float64             `json:"savedAt"` // epoch millis
}

// Cache reads and writes the full application list to a single slot.
type Cache struct {
	store  db.SlotStore
	key    string
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

// CacheConfig holds configuration for the cache.
type CacheConfig struct {
	Key    string
	TTL    time.Duration
	Now    func() time.Time
	Logger *log.Logger
}

// NewCache creates a cache over store. A nil config uses the defaults.
func NewCache(store db.SlotStore, config *CacheConfig) *Cache {
	if config == nil {
		config = &CacheConfig{}
	}
	c := &Cache{
		store:  store,
		key:    config.Key,
		ttl:    config.TTL,
		now:    config.Now,
		logger: config.Logger,
	}
	if c.key == "" {
		c.key = db.KeyApplications
	}
	if c.ttl == 0 {
		c.ttl = DefaultCacheTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// Load returns the cached list, or seed when nothing usable is stored.
// An expired entry is erased. A legacy bare array is returned regardless of age.
func (c *Cache) Load(ctx context.Context, seed []types.Application) []types.Application {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		c.logger.Printf("[cache] read failed, using seed: %v", err)
		return seed
	}
	if !ok || raw == "" {
		return seed
	}

	if err := schemas.ValidateCachedPayload([]byte(raw)); err != nil {
		return seed
	}

	if bytes.HasPrefix(bytes.TrimSpace([]byte(raw)), []byte("[")) {
		// legacy format without expiry; treat as valid
		var legacy []types.Application
		if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
			return seed
		}
		return nonNil(legacy)
	}

	var payload cachedPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return seed
	}

	age := c.now().UnixMilli() - int64(payload.SavedAt)
	if age > c.ttl.Milliseconds() {
		if err := c.store.Delete(ctx, c.key); err != nil {
			c.logger.Printf("[cache] failed to erase expired entry: %v", err)
		}
		return seed
	}

	return nonNil(payload.Data)
}

// Save writes the whole list with the current time. Failures are logged only.
func (c *Cache) Save(ctx context.Context, apps []types.Application) {
	payload := cachedPayload{
		Data:    nonNil(apps),
		SavedAt: float64(c.now().UnixMilli()),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Printf("[cache] failed to encode list: %v", err)
		return
	}
	if err := c.store.Set(ctx, c.key, string(data)); err != nil {
		c.logger.Printf("[cache] failed to save list: %v", err)
	}
}

// Clear removes the stored entry. Failures are logged only.
func (c *Cache) Clear(ctx context.Context) {
	if err := c.store.Delete(ctx, c.key); err != nil {
		c.logger.Printf("[cache] failed to clear: %v", err)
	}
}

func nonNil(apps []types.Application) []types.Application {
	if apps == nil {
		return []types.Application{}
	}
	return apps
}
