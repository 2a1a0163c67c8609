package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = log.New(io.Discard, "", 0)

// failingStore returns err from every operation.
type failingStore struct {
	err error
}

func (f failingStore) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(context.Context, string, string) error         { return f.err }
func (f failingStore) Delete(context.Context, string) error              { return f.err }
func (f failingStore) Close() error                                      { return nil }

// fixedClock returns a settable clock.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

func newTestCache(store db.SlotStore, clock *fixedClock) *Cache {
	return NewCache(store, &CacheConfig{Now: clock.Now, Logger: quietLogger})
}

func sampleApps() []types.Application {
	return []types.Application{
		{ID: "mmt", Company: "MakeMyTrip", CurrentStage: types.StageFirstRound, FinalVerdict: types.VerdictOffered},
		{ID: "gs", Company: "Goldman Sachs", CurrentStage: types.StageFirstRound, RoundType: "QA"},
	}
}

func seedApps() []types.Application {
	return []types.Application{{ID: "seed", Company: "Seed Co", CurrentStage: types.StageApplied}}
}

func TestCache_LoadEmptyReturnsSeed(t *testing.T) {
	clock := &fixedClock{t: time.UnixMilli(1_700_000_000_000)}
	cache := newTestCache(db.NewMemory(), clock)

	assert.Equal(t, seedApps(), cache.Load(context.Background(), seedApps()))
}

func TestCache_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{t: time.UnixMilli(1_700_000_000_000)}
	cache := newTestCache(db.NewMemory(), clock)

	cache.Save(ctx, sampleApps())
	assert.Equal(t, sampleApps(), cache.Load(ctx, seedApps()))
}

func TestCache_WritesTimestampedPayload(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()
	clock := &fixedClock{t: time.UnixMilli(1_736_700_000_000)}
	cache := newTestCache(store, clock)

	cache.Save(ctx, sampleApps()[:1])

	raw, ok, err := store.Get(ctx, db.KeyApplications)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"data":[{"id":"mmt","company":"MakeMyTrip","currentStage":"First-Round","finalVerdict":"Offered"}],"savedAt":1736700000000}`, raw)
}

func TestCache_SaveEmptyListWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()
	cache := newTestCache(store, &fixedClock{t: time.UnixMilli(5)})

	cache.Save(ctx, nil)

	raw, _, err := store.Get(ctx, db.KeyApplications)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"savedAt":5}`, raw)
	assert.Equal(t, []types.Application{}, cache.Load(ctx, seedApps()))
}

func TestCache_TTLExpiry(t *testing.T) {
	tests := []struct {
		name      string
		age       time.Duration
		wantSeed  bool
		wantErase bool
	}{
		{"fresh", time.Minute, false, false},
		{"six days", 6 * 24 * time.Hour, false, false},
		{"exactly seven days", DefaultCacheTTL, false, false},
		{"seven days and a millisecond", DefaultCacheTTL + time.Millisecond, true, true},
		{"thirty days", 30 * 24 * time.Hour, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := db.NewMemory()
			clock := &fixedClock{t: time.UnixMilli(1_700_000_000_000)}
			cache := newTestCache(store, clock)

			cache.Save(ctx, sampleApps())
			clock.t = clock.t.Add(tt.age)

			got := cache.Load(ctx, seedApps())
			_, stillStored, err := store.Get(ctx, db.KeyApplications)
			require.NoError(t, err)

			if tt.wantSeed {
				assert.Equal(t, seedApps(), got)
			} else {
				assert.Equal(t, sampleApps(), got)
			}
			assert.Equal(t, !tt.wantErase, stillStored)
		})
	}
}

func TestCache_LegacyArrayNeverExpires(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()
	clock := &fixedClock{t: time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := newTestCache(store, clock)

	require.NoError(t, store.Set(ctx, db.KeyApplications, `[{"id":"old","company":"Old Co","currentStage":"Applied"}]`))

	got := cache.Load(ctx, seedApps())
	assert.Equal(t, []types.Application{{ID: "old", Company: "Old Co", CurrentStage: types.StageApplied}}, got)

	_, ok, err := store.Get(ctx, db.KeyApplications)
	require.NoError(t, err)
	assert.True(t, ok, "legacy payload is never erased")
}

func TestCache_MalformedPayloadsReturnSeed(t *testing.T) {
	payloads := []string{
		`{ not json`,
		`null`,
		`42`,
		`"text"`,
		`{"data":[]}`,
		`{"savedAt":1}`,
		`{"data":"nope","savedAt":1}`,
		`{"data":[],"savedAt":"1"}`,
		`[1,2,3]`,
		`[{"id":1}]`,
		`[null]`,
		`{"data":[null],"savedAt":1}`,
	}

	for i, payload := range payloads {
		t.Run(fmt.Sprintf("payload_%d", i), func(t *testing.T) {
			ctx := context.Background()
			store := db.NewMemory()
			cache := newTestCache(store, &fixedClock{t: time.UnixMilli(10)})
			require.NoError(t, store.Set(ctx, db.KeyApplications, payload))

			assert.Equal(t, seedApps(), cache.Load(ctx, seedApps()))
		})
	}
}

func TestCache_RoundTripIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{t: time.UnixMilli(1_700_000_000_000)}
	cache := newTestCache(db.NewMemory(), clock)

	first := cache.Load(ctx, sampleApps())
	cache.Save(ctx, first)
	clock.t = clock.t.Add(time.Hour)
	second := cache.Load(ctx, seedApps())

	assert.Equal(t, first, second)
	cache.Save(ctx, second)
	assert.Equal(t, second, cache.Load(ctx, seedApps()))
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()
	cache := newTestCache(store, &fixedClock{t: time.UnixMilli(10)})

	cache.Save(ctx, sampleApps())
	cache.Clear(ctx)

	_, ok, err := store.Get(ctx, db.KeyApplications)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, seedApps(), cache.Load(ctx, seedApps()))
}

func TestCache_StorageFaultsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(failingStore{err: errors.New("quota exceeded")}, &fixedClock{t: time.UnixMilli(10)})

	assert.NotPanics(t, func() {
		cache.Save(ctx, sampleApps())
		cache.Clear(ctx)
	})
	assert.Equal(t, seedApps(), cache.Load(ctx, seedApps()))
}

func TestNewCache_Defaults(t *testing.T) {
	cache := NewCache(db.NewMemory(), nil)

	assert.Equal(t, db.KeyApplications, cache.key)
	assert.Equal(t, DefaultCacheTTL, cache.ttl)
	assert.NotNil(t, cache.now)
	assert.NotNil(t, cache.logger)
}
