package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quote-api/internal/common/logger"
)

const (
	testWindow = 10 * time.Minute
	testLimit  = 5
)

func newTestLimiter(t *testing.T, store Store) *Limiter {
	t.Helper()
	return NewLimiter(store, testWindow, testLimit, logger.NewTestLogger(t))
}

func newMiniredisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

// ==========================
// Limiter
// ==========================

func TestLimiter_AllowsUpToQuotaThenDenies(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Stop()
	l := newTestLimiter(t, store)
	ctx := context.Background()

	for i := 0; i < testLimit; i++ {
		assert.True(t, l.Allow(ctx, "1.2.3.4"), "request %d should pass", i+1)
	}
	assert.False(t, l.Allow(ctx, "1.2.3.4"))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Stop()
	l := newTestLimiter(t, store)
	ctx := context.Background()

	for i := 0; i < testLimit; i++ {
		require.True(t, l.Allow(ctx, "1.2.3.4"))
	}
	assert.False(t, l.Allow(ctx, "1.2.3.4"))
	assert.True(t, l.Allow(ctx, "5.6.7.8"))
}

func TestLimiter_WindowSlides(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Stop()
	l := newTestLimiter(t, store)
	ctx := context.Background()

	current := time.Now()
	l.now = func() time.Time { return current }

	for i := 0; i < testLimit; i++ {
		require.True(t, l.Allow(ctx, "1.2.3.4"))
	}
	require.False(t, l.Allow(ctx, "1.2.3.4"))

	// Just inside the window the oldest timestamp still counts.
	current = current.Add(testWindow - time.Second)
	assert.False(t, l.Allow(ctx, "1.2.3.4"))

	// Once the oldest timestamp ages out, one slot frees up.
	current = current.Add(2 * time.Second)
	assert.True(t, l.Allow(ctx, "1.2.3.4"))
}

// A denied attempt must not extend the client's lockout.
func TestLimiter_DeniedAttemptsNotRecorded(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Stop()
	l := NewLimiter(store, testWindow, 1, logger.NewTestLogger(t))
	ctx := context.Background()

	start := time.Now()
	current := start
	l.now = func() time.Time { return current }

	require.True(t, l.Allow(ctx, "1.2.3.4"))

	// Hammering while blocked changes nothing.
	for i := 0; i < 10; i++ {
		current = current.Add(time.Second)
		require.False(t, l.Allow(ctx, "1.2.3.4"))
	}

	// The window is measured from the accepted attempt, not the denials.
	current = start.Add(testWindow + time.Millisecond)
	assert.True(t, l.Allow(ctx, "1.2.3.4"))
}

// A burst of parallel requests from one client must never corrupt the stored
// timestamp list, whatever quota imprecision the read-then-write allows.
func TestLimiter_ConcurrentBurstOneKey(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Stop()
	l := newTestLimiter(t, store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Allow(ctx, "1.2.3.4")
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	for _, ts := range got {
		assert.Positive(t, ts)
	}

	// The list is consistent enough to keep enforcing the quota.
	for l.Allow(ctx, "1.2.3.4") {
	}
	assert.False(t, l.Allow(ctx, "1.2.3.4"))
}

func TestLimiter_FailsOpenOnBareStoreError(t *testing.T) {
	store, mr := newMiniredisStore(t)
	l := newTestLimiter(t, store)

	mr.Close()

	assert.True(t, l.Allow(context.Background(), "1.2.3.4"))
}

// ==========================
// RedisStore
// ==========================

func TestRedisStore_RoundTripAndExpiry(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	got, err := store.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Set(ctx, "1.2.3.4", []int64{100, 200}, testWindow))

	got, err = store.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200}, got)

	mr.FastForward(testWindow + time.Second)

	got, err = store.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_CorruptEntryTreatedAsAbsent(t *testing.T) {
	store, mr := newMiniredisStore(t)

	require.NoError(t, mr.Set(redisKeyPrefix+"1.2.3.4", "not-json"))

	got, err := store.Get(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_PropagatesBackendErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db)
	ctx := context.Background()

	mock.ExpectGet(redisKeyPrefix + "k").SetErr(errors.New("connection refused"))
	_, err := store.Get(ctx, "k")
	assert.Error(t, err)

	mock.ExpectSet(redisKeyPrefix+"k", []byte("[1]"), time.Hour).SetErr(errors.New("connection refused"))
	err = store.Set(ctx, "k", []int64{1}, time.Hour)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_EndToEndWithLimiter(t *testing.T) {
	store, mr := newMiniredisStore(t)
	l := newTestLimiter(t, store)
	ctx := context.Background()

	for i := 0; i < testLimit; i++ {
		require.True(t, l.Allow(ctx, "1.2.3.4"))
	}
	assert.False(t, l.Allow(ctx, "1.2.3.4"))

	// The key expires with the window TTL.
	mr.FastForward(testWindow + time.Second)
	assert.True(t, l.Allow(ctx, "1.2.3.4"))
}

// ==========================
// MemoryStore
// ==========================

func TestMemoryStore_ExpiredEntryNotReturned(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Stop()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []int64{1}, -time.Second))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// Neither direction of the store shares a backing array with the caller.
func TestMemoryStore_DoesNotAliasCallerSlices(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Stop()
	ctx := context.Background()

	in := []int64{1, 2, 3}
	require.NoError(t, store.Set(ctx, "k", in, time.Hour))
	in[0] = 99

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got)

	got[1] = 99
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, again)
}

func TestMemoryStore_SweepRemovesExpiredAndEmptyEntries(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Stop()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "expired", []int64{1}, -time.Second))
	require.NoError(t, store.Set(ctx, "empty", []int64{}, time.Hour))
	require.NoError(t, store.Set(ctx, "live", []int64{1}, time.Hour))

	store.sweep()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.entries, 1)
	assert.Contains(t, store.entries, "live")
}

func TestMemoryStore_StopIsIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	store.Stop()
	store.Stop()
}

// ==========================
// FallbackStore
// ==========================

func TestFallbackStore_UsesFallbackWhenPrimaryErrors(t *testing.T) {
	store, mr := newMiniredisStore(t)
	mem := NewMemoryStore(time.Hour)
	defer mem.Stop()
	fb := NewFallbackStore(store, mem, logger.NewTestLogger(t))
	ctx := context.Background()

	mr.Close()

	require.NoError(t, fb.Set(ctx, "k", []int64{42}, time.Hour))

	got, err := fb.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, got)
}

func TestFallbackStore_PrefersHealthyPrimary(t *testing.T) {
	store, _ := newMiniredisStore(t)
	mem := NewMemoryStore(time.Hour)
	defer mem.Stop()
	fb := NewFallbackStore(store, mem, logger.NewTestLogger(t))
	ctx := context.Background()

	require.NoError(t, fb.Set(ctx, "k", []int64{7}, time.Hour))

	// The write landed in Redis, not the in-memory fallback.
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, got)

	memGot, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, memGot)
}

func TestFallbackStore_NilPrimary(t *testing.T) {
	mem := NewMemoryStore(time.Hour)
	defer mem.Stop()
	fb := NewFallbackStore(nil, mem, logger.NewTestLogger(t))
	ctx := context.Background()

	require.NoError(t, fb.Set(ctx, "k", []int64{1}, time.Hour))

	got, err := fb.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, got)
}
