package ratelimit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"quote-api/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Store persists per-key lists of submission timestamps (Unix milliseconds).
// Entries expire with the TTL given to Set; Get on an unknown or expired key
// returns an empty list.
type Store interface {
	Get(ctx context.Context, key string) ([]int64, error)
	Set(ctx context.Context, key string, timestamps []int64, ttl time.Duration) error
}

const redisKeyPrefix = "ratelimit:quote:"

// RedisStore keeps timestamp lists in Redis as JSON values with a TTL. This
// is the durable primary shared across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]int64, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var timestamps []int64
	if err := json.Unmarshal([]byte(raw), &timestamps); err != nil {
		// A corrupt entry counts as absent rather than poisoning the key
		// until its TTL runs out.
		return nil, nil
	}
	return timestamps, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, timestamps []int64, ttl time.Duration) error {
	raw, err := json.Marshal(timestamps)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err()
}

// MemoryStore is the process-local fallback. It shares nothing across
// instances and is never persisted; under-blocking during a Redis outage is
// an accepted tradeoff.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	done    chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	timestamps []int64
	expiresAt  time.Time
}

// NewMemoryStore creates the in-memory store and starts a janitor that sweeps
// expired keys on a fixed schedule, bounding memory growth deterministically.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
	}
	go s.janitor(sweepInterval)
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	// Copy so callers never share the map's backing array.
	return append([]int64(nil), entry.timestamps...), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, timestamps []int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		timestamps: append([]int64(nil), timestamps...),
		expiresAt:  time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) || len(entry.timestamps) == 0 {
			delete(s.entries, key)
		}
	}
}

// Stop halts the janitor goroutine.
func (s *MemoryStore) Stop() {
	s.once.Do(func() { close(s.done) })
}

// FallbackStore reads and writes through the primary store and degrades to
// the fallback per call when the primary errors. Callers never see which one
// served the request.
type FallbackStore struct {
	primary  Store
	fallback Store
	logger   logger.Logger
}

func NewFallbackStore(primary, fallback Store, log logger.Logger) *FallbackStore {
	return &FallbackStore{
		primary:  primary,
		fallback: fallback,
		logger:   log,
	}
}

func (s *FallbackStore) Get(ctx context.Context, key string) ([]int64, error) {
	if s.primary != nil {
		timestamps, err := s.primary.Get(ctx, key)
		if err == nil {
			return timestamps, nil
		}
		s.logger.Warn("rate limit primary store get failed, using in-memory fallback", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return s.fallback.Get(ctx, key)
}

func (s *FallbackStore) Set(ctx context.Context, key string, timestamps []int64, ttl time.Duration) error {
	if s.primary != nil {
		err := s.primary.Set(ctx, key, timestamps, ttl)
		if err == nil {
			return nil
		}
		s.logger.Warn("rate limit primary store set failed, using in-memory fallback", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return s.fallback.Set(ctx, key, timestamps, ttl)
}
