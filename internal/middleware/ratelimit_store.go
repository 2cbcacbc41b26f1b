package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/campusfix/campusfix/internal/cache"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// MemoryRateStore provides process-local rate limiting. It is concurrency-safe.
type MemoryRateStore struct {
	mu    sync.Mutex
	data  map[string]*memoryCounter
	clock func() time.Time
}

type memoryCounter struct {
	count     int
	windowEnd time.Time
}

// NewMemoryRateStore constructs an in-memory rate store.
func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{
		data:  make(map[string]*memoryCounter),
		clock: time.Now,
	}
}

// Increment counts a hit against key, opening a new window when the last one ended.
func (s *MemoryRateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	counter, ok := s.data[key]
	if !ok || !now.Before(counter.windowEnd) {
		counter = &memoryCounter{windowEnd: now.Add(window)}
		s.data[key] = counter
	}
	counter.count++

	return counter.count, counter.windowEnd.Sub(now), nil
}

// Sweep drops counters whose window has closed.
func (s *MemoryRateStore) Sweep() int {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, counter := range s.data {
		if !now.Before(counter.windowEnd) {
			delete(s.data, key)
			removed++
		}
	}
	return removed
}

// storeRateStore shares counters across instances through a cache.Store
// (redis or the database table).
type storeRateStore struct {
	store cache.Store
}

// NewStoreRateStore wraps a cache store in a RateStore implementation.
func NewStoreRateStore(store cache.Store) RateStore {
	if store == nil {
		return nil
	}
	return &storeRateStore{store: store}
}

func (s *storeRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	count, ttl, err := s.store.IncrementWithTTL(ctx, key, window)
	return int(count), ttl, err
}
