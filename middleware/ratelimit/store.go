package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Store interface {
	// Limiter returns the token bucket for key, creating it on first use.
	Limiter(key string) *rate.Limiter
}

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryStore keeps one token bucket per key in memory. Buckets idle for
// twice the cleanup interval are dropped.
type MemoryStore struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	interval time.Duration
	now      func() time.Time
	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewMemoryStore(limit rate.Limit, burst int, cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}

	s := &MemoryStore{
		limiters: make(map[string]*entry),
		limit:    limit,
		burst:    burst,
		interval: cleanupInterval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

func (s *MemoryStore) Limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.limiters[key]; ok {
		e.lastAccess = now
		return e.limiter
	}

	limiter := rate.NewLimiter(s.limit, s.burst)
	s.limiters[key] = &entry{limiter: limiter, lastAccess: now}
	return limiter
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	ttl := s.interval * 2
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.limiters {
		if now.Sub(e.lastAccess) > ttl {
			delete(s.limiters, key)
		}
	}
}
