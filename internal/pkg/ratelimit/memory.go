package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory is a per-key token-bucket limiter with automatic stale-entry cleanup.
// A full bucket holds limit tokens and refills completely over one window.
type Memory struct {
	mu       sync.Mutex
	limiters map[string]*keyLimiter
	r        rate.Limit
	burst    int
	window   time.Duration
	now      func() time.Time
}

// NewMemory creates a limiter allowing limit requests per window for each key.
func NewMemory(limit int, window time.Duration) *Memory {
	m := newMemory(limit, window, time.Now)
	go m.cleanup()
	return m
}

func newMemory(limit int, window time.Duration, now func() time.Time) *Memory {
	return &Memory{
		limiters: make(map[string]*keyLimiter),
		r:        rate.Every(window / time.Duration(limit)),
		burst:    limit,
		window:   window,
		now:      now,
	}
}

func (m *Memory) get(key string, now time.Time) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.limiters[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	l := rate.NewLimiter(m.r, m.burst)
	m.limiters[key] = &keyLimiter{limiter: l, lastSeen: now}
	return l
}

// cleanup drops keys idle for longer than one window; their buckets would be full anyway.
func (m *Memory) cleanup() {
	for {
		time.Sleep(5 * time.Minute)
		m.sweep(m.now())
	}
}

func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.limiters {
		if now.Sub(v.lastSeen) > m.window {
			delete(m.limiters, key)
		}
	}
}

func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()
	l := m.get(key, now)
	allowed := l.AllowN(now, 1)
	remaining := int(l.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: allowed, Limit: m.burst, Remaining: remaining}, nil
}
