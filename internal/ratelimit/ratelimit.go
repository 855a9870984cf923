package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether the caller identified by key may proceed.
// Implementations are constructed with a fixed limit and window, so one
// Limiter instance corresponds to one operation class.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Default operation-class policies: 10 writes and 30 reads per IP per minute.
const (
	Window     = time.Minute
	WriteLimit = 10
	ReadLimit  = 30
)

type windowEntry struct {
	count       int
	windowStart time.Time
}

// FixedWindow is an in-process fixed-window counter keyed by caller
// identity. State is instance-local; with multiple replicas each enforces
// its own budget, which is accepted for basic abuse deterrence.
type FixedWindow struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	now       func() time.Time
	entries   map[string]*windowEntry
	lastSweep time.Time
}

func NewFixedWindow(limit int, window time.Duration) *FixedWindow {
	return NewFixedWindowWithClock(limit, window, time.Now)
}

// NewFixedWindowWithClock allows tests to supply a deterministic clock.
func NewFixedWindowWithClock(limit int, window time.Duration, now func() time.Time) *FixedWindow {
	return &FixedWindow{
		limit:   limit,
		window:  window,
		now:     now,
		entries: make(map[string]*windowEntry),
	}
}

// Allow increments the counter for key and reports whether it is within the
// limit. The counter keeps incrementing past the limit, so a limited key
// stays limited for the rest of its window.
func (f *FixedWindow) Allow(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	f.maybeSweep(now)

	entry, ok := f.entries[key]
	if !ok || now.Sub(entry.windowStart) >= f.window {
		f.entries[key] = &windowEntry{count: 1, windowStart: now}
		return true, nil
	}

	entry.count++
	return entry.count <= f.limit, nil
}

// maybeSweep drops expired entries at most once per window, bounding the
// map's growth under traffic from many distinct IPs.
func (f *FixedWindow) maybeSweep(now time.Time) {
	if now.Sub(f.lastSweep) < f.window {
		return
	}
	f.lastSweep = now

	for key, entry := range f.entries {
		if now.Sub(entry.windowStart) >= f.window {
			delete(f.entries, key)
		}
	}
}
