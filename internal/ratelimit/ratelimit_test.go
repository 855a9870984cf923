package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestFixedWindow_WriteLimit(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := NewFixedWindowWithClock(WriteLimit, Window, func() time.Time { return now })

	ctx := context.Background()
	ip := "203.0.113.7"

	// The full write budget succeeds within one window.
	for i := 0; i < WriteLimit; i++ {
		allowed, err := limiter.Allow(ctx, ip)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}

	// The 11th request in the same window is limited.
	allowed, err := limiter.Allow(ctx, ip)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("Expected request to be denied after limit reached")
	}

	// The limit is sticky for the remainder of the window.
	allowed, _ = limiter.Allow(ctx, ip)
	if allowed {
		t.Fatal("Expected limited key to stay limited within the window")
	}

	// Once the window elapses the counter resets.
	now = now.Add(Window + time.Second)
	allowed, err = limiter.Allow(ctx, ip)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("Expected a fresh window after the old one elapsed")
	}
}

func TestFixedWindow_KeysIndependent(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := NewFixedWindowWithClock(2, Window, func() time.Time { return now })

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if allowed, _ := limiter.Allow(ctx, "198.51.100.1"); !allowed {
			t.Fatalf("Expected request %d from first IP to be allowed", i+1)
		}
	}
	if allowed, _ := limiter.Allow(ctx, "198.51.100.1"); allowed {
		t.Fatal("Expected first IP to be limited")
	}

	// A different IP has its own budget.
	if allowed, _ := limiter.Allow(ctx, "198.51.100.2"); !allowed {
		t.Fatal("Expected second IP to be allowed")
	}
}

func TestFixedWindow_SweepDropsExpiredEntries(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := NewFixedWindowWithClock(5, Window, func() time.Time { return now })

	ctx := context.Background()

	for i := 0; i < 100; i++ {
		limiter.Allow(ctx, string(rune('a'+i%26))+string(rune('0'+i/26)))
	}
	if len(limiter.entries) != 100 {
		t.Fatalf("Expected 100 tracked keys, got %d", len(limiter.entries))
	}

	// After the window passes, the next call sweeps the stale keys.
	now = now.Add(2 * Window)
	limiter.Allow(ctx, "fresh-key")

	if len(limiter.entries) != 1 {
		t.Fatalf("Expected sweep to leave 1 key, got %d", len(limiter.entries))
	}
}
