package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/portfolio-engagement/internal/storage/storagetest"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
)

func setupCache(t *testing.T) (*CacheService, *storagetest.Fake, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		t.Fatalf("Failed to connect to test Redis: %v", err)
	}

	store := storagetest.New()
	cleanup := func() {
		redisClient.Close()
		mr.Close()
	}

	return NewCacheService(store, redisClient), store, cleanup
}

func TestLikeCounts_ReadThrough(t *testing.T) {
	cache, store, cleanup := setupCache(t)
	defer cleanup()

	if err := store.AddLike(types.KindBlog, "p1", "Ann", "ann@x.com"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	counts, err := cache.LikeCounts(types.KindBlog, []string{"p1"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if counts["p1"] != 1 {
		t.Fatalf("Expected count 1, got %d", counts["p1"])
	}

	// A write that bypasses the cache is invisible until the TTL or an
	// invalidation; this read must come from Redis.
	store.AddLike(types.KindBlog, "p1", "Bob", "bob@x.com")

	counts, err = cache.LikeCounts(types.KindBlog, []string{"p1"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if counts["p1"] != 1 {
		t.Fatalf("Expected stale cached count 1, got %d", counts["p1"])
	}
}

func TestAddLike_InvalidatesCount(t *testing.T) {
	cache, _, cleanup := setupCache(t)
	defer cleanup()

	// Prime the cache at zero.
	counts, err := cache.LikeCounts(types.KindBlog, []string{"p1"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if counts["p1"] != 0 {
		t.Fatalf("Expected count 0, got %d", counts["p1"])
	}

	// A write through the cache service drops the stale entry.
	if err := cache.AddLike(types.KindBlog, "p1", "Ann", "ann@x.com"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	counts, err = cache.LikeCounts(types.KindBlog, []string{"p1"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if counts["p1"] != 1 {
		t.Fatalf("Expected count 1 after invalidation, got %d", counts["p1"])
	}
}

func TestRemoveLike_InvalidatesCount(t *testing.T) {
	cache, _, cleanup := setupCache(t)
	defer cleanup()

	if err := cache.AddLike(types.KindBlog, "p1", "Ann", "ann@x.com"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	counts, _ := cache.LikeCounts(types.KindBlog, []string{"p1"})
	if counts["p1"] != 1 {
		t.Fatalf("Expected count 1, got %d", counts["p1"])
	}

	if err := cache.RemoveLike(types.KindBlog, "p1", "ann@x.com"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	counts, err := cache.LikeCounts(types.KindBlog, []string{"p1"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if counts["p1"] != 0 {
		t.Fatalf("Expected count 0 after removal, got %d", counts["p1"])
	}
}
