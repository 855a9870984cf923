package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/portfolio-engagement/internal/storage"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
)

// CacheService wraps storage with Redis caching for the hot count queries
// that list pages hammer. Everything else passes through the embedded
// Storage untouched.
type CacheService struct {
	storage.Storage
	redis *redis.Client
}

func NewCacheService(store storage.Storage, redisClient *redis.Client) *CacheService {
	return &CacheService{
		Storage: store,
		redis:   redisClient,
	}
}

// Cache key patterns
const (
	LikeCountKey = "likes:count:%s:%s" // likes:count:kind:contentID
	ViewCountKey = "views:count:%s:%s" // views:count:kind:contentID
)

// Cache durations
const (
	LikeCountCacheDuration = 30 * time.Second // invalidated on write anyway
	ViewCountCacheDuration = 2 * time.Minute  // aggregate only moves when the worker runs
)

func (c *CacheService) LikeCounts(kind types.ContentKind, contentIDs []string) (map[string]int, error) {
	return c.cachedCounts(LikeCountKey, LikeCountCacheDuration, kind, contentIDs, c.Storage.LikeCounts)
}

func (c *CacheService) ViewCounts(kind types.ContentKind, contentIDs []string) (map[string]int, error) {
	return c.cachedCounts(ViewCountKey, ViewCountCacheDuration, kind, contentIDs, c.Storage.ViewCounts)
}

func (c *CacheService) cachedCounts(pattern string, ttl time.Duration, kind types.ContentKind, contentIDs []string,
	fetch func(types.ContentKind, []string) (map[string]int, error)) (map[string]int, error) {

	ctx := context.Background()
	counts := make(map[string]int, len(contentIDs))
	misses := []string{}

	for _, id := range contentIDs {
		cached, err := c.redis.Get(ctx, fmt.Sprintf(pattern, kind, id)).Result()
		if err != nil {
			misses = append(misses, id)
			continue
		}
		var count int
		if err := json.Unmarshal([]byte(cached), &count); err != nil {
			misses = append(misses, id)
			continue
		}
		counts[id] = count
	}

	if len(misses) == 0 {
		return counts, nil
	}

	fetched, err := fetch(kind, misses)
	if err != nil {
		return nil, err
	}

	for id, count := range fetched {
		counts[id] = count
		data, _ := json.Marshal(count)
		c.redis.Set(ctx, fmt.Sprintf(pattern, kind, id), data, ttl)
	}

	return counts, nil
}

// AddLike invalidates the cached count after a successful write.
func (c *CacheService) AddLike(kind types.ContentKind, contentID, name, email string) error {
	if err := c.Storage.AddLike(kind, contentID, name, email); err != nil {
		return err
	}
	c.redis.Del(context.Background(), fmt.Sprintf(LikeCountKey, kind, contentID))
	return nil
}

// RemoveLike invalidates the cached count after a successful write.
func (c *CacheService) RemoveLike(kind types.ContentKind, contentID, email string) error {
	if err := c.Storage.RemoveLike(kind, contentID, email); err != nil {
		return err
	}
	c.redis.Del(context.Background(), fmt.Sprintf(LikeCountKey, kind, contentID))
	return nil
}
