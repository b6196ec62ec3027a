package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// SearchCache stores search results as JSON with a TTL.
// It satisfies explorer.Cache.
type SearchCache struct {
	store *Store
}

// SearchCache returns the search cache backed by this store
func (s *Store) SearchCache() *SearchCache {
	return &SearchCache{store: s}
}

// Get retrieves cached results. A miss returns ok == false and no error.
func (c *SearchCache) Get(ctx context.Context, search string) ([]domain.Repository, bool, error) {
	data, err := c.store.client.Get(ctx, CacheKey(search)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil // Cache miss
		}
		return nil, false, fmt.Errorf("failed to get cached search: %w", err)
	}

	var repos []domain.Repository
	if err := json.Unmarshal(data, &repos); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached search: %w", err)
	}
	return repos, true, nil
}

// Set caches results for ttl
func (c *SearchCache) Set(ctx context.Context, search string, repos []domain.Repository, ttl time.Duration) error {
	if repos == nil {
		repos = []domain.Repository{}
	}
	data, err := json.Marshal(repos)
	if err != nil {
		return fmt.Errorf("failed to marshal search results: %w", err)
	}
	if err := c.store.client.Set(ctx, CacheKey(search), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache search: %w", err)
	}
	return nil
}

// Invalidate removes one cached search and returns how many keys were deleted
func (c *SearchCache) Invalidate(ctx context.Context, search string) (int, error) {
	n, err := c.store.client.Del(ctx, CacheKey(search)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return int(n), nil
}

// Count returns how many searches are cached
func (c *SearchCache) Count(ctx context.Context) (int, error) {
	n := 0
	iter := c.store.client.Scan(ctx, 0, KeyPrefixCache+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to count cache: %w", err)
	}
	return n, nil
}

// Flush removes all cached searches and returns how many were deleted
func (c *SearchCache) Flush(ctx context.Context) (int, error) {
	var keys []string
	iter := c.store.client.Scan(ctx, 0, KeyPrefixCache+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to flush cache: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	pipe := c.store.client.Pipeline()
	for _, k := range keys {
		pipe.Del(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return len(keys), nil
}
