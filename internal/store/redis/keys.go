package redis

import "fmt"

const (
	// KeyPrefixKV is the prefix for single-value documents
	KeyPrefixKV = "shelf:kv:"
	// KeyPrefixCache is the prefix for cached search results
	KeyPrefixCache = "shelf:cache:search:"
)

// KVKey returns the Redis key for a stored document
func KVKey(name string) string {
	return KeyPrefixKV + name
}

// CacheKey returns the Redis key for a cached search
func CacheKey(search string) string {
	return KeyPrefixCache + search
}

// ExtractCacheSearch extracts the search key from a Redis cache key
func ExtractCacheSearch(key string) (string, error) {
	if len(key) <= len(KeyPrefixCache) || key[:len(KeyPrefixCache)] != KeyPrefixCache {
		return "", fmt.Errorf("invalid cache key: %s", key)
	}
	return key[len(KeyPrefixCache):], nil
}
