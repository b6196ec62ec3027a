package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KVPersister keeps one document under a fixed key.
// It satisfies bookmarks.Persister.
type KVPersister struct {
	store *Store
	key   string
}

// Persister returns a KVPersister for the document called name
func (s *Store) Persister(name string) *KVPersister {
	return &KVPersister{store: s, key: KVKey(name)}
}

// Key returns the Redis key in use
func (p *KVPersister) Key() string {
	return p.key
}

// Load returns the stored document, or nil when the key does not exist
func (p *KVPersister) Load(ctx context.Context) ([]byte, error) {
	data, err := p.store.client.Get(ctx, p.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", p.key, err)
	}
	return data, nil
}

// Save overwrites the document. The key never expires.
func (p *KVPersister) Save(ctx context.Context, data []byte) error {
	if err := p.store.client.Set(ctx, p.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", p.key, err)
	}
	return nil
}
