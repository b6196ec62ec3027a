package index

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

type entry struct {
	repos    []domain.Repository
	storedAt time.Time
	expires  time.Time
}

// MemoryIndex caches search results in memory with a per-entry TTL.
// It backs the explorer when Redis is not configured.
type MemoryIndex struct {
	mu         sync.RWMutex
	entries    map[string]*entry // cache key -> results
	lastUpdate time.Time
	now        func() time.Time
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Get returns a copy of the cached results for key when still fresh.
func (idx *MemoryIndex) Get(_ context.Context, key string) ([]domain.Repository, bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, ok := idx.entries[key]
	if !ok || !idx.now().Before(e.expires) {
		return nil, false, nil
	}
	return cloneRepos(e.repos), true, nil
}

// Set stores results for key for ttl.
func (idx *MemoryIndex) Set(_ context.Context, key string, repos []domain.Repository, ttl time.Duration) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := idx.now()
	idx.entries[key] = &entry{
		repos:    cloneRepos(repos),
		storedAt: now,
		expires:  now.Add(ttl),
	}
	idx.lastUpdate = now
	return nil
}

// Delete drops key from the index and returns 1 when it was present.
func (idx *MemoryIndex) Delete(key string) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.entries[key]; !ok {
		return 0
	}
	delete(idx.entries, key)
	return 1
}

// Purge removes every expired entry and returns how many were dropped.
func (idx *MemoryIndex) Purge(now time.Time) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	purged := 0
	for key, e := range idx.entries {
		if !now.Before(e.expires) {
			delete(idx.entries, key)
			purged++
		}
	}
	return purged
}

// Clear drops every entry and returns how many there were.
func (idx *MemoryIndex) Clear() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	n := len(idx.entries)
	idx.entries = make(map[string]*entry)
	return n
}

// Count returns the number of entries, fresh or not.
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.entries)
}

// GetLastUpdate returns when results were last stored.
func (idx *MemoryIndex) GetLastUpdate() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastUpdate
}

func cloneRepos(repos []domain.Repository) []domain.Repository {
	out := make([]domain.Repository, len(repos))
	for i, r := range repos {
		out[i] = r.Clone()
	}
	return out
}
