package explorer

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// DefaultStaleTime is how long a search result is served from cache.
const DefaultStaleTime = 5 * time.Minute

// Fetcher runs a repository search upstream.
type Fetcher interface {
	SearchRepositories(ctx context.Context, query string, sort domain.SortKey) ([]domain.Repository, error)
}

// Cache stores search results for a while.
type Cache interface {
	Get(ctx context.Context, key string) ([]domain.Repository, bool, error)
	Set(ctx context.Context, key string, repos []domain.Repository, ttl time.Duration) error
}

// Searcher is shared by every session: it serves fresh results from the
// cache and collapses identical in-flight searches into one upstream call.
type Searcher struct {
	fetcher   Fetcher
	cache     Cache
	staleTime time.Duration
	group     singleflight.Group
	logger    logger.Logger
}

// NewSearcher wires a fetcher with an optional cache.
func NewSearcher(f Fetcher, c Cache, staleTime time.Duration, log logger.Logger) *Searcher {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	return &Searcher{
		fetcher:   f,
		cache:     c,
		staleTime: staleTime,
		logger:    log,
	}
}

// CacheKey identifies a search by sort key and composed query.
func CacheKey(query string, sort domain.SortKey) string {
	return fmt.Sprintf("%s|%s", sort, query)
}

// Search returns results for query sorted by sort.
func (s *Searcher) Search(ctx context.Context, query string, sort domain.SortKey) ([]domain.Repository, error) {
	key := CacheKey(query, sort)

	if s.cache != nil {
		repos, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("search cache read failed", logger.String("key", key), logger.Error(err))
		} else if ok {
			s.logger.Debug("search cache hit", logger.String("key", key), logger.Int("results", len(repos)))
			return repos, nil
		}
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		repos, err := s.fetcher.SearchRepositories(ctx, query, sort)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, repos, s.staleTime); err != nil {
				s.logger.Warn("search cache write failed", logger.String("key", key), logger.Error(err))
			}
		}
		return repos, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("search coalesced", logger.String("key", key))
	}

	repos := v.([]domain.Repository)
	out := make([]domain.Repository, len(repos))
	for i, r := range repos {
		out[i] = r.Clone()
	}
	return out, nil
}
