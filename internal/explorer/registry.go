package explorer

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// Registry keeps one Session per client.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	searcher  *Searcher
	bookmarks BookmarkState
	logger    logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(searcher *Searcher, bm BookmarkState, log logger.Logger) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		searcher:  searcher,
		bookmarks: bm,
		logger:    log,
	}
}

// Open returns the session for id, creating a new one (with a fresh id)
// when id is empty or unknown.
func (r *Registry) Open(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok && id != "" {
		s.Touch()
		return s
	}

	s := NewSession(uuid.NewString(), r.searcher, r.bookmarks, r.logger)
	r.sessions[s.ID()] = s
	r.logger.Debug("explorer session opened", logger.String("session", s.ID()))
	return s
}

// Get returns an existing session.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if ok {
		s.Touch()
	}
	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions unused since before now-idle and returns how many.
func (r *Registry) Sweep(now time.Time, idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-idle)
	swept := 0
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			s.Close()
			delete(r.sessions, id)
			swept++
		}
	}
	return swept
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		s.Close()
		delete(r.sessions, id)
	}
}
