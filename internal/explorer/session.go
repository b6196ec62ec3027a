package explorer

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/bookmarks"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// State of a session's last search.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

const (
	MessageLoading = "Loading repositories…"
	MessageEmpty   = "No repositories found. Try adjusting your filters."
	MessageError   = "Failed to load repositories"
)

// BookmarkState is the part of the bookmark store a session reads.
type BookmarkState interface {
	List() []domain.Bookmark
	Subscribe(fn func(bookmarks.Event)) (unsubscribe func())
}

// Item is one displayed repository.
type Item struct {
	Repository domain.Repository `json:"repo"`
	Bookmarked bool              `json:"bookmarked"`
}

// View is what the explorer page renders.
type View struct {
	State       State                 `json:"state"`
	Query       string                `json:"query"`
	SearchQuery string                `json:"search_query,omitempty"`
	Criteria    domain.FilterCriteria `json:"criteria"`
	Items       []Item                `json:"items"`
	Message     string                `json:"message,omitempty"`
	Error       string                `json:"error,omitempty"`
	Retryable   bool                  `json:"retryable"`
}

// Session is one client's explorer state.
//
// Every search is tagged with a generation number. A result is applied only
// if no newer search started in the meantime; older results are discarded.
type Session struct {
	id       string
	searcher *Searcher
	logger   logger.Logger
	now      func() time.Time

	mu         sync.Mutex
	state      State
	query      string
	criteria   domain.FilterCriteria
	results    []domain.Repository
	err        error
	generation uint64
	lastSeen   time.Time
	bookmarked map[int64]struct{}

	unsubscribe func()
}

// NewSession starts an idle session with the default criteria.
func NewSession(id string, searcher *Searcher, bm BookmarkState, log logger.Logger) *Session {
	s := &Session{
		id:         id,
		searcher:   searcher,
		logger:     log,
		now:        time.Now,
		state:      StateIdle,
		criteria:   domain.DefaultFilterCriteria(),
		bookmarked: make(map[int64]struct{}),
	}
	s.lastSeen = s.now()

	if bm != nil {
		s.setBookmarks(bm.List())
		s.unsubscribe = bm.Subscribe(func(ev bookmarks.Event) {
			s.setBookmarks(ev.Bookmarks)
		})
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Search replaces the query and criteria and fetches matching repositories.
// The returned view reflects the latest search, which may not be this one.
func (s *Session) Search(ctx context.Context, query string, criteria domain.FilterCriteria) View {
	s.mu.Lock()
	s.query = query
	s.criteria = criteria.Normalize()
	return s.runLocked(ctx)
}

// Retry re-issues the last search.
func (s *Session) Retry(ctx context.Context) View {
	s.mu.Lock()
	return s.runLocked(ctx)
}

// runLocked is entered with s.mu held and returns with it released.
func (s *Session) runLocked(ctx context.Context) View {
	s.generation++
	gen := s.generation
	s.state = StateLoading
	s.err = nil
	s.lastSeen = s.now()
	query, criteria := s.query, s.criteria
	s.mu.Unlock()

	searchQuery := Query(query, criteria)
	repos, err := s.searcher.Search(ctx, searchQuery, criteria.SortBy)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("dropping stale search result",
			logger.String("session", s.id),
			logger.Uint64("generation", gen),
			logger.Uint64("current", s.generation))
		return s.viewLocked()
	}

	if err != nil {
		s.state = StateError
		s.err = err
		s.results = nil
		s.logger.Warn("repository search failed",
			logger.String("session", s.id),
			logger.String("query", searchQuery),
			logger.Error(err))
		return s.viewLocked()
	}

	s.state = StateSuccess
	s.results = Apply(repos, criteria)
	return s.viewLocked()
}

// View returns the current state without fetching.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		State:    s.state,
		Query:    s.query,
		Criteria: s.criteria,
		Items:    []Item{},
	}
	if s.state != StateIdle {
		v.SearchQuery = Query(s.query, s.criteria)
	}

	switch s.state {
	case StateLoading:
		v.Message = MessageLoading
	case StateError:
		v.Message = MessageError
		v.Error = s.err.Error()
		v.Retryable = true
	case StateSuccess:
		for _, r := range s.results {
			_, marked := s.bookmarked[r.ID]
			v.Items = append(v.Items, Item{Repository: r.Clone(), Bookmarked: marked})
		}
		if len(v.Items) == 0 {
			v.Message = MessageEmpty
		}
	}
	return v
}

func (s *Session) setBookmarks(items []domain.Bookmark) {
	set := make(map[int64]struct{}, len(items))
	for _, b := range items {
		set[b.ID] = struct{}{}
	}

	s.mu.Lock()
	s.bookmarked = set
	s.mu.Unlock()
}

// Touch marks the session as used.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// LastSeen is when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close detaches the session from bookmark events.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
