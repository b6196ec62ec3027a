package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// ErrAlreadyBookmarked is returned by Add when the repository id is present.
var ErrAlreadyBookmarked = errors.New("repository already bookmarked")

// EventKind tells observers what changed.
type EventKind string

const (
	EventAdded        EventKind = "added"
	EventRemoved      EventKind = "removed"
	EventNotesUpdated EventKind = "notes_updated"
)

// Event is emitted after a mutation has been persisted.
// Bookmarks is a snapshot of the whole collection after the change.
type Event struct {
	Kind      EventKind
	ID        int64
	Bookmarks []domain.Bookmark
}

// Store owns the bookmark collection.
//
// Every mutation rewrites the complete collection through the Persister.
// If the write fails the in-memory collection is left untouched and the
// error is returned, so callers never observe a state that was not saved.
type Store struct {
	mu        sync.Mutex
	items     []domain.Bookmark
	persister Persister
	logger    logger.Logger
	now       func() time.Time

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides time.Now for bookmarkedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New builds a store and loads the persisted collection.
// Missing or corrupt data yields an empty collection.
func New(ctx context.Context, p Persister, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		persister: p,
		logger:    log,
		now:       time.Now,
		subs:      make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.items = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []domain.Bookmark {
	data, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load bookmarks, starting empty", logger.Error(err))
		return []domain.Bookmark{}
	}

	items, err := Decode(data)
	if err != nil {
		s.logger.Warn("stored bookmarks are corrupt, starting empty", logger.Error(err))
		return []domain.Bookmark{}
	}

	s.logger.Debug("bookmarks loaded", logger.Int("count", len(items)))
	return items
}

// Add snapshots repo with bookmarkedAt = now and appends it.
// It returns ErrAlreadyBookmarked, without touching the collection, when the id is present.
func (s *Store) Add(ctx context.Context, repo domain.Repository, notes string) error {
	s.mu.Lock()
	if s.indexLocked(repo.ID) >= 0 {
		s.mu.Unlock()
		return ErrAlreadyBookmarked
	}
	ev, err := s.addLocked(ctx, repo, notes)
	s.mu.Unlock()
	return s.finish(ev, err)
}

// Remove deletes the bookmark with the given id. Absent ids are ignored.
func (s *Store) Remove(ctx context.Context, id int64) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	ev, err := s.removeLocked(ctx, idx)
	s.mu.Unlock()
	return s.finish(ev, err)
}

// UpdateNotes replaces the notes of the matching bookmark. Absent ids are ignored.
func (s *Store) UpdateNotes(ctx context.Context, id int64, notes string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	ev, err := s.updateNotesLocked(ctx, idx, notes)
	s.mu.Unlock()
	return s.finish(ev, err)
}

// Save updates the notes when repo is already bookmarked and adds it otherwise.
// It reports whether a new bookmark was created.
func (s *Store) Save(ctx context.Context, repo domain.Repository, notes string) (bool, error) {
	s.mu.Lock()
	var (
		ev      Event
		err     error
		created bool
	)
	if idx := s.indexLocked(repo.ID); idx >= 0 {
		ev, err = s.updateNotesLocked(ctx, idx, notes)
	} else {
		ev, err = s.addLocked(ctx, repo, notes)
		created = true
	}
	s.mu.Unlock()

	if err := s.finish(ev, err); err != nil {
		return false, err
	}
	return created, nil
}

// Toggle removes repo when bookmarked and adds it (with empty notes) otherwise.
// It reports whether the repository is bookmarked afterwards.
func (s *Store) Toggle(ctx context.Context, repo domain.Repository) (bool, error) {
	s.mu.Lock()
	var (
		ev     Event
		err    error
		marked bool
	)
	if idx := s.indexLocked(repo.ID); idx >= 0 {
		ev, err = s.removeLocked(ctx, idx)
	} else {
		ev, err = s.addLocked(ctx, repo, "")
		marked = true
	}
	s.mu.Unlock()

	if err := s.finish(ev, err); err != nil {
		return false, err
	}
	return marked, nil
}

func (s *Store) addLocked(ctx context.Context, repo domain.Repository, notes string) (Event, error) {
	next := make([]domain.Bookmark, 0, len(s.items)+1)
	next = append(next, s.items...)
	next = append(next, domain.NewBookmark(repo, notes, s.now()))
	return s.commitLocked(ctx, next, EventAdded, repo.ID)
}

func (s *Store) removeLocked(ctx context.Context, idx int) (Event, error) {
	id := s.items[idx].ID
	next := make([]domain.Bookmark, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	return s.commitLocked(ctx, next, EventRemoved, id)
}

func (s *Store) updateNotesLocked(ctx context.Context, idx int, notes string) (Event, error) {
	next := make([]domain.Bookmark, len(s.items))
	copy(next, s.items)
	next[idx].Notes = notes
	return s.commitLocked(ctx, next, EventNotesUpdated, next[idx].ID)
}

// finish notifies subscribers of a committed change. Call it without s.mu held.
func (s *Store) finish(ev Event, err error) error {
	if err != nil {
		return err
	}
	s.notify(ev)
	return nil
}

// IsBookmarked is a pure membership test.
func (s *Store) IsBookmarked(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(id) >= 0
}

// Get returns a copy of the bookmark with the given id.
func (s *Store) Get(id int64) (domain.Bookmark, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Bookmark{}, false
	}
	return s.items[idx].Clone(), true
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []domain.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.items)
}

// Len returns the number of bookmarks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Subscribe registers fn for change events and returns a function removing it.
// fn runs synchronously on the mutating goroutine, after the store lock is released.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(ev Event) {
	s.subMu.RLock()
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// commitLocked persists next and swaps it in. Caller holds s.mu.
func (s *Store) commitLocked(ctx context.Context, next []domain.Bookmark, kind EventKind, id int64) (Event, error) {
	data, err := Encode(next)
	if err != nil {
		return Event{}, err
	}
	if err := s.persister.Save(ctx, data); err != nil {
		s.logger.Error("failed to persist bookmarks",
			logger.String("event", string(kind)),
			logger.Int64("repo_id", id),
			logger.Error(err))
		return Event{}, fmt.Errorf("failed to persist bookmarks: %w", err)
	}

	s.items = next
	s.logger.Debug("bookmarks persisted",
		logger.String("event", string(kind)),
		logger.Int64("repo_id", id),
		logger.Int("count", len(next)))

	return Event{Kind: kind, ID: id, Bookmarks: cloneAll(next)}, nil
}

func (s *Store) indexLocked(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(items []domain.Bookmark) []domain.Bookmark {
	out := make([]domain.Bookmark, len(items))
	for i, b := range items {
		out[i] = b.Clone()
	}
	return out
}
