package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// CategoryAll is the listing filter value meaning "every category".
const CategoryAll = "all"

// ErrSlugTaken is returned when another post already uses the slug.
var ErrSlugTaken = fmt.Errorf("slug already in use: %w", domain.ErrConflict)

// Store is the persistence the blog needs.
type Store interface {
	ListPublished(ctx context.Context, categorySlug string) ([]domain.Post, error)
	ListAll(ctx context.Context) ([]domain.Post, error)
	PostByID(ctx context.Context, id string) (domain.Post, error)
	PublishedPostBySlug(ctx context.Context, slug string) (domain.Post, error)
	InsertPost(ctx context.Context, p domain.Post) error
	UpdatePost(ctx context.Context, p domain.Post) error
	DeletePost(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (int64, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// PostInput is what the editor submits.
type PostInput struct {
	domain.PostDraft
	CategoryID string            `json:"category_id"`
	Status     domain.PostStatus `json:"status"`
}

// Article is a post with its rendered body.
type Article struct {
	domain.Post
	HTML string `json:"html"`
}

// Service implements the blog use cases.
type Service struct {
	store    Store
	renderer *Renderer
	confirms *Confirmations
	logger   logger.Logger
	now      func() time.Time
	newID    func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.confirms.now = now
	}
}

// WithConfirmTTL overrides how long delete tokens live.
func WithConfirmTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.confirms.ttl = ttl
	}
}

// NewService wires the blog over store.
func NewService(store Store, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		renderer: NewRenderer(),
		confirms: NewConfirmations(DefaultConfirmTTL),
		logger:   log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Published lists published posts, newest first. "all" or "" means every category.
func (s *Service) Published(ctx context.Context, category string) ([]domain.Post, error) {
	category = strings.TrimSpace(category)
	if strings.EqualFold(category, CategoryAll) {
		category = ""
	}
	return s.store.ListPublished(ctx, category)
}

// Categories lists categories ordered by name.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

// Read returns a published post by slug, counts the view and renders it.
func (s *Service) Read(ctx context.Context, slug string) (Article, error) {
	p, err := s.store.PublishedPostBySlug(ctx, slug)
	if err != nil {
		return Article{}, err
	}

	views, err := s.store.IncrementViews(ctx, p.ID)
	if err != nil {
		s.logger.Warn("failed to count post view", logger.String("post", p.ID), logger.Error(err))
	} else {
		p.Views = views
	}

	return Article{Post: p, HTML: s.renderer.Render(p.Content)}, nil
}

// All lists every post for the admin dashboard, newest first.
func (s *Service) All(ctx context.Context) ([]domain.Post, error) {
	return s.store.ListAll(ctx)
}

// Get returns any post by id.
func (s *Service) Get(ctx context.Context, id string) (domain.Post, error) {
	return s.store.PostByID(ctx, id)
}

// Create validates in and stores a new post authored by authorID.
// An empty slug is derived from the title.
func (s *Service) Create(ctx context.Context, authorID string, in PostInput, publishNow bool) (domain.Post, error) {
	draft := in.Trimmed()
	if draft.Slug == "" {
		draft.Slug = domain.Slugify(draft.Title)
	}
	if err := validate(draft, in.Status); err != nil {
		return domain.Post{}, err
	}

	now := s.now().UTC()
	p := domain.Post{
		ID:         s.newID(),
		Title:      draft.Title,
		Slug:       draft.Slug,
		Excerpt:    draft.Excerpt,
		Content:    draft.Content,
		CoverImage: draft.CoverImage,
		CategoryID: normalizeCategory(in.CategoryID),
		Status:     statusOrDraft(in.Status),
		AuthorID:   authorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyPublish(&p, publishNow, now)

	if err := s.store.InsertPost(ctx, p); err != nil {
		return domain.Post{}, s.translate(ctx, p, err)
	}

	s.logger.Info("post created",
		logger.String("post", p.ID),
		logger.String("slug", p.Slug),
		logger.String("status", string(p.Status)))
	return s.store.PostByID(ctx, p.ID)
}

// Update validates in and overwrites the editable fields of post id.
// An empty status keeps the current one.
func (s *Service) Update(ctx context.Context, id string, in PostInput, publishNow bool) (domain.Post, error) {
	draft := in.Trimmed()
	if err := validate(draft, in.Status); err != nil {
		return domain.Post{}, err
	}

	p, err := s.store.PostByID(ctx, id)
	if err != nil {
		return domain.Post{}, err
	}

	now := s.now().UTC()
	p.Title = draft.Title
	p.Slug = draft.Slug
	p.Excerpt = draft.Excerpt
	p.Content = draft.Content
	p.CoverImage = draft.CoverImage
	p.CategoryID = normalizeCategory(in.CategoryID)
	if in.Status != "" {
		p.Status = in.Status
	}
	p.UpdatedAt = now
	applyPublish(&p, publishNow, now)

	if err := s.store.UpdatePost(ctx, p); err != nil {
		return domain.Post{}, s.translate(ctx, p, err)
	}

	s.logger.Info("post updated",
		logger.String("post", p.ID),
		logger.String("slug", p.Slug),
		logger.String("status", string(p.Status)))
	return s.store.PostByID(ctx, p.ID)
}

// RequestDelete issues a one-time token that ConfirmDelete must present.
func (s *Service) RequestDelete(ctx context.Context, id string) (string, time.Time, error) {
	if _, err := s.store.PostByID(ctx, id); err != nil {
		return "", time.Time{}, err
	}
	token, expires := s.confirms.Issue(id)
	s.logger.Debug("post delete requested", logger.String("post", id), logger.Time("expires", expires))
	return token, expires, nil
}

// ConfirmDelete deletes post id when token is valid for it.
func (s *Service) ConfirmDelete(ctx context.Context, id, token string) error {
	if err := s.confirms.Consume(id, token); err != nil {
		return err
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return err
	}
	s.logger.Info("post deleted", logger.String("post", id))
	return nil
}

// SweepConfirmations drops expired delete tokens.
func (s *Service) SweepConfirmations(now time.Time) int {
	return s.confirms.Sweep(now)
}

// PendingConfirmations returns the number of outstanding delete tokens.
func (s *Service) PendingConfirmations() int {
	return s.confirms.Len()
}

func validate(d domain.PostDraft, status domain.PostStatus) error {
	if verr := d.Validate(); verr != nil {
		return verr
	}
	if status != "" && !status.Valid() {
		return &domain.ValidationError{Field: "status", Message: "Status must be draft or published"}
	}
	return nil
}

// applyPublish publishes immediately when asked. A post that is published
// without a publication date gets one so it sorts correctly.
func applyPublish(p *domain.Post, publishNow bool, now time.Time) {
	if publishNow {
		p.Status = domain.StatusPublished
		p.PublishedAt = &now
		return
	}
	if p.Status == domain.StatusPublished && p.PublishedAt == nil {
		p.PublishedAt = &now
	}
}

func statusOrDraft(s domain.PostStatus) domain.PostStatus {
	if s == "" {
		return domain.StatusDraft
	}
	return s
}

func normalizeCategory(id string) string {
	id = strings.TrimSpace(id)
	if id == "none" {
		return ""
	}
	return id
}

// translate maps store errors for p to what the editor should see.
// SQLite does not name the failing foreign key, so the category is checked
// against the table before blaming it.
func (s *Service) translate(ctx context.Context, p domain.Post, err error) error {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return ErrSlugTaken
	case errors.Is(err, domain.ErrUnknownReference):
		if p.CategoryID != "" && !s.categoryExists(ctx, p.CategoryID) {
			return &domain.ValidationError{Field: "category_id", Message: "Category does not exist"}
		}
		return &domain.ValidationError{Field: "author_id", Message: "Author does not exist"}
	}
	return err
}

func (s *Service) categoryExists(ctx context.Context, id string) bool {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return false
	}
	for _, c := range cats {
		if c.ID == id {
			return true
		}
	}
	return false
}
