package domain

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// PostStatus is the publication state of a post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Post is a blog article.
type Post struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	Excerpt    string     `json:"excerpt,omitempty"`
	Content    string     `json:"content"`
	CoverImage string     `json:"cover_image,omitempty"`
	CategoryID string     `json:"category_id,omitempty"`
	Status     PostStatus `json:"status"`
	AuthorID   string     `json:"author_id"`
	Views      int64      `json:"views"`

	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Read-side joins, filled by listings.
	CategoryName string `json:"category_name,omitempty"`
	CategorySlug string `json:"category_slug,omitempty"`
	AuthorName   string `json:"author_name,omitempty"`
}

// Category groups posts.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// PostDraft is the editable part of a post, as submitted by the editor.
type PostDraft struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Excerpt    string `json:"excerpt"`
	Content    string `json:"content"`
	CoverImage string `json:"cover_image"`
}

const (
	maxTitleLen   = 200
	maxSlugLen    = 200
	maxExcerptLen = 300
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Validate checks the draft rules in order and returns the first violation.
// Values are trimmed before checking.
func (d PostDraft) Validate() *ValidationError {
	title := strings.TrimSpace(d.Title)
	slug := strings.TrimSpace(d.Slug)
	excerpt := strings.TrimSpace(d.Excerpt)
	content := strings.TrimSpace(d.Content)
	cover := strings.TrimSpace(d.CoverImage)

	switch {
	case title == "":
		return &ValidationError{Field: "title", Message: "Title is required"}
	case utf8.RuneCountInString(title) > maxTitleLen:
		return &ValidationError{Field: "title", Message: "Title must be at most 200 characters"}
	case slug == "":
		return &ValidationError{Field: "slug", Message: "Slug is required"}
	case utf8.RuneCountInString(slug) > maxSlugLen:
		return &ValidationError{Field: "slug", Message: "Slug must be at most 200 characters"}
	case !slugPattern.MatchString(slug):
		return &ValidationError{Field: "slug", Message: "Slug must be lowercase with hyphens only"}
	case utf8.RuneCountInString(excerpt) > maxExcerptLen:
		return &ValidationError{Field: "excerpt", Message: "Excerpt must be at most 300 characters"}
	case content == "":
		return &ValidationError{Field: "content", Message: "Content is required"}
	case cover != "" && !isAbsoluteURL(cover):
		return &ValidationError{Field: "cover_image", Message: "Cover image must be a valid URL"}
	}
	return nil
}

// Trimmed returns the draft with every field trimmed.
func (d PostDraft) Trimmed() PostDraft {
	return PostDraft{
		Title:      strings.TrimSpace(d.Title),
		Slug:       strings.TrimSpace(d.Slug),
		Excerpt:    strings.TrimSpace(d.Excerpt),
		Content:    strings.TrimSpace(d.Content),
		CoverImage: strings.TrimSpace(d.CoverImage),
	}
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

var (
	slugStrip   = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugHyphens = regexp.MustCompile(`-+`)
)

// Slugify derives a URL slug from a title.
// Example: "Hello, World!  Again" -> "hello-world-again"
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
