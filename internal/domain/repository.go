package domain

import "time"

// Repository is a public GitHub repository as returned by the search API.
//
// It is read-only from shelf's point of view: the explorer never mutates one,
// and a Bookmark keeps its own copy taken at bookmark time.
type Repository struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is GitHub's numeric repository id.
	ID int64 `json:"id"`

	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    Owner  `json:"owner"`

	// ─────────────────────────────
	// Description
	// ─────────────────────────────

	Description string   `json:"description"`
	HTMLURL     string   `json:"html_url"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`

	// ─────────────────────────────
	// Counters
	// ─────────────────────────────

	StargazersCount int `json:"stargazers_count"`
	ForksCount      int `json:"forks_count"`
	OpenIssuesCount int `json:"open_issues_count"`

	// ─────────────────────────────
	// Timestamps
	// ─────────────────────────────

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Owner is the account owning a repository.
type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// Clone returns a deep copy so callers can't alias the topics slice.
// Topics is never nil on the copy.
func (r Repository) Clone() Repository {
	topics := make([]string, len(r.Topics))
	copy(topics, r.Topics)
	r.Topics = topics
	return r
}
