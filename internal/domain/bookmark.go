package domain

import "time"

// Bookmark is a snapshot of a Repository saved by the user, plus notes.
//
// The embedded Repository is copied when the bookmark is created; later
// changes upstream (stars, description...) are never propagated.
// A Bookmark is uniquely identified by the repository ID.
//
// JSON layout is flat: repository fields, then "notes" and "bookmarkedAt".
type Bookmark struct {
	Repository

	// Notes is free text written by the user. The only mutable field.
	Notes string `json:"notes"`

	// BookmarkedAt is when the snapshot was taken.
	BookmarkedAt time.Time `json:"bookmarkedAt"`
}

// NewBookmark snapshots repo at the given instant.
func NewBookmark(repo Repository, notes string, at time.Time) Bookmark {
	return Bookmark{
		Repository:   repo.Clone(),
		Notes:        notes,
		BookmarkedAt: at,
	}
}

// Clone returns a deep copy of the bookmark.
func (b Bookmark) Clone() Bookmark {
	b.Repository = b.Repository.Clone()
	return b
}
