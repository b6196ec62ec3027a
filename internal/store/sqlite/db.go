package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// DB holds the blog tables: profiles, categories and posts.
type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*DB, error) {
	// https://github.com/mattn/go-sqlite3#connection-string
	opts := []string{
		"_foreign_keys=1",
		"_journal_mode=WAL",
		"_synchronous=NORMAL",
		"_busy_timeout=5000",
	}

	db, err := sql.Open("sqlite3", path+"?"+strings.Join(opts, "&"))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}

	// A single connection serialises writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{DB: db, path: path}, nil
}

// Path returns the database location.
func (d *DB) Path() string { return d.path }

const schema = `
	create table if not exists profiles (
		id text primary key,
		email text not null unique,
		full_name text not null default '',
		is_admin integer not null default 0,
		password_hash text not null,
		created_at text not null
	);

	create table if not exists categories (
		id text primary key,
		name text not null,
		slug text not null unique,
		description text not null default ''
	);

	create table if not exists posts (
		id text primary key,
		title text not null,
		slug text not null unique,
		excerpt text not null default '',
		content text not null,
		cover_image text not null default '',
		category_id text references categories(id) on delete set null,
		status text not null default 'draft' check (status in ('draft', 'published')),
		author_id text not null references profiles(id),
		views integer not null default 0,
		published_at text,
		created_at text not null,
		updated_at text not null
	);

	create index if not exists idx_posts_status_published on posts(status, published_at);
	create index if not exists idx_posts_created on posts(created_at);
`

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// mapErr turns constraint violations into domain errors.
func mapErr(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: %v", domain.ErrUnknownReference, err)
	}
	return err
}
