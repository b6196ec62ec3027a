package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/utils"
)

const postSelect = `
	select p.id, p.title, p.slug, p.excerpt, p.content, p.cover_image,
		p.category_id, p.status, p.author_id, p.views,
		p.published_at, p.created_at, p.updated_at,
		coalesce(c.name, ''), coalesce(c.slug, ''), coalesce(pr.full_name, '')
	from posts p
	left join categories c on c.id = p.category_id
	left join profiles pr on pr.id = p.author_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (domain.Post, error) {
	var (
		p                domain.Post
		categoryID       sql.NullString
		publishedAt      sql.NullString
		created, updated string
		status           string
	)
	err := s.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.CoverImage,
		&categoryID, &status, &p.AuthorID, &p.Views,
		&publishedAt, &created, &updated,
		&p.CategoryName, &p.CategorySlug, &p.AuthorName)
	if err != nil {
		return domain.Post{}, err
	}

	p.CategoryID = categoryID.String
	p.Status = domain.PostStatus(status)
	if publishedAt.Valid {
		t, err := parseTime(publishedAt.String)
		if err != nil {
			return domain.Post{}, err
		}
		p.PublishedAt = &t
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return domain.Post{}, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return domain.Post{}, err
	}
	return p, nil
}

func (d *DB) queryPosts(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer utils.Close(rows)

	out := []domain.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListPublished returns published posts, newest publication first.
// A non-empty categorySlug restricts the listing to that category.
func (d *DB) ListPublished(ctx context.Context, categorySlug string) ([]domain.Post, error) {
	if categorySlug == "" {
		return d.queryPosts(ctx, postSelect+`
			where p.status = 'published'
			order by p.published_at desc`)
	}
	return d.queryPosts(ctx, postSelect+`
		where p.status = 'published' and c.slug = ?
		order by p.published_at desc`, categorySlug)
}

// ListAll returns every post, newest first.
func (d *DB) ListAll(ctx context.Context) ([]domain.Post, error) {
	return d.queryPosts(ctx, postSelect+` order by p.created_at desc`)
}

// PostByID returns a post regardless of status.
func (d *DB) PostByID(ctx context.Context, id string) (domain.Post, error) {
	return d.postWhere(ctx, `p.id = ?`, id)
}

// PublishedPostBySlug returns a published post.
func (d *DB) PublishedPostBySlug(ctx context.Context, slug string) (domain.Post, error) {
	return d.postWhere(ctx, `p.slug = ? and p.status = 'published'`, slug)
}

func (d *DB) postWhere(ctx context.Context, where string, arg any) (domain.Post, error) {
	p, err := scanPost(d.QueryRowContext(ctx, postSelect+` where `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Post{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Post{}, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

// InsertPost stores a new post. A taken slug yields domain.ErrConflict.
func (d *DB) InsertPost(ctx context.Context, p domain.Post) error {
	_, err := d.ExecContext(ctx, `
		insert into posts (id, title, slug, excerpt, content, cover_image,
			category_id, status, author_id, views, published_at, created_at, updated_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Slug, p.Excerpt, p.Content, p.CoverImage,
		nullString(p.CategoryID), string(p.Status), p.AuthorID, p.Views,
		nullTime(p), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", mapErr(err))
	}
	return nil
}

// UpdatePost overwrites the editable columns of an existing post.
func (d *DB) UpdatePost(ctx context.Context, p domain.Post) error {
	res, err := d.ExecContext(ctx, `
		update posts set
			title = ?, slug = ?, excerpt = ?, content = ?, cover_image = ?,
			category_id = ?, status = ?, published_at = ?, updated_at = ?
		where id = ?`,
		p.Title, p.Slug, p.Excerpt, p.Content, p.CoverImage,
		nullString(p.CategoryID), string(p.Status), nullTime(p), formatTime(p.UpdatedAt),
		p.ID)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", mapErr(err))
	}
	return expectOne(res)
}

// DeletePost removes a post.
func (d *DB) DeletePost(ctx context.Context, id string) error {
	res, err := d.ExecContext(ctx, `delete from posts where id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return expectOne(res)
}

// IncrementViews bumps the view counter and returns the new value.
func (d *DB) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := d.QueryRowContext(ctx, `
		update posts set views = views + 1
		where id = ?
		returning views`, id).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return views, nil
}

// CountPosts returns the number of posts per status.
func (d *DB) CountPosts(ctx context.Context) (map[domain.PostStatus]int, error) {
	rows, err := d.QueryContext(ctx, `select status, count(*) from posts group by status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	defer utils.Close(rows)

	out := map[domain.PostStatus]int{
		domain.StatusDraft:     0,
		domain.StatusPublished: 0,
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.PostStatus(status)] = n
	}
	return out, rows.Err()
}

func nullTime(p domain.Post) sql.NullString {
	if p.PublishedAt == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*p.PublishedAt), Valid: true}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
