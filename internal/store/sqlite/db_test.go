package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

var t0 = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seed(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, db.InsertProfile(ctx, domain.Profile{
		ID: "author-1", Email: "ada@example.com", FullName: "Ada", IsAdmin: true,
		PasswordHash: "hash", CreatedAt: t0,
	}))
	_, err := db.UpsertCategories(ctx, []domain.Category{
		{ID: "cat-go", Name: "Go", Slug: "go"},
		{ID: "cat-db", Name: "Databases", Slug: "databases"},
	})
	require.NoError(t, err)
}

func post(id, slug string, status domain.PostStatus, category string, published *time.Time, created time.Time) domain.Post {
	return domain.Post{
		ID: id, Title: "Title " + id, Slug: slug, Content: "body",
		CategoryID: category, Status: status, AuthorID: "author-1",
		PublishedAt: published, CreatedAt: created, UpdatedAt: created,
	}
}

func at(h int) *time.Time {
	t := t0.Add(time.Duration(h) * time.Hour)
	return &t
}

func postIDs(posts []domain.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db)

	p, err := db.ProfileByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "author-1", p.ID)
	assert.True(t, p.IsAdmin)
	assert.True(t, t0.Equal(p.CreatedAt))

	_, err = db.ProfileByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = db.InsertProfile(ctx, domain.Profile{ID: "other", Email: "ada@example.com", PasswordHash: "x", CreatedAt: t0})
	assert.ErrorIs(t, err, domain.ErrConflict)

	n, err := db.CountProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCategoriesOrderedByNameAndUpserted(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db)

	_, err := db.UpsertCategories(ctx, []domain.Category{{ID: "cat-go", Name: "Golang", Slug: "go", Description: "gophers"}})
	require.NoError(t, err)

	cats, err := db.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Databases", cats[0].Name)
	assert.Equal(t, "Golang", cats[1].Name)
	assert.Equal(t, "gophers", cats[1].Description)
}

func TestListPublished(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db)

	require.NoError(t, db.InsertPost(ctx, post("p1", "first", domain.StatusPublished, "cat-go", at(1), t0)))
	require.NoError(t, db.InsertPost(ctx, post("p2", "second", domain.StatusPublished, "cat-db", at(3), t0)))
	require.NoError(t, db.InsertPost(ctx, post("p3", "third", domain.StatusPublished, "cat-go", at(2), t0)))
	require.NoError(t, db.InsertPost(ctx, post("p4", "draft", domain.StatusDraft, "cat-go", nil, t0)))

	all, err := db.ListPublished(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p3", "p1"}, postIDs(all))
	assert.Equal(t, "Databases", all[0].CategoryName)
	assert.Equal(t, "Ada", all[0].AuthorName)

	goOnly, err := db.ListPublished(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p1"}, postIDs(goOnly))

	none, err := db.ListPublished(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestListAllNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db)

	require.NoError(t, db.InsertPost(ctx, post("old", "old", domain.StatusDraft, "", nil, t0)))
	require.NoError(t, db.InsertPost(ctx, post("new", "new", domain.StatusPublished, "cat-go", at(5), t0.Add(time.Hour))))

	posts, err := db.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, postIDs(posts))
	assert.Empty(t, posts[1].CategoryID)
	assert.Nil(t, posts[1].PublishedAt)
}

func TestPostLookupsAndMutations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seed(t, db)

	require.NoError(t, db.InsertPost(ctx, post("p1", "hello", domain.StatusDraft, "cat-go", nil, t0)))

	_, err := db.PublishedPostBySlug(ctx, "hello")
	assert.ErrorIs(t, err, domain.ErrNotFound, "drafts are not public")

	p, err := db.PostByID(ctx, "p1")
	require.NoError(t, err)
	p.Status = domain.StatusPublished
	p.PublishedAt = at(1)
	p.Title = "Hello"
	require.NoError(t, db.UpdatePost(ctx, p))

	got, err := db.PublishedPostBySlug(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, at(1).Equal(*got.PublishedAt))

	views, err := db.IncrementViews(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), views)

	err = db.InsertPost(ctx, post("p2", "hello", domain.StatusDraft, "", nil, t0))
	assert.ErrorIs(t, err, domain.ErrConflict)

	counts, err := db.CountPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.StatusPublished])
	assert.Equal(t, 0, counts[domain.StatusDraft])

	require.NoError(t, db.DeletePost(ctx, "p1"))
	assert.ErrorIs(t, db.DeletePost(ctx, "p1"), domain.ErrNotFound)
	assert.ErrorIs(t, db.UpdatePost(ctx, p), domain.ErrNotFound)
	_, err = db.IncrementViews(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
