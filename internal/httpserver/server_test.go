package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/shelf/internal/auth"
	"github.com/MrSnakeDoc/shelf/internal/blog"
	"github.com/MrSnakeDoc/shelf/internal/bookmarks"
	"github.com/MrSnakeDoc/shelf/internal/config"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/explorer"
	"github.com/MrSnakeDoc/shelf/internal/github"
	"github.com/MrSnakeDoc/shelf/internal/httpserver"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/index"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/store/sqlite"
)

type stubFetcher struct {
	mu    sync.Mutex
	repos []domain.Repository
	err   error
	calls int
}

func (f *stubFetcher) SearchRepositories(context.Context, string, domain.SortKey) ([]domain.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.repos, nil
}

func (f *stubFetcher) set(repos []domain.Repository, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repos, f.err = repos, err
}

type env struct {
	srv     *httptest.Server
	client  *http.Client
	fetcher *stubFetcher
	deps    deps.Deps
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.UpsertCategories(ctx, []domain.Category{{ID: "cat-go", Name: "Go", Slug: "go"}})
	require.NoError(t, err)

	authManager := auth.NewManager(db, auth.Options{Secret: "0123456789abcdef0123456789abcdef"}, log)
	_, err = authManager.CreateProfile(ctx, "admin@example.com", "Admin", "s3cret", true)
	require.NoError(t, err)
	_, err = authManager.CreateProfile(ctx, "reader@example.com", "Reader", "s3cret", false)
	require.NoError(t, err)

	fetcher := &stubFetcher{}
	bm := bookmarks.New(ctx, bookmarks.NewMemoryPersister(nil), log)
	memIndex := index.NewMemoryIndex()
	registry := explorer.NewRegistry(explorer.NewSearcher(fetcher, nil, time.Minute, log), bm, log)
	t.Cleanup(registry.Close)

	d := deps.Deps{
		Logger:       log,
		StartTime:    time.Now(),
		Version:      "test",
		DB:           db,
		MemoryIndex:  memIndex,
		Bookmarks:    bm,
		Explorer:     registry,
		Blog:         blog.NewService(db, log),
		Auth:         authManager,
		SearchBurst:  100,
		SearchPerMin: 100,
	}
	cfg := &config.Config{
		ListenPort:     ":0",
		RequestTimeout: 5 * time.Second,
		CORSOrigins:    []string{"https://shelf.example"},
	}

	srv := httptest.NewServer(httpserver.New(cfg, log, d).Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &env{srv: srv, client: &http.Client{Jar: jar}, fetcher: fetcher, deps: d}
}

func (e *env) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

type viewBody struct {
	Session string          `json:"session"`
	State   explorer.State  `json:"state"`
	Items   []explorer.Item `json:"items"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Retry   bool            `json:"retryable"`
}

func repo(id int64, lang string, stars int) domain.Repository {
	return domain.Repository{ID: id, Name: "r", FullName: "o/r", Language: lang, StargazersCount: stars}
}

func TestHealthAndReadiness(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]any](t, body)["status"])

	resp, body = e.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode[map[string]any](t, body)["ready"])

	resp, _ = e.do(t, http.MethodGet, "/infra", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", decode[map[string]string](t, body)["error"])
}

func TestReposFiltersAndKeepsSession(t *testing.T) {
	e := newEnv(t)
	e.fetcher.set([]domain.Repository{
		repo(1, "Go", 9000),
		repo(2, "Rust", 6000),
		repo(3, "Rust", 2000),
	}, nil)

	resp, body := e.do(t, http.MethodGet, "/api/repos?q=cli&language=Rust&min_stars=5000", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decode[viewBody](t, body)
	assert.Equal(t, explorer.StateSuccess, v.State)
	require.Len(t, v.Items, 1)
	assert.Equal(t, int64(2), v.Items[0].Repository.ID)
	assert.NotEmpty(t, v.Session)

	_, body = e.do(t, http.MethodGet, "/api/repos/view", nil)
	again := decode[viewBody](t, body)
	assert.Equal(t, v.Session, again.Session)
	assert.Equal(t, explorer.StateSuccess, again.State)
}

func TestReposRejectsUnknownSort(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.do(t, http.MethodGet, "/api/repos?sort=watchers", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReposUpstreamFailureThenRetry(t *testing.T) {
	e := newEnv(t)
	e.fetcher.set(nil, &github.FetchError{StatusCode: http.StatusInternalServerError})

	resp, body := e.do(t, http.MethodGet, "/api/repos?q=x", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decode[viewBody](t, body)
	assert.Equal(t, explorer.StateError, v.State)
	assert.Equal(t, explorer.MessageError, v.Message)
	assert.True(t, v.Retry)

	e.fetcher.set([]domain.Repository{repo(1, "Go", 5000)}, nil)
	resp, body = e.do(t, http.MethodPost, "/api/repos/retry", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v = decode[viewBody](t, body)
	assert.Equal(t, explorer.StateSuccess, v.State)
	assert.Len(t, v.Items, 1)
}

func TestRetryWithoutSession(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/api/repos/retry", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBookmarkLifecycle(t *testing.T) {
	e := newEnv(t)
	r := repo(42, "Go", 1200)

	resp, body := e.do(t, http.MethodPost, "/api/bookmarks", map[string]any{"repo": r, "notes": "great repo"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, "great repo", decode[domain.Bookmark](t, body).Notes)

	resp, _ = e.do(t, http.MethodPost, "/api/bookmarks", map[string]any{"repo": r})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = e.do(t, http.MethodPatch, "/api/bookmarks/42/notes", map[string]any{"notes": "edited"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "edited", decode[domain.Bookmark](t, body).Notes)

	resp, _ = e.do(t, http.MethodPatch, "/api/bookmarks/7/notes", map[string]any{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = e.do(t, http.MethodGet, "/api/bookmarks", nil)
	list := decode[[]domain.Bookmark](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, int64(42), list[0].ID)

	resp, body = e.do(t, http.MethodPost, "/api/bookmarks/42/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode[map[string]any](t, body)["bookmarked"])
	assert.False(t, e.deps.Bookmarks.IsBookmarked(42))

	resp, _ = e.do(t, http.MethodPost, "/api/bookmarks/42/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = e.do(t, http.MethodPost, "/api/bookmarks/42/toggle", map[string]any{"repo": r})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode[map[string]any](t, body)["bookmarked"])

	resp, _ = e.do(t, http.MethodDelete, "/api/bookmarks/42", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, e.deps.Bookmarks.Len())

	resp, _ = e.do(t, http.MethodDelete, "/api/bookmarks/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSaveBookmark(t *testing.T) {
	e := newEnv(t)
	r := repo(5, "Go", 100)

	resp, _ := e.do(t, http.MethodPut, "/api/bookmarks/5", map[string]any{"notes": "no repo"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPut, "/api/bookmarks/6", map[string]any{"repo": r})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPut, "/api/bookmarks/5", map[string]any{"repo": r, "notes": "first"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := e.do(t, http.MethodPut, "/api/bookmarks/5", map[string]any{"notes": "second"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "second", decode[domain.Bookmark](t, body).Notes)
}

func TestBookmarksFlagExplorerItems(t *testing.T) {
	e := newEnv(t)
	e.fetcher.set([]domain.Repository{repo(1, "Go", 5000), repo(2, "Go", 5000)}, nil)

	_, body := e.do(t, http.MethodGet, "/api/repos?q=x", nil)
	v := decode[viewBody](t, body)
	require.Len(t, v.Items, 2)
	assert.False(t, v.Items[1].Bookmarked)

	resp, _ := e.do(t, http.MethodPost, "/api/bookmarks", map[string]any{"repo": repo(2, "Go", 5000)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, body = e.do(t, http.MethodGet, "/api/repos/view", nil)
	v = decode[viewBody](t, body)
	require.Len(t, v.Items, 2)
	assert.False(t, v.Items[0].Bookmarked)
	assert.True(t, v.Items[1].Bookmarked)
}

func TestAdminRequiresAdmin(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.do(t, http.MethodGet, "/api/admin/posts", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "reader@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "reader@example.com", "password": "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/admin/posts", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body := e.do(t, http.MethodGet, "/auth/session", nil)
	assert.Equal(t, false, decode[map[string]any](t, body)["authenticated"])
}

func TestPostLifecycle(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "admin@example.com", "password": "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := e.do(t, http.MethodPost, "/api/admin/posts", map[string]any{"title": "  ", "content": "x"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Title is required", decode[map[string]string](t, body)["error"])

	resp, body = e.do(t, http.MethodPost, "/api/admin/posts?publish=true", map[string]any{
		"title":       "Hello Shelf",
		"content":     "# Hi\n\nbody",
		"category_id": "cat-go",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	post := decode[domain.Post](t, body)
	assert.Equal(t, "hello-shelf", post.Slug)
	assert.Equal(t, domain.StatusPublished, post.Status)
	assert.Equal(t, "Admin", post.AuthorName)

	resp, _ = e.do(t, http.MethodPost, "/api/admin/posts", map[string]any{"title": "Hello Shelf", "content": "dup"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	_, body = e.do(t, http.MethodGet, "/api/posts?category=go", nil)
	assert.Len(t, decode[[]domain.Post](t, body), 1)

	resp, body = e.do(t, http.MethodGet, "/api/posts/hello-shelf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	article := decode[blog.Article](t, body)
	assert.Contains(t, article.HTML, "<h1")
	assert.Equal(t, int64(1), article.Views)

	resp, _ = e.do(t, http.MethodDelete, "/api/admin/posts/"+post.ID+"?confirm=bogus", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = e.do(t, http.MethodPost, "/api/admin/posts/"+post.ID+"/delete", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	token := decode[map[string]any](t, body)["token"].(string)

	resp, _ = e.do(t, http.MethodDelete, "/api/admin/posts/"+post.ID+"?confirm="+token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/posts/hello-shelf", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCategories(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(t, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cats := decode[[]domain.Category](t, body)
	require.Len(t, cats, 1)
	assert.Equal(t, "go", cats[0].Slug)
}

func TestReloadFlushesMemoryCache(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.deps.MemoryIndex.Set(context.Background(), "k", []domain.Repository{repo(1, "Go", 1)}, time.Minute))

	resp, body := e.do(t, http.MethodPost, "/reload", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	got := decode[map[string]any](t, body)
	assert.Equal(t, "disabled", got["categories"])
	assert.Equal(t, float64(1), got["cache_flushed"])
	assert.Zero(t, e.deps.MemoryIndex.Count())
}

func TestReloadDropsSingleSearch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	keep := explorer.CacheKey("stars:>=1000", domain.SortStars)
	drop := explorer.CacheKey("stars:>=1000 language:Go", domain.SortForks)
	require.NoError(t, e.deps.MemoryIndex.Set(ctx, keep, []domain.Repository{repo(1, "Go", 1)}, time.Minute))
	require.NoError(t, e.deps.MemoryIndex.Set(ctx, drop, []domain.Repository{repo(2, "Go", 1)}, time.Minute))

	resp, body := e.do(t, http.MethodPost, "/reload?q=stars:%3E%3D1000+language:Go&sort=forks", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	got := decode[map[string]any](t, body)
	assert.Equal(t, float64(1), got["cache_flushed"])

	_, ok, _ := e.deps.MemoryIndex.Get(ctx, keep)
	assert.True(t, ok)
	_, ok, _ = e.deps.MemoryIndex.Get(ctx, drop)
	assert.False(t, ok)

	resp, _ = e.do(t, http.MethodPost, "/reload?q=x&sort=nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t)

	req, err := http.NewRequest(http.MethodOptions, e.srv.URL+"/api/bookmarks", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://shelf.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://shelf.example", resp.Header.Get("Access-Control-Allow-Origin"))
}
