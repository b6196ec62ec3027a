package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

const searchBody = `{
  "total_count": 2,
  "incomplete_results": false,
  "items": [
    {
      "id": 101,
      "name": "ripgrep",
      "full_name": "BurntSushi/ripgrep",
      "description": "fast grep",
      "html_url": "https://github.com/BurntSushi/ripgrep",
      "stargazers_count": 45000,
      "forks_count": 1900,
      "open_issues_count": 80,
      "language": "Rust",
      "topics": ["search", "cli"],
      "created_at": "2016-03-11T00:00:00Z",
      "updated_at": "2025-01-02T03:04:05Z",
      "owner": {"login": "BurntSushi", "avatar_url": "https://avatars.example/1"}
    },
    {
      "id": 202,
      "name": "empty",
      "full_name": "someone/empty",
      "description": null,
      "language": null,
      "owner": {"login": "someone"}
    }
  ]
}`

func newTestClient(t *testing.T, h http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{BaseURL: srv.URL, Token: token}, logger.NewNop())
	require.NoError(t, err)
	return c
}

func TestSearchRepositories(t *testing.T) {
	var gotQuery, gotSort, gotOrder, gotPerPage, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		q := r.URL.Query()
		gotQuery, gotSort, gotOrder, gotPerPage = q.Get("q"), q.Get("sort"), q.Get("order"), q.Get("per_page")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}, "secret-token")

	repos, err := c.SearchRepositories(context.Background(), "stars:>1000 language:Rust", domain.SortForks)
	require.NoError(t, err)

	assert.Equal(t, "stars:>1000 language:Rust", gotQuery)
	assert.Equal(t, "forks", gotSort)
	assert.Equal(t, "desc", gotOrder)
	assert.Equal(t, "30", gotPerPage)
	assert.Equal(t, "Bearer secret-token", gotAuth)

	require.Len(t, repos, 2)
	rg := repos[0]
	assert.Equal(t, int64(101), rg.ID)
	assert.Equal(t, "BurntSushi/ripgrep", rg.FullName)
	assert.Equal(t, "Rust", rg.Language)
	assert.Equal(t, 45000, rg.StargazersCount)
	assert.Equal(t, 1900, rg.ForksCount)
	assert.Equal(t, 80, rg.OpenIssuesCount)
	assert.Equal(t, []string{"search", "cli"}, rg.Topics)
	assert.Equal(t, "BurntSushi", rg.Owner.Login)
	assert.Equal(t, 2025, rg.UpdatedAt.Year())

	empty := repos[1]
	assert.Empty(t, empty.Language)
	assert.Empty(t, empty.Description)
	assert.Equal(t, []string{}, empty.Topics)
}

func TestSearchRepositoriesNon2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"try later"}`))
	}, "")

	repos, err := c.SearchRepositories(context.Background(), "x", domain.SortStars)
	require.Error(t, err)
	assert.Nil(t, repos)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
	assert.Contains(t, err.Error(), "503")
}

func TestSearchRepositoriesUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(Options{BaseURL: base}, logger.NewNop())
	require.NoError(t, err)

	_, err = c.SearchRepositories(context.Background(), "x", domain.SortStars)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.StatusCode)
}
