package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v33/github"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

const (
	// DefaultPerPage matches what the explorer displays on one page.
	DefaultPerPage = 30
	// DefaultTimeout bounds a single search call.
	DefaultTimeout = 10 * time.Second
)

// FetchError is returned when the search API answers with a non-2xx status
// or cannot be reached at all (StatusCode == 0).
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("failed to fetch repositories: %v", e.Err)
	}
	return fmt.Sprintf("failed to fetch repositories: github returned %d: %v", e.StatusCode, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures the client.
type Options struct {
	BaseURL    string        // API root, default https://api.github.com/
	Token      string        // optional, raises the rate limit
	Timeout    time.Duration // per request
	PerPage    int           // results per search
	HTTPClient *http.Client  // optional transport override
}

// Client wraps go-github's search service.
type Client struct {
	api     *gh.Client
	perPage int
	logger  logger.Logger
}

// NewClient builds a search client.
func NewClient(opts Options, log logger.Logger) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Token != "" {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped := *httpClient
		wrapped.Transport = &tokenTransport{token: opts.Token, base: base}
		httpClient = &wrapped
	}

	api := gh.NewClient(httpClient)
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid github base url %q: %w", opts.BaseURL, err)
		}
		api.BaseURL = u
	}
	api.UserAgent = "shelf"

	return &Client{api: api, perPage: opts.PerPage, logger: log}, nil
}

// SearchRepositories runs a repository search sorted by sort, descending.
func (c *Client) SearchRepositories(ctx context.Context, query string, sort domain.SortKey) ([]domain.Repository, error) {
	start := time.Now()
	opts := &gh.SearchOptions{
		Sort:  string(sort),
		Order: "desc",
		ListOptions: gh.ListOptions{
			PerPage: c.perPage,
		},
	}

	result, resp, err := c.api.Search.Repositories(ctx, query, opts)
	if err != nil {
		fe := &FetchError{Err: err}
		if resp != nil {
			fe.StatusCode = resp.StatusCode
		}
		var rle *gh.RateLimitError
		if errors.As(err, &rle) {
			c.logger.Warn("github rate limit reached",
				logger.Time("reset", rle.Rate.Reset.Time))
		}
		c.logger.Warn("github search failed",
			logger.String("query", query),
			logger.Int("status", fe.StatusCode),
			logger.Error(err))
		return nil, fe
	}

	repos := make([]domain.Repository, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, toDomain(r))
	}

	c.logger.Debug("github search completed",
		logger.String("query", query),
		logger.String("sort", string(sort)),
		logger.Int("results", len(repos)),
		logger.Int("total", result.GetTotal()),
		logger.Duration("duration", time.Since(start)))

	return repos, nil
}

func toDomain(r *gh.Repository) domain.Repository {
	topics := make([]string, len(r.Topics))
	copy(topics, r.Topics)
	return domain.Repository{
		ID:       r.GetID(),
		Name:     r.GetName(),
		FullName: r.GetFullName(),
		Owner: domain.Owner{
			Login:     r.GetOwner().GetLogin(),
			AvatarURL: r.GetOwner().GetAvatarURL(),
		},
		Description:     r.GetDescription(),
		HTMLURL:         r.GetHTMLURL(),
		Language:        r.GetLanguage(),
		Topics:          topics,
		StargazersCount: r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		OpenIssuesCount: r.GetOpenIssuesCount(),
		CreatedAt:       r.GetCreatedAt().Time,
		UpdatedAt:       r.GetUpdatedAt().Time,
	}
}

type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(clone)
}
