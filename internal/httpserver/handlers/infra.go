package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	redisconn "github.com/MrSnakeDoc/shelf/internal/redis"
)

var errNotInitialized = errors.New("client not initialized")

type componentStatus struct {
	OK         bool   `json:"ok"`
	Count      *int   `json:"count,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		components := map[string]componentStatus{
			"sqlite":     checkDB(ctx, d),
			"redis":      checkRedis(ctx, d),
			"cache":      checkCache(ctx, d),
			"categories": checkCategories(d),
		}

		bookmarkCount := 0
		if d.Bookmarks != nil {
			bookmarkCount = d.Bookmarks.Len()
		}
		components["bookmarks"] = componentStatus{OK: d.Bookmarks != nil, Count: &bookmarkCount}

		sessions := 0
		if d.Explorer != nil {
			sessions = d.Explorer.Len()
		}
		components["explorer"] = componentStatus{OK: d.Explorer != nil, Count: &sessions}

		pending := 0
		if d.Blog != nil {
			pending = d.Blog.PendingConfirmations()
		}
		components["delete_confirmations"] = componentStatus{OK: true, Count: &pending}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if db, ok := components["sqlite"]; ok && !db.OK {
		return "critical"
	}
	if redis, ok := components["redis"]; ok && !redis.OK {
		return "degraded"
	}
	return "operational"
}

func checkDB(ctx context.Context, d deps.Deps) componentStatus {
	if err := pingDB(ctx, d); err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: d.DB.Path()}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "bookmarks-on-disk",
		}
	}
	if err := redisconn.Ping(ctx, d.RedisClient, checkTimeout); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "bookmarks-and-cache-unavailable",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: "optimal"}
}

func checkCache(ctx context.Context, d deps.Deps) componentStatus {
	switch {
	case d.RedisCache != nil:
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		n, err := d.RedisCache.Count(ctx)
		if err != nil {
			return componentStatus{OK: false, Mode: "redis", Error: err.Error()}
		}
		return componentStatus{OK: true, Mode: "redis", Count: &n}
	case d.MemoryIndex != nil:
		n := d.MemoryIndex.Count()
		return componentStatus{OK: true, Mode: "memory", Count: &n, LastReload: formatTime(d.MemoryIndex.GetLastUpdate())}
	default:
		return componentStatus{OK: false, Error: errNotInitialized.Error()}
	}
}

func checkCategories(d deps.Deps) componentStatus {
	if d.Categories == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	last, n := d.Categories.Status()
	return componentStatus{OK: !last.IsZero(), Count: &n, LastReload: formatTime(last)}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
