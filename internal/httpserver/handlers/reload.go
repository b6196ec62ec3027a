package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/explorer"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type reloadResponse struct {
	Categories   string `json:"categories"`
	CacheFlushed int    `json:"cache_flushed"`
}

// Reload triggers a category reload and drops cached search results.
// With ?q= only the cached search for that query (and ?sort=) is dropped.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var key string
		if query := q.Get("q"); query != "" {
			sortKey, err := domain.ParseSortKey(q.Get("sort"))
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			key = explorer.CacheKey(query, sortKey)
		}

		resp := reloadResponse{Categories: "disabled"}

		if d.ReloadTrigger != nil {
			select {
			case d.ReloadTrigger <- struct{}{}:
				resp.Categories = "triggered"
				d.Logger.Info("manual categories reload triggered via endpoint",
					logger.String("remote_ip", r.RemoteAddr))
			default:
				resp.Categories = "in_progress"
				d.Logger.Warn("categories reload already in progress",
					logger.String("remote_ip", r.RemoteAddr))
			}
		}

		n, err := flushCache(r.Context(), d, key)
		if err != nil {
			fail(d, w, r, err)
			return
		}
		resp.CacheFlushed = n

		status := http.StatusAccepted
		if resp.Categories == "in_progress" {
			status = http.StatusTooManyRequests
		}
		writeJSON(w, status, resp)
	}
}

// flushCache drops every cached search, or only key when it is set.
func flushCache(ctx context.Context, d deps.Deps, key string) (int, error) {
	switch {
	case d.RedisCache != nil && key != "":
		return d.RedisCache.Invalidate(ctx, key)
	case d.RedisCache != nil:
		return d.RedisCache.Flush(ctx)
	case d.MemoryIndex != nil && key != "":
		return d.MemoryIndex.Delete(key), nil
	case d.MemoryIndex != nil:
		return d.MemoryIndex.Clear(), nil
	}
	return 0, nil
}
