package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	redisconn "github.com/MrSnakeDoc/shelf/internal/redis"
)

const checkTimeout = 2 * time.Second

type readyzResponse struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// Readyz reports 503 until the database answers. Redis is checked only when configured.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyzResponse{Ready: true, Checks: map[string]string{}}

		if err := pingDB(r.Context(), d); err != nil {
			resp.Ready = false
			resp.Checks["sqlite"] = err.Error()
		} else {
			resp.Checks["sqlite"] = "ok"
		}

		if d.RedisClient != nil {
			if err := redisconn.Ping(r.Context(), d.RedisClient, checkTimeout); err != nil {
				resp.Ready = false
				resp.Checks["redis"] = err.Error()
			} else {
				resp.Checks["redis"] = "ok"
			}
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func pingDB(ctx context.Context, d deps.Deps) error {
	if d.DB == nil {
		return errNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return d.DB.PingContext(ctx)
}
