package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
)

func init() { Register("repos", registerRepos) }

func registerRepos(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.SearchBurst,
		RefillPerIPPerMin: d.SearchPerMin,
		MaxEntries:        10000,
		SweepInterval:     time.Minute,
		IdleTTL:           15 * time.Minute,
		TrustProxy:        d.TrustProxy,
		Logger:            d.Logger,
	})

	r.Route("/api/repos", func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.With(limit).Get("/", handlers.Repos(d))
		r.Get("/view", handlers.ReposView(d))
		r.With(limit).Post("/retry", handlers.ReposRetry(d))
	})
}
