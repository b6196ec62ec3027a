package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
)

func init() { Register("ops", registerOps) }

// registerOps mounts the operational endpoints. Only /healthz is public.
func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	private := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	private.Get("/readyz", handlers.Readyz(d))
	private.Get("/infra", handlers.Infra(d))

	reloadLimit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             2,
		RefillPerIPPerMin: 6,
		IdleTTL:           time.Hour,
		TrustProxy:        d.TrustProxy,
		Logger:            d.Logger,
	})
	private.With(mw.EnforceHost(d.AllowedHosts, d.Logger), reloadLimit).Post("/reload", handlers.Reload(d))
}
