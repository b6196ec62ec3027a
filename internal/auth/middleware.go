package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type ctxKey struct{}

// WithProfile stores p in ctx.
func WithProfile(ctx context.Context, p domain.Profile) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// ProfileFromContext returns the profile RequireAdmin attached to the request.
func ProfileFromContext(ctx context.Context) (domain.Profile, bool) {
	p, ok := ctx.Value(ctxKey{}).(domain.Profile)
	return p, ok
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func (m *Manager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok, err := m.Current(r)
		switch {
		case err != nil:
			m.logger.Error("failed to resolve session", logger.Error(err))
			deny(w, http.StatusInternalServerError, "internal error")
			return
		case !ok:
			deny(w, http.StatusUnauthorized, "sign in required")
			return
		case !p.IsAdmin:
			m.logger.Warn("non-admin on admin route",
				logger.String("profile", p.ID),
				logger.String("path", r.URL.Path))
			deny(w, http.StatusForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), p)))
	})
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
