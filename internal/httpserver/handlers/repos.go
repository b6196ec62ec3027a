package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/explorer"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// ExplorerCookie keeps a browser attached to its explorer session.
const ExplorerCookie = "shelf_explorer"

type reposResponse struct {
	Session string `json:"session"`
	explorer.View
}

// Repos runs a repository search for the caller's explorer session.
// Upstream failures are reported inside the view, never as an HTTP error.
func Repos(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		sortKey, err := domain.ParseSortKey(q.Get("sort"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		criteria := domain.DefaultFilterCriteria()
		criteria.SortBy = sortKey
		criteria.Language = q.Get("language")
		if q.Has("min_stars") {
			criteria.MinStars = domain.ParseMinStars(q.Get("min_stars"))
		}

		session := openSession(d, w, r)
		query := strings.TrimSpace(q.Get("q"))

		d.Logger.Debug("explorer search",
			logger.String("session", session.ID()),
			logger.String("query", query),
			logger.String("sort", string(criteria.SortBy)),
			logger.String("language", criteria.Language),
			logger.Int("min_stars", criteria.MinStars))

		view := session.Search(r.Context(), query, criteria)
		writeJSON(w, http.StatusOK, reposResponse{Session: session.ID(), View: view})
	}
}

// ReposRetry re-issues the last search of the caller's session.
func ReposRetry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(ExplorerCookie)
		if err != nil {
			writeError(w, http.StatusNotFound, "no explorer session")
			return
		}
		session, ok := d.Explorer.Get(c.Value)
		if !ok {
			writeError(w, http.StatusNotFound, "no explorer session")
			return
		}

		view := session.Retry(r.Context())
		writeJSON(w, http.StatusOK, reposResponse{Session: session.ID(), View: view})
	}
}

// ReposView returns the current view without searching.
func ReposView(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := openSession(d, w, r)
		writeJSON(w, http.StatusOK, reposResponse{Session: session.ID(), View: session.View()})
	}
}

func openSession(d deps.Deps, w http.ResponseWriter, r *http.Request) *explorer.Session {
	id := ""
	if c, err := r.Cookie(ExplorerCookie); err == nil {
		id = c.Value
	}

	session := d.Explorer.Open(id)
	if session.ID() != id {
		http.SetCookie(w, &http.Cookie{
			Name:     ExplorerCookie,
			Value:    session.ID(),
			Path:     "/",
			HttpOnly: true,
			Secure:   d.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return session
}
