package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/auth"
	"github.com/MrSnakeDoc/shelf/internal/blog"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
)

type deleteTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func AdminListPosts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := d.Blog.All(r.Context())
		if err != nil {
			fail(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, posts)
	}
}

func AdminGetPost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := d.Blog.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// AdminCreatePost stores a new post authored by the signed-in admin.
func AdminCreatePost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in blog.PostInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		author, _ := auth.ProfileFromContext(r.Context())

		p, err := d.Blog.Create(r.Context(), author.ID, in, publishParam(r))
		if err != nil {
			fail(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func AdminUpdatePost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in blog.PostInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		p, err := d.Blog.Update(r.Context(), chi.URLParam(r, "id"), in, publishParam(r))
		if err != nil {
			fail(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// AdminRequestDelete hands out the token the confirming DELETE must carry.
func AdminRequestDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, expires, err := d.Blog.RequestDelete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, deleteTokenResponse{Token: token, ExpiresAt: expires})
	}
}

func AdminConfirmDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.URL.Query().Get("confirm"))
		if err := d.Blog.ConfirmDelete(r.Context(), chi.URLParam(r, "id"), token); err != nil {
			fail(d, w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func publishParam(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("publish"))
	return ok
}
