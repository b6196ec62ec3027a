package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
)

type bookmarkRequest struct {
	Repo  *domain.Repository `json:"repo"`
	Notes string             `json:"notes"`
}

type toggleResponse struct {
	ID         int64 `json:"id"`
	Bookmarked bool  `json:"bookmarked"`
}

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Bookmarks.List())
	}
}

// CreateBookmark adds a repository. 409 when it is already bookmarked.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookmarkRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Repo == nil || req.Repo.ID <= 0 {
			writeError(w, http.StatusBadRequest, "repo with a positive id is required")
			return
		}

		if err := d.Bookmarks.Add(r.Context(), *req.Repo, req.Notes); err != nil {
			fail(d, w, r, err)
			return
		}
		b, _ := d.Bookmarks.Get(req.Repo.ID)
		writeJSON(w, http.StatusCreated, b)
	}
}

// SaveBookmark updates the notes of a bookmark, or adds it when repo is given.
func SaveBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := repoIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var req bookmarkRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		created := false
		switch {
		case req.Repo != nil:
			if req.Repo.ID != id {
				writeError(w, http.StatusBadRequest, "repo id does not match path")
				return
			}
			created, err = d.Bookmarks.Save(r.Context(), *req.Repo, req.Notes)
		case d.Bookmarks.IsBookmarked(id):
			err = d.Bookmarks.UpdateNotes(r.Context(), id, req.Notes)
		default:
			writeError(w, http.StatusBadRequest, "repo is required to create a bookmark")
			return
		}
		if err != nil {
			fail(d, w, r, err)
			return
		}

		b, _ := d.Bookmarks.Get(id)
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, b)
	}
}

// UpdateBookmarkNotes only edits notes; 404 when the id is not bookmarked.
func UpdateBookmarkNotes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := repoIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var req bookmarkRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !d.Bookmarks.IsBookmarked(id) {
			fail(d, w, r, domain.ErrNotFound)
			return
		}

		if err := d.Bookmarks.UpdateNotes(r.Context(), id, req.Notes); err != nil {
			fail(d, w, r, err)
			return
		}
		b, _ := d.Bookmarks.Get(id)
		writeJSON(w, http.StatusOK, b)
	}
}

// ToggleBookmark flips membership. Adding needs the repo snapshot in the body.
func ToggleBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := repoIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if d.Bookmarks.IsBookmarked(id) {
			if err := d.Bookmarks.Remove(r.Context(), id); err != nil {
				fail(d, w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, toggleResponse{ID: id, Bookmarked: false})
			return
		}

		var req bookmarkRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Repo == nil || req.Repo.ID != id {
			writeError(w, http.StatusBadRequest, "repo matching the path id is required")
			return
		}

		on, err := d.Bookmarks.Toggle(r.Context(), *req.Repo)
		if err != nil {
			fail(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toggleResponse{ID: id, Bookmarked: on})
	}
}

// DeleteBookmark removes a bookmark. Unknown ids are not an error.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := repoIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := d.Bookmarks.Remove(r.Context(), id); err != nil {
			fail(d, w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
