package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/auth"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool            `json:"authenticated"`
	Profile       *domain.Profile `json:"profile,omitempty"`
}

func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		p, err := d.Auth.SignIn(w, r, req.Email, req.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if err != nil {
			fail(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, Profile: &p})
	}
}

func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := d.Auth.SignOut(w, r)
		if errors.Is(err, auth.ErrNoSession) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if err != nil {
			fail(d, w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Session reports who is signed in. Anonymous callers get authenticated=false.
func Session(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok, err := d.Auth.Current(r)
		if err != nil {
			fail(d, w, r, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusOK, sessionResponse{})
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, Profile: &p})
	}
}
