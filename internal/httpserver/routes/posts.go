package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
)

func init() { Register("posts", registerPosts) }

func registerPosts(r chi.Router, d deps.Deps) {
	host := mw.EnforceHost(d.AllowedHosts, d.Logger)
	r.With(host).Get("/api/posts", handlers.ListPosts(d))
	r.With(host).Get("/api/posts/{slug}", handlers.GetPost(d))
	r.With(host).Get("/api/categories", handlers.ListCategories(d))
}
