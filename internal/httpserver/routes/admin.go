package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
)

func init() { Register("admin", registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.Route("/api/admin/posts", func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger), d.Auth.RequireAdmin)
		r.Get("/", handlers.AdminListPosts(d))
		r.Post("/", handlers.AdminCreatePost(d))
		r.Get("/{id}", handlers.AdminGetPost(d))
		r.Put("/{id}", handlers.AdminUpdatePost(d))
		r.Post("/{id}/delete", handlers.AdminRequestDelete(d))
		r.Delete("/{id}", handlers.AdminConfirmDelete(d))
	})
}
