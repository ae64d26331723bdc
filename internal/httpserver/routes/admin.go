package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/readmehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readmehub/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/readmehub/internal/httpserver/mw"
)

func init() { Register(registerAdmin, hostGuard) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.With(mw.RateLimit(mw.LoginRateLimit(d.TrustProxy))).
		Post("/api/admin/login", handlers.Login(d))

	r.Group(func(g chi.Router) {
		g.Use(mw.RequireAdmin(d.Sessions, d.Logger))

		g.Post("/api/admin/logout", handlers.Logout(d))
		g.Get("/api/admin/session", handlers.CurrentSession(d))

		g.Post("/api/admin/articles", handlers.CreateArticle(d))
		g.Put("/api/admin/articles/{id}", handlers.UpdateArticle(d))
		g.Delete("/api/admin/articles/{id}", handlers.DeleteArticle(d))

		g.Post("/api/admin/categories", handlers.AddCategory(d))
		g.Delete("/api/admin/categories/{id}", handlers.DeleteCategory(d))

		g.Get("/api/admin/export", handlers.Export(d))
		g.Post("/api/admin/import", handlers.Import(d))

		g.Post("/api/admin/optimize", handlers.Optimize(d))
		g.Post("/api/admin/reload", handlers.Reload(d))
	})
}
