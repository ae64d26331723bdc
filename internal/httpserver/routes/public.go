package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/readmehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readmehub/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/readmehub/internal/httpserver/mw"
)

func init() { Register(registerPublic, hostGuard) }

func registerPublic(r chi.Router, d deps.Deps) {
	r.Get("/api/articles", handlers.ListArticles(d))
	r.Get("/api/articles/featured", handlers.FeaturedArticle(d))
	r.Get("/api/articles/{slug}", handlers.GetArticle(d))
	r.With(mw.RateLimit(mw.CommentRateLimit(d.TrustProxy))).
		Post("/api/articles/{id}/comments", handlers.AddComment(d))

	r.Get("/api/categories", handlers.ListCategories(d))
	r.Get("/api/categories/{slug}/articles", handlers.CategoryArticles(d))
}
