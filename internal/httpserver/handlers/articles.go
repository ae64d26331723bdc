package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/httpserver/deps"
)

// Public read endpoints serve from the in-process index. A degraded index
// still answers, with empty collections and degraded=true.

func ListArticles(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{
			Success:  true,
			Data:     d.Index.Articles(),
			Degraded: d.Index.Degraded(),
		})
	}
}

func FeaturedArticle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := d.Index.Featured()
		if !ok {
			writeJSON(w, http.StatusNotFound, envelope{Message: "No articles yet.", Degraded: d.Index.Degraded()})
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: a, Degraded: d.Index.Degraded()})
	}
}

func GetArticle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := d.Index.ArticleBySlug(chi.URLParam(r, "slug"))
		if !ok {
			writeJSON(w, http.StatusNotFound, envelope{Message: "Article not found.", Degraded: d.Index.Degraded()})
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: a, Degraded: d.Index.Degraded()})
	}
}

func ListCategories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{
			Success:  true,
			Data:     d.Index.Categories(),
			Degraded: d.Index.Degraded(),
		})
	}
}

type categoryArticles struct {
	Category domain.Category  `json:"category"`
	Articles []domain.Article `json:"articles"`
}

func CategoryArticles(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		c, ok := d.Index.CategoryBySlug(slug)
		if !ok {
			writeJSON(w, http.StatusNotFound, envelope{Message: "Category not found.", Degraded: d.Index.Degraded()})
			return
		}
		writeJSON(w, http.StatusOK, envelope{
			Success:  true,
			Data:     categoryArticles{Category: c, Articles: d.Index.ArticlesInCategory(slug)},
			Degraded: d.Index.Degraded(),
		})
	}
}

// AddComment appends a reader comment. It writes through the store like any
// other mutation.
func AddComment(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.CommentInput
		if err := decodeJSON(r, &in); err != nil {
			writeBadBody(w)
			return
		}
		writeResult(w, d.Sync.AddComment(r.Context(), chi.URLParam(r, "id"), in), http.StatusCreated)
	}
}
