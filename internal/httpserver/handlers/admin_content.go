package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/httpserver/deps"
)

func CreateArticle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.ArticleInput
		if err := decodeJSON(r, &in); err != nil {
			writeBadBody(w)
			return
		}
		writeResult(w, d.Sync.CreateArticle(r.Context(), in), http.StatusCreated)
	}
}

func UpdateArticle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.ArticleInput
		if err := decodeJSON(r, &in); err != nil {
			writeBadBody(w)
			return
		}
		writeResult(w, d.Sync.UpdateArticle(r.Context(), chi.URLParam(r, "id"), in), http.StatusOK)
	}
}

func DeleteArticle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, d.Sync.DeleteArticle(r.Context(), chi.URLParam(r, "id")), http.StatusOK)
	}
}

func AddCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.CategoryInput
		if err := decodeJSON(r, &in); err != nil {
			writeBadBody(w)
			return
		}
		writeResult(w, d.Sync.AddCategory(r.Context(), in), http.StatusCreated)
	}
}

func DeleteCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, d.Sync.DeleteCategory(r.Context(), chi.URLParam(r, "id")), http.StatusOK)
	}
}
