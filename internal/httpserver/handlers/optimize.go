package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readmehub/internal/optimizer"
)

// Optimize rewrites a content block for engagement. Blank site fields are
// filled from the site profile.
func Optimize(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req optimizer.Request
		if err := decodeJSON(r, &req); err != nil {
			writeBadBody(w)
			return
		}

		resp, err := d.Optimizer.Optimize(r.Context(), req)
		if err != nil {
			var de *domain.Error
			if errors.As(err, &de) {
				writeError(w, statusFor(de.Kind), de.Message, de.Fields)
				return
			}
			writeError(w, http.StatusBadGateway, "Failed to optimize content.", nil)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Content optimized.", Data: resp})
	}
}
