package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/readmehub/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready    bool   `json:"ready"`
	Degraded bool   `json:"degraded"`
	Version  string `json:"version,omitempty"`
}

// Readyz reports ready once the first document load has been attempted.
// A degraded index is still ready: public pages render empty.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := !d.Index.LastReload().IsZero()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{
			Ready:    ready,
			Degraded: d.Index.Degraded(),
			Version:  d.Index.Version(),
		})
	}
}
