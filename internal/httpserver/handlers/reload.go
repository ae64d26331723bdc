package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/readmehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
)

// Reload asks the reloader to re-read the document now.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual document reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, envelope{Success: true, Message: "Reload triggered."})
		default:
			d.Logger.Warn("document reload already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeError(w, http.StatusTooManyRequests, "Reload already in progress, please wait.", nil)
		}
	}
}
