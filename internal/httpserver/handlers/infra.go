package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/readmehub/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Articles   *int   `json:"articles,omitempty"`
	Categories *int   `json:"categories,omitempty"`
	Version    string `json:"version,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of the document, the shared cache and the optimizer.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"document":  documentStatus(d),
			"redis":     checkRedis(r.Context(), d),
			"optimizer": {OK: d.Optimizer != nil, Mode: optimizerMode(d)},
		}
		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func documentStatus(d deps.Deps) componentStatus {
	articles := d.Index.Count()
	categories := d.Index.CategoryCount()
	lastReload := "never"
	if t := d.Index.LastReload(); !t.IsZero() {
		lastReload = t.Format("2006-01-02 15:04:05")
	}

	mode := d.Sync.StoreName()
	switch {
	case d.Index.Degraded():
		mode += "+degraded"
	case !d.Index.Loaded():
		mode += "+stale"
	}

	return componentStatus{
		OK:         !d.Index.Degraded() && !d.Index.LastReload().IsZero(),
		Articles:   &articles,
		Categories: &categories,
		Version:    d.Index.Version(),
		LastReload: lastReload,
		Mode:       mode,
	}
}

func optimizerMode(d deps.Deps) string {
	if d.Optimizer == nil {
		return "disabled"
	}
	return d.Optimizer.Backend()
}

func determineMode(components map[string]componentStatus) string {
	if doc, ok := components["document"]; ok && !doc.OK {
		return "critical" // public pages render empty
	}
	if redis, ok := components["redis"]; ok && !redis.OK && redis.Mode != "disabled" {
		return "degraded" // instances no longer share invalidations
	}
	return "operational"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.Redis == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "single-instance",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Redis.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "cross-instance-invalidation-disabled",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "shared",
		Impact: "cross-instance-invalidation-enabled",
	}
}
