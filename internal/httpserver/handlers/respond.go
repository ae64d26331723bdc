package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/syncer"
)

const maxJSONBody = 1 << 20

var errEmptyBody = errors.New("empty request body")

// envelope is the shape of every non-export API response.
type envelope struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Data     any               `json:"data,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Degraded bool              `json:"degraded,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, fields map[string]string) {
	writeJSON(w, status, envelope{Message: message, Errors: fields})
}

// statusFor maps a failure kind to an HTTP status.
func statusFor(k domain.Kind) int {
	switch k {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindReferential, domain.KindConflict:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindBackend:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeResult renders an operation result; ok is the status used on success.
func writeResult(w http.ResponseWriter, res *syncer.Result, ok int) {
	status := ok
	if !res.Success {
		status = statusFor(res.Kind)
	}
	writeJSON(w, status, envelope{
		Success:  res.Success,
		Message:  res.Message,
		Errors:   res.Errors,
		Data:     res.Data,
		Warnings: res.Warnings,
	})
}

// decodeJSON reads a single JSON value from the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func writeBadBody(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, "Invalid request body.", nil)
}
