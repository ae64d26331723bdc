package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
	"github.com/MrSnakeDoc/readmehub/internal/utils"
)

const (
	maxImportBytes = 10 << 20
	importField    = "jsonFile"
)

// Export downloads the stored document verbatim.
func Export(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := d.Sync.Export(r.Context())
		if err != nil {
			d.Logger.Error("export failed", logger.Error(err))
			var de *domain.Error
			reason := "An unexpected error occurred."
			if errors.As(err, &de) {
				reason = de.Message
			}
			writeError(w, statusFor(domain.KindOf(err)), "Failed to export data.", map[string]string{"server": reason})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="db.json"`)
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}

// Import merges an uploaded document. The file comes either as the jsonFile
// field of a multipart form or as the raw request body.
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

		data, err := readUpload(r)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "File is too large.",
					map[string]string{importField: "File is too large."})
				return
			}
			writeError(w, http.StatusBadRequest, "Invalid upload.", map[string]string{importField: err.Error()})
			return
		}

		writeResult(w, d.Sync.Import(r.Context(), data), http.StatusOK)
	}
}

// readUpload returns the uploaded bytes. A multipart form without the file
// yields nil, which the import reports as missing.
func readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		return nil, err
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, _, err := r.FormFile(importField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer utils.Close(f)
	return io.ReadAll(f)
}
