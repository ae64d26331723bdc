package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
)

var (
	// ErrConflict means the version token did not match the stored revision,
	// or a first-write (empty token) was attempted on an existing document.
	ErrConflict = errors.New("document version conflict")
	// ErrNoCredential means the backend has no write credential configured.
	ErrNoCredential = errors.New("document store write credential is not configured")
	// ErrBackend wraps every other backend failure (network, auth, decode).
	ErrBackend = errors.New("document store backend failure")
)

// Snapshot is a document together with the revision it was read at.
type Snapshot struct {
	Document *domain.Document
	// Version is the opaque token that authorizes the next write. Empty when
	// the document does not exist yet.
	Version string
	Exists  bool
}

// Store is a remote key-document store holding the single site document.
//
// Load returns an empty document, an empty version and Exists=false when
// nothing has been written yet; any other failure is an error.
//
// Save writes doc conditioned on version. An empty version is only accepted
// while the document does not exist. It returns the new version.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, doc *domain.Document, version, message string) (string, error)
	Name() string
}

// Empty returns the bootstrap snapshot used before the first write.
func Empty() *Snapshot {
	doc := &domain.Document{}
	doc.Normalize()
	return &Snapshot{Document: doc}
}

// Encode renders doc the way it is persisted: indented JSON, HTML left
// unescaped, no trailing newline.
func Encode(doc *domain.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses a persisted document. Missing lists, including an article's
// comments, decode as empty; keys that were absent stay absent on Encode.
func Decode(data []byte) (*domain.Document, error) {
	var doc domain.Document
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
	}
	doc.Normalize()
	return &doc, nil
}
