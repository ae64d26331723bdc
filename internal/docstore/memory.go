package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
)

// Commit records one accepted write.
type Commit struct {
	Version string
	Message string
}

// MemoryStore keeps the document in process. It enforces the same
// conditional-write rules as the GitHub backend, which makes it the store of
// choice for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	data    []byte
	version string
	exists  bool
	commits []Commit

	// FailLoad, when set, is returned by every Load call.
	FailLoad error
	// FailSave, when set, is returned by every Save call.
	FailSave error
}

// NewMemoryStore returns an empty store. A non-nil seed is written as the
// initial revision.
func NewMemoryStore(seed *domain.Document) *MemoryStore {
	m := &MemoryStore{}
	if seed != nil {
		data, err := Encode(seed)
		if err != nil {
			panic(fmt.Sprintf("docstore: invalid seed document: %v", err))
		}
		m.commit(data, "seed")
	}
	return m
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailLoad != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, m.FailLoad)
	}
	if !m.exists {
		return Empty(), nil
	}
	doc, err := Decode(m.data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return &Snapshot{Document: doc, Version: m.version, Exists: true}, nil
}

func (m *MemoryStore) Save(ctx context.Context, doc *domain.Document, version, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := Encode(doc)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackend, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSave != nil {
		return "", fmt.Errorf("%w: %w", ErrBackend, m.FailSave)
	}
	switch {
	case m.exists && version == "":
		return "", fmt.Errorf("%w: document already exists, a version is required", ErrConflict)
	case m.exists && version != m.version:
		return "", fmt.Errorf("%w: version %s does not match %s", ErrConflict, version, m.version)
	case !m.exists && version != "":
		return "", fmt.Errorf("%w: document does not exist", ErrConflict)
	}

	return m.commit(data, message), nil
}

func (m *MemoryStore) commit(data []byte, message string) string {
	sum := sha256.Sum256(append([]byte(strconv.Itoa(len(m.commits))+"\x00"), data...))
	m.data = data
	m.version = hex.EncodeToString(sum[:20])
	m.exists = true
	m.commits = append(m.commits, Commit{Version: m.version, Message: message})
	return m.version
}

// Raw returns the stored bytes exactly as written.
func (m *MemoryStore) Raw() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.data...)
}

// Commits returns the write history, oldest first.
func (m *MemoryStore) Commits() []Commit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Commit(nil), m.commits...)
}
