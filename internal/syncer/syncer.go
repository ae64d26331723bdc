package syncer

import (
	"context"
	"errors"
	"sync"

	"github.com/MrSnakeDoc/readmehub/internal/docstore"
	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
)

// Listener is notified after every accepted write. doc is the resolved read
// view of the new revision.
type Listener interface {
	DocumentSaved(ctx context.Context, doc *domain.Document, version string)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, doc *domain.Document, version string)

func (f ListenerFunc) DocumentSaved(ctx context.Context, doc *domain.Document, version string) {
	f(ctx, doc, version)
}

// View is what public readers get. Degraded is set when the store could not
// be read and Document is the empty fallback.
type View struct {
	Document *domain.Document
	Version  string
	Degraded bool
}

// Synchronizer runs every business operation as load, transform, save and
// notify against the document store. Nothing is retried.
type Synchronizer struct {
	store  docstore.Store
	gen    *domain.Generator
	author domain.Author
	logger logger.Logger

	// writeMu serializes local writers so they do not conflict with each
	// other. Other instances are still caught by the version token.
	writeMu sync.Mutex

	mu        sync.RWMutex
	listeners []Listener
}

// New creates a Synchronizer. gen may be nil, in which case ULIDs and the
// wall clock are used.
func New(store docstore.Store, gen *domain.Generator, author domain.Author, log logger.Logger) *Synchronizer {
	if gen == nil {
		gen = domain.NewGenerator()
	}
	return &Synchronizer{
		store:  store,
		gen:    gen,
		author: author,
		logger: log.With(logger.String("store", store.Name())),
	}
}

// Subscribe registers l for save notifications.
func (s *Synchronizer) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Author is the byline forced onto every article.
func (s *Synchronizer) Author() domain.Author {
	return s.author
}

// StoreName identifies the configured backend.
func (s *Synchronizer) StoreName() string {
	return s.store.Name()
}

// Load fetches the current document and its version token. A document that
// does not exist yet is not an error.
func (s *Synchronizer) Load(ctx context.Context) (*docstore.Snapshot, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, domain.NewBackend("Failed to load the document.", err)
	}
	return snap, nil
}

// Read returns the resolved document for public pages. A load failure is
// logged and answered with an empty, degraded view.
func (s *Synchronizer) Read(ctx context.Context) *View {
	snap, err := s.Load(ctx)
	if err != nil {
		s.logger.Warn("document load failed, serving empty view", logger.Error(err))
		return &View{Document: docstore.Empty().Document, Degraded: true}
	}
	return &View{Document: snap.Document.Resolve(s.author), Version: snap.Version}
}

// transform mutates doc in place. It returns the commit message and the
// operation's payload.
type transform func(doc *domain.Document) (message string, data any, err error)

// mutate applies fn to a fresh copy of the document and writes it back
// conditioned on the version that was read.
func (s *Synchronizer) mutate(ctx context.Context, fn transform) (any, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	doc := snap.Document
	message, data, err := fn(doc)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, doc, snap.Version, message); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Synchronizer) save(ctx context.Context, doc *domain.Document, version, message string) error {
	next, err := s.store.Save(ctx, doc, version, message)
	switch {
	case err == nil:
	case errors.Is(err, docstore.ErrConflict):
		s.logger.Warn("write rejected, document changed since it was read",
			logger.String("version", version),
			logger.Error(err))
		return domain.NewConflict("The document was changed by someone else. Reload and try again.", err)
	case errors.Is(err, docstore.ErrNoCredential):
		return domain.NewBackend("GitHub token is not configured.", err)
	default:
		s.logger.Error("write failed", logger.String("message", message), logger.Error(err))
		return domain.NewBackend("GitHub Upload failed.", err)
	}

	s.logger.Info("document saved",
		logger.String("message", message),
		logger.String("version", next))
	s.notify(ctx, doc, next)
	return nil
}

func (s *Synchronizer) notify(ctx context.Context, doc *domain.Document, version string) {
	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()

	if len(listeners) == 0 {
		return
	}
	view := doc.Resolve(s.author)
	for _, l := range listeners {
		l.DocumentSaved(ctx, view, version)
	}
}
