package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/index"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
	redisstore "github.com/MrSnakeDoc/readmehub/internal/store/redis"
	"github.com/MrSnakeDoc/readmehub/internal/syncer"
)

// ErrStoreUnavailable is returned by Reload when the store could not be read.
var ErrStoreUnavailable = errors.New("document store unavailable")

// Source yields the current resolved document.
type Source interface {
	Read(ctx context.Context) *syncer.View
}

// DocumentCache is the shared cache the reloader feeds.
type DocumentCache interface {
	CacheDocument(ctx context.Context, doc *domain.Document, version string) error
	GetCachedDocument(ctx context.Context) (*redisstore.CachedDocument, error)
}

// DocumentReloader keeps the index in step with the store: once at start,
// then on every tick and on manual triggers.
type DocumentReloader struct {
	source        Source
	cache         DocumentCache
	index         *index.DocumentIndex
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewDocumentReloader creates a reloader. cache may be nil.
func NewDocumentReloader(
	source Source,
	cache DocumentCache,
	idx *index.DocumentIndex,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *DocumentReloader {
	if manualTrigger == nil {
		manualTrigger = make(chan struct{}, 1)
	}
	return &DocumentReloader{
		source:        source,
		cache:         cache,
		index:         idx,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the document and begins periodic refresh. A failed first load
// is logged, not fatal: readers get the degraded view until the store is back.
func (dr *DocumentReloader) Start(ctx context.Context) error {
	if dr.interval <= 0 {
		return fmt.Errorf("reload interval must be > 0, got %v", dr.interval)
	}
	if err := dr.Reload(ctx); err != nil {
		dr.logger.Warn("initial document load failed", logger.Error(err))
	}

	ticker := time.NewTicker(dr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				dr.reloadAndLog(ctx)
			case <-dr.manualTrigger:
				dr.logger.Info("manual reload triggered")
				dr.reloadAndLog(ctx)
			case <-dr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader.
func (dr *DocumentReloader) Stop() {
	close(dr.stopCh)
}

// Trigger asks for a reload without waiting for it. Extra triggers while one
// is pending are dropped.
func (dr *DocumentReloader) Trigger() {
	select {
	case dr.manualTrigger <- struct{}{}:
	default:
	}
}

func (dr *DocumentReloader) reloadAndLog(ctx context.Context) {
	if err := dr.Reload(ctx); err != nil {
		dr.logger.Error("failed to reload document", logger.Error(err))
	}
}

// Reload reads the document and replaces the index. When the store is
// unreachable a previously loaded document is kept; otherwise the index
// falls back to the empty, degraded view.
func (dr *DocumentReloader) Reload(ctx context.Context) error {
	view := dr.source.Read(ctx)

	if view.Degraded {
		if !dr.index.LastReload().IsZero() && !dr.index.Degraded() {
			return fmt.Errorf("%w, keeping version %q", ErrStoreUnavailable, dr.index.Version())
		}
		dr.index.Replace(view.Document, "", true)
		return ErrStoreUnavailable
	}

	dr.index.Replace(view.Document, view.Version, false)
	dr.logger.Info("document reloaded",
		logger.String("version", view.Version),
		logger.Int("articles", len(view.Document.Articles)),
		logger.Int("categories", len(view.Document.Categories)))

	// Best effort: the index is what serves reads.
	if dr.cache != nil {
		if err := dr.cache.CacheDocument(ctx, view.Document, view.Version); err != nil {
			dr.logger.Warn("failed to cache document in redis", logger.Error(err))
		}
	}
	return nil
}
