package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/readmehub/internal/index"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
)

// CacheWarmer seeds the index from the shared cache on startup, so a new
// instance can serve reads before its first trip to the store.
type CacheWarmer struct {
	cache  DocumentCache
	index  *index.DocumentIndex
	logger logger.Logger
}

// NewCacheWarmer creates a cache warmer.
func NewCacheWarmer(cache DocumentCache, idx *index.DocumentIndex, log logger.Logger) *CacheWarmer {
	return &CacheWarmer{
		cache:  cache,
		index:  idx,
		logger: log,
	}
}

// Warm copies the cached document into the index if there is one.
func (cw *CacheWarmer) Warm(ctx context.Context) error {
	cw.logger.Info("warming index from redis")

	cached, err := cw.cache.GetCachedDocument(ctx)
	if err != nil {
		return err
	}
	if cached == nil {
		cw.logger.Info("no cached document in redis")
		return nil
	}

	cw.index.Replace(cached.Document, cached.Version, false)

	cw.logger.Info("index warmed from redis",
		logger.String("version", cached.Version),
		logger.Int("articles", len(cached.Document.Articles)),
		logger.Time("cached_at", cached.CachedAt))

	return nil
}
