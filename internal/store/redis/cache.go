package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
)

// CachedDocument is the payload stored under KeyCachedDocument.
type CachedDocument struct {
	Version  string           `json:"version"`
	CachedAt time.Time        `json:"cachedAt"`
	Document *domain.Document `json:"document"`
}

// CacheDocument stores the resolved document with the store revision it was
// built from.
func (s *Store) CacheDocument(ctx context.Context, doc *domain.Document, version string) error {
	data, err := json.Marshal(CachedDocument{
		Version:  version,
		CachedAt: time.Now().UTC(),
		Document: doc,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := s.client.Set(ctx, DocumentKey(), data, s.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache document: %w", err)
	}
	return nil
}

// GetCachedDocument returns the cached document, or nil on a cache miss.
func (s *Store) GetCachedDocument(ctx context.Context) (*CachedDocument, error) {
	data, err := s.client.Get(ctx, DocumentKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached document: %w", err)
	}

	var cached CachedDocument
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached document: %w", err)
	}
	if cached.Document == nil {
		return nil, nil
	}
	cached.Document.Normalize()
	return &cached, nil
}

// InvalidateDocument deletes the cached document and publishes an
// invalidation carrying the new version.
func (s *Store) InvalidateDocument(ctx context.Context, version string) error {
	msg, err := json.Marshal(Invalidation{Instance: s.instanceID, Version: version})
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, DocumentKey())
	pipe.Publish(ctx, ChannelInvalidate, msg)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate document: %w", err)
	}
	return nil
}
