package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
)

// DefaultCacheTTL bounds how long a cached document survives without a write.
const DefaultCacheTTL = 10 * time.Minute

// Store is the shared cache layer. It holds a copy of the resolved document
// for fast cold starts, fans out invalidations between instances and keeps
// the session revocation list. None of it is authoritative.
type Store struct {
	client     *redis.Client
	instanceID string
	cacheTTL   time.Duration
	logger     logger.Logger
}

// NewStore creates a Redis store. instanceID tags published invalidations so
// an instance can ignore its own.
func NewStore(client *redis.Client, instanceID string, cacheTTL time.Duration, log logger.Logger) *Store {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Store{
		client:     client,
		instanceID: instanceID,
		cacheTTL:   cacheTTL,
		logger:     log,
	}
}

// InstanceID identifies this process on the invalidation channel.
func (s *Store) InstanceID() string {
	return s.instanceID
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// DocumentSaved drops the cached copy and tells other instances to reload.
// Failures are logged only: the write already succeeded.
func (s *Store) DocumentSaved(ctx context.Context, _ *domain.Document, version string) {
	if err := s.InvalidateDocument(ctx, version); err != nil {
		s.logger.Warn("failed to invalidate shared cache",
			logger.String("version", version),
			logger.Error(err))
	}
}
