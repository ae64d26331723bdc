package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/readmehub/internal/index"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
	redisstore "github.com/MrSnakeDoc/readmehub/internal/store/redis"
)

// Subscriber delivers invalidations published by other instances.
type Subscriber interface {
	SubscribeInvalidations(ctx context.Context, handle func(redisstore.Invalidation)) error
}

// Trigger requests an asynchronous reload.
type Trigger interface {
	Trigger()
}

// InvalidationListener marks the index stale and asks for a reload whenever
// another instance writes the document.
type InvalidationListener struct {
	sub        Subscriber
	index      *index.DocumentIndex
	reloader   Trigger
	logger     logger.Logger
	retryDelay time.Duration
	stopCh     chan struct{}
}

// NewInvalidationListener creates a listener. retryDelay is how long to wait
// before resubscribing after the connection drops.
func NewInvalidationListener(
	sub Subscriber,
	idx *index.DocumentIndex,
	reloader Trigger,
	log logger.Logger,
	retryDelay time.Duration,
) *InvalidationListener {
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	return &InvalidationListener{
		sub:        sub,
		index:      idx,
		reloader:   reloader,
		logger:     log,
		retryDelay: retryDelay,
		stopCh:     make(chan struct{}),
	}
}

// Start subscribes in the background and keeps resubscribing until Stop or
// ctx cancellation.
func (il *InvalidationListener) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-il.stopCh
		cancel()
	}()

	go func() {
		for {
			err := il.sub.SubscribeInvalidations(ctx, il.Handle)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				il.logger.Warn("invalidation subscription lost, retrying",
					logger.Duration("retry_in", il.retryDelay),
					logger.Error(err))
			}

			timer := time.NewTimer(il.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// Stop ends the subscription.
func (il *InvalidationListener) Stop() {
	close(il.stopCh)
}

// Handle reacts to one invalidation.
func (il *InvalidationListener) Handle(inv redisstore.Invalidation) {
	if inv.Version != "" && inv.Version == il.index.Version() {
		return
	}
	il.logger.Info("document changed on another instance",
		logger.String("instance", inv.Instance),
		logger.String("version", inv.Version))
	il.index.Invalidate()
	il.reloader.Trigger()
}
