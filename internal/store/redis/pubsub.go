package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/readmehub/internal/logger"
)

// Invalidation announces that the document was rewritten.
type Invalidation struct {
	Instance string `json:"instance"`
	Version  string `json:"version"`
}

// ParseInvalidation decodes a message from ChannelInvalidate.
func ParseInvalidation(payload string) (Invalidation, error) {
	var inv Invalidation
	if err := json.Unmarshal([]byte(payload), &inv); err != nil {
		return Invalidation{}, fmt.Errorf("invalid invalidation message: %w", err)
	}
	return inv, nil
}

// SubscribeInvalidations calls handle for every invalidation published by
// another instance. It blocks until ctx is done.
func (s *Store) SubscribeInvalidations(ctx context.Context, handle func(Invalidation)) error {
	sub := s.client.Subscribe(ctx, ChannelInvalidate)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", ChannelInvalidate, err)
	}
	s.logger.Info("subscribed to invalidations", logger.String("channel", ChannelInvalidate))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			inv, err := ParseInvalidation(msg.Payload)
			if err != nil {
				s.logger.Warn("dropping malformed invalidation", logger.Error(err))
				continue
			}
			if inv.Instance == s.instanceID {
				continue
			}
			handle(inv)
		}
	}
}
