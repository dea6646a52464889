package natsadapter

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
)

// Subscriber implements ports.EventSubscriber.
type Subscriber struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber on an existing connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// SubscribeInvalidations delivers peer invalidation events to handler until
// ctx is cancelled or Close is called.
func (s *Subscriber) SubscribeInvalidations(ctx context.Context, handler func(ctx context.Context, event *domain.InvalidationEvent) error) error {
	log := logging.FromContext(ctx)
	sub, err := s.conn.Subscribe(SubjectInvalidate, func(msg *nats.Msg) {
		event, err := DecodeInvalidation(msg.Data)
		if err != nil {
			log.Warn("dropping malformed invalidation event", "error", err)
			return
		}
		if err := handler(ctx, event); err != nil {
			log.Error("invalidation handler failed", "event_id", event.ID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectInvalidate, err)
	}
	s.subs = append(s.subs, sub)

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

// Close unsubscribes all subscriptions. The connection is left open.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil
}
