// Package natsadapter carries location events over NATS.
package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/meteomcp/internal/core/domain"
)

// Publisher implements ports.EventPublisher. Resolutions go to a JetStream
// stream so late consumers can replay them; invalidations are core NATS
// fan-out.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      StreamGeoEvents,
		Subjects:  []string{ResolvedWildcard},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishResolved(ctx context.Context, event *domain.ResolvedEvent) error {
	data, err := EncodeResolved(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ResolvedSubject(event.Key), data, nats.Context(ctx), nats.MsgId(event.ID))
	return err
}

func (p *Publisher) PublishInvalidation(ctx context.Context, event *domain.InvalidationEvent) error {
	data, err := EncodeInvalidation(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectInvalidate, data)
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("meteomcp"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
