package mq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/librarium/apiserver/types"
)

// Message is a payload as carried by a broker.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a raw message. A returned error nacks it for redelivery.
type Handler func(ctx context.Context, msg Message) error

// Backend is implemented by each broker client.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// LoanEventHandler processes one decoded loan event. A returned error nacks
// the underlying message.
type LoanEventHandler func(ctx context.Context, event types.LoanEvent) error

// MQ carries loan events over a backend on a single channel.
type MQ struct {
	backend Backend
	channel string
}

func New(backend Backend, channel string) *MQ {
	return &MQ{backend: backend, channel: channel}
}

// Channel is the queue or topic loan events travel on.
func (m *MQ) Channel() string {
	return m.channel
}

// PublishLoanEvent encodes the event and sends it on the loan channel.
func (m *MQ) PublishLoanEvent(ctx context.Context, event types.LoanEvent) error {
	data, attrs, err := encodeLoanEvent(event)
	if err != nil {
		return err
	}
	if _, err := m.backend.Publish(ctx, m.channel, data, attrs); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// SubscribeLoanEvents blocks, passing each loan event to handler until ctx
// ends. Messages that do not decode are logged and acknowledged, otherwise
// they would redeliver forever.
func (m *MQ) SubscribeLoanEvents(ctx context.Context, handler LoanEventHandler) error {
	return m.backend.Subscribe(ctx, m.channel, func(ctx context.Context, msg Message) error {
		event, err := DecodeLoanEvent(msg)
		if err != nil {
			slog.WarnContext(ctx, "skipping undecodable loan event", "channel", m.channel, "message_id", msg.ID, "error", err)
			return nil
		}
		return handler(ctx, event)
	})
}

func (m *MQ) Close() error {
	return m.backend.Close()
}
