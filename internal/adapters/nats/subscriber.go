package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/ports"
)

// maxRedeliveries bounds how often a failing cache eviction is retried.
const maxRedeliveries = 3

// Subscriber consumes directory events from JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber opens its own connection; the stream is created by the publisher.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := connect(url)
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeClinicPublished uses an ephemeral consumer per instance, so every
// API replica evicts its own view of the directory.
func (s *Subscriber) SubscribeClinicPublished(ctx context.Context, handler ports.ClinicEventHandler) error {
	sub, err := s.js.Subscribe(subjectPrefix+">", func(msg *nats.Msg) {
		clinic, err := decodeClinicEvent(msg.Subject, msg.Data)
		if err != nil {
			slog.Warn("dropping directory event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, clinic); err != nil {
			slog.Warn("directory event handler failed", "clinic_id", clinic.ID, "error", err)
			_ = msg.NakWithDelay(time.Second)
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(maxRedeliveries),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", DirectoryStream, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// decodeClinicEvent parses a published clinic. Payloads without an ID take
// it from the subject token.
func decodeClinicEvent(subject string, data []byte) (*domain.Clinic, error) {
	var clinic domain.Clinic
	if err := json.Unmarshal(data, &clinic); err != nil {
		return nil, fmt.Errorf("decode clinic event: %w", err)
	}
	if clinic.ID == "" {
		clinic.ID = strings.TrimPrefix(subject, subjectPrefix)
	}
	if clinic.ID == "" || clinic.ID == subject {
		return nil, fmt.Errorf("clinic event on %q has no clinic id", subject)
	}
	return &clinic, nil
}

// Close unsubscribes and drains the connection.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
