// Package natsadapter carries clinic directory events over NATS JetStream.
package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/clinicmap/internal/core/domain"
)

const (
	// DirectoryStream retains clinic publication events for a day.
	DirectoryStream = "CLINIC_DIRECTORY"
	subjectPrefix   = "clinics.published."
	streamMaxAge    = 24 * time.Hour
	// Republishing the same clinic version inside this window is dropped.
	dedupWindow = 2 * time.Minute
)

// Token separators and wildcards cannot appear inside a subject token.
var subjectEscaper = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")

// ClinicSubject is the subject a clinic's publication is sent on.
func ClinicSubject(clinicID string) string {
	return subjectPrefix + subjectEscaper.Replace(clinicID)
}

// eventID identifies one version of a clinic for JetStream deduplication.
func eventID(c *domain.Clinic) string {
	if c.UpdatedAt.IsZero() {
		return c.ID
	}
	return c.ID + "@" + strconv.FormatInt(c.UpdatedAt.UnixNano(), 10)
}

// Publisher sends directory events and owns the stream definition.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := connect(url)
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:       DirectoryStream,
		Subjects:   []string{subjectPrefix + ">"},
		Retention:  nats.LimitsPolicy,
		MaxAge:     streamMaxAge,
		Storage:    nats.FileStorage,
		Duplicates: dedupWindow,
	}
	_, err := js.StreamInfo(DirectoryStream)
	switch {
	case errors.Is(err, nats.ErrStreamNotFound):
		_, err = js.AddStream(cfg)
	case err == nil:
		_, err = js.UpdateStream(cfg)
	}
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", DirectoryStream, err)
	}
	return nil
}

// PublishClinicPublished sends the published clinic on its subject.
func (p *Publisher) PublishClinicPublished(ctx context.Context, clinic *domain.Clinic) error {
	data, err := json.Marshal(clinic)
	if err != nil {
		return fmt.Errorf("encode clinic %s: %w", clinic.ID, err)
	}
	if _, err := p.js.Publish(ClinicSubject(clinic.ID), data, nats.Context(ctx), nats.MsgId(eventID(clinic))); err != nil {
		return fmt.Errorf("publish clinic %s: %w", clinic.ID, err)
	}
	return nil
}

// Conn is shared with the WebSocket handler and the readiness probe.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

func connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("clinicmap"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return conn, nil
}
