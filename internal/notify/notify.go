// Package notify announces completed build cycles to interested listeners.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "sitebuilder.cycles"

// Cycle is the payload published after each build cycle.
type Cycle struct {
	ID              string    `json:"id"`
	Trigger         string    `json:"trigger"`
	Force           bool      `json:"force"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Scanned         int       `json:"scanned"`
	Selected        int       `json:"selected"`
	Succeeded       int       `json:"succeeded"`
	Failed          int       `json:"failed"`
	ManifestWritten bool      `json:"manifest_written"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	Processed       []string  `json:"processed,omitempty"`
}

// Publisher sends cycle notifications.
type Publisher interface {
	PublishCycle(ctx context.Context, c Cycle) error
}

// Noop discards notifications.
type Noop struct{}

func (Noop) PublishCycle(context.Context, Cycle) error { return nil }

// msgPublisher is the subset of *nats.Conn the publisher uses.
type msgPublisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// NATSPublisher publishes cycles as JSON on a NATS subject.
type NATSPublisher struct {
	conn    msgPublisher
	close   func()
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects to url. An empty subject uses DefaultSubject.
func NewNATSPublisher(url, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("sitebuilder"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p := newNATSPublisher(conn, subject, logger)
	p.close = conn.Close
	p.logger.Info("NATS publisher initialized", slog.String("url", url), slog.String("subject", p.subject))
	return p, nil
}

func newNATSPublisher(conn msgPublisher, subject string, logger *slog.Logger) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: conn, close: func() {}, subject: subject, logger: logger}
}

// PublishCycle marshals c and waits for the server to acknowledge the flush,
// bounded by ctx and a five second ceiling.
func (p *NATSPublisher) PublishCycle(ctx context.Context, c Cycle) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal cycle: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish cycle: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush cycle: %w", err)
	}

	p.logger.Debug("Published cycle notification", logfields.CycleID(c.ID), slog.String("subject", p.subject))
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	p.close()
	return nil
}
