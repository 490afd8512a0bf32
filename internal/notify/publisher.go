// Package notify publishes build reports to NATS.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
	"git.home.luguber.info/inful/glaze/internal/logfields"
	"git.home.luguber.info/inful/glaze/internal/retry"
)

const connectTimeout = 5 * time.Second

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// Publisher sends JSON messages on a single subject.
type Publisher struct {
	conn    conn
	subject string
	policy  retry.Policy
}

// Connect dials the NATS server at url. Failed publishes are retried
// according to policy; the zero Policy publishes once.
func Connect(url, subject string, policy retry.Policy) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("glaze"),
		nats.Timeout(connectTimeout),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNotify, "connect to NATS").
			WithContext(logfields.KeyURL, url).Build()
	}
	slog.Info("Connected to NATS", logfields.URL(url), logfields.Subject(subject))
	return &Publisher{conn: nc, subject: subject, policy: policy}, nil
}

// Publish marshals v as JSON and publishes it, waiting for the server to
// acknowledge the flush or ctx to end.
func (p *Publisher) Publish(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "marshal notification").Build()
	}
	attempt := 0
	err = p.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			slog.Warn("Retrying notification", logfields.Subject(p.subject), slog.Int("attempt", attempt))
		}
		return p.send(ctx, data)
	})
	if err != nil {
		return err
	}
	slog.Debug("Published notification", logfields.Subject(p.subject))
	return nil
}

func (p *Publisher) send(ctx context.Context, data []byte) error {
	if err := p.conn.Publish(p.subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "publish notification").
			WithContext(logfields.KeySubject, p.subject).Build()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "flush notification").
			WithContext(logfields.KeySubject, p.subject).Build()
	}
	return nil
}

// Subject returns the subject messages are published on.
func (p *Publisher) Subject() string { return p.subject }

// Close drops the connection.
func (p *Publisher) Close() {
	p.conn.Close()
}
