package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/obsidianstack/alertd/server/internal/alerts"
)

// publisher is the part of *nats.Conn the sink uses.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATS is an alerts.Sink that publishes events to a NATS server.
type NATS struct {
	pub     publisher
	subject string
	drain   func() error
}

// Connect dials url and returns a sink publishing under subject.
func Connect(url, subject string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("alertd"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("publish: nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("publish: nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("publish: connect %s: %w", url, err)
	}
	n := newNATS(nc, subject)
	n.drain = nc.Drain
	return n, nil
}

func newNATS(pub publisher, subject string) *NATS {
	return &NATS{pub: pub, subject: subject}
}

// Subject returns the subject ev is published on.
func (n *NATS) Subject(ev alerts.Event) string {
	return n.subject + "." + string(ev.Kind)
}

// Publish implements alerts.Sink.
func (n *NATS) Publish(ev alerts.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("publish: marshal event", "id", ev.ID, "err", err)
		return
	}
	if err := n.pub.Publish(n.Subject(ev), data); err != nil {
		slog.Warn("publish: nats publish failed", "subject", n.Subject(ev), "err", err)
	}
}

// Close flushes pending messages and closes the connection.
func (n *NATS) Close() error {
	if n.drain == nil {
		return nil
	}
	if err := n.drain(); err != nil {
		return fmt.Errorf("publish: drain: %w", err)
	}
	return nil
}
