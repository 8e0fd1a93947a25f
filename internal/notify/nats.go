package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	appcfg "github.com/mskaar/nbpress/internal/config"
)

// NATSNotifier publishes build events to a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewNATSNotifier connects to NATS using the notify configuration.
func NewNATSNotifier(cfg appcfg.NotifyConfig) (*NATSNotifier, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("notification is disabled")
	}
	conn, err := nats.Connect(cfg.URL, nats.Name("nbpress"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS notifier connected", "url", cfg.URL, "subject", cfg.Subject)
	return &NATSNotifier{conn: conn, subject: cfg.Subject}, nil
}

// BuildFinished publishes the event as JSON.
func (n *NATSNotifier) BuildFinished(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal build event: %w", err)
	}
	if err := n.conn.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("publish build event: %w", err)
	}
	// Flush within the caller's deadline so the event is not lost on exit.
	if deadline, ok := ctx.Deadline(); ok {
		return n.conn.FlushTimeout(time.Until(deadline))
	}
	return n.conn.Flush()
}

// Close drains the connection.
func (n *NATSNotifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
