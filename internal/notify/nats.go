package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn used for publishing.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes events as JSON on "<prefix>.<kind>".
type NATSNotifier struct {
	pub    Publisher
	prefix string
	conn   *nats.Conn
}

// NewNATSNotifier publishes through an existing publisher.
func NewNATSNotifier(pub Publisher, prefix string) *NATSNotifier {
	return &NATSNotifier{pub: pub, prefix: prefix}
}

// DialNATS connects to url and returns a notifier owning the connection.
func DialNATS(url, prefix string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("focusflow"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSNotifier{pub: conn, prefix: prefix, conn: conn}, nil
}

// Subject returns the subject an event kind is published on.
func (n *NATSNotifier) Subject(kind Kind) string {
	if n.prefix == "" {
		return string(kind)
	}
	return n.prefix + "." + string(kind)
}

func (n *NATSNotifier) Notify(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", ev.Kind, err)
	}
	subject := n.Subject(ev.Kind)
	if err := n.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection when the notifier owns one.
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
