package ingest

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/pkg/natsutil"
)

// NATSNotifier publishes card events. The message id pairs the card id with
// its content hash so a JetStream stream drops re-announcements of the same
// content.
type NATSNotifier struct {
	nc      *nats.Conn
	subject string
}

// NewNATSNotifier creates a notifier; an empty subject uses DefaultSubject.
func NewNATSNotifier(nc *nats.Conn, subject string) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSNotifier{nc: nc, subject: subject}
}

// MsgID is the de-duplication id for a card event.
func MsgID(ev domain.CardEvent) string {
	return ev.ID + ":" + ev.ContentHash
}

func (n *NATSNotifier) Notify(ctx context.Context, ev domain.CardEvent) error {
	return natsutil.Publish(ctx, n.nc, n.subject, MsgID(ev), ev)
}
