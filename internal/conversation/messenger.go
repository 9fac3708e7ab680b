// Package conversation runs one inbound WhatsApp message to completion:
// greeting, intent routing, the handler for that intent and reply delivery.
package conversation

import (
	"context"
	"time"
)

// InboundMessage is a customer message received on the webhook.
type InboundMessage struct {
	From       string
	Body       string
	ReceivedAt time.Time
}

// OutboundMessage is a reply to deliver. MediaURL is optional.
type OutboundMessage struct {
	To       string
	Body     string
	MediaURL string
}

// Messenger delivers outbound messages. Implementations make a single
// attempt and report failure.
type Messenger interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// MessengerFunc adapts a function to Messenger.
type MessengerFunc func(ctx context.Context, msg OutboundMessage) error

func (f MessengerFunc) Send(ctx context.Context, msg OutboundMessage) error {
	return f(ctx, msg)
}
