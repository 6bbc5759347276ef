// Package sms is the boundary with the SMS gateway. Inbound messages arrive
// on a webhook, are routed by keyword to a registered handler, and the
// handler's single reply is delivered back through a Sender.
package sms

import "context"

// Inbound is one message delivered by the gateway.
type Inbound struct {
	// MessageID is the gateway's delivery ID, used to drop duplicate
	// deliveries. May be empty for gateways without one.
	MessageID string
	// Connection identifies the sender, typically a phone number.
	Connection string
	// Text is the raw message body.
	Text string
}

// Sender delivers a reply to a connection.
type Sender interface {
	Send(ctx context.Context, connection, text string) error
}

// Handler processes one routed command and returns exactly one reply.
// Text passed to Handle has the prefix and keyword already stripped.
type Handler interface {
	Keyword() string
	Help() string
	Handle(ctx context.Context, msg Inbound) string
}
