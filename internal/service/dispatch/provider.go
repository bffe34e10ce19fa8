package dispatch

import (
	"context"
)

// Message is a rendered notification ready for one channel attempt.
type Message struct {
	Subject string // email only
	Body    string
}

// Sender delivers a message over a single channel. Implementations wrap one
// provider call and classify its failures as transient or permanent; they
// do not retry, record receipts, or fall back — the Dispatcher owns that.
type Sender interface {
	// Send returns the provider message id on success.
	Send(ctx context.Context, recipient string, msg Message) (string, error)

	// Name identifies the provider in logs and receipts.
	Name() string
}
