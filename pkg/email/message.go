package email

import "context"

// Message is a rendered notification ready to hand to a provider.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers a single message. Implementations must honour ctx
// cancellation so callers can bound each send.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	IsConfigured() bool
	Close() error
}
