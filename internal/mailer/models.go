package mailer

import "context"

// Email is a rendered HTML document plus its envelope. Instances are built by
// the renderer from sanitized fields only and handed to a Mailer; nothing is
// persisted.
type Email struct {
	From    string `json:"from"`
	To      string `json:"to"`
	ReplyTo string `json:"reply_to,omitempty"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Mailer delivers a single email through a transactional provider. Errors are
// StandardErrors whose Retryable flag drives the dispatcher's retry policy.
type Mailer interface {
	Send(ctx context.Context, email *Email) error
}
