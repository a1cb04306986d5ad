// Package mail sends transactional email. Production traffic goes through
// Postmark; development falls back to a sender that only logs.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
)

var (
	// ErrInvalidMessage is returned when a message is missing a recipient,
	// subject or body.
	ErrInvalidMessage = errors.New("invalid mail message")

	// ErrSendFailed wraps provider-side delivery failures.
	ErrSendFailed = errors.New("failed to send email")
)

// Message is one outbound transactional email.
type Message struct {
	To       string
	Subject  string
	BodyHTML string
	Tag      string
}

// Validate checks the message has everything a provider needs.
func (m Message) Validate() error {
	if m.To == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("%w: recipient %q is not a valid address", ErrInvalidMessage, m.To)
	}
	if m.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if m.BodyHTML == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	return nil
}

// Sender delivers messages to their recipient.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
