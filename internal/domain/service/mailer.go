package service

import "context"

// Mailer is the outbound notification collaborator. The core never builds
// SMTP connections itself; it only hands the reset link to this port.
type Mailer interface {
	// SendPasswordReset delivers the reset link to the recipient.
	SendPasswordReset(ctx context.Context, recipient, resetURL string) error
}
