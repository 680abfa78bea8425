package service

import (
	"context"

	"passport/internal/domain/entity"
)

// Mailer delivers a single message to a recipient. Implementations are
// fire-and-forget collaborators: the lifecycle core never fails an operation
// because delivery failed.
type Mailer interface {
	// Send delivers an HTML body to the recipient address.
	Send(ctx context.Context, recipientName, recipientEmail, subject, body string) error
}

// AccountMailer composes and dispatches the account lifecycle emails.
type AccountMailer interface {
	// SendConfirmationEmail sends the account confirmation link embedding
	// the encoded token.
	SendConfirmationEmail(ctx context.Context, account *entity.Account, encodedToken string) error

	// SendWelcomeEmail greets an account after successful confirmation.
	SendWelcomeEmail(ctx context.Context, account *entity.Account) error

	// SendPasswordResetEmail sends the reset link embedding the encoded token.
	SendPasswordResetEmail(ctx context.Context, account *entity.Account, encodedToken string) error
}
