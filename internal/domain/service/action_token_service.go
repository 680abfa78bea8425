package service

import "passport/internal/domain/entity"

// ActionTokenPurpose scopes a single-use token to the account action it
// authorizes. Tokens generated for one purpose never verify for another.
type ActionTokenPurpose string

const (
	// PurposeEmailConfirmation authorizes flipping the email-confirmed flag.
	PurposeEmailConfirmation ActionTokenPurpose = "email-confirmation"
	// PurposePasswordReset authorizes replacing the password hash.
	PurposePasswordReset ActionTokenPurpose = "password-reset"
)

// ActionTokenService is the single-use token capability for email
// confirmation and password reset. Tokens are bound to the account state the
// action mutates, so performing the action invalidates outstanding tokens.
type ActionTokenService interface {
	// Generate mints a raw token for the purpose against the account's
	// current state. The wire encoding is the caller's concern.
	Generate(purpose ActionTokenPurpose, account *entity.Account) (string, error)

	// Verify checks a raw token against the account's current state.
	// Failures surface as ErrInvalidToken.
	Verify(purpose ActionTokenPurpose, account *entity.Account, token string) error
}
