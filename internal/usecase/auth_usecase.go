// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"passport/internal/domain/entity"
	"passport/internal/domain/session"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	FirstName       string `json:"firstName" validate:"required,max=100"`
	LastName        string `json:"lastName" validate:"required,max=100"`
	Username        string `json:"username" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// LoginInput defines the data required for an account to log in.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshLoginInput carries the token pair to be rotated.
type RefreshLoginInput struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ConfirmEmailInput carries the confirmation link parameters. Token is the
// base64url-encoded form from the emailed link.
type ConfirmEmailInput struct {
	AccountID uuid.UUID `json:"userId" validate:"required"`
	Token     string    `json:"token" validate:"required"`
}

// RequestPasswordResetInput identifies whose reset email to send.
type RequestPasswordResetInput struct {
	AccountID uuid.UUID `json:"userId" validate:"required"`
}

// ResetPasswordInput carries the emailed token and the replacement password.
type ResetPasswordInput struct {
	AccountID   uuid.UUID `json:"userId" validate:"required"`
	Token       string    `json:"token" validate:"required"`
	NewPassword string    `json:"newPassword" validate:"required,min=8"`
}

// --- Output DTOs ---

// RegisterOutput returns the newly created account's basic information.
type RegisterOutput struct {
	Account *entity.Account
}

// TokenOutput returns the issued token pair.
type TokenOutput struct {
	AccessToken        string
	AccessTokenEndDate time.Time
	RefreshToken       string
}

// AuthUsecase defines the interface for authentication business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	// Register creates an unconfirmed account with the default role and
	// dispatches a confirmation email.
	Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error)

	// Login authenticates by email and password and issues a token pair.
	Login(ctx context.Context, input LoginInput) (*TokenOutput, error)

	// RefreshLogin rotates a token pair using a possibly expired access token
	// and its matching refresh token.
	RefreshLogin(ctx context.Context, input RefreshLoginInput) (*TokenOutput, error)

	// ConfirmEmail flips the email-confirmed flag using an emailed token.
	// Confirming an already confirmed account succeeds without change.
	ConfirmEmail(ctx context.Context, input ConfirmEmailInput) error

	// RequestPasswordReset emails a reset link to the account. The caller must
	// be the account owner or hold the Admin tier.
	RequestPasswordReset(ctx context.Context, principal *session.Principal, input RequestPasswordResetInput) error

	// ResetPassword replaces the password using an emailed token. The caller
	// must be the account owner or hold the Admin tier.
	ResetPassword(ctx context.Context, principal *session.Principal, input ResetPasswordInput) error
}
