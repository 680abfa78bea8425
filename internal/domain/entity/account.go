// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is the core entity of the system, representing a single principal
// that can authenticate and hold role memberships.
type Account struct {
	ID                    uuid.UUID  // The unique identifier for the account.
	FirstName             string     // The account holder's given name.
	LastName              string     // The account holder's family name.
	Username              string     // Unique login/display name; uniqueness is case-insensitive.
	Email                 string     // Unique, normalized contact address used as the login identifier.
	EmailConfirmed        bool       // One-way flag flipped by email confirmation.
	PasswordHash          string     // Hash of the account password; never the plaintext.
	FailedAccessCount     int        // Consecutive failed login attempts since the last success.
	LockoutUntil          *time.Time // When set and in the future, logins are rejected until this instant.
	RefreshToken          string     // Current opaque refresh token; empty until first login.
	RefreshTokenExpiresAt *time.Time // Expiry of the refresh token; always set together with it.
	Version               int64      // Optimistic concurrency stamp bumped on every update.
	CreatedAt             time.Time  // Timestamp of account creation.
	UpdatedAt             *time.Time // Nil until the first mutation after creation.
}

// NormalizeUsername maps a username to its canonical uniqueness key.
func NormalizeUsername(username string) string {
	return strings.ToUpper(strings.TrimSpace(username))
}

// NormalizeEmail maps an email address to its canonical uniqueness key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsLockedOut reports whether the account is inside an active lockout window.
func (a *Account) IsLockedOut(now time.Time) bool {
	return a.LockoutUntil != nil && a.LockoutUntil.After(now)
}

// RotateRefreshToken installs a new refresh token with its expiry.
// The invariant that token and expiry are set together lives here.
func (a *Account) RotateRefreshToken(token string, expiresAt time.Time) {
	a.RefreshToken = token
	a.RefreshTokenExpiresAt = &expiresAt
}

// RegisterFailedAccess records a failed login attempt and starts a lockout
// window once the threshold is reached. It returns true when the account
// became locked out by this attempt.
func (a *Account) RegisterFailedAccess(now time.Time, maxAttempts int, window time.Duration) bool {
	a.FailedAccessCount++
	if a.FailedAccessCount >= maxAttempts {
		until := now.Add(window)
		a.LockoutUntil = &until
		a.FailedAccessCount = 0

		return true
	}

	return false
}

// ResetFailedAccess clears the failure counter and any expired lockout window
// after a successful login.
func (a *Account) ResetFailedAccess() {
	a.FailedAccessCount = 0
	a.LockoutUntil = nil
}

// DisplayName is the human-readable name used in outbound email.
func (a *Account) DisplayName() string {
	return a.Username
}
