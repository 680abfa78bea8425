// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"passport/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for account persistence.
var (
	// ErrAccountNotFound is returned when an account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrStaleAccount is returned when an update loses an optimistic
	// concurrency race; the caller saw a version that is no longer current.
	ErrStaleAccount = errors.New("account was modified concurrently")
)

// AccountRepository defines the standard operations for account persistence.
// Find operations honor context cancellation; Create/Update/Delete run to
// completion once issued.
type AccountRepository interface {
	// FindByID retrieves a single account by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)

	// FindByEmail retrieves a single account by its normalized email address.
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)

	// FindByUsername retrieves a single account by its normalized username.
	FindByUsername(ctx context.Context, username string) (*entity.Account, error)

	// FindByUsernames retrieves the accounts whose normalized usernames are
	// in the given set. Unknown names are silently absent from the result.
	FindByUsernames(ctx context.Context, usernames []string) ([]*entity.Account, error)

	// List retrieves all accounts.
	List(ctx context.Context) ([]*entity.Account, error)

	// Create persists a new account.
	Create(ctx context.Context, account *entity.Account) error

	// Update modifies an existing account, guarded by its version stamp.
	// A lost optimistic-concurrency race returns ErrStaleAccount.
	Update(ctx context.Context, account *entity.Account) error

	// Delete removes an account and its role memberships.
	Delete(ctx context.Context, id uuid.UUID) error
}
