package usecase

import (
	"context"

	"passport/internal/domain/entity"
	"passport/internal/domain/session"

	"github.com/google/uuid"
)

// AssignRolesToUserInput carries the role ids that should become the user's
// exact role set.
type AssignRolesToUserInput struct {
	AccountID uuid.UUID   `json:"userId" validate:"required"`
	RoleIDs   []uuid.UUID `json:"roleIds"`
}

// AccountWithRoles pairs an account with its current role memberships.
type AccountWithRoles struct {
	Account *entity.Account
	Roles   []*entity.Role
}

// UserUsecase defines the interface for account administration operations.
// All operations require the Admin tier unless noted otherwise.
type UserUsecase interface {
	// ListUsers retrieves all accounts with their roles.
	ListUsers(ctx context.Context, principal *session.Principal) ([]*AccountWithRoles, error)

	// GetUser retrieves a single account with its roles. The caller must be
	// the account owner or hold the Admin tier.
	GetUser(ctx context.Context, principal *session.Principal, accountID uuid.UUID) (*AccountWithRoles, error)

	// DeleteUser removes an account and its role memberships.
	DeleteUser(ctx context.Context, principal *session.Principal, accountID uuid.UUID) error

	// AssignRolesToUser reconciles the user's role memberships to exactly the
	// resolved role set. Requires the SuperAdmin tier. Fails when none of the
	// given role ids resolve.
	AssignRolesToUser(ctx context.Context, principal *session.Principal, input AssignRolesToUserInput) error
}
