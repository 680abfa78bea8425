// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"passport/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrRoleNotFound is returned when a role is not found.
var ErrRoleNotFound = errors.New("role not found")

// RoleRepository defines the operations for role persistence and the
// account-role membership association.
type RoleRepository interface {
	// FindByID retrieves a single role by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Role, error)

	// FindByName retrieves a single role by its unique name.
	FindByName(ctx context.Context, name string) (*entity.Role, error)

	// FindByIDs retrieves the roles whose ids are in the given set. Unknown
	// ids are silently absent from the result.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Role, error)

	// List retrieves all roles.
	List(ctx context.Context) ([]*entity.Role, error)

	// Create persists a new role; duplicate names surface as a conflict.
	Create(ctx context.Context, role *entity.Role) error

	// Update renames an existing role; duplicate names surface as a conflict.
	Update(ctx context.Context, role *entity.Role) error

	// Delete removes a role and its memberships.
	Delete(ctx context.Context, id uuid.UUID) error

	// RolesOfAccount retrieves all roles an account is a member of.
	RolesOfAccount(ctx context.Context, accountID uuid.UUID) ([]*entity.Role, error)

	// MembersOfRole retrieves all accounts holding the role.
	MembersOfRole(ctx context.Context, roleID uuid.UUID) ([]*entity.Account, error)

	// AddMember adds an account to a role. Adding an existing member is a
	// no-op.
	AddMember(ctx context.Context, roleID, accountID uuid.UUID) error

	// RemoveMember removes an account from a role. Removing a non-member is
	// a no-op.
	RemoveMember(ctx context.Context, roleID, accountID uuid.UUID) error
}
