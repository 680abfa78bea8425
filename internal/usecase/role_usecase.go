package usecase

import (
	"context"

	"passport/internal/domain/entity"
	"passport/internal/domain/session"

	"github.com/google/uuid"
)

// CreateRoleInput defines the data required to create a role.
type CreateRoleInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

// RenameRoleInput defines the data required to rename a role.
type RenameRoleInput struct {
	RoleID uuid.UUID `json:"roleId" validate:"required"`
	Name   string    `json:"name" validate:"required,max=100"`
}

// AssignUsersToRoleInput carries the usernames that should become the role's
// exact member set. Unknown usernames are silently skipped.
type AssignUsersToRoleInput struct {
	RoleID    uuid.UUID `json:"roleId" validate:"required"`
	Usernames []string  `json:"usernames"`
}

// RoleWithMembers pairs a role with the accounts holding it.
type RoleWithMembers struct {
	Role    *entity.Role
	Members []*entity.Account
}

// RoleUsecase defines the interface for role administration operations.
// All operations require the SuperAdmin tier.
type RoleUsecase interface {
	// ListRoles retrieves all roles.
	ListRoles(ctx context.Context, principal *session.Principal) ([]*entity.Role, error)

	// GetRole retrieves a single role with its members.
	GetRole(ctx context.Context, principal *session.Principal, roleID uuid.UUID) (*RoleWithMembers, error)

	// CreateRole creates a new role; duplicate names surface as a conflict.
	CreateRole(ctx context.Context, principal *session.Principal, input CreateRoleInput) (*entity.Role, error)

	// RenameRole renames an existing role.
	RenameRole(ctx context.Context, principal *session.Principal, input RenameRoleInput) (*entity.Role, error)

	// DeleteRole removes a role and its memberships.
	DeleteRole(ctx context.Context, principal *session.Principal, roleID uuid.UUID) error

	// AssignUsersToRole reconciles the role's member set to exactly the
	// accounts resolved from the given usernames.
	AssignUsersToRole(ctx context.Context, principal *session.Principal, input AssignUsersToRoleInput) error
}
