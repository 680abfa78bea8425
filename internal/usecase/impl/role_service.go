package impl

import (
	"context"
	"log/slog"

	deliverycontext "passport/internal/delivery/context"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/domain/session"
	"passport/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// roleService implements the RoleUsecase interface.
type roleService struct {
	txManager   repository.TransactionManager
	accountRepo repository.AccountRepository
	roleRepo    repository.RoleRepository
	logger      *slog.Logger
}

// RoleServiceParams holds dependencies for roleService, injected by Fx.
type RoleServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	AccountRepo repository.AccountRepository
	RoleRepo    repository.RoleRepository
	Logger      *slog.Logger
}

// NewRoleService is the constructor for roleService.
func NewRoleService(params RoleServiceParams) usecase.RoleUsecase {
	return &roleService{
		txManager:   params.TxManager,
		accountRepo: params.AccountRepo,
		roleRepo:    params.RoleRepo,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *roleService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListRoles retrieves all roles.
func (srv *roleService) ListRoles(ctx context.Context, principal *session.Principal) ([]*entity.Role, error) {
	if err := principal.RequireSuperAdmin(); err != nil {
		return nil, err
	}

	roles, err := srv.roleRepo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list roles")
	}

	return roles, nil
}

// GetRole retrieves a single role with its members.
func (srv *roleService) GetRole(ctx context.Context, principal *session.Principal, roleID uuid.UUID) (*usecase.RoleWithMembers, error) {
	if err := principal.RequireSuperAdmin(); err != nil {
		return nil, err
	}

	role, err := srv.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return nil, domainerrors.ErrNotFound.WrapMessage("role not found")
		}

		return nil, errors.Wrap(err, "failed to find role")
	}

	members, err := srv.roleRepo.MembersOfRole(ctx, roleID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load role members")
	}

	return &usecase.RoleWithMembers{Role: role, Members: members}, nil
}

// CreateRole creates a new role; duplicate names surface as a conflict.
func (srv *roleService) CreateRole(ctx context.Context, principal *session.Principal, input usecase.CreateRoleInput) (*entity.Role, error) {
	if err := principal.RequireSuperAdmin(); err != nil {
		return nil, err
	}

	role := &entity.Role{Name: input.Name}
	if err := srv.roleRepo.Create(ctx, role); err != nil {
		return nil, errors.Wrap(err, "failed to create role")
	}

	srv.log(ctx).Info("Role created", slog.Any("roleID", role.ID), slog.String("name", role.Name))

	return role, nil
}

// RenameRole renames an existing role.
func (srv *roleService) RenameRole(ctx context.Context, principal *session.Principal, input usecase.RenameRoleInput) (*entity.Role, error) {
	if err := principal.RequireSuperAdmin(); err != nil {
		return nil, err
	}

	role := &entity.Role{ID: input.RoleID, Name: input.Name}
	if err := srv.roleRepo.Update(ctx, role); err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return nil, domainerrors.ErrNotFound.WrapMessage("role not found")
		}

		return nil, errors.Wrap(err, "failed to rename role")
	}

	renamed, err := srv.roleRepo.FindByID(ctx, input.RoleID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload renamed role")
	}

	srv.log(ctx).Info("Role renamed", slog.Any("roleID", renamed.ID), slog.String("name", renamed.Name))

	return renamed, nil
}

// DeleteRole removes a role and its memberships.
func (srv *roleService) DeleteRole(ctx context.Context, principal *session.Principal, roleID uuid.UUID) error {
	if err := principal.RequireSuperAdmin(); err != nil {
		return err
	}

	if err := srv.roleRepo.Delete(ctx, roleID); err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return domainerrors.ErrNotFound.WrapMessage("role not found")
		}

		return errors.Wrap(err, "failed to delete role")
	}

	srv.log(ctx).Info("Role deleted", slog.Any("roleID", roleID))

	return nil
}

// AssignUsersToRole reconciles the role's member set to exactly the accounts
// resolved from the given usernames. Unknown usernames are silently skipped,
// so an entirely unknown list clears the membership.
func (srv *roleService) AssignUsersToRole(ctx context.Context, principal *session.Principal, input usecase.AssignUsersToRoleInput) error {
	if err := principal.RequireSuperAdmin(); err != nil {
		return err
	}

	srv.log(ctx).Info("Assigning users to role", slog.Any("roleID", input.RoleID), slog.Int("requestedUsers", len(input.Usernames)))

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.AccountRepo()
		roleRepo := repoFactory.RoleRepo()

		if _, err := roleRepo.FindByID(ctx, input.RoleID); err != nil {
			if errors.Is(err, repository.ErrRoleNotFound) {
				return domainerrors.ErrNotFound.WrapMessage("role not found")
			}

			return errors.Wrap(err, "failed to find role for member assignment")
		}

		resolved, err := accountRepo.FindByUsernames(ctx, input.Usernames)
		if err != nil {
			return errors.Wrap(err, "failed to resolve accounts for member assignment")
		}

		current, err := roleRepo.MembersOfRole(ctx, input.RoleID)
		if err != nil {
			return errors.Wrap(err, "failed to load current members")
		}

		desired := make(map[uuid.UUID]bool, len(resolved))
		for _, account := range resolved {
			desired[account.ID] = true
		}
		held := make(map[uuid.UUID]bool, len(current))
		for _, account := range current {
			held[account.ID] = true
		}

		for accountID := range desired {
			if !held[accountID] {
				if err := roleRepo.AddMember(ctx, input.RoleID, accountID); err != nil {
					return errors.Wrap(err, "failed to add member")
				}
			}
		}
		for accountID := range held {
			if !desired[accountID] {
				if err := roleRepo.RemoveMember(ctx, input.RoleID, accountID); err != nil {
					return errors.Wrap(err, "failed to remove member")
				}
			}
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Member assignment failed", slog.Any("roleID", input.RoleID), slog.Any("error", err))

		return err
	}

	return nil
}
