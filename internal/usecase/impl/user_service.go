package impl

import (
	"context"
	"log/slog"

	deliverycontext "passport/internal/delivery/context"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/domain/session"
	"passport/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	txManager   repository.TransactionManager
	accountRepo repository.AccountRepository
	roleRepo    repository.RoleRepository
	logger      *slog.Logger
}

// UserServiceParams holds dependencies for userService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	AccountRepo repository.AccountRepository
	RoleRepo    repository.RoleRepository
	Logger      *slog.Logger
}

// NewUserService is the constructor for userService.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager:   params.TxManager,
		accountRepo: params.AccountRepo,
		roleRepo:    params.RoleRepo,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListUsers retrieves all accounts with their roles.
func (srv *userService) ListUsers(ctx context.Context, principal *session.Principal) ([]*usecase.AccountWithRoles, error) {
	if err := principal.RequireAdmin(); err != nil {
		return nil, err
	}

	accounts, err := srv.accountRepo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list accounts")
	}

	result := make([]*usecase.AccountWithRoles, 0, len(accounts))
	for _, account := range accounts {
		roles, err := srv.roleRepo.RolesOfAccount(ctx, account.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load roles for account listing")
		}

		result = append(result, &usecase.AccountWithRoles{Account: account, Roles: roles})
	}

	return result, nil
}

// GetUser retrieves a single account with its roles.
func (srv *userService) GetUser(ctx context.Context, principal *session.Principal, accountID uuid.UUID) (*usecase.AccountWithRoles, error) {
	if err := principal.RequireAuthorizedOrAdmin(accountID); err != nil {
		return nil, err
	}

	account, err := srv.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, domainerrors.ErrNotFound.WrapMessage("account not found")
		}

		return nil, errors.Wrap(err, "failed to find account")
	}

	roles, err := srv.roleRepo.RolesOfAccount(ctx, account.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load roles for account")
	}

	return &usecase.AccountWithRoles{Account: account, Roles: roles}, nil
}

// DeleteUser removes an account and its role memberships.
func (srv *userService) DeleteUser(ctx context.Context, principal *session.Principal, accountID uuid.UUID) error {
	if err := principal.RequireAdmin(); err != nil {
		return err
	}

	if err := srv.accountRepo.Delete(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return domainerrors.ErrNotFound.WrapMessage("account not found")
		}

		return errors.Wrap(err, "failed to delete account")
	}

	srv.log(ctx).Info("Account deleted", slog.Any("accountID", accountID))

	return nil
}

// AssignRolesToUser reconciles the user's role memberships to exactly the
// resolved role set. Unknown role ids are dropped during resolution, but an
// entirely unresolvable set is an error rather than a silent clear.
func (srv *userService) AssignRolesToUser(ctx context.Context, principal *session.Principal, input usecase.AssignRolesToUserInput) error {
	if err := principal.RequireSuperAdmin(); err != nil {
		return err
	}

	srv.log(ctx).Info("Assigning roles to user", slog.Any("accountID", input.AccountID), slog.Int("requestedRoles", len(input.RoleIDs)))

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.AccountRepo()
		roleRepo := repoFactory.RoleRepo()

		if _, err := accountRepo.FindByID(ctx, input.AccountID); err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return domainerrors.ErrNotFound.WrapMessage("account not found")
			}

			return errors.Wrap(err, "failed to find account for role assignment")
		}

		resolved, err := roleRepo.FindByIDs(ctx, input.RoleIDs)
		if err != nil {
			return errors.Wrap(err, "failed to resolve roles for assignment")
		}
		if len(resolved) == 0 {
			return domainerrors.ErrNotFound.WrapMessage("none of the given roles exist")
		}

		current, err := roleRepo.RolesOfAccount(ctx, input.AccountID)
		if err != nil {
			return errors.Wrap(err, "failed to load current roles for assignment")
		}

		desired := make(map[uuid.UUID]bool, len(resolved))
		for _, role := range resolved {
			desired[role.ID] = true
		}
		held := make(map[uuid.UUID]bool, len(current))
		for _, role := range current {
			held[role.ID] = true
		}

		for roleID := range desired {
			if !held[roleID] {
				if err := roleRepo.AddMember(ctx, roleID, input.AccountID); err != nil {
					return errors.Wrap(err, "failed to add role membership")
				}
			}
		}
		for roleID := range held {
			if !desired[roleID] {
				if err := roleRepo.RemoveMember(ctx, roleID, input.AccountID); err != nil {
					return errors.Wrap(err, "failed to remove role membership")
				}
			}
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Role assignment failed", slog.Any("accountID", input.AccountID), slog.Any("error", err))

		return err
	}

	return nil
}
