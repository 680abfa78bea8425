package postgres

import (
	"context"
	"time"

	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// roleRepository implements the domain.RoleRepository interface using GORM.
type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository is the constructor for roleRepository.
func NewRoleRepository(db *gorm.DB) repository.RoleRepository {
	return &roleRepository{db: db}
}

// FindByID retrieves a single role by its unique ID.
func (repo *roleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Role, error) {
	var roleM model.RoleModel
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&roleM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoleNotFound
		}

		return nil, errors.Wrap(err, "failed to find role by id")
	}

	return toRoleDomain(&roleM), nil
}

// FindByName retrieves a single role by its unique name.
func (repo *roleRepository) FindByName(ctx context.Context, name string) (*entity.Role, error) {
	var roleM model.RoleModel
	err := repo.db.WithContext(ctx).
		Where("name = ?", name).
		First(&roleM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoleNotFound
		}

		return nil, errors.Wrap(err, "failed to find role by name")
	}

	return toRoleDomain(&roleM), nil
}

// FindByIDs retrieves the roles whose ids are in the given set. Unknown ids
// are silently absent from the result.
func (repo *roleRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var roleMs []model.RoleModel
	err := repo.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&roleMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find roles by ids")
	}

	return toRoleDomains(roleMs), nil
}

// List retrieves all roles ordered by name.
func (repo *roleRepository) List(ctx context.Context) ([]*entity.Role, error) {
	var roleMs []model.RoleModel
	err := repo.db.WithContext(ctx).
		Order("name").
		Find(&roleMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list roles")
	}

	return toRoleDomains(roleMs), nil
}

// Create persists a new role; duplicate names surface as a conflict.
func (repo *roleRepository) Create(ctx context.Context, role *entity.Role) error {
	roleM := fromRoleDomain(role)

	if err := repo.db.WithContext(ctx).Create(roleM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("role name already exists")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create role")
	}

	role.ID = roleM.ID
	role.CreatedAt = roleM.CreatedAt
	role.UpdatedAt = roleM.UpdatedAt

	return nil
}

// Update renames an existing role; duplicate names surface as a conflict.
func (repo *roleRepository) Update(ctx context.Context, role *entity.Role) error {
	result := repo.db.WithContext(ctx).
		Model(&model.RoleModel{}).
		Where("id = ?", role.ID).
		Updates(map[string]any{
			"name":       role.Name,
			"updated_at": time.Now(),
		})
	if err := result.Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("role name already exists")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update role")
	}
	if result.RowsAffected == 0 {
		return repository.ErrRoleNotFound
	}

	return nil
}

// Delete removes a role and its memberships.
func (repo *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := repo.db.WithContext(ctx).
		Where("role_id = ?", id).
		Delete(&model.AccountRoleModel{}).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete role memberships")
	}

	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.RoleModel{})
	if err := result.Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete role")
	}
	if result.RowsAffected == 0 {
		return repository.ErrRoleNotFound
	}

	return nil
}

// RolesOfAccount retrieves all roles an account is a member of.
func (repo *roleRepository) RolesOfAccount(ctx context.Context, accountID uuid.UUID) ([]*entity.Role, error) {
	var roleMs []model.RoleModel
	err := repo.db.WithContext(ctx).
		Joins("JOIN account_roles ON account_roles.role_id = roles.id").
		Where("account_roles.account_id = ?", accountID).
		Order("roles.name").
		Find(&roleMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find roles of account")
	}

	return toRoleDomains(roleMs), nil
}

// MembersOfRole retrieves all accounts holding the role.
func (repo *roleRepository) MembersOfRole(ctx context.Context, roleID uuid.UUID) ([]*entity.Account, error) {
	var accountMs []model.AccountModel
	err := repo.db.WithContext(ctx).
		Joins("JOIN account_roles ON account_roles.account_id = accounts.id").
		Where("account_roles.role_id = ?", roleID).
		Order("accounts.created_at").
		Find(&accountMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find members of role")
	}

	return toAccountDomains(accountMs), nil
}

// AddMember adds an account to a role. Adding an existing member is a no-op.
func (repo *roleRepository) AddMember(ctx context.Context, roleID, accountID uuid.UUID) error {
	member := &model.AccountRoleModel{AccountID: accountID, RoleID: roleID}

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(member).Error
	if err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrRoleNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to add role member")
	}

	return nil
}

// RemoveMember removes an account from a role. Removing a non-member is a no-op.
func (repo *roleRepository) RemoveMember(ctx context.Context, roleID, accountID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("role_id = ? AND account_id = ?", roleID, accountID).
		Delete(&model.AccountRoleModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to remove role member")
	}

	return nil
}

func toRoleDomain(roleM *model.RoleModel) *entity.Role {
	return &entity.Role{
		ID:        roleM.ID,
		Name:      roleM.Name,
		CreatedAt: roleM.CreatedAt,
		UpdatedAt: roleM.UpdatedAt,
	}
}

func toRoleDomains(roleMs []model.RoleModel) []*entity.Role {
	roles := make([]*entity.Role, 0, len(roleMs))
	for i := range roleMs {
		roles = append(roles, toRoleDomain(&roleMs[i]))
	}

	return roles
}

func fromRoleDomain(role *entity.Role) *model.RoleModel {
	return &model.RoleModel{
		ID:        role.ID,
		Name:      role.Name,
		CreatedAt: role.CreatedAt,
		UpdatedAt: role.UpdatedAt,
	}
}
