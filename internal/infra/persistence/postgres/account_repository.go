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
)

// accountRepository implements the domain.AccountRepository interface using GORM.
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository is the constructor for accountRepository.
// It returns the repository as a domain.AccountRepository interface, adhering to dependency inversion.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

// FindByID retrieves a single account by its unique ID.
func (repo *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var accountM model.AccountModel
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&accountM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.Wrap(err, "failed to find account by id")
	}

	return toAccountDomain(&accountM), nil
}

// FindByEmail retrieves a single account by its email address. Lookup is
// case-insensitive via the normalized column.
func (repo *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var accountM model.AccountModel
	err := repo.db.WithContext(ctx).
		Where("normalized_email = ?", entity.NormalizeEmail(email)).
		First(&accountM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.Wrap(err, "failed to find account by email")
	}

	return toAccountDomain(&accountM), nil
}

// FindByUsername retrieves a single account by its username. Lookup is
// case-insensitive via the normalized column.
func (repo *accountRepository) FindByUsername(ctx context.Context, username string) (*entity.Account, error) {
	var accountM model.AccountModel
	err := repo.db.WithContext(ctx).
		Where("normalized_username = ?", entity.NormalizeUsername(username)).
		First(&accountM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.Wrap(err, "failed to find account by username")
	}

	return toAccountDomain(&accountM), nil
}

// FindByUsernames retrieves the accounts whose usernames are in the given set.
// Unknown names are silently absent from the result.
func (repo *accountRepository) FindByUsernames(ctx context.Context, usernames []string) ([]*entity.Account, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	normalized := make([]string, 0, len(usernames))
	for _, username := range usernames {
		normalized = append(normalized, entity.NormalizeUsername(username))
	}

	var accountMs []model.AccountModel
	err := repo.db.WithContext(ctx).
		Where("normalized_username IN ?", normalized).
		Find(&accountMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find accounts by usernames")
	}

	return toAccountDomains(accountMs), nil
}

// List retrieves all accounts ordered by creation time.
func (repo *accountRepository) List(ctx context.Context) ([]*entity.Account, error) {
	var accountMs []model.AccountModel
	err := repo.db.WithContext(ctx).
		Order("created_at").
		Find(&accountMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list accounts")
	}

	return toAccountDomains(accountMs), nil
}

// Create persists a new account.
func (repo *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	accountM := fromAccountDomain(account)

	if err := repo.db.WithContext(ctx).Create(accountM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("email or username already exists")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required account information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create account")
	}

	// Update the account entity with the generated ID and timestamps
	account.ID = accountM.ID
	account.Version = accountM.Version
	account.CreatedAt = accountM.CreatedAt
	account.UpdatedAt = accountM.UpdatedAt

	return nil
}

// Update modifies an existing account, guarded by its version stamp.
// A lost optimistic-concurrency race returns ErrStaleAccount.
func (repo *accountRepository) Update(ctx context.Context, account *entity.Account) error {
	accountM := fromAccountDomain(account)
	now := time.Now()

	result := repo.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]any{
			"first_name":               accountM.FirstName,
			"last_name":                accountM.LastName,
			"username":                 accountM.Username,
			"normalized_username":      accountM.NormalizedUsername,
			"email":                    accountM.Email,
			"normalized_email":         accountM.NormalizedEmail,
			"email_confirmed":          accountM.EmailConfirmed,
			"password_hash":            accountM.PasswordHash,
			"failed_access_count":      accountM.FailedAccessCount,
			"lockout_until":            accountM.LockoutUntil,
			"refresh_token":            accountM.RefreshToken,
			"refresh_token_expires_at": accountM.RefreshTokenExpiresAt,
			"updated_at":               now,
			"version":                  gorm.Expr("version + 1"),
		})
	if err := result.Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("email or username already exists")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update account")
	}
	if result.RowsAffected == 0 {
		return repository.ErrStaleAccount
	}

	account.Version++
	account.UpdatedAt = &now

	return nil
}

// Delete removes an account and its role memberships.
func (repo *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := repo.db.WithContext(ctx).
		Where("account_id = ?", id).
		Delete(&model.AccountRoleModel{}).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete role memberships")
	}

	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.AccountModel{})
	if err := result.Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete account")
	}
	if result.RowsAffected == 0 {
		return repository.ErrAccountNotFound
	}

	return nil
}

// toAccountDomain maps a persistence model back to a pure domain entity.
func toAccountDomain(accountM *model.AccountModel) *entity.Account {
	return &entity.Account{
		ID:                    accountM.ID,
		FirstName:             accountM.FirstName,
		LastName:              accountM.LastName,
		Username:              accountM.Username,
		Email:                 accountM.Email,
		EmailConfirmed:        accountM.EmailConfirmed,
		PasswordHash:          accountM.PasswordHash,
		FailedAccessCount:     accountM.FailedAccessCount,
		LockoutUntil:          accountM.LockoutUntil,
		RefreshToken:          accountM.RefreshToken,
		RefreshTokenExpiresAt: accountM.RefreshTokenExpiresAt,
		Version:               accountM.Version,
		CreatedAt:             accountM.CreatedAt,
		UpdatedAt:             accountM.UpdatedAt,
	}
}

func toAccountDomains(accountMs []model.AccountModel) []*entity.Account {
	accounts := make([]*entity.Account, 0, len(accountMs))
	for i := range accountMs {
		accounts = append(accounts, toAccountDomain(&accountMs[i]))
	}

	return accounts
}

// fromAccountDomain maps a domain entity to its persistence model, deriving
// the normalized uniqueness columns.
func fromAccountDomain(account *entity.Account) *model.AccountModel {
	return &model.AccountModel{
		ID:                    account.ID,
		FirstName:             account.FirstName,
		LastName:              account.LastName,
		Username:              account.Username,
		NormalizedUsername:    entity.NormalizeUsername(account.Username),
		Email:                 account.Email,
		NormalizedEmail:       entity.NormalizeEmail(account.Email),
		EmailConfirmed:        account.EmailConfirmed,
		PasswordHash:          account.PasswordHash,
		FailedAccessCount:     account.FailedAccessCount,
		LockoutUntil:          account.LockoutUntil,
		RefreshToken:          account.RefreshToken,
		RefreshTokenExpiresAt: account.RefreshTokenExpiresAt,
		Version:               account.Version,
		CreatedAt:             account.CreatedAt,
		UpdatedAt:             account.UpdatedAt,
	}
}
