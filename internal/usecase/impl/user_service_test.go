package impl

import (
	"context"
	"testing"

	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/session"
	"passport/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	svc         usecase.UserUsecase
	accountRepo *fakeAccountRepo
	roleRepo    *fakeRoleRepo
}

func newUserFixture() *userFixture {
	accountRepo := newFakeAccountRepo()
	roleRepo := newFakeRoleRepo()

	svc := NewUserService(UserServiceParams{
		TxManager:   &fakeTxManager{factory: &fakeRepoFactory{accountRepo: accountRepo, roleRepo: roleRepo}},
		AccountRepo: accountRepo,
		RoleRepo:    roleRepo,
		Logger:      discardLogger(),
	})

	return &userFixture{svc: svc, accountRepo: accountRepo, roleRepo: roleRepo}
}

func (f *userFixture) seedAccount(t *testing.T, username string) *entity.Account {
	t.Helper()

	account := &entity.Account{
		Username: username,
		Email:    username + "@example.com",
	}
	require.NoError(t, f.accountRepo.Create(context.Background(), account))

	return account
}

func (f *userFixture) seedRole(t *testing.T, name string) *entity.Role {
	t.Helper()

	role := &entity.Role{Name: name}
	require.NoError(t, f.roleRepo.Create(context.Background(), role))

	return role
}

func adminPrincipal() *session.Principal {
	return session.New(uuid.New(), "admin", "admin@example.com", entity.RoleNames{entity.RoleAdmin})
}

func superAdminPrincipal() *session.Principal {
	return session.New(uuid.New(), "root", "root@example.com", entity.RoleNames{entity.RoleSuperAdmin})
}

func userPrincipal(id uuid.UUID) *session.Principal {
	return session.New(id, "user", "user@example.com", entity.RoleNames{entity.RoleUser})
}

func assertErrorCode(t *testing.T, err error, want string) {
	t.Helper()

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, want, appErr.ErrorCode())
}

func TestUserService_ListUsers(t *testing.T) {
	f := newUserFixture()
	account := f.seedAccount(t, "ada")
	role := f.seedRole(t, "User")
	require.NoError(t, f.roleRepo.AddMember(context.Background(), role.ID, account.ID))

	users, err := f.svc.ListUsers(context.Background(), adminPrincipal())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, account.ID, users[0].Account.ID)
	require.Len(t, users[0].Roles, 1)
	assert.Equal(t, "User", users[0].Roles[0].Name)
}

func TestUserService_ListUsers_RequiresAdmin(t *testing.T) {
	f := newUserFixture()

	_, err := f.svc.ListUsers(context.Background(), userPrincipal(uuid.New()))
	require.Error(t, err)
	assertErrorCode(t, err, domainerrors.ErrForbidden.ErrorCode())

	_, err = f.svc.ListUsers(context.Background(), session.Anonymous())
	require.Error(t, err)
	assertErrorCode(t, err, domainerrors.ErrUnauthorized.ErrorCode())
}

func TestUserService_ListUsers_SuperAdminImpliesAdmin(t *testing.T) {
	f := newUserFixture()
	f.seedAccount(t, "ada")

	_, err := f.svc.ListUsers(context.Background(), superAdminPrincipal())
	assert.NoError(t, err)
}

func TestUserService_GetUser_OwnerOrAdmin(t *testing.T) {
	f := newUserFixture()
	account := f.seedAccount(t, "ada")

	// The owner can read their own account.
	got, err := f.svc.GetUser(context.Background(), userPrincipal(account.ID), account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.Account.ID)

	// A stranger cannot.
	_, err = f.svc.GetUser(context.Background(), userPrincipal(uuid.New()), account.ID)
	require.Error(t, err)
	assertErrorCode(t, err, domainerrors.ErrForbidden.ErrorCode())

	// An admin can.
	_, err = f.svc.GetUser(context.Background(), adminPrincipal(), account.ID)
	assert.NoError(t, err)
}

func TestUserService_GetUser_NotFound(t *testing.T) {
	f := newUserFixture()

	_, err := f.svc.GetUser(context.Background(), adminPrincipal(), uuid.New())
	require.Error(t, err)
	assertErrorCode(t, err, domainerrors.ErrNotFound.ErrorCode())
}

func TestUserService_DeleteUser(t *testing.T) {
	f := newUserFixture()
	account := f.seedAccount(t, "ada")

	require.NoError(t, f.svc.DeleteUser(context.Background(), adminPrincipal(), account.ID))

	_, err := f.accountRepo.FindByID(context.Background(), account.ID)
	require.Error(t, err)

	// Deleting again reports not found.
	err = f.svc.DeleteUser(context.Background(), adminPrincipal(), account.ID)
	require.Error(t, err)
	assertErrorCode(t, err, domainerrors.ErrNotFound.ErrorCode())
}

func TestUserService_AssignRolesToUser_Reconciles(t *testing.T) {
	f := newUserFixture()
	account := f.seedAccount(t, "ada")
	userRole := f.seedRole(t, "User")
	adminRole := f.seedRole(t, "Admin")
	require.NoError(t, f.roleRepo.AddMember(context.Background(), userRole.ID, account.ID))

	// Assign exactly {Admin}: User is removed, Admin added.
	err := f.svc.AssignRolesToUser(context.Background(), superAdminPrincipal(), usecase.AssignRolesToUserInput{
		AccountID: account.ID,
		RoleIDs:   []uuid.UUID{adminRole.ID},
	})
	require.NoError(t, err)

	roles, err := f.roleRepo.RolesOfAccount(context.Background(), account.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "Admin", roles[0].Name)
}

func TestUserService_AssignRolesToUser_Idempotent(t *testing.T) {
	f := newUserFixture()
	account := f.seedAccount(t, "ada")
	userRole := f.seedRole(t, "User")

	input := usecase.AssignRolesToUserInput{
		AccountID: account.ID,
		RoleIDs:   []uuid.UUID{userRole.ID},
	}

	require.NoError(t, f.svc.AssignRolesToUser(context.Background(), superAdminPrincipal(), input))
	require.NoError(t, f.svc.AssignRolesToUser(context.Background(), superAdminPrincipal(), input))

	roles, err := f.roleRepo.RolesOfAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestUserService_AssignRolesToUser_UnknownRolesDropped(t *testing.T) {
	f := newUserFixture()
	account := f.seedAccount(t, "ada")
	userRole := f.seedRole(t, "User")

	// A mix of known and unknown ids keeps the known one.
	err := f.svc.AssignRolesToUser(context.Background(), superAdminPrincipal(), usecase.AssignRolesToUserInput{
		AccountID: account.ID,
		RoleIDs:   []uuid.UUID{userRole.ID, uuid.New()},
	})
	require.NoError(t, err)

	roles, err := f.roleRepo.RolesOfAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestUserService_AssignRolesToUser_AllUnknownFails(t *testing.T) {
	f := newUserFixture()
	account := f.seedAccount(t, "ada")
	userRole := f.seedRole(t, "User")
	require.NoError(t, f.roleRepo.AddMember(context.Background(), userRole.ID, account.ID))

	// An entirely unresolvable set fails instead of clearing memberships.
	err := f.svc.AssignRolesToUser(context.Background(), superAdminPrincipal(), usecase.AssignRolesToUserInput{
		AccountID: account.ID,
		RoleIDs:   []uuid.UUID{uuid.New()},
	})
	require.Error(t, err)
	assertErrorCode(t, err, domainerrors.ErrNotFound.ErrorCode())

	roles, err := f.roleRepo.RolesOfAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 1, "existing memberships must be untouched")
}

func TestUserService_AssignRolesToUser_RequiresSuperAdmin(t *testing.T) {
	f := newUserFixture()
	account := f.seedAccount(t, "ada")
	userRole := f.seedRole(t, "User")

	err := f.svc.AssignRolesToUser(context.Background(), adminPrincipal(), usecase.AssignRolesToUserInput{
		AccountID: account.ID,
		RoleIDs:   []uuid.UUID{userRole.ID},
	})
	require.Error(t, err)
	assertErrorCode(t, err, domainerrors.ErrForbidden.ErrorCode())
}
