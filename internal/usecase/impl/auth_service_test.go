package impl

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"passport/config"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/service"
	"passport/internal/domain/session"
	"passport/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	svc          usecase.AuthUsecase
	accountRepo  *fakeAccountRepo
	roleRepo     *fakeRoleRepo
	tokenService *fakeTokenService
	mailer       *fakeAccountMailer
}

func newAuthFixture() *authFixture {
	accountRepo := newFakeAccountRepo()
	roleRepo := newFakeRoleRepo()
	tokenService := newFakeTokenService()
	mailer := newFakeAccountMailer()

	cfg := &config.Config{
		Lockout: &config.LockoutConfig{MaxFailedAttempts: 5, Window: 5 * time.Minute},
	}

	svc := NewAuthService(AuthServiceParams{
		TxManager:     &fakeTxManager{factory: &fakeRepoFactory{accountRepo: accountRepo, roleRepo: roleRepo}},
		AccountRepo:   accountRepo,
		RoleRepo:      roleRepo,
		Hasher:        fakeHasher{},
		TokenService:  tokenService,
		ActionTokens:  fakeActionTokens{},
		AccountMailer: mailer,
		Config:        cfg,
		Logger:        discardLogger(),
	})

	return &authFixture{
		svc:          svc,
		accountRepo:  accountRepo,
		roleRepo:     roleRepo,
		tokenService: tokenService,
		mailer:       mailer,
	}
}

func registerInput() usecase.RegisterInput {
	return usecase.RegisterInput{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Username:        "ada",
		Email:           "Ada@Example.com",
		Password:        "SuperSecret1!",
		ConfirmPassword: "SuperSecret1!",
	}
}

// registerConfirmed registers an account and flips its confirmation flag
// directly, skipping the email round trip.
func (f *authFixture) registerConfirmed(t *testing.T) *entity.Account {
	t.Helper()

	out, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	account, err := f.accountRepo.FindByID(context.Background(), out.Account.ID)
	require.NoError(t, err)
	account.EmailConfirmed = true
	require.NoError(t, f.accountRepo.Update(context.Background(), account))

	return account
}

func encodeTestToken(raw string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture()

	out, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)
	require.NotNil(t, out.Account)

	stored, err := f.accountRepo.FindByID(context.Background(), out.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", stored.Email)
	assert.Equal(t, "hashed:SuperSecret1!", stored.PasswordHash)
	assert.False(t, stored.EmailConfirmed)
	// No mutation yet, so the update timestamp is unset.
	assert.Nil(t, stored.UpdatedAt)

	// Default role membership.
	roles, err := f.roleRepo.RolesOfAccount(context.Background(), stored.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, entity.RoleUser.String(), roles[0].Name)

	// Confirmation email carries the encoded token.
	mail, ok := f.mailer.waitForMail("confirmation")
	require.True(t, ok, "confirmation email was not dispatched")
	assert.Equal(t, stored.ID, mail.accountID)
	assert.NotEmpty(t, mail.token)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	dup := registerInput()
	dup.Username = "someone-else"
	_, err = f.svc.Register(context.Background(), dup)
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrConflict.ErrorCode(), appErr.ErrorCode())
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	// Same username under a different email is still a conflict, regardless
	// of casing.
	dup := registerInput()
	dup.Username = "ADA"
	dup.Email = "ada.other@example.com"
	_, err = f.svc.Register(context.Background(), dup)
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrConflict.ErrorCode(), appErr.ErrorCode())
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture()
	account := f.registerConfirmed(t)

	out, err := f.svc.Login(context.Background(), usecase.LoginInput{
		Email:    "ada@example.com",
		Password: "SuperSecret1!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)
	assert.True(t, out.AccessTokenEndDate.After(time.Now()))

	// Refresh token is persisted with expiry past the access expiry.
	stored, err := f.accountRepo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, out.RefreshToken, stored.RefreshToken)
	require.NotNil(t, stored.RefreshTokenExpiresAt)
	assert.True(t, stored.RefreshTokenExpiresAt.After(out.AccessTokenEndDate))
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Login(context.Background(), usecase.LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrInvalidCredential.ErrorCode(), appErr.ErrorCode())
}

func TestAuthService_Login_UnconfirmedBeforePasswordCheck(t *testing.T) {
	f := newAuthFixture()

	out, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	// Even a wrong password reports the confirmation problem, and no
	// failed-attempt state accrues.
	_, err = f.svc.Login(context.Background(), usecase.LoginInput{
		Email:    "ada@example.com",
		Password: "wrong",
	})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrEmailNotConfirmed.ErrorCode(), appErr.ErrorCode())

	stored, err := f.accountRepo.FindByID(context.Background(), out.Account.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedAccessCount)
}

func TestAuthService_Login_LockoutAfterRepeatedFailures(t *testing.T) {
	f := newAuthFixture()
	account := f.registerConfirmed(t)

	login := usecase.LoginInput{Email: "ada@example.com", Password: "wrong"}

	// Four failures accrue state without locking.
	for i := 0; i < 4; i++ {
		_, err := f.svc.Login(context.Background(), login)
		require.Error(t, err)

		var appErr domainerrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, domainerrors.ErrInvalidCredential.ErrorCode(), appErr.ErrorCode())
	}

	// The fifth failure starts the lockout window.
	_, err := f.svc.Login(context.Background(), login)
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrLockedOut.ErrorCode(), appErr.ErrorCode())

	stored, err := f.accountRepo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LockoutUntil)

	// The correct password is rejected while locked out.
	_, err = f.svc.Login(context.Background(), usecase.LoginInput{
		Email:    "ada@example.com",
		Password: "SuperSecret1!",
	})
	require.Error(t, err)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrLockedOut.ErrorCode(), appErr.ErrorCode())
}

func TestAuthService_Login_SuccessClearsFailureState(t *testing.T) {
	f := newAuthFixture()
	account := f.registerConfirmed(t)

	_, err := f.svc.Login(context.Background(), usecase.LoginInput{Email: "ada@example.com", Password: "wrong"})
	require.Error(t, err)

	_, err = f.svc.Login(context.Background(), usecase.LoginInput{Email: "ada@example.com", Password: "SuperSecret1!"})
	require.NoError(t, err)

	stored, err := f.accountRepo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedAccessCount)
	assert.Nil(t, stored.LockoutUntil)
}

func TestAuthService_RefreshLogin_RotatesBothTokens(t *testing.T) {
	f := newAuthFixture()
	f.registerConfirmed(t)

	loginOut, err := f.svc.Login(context.Background(), usecase.LoginInput{
		Email:    "ada@example.com",
		Password: "SuperSecret1!",
	})
	require.NoError(t, err)

	refreshOut, err := f.svc.RefreshLogin(context.Background(), usecase.RefreshLoginInput{
		AccessToken:  loginOut.AccessToken,
		RefreshToken: loginOut.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, loginOut.AccessToken, refreshOut.AccessToken)
	assert.NotEqual(t, loginOut.RefreshToken, refreshOut.RefreshToken)

	// The old refresh token no longer matches.
	_, err = f.svc.RefreshLogin(context.Background(), usecase.RefreshLoginInput{
		AccessToken:  loginOut.AccessToken,
		RefreshToken: loginOut.RefreshToken,
	})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrInvalidToken.ErrorCode(), appErr.ErrorCode())
}

func TestAuthService_RefreshLogin_ExpiredStoredToken(t *testing.T) {
	f := newAuthFixture()
	account := f.registerConfirmed(t)

	loginOut, err := f.svc.Login(context.Background(), usecase.LoginInput{
		Email:    "ada@example.com",
		Password: "SuperSecret1!",
	})
	require.NoError(t, err)

	// Age the stored refresh token past its expiry.
	stored, err := f.accountRepo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	past := time.Now().Add(-time.Minute)
	stored.RefreshTokenExpiresAt = &past
	require.NoError(t, f.accountRepo.Update(context.Background(), stored))

	_, err = f.svc.RefreshLogin(context.Background(), usecase.RefreshLoginInput{
		AccessToken:  loginOut.AccessToken,
		RefreshToken: loginOut.RefreshToken,
	})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrExpired.ErrorCode(), appErr.ErrorCode())
}

func TestAuthService_RefreshLogin_ExpiryExactlyNow(t *testing.T) {
	f := newAuthFixture()
	account := f.registerConfirmed(t)

	loginOut, err := f.svc.Login(context.Background(), usecase.LoginInput{
		Email:    "ada@example.com",
		Password: "SuperSecret1!",
	})
	require.NoError(t, err)

	// Pin the clock and set the stored expiry to exactly that instant; an
	// expiry equal to now is already expired.
	at := time.Now()
	f.svc.(*authService).now = func() time.Time { return at }

	stored, err := f.accountRepo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	stored.RefreshTokenExpiresAt = &at
	require.NoError(t, f.accountRepo.Update(context.Background(), stored))

	_, err = f.svc.RefreshLogin(context.Background(), usecase.RefreshLoginInput{
		AccessToken:  loginOut.AccessToken,
		RefreshToken: loginOut.RefreshToken,
	})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrExpired.ErrorCode(), appErr.ErrorCode())
}

func TestAuthService_RefreshLogin_CarriesRoleClaims(t *testing.T) {
	f := newAuthFixture()
	f.registerConfirmed(t)

	loginOut, err := f.svc.Login(context.Background(), usecase.LoginInput{
		Email:    "ada@example.com",
		Password: "SuperSecret1!",
	})
	require.NoError(t, err)

	_, err = f.svc.RefreshLogin(context.Background(), usecase.RefreshLoginInput{
		AccessToken:  loginOut.AccessToken,
		RefreshToken: loginOut.RefreshToken,
	})
	require.NoError(t, err)

	// Roles were carried over from the validated claims, not re-read.
	assert.Equal(t, []string{entity.RoleUser.String()}, f.tokenService.lastClaims.Roles)
}

func TestAuthService_ConfirmEmail(t *testing.T) {
	f := newAuthFixture()

	out, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	account, err := f.accountRepo.FindByID(context.Background(), out.Account.ID)
	require.NoError(t, err)
	rawToken, err := fakeActionTokens{}.Generate(service.PurposeEmailConfirmation, account)
	require.NoError(t, err)

	err = f.svc.ConfirmEmail(context.Background(), usecase.ConfirmEmailInput{
		AccountID: account.ID,
		Token:     encodeTestToken(rawToken),
	})
	require.NoError(t, err)

	stored, err := f.accountRepo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailConfirmed)
	assert.NotNil(t, stored.UpdatedAt, "first mutation sets the update timestamp")

	_, ok := f.mailer.waitForMail("welcome")
	assert.True(t, ok, "welcome email was not dispatched")

	// Confirming again succeeds without change, even with the stale token.
	err = f.svc.ConfirmEmail(context.Background(), usecase.ConfirmEmailInput{
		AccountID: account.ID,
		Token:     encodeTestToken(rawToken),
	})
	assert.NoError(t, err)
}

func TestAuthService_ConfirmEmail_BadToken(t *testing.T) {
	f := newAuthFixture()

	out, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	err = f.svc.ConfirmEmail(context.Background(), usecase.ConfirmEmailInput{
		AccountID: out.Account.ID,
		Token:     encodeTestToken("forged"),
	})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrInvalidToken.ErrorCode(), appErr.ErrorCode())

	// Not valid base64url at all.
	err = f.svc.ConfirmEmail(context.Background(), usecase.ConfirmEmailInput{
		AccountID: out.Account.ID,
		Token:     "%%%",
	})
	require.Error(t, err)
}

func TestAuthService_RequestPasswordReset_Authorization(t *testing.T) {
	f := newAuthFixture()
	account := f.registerConfirmed(t)

	input := usecase.RequestPasswordResetInput{AccountID: account.ID}

	// Anonymous callers are unauthorized.
	err := f.svc.RequestPasswordReset(context.Background(), session.Anonymous(), input)
	require.Error(t, err)
	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrUnauthorized.ErrorCode(), appErr.ErrorCode())

	// A different non-admin account is forbidden.
	other := session.New(uuid.New(), "other", "other@example.com", entity.RoleNames{entity.RoleUser})
	err = f.svc.RequestPasswordReset(context.Background(), other, input)
	require.Error(t, err)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrForbidden.ErrorCode(), appErr.ErrorCode())

	// The owner may request; the reset email is dispatched.
	owner := session.New(account.ID, account.Username, account.Email, entity.RoleNames{entity.RoleUser})
	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), owner, input))

	mail, ok := f.mailer.waitForMail("password reset")
	require.True(t, ok, "reset email was not dispatched")
	assert.Equal(t, account.ID, mail.accountID)

	// An admin may request on behalf of the account.
	admin := session.New(uuid.New(), "admin", "admin@example.com", entity.RoleNames{entity.RoleAdmin})
	assert.NoError(t, f.svc.RequestPasswordReset(context.Background(), admin, input))
}

func TestAuthService_ResetPassword(t *testing.T) {
	f := newAuthFixture()
	account := f.registerConfirmed(t)
	owner := session.New(account.ID, account.Username, account.Email, entity.RoleNames{entity.RoleUser})

	stored, err := f.accountRepo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	rawToken, err := fakeActionTokens{}.Generate(service.PurposePasswordReset, stored)
	require.NoError(t, err)

	err = f.svc.ResetPassword(context.Background(), owner, usecase.ResetPasswordInput{
		AccountID:   account.ID,
		Token:       encodeTestToken(rawToken),
		NewPassword: "EvenMoreSecret2!",
	})
	require.NoError(t, err)

	// The new password works.
	_, err = f.svc.Login(context.Background(), usecase.LoginInput{
		Email:    "ada@example.com",
		Password: "EvenMoreSecret2!",
	})
	require.NoError(t, err)

	// The used token no longer verifies against the mutated state.
	err = f.svc.ResetPassword(context.Background(), owner, usecase.ResetPasswordInput{
		AccountID:   account.ID,
		Token:       encodeTestToken(rawToken),
		NewPassword: "Another3!",
	})
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.ErrInvalidToken.ErrorCode(), appErr.ErrorCode())
}
