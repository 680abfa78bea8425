// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"time"

	"passport/config"
	deliverycontext "passport/internal/delivery/context"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/domain/service"
	"passport/internal/domain/session"
	"passport/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager         repository.TransactionManager
	accountRepo       repository.AccountRepository
	roleRepo          repository.RoleRepository
	hasher            service.PasswordHasher
	tokenService      service.TokenService
	actionTokens      service.ActionTokenService
	accountMailer     service.AccountMailer
	maxFailedAttempts int
	lockoutWindow     time.Duration
	logger            *slog.Logger
	now               func() time.Time
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager     repository.TransactionManager
	AccountRepo   repository.AccountRepository
	RoleRepo      repository.RoleRepository
	Hasher        service.PasswordHasher
	TokenService  service.TokenService
	ActionTokens  service.ActionTokenService
	AccountMailer service.AccountMailer
	Config        *config.Config
	Logger        *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:         params.TxManager,
		accountRepo:       params.AccountRepo,
		roleRepo:          params.RoleRepo,
		hasher:            params.Hasher,
		tokenService:      params.TokenService,
		actionTokens:      params.ActionTokens,
		accountMailer:     params.AccountMailer,
		maxFailedAttempts: params.Config.Lockout.MaxFailedAttempts,
		lockoutWindow:     params.Config.Lockout.Window,
		logger:            params.Logger,
		now:               time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates an unconfirmed account with the default role and
// dispatches a confirmation email.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	// bcrypt is CPU-bound, keep it outside the transaction.
	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	newAccount := &entity.Account{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Username:     input.Username,
		Email:        entity.NormalizeEmail(input.Email),
		PasswordHash: hashedPassword,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.AccountRepo()
		roleRepo := repoFactory.RoleRepo()

		if err := accountRepo.Create(ctx, newAccount); err != nil {
			return errors.Wrap(err, "failed to create account during registration")
		}

		defaultRole, err := srv.ensureDefaultRole(ctx, roleRepo)
		if err != nil {
			return err
		}

		if err := roleRepo.AddMember(ctx, defaultRole.ID, newAccount.ID); err != nil {
			return errors.Wrap(err, "failed to assign default role during registration")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	srv.dispatchConfirmationEmail(ctx, newAccount)

	srv.log(ctx).Debug("Registration completed", slog.Any("accountID", newAccount.ID))

	return &usecase.RegisterOutput{Account: newAccount}, nil
}

// ensureDefaultRole loads the default role, creating it on first use.
func (srv *authService) ensureDefaultRole(ctx context.Context, roleRepo repository.RoleRepository) (*entity.Role, error) {
	defaultRole, err := roleRepo.FindByName(ctx, entity.RoleUser.String())
	if err == nil {
		return defaultRole, nil
	}
	if !errors.Is(err, repository.ErrRoleNotFound) {
		return nil, errors.Wrap(err, "failed to find default role")
	}

	defaultRole = &entity.Role{Name: entity.RoleUser.String()}
	if err := roleRepo.Create(ctx, defaultRole); err != nil {
		return nil, errors.Wrap(err, "failed to create default role")
	}

	return defaultRole, nil
}

// Login authenticates by email and password and issues a token pair.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.TokenOutput, error) {
	srv.log(ctx).Debug("Starting login", slog.String("email", input.Email))

	account, err := srv.accountRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, domainerrors.ErrInvalidCredential.WrapMessage("login failed")
		}

		return nil, errors.Wrap(err, "failed to load account for login")
	}

	if account.IsLockedOut(srv.now()) {
		srv.log(ctx).Warn("Login rejected, account locked out", slog.Any("accountID", account.ID))

		return nil, domainerrors.ErrLockedOut.WrapMessage("login failed")
	}

	// Confirmation gates the password check so an unconfirmed account never
	// accrues failed-attempt state.
	if !account.EmailConfirmed {
		return nil, domainerrors.ErrEmailNotConfirmed.WrapMessage("login failed")
	}

	if !srv.hasher.Check(input.Password, account.PasswordHash) {
		return nil, srv.handleFailedPassword(ctx, account)
	}

	account.ResetFailedAccess()

	roles, err := srv.roleRepo.RolesOfAccount(ctx, account.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load roles for login")
	}

	pair, err := srv.issueTokenPair(account, roleNamesOf(roles))
	if err != nil {
		return nil, err
	}

	if err := srv.accountRepo.Update(ctx, account); err != nil {
		return nil, srv.mapStale(err, "failed to persist login state")
	}

	srv.log(ctx).Debug("Login succeeded", slog.Any("accountID", account.ID))

	return pair, nil
}

// handleFailedPassword records a failed attempt and reports the resulting
// error kind. A failed persistence race is logged and swallowed; the caller
// still receives the credential error.
func (srv *authService) handleFailedPassword(ctx context.Context, account *entity.Account) error {
	lockedOut := account.RegisterFailedAccess(srv.now(), srv.maxFailedAttempts, srv.lockoutWindow)

	if err := srv.accountRepo.Update(ctx, account); err != nil {
		srv.log(ctx).Warn("Failed to persist failed-access state", slog.Any("accountID", account.ID), slog.Any("error", err))
	}

	if lockedOut {
		srv.log(ctx).Warn("Account locked out", slog.Any("accountID", account.ID))

		return domainerrors.ErrLockedOut.WrapMessage("login failed")
	}

	return domainerrors.ErrInvalidCredential.WrapMessage("login failed")
}

// RefreshLogin rotates a token pair using a possibly expired access token and
// its matching refresh token. Role claims are carried over from the validated
// token, not re-derived from storage.
func (srv *authService) RefreshLogin(ctx context.Context, input usecase.RefreshLoginInput) (*usecase.TokenOutput, error) {
	srv.log(ctx).Debug("Starting token refresh")

	claims, err := srv.tokenService.ValidateForRefresh(input.AccessToken)
	if err != nil {
		return nil, err
	}

	account, err := srv.accountRepo.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, domainerrors.ErrInvalidToken.WrapMessage("account no longer exists")
		}

		return nil, errors.Wrap(err, "failed to load account for refresh")
	}

	if account.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(account.RefreshToken), []byte(input.RefreshToken)) != 1 {
		return nil, domainerrors.ErrInvalidToken.WrapMessage("refresh token mismatch")
	}

	// An expiry exactly equal to now is already expired.
	if account.RefreshTokenExpiresAt == nil || !account.RefreshTokenExpiresAt.After(srv.now()) {
		return nil, domainerrors.ErrExpired
	}

	accessToken, accessExpiresAt, err := srv.tokenService.IssueAccessTokenFromClaims(claims)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue access token for refresh")
	}

	refreshToken, err := srv.tokenService.IssueRefreshToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue refresh token for refresh")
	}

	account.RotateRefreshToken(refreshToken, accessExpiresAt.Add(srv.tokenService.RefreshTokenLifetime()))

	// The version guard makes concurrent refreshes of the same session
	// single-winner: the loser's stored token no longer matches.
	if err := srv.accountRepo.Update(ctx, account); err != nil {
		return nil, srv.mapStale(err, "failed to persist rotated tokens")
	}

	srv.log(ctx).Debug("Token refresh succeeded", slog.Any("accountID", account.ID))

	return &usecase.TokenOutput{
		AccessToken:        accessToken,
		AccessTokenEndDate: accessExpiresAt,
		RefreshToken:       refreshToken,
	}, nil
}

// ConfirmEmail flips the email-confirmed flag using an emailed token.
// Confirming an already confirmed account succeeds without change.
func (srv *authService) ConfirmEmail(ctx context.Context, input usecase.ConfirmEmailInput) error {
	account, err := srv.accountRepo.FindByID(ctx, input.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return domainerrors.ErrNotFound.WrapMessage("account not found")
		}

		return errors.Wrap(err, "failed to load account for confirmation")
	}

	if account.EmailConfirmed {
		return nil
	}

	rawToken, err := decodeActionToken(input.Token)
	if err != nil {
		return err
	}

	if err := srv.actionTokens.Verify(service.PurposeEmailConfirmation, account, rawToken); err != nil {
		return err
	}

	account.EmailConfirmed = true
	if err := srv.accountRepo.Update(ctx, account); err != nil {
		return srv.mapStale(err, "failed to persist email confirmation")
	}

	srv.log(ctx).Info("Email confirmed", slog.Any("accountID", account.ID))

	srv.dispatchEmail(ctx, account, "welcome", func(mailCtx context.Context) error {
		return srv.accountMailer.SendWelcomeEmail(mailCtx, account)
	})

	return nil
}

// RequestPasswordReset emails a reset link to the account.
func (srv *authService) RequestPasswordReset(ctx context.Context, principal *session.Principal, input usecase.RequestPasswordResetInput) error {
	if err := principal.RequireAuthorizedOrAdmin(input.AccountID); err != nil {
		return err
	}

	account, err := srv.accountRepo.FindByID(ctx, input.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return domainerrors.ErrNotFound.WrapMessage("account not found")
		}

		return errors.Wrap(err, "failed to load account for reset request")
	}

	rawToken, err := srv.actionTokens.Generate(service.PurposePasswordReset, account)
	if err != nil {
		return errors.Wrap(err, "failed to generate reset token")
	}

	encodedToken := encodeActionToken(rawToken)
	srv.dispatchEmail(ctx, account, "password reset", func(mailCtx context.Context) error {
		return srv.accountMailer.SendPasswordResetEmail(mailCtx, account, encodedToken)
	})

	srv.log(ctx).Info("Password reset requested", slog.Any("accountID", account.ID))

	return nil
}

// ResetPassword replaces the password using an emailed token.
func (srv *authService) ResetPassword(ctx context.Context, principal *session.Principal, input usecase.ResetPasswordInput) error {
	if err := principal.RequireAuthorizedOrAdmin(input.AccountID); err != nil {
		return err
	}

	account, err := srv.accountRepo.FindByID(ctx, input.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return domainerrors.ErrNotFound.WrapMessage("account not found")
		}

		return errors.Wrap(err, "failed to load account for password reset")
	}

	rawToken, err := decodeActionToken(input.Token)
	if err != nil {
		return err
	}

	if err := srv.actionTokens.Verify(service.PurposePasswordReset, account, rawToken); err != nil {
		return err
	}

	hashedPassword, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash new password")
	}

	// Replacing the hash also invalidates every outstanding reset token.
	account.PasswordHash = hashedPassword
	account.ResetFailedAccess()

	if err := srv.accountRepo.Update(ctx, account); err != nil {
		return srv.mapStale(err, "failed to persist new password")
	}

	srv.log(ctx).Info("Password reset completed", slog.Any("accountID", account.ID))

	return nil
}

// issueTokenPair mints the access/refresh pair and installs it on the account.
// Refresh expiry extends the access expiry by the configured refresh lifetime.
func (srv *authService) issueTokenPair(account *entity.Account, roles []string) (*usecase.TokenOutput, error) {
	accessToken, accessExpiresAt, err := srv.tokenService.IssueAccessToken(account, roles)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue access token")
	}

	refreshToken, err := srv.tokenService.IssueRefreshToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue refresh token")
	}

	account.RotateRefreshToken(refreshToken, accessExpiresAt.Add(srv.tokenService.RefreshTokenLifetime()))

	return &usecase.TokenOutput{
		AccessToken:        accessToken,
		AccessTokenEndDate: accessExpiresAt,
		RefreshToken:       refreshToken,
	}, nil
}

// dispatchConfirmationEmail generates and sends the confirmation link.
func (srv *authService) dispatchConfirmationEmail(ctx context.Context, account *entity.Account) {
	rawToken, err := srv.actionTokens.Generate(service.PurposeEmailConfirmation, account)
	if err != nil {
		srv.log(ctx).Error("Failed to generate confirmation token", slog.Any("accountID", account.ID), slog.Any("error", err))

		return
	}

	encodedToken := encodeActionToken(rawToken)
	srv.dispatchEmail(ctx, account, "confirmation", func(mailCtx context.Context) error {
		return srv.accountMailer.SendConfirmationEmail(mailCtx, account, encodedToken)
	})
}

// dispatchEmail sends mail on a detached goroutine. Delivery failures are
// logged and never fail the triggering operation.
func (srv *authService) dispatchEmail(ctx context.Context, account *entity.Account, kind string, send func(context.Context) error) {
	logger := srv.log(ctx)
	mailCtx := context.WithoutCancel(ctx)

	go func() {
		if err := send(mailCtx); err != nil {
			logger.Error("Failed to send email",
				slog.String("kind", kind),
				slog.Any("accountID", account.ID),
				slog.Any("error", err))
		}
	}()
}

// mapStale converts a lost optimistic-concurrency race to a conflict.
func (srv *authService) mapStale(err error, msg string) error {
	if errors.Is(err, repository.ErrStaleAccount) {
		return domainerrors.ErrConflict.WrapMessage("account was modified concurrently")
	}

	return errors.Wrap(err, msg)
}

func roleNamesOf(roles []*entity.Role) []string {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}

	return names
}

// encodeActionToken converts a raw action token to its base64url wire form
// used in emailed links.
func encodeActionToken(raw string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeActionToken reverses encodeActionToken; malformed input surfaces as
// an invalid token.
func decodeActionToken(encoded string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", domainerrors.ErrInvalidToken.WrapMessage("token is not valid base64url")
	}

	return string(raw), nil
}
