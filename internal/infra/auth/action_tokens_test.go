package auth

import (
	"testing"
	"time"

	"passport/config"
	"passport/internal/domain/entity"
	"passport/internal/domain/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testActionTokenConfig() *config.Config {
	return &config.Config{
		ActionTokens: &config.ActionTokenConfig{
			Secret:          "test_action_token_secret_for_testing",
			ConfirmationTTL: 24 * time.Hour,
			ResetTTL:        time.Hour,
		},
	}
}

func TestActionTokenService_GenerateAndVerify(t *testing.T) {
	svc, err := NewActionTokenService(testActionTokenConfig())
	require.NoError(t, err)

	account := &entity.Account{ID: uuid.New(), PasswordHash: "$2a$10$abc"}

	token, err := svc.Generate(service.PurposeEmailConfirmation, account)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	assert.NoError(t, svc.Verify(service.PurposeEmailConfirmation, account, token))
}

func TestActionTokenService_PurposeIsolation(t *testing.T) {
	svc, err := NewActionTokenService(testActionTokenConfig())
	require.NoError(t, err)

	account := &entity.Account{ID: uuid.New(), PasswordHash: "$2a$10$abc"}

	token, err := svc.Generate(service.PurposeEmailConfirmation, account)
	require.NoError(t, err)

	// A confirmation token must not authorize a password reset.
	assert.Error(t, svc.Verify(service.PurposePasswordReset, account, token))
}

func TestActionTokenService_BoundToAccount(t *testing.T) {
	svc, err := NewActionTokenService(testActionTokenConfig())
	require.NoError(t, err)

	account := &entity.Account{ID: uuid.New()}
	other := &entity.Account{ID: uuid.New()}

	token, err := svc.Generate(service.PurposeEmailConfirmation, account)
	require.NoError(t, err)

	assert.Error(t, svc.Verify(service.PurposeEmailConfirmation, other, token))
}

func TestActionTokenService_InvalidatedByStateChange(t *testing.T) {
	svc, err := NewActionTokenService(testActionTokenConfig())
	require.NoError(t, err)

	account := &entity.Account{ID: uuid.New(), PasswordHash: "$2a$10$old"}

	resetToken, err := svc.Generate(service.PurposePasswordReset, account)
	require.NoError(t, err)
	require.NoError(t, svc.Verify(service.PurposePasswordReset, account, resetToken))

	// Changing the password invalidates every outstanding reset token.
	account.PasswordHash = "$2a$10$new"
	assert.Error(t, svc.Verify(service.PurposePasswordReset, account, resetToken))
}

func TestActionTokenService_ConfirmationInvalidatedAfterConfirm(t *testing.T) {
	svc, err := NewActionTokenService(testActionTokenConfig())
	require.NoError(t, err)

	account := &entity.Account{ID: uuid.New(), EmailConfirmed: false}

	token, err := svc.Generate(service.PurposeEmailConfirmation, account)
	require.NoError(t, err)
	require.NoError(t, svc.Verify(service.PurposeEmailConfirmation, account, token))

	account.EmailConfirmed = true
	assert.Error(t, svc.Verify(service.PurposeEmailConfirmation, account, token))
}

func TestActionTokenService_Expired(t *testing.T) {
	svc, err := NewActionTokenService(testActionTokenConfig())
	require.NoError(t, err)

	impl := svc.(*actionTokenService)
	account := &entity.Account{ID: uuid.New()}

	token, err := svc.Generate(service.PurposeEmailConfirmation, account)
	require.NoError(t, err)

	impl.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	assert.Error(t, svc.Verify(service.PurposeEmailConfirmation, account, token))
}

func TestActionTokenService_MalformedTokens(t *testing.T) {
	svc, err := NewActionTokenService(testActionTokenConfig())
	require.NoError(t, err)

	account := &entity.Account{ID: uuid.New()}

	for _, token := range []string{"", "no-separator", "notanumber.YWJj", "12345.%%%"} {
		assert.Error(t, svc.Verify(service.PurposeEmailConfirmation, account, token), "token %q", token)
	}
}

func TestActionTokenService_MissingSecret(t *testing.T) {
	svc, err := NewActionTokenService(&config.Config{ActionTokens: &config.ActionTokenConfig{}})
	assert.Error(t, err)
	assert.Nil(t, svc)
}
