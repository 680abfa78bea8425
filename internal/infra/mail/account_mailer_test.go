package mail

import (
	"context"
	"net/url"
	"testing"

	"passport/config"
	"passport/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingMailer struct {
	recipientName  string
	recipientEmail string
	subject        string
	body           string
}

func (m *capturingMailer) Send(_ context.Context, recipientName, recipientEmail, subject, body string) error {
	m.recipientName = recipientName
	m.recipientEmail = recipientEmail
	m.subject = subject
	m.body = body

	return nil
}

func testMailConfig() *config.Config {
	return &config.Config{
		Mail: &config.MailConfig{
			ConfirmationBaseURL:  "http://localhost:8080/api/auth/confirm-email",
			ResetPasswordBaseURL: "http://localhost:8080/reset-password",
		},
	}
}

func TestAccountMailer_SendConfirmationEmail(t *testing.T) {
	capture := &capturingMailer{}
	mailer, err := NewAccountMailer(testMailConfig(), capture)
	require.NoError(t, err)

	account := &entity.Account{
		ID:        uuid.New(),
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
	}

	err = mailer.SendConfirmationEmail(context.Background(), account, "enc-token")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", capture.recipientEmail)
	assert.Equal(t, "Ada Lovelace", capture.recipientName)
	assert.Equal(t, "Confirm your email", capture.subject)
	assert.Contains(t, capture.body, "userId="+account.ID.String())
	assert.Contains(t, capture.body, "token=enc-token")
}

func TestAccountMailer_SendPasswordResetEmail_EscapesToken(t *testing.T) {
	capture := &capturingMailer{}
	mailer, err := NewAccountMailer(testMailConfig(), capture)
	require.NoError(t, err)

	account := &entity.Account{ID: uuid.New(), FirstName: "Ada", Email: "ada@example.com"}
	token := "abc+/=="

	err = mailer.SendPasswordResetEmail(context.Background(), account, token)
	require.NoError(t, err)

	assert.Equal(t, "Reset your password", capture.subject)
	assert.Contains(t, capture.body, "token="+url.QueryEscape(token))
}

func TestAccountMailer_SendWelcomeEmail(t *testing.T) {
	capture := &capturingMailer{}
	mailer, err := NewAccountMailer(testMailConfig(), capture)
	require.NoError(t, err)

	account := &entity.Account{ID: uuid.New(), FirstName: "Ada", Email: "ada@example.com"}

	err = mailer.SendWelcomeEmail(context.Background(), account)
	require.NoError(t, err)

	assert.Equal(t, "Welcome", capture.subject)
	assert.Contains(t, capture.body, "Ada")
}

func TestAccountMailer_MissingBaseURLs(t *testing.T) {
	mailer, err := NewAccountMailer(&config.Config{Mail: &config.MailConfig{}}, &capturingMailer{})
	assert.Error(t, err)
	assert.Nil(t, mailer)
}
