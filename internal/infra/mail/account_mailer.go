package mail

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"passport/config"
	"passport/internal/domain/entity"
	"passport/internal/domain/service"
)

// accountMailer composes the account lifecycle emails and hands them to a Mailer.
type accountMailer struct {
	mailer              service.Mailer
	confirmationBaseURL string
	resetBaseURL        string
}

// NewAccountMailer is the constructor for accountMailer.
func NewAccountMailer(cfg *config.Config, mailer service.Mailer) (service.AccountMailer, error) {
	if cfg.Mail == nil || cfg.Mail.ConfirmationBaseURL == "" || cfg.Mail.ResetPasswordBaseURL == "" {
		return nil, errors.New("mail link base urls must be provided")
	}

	return &accountMailer{
		mailer:              mailer,
		confirmationBaseURL: cfg.Mail.ConfirmationBaseURL,
		resetBaseURL:        cfg.Mail.ResetPasswordBaseURL,
	}, nil
}

// SendConfirmationEmail sends the account confirmation link embedding the encoded token.
func (m *accountMailer) SendConfirmationEmail(ctx context.Context, account *entity.Account, encodedToken string) error {
	link, err := buildLink(m.confirmationBaseURL, account, encodedToken)
	if err != nil {
		return err
	}

	body, err := renderTemplate(confirmationTemplate, templateData{Name: account.DisplayName(), Link: link})
	if err != nil {
		return err
	}

	return m.mailer.Send(ctx, account.DisplayName(), account.Email, "Confirm your email", body)
}

// SendWelcomeEmail greets an account after successful confirmation.
func (m *accountMailer) SendWelcomeEmail(ctx context.Context, account *entity.Account) error {
	body, err := renderTemplate(welcomeTemplate, templateData{Name: account.DisplayName()})
	if err != nil {
		return err
	}

	return m.mailer.Send(ctx, account.DisplayName(), account.Email, "Welcome", body)
}

// SendPasswordResetEmail sends the reset link embedding the encoded token.
func (m *accountMailer) SendPasswordResetEmail(ctx context.Context, account *entity.Account, encodedToken string) error {
	link, err := buildLink(m.resetBaseURL, account, encodedToken)
	if err != nil {
		return err
	}

	body, err := renderTemplate(passwordResetTemplate, templateData{Name: account.DisplayName(), Link: link})
	if err != nil {
		return err
	}

	return m.mailer.Send(ctx, account.DisplayName(), account.Email, "Reset your password", body)
}

func buildLink(baseURL string, account *entity.Account, encodedToken string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.Wrapf(err, "parse base url %s", baseURL)
	}

	query := parsed.Query()
	query.Set("userId", account.ID.String())
	query.Set("token", encodedToken)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}
