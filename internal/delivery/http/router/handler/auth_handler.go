package handler

import (
	"log/slog"
	"net/http"

	deliverycontext "passport/internal/delivery/context"
	"passport/internal/delivery/http/response"
	"passport/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	uc     usecase.AuthUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:     uc,
		logger: logger,
	}
}

// Register handles the account registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var input usecase.RegisterInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Register(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newAccountView(output.Account), "Account registered successfully")
}

// Login handles the login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var input usecase.LoginInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Login(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newTokenView(output), "Login successful")
}

// RefreshLogin handles the token rotation request.
func (h *AuthHandler) RefreshLogin(c echo.Context) error {
	var input usecase.RefreshLoginInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid refresh input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.RefreshLogin(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newTokenView(output), "Token refreshed successfully")
}

// ConfirmEmail handles the emailed confirmation link. The account id and
// token travel as query parameters so the link works from a mail client.
func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	accountID, err := uuid.Parse(c.QueryParam("userId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid account id")
	}

	input := usecase.ConfirmEmailInput{
		AccountID: accountID,
		Token:     c.QueryParam("token"),
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.ConfirmEmail(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Email confirmed successfully")
}

// RequestPasswordReset handles the request to email a password reset link to
// the account in the path.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid account id")
	}

	input := usecase.RequestPasswordResetInput{AccountID: accountID}
	principal := deliverycontext.GetPrincipal(c)

	if err := h.uc.RequestPasswordReset(c.Request().Context(), principal, input); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password reset email sent")
}

// ResetPassword handles the password replacement request. The account id and
// token come from the emailed link's query parameters, the new password from
// the body.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	accountID, err := uuid.Parse(c.QueryParam("userId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid account id")
	}

	var body struct {
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}
	if err := c.Bind(&body); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid password reset input")
	}

	input := usecase.ResetPasswordInput{
		AccountID:   accountID,
		Token:       c.QueryParam("token"),
		NewPassword: body.NewPassword,
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	principal := deliverycontext.GetPrincipal(c)
	if err := h.uc.ResetPassword(c.Request().Context(), principal, input); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password reset successfully")
}
