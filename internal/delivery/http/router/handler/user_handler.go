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

// UserHandler holds dependencies for account administration handlers.
type UserHandler struct {
	uc     usecase.UserUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.UserUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		uc:     uc,
		logger: logger,
	}
}

// ListUsers handles the request to list all accounts with their roles.
func (h *UserHandler) ListUsers(c echo.Context) error {
	principal := deliverycontext.GetPrincipal(c)

	users, err := h.uc.ListUsers(c.Request().Context(), principal)
	if err != nil {
		return errors.WithStack(err)
	}

	views := make([]AccountWithRolesView, 0, len(users))
	for _, user := range users {
		views = append(views, newAccountWithRolesView(user))
	}

	return response.Success(c, http.StatusOK, views, "Users retrieved successfully")
}

// GetUser handles the request to retrieve a single account.
func (h *UserHandler) GetUser(c echo.Context) error {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid account id")
	}

	principal := deliverycontext.GetPrincipal(c)

	user, err := h.uc.GetUser(c.Request().Context(), principal, accountID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newAccountWithRolesView(user), "User retrieved successfully")
}

// GetUserRoles handles the request to list an account's roles.
func (h *UserHandler) GetUserRoles(c echo.Context) error {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid account id")
	}

	principal := deliverycontext.GetPrincipal(c)

	user, err := h.uc.GetUser(c.Request().Context(), principal, accountID)
	if err != nil {
		return errors.WithStack(err)
	}

	views := make([]RoleView, 0, len(user.Roles))
	for _, role := range user.Roles {
		views = append(views, newRoleView(role))
	}

	return response.Success(c, http.StatusOK, views, "User roles retrieved successfully")
}

// DeleteUser handles the request to remove an account.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid account id")
	}

	principal := deliverycontext.GetPrincipal(c)

	if err := h.uc.DeleteUser(c.Request().Context(), principal, accountID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "User deleted successfully")
}

// AssignRoles handles the request to replace an account's role set.
func (h *UserHandler) AssignRoles(c echo.Context) error {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid account id")
	}

	// The body is a bare array of role ids.
	var roleIDs []uuid.UUID
	if err := c.Bind(&roleIDs); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid role assignment input")
	}

	principal := deliverycontext.GetPrincipal(c)
	input := usecase.AssignRolesToUserInput{
		AccountID: accountID,
		RoleIDs:   roleIDs,
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.AssignRolesToUser(c.Request().Context(), principal, input); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Roles assigned successfully")
}
