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

// RoleHandler holds dependencies for role administration handlers.
type RoleHandler struct {
	uc     usecase.RoleUsecase
	logger *slog.Logger
}

// NewRoleHandler is the constructor for RoleHandler, injected by Fx.
func NewRoleHandler(uc usecase.RoleUsecase, logger *slog.Logger) *RoleHandler {
	return &RoleHandler{
		uc:     uc,
		logger: logger,
	}
}

// ListRoles handles the request to list all roles.
func (h *RoleHandler) ListRoles(c echo.Context) error {
	principal := deliverycontext.GetPrincipal(c)

	roles, err := h.uc.ListRoles(c.Request().Context(), principal)
	if err != nil {
		return errors.WithStack(err)
	}

	views := make([]RoleView, 0, len(roles))
	for _, role := range roles {
		views = append(views, newRoleView(role))
	}

	return response.Success(c, http.StatusOK, views, "Roles retrieved successfully")
}

// GetRole handles the request to retrieve a role with its members.
func (h *RoleHandler) GetRole(c echo.Context) error {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid role id")
	}

	principal := deliverycontext.GetPrincipal(c)

	role, err := h.uc.GetRole(c.Request().Context(), principal, roleID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newRoleWithMembersView(role), "Role retrieved successfully")
}

// GetRoleUsers handles the request to list a role's members.
func (h *RoleHandler) GetRoleUsers(c echo.Context) error {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid role id")
	}

	principal := deliverycontext.GetPrincipal(c)

	role, err := h.uc.GetRole(c.Request().Context(), principal, roleID)
	if err != nil {
		return errors.WithStack(err)
	}

	views := make([]AccountView, 0, len(role.Members))
	for _, member := range role.Members {
		views = append(views, newAccountView(member))
	}

	return response.Success(c, http.StatusOK, views, "Role members retrieved successfully")
}

// CreateRole handles the request to create a role.
func (h *RoleHandler) CreateRole(c echo.Context) error {
	var input usecase.CreateRoleInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid role input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	principal := deliverycontext.GetPrincipal(c)

	role, err := h.uc.CreateRole(c.Request().Context(), principal, input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newRoleView(role), "Role created successfully")
}

// RenameRole handles the request to rename a role.
func (h *RoleHandler) RenameRole(c echo.Context) error {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid role id")
	}

	var body struct {
		Name string `json:"name" validate:"required,max=100"`
	}
	if err := c.Bind(&body); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid role input")
	}
	if err := c.Validate(&body); err != nil {
		return errors.WithStack(err)
	}

	principal := deliverycontext.GetPrincipal(c)
	input := usecase.RenameRoleInput{
		RoleID: roleID,
		Name:   body.Name,
	}

	role, err := h.uc.RenameRole(c.Request().Context(), principal, input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newRoleView(role), "Role renamed successfully")
}

// DeleteRole handles the request to remove a role.
func (h *RoleHandler) DeleteRole(c echo.Context) error {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid role id")
	}

	principal := deliverycontext.GetPrincipal(c)

	if err := h.uc.DeleteRole(c.Request().Context(), principal, roleID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Role deleted successfully")
}

// AssignUsers handles the request to replace a role's member set.
func (h *RoleHandler) AssignUsers(c echo.Context) error {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid role id")
	}

	// The body is a bare array of usernames.
	var usernames []string
	if err := c.Bind(&usernames); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid member assignment input")
	}

	principal := deliverycontext.GetPrincipal(c)
	input := usecase.AssignUsersToRoleInput{
		RoleID:    roleID,
		Usernames: usernames,
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.AssignUsersToRole(c.Request().Context(), principal, input); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Members assigned successfully")
}
