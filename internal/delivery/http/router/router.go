// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"passport/internal/delivery/http/middleware"
	"passport/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	RoleHandler    *handler.RoleHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	userHandler    *handler.UserHandler
	roleHandler    *handler.RoleHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		userHandler:    params.UserHandler,
		roleHandler:    params.RoleHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Anonymous auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/refresh-login", r.authHandler.RefreshLogin)
		authGroup.PATCH("/confirm-email", r.authHandler.ConfirmEmail)
	}

	// Account routes; password reset is self-or-admin, the rest is gated in
	// the use cases
	userGroup := e.Group("/users", r.authMiddleware.Authenticate)
	{
		userGroup.GET("", r.userHandler.ListUsers)
		userGroup.GET("/:id", r.userHandler.GetUser)
		userGroup.GET("/:id/roles", r.userHandler.GetUserRoles)
		userGroup.DELETE("/:id", r.userHandler.DeleteUser)
		userGroup.GET("/:id/reset-password", r.authHandler.RequestPasswordReset)
		userGroup.PATCH("/reset-password", r.authHandler.ResetPassword)
		userGroup.PATCH("/:id/assign-roles", r.userHandler.AssignRoles)
	}

	// Role administration routes
	roleGroup := e.Group("/roles", r.authMiddleware.Authenticate)
	{
		roleGroup.GET("", r.roleHandler.ListRoles)
		roleGroup.POST("", r.roleHandler.CreateRole)
		roleGroup.GET("/:id", r.roleHandler.GetRole)
		roleGroup.GET("/:id/users", r.roleHandler.GetRoleUsers)
		roleGroup.PATCH("/:id", r.roleHandler.RenameRole)
		roleGroup.DELETE("/:id", r.roleHandler.DeleteRole)
		roleGroup.PATCH("/:id/assign-users", r.roleHandler.AssignUsers)
	}
}
