package context

import (
	"passport/internal/domain/session"

	"github.com/labstack/echo/v4"
)

// GetPrincipal extracts the authenticated principal from echo.Context.
// Requests that never passed authentication yield the anonymous principal.
func GetPrincipal(c echo.Context) *session.Principal {
	if principal, ok := c.Get(string(KeyPrincipal)).(*session.Principal); ok && principal != nil {
		return principal
	}

	return session.Anonymous()
}

// SetPrincipal stores the authenticated principal in echo.Context.
func SetPrincipal(c echo.Context, principal *session.Principal) {
	c.Set(string(KeyPrincipal), principal)
}
