// Package session contains the claims authority: pure authorization
// decisions over an already-validated principal. It performs no I/O; the
// delivery layer builds a Principal from token claims and use cases receive
// it as an explicit parameter.
package session

import (
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"

	"github.com/google/uuid"
)

// Principal is the validated identity attached to a request. The zero value
// is the anonymous principal.
type Principal struct {
	id            uuid.UUID
	username      string
	email         string
	roles         entity.RoleNames
	authenticated bool
}

// Anonymous returns the unauthenticated principal.
func Anonymous() *Principal {
	return &Principal{}
}

// New builds an authenticated principal from validated claims.
func New(id uuid.UUID, username, email string, roles entity.RoleNames) *Principal {
	return &Principal{
		id:            id,
		username:      username,
		email:         email,
		roles:         roles,
		authenticated: true,
	}
}

// IsAuthenticated reports whether the principal passed authentication.
func (p *Principal) IsAuthenticated() bool {
	return p != nil && p.authenticated
}

// RequireAuthenticated fails with ErrUnauthorized for anonymous principals.
func (p *Principal) RequireAuthenticated() error {
	if !p.IsAuthenticated() {
		return domainerrors.ErrUnauthorized.WrapMessage("caller is not authenticated")
	}

	return nil
}

// AccountID returns the principal's account id. Its absence on an
// authenticated principal is a protocol violation and surfaces as the same
// error kind as unauthenticated access.
func (p *Principal) AccountID() (uuid.UUID, error) {
	if err := p.RequireAuthenticated(); err != nil {
		return uuid.Nil, err
	}
	if p.id == uuid.Nil {
		return uuid.Nil, domainerrors.ErrUnauthorized.WrapMessage("subject claim missing")
	}

	return p.id, nil
}

// Username returns the principal's name claim.
func (p *Principal) Username() (string, error) {
	if err := p.RequireAuthenticated(); err != nil {
		return "", err
	}
	if p.username == "" {
		return "", domainerrors.ErrUnauthorized.WrapMessage("name claim missing")
	}

	return p.username, nil
}

// Email returns the principal's email claim.
func (p *Principal) Email() (string, error) {
	if err := p.RequireAuthenticated(); err != nil {
		return "", err
	}
	if p.email == "" {
		return "", domainerrors.ErrUnauthorized.WrapMessage("email claim missing")
	}

	return p.email, nil
}

// Roles returns the role claims held by the principal.
func (p *Principal) Roles() entity.RoleNames {
	if !p.IsAuthenticated() {
		return nil
	}

	return p.roles
}

// IsAuthorized reports whether the principal is the owner of the target
// account.
func (p *Principal) IsAuthorized(targetID uuid.UUID) bool {
	return p.IsAuthenticated() && p.id == targetID
}

// IsAuthorizedOrAdmin reports whether the principal owns the target account
// or holds an admin tier.
func (p *Principal) IsAuthorizedOrAdmin(targetID uuid.UUID) bool {
	return p.IsAuthorized(targetID) || p.IsAdmin()
}

// RequireAuthorizedOrAdmin fails with ErrForbidden unless the principal owns
// the target account or holds an admin tier. Anonymous callers fail with
// ErrUnauthorized.
func (p *Principal) RequireAuthorizedOrAdmin(targetID uuid.UUID) error {
	if err := p.RequireAuthenticated(); err != nil {
		return err
	}
	if !p.IsAuthorizedOrAdmin(targetID) {
		return domainerrors.ErrForbidden.WrapMessage("caller may not act on this account")
	}

	return nil
}

// HasRoles reports whether every required role is satisfied by the
// principal's claims, honoring the SuperAdmin-implies-Admin relation.
func (p *Principal) HasRoles(required ...entity.RoleName) bool {
	if !p.IsAuthenticated() {
		return false
	}
	for _, r := range required {
		if !p.roles.Satisfies(r) {
			return false
		}
	}

	return true
}

// IsAdmin reports whether the principal holds Admin, directly or through
// SuperAdmin.
func (p *Principal) IsAdmin() bool {
	return p.HasRoles(entity.RoleAdmin)
}

// IsSuperAdmin reports whether the principal holds SuperAdmin.
func (p *Principal) IsSuperAdmin() bool {
	return p.HasRoles(entity.RoleSuperAdmin)
}

// RequireAdmin fails with ErrForbidden unless the principal holds an admin
// tier.
func (p *Principal) RequireAdmin() error {
	if err := p.RequireAuthenticated(); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return domainerrors.ErrForbidden.WrapMessage("admin role required")
	}

	return nil
}

// RequireSuperAdmin fails with ErrForbidden unless the principal holds
// SuperAdmin.
func (p *Principal) RequireSuperAdmin() error {
	if err := p.RequireAuthenticated(); err != nil {
		return err
	}
	if !p.IsSuperAdmin() {
		return domainerrors.ErrForbidden.WrapMessage("super-admin role required")
	}

	return nil
}
