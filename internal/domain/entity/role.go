// Package entity contains the core business objects of the project.
package entity

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Role is a named permission group. Accounts and roles form a free
// many-to-many association with no inherent hierarchy; the privileged tiers
// below are interpreted by the session layer.
type Role struct {
	ID        uuid.UUID  // The unique identifier for the role.
	Name      string     // Unique role name.
	CreatedAt time.Time  // Timestamp of role creation.
	UpdatedAt *time.Time // Nil until the first rename.
}

// RoleName identifies the privileged role tiers known to the authorization
// policy. Arbitrary role names may still be stored; only these participate in
// privilege checks.
type RoleName string

const (
	// RoleUser is the unprivileged default tier.
	RoleUser RoleName = "User"
	// RoleAdmin may act on other accounts.
	RoleAdmin RoleName = "Admin"
	// RoleSuperAdmin may manage roles and assignments, and implies RoleAdmin.
	RoleSuperAdmin RoleName = "SuperAdmin"
)

// String returns the string representation of the RoleName.
func (r RoleName) String() string {
	return string(r)
}

// Implies reports whether holding r satisfies a check for other.
// Every tier implies itself; SuperAdmin additionally implies Admin.
func (r RoleName) Implies(other RoleName) bool {
	if r == other {
		return true
	}

	return r == RoleSuperAdmin && other == RoleAdmin
}

// RoleNames is a slice of RoleName for convenience.
type RoleNames []RoleName

// Satisfies reports whether any held role implies the required one.
func (rs RoleNames) Satisfies(required RoleName) bool {
	return slices.ContainsFunc(rs, func(r RoleName) bool {
		return r.Implies(required)
	})
}

// ToStrings converts RoleNames to []string for token claims.
func (rs RoleNames) ToStrings() []string {
	result := make([]string, len(rs))
	for i, r := range rs {
		result[i] = r.String()
	}

	return result
}

// RoleNamesFromStrings converts raw claim strings to RoleNames. Unknown names
// are carried through unchanged; they simply never satisfy a privileged check.
func RoleNamesFromStrings(ss []string) RoleNames {
	result := make(RoleNames, 0, len(ss))
	for _, s := range ss {
		result = append(result, RoleName(s))
	}

	return result
}
