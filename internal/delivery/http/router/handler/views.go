// Package handler contains the HTTP handlers for the application.
package handler

import (
	"time"

	"passport/internal/domain/entity"
	"passport/internal/usecase"

	"github.com/google/uuid"
)

// AccountView is the wire representation of an account. Credential and
// concurrency columns never leave the service.
type AccountView struct {
	ID             uuid.UUID  `json:"id"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	EmailConfirmed bool       `json:"emailConfirmed"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// RoleView is the wire representation of a role.
type RoleView struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// AccountWithRolesView pairs an account with its role names.
type AccountWithRolesView struct {
	AccountView
	Roles []RoleView `json:"roles"`
}

// RoleWithMembersView pairs a role with its member accounts.
type RoleWithMembersView struct {
	RoleView
	Members []AccountView `json:"members"`
}

// TokenView is the wire representation of an issued token pair.
type TokenView struct {
	AccessToken        string    `json:"accessToken"`
	AccessTokenEndDate time.Time `json:"accessTokenEndDate"`
	RefreshToken       string    `json:"refreshToken"`
}

func newAccountView(account *entity.Account) AccountView {
	return AccountView{
		ID:             account.ID,
		FirstName:      account.FirstName,
		LastName:       account.LastName,
		Username:       account.Username,
		Email:          account.Email,
		EmailConfirmed: account.EmailConfirmed,
		CreatedAt:      account.CreatedAt,
		UpdatedAt:      account.UpdatedAt,
	}
}

func newRoleView(role *entity.Role) RoleView {
	return RoleView{
		ID:        role.ID,
		Name:      role.Name,
		CreatedAt: role.CreatedAt,
		UpdatedAt: role.UpdatedAt,
	}
}

func newAccountWithRolesView(item *usecase.AccountWithRoles) AccountWithRolesView {
	roles := make([]RoleView, 0, len(item.Roles))
	for _, role := range item.Roles {
		roles = append(roles, newRoleView(role))
	}

	return AccountWithRolesView{
		AccountView: newAccountView(item.Account),
		Roles:       roles,
	}
}

func newRoleWithMembersView(item *usecase.RoleWithMembers) RoleWithMembersView {
	members := make([]AccountView, 0, len(item.Members))
	for _, account := range item.Members {
		members = append(members, newAccountView(account))
	}

	return RoleWithMembersView{
		RoleView: newRoleView(item.Role),
		Members:  members,
	}
}

func newTokenView(output *usecase.TokenOutput) TokenView {
	return TokenView{
		AccessToken:        output.AccessToken,
		AccessTokenEndDate: output.AccessTokenEndDate,
		RefreshToken:       output.RefreshToken,
	}
}
