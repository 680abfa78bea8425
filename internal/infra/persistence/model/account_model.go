// Package model defines the GORM persistence models mirroring the database schema.
package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountModel mirrors the 'accounts' table. PostgreSQL generates UUIDs via uuid_generate_v7().
// Username and email carry normalized shadow columns so uniqueness is
// case-insensitive while the display casing is preserved.
type AccountModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	FirstName             string    `gorm:"type:varchar(100);not null"`
	LastName              string    `gorm:"type:varchar(100);not null"`
	Username              string    `gorm:"type:varchar(100);not null"`
	NormalizedUsername    string    `gorm:"type:varchar(100);unique;not null"`
	Email                 string    `gorm:"type:varchar(255);not null"`
	NormalizedEmail       string    `gorm:"type:varchar(255);unique;not null"`
	EmailConfirmed        bool      `gorm:"not null;default:false"`
	PasswordHash          string    `gorm:"type:varchar(255);not null"`
	FailedAccessCount     int       `gorm:"not null;default:0"`
	LockoutUntil          *time.Time
	RefreshToken          string `gorm:"type:text"`
	RefreshTokenExpiresAt *time.Time
	Version               int64 `gorm:"not null;default:1"`
	CreatedAt             time.Time
	// Stays null until the first mutation after creation, so GORM's
	// touch-on-create convention is disabled and repositories set it.
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"`

	Roles []RoleModel `gorm:"many2many:account_roles;joinForeignKey:AccountID;joinReferences:RoleID"`
}

// TableName explicitly sets the table name for GORM.
func (AccountModel) TableName() string {
	return "accounts"
}
