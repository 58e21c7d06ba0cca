package models

import "github.com/google/uuid"

type User struct {
	Base
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Name         string     `gorm:"not null;index" json:"name"`
	Location     *string    `json:"location,omitempty"`
	RoleID       *uuid.UUID `gorm:"type:uuid;index" json:"role_id,omitempty"`
	CompanyID    *uuid.UUID `gorm:"type:uuid;index" json:"company_id,omitempty"`
	IsSuperuser  bool       `gorm:"not null" json:"is_superuser"`
	IsActive     bool       `gorm:"not null" json:"is_active"`

	// Relationships
	Role    *Role    `gorm:"foreignKey:RoleID;constraint:OnDelete:RESTRICT" json:"role,omitempty"`
	Company *Company `gorm:"foreignKey:CompanyID;constraint:OnDelete:SET NULL" json:"company,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// RoleName returns the user's role, or the empty string when none is assigned
// or the association was not loaded.
func (u *User) RoleName() RoleName {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// CompanyUUID returns the company id or uuid.Nil for users without a company.
func (u *User) CompanyUUID() uuid.UUID {
	if u.CompanyID == nil {
		return uuid.Nil
	}
	return *u.CompanyID
}
