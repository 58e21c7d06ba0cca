// Package access derives the data partition a caller may see from their role
// and company, and applies it to gorm queries before any caller-supplied
// filter.
package access

import (
	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/database/models"
	"gorm.io/gorm"
)

// Tier is a visibility level. Tiers are ordered: a higher tier satisfies any
// requirement for a lower one.
type Tier int

const (
	TierNone Tier = iota
	TierSelf
	TierCompany
	TierPlatform
)

func (t Tier) String() string {
	switch t {
	case TierSelf:
		return "self"
	case TierCompany:
		return "company"
	case TierPlatform:
		return "platform"
	}
	return "none"
}

// Caller is the authenticated identity a request acts on behalf of.
// CompanyID is uuid.Nil for users without a company.
type Caller struct {
	UserID    uuid.UUID
	Role      models.RoleName
	CompanyID uuid.UUID
	Superuser bool
}

// CallerFromUser builds a Caller from a loaded user. The Role association
// must be preloaded for the role to be picked up.
func CallerFromUser(u *models.User) Caller {
	return Caller{
		UserID:    u.ID,
		Role:      u.RoleName(),
		CompanyID: u.CompanyUUID(),
		Superuser: u.IsSuperuser,
	}
}

func (c Caller) Authenticated() bool {
	return c.UserID != uuid.Nil
}

func (c Caller) HasCompany() bool {
	return c.CompanyID != uuid.Nil
}

// TierFor maps a caller to its visibility tier.
func TierFor(c Caller) Tier {
	if !c.Authenticated() {
		return TierNone
	}
	if c.Superuser {
		return TierPlatform
	}
	switch c.Role {
	case models.RoleAdministrator:
		return TierCompany
	case models.RoleEmployee:
		return TierSelf
	}
	return TierSelf
}

// Scope is the partition of rows visible to one caller.
type Scope struct {
	caller Caller
	tier   Tier
}

// ScopeFor returns the caller's full scope.
func ScopeFor(c Caller) Scope {
	return Scope{caller: c, tier: TierFor(c)}
}

// SelfScope returns a scope limited to the caller's own rows regardless of
// role. Used by the "mine" endpoints.
func SelfScope(c Caller) Scope {
	if !c.Authenticated() {
		return Scope{caller: c, tier: TierNone}
	}
	return Scope{caller: c, tier: TierSelf}
}

func (s Scope) Tier() Tier {
	return s.tier
}

func (s Scope) Caller() Caller {
	return s.caller
}

// Require fails with an authentication error for anonymous callers and an
// authorization error when the scope's tier is below min.
func (s Scope) Require(min Tier) error {
	if s.tier == TierNone {
		return apperr.Unauthenticated("authentication credentials were not provided")
	}
	if s.tier < min {
		return apperr.Forbidden("you do not have permission to perform this action")
	}
	return nil
}

// Attendance narrows a query on attendance_records.
func (s Scope) Attendance(db *gorm.DB) *gorm.DB {
	switch s.tier {
	case TierPlatform:
		return db
	case TierCompany:
		if !s.caller.HasCompany() {
			return none(db)
		}
		members := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.User{}).
			Select("id").
			Where("company_id = ?", s.caller.CompanyID)
		return db.Where("attendance_records.user_id IN (?)", members)
	case TierSelf:
		return db.Where("attendance_records.user_id = ?", s.caller.UserID)
	}
	return none(db)
}

// Users narrows a query on users. Company administrators see the employees of
// their own company; other administrators are excluded from the roster.
func (s Scope) Users(db *gorm.DB) *gorm.DB {
	switch s.tier {
	case TierPlatform:
		return db
	case TierCompany:
		if !s.caller.HasCompany() {
			return none(db)
		}
		employeeRole := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Role{}).
			Select("id").
			Where("name = ?", models.RoleEmployee)
		return db.Where("users.company_id = ? AND users.role_id IN (?)", s.caller.CompanyID, employeeRole)
	case TierSelf:
		return db.Where("users.id = ?", s.caller.UserID)
	}
	return none(db)
}

// Companies narrows a query on companies to the caller's own company.
func (s Scope) Companies(db *gorm.DB) *gorm.DB {
	switch s.tier {
	case TierPlatform:
		return db
	case TierCompany, TierSelf:
		if !s.caller.HasCompany() {
			return none(db)
		}
		return db.Where("companies.id = ?", s.caller.CompanyID)
	}
	return none(db)
}

// ForCompany returns a company-tier scope bound to companyID, for background
// jobs that act on behalf of a company rather than a user.
func ForCompany(companyID uuid.UUID) Scope {
	return Scope{
		caller: Caller{CompanyID: companyID, Role: models.RoleAdministrator},
		tier:   TierCompany,
	}
}

func none(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}
