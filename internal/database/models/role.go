package models

import (
	"fmt"
	"strings"
)

// RoleName is the closed set of roles a user can hold.
type RoleName string

const (
	RoleEmployee      RoleName = "Employee"
	RoleAdministrator RoleName = "Administrator"
)

// AllRoles lists every role variant in a stable order.
var AllRoles = []RoleName{RoleEmployee, RoleAdministrator}

func (r RoleName) Valid() bool {
	switch r {
	case RoleEmployee, RoleAdministrator:
		return true
	}
	return false
}

// ParseRoleName matches s against the known roles ignoring case.
func ParseRoleName(s string) (RoleName, error) {
	for _, r := range AllRoles {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type Role struct {
	Base
	Name RoleName `gorm:"type:varchar(20);uniqueIndex;not null" json:"name"`
}

func (Role) TableName() string {
	return "roles"
}
