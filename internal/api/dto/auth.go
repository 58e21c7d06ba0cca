package dto

import (
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/api/validation"
	"github.com/hugh/go-attend/internal/auth"
	"github.com/hugh/go-attend/internal/database/models"
)

type RegisterRequest struct {
	Email       string     `json:"email"`
	Password    string     `json:"password"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	CompanyID   *uuid.UUID `json:"company_id,omitempty"`
	CompanyName string     `json:"company_name,omitempty"`
	Location    string     `json:"location,omitempty"`
}

// Validate checks the shape of the request. Role-specific rules live in
// auth.RegisterInput.
func (r RegisterRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if _, issue := validation.Email(r.Email); issue != "" {
		errors["email"] = issue
	}
	if issue := validation.PasswordProblem(r.Password); issue != "" {
		errors["password"] = issue
	}
	if validation.Text(r.Name, validation.MaxNameLen) == "" {
		errors["name"] = "Name is required"
	}
	if r.Role == "" {
		errors["role"] = "Role is required"
	}

	return errors
}

func (r RegisterRequest) Input() auth.RegisterInput {
	role, _ := models.ParseRoleName(r.Role)
	return auth.RegisterInput{
		Email:       strings.TrimSpace(r.Email),
		Password:    r.Password,
		Name:        validation.Text(r.Name, validation.MaxNameLen),
		Location:    validation.Text(r.Location, validation.MaxNameLen),
		Role:        role,
		CompanyID:   r.CompanyID,
		CompanyName: validation.Text(r.CompanyName, validation.MaxNameLen),
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type UserDTO struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	IsSuperuser bool    `json:"is_superuser"`
	CompanyID   *string `json:"company_id"`
	CompanyName string  `json:"company_name,omitempty"`
}

func NewUserDTO(u *models.User) UserDTO {
	out := UserDTO{
		ID:          u.ID.String(),
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.RoleName()),
		IsSuperuser: u.IsSuperuser,
	}
	if u.CompanyID != nil {
		id := u.CompanyID.String()
		out.CompanyID = &id
	}
	if u.Company != nil {
		out.CompanyName = u.Company.Name
	}
	return out
}
