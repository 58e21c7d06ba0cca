package dto

import (
	"github.com/hugh/go-attend/internal/api/validation"
	"github.com/hugh/go-attend/internal/database/models"
	"github.com/hugh/go-attend/internal/identity"
)

type CompanyResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Location *string `json:"location"`
}

func NewCompanyResponse(c *models.Company) CompanyResponse {
	return CompanyResponse{ID: c.ID.String(), Name: c.Name, Location: c.Location}
}

type EmployeeSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CompanyDetailResponse struct {
	CompanyResponse
	Employees []EmployeeSummary `json:"employees"`
}

func NewCompanyDetailResponse(d *identity.CompanyDetail) CompanyDetailResponse {
	out := CompanyDetailResponse{
		CompanyResponse: NewCompanyResponse(&d.Company),
		Employees:       make([]EmployeeSummary, len(d.Employees)),
	}
	for i, e := range d.Employees {
		out.Employees[i] = EmployeeSummary{ID: e.ID.String(), Name: e.Name}
	}
	return out
}

type UpdateCompanyRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
}

func (r UpdateCompanyRequest) Input() identity.UpdateCompanyInput {
	return identity.UpdateCompanyInput{Name: cleanName(r.Name), Location: cleanName(r.Location)}
}

func cleanName(s *string) *string {
	if s == nil {
		return nil
	}
	v := validation.Text(*s, validation.MaxNameLen)
	return &v
}

type EmployeeCompany struct {
	Name     string  `json:"name"`
	Location *string `json:"location"`
}

// EmployeeResponse is the roster view of a user.
type EmployeeResponse struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Email   string           `json:"email"`
	Role    string           `json:"role,omitempty"`
	Company *EmployeeCompany `json:"company"`
}

func NewEmployeeResponse(u *models.User) EmployeeResponse {
	out := EmployeeResponse{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.RoleName()),
	}
	if u.Company != nil {
		out.Company = &EmployeeCompany{Name: u.Company.Name, Location: u.Company.Location}
	}
	return out
}

func NewEmployeeList(users []models.User) []EmployeeResponse {
	out := make([]EmployeeResponse, len(users))
	for i := range users {
		out[i] = NewEmployeeResponse(&users[i])
	}
	return out
}
