// Package identity serves the user, company and role records behind the
// roster and company management endpoints.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/access"
	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/database"
	"github.com/hugh/go-attend/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrEmployeeNotFound = apperr.NotFound("employee not found")
	ErrCompanyNotFound  = apperr.NotFound("company not found")
	ErrRoleNotFound     = apperr.NotFound("role not found")
	ErrRoleInUse        = apperr.Conflict("role is still assigned to users")
)

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// EnsureRoles creates any missing role rows. The SQL migrations seed them, so
// this only matters for databases built with AutoMigrate.
func (s *Service) EnsureRoles(ctx context.Context) error {
	for _, name := range models.AllRoles {
		role := models.Role{}
		if err := s.db.WithContext(ctx).Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("ensuring role %s: %w", name, err)
		}
	}
	return nil
}

// ListEmployees returns one page of the caller's employee roster, by name.
func (s *Service) ListEmployees(ctx context.Context, caller access.Caller, page database.Page) ([]models.User, int64, error) {
	scope := access.ScopeFor(caller)
	if err := scope.Require(access.TierCompany); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Scopes(scope.Users).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting employees: %w", err)
	}

	users := []models.User{}
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Scopes(scope.Users, page.Scope).
		Preload("Role").
		Preload("Company").
		Order("users.name").
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("listing employees: %w", err)
	}

	return users, total, nil
}

// GetEmployee looks up an employee within the caller's roster. Employees of
// other companies are reported as not found.
func (s *Service) GetEmployee(ctx context.Context, caller access.Caller, id uuid.UUID) (*models.User, error) {
	scope := access.ScopeFor(caller)
	if err := scope.Require(access.TierCompany); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Scopes(scope.Users).
		Preload("Role").
		Preload("Company").
		Where("users.id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("loading employee: %w", err)
	}
	return &user, nil
}

// ListUsers returns one page of every user on the platform, by name.
func (s *Service) ListUsers(ctx context.Context, caller access.Caller, page database.Page) ([]models.User, int64, error) {
	if err := access.ScopeFor(caller).Require(access.TierPlatform); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	users := []models.User{}
	if err := s.db.WithContext(ctx).
		Scopes(page.Scope).
		Preload("Role").
		Preload("Company").
		Order("users.name").
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, total, nil
}

// ListCompanies returns the companies visible to the caller: their own, or all
// of them for platform staff.
func (s *Service) ListCompanies(ctx context.Context, caller access.Caller) ([]models.Company, error) {
	scope := access.ScopeFor(caller)
	if err := scope.Require(access.TierSelf); err != nil {
		return nil, err
	}

	companies := []models.Company{}
	if err := s.db.WithContext(ctx).
		Model(&models.Company{}).
		Scopes(scope.Companies).
		Order("companies.name").
		Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("listing companies: %w", err)
	}
	return companies, nil
}

// CompanyDetail is a company with its employee roster.
type CompanyDetail struct {
	Company   models.Company
	Employees []models.User
}

func (s *Service) GetCompany(ctx context.Context, caller access.Caller, id uuid.UUID) (*CompanyDetail, error) {
	scope := access.ScopeFor(caller)
	if err := scope.Require(access.TierSelf); err != nil {
		return nil, err
	}

	company, err := s.scopedCompany(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	employees := []models.User{}
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Scopes(access.ForCompany(company.ID).Users).
		Order("users.name").
		Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("listing company employees: %w", err)
	}

	return &CompanyDetail{Company: *company, Employees: employees}, nil
}

// UpdateCompanyInput holds the mutable company fields; nil leaves a field
// unchanged.
type UpdateCompanyInput struct {
	Name     *string
	Location *string
}

func (in UpdateCompanyInput) Validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return apperr.Field("name", "name must not be empty")
	}
	return nil
}

// UpdateCompany changes an administrator's own company.
func (s *Service) UpdateCompany(ctx context.Context, caller access.Caller, id uuid.UUID, in UpdateCompanyInput) (*models.Company, error) {
	scope := access.ScopeFor(caller)
	if err := scope.Require(access.TierCompany); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	company, err := s.scopedCompany(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Location != nil {
		updates["location"] = strings.TrimSpace(*in.Location)
	}
	if len(updates) == 0 {
		return company, nil
	}

	if err := s.db.WithContext(ctx).Model(company).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("updating company: %w", err)
	}

	s.logger.Info("company updated", "company_id", company.ID, "by", caller.UserID)
	return s.scopedCompany(ctx, scope, id)
}

// DeleteRole removes a role that no user holds.
func (s *Service) DeleteRole(ctx context.Context, caller access.Caller, id uuid.UUID) error {
	if err := access.ScopeFor(caller).Require(access.TierPlatform); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.Role{}, "id = ?", id)
	if result.Error != nil {
		if database.IsForeignKeyViolation(result.Error) {
			return ErrRoleInUse
		}
		return fmt.Errorf("deleting role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}

	s.logger.Info("role deleted", "role_id", id, "by", caller.UserID)
	return nil
}

func (s *Service) scopedCompany(ctx context.Context, scope access.Scope, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := s.db.WithContext(ctx).
		Model(&models.Company{}).
		Scopes(scope.Companies).
		Where("companies.id = ?", id).
		First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("loading company: %w", err)
	}
	return &company, nil
}
