package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/database"
	"github.com/hugh/go-attend/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = apperr.NotFound("user not found")
	ErrUserExists         = apperr.Conflict("user already exists")
	ErrInvalidCredentials = apperr.Unauthenticated("invalid credentials")
	ErrInactiveUser       = apperr.Forbidden("account is inactive")
	ErrCompanyNotFound    = apperr.Field("company_id", "company not found")
)

type Service struct {
	db  *gorm.DB
	jwt *JWTService
}

func NewService(db *gorm.DB, jwt *JWTService) *Service {
	return &Service{db: db, jwt: jwt}
}

// RegisterInput describes a new account. Employees join an existing company
// by id; administrators create their company as part of registration.
type RegisterInput struct {
	Email       string
	Password    string
	Name        string
	Location    string
	Role        models.RoleName
	CompanyID   *uuid.UUID
	CompanyName string
}

// Validate enforces the role-specific requirements.
func (in RegisterInput) Validate() error {
	fields := make(map[string]string)

	switch in.Role {
	case models.RoleEmployee:
		if in.CompanyID == nil || *in.CompanyID == uuid.Nil {
			fields["company_id"] = "company_id is required for employees"
		}
	case models.RoleAdministrator:
		if strings.TrimSpace(in.CompanyName) == "" {
			fields["company_name"] = "company_name is required for administrators"
		}
		if strings.TrimSpace(in.Location) == "" {
			fields["location"] = "location is required for administrators"
		}
	default:
		fields["role"] = "role must be Employee or Administrator"
	}

	if len(fields) > 0 {
		return apperr.Validation("Validation failed", fields)
	}
	return nil
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// Check if user exists
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role := models.Role{}
		if err := tx.Where(models.Role{Name: input.Role}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("resolving role: %w", err)
		}

		var company models.Company
		switch input.Role {
		case models.RoleAdministrator:
			location := strings.TrimSpace(input.Location)
			company = models.Company{Name: strings.TrimSpace(input.CompanyName), Location: &location}
			if err := tx.Create(&company).Error; err != nil {
				return fmt.Errorf("creating company: %w", err)
			}
		case models.RoleEmployee:
			if err := tx.First(&company, "id = ?", *input.CompanyID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCompanyNotFound
				}
				return fmt.Errorf("loading company: %w", err)
			}
		}

		user = models.User{
			Email:        input.Email,
			PasswordHash: hash,
			Name:         input.Name,
			RoleID:       &role.ID,
			CompanyID:    &company.ID,
			IsActive:     true,
		}
		if loc := strings.TrimSpace(input.Location); loc != "" {
			user.Location = &loc
		}

		if err := tx.Create(&user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrUserExists
			}
			return fmt.Errorf("creating user: %w", err)
		}

		user.Role = &role
		user.Company = &company
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(&user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token: token,
		User:  &user,
	}, nil
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Role").
		Preload("Company").
		Where("email = ?", input.Email).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	token, err := s.jwt.GenerateToken(&user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token: token,
		User:  &user,
	}, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Role").
		Preload("Company").
		First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
