package auth_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/auth"
	"github.com/hugh/go-attend/internal/database/models"
	"github.com/hugh/go-attend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RegisterAdministrator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := auth.NewService(db, testutil.CreateTestJWTService())
	ctx := testutil.TestContext(t)

	resp, err := svc.Register(ctx, auth.RegisterInput{
		Email:       "boss@admincorp.test",
		Password:    "securepassword123",
		Name:        "Boss",
		Location:    "Chittagong",
		Role:        models.RoleAdministrator,
		CompanyName: "AdminCorp",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleAdministrator, resp.User.RoleName())
	require.NotNil(t, resp.User.Company)
	assert.Equal(t, "AdminCorp", resp.User.Company.Name)

	var company models.Company
	require.NoError(t, db.First(&company, "name = ?", "AdminCorp").Error)
	assert.Equal(t, company.ID, resp.User.CompanyUUID())
}

func TestService_RegisterEmployee(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := auth.NewService(db, testutil.CreateTestJWTService())
	ctx := testutil.TestContext(t)
	company := testutil.CreateTestCompany(t, db, "TestCorp")

	t.Run("joins existing company", func(t *testing.T) {
		resp, err := svc.Register(ctx, auth.RegisterInput{
			Email:     "emp@testcorp.test",
			Password:  "securepassword123",
			Name:      "Emp",
			Role:      models.RoleEmployee,
			CompanyID: &company.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, company.ID, resp.User.CompanyUUID())
		assert.Equal(t, models.RoleEmployee, resp.User.RoleName())
	})

	t.Run("unknown company", func(t *testing.T) {
		missing := uuid.New()
		_, err := svc.Register(ctx, auth.RegisterInput{
			Email:     "lost@testcorp.test",
			Password:  "securepassword123",
			Name:      "Lost",
			Role:      models.RoleEmployee,
			CompanyID: &missing,
		})
		assert.Equal(t, auth.ErrCompanyNotFound, err)
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})

	t.Run("missing company id", func(t *testing.T) {
		_, err := svc.Register(ctx, auth.RegisterInput{
			Email:    "nocompany@testcorp.test",
			Password: "securepassword123",
			Name:     "Nobody",
			Role:     models.RoleEmployee,
		})
		require.Error(t, err)
		e, ok := apperr.As(err)
		require.True(t, ok)
		assert.Contains(t, e.Fields, "company_id")
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, auth.RegisterInput{
			Email:     "emp@testcorp.test",
			Password:  "securepassword123",
			Name:      "Emp Again",
			Role:      models.RoleEmployee,
			CompanyID: &company.ID,
		})
		assert.Equal(t, auth.ErrUserExists, err)
	})
}

func TestRegisterInput_Validate(t *testing.T) {
	err := auth.RegisterInput{Role: models.RoleAdministrator}.Validate()
	require.Error(t, err)
	e, _ := apperr.As(err)
	assert.Contains(t, e.Fields, "company_name")
	assert.Contains(t, e.Fields, "location")

	err = auth.RegisterInput{Role: "Manager"}.Validate()
	require.Error(t, err)
	e, _ = apperr.As(err)
	assert.Contains(t, e.Fields, "role")
}

func TestService_Login(t *testing.T) {
	tc := testutil.NewTestContext(t)
	svc := auth.NewService(tc.DB, tc.JWTService)
	ctx := testutil.TestContext(t)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(ctx, auth.LoginInput{Email: tc.Admin.Email, Password: testutil.TestPassword})
		require.NoError(t, err)

		claims, err := tc.JWTService.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, tc.Admin.ID, claims.UserID)
		assert.Equal(t, tc.Company.ID, claims.CompanyID)
		assert.Equal(t, "Administrator", claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginInput{Email: tc.Admin.Email, Password: "wrong"})
		assert.Equal(t, auth.ErrInvalidCredentials, err)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginInput{Email: "nobody@example.com", Password: testutil.TestPassword})
		assert.Equal(t, auth.ErrInvalidCredentials, err)
	})

	t.Run("email match is case-sensitive", func(t *testing.T) {
		upper := tc.Admin.Email
		upper = "USER" + upper[len("user"):]
		_, err := svc.Login(ctx, auth.LoginInput{Email: upper, Password: testutil.TestPassword})
		assert.Equal(t, auth.ErrInvalidCredentials, err)
	})

	t.Run("inactive user", func(t *testing.T) {
		require.NoError(t, tc.DB.Model(tc.Employee).Update("is_active", false).Error)

		_, err := svc.Login(ctx, auth.LoginInput{Email: tc.Employee.Email, Password: testutil.TestPassword})
		assert.Equal(t, auth.ErrInactiveUser, err)
	})
}

func TestService_GetUserByID(t *testing.T) {
	tc := testutil.NewTestContext(t)
	svc := auth.NewService(tc.DB, tc.JWTService)
	ctx := testutil.TestContext(t)

	user, err := svc.GetUserByID(ctx, tc.Employee.ID)
	require.NoError(t, err)
	assert.Equal(t, tc.Employee.Email, user.Email)
	require.NotNil(t, user.Company)
	assert.Equal(t, "Acme Corp", user.Company.Name)

	_, err = svc.GetUserByID(ctx, uuid.New())
	assert.Equal(t, auth.ErrUserNotFound, err)
}

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, auth.CheckPassword("correct horse", hash))
	assert.False(t, auth.CheckPassword("battery staple", hash))
}
