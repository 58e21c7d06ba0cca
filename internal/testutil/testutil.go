package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/access"
	"github.com/hugh/go-attend/internal/auth"
	"github.com/hugh/go-attend/internal/database"
	"github.com/hugh/go-attend/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the password of every user created by CreateTestUser.
const TestPassword = "testpassword123"

// SetupTestDB creates an isolated in-memory SQLite database with foreign keys
// enforced. A single connection serializes writers the way row locks would.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { CleanupTestDB(t, db) })
	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := database.Close(db); err != nil {
		t.Logf("warning: failed to close test database: %v", err)
	}
}

// EnsureRole returns the role row with the given name, creating it if needed.
func EnsureRole(t *testing.T, db *gorm.DB, name models.RoleName) *models.Role {
	t.Helper()

	role := &models.Role{}
	if err := db.Where(models.Role{Name: name}).FirstOrCreate(role).Error; err != nil {
		t.Fatalf("failed to ensure role %s: %v", name, err)
	}
	return role
}

// CreateTestCompany creates a company with the given name.
func CreateTestCompany(t *testing.T, db *gorm.DB, name string) *models.Company {
	t.Helper()

	location := "Dhaka"
	company := &models.Company{Name: name, Location: &location}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("failed to create test company: %v", err)
	}
	return company
}

// CreateTestUser creates an active user with the given role. company may be
// nil for users without a company.
func CreateTestUser(t *testing.T, db *gorm.DB, company *models.Company, role models.RoleName, name string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	r := EnsureRole(t, db, role)
	user := &models.User{
		Email:        "user-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash: hash,
		Name:         name,
		RoleID:       &r.ID,
		IsActive:     true,
		Role:         r,
	}
	if company != nil {
		user.CompanyID = &company.ID
		user.Company = company
	}

	if err := db.Omit("Role", "Company").Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestSuperuser creates a platform staff user without a company.
func CreateTestSuperuser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := CreateTestUser(t, db, nil, models.RoleAdministrator, "Platform Staff")
	if err := db.Model(user).Update("is_superuser", true).Error; err != nil {
		t.Fatalf("failed to promote superuser: %v", err)
	}
	user.IsSuperuser = true
	return user
}

// CreateTestAttendance inserts a record directly, bypassing the rule engine.
func CreateTestAttendance(t *testing.T, db *gorm.DB, user *models.User, date string, channel models.Channel) *models.AttendanceRecord {
	t.Helper()

	d, err := models.ParseDate(date)
	if err != nil {
		t.Fatalf("bad test date: %v", err)
	}

	rec := &models.AttendanceRecord{
		UserID:  user.ID,
		Date:    d,
		ViaNFC:  channel == models.ChannelNFC,
		ViaQR:   channel == models.ChannelQR,
		Channel: channel,
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("failed to create test attendance: %v", err)
	}
	return rec
}

// CallerFor returns the access caller for a test user.
func CallerFor(user *models.User) access.Caller {
	return access.CallerFromUser(user)
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds the common fixture: two companies, an administrator and an
// employee in the first, and an administrator and an employee in the second.
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService

	Company  *models.Company
	Admin    *models.User
	Employee *models.User

	OtherCompany  *models.Company
	OtherAdmin    *models.User
	OtherEmployee *models.User

	AdminToken    string
	EmployeeToken string
}

// NewTestContext creates a complete test setup with DB, companies, users and tokens
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()

	company := CreateTestCompany(t, db, "Acme Corp")
	admin := CreateTestUser(t, db, company, models.RoleAdministrator, "Alice Admin")
	employee := CreateTestUser(t, db, company, models.RoleEmployee, "Eve Employee")

	other := CreateTestCompany(t, db, "Globex")
	otherAdmin := CreateTestUser(t, db, other, models.RoleAdministrator, "Oscar Admin")
	otherEmployee := CreateTestUser(t, db, other, models.RoleEmployee, "Olivia Employee")

	return &TestSetup{
		DB:            db,
		JWTService:    jwtService,
		Company:       company,
		Admin:         admin,
		Employee:      employee,
		OtherCompany:  other,
		OtherAdmin:    otherAdmin,
		OtherEmployee: otherEmployee,
		AdminToken:    GenerateTestToken(t, jwtService, admin),
		EmployeeToken: GenerateTestToken(t, jwtService, employee),
	}
}

// Cleanup closes the test database. SetupTestDB already registers this with
// t.Cleanup; calling it twice is harmless.
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		_ = database.Close(ts.DB)
	}
}
