// Package reports builds downloadable attendance reports and archives them to
// object storage.
package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/access"
	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrCompanyNotFound  = apperr.NotFound("company not found")
	ErrEmployeeNotFound = apperr.NotFound("employee not found")
)

const (
	timestampLayout = "20060102_150405"
	dateLayout      = "January 02, 2006"
)

// Kind tells which audience a report was built for.
type Kind string

const (
	KindCompany  Kind = "company"
	KindEmployee Kind = "employee"
	KindMine     Kind = "mine"
)

type Report struct {
	Kind        Kind
	Title       string
	Company     *models.Company
	Employee    *models.User
	Filter      attendance.Filter
	GeneratedAt time.Time
	Rows        []models.AttendanceRecord
}

// Summary aggregates a report's rows.
type Summary struct {
	TotalRecords    int
	NFCCount        int
	QRCount         int
	UniqueEmployees int
	DateRange       string
}

func (r *Report) Summary() Summary {
	s := Summary{TotalRecords: len(r.Rows), DateRange: DateRange(r.Filter)}
	seen := make(map[uuid.UUID]struct{})
	for _, row := range r.Rows {
		switch row.Channel {
		case models.ChannelNFC:
			s.NFCCount++
		case models.ChannelQR:
			s.QRCount++
		}
		seen[row.UserID] = struct{}{}
	}
	s.UniqueEmployees = len(seen)
	return s
}

// Filename returns the download name for the report without an extension.
func (r *Report) Filename() string {
	ts := r.GeneratedAt.Format(timestampLayout)
	switch r.Kind {
	case KindEmployee:
		name := "employee"
		if r.Employee != nil {
			name = strings.Join(strings.Fields(r.Employee.Name), "_")
		}
		return fmt.Sprintf("attendance_%s_%s", name, ts)
	case KindMine:
		return "my_attendance_" + ts
	default:
		return "attendance_report_" + ts
	}
}

// DateRange describes the filter's date bounds for report headers.
func DateRange(f attendance.Filter) string {
	format := func(d *models.Date) string { return d.In(time.UTC).Format(dateLayout) }
	switch {
	case f.Date != nil:
		return format(f.Date)
	case f.FromDate != nil && f.ToDate != nil:
		return format(f.FromDate) + " - " + format(f.ToDate)
	case f.FromDate != nil:
		return "From " + format(f.FromDate)
	case f.ToDate != nil:
		return "Until " + format(f.ToDate)
	default:
		return "All dates"
	}
}

type Service struct {
	db         *gorm.DB
	attendance *attendance.Service
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, att *attendance.Service, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		db:         db,
		attendance: att,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompanyFor returns the company whose reports caller may build.
func (s *Service) CompanyFor(ctx context.Context, caller access.Caller) (*models.Company, error) {
	if err := access.ScopeFor(caller).Require(access.TierCompany); err != nil {
		return nil, err
	}
	if !caller.HasCompany() {
		return nil, ErrCompanyNotFound
	}
	return s.company(ctx, caller.CompanyID)
}

// Company reports on every employee of the caller's company.
func (s *Service) Company(ctx context.Context, caller access.Caller, f attendance.Filter) (*Report, error) {
	company, err := s.CompanyFor(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.companyReport(ctx, company, f)
}

// CompanyByID reports on companyID without a caller. Background jobs use it;
// request paths go through Company.
func (s *Service) CompanyByID(ctx context.Context, companyID uuid.UUID, f attendance.Filter) (*Report, error) {
	company, err := s.company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.companyReport(ctx, company, f)
}

func (s *Service) companyReport(ctx context.Context, company *models.Company, f attendance.Filter) (*Report, error) {
	f.Search = ""
	report, err := s.build(ctx, access.ForCompany(company.ID), f)
	if err != nil {
		return nil, err
	}
	report.Kind = KindCompany
	report.Title = "Attendance Report - " + company.Name
	report.Company = company
	return report, nil
}

// Employee reports on one member of the caller's company.
func (s *Service) Employee(ctx context.Context, caller access.Caller, employeeID uuid.UUID, f attendance.Filter) (*Report, error) {
	if err := access.ScopeFor(caller).Require(access.TierCompany); err != nil {
		return nil, err
	}
	if !caller.HasCompany() {
		return nil, ErrEmployeeNotFound
	}

	var employee models.User
	err := s.db.WithContext(ctx).
		Preload("Company").
		Where("users.id = ? AND users.company_id = ?", employeeID, caller.CompanyID).
		First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("loading employee: %w", err)
	}

	f.EmployeeID = &employee.ID
	f.Search = ""
	report, err := s.build(ctx, access.ForCompany(caller.CompanyID), f)
	if err != nil {
		return nil, err
	}
	report.Kind = KindEmployee
	report.Title = "Attendance Report - " + employee.Name
	report.Company = employee.Company
	report.Employee = &employee
	return report, nil
}

// Mine reports on the caller's own check-ins.
func (s *Service) Mine(ctx context.Context, caller access.Caller, f attendance.Filter) (*Report, error) {
	scope := access.SelfScope(caller)
	if err := scope.Require(access.TierSelf); err != nil {
		return nil, err
	}

	var me models.User
	if err := s.db.WithContext(ctx).Preload("Company").First(&me, "users.id = ?", caller.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthenticated("user no longer exists")
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	f.EmployeeID = nil
	f.Search = ""
	report, err := s.build(ctx, scope, f)
	if err != nil {
		return nil, err
	}
	report.Kind = KindMine
	report.Title = "My Attendance Report"
	report.Company = me.Company
	report.Employee = &me
	return report, nil
}

func (s *Service) build(ctx context.Context, scope access.Scope, f attendance.Filter) (*Report, error) {
	rows, err := s.attendance.Records(ctx, scope, f)
	if err != nil {
		return nil, err
	}
	return &Report{
		Filter:      f,
		GeneratedAt: s.now(),
		Rows:        rows,
	}, nil
}

func (s *Service) company(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := s.db.WithContext(ctx).First(&company, "companies.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("loading company: %w", err)
	}
	return &company, nil
}
