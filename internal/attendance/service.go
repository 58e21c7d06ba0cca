// Package attendance records check-ins and serves scoped, filtered attendance
// listings.
package attendance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/access"
	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/database"
	"github.com/hugh/go-attend/internal/database/models"
	"github.com/hugh/go-attend/pkg/metrics"
)

var (
	ErrChannel    = apperr.Validation("exactly one check-in channel required", map[string]string{"channel": "exactly one of via_nfc and via_qr must be true"})
	ErrBackdated  = apperr.Field("date", "attendance cannot be recorded for a past date")
	ErrFutureDate = apperr.Field("date", "attendance cannot be recorded for a future date")
)

// Policy controls which dates a check-in may carry.
type Policy struct {
	Location          *time.Location
	AllowBackdating   bool
	AllowFutureDating bool
}

// Recorder receives check-in outcomes.
type Recorder interface {
	CheckinRecorded(channel, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) CheckinRecorded(string, string) {}

type Service struct {
	repo     *Repository
	policy   Policy
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used to compute "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRecorder reports check-in outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(repo *Repository, policy Policy, logger *slog.Logger, opts ...Option) *Service {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	s := &Service{
		repo:     repo,
		policy:   policy,
		recorder: nopRecorder{},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput is a check-in request. A nil Date means today in the policy's
// time zone.
type CreateInput struct {
	ViaNFC bool
	ViaQR  bool
	Date   *models.Date
}

// Channel derives the channel tag from the flags.
func (in CreateInput) Channel() models.Channel {
	if in.ViaQR {
		return models.ChannelQR
	}
	return models.ChannelNFC
}

// Today returns the current date in the policy's time zone.
func (s *Service) Today() models.Date {
	return models.Today(s.now(), s.policy.Location)
}

// Create records a check-in for the caller. Exactly one channel flag must be
// set, and at most one record per user and date is ever stored.
func (s *Service) Create(ctx context.Context, caller access.Caller, in CreateInput) (*models.AttendanceRecord, error) {
	if err := access.SelfScope(caller).Require(access.TierSelf); err != nil {
		return nil, err
	}

	channel := in.Channel()
	if in.ViaNFC == in.ViaQR {
		s.recorder.CheckinRecorded(string(channel), metrics.OutcomeInvalid)
		return nil, ErrChannel
	}

	today := s.Today()
	date := today
	if in.Date != nil {
		date = *in.Date
	}
	if err := s.checkDate(date, today); err != nil {
		s.recorder.CheckinRecorded(string(channel), metrics.OutcomeInvalid)
		return nil, err
	}

	rec := &models.AttendanceRecord{
		UserID:  caller.UserID,
		Date:    date,
		ViaNFC:  in.ViaNFC,
		ViaQR:   in.ViaQR,
		Channel: channel,
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			s.recorder.CheckinRecorded(string(channel), metrics.OutcomeDuplicate)
			return nil, err
		}
		s.logger.Error("failed to record attendance", "user_id", caller.UserID, "date", date.String(), "error", err)
		return nil, err
	}

	s.recorder.CheckinRecorded(string(channel), metrics.OutcomeCreated)
	s.logger.Info("attendance recorded", "user_id", caller.UserID, "date", date.String(), "channel", channel)
	return rec, nil
}

func (s *Service) checkDate(date, today models.Date) error {
	if date.Before(today) && !s.policy.AllowBackdating {
		return ErrBackdated
	}
	if date.After(today) && !s.policy.AllowFutureDating {
		return ErrFutureDate
	}
	return nil
}

// ListMine lists the caller's own records regardless of role.
func (s *Service) ListMine(ctx context.Context, caller access.Caller, f Filter, page database.Page) ([]models.AttendanceRecord, int64, error) {
	scope := access.SelfScope(caller)
	if err := scope.Require(access.TierSelf); err != nil {
		return nil, 0, err
	}
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}
	// Search and employee narrowing are not offered on the personal list.
	f.Search = ""
	f.EmployeeID = nil
	return s.repo.List(ctx, scope, f, page)
}

// GetMine returns one of the caller's own records.
func (s *Service) GetMine(ctx context.Context, caller access.Caller, id uuid.UUID) (*models.AttendanceRecord, error) {
	scope := access.SelfScope(caller)
	if err := scope.Require(access.TierSelf); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, scope, id)
}

// List is the administrator listing: records of the caller's company, or of
// every company for platform staff.
func (s *Service) List(ctx context.Context, caller access.Caller, f Filter, page database.Page) ([]models.AttendanceRecord, int64, error) {
	scope := access.ScopeFor(caller)
	if err := scope.Require(access.TierCompany); err != nil {
		return nil, 0, err
	}
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, scope, f, page)
}

// Get returns a record visible to an administrator. A record of another
// company is reported as not found.
func (s *Service) Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*models.AttendanceRecord, error) {
	scope := access.ScopeFor(caller)
	if err := scope.Require(access.TierCompany); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, scope, id)
}

// Records returns every record matching f within scope, newest first. It is
// the feed the report renderers consume.
func (s *Service) Records(ctx context.Context, scope access.Scope, f Filter) ([]models.AttendanceRecord, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.repo.All(ctx, scope, f)
}
