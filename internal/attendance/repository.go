package attendance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/access"
	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/database"
	"github.com/hugh/go-attend/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrAlreadyRecorded = apperr.Duplicate("attendance already recorded for this date")
	ErrRecordNotFound  = apperr.NotFound("attendance record not found")
	ErrUnknownUser     = apperr.Unauthenticated("account no longer exists")
)

// Repository is the attendance record store. Every read is narrowed by an
// access.Scope first.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes rec with a single INSERT. The (user_id, date) unique index
// arbitrates concurrent check-ins; the loser gets ErrAlreadyRecorded. A user
// deleted after authenticating fails the foreign key and gets ErrUnknownUser.
func (r *Repository) Insert(ctx context.Context, rec *models.AttendanceRecord) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(rec).Error; err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return ErrAlreadyRecorded
		case database.IsForeignKeyViolation(err):
			return ErrUnknownUser
		}
		return fmt.Errorf("inserting attendance record: %w", err)
	}
	return nil
}

func (r *Repository) query(ctx context.Context, scope access.Scope, f Filter) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Scopes(scope.Attendance, f.Apply)
}

// List returns one page of matching records, newest first, with the total
// number of matches.
func (r *Repository) List(ctx context.Context, scope access.Scope, f Filter, page database.Page) ([]models.AttendanceRecord, int64, error) {
	var total int64
	if err := r.query(ctx, scope, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting attendance records: %w", err)
	}

	records := []models.AttendanceRecord{}
	if err := r.query(ctx, scope, f).
		Scopes(Ordered, page.Scope).
		Preload("User").
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("listing attendance records: %w", err)
	}

	return records, total, nil
}

// All returns every matching record, newest first.
func (r *Repository) All(ctx context.Context, scope access.Scope, f Filter) ([]models.AttendanceRecord, error) {
	records := []models.AttendanceRecord{}
	if err := r.query(ctx, scope, f).
		Scopes(Ordered).
		Preload("User").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing attendance records: %w", err)
	}
	return records, nil
}

// Get looks up one record by id within scope. Records outside the scope are
// indistinguishable from missing ones.
func (r *Repository) Get(ctx context.Context, scope access.Scope, id uuid.UUID) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := r.query(ctx, scope, Filter{}).
		Preload("User").
		Where("attendance_records.id = ?", id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("loading attendance record: %w", err)
	}
	return &rec, nil
}
