package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/internal/database/models"
	"gorm.io/gorm"
)

// Archiver uploads one company's report.
type Archiver interface {
	Archive(ctx context.Context, companyID uuid.UUID, f attendance.Filter) (string, error)
}

// Enqueuer is the part of *asynq.Client the fan-out task needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Handler struct {
	db       *gorm.DB
	logger   *slog.Logger
	archiver Archiver
	enqueuer Enqueuer
	now      func() time.Time
}

func NewHandler(db *gorm.DB, logger *slog.Logger, archiver Archiver, enqueuer Enqueuer) *Handler {
	return &Handler{
		db:       db,
		logger:   logger,
		archiver: archiver,
		enqueuer: enqueuer,
		now:      time.Now,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeReportArchive, h.HandleReportArchive)
	mux.HandleFunc(TypeReportArchiveAll, h.HandleReportArchiveAll)
}

func (h *Handler) HandleReportArchive(ctx context.Context, t *asynq.Task) error {
	var payload ReportArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	h.logger.Info("archiving attendance report",
		"company_id", payload.CompanyID,
		"from_date", payload.FromDate,
		"to_date", payload.ToDate,
	)

	key, err := h.archiver.Archive(ctx, payload.CompanyID, payload.Filter())
	if err != nil {
		h.logger.Error("report archive failed", "company_id", payload.CompanyID, "error", err)
		// Retrying cannot make a deleted company or a bad range valid.
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrValidation) {
			return fmt.Errorf("archive company %s: %v: %w", payload.CompanyID, err, asynq.SkipRetry)
		}
		return err
	}

	h.logger.Info("completed report archive", "company_id", payload.CompanyID, "key", key)
	return nil
}

// HandleReportArchiveAll enqueues an archive of last month for every company.
func (h *Handler) HandleReportArchiveAll(ctx context.Context, _ *asynq.Task) error {
	from, to := PreviousMonth(h.now())

	var companyIDs []uuid.UUID
	if err := h.db.WithContext(ctx).Model(&models.Company{}).Order("name").Pluck("id", &companyIDs).Error; err != nil {
		return fmt.Errorf("listing companies: %w", err)
	}

	enqueued := 0
	for _, id := range companyIDs {
		task, err := NewReportArchiveTask(ReportArchivePayload{CompanyID: id, FromDate: &from, ToDate: &to})
		if err != nil {
			return err
		}
		if _, err := h.enqueuer.EnqueueContext(ctx, task); err != nil {
			h.logger.Error("failed to enqueue report archive", "company_id", id, "error", err)
			continue
		}
		enqueued++
	}

	h.logger.Info("scheduled report archives",
		"companies", len(companyIDs),
		"enqueued", enqueued,
		"from_date", from,
		"to_date", to,
	)
	if enqueued < len(companyIDs) {
		return fmt.Errorf("enqueued %d of %d report archives", enqueued, len(companyIDs))
	}
	return nil
}

// PreviousMonth returns the first and last day of the calendar month before
// the one containing now, in UTC.
func PreviousMonth(now time.Time) (models.Date, models.Date) {
	now = now.UTC()
	firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	first := firstOfThis.AddDate(0, -1, 0)
	last := firstOfThis.AddDate(0, 0, -1)
	return models.DateOf(first), models.DateOf(last)
}
