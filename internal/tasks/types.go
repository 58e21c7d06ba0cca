package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/internal/database/models"
)

// Task type names
const (
	TypeReportArchive    = "report:archive"
	TypeReportArchiveAll = "report:archive_all"
)

// QueueLow carries archive work; check-ins never wait on it.
const QueueLow = "low"

// ReportArchivePayload names the company and date window to archive.
type ReportArchivePayload struct {
	CompanyID uuid.UUID    `json:"company_id"`
	FromDate  *models.Date `json:"from_date,omitempty"`
	ToDate    *models.Date `json:"to_date,omitempty"`
}

func (p ReportArchivePayload) Filter() attendance.Filter {
	return attendance.Filter{FromDate: p.FromDate, ToDate: p.ToDate}
}

func NewReportArchiveTask(payload ReportArchivePayload) (*asynq.Task, error) {
	if payload.CompanyID == uuid.Nil {
		return nil, fmt.Errorf("report archive task needs a company")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReportArchive, data, asynq.Queue(QueueLow), asynq.MaxRetry(5)), nil
}

// NewReportArchiveAllTask fans out one archive task per company for the
// previous calendar month.
func NewReportArchiveAllTask() *asynq.Task {
	return asynq.NewTask(TypeReportArchiveAll, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1))
}
