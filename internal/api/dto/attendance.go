package dto

import (
	"time"

	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/internal/database/models"
)

// CreateAttendanceRequest is a check-in. Date defaults to today.
type CreateAttendanceRequest struct {
	ViaNFC bool         `json:"via_nfc"`
	ViaQR  bool         `json:"via_qr"`
	Date   *models.Date `json:"date,omitempty"`
}

func (r CreateAttendanceRequest) Input() attendance.CreateInput {
	return attendance.CreateInput{ViaNFC: r.ViaNFC, ViaQR: r.ViaQR, Date: r.Date}
}

type AttendanceResponse struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	EmployeeName string         `json:"employee_name,omitempty"`
	ViaNFC       bool           `json:"via_nfc"`
	ViaQR        bool           `json:"via_qr"`
	Channel      models.Channel `json:"channel"`
	Date         models.Date    `json:"date"`
	CreatedAt    time.Time      `json:"created_at"`
}

func NewAttendanceResponse(rec *models.AttendanceRecord) AttendanceResponse {
	out := AttendanceResponse{
		ID:        rec.ID.String(),
		UserID:    rec.UserID.String(),
		ViaNFC:    rec.ViaNFC,
		ViaQR:     rec.ViaQR,
		Channel:   rec.Channel,
		Date:      rec.Date,
		CreatedAt: rec.CreatedAt,
	}
	if rec.User != nil {
		out.EmployeeName = rec.User.Name
	}
	return out
}

func NewAttendanceList(records []models.AttendanceRecord) []AttendanceResponse {
	out := make([]AttendanceResponse, len(records))
	for i := range records {
		out[i] = NewAttendanceResponse(&records[i])
	}
	return out
}

// ArchiveResponse acknowledges a queued archive job.
type ArchiveResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}
