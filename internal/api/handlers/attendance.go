package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/access"
	"github.com/hugh/go-attend/internal/api/dto"
	"github.com/hugh/go-attend/internal/api/middleware"
	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/internal/database"
	"github.com/hugh/go-attend/internal/database/models"
)

type AttendanceHandler struct {
	service *attendance.Service
	logger  *slog.Logger
}

func NewAttendanceHandler(service *attendance.Service, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{service: service, logger: logger}
}

// Create records a check-in for the caller.
func (h *AttendanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rec, err := h.service.Create(r.Context(), middleware.GetCaller(r.Context()), req.Input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.NewAttendanceResponse(rec))
}

func (h *AttendanceHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListMine)
}

func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.List)
}

func (h *AttendanceHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, h.service.GetMine)
}

func (h *AttendanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, h.service.Get)
}

type listFunc = func(ctx context.Context, caller access.Caller, f attendance.Filter, page database.Page) ([]models.AttendanceRecord, int64, error)

type getFunc = func(ctx context.Context, caller access.Caller, id uuid.UUID) (*models.AttendanceRecord, error)

func (h *AttendanceHandler) list(w http.ResponseWriter, r *http.Request, fn listFunc) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	page := parsePagination(r)

	records, total, err := fn(r.Context(), middleware.GetCaller(r.Context()), f, page.DBPage())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewPaginatedResponse(dto.NewAttendanceList(records), total, page))
}

func (h *AttendanceHandler) get(w http.ResponseWriter, r *http.Request, fn getFunc) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rec, err := fn(r.Context(), middleware.GetCaller(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewAttendanceResponse(rec))
}
