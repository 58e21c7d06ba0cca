package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hugh/go-attend/internal/api/dto"
	"github.com/hugh/go-attend/internal/api/middleware"
	"github.com/hugh/go-attend/internal/reports"
	"github.com/hugh/go-attend/internal/tasks"
)

type ReportHandler struct {
	service  *reports.Service
	renderer reports.Renderer
	enqueuer tasks.Enqueuer
	logger   *slog.Logger
}

// NewReportHandler builds the report endpoints. enqueuer may be nil, in which
// case archive requests are answered with 503.
func NewReportHandler(service *reports.Service, renderer reports.Renderer, enqueuer tasks.Enqueuer, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		service:  service,
		renderer: renderer,
		enqueuer: enqueuer,
		logger:   logger,
	}
}

func (h *ReportHandler) Company(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	report, err := h.service.Company(r.Context(), middleware.GetCaller(r.Context()), f)
	h.respond(w, r, report, err)
}

func (h *ReportHandler) Employee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	report, err := h.service.Employee(r.Context(), middleware.GetCaller(r.Context()), id, f)
	h.respond(w, r, report, err)
}

func (h *ReportHandler) Mine(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	report, err := h.service.Mine(r.Context(), middleware.GetCaller(r.Context()), f)
	h.respond(w, r, report, err)
}

func (h *ReportHandler) respond(w http.ResponseWriter, r *http.Request, report *reports.Report, err error) {
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, report); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	filename := report.Filename() + "." + h.renderer.Extension()
	w.Header().Set("Content-Type", h.renderer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Archive queues an encrypted archive of the caller's company report.
func (h *ReportHandler) Archive(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := f.Validate(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	company, err := h.service.CompanyFor(r.Context(), middleware.GetCaller(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if h.enqueuer == nil {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "background jobs are unavailable"})
		return
	}

	payload := tasks.ReportArchivePayload{
		CompanyID: company.ID,
		FromDate:  f.FromDate,
		ToDate:    f.ToDate,
	}
	if f.Date != nil {
		payload.FromDate, payload.ToDate = f.Date, f.Date
	}
	task, err := tasks.NewReportArchiveTask(payload)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	info, err := h.enqueuer.EnqueueContext(r.Context(), task)
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("enqueue report archive: %w", err))
		return
	}

	writeJSON(w, http.StatusAccepted, dto.ArchiveResponse{TaskID: info.ID, Queue: info.Queue})
}
