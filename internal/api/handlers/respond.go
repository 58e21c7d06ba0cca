package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/api/dto"
	"github.com/hugh/go-attend/internal/api/validation"
	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/internal/database/models"
)

const maxSearchLen = 100

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto the response. Errors outside the domain taxonomy
// are logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, status, dto.ErrorResponse{Error: "internal server error"})
		return
	}

	resp := dto.ErrorResponse{Error: err.Error()}
	if e, ok := apperr.As(err); ok {
		resp.Details = e.Fields
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("Invalid request body", nil)
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Field(name, "must be a valid UUID")
	}
	return id, nil
}

func parsePagination(r *http.Request) dto.PaginationParams {
	q := r.URL.Query()
	p := dto.PaginationParams{}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	p.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	p.Normalize()
	return p
}

// parseFilter reads the attendance filter keys from the query string.
// Malformed values are rejected instead of ignored.
func parseFilter(r *http.Request) (attendance.Filter, error) {
	q := r.URL.Query()
	var f attendance.Filter
	fields := make(map[string]string)

	dateParam := func(key string) *models.Date {
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			return nil
		}
		d, err := models.ParseDate(v)
		if err != nil {
			fields[key] = "must be a date in YYYY-MM-DD format"
			return nil
		}
		return &d
	}

	f.Date = dateParam("date")
	f.FromDate = dateParam("from_date")
	f.ToDate = dateParam("to_date")

	if v := strings.TrimSpace(q.Get("employee_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			fields["employee_id"] = "must be a valid UUID"
		} else {
			f.EmployeeID = &id
		}
	}

	f.Search = validation.Text(q.Get("search"), maxSearchLen)

	if len(fields) > 0 {
		return attendance.Filter{}, apperr.Validation("Invalid query parameters", fields)
	}
	return f, nil
}
