package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hugh/go-attend/internal/api/dto"
	"github.com/hugh/go-attend/internal/api/middleware"
	"github.com/hugh/go-attend/internal/identity"
)

// IdentityHandler serves employees, users, companies and roles.
type IdentityHandler struct {
	service *identity.Service
	logger  *slog.Logger
}

func NewIdentityHandler(service *identity.Service, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{service: service, logger: logger}
}

func (h *IdentityHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	page := parsePagination(r)
	users, total, err := h.service.ListEmployees(r.Context(), middleware.GetCaller(r.Context()), page.DBPage())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPaginatedResponse(dto.NewEmployeeList(users), total, page))
}

func (h *IdentityHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.service.GetEmployee(r.Context(), middleware.GetCaller(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewEmployeeResponse(user))
}

func (h *IdentityHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := parsePagination(r)
	users, total, err := h.service.ListUsers(r.Context(), middleware.GetCaller(r.Context()), page.DBPage())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]dto.UserDTO, len(users))
	for i := range users {
		out[i] = dto.NewUserDTO(&users[i])
	}
	writeJSON(w, http.StatusOK, dto.NewPaginatedResponse(out, total, page))
}

func (h *IdentityHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.service.DeleteRole(r.Context(), middleware.GetCaller(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *IdentityHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.ListCompanies(r.Context(), middleware.GetCaller(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]dto.CompanyResponse, len(companies))
	for i := range companies {
		out[i] = dto.NewCompanyResponse(&companies[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *IdentityHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	detail, err := h.service.GetCompany(r.Context(), middleware.GetCaller(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCompanyDetailResponse(detail))
}

func (h *IdentityHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req dto.UpdateCompanyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	company, err := h.service.UpdateCompany(r.Context(), middleware.GetCaller(r.Context()), id, req.Input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCompanyResponse(company))
}
