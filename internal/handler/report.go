// Package handler contains HTTP handlers for the report lifecycle API.
//
// This file implements report creation, reads, and status transitions.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/civicdesk/civicdesk/internal/domain"
	"github.com/civicdesk/civicdesk/internal/middleware"
	"github.com/civicdesk/civicdesk/internal/service"
)

// ReportHandler handles report-related HTTP requests.
type ReportHandler struct {
	reports service.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger,
	}
}

// RegisterRoutes registers report routes with the provided mux.
//
// Routes:
// - POST /api/reports              -> Create
// - GET  /api/reports              -> List
// - GET  /api/reports/{id}         -> Get
// - POST /api/reports/{id}/status  -> Transition
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/reports", middleware.Actor(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/reports", middleware.Actor(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/reports/{id}", middleware.Actor(http.HandlerFunc(h.Get)))
	mux.Handle("POST /api/reports/{id}/status", middleware.Actor(http.HandlerFunc(h.Transition)))
}

// =============================================================================
// POST /api/reports
// =============================================================================

type createReportRequest struct {
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Category        string      `json:"category"`
	DepartmentLabel string      `json:"department_label"`
	AssigneeIDs     []uuid.UUID `json:"assignee_ids"`
	Draft           bool        `json:"draft"`
}

// Create handles report creation.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("report.create", "invalid request body"))
		return
	}

	// Only admins may hand-pick assignees.
	if len(req.AssigneeIDs) > 0 && !actor.Role.IsAdmin() {
		ErrorResponse(w, r, h.logger, domain.Forbidden("report.create", "explicit assignment requires an admin role"))
		return
	}

	report, err := h.reports.Create(r.Context(), domain.CreateReportParams{
		ReporterID:      actor.ID,
		Title:           req.Title,
		Description:     req.Description,
		CategoryName:    req.Category,
		DepartmentLabel: req.DepartmentLabel,
		AssigneeIDs:     req.AssigneeIDs,
		Draft:           req.Draft,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReportResponse(report))
}

// =============================================================================
// GET /api/reports
// =============================================================================

// List handles report listing with optional filters.
//
// Query parameters: status, reporter_id, assignee_id, limit, offset.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	var params domain.ListReportsParams

	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.ReportStatus(s)
		if !status.IsValid() {
			ErrorResponse(w, r, h.logger, domain.Invalid("report.list", "unknown status filter"))
			return
		}
		params.Status = &status
	}
	if s := r.URL.Query().Get("reporter_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("report.list", "invalid reporter_id"))
			return
		}
		params.ReporterID = &id
	}
	if s := r.URL.Query().Get("assignee_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("report.list", "invalid assignee_id"))
			return
		}
		params.AssigneeID = &id
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("report.list", "invalid limit"))
			return
		}
		params.Limit = int32(n)
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("report.list", "invalid offset"))
			return
		}
		params.Offset = int32(n)
	}

	reports, err := h.reports.List(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, toReportResponse(&reports[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": out})
}

// =============================================================================
// GET /api/reports/{id}
// =============================================================================

// Get handles fetching a single report with photos and history.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("report.get", "invalid report id"))
		return
	}

	report, err := h.reports.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(report))
}

// =============================================================================
// POST /api/reports/{id}/status
// =============================================================================

type transitionRequest struct {
	Status domain.ReportStatus `json:"status"`
	Reason string              `json:"reason"`
}

// Transition handles a status change request.
func (h *ReportHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("report.transition", "invalid report id"))
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("report.transition", "invalid request body"))
		return
	}

	report, err := h.reports.Transition(r.Context(), domain.TransitionParams{
		ReportID: id,
		Actor:    actor,
		Target:   req.Status,
		Reason:   req.Reason,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(report))
}
