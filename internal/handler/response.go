package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/civicdesk/civicdesk/internal/domain"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// Response DTOs
// =============================================================================

// ReportResponse is the wire representation of a report.
type ReportResponse struct {
	ID              uuid.UUID              `json:"id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description,omitempty"`
	CategoryID      *uuid.UUID             `json:"category_id,omitempty"`
	DepartmentLabel string                 `json:"department_label,omitempty"`
	Status          domain.ReportStatus    `json:"status"`
	AssignedTo      []uuid.UUID            `json:"assigned_to"`
	MisrouteReason  string                 `json:"misroute_reason,omitempty"`
	ReporterID      uuid.UUID              `json:"reporter_id"`
	PhotosBefore    []PhotoResponse        `json:"photos_before,omitempty"`
	PhotosAfter     []PhotoResponse        `json:"photos_after,omitempty"`
	History         []HistoryEntryResponse `json:"history,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// PhotoResponse is the wire representation of an evidence photo.
type PhotoResponse struct {
	ID          uuid.UUID         `json:"id"`
	Phase       domain.PhotoPhase `json:"phase"`
	ContentType string            `json:"content_type,omitempty"`
	URL         string            `json:"url,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// HistoryEntryResponse is the wire representation of a history entry.
type HistoryEntryResponse struct {
	ActorID   uuid.UUID   `json:"actor_id"`
	ActorRole domain.Role `json:"actor_role"`
	Action    string      `json:"action"`
	CreatedAt time.Time   `json:"created_at"`
}

func toReportResponse(r *domain.Report) ReportResponse {
	resp := ReportResponse{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		CategoryID:      r.CategoryID,
		DepartmentLabel: r.DepartmentLabel,
		Status:          r.Status,
		AssignedTo:      r.AssignedTo,
		MisrouteReason:  r.MisrouteReason,
		ReporterID:      r.ReporterID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if resp.AssignedTo == nil {
		resp.AssignedTo = []uuid.UUID{}
	}
	for _, p := range r.PhotosBefore {
		resp.PhotosBefore = append(resp.PhotosBefore, toPhotoResponse(&p, ""))
	}
	for _, p := range r.PhotosAfter {
		resp.PhotosAfter = append(resp.PhotosAfter, toPhotoResponse(&p, ""))
	}
	for _, e := range r.History {
		resp.History = append(resp.History, HistoryEntryResponse{
			ActorID:   e.ActorID,
			ActorRole: e.ActorRole,
			Action:    e.Action,
			CreatedAt: e.CreatedAt,
		})
	}
	return resp
}

func toPhotoResponse(p *domain.Photo, url string) PhotoResponse {
	return PhotoResponse{
		ID:          p.ID,
		Phase:       p.Phase,
		ContentType: p.ContentType,
		URL:         url,
		CreatedAt:   p.CreatedAt,
	}
}
