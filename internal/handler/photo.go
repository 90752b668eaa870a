// Package handler contains HTTP handlers for the report lifecycle API.
//
// This file implements evidence photo uploads.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/civicdesk/civicdesk/internal/domain"
	"github.com/civicdesk/civicdesk/internal/middleware"
	"github.com/civicdesk/civicdesk/internal/service"
)

// PhotoHandler handles evidence photo HTTP requests.
type PhotoHandler struct {
	photos service.PhotoService
	logger *slog.Logger
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(photos service.PhotoService, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{
		photos: photos,
		logger: logger,
	}
}

// RegisterRoutes registers photo routes with the provided mux.
//
// Routes:
// - POST /api/reports/{id}/photos -> Upload
func (h *PhotoHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/reports/{id}/photos", middleware.Actor(http.HandlerFunc(h.Upload)))
}

// Upload handles a multipart photo upload. The form carries a "photo" file
// and a "phase" field ("before" or "after").
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reportID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("photo.add", "invalid report id"))
		return
	}

	if err := r.ParseMultipartForm(12 << 20); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("photo.add", "failed to parse upload form"))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("photo.add", "photo file is required"))
		return
	}
	defer file.Close()

	photo, err := h.photos.AddPhoto(r.Context(), service.AddPhotoParams{
		ReportID:    reportID,
		Actor:       actor,
		Phase:       domain.PhotoPhase(r.FormValue("phase")),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        file,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	url, err := h.photos.PhotoURL(r.Context(), photo)
	if err != nil {
		// The photo is stored; URL generation is cosmetic here.
		h.logger.Warn("failed to generate photo URL", "photo_id", photo.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, toPhotoResponse(photo, url))
}
