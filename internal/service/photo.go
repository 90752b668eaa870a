// Package service contains the business logic layer.
//
// This file implements evidence photo uploads. After-photos gate the
// transition to awaiting_verification, so uploads are restricted to the
// report's participants while the report is still workable.
package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/civicdesk/civicdesk/internal/domain"
	"github.com/civicdesk/civicdesk/internal/repository"
	"github.com/civicdesk/civicdesk/internal/storage"
)

// maxPhotoSize limits a single evidence photo upload.
const maxPhotoSize = 10 << 20 // 10 MiB

// =============================================================================
// Interface Definition
// =============================================================================

// AddPhotoParams contains parameters for attaching an evidence photo.
type AddPhotoParams struct {
	ReportID    uuid.UUID
	Actor       domain.Actor
	Phase       domain.PhotoPhase
	Filename    string
	ContentType string
	Data        io.Reader
}

// PhotoService defines the interface for evidence photo operations.
type PhotoService interface {
	// AddPhoto stores the photo bytes and appends the photo record to the
	// report. Returns domain.EFORBIDDEN when the actor is neither the
	// owning reporter, an assigned officer, nor an admin, and
	// domain.EINVALID when the report is in a terminal status.
	AddPhoto(ctx context.Context, params AddPhotoParams) (*domain.Photo, error)

	// PhotoURL returns an access URL for a stored photo.
	PhotoURL(ctx context.Context, photo *domain.Photo) (string, error)
}

// =============================================================================
// Implementation
// =============================================================================

// photoService implements the PhotoService interface.
type photoService struct {
	store   repository.ReportStore
	storage storage.Storage
	logger  *slog.Logger
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(store repository.ReportStore, st storage.Storage, logger *slog.Logger) PhotoService {
	return &photoService{
		store:   store,
		storage: st,
		logger:  logger,
	}
}

// AddPhoto stores an evidence photo.
func (s *photoService) AddPhoto(ctx context.Context, params AddPhotoParams) (*domain.Photo, error) {
	const op = "photo.add"

	if !params.Phase.IsValid() {
		return nil, domain.Invalid(op, "phase must be 'before' or 'after'")
	}
	if params.Data == nil {
		return nil, domain.Invalid(op, "photo data is required")
	}

	report, err := s.store.FindByID(ctx, params.ReportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "report", params.ReportID.String())
		}
		return nil, domain.Internal(err, op, "failed to load report")
	}

	if err := s.authorizeUpload(op, report, params.Actor); err != nil {
		return nil, err
	}
	if report.Status.IsTerminal() {
		return nil, domain.Invalid(op, "cannot attach photos to a finished report")
	}

	key := storage.PhotoKey(report.ID, params.Phase, params.Filename)
	err = s.storage.Put(ctx, key, params.Data, storage.PutOptions{
		ContentType: params.ContentType,
		MaxSize:     maxPhotoSize,
	})
	if err != nil {
		if storage.IsTooLarge(err) {
			return nil, domain.Invalid(op, "photo exceeds the maximum allowed size")
		}
		return nil, domain.Internal(err, op, "failed to store photo")
	}

	photo := &domain.Photo{
		ID:          uuid.New(),
		ReportID:    report.ID,
		Phase:       params.Phase,
		StorageKey:  key,
		ContentType: params.ContentType,
		CreatedAt:   time.Now(),
	}
	if err := s.store.AddPhoto(ctx, photo); err != nil {
		// Best effort: don't leave an orphaned object behind.
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to clean up orphaned photo object", "key", key, "error", delErr)
		}
		return nil, domain.Internal(err, op, "failed to record photo")
	}

	s.logger.Info("photo added",
		"report_id", report.ID,
		"phase", params.Phase,
		"key", key,
	)
	return photo, nil
}

// PhotoURL returns an access URL for a stored photo.
func (s *photoService) PhotoURL(ctx context.Context, photo *domain.Photo) (string, error) {
	const op = "photo.url"

	url, err := s.storage.URL(ctx, photo.StorageKey, 15*time.Minute)
	if err != nil {
		return "", domain.Internal(err, op, "failed to generate photo URL")
	}
	return url, nil
}

// authorizeUpload restricts uploads to the owning reporter, an assigned
// officer, or an admin.
func (s *photoService) authorizeUpload(op string, report *domain.Report, actor domain.Actor) error {
	switch {
	case actor.Role.IsAdmin():
		return nil
	case actor.Role == domain.RoleOfficer && report.IsAssignedTo(actor.ID):
		return nil
	case actor.Role == domain.RoleReporter && report.ReporterID == actor.ID:
		return nil
	}
	return domain.Forbidden(op, "not a participant of this report")
}
