// Package service contains the business logic layer.
//
// This file implements the report lifecycle service: creation with
// auto-assignment, guarded status transitions with conflict retry, and read
// operations.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/civicdesk/civicdesk/internal/classifier"
	"github.com/civicdesk/civicdesk/internal/domain"
	"github.com/civicdesk/civicdesk/internal/metrics"
	"github.com/civicdesk/civicdesk/internal/notify"
	"github.com/civicdesk/civicdesk/internal/repository"
)

// maxTransitionAttempts bounds the decide-then-write retry loop on
// conditional-write conflicts.
const maxTransitionAttempts = 3

// =============================================================================
// Interface Definition
// =============================================================================

// ReportService defines the interface for report lifecycle operations.
type ReportService interface {
	// Create creates a new report, resolving its category and attempting
	// auto-assignment unless the report is a draft or carries explicit
	// assignees. Returns domain.EINVALID for validation errors.
	Create(ctx context.Context, params domain.CreateReportParams) (*domain.Report, error)

	// Transition applies a status change on behalf of an actor. Guard
	// rejections return domain errors carrying a stable reason code;
	// concurrent-write conflicts are retried a bounded number of times and
	// surface domain.ECONFLICT after exhaustion.
	Transition(ctx context.Context, params domain.TransitionParams) (*domain.Report, error)

	// GetByID retrieves a fully hydrated report.
	// Returns domain.ENOTFOUND if the report does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error)

	// List retrieves report summaries matching the filter.
	List(ctx context.Context, params domain.ListReportsParams) ([]domain.Report, error)
}

// EventDispatcher queues a notification event. Implemented by
// notify.Dispatcher; delivery is best-effort and never blocks callers.
type EventDispatcher interface {
	Dispatch(event notify.Event)
}

// =============================================================================
// Implementation
// =============================================================================

// reportService implements the ReportService interface.
type reportService struct {
	store      repository.ReportStore
	directory  repository.OfficerDirectory
	catalog    repository.Catalog
	classifier classifier.Provider
	dispatcher EventDispatcher
	logger     *slog.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(
	store repository.ReportStore,
	directory repository.OfficerDirectory,
	catalog repository.Catalog,
	provider classifier.Provider,
	dispatcher EventDispatcher,
	logger *slog.Logger,
) ReportService {
	return &reportService{
		store:      store,
		directory:  directory,
		catalog:    catalog,
		classifier: provider,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// =============================================================================
// Create
// =============================================================================

// Create creates a new report.
func (s *reportService) Create(ctx context.Context, params domain.CreateReportParams) (*domain.Report, error) {
	const op = "report.create"

	if err := s.validateCreateParams(op, params); err != nil {
		return nil, err
	}

	now := time.Now()
	report := &domain.Report{
		ID:              uuid.New(),
		Title:           strings.TrimSpace(params.Title),
		Description:     strings.TrimSpace(params.Description),
		DepartmentLabel: strings.TrimSpace(params.DepartmentLabel),
		Status:          domain.StatusSubmitted,
		ReporterID:      params.ReporterID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if params.Draft {
		report.Status = domain.StatusDraft
	}

	if err := s.resolveCategory(ctx, op, report, params.CategoryName); err != nil {
		return nil, err
	}

	var assignees []uuid.UUID
	switch {
	case params.Draft:
		// Drafts are never routed.
	case len(params.AssigneeIDs) > 0:
		assignees = params.AssigneeIDs
	default:
		result, err := s.autoAssign(ctx, report)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to auto-assign report")
		}
		if result.Assigned {
			assignees = []uuid.UUID{result.OfficerID}
		}
	}

	if len(assignees) > 0 {
		report.Status = domain.StatusAssigned
		report.AssignedTo = assignees
	}

	s.recordCreationHistory(report, params, now)

	if err := s.store.Create(ctx, report); err != nil {
		return nil, domain.Internal(err, op, "failed to create report")
	}

	metrics.ReportsCreated.WithLabelValues(report.Status.String()).Inc()
	s.logger.Info("report created",
		"report_id", report.ID,
		"status", report.Status,
		"assignees", len(report.AssignedTo),
	)

	if report.Status == domain.StatusAssigned {
		s.dispatcher.Dispatch(notify.Event{
			Recipients: report.AssignedTo,
			Type:       notify.EventAssigned,
			ReportID:   report.ID,
			Payload:    map[string]any{"title": report.Title},
		})
	}

	return report, nil
}

func (s *reportService) validateCreateParams(op string, params domain.CreateReportParams) error {
	if params.ReporterID == uuid.Nil {
		return domain.Invalid(op, "reporter id is required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return domain.Invalid(op, "title is required")
	}
	if params.Draft && len(params.AssigneeIDs) > 0 {
		return domain.Invalid(op, "drafts cannot carry assignees")
	}
	return nil
}

// resolveCategory sets the report's category. An explicit unknown name is a
// validation error; classifier consultation is advisory and its failures are
// swallowed.
func (s *reportService) resolveCategory(ctx context.Context, op string, report *domain.Report, name string) error {
	name = strings.TrimSpace(name)
	if name != "" {
		cat, err := s.catalog.GetCategoryByName(ctx, name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.Invalid(op, fmt.Sprintf("unknown category %q", name))
			}
			return domain.Internal(err, op, "failed to resolve category")
		}
		report.CategoryID = &cat.ID
		return nil
	}

	if s.classifier == nil {
		return nil
	}

	candidates, err := s.catalog.ListCategoryNames(ctx)
	if err != nil || len(candidates) == 0 {
		return nil
	}

	suggested, err := s.classifier.SuggestCategory(ctx, report.Title+" "+report.Description, candidates)
	if err != nil {
		metrics.ClassifierCalls.WithLabelValues("error").Inc()
		s.logger.Warn("classifier failed", "error", err)
		return nil
	}
	if suggested == classifier.CategoryUnknown {
		metrics.ClassifierCalls.WithLabelValues("unknown").Inc()
		return nil
	}

	cat, err := s.catalog.GetCategoryByName(ctx, suggested)
	if err != nil {
		metrics.ClassifierCalls.WithLabelValues("error").Inc()
		return nil
	}
	metrics.ClassifierCalls.WithLabelValues("matched").Inc()
	report.CategoryID = &cat.ID
	return nil
}

// recordCreationHistory writes the initial history entries. Auto-assignment
// produces two entries: the reporter's creation record and a system record
// on behalf of the selected officer.
func (s *reportService) recordCreationHistory(report *domain.Report, params domain.CreateReportParams, now time.Time) {
	autoAssigned := report.Status == domain.StatusAssigned && len(params.AssigneeIDs) == 0

	action := domain.ActionCreated
	if autoAssigned {
		action = domain.ActionCreatedAutoAssigned
	}
	report.AppendHistory(domain.HistoryEntry{
		ActorID:   report.ReporterID,
		ActorRole: domain.RoleReporter,
		Action:    action,
		CreatedAt: now,
	})

	if autoAssigned {
		report.AppendHistory(domain.HistoryEntry{
			ActorID:   report.AssignedTo[0],
			ActorRole: domain.RoleOfficer,
			Action:    domain.ActionAutoAssigned,
			CreatedAt: now,
		})
	}
}

// =============================================================================
// Transition
// =============================================================================

// Transition applies a guarded status change.
//
// Each attempt re-reads the report, re-decides against the fresh snapshot,
// and persists with a conditional write on the read status. A conflict means
// another writer got there first; the loop retries up to
// maxTransitionAttempts before surfacing ECONFLICT.
func (s *reportService) Transition(ctx context.Context, params domain.TransitionParams) (*domain.Report, error) {
	const op = "report.transition"

	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		report, err := s.store.FindByID(ctx, params.ReportID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.NotFound(op, "report", params.ReportID.String())
			}
			return nil, domain.Internal(err, op, "failed to load report")
		}

		decision := domain.DecideTransition(report.TransitionRequestFor(params.Target, params.Actor, params.Reason))
		if !decision.Allowed {
			metrics.TransitionsTotal.WithLabelValues(params.Target.String(), string(decision.Reason)).Inc()
			return nil, domain.GuardRejection(op, decision.Reason)
		}

		expected := report.Status
		report.ApplyTransition(params.Target, params.Actor, decision, time.Now())
		entry := report.History[len(report.History)-1]

		err = s.store.SaveTransition(ctx, report, expected, entry)
		if errors.Is(err, repository.ErrStatusConflict) {
			metrics.TransitionConflicts.Inc()
			s.logger.Debug("transition conflict, retrying",
				"report_id", report.ID,
				"attempt", attempt,
			)
			continue
		}
		if err != nil {
			return nil, domain.Internal(err, op, "failed to save transition")
		}

		metrics.TransitionsTotal.WithLabelValues(params.Target.String(), "allowed").Inc()
		s.logger.Info("report transitioned",
			"report_id", report.ID,
			"from", expected,
			"to", report.Status,
			"actor_role", params.Actor.Role,
		)

		s.notifyTransition(ctx, report)
		return report, nil
	}

	return nil, domain.Conflict(op, "report was modified concurrently, please retry")
}

// notifyTransition fires the post-transition notification hooks. Directory
// lookups for recipients are best-effort; failures are logged and swallowed.
func (s *reportService) notifyTransition(ctx context.Context, report *domain.Report) {
	switch report.Status {
	case domain.StatusAwaitingVerification:
		s.dispatcher.Dispatch(notify.Event{
			Recipients: []uuid.UUID{report.ReporterID},
			Type:       notify.EventAwaitingVerification,
			ReportID:   report.ID,
			Payload:    map[string]any{"title": report.Title},
		})

	case domain.StatusMisrouted:
		recipients := []uuid.UUID{report.ReporterID}
		admins, err := s.directory.ListAdminIDs(ctx)
		if err != nil {
			s.logger.Warn("failed to list admins for misroute notification",
				"report_id", report.ID,
				"error", err,
			)
		} else {
			recipients = append(recipients, admins...)
		}
		s.dispatcher.Dispatch(notify.Event{
			Recipients: recipients,
			Type:       notify.EventMisrouted,
			ReportID:   report.ID,
			Payload: map[string]any{
				"title":  report.Title,
				"reason": report.MisrouteReason,
			},
		})
	}
}

// =============================================================================
// Read Operations
// =============================================================================

// GetByID retrieves a fully hydrated report.
func (s *reportService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	const op = "report.get"

	report, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "report", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load report")
	}
	return report, nil
}

// List retrieves report summaries matching the filter.
func (s *reportService) List(ctx context.Context, params domain.ListReportsParams) ([]domain.Report, error) {
	const op = "report.list"

	if params.Limit <= 0 {
		params.Limit = 50
	}
	if params.Limit > 100 {
		params.Limit = 100
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	reports, err := s.store.FindMany(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list reports")
	}
	return reports, nil
}
