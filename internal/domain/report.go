// Package domain contains core business types and interfaces.
//
// This file defines the Report domain type: the central entity of the
// civic-issue tracker, its status lifecycle, evidence photos, and the
// append-only history log.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Report Status
// =============================================================================

// ReportStatus represents the lifecycle state of a report.
type ReportStatus string

const (
	// StatusDraft indicates a report the citizen is still composing.
	StatusDraft ReportStatus = "draft"

	// StatusSubmitted indicates a filed report with no officer assigned yet.
	StatusSubmitted ReportStatus = "submitted"

	// StatusAssigned indicates an officer has been assigned but has not
	// started working on the report.
	StatusAssigned ReportStatus = "assigned"

	// StatusInProgress indicates the assigned officer is actively working
	// the report.
	StatusInProgress ReportStatus = "in_progress"

	// StatusAwaitingVerification indicates the officer finished the work and
	// the reporter must confirm the resolution.
	StatusAwaitingVerification ReportStatus = "awaiting_verification"

	// StatusVerified indicates the reporter confirmed the resolution.
	StatusVerified ReportStatus = "verified"

	// StatusClosed indicates the report reached the end of its lifecycle.
	StatusClosed ReportStatus = "closed"

	// StatusMisrouted indicates the assigned officer flagged the report as
	// routed to the wrong department. Terminal for the officer path.
	StatusMisrouted ReportStatus = "misrouted"

	// StatusDeleted is absorbing: no role, including admins, may transition
	// a report out of it.
	StatusDeleted ReportStatus = "deleted"
)

// String returns the string representation of the status.
func (s ReportStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s ReportStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusAssigned, StatusInProgress,
		StatusAwaitingVerification, StatusVerified, StatusClosed,
		StatusMisrouted, StatusDeleted:
		return true
	}
	return false
}

// IsOpen returns true if the status counts toward an officer's workload.
func (s ReportStatus) IsOpen() bool {
	switch s {
	case StatusAssigned, StatusInProgress, StatusAwaitingVerification:
		return true
	}
	return false
}

// IsTerminal returns true for states with no outgoing officer or reporter
// transitions.
func (s ReportStatus) IsTerminal() bool {
	switch s {
	case StatusClosed, StatusMisrouted, StatusDeleted:
		return true
	}
	return false
}

// OpenStatuses returns the statuses that count toward officer workload,
// in a stable order suitable for store queries.
func OpenStatuses() []ReportStatus {
	return []ReportStatus{StatusAssigned, StatusInProgress, StatusAwaitingVerification}
}

// =============================================================================
// History
// =============================================================================

// History entry actions written by the lifecycle engine.
const (
	// ActionCreated is recorded when a report is created without
	// auto-assignment.
	ActionCreated = "created"

	// ActionCreatedAutoAssigned is recorded for the reporter when creation
	// succeeded in auto-assigning an officer.
	ActionCreatedAutoAssigned = "created (auto-assigned)"

	// ActionAutoAssigned is recorded on behalf of the selected officer when
	// the assignment selector routed the report to them.
	ActionAutoAssigned = "auto-assigned (load-balanced)"
)

// TransitionAction formats the history action for a status change.
func TransitionAction(from, to ReportStatus) string {
	return fmt.Sprintf("status:%s->%s", from, to)
}

// HistoryEntry is an immutable provenance record appended on every lifecycle
// mutation. Entries are never mutated, truncated, or reordered.
type HistoryEntry struct {
	ActorID   uuid.UUID
	ActorRole Role
	Action    string
	CreatedAt time.Time
}

// =============================================================================
// Evidence Photos
// =============================================================================

// PhotoPhase distinguishes evidence captured before and after the work.
type PhotoPhase string

const (
	PhotoPhaseBefore PhotoPhase = "before"
	PhotoPhaseAfter  PhotoPhase = "after"
)

// IsValid returns true if the phase is a recognized value.
func (p PhotoPhase) IsValid() bool {
	return p == PhotoPhaseBefore || p == PhotoPhaseAfter
}

// Photo is an evidence attachment on a report. Photos keep their upload
// order via Position.
type Photo struct {
	ID          uuid.UUID
	ReportID    uuid.UUID
	Phase       PhotoPhase
	StorageKey  string
	ContentType string
	Position    int
	CreatedAt   time.Time
}

// =============================================================================
// Report Domain Type
// =============================================================================

// Report is the central entity of the tracker.
//
// Status and History must always be persisted together: a transition writes
// the new status and the appended history entry in one store call.
type Report struct {
	ID              uuid.UUID
	Title           string
	Description     string
	CategoryID      *uuid.UUID // Optional classification
	DepartmentLabel string     // Optional display label used for routing
	Status          ReportStatus
	AssignedTo      []uuid.UUID // Ordered set of officer ids, normally 0 or 1
	MisrouteReason  string      // Set only by a transition to misrouted
	ReporterID      uuid.UUID
	PhotosBefore    []Photo
	PhotosAfter     []Photo
	History         []HistoryEntry
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsAssignedTo returns true if the officer appears in the assignee set.
func (r *Report) IsAssignedTo(officerID uuid.UUID) bool {
	for _, id := range r.AssignedTo {
		if id == officerID {
			return true
		}
	}
	return false
}

// HasAfterPhotos returns true if at least one after-photo is attached.
func (r *Report) HasAfterPhotos() bool {
	return len(r.PhotosAfter) > 0
}

// AppendHistory appends an entry to the history log.
func (r *Report) AppendHistory(e HistoryEntry) {
	r.History = append(r.History, e)
}

// TransitionRequestFor builds the guard input for a requested transition
// against the report's current in-memory state.
func (r *Report) TransitionRequestFor(target ReportStatus, actor Actor, reason string) TransitionRequest {
	return TransitionRequest{
		Current:        r.Status,
		Target:         target,
		Actor:          actor,
		ActorAssigned:  r.IsAssignedTo(actor.ID),
		HasAfterPhotos: r.HasAfterPhotos(),
		Reason:         reason,
	}
}

// ApplyTransition mutates the in-memory report per an allowed guard decision:
// sets the new status, applies side-state, and appends the history entry.
// It never touches storage; persisting the mutation is the caller's job.
func (r *Report) ApplyTransition(target ReportStatus, actor Actor, d Decision, now time.Time) {
	old := r.Status
	r.Status = target
	if d.MisrouteReason != "" {
		r.MisrouteReason = d.MisrouteReason
	}
	r.UpdatedAt = now
	r.AppendHistory(HistoryEntry{
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Action:    TransitionAction(old, target),
		CreatedAt: now,
	})
}

// =============================================================================
// Service Parameters
// =============================================================================

// CreateReportParams contains validated parameters for creating a report.
type CreateReportParams struct {
	ReporterID      uuid.UUID
	Title           string
	Description     string
	CategoryName    string      // Optional; classifier consulted when empty
	DepartmentLabel string      // Optional; takes precedence when routing
	AssigneeIDs     []uuid.UUID // Optional explicit assignment; skips auto-assignment
	Draft           bool        // Create as draft, skipping assignment entirely
}

// TransitionParams contains parameters for a lifecycle transition.
type TransitionParams struct {
	ReportID uuid.UUID
	Actor    Actor
	Target   ReportStatus
	Reason   string // Required for transitions to misrouted
}

// ListReportsParams contains filter parameters for listing reports.
type ListReportsParams struct {
	Status     *ReportStatus
	ReporterID *uuid.UUID
	AssigneeID *uuid.UUID
	Limit      int32
	Offset     int32
}
