// Package repository provides persistence for reports and read-only access
// to the user directory and routing catalog.
//
// Interfaces are defined here so services can be tested against in-memory
// fakes; the postgres implementations live alongside them and are wired up
// in cmd/server.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/civicdesk/civicdesk/internal/domain"
)

// ErrStatusConflict is returned by SaveTransition when the conditional write
// found a different current status than the one the decision was made
// against. Callers re-read and re-decide.
var ErrStatusConflict = errors.New("report status changed concurrently")

// ReportStore persists reports. Status and history are always written
// together: Create and SaveTransition each run in a single transaction.
type ReportStore interface {
	// FindByID returns the fully hydrated report: assignees, photos in
	// upload order, and the complete history log in append order.
	// Returns sql.ErrNoRows if the report does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Report, error)

	// FindMany returns report summaries matching the filter. History and
	// photos are not hydrated on list reads.
	FindMany(ctx context.Context, params domain.ListReportsParams) ([]domain.Report, error)

	// CountOpenByAssignees returns, per officer, the number of reports
	// currently assigned to them with a status in the given set. A report
	// with N assignees counts once for each of them. Officers with no open
	// reports are absent from the map.
	CountOpenByAssignees(ctx context.Context, officerIDs []uuid.UUID, open []domain.ReportStatus) (map[uuid.UUID]int, error)

	// Create inserts the report with its assignees and initial history
	// entries in one transaction.
	Create(ctx context.Context, report *domain.Report) error

	// SaveTransition writes the report's new status and side-state and
	// appends the given history entry, conditional on the stored status
	// still being expected. Returns ErrStatusConflict if it is not.
	SaveTransition(ctx context.Context, report *domain.Report, expected domain.ReportStatus, entry domain.HistoryEntry) error

	// AddPhoto appends an evidence photo record to a report.
	AddPhoto(ctx context.Context, photo *domain.Photo) error
}

// OfficerDirectory exposes read-only projections of the user directory.
type OfficerDirectory interface {
	// ListActiveOfficersByDepartment returns active officers directly
	// linked to the department, in link order.
	ListActiveOfficersByDepartment(ctx context.Context, departmentID uuid.UUID) ([]domain.OfficerCandidate, error)

	// ListActiveOfficersByDepartmentLabel returns active officers whose
	// own department label matches the given name, in account order.
	ListActiveOfficersByDepartmentLabel(ctx context.Context, name string) ([]domain.OfficerCandidate, error)

	// ListAdminIDs returns the ids of all admin and superadmin accounts.
	ListAdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Catalog exposes the category/department routing data.
type Catalog interface {
	// GetCategoryByName returns the category with the given name.
	// Returns sql.ErrNoRows if it does not exist.
	GetCategoryByName(ctx context.Context, name string) (*domain.Category, error)

	// GetDepartmentByName returns the department with the given name.
	// Returns sql.ErrNoRows if it does not exist.
	GetDepartmentByName(ctx context.Context, name string) (*domain.Department, error)

	// GetDepartmentForCategory returns the department whose category set
	// contains the given category. Returns sql.ErrNoRows if the category
	// is not linked to a department.
	GetDepartmentForCategory(ctx context.Context, categoryID uuid.UUID) (*domain.Department, error)

	// ListCategoryNames returns all category names, for the classifier's
	// candidate set.
	ListCategoryNames(ctx context.Context) ([]string, error)
}

// Queries bundles the postgres implementations over a shared database handle.
type Queries struct {
	db *sql.DB
}

// New creates the postgres-backed repositories.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}
