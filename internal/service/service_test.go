package service

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/civicdesk/civicdesk/internal/domain"
	"github.com/civicdesk/civicdesk/internal/notify"
	"github.com/civicdesk/civicdesk/internal/repository"
)

// Shared in-memory fakes for service tests.

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// -----------------------------------------------------------------------------
// fakeStore
// -----------------------------------------------------------------------------

type fakeStore struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*domain.Report

	// openCounts seeds CountOpenByAssignees results per officer.
	openCounts map[uuid.UUID]int

	// conflictsRemaining makes SaveTransition fail with ErrStatusConflict
	// that many times before succeeding.
	conflictsRemaining int

	findErr error
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reports:    make(map[uuid.UUID]*domain.Report),
		openCounts: make(map[uuid.UUID]int),
	}
}

func cloneReport(r *domain.Report) *domain.Report {
	c := *r
	c.AssignedTo = append([]uuid.UUID(nil), r.AssignedTo...)
	c.PhotosBefore = append([]domain.Photo(nil), r.PhotosBefore...)
	c.PhotosAfter = append([]domain.Photo(nil), r.PhotosAfter...)
	c.History = append([]domain.HistoryEntry(nil), r.History...)
	return &c
}

func (f *fakeStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	r, ok := f.reports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneReport(r), nil
}

func (f *fakeStore) FindMany(_ context.Context, params domain.ListReportsParams) ([]domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Report
	for _, r := range f.reports {
		if params.Status != nil && r.Status != *params.Status {
			continue
		}
		if params.ReporterID != nil && r.ReporterID != *params.ReporterID {
			continue
		}
		out = append(out, *cloneReport(r))
	}
	return out, nil
}

func (f *fakeStore) CountOpenByAssignees(_ context.Context, officerIDs []uuid.UUID, _ []domain.ReportStatus) (map[uuid.UUID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[uuid.UUID]int)
	for _, id := range officerIDs {
		if n, ok := f.openCounts[id]; ok && n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

func (f *fakeStore) Create(_ context.Context, report *domain.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[report.ID] = cloneReport(report)
	return nil
}

func (f *fakeStore) SaveTransition(_ context.Context, report *domain.Report, expected domain.ReportStatus, _ domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.conflictsRemaining > 0 {
		f.conflictsRemaining--
		return repository.ErrStatusConflict
	}
	stored, ok := f.reports[report.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if stored.Status != expected {
		return repository.ErrStatusConflict
	}
	f.reports[report.ID] = cloneReport(report)
	return nil
}

func (f *fakeStore) AddPhoto(_ context.Context, photo *domain.Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.reports[photo.ReportID]
	if !ok {
		return sql.ErrNoRows
	}
	if photo.Phase == domain.PhotoPhaseAfter {
		stored.PhotosAfter = append(stored.PhotosAfter, *photo)
	} else {
		stored.PhotosBefore = append(stored.PhotosBefore, *photo)
	}
	return nil
}

// get returns the stored report without cloning, for assertions.
func (f *fakeStore) get(id uuid.UUID) *domain.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports[id]
}

// -----------------------------------------------------------------------------
// fakeDirectory
// -----------------------------------------------------------------------------

type fakeDirectory struct {
	deptOfficers  map[uuid.UUID][]domain.OfficerCandidate
	labelOfficers map[string][]domain.OfficerCandidate
	adminIDs      []uuid.UUID
	adminErr      error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		deptOfficers:  make(map[uuid.UUID][]domain.OfficerCandidate),
		labelOfficers: make(map[string][]domain.OfficerCandidate),
	}
}

func (f *fakeDirectory) ListActiveOfficersByDepartment(_ context.Context, departmentID uuid.UUID) ([]domain.OfficerCandidate, error) {
	return f.deptOfficers[departmentID], nil
}

func (f *fakeDirectory) ListActiveOfficersByDepartmentLabel(_ context.Context, name string) ([]domain.OfficerCandidate, error) {
	return f.labelOfficers[name], nil
}

func (f *fakeDirectory) ListAdminIDs(_ context.Context) ([]uuid.UUID, error) {
	if f.adminErr != nil {
		return nil, f.adminErr
	}
	return f.adminIDs, nil
}

// -----------------------------------------------------------------------------
// fakeCatalog
// -----------------------------------------------------------------------------

type fakeCatalog struct {
	categories  map[string]*domain.Category
	departments map[string]*domain.Department
	catDept     map[uuid.UUID]*domain.Department
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		categories:  make(map[string]*domain.Category),
		departments: make(map[string]*domain.Department),
		catDept:     make(map[uuid.UUID]*domain.Department),
	}
}

func (f *fakeCatalog) GetCategoryByName(_ context.Context, name string) (*domain.Category, error) {
	c, ok := f.categories[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (f *fakeCatalog) GetDepartmentByName(_ context.Context, name string) (*domain.Department, error) {
	d, ok := f.departments[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

func (f *fakeCatalog) GetDepartmentForCategory(_ context.Context, categoryID uuid.UUID) (*domain.Department, error) {
	d, ok := f.catDept[categoryID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

func (f *fakeCatalog) ListCategoryNames(_ context.Context) ([]string, error) {
	var names []string
	for name := range f.categories {
		names = append(names, name)
	}
	return names, nil
}

// -----------------------------------------------------------------------------
// fakeDispatcher
// -----------------------------------------------------------------------------

type fakeDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (f *fakeDispatcher) Dispatch(event notify.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeDispatcher) byType(t notify.EventType) []notify.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notify.Event
	for _, e := range f.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Fixture
// -----------------------------------------------------------------------------

type fixture struct {
	store      *fakeStore
	directory  *fakeDirectory
	catalog    *fakeCatalog
	dispatcher *fakeDispatcher
	reports    ReportService
}

func newFixture() *fixture {
	f := &fixture{
		store:      newFakeStore(),
		directory:  newFakeDirectory(),
		catalog:    newFakeCatalog(),
		dispatcher: &fakeDispatcher{},
	}
	f.reports = NewReportService(f.store, f.directory, f.catalog, nil, f.dispatcher, testLogger())
	return f
}

// seedDepartment registers a department with directly linked officers.
func (f *fixture) seedDepartment(name string, officers ...domain.OfficerCandidate) *domain.Department {
	dept := &domain.Department{ID: uuid.New(), Name: name}
	f.catalog.departments[name] = dept
	f.directory.deptOfficers[dept.ID] = officers
	return dept
}
