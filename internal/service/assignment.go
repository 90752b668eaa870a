// Package service contains the business logic layer.
//
// This file implements the assignment selector: department resolution,
// candidate pool construction, and least-loaded officer selection for newly
// created reports.
package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/civicdesk/civicdesk/internal/domain"
	"github.com/civicdesk/civicdesk/internal/metrics"
)

// assignment is the outcome of one auto-assignment attempt.
type assignment struct {
	OfficerID uuid.UUID
	Assigned  bool
}

// autoAssign picks the least-loaded eligible officer for a new report.
//
// Department resolution prefers the explicit label over the category link.
// The candidate pool lists officers directly linked to the resolved
// department first, then officers whose own department label matches the
// routing name, deduplicated keeping the first occurrence. Workloads are
// counted in one query; ties keep pool order. An empty pool leaves the
// report unassigned.
func (s *reportService) autoAssign(ctx context.Context, report *domain.Report) (assignment, error) {
	dept, label, err := s.resolveDepartment(ctx, report)
	if err != nil {
		return assignment{}, err
	}
	if dept == nil && label == "" {
		metrics.AutoAssignments.WithLabelValues("no_department").Inc()
		return assignment{}, nil
	}

	pool, err := s.buildCandidatePool(ctx, dept, label)
	if err != nil {
		return assignment{}, err
	}
	if len(pool) == 0 {
		metrics.AutoAssignments.WithLabelValues("no_candidates").Inc()
		return assignment{}, nil
	}

	officerID, err := s.selectOfficer(ctx, pool)
	if err != nil {
		return assignment{}, err
	}

	metrics.AutoAssignments.WithLabelValues("assigned").Inc()
	return assignment{OfficerID: officerID, Assigned: true}, nil
}

// resolveDepartment determines the routing target. The explicit department
// label wins; otherwise the category's linked department is used. Returns the
// department record when one exists and the textual routing name.
func (s *reportService) resolveDepartment(ctx context.Context, report *domain.Report) (*domain.Department, string, error) {
	if report.DepartmentLabel != "" {
		dept, err := s.catalog.GetDepartmentByName(ctx, report.DepartmentLabel)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// No department record; label matching still applies.
				return nil, report.DepartmentLabel, nil
			}
			return nil, "", err
		}
		return dept, dept.Name, nil
	}

	if report.CategoryID != nil {
		dept, err := s.catalog.GetDepartmentForCategory(ctx, *report.CategoryID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, "", nil
			}
			return nil, "", err
		}
		return dept, dept.Name, nil
	}

	return nil, "", nil
}

// buildCandidatePool gathers eligible officers: direct department links
// first, then label matches, deduplicated keeping the first occurrence.
func (s *reportService) buildCandidatePool(ctx context.Context, dept *domain.Department, label string) ([]domain.OfficerCandidate, error) {
	var pool []domain.OfficerCandidate
	seen := make(map[uuid.UUID]bool)

	if dept != nil {
		linked, err := s.directory.ListActiveOfficersByDepartment(ctx, dept.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range linked {
			if !seen[c.ID] {
				seen[c.ID] = true
				pool = append(pool, c)
			}
		}
	}

	if label != "" {
		matched, err := s.directory.ListActiveOfficersByDepartmentLabel(ctx, label)
		if err != nil {
			return nil, err
		}
		for _, c := range matched {
			if !seen[c.ID] {
				seen[c.ID] = true
				pool = append(pool, c)
			}
		}
	}

	return pool, nil
}

// selectOfficer counts open reports per candidate in one query and returns
// the least-loaded officer. Candidates absent from the count map have zero
// open reports. Ties keep the first candidate in pool order.
func (s *reportService) selectOfficer(ctx context.Context, pool []domain.OfficerCandidate) (uuid.UUID, error) {
	ids := make([]uuid.UUID, len(pool))
	for i, c := range pool {
		ids[i] = c.ID
	}

	counts, err := s.store.CountOpenByAssignees(ctx, ids, domain.OpenStatuses())
	if err != nil {
		return uuid.Nil, err
	}

	best := pool[0].ID
	bestCount := counts[best]
	for _, c := range pool[1:] {
		if counts[c.ID] < bestCount {
			best = c.ID
			bestCount = counts[c.ID]
		}
	}
	return best, nil
}
