package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/civicdesk/civicdesk/internal/domain"
)

// ListActiveOfficersByDepartment returns active officers directly linked to
// the department. Link order is preserved: it is the tie-break order of the
// assignment selector.
func (q *Queries) ListActiveOfficersByDepartment(ctx context.Context, departmentID uuid.UUID) ([]domain.OfficerCandidate, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT u.id, u.department_label
		FROM department_officers do2
		JOIN users u ON u.id = do2.user_id
		WHERE do2.department_id = $1
		  AND u.role = $2
		  AND u.status = $3
		ORDER BY do2.position`,
		departmentID, domain.RoleOfficer, domain.UserStatusActive)
	if err != nil {
		return nil, fmt.Errorf("query department officers: %w", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// ListActiveOfficersByDepartmentLabel returns active officers whose own
// department label matches the given name.
func (q *Queries) ListActiveOfficersByDepartmentLabel(ctx context.Context, name string) ([]domain.OfficerCandidate, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, department_label
		FROM users
		WHERE role = $1
		  AND status = $2
		  AND department_label = $3
		ORDER BY created_at`,
		domain.RoleOfficer, domain.UserStatusActive, name)
	if err != nil {
		return nil, fmt.Errorf("query officers by label: %w", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// ListAdminIDs returns the ids of all admin and superadmin accounts.
func (q *Queries) ListAdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id
		FROM users
		WHERE role = ANY($1::text[])`,
		[]string{string(domain.RoleAdmin), string(domain.RoleSuperadmin)})
	if err != nil {
		return nil, fmt.Errorf("query admins: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanCandidates(rows *sql.Rows) ([]domain.OfficerCandidate, error) {
	var candidates []domain.OfficerCandidate
	for rows.Next() {
		var c domain.OfficerCandidate
		if err := rows.Scan(&c.ID, &c.DepartmentLabel); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// GetCategoryByName returns the category with the given name.
func (q *Queries) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	var (
		c            domain.Category
		departmentID *uuid.UUID
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, name, department_id, created_at
		FROM categories
		WHERE name = $1`, name,
	).Scan(&c.ID, &c.Name, &departmentID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.DepartmentID = departmentID
	return &c, nil
}

// GetDepartmentByName returns the department with the given name.
func (q *Queries) GetDepartmentByName(ctx context.Context, name string) (*domain.Department, error) {
	var d domain.Department
	err := q.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM departments
		WHERE name = $1`, name,
	).Scan(&d.ID, &d.Name, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDepartmentForCategory returns the department linked to the category.
func (q *Queries) GetDepartmentForCategory(ctx context.Context, categoryID uuid.UUID) (*domain.Department, error) {
	var d domain.Department
	err := q.db.QueryRowContext(ctx, `
		SELECT d.id, d.name, d.created_at
		FROM departments d
		JOIN categories c ON c.department_id = d.id
		WHERE c.id = $1`, categoryID,
	).Scan(&d.ID, &d.Name, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListCategoryNames returns all category names.
func (q *Queries) ListCategoryNames(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
