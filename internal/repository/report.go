package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/civicdesk/civicdesk/internal/domain"
)

// FindByID returns the fully hydrated report.
func (q *Queries) FindByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	var (
		report     domain.Report
		categoryID sql.NullString
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, title, description, category_id, department_label, status,
		       misroute_reason, reporter_id, created_at, updated_at
		FROM reports
		WHERE id = $1`, id,
	).Scan(
		&report.ID, &report.Title, &report.Description, &categoryID,
		&report.DepartmentLabel, &report.Status, &report.MisrouteReason,
		&report.ReporterID, &report.CreatedAt, &report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		cid, err := uuid.Parse(categoryID.String)
		if err != nil {
			return nil, fmt.Errorf("parse category id: %w", err)
		}
		report.CategoryID = &cid
	}

	if report.AssignedTo, err = q.reportAssignees(ctx, id); err != nil {
		return nil, err
	}
	if report.PhotosBefore, report.PhotosAfter, err = q.reportPhotos(ctx, id); err != nil {
		return nil, err
	}
	if report.History, err = q.reportHistory(ctx, id); err != nil {
		return nil, err
	}
	return &report, nil
}

func (q *Queries) reportAssignees(ctx context.Context, reportID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT user_id
		FROM report_assignees
		WHERE report_id = $1
		ORDER BY position`, reportID)
	if err != nil {
		return nil, fmt.Errorf("query assignees: %w", err)
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

func (q *Queries) reportPhotos(ctx context.Context, reportID uuid.UUID) (before, after []domain.Photo, err error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, report_id, phase, storage_key, content_type, position, created_at
		FROM report_photos
		WHERE report_id = $1
		ORDER BY phase, position`, reportID)
	if err != nil {
		return nil, nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Photo
		if err := rows.Scan(&p.ID, &p.ReportID, &p.Phase, &p.StorageKey,
			&p.ContentType, &p.Position, &p.CreatedAt); err != nil {
			return nil, nil, err
		}
		switch p.Phase {
		case domain.PhotoPhaseBefore:
			before = append(before, p)
		case domain.PhotoPhaseAfter:
			after = append(after, p)
		}
	}
	return before, after, rows.Err()
}

func (q *Queries) reportHistory(ctx context.Context, reportID uuid.UUID) ([]domain.HistoryEntry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT actor_id, actor_role, action, created_at
		FROM report_history
		WHERE report_id = $1
		ORDER BY id`, reportID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ActorID, &e.ActorRole, &e.Action, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// FindMany returns report summaries matching the filter.
func (q *Queries) FindMany(ctx context.Context, params domain.ListReportsParams) ([]domain.Report, error) {
	query := `
		SELECT r.id, r.title, r.description, r.department_label, r.status,
		       r.misroute_reason, r.reporter_id, r.created_at, r.updated_at
		FROM reports r`
	var (
		where []string
		args  []any
	)
	if params.AssigneeID != nil {
		query += ` JOIN report_assignees ra ON ra.report_id = r.id`
		args = append(args, *params.AssigneeID)
		where = append(where, fmt.Sprintf("ra.user_id = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, string(*params.Status))
		where = append(where, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if params.ReporterID != nil {
		args = append(args, *params.ReporterID)
		where = append(where, fmt.Sprintf("r.reporter_id = $%d", len(args)))
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY r.created_at DESC"

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if params.Offset > 0 {
		args = append(args, params.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		var r domain.Report
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &r.DepartmentLabel,
			&r.Status, &r.MisrouteReason, &r.ReporterID, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// CountOpenByAssignees returns open-report counts per officer.
func (q *Queries) CountOpenByAssignees(ctx context.Context, officerIDs []uuid.UUID, open []domain.ReportStatus) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(officerIDs))
	if len(officerIDs) == 0 {
		return counts, nil
	}

	ids := make([]string, len(officerIDs))
	for i, id := range officerIDs {
		ids[i] = id.String()
	}
	statuses := make([]string, len(open))
	for i, s := range open {
		statuses[i] = string(s)
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT ra.user_id, COUNT(*)
		FROM report_assignees ra
		JOIN reports r ON r.id = ra.report_id
		WHERE ra.user_id = ANY($1::uuid[])
		  AND r.status = ANY($2::text[])
		GROUP BY ra.user_id`, ids, statuses)
	if err != nil {
		return nil, fmt.Errorf("count open reports: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id uuid.UUID
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// Create inserts the report with its assignees and initial history entries
// in one transaction.
func (q *Queries) Create(ctx context.Context, report *domain.Report) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var categoryID any
	if report.CategoryID != nil {
		categoryID = *report.CategoryID
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (id, title, description, category_id, department_label,
		                     status, misroute_reason, reporter_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		report.ID, report.Title, report.Description, categoryID,
		report.DepartmentLabel, report.Status, report.MisrouteReason,
		report.ReporterID, report.CreatedAt, report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	for i, officerID := range report.AssignedTo {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO report_assignees (report_id, user_id, position)
			VALUES ($1, $2, $3)`, report.ID, officerID, i)
		if err != nil {
			return fmt.Errorf("insert assignee: %w", err)
		}
	}

	for _, entry := range report.History {
		if err := insertHistory(ctx, tx, report.ID, entry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveTransition performs the conditional status write plus history append.
func (q *Queries) SaveTransition(ctx context.Context, report *domain.Report, expected domain.ReportStatus, entry domain.HistoryEntry) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE reports
		SET status = $1, misroute_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5`,
		report.Status, report.MisrouteReason, report.UpdatedAt,
		report.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStatusConflict
	}

	if err := insertHistory(ctx, tx, report.ID, entry); err != nil {
		return err
	}

	return tx.Commit()
}

func insertHistory(ctx context.Context, tx *sql.Tx, reportID uuid.UUID, entry domain.HistoryEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO report_history (report_id, actor_id, actor_role, action, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		reportID, entry.ActorID, entry.ActorRole, entry.Action, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// AddPhoto appends an evidence photo record.
func (q *Queries) AddPhoto(ctx context.Context, photo *domain.Photo) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO report_photos (id, report_id, phase, storage_key, content_type, position, created_at)
		VALUES ($1, $2, $3, $4, $5,
		        COALESCE((SELECT MAX(position) + 1 FROM report_photos
		                  WHERE report_id = $2 AND phase = $3), 0),
		        $6)`,
		photo.ID, photo.ReportID, photo.Phase, photo.StorageKey,
		photo.ContentType, photo.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}
