package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a report. Categories may be linked to the department
// that handles them; the link drives department resolution at creation time.
type Category struct {
	ID           uuid.UUID
	Name         string
	DepartmentID *uuid.UUID
	CreatedAt    time.Time
}

// Department groups officers responsible for a set of categories.
type Department struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}
