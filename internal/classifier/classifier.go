// Package classifier defines the category-suggestion boundary.
//
// When a report is created without an explicit category, the service consults
// a Provider to suggest one from the known category names. The classifier is
// advisory only: errors and unknown results leave the report uncategorized.
package classifier

import (
	"context"
	"errors"
)

// CategoryUnknown is returned when the provider cannot match the report text
// to any known category.
const CategoryUnknown = "UNKNOWN"

// ErrUnavailable indicates the provider could not be reached.
var ErrUnavailable = errors.New("classifier unavailable")

// Provider suggests a category for free-form report text.
type Provider interface {
	// SuggestCategory picks one of candidates for the given text, or
	// CategoryUnknown when nothing matches. Candidates are category names.
	SuggestCategory(ctx context.Context, text string, candidates []string) (string, error)
}
