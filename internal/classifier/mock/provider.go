package mock

import (
	"context"
	"log/slog"
	"strings"

	"github.com/civicdesk/civicdesk/internal/classifier"
)

// Provider is a keyword-matching classifier for development and testing.
type Provider struct {
	logger *slog.Logger

	// Configurable responses for testing
	SuggestCategoryResponse string
	SuggestCategoryError    error

	// Call tracking for testing
	SuggestCategoryCalls int
}

// New creates a new mock classifier provider.
func New(logger *slog.Logger) *Provider {
	return &Provider{logger: logger}
}

// SuggestCategory matches report text against candidate category names by
// keyword. A candidate matches when every word of its name appears in the
// text; the first match in candidate order wins.
func (p *Provider) SuggestCategory(ctx context.Context, text string, candidates []string) (string, error) {
	p.SuggestCategoryCalls++

	if p.SuggestCategoryError != nil {
		return "", p.SuggestCategoryError
	}
	if p.SuggestCategoryResponse != "" {
		return p.SuggestCategoryResponse, nil
	}

	lower := strings.ToLower(text)
	for _, name := range candidates {
		if matchesText(lower, name) {
			p.logger.Debug("classifier matched category", "category", name)
			return name, nil
		}
	}

	return classifier.CategoryUnknown, nil
}

func matchesText(text, category string) bool {
	words := strings.Fields(strings.ToLower(category))
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}
