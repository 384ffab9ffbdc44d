package models

import "fmt"

// SearchMode selects how a name lookup matches.
type SearchMode string

// Supported search modes.
const (
	SearchExact   SearchMode = "exact"
	SearchSimilar SearchMode = "similar"
)

// maxSearchTermLen bounds name search input.
const maxSearchTermLen = 255

// ParseSearchMode maps a query parameter to a SearchMode. Empty means exact.
func ParseSearchMode(s string) (SearchMode, error) {
	switch SearchMode(s) {
	case "", SearchExact:
		return SearchExact, nil
	case SearchSimilar:
		return SearchSimilar, nil
	default:
		return "", fmt.Errorf("%w: mode must be %q or %q, got %q", ErrInvalidQuery, SearchExact, SearchSimilar, s)
	}
}

// ValidateSearchTerm checks a name search term.
func ValidateSearchTerm(term string) error {
	if term == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidQuery)
	}

	if len(term) > maxSearchTermLen {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrFieldTooLong("name", maxSearchTermLen))
	}

	return nil
}
