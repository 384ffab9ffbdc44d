package store

import "strings"

// maxListLimit caps limit values for list queries.
const maxListLimit = 1000

// defaultListLimit applies when callers pass a non-positive limit.
const defaultListLimit = 50

// clampLimit normalizes a caller-supplied list limit.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}

	if limit > maxListLimit {
		return maxListLimit
	}

	return limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching names that contain term,
// with the term's own wildcard characters escaped.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// nullIfEmpty maps "" to SQL NULL for nullable text columns.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
