package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ingestion pipeline. Callers match them with errors.Is;
// none of them are swallowed between the store and the HTTP boundary.
var (
	// ErrNotFoundUpstream means the content provider has no such article.
	ErrNotFoundUpstream = errors.New("article not found upstream")

	// ErrUpstreamUnavailable means a transport failure or non-success status
	// while talking to the content provider or the extraction service.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrExtractionFailed means the extraction service replied but the payload
	// did not match the expected structure.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrPersistenceFailed means the transactional commit could not complete.
	ErrPersistenceFailed = errors.New("persistence failed")
)

// Sentinel errors for entity lookups.
var (
	ErrArticleNotFound = errors.New("article not found")
	ErrConceptNotFound = errors.New("concept not found")
	ErrFieldNotFound   = errors.New("field not found")
)

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrInvalidArticleID is returned for article identifiers that cannot be sent upstream.
var ErrInvalidArticleID = errors.New("invalid article id")

// ErrInvalidQuery is returned for malformed search or lookup parameters.
var ErrInvalidQuery = errors.New("invalid query")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
