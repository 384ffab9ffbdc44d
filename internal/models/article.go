// Package models defines data types for the article knowledge graph.
package models

import (
	"fmt"
	"regexp"
	"time"
)

// maxArticleIDLen matches the width of article.article_id.
const maxArticleIDLen = 255

// validArticleID restricts identifiers to characters that are safe to embed in
// the content provider's URL path.
var validArticleID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Article is a cached article row.
type Article struct {
	ID             string    `json:"articleID"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	SourceLink     string    `json:"sourceLink"`
	ConceptMapCode *string   `json:"-"`
	CreatedAt      time.Time `json:"-"`
}

// ArticleInfo is the metadata the content provider reports for an article.
type ArticleInfo struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// NamedRef is a {name, id} pair used for the flattened concept and field lists.
type NamedRef struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// ArticleRecord is the client-facing assembly of an article and its graph.
type ArticleRecord struct {
	ArticleID     string     `json:"articleID"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	SourceLink    string     `json:"sourceLink"`
	Concepts      []NamedRef `json:"concepts"`
	FieldsOfStudy []NamedRef `json:"fieldsOfStudy"`
}

// ConceptMap carries the diagram source generated for an article.
type ConceptMap struct {
	DiagramSource string `json:"diagramSource"`
}

// ValidateArticleID checks that an article identifier is non-empty, bounded and
// URL-path safe.
func ValidateArticleID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidArticleID)
	}

	if len(id) > maxArticleIDLen {
		return fmt.Errorf("%w: %w", ErrInvalidArticleID, ErrFieldTooLong("id", maxArticleIDLen))
	}

	if !validArticleID.MatchString(id) {
		return fmt.Errorf("%w: id %q contains unsupported characters", ErrInvalidArticleID, id)
	}

	return nil
}
