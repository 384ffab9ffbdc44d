// Package domain defines the canonical service interfaces shared across API
// layers (REST handlers, client). Consumers should depend on these interfaces
// rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/persistorai/conceptmap/internal/models"
)

// ArticleService resolves article identifiers into knowledge records,
// ingesting the article first when it is not cached yet.
type ArticleService interface {
	GetArticleRecord(ctx context.Context, articleID string) (*models.ArticleRecord, error)
	GetConceptMap(ctx context.Context, articleID string) (*models.ConceptMap, error)
}

// ConceptService defines read-only concept and field-of-study lookups.
type ConceptService interface {
	SearchConcepts(ctx context.Context, name string, mode models.SearchMode, limit int) ([]models.NamedRef, error)
	GetConcept(ctx context.Context, id int64) (*models.NamedRef, error)
	ArticlesByConcept(ctx context.Context, id int64, limit int) ([]string, error)
	SearchFields(ctx context.Context, name string, mode models.SearchMode, limit int) ([]models.NamedRef, error)
	GetField(ctx context.Context, id int64) (*models.NamedRef, error)
	ArticlesByField(ctx context.Context, id int64, limit int) ([]string, error)
}
