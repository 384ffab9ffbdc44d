package service

import (
	"context"
	"strings"

	"github.com/persistorai/conceptmap/internal/domain"
	"github.com/persistorai/conceptmap/internal/models"
)

// Compile-time check: *ConceptService must satisfy domain.ConceptService.
var _ domain.ConceptService = (*ConceptService)(nil)

// ConceptStore is the data-access interface ConceptService depends on.
type ConceptStore interface {
	FindConceptsByName(ctx context.Context, name string) ([]models.NamedRef, error)
	FindConceptsLike(ctx context.Context, term string, limit int) ([]models.NamedRef, error)
	GetConcept(ctx context.Context, id int64) (*models.NamedRef, error)
	ArticlesByConcept(ctx context.Context, id int64, limit int) ([]string, error)
	FindFieldsByName(ctx context.Context, name string) ([]models.NamedRef, error)
	FindFieldsLike(ctx context.Context, term string, limit int) ([]models.NamedRef, error)
	GetField(ctx context.Context, id int64) (*models.NamedRef, error)
	ArticlesByField(ctx context.Context, id int64, limit int) ([]string, error)
}

// ConceptService exposes read-only lookups over stored concepts and fields.
// It never triggers ingestion.
type ConceptService struct {
	store ConceptStore
}

// NewConceptService creates a ConceptService.
func NewConceptService(store ConceptStore) *ConceptService {
	return &ConceptService{store: store}
}

// SearchConcepts finds concepts by exact name or by case-insensitive substring.
func (s *ConceptService) SearchConcepts(
	ctx context.Context, name string, mode models.SearchMode, limit int,
) ([]models.NamedRef, error) {
	name = strings.TrimSpace(name)
	if err := models.ValidateSearchTerm(name); err != nil {
		return nil, err
	}

	if mode == models.SearchSimilar {
		return s.store.FindConceptsLike(ctx, name, limit)
	}

	return s.store.FindConceptsByName(ctx, name)
}

// GetConcept returns a concept by id (pass-through).
func (s *ConceptService) GetConcept(ctx context.Context, id int64) (*models.NamedRef, error) {
	return s.store.GetConcept(ctx, id)
}

// ArticlesByConcept lists the articles linked to an existing concept.
func (s *ConceptService) ArticlesByConcept(ctx context.Context, id int64, limit int) ([]string, error) {
	if _, err := s.store.GetConcept(ctx, id); err != nil {
		return nil, err
	}

	return s.store.ArticlesByConcept(ctx, id, limit)
}

// SearchFields finds fields of study by exact name or by case-insensitive substring.
func (s *ConceptService) SearchFields(
	ctx context.Context, name string, mode models.SearchMode, limit int,
) ([]models.NamedRef, error) {
	name = strings.TrimSpace(name)
	if err := models.ValidateSearchTerm(name); err != nil {
		return nil, err
	}

	if mode == models.SearchSimilar {
		return s.store.FindFieldsLike(ctx, name, limit)
	}

	return s.store.FindFieldsByName(ctx, name)
}

// GetField returns a field of study by id (pass-through).
func (s *ConceptService) GetField(ctx context.Context, id int64) (*models.NamedRef, error) {
	return s.store.GetField(ctx, id)
}

// ArticlesByField lists the articles linked to an existing field of study.
func (s *ConceptService) ArticlesByField(ctx context.Context, id int64, limit int) ([]string, error) {
	if _, err := s.store.GetField(ctx, id); err != nil {
		return nil, err
	}

	return s.store.ArticlesByField(ctx, id, limit)
}
