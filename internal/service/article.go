package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/persistorai/conceptmap/internal/domain"
	"github.com/persistorai/conceptmap/internal/models"
)

// Compile-time check: *ArticleService must satisfy domain.ArticleService.
var _ domain.ArticleService = (*ArticleService)(nil)

// ArticleEnsurer makes an article available in the store.
type ArticleEnsurer interface {
	EnsureArticle(ctx context.Context, articleID string) error
}

// ArticleReader reads stored article records.
type ArticleReader interface {
	GetArticleRecord(ctx context.Context, articleID string) (*models.ArticleRecord, error)
	GetConceptMap(ctx context.Context, articleID string) (*models.ConceptMap, error)
}

// ArticleService serves article records, ingesting unknown articles first.
type ArticleService struct {
	pipeline ArticleEnsurer
	reader   ArticleReader
}

// NewArticleService creates an ArticleService.
func NewArticleService(pipeline ArticleEnsurer, reader ArticleReader) *ArticleService {
	return &ArticleService{pipeline: pipeline, reader: reader}
}

// GetArticleRecord ensures the article is stored and returns it with its
// concepts and fields of study.
func (s *ArticleService) GetArticleRecord(ctx context.Context, articleID string) (*models.ArticleRecord, error) {
	if err := s.pipeline.EnsureArticle(ctx, articleID); err != nil {
		return nil, err
	}

	rec, err := s.reader.GetArticleRecord(ctx, articleID)
	if err != nil {
		return nil, readError(err)
	}

	return rec, nil
}

// GetConceptMap ensures the article is stored and returns its diagram source.
func (s *ArticleService) GetConceptMap(ctx context.Context, articleID string) (*models.ConceptMap, error) {
	if err := s.pipeline.EnsureArticle(ctx, articleID); err != nil {
		return nil, err
	}

	m, err := s.reader.GetConceptMap(ctx, articleID)
	if err != nil {
		return nil, readError(err)
	}

	return m, nil
}

// readError classifies a store failure after a successful ensure. Not-found
// passes through; anything else is a persistence failure.
func readError(err error) error {
	if errors.Is(err, models.ErrArticleNotFound) || errors.Is(err, models.ErrPersistenceFailed) {
		return err
	}

	return fmt.Errorf("%w: reading article: %w", models.ErrPersistenceFailed, err)
}
