package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/conceptmap/internal/models"
)

// ArticleStore handles point lookups on cached articles.
type ArticleStore struct {
	Base
}

// NewArticleStore creates a new ArticleStore.
func NewArticleStore(base Base) *ArticleStore {
	return &ArticleStore{Base: base}
}

// ArticleExists reports whether the article is already cached.
func (s *ArticleStore) ArticleExists(ctx context.Context, articleID string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists bool

	err := s.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM article WHERE article_id = $1)", articleID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking article existence: %w", err)
	}

	return exists, nil
}

// GetArticle returns a single article row.
func (s *ArticleStore) GetArticle(ctx context.Context, articleID string) (*models.Article, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	a, err := scanArticle(s.Pool.QueryRow(ctx,
		"SELECT "+articleColumns+" FROM article WHERE article_id = $1", articleID,
	).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrArticleNotFound
		}

		return nil, fmt.Errorf("getting article: %w", err)
	}

	return a, nil
}

// GetArticleRecord assembles an article with its concepts and fields of study
// from one snapshot.
func (s *ArticleStore) GetArticleRecord(ctx context.Context, articleID string) (*models.ArticleRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading article record: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only transaction.

	a, err := scanArticle(tx.QueryRow(ctx,
		"SELECT "+articleColumns+" FROM article WHERE article_id = $1", articleID,
	).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrArticleNotFound
		}

		return nil, fmt.Errorf("getting article: %w", err)
	}

	concepts, err := queryNamedRefs(ctx, tx, `SELECT c.concept_name, c.concept_id
		FROM article_concept ac
		JOIN concept c ON c.concept_id = ac.concept_id
		WHERE ac.article_id = $1
		ORDER BY c.concept_id`, articleID)
	if err != nil {
		return nil, fmt.Errorf("listing article concepts: %w", err)
	}

	fields, err := queryNamedRefs(ctx, tx, `SELECT f.field_name, f.field_id
		FROM article_related_field af
		JOIN study_field f ON f.field_id = af.field_id
		WHERE af.article_id = $1
		ORDER BY f.field_id`, articleID)
	if err != nil {
		return nil, fmt.Errorf("listing article fields: %w", err)
	}

	return &models.ArticleRecord{
		ArticleID:     a.ID,
		Title:         a.Title,
		Content:       a.Content,
		SourceLink:    a.SourceLink,
		Concepts:      concepts,
		FieldsOfStudy: fields,
	}, nil
}

// GetConceptMap returns the stored diagram source for an article. A cached
// article without a diagram yields an empty source.
func (s *ArticleStore) GetConceptMap(ctx context.Context, articleID string) (*models.ConceptMap, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var code *string

	err := s.Pool.QueryRow(ctx,
		"SELECT concept_map_code FROM article WHERE article_id = $1", articleID,
	).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrArticleNotFound
		}

		return nil, fmt.Errorf("getting concept map: %w", err)
	}

	m := &models.ConceptMap{}
	if code != nil {
		m.DiagramSource = *code
	}

	return m, nil
}

// queryNamedRefs runs a (name, id) query on q.
func queryNamedRefs(ctx context.Context, q querier, sql string, args ...any) ([]models.NamedRef, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNamedRefs(rows)
}
