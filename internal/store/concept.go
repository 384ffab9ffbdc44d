package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/conceptmap/internal/models"
)

// ConceptStore handles concept and field-of-study lookups.
type ConceptStore struct {
	Base
}

// NewConceptStore creates a new ConceptStore.
func NewConceptStore(base Base) *ConceptStore {
	return &ConceptStore{Base: base}
}

// entityTable describes one of the two name-keyed entity tables and the join
// table linking it to articles.
type entityTable struct {
	table, idCol, nameCol, joinTable string
	notFound                         error
}

var (
	conceptTable = entityTable{
		table: "concept", idCol: "concept_id", nameCol: "concept_name",
		joinTable: "article_concept", notFound: models.ErrConceptNotFound,
	}
	fieldTable = entityTable{
		table: "study_field", idCol: "field_id", nameCol: "field_name",
		joinTable: "article_related_field", notFound: models.ErrFieldNotFound,
	}
)

// FindConceptsByName returns the concept whose name matches exactly (zero or one entry).
func (s *ConceptStore) FindConceptsByName(ctx context.Context, name string) ([]models.NamedRef, error) {
	return s.findExact(ctx, conceptTable, name)
}

// FindConceptsLike returns concepts whose name contains term, case-insensitively.
func (s *ConceptStore) FindConceptsLike(ctx context.Context, term string, limit int) ([]models.NamedRef, error) {
	return s.findLike(ctx, conceptTable, term, limit)
}

// GetConcept returns a concept by id.
func (s *ConceptStore) GetConcept(ctx context.Context, id int64) (*models.NamedRef, error) {
	return s.get(ctx, conceptTable, id)
}

// ArticlesByConcept lists the ids of articles linked to a concept.
func (s *ConceptStore) ArticlesByConcept(ctx context.Context, id int64, limit int) ([]string, error) {
	return s.articles(ctx, conceptTable, id, limit)
}

// FindFieldsByName returns the field of study whose name matches exactly.
func (s *ConceptStore) FindFieldsByName(ctx context.Context, name string) ([]models.NamedRef, error) {
	return s.findExact(ctx, fieldTable, name)
}

// FindFieldsLike returns fields of study whose name contains term, case-insensitively.
func (s *ConceptStore) FindFieldsLike(ctx context.Context, term string, limit int) ([]models.NamedRef, error) {
	return s.findLike(ctx, fieldTable, term, limit)
}

// GetField returns a field of study by id.
func (s *ConceptStore) GetField(ctx context.Context, id int64) (*models.NamedRef, error) {
	return s.get(ctx, fieldTable, id)
}

// ArticlesByField lists the ids of articles linked to a field of study.
func (s *ConceptStore) ArticlesByField(ctx context.Context, id int64, limit int) ([]string, error) {
	return s.articles(ctx, fieldTable, id, limit)
}

func (s *ConceptStore) findExact(ctx context.Context, t entityTable, name string) ([]models.NamedRef, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sql := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = $1", t.nameCol, t.idCol, t.table, t.nameCol)

	refs, err := queryNamedRefs(ctx, s.Pool, sql, name)
	if err != nil {
		return nil, fmt.Errorf("finding %s by name: %w", t.table, err)
	}

	return refs, nil
}

func (s *ConceptStore) findLike(ctx context.Context, t entityTable, term string, limit int) ([]models.NamedRef, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sql := fmt.Sprintf(`SELECT %[1]s, %[2]s FROM %[3]s
		WHERE %[1]s ILIKE $1 ESCAPE '\'
		ORDER BY length(%[1]s), %[1]s
		LIMIT $2`, t.nameCol, t.idCol, t.table)

	refs, err := queryNamedRefs(ctx, s.Pool, sql, containsPattern(term), clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching %s by name: %w", t.table, err)
	}

	return refs, nil
}

func (s *ConceptStore) get(ctx context.Context, t entityTable, id int64) (*models.NamedRef, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sql := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = $1", t.nameCol, t.idCol, t.table, t.idCol)

	var r models.NamedRef
	if err := s.Pool.QueryRow(ctx, sql, id).Scan(&r.Name, &r.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, t.notFound
		}

		return nil, fmt.Errorf("getting %s: %w", t.table, err)
	}

	return &r, nil
}

func (s *ConceptStore) articles(ctx context.Context, t entityTable, id int64, limit int) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sql := fmt.Sprintf(`SELECT article_id FROM %s WHERE %s = $1
		ORDER BY article_id LIMIT $2`, t.joinTable, t.idCol)

	rows, err := s.Pool.Query(ctx, sql, id, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing articles by %s: %w", t.table, err)
	}
	defer rows.Close()

	return collectStrings(rows)
}
