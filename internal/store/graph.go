package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/conceptmap/internal/models"
)

// TxBeginner opens the transaction a commit runs in. *dbpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// GraphStore persists a freshly ingested article together with its fields,
// concepts and concept relationships.
type GraphStore struct {
	Base
	tx TxBeginner
}

// NewGraphStore creates a new GraphStore that opens transactions on the base pool.
func NewGraphStore(base Base) *GraphStore {
	return &GraphStore{Base: base, tx: base.Pool}
}

const (
	insertArticleSQL = `INSERT INTO article (article_id, title, content, source_link, concept_map_code)
		VALUES ($1, $2, $3, $4, $5)`

	upsertFieldSQL = `INSERT INTO study_field (field_name) VALUES ($1)
		ON CONFLICT (field_name) DO UPDATE SET field_name = EXCLUDED.field_name
		RETURNING field_id`

	upsertConceptSQL = `INSERT INTO concept (concept_name) VALUES ($1)
		ON CONFLICT (concept_name) DO UPDATE SET concept_name = EXCLUDED.concept_name
		RETURNING concept_id`

	linkFieldSQL = `INSERT INTO article_related_field (article_id, field_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	linkConceptSQL = `INSERT INTO article_concept (article_id, concept_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	insertRelationshipSQL = `INSERT INTO concept_relationship
		(concept1_id, concept2_id, relationship_description) VALUES ($1, $2, $3)`
)

// CommitArticle writes the article, its fields of study, its concepts and the
// relationships between them in a single transaction. Either everything is
// visible afterwards or nothing is. Failures wrap models.ErrPersistenceFailed;
// an article that already exists additionally matches models.ErrDuplicateKey.
func (s *GraphStore) CommitArticle(ctx context.Context, in *models.IngestedArticle) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", models.ErrPersistenceFailed, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	c := &graphCommit{tx: tx, articleID: in.Article.ID, conceptIDs: make(map[string]int64)}

	if err := c.write(ctx, in); err != nil {
		return persistenceError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return persistenceError(fmt.Errorf("committing article %q: %w", in.Article.ID, err))
	}

	s.Log.WithFields(logrus.Fields{
		"article_id":    in.Article.ID,
		"fields":        len(in.Fields),
		"concepts":      len(c.conceptIDs),
		"relationships": len(in.Graph),
	}).Info("article graph committed")

	return nil
}

// persistenceError classifies a commit failure.
func persistenceError(err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %w: %w", models.ErrPersistenceFailed, models.ErrDuplicateKey, err)
	}

	return fmt.Errorf("%w: %w", models.ErrPersistenceFailed, err)
}

// graphCommit carries the state of one CommitArticle call. conceptIDs memoizes
// name to id so a concept named by several edges is upserted and linked once.
type graphCommit struct {
	tx         querier
	articleID  string
	conceptIDs map[string]int64
}

// write upserts every field and concept name in sorted order before any row
// references them, so concurrent commits sharing names lock shared rows in
// the same order.
func (c *graphCommit) write(ctx context.Context, in *models.IngestedArticle) error {
	a := in.Article

	if _, err := c.tx.Exec(ctx, insertArticleSQL,
		a.ID, a.Title, a.Content, a.SourceLink, nullIfEmpty(in.Diagram),
	); err != nil {
		return fmt.Errorf("inserting article %q: %w", a.ID, err)
	}

	for _, name := range sortedNames(in.Fields) {
		var fieldID int64
		if err := c.tx.QueryRow(ctx, upsertFieldSQL, name).Scan(&fieldID); err != nil {
			return fmt.Errorf("upserting field %q: %w", name, err)
		}

		if _, err := c.tx.Exec(ctx, linkFieldSQL, c.articleID, fieldID); err != nil {
			return fmt.Errorf("linking field %q: %w", name, err)
		}
	}

	for _, name := range sortedNames(in.Graph.ConceptNames()) {
		if _, err := c.concept(ctx, name); err != nil {
			return err
		}
	}

	for _, e := range in.Graph {
		fromID, err := c.concept(ctx, e.ConceptA)
		if err != nil {
			return err
		}

		toID, err := c.concept(ctx, e.ConceptB)
		if err != nil {
			return err
		}

		if _, err := c.tx.Exec(ctx, insertRelationshipSQL, fromID, toID, e.Description); err != nil {
			return fmt.Errorf("inserting relationship %q -> %q: %w", e.ConceptA, e.ConceptB, err)
		}
	}

	return nil
}

// sortedNames returns the distinct names in ascending order.
func sortedNames(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)

	return slices.Compact(out)
}

// concept resolves a concept name to its id, creating the row and the
// article link the first time the name is seen in this commit.
func (c *graphCommit) concept(ctx context.Context, name string) (int64, error) {
	if id, ok := c.conceptIDs[name]; ok {
		return id, nil
	}

	var id int64
	if err := c.tx.QueryRow(ctx, upsertConceptSQL, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("upserting concept %q: %w", name, err)
	}

	if _, err := c.tx.Exec(ctx, linkConceptSQL, c.articleID, id); err != nil {
		return 0, fmt.Errorf("linking concept %q: %w", name, err)
	}

	c.conceptIDs[name] = id

	return id, nil
}
