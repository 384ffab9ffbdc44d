package store

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/conceptmap/internal/models"
)

// articleColumns lists the columns selected for article queries.
const articleColumns = `article_id, title, content, source_link, concept_map_code, created_at`

// scanArticle scans a single row into a models.Article.
func scanArticle(scan func(dest ...any) error) (*models.Article, error) {
	var a models.Article

	err := scan(
		&a.ID,
		&a.Title,
		&a.Content,
		&a.SourceLink,
		&a.ConceptMapCode,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// collectNamedRefs drains rows of (name, id) pairs.
func collectNamedRefs(rows pgx.Rows) ([]models.NamedRef, error) {
	refs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.NamedRef, error) {
		var r models.NamedRef
		err := row.Scan(&r.Name, &r.ID)

		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning name/id rows: %w", err)
	}

	return refs, nil
}

// collectStrings drains single-column text rows.
func collectStrings(rows pgx.Rows) ([]string, error) {
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning rows: %w", err)
	}

	return out, nil
}
