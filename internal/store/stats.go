package store

import (
	"context"
	"fmt"

	"github.com/persistorai/conceptmap/internal/models"
)

// StatsStore reports aggregate counts over the knowledge graph.
type StatsStore struct {
	Base
}

// NewStatsStore creates a new StatsStore.
func NewStatsStore(base Base) *StatsStore {
	return &StatsStore{Base: base}
}

// GraphStats counts articles, concepts, fields of study and concept
// relationships in a single statement.
func (s *StatsStore) GraphStats(ctx context.Context) (*models.GraphStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var st models.GraphStats

	err := s.Pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM article),
			(SELECT COUNT(*) FROM concept),
			(SELECT COUNT(*) FROM study_field),
			(SELECT COUNT(*) FROM concept_relationship)`,
	).Scan(&st.Articles, &st.Concepts, &st.Fields, &st.Relationships)
	if err != nil {
		return nil, fmt.Errorf("counting graph: %w", err)
	}

	return &st, nil
}
