package api_test

import (
	"context"

	"github.com/persistorai/conceptmap/internal/models"
)

// mockArticleService implements domain.ArticleService for testing.
type mockArticleService struct {
	recordFn func(ctx context.Context, articleID string) (*models.ArticleRecord, error)
	mapFn    func(ctx context.Context, articleID string) (*models.ConceptMap, error)
}

func (m *mockArticleService) GetArticleRecord(ctx context.Context, articleID string) (*models.ArticleRecord, error) {
	return m.recordFn(ctx, articleID)
}

func (m *mockArticleService) GetConceptMap(ctx context.Context, articleID string) (*models.ConceptMap, error) {
	return m.mapFn(ctx, articleID)
}

// mockConceptService implements domain.ConceptService for testing.
type mockConceptService struct {
	searchConceptsFn func(ctx context.Context, name string, mode models.SearchMode, limit int) ([]models.NamedRef, error)
	getConceptFn     func(ctx context.Context, id int64) (*models.NamedRef, error)
	conceptArticles  func(ctx context.Context, id int64, limit int) ([]string, error)
	searchFieldsFn   func(ctx context.Context, name string, mode models.SearchMode, limit int) ([]models.NamedRef, error)
	getFieldFn       func(ctx context.Context, id int64) (*models.NamedRef, error)
	fieldArticles    func(ctx context.Context, id int64, limit int) ([]string, error)
}

func (m *mockConceptService) SearchConcepts(ctx context.Context, name string, mode models.SearchMode, limit int) ([]models.NamedRef, error) {
	return m.searchConceptsFn(ctx, name, mode, limit)
}

func (m *mockConceptService) GetConcept(ctx context.Context, id int64) (*models.NamedRef, error) {
	return m.getConceptFn(ctx, id)
}

func (m *mockConceptService) ArticlesByConcept(ctx context.Context, id int64, limit int) ([]string, error) {
	return m.conceptArticles(ctx, id, limit)
}

func (m *mockConceptService) SearchFields(ctx context.Context, name string, mode models.SearchMode, limit int) ([]models.NamedRef, error) {
	return m.searchFieldsFn(ctx, name, mode, limit)
}

func (m *mockConceptService) GetField(ctx context.Context, id int64) (*models.NamedRef, error) {
	return m.getFieldFn(ctx, id)
}

func (m *mockConceptService) ArticlesByField(ctx context.Context, id int64, limit int) ([]string, error) {
	return m.fieldArticles(ctx, id, limit)
}

// mockDB implements api.DBChecker.
type mockDB struct {
	err error
}

func (m mockDB) HealthCheck(context.Context) error { return m.err }

// mockStats implements api.StatsReader.
type mockStats struct {
	stats *models.GraphStats
	err   error
}

func (m mockStats) GraphStats(context.Context) (*models.GraphStats, error) { return m.stats, m.err }
