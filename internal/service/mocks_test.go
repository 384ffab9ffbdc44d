package service

import (
	"context"
	"sync"

	"github.com/persistorai/conceptmap/internal/models"
)

// callLog records method names; safe for the pipeline's concurrent stages.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
}

func (c *callLog) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, call := range c.calls {
		if call == name {
			n++
		}
	}

	return n
}

func (c *callLog) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.calls)
}

// mockContent records calls and returns configured responses.
type mockContent struct {
	callLog

	exists       func(ctx context.Context, articleID string) (bool, error)
	fetchContent func(ctx context.Context, articleID string) (string, error)
	fetchInfo    func(ctx context.Context, articleID string) (models.ArticleInfo, error)
}

func (m *mockContent) Exists(ctx context.Context, articleID string) (bool, error) {
	m.record("Exists")
	return m.exists(ctx, articleID)
}

func (m *mockContent) FetchContent(ctx context.Context, articleID string) (string, error) {
	m.record("FetchContent")
	return m.fetchContent(ctx, articleID)
}

func (m *mockContent) FetchInfo(ctx context.Context, articleID string) (models.ArticleInfo, error) {
	m.record("FetchInfo")
	return m.fetchInfo(ctx, articleID)
}

// providerWith serves exactly the listed article ids.
func providerWith(ids ...string) *mockContent {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	return &mockContent{
		exists: func(_ context.Context, id string) (bool, error) { return known[id], nil },
		fetchContent: func(_ context.Context, id string) (string, error) {
			return "Content of " + id, nil
		},
		fetchInfo: func(_ context.Context, id string) (models.ArticleInfo, error) {
			return models.ArticleInfo{Title: "Title " + id, URL: "https://medium.com/p/" + id}, nil
		},
	}
}

// mockExtractor records calls and returns configured responses.
type mockExtractor struct {
	callLog

	extractFields   func(ctx context.Context, content string) ([]string, error)
	extractConcepts func(ctx context.Context, content string) (models.ConceptGraph, error)
	renderDiagram   func(ctx context.Context, graph models.ConceptGraph) (string, error)
}

func (m *mockExtractor) ExtractFields(ctx context.Context, content string) ([]string, error) {
	m.record("ExtractFields")
	return m.extractFields(ctx, content)
}

func (m *mockExtractor) ExtractConcepts(ctx context.Context, content string) (models.ConceptGraph, error) {
	m.record("ExtractConcepts")
	return m.extractConcepts(ctx, content)
}

func (m *mockExtractor) RenderDiagram(ctx context.Context, graph models.ConceptGraph) (string, error) {
	m.record("RenderDiagram")
	return m.renderDiagram(ctx, graph)
}

func workingExtractor() *mockExtractor {
	return &mockExtractor{
		extractFields: func(context.Context, string) ([]string, error) {
			return []string{"Computer Science", "Mathematics"}, nil
		},
		extractConcepts: func(context.Context, string) (models.ConceptGraph, error) {
			return models.ConceptGraph{
				{ConceptA: "Graph", ConceptB: "Tree", Description: "generalizes"},
				{ConceptA: "Tree", ConceptB: "Heap", Description: "underlies"},
			}, nil
		},
		renderDiagram: func(context.Context, models.ConceptGraph) (string, error) {
			return "flowchart TD\n    A[Graph] -->|generalizes| B(Tree)", nil
		},
	}
}

// memStore is an in-memory ArticleCache, GraphCommitter and ArticleReader
// that assigns ids to names the way the database does.
type memStore struct {
	callLog

	mu        sync.Mutex
	articles  map[string]*models.IngestedArticle
	ids       map[string]int64
	commitErr error
	existsErr error
	readErr   error
}

func newMemStore() *memStore {
	return &memStore{articles: map[string]*models.IngestedArticle{}, ids: map[string]int64{}}
}

func (m *memStore) ArticleExists(_ context.Context, articleID string) (bool, error) {
	m.record("ArticleExists")

	if m.existsErr != nil {
		return false, m.existsErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.articles[articleID]

	return ok, nil
}

func (m *memStore) CommitArticle(_ context.Context, in *models.IngestedArticle) error {
	m.record("CommitArticle")

	if m.commitErr != nil {
		return m.commitErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.articles[in.Article.ID]; ok {
		return models.ErrPersistenceFailed
	}

	m.articles[in.Article.ID] = in

	return nil
}

func (m *memStore) idFor(name string) int64 {
	if id, ok := m.ids[name]; ok {
		return id
	}

	id := int64(len(m.ids) + 1)
	m.ids[name] = id

	return id
}

func (m *memStore) GetArticleRecord(_ context.Context, articleID string) (*models.ArticleRecord, error) {
	m.record("GetArticleRecord")

	if m.readErr != nil {
		return nil, m.readErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	in, ok := m.articles[articleID]
	if !ok {
		return nil, models.ErrArticleNotFound
	}

	rec := &models.ArticleRecord{
		ArticleID:     in.Article.ID,
		Title:         in.Article.Title,
		Content:       in.Article.Content,
		SourceLink:    in.Article.SourceLink,
		Concepts:      []models.NamedRef{},
		FieldsOfStudy: []models.NamedRef{},
	}

	for _, name := range in.Graph.ConceptNames() {
		rec.Concepts = append(rec.Concepts, models.NamedRef{Name: name, ID: m.idFor("c:" + name)})
	}

	for _, name := range in.Fields {
		rec.FieldsOfStudy = append(rec.FieldsOfStudy, models.NamedRef{Name: name, ID: m.idFor("f:" + name)})
	}

	return rec, nil
}

func (m *memStore) GetConceptMap(_ context.Context, articleID string) (*models.ConceptMap, error) {
	m.record("GetConceptMap")

	if m.readErr != nil {
		return nil, m.readErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	in, ok := m.articles[articleID]
	if !ok {
		return nil, models.ErrArticleNotFound
	}

	return &models.ConceptMap{DiagramSource: in.Diagram}, nil
}

// mockConceptStore records calls and returns configured responses.
type mockConceptStore struct {
	callLog

	findConceptsByName func(ctx context.Context, name string) ([]models.NamedRef, error)
	findConceptsLike   func(ctx context.Context, term string, limit int) ([]models.NamedRef, error)
	getConcept         func(ctx context.Context, id int64) (*models.NamedRef, error)
	articlesByConcept  func(ctx context.Context, id int64, limit int) ([]string, error)
	findFieldsByName   func(ctx context.Context, name string) ([]models.NamedRef, error)
	findFieldsLike     func(ctx context.Context, term string, limit int) ([]models.NamedRef, error)
	getField           func(ctx context.Context, id int64) (*models.NamedRef, error)
	articlesByField    func(ctx context.Context, id int64, limit int) ([]string, error)
}

func (m *mockConceptStore) FindConceptsByName(ctx context.Context, name string) ([]models.NamedRef, error) {
	m.record("FindConceptsByName")
	return m.findConceptsByName(ctx, name)
}

func (m *mockConceptStore) FindConceptsLike(ctx context.Context, term string, limit int) ([]models.NamedRef, error) {
	m.record("FindConceptsLike")
	return m.findConceptsLike(ctx, term, limit)
}

func (m *mockConceptStore) GetConcept(ctx context.Context, id int64) (*models.NamedRef, error) {
	m.record("GetConcept")
	return m.getConcept(ctx, id)
}

func (m *mockConceptStore) ArticlesByConcept(ctx context.Context, id int64, limit int) ([]string, error) {
	m.record("ArticlesByConcept")
	return m.articlesByConcept(ctx, id, limit)
}

func (m *mockConceptStore) FindFieldsByName(ctx context.Context, name string) ([]models.NamedRef, error) {
	m.record("FindFieldsByName")
	return m.findFieldsByName(ctx, name)
}

func (m *mockConceptStore) FindFieldsLike(ctx context.Context, term string, limit int) ([]models.NamedRef, error) {
	m.record("FindFieldsLike")
	return m.findFieldsLike(ctx, term, limit)
}

func (m *mockConceptStore) GetField(ctx context.Context, id int64) (*models.NamedRef, error) {
	m.record("GetField")
	return m.getField(ctx, id)
}

func (m *mockConceptStore) ArticlesByField(ctx context.Context, id int64, limit int) ([]string, error) {
	m.record("ArticlesByField")
	return m.articlesByField(ctx, id, limit)
}

type publishedEvent struct {
	eventType string
	data      any
}

// recordingPublisher captures events published by the pipeline.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *recordingPublisher) Publish(eventType string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, publishedEvent{eventType: eventType, data: data})
}
