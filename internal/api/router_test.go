package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/persistorai/conceptmap/internal/api"
	"github.com/persistorai/conceptmap/internal/middleware"
	"github.com/persistorai/conceptmap/internal/models"
)

func newTestRouter(t *testing.T, articles *mockArticleService, concepts *mockConceptService) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return api.NewRouter(ctx, &api.RouterDeps{
		Log:            testLogger(),
		DB:             mockDB{},
		AppliedVersion: schemaAt(2, nil),
		SchemaVersion:  2,
		Articles:       articles,
		Concepts:       concepts,
		Stats:          mockStats{stats: &models.GraphStats{Articles: 3, Concepts: 10, Fields: 4, Relationships: 12}},
		CORSOrigins:    []string{"http://localhost:3000"},
		Version:        "test",
	})
}

func TestRouter_RoutesResolve(t *testing.T) {
	t.Parallel()

	articles := &mockArticleService{
		recordFn: func(_ context.Context, id string) (*models.ArticleRecord, error) {
			return &models.ArticleRecord{ArticleID: id}, nil
		},
		mapFn: func(context.Context, string) (*models.ConceptMap, error) {
			return &models.ConceptMap{DiagramSource: "graph TD"}, nil
		},
	}

	ref := &models.NamedRef{Name: "x", ID: 1}
	concepts := &mockConceptService{
		searchConceptsFn: func(context.Context, string, models.SearchMode, int) ([]models.NamedRef, error) { return nil, nil },
		getConceptFn:     func(context.Context, int64) (*models.NamedRef, error) { return ref, nil },
		conceptArticles:  func(context.Context, int64, int) ([]string, error) { return nil, nil },
		searchFieldsFn:   func(context.Context, string, models.SearchMode, int) ([]models.NamedRef, error) { return nil, nil },
		getFieldFn:       func(context.Context, int64) (*models.NamedRef, error) { return ref, nil },
		fieldArticles:    func(context.Context, int64, int) ([]string, error) { return nil, nil },
	}

	r := newTestRouter(t, articles, concepts)

	paths := []string{
		"/api/v1/health",
		"/api/v1/ready",
		"/api/v1/stats",
		"/api/v1/articles/abc",
		"/api/v1/articles/abc/concept-map",
		"/api/v1/concepts/search/Entropy",
		"/api/v1/concepts/1",
		"/api/v1/concepts/1/articles",
		"/api/v1/fields/search/Physics",
		"/api/v1/fields/1",
		"/api/v1/fields/1/articles",
	}

	for _, p := range paths {
		w := doRequest(r, p)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d: %s", p, w.Code, w.Body.String())
		}

		if w.Header().Get(middleware.RequestIDHeader) == "" {
			t.Errorf("%s: missing request id header", p)
		}
	}

	if w := doRequest(r, "/api/v1/nope"); w.Code != http.StatusNotFound {
		t.Errorf("unknown route: expected 404, got %d", w.Code)
	}
}

func TestRouter_StatsBody(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &mockArticleService{}, &mockConceptService{})

	w := doRequest(r, "/api/v1/stats")

	var st models.GraphStats
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if st.Concepts != 10 || st.Relationships != 12 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestRouter_ErrorCarriesRequestID(t *testing.T) {
	t.Parallel()

	articles := &mockArticleService{
		recordFn: func(context.Context, string) (*models.ArticleRecord, error) {
			return nil, models.ErrNotFoundUpstream
		},
	}

	r := newTestRouter(t, articles, &mockConceptService{})

	w := doRequest(r, "/api/v1/articles/missing")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body["request_id"] == "" || body["request_id"] != w.Header().Get(middleware.RequestIDHeader) {
		t.Errorf("request_id %q does not match header %q", body["request_id"], w.Header().Get(middleware.RequestIDHeader))
	}
}

func TestRouter_ArticleRoutesRateLimited(t *testing.T) {
	t.Parallel()

	articles := &mockArticleService{
		recordFn: func(_ context.Context, id string) (*models.ArticleRecord, error) {
			return &models.ArticleRecord{ArticleID: id}, nil
		},
	}

	r := newTestRouter(t, articles, &mockConceptService{})

	var limited bool

	for range 20 {
		if w := doRequest(r, "/api/v1/articles/abc"); w.Code == http.StatusTooManyRequests {
			limited = true

			break
		}
	}

	if !limited {
		t.Error("expected article routes to hit the ingest rate limit")
	}

	if w := doRequest(r, "/api/v1/health"); w.Code != http.StatusOK {
		t.Errorf("health must not share the ingest bucket, got %d", w.Code)
	}
}
