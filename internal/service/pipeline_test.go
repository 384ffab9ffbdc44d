package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/conceptmap/internal/models"
)

func newTestPipeline(store *memStore, content *mockContent, extractor *mockExtractor) *Pipeline {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewPipeline(store, content, extractor, store, log)
}

func TestPipeline_MissThenHit(t *testing.T) {
	store := newMemStore()
	content := providerWith("abc123")
	extractor := workingExtractor()
	p := newTestPipeline(store, content, extractor)
	ctx := context.Background()

	if err := p.EnsureArticle(ctx, "abc123"); err != nil {
		t.Fatalf("first EnsureArticle: %v", err)
	}

	if store.count("CommitArticle") != 1 {
		t.Fatalf("expected one commit, got %d", store.count("CommitArticle"))
	}

	for _, name := range []string{"Exists", "FetchContent", "FetchInfo"} {
		if content.count(name) != 1 {
			t.Errorf("%s called %d times, want 1", name, content.count(name))
		}
	}

	stored := store.articles["abc123"]
	if stored.Article.Title != "Title abc123" || stored.Article.SourceLink != "https://medium.com/p/abc123" {
		t.Errorf("unexpected stored article: %+v", stored.Article)
	}

	if stored.Article.Content != "Content of abc123" || len(stored.Fields) != 2 || len(stored.Graph) != 2 || stored.Diagram == "" {
		t.Errorf("incomplete ingestion: %+v", stored)
	}

	contentCalls, extractorCalls := content.total(), extractor.total()

	if err := p.EnsureArticle(ctx, "abc123"); err != nil {
		t.Fatalf("second EnsureArticle: %v", err)
	}

	if content.total() != contentCalls || extractor.total() != extractorCalls {
		t.Error("cache hit made external calls")
	}

	if store.count("CommitArticle") != 1 {
		t.Error("cache hit committed again")
	}
}

func TestPipeline_NotFoundUpstream(t *testing.T) {
	store := newMemStore()
	content := providerWith("abc123")
	extractor := workingExtractor()
	p := newTestPipeline(store, content, extractor)

	err := p.EnsureArticle(context.Background(), "zzz999")
	if !errors.Is(err, models.ErrNotFoundUpstream) {
		t.Fatalf("expected ErrNotFoundUpstream, got %v", err)
	}

	if content.count("FetchContent") != 0 || extractor.total() != 0 || store.count("CommitArticle") != 0 {
		t.Error("pipeline continued past a missing article")
	}
}

func TestPipeline_InvalidID(t *testing.T) {
	store := newMemStore()
	p := newTestPipeline(store, providerWith(), workingExtractor())

	if err := p.EnsureArticle(context.Background(), "../etc"); !errors.Is(err, models.ErrInvalidArticleID) {
		t.Fatalf("expected ErrInvalidArticleID, got %v", err)
	}

	if store.total() != 0 {
		t.Error("invalid id reached the store")
	}
}

func TestPipeline_FailuresLeaveNothingCommitted(t *testing.T) {
	boom := func(sentinel error) error { return errors.Join(sentinel, errors.New("boom")) }

	tests := []struct {
		name    string
		mutate  func(c *mockContent, e *mockExtractor)
		wantErr error
	}{
		{
			name: "content fetch fails",
			mutate: func(c *mockContent, _ *mockExtractor) {
				c.fetchContent = func(context.Context, string) (string, error) {
					return "", boom(models.ErrUpstreamUnavailable)
				}
			},
			wantErr: models.ErrUpstreamUnavailable,
		},
		{
			name: "info fetch fails",
			mutate: func(c *mockContent, _ *mockExtractor) {
				c.fetchInfo = func(context.Context, string) (models.ArticleInfo, error) {
					return models.ArticleInfo{}, boom(models.ErrUpstreamUnavailable)
				}
			},
			wantErr: models.ErrUpstreamUnavailable,
		},
		{
			name: "malformed concepts",
			mutate: func(_ *mockContent, e *mockExtractor) {
				e.extractConcepts = func(context.Context, string) (models.ConceptGraph, error) {
					return nil, boom(models.ErrExtractionFailed)
				}
			},
			wantErr: models.ErrExtractionFailed,
		},
		{
			name: "malformed fields",
			mutate: func(_ *mockContent, e *mockExtractor) {
				e.extractFields = func(context.Context, string) ([]string, error) {
					return nil, boom(models.ErrExtractionFailed)
				}
			},
			wantErr: models.ErrExtractionFailed,
		},
		{
			name: "diagram fails",
			mutate: func(_ *mockContent, e *mockExtractor) {
				e.renderDiagram = func(context.Context, models.ConceptGraph) (string, error) {
					return "", boom(models.ErrExtractionFailed)
				}
			},
			wantErr: models.ErrExtractionFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			content := providerWith("abc123")
			extractor := workingExtractor()
			tc.mutate(content, extractor)

			err := newTestPipeline(store, content, extractor).EnsureArticle(context.Background(), "abc123")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}

			if store.count("CommitArticle") != 0 {
				t.Error("commit attempted after failure")
			}

			if exists, _ := store.ArticleExists(context.Background(), "abc123"); exists {
				t.Error("article visible after failed ingestion")
			}
		})
	}
}

func TestPipeline_PersistenceFailure(t *testing.T) {
	store := newMemStore()
	store.commitErr = errors.Join(models.ErrPersistenceFailed, models.ErrDuplicateKey)

	err := newTestPipeline(store, providerWith("abc123"), workingExtractor()).EnsureArticle(context.Background(), "abc123")
	if !errors.Is(err, models.ErrPersistenceFailed) || !errors.Is(err, models.ErrDuplicateKey) {
		t.Fatalf("expected persistence conflict, got %v", err)
	}
}

func TestPipeline_DiagramReceivesExtractedGraph(t *testing.T) {
	store := newMemStore()
	extractor := workingExtractor()

	var rendered models.ConceptGraph
	extractor.renderDiagram = func(_ context.Context, g models.ConceptGraph) (string, error) {
		rendered = g
		return "flowchart TD", nil
	}

	if err := newTestPipeline(store, providerWith("abc123"), extractor).EnsureArticle(context.Background(), "abc123"); err != nil {
		t.Fatalf("EnsureArticle: %v", err)
	}

	if len(rendered) != 2 || rendered[0].ConceptA != "Graph" {
		t.Errorf("diagram rendered from unexpected graph: %+v", rendered)
	}
}

func TestIngestOutcome(t *testing.T) {
	tests := map[string]error{
		"ingested":             nil,
		"not_found":            models.ErrNotFoundUpstream,
		"upstream_unavailable": models.ErrUpstreamUnavailable,
		"extraction_failed":    models.ErrExtractionFailed,
		"conflict":             errors.Join(models.ErrPersistenceFailed, models.ErrDuplicateKey),
		"persistence_failed":   models.ErrPersistenceFailed,
		"error":                errors.New("other"),
	}

	for want, err := range tests {
		if got := ingestOutcome(err); got != want {
			t.Errorf("ingestOutcome(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestPipeline_ExtractionSeesContent(t *testing.T) {
	store := newMemStore()
	extractor := workingExtractor()

	var seen string
	extractor.extractFields = func(_ context.Context, content string) ([]string, error) {
		seen = content
		return nil, nil
	}

	if err := newTestPipeline(store, providerWith("abc123"), extractor).EnsureArticle(context.Background(), "abc123"); err != nil {
		t.Fatalf("EnsureArticle: %v", err)
	}

	if !strings.Contains(seen, "abc123") {
		t.Errorf("extractor received %q", seen)
	}
}

func TestPipeline_PublishesOutcomes(t *testing.T) {
	store := newMemStore()
	p := newTestPipeline(store, providerWith("abc123"), workingExtractor())
	pub := &recordingPublisher{}
	p.SetPublisher(pub)
	ctx := context.Background()

	if err := p.EnsureArticle(ctx, "abc123"); err != nil {
		t.Fatalf("EnsureArticle: %v", err)
	}

	if err := p.EnsureArticle(ctx, "abc123"); err != nil {
		t.Fatalf("cached EnsureArticle: %v", err)
	}

	if err := p.EnsureArticle(ctx, "zzz999"); err == nil {
		t.Fatal("expected error for missing article")
	}

	if len(pub.events) != 2 {
		t.Fatalf("published %d events, want 2 (cache hits publish nothing): %+v", len(pub.events), pub.events)
	}

	ingested := pub.events[0]
	if ingested.eventType != EventArticleIngested {
		t.Fatalf("first event type = %q", ingested.eventType)
	}

	data, _ := ingested.data.(map[string]any)
	if data["articleID"] != "abc123" || data["concepts"] != 3 || data["fields"] != 2 || data["relationships"] != 2 {
		t.Errorf("unexpected ingested payload: %+v", data)
	}

	failed := pub.events[1]
	if failed.eventType != EventArticleFailed {
		t.Fatalf("second event type = %q", failed.eventType)
	}

	if got, _ := failed.data.(map[string]string); got["outcome"] != "not_found" {
		t.Errorf("unexpected failed payload: %+v", failed.data)
	}
}

func TestPipeline_NilPublisherIsSafe(t *testing.T) {
	p := newTestPipeline(newMemStore(), providerWith("abc123"), workingExtractor())
	p.SetPublisher(nil)

	if err := p.EnsureArticle(context.Background(), "abc123"); err != nil {
		t.Fatalf("EnsureArticle: %v", err)
	}
}

func TestPipeline_ProviderOutageIsUnavailable(t *testing.T) {
	store := newMemStore()
	content := providerWith("abc123")
	content.exists = func(context.Context, string) (bool, error) {
		return false, fmt.Errorf("%w: checking %q: dial tcp: connection refused", models.ErrUpstreamUnavailable, "abc123")
	}
	p := newTestPipeline(store, content, workingExtractor())
	pub := &recordingPublisher{}
	p.SetPublisher(pub)

	err := p.EnsureArticle(context.Background(), "abc123")
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}

	if errors.Is(err, models.ErrNotFoundUpstream) {
		t.Errorf("outage reported as not found: %v", err)
	}

	if got := ingestOutcome(err); got != "upstream_unavailable" {
		t.Errorf("outcome = %q, want upstream_unavailable", got)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1: %+v", len(pub.events), pub.events)
	}

	if got, _ := pub.events[0].data.(map[string]string); got["outcome"] != "upstream_unavailable" {
		t.Errorf("unexpected failed payload: %+v", pub.events[0].data)
	}

	if store.count("CommitArticle") != 0 {
		t.Error("committed during an outage")
	}
}

func TestPipeline_CacheFailureIsPersistenceFailure(t *testing.T) {
	store := newMemStore()
	store.existsErr = errors.New("connection refused")
	content := providerWith("abc123")
	p := newTestPipeline(store, content, workingExtractor())

	err := p.EnsureArticle(context.Background(), "abc123")
	if !errors.Is(err, models.ErrPersistenceFailed) {
		t.Fatalf("expected ErrPersistenceFailed, got %v", err)
	}

	if content.total() != 0 {
		t.Errorf("reached the content provider after a cache failure: %v", content.calls)
	}
}
