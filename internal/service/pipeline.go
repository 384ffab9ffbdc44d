// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/conceptmap/internal/metrics"
	"github.com/persistorai/conceptmap/internal/models"
)

// ArticleCache answers whether an article is already stored.
type ArticleCache interface {
	ArticleExists(ctx context.Context, articleID string) (bool, error)
}

// ContentSource fetches raw articles from the content provider.
type ContentSource interface {
	Exists(ctx context.Context, articleID string) (bool, error)
	FetchContent(ctx context.Context, articleID string) (string, error)
	FetchInfo(ctx context.Context, articleID string) (models.ArticleInfo, error)
}

// ConceptExtractor derives fields, concepts and a diagram from article text.
type ConceptExtractor interface {
	ExtractFields(ctx context.Context, content string) ([]string, error)
	ExtractConcepts(ctx context.Context, content string) (models.ConceptGraph, error)
	RenderDiagram(ctx context.Context, graph models.ConceptGraph) (string, error)
}

// GraphCommitter persists an ingested article in one transaction.
type GraphCommitter interface {
	CommitArticle(ctx context.Context, in *models.IngestedArticle) error
}

// EventPublisher receives ingestion outcomes for live subscribers.
type EventPublisher interface {
	Publish(eventType string, data any)
}

// Event types published after each ingestion attempt.
const (
	EventArticleIngested = "article.ingested"
	EventArticleFailed   = "article.failed"
)

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

// Pipeline makes sure an article is stored, ingesting it on a cache miss.
// It keeps no state between calls; concurrent ingestions of the same article
// are arbitrated by the store's constraints.
type Pipeline struct {
	cache     ArticleCache
	content   ContentSource
	extractor ConceptExtractor
	graphs    GraphCommitter
	events    EventPublisher
	log       *logrus.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(cache ArticleCache, content ContentSource, extractor ConceptExtractor, graphs GraphCommitter, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		cache:     cache,
		content:   content,
		extractor: extractor,
		graphs:    graphs,
		events:    nopPublisher{},
		log:       log,
	}
}

// SetPublisher routes ingestion events to pub. Call before serving traffic.
func (p *Pipeline) SetPublisher(pub EventPublisher) {
	if pub == nil {
		pub = nopPublisher{}
	}

	p.events = pub
}

// EnsureArticle returns nil once the article is stored. A cached article
// costs one store lookup and no external calls. On a miss the article is
// fetched, extracted and committed; failures match models.ErrNotFoundUpstream,
// ErrUpstreamUnavailable, ErrExtractionFailed or ErrPersistenceFailed.
func (p *Pipeline) EnsureArticle(ctx context.Context, articleID string) error {
	if err := models.ValidateArticleID(articleID); err != nil {
		return err
	}

	cached, err := p.cache.ArticleExists(ctx, articleID)
	if err != nil {
		return fmt.Errorf("%w: checking article cache: %w", models.ErrPersistenceFailed, err)
	}

	if cached {
		metrics.CacheLookups.WithLabelValues("hit").Inc()

		return nil
	}

	metrics.CacheLookups.WithLabelValues("miss").Inc()

	start := time.Now()
	in, err := p.ingest(ctx, articleID)
	elapsed := time.Since(start)

	outcome := ingestOutcome(err)
	metrics.Ingestions.WithLabelValues(outcome).Inc()
	metrics.IngestionDuration.Observe(elapsed.Seconds())

	entry := p.log.WithFields(logrus.Fields{
		"article_id": articleID,
		"outcome":    outcome,
		"duration":   elapsed,
	})

	if err != nil {
		entry.WithError(err).Warn("article ingestion failed")
		p.events.Publish(EventArticleFailed, map[string]string{
			"articleID": articleID,
			"outcome":   outcome,
		})

		return err
	}

	entry.Info("article ingested")
	p.events.Publish(EventArticleIngested, map[string]any{
		"articleID":     articleID,
		"title":         in.Article.Title,
		"concepts":      len(in.Graph.ConceptNames()),
		"fields":        len(in.Fields),
		"relationships": len(in.Graph),
	})

	return nil
}

func (p *Pipeline) ingest(ctx context.Context, articleID string) (*models.IngestedArticle, error) {
	found, err := p.content.Exists(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("checking article upstream: %w", err)
	}

	if !found {
		return nil, fmt.Errorf("%w: %q", models.ErrNotFoundUpstream, articleID)
	}

	var (
		body string
		info models.ArticleInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		body, err = p.content.FetchContent(gctx, articleID)

		return err
	})
	g.Go(func() error {
		var err error
		info, err = p.content.FetchInfo(gctx, articleID)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		fields []string
		graph  models.ConceptGraph
	)

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fields, err = p.extractor.ExtractFields(gctx, body)

		return err
	})
	g.Go(func() error {
		var err error
		graph, err = p.extractor.ExtractConcepts(gctx, body)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	diagram, err := p.extractor.RenderDiagram(ctx, graph)
	if err != nil {
		return nil, err
	}

	in := &models.IngestedArticle{
		Article: models.Article{
			ID:         articleID,
			Title:      info.Title,
			Content:    body,
			SourceLink: info.URL,
		},
		Fields:  fields,
		Graph:   graph.Dedup(),
		Diagram: diagram,
	}

	if err := p.graphs.CommitArticle(ctx, in); err != nil {
		return nil, err
	}

	return in, nil
}

// ingestOutcome labels an ingestion result for metrics and logs.
func ingestOutcome(err error) string {
	switch {
	case err == nil:
		return "ingested"
	case errors.Is(err, models.ErrNotFoundUpstream):
		return "not_found"
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, models.ErrExtractionFailed):
		return "extraction_failed"
	case errors.Is(err, models.ErrDuplicateKey):
		return "conflict"
	case errors.Is(err, models.ErrPersistenceFailed):
		return "persistence_failed"
	default:
		return "error"
	}
}
