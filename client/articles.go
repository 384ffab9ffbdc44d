package client

import (
	"context"
	"net/url"
)

// ArticleService fetches article records and concept maps. The first request
// for an article blocks while the server ingests it.
type ArticleService struct {
	c *Client
}

// Get returns the article record.
func (s *ArticleService) Get(ctx context.Context, id string) (*Article, error) {
	var a Article
	if err := s.c.get(ctx, "/api/v1/articles/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ConceptMap returns the article's diagram source.
func (s *ArticleService) ConceptMap(ctx context.Context, id string) (*ConceptMap, error) {
	var cm ConceptMap
	if err := s.c.get(ctx, "/api/v1/articles/"+url.PathEscape(id)+"/concept-map", nil, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}
