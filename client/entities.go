package client

import (
	"context"
	"net/url"
	"strconv"
)

// EntityService looks up concepts or fields of study. Client.Concepts and
// Client.Fields are both EntityServices over different route prefixes.
type EntityService struct {
	c    *Client
	base string
}

// Search finds entities by name. limit applies to SearchSimilar only; zero
// keeps the server default.
func (s *EntityService) Search(ctx context.Context, name string, mode SearchMode, limit int) ([]Ref, error) {
	params := url.Values{}
	if mode != "" {
		params.Set("mode", string(mode))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var refs []Ref
	if err := s.c.get(ctx, s.base+"/search/"+url.PathEscape(name), params, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// Get returns a single entity by id.
func (s *EntityService) Get(ctx context.Context, id int64) (*Ref, error) {
	var ref Ref
	if err := s.c.get(ctx, s.base+"/"+strconv.FormatInt(id, 10), nil, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

// Articles lists the ids of articles linked to the entity.
func (s *EntityService) Articles(ctx context.Context, id int64, limit int) ([]string, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var ids []string
	if err := s.c.get(ctx, s.base+"/"+strconv.FormatInt(id, 10)+"/articles", params, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
