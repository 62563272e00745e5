package client

import (
	"context"
	"net/url"
	"time"
)

// EntityTypeService handles ontology type registration and reads.
type EntityTypeService struct {
	c *Client
}

// Create registers a new entity type version.
func (s *EntityTypeService) Create(ctx context.Context, req *CreateEntityTypeRequest) (*EntityType, error) {
	var entityType EntityType
	if err := s.c.post(ctx, "/api/v1/entity-types", req, &entityType); err != nil {
		return nil, err
	}
	return &entityType, nil
}

// Archive closes the open transaction-time interval of a type version.
func (s *EntityTypeService) Archive(ctx context.Context, typeURL string) error {
	return s.c.post(ctx, "/api/v1/entity-types/archive", &ArchiveEntityTypeRequest{URL: typeURL}, nil)
}

// GetEntityTypeOptions select the read instant for a single-type read.
type GetEntityTypeOptions struct {
	TransactionTime *time.Time
}

// Get returns one entity type version by versioned URL. The URL goes
// in a query parameter because versioned URLs contain slashes.
func (s *EntityTypeService) Get(ctx context.Context, typeURL string, opts *GetEntityTypeOptions) (*EntityType, error) {
	params := url.Values{}
	params.Set("url", typeURL)
	if opts != nil && opts.TransactionTime != nil {
		params.Set("transaction_time", opts.TransactionTime.Format(time.RFC3339Nano))
	}
	var entityType EntityType
	if err := s.c.get(ctx, "/api/v1/entity-types", params, &entityType); err != nil {
		return nil, err
	}
	return &entityType, nil
}

// Query runs a structural type query and returns the matched types
// with their inheritance edges resolved.
func (s *EntityTypeService) Query(ctx context.Context, req *QueryEntityTypesRequest) (*Subgraph, error) {
	var sub Subgraph
	if err := s.c.post(ctx, "/api/v1/entity-types/query", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
