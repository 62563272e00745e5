package client

import (
	"context"
	"net/url"
	"time"
)

// EntityService handles entity mutations and reads.
type EntityService struct {
	c *Client
}

// Create records a new entity and returns its first edition.
func (s *EntityService) Create(ctx context.Context, req *CreateEntityRequest) (*Entity, error) {
	var entity Entity
	if err := s.c.post(ctx, "/api/v1/entities", req, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// Update appends a new edition to an existing entity.
func (s *EntityService) Update(ctx context.Context, req *UpdateEntityRequest) (*Entity, error) {
	var entity Entity
	if err := s.c.patch(ctx, "/api/v1/entities", req, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// PromoteDraft turns a draft entity into a live one, keeping its
// edition history. The ID must carry a draft segment.
func (s *EntityService) PromoteDraft(ctx context.Context, entityID string) (*Entity, error) {
	req := map[string]string{"entity_id": entityID}
	var entity Entity
	if err := s.c.post(ctx, "/api/v1/entities/promote", req, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetEntityOptions select the read instant for a single-entity read.
// Nil fields use the server defaults.
type GetEntityOptions struct {
	TransactionTime *time.Time
	DecisionTime    *time.Time
}

// Get returns the entity edition visible at the requested instants.
func (s *EntityService) Get(ctx context.Context, entityID string, opts *GetEntityOptions) (*Entity, error) {
	params := url.Values{}
	if opts != nil {
		if opts.TransactionTime != nil {
			params.Set("transaction_time", opts.TransactionTime.Format(time.RFC3339Nano))
		}
		if opts.DecisionTime != nil {
			params.Set("decision_time", opts.DecisionTime.Format(time.RFC3339Nano))
		}
	}
	var entity Entity
	if err := s.c.get(ctx, "/api/v1/entities/"+url.PathEscape(entityID), params, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// Query runs a structural entity query and returns the traversed
// subgraph.
func (s *EntityService) Query(ctx context.Context, req *QueryEntitiesRequest) (*Subgraph, error) {
	var sub Subgraph
	if err := s.c.post(ctx, "/api/v1/entities/query", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
