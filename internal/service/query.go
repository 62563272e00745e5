package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/authz"
	"github.com/epochgraph/epochgraph/internal/domain"
	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/query"
	"github.com/epochgraph/epochgraph/internal/store"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// EntityQueryStore is the compiled-read interface QueryService depends
// on for entity roots.
type EntityQueryStore interface {
	QueryEntities(ctx context.Context, params store.QueryEntitiesParams) (*store.QueryEntitiesResult, error)
	GetEntity(ctx context.Context, id models.EntityID, axes temporal.QueryTemporalAxes) (*models.Entity, error)
}

// EntityTypeQueryStore is the compiled-read interface QueryService
// depends on for type roots.
type EntityTypeQueryStore interface {
	QueryEntityTypes(ctx context.Context, params store.QueryEntityTypesParams) (*store.QueryEntityTypesResult, error)
}

// Compile-time check: *QueryService must satisfy domain.QueryService.
var _ domain.QueryService = (*QueryService)(nil)

// QueryService answers structural queries: parse the filter, run the
// compiled root read, traverse, return the subgraph.
type QueryService struct {
	entities  EntityQueryStore
	types     EntityTypeQueryStore
	traverser *Traverser
	limit     int
	log       *logrus.Logger
}

// NewQueryService creates a QueryService. limit caps root reads when a
// request does not set its own.
func NewQueryService(entities EntityQueryStore, types EntityTypeQueryStore, traverser *Traverser, limit int, log *logrus.Logger) *QueryService {
	return &QueryService{entities: entities, types: types, traverser: traverser, limit: limit, log: log}
}

// QueryEntitySubgraph matches entities against the request filter and
// expands the resulting subgraph to the requested depths.
func (s *QueryService) QueryEntitySubgraph(ctx context.Context, actorID uuid.UUID, req models.QueryEntitiesRequest) (*models.Subgraph, error) {
	if err := req.TemporalAxes.Validate(); err != nil {
		return nil, err
	}

	axes := req.TemporalAxes.Resolve(time.Now().UTC())

	var filter *query.Filter
	if len(req.Filter) > 0 {
		parsed, err := query.UnmarshalEntityFilter(req.Filter)
		if err != nil {
			return nil, fmt.Errorf("parsing entity filter: %w", err)
		}

		filter = parsed
	}

	limit := req.Limit
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	result, err := s.entities.QueryEntities(ctx, store.QueryEntitiesParams{
		Filter:        filter,
		Axes:          axes,
		IncludeDrafts: req.IncludeDrafts,
		Limit:         limit,
		Cursor:        req.Cursor,
		IncludeCount:  req.IncludeCount,
	})
	if err != nil {
		return nil, err
	}

	subgraph := models.NewSubgraph(req.GraphResolveDepths, axes)
	subgraph.Count = result.Count

	if result.Cursor != nil {
		subgraph.Cursor = result.Cursor.String()
	}

	if err := s.traverser.Traverse(ctx, actorID, subgraph, result.Entities); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"roots":    len(subgraph.Roots.Entities),
		"entities": len(subgraph.Entities),
	}).Debug("query.entity_subgraph")

	return subgraph, nil
}

// QueryEntityTypeSubgraph matches ontology types against the request
// filter and resolves their inheritance edges to the requested depth.
func (s *QueryService) QueryEntityTypeSubgraph(ctx context.Context, actorID uuid.UUID, req models.QueryEntityTypesRequest) (*models.Subgraph, error) {
	if err := req.TemporalAxes.Validate(); err != nil {
		return nil, err
	}

	axes := req.TemporalAxes.Resolve(time.Now().UTC())

	var filter *query.Filter
	if len(req.Filter) > 0 {
		parsed, err := query.UnmarshalEntityTypeFilter(req.Filter)
		if err != nil {
			return nil, fmt.Errorf("parsing entity type filter: %w", err)
		}

		filter = parsed
	}

	limit := req.Limit
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	result, err := s.types.QueryEntityTypes(ctx, store.QueryEntityTypesParams{
		Filter:       filter,
		Axes:         axes,
		Limit:        limit,
		IncludeCount: req.IncludeCount,
	})
	if err != nil {
		return nil, err
	}

	depths := models.GraphResolveDepths{
		InheritsFrom: models.OutgoingEdgeResolveDepth{Outgoing: req.InheritsFromDepth},
	}

	subgraph := models.NewSubgraph(depths, axes)
	subgraph.Count = result.Count

	if err := s.traverser.ResolveTypeRoots(ctx, actorID, subgraph, result.EntityTypes); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"roots":    len(subgraph.Roots.EntityTypes),
	}).Debug("query.entity_type_subgraph")

	return subgraph, nil
}

// GetEntity reads one entity after an explicit view permission check.
func (s *QueryService) GetEntity(ctx context.Context, actorID uuid.UUID, id models.EntityID, axes temporal.QueryTemporalAxes) (*models.Entity, error) {
	decision, err := s.traverser.authz.CheckEntities(ctx, actorID, authz.PermissionView, []uuid.UUID{id.EntityUUID}, authz.FullyConsistent())
	if err != nil {
		return nil, fmt.Errorf("checking view permission: %w", err)
	}

	if permitted, ok := decision.Permitted[id.EntityUUID]; ok && !permitted {
		return nil, models.ErrPermissionDenied
	}

	return s.entities.GetEntity(ctx, id, axes)
}
