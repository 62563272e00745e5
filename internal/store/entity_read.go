package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/epochgraph/epochgraph/internal/metrics"
	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/query"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// QueryEntitiesParams drives one compiled entity read.
type QueryEntitiesParams struct {
	Filter        *query.Filter
	Axes          temporal.QueryTemporalAxes
	IncludeDrafts bool
	Limit         int
	Cursor        *uuid.UUID
	IncludeCount  bool
}

// QueryEntitiesResult carries a page of entities, the cursor for the
// next page (nil on the last page) and the optional total match count.
type QueryEntitiesResult struct {
	Entities []*models.Entity
	Cursor   *uuid.UUID
	Count    *int
}

// QueryEntities compiles the filter into one SELECT over the pointer
// table, pages by entity UUID, and hydrates matches in batched reads.
func (s *EntityStore) QueryEntities(ctx context.Context, params QueryEntitiesParams) (*QueryEntitiesResult, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	limit := params.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	compiler := query.NewSelectCompiler(query.TableEntityTemporalMetadata, &params.Axes, params.IncludeDrafts)
	compiler.AddSelectionPath(query.EntityWebIDPath())

	if params.Cursor != nil {
		_, err := compiler.AddCursorSelection(query.EntityUUIDPath(), *params.Cursor, query.OrderingAscending, query.NullsDefault)
		if err != nil {
			return nil, err
		}
	} else {
		compiler.AddOrderedSelectionPath(query.EntityUUIDPath(), query.OrderingAscending, query.NullsDefault)
	}

	compiler.AddSelectionPath(query.EntityDraftIDPath())
	compiler.AddSelectionPath(query.EntityEditionIDPath())
	compiler.AddSelectionPath(query.EntityDecisionTimePath())
	compiler.AddSelectionPath(query.EntityTransactionTimePath())

	if params.Filter != nil {
		if err := compiler.AddFilter(params.Filter); err != nil {
			return nil, err
		}
	}

	// One extra row decides whether a next page exists.
	compiler.SetLimit(limit + 1)

	sql, args := compiler.Compile()
	metrics.QueriesCompiled.WithLabelValues(string(query.TableEntityTemporalMetadata)).Inc()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}

	entities, err := collectEntityRecords(rows)
	if err != nil {
		return nil, err
	}

	result := &QueryEntitiesResult{}

	if len(entities) > limit {
		entities = entities[:limit]
		last := entities[len(entities)-1].ID.EntityUUID
		result.Cursor = &last
	}

	if err := hydrateEntities(ctx, tx, entities); err != nil {
		return nil, err
	}

	result.Entities = entities

	if params.IncludeCount {
		count, err := s.countEntities(ctx, tx, params)
		if err != nil {
			return nil, err
		}

		result.Count = &count
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing entity query: %w", err)
	}

	return result, nil
}

// countEntities reruns the filter without paging and counts matches.
func (s *EntityStore) countEntities(ctx context.Context, tx pgx.Tx, params QueryEntitiesParams) (int, error) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableEntityTemporalMetadata, &params.Axes, params.IncludeDrafts)
	if params.Filter != nil {
		if err := compiler.AddFilter(params.Filter); err != nil {
			return 0, err
		}
	}

	sql, args := compiler.Compile()

	var count int
	if err := tx.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS matches", sql), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting entities: %w", err)
	}

	return count, nil
}

// GetEntity reads one entity lineage at the given axes.
func (s *EntityStore) GetEntity(ctx context.Context, id models.EntityID, axes temporal.QueryTemporalAxes) (*models.Entity, error) {
	result, err := s.QueryEntities(ctx, QueryEntitiesParams{
		Filter:        query.NewEntityIDFilter(id),
		Axes:          axes,
		IncludeDrafts: id.IsDraft(),
		Limit:         1,
	})
	if err != nil {
		return nil, err
	}

	if len(result.Entities) == 0 {
		return nil, models.ErrEntityNotFound
	}

	return result.Entities[0], nil
}

// GetEntitiesByVertexIDs reads the exact revisions named by traversal
// vertex IDs: each lineage pinned at the pinned axis, with the variable
// interval restricted to the revision start instant.
func (s *EntityStore) GetEntitiesByVertexIDs(ctx context.Context, axes temporal.QueryTemporalAxes, ids []models.EntityVertexID) ([]*models.Entity, error) {
	entities := make([]*models.Entity, 0, len(ids))

	for _, vertexID := range ids {
		revisionAxes := axes.WithVariableInterval(temporal.NewInterval(
			temporal.Inclusive(vertexID.RevisionID),
			temporal.Inclusive(vertexID.RevisionID),
		))

		entity, err := s.GetEntity(ctx, vertexID.BaseID, revisionAxes)
		if err != nil {
			if errors.Is(err, models.ErrEntityNotFound) {
				continue
			}

			return nil, err
		}

		entities = append(entities, entity)
	}

	return entities, nil
}
