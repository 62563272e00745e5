package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/epochgraph/epochgraph/internal/metrics"
	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/query"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// QueryEntityTypesParams drives one compiled entity type read.
type QueryEntityTypesParams struct {
	Filter       *query.Filter
	Axes         temporal.QueryTemporalAxes
	Limit        int
	IncludeCount bool
}

// QueryEntityTypesResult carries matched types and the optional total
// match count.
type QueryEntityTypesResult struct {
	EntityTypes []*models.EntityType
	Count       *int
}

// QueryEntityTypes compiles the filter into one SELECT over the
// ontology pointer table and scans full type records.
func (s *OntologyStore) QueryEntityTypes(ctx context.Context, params QueryEntityTypesParams) (*QueryEntityTypesResult, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	limit := params.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	compiler := query.NewSelectCompiler(query.TableOntologyTemporalMetadata, &params.Axes, false)
	compiler.AddSelectionPath(query.EntityTypeOntologyIDPath())
	compiler.AddOrderedSelectionPath(query.EntityTypeBaseURLPath(), query.OrderingAscending, query.NullsDefault)
	compiler.AddOrderedSelectionPath(query.EntityTypeVersionPath(), query.OrderingAscending, query.NullsDefault)
	compiler.AddSelectionPath(query.EntityTypeWebIDPath())
	compiler.AddSelectionPath(query.EntityTypeTransactionTimePath())
	compiler.AddSelectionPath(query.EntityTypeSchemaPath())

	if params.Filter != nil {
		if err := compiler.AddFilter(params.Filter); err != nil {
			return nil, err
		}
	}

	compiler.SetLimit(limit)

	sql, args := compiler.Compile()
	metrics.QueriesCompiled.WithLabelValues(string(query.TableOntologyTemporalMetadata)).Inc()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying entity types: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entity types: %w", err)
	}

	entityTypes, err := collectEntityTypeRecords(rows)
	if err != nil {
		return nil, err
	}

	result := &QueryEntityTypesResult{EntityTypes: entityTypes}

	if params.IncludeCount {
		count, err := s.countEntityTypes(ctx, tx, params)
		if err != nil {
			return nil, err
		}

		result.Count = &count
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing entity type query: %w", err)
	}

	return result, nil
}

func (s *OntologyStore) countEntityTypes(ctx context.Context, tx pgx.Tx, params QueryEntityTypesParams) (int, error) {
	compiler := query.NewSelectCompilerWithAsterisk(query.TableOntologyTemporalMetadata, &params.Axes, false)
	if params.Filter != nil {
		if err := compiler.AddFilter(params.Filter); err != nil {
			return 0, err
		}
	}

	sql, args := compiler.Compile()

	var count int
	if err := tx.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS matches", sql), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting entity types: %w", err)
	}

	return count, nil
}

// scanEntityTypeRecord scans one row in the canonical selection order
// produced by QueryEntityTypes: ontology_id, base_url, version,
// web_id, transaction_time, schema.
func scanEntityTypeRecord(scan func(dest ...any) error) (*models.EntityType, error) {
	var (
		entityType      models.EntityType
		transactionTime pgtype.Range[pgtype.Timestamptz]
		schemaJSON      []byte
	)

	err := scan(
		&entityType.Metadata.OntologyID,
		&entityType.Metadata.URL.BaseURL,
		&entityType.Metadata.URL.Version,
		&entityType.Metadata.WebID,
		&transactionTime,
		&schemaJSON,
	)
	if err != nil {
		return nil, err
	}

	entityType.Metadata.Temporal.TransactionTime = intervalFromRange(transactionTime)

	if err := json.Unmarshal(schemaJSON, &entityType.Schema); err != nil {
		return nil, fmt.Errorf("unmarshalling type schema: %w", err)
	}

	return &entityType, nil
}

func collectEntityTypeRecords(rows pgx.Rows) ([]*models.EntityType, error) {
	defer rows.Close()

	var entityTypes []*models.EntityType

	for rows.Next() {
		entityType, err := scanEntityTypeRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning entity type record: %w", err)
		}

		entityTypes = append(entityTypes, entityType)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entity type records: %w", err)
	}

	return entityTypes, nil
}

// GetEntityTypeByURL reads one type version at the given axes.
func (s *OntologyStore) GetEntityTypeByURL(ctx context.Context, url models.VersionedURL, axes temporal.QueryTemporalAxes) (*models.EntityType, error) {
	result, err := s.QueryEntityTypes(ctx, QueryEntityTypesParams{
		Filter: query.NewVersionedURLFilter(url),
		Axes:   axes,
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}

	if len(result.EntityTypes) == 0 {
		return nil, models.ErrEntityTypeNotFound
	}

	return result.EntityTypes[0], nil
}

// GetLatestEntityType reads the highest registered version of a base
// URL visible at the given axes.
func (s *OntologyStore) GetLatestEntityType(ctx context.Context, baseURL string, axes temporal.QueryTemporalAxes) (*models.EntityType, error) {
	result, err := s.QueryEntityTypes(ctx, QueryEntityTypesParams{
		Filter: query.FilterAll(query.NewBaseURLFilter(baseURL), query.NewLatestVersionFilter()),
		Axes:   axes,
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}

	if len(result.EntityTypes) == 0 {
		return nil, models.ErrEntityTypeNotFound
	}

	return result.EntityTypes[0], nil
}

// GetEntityTypesByOntologyIDs reads full type records in one batched
// query, pinned at the given transaction instant. Used by traversal's
// type-resolution pass.
func (s *OntologyStore) GetEntityTypesByOntologyIDs(ctx context.Context, ontologyIDs []uuid.UUID, axes temporal.QueryTemporalAxes) ([]*models.EntityType, error) {
	if len(ontologyIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT oi.ontology_id, oi.base_url, oi.version, oom.web_id, otm.transaction_time, et."schema"
		 FROM ontology_ids oi
		 JOIN ontology_temporal_metadata otm
		   ON otm.ontology_id = oi.ontology_id AND otm.transaction_time @> $2::timestamptz
		 JOIN ontology_owned_metadata oom ON oom.ontology_id = oi.ontology_id
		 JOIN entity_types et ON et.ontology_id = oi.ontology_id
		 WHERE oi.ontology_id = ANY($1)
		 ORDER BY oi.base_url, oi.version`,
		ontologyIDs, pinnedTransactionTime(axes),
	)
	if err != nil {
		return nil, fmt.Errorf("querying entity types by id: %w", err)
	}

	return collectEntityTypeRecords(rows)
}

// pinnedTransactionTime returns the instant ontology reads are pinned
// to on the transaction axis, regardless of which axis the query pins.
func pinnedTransactionTime(axes temporal.QueryTemporalAxes) time.Time {
	if axes.Pinned.Axis == temporal.AxisTransactionTime {
		return axes.PinnedTimestamp()
	}

	// Transaction time is the variable axis: pin ontology visibility to
	// the interval end when bounded, otherwise read current state.
	interval := axes.VariableInterval()
	if interval.End.Kind != temporal.BoundUnbounded {
		return interval.End.Limit
	}

	return time.Now().UTC()
}
