package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/metrics"
	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// GraphStore holds the batched edge reads the traversal engine issues.
// Each round of traversal performs at most one read per (edge kind,
// direction) partition plus one is-of-type read, regardless of how many
// vertices sit in the frontier.
type GraphStore struct {
	Base
}

// NewGraphStore creates a new GraphStore.
func NewGraphStore(base Base) *GraphStore {
	return &GraphStore{Base: base}
}

// LinkEdge is one traversed link edge: the source identity it was
// reached from and the neighbor's pointer row (identity, edition,
// intervals; payload hydration happens after traversal completes).
type LinkEdge struct {
	SourceID models.EntityID
	Target   *models.Entity
}

// ReadLinkEdges reads all edges of one (kind, direction) partition for
// the given source identities in a single batched query. Neighbors are
// restricted to canonical rows visible at the query's temporal axes.
func (s *GraphStore) ReadLinkEdges(ctx context.Context, kind models.KnowledgeGraphEdgeKind, direction models.EdgeDirection, axes temporal.QueryTemporalAxes, sources []models.EntityID) ([]LinkEdge, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	table, endpointWebID, endpointUUID := linkEdgeTable(kind)

	// Outgoing walks from the link entity to its endpoint; incoming
	// finds the link entities pointing at the source.
	matchWebID, matchUUID := "web_id", "entity_uuid"
	targetWebID, targetUUID := endpointWebID, endpointUUID
	if direction == models.EdgeDirectionIncoming {
		matchWebID, matchUUID = endpointWebID, endpointUUID
		targetWebID, targetUUID = "web_id", "entity_uuid"
	}

	pinnedColumn, variableColumn := axisColumns(axes)

	webIDs := make([]uuid.UUID, len(sources))
	entityUUIDs := make([]uuid.UUID, len(sources))
	for i, src := range sources {
		webIDs[i] = src.WebID
		entityUUIDs[i] = src.EntityUUID
	}

	sql := fmt.Sprintf(
		`SELECT src.web_id, src.entity_uuid,
		        m.web_id, m.entity_uuid, m.draft_id, m.entity_edition_id, m.decision_time, m.transaction_time
		 FROM unnest($1::uuid[], $2::uuid[]) AS src(web_id, entity_uuid)
		 JOIN %s e ON e.%s = src.web_id AND e.%s = src.entity_uuid
		 JOIN entity_temporal_metadata m
		   ON m.web_id = e.%s AND m.entity_uuid = e.%s
		  AND m.draft_id IS NULL
		  AND m.%s @> $3::TIMESTAMPTZ
		  AND m.%s && $4::tstzrange`,
		table, matchWebID, matchUUID, targetWebID, targetUUID, pinnedColumn, variableColumn,
	)

	rows, err := s.Pool.Query(ctx, sql, webIDs, entityUUIDs,
		axes.PinnedTimestamp(), axes.VariableInterval().PostgresRange())
	if err != nil {
		return nil, fmt.Errorf("querying %s %s edges: %w", kind, direction, err)
	}
	defer rows.Close()

	var edges []LinkEdge

	for rows.Next() {
		var edge LinkEdge

		target, err := scanEntityRecord(func(dest ...any) error {
			scanDest := append([]any{&edge.SourceID.WebID, &edge.SourceID.EntityUUID}, dest...)
			return rows.Scan(scanDest...)
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s %s edge: %w", kind, direction, err)
		}

		edge.Target = target
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s %s edges: %w", kind, direction, err)
	}

	metrics.TraversalEdgesRead.WithLabelValues(string(kind)).Add(float64(len(edges)))

	return edges, nil
}

func linkEdgeTable(kind models.KnowledgeGraphEdgeKind) (table, endpointWebID, endpointUUID string) {
	if kind == models.EdgeKindHasLeftEntity {
		return "entity_has_left_entity", "left_web_id", "left_entity_uuid"
	}

	return "entity_has_right_entity", "right_web_id", "right_entity_uuid"
}

// axisColumns maps the query's pinned and variable axes to the pointer
// table's range columns.
func axisColumns(axes temporal.QueryTemporalAxes) (pinned, variable string) {
	if axes.Pinned.Axis == temporal.AxisTransactionTime {
		return "transaction_time", "decision_time"
	}

	return "decision_time", "transaction_time"
}

// IsOfTypeEdge is one edge from an entity edition to its directly
// assigned type, as visible at the pinned transaction instant.
type IsOfTypeEdge struct {
	EditionID  uuid.UUID
	OntologyID uuid.UUID
	TypeURL    models.VersionedURL
}

// ReadIsOfTypeEdges reads the direct type assignments of the given
// editions in one batched query.
func (s *GraphStore) ReadIsOfTypeEdges(ctx context.Context, axes temporal.QueryTemporalAxes, editionIDs []uuid.UUID) ([]IsOfTypeEdge, error) {
	if len(editionIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT iot.entity_edition_id, oi.ontology_id, oi.base_url, oi.version
		 FROM entity_is_of_type iot
		 JOIN ontology_ids oi ON oi.ontology_id = iot.entity_type_ontology_id
		 JOIN ontology_temporal_metadata otm
		   ON otm.ontology_id = oi.ontology_id AND otm.transaction_time @> $2::TIMESTAMPTZ
		 WHERE iot.entity_edition_id = ANY($1) AND iot.inheritance_depth = 0`,
		editionIDs, pinnedTransactionTime(axes),
	)
	if err != nil {
		return nil, fmt.Errorf("querying is-of-type edges: %w", err)
	}
	defer rows.Close()

	var edges []IsOfTypeEdge

	for rows.Next() {
		var edge IsOfTypeEdge
		if err := rows.Scan(&edge.EditionID, &edge.OntologyID, &edge.TypeURL.BaseURL, &edge.TypeURL.Version); err != nil {
			return nil, fmt.Errorf("scanning is-of-type edge: %w", err)
		}

		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating is-of-type edges: %w", err)
	}

	metrics.TraversalEdgesRead.WithLabelValues(string(models.EdgeKindIsOfType)).Add(float64(len(edges)))

	return edges, nil
}

// InheritsFromEdge is one direct (depth 1) inheritance edge between
// two type versions.
type InheritsFromEdge struct {
	SourceOntologyID uuid.UUID
	SourceURL        models.VersionedURL
	TargetOntologyID uuid.UUID
	TargetURL        models.VersionedURL
}

// ReadInheritsFromEdges reads the direct parents of the given type
// records in one batched query.
func (s *GraphStore) ReadInheritsFromEdges(ctx context.Context, axes temporal.QueryTemporalAxes, ontologyIDs []uuid.UUID) ([]InheritsFromEdge, error) {
	if len(ontologyIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT itf.source_entity_type_ontology_id, src.base_url, src.version,
		        itf.target_entity_type_ontology_id, tgt.base_url, tgt.version
		 FROM entity_type_inherits_from itf
		 JOIN ontology_ids src ON src.ontology_id = itf.source_entity_type_ontology_id
		 JOIN ontology_ids tgt ON tgt.ontology_id = itf.target_entity_type_ontology_id
		 JOIN ontology_temporal_metadata otm
		   ON otm.ontology_id = tgt.ontology_id AND otm.transaction_time @> $2::TIMESTAMPTZ
		 WHERE itf.source_entity_type_ontology_id = ANY($1) AND itf.depth = 1`,
		ontologyIDs, pinnedTransactionTime(axes),
	)
	if err != nil {
		return nil, fmt.Errorf("querying inherits-from edges: %w", err)
	}
	defer rows.Close()

	var edges []InheritsFromEdge

	for rows.Next() {
		var edge InheritsFromEdge
		err := rows.Scan(
			&edge.SourceOntologyID, &edge.SourceURL.BaseURL, &edge.SourceURL.Version,
			&edge.TargetOntologyID, &edge.TargetURL.BaseURL, &edge.TargetURL.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning inherits-from edge: %w", err)
		}

		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inherits-from edges: %w", err)
	}

	metrics.TraversalEdgesRead.WithLabelValues(string(models.EdgeKindInheritsFrom)).Add(float64(len(edges)))

	return edges, nil
}

// HydrateEntities fills payloads and type URLs for traversal output in
// batched reads against current pool state.
func (s *GraphStore) HydrateEntities(ctx context.Context, entities []*models.Entity) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return hydrateEntities(ctx, s.Pool, entities)
}
