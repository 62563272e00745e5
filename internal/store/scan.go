package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// querier is satisfied by both pgx.Tx and dbpool.Pool.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// entityKey identifies one entity identity for batched lookups.
type entityKey struct {
	webID      uuid.UUID
	entityUUID uuid.UUID
}

// intervalFromRange converts a scanned tstzrange into an Interval.
func intervalFromRange(r pgtype.Range[pgtype.Timestamptz]) temporal.Interval {
	toBound := func(t pgtype.Timestamptz, kind pgtype.BoundType) temporal.Bound {
		switch kind {
		case pgtype.Inclusive:
			return temporal.Inclusive(t.Time)
		case pgtype.Exclusive:
			return temporal.Exclusive(t.Time)
		default:
			return temporal.Unbounded()
		}
	}

	return temporal.NewInterval(
		toBound(r.Lower, r.LowerType),
		toBound(r.Upper, r.UpperType),
	)
}

// scanEntityRecord scans one metadata row in the canonical selection
// order produced by addEntityRecordSelections: web_id, entity_uuid,
// draft_id, entity_edition_id, decision_time, transaction_time.
func scanEntityRecord(scan func(dest ...any) error) (*models.Entity, error) {
	var (
		entity          models.Entity
		draftID         *uuid.UUID
		decisionTime    pgtype.Range[pgtype.Timestamptz]
		transactionTime pgtype.Range[pgtype.Timestamptz]
	)

	err := scan(
		&entity.ID.WebID,
		&entity.ID.EntityUUID,
		&draftID,
		&entity.EditionID,
		&decisionTime,
		&transactionTime,
	)
	if err != nil {
		return nil, err
	}

	if draftID != nil {
		entity.ID.DraftID = *draftID
	}

	entity.Temporal.DecisionTime = intervalFromRange(decisionTime)
	entity.Temporal.TransactionTime = intervalFromRange(transactionTime)

	return &entity, nil
}

// collectEntityRecords scans all metadata rows into partially
// hydrated entities (identity, edition pointer, intervals).
func collectEntityRecords(rows pgx.Rows) ([]*models.Entity, error) {
	defer rows.Close()

	var entities []*models.Entity

	for rows.Next() {
		entity, err := scanEntityRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning entity record: %w", err)
		}

		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entity records: %w", err)
	}

	return entities, nil
}

// loadEditions fetches edition payloads by edition ID.
func loadEditions(ctx context.Context, q querier, editionIDs []uuid.UUID) (map[uuid.UUID]editionRecord, error) {
	editions := make(map[uuid.UUID]editionRecord, len(editionIDs))
	if len(editionIDs) == 0 {
		return editions, nil
	}

	rows, err := q.Query(ctx,
		`SELECT entity_edition_id, properties, archived
		 FROM entity_editions
		 WHERE entity_edition_id = ANY($1)`,
		editionIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("querying entity editions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id       uuid.UUID
			props    []byte
			archived bool
		)
		if err := rows.Scan(&id, &props, &archived); err != nil {
			return nil, fmt.Errorf("scanning entity edition: %w", err)
		}

		record := editionRecord{archived: archived}
		if err := json.Unmarshal(props, &record.properties); err != nil {
			return nil, fmt.Errorf("unmarshalling edition properties: %w", err)
		}

		editions[id] = record
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entity editions: %w", err)
	}

	return editions, nil
}

type editionRecord struct {
	properties map[string]any
	archived   bool
}

// loadEditionTypeURLs fetches the directly assigned type URLs per
// edition (inheritance_depth = 0).
func loadEditionTypeURLs(ctx context.Context, q querier, editionIDs []uuid.UUID) (map[uuid.UUID][]models.VersionedURL, error) {
	types := make(map[uuid.UUID][]models.VersionedURL, len(editionIDs))
	if len(editionIDs) == 0 {
		return types, nil
	}

	rows, err := q.Query(ctx,
		`SELECT iot.entity_edition_id, oi.base_url, oi.version
		 FROM entity_is_of_type iot
		 JOIN ontology_ids oi ON oi.ontology_id = iot.entity_type_ontology_id
		 WHERE iot.entity_edition_id = ANY($1) AND iot.inheritance_depth = 0
		 ORDER BY oi.base_url, oi.version`,
		editionIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("querying edition types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			editionID uuid.UUID
			url       models.VersionedURL
		)
		if err := rows.Scan(&editionID, &url.BaseURL, &url.Version); err != nil {
			return nil, fmt.Errorf("scanning edition type: %w", err)
		}

		types[editionID] = append(types[editionID], url)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edition types: %w", err)
	}

	return types, nil
}

// loadLinkData fetches left/right endpoints for link entities among
// the given identities. Non-link entities simply have no rows.
func loadLinkData(ctx context.Context, q querier, keys []entityKey) (map[entityKey]*models.LinkData, error) {
	links := make(map[entityKey]*models.LinkData)
	if len(keys) == 0 {
		return links, nil
	}

	webIDs := make([]uuid.UUID, len(keys))
	entityUUIDs := make([]uuid.UUID, len(keys))
	for i, k := range keys {
		webIDs[i] = k.webID
		entityUUIDs[i] = k.entityUUID
	}

	rows, err := q.Query(ctx,
		`SELECT src.web_id, src.entity_uuid,
		        l.left_web_id, l.left_entity_uuid,
		        r.right_web_id, r.right_entity_uuid
		 FROM unnest($1::uuid[], $2::uuid[]) AS src(web_id, entity_uuid)
		 JOIN entity_has_left_entity l
		   ON l.web_id = src.web_id AND l.entity_uuid = src.entity_uuid
		 JOIN entity_has_right_entity r
		   ON r.web_id = src.web_id AND r.entity_uuid = src.entity_uuid`,
		webIDs, entityUUIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("querying link data: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key  entityKey
			link models.LinkData
		)
		err := rows.Scan(
			&key.webID, &key.entityUUID,
			&link.LeftEntityID.WebID, &link.LeftEntityID.EntityUUID,
			&link.RightEntityID.WebID, &link.RightEntityID.EntityUUID,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning link data: %w", err)
		}

		links[key] = &link
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating link data: %w", err)
	}

	return links, nil
}

// hydrateEntities fills edition payloads, type URLs and link data in
// three batched reads, shared by query results and traversal output.
func hydrateEntities(ctx context.Context, q querier, entities []*models.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	editionSet := make(map[uuid.UUID]struct{}, len(entities))
	keySet := make(map[entityKey]struct{}, len(entities))
	for _, e := range entities {
		editionSet[e.EditionID] = struct{}{}
		keySet[entityKey{webID: e.ID.WebID, entityUUID: e.ID.EntityUUID}] = struct{}{}
	}

	editionIDs := make([]uuid.UUID, 0, len(editionSet))
	for id := range editionSet {
		editionIDs = append(editionIDs, id)
	}

	keys := make([]entityKey, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}

	editions, err := loadEditions(ctx, q, editionIDs)
	if err != nil {
		return err
	}

	types, err := loadEditionTypeURLs(ctx, q, editionIDs)
	if err != nil {
		return err
	}

	links, err := loadLinkData(ctx, q, keys)
	if err != nil {
		return err
	}

	for _, e := range entities {
		edition, ok := editions[e.EditionID]
		if !ok {
			return fmt.Errorf("entity edition %s missing: %w", e.EditionID, models.ErrEntityNotFound)
		}

		e.Properties = edition.properties
		e.Archived = edition.archived
		e.EntityTypeIDs = types[e.EditionID]
		e.LinkData = links[entityKey{webID: e.ID.WebID, entityUUID: e.ID.EntityUUID}]
	}

	return nil
}
