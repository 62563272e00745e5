package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/epochgraph/epochgraph/internal/authz"
	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// OntologyStore handles entity type registration and archival. Like
// entity mutations, type registration writes permission relationships
// first and compensates when the storage transaction fails.
type OntologyStore struct {
	Base
}

// NewOntologyStore creates a new OntologyStore.
func NewOntologyStore(base Base) *OntologyStore {
	return &OntologyStore{Base: base}
}

// CreateEntityType registers one entity type version: identity row,
// open transaction-time interval, ownership, schema document and the
// materialized inheritance closure.
func (s *OntologyStore) CreateEntityType(ctx context.Context, actorID uuid.UUID, req models.CreateEntityTypeRequest) (*models.EntityType, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	ontologyID := models.OntologyTypeUUID(req.URL)

	relations := []authz.RelationOp{
		{Op: "create", ResourceID: ontologyID, Relation: "owner", SubjectID: req.WebID},
		{Op: "create", ResourceID: ontologyID, Relation: "editor", SubjectID: actorID},
	}

	if _, err := s.Authz.ModifyRelations(ctx, relations); err != nil {
		return nil, fmt.Errorf("writing entity type relationships: %w", err)
	}

	entityType, err := s.createEntityTypeRecord(ctx, req, ontologyID)
	if err != nil {
		return nil, s.compensateRelations(ctx, relations, err)
	}

	s.notify("entity-type.created", req.WebID.String(), map[string]any{"url": req.URL.String()})

	return entityType, nil
}

func (s *OntologyStore) createEntityTypeRecord(ctx context.Context, req models.CreateEntityTypeRequest, ontologyID uuid.UUID) (*models.EntityType, error) {
	now := time.Now().UTC()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating entity type: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	_, err = tx.Exec(ctx,
		`INSERT INTO ontology_ids (ontology_id, base_url, version) VALUES ($1, $2, $3)`,
		ontologyID, req.URL.BaseURL, int64(req.URL.Version),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("inserting ontology id: %w", err)
	}

	transaction := temporal.NewInterval(temporal.Inclusive(now), temporal.Unbounded())

	_, err = tx.Exec(ctx,
		`INSERT INTO ontology_temporal_metadata (ontology_id, transaction_time) VALUES ($1, $2::tstzrange)`,
		ontologyID, transaction.PostgresRange(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting ontology temporal metadata: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO ontology_owned_metadata (ontology_id, web_id) VALUES ($1, $2)`,
		ontologyID, req.WebID,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting ontology ownership: %w", err)
	}

	schemaJSON, err := json.Marshal(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("marshalling type schema: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO entity_types (ontology_id, "schema") VALUES ($1, $2)`,
		ontologyID, schemaJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting entity type schema: %w", err)
	}

	if err := s.insertInheritance(ctx, tx, ontologyID, req.InheritsFrom); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing create entity type: %w", err)
	}

	return &models.EntityType{
		Schema: req.Schema,
		Metadata: models.EntityTypeMetadata{
			OntologyID: ontologyID,
			URL:        req.URL,
			WebID:      req.WebID,
			Temporal:   models.OntologyTemporalMetadata{TransactionTime: transaction},
		},
	}, nil
}

// insertInheritance materializes direct parent edges at depth 1 and
// extends them with the parents' own closure. Diamond inheritance
// keeps the shortest path.
func (s *OntologyStore) insertInheritance(ctx context.Context, tx pgx.Tx, ontologyID uuid.UUID, parents []models.VersionedURL) error {
	if len(parents) == 0 {
		return nil
	}

	resolved, err := resolveOntologyIDs(ctx, tx, parents)
	if err != nil {
		return err
	}

	parentIDs := make([]uuid.UUID, 0, len(resolved))
	for _, id := range resolved {
		parentIDs = append(parentIDs, id)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO entity_type_inherits_from
		 (source_entity_type_ontology_id, target_entity_type_ontology_id, depth)
		 SELECT $1, p, 1 FROM unnest($2::uuid[]) AS p
		 ON CONFLICT (source_entity_type_ontology_id, target_entity_type_ontology_id)
		 DO UPDATE SET depth = LEAST(entity_type_inherits_from.depth, EXCLUDED.depth)`,
		ontologyID, parentIDs,
	)
	if err != nil {
		return fmt.Errorf("inserting direct inheritance: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO entity_type_inherits_from
		 (source_entity_type_ontology_id, target_entity_type_ontology_id, depth)
		 SELECT $1, itf.target_entity_type_ontology_id, itf.depth + 1
		 FROM entity_type_inherits_from itf
		 WHERE itf.source_entity_type_ontology_id = ANY($2)
		 ON CONFLICT (source_entity_type_ontology_id, target_entity_type_ontology_id)
		 DO UPDATE SET depth = LEAST(entity_type_inherits_from.depth, EXCLUDED.depth)`,
		ontologyID, parentIDs,
	)
	if err != nil {
		return fmt.Errorf("extending inheritance closure: %w", err)
	}

	return nil
}

// ArchiveEntityType closes the open transaction-time interval of one
// type version. Later reads pinned before the close still see it.
func (s *OntologyStore) ArchiveEntityType(ctx context.Context, actorID uuid.UUID, req models.ArchiveEntityTypeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	ontologyID := models.OntologyTypeUUID(req.URL)

	decision, err := s.Authz.CheckEntityTypes(ctx, actorID, authz.PermissionUpdate,
		[]uuid.UUID{ontologyID}, authz.FullyConsistent())
	if err != nil {
		return fmt.Errorf("checking archive permission: %w", err)
	}

	if !decision.Permitted[ontologyID] {
		return models.ErrPermissionDenied
	}

	now := time.Now().UTC()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return fmt.Errorf("archiving entity type: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var webID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT web_id FROM ontology_owned_metadata WHERE ontology_id = $1`, ontologyID,
	).Scan(&webID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("reading entity type ownership: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE ontology_temporal_metadata
		 SET transaction_time = tstzrange(lower(transaction_time), $2, '[)')
		 WHERE ontology_id = $1 AND upper_inf(transaction_time)`,
		ontologyID, now,
	)
	if err != nil {
		return fmt.Errorf("closing ontology interval: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM ontology_ids WHERE ontology_id = $1)`, ontologyID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("checking entity type existence: %w", err)
		}

		if !exists {
			return models.ErrEntityTypeNotFound
		}

		return models.ErrRaceConditionOnUpdate
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing archive entity type: %w", err)
	}

	s.notify("entity-type.archived", webID.String(), map[string]any{"url": req.URL.String()})

	return nil
}
