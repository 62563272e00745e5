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
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/authz"
	"github.com/epochgraph/epochgraph/internal/metrics"
	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// EntityStore handles entity mutation workflows. Each mutation couples
// a multi-statement PostgreSQL transaction with relationship writes to
// the external permission store; the permission side is written first
// and compensated when the storage side fails.
type EntityStore struct {
	Base
}

// NewEntityStore creates a new EntityStore.
func NewEntityStore(base Base) *EntityStore {
	return &EntityStore{Base: base}
}

// compensateRelations undoes previously written permission
// relationships after a failed mutation. When the compensating write
// fails too, both errors surface together so neither inconsistency is
// masked.
func (b *Base) compensateRelations(ctx context.Context, ops []authz.RelationOp, cause error) error {
	inverted := make([]authz.RelationOp, len(ops))
	for i, op := range ops {
		inverted[i] = op.Invert()
	}

	if _, err := b.Authz.ModifyRelations(ctx, inverted); err != nil {
		metrics.CompensationFailures.Inc()
		b.Log.WithError(err).Error("compensating relationship delete failed")

		return &models.CompensationFailureError{Cause: cause, CompensationErr: err}
	}

	return cause
}

// CreateEntity inserts a new entity: identity row, first edition,
// bitemporal pointer, type adjacency and optional link endpoints.
// Permission relationships are written before the transaction opens.
func (s *EntityStore) CreateEntity(ctx context.Context, actorID uuid.UUID, req models.CreateEntityRequest) (*models.Entity, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()

	decisionTime := now
	if req.DecisionTime != nil {
		decisionTime = req.DecisionTime.UTC()
	}

	id := models.EntityID{WebID: req.WebID, EntityUUID: req.EntityUUID}
	if req.Draft {
		id.DraftID = uuid.New()
	}

	relations := []authz.RelationOp{
		{Op: "create", ResourceID: id.EntityUUID, Relation: "owner", SubjectID: req.WebID},
		{Op: "create", ResourceID: id.EntityUUID, Relation: "editor", SubjectID: actorID},
	}

	if _, err := s.Authz.ModifyRelations(ctx, relations); err != nil {
		return nil, fmt.Errorf("writing entity relationships: %w", err)
	}

	entity, err := s.createEntityRecord(ctx, actorID, req, id, decisionTime, now)
	if err != nil {
		return nil, s.compensateRelations(ctx, relations, err)
	}

	s.notify("entity.created", id.WebID.String(), map[string]any{"entity_uuid": id.EntityUUID.String()})

	return entity, nil
}

func (s *EntityStore) createEntityRecord(ctx context.Context, actorID uuid.UUID, req models.CreateEntityRequest, id models.EntityID, decisionTime, now time.Time) (*models.Entity, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating entity: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	_, err = tx.Exec(ctx,
		`INSERT INTO entity_ids (web_id, entity_uuid, created_by) VALUES ($1, $2, $3)`,
		id.WebID, id.EntityUUID, actorID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("inserting entity id: %w", err)
	}

	editionID, err := s.insertEdition(ctx, tx, actorID, req.Properties, false, req.EntityTypeIDs)
	if err != nil {
		return nil, err
	}

	var draftID *uuid.UUID
	if id.IsDraft() {
		d := id.DraftID
		draftID = &d
	}

	decision := temporal.NewInterval(temporal.Inclusive(decisionTime), temporal.Unbounded())
	transaction := temporal.NewInterval(temporal.Inclusive(now), temporal.Unbounded())

	_, err = tx.Exec(ctx,
		`INSERT INTO entity_temporal_metadata
		 (web_id, entity_uuid, draft_id, entity_edition_id, decision_time, transaction_time)
		 VALUES ($1, $2, $3, $4, $5::tstzrange, $6::tstzrange)`,
		id.WebID, id.EntityUUID, draftID, editionID,
		decision.PostgresRange(), transaction.PostgresRange(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting entity temporal metadata: %w", err)
	}

	if req.LinkData != nil {
		if err := insertLinkEndpoints(ctx, tx, id, *req.LinkData); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing create entity: %w", err)
	}

	props := req.Properties
	if props == nil {
		props = map[string]any{}
	}

	return &models.Entity{
		ID:            id,
		EditionID:     editionID,
		EntityTypeIDs: req.EntityTypeIDs,
		Properties:    props,
		LinkData:      req.LinkData,
		Temporal: models.EntityTemporalMetadata{
			DecisionTime:    decision,
			TransactionTime: transaction,
		},
	}, nil
}

// insertEdition writes one immutable edition row plus its type
// adjacency (the given types at depth 0 and their inheritance closure).
func (s *EntityStore) insertEdition(ctx context.Context, tx pgx.Tx, actorID uuid.UUID, properties map[string]any, archived bool, typeURLs []models.VersionedURL) (uuid.UUID, error) {
	editionID := uuid.New()

	if properties == nil {
		properties = map[string]any{}
	}

	propsJSON, err := json.Marshal(properties)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshalling entity properties: %w", err)
	}

	provenance, _ := json.Marshal(map[string]any{"actor_id": actorID}) //nolint:errcheck // static keys, cannot fail.

	_, err = tx.Exec(ctx,
		`INSERT INTO entity_editions (entity_edition_id, properties, archived, provenance)
		 VALUES ($1, $2, $3, $4)`,
		editionID, propsJSON, archived, provenance,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting entity edition: %w", err)
	}

	resolved, err := resolveOntologyIDs(ctx, tx, typeURLs)
	if err != nil {
		return uuid.Nil, err
	}

	typeIDs := make([]uuid.UUID, 0, len(resolved))
	for _, id := range resolved {
		typeIDs = append(typeIDs, id)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO entity_is_of_type (entity_edition_id, entity_type_ontology_id, inheritance_depth)
		 SELECT $1, t, 0 FROM unnest($2::uuid[]) AS t
		 ON CONFLICT (entity_edition_id, entity_type_ontology_id) DO NOTHING`,
		editionID, typeIDs,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting entity type adjacency: %w", err)
	}

	// Close the adjacency over the type inheritance lattice so typed
	// queries match instances of subtypes.
	_, err = tx.Exec(ctx,
		`INSERT INTO entity_is_of_type (entity_edition_id, entity_type_ontology_id, inheritance_depth)
		 SELECT $1, itf.target_entity_type_ontology_id, itf.depth
		 FROM entity_type_inherits_from itf
		 WHERE itf.source_entity_type_ontology_id = ANY($2)
		 ON CONFLICT (entity_edition_id, entity_type_ontology_id) DO NOTHING`,
		editionID, typeIDs,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting inherited type adjacency: %w", err)
	}

	return editionID, nil
}

func insertLinkEndpoints(ctx context.Context, tx pgx.Tx, id models.EntityID, link models.LinkData) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO entity_has_left_entity (web_id, entity_uuid, left_web_id, left_entity_uuid)
		 VALUES ($1, $2, $3, $4)`,
		id.WebID, id.EntityUUID, link.LeftEntityID.WebID, link.LeftEntityID.EntityUUID,
	)
	if err != nil {
		return fmt.Errorf("inserting left endpoint: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO entity_has_right_entity (web_id, entity_uuid, right_web_id, right_entity_uuid)
		 VALUES ($1, $2, $3, $4)`,
		id.WebID, id.EntityUUID, link.RightEntityID.WebID, link.RightEntityID.EntityUUID,
	)
	if err != nil {
		return fmt.Errorf("inserting right endpoint: %w", err)
	}

	return nil
}

// UpdateEntity appends a new edition: the open pointer row is closed on
// transaction time, a correction row preserves the superseded decision
// span, and a fresh row carries the new edition forward. Zero matched
// rows on the close means a concurrent writer got there first.
func (s *EntityStore) UpdateEntity(ctx context.Context, actorID uuid.UUID, req models.UpdateEntityRequest) (*models.Entity, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	decision, err := s.Authz.CheckEntities(ctx, actorID, authz.PermissionUpdate,
		[]uuid.UUID{req.EntityID.EntityUUID}, authz.FullyConsistent())
	if err != nil {
		return nil, fmt.Errorf("checking update permission: %w", err)
	}

	if !decision.Permitted[req.EntityID.EntityUUID] {
		return nil, models.ErrPermissionDenied
	}

	now := time.Now().UTC()

	decisionTime := now
	if req.DecisionTime != nil {
		decisionTime = req.DecisionTime.UTC()
	}

	entity, err := s.updateEntityRecord(ctx, actorID, req, decisionTime, now)
	if err != nil {
		return nil, err
	}

	s.notify("entity.updated", req.EntityID.WebID.String(), map[string]any{"entity_uuid": req.EntityID.EntityUUID.String()})

	return entity, nil
}

func (s *EntityStore) updateEntityRecord(ctx context.Context, actorID uuid.UUID, req models.UpdateEntityRequest, decisionTime, now time.Time) (*models.Entity, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("updating entity: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	previous, err := s.closeCurrentPointer(ctx, tx, req.EntityID, now)
	if err != nil {
		return nil, err
	}

	// Preserve the superseded decision span under the new transaction
	// interval, unless the update lands exactly at the old span's start.
	if previous.decisionStart.Before(decisionTime) {
		correction := temporal.NewInterval(temporal.Inclusive(previous.decisionStart), temporal.Exclusive(decisionTime))
		transaction := temporal.NewInterval(temporal.Inclusive(now), temporal.Unbounded())

		_, err = tx.Exec(ctx,
			`INSERT INTO entity_temporal_metadata
			 (web_id, entity_uuid, draft_id, entity_edition_id, decision_time, transaction_time)
			 VALUES ($1, $2, $3, $4, $5::tstzrange, $6::tstzrange)`,
			req.EntityID.WebID, req.EntityID.EntityUUID, draftIDParam(req.EntityID), previous.editionID,
			correction.PostgresRange(), transaction.PostgresRange(),
		)
		if err != nil {
			return nil, fmt.Errorf("inserting superseded pointer row: %w", err)
		}
	}

	archived := previous.archived
	if req.Archived != nil {
		archived = *req.Archived
	}

	editionID, err := s.insertUpdatedEdition(ctx, tx, actorID, req, previous, archived)
	if err != nil {
		return nil, err
	}

	newDecision := temporal.NewInterval(temporal.Inclusive(decisionTime), temporal.Unbounded())
	newTransaction := temporal.NewInterval(temporal.Inclusive(now), temporal.Unbounded())

	_, err = tx.Exec(ctx,
		`INSERT INTO entity_temporal_metadata
		 (web_id, entity_uuid, draft_id, entity_edition_id, decision_time, transaction_time)
		 VALUES ($1, $2, $3, $4, $5::tstzrange, $6::tstzrange)`,
		req.EntityID.WebID, req.EntityID.EntityUUID, draftIDParam(req.EntityID), editionID,
		newDecision.PostgresRange(), newTransaction.PostgresRange(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting new pointer row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing update entity: %w", err)
	}

	props := req.Properties
	if props == nil {
		props = map[string]any{}
	}

	typeURLs := req.EntityTypeIDs
	if len(typeURLs) == 0 {
		typeURLs = previous.typeURLs
	}

	return &models.Entity{
		ID:            req.EntityID,
		EditionID:     editionID,
		EntityTypeIDs: typeURLs,
		Properties:    props,
		Archived:      archived,
		Temporal: models.EntityTemporalMetadata{
			DecisionTime:    newDecision,
			TransactionTime: newTransaction,
		},
	}, nil
}

// previousPointer captures the row closed by an update.
type previousPointer struct {
	editionID     uuid.UUID
	decisionStart time.Time
	archived      bool
	typeURLs      []models.VersionedURL
}

// closeCurrentPointer ends the open transaction-time interval of the
// targeted lineage. Matching zero rows means either the entity does
// not exist or a concurrent update already closed the row; the two
// cases map to different errors.
func (s *EntityStore) closeCurrentPointer(ctx context.Context, tx pgx.Tx, id models.EntityID, now time.Time) (*previousPointer, error) {
	var (
		prev          previousPointer
		decisionStart time.Time
	)

	draftCond := "draft_id IS NULL"
	args := []any{id.WebID, id.EntityUUID, now}
	if id.IsDraft() {
		draftCond = "draft_id = $4"
		args = append(args, id.DraftID)
	}

	err := tx.QueryRow(ctx,
		`UPDATE entity_temporal_metadata
		 SET transaction_time = tstzrange(lower(transaction_time), $3, '[)')
		 WHERE web_id = $1 AND entity_uuid = $2 AND `+draftCond+`
		   AND upper_inf(transaction_time)
		 RETURNING entity_edition_id, lower(decision_time)`,
		args...,
	).Scan(&prev.editionID, &decisionStart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyMissingPointer(ctx, tx, id)
		}

		return nil, fmt.Errorf("closing current pointer row: %w", err)
	}

	prev.decisionStart = decisionStart.UTC()

	err = tx.QueryRow(ctx,
		`SELECT archived FROM entity_editions WHERE entity_edition_id = $1`,
		prev.editionID,
	).Scan(&prev.archived)
	if err != nil {
		return nil, fmt.Errorf("reading previous edition: %w", err)
	}

	types, err := loadEditionTypeURLs(ctx, tx, []uuid.UUID{prev.editionID})
	if err != nil {
		return nil, err
	}

	prev.typeURLs = types[prev.editionID]

	return &prev, nil
}

func (s *EntityStore) classifyMissingPointer(ctx context.Context, tx pgx.Tx, id models.EntityID) error {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM entity_ids WHERE web_id = $1 AND entity_uuid = $2)`,
		id.WebID, id.EntityUUID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking entity existence: %w", err)
	}

	if !exists {
		return models.ErrEntityNotFound
	}

	return models.ErrRaceConditionOnUpdate
}

func (s *EntityStore) insertUpdatedEdition(ctx context.Context, tx pgx.Tx, actorID uuid.UUID, req models.UpdateEntityRequest, previous *previousPointer, archived bool) (uuid.UUID, error) {
	if len(req.EntityTypeIDs) > 0 {
		return s.insertEdition(ctx, tx, actorID, req.Properties, archived, req.EntityTypeIDs)
	}

	// No type change: copy the previous edition's adjacency verbatim.
	editionID := uuid.New()

	propsJSON, err := json.Marshal(nonNilProperties(req.Properties))
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshalling entity properties: %w", err)
	}

	provenance, _ := json.Marshal(map[string]any{"actor_id": actorID}) //nolint:errcheck // static keys, cannot fail.

	_, err = tx.Exec(ctx,
		`INSERT INTO entity_editions (entity_edition_id, properties, archived, provenance)
		 VALUES ($1, $2, $3, $4)`,
		editionID, propsJSON, archived, provenance,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting entity edition: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO entity_is_of_type (entity_edition_id, entity_type_ontology_id, inheritance_depth)
		 SELECT $1, entity_type_ontology_id, inheritance_depth
		 FROM entity_is_of_type WHERE entity_edition_id = $2`,
		editionID, previous.editionID,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("copying type adjacency: %w", err)
	}

	return editionID, nil
}

func nonNilProperties(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}

	return props
}

func draftIDParam(id models.EntityID) *uuid.UUID {
	if !id.IsDraft() {
		return nil
	}

	d := id.DraftID

	return &d
}

// PromoteDraft publishes a draft lineage as the canonical one: the
// open canonical row (if any) and the draft's open row are both closed,
// and the draft's current edition is reinserted without a draft ID.
func (s *EntityStore) PromoteDraft(ctx context.Context, actorID uuid.UUID, id models.EntityID) (*models.Entity, error) {
	if !id.IsDraft() {
		return nil, fmt.Errorf("%w: promote requires a draft id", models.ErrMissingEntityID)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	decision, err := s.Authz.CheckEntities(ctx, actorID, authz.PermissionUpdate,
		[]uuid.UUID{id.EntityUUID}, authz.FullyConsistent())
	if err != nil {
		return nil, fmt.Errorf("checking promote permission: %w", err)
	}

	if !decision.Permitted[id.EntityUUID] {
		return nil, models.ErrPermissionDenied
	}

	now := time.Now().UTC()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("promoting draft: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	// Close the draft's open row, keeping its decision span.
	var (
		editionID     uuid.UUID
		decisionStart time.Time
	)
	err = tx.QueryRow(ctx,
		`UPDATE entity_temporal_metadata
		 SET transaction_time = tstzrange(lower(transaction_time), $4, '[)')
		 WHERE web_id = $1 AND entity_uuid = $2 AND draft_id = $3
		   AND upper_inf(transaction_time)
		 RETURNING entity_edition_id, lower(decision_time)`,
		id.WebID, id.EntityUUID, id.DraftID, now,
	).Scan(&editionID, &decisionStart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrEntityNotFound
		}

		return nil, fmt.Errorf("closing draft pointer row: %w", err)
	}

	// Close the canonical open row; a draft of a brand-new entity has none.
	_, err = tx.Exec(ctx,
		`UPDATE entity_temporal_metadata
		 SET transaction_time = tstzrange(lower(transaction_time), $3, '[)')
		 WHERE web_id = $1 AND entity_uuid = $2 AND draft_id IS NULL
		   AND upper_inf(transaction_time)`,
		id.WebID, id.EntityUUID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("closing canonical pointer row: %w", err)
	}

	newDecision := temporal.NewInterval(temporal.Inclusive(decisionStart.UTC()), temporal.Unbounded())
	newTransaction := temporal.NewInterval(temporal.Inclusive(now), temporal.Unbounded())

	_, err = tx.Exec(ctx,
		`INSERT INTO entity_temporal_metadata
		 (web_id, entity_uuid, draft_id, entity_edition_id, decision_time, transaction_time)
		 VALUES ($1, $2, NULL, $3, $4::tstzrange, $5::tstzrange)`,
		id.WebID, id.EntityUUID, editionID,
		newDecision.PostgresRange(), newTransaction.PostgresRange(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting promoted pointer row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing promote draft: %w", err)
	}

	promoted := &models.Entity{
		ID:        models.EntityID{WebID: id.WebID, EntityUUID: id.EntityUUID},
		EditionID: editionID,
		Temporal: models.EntityTemporalMetadata{
			DecisionTime:    newDecision,
			TransactionTime: newTransaction,
		},
	}

	if err := hydrateEntities(ctx, s.Pool, []*models.Entity{promoted}); err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"web_id":      id.WebID,
		"entity_uuid": id.EntityUUID,
		"draft_id":    id.DraftID,
	}).Info("draft promoted")

	s.notify("entity.updated", id.WebID.String(), map[string]any{"entity_uuid": id.EntityUUID.String()})

	return promoted, nil
}
