package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/authz"
	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/store"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// mockGraphStore records calls and returns configured responses.
type mockGraphStore struct {
	mu    sync.Mutex
	calls []string

	readLinkEdges         func(ctx context.Context, kind models.KnowledgeGraphEdgeKind, direction models.EdgeDirection, axes temporal.QueryTemporalAxes, sources []models.EntityID) ([]store.LinkEdge, error)
	readIsOfTypeEdges     func(ctx context.Context, axes temporal.QueryTemporalAxes, editionIDs []uuid.UUID) ([]store.IsOfTypeEdge, error)
	readInheritsFromEdges func(ctx context.Context, axes temporal.QueryTemporalAxes, ontologyIDs []uuid.UUID) ([]store.InheritsFromEdge, error)
	hydrateEntities       func(ctx context.Context, entities []*models.Entity) error
}

func (m *mockGraphStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockGraphStore) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}

	return n
}

func (m *mockGraphStore) ReadLinkEdges(ctx context.Context, kind models.KnowledgeGraphEdgeKind, direction models.EdgeDirection, axes temporal.QueryTemporalAxes, sources []models.EntityID) ([]store.LinkEdge, error) {
	m.record("ReadLinkEdges")
	if m.readLinkEdges == nil {
		return nil, nil
	}
	return m.readLinkEdges(ctx, kind, direction, axes, sources)
}

func (m *mockGraphStore) ReadIsOfTypeEdges(ctx context.Context, axes temporal.QueryTemporalAxes, editionIDs []uuid.UUID) ([]store.IsOfTypeEdge, error) {
	m.record("ReadIsOfTypeEdges")
	if m.readIsOfTypeEdges == nil {
		return nil, nil
	}
	return m.readIsOfTypeEdges(ctx, axes, editionIDs)
}

func (m *mockGraphStore) ReadInheritsFromEdges(ctx context.Context, axes temporal.QueryTemporalAxes, ontologyIDs []uuid.UUID) ([]store.InheritsFromEdge, error) {
	m.record("ReadInheritsFromEdges")
	if m.readInheritsFromEdges == nil {
		return nil, nil
	}
	return m.readInheritsFromEdges(ctx, axes, ontologyIDs)
}

func (m *mockGraphStore) HydrateEntities(ctx context.Context, entities []*models.Entity) error {
	m.record("HydrateEntities")
	if m.hydrateEntities == nil {
		return nil
	}
	return m.hydrateEntities(ctx, entities)
}

// mockTypeLoader returns configured type payloads.
type mockTypeLoader struct {
	mu    sync.Mutex
	calls []string

	getEntityTypesByOntologyIDs func(ctx context.Context, ontologyIDs []uuid.UUID, axes temporal.QueryTemporalAxes) ([]*models.EntityType, error)
}

func (m *mockTypeLoader) GetEntityTypesByOntologyIDs(ctx context.Context, ontologyIDs []uuid.UUID, axes temporal.QueryTemporalAxes) ([]*models.EntityType, error) {
	m.mu.Lock()
	m.calls = append(m.calls, "GetEntityTypesByOntologyIDs")
	m.mu.Unlock()

	if m.getEntityTypesByOntologyIDs == nil {
		return nil, nil
	}
	return m.getEntityTypesByOntologyIDs(ctx, ontologyIDs, axes)
}

// mockOracle answers permission checks from a configured denial set
// and records the consistency tokens it saw.
type mockOracle struct {
	mu         sync.Mutex
	checks     int
	seenTokens []string

	denyEntities map[uuid.UUID]bool
	denyTypes    map[uuid.UUID]bool
	token        string
	err          error
}

func (m *mockOracle) decide(ids []uuid.UUID, deny map[uuid.UUID]bool, at authz.Consistency) (*authz.Decision, error) {
	m.mu.Lock()
	m.checks++
	m.seenTokens = append(m.seenTokens, at.Token)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	permitted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		permitted[id] = !deny[id]
	}

	token := m.token
	if token == "" {
		token = "snapshot-1"
	}

	return &authz.Decision{Permitted: permitted, At: authz.AtToken(token)}, nil
}

func (m *mockOracle) CheckEntities(_ context.Context, _ uuid.UUID, _ authz.Permission, entityUUIDs []uuid.UUID, at authz.Consistency) (*authz.Decision, error) {
	return m.decide(entityUUIDs, m.denyEntities, at)
}

func (m *mockOracle) CheckEntityTypes(_ context.Context, _ uuid.UUID, _ authz.Permission, typeIDs []uuid.UUID, at authz.Consistency) (*authz.Decision, error) {
	return m.decide(typeIDs, m.denyTypes, at)
}

func (m *mockOracle) ModifyRelations(_ context.Context, _ []authz.RelationOp) (authz.Consistency, error) {
	return authz.FullyConsistent(), m.err
}

// mockEntityQueryStore returns configured root reads.
type mockEntityQueryStore struct {
	queryEntities func(ctx context.Context, params store.QueryEntitiesParams) (*store.QueryEntitiesResult, error)
	getEntity     func(ctx context.Context, id models.EntityID, axes temporal.QueryTemporalAxes) (*models.Entity, error)
}

func (m *mockEntityQueryStore) QueryEntities(ctx context.Context, params store.QueryEntitiesParams) (*store.QueryEntitiesResult, error) {
	if m.queryEntities == nil {
		return &store.QueryEntitiesResult{}, nil
	}
	return m.queryEntities(ctx, params)
}

func (m *mockEntityQueryStore) GetEntity(ctx context.Context, id models.EntityID, axes temporal.QueryTemporalAxes) (*models.Entity, error) {
	if m.getEntity == nil {
		return nil, models.ErrEntityNotFound
	}
	return m.getEntity(ctx, id, axes)
}

// mockEntityTypeQueryStore returns configured type root reads.
type mockEntityTypeQueryStore struct {
	queryEntityTypes func(ctx context.Context, params store.QueryEntityTypesParams) (*store.QueryEntityTypesResult, error)
}

func (m *mockEntityTypeQueryStore) QueryEntityTypes(ctx context.Context, params store.QueryEntityTypesParams) (*store.QueryEntityTypesResult, error) {
	if m.queryEntityTypes == nil {
		return &store.QueryEntityTypesResult{}, nil
	}
	return m.queryEntityTypes(ctx, params)
}

// mockEntityStore records mutation calls.
type mockEntityStore struct {
	mu    sync.Mutex
	calls []string

	createEntity func(ctx context.Context, actorID uuid.UUID, req models.CreateEntityRequest) (*models.Entity, error)
	updateEntity func(ctx context.Context, actorID uuid.UUID, req models.UpdateEntityRequest) (*models.Entity, error)
	promoteDraft func(ctx context.Context, actorID uuid.UUID, id models.EntityID) (*models.Entity, error)
}

func (m *mockEntityStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockEntityStore) CreateEntity(ctx context.Context, actorID uuid.UUID, req models.CreateEntityRequest) (*models.Entity, error) {
	m.record("CreateEntity")
	return m.createEntity(ctx, actorID, req)
}

func (m *mockEntityStore) UpdateEntity(ctx context.Context, actorID uuid.UUID, req models.UpdateEntityRequest) (*models.Entity, error) {
	m.record("UpdateEntity")
	return m.updateEntity(ctx, actorID, req)
}

func (m *mockEntityStore) PromoteDraft(ctx context.Context, actorID uuid.UUID, id models.EntityID) (*models.Entity, error) {
	m.record("PromoteDraft")
	return m.promoteDraft(ctx, actorID, id)
}

// mockEmbeddingStore records reset calls.
type mockEmbeddingStore struct {
	mu     sync.Mutex
	resets []uuid.UUID

	resetErr error
}

func (m *mockEmbeddingStore) ResetEntityEmbeddings(_ context.Context, _ uuid.UUID, entityUUID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, entityUUID)
	return m.resetErr
}

// testEntity builds a resolved entity record with open-ended intervals
// starting at start.
func testEntity(webID uuid.UUID, start time.Time) *models.Entity {
	return &models.Entity{
		ID:        models.EntityID{WebID: webID, EntityUUID: uuid.New()},
		EditionID: uuid.New(),
		Temporal: models.EntityTemporalMetadata{
			DecisionTime:    temporal.Interval{Start: temporal.Inclusive(start), End: temporal.Unbounded()},
			TransactionTime: temporal.Interval{Start: temporal.Inclusive(start), End: temporal.Unbounded()},
		},
	}
}
