package api_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// mockEntityRepo implements api.EntityRepository for testing.
type mockEntityRepo struct {
	createFn  func(ctx context.Context, actorID uuid.UUID, req models.CreateEntityRequest) (*models.Entity, error)
	updateFn  func(ctx context.Context, actorID uuid.UUID, req models.UpdateEntityRequest) (*models.Entity, error)
	promoteFn func(ctx context.Context, actorID uuid.UUID, id models.EntityID) (*models.Entity, error)
}

func (m *mockEntityRepo) CreateEntity(ctx context.Context, actorID uuid.UUID, req models.CreateEntityRequest) (*models.Entity, error) {
	return m.createFn(ctx, actorID, req)
}

func (m *mockEntityRepo) UpdateEntity(ctx context.Context, actorID uuid.UUID, req models.UpdateEntityRequest) (*models.Entity, error) {
	return m.updateFn(ctx, actorID, req)
}

func (m *mockEntityRepo) PromoteDraft(ctx context.Context, actorID uuid.UUID, id models.EntityID) (*models.Entity, error) {
	return m.promoteFn(ctx, actorID, id)
}

// mockOntologyRepo implements api.OntologyRepository for testing.
type mockOntologyRepo struct {
	createFn  func(ctx context.Context, actorID uuid.UUID, req models.CreateEntityTypeRequest) (*models.EntityType, error)
	archiveFn func(ctx context.Context, actorID uuid.UUID, req models.ArchiveEntityTypeRequest) error
	getFn     func(ctx context.Context, url models.VersionedURL, axes temporal.QueryTemporalAxes) (*models.EntityType, error)
}

func (m *mockOntologyRepo) CreateEntityType(ctx context.Context, actorID uuid.UUID, req models.CreateEntityTypeRequest) (*models.EntityType, error) {
	return m.createFn(ctx, actorID, req)
}

func (m *mockOntologyRepo) ArchiveEntityType(ctx context.Context, actorID uuid.UUID, req models.ArchiveEntityTypeRequest) error {
	return m.archiveFn(ctx, actorID, req)
}

func (m *mockOntologyRepo) GetEntityTypeByURL(ctx context.Context, url models.VersionedURL, axes temporal.QueryTemporalAxes) (*models.EntityType, error) {
	return m.getFn(ctx, url, axes)
}

// mockQueryRepo implements api.QueryRepository for testing.
type mockQueryRepo struct {
	queryEntitiesFn func(ctx context.Context, actorID uuid.UUID, req models.QueryEntitiesRequest) (*models.Subgraph, error)
	queryTypesFn    func(ctx context.Context, actorID uuid.UUID, req models.QueryEntityTypesRequest) (*models.Subgraph, error)
	getFn           func(ctx context.Context, actorID uuid.UUID, id models.EntityID, axes temporal.QueryTemporalAxes) (*models.Entity, error)
}

func (m *mockQueryRepo) QueryEntitySubgraph(ctx context.Context, actorID uuid.UUID, req models.QueryEntitiesRequest) (*models.Subgraph, error) {
	return m.queryEntitiesFn(ctx, actorID, req)
}

func (m *mockQueryRepo) QueryEntityTypeSubgraph(ctx context.Context, actorID uuid.UUID, req models.QueryEntityTypesRequest) (*models.Subgraph, error) {
	return m.queryTypesFn(ctx, actorID, req)
}

func (m *mockQueryRepo) GetEntity(ctx context.Context, actorID uuid.UUID, id models.EntityID, axes temporal.QueryTemporalAxes) (*models.Entity, error) {
	return m.getFn(ctx, actorID, id, axes)
}

// mockWebRepo implements api.WebRepository for testing.
type mockWebRepo struct {
	createFn        func(ctx context.Context, actorID uuid.UUID, req models.CreateWebRequest) (*models.Web, error)
	getFn           func(ctx context.Context, shortname string) (*models.Web, error)
	createAccountFn func(ctx context.Context, webID uuid.UUID) (*models.Account, error)
}

func (m *mockWebRepo) CreateWeb(ctx context.Context, actorID uuid.UUID, req models.CreateWebRequest) (*models.Web, error) {
	return m.createFn(ctx, actorID, req)
}

func (m *mockWebRepo) GetWebByShortname(ctx context.Context, shortname string) (*models.Web, error) {
	return m.getFn(ctx, shortname)
}

func (m *mockWebRepo) CreateAccount(ctx context.Context, webID uuid.UUID) (*models.Account, error) {
	return m.createAccountFn(ctx, webID)
}

// mockEmbeddingRepo implements api.EmbeddingRepository for testing.
type mockEmbeddingRepo struct {
	entityFn func(ctx context.Context, actorID uuid.UUID, req models.UpsertEntityEmbeddingRequest) error
	typeFn   func(ctx context.Context, actorID uuid.UUID, req models.UpsertEntityTypeEmbeddingRequest) error
}

func (m *mockEmbeddingRepo) UpsertEntityEmbedding(ctx context.Context, actorID uuid.UUID, req models.UpsertEntityEmbeddingRequest) error {
	return m.entityFn(ctx, actorID, req)
}

func (m *mockEmbeddingRepo) UpsertEntityTypeEmbedding(ctx context.Context, actorID uuid.UUID, req models.UpsertEntityTypeEmbeddingRequest) error {
	return m.typeFn(ctx, actorID, req)
}
