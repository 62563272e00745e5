// Package domain defines the canonical service interfaces shared across
// API layers (REST, websocket, client). Consumers should depend on these
// interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// EntityService defines all entity mutation operations.
type EntityService interface {
	CreateEntity(ctx context.Context, actorID uuid.UUID, req models.CreateEntityRequest) (*models.Entity, error)
	UpdateEntity(ctx context.Context, actorID uuid.UUID, req models.UpdateEntityRequest) (*models.Entity, error)
	PromoteDraft(ctx context.Context, actorID uuid.UUID, id models.EntityID) (*models.Entity, error)
}

// OntologyService defines all entity-type operations.
type OntologyService interface {
	CreateEntityType(ctx context.Context, actorID uuid.UUID, req models.CreateEntityTypeRequest) (*models.EntityType, error)
	ArchiveEntityType(ctx context.Context, actorID uuid.UUID, req models.ArchiveEntityTypeRequest) error
	GetEntityTypeByURL(ctx context.Context, url models.VersionedURL, axes temporal.QueryTemporalAxes) (*models.EntityType, error)
}

// QueryService answers structural queries: filter, match, traverse,
// and return the resulting subgraph.
type QueryService interface {
	QueryEntitySubgraph(ctx context.Context, actorID uuid.UUID, req models.QueryEntitiesRequest) (*models.Subgraph, error)
	QueryEntityTypeSubgraph(ctx context.Context, actorID uuid.UUID, req models.QueryEntityTypesRequest) (*models.Subgraph, error)
	GetEntity(ctx context.Context, actorID uuid.UUID, id models.EntityID, axes temporal.QueryTemporalAxes) (*models.Entity, error)
}

// WebService defines web and account provisioning.
type WebService interface {
	CreateWeb(ctx context.Context, actorID uuid.UUID, req models.CreateWebRequest) (*models.Web, error)
	GetWebByShortname(ctx context.Context, shortname string) (*models.Web, error)
	CreateAccount(ctx context.Context, webID uuid.UUID) (*models.Account, error)
}

// EmbeddingService accepts externally computed embedding vectors.
type EmbeddingService interface {
	UpsertEntityEmbedding(ctx context.Context, actorID uuid.UUID, req models.UpsertEntityEmbeddingRequest) error
	UpsertEntityTypeEmbedding(ctx context.Context, actorID uuid.UUID, req models.UpsertEntityTypeEmbeddingRequest) error
}
