// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/domain"
	"github.com/epochgraph/epochgraph/internal/models"
)

// EntityStore is the data-access interface EntityService depends on.
type EntityStore interface {
	CreateEntity(ctx context.Context, actorID uuid.UUID, req models.CreateEntityRequest) (*models.Entity, error)
	UpdateEntity(ctx context.Context, actorID uuid.UUID, req models.UpdateEntityRequest) (*models.Entity, error)
	PromoteDraft(ctx context.Context, actorID uuid.UUID, id models.EntityID) (*models.Entity, error)
}

// EmbeddingResetter invalidates stored embeddings for an entity whose
// properties changed.
type EmbeddingResetter interface {
	ResetEntityEmbeddings(ctx context.Context, webID, entityUUID uuid.UUID) error
}

// Compile-time check: *EntityService must satisfy domain.EntityService.
var _ domain.EntityService = (*EntityService)(nil)

// EntityService wraps EntityStore with embedding invalidation on
// property changes.
type EntityService struct {
	store      EntityStore
	embeddings EmbeddingResetter
	log        *logrus.Logger
}

// NewEntityService creates an EntityService.
func NewEntityService(store EntityStore, embeddings EmbeddingResetter, log *logrus.Logger) *EntityService {
	return &EntityService{store: store, embeddings: embeddings, log: log}
}

// CreateEntity creates a new entity (pass-through).
func (s *EntityService) CreateEntity(ctx context.Context, actorID uuid.UUID, req models.CreateEntityRequest) (*models.Entity, error) {
	s.log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"web_id":   req.WebID,
		"draft":    req.Draft,
	}).Debug("entity.create")

	return s.store.CreateEntity(ctx, actorID, req)
}

// UpdateEntity appends a new edition and invalidates any stored
// embeddings computed against the previous one.
func (s *EntityService) UpdateEntity(ctx context.Context, actorID uuid.UUID, req models.UpdateEntityRequest) (*models.Entity, error) {
	s.log.WithFields(logrus.Fields{
		"actor_id":  actorID,
		"entity_id": req.EntityID,
	}).Debug("entity.update")

	entity, err := s.store.UpdateEntity(ctx, actorID, req)
	if err != nil {
		return nil, err
	}

	if s.embeddings != nil {
		if err := s.embeddings.ResetEntityEmbeddings(ctx, entity.ID.WebID, entity.ID.EntityUUID); err != nil {
			// The entity update already committed; stale vectors lose on
			// their timestamp guard anyway.
			s.log.WithError(err).WithField("entity_id", entity.ID).Warn("Failed to reset embeddings after update")
		}
	}

	return entity, nil
}

// PromoteDraft publishes a draft lineage as the canonical one.
func (s *EntityService) PromoteDraft(ctx context.Context, actorID uuid.UUID, id models.EntityID) (*models.Entity, error) {
	s.log.WithFields(logrus.Fields{
		"actor_id":  actorID,
		"entity_id": id,
	}).Debug("entity.promote_draft")

	return s.store.PromoteDraft(ctx, actorID, id)
}
