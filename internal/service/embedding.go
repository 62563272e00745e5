package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/domain"
	"github.com/epochgraph/epochgraph/internal/models"
)

// EmbeddingStore is the data-access interface EmbeddingService depends
// on. Upserts return false when a newer vector is already stored.
type EmbeddingStore interface {
	UpsertEntityEmbedding(ctx context.Context, id models.EntityID, property *string, embedding []float32, updatedAtTransaction, updatedAtDecision time.Time) (bool, error)
	ResetEntityEmbeddings(ctx context.Context, webID, entityUUID uuid.UUID) error
	UpsertEntityTypeEmbedding(ctx context.Context, url models.VersionedURL, embedding []float32, updatedAtTransaction time.Time) (bool, error)
	ResetEntityTypeEmbedding(ctx context.Context, url models.VersionedURL) error
}

// Compile-time check: *EmbeddingSvc must satisfy domain.EmbeddingService.
var _ domain.EmbeddingService = (*EmbeddingSvc)(nil)

// EmbeddingSvc accepts externally computed embedding vectors and
// passes them through the staleness guard in the store.
type EmbeddingSvc struct {
	store EmbeddingStore
	log   *logrus.Logger
}

// NewEmbeddingService creates an EmbeddingSvc.
func NewEmbeddingService(store EmbeddingStore, log *logrus.Logger) *EmbeddingSvc {
	return &EmbeddingSvc{store: store, log: log}
}

// UpsertEntityEmbedding stores one entity embedding, or clears all of
// the entity's vectors when the request asks for a reset.
func (s *EmbeddingSvc) UpsertEntityEmbedding(ctx context.Context, actorID uuid.UUID, req models.UpsertEntityEmbeddingRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if req.Reset {
		return s.store.ResetEntityEmbeddings(ctx, req.EntityID.WebID, req.EntityID.EntityUUID)
	}

	stored, err := s.store.UpsertEntityEmbedding(ctx, req.EntityID, req.Property, req.Embedding, req.UpdatedAtTransaction, req.UpdatedAtDecision)
	if err != nil {
		return err
	}

	if !stored {
		s.log.WithFields(logrus.Fields{
			"actor_id":  actorID,
			"entity_id": req.EntityID,
		}).Debug("embedding.entity_upsert_stale")
	}

	return nil
}

// UpsertEntityTypeEmbedding stores one entity-type embedding.
func (s *EmbeddingSvc) UpsertEntityTypeEmbedding(ctx context.Context, actorID uuid.UUID, req models.UpsertEntityTypeEmbeddingRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if req.Reset {
		return s.store.ResetEntityTypeEmbedding(ctx, req.URL)
	}

	stored, err := s.store.UpsertEntityTypeEmbedding(ctx, req.URL, req.Embedding, req.UpdatedAtTransaction)
	if err != nil {
		return err
	}

	if !stored {
		s.log.WithFields(logrus.Fields{
			"actor_id": actorID,
			"url":      req.URL,
		}).Debug("embedding.type_upsert_stale")
	}

	return nil
}
