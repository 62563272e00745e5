package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/models"
)

// EmbeddingStore persists vector embeddings for entities and entity
// types. Writes carry the temporal position of the edition they were
// computed from; a write older than the stored row is dropped instead
// of clobbering a fresher embedding.
type EmbeddingStore struct {
	Base
}

// NewEmbeddingStore creates a new EmbeddingStore.
func NewEmbeddingStore(base Base) *EmbeddingStore {
	return &EmbeddingStore{Base: base}
}

// UpsertEntityEmbedding writes one embedding row for an entity
// property (nil property means the whole-entity embedding). It
// reports whether the row was written; false means a fresher embedding
// was already stored.
func (s *EmbeddingStore) UpsertEntityEmbedding(ctx context.Context, id models.EntityID, property *string, embedding []float32, updatedAtTransaction, updatedAtDecision time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx,
		`INSERT INTO entity_embeddings
		 (web_id, entity_uuid, property, embedding, updated_at_transaction_time, updated_at_decision_time)
		 VALUES ($1, $2, $3, $4::vector, $5, $6)
		 ON CONFLICT (web_id, entity_uuid, COALESCE(property, ''))
		 DO UPDATE SET
		   embedding = EXCLUDED.embedding,
		   updated_at_transaction_time = EXCLUDED.updated_at_transaction_time,
		   updated_at_decision_time = EXCLUDED.updated_at_decision_time
		 WHERE entity_embeddings.updated_at_transaction_time <= EXCLUDED.updated_at_transaction_time`,
		id.WebID, id.EntityUUID, property, formatEmbedding(embedding),
		updatedAtTransaction.UTC(), updatedAtDecision.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("upserting entity embedding: %w", err)
	}

	if tag.RowsAffected() == 0 {
		s.Log.WithField("entity_uuid", id.EntityUUID).Debug("dropping stale entity embedding")

		return false, nil
	}

	return true, nil
}

// ResetEntityEmbeddings deletes all embedding rows of one entity.
func (s *EmbeddingStore) ResetEntityEmbeddings(ctx context.Context, webID, entityUUID uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.Pool.Exec(ctx,
		`DELETE FROM entity_embeddings WHERE web_id = $1 AND entity_uuid = $2`,
		webID, entityUUID,
	)
	if err != nil {
		return fmt.Errorf("resetting entity embeddings: %w", err)
	}

	return nil
}

// UpsertEntityTypeEmbedding writes the embedding of one type version,
// subject to the same staleness guard as entity embeddings.
func (s *EmbeddingStore) UpsertEntityTypeEmbedding(ctx context.Context, url models.VersionedURL, embedding []float32, updatedAtTransaction time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx,
		`INSERT INTO entity_type_embeddings (ontology_id, embedding, updated_at_transaction_time)
		 VALUES ($1, $2::vector, $3)
		 ON CONFLICT (ontology_id)
		 DO UPDATE SET
		   embedding = EXCLUDED.embedding,
		   updated_at_transaction_time = EXCLUDED.updated_at_transaction_time
		 WHERE entity_type_embeddings.updated_at_transaction_time <= EXCLUDED.updated_at_transaction_time`,
		models.OntologyTypeUUID(url), formatEmbedding(embedding), updatedAtTransaction.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("upserting entity type embedding: %w", err)
	}

	if tag.RowsAffected() == 0 {
		s.Log.WithField("url", url.String()).Debug("dropping stale entity type embedding")

		return false, nil
	}

	return true, nil
}

// ResetEntityTypeEmbedding deletes the embedding of one type version.
func (s *EmbeddingStore) ResetEntityTypeEmbedding(ctx context.Context, url models.VersionedURL) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.Pool.Exec(ctx,
		`DELETE FROM entity_type_embeddings WHERE ontology_id = $1`,
		models.OntologyTypeUUID(url),
	)
	if err != nil {
		return fmt.Errorf("resetting entity type embedding: %w", err)
	}

	return nil
}
