package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrMissingEmbedding indicates an upsert without a vector.
var ErrMissingEmbedding = errors.New("embedding vector is required")

// UpsertEntityEmbeddingRequest stores one externally computed entity
// embedding. Property scopes the vector to a single property value;
// nil means the whole entity. The updated-at instants come from the
// entity edition the vector was computed against, so stale workers
// lose the write.
type UpsertEntityEmbeddingRequest struct {
	EntityID             EntityID   `json:"entity_id"`
	Property             *string    `json:"property,omitempty"`
	Embedding            []float32  `json:"embedding"`
	UpdatedAtTransaction time.Time  `json:"updated_at_transaction_time"`
	UpdatedAtDecision    time.Time  `json:"updated_at_decision_time"`
	Reset                bool       `json:"reset"`
}

// Validate checks required fields on UpsertEntityEmbeddingRequest.
func (r *UpsertEntityEmbeddingRequest) Validate() error {
	if r.EntityID.WebID == uuid.Nil || r.EntityID.EntityUUID == uuid.Nil {
		return ErrMissingEntityID
	}

	if !r.Reset && len(r.Embedding) == 0 {
		return ErrMissingEmbedding
	}

	return nil
}

// UpsertEntityTypeEmbeddingRequest stores one externally computed
// entity-type embedding.
type UpsertEntityTypeEmbeddingRequest struct {
	URL                  VersionedURL `json:"url"`
	Embedding            []float32    `json:"embedding"`
	UpdatedAtTransaction time.Time    `json:"updated_at_transaction_time"`
	Reset                bool         `json:"reset"`
}

// Validate checks required fields on UpsertEntityTypeEmbeddingRequest.
func (r *UpsertEntityTypeEmbeddingRequest) Validate() error {
	if err := r.URL.Validate(); err != nil {
		return err
	}

	if !r.Reset && len(r.Embedding) == 0 {
		return ErrMissingEmbedding
	}

	return nil
}
