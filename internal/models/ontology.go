package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/temporal"
)

const maxSchemaBytes = 262144

// OntologyTemporalMetadata carries the single versioning interval of
// an ontology type row. Types are versioned on transaction time only;
// their decision semantics live in the version number.
type OntologyTemporalMetadata struct {
	TransactionTime temporal.Interval `json:"transaction_time"`
}

// EntityTypeMetadata describes one stored entity type version.
type EntityTypeMetadata struct {
	OntologyID uuid.UUID                `json:"ontology_id"`
	URL        VersionedURL             `json:"url"`
	WebID      uuid.UUID                `json:"web_id,omitzero"`
	Temporal   OntologyTemporalMetadata `json:"temporal"`
}

// EntityType pairs a type schema document with its storage metadata.
type EntityType struct {
	Schema   map[string]any     `json:"schema"`
	Metadata EntityTypeMetadata `json:"metadata"`
}

// CreateEntityTypeRequest is the payload for registering a new entity
// type version. InheritsFrom lists direct parents; the transitive
// closure is materialized by the store.
type CreateEntityTypeRequest struct {
	WebID        uuid.UUID      `json:"web_id"`
	URL          VersionedURL   `json:"url"`
	Schema       map[string]any `json:"schema"`
	InheritsFrom []VersionedURL `json:"inherits_from,omitempty"`
}

// Validate checks required fields on CreateEntityTypeRequest.
func (r *CreateEntityTypeRequest) Validate() error {
	if r.WebID == uuid.Nil {
		return ErrMissingWebID
	}

	if err := r.URL.Validate(); err != nil {
		return err
	}

	if r.Schema == nil {
		return ErrMissingSchema
	}

	data, err := json.Marshal(r.Schema)
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	if len(data) > maxSchemaBytes {
		return ErrFieldTooLong("schema", maxSchemaBytes)
	}

	for _, parent := range r.InheritsFrom {
		if err := parent.Validate(); err != nil {
			return fmt.Errorf("inherits from: %w", err)
		}
	}

	return nil
}

// ArchiveEntityTypeRequest closes the open transaction-time interval
// of one entity type version.
type ArchiveEntityTypeRequest struct {
	URL VersionedURL `json:"url"`
}

// Validate checks ArchiveEntityTypeRequest fields.
func (r *ArchiveEntityTypeRequest) Validate() error {
	return r.URL.Validate()
}
