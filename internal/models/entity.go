package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/temporal"
)

const maxPropertiesBytes = 65536

// LinkData marks an entity as a link between two other entities.
type LinkData struct {
	LeftEntityID  EntityID `json:"left_entity_id"`
	RightEntityID EntityID `json:"right_entity_id"`
}

// EntityTemporalMetadata carries the two versioning intervals of one
// entity edition row. Both are left-closed/right-open.
type EntityTemporalMetadata struct {
	DecisionTime    temporal.Interval `json:"decision_time"`
	TransactionTime temporal.Interval `json:"transaction_time"`
}

// Entity is the current view of one entity edition: identity, the
// edition snapshot, and its bitemporal metadata.
type Entity struct {
	ID            EntityID               `json:"id"`
	EditionID     uuid.UUID              `json:"edition_id"`
	EntityTypeIDs []VersionedURL         `json:"entity_type_ids"`
	Properties    map[string]any         `json:"properties"`
	LinkData      *LinkData              `json:"link_data,omitempty"`
	Archived      bool                   `json:"archived"`
	Temporal      EntityTemporalMetadata `json:"temporal"`
}

// CreateEntityRequest is the payload for creating an entity. The
// entity UUID is auto-generated when omitted.
type CreateEntityRequest struct {
	WebID         uuid.UUID      `json:"web_id"`
	EntityUUID    uuid.UUID      `json:"entity_uuid,omitzero"`
	EntityTypeIDs []VersionedURL `json:"entity_type_ids"`
	Properties    map[string]any `json:"properties,omitempty"`
	LinkData      *LinkData      `json:"link_data,omitempty"`
	Draft         bool           `json:"draft"`
	DecisionTime  *time.Time     `json:"decision_time,omitempty"`
}

// Validate checks required fields on CreateEntityRequest and fills in
// a generated entity UUID when missing.
func (r *CreateEntityRequest) Validate() error {
	if r.WebID == uuid.Nil {
		return ErrMissingWebID
	}

	if r.EntityUUID == uuid.Nil {
		r.EntityUUID = uuid.New()
	}

	if len(r.EntityTypeIDs) == 0 {
		return ErrMissingEntityType
	}

	for _, url := range r.EntityTypeIDs {
		if err := url.Validate(); err != nil {
			return fmt.Errorf("entity type id: %w", err)
		}
	}

	if err := validateProperties(r.Properties); err != nil {
		return err
	}

	if r.LinkData != nil {
		if r.LinkData.LeftEntityID.EntityUUID == uuid.Nil || r.LinkData.RightEntityID.EntityUUID == uuid.Nil {
			return errors.New("link data requires both left and right entity ids")
		}
	}

	return nil
}

// UpdateEntityRequest is the payload for appending a new edition to an
// existing entity. The previous edition's decision interval is closed
// at the supplied decision time (defaulting to now).
type UpdateEntityRequest struct {
	EntityID      EntityID       `json:"entity_id"`
	EntityTypeIDs []VersionedURL `json:"entity_type_ids,omitempty"`
	Properties    map[string]any `json:"properties"`
	Archived      *bool          `json:"archived,omitempty"`
	DecisionTime  *time.Time     `json:"decision_time,omitempty"`
}

// Validate checks UpdateEntityRequest fields.
func (r *UpdateEntityRequest) Validate() error {
	if r.EntityID.WebID == uuid.Nil || r.EntityID.EntityUUID == uuid.Nil {
		return ErrMissingEntityID
	}

	for _, url := range r.EntityTypeIDs {
		if err := url.Validate(); err != nil {
			return fmt.Errorf("entity type id: %w", err)
		}
	}

	return validateProperties(r.Properties)
}

func validateProperties(properties map[string]any) error {
	if properties == nil {
		return nil
	}

	data, err := json.Marshal(properties)
	if err != nil {
		return fmt.Errorf("invalid properties: %w", err)
	}

	if len(data) > maxPropertiesBytes {
		return ErrFieldTooLong("properties", maxPropertiesBytes)
	}

	return nil
}
