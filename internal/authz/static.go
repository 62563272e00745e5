package authz

import (
	"context"

	"github.com/google/uuid"
)

// StaticOracle permits everything and swallows relationship writes.
// Intended for single-user deployments and tests; selected when no
// permission service URL is configured.
type StaticOracle struct{}

// NewStaticOracle creates an allow-all oracle.
func NewStaticOracle() *StaticOracle { return &StaticOracle{} }

// CheckEntities reports every entity as permitted.
func (o *StaticOracle) CheckEntities(_ context.Context, _ uuid.UUID, _ Permission, entityUUIDs []uuid.UUID, at Consistency) (*Decision, error) {
	return allowAll(entityUUIDs, at), nil
}

// CheckEntityTypes reports every type as permitted.
func (o *StaticOracle) CheckEntityTypes(_ context.Context, _ uuid.UUID, _ Permission, typeIDs []uuid.UUID, at Consistency) (*Decision, error) {
	return allowAll(typeIDs, at), nil
}

// ModifyRelations accepts and discards all relationship writes.
func (o *StaticOracle) ModifyRelations(_ context.Context, _ []RelationOp) (Consistency, error) {
	return Consistency{Token: "static"}, nil
}

func allowAll(ids []uuid.UUID, at Consistency) *Decision {
	permitted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		permitted[id] = true
	}

	if at.Token == "" {
		at.Token = "static"
	}

	return &Decision{Permitted: permitted, At: at}
}
