// Package authz talks to the external permission store. Relationship
// writes there are not transactional with PostgreSQL, so mutation
// workflows compensate on partial failure.
package authz

import (
	"context"

	"github.com/google/uuid"
)

// Permission names an action an actor can hold on a resource.
type Permission string

// Permissions checked by the query and mutation paths.
const (
	PermissionView        Permission = "view"
	PermissionUpdate      Permission = "update"
	PermissionInstantiate Permission = "instantiate"
)

// Consistency pins permission checks to a snapshot of the relationship
// store. A zero token requests full consistency; checks return the token
// they were evaluated at so later checks in the same traversal can reuse it.
type Consistency struct {
	Token string
}

// AtToken pins to a previously returned snapshot token.
func AtToken(token string) Consistency { return Consistency{Token: token} }

// FullyConsistent requests evaluation against the latest relationship state.
func FullyConsistent() Consistency { return Consistency{} }

// RelationOp is one relationship write: create or delete one
// (resource, relation, subject) tuple.
type RelationOp struct {
	Op         string    `json:"op"` // "create" or "delete"
	ResourceID uuid.UUID `json:"resource_id"`
	Relation   string    `json:"relation"`
	SubjectID  uuid.UUID `json:"subject_id"`
}

// Invert returns the compensating operation.
func (o RelationOp) Invert() RelationOp {
	inverted := o
	if o.Op == "create" {
		inverted.Op = "delete"
	} else {
		inverted.Op = "create"
	}

	return inverted
}

// Decision is a batched check result. Resources absent from Permitted were
// unknown to the permission store; callers decide the default.
type Decision struct {
	Permitted map[uuid.UUID]bool
	At        Consistency
}

// Oracle answers batched permission checks and applies relationship writes.
type Oracle interface {
	// CheckEntities reports, for each entity UUID, whether the actor holds
	// the permission, evaluated at the given consistency snapshot.
	CheckEntities(ctx context.Context, actorID uuid.UUID, permission Permission, entityUUIDs []uuid.UUID, at Consistency) (*Decision, error)

	// CheckEntityTypes is CheckEntities for ontology type records.
	CheckEntityTypes(ctx context.Context, actorID uuid.UUID, permission Permission, typeIDs []uuid.UUID, at Consistency) (*Decision, error)

	// ModifyRelations applies relationship writes atomically on the
	// permission store's side. The returned token can pin later checks to
	// a state that includes these writes.
	ModifyRelations(ctx context.Context, ops []RelationOp) (Consistency, error)
}
