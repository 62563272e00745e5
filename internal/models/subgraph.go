package models

import (
	"fmt"
	"time"

	"github.com/epochgraph/epochgraph/internal/temporal"
)

// EdgeDirection distinguishes the two ways a link edge can be walked.
type EdgeDirection string

// Edge directions.
const (
	EdgeDirectionIncoming EdgeDirection = "incoming"
	EdgeDirectionOutgoing EdgeDirection = "outgoing"
)

// KnowledgeGraphEdgeKind names an edge between two entities.
type KnowledgeGraphEdgeKind string

// Knowledge-graph edge kinds. A link entity points at its left and
// right endpoints through these.
const (
	EdgeKindHasLeftEntity  KnowledgeGraphEdgeKind = "HAS_LEFT_ENTITY"
	EdgeKindHasRightEntity KnowledgeGraphEdgeKind = "HAS_RIGHT_ENTITY"
)

// SharedEdgeKind names an edge from an entity into the ontology.
type SharedEdgeKind string

// EdgeKindIsOfType is the only shared edge kind: entity to its type.
const EdgeKindIsOfType SharedEdgeKind = "IS_OF_TYPE"

// OntologyEdgeKind names an edge between two ontology types.
type OntologyEdgeKind string

// EdgeKindInheritsFrom is the entity-type inheritance edge.
const EdgeKindInheritsFrom OntologyEdgeKind = "INHERITS_FROM"

// OutgoingEdgeResolveDepth budgets an edge kind that is only ever
// walked outward.
type OutgoingEdgeResolveDepth struct {
	Outgoing uint8 `json:"outgoing"`
}

// EdgeResolveDepths budgets an edge kind per direction.
type EdgeResolveDepths struct {
	Incoming uint8 `json:"incoming"`
	Outgoing uint8 `json:"outgoing"`
}

// GraphResolveDepths is the per-edge-kind traversal budget. Each hop
// along an edge kind decrements its budget; a kind with zero budget is
// not expanded.
type GraphResolveDepths struct {
	InheritsFrom   OutgoingEdgeResolveDepth `json:"inherits_from"`
	IsOfType       OutgoingEdgeResolveDepth `json:"is_of_type"`
	HasLeftEntity  EdgeResolveDepths        `json:"has_left_entity"`
	HasRightEntity EdgeResolveDepths        `json:"has_right_entity"`
}

// IsZero reports whether every budget is exhausted.
func (d GraphResolveDepths) IsZero() bool {
	return d == GraphResolveDepths{}
}

// DecrementForLinkEdge returns a copy of the depths with the budget
// for the given link edge kind and direction decremented. The second
// return is false when that budget is already exhausted.
func (d GraphResolveDepths) DecrementForLinkEdge(kind KnowledgeGraphEdgeKind, direction EdgeDirection) (GraphResolveDepths, bool) {
	var budget *uint8

	switch kind {
	case EdgeKindHasLeftEntity:
		if direction == EdgeDirectionIncoming {
			budget = &d.HasLeftEntity.Incoming
		} else {
			budget = &d.HasLeftEntity.Outgoing
		}
	case EdgeKindHasRightEntity:
		if direction == EdgeDirectionIncoming {
			budget = &d.HasRightEntity.Incoming
		} else {
			budget = &d.HasRightEntity.Outgoing
		}
	default:
		return d, false
	}

	if *budget == 0 {
		return d, false
	}

	*budget--

	return d, true
}

// DecrementForIsOfType returns a copy of the depths with the is-of-type
// budget decremented, or false when exhausted.
func (d GraphResolveDepths) DecrementForIsOfType() (GraphResolveDepths, bool) {
	if d.IsOfType.Outgoing == 0 {
		return d, false
	}

	d.IsOfType.Outgoing--

	return d, true
}

// DecrementForInheritsFrom returns a copy of the depths with the
// inherits-from budget decremented, or false when exhausted.
func (d GraphResolveDepths) DecrementForInheritsFrom() (GraphResolveDepths, bool) {
	if d.InheritsFrom.Outgoing == 0 {
		return d, false
	}

	d.InheritsFrom.Outgoing--

	return d, true
}

// EntityVertexID addresses one entity revision in a subgraph: the
// entity identity plus the start instant of its variable-axis
// interval.
type EntityVertexID struct {
	BaseID     EntityID  `json:"base_id"`
	RevisionID time.Time `json:"revision_id"`
}

// MarshalText keys JSON maps as "<entity id>@<revision RFC3339>".
func (v EntityVertexID) MarshalText() ([]byte, error) {
	return []byte(v.BaseID.String() + "@" + v.RevisionID.UTC().Format(time.RFC3339Nano)), nil
}

// EntityTypeVertexID addresses one entity type version in a subgraph.
type EntityTypeVertexID struct {
	BaseID     string `json:"base_id"`
	RevisionID uint32 `json:"revision_id"`
}

// MarshalText keys JSON maps as the canonical versioned URL.
func (v EntityTypeVertexID) MarshalText() ([]byte, error) {
	return []byte(VersionedURL{BaseURL: v.BaseID, Version: v.RevisionID}.String()), nil
}

// KnowledgeGraphEdge records one traversed link edge between two
// entity vertices, with the validity interval it was observed under.
type KnowledgeGraphEdge struct {
	Source    EntityVertexID         `json:"source"`
	Kind      KnowledgeGraphEdgeKind `json:"kind"`
	Direction EdgeDirection          `json:"direction"`
	Target    EntityVertexID         `json:"target"`
	Interval  temporal.Interval      `json:"interval"`
}

// SharedEdge records one is-of-type edge from an entity vertex to an
// entity type vertex.
type SharedEdge struct {
	Source   EntityVertexID     `json:"source"`
	Target   EntityTypeVertexID `json:"target"`
	Interval temporal.Interval  `json:"interval"`
}

// OntologyEdge records one inherits-from edge between two entity type
// vertices.
type OntologyEdge struct {
	Source EntityTypeVertexID `json:"source"`
	Kind   OntologyEdgeKind   `json:"kind"`
	Target EntityTypeVertexID `json:"target"`
}

// SubgraphRoots lists the vertices the query matched directly, before
// any traversal.
type SubgraphRoots struct {
	Entities    []EntityVertexID     `json:"entities"`
	EntityTypes []EntityTypeVertexID `json:"entity_types"`
}

// Subgraph accumulates the result of a structural query: root vertex
// ids, resolved vertices, and the typed edges connecting them. It is
// the sole mutable state shared across traversal rounds and is not
// safe for concurrent use.
type Subgraph struct {
	Roots       SubgraphRoots                      `json:"roots"`
	Entities    map[EntityVertexID]*Entity         `json:"entities"`
	EntityTypes map[EntityTypeVertexID]*EntityType `json:"entity_types"`

	KnowledgeEdges []KnowledgeGraphEdge `json:"knowledge_edges"`
	SharedEdges    []SharedEdge         `json:"shared_edges"`
	OntologyEdges  []OntologyEdge       `json:"ontology_edges"`

	Depths   GraphResolveDepths         `json:"depths"`
	Temporal temporal.QueryTemporalAxes `json:"temporal_axes"`
	Cursor   string                     `json:"cursor,omitempty"`
	Count    *int                       `json:"count,omitempty"`

	knowledgeEdgeSet map[KnowledgeGraphEdge]struct{}
	sharedEdgeSet    map[SharedEdge]struct{}
	ontologyEdgeSet  map[OntologyEdge]struct{}
}

// NewSubgraph returns an empty subgraph for the given budget and axes.
func NewSubgraph(depths GraphResolveDepths, axes temporal.QueryTemporalAxes) *Subgraph {
	return &Subgraph{
		Entities:         make(map[EntityVertexID]*Entity),
		EntityTypes:      make(map[EntityTypeVertexID]*EntityType),
		Depths:           depths,
		Temporal:         axes,
		knowledgeEdgeSet: make(map[KnowledgeGraphEdge]struct{}),
		sharedEdgeSet:    make(map[SharedEdge]struct{}),
		ontologyEdgeSet:  make(map[OntologyEdge]struct{}),
	}
}

// EntityVertex derives the vertex ID of an entity from its identity
// and variable-axis interval start.
func EntityVertex(entity *Entity, variableAxis temporal.Axis) EntityVertexID {
	interval := entity.Temporal.DecisionTime
	if variableAxis == temporal.AxisTransactionTime {
		interval = entity.Temporal.TransactionTime
	}

	return EntityVertexID{BaseID: entity.ID, RevisionID: interval.Start.Limit}
}

// EntityTypeVertex derives the vertex ID of an entity type.
func EntityTypeVertex(entityType *EntityType) EntityTypeVertexID {
	return EntityTypeVertexID{
		BaseID:     entityType.Metadata.URL.BaseURL,
		RevisionID: entityType.Metadata.URL.Version,
	}
}

// InsertEntity adds an entity vertex, returning its ID. Re-inserting
// the same revision overwrites.
func (s *Subgraph) InsertEntity(entity *Entity) EntityVertexID {
	id := EntityVertex(entity, s.Temporal.Variable.Axis)
	s.Entities[id] = entity

	return id
}

// InsertEntityType adds an entity type vertex, returning its ID.
func (s *Subgraph) InsertEntityType(entityType *EntityType) EntityTypeVertexID {
	id := EntityTypeVertex(entityType)
	s.EntityTypes[id] = entityType

	return id
}

// AddKnowledgeEdge appends a link edge, skipping exact duplicates.
func (s *Subgraph) AddKnowledgeEdge(edge KnowledgeGraphEdge) {
	if _, ok := s.knowledgeEdgeSet[edge]; ok {
		return
	}

	s.knowledgeEdgeSet[edge] = struct{}{}
	s.KnowledgeEdges = append(s.KnowledgeEdges, edge)
}

// AddSharedEdge appends an is-of-type edge, skipping exact duplicates.
func (s *Subgraph) AddSharedEdge(edge SharedEdge) {
	if _, ok := s.sharedEdgeSet[edge]; ok {
		return
	}

	s.sharedEdgeSet[edge] = struct{}{}
	s.SharedEdges = append(s.SharedEdges, edge)
}

// AddOntologyEdge appends an inherits-from edge, skipping duplicates.
func (s *Subgraph) AddOntologyEdge(edge OntologyEdge) {
	if _, ok := s.ontologyEdgeSet[edge]; ok {
		return
	}

	s.ontologyEdgeSet[edge] = struct{}{}
	s.OntologyEdges = append(s.OntologyEdges, edge)
}

// String implements fmt.Stringer for log output.
func (v EntityVertexID) String() string {
	text, _ := v.MarshalText() //nolint:errcheck // cannot fail.

	return string(text)
}

// String implements fmt.Stringer for log output.
func (v EntityTypeVertexID) String() string {
	return fmt.Sprintf("%sv/%d", v.BaseID, v.RevisionID)
}
