package client

import (
	"encoding/json"
	"time"
)

// Temporal axis names.
const (
	AxisDecisionTime    = "decisionTime"
	AxisTransactionTime = "transactionTime"
)

// Bound is one end of a half-open version interval. Kind is
// "unbounded", "inclusive" or "exclusive"; Limit is absent for
// unbounded ends.
type Bound struct {
	Kind  string     `json:"kind"`
	Limit *time.Time `json:"limit,omitempty"`
}

// Interval is a left-closed/right-open time range.
type Interval struct {
	Start Bound `json:"start"`
	End   Bound `json:"end"`
}

// PinnedAxis names the axis read at a single instant. A nil Timestamp
// lets the server default it to the request time.
type PinnedAxis struct {
	Axis      string     `json:"axis"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// VariableAxis names the axis read over an interval. Nil bounds let
// the server apply its defaults.
type VariableAxis struct {
	Axis  string `json:"axis"`
	Start *Bound `json:"start,omitempty"`
	End   *Bound `json:"end,omitempty"`
}

// TemporalAxes selects the bitemporal read window for a query. The
// zero value asks for the server defaults: transaction time pinned at
// now, decision time over all of history.
type TemporalAxes struct {
	Pinned   PinnedAxis   `json:"pinned"`
	Variable VariableAxis `json:"variable"`
}

// ResolvedPinnedAxis is a pinned axis after server-side defaulting.
type ResolvedPinnedAxis struct {
	Axis      string    `json:"axis"`
	Timestamp time.Time `json:"timestamp"`
}

// ResolvedVariableAxis is a variable axis after server-side defaulting.
type ResolvedVariableAxis struct {
	Axis     string   `json:"axis"`
	Interval Interval `json:"interval"`
}

// ResolvedAxes echoes the fully defaulted axes a subgraph was read under.
type ResolvedAxes struct {
	Pinned   ResolvedPinnedAxis   `json:"pinned"`
	Variable ResolvedVariableAxis `json:"variable"`
}

// LinkData marks an entity as a link between two other entities.
// Entity IDs are tilde-separated strings ("web~uuid" or
// "web~uuid~draft").
type LinkData struct {
	LeftEntityID  string `json:"left_entity_id"`
	RightEntityID string `json:"right_entity_id"`
}

// EntityTemporal carries the two versioning intervals of one entity
// edition.
type EntityTemporal struct {
	DecisionTime    Interval `json:"decision_time"`
	TransactionTime Interval `json:"transaction_time"`
}

// Entity is one entity edition: identity, snapshot, and bitemporal
// metadata. Type IDs are versioned URLs ("https://.../v/3").
type Entity struct {
	ID            string         `json:"id"`
	EditionID     string         `json:"edition_id"`
	EntityTypeIDs []string       `json:"entity_type_ids"`
	Properties    map[string]any `json:"properties"`
	LinkData      *LinkData      `json:"link_data,omitempty"`
	Archived      bool           `json:"archived"`
	Temporal      EntityTemporal `json:"temporal"`
}

// EntityTypeTemporal carries the transaction-time interval of one
// entity type version.
type EntityTypeTemporal struct {
	TransactionTime Interval `json:"transaction_time"`
}

// EntityTypeMetadata describes one stored entity type version.
type EntityTypeMetadata struct {
	OntologyID string             `json:"ontology_id"`
	URL        string             `json:"url"`
	WebID      string             `json:"web_id,omitempty"`
	Temporal   EntityTypeTemporal `json:"temporal"`
}

// EntityType pairs a type schema document with its storage metadata.
type EntityType struct {
	Schema   map[string]any     `json:"schema"`
	Metadata EntityTypeMetadata `json:"metadata"`
}

// OutgoingDepth budgets an edge kind that is only walked outward.
type OutgoingDepth struct {
	Outgoing uint8 `json:"outgoing"`
}

// EdgeDepths budgets an edge kind per direction.
type EdgeDepths struct {
	Incoming uint8 `json:"incoming"`
	Outgoing uint8 `json:"outgoing"`
}

// GraphResolveDepths is the per-edge-kind traversal budget.
type GraphResolveDepths struct {
	InheritsFrom   OutgoingDepth `json:"inherits_from"`
	IsOfType       OutgoingDepth `json:"is_of_type"`
	HasLeftEntity  EdgeDepths    `json:"has_left_entity"`
	HasRightEntity EdgeDepths    `json:"has_right_entity"`
}

// KnowledgeEdge records one traversed link edge between two entity
// vertices. Vertex IDs are "<entity id>@<revision RFC3339>" strings.
type KnowledgeEdge struct {
	Source    string   `json:"source"`
	Kind      string   `json:"kind"`
	Direction string   `json:"direction"`
	Target    string   `json:"target"`
	Interval  Interval `json:"interval"`
}

// SharedEdge records one is-of-type edge from an entity vertex to an
// entity type vertex.
type SharedEdge struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Interval Interval `json:"interval"`
}

// OntologyEdge records one inherits-from edge between two entity type
// vertices.
type OntologyEdge struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

// SubgraphRoots lists the vertices the query matched directly.
type SubgraphRoots struct {
	Entities    []string `json:"entities"`
	EntityTypes []string `json:"entity_types"`
}

// Subgraph is the result of a structural query: root vertex IDs, the
// resolved vertices keyed by vertex ID, and the typed edges connecting
// them.
type Subgraph struct {
	Roots       SubgraphRoots         `json:"roots"`
	Entities    map[string]Entity     `json:"entities"`
	EntityTypes map[string]EntityType `json:"entity_types"`

	KnowledgeEdges []KnowledgeEdge `json:"knowledge_edges"`
	SharedEdges    []SharedEdge    `json:"shared_edges"`
	OntologyEdges  []OntologyEdge  `json:"ontology_edges"`

	Depths   GraphResolveDepths `json:"depths"`
	Temporal ResolvedAxes       `json:"temporal_axes"`
	Cursor   string             `json:"cursor,omitempty"`
	Count    *int               `json:"count,omitempty"`
}

// CreateEntityRequest is the payload for creating an entity. The
// entity UUID is generated server-side when omitted.
type CreateEntityRequest struct {
	WebID         string         `json:"web_id"`
	EntityUUID    string         `json:"entity_uuid,omitempty"`
	EntityTypeIDs []string       `json:"entity_type_ids"`
	Properties    map[string]any `json:"properties,omitempty"`
	LinkData      *LinkData      `json:"link_data,omitempty"`
	Draft         bool           `json:"draft,omitempty"`
	DecisionTime  *time.Time     `json:"decision_time,omitempty"`
}

// UpdateEntityRequest appends a new edition to an existing entity.
type UpdateEntityRequest struct {
	EntityID      string         `json:"entity_id"`
	EntityTypeIDs []string       `json:"entity_type_ids,omitempty"`
	Properties    map[string]any `json:"properties"`
	Archived      *bool          `json:"archived,omitempty"`
	DecisionTime  *time.Time     `json:"decision_time,omitempty"`
}

// QueryEntitiesRequest is the structural query surface for entities.
// Filter is the raw filter document; nil matches everything the actor
// can see.
type QueryEntitiesRequest struct {
	Filter             json.RawMessage    `json:"filter,omitempty"`
	GraphResolveDepths GraphResolveDepths `json:"graph_resolve_depths"`
	TemporalAxes       *TemporalAxes      `json:"temporal_axes,omitempty"`
	IncludeDrafts      bool               `json:"include_drafts,omitempty"`
	Limit              int                `json:"limit,omitempty"`
	Cursor             string             `json:"cursor,omitempty"`
	IncludeCount       bool               `json:"include_count,omitempty"`
}

// QueryEntityTypesRequest is the structural query surface for ontology
// types.
type QueryEntityTypesRequest struct {
	Filter            json.RawMessage `json:"filter,omitempty"`
	TemporalAxes      *TemporalAxes   `json:"temporal_axes,omitempty"`
	InheritsFromDepth uint8           `json:"inherits_from_depth,omitempty"`
	Limit             int             `json:"limit,omitempty"`
	IncludeCount      bool            `json:"include_count,omitempty"`
}

// CreateEntityTypeRequest registers a new entity type version.
type CreateEntityTypeRequest struct {
	WebID        string         `json:"web_id"`
	URL          string         `json:"url"`
	Schema       map[string]any `json:"schema"`
	InheritsFrom []string       `json:"inherits_from,omitempty"`
}

// ArchiveEntityTypeRequest closes the open transaction-time interval
// of one entity type version.
type ArchiveEntityTypeRequest struct {
	URL string `json:"url"`
}

// Web is a namespace owning entities and ontology types.
type Web struct {
	WebID     string    `json:"web_id"`
	Shortname string    `json:"shortname"`
	CreatedAt time.Time `json:"created_at"`
}

// Account is an actor that can author mutations within a web.
type Account struct {
	AccountID string    `json:"account_id"`
	WebID     string    `json:"web_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateWebRequest is the payload for registering a web.
type CreateWebRequest struct {
	Shortname string `json:"shortname"`
}

// CreateAccountRequest registers an account inside an existing web.
type CreateAccountRequest struct {
	WebID string `json:"web_id"`
}

// UpsertEntityEmbeddingRequest stores one externally computed entity
// embedding. The updated-at instants come from the entity edition the
// vector was computed against.
type UpsertEntityEmbeddingRequest struct {
	EntityID             string    `json:"entity_id"`
	Property             *string   `json:"property,omitempty"`
	Embedding            []float32 `json:"embedding,omitempty"`
	UpdatedAtTransaction time.Time `json:"updated_at_transaction_time"`
	UpdatedAtDecision    time.Time `json:"updated_at_decision_time"`
	Reset                bool      `json:"reset,omitempty"`
}

// UpsertEntityTypeEmbeddingRequest stores one externally computed
// entity-type embedding.
type UpsertEntityTypeEmbeddingRequest struct {
	URL                  string    `json:"url"`
	Embedding            []float32 `json:"embedding,omitempty"`
	UpdatedAtTransaction time.Time `json:"updated_at_transaction_time"`
	Reset                bool      `json:"reset,omitempty"`
}

// HealthResponse is the liveness check payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadyResponse is the readiness check payload.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
