package models

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/temporal"
)

// QueryEntitiesRequest is the structural query surface: a filter over
// entity records, a traversal budget, and the temporal axes to read
// under. The filter stays raw here; the query layer parses it against
// the entity path grammar.
type QueryEntitiesRequest struct {
	Filter             json.RawMessage                      `json:"filter,omitempty"`
	GraphResolveDepths GraphResolveDepths                   `json:"graph_resolve_depths"`
	TemporalAxes       temporal.QueryTemporalAxesUnresolved `json:"temporal_axes"`
	IncludeDrafts      bool                                 `json:"include_drafts"`
	Limit              int                                  `json:"limit,omitempty"`
	Cursor             *uuid.UUID                           `json:"cursor,omitempty"`
	IncludeCount       bool                                 `json:"include_count"`
}

// QueryEntityTypesRequest is the structural query surface for ontology
// types. InheritsFromDepth budgets how far inheritance edges are
// resolved from each matched type.
type QueryEntityTypesRequest struct {
	Filter            json.RawMessage                      `json:"filter,omitempty"`
	TemporalAxes      temporal.QueryTemporalAxesUnresolved `json:"temporal_axes"`
	InheritsFromDepth uint8                                `json:"inherits_from_depth"`
	Limit             int                                  `json:"limit,omitempty"`
	IncludeCount      bool                                 `json:"include_count"`
}
