package query

import (
	"fmt"
	"strings"

	"github.com/epochgraph/epochgraph/internal/models"
)

// Table names one of the relations the compiler can select from or join.
type Table string

// Tables reachable through query paths.
const (
	TableOntologyIDs              Table = "ontology_ids"
	TableOntologyTemporalMetadata Table = "ontology_temporal_metadata"
	TableOntologyOwnedMetadata    Table = "ontology_owned_metadata"
	TableEntityTypes              Table = "entity_types"
	TableEntityTypeEmbeddings     Table = "entity_type_embeddings"
	TableEntityTypeInheritsFrom   Table = "entity_type_inherits_from"
	TableEntityTemporalMetadata   Table = "entity_temporal_metadata"
	TableEntityEditions           Table = "entity_editions"
	TableEntityEmbeddings         Table = "entity_embeddings"
	TableEntityIsOfType           Table = "entity_is_of_type"
	TableEntityHasLeftEntity      Table = "entity_has_left_entity"
	TableEntityHasRightEntity     Table = "entity_has_right_entity"
)

// Alias distinguishes multiple joined instances of the same table.
// Condition is the index of the top-level filter that produced the
// join, ChainDepth the hop count from the base table along the path,
// and Number a disambiguator for joins landing on the same table at
// the same position with a different ON condition.
type Alias struct {
	Condition  int
	ChainDepth int
	Number     int
}

// name renders the aliased table name, e.g. "entity_temporal_metadata_0_1_0".
func (a Alias) name(t Table) string {
	return fmt.Sprintf("%s_%d_%d_%d", t, a.Condition, a.ChainDepth, a.Number)
}

// aliasedTable identifies one joined instance of a table. It is used
// as a set key for join deduplication and hook idempotence.
type aliasedTable struct {
	table Table
	alias Alias
}

func (t aliasedTable) transpile(b *strings.Builder) {
	b.WriteByte('"')
	b.WriteString(t.alias.name(t.table))
	b.WriteByte('"')
}

// Column is one column of a table.
type Column struct {
	Table Table
	Name  string
}

func (c Column) aliased(a Alias) columnRef {
	return columnRef{column: c, alias: a, aliased: true}
}

func (c Column) unaliased() columnRef {
	return columnRef{column: c}
}

var (
	columnEntityWebID           = Column{TableEntityTemporalMetadata, "web_id"}
	columnEntityUUID            = Column{TableEntityTemporalMetadata, "entity_uuid"}
	columnEntityDraftID         = Column{TableEntityTemporalMetadata, "draft_id"}
	columnEntityEditionID       = Column{TableEntityTemporalMetadata, "entity_edition_id"}
	columnEntityDecisionTime    = Column{TableEntityTemporalMetadata, "decision_time"}
	columnEntityTransactionTime = Column{TableEntityTemporalMetadata, "transaction_time"}

	columnEditionID         = Column{TableEntityEditions, "entity_edition_id"}
	columnEditionProperties = Column{TableEntityEditions, "properties"}
	columnEditionArchived   = Column{TableEntityEditions, "archived"}

	columnIsOfTypeEditionID  = Column{TableEntityIsOfType, "entity_edition_id"}
	columnIsOfTypeOntologyID = Column{TableEntityIsOfType, "entity_type_ontology_id"}
	columnIsOfTypeDepth      = Column{TableEntityIsOfType, "inheritance_depth"}

	columnLeftEntityWebID      = Column{TableEntityHasLeftEntity, "web_id"}
	columnLeftEntityUUID       = Column{TableEntityHasLeftEntity, "entity_uuid"}
	columnLeftEntityLeftWebID  = Column{TableEntityHasLeftEntity, "left_web_id"}
	columnLeftEntityLeftUUID   = Column{TableEntityHasLeftEntity, "left_entity_uuid"}
	columnRightEntityWebID     = Column{TableEntityHasRightEntity, "web_id"}
	columnRightEntityUUID      = Column{TableEntityHasRightEntity, "entity_uuid"}
	columnRightEntityRightWeb  = Column{TableEntityHasRightEntity, "right_web_id"}
	columnRightEntityRightUUID = Column{TableEntityHasRightEntity, "right_entity_uuid"}

	columnEntityEmbeddingsWebID    = Column{TableEntityEmbeddings, "web_id"}
	columnEntityEmbeddingsUUID     = Column{TableEntityEmbeddings, "entity_uuid"}
	columnEntityEmbedding          = Column{TableEntityEmbeddings, "embedding"}
	columnEntityEmbeddingsDistance = Column{TableEntityEmbeddings, "distance"}

	columnOntologyID              = Column{TableOntologyTemporalMetadata, "ontology_id"}
	columnOntologyTransactionTime = Column{TableOntologyTemporalMetadata, "transaction_time"}

	columnOntologyIDsOntologyID = Column{TableOntologyIDs, "ontology_id"}
	columnOntologyBaseURL       = Column{TableOntologyIDs, "base_url"}
	columnOntologyVersion       = Column{TableOntologyIDs, "version"}
	columnOntologyLatestVersion = Column{TableOntologyIDs, "latest_version"}

	columnOwnedOntologyID = Column{TableOntologyOwnedMetadata, "ontology_id"}
	columnOwnedWebID      = Column{TableOntologyOwnedMetadata, "web_id"}

	columnEntityTypeOntologyID = Column{TableEntityTypes, "ontology_id"}
	columnEntityTypeSchema     = Column{TableEntityTypes, "schema"}

	columnTypeEmbeddingsOntologyID = Column{TableEntityTypeEmbeddings, "ontology_id"}
	columnTypeEmbedding            = Column{TableEntityTypeEmbeddings, "embedding"}
	columnTypeEmbeddingsDistance   = Column{TableEntityTypeEmbeddings, "distance"}

	columnInheritsFromSource = Column{TableEntityTypeInheritsFrom, "source_entity_type_ontology_id"}
	columnInheritsFromTarget = Column{TableEntityTypeInheritsFrom, "target_entity_type_ontology_id"}
	columnInheritsFromDepth  = Column{TableEntityTypeInheritsFrom, "depth"}
)

// parameterType is the value family a column or parameter carries. It
// decides when text extraction has to wrap a jsonb expression and how
// untyped filter parameters are coerced.
type parameterType int

const (
	typeText parameterType = iota
	typeInteger
	typeNumber
	typeBoolean
	typeUUID
	typeTimestamp
	typeTimeInterval
	typeVector
	typeAny
)

func (c Column) parameterType() parameterType {
	switch c {
	case columnEditionProperties, columnEntityTypeSchema:
		return typeAny
	case columnEditionArchived:
		return typeBoolean
	case columnEntityDecisionTime, columnEntityTransactionTime, columnOntologyTransactionTime:
		return typeTimeInterval
	case columnEntityEmbedding, columnTypeEmbedding:
		return typeVector
	case columnOntologyBaseURL:
		return typeText
	case columnOntologyVersion, columnOntologyLatestVersion, columnIsOfTypeDepth, columnInheritsFromDepth:
		return typeInteger
	case columnEntityEmbeddingsDistance, columnTypeEmbeddingsDistance:
		return typeNumber
	default:
		return typeUUID
	}
}

// joinType is the SQL join flavor of one foreign-key hop.
type joinType int

const (
	joinInner joinType = iota
	joinLeftOuter
	joinRightOuter
	joinFullOuter
)

func (j joinType) sql() string {
	switch j {
	case joinInner:
		return "INNER JOIN"
	case joinLeftOuter:
		return "LEFT OUTER JOIN"
	case joinRightOuter:
		return "RIGHT OUTER JOIN"
	default:
		return "FULL OUTER JOIN"
	}
}

func (j joinType) reverse() joinType {
	switch j {
	case joinLeftOuter:
		return joinRightOuter
	case joinRightOuter:
		return joinLeftOuter
	default:
		return j
	}
}

// foreignKey relates columns of the current table (on) to columns of
// the table being joined (join). Single-column and composite keys use
// the same shape.
type foreignKey struct {
	on       []Column
	join     []Column
	joinType joinType
}

func (fk foreignKey) table() Table {
	return fk.join[0].Table
}

// conditions builds the ON clause, with the joined table's column on
// the left of each equality.
func (fk foreignKey) conditions(onAlias, joinAlias Alias) []condition {
	conds := make([]condition, len(fk.on))
	for i := range fk.on {
		conds[i] = condEqual{
			left:  fk.join[i].aliased(joinAlias),
			right: fk.on[i].aliased(onAlias),
		}
	}

	return conds
}

// reverse flips the hop so it can be walked from the joined side.
func (fk foreignKey) reverse() foreignKey {
	return foreignKey{on: fk.join, join: fk.on, joinType: fk.joinType.reverse()}
}

// refTableKind enumerates the adjacency tables with distinct source
// and target sides.
type refTableKind int

const (
	refEntityIsOfType refTableKind = iota
	refEntityHasLeftEntity
	refEntityHasRightEntity
	refEntityTypeInheritsFrom
)

// ReferenceTable is a directed adjacency table. Depth, when set, caps
// the inheritance depth of rows matched through this hop.
type ReferenceTable struct {
	kind  refTableKind
	depth *uint
}

func (rt ReferenceTable) table() Table {
	switch rt.kind {
	case refEntityIsOfType:
		return TableEntityIsOfType
	case refEntityHasLeftEntity:
		return TableEntityHasLeftEntity
	case refEntityHasRightEntity:
		return TableEntityHasRightEntity
	default:
		return TableEntityTypeInheritsFrom
	}
}

func (rt ReferenceTable) depthColumn() (Column, bool) {
	switch rt.kind {
	case refEntityIsOfType:
		return columnIsOfTypeDepth, true
	case refEntityTypeInheritsFrom:
		return columnInheritsFromDepth, true
	default:
		return Column{}, false
	}
}

// sourceRelation is the hop from the record table into the adjacency
// table's source columns.
func (rt ReferenceTable) sourceRelation() foreignKey {
	switch rt.kind {
	case refEntityIsOfType:
		return foreignKey{
			on:       []Column{columnEntityEditionID},
			join:     []Column{columnIsOfTypeEditionID},
			joinType: joinInner,
		}
	case refEntityHasLeftEntity:
		return foreignKey{
			on:       []Column{columnEntityWebID, columnEntityUUID},
			join:     []Column{columnLeftEntityWebID, columnLeftEntityUUID},
			joinType: joinLeftOuter,
		}
	case refEntityHasRightEntity:
		return foreignKey{
			on:       []Column{columnEntityWebID, columnEntityUUID},
			join:     []Column{columnRightEntityWebID, columnRightEntityUUID},
			joinType: joinLeftOuter,
		}
	default:
		return foreignKey{
			on:       []Column{columnOntologyID},
			join:     []Column{columnInheritsFromSource},
			joinType: joinLeftOuter,
		}
	}
}

// targetRelation is the hop from the adjacency table's target columns
// back into the record table.
func (rt ReferenceTable) targetRelation() foreignKey {
	switch rt.kind {
	case refEntityIsOfType:
		return foreignKey{
			on:       []Column{columnIsOfTypeOntologyID},
			join:     []Column{columnOntologyID},
			joinType: joinInner,
		}
	case refEntityHasLeftEntity:
		return foreignKey{
			on:       []Column{columnLeftEntityLeftWebID, columnLeftEntityLeftUUID},
			join:     []Column{columnEntityWebID, columnEntityUUID},
			joinType: joinRightOuter,
		}
	case refEntityHasRightEntity:
		return foreignKey{
			on:       []Column{columnRightEntityRightWeb, columnRightEntityRightUUID},
			join:     []Column{columnEntityWebID, columnEntityUUID},
			joinType: joinRightOuter,
		}
	default:
		return foreignKey{
			on:       []Column{columnInheritsFromTarget},
			join:     []Column{columnOntologyID},
			joinType: joinRightOuter,
		}
	}
}

// relationKind enumerates the direct foreign-key hops.
type relationKind int

const (
	relationOntologyIDs relationKind = iota
	relationOntologyOwnedMetadata
	relationEntityTypeIDs
	relationEntityTypeEmbeddings
	relationEntityEditions
	relationEntityEmbeddings
	relationLeftEntity
	relationRightEntity
	relationReference
)

// Relation is one hop of a query path: either a direct foreign key or
// a walk across a reference table in a given direction.
type Relation struct {
	kind      relationKind
	reference ReferenceTable
	direction models.EdgeDirection
}

// joins expands the relation into its foreign-key hops. Reference
// relations walk the source then target side; incoming walks reverse
// both sides and their order.
func (r Relation) joins() []foreignKey {
	switch r.kind {
	case relationOntologyIDs:
		return []foreignKey{{
			on:       []Column{columnOntologyID},
			join:     []Column{columnOntologyIDsOntologyID},
			joinType: joinInner,
		}}
	case relationOntologyOwnedMetadata:
		return []foreignKey{{
			on:       []Column{columnOntologyID},
			join:     []Column{columnOwnedOntologyID},
			joinType: joinInner,
		}}
	case relationEntityTypeIDs:
		return []foreignKey{{
			on:       []Column{columnOntologyID},
			join:     []Column{columnEntityTypeOntologyID},
			joinType: joinInner,
		}}
	case relationEntityTypeEmbeddings:
		return []foreignKey{{
			on:       []Column{columnOntologyID},
			join:     []Column{columnTypeEmbeddingsOntologyID},
			joinType: joinLeftOuter,
		}}
	case relationEntityEditions:
		return []foreignKey{{
			on:       []Column{columnEntityEditionID},
			join:     []Column{columnEditionID},
			joinType: joinInner,
		}}
	case relationEntityEmbeddings:
		return []foreignKey{{
			on:       []Column{columnEntityWebID, columnEntityUUID},
			join:     []Column{columnEntityEmbeddingsWebID, columnEntityEmbeddingsUUID},
			joinType: joinLeftOuter,
		}}
	case relationLeftEntity:
		return []foreignKey{{
			on:       []Column{columnEntityWebID, columnEntityUUID},
			join:     []Column{columnLeftEntityWebID, columnLeftEntityUUID},
			joinType: joinLeftOuter,
		}}
	case relationRightEntity:
		return []foreignKey{{
			on:       []Column{columnEntityWebID, columnEntityUUID},
			join:     []Column{columnRightEntityWebID, columnRightEntityUUID},
			joinType: joinLeftOuter,
		}}
	default:
		source := r.reference.sourceRelation()
		target := r.reference.targetRelation()
		if r.direction == models.EdgeDirectionIncoming {
			return []foreignKey{target.reverse(), source.reverse()}
		}

		return []foreignKey{source, target}
	}
}

// additionalConditions returns extra ON conditions for the joined
// table, currently the inheritance-depth cap of reference tables.
func (r Relation) additionalConditions(joined aliasedTable) []condition {
	if r.kind != relationReference || joined.table != r.reference.table() {
		return nil
	}

	column, ok := r.reference.depthColumn()
	if !ok || r.reference.depth == nil {
		return nil
	}

	return []condition{condCompare{
		op:    "<=",
		left:  column.aliased(joined.alias),
		right: intConstant(*r.reference.depth),
	}}
}
