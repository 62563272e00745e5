package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/epochgraph/epochgraph/internal/models"
)

// QueryPath locates a filterable value relative to a record's base
// table: one of the record's own columns or a column reached through
// a chain of relations.
type QueryPath interface {
	fmt.Stringer

	// Relations returns the hops between the base table and the table
	// holding the terminating column, in traversal order.
	Relations() []Relation

	// TerminatingColumn returns the column the path resolves to and,
	// for jsonb columns, the field read out of it.
	TerminatingColumn() (Column, *JSONField)
}

// PathToken is one step into a jsonb document, either an object key
// or an array index.
type PathToken struct {
	field   string
	index   int
	isIndex bool
}

func FieldToken(name string) PathToken {
	return PathToken{field: name}
}

func IndexToken(i int) PathToken {
	return PathToken{index: i, isIndex: true}
}

// JSONPath addresses a value inside a jsonb document. Its string form
// is a Postgres jsonpath expression.
type JSONPath struct {
	tokens []PathToken
}

func NewJSONPath(tokens ...PathToken) *JSONPath {
	return &JSONPath{tokens: tokens}
}

func escapeJSONField(field string) string {
	field = strings.ReplaceAll(field, `\`, `\\`)
	return strings.ReplaceAll(field, `"`, `\"`)
}

func (p *JSONPath) String() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, t := range p.tokens {
		if t.isIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(t.index))
			b.WriteByte(']')
		} else {
			b.WriteString(`."`)
			b.WriteString(escapeJSONField(t.field))
			b.WriteByte('"')
		}
	}

	return b.String()
}

// JSONField describes how a path reads a jsonb column: through a
// jsonpath parameter or a fixed top-level field extracted as text.
type JSONField struct {
	jsonPath   *JSONPath
	staticText string
}

type entityPathKind int

const (
	entityPathUUID entityPathKind = iota
	entityPathWebID
	entityPathDraftID
	entityPathEditionID
	entityPathDecisionTime
	entityPathTransactionTime
	entityPathArchived
	entityPathProperties
	entityPathEmbedding
	entityPathType
	entityPathEntityEdge
)

// EntityQueryPath addresses a value reachable from an entity: one of
// its own columns, a property, or a value on an entity related to it
// through its type or its link endpoints.
type EntityQueryPath struct {
	kind       entityPathKind
	jsonPath   *JSONPath
	depth      *uint
	edgeKind   models.KnowledgeGraphEdgeKind
	direction  models.EdgeDirection
	entity     *EntityQueryPath
	entityType *EntityTypeQueryPath
}

func EntityUUIDPath() *EntityQueryPath {
	return &EntityQueryPath{kind: entityPathUUID}
}

func EntityWebIDPath() *EntityQueryPath {
	return &EntityQueryPath{kind: entityPathWebID}
}

func EntityDraftIDPath() *EntityQueryPath {
	return &EntityQueryPath{kind: entityPathDraftID}
}

func EntityEditionIDPath() *EntityQueryPath {
	return &EntityQueryPath{kind: entityPathEditionID}
}

func EntityDecisionTimePath() *EntityQueryPath {
	return &EntityQueryPath{kind: entityPathDecisionTime}
}

func EntityTransactionTimePath() *EntityQueryPath {
	return &EntityQueryPath{kind: entityPathTransactionTime}
}

func EntityArchivedPath() *EntityQueryPath {
	return &EntityQueryPath{kind: entityPathArchived}
}

// EntityPropertiesPath addresses the properties document, or a value
// inside it when a jsonb path is given.
func EntityPropertiesPath(path *JSONPath) *EntityQueryPath {
	return &EntityQueryPath{kind: entityPathProperties, jsonPath: path}
}

func EntityEmbeddingPath() *EntityQueryPath {
	return &EntityQueryPath{kind: entityPathEmbedding}
}

// EntityTypePath continues onto the entity's type, optionally capping
// the inheritance depth through which types are matched.
func EntityTypePath(depth *uint, nested *EntityTypeQueryPath) *EntityQueryPath {
	return &EntityQueryPath{kind: entityPathType, depth: depth, entityType: nested}
}

// EntityLinkPath continues onto an entity connected through a link
// edge. Outgoing edges lead from a link entity to its endpoints,
// incoming edges from an entity to the link entities referencing it.
func EntityLinkPath(kind models.KnowledgeGraphEdgeKind, direction models.EdgeDirection, nested *EntityQueryPath) *EntityQueryPath {
	return &EntityQueryPath{kind: entityPathEntityEdge, edgeKind: kind, direction: direction, entity: nested}
}

// linkShortcutColumn reports whether the edge path can be answered
// from the edge table itself without joining the endpoint's metadata.
func (p *EntityQueryPath) linkShortcutColumn() (Column, bool) {
	if p.direction != models.EdgeDirectionOutgoing || p.entity == nil {
		return Column{}, false
	}
	switch p.entity.kind {
	case entityPathUUID:
		if p.edgeKind == models.EdgeKindHasLeftEntity {
			return columnLeftEntityLeftUUID, true
		}
		return columnRightEntityRightUUID, true
	case entityPathWebID:
		if p.edgeKind == models.EdgeKindHasLeftEntity {
			return columnLeftEntityLeftWebID, true
		}
		return columnRightEntityRightWeb, true
	default:
		return Column{}, false
	}
}

func (p *EntityQueryPath) Relations() []Relation {
	switch p.kind {
	case entityPathArchived, entityPathProperties:
		return []Relation{{kind: relationEntityEditions}}
	case entityPathEmbedding:
		return []Relation{{kind: relationEntityEmbeddings}}
	case entityPathType:
		relations := []Relation{{
			kind:      relationReference,
			reference: ReferenceTable{kind: refEntityIsOfType, depth: p.depth},
			direction: models.EdgeDirectionOutgoing,
		}}
		return append(relations, p.entityType.Relations()...)
	case entityPathEntityEdge:
		if _, ok := p.linkShortcutColumn(); ok {
			if p.edgeKind == models.EdgeKindHasLeftEntity {
				return []Relation{{kind: relationLeftEntity}}
			}
			return []Relation{{kind: relationRightEntity}}
		}
		ref := refEntityHasLeftEntity
		if p.edgeKind == models.EdgeKindHasRightEntity {
			ref = refEntityHasRightEntity
		}
		relations := []Relation{{
			kind:      relationReference,
			reference: ReferenceTable{kind: ref},
			direction: p.direction,
		}}
		return append(relations, p.entity.Relations()...)
	default:
		return nil
	}
}

func (p *EntityQueryPath) TerminatingColumn() (Column, *JSONField) {
	switch p.kind {
	case entityPathUUID:
		return columnEntityUUID, nil
	case entityPathWebID:
		return columnEntityWebID, nil
	case entityPathDraftID:
		return columnEntityDraftID, nil
	case entityPathEditionID:
		return columnEntityEditionID, nil
	case entityPathDecisionTime:
		return columnEntityDecisionTime, nil
	case entityPathTransactionTime:
		return columnEntityTransactionTime, nil
	case entityPathArchived:
		return columnEditionArchived, nil
	case entityPathProperties:
		if p.jsonPath != nil {
			return columnEditionProperties, &JSONField{jsonPath: p.jsonPath}
		}
		return columnEditionProperties, nil
	case entityPathEmbedding:
		return columnEntityEmbedding, nil
	case entityPathType:
		return p.entityType.TerminatingColumn()
	default:
		if column, ok := p.linkShortcutColumn(); ok {
			return column, nil
		}
		return p.entity.TerminatingColumn()
	}
}

func (p *EntityQueryPath) edgeToken() string {
	if p.direction == models.EdgeDirectionOutgoing {
		if p.edgeKind == models.EdgeKindHasLeftEntity {
			return "leftEntity"
		}
		return "rightEntity"
	}
	if p.edgeKind == models.EdgeKindHasLeftEntity {
		return "outgoingLinks"
	}
	return "incomingLinks"
}

func (p *EntityQueryPath) String() string {
	switch p.kind {
	case entityPathUUID:
		return "uuid"
	case entityPathWebID:
		return "webId"
	case entityPathDraftID:
		return "draftId"
	case entityPathEditionID:
		return "editionId"
	case entityPathDecisionTime:
		return "decisionTime"
	case entityPathTransactionTime:
		return "transactionTime"
	case entityPathArchived:
		return "archived"
	case entityPathProperties:
		if p.jsonPath != nil {
			return "properties." + p.jsonPath.String()
		}
		return "properties"
	case entityPathEmbedding:
		return "embedding"
	case entityPathType:
		if p.depth != nil {
			return fmt.Sprintf("type(%d).%s", *p.depth, p.entityType)
		}
		return "type." + p.entityType.String()
	default:
		return p.edgeToken() + "." + p.entity.String()
	}
}

type entityTypePathKind int

const (
	typePathBaseURL entityTypePathKind = iota
	typePathVersion
	typePathVersionedURL
	typePathOntologyID
	typePathTransactionTime
	typePathWebID
	typePathTitle
	typePathDescription
	typePathSchema
	typePathEmbedding
	typePathInheritsFrom
	typePathChildren
)

// EntityTypeQueryPath addresses a value reachable from an entity
// type, including types related through the inheritance hierarchy.
type EntityTypeQueryPath struct {
	kind   entityTypePathKind
	depth  *uint
	nested *EntityTypeQueryPath
}

func EntityTypeBaseURLPath() *EntityTypeQueryPath {
	return &EntityTypeQueryPath{kind: typePathBaseURL}
}

func EntityTypeVersionPath() *EntityTypeQueryPath {
	return &EntityTypeQueryPath{kind: typePathVersion}
}

func EntityTypeVersionedURLPath() *EntityTypeQueryPath {
	return &EntityTypeQueryPath{kind: typePathVersionedURL}
}

func EntityTypeOntologyIDPath() *EntityTypeQueryPath {
	return &EntityTypeQueryPath{kind: typePathOntologyID}
}

func EntityTypeTransactionTimePath() *EntityTypeQueryPath {
	return &EntityTypeQueryPath{kind: typePathTransactionTime}
}

func EntityTypeWebIDPath() *EntityTypeQueryPath {
	return &EntityTypeQueryPath{kind: typePathWebID}
}

func EntityTypeTitlePath() *EntityTypeQueryPath {
	return &EntityTypeQueryPath{kind: typePathTitle}
}

func EntityTypeDescriptionPath() *EntityTypeQueryPath {
	return &EntityTypeQueryPath{kind: typePathDescription}
}

func EntityTypeSchemaPath() *EntityTypeQueryPath {
	return &EntityTypeQueryPath{kind: typePathSchema}
}

func EntityTypeEmbeddingPath() *EntityTypeQueryPath {
	return &EntityTypeQueryPath{kind: typePathEmbedding}
}

// EntityTypeInheritsFromPath continues onto the types this type
// inherits from, up to the given depth when set.
func EntityTypeInheritsFromPath(depth *uint, nested *EntityTypeQueryPath) *EntityTypeQueryPath {
	return &EntityTypeQueryPath{kind: typePathInheritsFrom, depth: depth, nested: nested}
}

// EntityTypeChildrenPath continues onto the types inheriting from
// this type.
func EntityTypeChildrenPath(depth *uint, nested *EntityTypeQueryPath) *EntityTypeQueryPath {
	return &EntityTypeQueryPath{kind: typePathChildren, depth: depth, nested: nested}
}

func (p *EntityTypeQueryPath) Relations() []Relation {
	switch p.kind {
	case typePathBaseURL, typePathVersion:
		return []Relation{{kind: relationOntologyIDs}}
	case typePathVersionedURL, typePathTitle, typePathDescription, typePathSchema:
		return []Relation{{kind: relationEntityTypeIDs}}
	case typePathWebID:
		return []Relation{{kind: relationOntologyOwnedMetadata}}
	case typePathEmbedding:
		return []Relation{{kind: relationEntityTypeEmbeddings}}
	case typePathInheritsFrom, typePathChildren:
		direction := models.EdgeDirectionOutgoing
		if p.kind == typePathChildren {
			direction = models.EdgeDirectionIncoming
		}
		relations := []Relation{{
			kind:      relationReference,
			reference: ReferenceTable{kind: refEntityTypeInheritsFrom, depth: p.depth},
			direction: direction,
		}}
		return append(relations, p.nested.Relations()...)
	default:
		return nil
	}
}

func (p *EntityTypeQueryPath) TerminatingColumn() (Column, *JSONField) {
	switch p.kind {
	case typePathBaseURL:
		return columnOntologyBaseURL, nil
	case typePathVersion:
		return columnOntologyVersion, nil
	case typePathVersionedURL:
		return columnEntityTypeSchema, &JSONField{staticText: "$id"}
	case typePathOntologyID:
		return columnOntologyID, nil
	case typePathTransactionTime:
		return columnOntologyTransactionTime, nil
	case typePathWebID:
		return columnOwnedWebID, nil
	case typePathTitle:
		return columnEntityTypeSchema, &JSONField{staticText: "title"}
	case typePathDescription:
		return columnEntityTypeSchema, &JSONField{staticText: "description"}
	case typePathSchema:
		return columnEntityTypeSchema, nil
	case typePathEmbedding:
		return columnTypeEmbedding, nil
	default:
		return p.nested.TerminatingColumn()
	}
}

func (p *EntityTypeQueryPath) String() string {
	switch p.kind {
	case typePathBaseURL:
		return "baseUrl"
	case typePathVersion:
		return "version"
	case typePathVersionedURL:
		return "versionedUrl"
	case typePathOntologyID:
		return "ontologyId"
	case typePathTransactionTime:
		return "transactionTime"
	case typePathWebID:
		return "webId"
	case typePathTitle:
		return "title"
	case typePathDescription:
		return "description"
	case typePathSchema:
		return "schema"
	case typePathEmbedding:
		return "embedding"
	default:
		token := "inheritsFrom"
		if p.kind == typePathChildren {
			token = "children"
		}
		if p.depth != nil {
			return fmt.Sprintf("%s(%d).%s", token, *p.depth, p.nested)
		}
		return token + "." + p.nested.String()
	}
}

func parseLeaf(path *EntityQueryPath, rest []string) (*EntityQueryPath, error) {
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: unexpected segment %q after %q", ErrInvalidQueryPath, rest[0], path)
	}

	return path, nil
}

// ParseEntityQueryPath builds an entity path from its token form, as
// carried in filter payloads.
func ParseEntityQueryPath(segments []string) (*EntityQueryPath, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidQueryPath)
	}
	head, rest := segments[0], segments[1:]
	switch head {
	case "uuid":
		return parseLeaf(EntityUUIDPath(), rest)
	case "webId":
		return parseLeaf(EntityWebIDPath(), rest)
	case "draftId":
		return parseLeaf(EntityDraftIDPath(), rest)
	case "editionId":
		return parseLeaf(EntityEditionIDPath(), rest)
	case "decisionTime":
		return parseLeaf(EntityDecisionTimePath(), rest)
	case "transactionTime":
		return parseLeaf(EntityTransactionTimePath(), rest)
	case "archived":
		return parseLeaf(EntityArchivedPath(), rest)
	case "embedding":
		return parseLeaf(EntityEmbeddingPath(), rest)
	case "properties":
		if len(rest) == 0 {
			return EntityPropertiesPath(nil), nil
		}
		tokens := make([]PathToken, len(rest))
		for i, segment := range rest {
			if index, err := strconv.Atoi(segment); err == nil {
				tokens[i] = IndexToken(index)
			} else {
				tokens[i] = FieldToken(segment)
			}
		}
		return EntityPropertiesPath(NewJSONPath(tokens...)), nil
	case "type":
		nested, err := ParseEntityTypeQueryPath(rest)
		if err != nil {
			return nil, err
		}
		return EntityTypePath(nil, nested), nil
	case "leftEntity", "rightEntity", "outgoingLinks", "incomingLinks":
		nested, err := ParseEntityQueryPath(rest)
		if err != nil {
			return nil, err
		}
		kind := models.EdgeKindHasLeftEntity
		if head == "rightEntity" || head == "incomingLinks" {
			kind = models.EdgeKindHasRightEntity
		}
		direction := models.EdgeDirectionOutgoing
		if head == "outgoingLinks" || head == "incomingLinks" {
			direction = models.EdgeDirectionIncoming
		}
		return EntityLinkPath(kind, direction, nested), nil
	default:
		return nil, fmt.Errorf("%w: unknown entity path segment %q", ErrInvalidQueryPath, head)
	}
}

func parseTypeLeaf(path *EntityTypeQueryPath, rest []string) (*EntityTypeQueryPath, error) {
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: unexpected segment %q after %q", ErrInvalidQueryPath, rest[0], path)
	}

	return path, nil
}

// ParseEntityTypeQueryPath builds an entity type path from its token
// form.
func ParseEntityTypeQueryPath(segments []string) (*EntityTypeQueryPath, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidQueryPath)
	}
	head, rest := segments[0], segments[1:]
	switch head {
	case "baseUrl":
		return parseTypeLeaf(EntityTypeBaseURLPath(), rest)
	case "version":
		return parseTypeLeaf(EntityTypeVersionPath(), rest)
	case "versionedUrl":
		return parseTypeLeaf(EntityTypeVersionedURLPath(), rest)
	case "ontologyId":
		return parseTypeLeaf(EntityTypeOntologyIDPath(), rest)
	case "transactionTime":
		return parseTypeLeaf(EntityTypeTransactionTimePath(), rest)
	case "webId":
		return parseTypeLeaf(EntityTypeWebIDPath(), rest)
	case "title":
		return parseTypeLeaf(EntityTypeTitlePath(), rest)
	case "description":
		return parseTypeLeaf(EntityTypeDescriptionPath(), rest)
	case "schema":
		return parseTypeLeaf(EntityTypeSchemaPath(), rest)
	case "embedding":
		return parseTypeLeaf(EntityTypeEmbeddingPath(), rest)
	case "inheritsFrom", "children":
		nested, err := ParseEntityTypeQueryPath(rest)
		if err != nil {
			return nil, err
		}
		if head == "children" {
			return EntityTypeChildrenPath(nil, nested), nil
		}
		return EntityTypeInheritsFromPath(nil, nested), nil
	default:
		return nil, fmt.Errorf("%w: unknown entity type path segment %q", ErrInvalidQueryPath, head)
	}
}
