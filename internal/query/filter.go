package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/models"
)

var (
	// ErrInvalidFilter indicates a filter whose shape cannot be compiled.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidQueryPath indicates an unknown or malformed path token.
	ErrInvalidQueryPath = errors.New("invalid query path")

	// ErrParameterConversion indicates a parameter value incompatible
	// with the column it is compared against.
	ErrParameterConversion = errors.New("invalid parameter value")

	// ErrCursorDisallowed indicates a query feature that cannot be
	// combined with cursor pagination.
	ErrCursorDisallowed = errors.New("cursor pagination not supported for this query")

	// ErrUnsupportedDistanceExpression indicates distance operands that
	// are not one path and one parameter plus a maximum parameter.
	ErrUnsupportedDistanceExpression = errors.New("unsupported distance expression")

	// ErrUnsupportedEmbeddingPath indicates a distance filter on a path
	// that does not terminate at an embedding column.
	ErrUnsupportedEmbeddingPath = errors.New("path does not terminate at an embedding")

	// ErrConvertDistanceParameter indicates a distance parameter that is
	// not a vector.
	ErrConvertDistanceParameter = errors.New("distance parameter must be a vector")

	// ErrMultipleEmbeddings indicates more than one embedding join in a
	// single statement.
	ErrMultipleEmbeddings = errors.New("only a single embedding filter is supported per query")
)

// FilterExpression is one operand of a filter: a query path or a
// literal parameter value.
type FilterExpression struct {
	Path      QueryPath
	Parameter any
}

// PathExpression wraps a query path as a filter operand.
func PathExpression(path QueryPath) *FilterExpression {
	return &FilterExpression{Path: path}
}

// ParameterExpression wraps a literal value as a filter operand.
func ParameterExpression(value any) *FilterExpression {
	return &FilterExpression{Parameter: value}
}

// InFilter matches a path against a set of values in one parameter.
type InFilter struct {
	Path   QueryPath
	Values any
}

// Filter is a boolean predicate over records. Exactly one field must
// be set; All and Any nest arbitrarily. A nil operand on Equal or
// NotEqual compiles to a NULL test.
type Filter struct {
	All             []*Filter
	Any             []*Filter
	Not             *Filter
	Equal           *[2]*FilterExpression
	NotEqual        *[2]*FilterExpression
	Greater         *[2]*FilterExpression
	GreaterOrEqual  *[2]*FilterExpression
	Less            *[2]*FilterExpression
	LessOrEqual     *[2]*FilterExpression
	StartsWith      *[2]*FilterExpression
	EndsWith        *[2]*FilterExpression
	ContainsSegment *[2]*FilterExpression
	CosineDistance  *[3]*FilterExpression
	In              *InFilter
}

func FilterAll(filters ...*Filter) *Filter {
	return &Filter{All: filters}
}

func FilterAny(filters ...*Filter) *Filter {
	return &Filter{Any: filters}
}

func FilterNot(filter *Filter) *Filter {
	return &Filter{Not: filter}
}

func FilterEqual(lhs, rhs *FilterExpression) *Filter {
	return &Filter{Equal: &[2]*FilterExpression{lhs, rhs}}
}

func FilterNotEqual(lhs, rhs *FilterExpression) *Filter {
	return &Filter{NotEqual: &[2]*FilterExpression{lhs, rhs}}
}

func FilterIn(path QueryPath, values any) *Filter {
	return &Filter{In: &InFilter{Path: path, Values: values}}
}

func FilterCosineDistance(lhs, rhs, max *FilterExpression) *Filter {
	return &Filter{CosineDistance: &[3]*FilterExpression{lhs, rhs, max}}
}

func (f *Filter) setFields() int {
	count := 0
	if f.All != nil {
		count++
	}
	if f.Any != nil {
		count++
	}
	if f.Not != nil {
		count++
	}
	for _, operands := range []*[2]*FilterExpression{
		f.Equal, f.NotEqual,
		f.Greater, f.GreaterOrEqual, f.Less, f.LessOrEqual,
		f.StartsWith, f.EndsWith, f.ContainsSegment,
	} {
		if operands != nil {
			count++
		}
	}
	if f.CosineDistance != nil {
		count++
	}
	if f.In != nil {
		count++
	}

	return count
}

// Validate checks that the filter tree is structurally sound before
// compilation.
func (f *Filter) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: filter is required", ErrInvalidFilter)
	}
	if n := f.setFields(); n != 1 {
		return fmt.Errorf("%w: exactly one variant must be set, got %d", ErrInvalidFilter, n)
	}

	switch {
	case f.All != nil:
		for _, sub := range f.All {
			if err := sub.Validate(); err != nil {
				return err
			}
		}
	case f.Any != nil:
		for _, sub := range f.Any {
			if err := sub.Validate(); err != nil {
				return err
			}
		}
	case f.Not != nil:
		return f.Not.Validate()
	case f.Equal != nil:
		if f.Equal[0] == nil && f.Equal[1] == nil {
			return fmt.Errorf("%w: equality needs at least one operand", ErrInvalidFilter)
		}
	case f.NotEqual != nil:
		if f.NotEqual[0] == nil && f.NotEqual[1] == nil {
			return fmt.Errorf("%w: equality needs at least one operand", ErrInvalidFilter)
		}
	case f.CosineDistance != nil:
		for _, operand := range f.CosineDistance {
			if operand == nil {
				return fmt.Errorf("%w: distance needs three operands", ErrInvalidFilter)
			}
		}
	case f.In != nil:
		if f.In.Path == nil {
			return fmt.Errorf("%w: in filter needs a path", ErrInvalidFilter)
		}
	default:
		for _, operands := range []*[2]*FilterExpression{
			f.Greater, f.GreaterOrEqual, f.Less, f.LessOrEqual,
			f.StartsWith, f.EndsWith, f.ContainsSegment,
		} {
			if operands == nil {
				continue
			}
			if operands[0] == nil || operands[1] == nil {
				return fmt.Errorf("%w: comparison needs two operands", ErrInvalidFilter)
			}
		}
	}

	return nil
}

// NewVersionedURLFilter matches the entity type identified by the
// given versioned URL.
func NewVersionedURLFilter(url models.VersionedURL) *Filter {
	return FilterAll(
		FilterEqual(PathExpression(EntityTypeBaseURLPath()), ParameterExpression(url.BaseURL)),
		FilterEqual(PathExpression(EntityTypeVersionPath()), ParameterExpression(int64(url.Version))),
	)
}

// NewBaseURLFilter matches every version of an entity type.
func NewBaseURLFilter(baseURL string) *Filter {
	return FilterEqual(PathExpression(EntityTypeBaseURLPath()), ParameterExpression(baseURL))
}

// NewLatestVersionFilter matches the highest version per base URL.
func NewLatestVersionFilter() *Filter {
	return FilterEqual(PathExpression(EntityTypeVersionPath()), ParameterExpression("latest"))
}

// NewEntityIDFilter matches one entity, including its draft lineage
// when the ID names one.
func NewEntityIDFilter(id models.EntityID) *Filter {
	filters := []*Filter{
		FilterEqual(PathExpression(EntityWebIDPath()), ParameterExpression(id.WebID)),
		FilterEqual(PathExpression(EntityUUIDPath()), ParameterExpression(id.EntityUUID)),
	}
	if id.IsDraft() {
		filters = append(filters, FilterEqual(PathExpression(EntityDraftIDPath()), ParameterExpression(id.DraftID)))
	}

	return FilterAll(filters...)
}

// NewEntityIDsFilter matches any of the given entities.
func NewEntityIDsFilter(ids []models.EntityID) *Filter {
	filters := make([]*Filter, len(ids))
	for i, id := range ids {
		filters[i] = NewEntityIDFilter(id)
	}

	return FilterAny(filters...)
}

// NewEntityUUIDsFilter matches entities by UUID across webs.
func NewEntityUUIDsFilter(uuids []uuid.UUID) *Filter {
	return FilterIn(EntityUUIDPath(), uuids)
}

// NewEntityEditionIDsFilter matches entities by their current edition.
func NewEntityEditionIDsFilter(editionIDs []uuid.UUID) *Filter {
	return FilterIn(EntityEditionIDPath(), editionIDs)
}

// pathSegment accepts both string and numeric JSON path tokens.
type pathSegment string

func (s *pathSegment) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*s = pathSegment(value)
		return nil
	}
	var value int64
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("%w: path segments must be strings or integers", ErrInvalidQueryPath)
	}
	*s = pathSegment(strconv.FormatInt(value, 10))

	return nil
}

// UnmarshalEntityFilter decodes a filter over entities from its JSON
// request form.
func UnmarshalEntityFilter(data []byte) (*Filter, error) {
	return unmarshalFilter(data, func(segments []string) (QueryPath, error) {
		return ParseEntityQueryPath(segments)
	})
}

// UnmarshalEntityTypeFilter decodes a filter over entity types from
// its JSON request form.
func UnmarshalEntityTypeFilter(data []byte) (*Filter, error) {
	return unmarshalFilter(data, func(segments []string) (QueryPath, error) {
		return ParseEntityTypeQueryPath(segments)
	})
}

func unmarshalFilter(data []byte, parsePath func([]string) (QueryPath, error)) (*Filter, error) {
	var raw struct {
		All             []json.RawMessage `json:"all"`
		Any             []json.RawMessage `json:"any"`
		Not             json.RawMessage   `json:"not"`
		Equal           []json.RawMessage `json:"equal"`
		NotEqual        []json.RawMessage `json:"notEqual"`
		Greater         []json.RawMessage `json:"greater"`
		GreaterOrEqual  []json.RawMessage `json:"greaterOrEqual"`
		Less            []json.RawMessage `json:"less"`
		LessOrEqual     []json.RawMessage `json:"lessOrEqual"`
		StartsWith      []json.RawMessage `json:"startsWith"`
		EndsWith        []json.RawMessage `json:"endsWith"`
		ContainsSegment []json.RawMessage `json:"containsSegment"`
		CosineDistance  []json.RawMessage `json:"cosineDistance"`
		In              json.RawMessage   `json:"in"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	filter := &Filter{}

	decodeList := func(raws []json.RawMessage) ([]*Filter, error) {
		filters := make([]*Filter, len(raws))
		for i, sub := range raws {
			parsed, err := unmarshalFilter(sub, parsePath)
			if err != nil {
				return nil, err
			}
			filters[i] = parsed
		}
		return filters, nil
	}

	decodePair := func(name string, raws []json.RawMessage) (*[2]*FilterExpression, error) {
		if len(raws) != 2 {
			return nil, fmt.Errorf("%w: %s needs two operands", ErrInvalidFilter, name)
		}
		var operands [2]*FilterExpression
		for i, sub := range raws {
			parsed, err := unmarshalExpression(sub, parsePath)
			if err != nil {
				return nil, err
			}
			operands[i] = parsed
		}
		return &operands, nil
	}

	var err error
	switch {
	case raw.All != nil:
		filter.All, err = decodeList(raw.All)
	case raw.Any != nil:
		filter.Any, err = decodeList(raw.Any)
	case raw.Not != nil:
		filter.Not, err = unmarshalFilter(raw.Not, parsePath)
	case raw.Equal != nil:
		filter.Equal, err = decodePair("equal", raw.Equal)
	case raw.NotEqual != nil:
		filter.NotEqual, err = decodePair("notEqual", raw.NotEqual)
	case raw.Greater != nil:
		filter.Greater, err = decodePair("greater", raw.Greater)
	case raw.GreaterOrEqual != nil:
		filter.GreaterOrEqual, err = decodePair("greaterOrEqual", raw.GreaterOrEqual)
	case raw.Less != nil:
		filter.Less, err = decodePair("less", raw.Less)
	case raw.LessOrEqual != nil:
		filter.LessOrEqual, err = decodePair("lessOrEqual", raw.LessOrEqual)
	case raw.StartsWith != nil:
		filter.StartsWith, err = decodePair("startsWith", raw.StartsWith)
	case raw.EndsWith != nil:
		filter.EndsWith, err = decodePair("endsWith", raw.EndsWith)
	case raw.ContainsSegment != nil:
		filter.ContainsSegment, err = decodePair("containsSegment", raw.ContainsSegment)
	case raw.CosineDistance != nil:
		if len(raw.CosineDistance) != 3 {
			return nil, fmt.Errorf("%w: cosineDistance needs three operands", ErrInvalidFilter)
		}
		var operands [3]*FilterExpression
		for i, sub := range raw.CosineDistance {
			operands[i], err = unmarshalExpression(sub, parsePath)
			if err != nil {
				return nil, err
			}
		}
		filter.CosineDistance = &operands
	case raw.In != nil:
		filter.In, err = unmarshalInFilter(raw.In, parsePath)
	default:
		return nil, fmt.Errorf("%w: no filter variant given", ErrInvalidFilter)
	}
	if err != nil {
		return nil, err
	}

	return filter, nil
}

func unmarshalExpression(data []byte, parsePath func([]string) (QueryPath, error)) (*FilterExpression, error) {
	if string(data) == "null" {
		return nil, nil
	}
	var raw struct {
		Path      []pathSegment   `json:"path"`
		Parameter json.RawMessage `json:"parameter"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if raw.Path != nil {
		segments := make([]string, len(raw.Path))
		for i, segment := range raw.Path {
			segments[i] = string(segment)
		}
		path, err := parsePath(segments)
		if err != nil {
			return nil, err
		}
		return PathExpression(path), nil
	}
	if raw.Parameter == nil {
		return nil, fmt.Errorf("%w: expression needs a path or a parameter", ErrInvalidFilter)
	}
	var value any
	if err := json.Unmarshal(raw.Parameter, &value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	return ParameterExpression(value), nil
}

func unmarshalInFilter(data []byte, parsePath func([]string) (QueryPath, error)) (*InFilter, error) {
	var raw struct {
		Path   []pathSegment `json:"path"`
		Values []any         `json:"values"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if raw.Path == nil {
		return nil, fmt.Errorf("%w: in filter needs a path", ErrInvalidFilter)
	}
	segments := make([]string, len(raw.Path))
	for i, segment := range raw.Path {
		segments[i] = string(segment)
	}
	path, err := parsePath(segments)
	if err != nil {
		return nil, err
	}

	return &InFilter{Path: path, Values: raw.Values}, nil
}
