package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/epochgraph/epochgraph/internal/temporal"
)

// tableHook identifies the conditions attached automatically whenever
// a table instance enters the statement.
type tableHook int

const (
	hookOntologyTemporal tableHook = iota
	hookEntityTemporal
)

// selection tracks one compiled select-list entry so repeated
// requests for the same path reuse it.
type selection struct {
	index    int
	expr     expression
	distinct bool
	ordered  bool
}

// SelectCompiler builds one parameterized SELECT over the graph
// schema. Filters and selection paths compile to join chains with
// equivalent joins folded together, and the query's temporal axes and
// draft visibility are attached to every versioned table they reach.
type SelectCompiler struct {
	statement  selectStatement
	parameters []any

	baseTable     Table
	temporalAxes  *temporal.QueryTemporalAxes
	includeDrafts bool
	hooks         map[Table]tableHook
	hookedTables  map[aliasedTable]struct{}
	selections    map[string]selection

	conditionIndex        int
	pinnedTimestampIndex  int
	variableIntervalIndex int

	cursorDisallowedReason string
}

// NewSelectCompiler starts a statement over the given base table. Nil
// axes skip temporal filtering entirely, for reads of the current
// database state.
func NewSelectCompiler(base Table, axes *temporal.QueryTemporalAxes, includeDrafts bool) *SelectCompiler {
	c := &SelectCompiler{
		baseTable:     base,
		temporalAxes:  axes,
		includeDrafts: includeDrafts,
		hooks:         make(map[Table]tableHook),
		hookedTables:  make(map[aliasedTable]struct{}),
		selections:    make(map[string]selection),
	}
	c.statement.from = fromClause{table: base, aliased: true}
	if axes != nil {
		c.hooks[TableOntologyTemporalMetadata] = hookOntologyTemporal
	}
	if axes != nil || !includeDrafts {
		c.hooks[TableEntityTemporalMetadata] = hookEntityTemporal
	}

	return c
}

// NewSelectCompilerWithAsterisk starts a statement selecting every
// column of the joined tables.
func NewSelectCompilerWithAsterisk(base Table, axes *temporal.QueryTemporalAxes, includeDrafts bool) *SelectCompiler {
	c := NewSelectCompiler(base, axes, includeDrafts)
	c.statement.selects = append(c.statement.selects, selectExpression{expr: asterisk{}})

	return c
}

// SetLimit caps the number of returned rows.
func (c *SelectCompiler) SetLimit(limit int) {
	c.statement.limit = &limit
}

// Compile renders the statement and returns it with its parameters in
// binding order.
func (c *SelectCompiler) Compile() (string, []any) {
	var b strings.Builder
	c.statement.transpile(&b)

	return b.String(), c.parameters
}

// AddFilter compiles a filter into the statement's WHERE clause.
func (c *SelectCompiler) AddFilter(filter *Filter) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	cond, err := c.compileFilter(filter)
	if err != nil {
		return err
	}
	c.conditionIndex++
	c.statement.where.conditions = append(c.statement.where.conditions, cond)

	return nil
}

// AddSelectionPath appends the path's value to the select list and
// returns its position. Repeated paths share one entry.
func (c *SelectCompiler) AddSelectionPath(path QueryPath) int {
	return c.addDistinctSelectionWithOrdering(path, false, nil, NullsDefault)
}

// AddOrderedSelectionPath appends the path's value, sorts the result
// set by it, and keeps rows distinct per sort key.
func (c *SelectCompiler) AddOrderedSelectionPath(path QueryPath, ordering Ordering, nulls NullOrdering) int {
	return c.addDistinctSelectionWithOrdering(path, true, &ordering, nulls)
}

// AddCursorSelection sorts the result set by the path and restricts
// it to rows strictly after the cursor value.
func (c *SelectCompiler) AddCursorSelection(path QueryPath, value any, ordering Ordering, nulls NullOrdering) (int, error) {
	if c.cursorDisallowedReason != "" {
		return 0, fmt.Errorf("%w: %s", ErrCursorDisallowed, c.cursorDisallowedReason)
	}
	expr, ptype := c.compilePathColumn(path)
	param, err := c.compileParameter(value, ptype)
	if err != nil {
		return 0, err
	}
	c.statement.where.cursors = append(c.statement.where.cursors, cursorCondition{expr: expr, param: param, ordering: ordering})

	return c.addDistinctSelectionWithOrdering(path, true, &ordering, nulls), nil
}

func (c *SelectCompiler) addDistinctSelectionWithOrdering(path QueryPath, distinct bool, ordering *Ordering, nulls NullOrdering) int {
	key := path.String()
	if s, ok := c.selections[key]; ok {
		if distinct && !s.distinct {
			c.statement.distinct = append(c.statement.distinct, s.expr)
			s.distinct = true
		}
		if ordering != nil && !s.ordered {
			c.statement.orderBy.push(s.expr, *ordering, nulls)
			s.ordered = true
		}
		c.selections[key] = s
		return s.index
	}

	expr, _ := c.compilePathColumn(path)
	c.statement.selects = append(c.statement.selects, selectExpression{expr: expr})
	if distinct {
		c.statement.distinct = append(c.statement.distinct, expr)
	}
	if ordering != nil {
		c.statement.orderBy.push(expr, *ordering, nulls)
	}
	s := selection{index: len(c.statement.selects) - 1, expr: expr, distinct: distinct, ordered: ordering != nil}
	c.selections[key] = s

	return s.index
}

// timeIndex returns the parameter position binding the requested
// axis, adding the parameter on first use. The variable axis binds
// the query interval, every other axis the pinned timestamp.
func (c *SelectCompiler) timeIndex(axis temporal.Axis) int {
	if c.temporalAxes.Variable.Axis == axis {
		if c.variableIntervalIndex == 0 {
			c.parameters = append(c.parameters, c.temporalAxes.VariableInterval().PostgresRange())
			c.variableIntervalIndex = len(c.parameters)
		}
		return c.variableIntervalIndex
	}
	if c.pinnedTimestampIndex == 0 {
		c.parameters = append(c.parameters, c.temporalAxes.PinnedTimestamp())
		c.pinnedTimestampIndex = len(c.parameters)
	}

	return c.pinnedTimestampIndex
}

func axisColumn(axis temporal.Axis) Column {
	if axis == temporal.AxisDecisionTime {
		return columnEntityDecisionTime
	}

	return columnEntityTransactionTime
}

// hookConditions yields the automatic conditions for one table
// instance, at most once per instance.
func (c *SelectCompiler) hookConditions(hook tableHook, table aliasedTable) []condition {
	if _, done := c.hookedTables[table]; done {
		return nil
	}
	c.hookedTables[table] = struct{}{}

	var conditions []condition
	switch hook {
	case hookEntityTemporal:
		if !c.includeDrafts {
			conditions = append(conditions, condEqual{left: columnEntityDraftID.aliased(table.alias)})
		}
		if c.temporalAxes != nil {
			conditions = append(conditions, condTimeContains{
				interval:  axisColumn(c.temporalAxes.Pinned.Axis).aliased(table.alias),
				timestamp: parameterRef{index: c.timeIndex(c.temporalAxes.Pinned.Axis)},
			})
			conditions = append(conditions, condOverlap{
				left:  axisColumn(c.temporalAxes.Variable.Axis).aliased(table.alias),
				right: parameterRef{index: c.timeIndex(c.temporalAxes.Variable.Axis)},
			})
		}
	case hookOntologyTemporal:
		column := columnOntologyTransactionTime.aliased(table.alias)
		param := parameterRef{index: c.timeIndex(temporal.AxisTransactionTime)}
		if c.temporalAxes.Variable.Axis == temporal.AxisTransactionTime {
			conditions = append(conditions, condOverlap{left: column, right: param})
		} else {
			conditions = append(conditions, condTimeContains{interval: column, timestamp: param})
		}
	}

	return conditions
}

// addJoinStatements walks a path's relations from the base table,
// reusing joins whose table and conditions already appear in the
// statement and numbering fresh instances of a table joining the same
// position with different conditions. It returns the alias holding
// the path's final table.
func (c *SelectCompiler) addJoinStatements(relations []Relation) Alias {
	current := aliasedTable{table: c.baseTable}
	if hook, ok := c.hooks[current.table]; ok {
		c.statement.where.conditions = append(c.statement.where.conditions, c.hookConditions(hook, current)...)
	}

	outerChain := false
	for _, relation := range relations {
		for _, fk := range relation.joins() {
			jt := fk.joinType
			if outerChain {
				jt = joinLeftOuter
			} else if jt != joinInner {
				outerChain = true
			}

			joined := aliasedTable{
				table: fk.table(),
				alias: Alias{Condition: c.conditionIndex, ChainDepth: current.alias.ChainDepth + 1},
			}
			conditions := fk.conditions(current.alias, joined.alias)

			found := false
			maxNumber := 0
			for i := len(c.statement.joins) - 1; i >= 0; i-- {
				existing := &c.statement.joins[i]
				if existing.table == joined && onPrefixMatches(existing.on, conditions) {
					current = existing.table
					found = true
					break
				}
				if existing.table.table == joined.table &&
					existing.table.alias.Condition == joined.alias.Condition &&
					existing.table.alias.ChainDepth == joined.alias.ChainDepth &&
					existing.table.alias.Number+1 > maxNumber {
					maxNumber = existing.table.alias.Number + 1
				}
			}
			if found {
				continue
			}
			if maxNumber > 0 {
				joined.alias.Number = maxNumber
				conditions = fk.conditions(current.alias, joined.alias)
			}
			conditions = append(conditions, relation.additionalConditions(joined)...)
			if hook, ok := c.hooks[joined.table]; ok {
				conditions = append(conditions, c.hookConditions(hook, joined)...)
			}
			c.statement.joins = append(c.statement.joins, joinExpression{joinType: jt, table: joined, on: conditions})
			current = joined
		}
	}

	return current.alias
}

func onPrefixMatches(on, prefix []condition) bool {
	if len(on) < len(prefix) {
		return false
	}
	for i := range prefix {
		if !sameCondition(on[i], prefix[i]) {
			return false
		}
	}

	return true
}

// compilePathColumn compiles a path's joins and returns the
// expression reading its terminating column together with the value
// family that expression produces.
func (c *SelectCompiler) compilePathColumn(path QueryPath) (expression, parameterType) {
	column, field := path.TerminatingColumn()

	jsonPathIndex := 0
	if field != nil && field.jsonPath != nil {
		c.parameters = append(c.parameters, field.jsonPath.String())
		jsonPathIndex = len(c.parameters)
	}

	alias := c.addJoinStatements(path.Relations())

	if hook, ok := c.hooks[column.Table]; ok {
		conditions := c.hookConditions(hook, aliasedTable{table: column.Table, alias: alias})
		c.statement.where.conditions = append(c.statement.where.conditions, conditions...)
	}

	ref := column.aliased(alias)
	if field == nil {
		return ref, column.parameterType()
	}
	if field.jsonPath != nil {
		return jsonPathQuery{
			target: ref,
			path:   castExpr{expr: castExpr{expr: parameterRef{index: jsonPathIndex}, typ: "text"}, typ: "jsonpath"},
		}, typeAny
	}

	return fieldAccess{target: ref, field: field.staticText}, typeText
}

// peekParameterType inspects an operand so the value on the other
// side can be coerced, without emitting anything.
func peekParameterType(fe *FilterExpression) parameterType {
	if fe == nil || fe.Path == nil {
		return typeAny
	}
	column, field := fe.Path.TerminatingColumn()
	if field != nil {
		if field.staticText != "" {
			return typeText
		}
		return typeAny
	}

	return column.parameterType()
}

func (c *SelectCompiler) compileFilterExpression(fe *FilterExpression, expected parameterType) (expression, error) {
	if fe == nil {
		return nil, nil
	}
	if fe.Path != nil {
		expr, _ := c.compilePathColumn(fe.Path)
		return expr, nil
	}
	if fe.Parameter == nil {
		return nil, fmt.Errorf("%w: expression needs a path or a parameter", ErrInvalidFilter)
	}

	return c.compileParameter(fe.Parameter, expected)
}

// compilePair compiles both operands left to right so parameters bind
// in the order they appear in the filter.
func (c *SelectCompiler) compilePair(operands *[2]*FilterExpression) (expression, expression, error) {
	lhs, err := c.compileFilterExpression(operands[0], peekParameterType(operands[1]))
	if err != nil {
		return nil, nil, err
	}
	rhs, err := c.compileFilterExpression(operands[1], peekParameterType(operands[0]))
	if err != nil {
		return nil, nil, err
	}

	return lhs, rhs, nil
}

func (c *SelectCompiler) compileComparison(op string, operands *[2]*FilterExpression) (condition, error) {
	if operands[0] == nil || operands[1] == nil {
		return nil, fmt.Errorf("%w: comparison needs two operands", ErrInvalidFilter)
	}
	lhs, rhs, err := c.compilePair(operands)
	if err != nil {
		return nil, err
	}

	return condCompare{op: op, left: lhs, right: rhs}, nil
}

// compileTextOperand compiles an operand of a string predicate,
// converting jsonb values to text.
func (c *SelectCompiler) compileTextOperand(fe *FilterExpression) (expression, error) {
	if fe == nil {
		return nil, fmt.Errorf("%w: string predicate needs two operands", ErrInvalidFilter)
	}
	if fe.Path != nil {
		expr, ptype := c.compilePathColumn(fe.Path)
		if ptype == typeAny {
			return jsonExtractText{target: expr}, nil
		}
		return expr, nil
	}
	if fe.Parameter == nil {
		return nil, fmt.Errorf("%w: expression needs a path or a parameter", ErrInvalidFilter)
	}

	return c.compileParameter(fe.Parameter, typeText)
}

func (c *SelectCompiler) compileTextPair(operands *[2]*FilterExpression) (expression, expression, error) {
	lhs, err := c.compileTextOperand(operands[0])
	if err != nil {
		return nil, nil, err
	}
	rhs, err := c.compileTextOperand(operands[1])
	if err != nil {
		return nil, nil, err
	}

	return lhs, rhs, nil
}

func (c *SelectCompiler) compileFilter(filter *Filter) (condition, error) {
	switch {
	case filter.All != nil:
		all := make(condAll, 0, len(filter.All))
		for _, sub := range filter.All {
			cond, err := c.compileFilter(sub)
			if err != nil {
				return nil, err
			}
			all = append(all, cond)
		}
		return all, nil
	case filter.Any != nil:
		anyOf := make(condAny, 0, len(filter.Any))
		for _, sub := range filter.Any {
			cond, err := c.compileFilter(sub)
			if err != nil {
				return nil, err
			}
			anyOf = append(anyOf, cond)
		}
		return anyOf, nil
	case filter.Not != nil:
		inner, err := c.compileFilter(filter.Not)
		if err != nil {
			return nil, err
		}
		return condNot{inner: inner}, nil
	case filter.Equal != nil:
		if cond, ok, err := c.compileLatestVersionFilter(filter.Equal, true); ok || err != nil {
			return cond, err
		}
		lhs, rhs, err := c.compilePair(filter.Equal)
		if err != nil {
			return nil, err
		}
		return condEqual{left: lhs, right: rhs}, nil
	case filter.NotEqual != nil:
		if cond, ok, err := c.compileLatestVersionFilter(filter.NotEqual, false); ok || err != nil {
			return cond, err
		}
		lhs, rhs, err := c.compilePair(filter.NotEqual)
		if err != nil {
			return nil, err
		}
		return condNotEqual{left: lhs, right: rhs}, nil
	case filter.Greater != nil:
		return c.compileComparison(">", filter.Greater)
	case filter.GreaterOrEqual != nil:
		return c.compileComparison(">=", filter.GreaterOrEqual)
	case filter.Less != nil:
		return c.compileComparison("<", filter.Less)
	case filter.LessOrEqual != nil:
		return c.compileComparison("<=", filter.LessOrEqual)
	case filter.StartsWith != nil:
		lhs, rhs, err := c.compileTextPair(filter.StartsWith)
		if err != nil {
			return nil, err
		}
		return condStartsWith{left: lhs, right: rhs}, nil
	case filter.EndsWith != nil:
		lhs, rhs, err := c.compileTextPair(filter.EndsWith)
		if err != nil {
			return nil, err
		}
		return condEndsWith{left: lhs, right: rhs}, nil
	case filter.ContainsSegment != nil:
		lhs, rhs, err := c.compileTextPair(filter.ContainsSegment)
		if err != nil {
			return nil, err
		}
		return condContainsSegment{left: lhs, right: rhs}, nil
	case filter.CosineDistance != nil:
		return c.compileCosineDistanceFilter(filter.CosineDistance)
	case filter.In != nil:
		return c.compileInFilter(filter.In)
	default:
		return nil, fmt.Errorf("%w: no filter variant given", ErrInvalidFilter)
	}
}

// compileLatestVersionFilter rewrites version = "latest" into a
// window over all versions sharing a base URL, exposed through a
// common table expression shadowing the version table. Returns false
// when the operands do not have that shape.
func (c *SelectCompiler) compileLatestVersionFilter(operands *[2]*FilterExpression, equal bool) (condition, bool, error) {
	var path QueryPath
	var parameter any
	switch {
	case operands[0] != nil && operands[0].Path != nil && operands[1] != nil && operands[1].Parameter != nil:
		path, parameter = operands[0].Path, operands[1].Parameter
	case operands[1] != nil && operands[1].Path != nil && operands[0] != nil && operands[0].Parameter != nil:
		path, parameter = operands[1].Path, operands[0].Parameter
	default:
		return nil, false, nil
	}
	if text, ok := parameter.(string); !ok || text != "latest" {
		return nil, false, nil
	}
	column, field := path.TerminatingColumn()
	if field != nil || column != columnOntologyVersion {
		return nil, false, nil
	}

	c.cursorDisallowedReason = "latest version filter"

	base := Alias{}
	cte := selectStatement{
		selects: []selectExpression{
			{expr: asterisk{}},
			{
				expr: windowExpr{
					expr:        maxExpr{arg: columnOntologyVersion.aliased(base)},
					partitionBy: []expression{columnOntologyBaseURL.aliased(base)},
				},
				alias: "latest_version",
			},
		},
		from: fromClause{table: TableOntologyIDs, aliased: true},
	}
	c.statement.with.upsert(TableOntologyIDs, cte)

	alias := c.addJoinStatements(path.Relations())
	version := columnOntologyVersion.aliased(alias)
	latest := columnOntologyLatestVersion.aliased(alias)
	if equal {
		return condEqual{left: version, right: latest}, true, nil
	}

	return condNotEqual{left: version, right: latest}, true, nil
}

// compileCosineDistanceFilter rewrites a distance filter so that the
// freshly joined embedding table is replaced by a grouped subquery
// computing the minimal distance per record, which the outer
// statement then orders and filters by.
func (c *SelectCompiler) compileCosineDistanceFilter(operands *[3]*FilterExpression) (condition, error) {
	c.cursorDisallowedReason = "distance function"

	var path QueryPath
	var vector *FilterExpression
	switch {
	case operands[0] != nil && operands[0].Path != nil && operands[1] != nil && operands[1].Parameter != nil:
		path, vector = operands[0].Path, operands[1]
	case operands[1] != nil && operands[1].Path != nil && operands[0] != nil && operands[0].Parameter != nil:
		path, vector = operands[1].Path, operands[0]
	default:
		return nil, ErrUnsupportedDistanceExpression
	}
	maxDistance := operands[2]
	if maxDistance == nil || maxDistance.Parameter == nil {
		return nil, ErrUnsupportedDistanceExpression
	}

	column, field := path.TerminatingColumn()
	if field != nil || (column != columnEntityEmbedding && column != columnTypeEmbedding) {
		return nil, ErrUnsupportedEmbeddingPath
	}

	alias := c.addJoinStatements(path.Relations())

	vectorText, ok := convertVector(vector.Parameter)
	if !ok {
		return nil, ErrConvertDistanceParameter
	}
	c.parameters = append(c.parameters, vectorText)
	vectorParam := parameterRef{index: len(c.parameters)}

	maxParam, err := c.compileParameter(maxDistance.Parameter, typeNumber)
	if err != nil {
		return nil, err
	}

	if len(c.statement.joins) == 0 {
		return nil, ErrMultipleEmbeddings
	}
	last := &c.statement.joins[len(c.statement.joins)-1]
	if last.subquery != nil || last.table.table != column.Table || last.table.alias != alias {
		return nil, ErrMultipleEmbeddings
	}

	keys := []Column{columnEntityEmbeddingsWebID, columnEntityEmbeddingsUUID}
	if column.Table == TableEntityTypeEmbeddings {
		keys = []Column{columnTypeEmbeddingsOntologyID}
	}
	sub := selectStatement{from: fromClause{table: column.Table}}
	for _, key := range keys {
		sub.selects = append(sub.selects, selectExpression{expr: key.unaliased()})
		sub.groupBy = append(sub.groupBy, key.unaliased())
	}
	sub.selects = append(sub.selects, selectExpression{
		expr:  minExpr{arg: cosineExpr{left: column.unaliased(), right: vectorParam}},
		alias: "distance",
	})
	last.subquery = &sub

	distance := Column{Table: column.Table, Name: "distance"}.aliased(alias)
	c.statement.orderBy.insertFront(distance, OrderingAscending, NullsDefault)
	c.statement.selects = append(c.statement.selects, selectExpression{expr: distance})
	c.statement.distinct = append(c.statement.distinct, distance)

	return condCompare{op: "<=", left: distance, right: maxParam}, nil
}

func (c *SelectCompiler) compileInFilter(in *InFilter) (condition, error) {
	if in.Path == nil {
		return nil, fmt.Errorf("%w: in filter needs a path", ErrInvalidFilter)
	}
	expr, ptype := c.compilePathColumn(in.Path)
	converted, err := convertParameterList(in.Values, ptype)
	if err != nil {
		return nil, err
	}
	c.parameters = append(c.parameters, converted)

	return condIn{left: expr, right: parameterRef{index: len(c.parameters)}}, nil
}

func (c *SelectCompiler) compileParameter(value any, expected parameterType) (expression, error) {
	converted, err := convertParameter(value, expected)
	if err != nil {
		return nil, err
	}
	c.parameters = append(c.parameters, converted)

	return parameterRef{index: len(c.parameters)}, nil
}

// convertParameter coerces a literal onto the value family of the
// column it is compared against, so that the driver binds a value of
// the type the statement was described with.
func convertParameter(value any, expected parameterType) (any, error) {
	switch expected {
	case typeUUID:
		switch v := value.(type) {
		case uuid.UUID:
			return v, nil
		case string:
			parsed, err := uuid.Parse(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrParameterConversion, err)
			}
			return parsed, nil
		}
	case typeInteger:
		switch v := value.(type) {
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case uint32:
			return int64(v), nil
		case float64:
			if v != float64(int64(v)) {
				return nil, fmt.Errorf("%w: %v is not an integer", ErrParameterConversion, v)
			}
			return int64(v), nil
		case json.Number:
			parsed, err := v.Int64()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrParameterConversion, err)
			}
			return parsed, nil
		}
	case typeNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
	case typeBoolean:
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case typeText:
		if v, ok := value.(string); ok {
			return v, nil
		}
	case typeTimestamp:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrParameterConversion, err)
			}
			return parsed, nil
		}
	case typeTimeInterval:
		switch v := value.(type) {
		case temporal.Interval:
			return v.PostgresRange(), nil
		case string:
			return v, nil
		}
	case typeVector:
		if text, ok := convertVector(value); ok {
			return text, nil
		}
	case typeAny:
		if raw, ok := value.(json.RawMessage); ok {
			return raw, nil
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParameterConversion, err)
		}
		return json.RawMessage(raw), nil
	}

	return nil, fmt.Errorf("%w: cannot use %T here", ErrParameterConversion, value)
}

// convertParameterList coerces the value set of an in filter to one
// array parameter.
func convertParameterList(values any, expected parameterType) (any, error) {
	switch expected {
	case typeUUID:
		switch v := values.(type) {
		case []uuid.UUID:
			return v, nil
		case []string:
			return parseUUIDList(v)
		case []any:
			texts := make([]string, len(v))
			for i, item := range v {
				text, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("%w: cannot use %T in a uuid list", ErrParameterConversion, item)
				}
				texts[i] = text
			}
			return parseUUIDList(texts)
		}
	case typeInteger:
		switch v := values.(type) {
		case []int64:
			return v, nil
		case []int:
			list := make([]int64, len(v))
			for i, n := range v {
				list[i] = int64(n)
			}
			return list, nil
		case []any:
			list := make([]int64, len(v))
			for i, item := range v {
				converted, err := convertParameter(item, typeInteger)
				if err != nil {
					return nil, err
				}
				list[i] = converted.(int64)
			}
			return list, nil
		}
	case typeText:
		switch v := values.(type) {
		case []string:
			return v, nil
		case []any:
			list := make([]string, len(v))
			for i, item := range v {
				text, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("%w: cannot use %T in a text list", ErrParameterConversion, item)
				}
				list[i] = text
			}
			return list, nil
		}
	}

	return nil, fmt.Errorf("%w: cannot use %T as a value list", ErrParameterConversion, values)
}

func parseUUIDList(texts []string) ([]uuid.UUID, error) {
	list := make([]uuid.UUID, len(texts))
	for i, text := range texts {
		parsed, err := uuid.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParameterConversion, err)
		}
		list[i] = parsed
	}

	return list, nil
}

// formatVector renders a vector in pgvector's text form, the same
// encoding used when embeddings are written.
func formatVector(values []float32) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}

	return "[" + strings.Join(parts, ",") + "]"
}

func convertVector(value any) (string, bool) {
	switch v := value.(type) {
	case []float32:
		return formatVector(v), true
	case []float64:
		vec := make([]float32, len(v))
		for i, f := range v {
			vec[i] = float32(f)
		}
		return formatVector(vec), true
	case []any:
		vec := make([]float32, len(v))
		for i, item := range v {
			f, ok := item.(float64)
			if !ok {
				return "", false
			}
			vec[i] = float32(f)
		}
		return formatVector(vec), true
	default:
		return "", false
	}
}
