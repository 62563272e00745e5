package query

import (
	"strconv"
	"strings"
)

// transpiler renders a SQL fragment into the statement being built.
type transpiler interface {
	transpile(b *strings.Builder)
}

// expression is a value-producing fragment: a column, a parameter, a
// function call.
type expression interface {
	transpiler
	expressionNode()
}

// condition is a boolean fragment usable in WHERE and ON clauses.
type condition interface {
	transpiler
	conditionNode()
}

// columnRef references a column, qualified with the join alias of the
// table instance it belongs to. Unaliased references are used inside
// spliced subqueries only.
type columnRef struct {
	column  Column
	alias   Alias
	aliased bool
}

func (columnRef) expressionNode() {}

func (c columnRef) transpile(b *strings.Builder) {
	b.WriteByte('"')
	if c.aliased {
		b.WriteString(c.alias.name(c.column.Table))
	} else {
		b.WriteString(string(c.column.Table))
	}
	b.WriteString(`"."`)
	b.WriteString(c.column.Name)
	b.WriteByte('"')
}

// parameterRef renders a 1-based statement parameter.
type parameterRef struct {
	index int
}

func (parameterRef) expressionNode() {}

func (p parameterRef) transpile(b *strings.Builder) {
	b.WriteByte('$')
	b.WriteString(strconv.Itoa(p.index))
}

type intConstant int

func (intConstant) expressionNode() {}

func (i intConstant) transpile(b *strings.Builder) {
	b.WriteString(strconv.Itoa(int(i)))
}

type asterisk struct{}

func (asterisk) expressionNode() {}

func (asterisk) transpile(b *strings.Builder) {
	b.WriteByte('*')
}

type minExpr struct {
	arg expression
}

func (minExpr) expressionNode() {}

func (m minExpr) transpile(b *strings.Builder) {
	b.WriteString("MIN(")
	m.arg.transpile(b)
	b.WriteByte(')')
}

type maxExpr struct {
	arg expression
}

func (maxExpr) expressionNode() {}

func (m maxExpr) transpile(b *strings.Builder) {
	b.WriteString("MAX(")
	m.arg.transpile(b)
	b.WriteByte(')')
}

// cosineExpr is the pgvector cosine distance operator.
type cosineExpr struct {
	left  expression
	right expression
}

func (cosineExpr) expressionNode() {}

func (c cosineExpr) transpile(b *strings.Builder) {
	c.left.transpile(b)
	b.WriteString(" <=> ")
	c.right.transpile(b)
}

// windowExpr renders an aggregate over a window partition.
type windowExpr struct {
	expr        expression
	partitionBy []expression
}

func (windowExpr) expressionNode() {}

func (w windowExpr) transpile(b *strings.Builder) {
	w.expr.transpile(b)
	b.WriteString(" OVER (PARTITION BY ")
	for i, p := range w.partitionBy {
		if i > 0 {
			b.WriteString(", ")
		}
		p.transpile(b)
	}
	b.WriteByte(')')
}

type castExpr struct {
	expr expression
	typ  string
}

func (castExpr) expressionNode() {}

func (c castExpr) transpile(b *strings.Builder) {
	b.WriteByte('(')
	c.expr.transpile(b)
	b.WriteString("::")
	b.WriteString(c.typ)
	b.WriteByte(')')
}

// jsonPathQuery extracts the first jsonb value matched by a jsonpath.
type jsonPathQuery struct {
	target expression
	path   expression
}

func (jsonPathQuery) expressionNode() {}

func (j jsonPathQuery) transpile(b *strings.Builder) {
	b.WriteString("jsonb_path_query_first(")
	j.target.transpile(b)
	b.WriteString(", ")
	j.path.transpile(b)
	b.WriteByte(')')
}

// fieldAccess extracts a top-level jsonb field as text.
type fieldAccess struct {
	target expression
	field  string
}

func (fieldAccess) expressionNode() {}

func (f fieldAccess) transpile(b *strings.Builder) {
	f.target.transpile(b)
	b.WriteString("->>'")
	b.WriteString(f.field)
	b.WriteByte('\'')
}

// jsonExtractText converts a jsonb expression to text so that string
// functions apply to it.
type jsonExtractText struct {
	target expression
}

func (jsonExtractText) expressionNode() {}

func (j jsonExtractText) transpile(b *strings.Builder) {
	b.WriteString("((")
	j.target.transpile(b)
	b.WriteString(") #>> '{}'::text[])")
}

type condAll []condition

func (condAll) conditionNode() {}

func (c condAll) transpile(b *strings.Builder) {
	if len(c) == 0 {
		b.WriteString("TRUE")
		return
	}
	for i, sub := range c {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteByte('(')
		sub.transpile(b)
		b.WriteByte(')')
	}
}

type condAny []condition

func (condAny) conditionNode() {}

func (c condAny) transpile(b *strings.Builder) {
	if len(c) == 0 {
		b.WriteString("FALSE")
		return
	}
	if len(c) > 1 {
		b.WriteByte('(')
	}
	for i, sub := range c {
		if i > 0 {
			b.WriteString(" OR ")
		}
		b.WriteByte('(')
		sub.transpile(b)
		b.WriteByte(')')
	}
	if len(c) > 1 {
		b.WriteByte(')')
	}
}

type condNot struct {
	inner condition
}

func (condNot) conditionNode() {}

func (c condNot) transpile(b *strings.Builder) {
	b.WriteString("NOT(")
	c.inner.transpile(b)
	b.WriteByte(')')
}

// condEqual compares two expressions. A nil operand turns the
// comparison into an IS NULL test on the other side.
type condEqual struct {
	left  expression
	right expression
}

func (condEqual) conditionNode() {}

func (c condEqual) transpile(b *strings.Builder) {
	switch {
	case c.left == nil:
		c.right.transpile(b)
		b.WriteString(" IS NULL")
	case c.right == nil:
		c.left.transpile(b)
		b.WriteString(" IS NULL")
	default:
		c.left.transpile(b)
		b.WriteString(" = ")
		c.right.transpile(b)
	}
}

type condNotEqual struct {
	left  expression
	right expression
}

func (condNotEqual) conditionNode() {}

func (c condNotEqual) transpile(b *strings.Builder) {
	switch {
	case c.left == nil:
		c.right.transpile(b)
		b.WriteString(" IS NOT NULL")
	case c.right == nil:
		c.left.transpile(b)
		b.WriteString(" IS NOT NULL")
	default:
		c.left.transpile(b)
		b.WriteString(" != ")
		c.right.transpile(b)
	}
}

type condCompare struct {
	op    string
	left  expression
	right expression
}

func (condCompare) conditionNode() {}

func (c condCompare) transpile(b *strings.Builder) {
	c.left.transpile(b)
	b.WriteByte(' ')
	b.WriteString(c.op)
	b.WriteByte(' ')
	c.right.transpile(b)
}

// condRowCompare compares tuples of expressions, used for cursor
// pagination over a compound sort key.
type condRowCompare struct {
	op    string
	left  []expression
	right []expression
}

func (condRowCompare) conditionNode() {}

func (c condRowCompare) transpile(b *strings.Builder) {
	b.WriteByte('(')
	for i, e := range c.left {
		if i > 0 {
			b.WriteString(", ")
		}
		e.transpile(b)
	}
	b.WriteString(") ")
	b.WriteString(c.op)
	b.WriteString(" (")
	for i, e := range c.right {
		if i > 0 {
			b.WriteString(", ")
		}
		e.transpile(b)
	}
	b.WriteByte(')')
}

type condIn struct {
	left  expression
	right expression
}

func (condIn) conditionNode() {}

func (c condIn) transpile(b *strings.Builder) {
	c.left.transpile(b)
	b.WriteString(" = ANY(")
	c.right.transpile(b)
	b.WriteByte(')')
}

// condTimeContains tests a range column for containment of a
// timestamp parameter.
type condTimeContains struct {
	interval  expression
	timestamp expression
}

func (condTimeContains) conditionNode() {}

func (c condTimeContains) transpile(b *strings.Builder) {
	c.interval.transpile(b)
	b.WriteString(" @> ")
	c.timestamp.transpile(b)
	b.WriteString("::TIMESTAMPTZ")
}

// condOverlap tests two ranges for overlap.
type condOverlap struct {
	left  expression
	right expression
}

func (condOverlap) conditionNode() {}

func (c condOverlap) transpile(b *strings.Builder) {
	c.left.transpile(b)
	b.WriteString(" && ")
	c.right.transpile(b)
}

type condStartsWith struct {
	left  expression
	right expression
}

func (condStartsWith) conditionNode() {}

func (c condStartsWith) transpile(b *strings.Builder) {
	b.WriteString("starts_with(")
	c.left.transpile(b)
	b.WriteString(", ")
	c.right.transpile(b)
	b.WriteByte(')')
}

type condEndsWith struct {
	left  expression
	right expression
}

func (condEndsWith) conditionNode() {}

func (c condEndsWith) transpile(b *strings.Builder) {
	b.WriteString("right(")
	c.left.transpile(b)
	b.WriteString(", length(")
	c.right.transpile(b)
	b.WriteString(")) = ")
	c.right.transpile(b)
}

type condContainsSegment struct {
	left  expression
	right expression
}

func (condContainsSegment) conditionNode() {}

func (c condContainsSegment) transpile(b *strings.Builder) {
	b.WriteString("strpos(")
	c.left.transpile(b)
	b.WriteString(", ")
	c.right.transpile(b)
	b.WriteString(") > 0")
}

// sameCondition reports whether two ON conditions are the same
// column equality. Join deduplication only ever compares the
// foreign-key equalities at the head of an ON clause.
func sameCondition(a, b condition) bool {
	ae, ok := a.(condEqual)
	if !ok {
		return false
	}
	be, ok := b.(condEqual)
	if !ok {
		return false
	}

	return ae == be
}
