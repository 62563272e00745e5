package query

import (
	"strconv"
	"strings"
)

// Ordering is the sort direction of an ordered selection.
type Ordering int

const (
	OrderingAscending Ordering = iota
	OrderingDescending
)

func (o Ordering) sql() string {
	if o == OrderingDescending {
		return "DESC"
	}

	return "ASC"
}

// NullOrdering positions NULL values within an ordered selection.
// NullsDefault leaves the placement to the database.
type NullOrdering int

const (
	NullsDefault NullOrdering = iota
	NullsFirst
	NullsLast
)

func (n NullOrdering) sql() string {
	switch n {
	case NullsFirst:
		return "NULLS FIRST"
	case NullsLast:
		return "NULLS LAST"
	default:
		return ""
	}
}

// selectExpression is one entry of the SELECT list.
type selectExpression struct {
	expr  expression
	alias string
}

func (s selectExpression) transpile(b *strings.Builder) {
	s.expr.transpile(b)
	if s.alias != "" {
		b.WriteString(` AS "`)
		b.WriteString(s.alias)
		b.WriteByte('"')
	}
}

// joinExpression joins one aliased table instance into the statement.
// A spliced subquery replaces the table in the FROM clause while
// keeping its alias and ON conditions.
type joinExpression struct {
	joinType joinType
	table    aliasedTable
	subquery *selectStatement
	on       []condition
}

func (j *joinExpression) transpile(b *strings.Builder) {
	b.WriteString(j.joinType.sql())
	b.WriteByte(' ')
	if j.subquery != nil {
		b.WriteByte('(')
		j.subquery.transpile(b)
		b.WriteString(") AS ")
		j.table.transpile(b)
	} else {
		b.WriteByte('"')
		b.WriteString(string(j.table.table))
		b.WriteString(`" AS `)
		j.table.transpile(b)
	}
	b.WriteString(" ON ")
	if len(j.on) == 0 {
		b.WriteString("TRUE")
		return
	}
	for i, c := range j.on {
		if i > 0 {
			b.WriteString(" AND ")
		}
		c.transpile(b)
	}
}

// commonTableExpression is a named statement in the WITH clause.
type commonTableExpression struct {
	name      Table
	statement selectStatement
}

type withExpression struct {
	ctes []commonTableExpression
}

// upsert adds the statement under the given name, replacing an
// existing entry so repeated rewrites reuse a single expression.
func (w *withExpression) upsert(name Table, statement selectStatement) {
	for i := range w.ctes {
		if w.ctes[i].name == name {
			w.ctes[i].statement = statement
			return
		}
	}
	w.ctes = append(w.ctes, commonTableExpression{name: name, statement: statement})
}

func (w *withExpression) transpile(b *strings.Builder) {
	b.WriteString("WITH ")
	for i := range w.ctes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('"')
		b.WriteString(string(w.ctes[i].name))
		b.WriteString(`" AS (`)
		w.ctes[i].statement.transpile(b)
		b.WriteByte(')')
	}
}

// cursorCondition is one column of the pagination cursor together
// with the parameter holding the last seen value.
type cursorCondition struct {
	expr     expression
	param    expression
	ordering Ordering
}

// whereExpression collects the statement's conditions. Cursor columns
// are kept apart so they can be rendered as one tuple comparison.
type whereExpression struct {
	conditions []condition
	cursors    []cursorCondition
}

func (w *whereExpression) empty() bool {
	return len(w.conditions) == 0 && len(w.cursors) == 0
}

func (w *whereExpression) transpile(b *strings.Builder) {
	b.WriteString("WHERE ")
	for i, c := range w.conditions {
		if i > 0 {
			b.WriteString(" AND ")
		}
		c.transpile(b)
	}
	if len(w.cursors) == 0 {
		return
	}
	if len(w.conditions) > 0 {
		b.WriteString(" AND ")
	}
	w.cursorCondition().transpile(b)
}

func compareOp(o Ordering) string {
	if o == OrderingDescending {
		return "<"
	}

	return ">"
}

// cursorCondition renders the cursor columns as a row comparison when
// the sort directions agree and expands lexicographically otherwise.
func (w *whereExpression) cursorCondition() condition {
	uniform := true
	for _, c := range w.cursors[1:] {
		if c.ordering != w.cursors[0].ordering {
			uniform = false
			break
		}
	}
	if len(w.cursors) == 1 {
		c := w.cursors[0]
		return condCompare{op: compareOp(c.ordering), left: c.expr, right: c.param}
	}
	if uniform {
		row := condRowCompare{op: compareOp(w.cursors[0].ordering)}
		for _, c := range w.cursors {
			row.left = append(row.left, c.expr)
			row.right = append(row.right, c.param)
		}
		return row
	}

	last := w.cursors[len(w.cursors)-1]
	cond := condition(condCompare{op: compareOp(last.ordering), left: last.expr, right: last.param})
	for i := len(w.cursors) - 2; i >= 0; i-- {
		c := w.cursors[i]
		cond = condAny{
			condCompare{op: compareOp(c.ordering), left: c.expr, right: c.param},
			condAll{condEqual{left: c.expr, right: c.param}, cond},
		}
	}

	return cond
}

type orderByEntry struct {
	expr     expression
	ordering Ordering
	nulls    NullOrdering
}

type orderByExpression struct {
	entries []orderByEntry
}

func (o *orderByExpression) push(expr expression, ordering Ordering, nulls NullOrdering) {
	o.entries = append(o.entries, orderByEntry{expr: expr, ordering: ordering, nulls: nulls})
}

func (o *orderByExpression) insertFront(expr expression, ordering Ordering, nulls NullOrdering) {
	o.entries = append([]orderByEntry{{expr: expr, ordering: ordering, nulls: nulls}}, o.entries...)
}

func (o *orderByExpression) transpile(b *strings.Builder) {
	b.WriteString("ORDER BY ")
	for i, e := range o.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		e.expr.transpile(b)
		b.WriteByte(' ')
		b.WriteString(e.ordering.sql())
		if nulls := e.nulls.sql(); nulls != "" {
			b.WriteByte(' ')
			b.WriteString(nulls)
		}
	}
}

// fromClause names the base table. Spliced subqueries select from
// the bare table name, everything else from an aliased instance.
type fromClause struct {
	table   Table
	alias   Alias
	aliased bool
}

func (f fromClause) transpile(b *strings.Builder) {
	b.WriteByte('"')
	b.WriteString(string(f.table))
	b.WriteByte('"')
	if f.aliased {
		b.WriteString(" AS ")
		aliasedTable{table: f.table, alias: f.alias}.transpile(b)
	}
}

// selectStatement is the statement under construction. The base table
// plus the join list form the FROM clause in append order.
type selectStatement struct {
	with     withExpression
	distinct []expression
	selects  []selectExpression
	from     fromClause
	joins    []joinExpression
	where    whereExpression
	orderBy  orderByExpression
	groupBy  []expression
	limit    *int
}

func (s *selectStatement) transpile(b *strings.Builder) {
	if len(s.with.ctes) > 0 {
		s.with.transpile(b)
		b.WriteByte('\n')
	}
	b.WriteString("SELECT ")
	if len(s.distinct) > 0 {
		b.WriteString("DISTINCT ON(")
		for i, e := range s.distinct {
			if i > 0 {
				b.WriteString(", ")
			}
			e.transpile(b)
		}
		b.WriteString(") ")
	}
	for i, sel := range s.selects {
		if i > 0 {
			b.WriteString(", ")
		}
		sel.transpile(b)
	}
	b.WriteString("\nFROM ")
	s.from.transpile(b)
	for i := range s.joins {
		b.WriteByte('\n')
		s.joins[i].transpile(b)
	}
	if !s.where.empty() {
		b.WriteByte('\n')
		s.where.transpile(b)
	}
	if len(s.groupBy) > 0 {
		b.WriteString("\nGROUP BY ")
		for i, e := range s.groupBy {
			if i > 0 {
				b.WriteString(", ")
			}
			e.transpile(b)
		}
	}
	if len(s.orderBy.entries) > 0 {
		b.WriteByte('\n')
		s.orderBy.transpile(b)
	}
	if s.limit != nil {
		b.WriteString("\nLIMIT ")
		b.WriteString(strconv.Itoa(*s.limit))
	}
}
