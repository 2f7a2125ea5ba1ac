package sqlgen

import (
	"fmt"
	"strings"
)

// JoinKind selects the SQL join keyword.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinFullOuter
)

// String returns the SQL join keyword.
func (k JoinKind) String() string {
	switch k {
	case JoinLeft:
		return "LEFT JOIN"
	case JoinFullOuter:
		return "FULL OUTER JOIN"
	default:
		return "JOIN"
	}
}

// TableRef names a table or CTE, optionally aliased.
type TableRef struct {
	Table string
	Alias string
}

func (t TableRef) render() string {
	if t.Alias != "" && t.Alias != t.Table {
		return t.Table + " AS " + t.Alias
	}
	return t.Table
}

// SelectItem is one select-list entry: a rendered expression with an
// optional alias.
type SelectItem struct {
	Expr  string
	Alias string
}

func (s SelectItem) render() string {
	if s.Alias != "" && s.Alias != s.Expr {
		return s.Expr + " AS " + s.Alias
	}
	return s.Expr
}

// JoinClause is one JOIN of the FROM clause.
type JoinClause struct {
	Kind  JoinKind
	Table TableRef
	On    string
}

// OrderItem is one ORDER BY key.
type OrderItem struct {
	Expr string
	Desc bool
}

func (o OrderItem) render() string {
	if o.Desc {
		return o.Expr + " DESC"
	}
	return o.Expr
}

// CTE is a named intermediate result referenced later in the same
// statement.
type CTE struct {
	Name string
	Body Query
}

// Query is a dialect-agnostic SELECT statement. It is assembled by the
// planner and rendered to text by an output sink; Limit 0 means no
// LIMIT clause.
type Query struct {
	CTEs    []CTE
	Select  []SelectItem
	From    TableRef
	Joins   []JoinClause
	Where   []string
	GroupBy []string
	OrderBy []OrderItem
	Limit   int
}

// Render produces the deterministic SQL text: clauses joined by
// newlines, CTE bodies rendered inline.
func (q Query) Render() string {
	var b strings.Builder
	q.renderInto(&b, false)
	return b.String()
}

func (q Query) renderInto(b *strings.Builder, compact bool) {
	sep := "\n"
	if compact {
		sep = " "
	}

	if len(q.CTEs) > 0 {
		b.WriteString("WITH ")
		for i, cte := range q.CTEs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(cte.Name)
			b.WriteString(" AS (")
			cte.Body.renderInto(b, true)
			b.WriteString(")")
		}
		b.WriteString(sep)
	}

	b.WriteString("SELECT ")
	for i, item := range q.Select {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(item.render())
	}

	if q.From.Table != "" {
		b.WriteString(sep)
		b.WriteString("FROM ")
		b.WriteString(q.From.render())
	}

	for _, j := range q.Joins {
		b.WriteString(sep)
		fmt.Fprintf(b, "%s %s ON %s", j.Kind, j.Table.render(), j.On)
	}

	if len(q.Where) > 0 {
		b.WriteString(sep)
		b.WriteString("WHERE ")
		b.WriteString(strings.Join(q.Where, " AND "))
	}

	if len(q.GroupBy) > 0 {
		b.WriteString(sep)
		b.WriteString("GROUP BY ")
		b.WriteString(strings.Join(q.GroupBy, ", "))
	}

	if len(q.OrderBy) > 0 {
		b.WriteString(sep)
		b.WriteString("ORDER BY ")
		for i, o := range q.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(o.render())
		}
	}

	if q.Limit > 0 {
		b.WriteString(sep)
		fmt.Fprintf(b, "LIMIT %d", q.Limit)
	}
}
