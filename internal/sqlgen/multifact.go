package sqlgen

import (
	"fmt"
	"strings"

	"github.com/semlayer/lattice/internal/model"
)

// FactMeasure is one measure evaluated inside a fact's CTE.
type FactMeasure struct {
	Name   string
	Agg    model.Aggregation
	Column string
	Filter model.Expr
}

// FactAggregate describes one fact's pre-aggregation to the shared
// grain: its CTE alias, the join-key columns forming that grain, the
// measures to evaluate, and fact-local filters.
type FactAggregate struct {
	Entity   string
	Table    string
	CTEAlias string
	JoinKeys []string
	Measures []FactMeasure
	Filters  []model.Expr
}

// DimensionColumn is one projected attribute of a shared dimension.
type DimensionColumn struct {
	Column string
	Alias  string
}

// SharedDimension describes a dimension every fact resolves to: its
// table, its key column, the projected attributes, and the per-fact
// CTE key columns reaching it.
type SharedDimension struct {
	Name    string
	Table   string
	Key     string
	Columns []DimensionColumn
	// JoinKeys maps a fact's CTE alias to the CTE column joining this
	// dimension. A fact absent from the map does not resolve the
	// dimension.
	JoinKeys map[string]string
}

// MultiFactQuery is a resolved multi-fact request, assembled once per
// request and discarded after emission.
type MultiFactQuery struct {
	Facts         []FactAggregate
	Dimensions    []SharedDimension
	GlobalFilters []model.Expr
	OrderBy       []model.SortKey
	Limit         int
}

// Emitter emits the symmetric aggregate pattern for queries spanning
// multiple facts.
type Emitter struct{}

// NewEmitter creates a multi-fact emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Emit assembles the Query for a multi-fact request: one pre-aggregated
// CTE per fact, FULL OUTER JOINs between the CTEs, COALESCE-keyed
// dimension joins, and zero-defaulted measure projection.
func (e *Emitter) Emit(mfq MultiFactQuery) (Query, error) {
	if len(mfq.Facts) < 2 {
		return Query{}, fmt.Errorf("multi-fact emission requires at least 2 facts, got %d", len(mfq.Facts))
	}

	var q Query

	for _, fact := range mfq.Facts {
		cte, err := e.factCTE(fact, mfq.GlobalFilters)
		if err != nil {
			return Query{}, err
		}
		q.CTEs = append(q.CTEs, CTE{Name: fact.CTEAlias, Body: cte})
	}

	q.From = TableRef{Table: mfq.Facts[0].CTEAlias}
	for i := 1; i < len(mfq.Facts); i++ {
		q.Joins = append(q.Joins, JoinClause{
			Kind:  JoinFullOuter,
			Table: TableRef{Table: mfq.Facts[i].CTEAlias},
			On:    e.cteJoinCondition(mfq, i),
		})
	}

	for _, dim := range mfq.Dimensions {
		key, err := e.coalesceKey(mfq, dim)
		if err != nil {
			return Query{}, err
		}
		on := fmt.Sprintf("%s = %s.%s", key, dim.Name, dim.Key)
		q.Joins = append(q.Joins, JoinClause{
			Kind:  JoinInner,
			Table: TableRef{Table: dim.Table, Alias: dim.Name},
			On:    on,
		})
	}

	for _, dim := range mfq.Dimensions {
		for _, col := range dim.Columns {
			q.Select = append(q.Select, SelectItem{
				Expr:  fmt.Sprintf("%s.%s", dim.Name, col.Column),
				Alias: col.Alias,
			})
		}
	}
	for _, fact := range mfq.Facts {
		for _, m := range fact.Measures {
			q.Select = append(q.Select, SelectItem{
				Expr:  fmt.Sprintf("COALESCE(%s.%s, 0)", fact.CTEAlias, m.Name),
				Alias: m.Name,
			})
		}
	}

	for _, key := range mfq.OrderBy {
		q.OrderBy = append(q.OrderBy, OrderItem{
			Expr: key.Column,
			Desc: key.Direction == model.SortDesc,
		})
	}
	q.Limit = mfq.Limit

	return q, nil
}

// factCTE builds one fact's pre-aggregation: join keys plus aggregated
// measures, filtered by the fact's own filters and any applicable
// global filters, grouped by the join keys. Pre-aggregation to the
// shared grain happens here once per fact, never once per combination.
func (e *Emitter) factCTE(fact FactAggregate, global []model.Expr) (Query, error) {
	var cte Query
	cte.From = TableRef{Table: fact.Table}

	for _, key := range fact.JoinKeys {
		cte.Select = append(cte.Select, SelectItem{Expr: key})
		cte.GroupBy = append(cte.GroupBy, key)
	}

	for _, m := range fact.Measures {
		agg, err := FilteredAggExpr(m.Agg, m.Column, m.Filter, nil)
		if err != nil {
			return Query{}, fmt.Errorf("measure %s: %w", m.Name, err)
		}
		cte.Select = append(cte.Select, SelectItem{Expr: agg, Alias: m.Name})
	}

	for _, f := range fact.Filters {
		cond, err := LowerExpr(f, nil)
		if err != nil {
			return Query{}, err
		}
		cte.Where = append(cte.Where, cond)
	}
	for _, f := range global {
		if !filterApplies(f, fact) {
			continue
		}
		cond, err := LowerExpr(f, stripEntity)
		if err != nil {
			return Query{}, err
		}
		cte.Where = append(cte.Where, cond)
	}

	return cte, nil
}

// filterApplies reports whether a global filter can be pushed into a
// fact's CTE: its columns are unqualified or qualified by the fact's
// entity.
func filterApplies(expr model.Expr, fact FactAggregate) bool {
	factKey := model.NormalizeName(fact.Entity)
	applies := true
	walkColumns(expr, func(c model.ColumnRef) {
		if c.Entity != "" && model.NormalizeName(c.Entity) != factKey {
			applies = false
		}
	})
	return applies
}

func walkColumns(expr model.Expr, visit func(model.ColumnRef)) {
	switch e := expr.(type) {
	case model.Compare:
		visit(e.Column)
	case model.In:
		visit(e.Column)
	case model.NullCheck:
		visit(e.Column)
	case model.And:
		for _, sub := range e.Exprs {
			walkColumns(sub, visit)
		}
	case model.Or:
		for _, sub := range e.Exprs {
			walkColumns(sub, visit)
		}
	}
}

// stripEntity renders a column unqualified; inside a fact CTE the
// fact's columns need no prefix.
func stripEntity(c model.ColumnRef) string { return c.Column }

// cteJoinCondition builds the FULL OUTER JOIN condition between fact i
// and the facts already joined, over every shared dimension key pair
// both sides resolve. When more than one prior CTE resolves a key the
// prior side is COALESCEd, because after a FULL OUTER JOIN the key may
// be populated by only a subset of the joined CTEs. No shared key
// degenerates to a tautology.
func (e *Emitter) cteJoinCondition(mfq MultiFactQuery, i int) string {
	right := mfq.Facts[i]
	var conds []string

	for _, dim := range mfq.Dimensions {
		rightKey, ok := dim.JoinKeys[right.CTEAlias]
		if !ok {
			continue
		}
		var priors []string
		for j := 0; j < i; j++ {
			if k, ok := dim.JoinKeys[mfq.Facts[j].CTEAlias]; ok {
				priors = append(priors, fmt.Sprintf("%s.%s", mfq.Facts[j].CTEAlias, k))
			}
		}
		if len(priors) == 0 {
			continue
		}
		left := priors[0]
		if len(priors) > 1 {
			left = fmt.Sprintf("COALESCE(%s)", strings.Join(priors, ", "))
		}
		conds = append(conds, fmt.Sprintf("%s = %s.%s", left, right.CTEAlias, rightKey))
	}

	if len(conds) == 0 {
		// Tautology: the facts share no dimension key, so the join
		// degenerates to a cross combination. Callers are expected to
		// flag this upstream.
		return "1 = 1"
	}
	return strings.Join(conds, " AND ")
}

// coalesceKey renders COALESCE over every fact CTE key resolving the
// dimension, in fact order. A single resolving fact renders the bare
// key; a dimension resolving no fact cannot be joined.
func (e *Emitter) coalesceKey(mfq MultiFactQuery, dim SharedDimension) (string, error) {
	var keys []string
	for _, fact := range mfq.Facts {
		if k, ok := dim.JoinKeys[fact.CTEAlias]; ok {
			keys = append(keys, fmt.Sprintf("%s.%s", fact.CTEAlias, k))
		}
	}
	switch len(keys) {
	case 0:
		return "", fmt.Errorf("dimension %s resolves no fact CTE join key", dim.Name)
	case 1:
		return keys[0], nil
	default:
		return fmt.Sprintf("COALESCE(%s)", strings.Join(keys, ", ")), nil
	}
}
