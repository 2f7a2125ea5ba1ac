package planner

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/semlayer/lattice/internal/model"
	"github.com/semlayer/lattice/internal/sqlgen"
)

// planMultiFact assembles the resolved multi-fact structure and hands
// it to the symmetric-aggregate emitter. Facts are ordered by model
// declaration so emission is deterministic.
func (p *SqlPlanner) planMultiFact(req model.Request, factMeasures map[string][]model.Measure) (*Result, error) {
	var facts []model.Fact
	for _, f := range p.mdl.Facts {
		if _, ok := factMeasures[f.Name]; ok {
			facts = append(facts, f)
		}
	}

	dims, err := p.sharedDimensions(req, facts)
	if err != nil {
		return nil, err
	}

	mfq := sqlgen.MultiFactQuery{
		Dimensions:    dims,
		GlobalFilters: req.Filters,
		OrderBy:       req.OrderBy,
		Limit:         req.Limit,
	}

	for _, f := range facts {
		agg := sqlgen.FactAggregate{
			Entity:   f.Name,
			Table:    f.QualifiedTable(),
			CTEAlias: f.Name + "_agg",
		}
		for _, m := range factMeasures[f.Name] {
			agg.Measures = append(agg.Measures, sqlgen.FactMeasure{
				Name:   m.Name,
				Agg:    m.Agg,
				Column: m.SourceColumn,
				Filter: m.Filter,
			})
		}
		agg.JoinKeys = joinKeysFor(dims, agg.CTEAlias)
		mfq.Facts = append(mfq.Facts, agg)
	}

	q, err := p.emitter.Emit(mfq)
	if err != nil {
		return nil, model.NewPlanError(model.ErrCodeLogicalPlan, "multifact", err)
	}

	return &Result{
		ID:        uuid.New(),
		Query:     q,
		SQL:       q.Render(),
		MultiFact: true,
	}, nil
}

// sharedDimensions resolves every group-by entity to a shared
// dimension, finding each fact's join-key path to it. Per-fact paths
// must be safe; a fan-out path here would reintroduce the row
// duplication the symmetric aggregate pattern exists to avoid.
func (p *SqlPlanner) sharedDimensions(req model.Request, facts []model.Fact) ([]sqlgen.SharedDimension, error) {
	groupBy, err := p.resolveGroupBy(req.GroupBy)
	if err != nil {
		return nil, err
	}

	byEntity := make(map[string]*sqlgen.SharedDimension)
	var order []string

	for _, gb := range groupBy {
		key := model.NormalizeName(gb.Entity)
		if dim, ok := byEntity[key]; ok {
			dim.Columns = append(dim.Columns, sqlgen.DimensionColumn{Column: gb.Column, Alias: gb.Column})
			continue
		}

		ent, role, err := p.graph.ResolveEntityName(gb.Entity)
		if err != nil {
			return nil, err
		}
		name := ent.Name
		if role != nil {
			name = role.Role
		}

		dim := &sqlgen.SharedDimension{
			Name:     name,
			Table:    ent.QualifiedTable(),
			Columns:  []sqlgen.DimensionColumn{{Column: gb.Column, Alias: gb.Column}},
			JoinKeys: make(map[string]string),
		}

		for _, f := range facts {
			steps, err := p.graph.ValidateSafePath(f.Name, ent.Name)
			if err != nil {
				return nil, err
			}
			if len(steps) == 0 {
				continue
			}
			dim.JoinKeys[f.Name+"_agg"] = steps[0].FromColumn
			dim.Key = steps[len(steps)-1].ToColumn
		}
		if d, ok := p.mdl.DimensionByName(ent.Name); ok && d.Key != "" {
			dim.Key = d.Key
		}

		byEntity[key] = dim
		order = append(order, key)
	}

	dims := make([]sqlgen.SharedDimension, 0, len(order))
	for _, key := range order {
		dims = append(dims, *byEntity[key])
	}
	return dims, nil
}

// resolveGroupBy qualifies bare group-by columns against the model's
// dimensions. A column declared as an attribute of exactly one
// dimension resolves to it; anything else fails naming the column, so a
// grouping key is never dropped silently.
func (p *SqlPlanner) resolveGroupBy(refs []model.ColumnRef) ([]model.ColumnRef, error) {
	out := make([]model.ColumnRef, 0, len(refs))
	for _, gb := range refs {
		if gb.Entity != "" {
			out = append(out, gb)
			continue
		}

		var owners []string
		for _, d := range p.mdl.Dimensions {
			for _, attr := range d.Attributes {
				if model.NormalizeName(attr) == model.NormalizeName(gb.Column) {
					owners = append(owners, d.Name)
					break
				}
			}
		}

		switch len(owners) {
		case 1:
			out = append(out, model.ColumnRef{Entity: owners[0], Column: gb.Column})
		case 0:
			return nil, &model.QueryError{
				Code:    model.ErrCodeColumnNotFound,
				Message: "group-by column not declared on any dimension; qualify it with an entity",
				Column:  gb.Column,
			}
		default:
			return nil, &model.QueryError{
				Code:    model.ErrCodeColumnNotFound,
				Message: fmt.Sprintf("group-by column declared on dimensions %v; qualify it with an entity", owners),
				Column:  gb.Column,
			}
		}
	}
	return out, nil
}

// joinKeysFor collects a fact CTE's grouping keys across the shared
// dimensions, deduplicated and sorted for deterministic CTE output.
func joinKeysFor(dims []sqlgen.SharedDimension, cteAlias string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, d := range dims {
		if k, ok := d.JoinKeys[cteAlias]; ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
