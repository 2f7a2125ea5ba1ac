package logical

import (
	"github.com/semlayer/lattice/internal/entitygraph"
	"github.com/semlayer/lattice/internal/model"
)

// Planner builds logical plan trees from query requests.
type Planner struct {
	graph *entitygraph.Graph
	mdl   *model.Model
}

// NewPlanner creates a logical planner over a model snapshot and its
// graph.
func NewPlanner(g *entitygraph.Graph, m *model.Model) *Planner {
	return &Planner{graph: g, mdl: m}
}

// Build turns a request into a logical tree:
//
//	Scan/Join tree → Filter? → Aggregate? → Project → Sort? → Limit?
//
// Measures resolve against the first target entity; requesting a
// measure the target fact doesn't declare fails with MeasureNotFound.
func (p *Planner) Build(req model.Request) (Node, error) {
	if len(req.Targets) == 0 {
		return nil, model.NewEntityNotFound("")
	}

	tree, err := NewJoinBuilder(p.graph).BuildJoinTree(req.Targets)
	if err != nil {
		return nil, err
	}

	for _, f := range req.Filters {
		tree = &Filter{Input: tree, Pred: f}
	}

	measures, err := p.resolveMeasures(req)
	if err != nil {
		return nil, err
	}

	if len(measures) > 0 || len(req.GroupBy) > 0 {
		tree = &Aggregate{
			Input:    tree,
			GroupBy:  req.GroupBy,
			Measures: measures,
		}
	}

	tree = &Project{Input: tree, Items: p.projectItems(req, measures)}

	if len(req.OrderBy) > 0 {
		tree = &Sort{Input: tree, Keys: req.OrderBy}
	}
	if req.Limit > 0 {
		tree = &Limit{Input: tree, Count: req.Limit}
	}

	return tree, nil
}

// resolveMeasures looks each requested measure up on the first target
// entity. Planning here is single-fact by design; cross-fact requests
// are routed to the multi-fact emitter before reaching this layer.
func (p *Planner) resolveMeasures(req model.Request) ([]MeasureRef, error) {
	if len(req.Measures) == 0 {
		return nil, nil
	}

	fact, ok := p.mdl.FactByName(req.Targets[0])
	if !ok {
		return nil, model.NewMeasureNotFound(req.Measures[0])
	}

	refs := make([]MeasureRef, 0, len(req.Measures))
	for _, name := range req.Measures {
		m, ok := fact.MeasureByName(name)
		if !ok {
			return nil, model.NewMeasureNotFound(name)
		}
		refs = append(refs, MeasureRef{
			Name:   m.Name,
			Agg:    m.Agg,
			Column: m.SourceColumn,
			Filter: m.Filter,
		})
	}
	return refs, nil
}

func (p *Planner) projectItems(req model.Request, measures []MeasureRef) []ProjectItem {
	var items []ProjectItem
	for _, c := range req.Columns {
		items = append(items, ProjectItem{Column: c, Alias: c.Column})
	}
	for _, gb := range req.GroupBy {
		items = append(items, ProjectItem{Column: gb, Alias: gb.Column})
	}
	for _, m := range measures {
		items = append(items, ProjectItem{Measure: m.Name, Alias: m.Name})
	}
	return items
}
