package planner

import (
	"github.com/google/uuid"

	"github.com/semlayer/lattice/internal/entitygraph"
	"github.com/semlayer/lattice/internal/logical"
	"github.com/semlayer/lattice/internal/model"
	"github.com/semlayer/lattice/internal/physical"
	"github.com/semlayer/lattice/internal/sqlgen"
)

// Result is one planned query. Logical and Chosen are retained for
// explain output; SQL is the rendered text handed to the caller.
type Result struct {
	ID         uuid.UUID
	Query      sqlgen.Query
	SQL        string
	Logical    logical.Node
	Candidates []physical.Candidate
	Chosen     physical.Candidate
	MultiFact  bool
}

// SqlPlanner turns query requests into SQL through the three planning
// phases. It is safe for concurrent use once constructed; it never
// mutates the model or graph.
type SqlPlanner struct {
	mdl      *model.Model
	graph    *entitygraph.Graph
	logicalp *logical.Planner
	physp    *physical.Planner
	emitter  *sqlgen.Emitter
}

// New creates a SqlPlanner over a model snapshot and its graph with
// default cost policy.
func New(m *model.Model, g *entitygraph.Graph) *SqlPlanner {
	return NewWithEstimator(m, g, physical.NewEstimator())
}

// NewWithEstimator creates a SqlPlanner with a custom cost estimator.
func NewWithEstimator(m *model.Model, g *entitygraph.Graph, est *physical.Estimator) *SqlPlanner {
	return &SqlPlanner{
		mdl:      m,
		graph:    g,
		logicalp: logical.NewPlanner(g, m),
		physp:    physical.NewPlanner(est),
		emitter:  sqlgen.NewEmitter(),
	}
}

// Weights returns the cost weights in effect for candidate ranking.
func (p *SqlPlanner) Weights() physical.Weights {
	return p.physp.Weights()
}

// Plan runs the full pipeline for one request. Requests with measures
// from two or more facts take the multi-fact path; everything else
// goes logical → physical → cost → Query.
func (p *SqlPlanner) Plan(req model.Request) (*Result, error) {
	factMeasures, err := p.groupMeasuresByFact(req.Measures)
	if err != nil {
		return nil, err
	}
	if len(factMeasures) >= 2 {
		return p.planMultiFact(req, factMeasures)
	}
	return p.planSingleFact(req)
}

func (p *SqlPlanner) planSingleFact(req model.Request) (*Result, error) {
	lplan, err := p.logicalp.Build(req)
	if err != nil {
		return nil, err
	}

	cands, err := p.physp.Enumerate(lplan)
	if err != nil {
		return nil, model.NewPlanError(model.ErrCodePhysicalPlan, "physical", err)
	}

	best, err := p.physp.SelectBest(cands)
	if err != nil {
		return nil, err
	}

	q, err := p.buildQuery(best.Root)
	if err != nil {
		return nil, model.NewPlanError(model.ErrCodeLogicalPlan, "emit", err)
	}

	return &Result{
		ID:         uuid.New(),
		Query:      q,
		SQL:        q.Render(),
		Logical:    lplan,
		Candidates: cands,
		Chosen:     best,
	}, nil
}

// groupMeasuresByFact resolves each requested measure to its declaring
// fact, preserving fact declaration order. An unknown measure fails
// with MeasureNotFound.
func (p *SqlPlanner) groupMeasuresByFact(measures []string) (map[string][]model.Measure, error) {
	out := make(map[string][]model.Measure)
	for _, name := range measures {
		found := false
		for _, f := range p.mdl.Facts {
			if m, ok := f.MeasureByName(name); ok {
				out[f.Name] = append(out[f.Name], m)
				found = true
				break
			}
		}
		if !found {
			return nil, model.NewMeasureNotFound(name)
		}
	}
	return out, nil
}
