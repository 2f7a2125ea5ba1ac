package physical

import (
	"fmt"

	"github.com/semlayer/lattice/internal/logical"
	"github.com/semlayer/lattice/internal/model"
)

// Candidate is one fully-costed physical plan alternative.
type Candidate struct {
	Root Node
	Est  CostEstimate
}

// Total returns the candidate's weighted total under the planner's
// weights.
func (c Candidate) Total(w Weights) float64 { return c.Est.Total(w) }

// Planner enumerates physical candidates for a logical tree.
type Planner struct {
	est *Estimator
}

// NewPlanner creates a physical planner over an estimator.
func NewPlanner(est *Estimator) *Planner {
	return &Planner{est: est}
}

// Weights returns the cost weights the planner ranks candidates with.
func (p *Planner) Weights() Weights {
	return p.est.Weights
}

// Enumerate produces every physical candidate for the logical tree.
// Scans fan out into FullScan/IndexScan, joins into HashJoin and
// NestedLoopJoin over the cross product of child candidates; the
// remaining nodes wrap each input candidate 1:1.
func (p *Planner) Enumerate(root logical.Node) ([]Candidate, error) {
	restricted := map[string]bool{}
	collectRestrictions(root, restricted)

	nodes, err := p.enumerate(root, restricted, true)
	if err != nil {
		return nil, err
	}
	cands := make([]Candidate, len(nodes))
	for i, n := range nodes {
		cands[i] = Candidate{Root: n, Est: n.Estimate()}
	}
	return cands, nil
}

// collectRestrictions records which entities an equality lookup can
// restrict. An equality under an unqualified column reference
// restricts the anchor (leftmost) scan, recorded under the empty key.
func collectRestrictions(n logical.Node, out map[string]bool) {
	switch node := n.(type) {
	case *logical.Filter:
		markRestriction(node.Pred, out)
		collectRestrictions(node.Input, out)
	case *logical.Join:
		collectRestrictions(node.Left, out)
		collectRestrictions(node.Right, out)
	case *logical.Aggregate:
		collectRestrictions(node.Input, out)
	case *logical.Project:
		collectRestrictions(node.Input, out)
	case *logical.Sort:
		collectRestrictions(node.Input, out)
	case *logical.Limit:
		collectRestrictions(node.Input, out)
	case *logical.Scan:
		// Leaf.
	}
}

func markRestriction(expr model.Expr, out map[string]bool) {
	switch e := expr.(type) {
	case model.Compare:
		if e.Op == model.OpEq {
			out[model.NormalizeName(e.Column.Entity)] = true
		}
	case model.In:
		if !e.Negated && len(e.Values) > 0 {
			out[model.NormalizeName(e.Column.Entity)] = true
		}
	case model.And:
		for _, sub := range e.Exprs {
			markRestriction(sub, out)
		}
	}
}

func (p *Planner) enumerate(n logical.Node, restricted map[string]bool, anchor bool) ([]Node, error) {
	switch node := n.(type) {
	case *logical.Scan:
		return p.enumerateScan(node, restricted, anchor), nil

	case *logical.Join:
		lefts, err := p.enumerate(node.Left, restricted, anchor)
		if err != nil {
			return nil, err
		}
		rights, err := p.enumerate(node.Right, restricted, false)
		if err != nil {
			return nil, err
		}
		var out []Node
		for _, l := range lefts {
			for _, r := range rights {
				for _, strategy := range []JoinStrategy{HashJoin, NestedLoopJoin} {
					out = append(out, &JoinExec{
						Left:        l,
						Right:       r,
						LeftEntity:  node.LeftEntity,
						RightEntity: node.RightEntity,
						LeftColumn:  node.LeftColumn,
						RightColumn: node.RightColumn,
						Cardinality: node.Cardinality,
						Strategy:    strategy,
						Est:         p.est.JoinCost(node.Cardinality, strategy, l.Estimate(), r.Estimate()),
					})
				}
			}
		}
		return out, nil

	case *logical.Filter:
		return p.wrap(node.Input, restricted, anchor, func(in Node) Node {
			return &FilterExec{Input: in, Pred: node.Pred, Est: p.est.FilterCost(in.Estimate())}
		})

	case *logical.Aggregate:
		return p.wrap(node.Input, restricted, anchor, func(in Node) Node {
			return &HashAggregateExec{
				Input:    in,
				GroupBy:  node.GroupBy,
				Measures: node.Measures,
				Est:      p.est.AggregateCost(in.Estimate()),
			}
		})

	case *logical.Project:
		return p.wrap(node.Input, restricted, anchor, func(in Node) Node {
			return &ProjectExec{Input: in, Items: node.Items, Est: p.est.ProjectCost(in.Estimate())}
		})

	case *logical.Sort:
		return p.wrap(node.Input, restricted, anchor, func(in Node) Node {
			return &SortExec{Input: in, Keys: node.Keys, Est: p.est.SortCost(in.Estimate())}
		})

	case *logical.Limit:
		return p.wrap(node.Input, restricted, anchor, func(in Node) Node {
			return &LimitExec{Input: in, Count: node.Count, Est: p.est.LimitCost(in.Estimate(), node.Count)}
		})

	default:
		return nil, model.NewPlanError(model.ErrCodePhysicalPlan, "physical",
			fmt.Errorf("unsupported logical node %T", n))
	}
}

func (p *Planner) enumerateScan(node *logical.Scan, restricted map[string]bool, anchor bool) []Node {
	out := []Node{&TableScanExec{
		Entity:   node.Entity,
		Role:     node.Role,
		Strategy: FullScan,
		Est:      p.est.ScanCost(node.Entity, FullScan),
	}}
	indexable := restricted[model.NormalizeName(node.Entity.Name)] || (anchor && restricted[""])
	if indexable {
		out = append(out, &TableScanExec{
			Entity:   node.Entity,
			Role:     node.Role,
			Strategy: IndexScan,
			Est:      p.est.ScanCost(node.Entity, IndexScan),
		})
	}
	return out
}

func (p *Planner) wrap(input logical.Node, restricted map[string]bool, anchor bool, build func(Node) Node) ([]Node, error) {
	children, err := p.enumerate(input, restricted, anchor)
	if err != nil {
		return nil, err
	}
	out := make([]Node, len(children))
	for i, c := range children {
		out[i] = build(c)
	}
	return out, nil
}

// SelectBest picks the candidate minimizing the weighted total. Ties
// resolve to the first candidate in input order; that is explicit
// policy, asserted by tests. An empty candidate set fails with
// NoValidPlans.
func (p *Planner) SelectBest(cands []Candidate) (Candidate, error) {
	if len(cands) == 0 {
		return Candidate{}, model.NewNoValidPlans("root")
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Total(p.est.Weights) < best.Total(p.est.Weights) {
			best = c
		}
	}
	return best, nil
}
