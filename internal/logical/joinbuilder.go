package logical

import (
	"github.com/semlayer/lattice/internal/entitygraph"
	"github.com/semlayer/lattice/internal/model"
)

// JoinBuilder assembles left-deep join trees from graph paths.
type JoinBuilder struct {
	graph *entitygraph.Graph
}

// NewJoinBuilder creates a JoinBuilder over a built entity graph.
func NewJoinBuilder(g *entitygraph.Graph) *JoinBuilder {
	return &JoinBuilder{graph: g}
}

// BuildJoinTree builds a left-deep tree over the given entities in
// order. The tree is seeded with a Scan of the first entity; each
// subsequent entity is reached by a graph path from the current
// rightmost scanned entity, appending one Join per path step. Multi-hop
// paths automatically insert the intermediate joins.
//
// Fails with EntityNotFound or NoPathFound when a consecutive pair is
// unreachable.
func (b *JoinBuilder) BuildJoinTree(entities []string) (Node, error) {
	if len(entities) == 0 {
		return nil, model.NewEntityNotFound("")
	}

	first, role, err := b.graph.ResolveEntityName(entities[0])
	if err != nil {
		return nil, err
	}

	var tree Node = &Scan{Entity: first, Role: role}
	rightmost := first.Name
	joined := map[string]bool{model.NormalizeName(first.Name): true}

	for _, next := range entities[1:] {
		target, targetRole, err := b.graph.ResolveEntityName(next)
		if err != nil {
			return nil, err
		}
		if joined[model.NormalizeName(target.Name)] {
			continue
		}

		steps, err := b.graph.FindPath(rightmost, target.Name)
		if err != nil {
			return nil, err
		}

		for _, step := range steps {
			if joined[model.NormalizeName(step.To)] {
				rightmost = step.To
				continue
			}
			stepEntity, ok := b.graph.Entity(step.To)
			if !ok {
				return nil, model.NewEntityNotFound(step.To)
			}
			scan := &Scan{Entity: stepEntity}
			if model.NormalizeName(step.To) == model.NormalizeName(target.Name) {
				scan.Role = targetRole
			}
			tree = &Join{
				Left:        tree,
				Right:       scan,
				LeftEntity:  step.From,
				RightEntity: step.To,
				LeftColumn:  step.FromColumn,
				RightColumn: step.ToColumn,
				Cardinality: step.Cardinality,
			}
			joined[model.NormalizeName(step.To)] = true
			rightmost = step.To
		}
	}

	return tree, nil
}
