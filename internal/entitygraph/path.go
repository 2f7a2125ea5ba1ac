package entitygraph

import (
	"fmt"

	"github.com/semlayer/lattice/internal/model"
)

// PathStep is one hop of a join path. Cardinality is the stored
// cardinality of the traversed edge in its forward direction.
type PathStep struct {
	From        string
	To          string
	FromColumn  string
	ToColumn    string
	Cardinality model.Cardinality
}

// String returns the compact step notation used in diagnostics.
func (s PathStep) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s (%s)", s.From, s.FromColumn, s.To, s.ToColumn, s.Cardinality)
}

// FindPath runs a breadth-first search over forward edges from one
// entity to another and returns the ordered hop list. It fails with
// EntityNotFound when either endpoint is unknown and NoPathFound when
// the target is unreachable. O(V+E).
func (g *Graph) FindPath(from, to string) ([]PathStep, error) {
	src, ok := g.index[model.NormalizeName(from)]
	if !ok {
		return nil, model.NewEntityNotFound(from)
	}
	dst, ok := g.index[model.NormalizeName(to)]
	if !ok {
		return nil, model.NewEntityNotFound(to)
	}
	if src == dst {
		return nil, nil
	}

	// parent[i] is the edge index used to reach node i.
	parent := make(map[int]int, len(g.nodes))
	visited := make([]bool, len(g.nodes))
	visited[src] = true
	queue := []int{src}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, ei := range g.out[cur] {
			e := g.edges[ei]
			if visited[e.to] {
				continue
			}
			visited[e.to] = true
			parent[e.to] = ei
			if e.to == dst {
				return g.reconstruct(src, dst, parent), nil
			}
			queue = append(queue, e.to)
		}
	}

	return nil, model.NewNoPathFound(from, to)
}

func (g *Graph) reconstruct(src, dst int, parent map[int]int) []PathStep {
	var rev []PathStep
	for cur := dst; cur != src; {
		e := g.edges[parent[cur]]
		rev = append(rev, PathStep{
			From:        g.nodes[e.from].Name,
			To:          g.nodes[e.to].Name,
			FromColumn:  e.fromColumn,
			ToColumn:    e.toColumn,
			Cardinality: e.cardinality,
		})
		cur = e.from
	}
	steps := make([]PathStep, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		steps = append(steps, rev[i])
	}
	return steps
}

// ValidateSafePath finds a path and rejects it when any step fans out
// (OneToMany or ManyToMany in the forward direction). A safe path never
// multiplies rows.
func (g *Graph) ValidateSafePath(from, to string) ([]PathStep, error) {
	steps, err := g.FindPath(from, to)
	if err != nil {
		return nil, err
	}
	for _, s := range steps {
		if s.Cardinality.FansOut() {
			return nil, model.NewUnsafeJoinPath(from, to, fmt.Sprintf("%s->%s", s.From, s.To))
		}
	}
	return steps, nil
}

// InferGrain returns the entity from which every other candidate is
// reachable via a safe path. When no candidate qualifies the grain is
// ambiguous and reported, never guessed. Candidates are tried in input
// order and the first qualifying one wins.
func (g *Graph) InferGrain(entities []string) (string, error) {
	if len(entities) == 0 {
		return "", &model.QueryError{
			Code:    model.ErrCodeAmbiguousGrain,
			Message: "no candidate entities",
		}
	}
	for _, name := range entities {
		if _, ok := g.index[model.NormalizeName(name)]; !ok {
			return "", model.NewEntityNotFound(name)
		}
	}

	for _, candidate := range entities {
		reachesAll := true
		for _, other := range entities {
			if model.NormalizeName(other) == model.NormalizeName(candidate) {
				continue
			}
			if _, err := g.ValidateSafePath(candidate, other); err != nil {
				reachesAll = false
				break
			}
		}
		if reachesAll {
			return candidate, nil
		}
	}

	return "", &model.QueryError{
		Code:    model.ErrCodeAmbiguousGrain,
		Message: fmt.Sprintf("no entity reaches all of %v via safe paths", entities),
	}
}

// ResolveEntityName resolves a name that may be a role alias. For a
// role it returns the underlying dimension entity plus the alias
// record, so callers qualify generated SQL with the role name rather
// than the base entity. A plain entity name resolves to itself with a
// nil alias.
//
// Referencing a dimension by base name fails with AmbiguousRole when
// two or more roles reach it from the same entity.
func (g *Graph) ResolveEntityName(name string) (model.Entity, *model.RoleAlias, error) {
	key := model.NormalizeName(name)

	if alias, ok := g.roles[key]; ok {
		target, ok := g.Entity(alias.To)
		if !ok {
			return model.Entity{}, nil, model.NewEntityNotFound(alias.To)
		}
		aliasCopy := alias
		return target, &aliasCopy, nil
	}

	ent, ok := g.Entity(name)
	if !ok {
		return model.Entity{}, nil, model.NewEntityNotFound(name)
	}

	// A dimension reachable via two or more roles from the same entity
	// is ambiguous by base name.
	for _, roles := range g.roleTargets[key] {
		if len(roles) >= 2 {
			return model.Entity{}, nil, model.NewAmbiguousRole(ent.Name, roles)
		}
	}

	return ent, nil, nil
}
