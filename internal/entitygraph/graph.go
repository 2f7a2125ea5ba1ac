package entitygraph

import (
	"fmt"

	"github.com/semlayer/lattice/internal/model"
)

// edge is a directed edge in the arena. Edges are addressed by index;
// out holds per-node outgoing edge indices.
type edge struct {
	from        int
	to          int
	fromColumn  string
	toColumn    string
	cardinality model.Cardinality
	derived     bool
}

// Graph is the entity-relationship graph. Build it once per model
// snapshot; reads are safe to share across planning calls, mutation
// (AddSource, AddRelationship) must be serialized by the caller.
type Graph struct {
	nodes []model.Entity
	index map[string]int
	out   [][]int
	edges []edge

	roles map[string]model.RoleAlias
	// roleTargets maps a normalized dimension name to the role names
	// reaching it, grouped by the normalized from-entity. A dimension
	// with two or more roles from the same entity is ambiguous by base
	// name.
	roleTargets map[string]map[string][]string

	// deps is the fact/dimension → source-entity dependency subgraph
	// used by cycle detection, keyed by normalized name.
	deps map[string][]string

	snapshot *model.Model
}

// New returns an empty graph for incremental construction.
func New() *Graph {
	return &Graph{
		index:       make(map[string]int),
		roles:       make(map[string]model.RoleAlias),
		roleTargets: make(map[string]map[string][]string),
		deps:        make(map[string][]string),
	}
}

// Build constructs the graph from a model snapshot: one node per
// source, fact, and dimension, explicit edges for every relationship,
// and the synthesized implicit edges described in the package comment.
//
// Build tolerates dangling references (they surface from Validate);
// it only fails on duplicate entity names.
func Build(m *model.Model) (*Graph, error) {
	g := New()
	g.snapshot = m

	for _, s := range m.Sources {
		ent := s
		ent.Kind = model.KindSource
		if err := g.AddSource(ent); err != nil {
			return nil, err
		}
	}
	for _, f := range m.Facts {
		ent := model.Entity{
			Name:        f.Name,
			Schema:      f.Schema,
			Table:       f.Table,
			Kind:        model.KindFact,
			RowEstimate: f.RowEstimate,
		}
		if err := g.addNode(ent); err != nil {
			return nil, err
		}
	}
	for _, d := range m.Dimensions {
		ent := model.Entity{
			Name: d.Name,
			Kind: model.KindDimension,
		}
		if src, ok := m.SourceByName(d.SourceEntity); ok {
			ent.Schema = src.Schema
			ent.Table = src.Table
			ent.Columns = src.Columns
			ent.RowEstimate = src.RowEstimate
		}
		if err := g.addNode(ent); err != nil {
			return nil, err
		}
	}

	for _, r := range m.Relationships {
		if err := g.AddRelationship(r); err != nil {
			// Dangling endpoints are a structural defect reported by
			// Validate, not a construction failure.
			if model.IsQueryError(err, model.ErrCodeEntityNotFound) {
				continue
			}
			return nil, err
		}
	}

	g.synthesizeFactEdges(m)
	g.synthesizeDimensionEdges(m)

	return g, nil
}

// AddSource adds a source entity node for live introspection. The
// caller must serialize mutation against concurrent readers.
func (g *Graph) AddSource(e model.Entity) error {
	return g.addNode(e)
}

func (g *Graph) addNode(e model.Entity) error {
	key := model.NormalizeName(e.Name)
	if _, exists := g.index[key]; exists {
		return fmt.Errorf("entity %q already present in graph", e.Name)
	}
	g.nodes = append(g.nodes, e)
	g.out = append(g.out, nil)
	g.index[key] = len(g.nodes) - 1
	return nil
}

// AddRelationship inserts the forward edge and its mirrored reverse
// edge with inverted cardinality, deduplicated by endpoint/column pair.
// A relationship carrying a role name is also recorded as a RoleAlias,
// independent of edge creation. The caller must serialize mutation
// against concurrent readers.
func (g *Graph) AddRelationship(r model.Relationship) error {
	if r.Role != "" {
		g.recordRole(r)
	}

	from, ok := g.index[model.NormalizeName(r.From)]
	if !ok {
		return model.NewEntityNotFound(r.From)
	}
	to, ok := g.index[model.NormalizeName(r.To)]
	if !ok {
		return model.NewEntityNotFound(r.To)
	}

	g.addEdge(from, to, r.FromColumn, r.ToColumn, r.Cardinality, false)
	g.addEdge(to, from, r.ToColumn, r.FromColumn, r.Cardinality.Reverse(), false)
	return nil
}

func (g *Graph) recordRole(r model.Relationship) {
	roleKey := model.NormalizeName(r.Role)
	g.roles[roleKey] = model.RoleAlias{
		Role:       r.Role,
		From:       r.From,
		FromColumn: r.FromColumn,
		To:         r.To,
		ToColumn:   r.ToColumn,
	}

	target := model.NormalizeName(r.To)
	fromKey := model.NormalizeName(r.From)
	if g.roleTargets[target] == nil {
		g.roleTargets[target] = make(map[string][]string)
	}
	g.roleTargets[target][fromKey] = append(g.roleTargets[target][fromKey], r.Role)
}

// addEdge appends one directed edge unless an identical edge already
// exists for the endpoint/column pair.
func (g *Graph) addEdge(from, to int, fromCol, toCol string, card model.Cardinality, derived bool) {
	for _, ei := range g.out[from] {
		e := g.edges[ei]
		if e.to == to && e.fromColumn == fromCol && e.toColumn == toCol {
			return
		}
	}
	g.edges = append(g.edges, edge{
		from:        from,
		to:          to,
		fromColumn:  fromCol,
		toColumn:    toCol,
		cardinality: card,
		derived:     derived,
	})
	g.out[from] = append(g.out[from], len(g.edges)-1)
}

// addEdgePair inserts both directions of a derived edge.
func (g *Graph) addEdgePair(from, to string, fromCol, toCol string, card model.Cardinality) bool {
	fi, ok := g.index[model.NormalizeName(from)]
	if !ok {
		return false
	}
	ti, ok := g.index[model.NormalizeName(to)]
	if !ok {
		return false
	}
	g.addEdge(fi, ti, fromCol, toCol, card, true)
	g.addEdge(ti, fi, toCol, fromCol, card.Reverse(), true)
	return true
}

// synthesizeFactEdges adds the implicit fact edges: OneToOne to each
// grain source (the fact's identity is its grain) and ManyToOne to each
// included entity,
// with include join columns discovered from relationships off the
// fact's grain sources, falling back to relationships between other
// included entities.
func (g *Graph) synthesizeFactEdges(m *model.Model) {
	for _, f := range m.Facts {
		factKey := model.NormalizeName(f.Name)

		for _, gc := range f.Grain {
			if g.addEdgePair(f.Name, gc.SourceEntity, gc.SourceColumn, gc.SourceColumn, model.CardinalityOneToOne) {
				g.addDep(factKey, gc.SourceEntity)
			}
		}

		for _, inc := range f.Includes {
			fromCol, toCol, ok := g.findIncludeJoin(m, f, inc.Entity)
			if !ok {
				continue
			}
			if g.addEdgePair(f.Name, inc.Entity, fromCol, toCol, model.CardinalityManyToOne) {
				g.addDep(factKey, inc.Entity)
			}
		}
	}
}

// findIncludeJoin locates the join columns linking a fact to an
// included entity. Primary search: a declared relationship between any
// grain source and the include. Fallback: a relationship between
// another included entity and the include, which supports multi-hop
// denormalization.
func (g *Graph) findIncludeJoin(m *model.Model, f model.Fact, include string) (string, string, bool) {
	incKey := model.NormalizeName(include)

	inSet := func(name string, set map[string]bool) bool {
		return set[model.NormalizeName(name)]
	}

	grainSet := make(map[string]bool, len(f.Grain))
	for _, gc := range f.Grain {
		grainSet[model.NormalizeName(gc.SourceEntity)] = true
	}

	for _, r := range m.Relationships {
		if inSet(r.From, grainSet) && model.NormalizeName(r.To) == incKey {
			return r.FromColumn, r.ToColumn, true
		}
		if inSet(r.To, grainSet) && model.NormalizeName(r.From) == incKey {
			return r.ToColumn, r.FromColumn, true
		}
	}

	includeSet := make(map[string]bool, len(f.Includes))
	for _, inc := range f.Includes {
		if model.NormalizeName(inc.Entity) != incKey {
			includeSet[model.NormalizeName(inc.Entity)] = true
		}
	}
	for _, r := range m.Relationships {
		if inSet(r.From, includeSet) && model.NormalizeName(r.To) == incKey {
			return r.FromColumn, r.ToColumn, true
		}
		if inSet(r.To, includeSet) && model.NormalizeName(r.From) == incKey {
			return r.ToColumn, r.FromColumn, true
		}
	}
	return "", "", false
}

// synthesizeDimensionEdges links each dimension to its source entity
// and derives fact↔dimension edges for dimensions whose source entity
// is included in a fact.
func (g *Graph) synthesizeDimensionEdges(m *model.Model) {
	for _, d := range m.Dimensions {
		if g.addEdgePair(d.Name, d.SourceEntity, d.Key, d.Key, model.CardinalityOneToOne) {
			g.addDep(model.NormalizeName(d.Name), d.SourceEntity)
		}

		srcKey := model.NormalizeName(d.SourceEntity)
		for _, f := range m.Facts {
			included := false
			factCol := d.Key
			for _, inc := range f.Includes {
				if model.NormalizeName(inc.Entity) == srcKey {
					included = true
					if fc, _, ok := g.findIncludeJoin(m, f, inc.Entity); ok {
						factCol = fc
					}
					break
				}
			}
			if !included {
				continue
			}
			if g.addEdgePair(f.Name, d.Name, factCol, d.Key, model.CardinalityManyToOne) {
				g.addDep(model.NormalizeName(f.Name), d.Name)
			}
		}
	}
}

func (g *Graph) addDep(fromKey, to string) {
	toKey := model.NormalizeName(to)
	for _, existing := range g.deps[fromKey] {
		if existing == toKey {
			return
		}
	}
	g.deps[fromKey] = append(g.deps[fromKey], toKey)
}

// Entity returns the named entity, without role resolution.
func (g *Graph) Entity(name string) (model.Entity, bool) {
	i, ok := g.index[model.NormalizeName(name)]
	if !ok {
		return model.Entity{}, false
	}
	return g.nodes[i], true
}

// Role returns the alias record for a role name.
func (g *Graph) Role(name string) (model.RoleAlias, bool) {
	ra, ok := g.roles[model.NormalizeName(name)]
	return ra, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Validate checks the underlying model structurally and detects cyclic
// entity dependencies. It is idempotent: calling it twice returns the
// same result with no side effects.
func (g *Graph) Validate() []model.ValidationError {
	var errs []model.ValidationError
	if g.snapshot != nil {
		errs = append(errs, g.snapshot.Validate()...)
	}
	for _, cycle := range g.DetectCycles() {
		errs = append(errs, model.ValidationError{
			Code:    model.ErrCyclicDependency,
			Field:   cycle[0],
			Message: fmt.Sprintf("cyclic entity dependency: %v", cycle),
		})
	}
	return errs
}
