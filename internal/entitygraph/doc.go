// Package entitygraph builds and queries the entity-relationship graph
// used for join-path resolution.
//
// The graph is a directed multigraph standing in for an undirected one:
// every relationship inserts a forward edge and a reverse edge with
// inverted cardinality, so breadth-first search only ever follows edges
// in their stored direction.
//
// NODE IDENTITY:
//
// Nodes live in an arena ([]model.Entity) and are addressed by stable
// integer indices with a name→index lookup. Indices never dangle and
// the graph shares cheaply across planning calls. No pointer-based
// nodes.
//
// IMPLICIT EDGES:
//
// Beyond declared relationships, construction synthesizes:
//   - fact → each grain source entity, OneToOne (the fact's identity is
//     its grain);
//   - fact → each included entity, ManyToOne forward / OneToMany
//     reverse, join columns discovered from relationships between the
//     fact's grain sources and the included entity, falling back to
//     relationships between other included entities (multi-hop
//     denormalization);
//   - fact ↔ dimension, derived when the dimension's source entity is
//     included in the fact;
//   - dimension ↔ its source entity, OneToOne.
//
// Any relationship carrying a role name is also recorded as a RoleAlias
// independent of edge creation.
//
// CONCURRENCY:
//
// A built graph is read concurrently by many simultaneous planning
// calls. AddSource and AddRelationship mutate in place and must be
// serialized against readers by the caller; the graph provides no
// internal locking.
package entitygraph
