// Package logical turns a query request into an abstract operator
// tree.
//
// Node is a sealed interface using the marker method pattern: only
// types in this package implement it, which enables exhaustive type
// switches in the physical planner.
//
// Node types:
//   - Scan: read one entity
//   - Join: equi-join two subtrees on one column pair
//   - Filter: keep rows matching an expression
//   - Aggregate: group-by columns plus measure references
//   - Project: the output select list
//   - Sort: explicit output order
//   - Limit: row cap
//
// Trees are transient: built per query, handed to the physical
// planner, and discarded. Each node exclusively owns its children;
// nothing is shared between trees.
//
// Measures resolve against the first target entity - planning here is
// single-fact. Cross-fact combination is the multi-fact emitter's job
// (internal/sqlgen).
package logical
