// Package model defines the dimensional model consumed by the Lattice
// planner: sources, facts, dimensions, and the relationships between them.
//
// A Model is a snapshot. It is produced by an external loader (the CUE
// loader in internal/modelcue, or catalog introspection in
// internal/introspect), validated once, and then read concurrently by any
// number of planning calls. Nothing in this package mutates a Model after
// construction.
//
// ENTITY KINDS:
//
// Entities are a closed set of three kinds, dispatched exhaustively at
// every synthesis site:
//   - Source: a physical table or view.
//   - Fact: a measurable event stream with a declared grain.
//   - Dimension: a descriptive attribute set keyed off a source.
//
// The kind set is fixed. Do not add virtual dispatch; the planner relies
// on exhaustive switches over EntityKind.
//
// EXPRESSIONS:
//
// Filter expressions arrive as an already-parsed tree (the string-to-AST
// parser is an external collaborator). Expr is a sealed interface using
// the marker method pattern: only types in this package implement it,
// which enables exhaustive type switches in the SQL generator.
//
// ERRORS:
//
// Two typed error families cross the planner boundary:
//   - QueryError: resolution failures (unknown entity/column/measure,
//     unreachable or unsafe join path).
//   - PlanError: planning failures (logical, physical, cost, no valid
//     plans).
//
// Structural model defects are reported as ValidationError values from
// Validate, never as panics.
package model
