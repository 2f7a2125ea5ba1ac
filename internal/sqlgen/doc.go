// Package sqlgen assembles dialect-agnostic Query objects and renders
// them to deterministic SQL text.
//
// The Query object is the planner's output sink: select list, FROM and
// JOIN clauses, WHERE, GROUP BY, ORDER BY, LIMIT, and named CTEs.
// Rendering is deterministic - same Query, same text - so golden tests
// can assert emitted SQL byte-for-byte.
//
// MULTI-FACT EMISSION:
//
// Emitter implements the symmetric aggregate pattern for requests
// spanning measures from two or more facts at potentially different
// native grains:
//
//  1. One CTE per fact pre-aggregates that fact to the shared grain.
//     Pre-aggregation happens once per fact, never once per
//     combination.
//  2. The per-fact CTEs combine with FULL OUTER JOIN (never inner) on
//     every shared join-key pair both sides resolve, so a key present
//     in only one fact still surfaces.
//  3. Shared dimensions join on COALESCE of the per-CTE keys - after a
//     FULL OUTER JOIN a key may be populated by only a subset of the
//     CTEs.
//  4. Measures project as COALESCE(cte.measure, 0) so unmatched facts
//     report zero, not NULL.
//
// Filter expressions lower from the model's parsed tree; IN lowers to
// an explicit equality list, and an empty IN list degenerates to a
// boolean literal reflecting negation.
package sqlgen
