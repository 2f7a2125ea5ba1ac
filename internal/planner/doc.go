// Package planner orchestrates the planning pipeline:
//
//	request → logical plan → physical candidates → cost selection → Query
//
// Requests whose measures span two or more facts are routed to the
// multi-fact emitter instead of the single-fact pipeline; combining
// grains with plain joins would duplicate rows.
//
// Every operation is a synchronous pure function over immutable
// inputs: no I/O, no retries, no internal locking. A planning failure
// is deterministic given the same model and request and is surfaced
// immediately as a typed QueryError or PlanError, never a panic. Each
// result carries a UUID so explain output and logs can reference a
// specific plan.
package planner
