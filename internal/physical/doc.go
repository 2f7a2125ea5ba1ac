// Package physical enumerates concrete execution-strategy candidates
// for a logical plan and scores them with a multi-objective cost model.
//
// CANDIDATE ENUMERATION:
//
// Scans fan out into FullScan and, when a lookup can restrict the
// entity, IndexScan. Joins fan out into HashJoin and NestedLoopJoin as
// the cross product of their children's candidates. Filter, Aggregate,
// Project, Sort, and Limit currently wrap their input's candidates 1:1,
// but enumeration is written as the general cross product so those
// nodes can fan out later without restructuring.
//
// Several phases therefore emit exactly one candidate today. Cost
// comparison stays fully general regardless: candidate generation is
// the intended extension point.
//
// COST MODEL:
//
// CostEstimate carries rows out plus cpu, io, and memory components.
// The weighted total is cpu·1 + io·10 + memory·0.1 - io dominates by
// policy. The weights, the many-to-many fan-out dampening, and the
// large-table default are named, overridable constants with no
// statistical derivation; dependent tests assert their exact values,
// so change them deliberately.
package physical
