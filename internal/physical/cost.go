package physical

import (
	"math"

	"github.com/semlayer/lattice/internal/model"
)

// Policy constants. None of these has a statistical derivation; they
// are tuning knobs held as named values because dependent tests assert
// them exactly.
const (
	// DefaultTableRows is the large-table fallback used when an entity
	// carries no row-count metadata, so planning always completes.
	DefaultTableRows = 1_000_000

	// IndexScanFraction is the share of rows an index lookup is assumed
	// to read. An index scan is considered usable whenever a lookup can
	// restrict to at most this fraction.
	IndexScanFraction = 0.1

	// FilterSelectivity is the assumed share of rows surviving a
	// filter, absent column statistics.
	FilterSelectivity = 0.1

	// AggregateReduction is the assumed output/input row ratio of a
	// group-by, absent column statistics.
	AggregateReduction = 0.1
)

// Weights are the cost-component weights of the weighted total. IO
// dominates by policy.
type Weights struct {
	CPU    float64
	IO     float64
	Memory float64
}

// DefaultWeights is the documented policy: cpu·1 + io·10 + memory·0.1.
var DefaultWeights = Weights{CPU: 1.0, IO: 10.0, Memory: 0.1}

// CostEstimate scores one physical plan candidate.
//
//	Rows   - estimated rows out of the node
//	CPU    - rows processed
//	IO     - rows read from storage
//	Memory - working-set size (hash aggregates and joins)
type CostEstimate struct {
	Rows   float64
	CPU    float64
	IO     float64
	Memory float64
}

// Total collapses the estimate under the given weights.
func (c CostEstimate) Total(w Weights) float64 {
	return c.CPU*w.CPU + c.IO*w.IO + c.Memory*w.Memory
}

// Estimator computes cost estimates. The zero value is unusable; use
// NewEstimator, then override fields to tune policy.
type Estimator struct {
	Weights          Weights
	DefaultTableRows float64
}

// NewEstimator returns an estimator with the default policy.
func NewEstimator() *Estimator {
	return &Estimator{
		Weights:          DefaultWeights,
		DefaultTableRows: DefaultTableRows,
	}
}

// TableRows returns the entity's row estimate, substituting the
// large-table default when metadata is missing.
func (e *Estimator) TableRows(ent model.Entity) float64 {
	if ent.RowEstimate > 0 {
		return float64(ent.RowEstimate)
	}
	return e.DefaultTableRows
}

// ScanCost estimates a table scan under a strategy. An index scan
// reads IndexScanFraction of the full-scan row estimate.
func (e *Estimator) ScanCost(ent model.Entity, strategy ScanStrategy) CostEstimate {
	rows := e.TableRows(ent)
	if strategy == IndexScan {
		rows *= IndexScanFraction
	}
	return CostEstimate{Rows: rows, CPU: rows, IO: rows}
}

// JoinRows applies the join-cardinality rule for rows out:
//
//	OneToOne   → min(left, right)
//	OneToMany  → right
//	ManyToOne  → left
//	ManyToMany → left · sqrt(right)   (fan-out dampening heuristic)
//	Unknown    → max(left, right)     (conservative)
func (e *Estimator) JoinRows(card model.Cardinality, left, right float64) float64 {
	switch card {
	case model.CardinalityOneToOne:
		return math.Min(left, right)
	case model.CardinalityOneToMany:
		return right
	case model.CardinalityManyToOne:
		return left
	case model.CardinalityManyToMany:
		return left * math.Sqrt(right)
	default:
		return math.Max(left, right)
	}
}

// JoinCost estimates a join of two already-costed inputs.
//
// HashJoin touches each input once and holds the right input's rows in
// memory. NestedLoopJoin costs the product of its inputs' row counts,
// which biases selection away from it whenever a hash-joinable
// equality exists.
func (e *Estimator) JoinCost(card model.Cardinality, strategy JoinStrategy, left, right CostEstimate) CostEstimate {
	rows := e.JoinRows(card, left.Rows, right.Rows)
	est := CostEstimate{
		Rows: rows,
		IO:   left.IO + right.IO,
	}
	switch strategy {
	case NestedLoopJoin:
		est.CPU = left.CPU + right.CPU + left.Rows*right.Rows
	default:
		est.CPU = left.CPU + right.CPU + left.Rows + right.Rows
		est.Memory = left.Memory + right.Memory + right.Rows
	}
	return est
}

// FilterCost estimates a filter over one input.
func (e *Estimator) FilterCost(input CostEstimate) CostEstimate {
	return CostEstimate{
		Rows:   input.Rows * FilterSelectivity,
		CPU:    input.CPU + input.Rows,
		IO:     input.IO,
		Memory: input.Memory,
	}
}

// AggregateCost estimates a hash aggregate over one input. The hash
// table holds the input working set.
func (e *Estimator) AggregateCost(input CostEstimate) CostEstimate {
	return CostEstimate{
		Rows:   input.Rows * AggregateReduction,
		CPU:    input.CPU + input.Rows,
		IO:     input.IO,
		Memory: input.Memory + input.Rows,
	}
}

// ProjectCost estimates a projection over one input.
func (e *Estimator) ProjectCost(input CostEstimate) CostEstimate {
	return CostEstimate{
		Rows:   input.Rows,
		CPU:    input.CPU + input.Rows,
		IO:     input.IO,
		Memory: input.Memory,
	}
}

// SortCost estimates a sort over one input: n·log2(n) of the input
// rows.
func (e *Estimator) SortCost(input CostEstimate) CostEstimate {
	n := input.Rows
	sortWork := 0.0
	if n > 1 {
		sortWork = n * math.Log2(n)
	}
	return CostEstimate{
		Rows:   n,
		CPU:    input.CPU + sortWork,
		IO:     input.IO,
		Memory: input.Memory + n,
	}
}

// LimitCost estimates a limit over one input.
func (e *Estimator) LimitCost(input CostEstimate, count int) CostEstimate {
	rows := input.Rows
	if c := float64(count); c < rows {
		rows = c
	}
	return CostEstimate{
		Rows:   rows,
		CPU:    input.CPU,
		IO:     input.IO,
		Memory: input.Memory,
	}
}
