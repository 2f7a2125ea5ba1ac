package physical

import (
	"github.com/semlayer/lattice/internal/logical"
	"github.com/semlayer/lattice/internal/model"
)

// ScanStrategy selects how a table scan executes.
type ScanStrategy int

const (
	// FullScan reads every row of the table.
	FullScan ScanStrategy = iota
	// IndexScan uses an index lookup, assumed usable whenever a lookup
	// can restrict to at most IndexScanFraction of the rows.
	IndexScan
)

// String returns the strategy name used in explain output.
func (s ScanStrategy) String() string {
	if s == IndexScan {
		return "IndexScan"
	}
	return "FullScan"
}

// JoinStrategy selects how a join executes.
type JoinStrategy int

const (
	// HashJoin builds a hash table on the right input.
	HashJoin JoinStrategy = iota
	// NestedLoopJoin probes the right input once per left row. Its cost
	// model biases selection away from it whenever a hash-joinable
	// equality exists.
	NestedLoopJoin
)

// String returns the strategy name used in explain output.
func (s JoinStrategy) String() string {
	if s == NestedLoopJoin {
		return "NestedLoopJoin"
	}
	return "HashJoin"
}

// Node represents one operator of a physical plan tree, mirroring its
// logical counterpart with a concrete strategy and an estimated cost.
//
// This is a sealed interface - only types in this package implement
// it.
type Node interface {
	physicalNode() // Marker method - seals interface to this package

	// Estimate returns the node's estimated cost, rows out included.
	Estimate() CostEstimate
}

// TableScanExec scans one entity with a chosen strategy.
type TableScanExec struct {
	Entity   model.Entity
	Role     *model.RoleAlias
	Strategy ScanStrategy
	Est      CostEstimate
}

func (*TableScanExec) physicalNode()            {}
func (n *TableScanExec) Estimate() CostEstimate { return n.Est }

// JoinExec joins two physical subtrees with a chosen strategy.
type JoinExec struct {
	Left  Node
	Right Node

	LeftEntity  string
	RightEntity string
	LeftColumn  string
	RightColumn string
	Cardinality model.Cardinality
	Strategy    JoinStrategy
	Est         CostEstimate
}

func (*JoinExec) physicalNode()            {}
func (n *JoinExec) Estimate() CostEstimate { return n.Est }

// FilterExec filters its input.
type FilterExec struct {
	Input Node
	Pred  model.Expr
	Est   CostEstimate
}

func (*FilterExec) physicalNode()            {}
func (n *FilterExec) Estimate() CostEstimate { return n.Est }

// HashAggregateExec groups its input with a hash table.
type HashAggregateExec struct {
	Input    Node
	GroupBy  []model.ColumnRef
	Measures []logical.MeasureRef
	Est      CostEstimate
}

func (*HashAggregateExec) physicalNode()            {}
func (n *HashAggregateExec) Estimate() CostEstimate { return n.Est }

// ProjectExec shapes the output select list.
type ProjectExec struct {
	Input Node
	Items []logical.ProjectItem
	Est   CostEstimate
}

func (*ProjectExec) physicalNode()            {}
func (n *ProjectExec) Estimate() CostEstimate { return n.Est }

// SortExec sorts its input.
type SortExec struct {
	Input Node
	Keys  []model.SortKey
	Est   CostEstimate
}

func (*SortExec) physicalNode()            {}
func (n *SortExec) Estimate() CostEstimate { return n.Est }

// LimitExec caps its input's row count.
type LimitExec struct {
	Input Node
	Count int
	Est   CostEstimate
}

func (*LimitExec) physicalNode()            {}
func (n *LimitExec) Estimate() CostEstimate { return n.Est }
