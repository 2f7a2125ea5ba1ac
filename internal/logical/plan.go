package logical

import (
	"github.com/semlayer/lattice/internal/model"
)

// Node represents one operator of a logical plan tree.
//
// This is a sealed interface - only types in this package implement
// it. Each node exclusively owns its children.
type Node interface {
	logicalNode() // Marker method - seals interface to this package
}

// Scan reads one entity. Role carries the role alias when the entity
// was referenced through a role-playing dimension; generated SQL
// aliases the table with the role name.
type Scan struct {
	Entity model.Entity
	Role   *model.RoleAlias
}

func (*Scan) logicalNode() {}

// Join equi-joins two subtrees on one column pair. Cardinality is the
// traversed edge's forward cardinality and drives row estimation.
type Join struct {
	Left  Node
	Right Node

	LeftEntity  string
	RightEntity string
	LeftColumn  string
	RightColumn string
	Cardinality model.Cardinality
}

func (*Join) logicalNode() {}

// Filter keeps input rows matching the predicate.
type Filter struct {
	Input Node
	Pred  model.Expr
}

func (*Filter) logicalNode() {}

// MeasureRef is one requested measure inside an Aggregate.
type MeasureRef struct {
	Name   string
	Agg    model.Aggregation
	Column string
	Filter model.Expr
}

// Aggregate groups input rows and evaluates measures.
type Aggregate struct {
	Input    Node
	GroupBy  []model.ColumnRef
	Measures []MeasureRef
}

func (*Aggregate) logicalNode() {}

// ProjectItem is one select-list entry: either a column or a measure
// alias produced by an Aggregate below.
type ProjectItem struct {
	Column  model.ColumnRef
	Measure string
	Alias   string
}

// Project shapes the output select list.
type Project struct {
	Input Node
	Items []ProjectItem
}

func (*Project) logicalNode() {}

// Sort orders the output by explicit keys.
type Sort struct {
	Input Node
	Keys  []model.SortKey
}

func (*Sort) logicalNode() {}

// Limit caps the number of output rows.
type Limit struct {
	Input Node
	Count int
}

func (*Limit) logicalNode() {}
