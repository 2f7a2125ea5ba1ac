package model

// SortDirection orders a sort key.
type SortDirection int

const (
	SortAsc SortDirection = iota
	SortDesc
)

// String returns the SQL keyword for the direction.
func (d SortDirection) String() string {
	if d == SortDesc {
		return "DESC"
	}
	return "ASC"
}

// SortKey orders query output by a column or measure alias.
type SortKey struct {
	Column    string        `json:"column" yaml:"column"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// Request is a query request against the semantic model: target
// entities, grouping columns, requested measure names, filter
// predicates, sort keys, and a row limit.
//
// Targets name entities (or role aliases); the first target anchors
// single-fact planning. Filters arrive as parsed expression trees; the
// string-to-AST parser is an external collaborator. Limit 0 means no
// limit.
type Request struct {
	Targets  []string    `json:"targets" yaml:"targets"`
	Columns  []ColumnRef `json:"columns" yaml:"columns"`
	GroupBy  []ColumnRef `json:"group_by" yaml:"group_by"`
	Measures []string    `json:"measures" yaml:"measures"`
	Filters  []Expr      `json:"-" yaml:"-"`
	OrderBy  []SortKey   `json:"order_by" yaml:"order_by"`
	Limit    int         `json:"limit" yaml:"limit"`
}
