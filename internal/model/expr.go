package model

// Expr represents a filter expression in a query request or measure
// definition.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and
// enables exhaustive type switches in the SQL generator.
//
// Expr types:
//   - Compare: column <op> literal (Eq, Ne, Gt, Gte, Lt, Lte, Like)
//   - In: column IN (literals), optionally negated
//   - NullCheck: column IS [NOT] NULL
//   - And: all expressions must hold
//   - Or: at least one expression must hold
//
// Expressions arrive already parsed; this package never parses SQL
// text.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// CompareOp enumerates the binary comparison operators.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
	OpLike
)

// String returns the SQL operator token.
func (o CompareOp) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNe:
		return "<>"
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpLike:
		return "LIKE"
	default:
		return "?"
	}
}

// ColumnRef names a column, optionally qualified by an entity or role
// name. An empty Entity refers to the expression's home entity.
type ColumnRef struct {
	Entity string `json:"entity,omitempty"`
	Column string `json:"column"`
}

// Literal is a constant value: string, int64, float64, or bool.
type Literal struct {
	Value any `json:"value"`
}

// Compare is a column-to-literal comparison.
type Compare struct {
	Op     CompareOp `json:"op"`
	Column ColumnRef `json:"column"`
	Value  Literal   `json:"value"`
}

func (Compare) exprNode() {}

// In tests membership of a column in a literal list. An empty Values
// list degenerates to a boolean literal reflecting Negated (empty IN is
// always false, empty NOT IN always true).
type In struct {
	Column  ColumnRef `json:"column"`
	Values  []Literal `json:"values"`
	Negated bool      `json:"negated,omitempty"`
}

func (In) exprNode() {}

// NullCheck is IS NULL, or IS NOT NULL when Negated.
type NullCheck struct {
	Column  ColumnRef `json:"column"`
	Negated bool      `json:"negated,omitempty"`
}

func (NullCheck) exprNode() {}

// And holds when every member expression holds.
type And struct {
	Exprs []Expr `json:"exprs"`
}

func (And) exprNode() {}

// Or holds when any member expression holds.
type Or struct {
	Exprs []Expr `json:"exprs"`
}

func (Or) exprNode() {}
