package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/semlayer/lattice/internal/model"
)

// Qualifier renders a column reference to SQL, applying table aliases
// and role qualification. A nil Qualifier renders unqualified column
// names.
type Qualifier func(model.ColumnRef) string

func defaultQualifier(c model.ColumnRef) string {
	if c.Entity != "" {
		return c.Entity + "." + c.Column
	}
	return c.Column
}

// LowerExpr lowers a parsed filter expression to SQL text.
//
// Operator coverage: Eq, Ne, Gt, Gte, Lt, Lte, Like, In, IsNull,
// IsNotNull, And, Or. IN lowers to an explicit equality list joined by
// OR (AND of inequalities when negated); an empty IN list degenerates
// to FALSE, an empty NOT IN to TRUE.
func LowerExpr(expr model.Expr, qualify Qualifier) (string, error) {
	if qualify == nil {
		qualify = defaultQualifier
	}
	return lowerExpr(expr, qualify)
}

func lowerExpr(expr model.Expr, qualify Qualifier) (string, error) {
	switch e := expr.(type) {
	case model.Compare:
		lit, err := lowerLiteral(e.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", qualify(e.Column), e.Op, lit), nil

	case model.In:
		return lowerIn(e, qualify)

	case model.NullCheck:
		if e.Negated {
			return qualify(e.Column) + " IS NOT NULL", nil
		}
		return qualify(e.Column) + " IS NULL", nil

	case model.And:
		return lowerList(e.Exprs, " AND ", qualify)

	case model.Or:
		return lowerList(e.Exprs, " OR ", qualify)

	default:
		return "", fmt.Errorf("unsupported expression type %T", expr)
	}
}

func lowerIn(e model.In, qualify Qualifier) (string, error) {
	if len(e.Values) == 0 {
		// Empty IN is vacuously false; empty NOT IN vacuously true.
		if e.Negated {
			return "TRUE", nil
		}
		return "FALSE", nil
	}

	col := qualify(e.Column)
	op, joiner := "=", " OR "
	if e.Negated {
		op, joiner = "<>", " AND "
	}

	parts := make([]string, 0, len(e.Values))
	for _, v := range e.Values {
		lit, err := lowerLiteral(v)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", col, op, lit))
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, joiner) + ")", nil
}

func lowerList(exprs []model.Expr, joiner string, qualify Qualifier) (string, error) {
	if len(exprs) == 0 {
		return "TRUE", nil
	}
	parts := make([]string, 0, len(exprs))
	for _, sub := range exprs {
		s, err := lowerExpr(sub, qualify)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, joiner) + ")", nil
}

func lowerLiteral(l model.Literal) (string, error) {
	switch v := l.Value.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'", nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	default:
		return "", fmt.Errorf("unsupported literal type %T", l.Value)
	}
}

// AggExpr renders an aggregation over a column expression.
//
// Mapping: Sum→SUM; Count→COUNT(*) when the column is "*" or empty,
// COUNT(col) otherwise; CountDistinct→COUNT(DISTINCT col); Avg, Min,
// and Max map directly.
func AggExpr(agg model.Aggregation, col string) string {
	switch agg {
	case model.AggCount:
		if col == "" || col == "*" {
			return "COUNT(*)"
		}
		return fmt.Sprintf("COUNT(%s)", col)
	case model.AggCountDistinct:
		return fmt.Sprintf("COUNT(DISTINCT %s)", col)
	case model.AggAvg:
		return fmt.Sprintf("AVG(%s)", col)
	case model.AggMin:
		return fmt.Sprintf("MIN(%s)", col)
	case model.AggMax:
		return fmt.Sprintf("MAX(%s)", col)
	default:
		return fmt.Sprintf("SUM(%s)", col)
	}
}

// FilteredAggExpr renders an aggregation gated by a measure filter,
// using CASE so the filter applies per row without a subquery.
func FilteredAggExpr(agg model.Aggregation, col string, filter model.Expr, qualify Qualifier) (string, error) {
	if filter == nil {
		return AggExpr(agg, col), nil
	}
	cond, err := LowerExpr(filter, qualify)
	if err != nil {
		return "", err
	}
	inner := col
	if inner == "" || inner == "*" {
		inner = "1"
	}
	return AggExpr(agg, fmt.Sprintf("CASE WHEN %s THEN %s END", cond, inner)), nil
}
