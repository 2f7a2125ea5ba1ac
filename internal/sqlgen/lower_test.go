package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semlayer/lattice/internal/model"
)

func col(entity, column string) model.ColumnRef {
	return model.ColumnRef{Entity: entity, Column: column}
}

func TestLowerExpr_Compare(t *testing.T) {
	tests := []struct {
		name string
		expr model.Expr
		want string
	}{
		{
			name: "eq string",
			expr: model.Compare{Op: model.OpEq, Column: col("customers", "region"), Value: model.Literal{Value: "EU"}},
			want: "customers.region = 'EU'",
		},
		{
			name: "ne int",
			expr: model.Compare{Op: model.OpNe, Column: col("", "qty"), Value: model.Literal{Value: int64(3)}},
			want: "qty <> 3",
		},
		{
			name: "gt float",
			expr: model.Compare{Op: model.OpGt, Column: col("orders", "amount"), Value: model.Literal{Value: 99.5}},
			want: "orders.amount > 99.5",
		},
		{
			name: "gte",
			expr: model.Compare{Op: model.OpGte, Column: col("", "qty"), Value: model.Literal{Value: int64(1)}},
			want: "qty >= 1",
		},
		{
			name: "lt",
			expr: model.Compare{Op: model.OpLt, Column: col("", "qty"), Value: model.Literal{Value: int64(10)}},
			want: "qty < 10",
		},
		{
			name: "lte",
			expr: model.Compare{Op: model.OpLte, Column: col("", "qty"), Value: model.Literal{Value: int64(10)}},
			want: "qty <= 10",
		},
		{
			name: "like",
			expr: model.Compare{Op: model.OpLike, Column: col("", "name"), Value: model.Literal{Value: "A%"}},
			want: "name LIKE 'A%'",
		},
		{
			name: "bool literal",
			expr: model.Compare{Op: model.OpEq, Column: col("", "active"), Value: model.Literal{Value: true}},
			want: "active = TRUE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LowerExpr(tt.expr, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLowerExpr_StringEscaping(t *testing.T) {
	got, err := LowerExpr(model.Compare{
		Op:     model.OpEq,
		Column: col("", "name"),
		Value:  model.Literal{Value: "O'Brien"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "name = 'O''Brien'", got)
}

// TestLowerExpr_In checks that membership lowers to an explicit
// equality list, never an IN clause.
func TestLowerExpr_In(t *testing.T) {
	got, err := LowerExpr(model.In{
		Column: col("customers", "region"),
		Values: []model.Literal{{Value: "EU"}, {Value: "US"}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "(customers.region = 'EU' OR customers.region = 'US')", got)
	assert.NotContains(t, got, " IN ")
}

func TestLowerExpr_NotIn(t *testing.T) {
	got, err := LowerExpr(model.In{
		Column:  col("", "region"),
		Values:  []model.Literal{{Value: "EU"}, {Value: "US"}},
		Negated: true,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "(region <> 'EU' AND region <> 'US')", got)
}

func TestLowerExpr_InSingleValue(t *testing.T) {
	got, err := LowerExpr(model.In{
		Column: col("", "region"),
		Values: []model.Literal{{Value: "EU"}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "region = 'EU'", got, "single-value list needs no parentheses")
}

// TestLowerExpr_EmptyIn pins the vacuous cases: empty IN is FALSE,
// empty NOT IN is TRUE.
func TestLowerExpr_EmptyIn(t *testing.T) {
	got, err := LowerExpr(model.In{Column: col("", "region")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "FALSE", got)

	got, err = LowerExpr(model.In{Column: col("", "region"), Negated: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "TRUE", got)
}

func TestLowerExpr_NullChecks(t *testing.T) {
	got, err := LowerExpr(model.NullCheck{Column: col("orders", "ship_date")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "orders.ship_date IS NULL", got)

	got, err = LowerExpr(model.NullCheck{Column: col("orders", "ship_date"), Negated: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "orders.ship_date IS NOT NULL", got)
}

func TestLowerExpr_AndOr(t *testing.T) {
	expr := model.Or{Exprs: []model.Expr{
		model.And{Exprs: []model.Expr{
			model.Compare{Op: model.OpEq, Column: col("", "region"), Value: model.Literal{Value: "EU"}},
			model.Compare{Op: model.OpGt, Column: col("", "amount"), Value: model.Literal{Value: int64(100)}},
		}},
		model.NullCheck{Column: col("", "region")},
	}}

	got, err := LowerExpr(expr, nil)
	require.NoError(t, err)
	assert.Equal(t, "((region = 'EU' AND amount > 100) OR region IS NULL)", got)
}

func TestLowerExpr_CustomQualifier(t *testing.T) {
	got, err := LowerExpr(model.Compare{
		Op:     model.OpEq,
		Column: col("date", "month"),
		Value:  model.Literal{Value: int64(6)},
	}, func(c model.ColumnRef) string { return "ship_date." + c.Column })
	require.NoError(t, err)
	assert.Equal(t, "ship_date.month = 6", got)
}

func TestAggExpr(t *testing.T) {
	assert.Equal(t, "SUM(amount)", AggExpr(model.AggSum, "amount"))
	assert.Equal(t, "COUNT(*)", AggExpr(model.AggCount, ""))
	assert.Equal(t, "COUNT(*)", AggExpr(model.AggCount, "*"))
	assert.Equal(t, "COUNT(id)", AggExpr(model.AggCount, "id"))
	assert.Equal(t, "COUNT(DISTINCT customer_id)", AggExpr(model.AggCountDistinct, "customer_id"))
	assert.Equal(t, "AVG(amount)", AggExpr(model.AggAvg, "amount"))
	assert.Equal(t, "MIN(amount)", AggExpr(model.AggMin, "amount"))
	assert.Equal(t, "MAX(amount)", AggExpr(model.AggMax, "amount"))
}

func TestFilteredAggExpr(t *testing.T) {
	filter := model.Compare{Op: model.OpEq, Column: col("", "status"), Value: model.Literal{Value: "paid"}}

	got, err := FilteredAggExpr(model.AggSum, "amount", filter, nil)
	require.NoError(t, err)
	assert.Equal(t, "SUM(CASE WHEN status = 'paid' THEN amount END)", got)

	got, err = FilteredAggExpr(model.AggCount, "", filter, nil)
	require.NoError(t, err)
	assert.Equal(t, "COUNT(CASE WHEN status = 'paid' THEN 1 END)", got)

	got, err = FilteredAggExpr(model.AggSum, "amount", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SUM(amount)", got, "nil filter falls back to the plain aggregate")
}
