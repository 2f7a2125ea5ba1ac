package planner

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semlayer/lattice/internal/entitygraph"
	"github.com/semlayer/lattice/internal/model"
)

// storeModel covers both planning paths: a sales fact for single-fact
// requests and a refunds fact sharing the date dimension for the
// symmetric-aggregate path.
func storeModel() *model.Model {
	return &model.Model{
		Sources: []model.Entity{
			{Name: "orders", Table: "orders", RowEstimate: 1_000_000,
				Columns: []string{"id", "customer_id", "order_date", "amount", "status"}},
			{Name: "returns", Table: "returns", RowEstimate: 40_000,
				Columns: []string{"id", "order_id", "return_date", "amount"}},
			{Name: "date_dim", Table: "date_dim", RowEstimate: 3_650,
				Columns: []string{"date_key", "month", "year"}},
		},
		Facts: []model.Fact{
			{
				Name:  "sales",
				Table: "orders",
				Grain: []model.GrainColumn{{SourceEntity: "orders", SourceColumn: "id"}},
				Measures: []model.Measure{
					{Name: "revenue", Agg: model.AggSum, SourceColumn: "amount"},
					{Name: "order_count", Agg: model.AggCount, SourceColumn: "id"},
				},
				RowEstimate: 1_000_000,
			},
			{
				Name:  "refunds",
				Table: "returns",
				Grain: []model.GrainColumn{{SourceEntity: "returns", SourceColumn: "id"}},
				Measures: []model.Measure{
					{Name: "refund_amount", Agg: model.AggSum, SourceColumn: "amount"},
				},
				RowEstimate: 40_000,
			},
		},
		Dimensions: []model.Dimension{
			{Name: "date", SourceEntity: "date_dim", Key: "date_key", Attributes: []string{"month", "year"}},
		},
		Relationships: []model.Relationship{
			{From: "sales", To: "date", FromColumn: "order_date", ToColumn: "date_key",
				Cardinality: model.CardinalityManyToOne, Provenance: model.Explicit()},
			{From: "refunds", To: "date", FromColumn: "return_date", ToColumn: "date_key",
				Cardinality: model.CardinalityManyToOne, Provenance: model.Explicit()},
		},
	}
}

func storePlanner(t *testing.T) *SqlPlanner {
	t.Helper()
	m := storeModel()
	g, err := entitygraph.Build(m)
	require.NoError(t, err)
	require.Empty(t, g.Validate())
	return New(m, g)
}

func TestPlan_SingleFact(t *testing.T) {
	p := storePlanner(t)

	result, err := p.Plan(model.Request{
		Targets:  []string{"sales", "date"},
		GroupBy:  []model.ColumnRef{{Entity: "date", Column: "month"}},
		Measures: []string{"revenue"},
		OrderBy:  []model.SortKey{{Column: "revenue", Direction: model.SortDesc}},
		Limit:    10,
	})
	require.NoError(t, err)

	assert.False(t, result.MultiFact)
	assert.NotEqual(t, uuid.Nil, result.ID)
	assert.NotEmpty(t, result.Candidates)

	sql := result.SQL
	assert.Contains(t, sql, "FROM orders AS sales")
	assert.Contains(t, sql, "JOIN date_dim AS date ON sales.order_date = date.date_key")
	assert.Contains(t, sql, "SUM(amount) AS revenue")
	assert.Contains(t, sql, "GROUP BY date.month")
	assert.Contains(t, sql, "ORDER BY revenue DESC")
	assert.Contains(t, sql, "LIMIT 10")
}

func TestPlan_ChosenIsCheapest(t *testing.T) {
	p := storePlanner(t)

	result, err := p.Plan(model.Request{
		Targets:  []string{"sales"},
		Measures: []string{"revenue"},
		Filters: []model.Expr{
			model.Compare{Op: model.OpEq,
				Column: model.ColumnRef{Entity: "sales", Column: "status"},
				Value:  model.Literal{Value: "paid"}},
		},
	})
	require.NoError(t, err)

	w := p.Weights()
	for _, c := range result.Candidates {
		assert.LessOrEqual(t, result.Chosen.Est.Total(w), c.Est.Total(w))
	}
}

func TestPlan_Deterministic(t *testing.T) {
	p := storePlanner(t)
	req := model.Request{
		Targets:  []string{"sales", "date"},
		GroupBy:  []model.ColumnRef{{Entity: "date", Column: "month"}},
		Measures: []string{"revenue"},
	}

	a, err := p.Plan(req)
	require.NoError(t, err)
	b, err := p.Plan(req)
	require.NoError(t, err)

	assert.Equal(t, a.SQL, b.SQL, "same model and request must yield identical SQL")
	assert.NotEqual(t, a.ID, b.ID, "each plan gets its own identity")
}

func TestPlan_MultiFactRouting(t *testing.T) {
	p := storePlanner(t)

	result, err := p.Plan(model.Request{
		GroupBy:  []model.ColumnRef{{Entity: "date", Column: "month"}},
		Measures: []string{"revenue", "refund_amount"},
		OrderBy:  []model.SortKey{{Column: "month"}},
		Limit:    100,
	})
	require.NoError(t, err)

	assert.True(t, result.MultiFact)
	assert.Empty(t, result.Candidates, "the symmetric-aggregate path skips candidate enumeration")

	sql := result.SQL
	assert.Contains(t, sql, "WITH sales_agg AS (")
	assert.Contains(t, sql, "refunds_agg AS (")
	assert.Equal(t, 1, strings.Count(sql, "FULL OUTER JOIN"))
	assert.Contains(t, sql, "COALESCE(sales_agg.revenue, 0)")
	assert.Contains(t, sql, "COALESCE(refunds_agg.refund_amount, 0)")
	assert.Contains(t, sql,
		"JOIN date_dim AS date ON COALESCE(sales_agg.order_date, refunds_agg.return_date) = date.date_key")
	assert.Contains(t, sql, "LIMIT 100")
}

func TestPlan_MultiFactPreAggregatesPerFact(t *testing.T) {
	p := storePlanner(t)

	result, err := p.Plan(model.Request{
		GroupBy:  []model.ColumnRef{{Entity: "date", Column: "month"}},
		Measures: []string{"revenue", "refund_amount"},
	})
	require.NoError(t, err)

	require.Len(t, result.Query.CTEs, 2)
	assert.Equal(t, []string{"order_date"}, result.Query.CTEs[0].Body.GroupBy)
	assert.Equal(t, []string{"return_date"}, result.Query.CTEs[1].Body.GroupBy)
}

func TestPlan_MultiFactBareGroupByResolves(t *testing.T) {
	p := storePlanner(t)

	// month is an attribute of the date dimension only, so the bare
	// column resolves to it.
	result, err := p.Plan(model.Request{
		GroupBy:  []model.ColumnRef{{Column: "month"}},
		Measures: []string{"revenue", "refund_amount"},
	})
	require.NoError(t, err)

	require.Len(t, result.Query.CTEs, 2)
	assert.Equal(t, []string{"order_date"}, result.Query.CTEs[0].Body.GroupBy)
	assert.Equal(t, []string{"return_date"}, result.Query.CTEs[1].Body.GroupBy)
	assert.Contains(t, result.SQL,
		"JOIN date_dim AS date ON COALESCE(sales_agg.order_date, refunds_agg.return_date) = date.date_key")
	assert.NotContains(t, result.SQL, "1 = 1")
}

func TestPlan_MultiFactBareGroupByUnknown(t *testing.T) {
	p := storePlanner(t)

	_, err := p.Plan(model.Request{
		GroupBy:  []model.ColumnRef{{Column: "shoe_size"}},
		Measures: []string{"revenue", "refund_amount"},
	})
	require.Error(t, err)
	assert.True(t, model.IsQueryError(err, model.ErrCodeColumnNotFound))
	assert.Contains(t, err.Error(), "shoe_size")
}

func TestPlan_MultiFactBareGroupByAmbiguous(t *testing.T) {
	m := storeModel()
	// A second dimension also declaring month makes the bare reference
	// ambiguous.
	m.Dimensions = append(m.Dimensions, model.Dimension{
		Name: "fiscal", SourceEntity: "date_dim", Key: "date_key", Attributes: []string{"month"}})

	g, err := entitygraph.Build(m)
	require.NoError(t, err)
	p := New(m, g)

	_, err = p.Plan(model.Request{
		GroupBy:  []model.ColumnRef{{Column: "month"}},
		Measures: []string{"revenue", "refund_amount"},
	})
	require.Error(t, err)
	assert.True(t, model.IsQueryError(err, model.ErrCodeColumnNotFound))
	assert.Contains(t, err.Error(), "date")
	assert.Contains(t, err.Error(), "fiscal")
}

func TestPlan_SingleFactMeasuresStaySingle(t *testing.T) {
	p := storePlanner(t)

	// Two measures from the same fact must not trigger the multi-fact
	// path.
	result, err := p.Plan(model.Request{
		Targets:  []string{"sales"},
		Measures: []string{"revenue", "order_count"},
	})
	require.NoError(t, err)
	assert.False(t, result.MultiFact)
}

func TestPlan_MeasureNotFound(t *testing.T) {
	p := storePlanner(t)

	_, err := p.Plan(model.Request{Targets: []string{"sales"}, Measures: []string{"margin"}})
	assert.True(t, model.IsQueryError(err, model.ErrCodeMeasureNotFound))
}

func TestPlan_UnknownTarget(t *testing.T) {
	p := storePlanner(t)

	_, err := p.Plan(model.Request{Targets: []string{"ghosts"}})
	assert.True(t, model.IsQueryError(err, model.ErrCodeEntityNotFound))
}

func TestPlan_MultiFactUnreachableDimension(t *testing.T) {
	m := storeModel()
	// customers is reachable from sales only; grouping both facts by it
	// cannot work.
	m.Sources = append(m.Sources, model.Entity{Name: "customers", Table: "customers",
		Columns: []string{"id", "region"}, RowEstimate: 50_000})
	m.Dimensions = append(m.Dimensions, model.Dimension{Name: "customer", SourceEntity: "customers", Key: "id"})
	m.Relationships = append(m.Relationships, model.Relationship{
		From: "sales", To: "customer", FromColumn: "customer_id", ToColumn: "id",
		Cardinality: model.CardinalityManyToOne, Provenance: model.Explicit(),
	})

	g, err := entitygraph.Build(m)
	require.NoError(t, err)
	p := New(m, g)

	_, err = p.Plan(model.Request{
		GroupBy:  []model.ColumnRef{{Entity: "customer", Column: "region"}},
		Measures: []string{"revenue", "refund_amount"},
	})
	require.Error(t, err)
	assert.True(t, model.IsQueryError(err, model.ErrCodeNoPathFound) ||
		model.IsQueryError(err, model.ErrCodeUnsafeJoinPath))
}
