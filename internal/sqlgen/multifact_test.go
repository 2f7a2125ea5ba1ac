package sqlgen

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semlayer/lattice/internal/model"
)

// ordersReturnsQuery is the canonical two-fact request: orders and
// returns pre-aggregated to a shared date grain, projected by month.
func ordersReturnsQuery() MultiFactQuery {
	return MultiFactQuery{
		Facts: []FactAggregate{
			{
				Entity:   "orders",
				Table:    "orders",
				CTEAlias: "orders_agg",
				JoinKeys: []string{"order_date"},
				Measures: []FactMeasure{
					{Name: "revenue", Agg: model.AggSum, Column: "amount"},
				},
			},
			{
				Entity:   "returns",
				Table:    "returns",
				CTEAlias: "returns_agg",
				JoinKeys: []string{"return_date"},
				Measures: []FactMeasure{
					{Name: "return_amount", Agg: model.AggSum, Column: "amount"},
				},
			},
		},
		Dimensions: []SharedDimension{
			{
				Name:    "date",
				Table:   "date_dim",
				Key:     "date_key",
				Columns: []DimensionColumn{{Column: "month", Alias: "month"}},
				JoinKeys: map[string]string{
					"orders_agg":  "order_date",
					"returns_agg": "return_date",
				},
			},
		},
		OrderBy: []model.SortKey{{Column: "month"}},
		Limit:   100,
	}
}

func TestEmit_TwoFactSymmetricAggregate(t *testing.T) {
	q, err := NewEmitter().Emit(ordersReturnsQuery())
	require.NoError(t, err)
	sql := q.Render()

	assert.Contains(t, sql, "WITH orders_agg AS (")
	assert.Contains(t, sql, "returns_agg AS (")
	assert.Equal(t, 1, strings.Count(sql, "FULL OUTER JOIN"))
	assert.Contains(t, sql, "COALESCE(orders_agg.revenue, 0)")
	assert.Contains(t, sql, "COALESCE(returns_agg.return_amount, 0)")
	assert.Contains(t, sql, "LIMIT 100")

	// Each fact is aggregated once inside its own CTE; the outer select
	// never touches a raw fact table.
	assert.Contains(t, sql, "GROUP BY order_date")
	assert.Contains(t, sql, "GROUP BY return_date")
}

func TestEmit_DimensionJoinUsesCoalescedKey(t *testing.T) {
	q, err := NewEmitter().Emit(ordersReturnsQuery())
	require.NoError(t, err)
	sql := q.Render()

	assert.Contains(t, sql,
		"JOIN date_dim AS date ON COALESCE(orders_agg.order_date, returns_agg.return_date) = date.date_key",
		"after a full outer join either side's key may be NULL")
}

func TestEmit_Golden(t *testing.T) {
	q, err := NewEmitter().Emit(ordersReturnsQuery())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "orders_returns_by_month", []byte(q.Render()))
}

func TestEmit_RequiresTwoFacts(t *testing.T) {
	mfq := ordersReturnsQuery()
	mfq.Facts = mfq.Facts[:1]

	_, err := NewEmitter().Emit(mfq)
	assert.Error(t, err)
}

func TestEmit_DimensionWithoutResolvingFact(t *testing.T) {
	mfq := ordersReturnsQuery()
	mfq.Dimensions[0].JoinKeys = map[string]string{"shipments_agg": "ship_date"}

	_, err := NewEmitter().Emit(mfq)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date")
}

// TestEmit_NoSharedKeyTautology pins the degenerate join condition for
// facts sharing no dimension key.
func TestEmit_NoSharedKeyTautology(t *testing.T) {
	mfq := ordersReturnsQuery()
	mfq.Dimensions = nil

	q, err := NewEmitter().Emit(mfq)
	require.NoError(t, err)
	assert.Contains(t, q.Render(), "FULL OUTER JOIN returns_agg ON 1 = 1")
}

func TestEmit_ThreeFactsCoalescePriorKeys(t *testing.T) {
	mfq := ordersReturnsQuery()
	mfq.Facts = append(mfq.Facts, FactAggregate{
		Entity:   "shipments",
		Table:    "shipments",
		CTEAlias: "shipments_agg",
		JoinKeys: []string{"ship_date"},
		Measures: []FactMeasure{
			{Name: "shipped_count", Agg: model.AggCount, Column: "id"},
		},
	})
	mfq.Dimensions[0].JoinKeys["shipments_agg"] = "ship_date"

	q, err := NewEmitter().Emit(mfq)
	require.NoError(t, err)
	sql := q.Render()

	assert.Equal(t, 2, strings.Count(sql, "FULL OUTER JOIN"))
	assert.Contains(t, sql,
		"FULL OUTER JOIN shipments_agg ON COALESCE(orders_agg.order_date, returns_agg.return_date) = shipments_agg.ship_date",
		"the third fact joins against the coalesced keys of the first two")
}

func TestEmit_MeasureFilterInsideCTE(t *testing.T) {
	mfq := ordersReturnsQuery()
	mfq.Facts[0].Measures = append(mfq.Facts[0].Measures, FactMeasure{
		Name:   "eu_revenue",
		Agg:    model.AggSum,
		Column: "amount",
		Filter: model.Compare{Op: model.OpEq, Column: model.ColumnRef{Column: "region"}, Value: model.Literal{Value: "EU"}},
	})

	q, err := NewEmitter().Emit(mfq)
	require.NoError(t, err)
	assert.Contains(t, q.Render(), "SUM(CASE WHEN region = 'EU' THEN amount END) AS eu_revenue")
}

// TestEmit_GlobalFilterPushdown checks that a filter qualified by one
// fact lands only in that fact's CTE.
func TestEmit_GlobalFilterPushdown(t *testing.T) {
	mfq := ordersReturnsQuery()
	mfq.GlobalFilters = []model.Expr{
		model.Compare{Op: model.OpEq, Column: model.ColumnRef{Entity: "orders", Column: "status"}, Value: model.Literal{Value: "paid"}},
	}

	q, err := NewEmitter().Emit(mfq)
	require.NoError(t, err)

	require.Len(t, q.CTEs, 2)
	ordersBody := q.CTEs[0].Body
	returnsBody := q.CTEs[1].Body
	assert.Contains(t, ordersBody.Where, "status = 'paid'")
	assert.Empty(t, returnsBody.Where)
}

func TestEmit_UnqualifiedGlobalFilterAppliesEverywhere(t *testing.T) {
	mfq := ordersReturnsQuery()
	mfq.GlobalFilters = []model.Expr{
		model.Compare{Op: model.OpGt, Column: model.ColumnRef{Column: "amount"}, Value: model.Literal{Value: int64(0)}},
	}

	q, err := NewEmitter().Emit(mfq)
	require.NoError(t, err)
	for _, cte := range q.CTEs {
		assert.Contains(t, cte.Body.Where, "amount > 0")
	}
}
