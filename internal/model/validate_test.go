package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// retailModel is a minimal valid model shared by validation tests.
func retailModel() *Model {
	return &Model{
		Sources: []Entity{
			{Name: "orders", Table: "orders", Columns: []string{"id", "customer_id", "order_date", "amount"}},
			{Name: "customers", Table: "customers", Columns: []string{"id", "region", "name"}},
		},
		Facts: []Fact{
			{
				Name:  "sales",
				Table: "orders",
				Grain: []GrainColumn{{SourceEntity: "orders", SourceColumn: "id"}},
				Includes: []Include{
					{Entity: "customers", Mode: IncludeAll},
				},
				Measures: []Measure{
					{Name: "revenue", Agg: AggSum, SourceColumn: "amount"},
				},
			},
		},
		Dimensions: []Dimension{
			{Name: "customer", SourceEntity: "customers", Key: "id", Attributes: []string{"region", "name"}},
		},
		Relationships: []Relationship{
			{From: "orders", To: "customers", FromColumn: "customer_id", ToColumn: "id",
				Cardinality: CardinalityManyToOne, Provenance: Explicit()},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidate_ValidModel(t *testing.T) {
	errs := retailModel().Validate()
	assert.Empty(t, errs, "valid model should produce no errors")
}

func TestValidate_Idempotent(t *testing.T) {
	m := retailModel()
	m.Facts[0].Grain = nil // force an error

	first := m.Validate()
	second := m.Validate()
	require.NotEmpty(t, first)
	assert.Equal(t, first, second, "validation must be repeatable with no side effects")
}

func TestValidate_DuplicateEntity(t *testing.T) {
	m := retailModel()
	m.Dimensions = append(m.Dimensions, Dimension{Name: "Orders", SourceEntity: "customers", Key: "id"})

	errs := m.Validate()
	assert.Contains(t, codes(errs), ErrDuplicateEntity, "case-insensitive duplicate must be reported")
}

func TestValidate_SourceNoTable(t *testing.T) {
	m := retailModel()
	m.Sources[0].Table = ""

	errs := m.Validate()
	assert.Contains(t, codes(errs), ErrSourceNoTable)
}

func TestValidate_FactErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Model)
		wantCode string
	}{
		{
			name:     "no grain",
			mutate:   func(m *Model) { m.Facts[0].Grain = nil },
			wantCode: ErrFactNoGrain,
		},
		{
			name: "grain unknown entity",
			mutate: func(m *Model) {
				m.Facts[0].Grain[0].SourceEntity = "ghosts"
			},
			wantCode: ErrGrainUnknownEntity,
		},
		{
			name: "grain unknown column",
			mutate: func(m *Model) {
				m.Facts[0].Grain[0].SourceColumn = "missing"
			},
			wantCode: ErrGrainUnknownColumn,
		},
		{
			name: "include unknown entity",
			mutate: func(m *Model) {
				m.Facts[0].Includes[0].Entity = "ghosts"
			},
			wantCode: ErrIncludeUnknown,
		},
		{
			name:     "no measures",
			mutate:   func(m *Model) { m.Facts[0].Measures = nil },
			wantCode: ErrFactNoMeasures,
		},
		{
			name: "duplicate measure",
			mutate: func(m *Model) {
				m.Facts[0].Measures = append(m.Facts[0].Measures, m.Facts[0].Measures[0])
			},
			wantCode: ErrDuplicateMeasure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := retailModel()
			tt.mutate(m)
			errs := m.Validate()
			assert.Contains(t, codes(errs), tt.wantCode)
		})
	}
}

func TestValidate_GrainUnknownColumnDoesNotPanic(t *testing.T) {
	m := retailModel()
	m.Facts[0].Grain = []GrainColumn{
		{SourceEntity: "ghosts", SourceColumn: "id"},
		{SourceEntity: "orders", SourceColumn: "missing"},
	}

	var errs []ValidationError
	require.NotPanics(t, func() { errs = m.Validate() })
	got := codes(errs)
	assert.Contains(t, got, ErrGrainUnknownEntity)
	assert.Contains(t, got, ErrGrainUnknownColumn)
}

func TestValidate_DimensionErrors(t *testing.T) {
	m := retailModel()
	m.Dimensions = append(m.Dimensions,
		Dimension{Name: "region", SourceEntity: "ghosts", Key: "id"},
		Dimension{Name: "buyer", SourceEntity: "customers", Key: "missing"},
	)

	got := codes(m.Validate())
	assert.Contains(t, got, ErrDimensionUnknownSource)
	assert.Contains(t, got, ErrDimensionUnknownKey)
}

func TestValidate_RelationshipErrors(t *testing.T) {
	m := retailModel()
	m.Relationships = append(m.Relationships,
		Relationship{From: "orders", To: "ghosts", FromColumn: "customer_id", ToColumn: "id"},
		Relationship{From: "orders", To: "customers", FromColumn: "nope", ToColumn: "id"},
	)

	got := codes(m.Validate())
	assert.Contains(t, got, ErrRelationshipUnknownEntity)
	assert.Contains(t, got, ErrRelationshipUnknownColumn)
}

func TestValidate_DuplicateRole(t *testing.T) {
	m := retailModel()
	m.Sources[0].Columns = append(m.Sources[0].Columns, "ship_date")
	m.Relationships = append(m.Relationships,
		Relationship{From: "orders", To: "customers", FromColumn: "order_date", ToColumn: "id",
			Cardinality: CardinalityManyToOne, Role: "placed"},
		Relationship{From: "orders", To: "customers", FromColumn: "ship_date", ToColumn: "id",
			Cardinality: CardinalityManyToOne, Role: "Placed"},
	)

	assert.Contains(t, codes(m.Validate()), ErrDuplicateRole, "role names compare case-insensitively")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	m := retailModel()
	m.Sources[0].Table = ""
	m.Facts[0].Measures = nil
	m.Dimensions[0].SourceEntity = "ghosts"

	errs := m.Validate()
	assert.GreaterOrEqual(t, len(errs), 3, "validation must not fail fast")
}

func TestHasColumn_EmptyColumnListAcceptsAny(t *testing.T) {
	e := Entity{Name: "orders", Table: "orders"}
	assert.True(t, e.HasColumn("anything"), "source without a column list accepts any column")
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, NormalizeName("orders"), NormalizeName("ORDERS"))
	assert.Equal(t, "café", NormalizeName("Café"), "names normalize to NFC before comparison")
}
