package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// EntityKind identifies the role an entity plays in the dimensional model.
type EntityKind int

const (
	// KindSource is a physical table or view.
	KindSource EntityKind = iota
	// KindFact is a measurable event stream with a declared grain.
	KindFact
	// KindDimension is a descriptive attribute set keyed off a source.
	KindDimension
)

// String returns the lowercase kind name used in diagnostics.
func (k EntityKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindFact:
		return "fact"
	case KindDimension:
		return "dimension"
	default:
		return "unknown"
	}
}

// Entity is a node in the entity-relationship graph.
type Entity struct {
	Name         string     `json:"name"`
	Schema       string     `json:"schema,omitempty"`
	Table        string     `json:"table"`
	Kind         EntityKind `json:"kind"`
	Materialized bool       `json:"materialized,omitempty"`
	Columns      []string   `json:"columns,omitempty"`
	// RowEstimate is the expected row count, 0 when unknown. Cost
	// estimation substitutes DefaultTableRows for missing estimates so
	// planning always completes.
	RowEstimate int64 `json:"row_estimate,omitempty"`
}

// HasColumn reports whether the entity declares the named column.
// Entities with no declared columns accept any column reference; column
// metadata is optional for externally managed sources.
func (e Entity) HasColumn(col string) bool {
	if len(e.Columns) == 0 {
		return true
	}
	for _, c := range e.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// QualifiedTable returns schema.table, or just table when no schema is set.
func (e Entity) QualifiedTable() string {
	if e.Schema != "" {
		return e.Schema + "." + e.Table
	}
	return e.Table
}

// Cardinality classifies a relationship edge in its stored direction.
type Cardinality int

const (
	CardinalityUnknown Cardinality = iota
	CardinalityOneToOne
	CardinalityOneToMany
	CardinalityManyToOne
	CardinalityManyToMany
)

// Reverse returns the cardinality of the mirrored edge. Every
// relationship inserts a forward edge and a reverse edge with inverted
// cardinality; OneToOne, ManyToMany, and Unknown are self-inverse.
func (c Cardinality) Reverse() Cardinality {
	switch c {
	case CardinalityOneToMany:
		return CardinalityManyToOne
	case CardinalityManyToOne:
		return CardinalityOneToMany
	default:
		return c
	}
}

// FansOut reports whether traversing an edge of this cardinality can
// multiply rows. A join path is safe only if no traversed edge fans out.
func (c Cardinality) FansOut() bool {
	return c == CardinalityOneToMany || c == CardinalityManyToMany
}

// String returns the compact cardinality notation used in diagnostics.
func (c Cardinality) String() string {
	switch c {
	case CardinalityOneToOne:
		return "1:1"
	case CardinalityOneToMany:
		return "1:N"
	case CardinalityManyToOne:
		return "N:1"
	case CardinalityManyToMany:
		return "N:M"
	default:
		return "unknown"
	}
}

// ProvenanceKind records how a relationship entered the model.
type ProvenanceKind int

const (
	// ProvenanceExplicit marks a relationship declared in the model DSL.
	ProvenanceExplicit ProvenanceKind = iota
	// ProvenanceForeignKey marks a relationship discovered from a
	// database FK constraint.
	ProvenanceForeignKey
	// ProvenanceInferred marks a relationship inferred by a heuristic
	// rule, with a confidence below 1.0.
	ProvenanceInferred
)

// Provenance carries the origin of a relationship. Rule and Confidence
// are only meaningful for ProvenanceInferred.
type Provenance struct {
	Kind       ProvenanceKind `json:"kind"`
	Rule       string         `json:"rule,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
}

// Explicit returns the provenance for a DSL-declared relationship.
func Explicit() Provenance { return Provenance{Kind: ProvenanceExplicit} }

// ForeignKey returns the provenance for an FK-derived relationship.
func ForeignKey() Provenance { return Provenance{Kind: ProvenanceForeignKey} }

// Inferred returns the provenance for a heuristic inference.
func Inferred(rule string, confidence float64) Provenance {
	return Provenance{Kind: ProvenanceInferred, Rule: rule, Confidence: confidence}
}

// Relationship is a directed edge between two entities. The graph
// mirrors every relationship with a reverse edge automatically; models
// declare each relationship once.
type Relationship struct {
	From        string      `json:"from"`
	To          string      `json:"to"`
	FromColumn  string      `json:"from_column"`
	ToColumn    string      `json:"to_column"`
	Cardinality Cardinality `json:"cardinality"`
	Provenance  Provenance  `json:"provenance"`
	// Role names a role-playing traversal of the target dimension
	// (e.g. "ship_date" and "order_date" both targeting "date").
	Role string `json:"role,omitempty"`
}

// RoleAlias lets a role name stand in for a dimension in query text.
// Generated SQL is qualified with the role name, not the base entity.
type RoleAlias struct {
	Role       string `json:"role"`
	From       string `json:"from"`
	FromColumn string `json:"from_column"`
	To         string `json:"to"`
	ToColumn   string `json:"to_column"`
}

// GrainColumn is one component of a fact's grain, referencing a column
// on a source entity. The ordered grain column set uniquely identifies
// one row of the fact.
type GrainColumn struct {
	SourceEntity string `json:"source_entity"`
	SourceColumn string `json:"source_column"`
}

// IncludeMode selects which attributes of an included entity a fact
// denormalizes.
type IncludeMode int

const (
	// IncludeColumns denormalizes only the listed columns.
	IncludeColumns IncludeMode = iota
	// IncludeAll denormalizes every column.
	IncludeAll
	// IncludeExcept denormalizes every column except the listed ones.
	IncludeExcept
)

// Include declares dimension attributes a fact denormalizes.
type Include struct {
	Entity  string      `json:"entity"`
	Mode    IncludeMode `json:"mode"`
	Columns []string    `json:"columns,omitempty"`
}

// Aggregation enumerates the measure aggregation functions.
type Aggregation int

const (
	AggSum Aggregation = iota
	AggCount
	AggCountDistinct
	AggAvg
	AggMin
	AggMax
)

// String returns the SQL function name for the aggregation.
func (a Aggregation) String() string {
	switch a {
	case AggSum:
		return "SUM"
	case AggCount:
		return "COUNT"
	case AggCountDistinct:
		return "COUNT DISTINCT"
	case AggAvg:
		return "AVG"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	default:
		return "UNKNOWN"
	}
}

// Measure is a named aggregation over a fact column, optionally gated
// by a filter expression.
type Measure struct {
	Name         string      `json:"name"`
	Agg          Aggregation `json:"agg"`
	SourceColumn string      `json:"source_column"`
	Filter       Expr        `json:"-"`
}

// Fact declares a measurable event stream: its physical table, its
// grain, the entities it denormalizes, and its measures.
type Fact struct {
	Name     string        `json:"name"`
	Schema   string        `json:"schema,omitempty"`
	Table    string        `json:"table"`
	Grain    []GrainColumn `json:"grain"`
	Includes []Include     `json:"includes,omitempty"`
	Measures []Measure     `json:"measures"`
	// RowEstimate is the expected row count, 0 when unknown.
	RowEstimate int64 `json:"row_estimate,omitempty"`
}

// QualifiedTable returns schema.table, or just table when no schema is
// set.
func (f Fact) QualifiedTable() string {
	if f.Schema != "" {
		return f.Schema + "." + f.Table
	}
	return f.Table
}

// MeasureByName returns the named measure, or false when absent.
func (f Fact) MeasureByName(name string) (Measure, bool) {
	for _, m := range f.Measures {
		if m.Name == name {
			return m, true
		}
	}
	return Measure{}, false
}

// Dimension declares a descriptive attribute set backed by a source
// entity.
type Dimension struct {
	Name         string   `json:"name"`
	SourceEntity string   `json:"source_entity"`
	Key          string   `json:"key"`
	Attributes   []string `json:"attributes,omitempty"`
}

// Model is an immutable snapshot of the dimensional model.
type Model struct {
	Sources       []Entity       `json:"sources"`
	Facts         []Fact         `json:"facts"`
	Dimensions    []Dimension    `json:"dimensions"`
	Relationships []Relationship `json:"relationships"`
}

// SourceByName returns the named source entity, or false when absent.
func (m *Model) SourceByName(name string) (Entity, bool) {
	name = NormalizeName(name)
	for _, s := range m.Sources {
		if NormalizeName(s.Name) == name {
			return s, true
		}
	}
	return Entity{}, false
}

// FactByName returns the named fact, or false when absent.
func (m *Model) FactByName(name string) (Fact, bool) {
	name = NormalizeName(name)
	for _, f := range m.Facts {
		if NormalizeName(f.Name) == name {
			return f, true
		}
	}
	return Fact{}, false
}

// DimensionByName returns the named dimension, or false when absent.
func (m *Model) DimensionByName(name string) (Dimension, bool) {
	name = NormalizeName(name)
	for _, d := range m.Dimensions {
		if NormalizeName(d.Name) == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// NormalizeName canonicalizes an entity, role, or column name for
// lookup. Names are NFC-normalized so visually identical Unicode
// spellings resolve to the same entity, then lowercased: model names
// are case-insensitive identifiers.
func NormalizeName(name string) string {
	return strings.ToLower(norm.NFC.String(name))
}
