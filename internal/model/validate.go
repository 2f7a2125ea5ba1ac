package model

import (
	"fmt"
)

// Validation error codes (M100-M199)
const (
	// General structural errors (M100)
	ErrDuplicateEntity = "M100" // duplicate entity name across sources/facts/dimensions

	// Source errors (M101-M109)
	ErrSourceNoTable = "M101" // source missing physical table

	// Fact errors (M110-M119)
	ErrFactNoGrain        = "M110" // fact must declare a grain
	ErrGrainUnknownEntity = "M111" // grain references unknown source entity
	ErrGrainUnknownColumn = "M112" // grain references column absent on source entity
	ErrIncludeUnknown     = "M113" // include references unknown entity
	ErrFactNoMeasures     = "M114" // fact must declare at least one measure
	ErrDuplicateMeasure   = "M115" // duplicate measure name on fact

	// Dimension errors (M120-M129)
	ErrDimensionUnknownSource = "M120" // dimension references unknown source entity
	ErrDimensionUnknownKey    = "M121" // dimension key absent on source entity

	// Relationship errors (M130-M139)
	ErrRelationshipUnknownEntity = "M130" // relationship endpoint unknown
	ErrRelationshipUnknownColumn = "M131" // relationship column absent on endpoint
	ErrDuplicateRole             = "M132" // role name declared twice

	// Graph errors (M140-M149), reported by entitygraph.Graph.Validate
	ErrCyclicDependency = "M140" // cyclic entity dependency
)

// ValidationError represents a structural model defect. Structural
// errors are fatal: they require a model fix and are never recovered
// automatically.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the model's internal references. It returns all
// errors found (does not fail-fast) and has no side effects: calling it
// twice on the same model returns the same result.
//
// Cycle detection over the entity dependency graph is the graph's
// responsibility (entitygraph.Graph.Validate); this pass is purely
// structural.
func (m *Model) Validate() []ValidationError {
	var errs []ValidationError

	seen := make(map[string]string) // normalized name -> kind
	record := func(name, kind string) {
		key := NormalizeName(name)
		if prev, ok := seen[key]; ok {
			errs = append(errs, ValidationError{
				Code:    ErrDuplicateEntity,
				Field:   name,
				Message: fmt.Sprintf("name already declared as %s", prev),
			})
			return
		}
		seen[key] = kind
	}

	for _, s := range m.Sources {
		record(s.Name, "source")
		if s.Table == "" {
			errs = append(errs, ValidationError{
				Code:    ErrSourceNoTable,
				Field:   s.Name,
				Message: "source must name a physical table",
			})
		}
	}
	for _, f := range m.Facts {
		record(f.Name, "fact")
	}
	for _, d := range m.Dimensions {
		record(d.Name, "dimension")
	}

	for _, f := range m.Facts {
		errs = append(errs, m.validateFact(f)...)
	}
	for _, d := range m.Dimensions {
		errs = append(errs, m.validateDimension(d)...)
	}
	errs = append(errs, m.validateRelationships()...)

	return errs
}

func (m *Model) validateFact(f Fact) []ValidationError {
	var errs []ValidationError

	if len(f.Grain) == 0 {
		errs = append(errs, ValidationError{
			Code:    ErrFactNoGrain,
			Field:   f.Name,
			Message: "fact must declare a grain",
		})
	}
	for _, g := range f.Grain {
		src, ok := m.SourceByName(g.SourceEntity)
		if !ok {
			errs = append(errs, ValidationError{
				Code:    ErrGrainUnknownEntity,
				Field:   fmt.Sprintf("%s.grain", f.Name),
				Message: fmt.Sprintf("unknown source entity %q", g.SourceEntity),
			})
			continue
		}
		if !src.HasColumn(g.SourceColumn) {
			errs = append(errs, ValidationError{
				Code:    ErrGrainUnknownColumn,
				Field:   fmt.Sprintf("%s.grain", f.Name),
				Message: fmt.Sprintf("column %q not present on source entity %q", g.SourceColumn, g.SourceEntity),
			})
		}
	}

	for _, inc := range f.Includes {
		if !m.entityExists(inc.Entity) {
			errs = append(errs, ValidationError{
				Code:    ErrIncludeUnknown,
				Field:   fmt.Sprintf("%s.includes", f.Name),
				Message: fmt.Sprintf("unknown entity %q", inc.Entity),
			})
		}
	}

	if len(f.Measures) == 0 {
		errs = append(errs, ValidationError{
			Code:    ErrFactNoMeasures,
			Field:   f.Name,
			Message: "fact must declare at least one measure",
		})
	}
	measureNames := make(map[string]bool)
	for _, meas := range f.Measures {
		if measureNames[meas.Name] {
			errs = append(errs, ValidationError{
				Code:    ErrDuplicateMeasure,
				Field:   fmt.Sprintf("%s.measures", f.Name),
				Message: fmt.Sprintf("duplicate measure %q", meas.Name),
			})
		}
		measureNames[meas.Name] = true
	}

	return errs
}

func (m *Model) validateDimension(d Dimension) []ValidationError {
	var errs []ValidationError

	src, ok := m.SourceByName(d.SourceEntity)
	if !ok {
		return append(errs, ValidationError{
			Code:    ErrDimensionUnknownSource,
			Field:   d.Name,
			Message: fmt.Sprintf("unknown source entity %q", d.SourceEntity),
		})
	}
	if d.Key != "" && !src.HasColumn(d.Key) {
		errs = append(errs, ValidationError{
			Code:    ErrDimensionUnknownKey,
			Field:   d.Name,
			Message: fmt.Sprintf("key column %q not present on source entity %q", d.Key, d.SourceEntity),
		})
	}
	return errs
}

func (m *Model) validateRelationships() []ValidationError {
	var errs []ValidationError

	roles := make(map[string]bool)
	for _, r := range m.Relationships {
		for _, end := range []struct {
			entity, column string
		}{
			{r.From, r.FromColumn},
			{r.To, r.ToColumn},
		} {
			if !m.entityExists(end.entity) {
				errs = append(errs, ValidationError{
					Code:    ErrRelationshipUnknownEntity,
					Field:   fmt.Sprintf("%s->%s", r.From, r.To),
					Message: fmt.Sprintf("unknown entity %q", end.entity),
				})
				continue
			}
			if src, ok := m.SourceByName(end.entity); ok && !src.HasColumn(end.column) {
				errs = append(errs, ValidationError{
					Code:    ErrRelationshipUnknownColumn,
					Field:   fmt.Sprintf("%s->%s", r.From, r.To),
					Message: fmt.Sprintf("column %q not present on %q", end.column, end.entity),
				})
			}
		}
		if r.Role != "" {
			key := NormalizeName(r.Role)
			if roles[key] {
				errs = append(errs, ValidationError{
					Code:    ErrDuplicateRole,
					Field:   r.Role,
					Message: "role name declared twice",
				})
			}
			roles[key] = true
		}
	}
	return errs
}

func (m *Model) entityExists(name string) bool {
	if _, ok := m.SourceByName(name); ok {
		return true
	}
	if _, ok := m.FactByName(name); ok {
		return true
	}
	_, ok := m.DimensionByName(name)
	return ok
}
