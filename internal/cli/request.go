package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/semlayer/lattice/internal/model"
)

// requestDoc is the YAML shape of a query request file. Filters use a
// flat operator form; nesting beyond a top-level AND is not supported
// in request files.
type requestDoc struct {
	Targets []string `yaml:"targets"`
	Columns []struct {
		Entity string `yaml:"entity,omitempty"`
		Column string `yaml:"column"`
	} `yaml:"columns,omitempty"`
	GroupBy []struct {
		Entity string `yaml:"entity,omitempty"`
		Column string `yaml:"column"`
	} `yaml:"group_by,omitempty"`
	Measures []string `yaml:"measures,omitempty"`
	Filters  []struct {
		Entity string `yaml:"entity,omitempty"`
		Column string `yaml:"column"`
		Op     string `yaml:"op"`
		Value  any    `yaml:"value,omitempty"`
		Values []any  `yaml:"values,omitempty"`
	} `yaml:"filters,omitempty"`
	OrderBy []struct {
		Column    string `yaml:"column"`
		Direction string `yaml:"direction,omitempty"`
	} `yaml:"order_by,omitempty"`
	Limit int `yaml:"limit,omitempty"`
}

// LoadRequest reads a YAML query request file.
func LoadRequest(path string) (model.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Request{}, fmt.Errorf("failed to read request file: %w", err)
	}

	var doc requestDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.Request{}, fmt.Errorf("failed to parse request file: %w", err)
	}

	req := model.Request{
		Targets:  doc.Targets,
		Measures: doc.Measures,
		Limit:    doc.Limit,
	}
	for _, c := range doc.Columns {
		req.Columns = append(req.Columns, model.ColumnRef{Entity: c.Entity, Column: c.Column})
	}
	for _, gb := range doc.GroupBy {
		req.GroupBy = append(req.GroupBy, model.ColumnRef{Entity: gb.Entity, Column: gb.Column})
	}
	for _, f := range doc.Filters {
		expr, err := filterExpr(f.Entity, f.Column, f.Op, f.Value, f.Values)
		if err != nil {
			return model.Request{}, err
		}
		req.Filters = append(req.Filters, expr)
	}
	for _, o := range doc.OrderBy {
		dir := model.SortAsc
		if strings.EqualFold(o.Direction, "desc") {
			dir = model.SortDesc
		}
		req.OrderBy = append(req.OrderBy, model.SortKey{Column: o.Column, Direction: dir})
	}
	return req, nil
}

func filterExpr(entity, column, op string, value any, values []any) (model.Expr, error) {
	col := model.ColumnRef{Entity: entity, Column: column}

	compareOps := map[string]model.CompareOp{
		"eq":   model.OpEq,
		"ne":   model.OpNe,
		"gt":   model.OpGt,
		"gte":  model.OpGte,
		"lt":   model.OpLt,
		"lte":  model.OpLte,
		"like": model.OpLike,
	}

	switch strings.ToLower(op) {
	case "in", "not_in":
		lits := make([]model.Literal, 0, len(values))
		for _, v := range values {
			lits = append(lits, model.Literal{Value: normalizeYAMLValue(v)})
		}
		return model.In{Column: col, Values: lits, Negated: strings.EqualFold(op, "not_in")}, nil
	case "is_null":
		return model.NullCheck{Column: col}, nil
	case "is_not_null":
		return model.NullCheck{Column: col, Negated: true}, nil
	default:
		cmpOp, ok := compareOps[strings.ToLower(op)]
		if !ok {
			return nil, fmt.Errorf("unsupported filter op %q on column %s", op, column)
		}
		return model.Compare{Op: cmpOp, Column: col, Value: model.Literal{Value: normalizeYAMLValue(value)}}, nil
	}
}

// normalizeYAMLValue widens YAML's int to int64 so literal lowering
// sees one integer type.
func normalizeYAMLValue(v any) any {
	if i, ok := v.(int); ok {
		return int64(i)
	}
	return v
}
