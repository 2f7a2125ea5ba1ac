// Package modelcue loads a dimensional model snapshot from CUE files.
//
// The CUE document is the model DSL's serialized form: top-level
// sources, facts, dimensions, and relationships lists. Loading never
// mutates an existing model; each call produces a fresh snapshot for
// the planner to build a graph from.
package modelcue

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/semlayer/lattice/internal/model"
)

// Load error codes.
const (
	ErrCodeNotFound  = "MODEL_DIR_NOT_FOUND"
	ErrCodeNoFiles   = "NO_CUE_FILES"
	ErrCodeScanError = "SCAN_ERROR"
	ErrCodeParse     = "CUE_PARSE_ERROR"
	ErrCodeDecode    = "CUE_DECODE_ERROR"
	ErrCodeEnum      = "INVALID_ENUM"
)

// LoadError represents an error that occurred during model loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// document mirrors the CUE model layout before conversion to model
// types. Enums arrive as strings and are parsed explicitly.
type document struct {
	Sources []struct {
		Name    string   `json:"name"`
		Schema  string   `json:"schema,omitempty"`
		Table   string   `json:"table"`
		Columns []string `json:"columns,omitempty"`
		Rows    int64    `json:"rows,omitempty"`
	} `json:"sources"`
	Facts []struct {
		Name  string `json:"name"`
		Table string `json:"table"`
		Grain []struct {
			Entity string `json:"entity"`
			Column string `json:"column"`
		} `json:"grain"`
		Includes []struct {
			Entity  string   `json:"entity"`
			Mode    string   `json:"mode,omitempty"`
			Columns []string `json:"columns,omitempty"`
		} `json:"includes,omitempty"`
		Measures []struct {
			Name   string `json:"name"`
			Agg    string `json:"agg"`
			Column string `json:"column,omitempty"`
		} `json:"measures"`
		Rows int64 `json:"rows,omitempty"`
	} `json:"facts"`
	Dimensions []struct {
		Name       string   `json:"name"`
		Source     string   `json:"source"`
		Key        string   `json:"key"`
		Attributes []string `json:"attributes,omitempty"`
	} `json:"dimensions,omitempty"`
	Relationships []struct {
		From        string `json:"from"`
		To          string `json:"to"`
		FromColumn  string `json:"from_column"`
		ToColumn    string `json:"to_column"`
		Cardinality string `json:"cardinality"`
		Role        string `json:"role,omitempty"`
	} `json:"relationships,omitempty"`
}

// LoadDir loads and converts every CUE file in a directory into one
// model snapshot, collecting all errors before returning.
func LoadDir(dir string) (*model.Model, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("model directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing model directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := findCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)

	var errs []error
	var doc document
	for _, inst := range instances {
		if inst.Err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeParse, Message: inst.Err.Error()})
			continue
		}
		v := ctx.BuildInstance(inst)
		if v.Err() != nil {
			errs = append(errs, &LoadError{Code: ErrCodeParse, Message: v.Err().Error()})
			continue
		}
		if err := v.Decode(&doc); err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeDecode, Message: err.Error()})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	m, convErrs := convert(doc)
	if len(convErrs) > 0 {
		return nil, convErrs
	}
	return m, nil
}

func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func convert(doc document) (*model.Model, []error) {
	var errs []error
	m := &model.Model{}

	for _, s := range doc.Sources {
		m.Sources = append(m.Sources, model.Entity{
			Name:        s.Name,
			Schema:      s.Schema,
			Table:       s.Table,
			Kind:        model.KindSource,
			Columns:     s.Columns,
			RowEstimate: s.Rows,
		})
	}

	for _, f := range doc.Facts {
		fact := model.Fact{Name: f.Name, Table: f.Table, RowEstimate: f.Rows}
		for _, g := range f.Grain {
			fact.Grain = append(fact.Grain, model.GrainColumn{SourceEntity: g.Entity, SourceColumn: g.Column})
		}
		for _, inc := range f.Includes {
			mode, err := parseIncludeMode(inc.Mode)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fact.Includes = append(fact.Includes, model.Include{Entity: inc.Entity, Mode: mode, Columns: inc.Columns})
		}
		for _, meas := range f.Measures {
			agg, err := parseAggregation(meas.Agg)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fact.Measures = append(fact.Measures, model.Measure{Name: meas.Name, Agg: agg, SourceColumn: meas.Column})
		}
		m.Facts = append(m.Facts, fact)
	}

	for _, d := range doc.Dimensions {
		m.Dimensions = append(m.Dimensions, model.Dimension{
			Name:         d.Name,
			SourceEntity: d.Source,
			Key:          d.Key,
			Attributes:   d.Attributes,
		})
	}

	for _, r := range doc.Relationships {
		card, err := parseCardinality(r.Cardinality)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.Relationships = append(m.Relationships, model.Relationship{
			From:        r.From,
			To:          r.To,
			FromColumn:  r.FromColumn,
			ToColumn:    r.ToColumn,
			Cardinality: card,
			Provenance:  model.Explicit(),
			Role:        r.Role,
		})
	}

	return m, errs
}

func parseCardinality(s string) (model.Cardinality, error) {
	switch strings.ToUpper(s) {
	case "1:1", "ONE_TO_ONE":
		return model.CardinalityOneToOne, nil
	case "1:N", "ONE_TO_MANY":
		return model.CardinalityOneToMany, nil
	case "N:1", "MANY_TO_ONE":
		return model.CardinalityManyToOne, nil
	case "N:M", "MANY_TO_MANY":
		return model.CardinalityManyToMany, nil
	case "", "UNKNOWN":
		return model.CardinalityUnknown, nil
	default:
		return 0, &LoadError{Code: ErrCodeEnum, Message: fmt.Sprintf("invalid cardinality %q", s)}
	}
}

func parseAggregation(s string) (model.Aggregation, error) {
	switch strings.ToLower(s) {
	case "sum":
		return model.AggSum, nil
	case "count":
		return model.AggCount, nil
	case "count_distinct":
		return model.AggCountDistinct, nil
	case "avg":
		return model.AggAvg, nil
	case "min":
		return model.AggMin, nil
	case "max":
		return model.AggMax, nil
	default:
		return 0, &LoadError{Code: ErrCodeEnum, Message: fmt.Sprintf("invalid aggregation %q", s)}
	}
}

func parseIncludeMode(s string) (model.IncludeMode, error) {
	switch strings.ToLower(s) {
	case "", "columns":
		return model.IncludeColumns, nil
	case "all":
		return model.IncludeAll, nil
	case "except":
		return model.IncludeExcept, nil
	default:
		return 0, &LoadError{Code: ErrCodeEnum, Message: fmt.Sprintf("invalid include mode %q", s)}
	}
}
