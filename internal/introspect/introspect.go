// Package introspect synthesizes model sources from a live SQLite
// catalog.
//
// It reads sqlite_master for tables, PRAGMA table_info for columns,
// and COUNT(*) for row estimates, then feeds the entity graph through
// its incremental AddSource/AddRelationship surface. Relationships are
// inferred from column-name conventions and carry Inferred provenance
// with a confidence below 1.0, so downstream tooling can distinguish
// them from declared edges.
//
// Graph mutation is not synchronized here; callers serialize Sync
// against concurrent planner reads, per the graph's contract.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/semlayer/lattice/internal/entitygraph"
	"github.com/semlayer/lattice/internal/model"
)

// Inference rule names recorded in relationship provenance.
const (
	// RuleColumnSuffix matched a column named <table>_id against
	// another table's id column.
	RuleColumnSuffix = "column_suffix"
)

// columnSuffixConfidence is the confidence assigned to suffix-matched
// relationships. Convention-based matching is right most of the time
// but has no constraint backing it.
const columnSuffixConfidence = 0.8

// Catalog introspects a SQLite database.
type Catalog struct {
	db *sql.DB
}

// Open opens the SQLite database at path read-only for introspection.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying connection.
func (c *Catalog) Close() error { return c.db.Close() }

// Sources reads every user table as a source entity with its column
// list and a COUNT(*) row estimate.
func (c *Catalog) Sources(ctx context.Context) ([]model.Entity, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entities := make([]model.Entity, 0, len(tables))
	for _, table := range tables {
		cols, err := c.columns(ctx, table)
		if err != nil {
			return nil, err
		}
		count, err := c.rowCount(ctx, table)
		if err != nil {
			return nil, err
		}
		entities = append(entities, model.Entity{
			Name:        table,
			Table:       table,
			Kind:        model.KindSource,
			Columns:     cols,
			RowEstimate: count,
		})
	}
	return entities, nil
}

func (c *Catalog) columns(ctx context.Context, table string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (c *Catalog) rowCount(ctx context.Context, table string) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %q", table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return count, nil
}

// InferRelationships matches columns named <table>_id against other
// tables carrying an "id" or "<table>_id" column. Matches are
// many-to-one from the referencing table and carry Inferred
// provenance.
func InferRelationships(entities []model.Entity) []model.Relationship {
	byName := make(map[string]model.Entity, len(entities))
	for _, e := range entities {
		byName[model.NormalizeName(e.Name)] = e
	}

	var rels []model.Relationship
	for _, e := range entities {
		for _, col := range e.Columns {
			base, ok := strings.CutSuffix(col, "_id")
			if !ok {
				continue
			}
			for _, candidate := range []string{base, base + "s"} {
				target, ok := byName[model.NormalizeName(candidate)]
				if !ok || target.Name == e.Name {
					continue
				}
				toCol := ""
				if target.HasColumn("id") {
					toCol = "id"
				} else if target.HasColumn(col) {
					toCol = col
				}
				if toCol == "" {
					continue
				}
				rels = append(rels, model.Relationship{
					From:        e.Name,
					To:          target.Name,
					FromColumn:  col,
					ToColumn:    toCol,
					Cardinality: model.CardinalityManyToOne,
					Provenance:  model.Inferred(RuleColumnSuffix, columnSuffixConfidence),
				})
				break
			}
		}
	}
	return rels
}

// Sync pushes the catalog's sources and inferred relationships into a
// graph through its incremental surface. The caller must serialize
// this against concurrent planner reads.
func (c *Catalog) Sync(ctx context.Context, g *entitygraph.Graph) (int, int, error) {
	entities, err := c.Sources(ctx)
	if err != nil {
		return 0, 0, err
	}

	added := 0
	for _, e := range entities {
		if _, exists := g.Entity(e.Name); exists {
			continue
		}
		if err := g.AddSource(e); err != nil {
			return added, 0, err
		}
		added++
	}

	rels := InferRelationships(entities)
	linked := 0
	for _, r := range rels {
		if err := g.AddRelationship(r); err != nil {
			return added, linked, err
		}
		linked++
	}
	return added, linked, nil
}
