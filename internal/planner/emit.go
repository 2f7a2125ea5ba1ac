package planner

import (
	"fmt"

	"github.com/semlayer/lattice/internal/model"
	"github.com/semlayer/lattice/internal/physical"
	"github.com/semlayer/lattice/internal/sqlgen"
)

// buildQuery lowers a chosen single-fact physical plan to the Query
// object. The operator spine (Limit → Sort → Project → Aggregate →
// Filter → join tree) maps clause-by-clause onto one SELECT.
func (p *SqlPlanner) buildQuery(root physical.Node) (sqlgen.Query, error) {
	var q sqlgen.Query

	aliases := make(map[string]string) // normalized entity/role name -> SQL alias
	qualify := func(c model.ColumnRef) string {
		if c.Entity == "" {
			return c.Column
		}
		if alias, ok := aliases[model.NormalizeName(c.Entity)]; ok {
			return alias + "." + c.Column
		}
		return c.Entity + "." + c.Column
	}

	node := root
	for node != nil {
		switch n := node.(type) {
		case *physical.LimitExec:
			q.Limit = n.Count
			node = n.Input

		case *physical.SortExec:
			for _, k := range n.Keys {
				q.OrderBy = append(q.OrderBy, sqlgen.OrderItem{
					Expr: k.Column,
					Desc: k.Direction == model.SortDesc,
				})
			}
			node = n.Input

		case *physical.ProjectExec:
			// Select list is emitted after the tree walk, once aliases
			// are known.
			items := n.Items
			if err := p.emitFromClause(&q, n.Input, aliases, qualify); err != nil {
				return sqlgen.Query{}, err
			}
			for _, item := range items {
				if item.Measure != "" {
					continue // rendered by the aggregate emission below
				}
				q.Select = append(q.Select, sqlgen.SelectItem{
					Expr:  qualify(item.Column),
					Alias: item.Alias,
				})
			}
			if err := p.emitAggregate(&q, n.Input, qualify); err != nil {
				return sqlgen.Query{}, err
			}
			return q, nil

		default:
			return sqlgen.Query{}, fmt.Errorf("unexpected node %T above projection", node)
		}
	}
	return sqlgen.Query{}, fmt.Errorf("physical plan has no projection")
}

// emitFromClause descends below the projection collecting scans,
// joins, and filters into the FROM/JOIN/WHERE clauses and recording
// table aliases.
func (p *SqlPlanner) emitFromClause(q *sqlgen.Query, node physical.Node, aliases map[string]string, qualify sqlgen.Qualifier) error {
	switch n := node.(type) {
	case *physical.HashAggregateExec:
		return p.emitFromClause(q, n.Input, aliases, qualify)

	case *physical.FilterExec:
		if err := p.emitFromClause(q, n.Input, aliases, qualify); err != nil {
			return err
		}
		cond, err := sqlgen.LowerExpr(n.Pred, qualify)
		if err != nil {
			return err
		}
		q.Where = append(q.Where, cond)
		return nil

	case *physical.JoinExec:
		if err := p.emitFromClause(q, n.Left, aliases, qualify); err != nil {
			return err
		}
		rightScan, ok := n.Right.(*physical.TableScanExec)
		if !ok {
			return fmt.Errorf("right join input is %T, expected a scan in a left-deep tree", n.Right)
		}
		alias := p.registerScan(aliases, rightScan)
		leftAlias := aliases[model.NormalizeName(n.LeftEntity)]
		if leftAlias == "" {
			leftAlias = n.LeftEntity
		}
		q.Joins = append(q.Joins, sqlgen.JoinClause{
			Kind:  sqlgen.JoinInner,
			Table: sqlgen.TableRef{Table: rightScan.Entity.QualifiedTable(), Alias: alias},
			On:    fmt.Sprintf("%s.%s = %s.%s", leftAlias, n.LeftColumn, alias, n.RightColumn),
		})
		return nil

	case *physical.TableScanExec:
		alias := p.registerScan(aliases, n)
		q.From = sqlgen.TableRef{Table: n.Entity.QualifiedTable(), Alias: alias}
		return nil

	default:
		return fmt.Errorf("unexpected node %T below projection", node)
	}
}

// registerScan records the alias for a scanned entity. A role-played
// scan is aliased by the role name, so generated SQL is qualified with
// the role, not the base entity.
func (p *SqlPlanner) registerScan(aliases map[string]string, scan *physical.TableScanExec) string {
	alias := scan.Entity.Name
	if scan.Role != nil {
		alias = scan.Role.Role
		aliases[model.NormalizeName(scan.Role.Role)] = alias
	}
	aliases[model.NormalizeName(scan.Entity.Name)] = alias
	return alias
}

// emitAggregate finds the aggregate below the projection, if any, and
// emits GROUP BY plus the measure select items.
func (p *SqlPlanner) emitAggregate(q *sqlgen.Query, node physical.Node, qualify sqlgen.Qualifier) error {
	agg, ok := node.(*physical.HashAggregateExec)
	if !ok {
		return nil
	}
	for _, gb := range agg.GroupBy {
		q.GroupBy = append(q.GroupBy, qualify(gb))
	}
	for _, m := range agg.Measures {
		expr, err := sqlgen.FilteredAggExpr(m.Agg, m.Column, m.Filter, qualify)
		if err != nil {
			return fmt.Errorf("measure %s: %w", m.Name, err)
		}
		q.Select = append(q.Select, sqlgen.SelectItem{Expr: expr, Alias: m.Name})
	}
	return nil
}
