package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/semlayer/lattice/internal/physical"
	"github.com/semlayer/lattice/internal/planner"
)

// ExplainCandidate is one enumerated physical plan in explain output.
type ExplainCandidate struct {
	Total  float64 `json:"total"`
	Rows   float64 `json:"rows"`
	CPU    float64 `json:"cpu"`
	IO     float64 `json:"io"`
	Memory float64 `json:"memory"`
	Tree   string  `json:"tree"`
	Chosen bool    `json:"chosen,omitempty"`
}

// ExplainResult is the JSON payload for a successful explain invocation.
type ExplainResult struct {
	ID         string             `json:"id"`
	MultiFact  bool               `json:"multi_fact"`
	Candidates []ExplainCandidate `json:"candidates,omitempty"`
	SQL        string             `json:"sql"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <model-dir> <request-file>",
		Short: "Show candidate plans and costs for a request",
		Long: `Plan a YAML query request and show every enumerated physical
candidate with its cost breakdown, which one was chosen, and the SQL.

Multi-fact requests bypass candidate enumeration; explain then shows
the per-fact aggregate structure through the SQL alone.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runExplain(opts *RootOptions, modelDir, requestFile string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	p, err := buildPlanner(formatter, modelDir)
	if err != nil {
		return err
	}

	req, err := LoadRequest(requestFile)
	if err != nil {
		_ = formatter.Error("REQUEST_LOAD_ERROR", err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	result, err := p.Plan(req)
	if err != nil {
		return outputPlanError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(explainPayload(result, p.Weights()))
	}

	return outputExplainText(formatter, result, p.Weights())
}

func explainPayload(result *planner.Result, w physical.Weights) ExplainResult {
	out := ExplainResult{
		ID:        result.ID.String(),
		MultiFact: result.MultiFact,
		SQL:       result.SQL,
	}
	for _, c := range result.Candidates {
		out.Candidates = append(out.Candidates, ExplainCandidate{
			Total:  c.Est.Total(w),
			Rows:   c.Est.Rows,
			CPU:    c.Est.CPU,
			IO:     c.Est.IO,
			Memory: c.Est.Memory,
			Tree:   renderPhysical(c.Root),
			Chosen: c.Root == result.Chosen.Root,
		})
	}
	return out
}

func outputExplainText(formatter *OutputFormatter, result *planner.Result, w physical.Weights) error {
	out := formatter.Writer

	if result.MultiFact {
		fmt.Fprintln(out, "multi-fact plan (symmetric aggregates, no candidate enumeration)")
		fmt.Fprintln(out)
		fmt.Fprintln(out, result.SQL)
		return nil
	}

	fmt.Fprintf(out, "%d candidate plan(s)\n\n", len(result.Candidates))
	for i, c := range result.Candidates {
		marker := " "
		if c.Root == result.Chosen.Root {
			marker = "*"
		}
		fmt.Fprintf(out, "%s #%d total=%.1f rows=%.0f cpu=%.1f io=%.1f mem=%.1f\n",
			marker, i+1, c.Est.Total(w), c.Est.Rows, c.Est.CPU, c.Est.IO, c.Est.Memory)
		fmt.Fprintln(out, indent(renderPhysical(c.Root), "    "))
	}

	fmt.Fprintln(out, "SQL:")
	fmt.Fprintln(out, result.SQL)
	return nil
}

// renderPhysical prints a physical tree one operator per line, children
// indented under their parent.
func renderPhysical(n physical.Node) string {
	var sb strings.Builder
	renderNode(&sb, n, 0)
	return strings.TrimRight(sb.String(), "\n")
}

func renderNode(sb *strings.Builder, n physical.Node, depth int) {
	pad := strings.Repeat("  ", depth)
	switch node := n.(type) {
	case *physical.TableScanExec:
		name := node.Entity.Name
		if node.Role != nil {
			name = node.Role.Role + " (" + node.Entity.Name + ")"
		}
		fmt.Fprintf(sb, "%s%s %s\n", pad, node.Strategy, name)
	case *physical.JoinExec:
		fmt.Fprintf(sb, "%s%s %s.%s = %s.%s\n", pad, node.Strategy,
			node.LeftEntity, node.LeftColumn, node.RightEntity, node.RightColumn)
		renderNode(sb, node.Left, depth+1)
		renderNode(sb, node.Right, depth+1)
	case *physical.FilterExec:
		fmt.Fprintf(sb, "%sFilter\n", pad)
		renderNode(sb, node.Input, depth+1)
	case *physical.HashAggregateExec:
		fmt.Fprintf(sb, "%sHashAggregate group_by=%d measures=%d\n", pad, len(node.GroupBy), len(node.Measures))
		renderNode(sb, node.Input, depth+1)
	case *physical.ProjectExec:
		fmt.Fprintf(sb, "%sProject\n", pad)
		renderNode(sb, node.Input, depth+1)
	case *physical.SortExec:
		fmt.Fprintf(sb, "%sSort\n", pad)
		renderNode(sb, node.Input, depth+1)
	case *physical.LimitExec:
		fmt.Fprintf(sb, "%sLimit %d\n", pad, node.Count)
		renderNode(sb, node.Input, depth+1)
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
