package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/semlayer/lattice/internal/entitygraph"
	"github.com/semlayer/lattice/internal/model"
	"github.com/semlayer/lattice/internal/modelcue"
	"github.com/semlayer/lattice/internal/planner"
)

// PlanResult is the JSON payload for a successful plan invocation.
type PlanResult struct {
	ID        string  `json:"id"`
	SQL       string  `json:"sql"`
	MultiFact bool    `json:"multi_fact"`
	Cost      float64 `json:"cost,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <model-dir> <request-file>",
		Short: "Plan a query request into SQL",
		Long: `Plan a YAML query request against a CUE model directory.

Resolves join paths, enumerates physical candidates, picks the cheapest
plan, and prints the emitted SQL.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runPlan(opts *RootOptions, modelDir, requestFile string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

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

	slog.Debug("planning request", "targets", req.Targets, "measures", len(req.Measures))
	result, err := p.Plan(req)
	if err != nil {
		return outputPlanError(formatter, err)
	}
	slog.Debug("plan built", "id", result.ID, "multi_fact", result.MultiFact, "candidates", len(result.Candidates))

	formatter.VerboseLog("Plan %s: multi_fact=%v candidates=%d", result.ID, result.MultiFact, len(result.Candidates))

	if formatter.Format == "json" {
		payload := PlanResult{
			ID:        result.ID.String(),
			SQL:       result.SQL,
			MultiFact: result.MultiFact,
		}
		if !result.MultiFact {
			payload.Cost = result.Chosen.Est.Total(p.Weights())
		}
		return formatter.Success(payload)
	}

	fmt.Fprintln(formatter.Writer, result.SQL)
	return nil
}

// buildPlanner loads a model directory, builds and validates the entity
// graph, and returns a ready planner. Shared by plan and explain.
func buildPlanner(formatter *OutputFormatter, modelDir string) (*planner.SqlPlanner, error) {
	mdl, loadErrors := modelcue.LoadDir(modelDir)
	if mdl == nil && len(loadErrors) > 0 {
		var loadErr *modelcue.LoadError
		code := modelcue.ErrCodeScanError
		if errors.As(loadErrors[0], &loadErr) {
			code = loadErr.Code
		}
		_ = formatter.Error(code, loadErrors[0].Error(), nil)
		return nil, NewExitError(ExitCommandError, loadErrors[0].Error())
	}

	g, err := entitygraph.Build(mdl)
	if err != nil {
		_ = formatter.Error("GRAPH_BUILD_ERROR", err.Error(), nil)
		return nil, NewExitError(ExitCommandError, err.Error())
	}

	if verrs := g.Validate(); len(verrs) > 0 {
		_ = formatter.Error(verrs[0].Code, verrs[0].Message, verrs)
		return nil, NewExitError(ExitFailure, fmt.Sprintf("model validation failed with %d error(s)", len(verrs)))
	}

	return planner.New(mdl, g), nil
}

// outputPlanError maps planner errors onto exit codes: query errors
// (bad entity, no path, ambiguous role) are request failures, plan
// errors are internal failures.
func outputPlanError(formatter *OutputFormatter, err error) error {
	var qerr *model.QueryError
	if errors.As(err, &qerr) {
		_ = formatter.Error(string(qerr.Code), qerr.Message, qerr)
		return NewExitError(ExitFailure, qerr.Error())
	}

	var perr *model.PlanError
	if errors.As(err, &perr) {
		_ = formatter.Error(string(perr.Code), perr.Message, nil)
		return NewExitError(ExitFailure, perr.Error())
	}

	_ = formatter.Error("PLAN_ERROR", err.Error(), nil)
	return NewExitError(ExitFailure, err.Error())
}
