package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/semlayer/lattice/internal/introspect"
	"github.com/semlayer/lattice/internal/model"
)

// IntrospectResult is the JSON payload for a successful introspect
// invocation.
type IntrospectResult struct {
	Sources       []model.Entity       `json:"sources"`
	Relationships []model.Relationship `json:"relationships,omitempty"`
}

// NewIntrospectCommand creates the introspect command.
func NewIntrospectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "introspect <sqlite-db>",
		Short: "Discover source entities from a SQLite database",
		Long: `Read table and column definitions from a SQLite database and infer
relationships from foreign-key naming conventions.

The output can seed a model directory: each table becomes a source
entity with a row estimate, and columns ending in _id become
many-to-one relationship candidates.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntrospect(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runIntrospect(opts *RootOptions, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cat, err := introspect.Open(dbPath)
	if err != nil {
		_ = formatter.Error("DB_OPEN_ERROR", err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	defer cat.Close()

	sources, err := cat.Sources(cmd.Context())
	if err != nil {
		_ = formatter.Error("INTROSPECT_ERROR", err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	rels := introspect.InferRelationships(sources)

	formatter.VerboseLog("Discovered %d table(s), inferred %d relationship(s)", len(sources), len(rels))

	if formatter.Format == "json" {
		return formatter.Success(IntrospectResult{Sources: sources, Relationships: rels})
	}

	for _, s := range sources {
		fmt.Fprintf(formatter.Writer, "source %s (%s, ~%d rows)\n", s.Name, s.QualifiedTable(), s.RowEstimate)
		for _, c := range s.Columns {
			fmt.Fprintf(formatter.Writer, "  %s\n", c)
		}
	}
	if len(rels) > 0 {
		fmt.Fprintln(formatter.Writer)
		for _, r := range rels {
			fmt.Fprintf(formatter.Writer, "relationship %s.%s -> %s.%s (%s, confidence %.2f)\n",
				r.From, r.FromColumn, r.To, r.ToColumn, r.Cardinality, r.Provenance.Confidence)
		}
	}
	return nil
}
