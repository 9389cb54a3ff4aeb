package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
	"github.com/roach88/algot/internal/store"
)

// ExecuteOptions holds flags for the execute command.
type ExecuteOptions struct {
	*RootOptions
	Operation string
	Args      []string // node=<id> | value=<literal>
	MaxDepth  int
	Database  string
	UUIDNodes bool
}

// ExecutionResult is the output of the execute command.
type ExecutionResult struct {
	Operation ir.OperationID       `json:"operation"`
	Graph     *graph.ConcreteGraph `json:"graph"`
	ReplayID  string               `json:"replay_id,omitempty"`
}

// NewExecuteCommand creates the execute command.
func NewExecuteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecuteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "execute <program>",
		Short: "Run an operation on the program's concrete graph",
		Long: `Run an operation on a copy of the program's concrete graph and print
the resulting graph. The program file itself is never modified.

Arguments are given in input order, each either an existing node
(--arg node=<id>) or a literal value (--arg value=<literal>).

Examples:
  algot execute ./countdown.yaml --op countdown --arg node=0
  algot execute ./grow.yaml --op grow --arg node=0 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Operation, "op", "", "operation to run (required)")
	_ = cmd.MarkFlagRequired("op")
	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "argument as node=<id> or value=<literal> (repeatable)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", engine.DefaultMaxDepth, "maximum call depth")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database")
	cmd.Flags().BoolVar(&opts.UUIDNodes, "uuid-nodes", false, "give new nodes UUIDv7 ids instead of sequential ids")

	return cmd
}

func runExecute(opts *ExecuteOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	if opts.MaxDepth < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgument, "--max-depth must be non-negative", nil)
	}
	args, err := parseArguments(opts.Args)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgument, err.Error(), nil)
	}

	prog, err := loadProgram(formatter, path)
	if err != nil {
		return err
	}
	op, err := lookupOperation(formatter, prog, opts.Operation)
	if err != nil {
		return err
	}
	cat, err := prog.Catalog()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidProgram, "failed to build catalog", err)
	}

	engineOpts := []engine.Option{engine.WithMaxDepth(opts.MaxDepth), engine.WithLogger(logger)}
	if opts.UUIDNodes {
		engineOpts = append(engineOpts, engine.WithIDGenerator(graph.UUIDIDs{}))
	}
	eng := engine.New(cat, engineOpts...)

	g := prog.Graph
	if g == nil {
		g = graph.NewConcreteGraph()
	}
	out, runErr := eng.Execute(op.ID, g, args)

	result := ExecutionResult{Operation: op.ID}
	if runErr == nil {
		result.Graph = out
	}

	if opts.Database != "" {
		replayID, err := recordExecution(cmd.Context(), opts.Database, op, out, runErr)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to record execution", err)
		}
		result.ReplayID = replayID
	}

	if runErr != nil {
		message := runErr.Error()
		if rt, ok := ir.AsRuntimeError(runErr); ok && ir.IsApproximationError(runErr) {
			message = rt.UserMessage()
		}
		return formatter.Fail(ExitFailure, ErrCodeReplayAborted, message, runErr)
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	printGraph(formatter, out)
	if result.ReplayID != "" {
		fmt.Fprintf(formatter.Writer, "\nReplay: %s\n", result.ReplayID)
	}
	return nil
}

// printGraph writes one line per node: id, value and outgoing edges.
func printGraph(f *OutputFormatter, g *graph.ConcreteGraph) {
	if len(g.Nodes) == 0 {
		fmt.Fprintln(f.Writer, "(empty graph)")
		return
	}
	for _, id := range g.SortedIDs() {
		n := g.Nodes[id]
		line := fmt.Sprintf("%s = %s", id, n.Value)
		if len(n.Outgoing) > 0 {
			line += " -> " + strings.Join(n.Outgoing, ", ")
		}
		fmt.Fprintln(f.Writer, line)
	}
}

func recordExecution(ctx context.Context, db string, op *ir.Operation, out *graph.ConcreteGraph, runErr error) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(db)
	if err != nil {
		return "", err
	}
	defer st.Close()

	r, err := st.RecordExecution(ctx, op, out, runErr)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}
