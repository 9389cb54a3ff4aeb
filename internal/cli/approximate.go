package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/ir"
	"github.com/roach88/algot/internal/store"
)

// ApproximateOptions holds flags for the approximate command.
type ApproximateOptions struct {
	*RootOptions
	Operation string
	Values    []string // pattern=value overrides
	MaxDepth  int
	Database  string // optional trace database
}

// StepSummary is one path of an approximation trace.
type StepSummary struct {
	Path         ir.Path                 `json:"path"`
	Outcome      engine.Outcome          `json:"outcome"`
	Expandable   bool                    `json:"expandable"`
	QueryResults map[ir.QueryAppID]*bool `json:"query_results,omitempty"`
}

// ApproximationResult is the output of the approximate command.
type ApproximationResult struct {
	Operation     ir.OperationID            `json:"operation"`
	ExampleValues map[ir.PatternID]ir.Value `json:"example_values"`
	Steps         []StepSummary             `json:"steps"`
	ReplayID      string                    `json:"replay_id,omitempty"`
}

// NewApproximateCommand creates the approximate command.
func NewApproximateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApproximateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "approximate <program>",
		Short: "Replay an operation on its example graph",
		Long: `Replay an operation on a graph built from its patterns and example
values, and print the outcome recorded at every path.

Example values come from the program and can be overridden with --value.
With --db the trace is appended to a SQLite trace log.

Examples:
  algot approximate ./countdown.yaml --op countdown
  algot approximate ./countdown.yaml --op countdown --value n=5
  algot approximate ./countdown.yaml --op countdown --db ./traces.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApproximate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Operation, "op", "", "operation to replay (required)")
	_ = cmd.MarkFlagRequired("op")
	cmd.Flags().StringArrayVar(&opts.Values, "value", nil, "example value override as pattern=value (repeatable)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", engine.DefaultMaxDepth, "maximum call depth")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database")

	return cmd
}

func runApproximate(opts *ApproximateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	if opts.MaxDepth < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgument, "--max-depth must be non-negative", nil)
	}
	overrides, err := parseExampleValues(opts.Values)
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

	values := prog.ExampleValuesFor(op.ID)
	if values == nil {
		values = make(map[ir.PatternID]ir.Value)
	}
	maps.Copy(values, overrides)

	eng := engine.New(cat, engine.WithMaxDepth(opts.MaxDepth), engine.WithLogger(logger))
	approx, runErr := eng.Approximate(op, values)
	if runErr != nil && !ir.IsApproximationError(runErr) {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "approximation failed", runErr)
	}

	var trace *engine.Trace
	if runErr == nil {
		trace = approx.Trace
	}

	result := ApproximationResult{
		Operation:     op.ID,
		ExampleValues: values,
		Steps:         summarize(trace),
	}

	if opts.Database != "" {
		replayID, err := recordApproximation(cmd.Context(), opts.Database, op, values, trace, runErr)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to record trace", err)
		}
		result.ReplayID = replayID
		logger.Info("trace recorded", "db", opts.Database, "replay", replayID)
	}

	if runErr != nil {
		rt, _ := ir.AsRuntimeError(runErr)
		if formatter.IsJSON() {
			if err := formatter.Failure(ErrCodeReplayAborted, rt.UserMessage(), result); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(formatter.Writer, "%s %s\n", mark(false), rt.UserMessage())
			formatter.VerboseLog("%v", runErr)
		}
		return WrapExitError(ExitFailure, rt.UserMessage(), runErr)
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	printSteps(formatter, result.Steps)
	if result.ReplayID != "" {
		fmt.Fprintf(formatter.Writer, "\nReplay: %s\n", result.ReplayID)
	}
	return nil
}

// summarize lists the steps of a trace in path order. A nil trace yields
// an empty list.
func summarize(trace *engine.Trace) []StepSummary {
	steps := []StepSummary{}
	if trace == nil {
		return steps
	}
	for _, p := range trace.Paths() {
		s, _ := trace.Step(p)
		steps = append(steps, StepSummary{
			Path:         p,
			Outcome:      s.Outcome,
			Expandable:   s.Expandable,
			QueryResults: s.Graph.QueryResults,
		})
	}
	return steps
}

// printSteps writes one line per step, indented by call depth.
func printSteps(f *OutputFormatter, steps []StepSummary) {
	for _, s := range steps {
		depth := len(s.Path.Stack()) - 1
		line := fmt.Sprintf("%s%-8s %s", strings.Repeat("  ", depth), s.Path, colorOutcome(s.Outcome))
		if s.Expandable {
			line += " [+]"
		}
		fmt.Fprintln(f.Writer, line)
		if f.Verbose {
			for _, q := range sortedQueryApps(s.QueryResults) {
				fmt.Fprintf(f.Writer, "%s  %s: %s\n", strings.Repeat("  ", depth), q, heldText(s.QueryResults[q]))
			}
		}
	}
}

func sortedQueryApps(results map[ir.QueryAppID]*bool) []ir.QueryAppID {
	return slices.Sorted(maps.Keys(results))
}

func heldText(held *bool) string {
	if held == nil {
		return "unevaluated"
	}
	return fmt.Sprint(*held)
}

func recordApproximation(ctx context.Context, db string, op *ir.Operation, values map[ir.PatternID]ir.Value, trace *engine.Trace, runErr error) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(db)
	if err != nil {
		return "", err
	}
	defer st.Close()

	r, err := st.RecordApproximation(ctx, op, values, trace, runErr)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}
