package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/algot/internal/editor"
	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/ir"
)

// SessionOptions holds flags for the session command.
type SessionOptions struct {
	*RootOptions
	Operation string
	Values    []string
	Expand    []string // paths of nested calls to expand, in order
	At        string   // path whose pattern matches are printed
	MaxDepth  int
}

// SessionView is the output of the session command: the steps an editing
// session lets the cursor visit.
type SessionView struct {
	Operation ir.OperationID                             `json:"operation"`
	Expanded  []string                                   `json:"expanded"`
	Steps     []StepSummary                              `json:"steps"`
	Matches   map[ir.Path]map[ir.PatternID]ir.Descriptor `json:"pattern_matches"`
}

// NewSessionCommand creates the session command.
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "session <program>",
		Short: "Show an operation as the step debugger lays it out",
		Long: `Open an editing session on an operation and print its open paths: the
steps the cursor can visit, with nested calls collapsed unless expanded.
Paths whose action had no input are hidden.

--expand takes the path of a nested call and may be repeated; expansions
apply in order, so a call inside an expanded call can be expanded next.
--at prints which graph element each pattern is bound to at that path.

Examples:
  algot session ./countdown.yaml --op countdown
  algot session ./countdown.yaml --op countdown --expand 1 --at 1.0
  algot session ./countdown.yaml --op countdown --value n=5 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Operation, "op", "", "operation to open (required)")
	_ = cmd.MarkFlagRequired("op")
	cmd.Flags().StringArrayVar(&opts.Values, "value", nil, "example value override as pattern=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Expand, "expand", nil, "path of a nested call to expand (repeatable)")
	cmd.Flags().StringVar(&opts.At, "at", "", "print pattern matches at this path")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", engine.DefaultMaxDepth, "maximum call depth")

	return cmd
}

func runSession(opts *SessionOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	if opts.MaxDepth < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgument, "--max-depth must be non-negative", nil)
	}
	overrides, err := parseExampleValues(opts.Values)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgument, err.Error(), nil)
	}
	expand := make([][]int, 0, len(opts.Expand))
	for _, raw := range opts.Expand {
		stack := ir.Path(raw).Stack()
		if len(stack) == 0 || ir.PathOf(stack) != ir.Path(raw) {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidArgument, fmt.Sprintf("invalid path %q", raw), nil)
		}
		expand = append(expand, stack)
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
	s, err := editor.NewSession(eng, op.ID, editor.WithExampleValues(values), editor.WithLogger(logger))
	if err != nil {
		if rt, ok := ir.AsRuntimeError(err); ok && ir.IsApproximationError(err) {
			return formatter.Fail(ExitFailure, ErrCodeReplayAborted, rt.UserMessage(), err)
		}
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to open session", err)
	}

	for i, stack := range expand {
		res, err := s.ToggleExpanded(stack[:len(stack)-1], stack[len(stack)-1])
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("failed to expand %s", opts.Expand[i]), err)
		}
		if res != editor.Expanded {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidArgument, fmt.Sprintf("path %s cannot be expanded", opts.Expand[i]), nil)
		}
	}

	st := s.State()
	formatter.VerboseLog("Expanded calls: %s", expandedLabel(st.ExpandedActions))
	view := SessionView{
		Operation: op.ID,
		Expanded:  st.ExpandedActions,
		Steps:     make([]StepSummary, 0, len(st.OpenPaths)),
		Matches:   st.PatternMatches,
	}
	for _, p := range st.OpenPaths {
		step := st.Approximations[p]
		view.Steps = append(view.Steps, StepSummary{
			Path:         p,
			Outcome:      step.Outcome,
			Expandable:   step.Expandable,
			QueryResults: step.Graph.QueryResults,
		})
	}

	at := ir.Path(opts.At)
	if at != "" && !slices.Contains(st.OpenPaths, at) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("path %s is not open", at), nil)
	}

	if formatter.IsJSON() {
		return formatter.Success(view)
	}
	printSteps(formatter, view.Steps)
	if at != "" {
		fmt.Fprintf(formatter.Writer, "\nPattern matches at %s:\n", at)
		matches := s.PatternMatchesAt(at)
		if len(matches) == 0 {
			fmt.Fprintln(formatter.Writer, "  (none)")
		}
		for _, p := range slices.Sorted(maps.Keys(matches)) {
			fmt.Fprintf(formatter.Writer, "  %s = %s\n", p, matches[p])
		}
	}
	return nil
}

func expandedLabel(keys []string) string {
	if len(keys) == 0 {
		return "none"
	}
	return strings.Join(keys, ", ")
}
