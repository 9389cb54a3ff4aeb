package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/algot/internal/ir"
	"github.com/roach88/algot/internal/store"
)

// latestReplay selects the newest replay of --op.
const latestReplay = "latest"

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	Operation string // filter listings, or pick the operation for "latest"
	Replay    string // replay id or "latest"
	TraceHash string // find replays that recorded this trace
	Path      string // show only this path and the steps below it
}

// TraceListing is the output of the trace command without --replay.
type TraceListing struct {
	Replays []store.Replay `json:"replays"`
}

// TraceDetail is the output of the trace command with --replay.
type TraceDetail struct {
	Replay store.Replay  `json:"replay"`
	Steps  []StepSummary `json:"steps"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded replays",
		Long: `Inspect the replays recorded by approximate and execute --db.

Without --replay, lists recorded replays (optionally of one operation, or
those whose trace hash matches --hash). With --replay, prints the replay
and its recorded steps; --path narrows the steps to one subtree.

Examples:
  algot trace --db ./traces.db
  algot trace --db ./traces.db --op countdown
  algot trace --db ./traces.db --replay latest --op countdown
  algot trace --db ./traces.db --replay <id> --path 1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Operation, "op", "", "operation id filter")
	cmd.Flags().StringVar(&opts.Replay, "replay", "", `replay id to show, or "latest"`)
	cmd.Flags().StringVar(&opts.TraceHash, "hash", "", "list replays with this trace hash")
	cmd.Flags().StringVar(&opts.Path, "path", "", "show only steps at or below this path")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	if opts.Replay == "" {
		return listReplays(ctx, opts, st, formatter)
	}
	return showReplay(ctx, opts, st, formatter)
}

func listReplays(ctx context.Context, opts *TraceOptions, st *store.Store, f *OutputFormatter) error {
	var (
		replays []store.Replay
		err     error
	)
	if opts.TraceHash != "" {
		replays, err = st.FindByTraceHash(ctx, opts.TraceHash)
	} else {
		replays, err = st.ListReplays(ctx, ir.OperationID(opts.Operation))
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to list replays", err)
	}

	if f.IsJSON() {
		return f.Success(TraceListing{Replays: replays})
	}
	if len(replays) == 0 {
		fmt.Fprintln(f.Writer, "No replays recorded")
		return nil
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tOPERATION\tMODE\tSTATUS")
	for _, r := range replays {
		status := "ok"
		if r.Error != "" {
			status = "error"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Seq, r.ID, r.OperationID, r.Mode, status)
	}
	return tw.Flush()
}

func showReplay(ctx context.Context, opts *TraceOptions, st *store.Store, f *OutputFormatter) error {
	var (
		replay store.Replay
		err    error
	)
	if opts.Replay == latestReplay {
		if opts.Operation == "" {
			return f.Fail(ExitCommandError, ErrCodeInvalidArgument, `--replay latest needs --op`, nil)
		}
		replay, err = st.LatestReplay(ctx, ir.OperationID(opts.Operation))
	} else {
		replay, err = st.ReadReplay(ctx, opts.Replay)
	}
	if errors.Is(err, store.ErrReplayNotFound) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to read replay", err)
	}

	trace, err := st.ReadTrace(ctx, replay.ID)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to read trace", err)
	}
	detail := TraceDetail{Replay: replay, Steps: filterSteps(summarize(trace), ir.Path(opts.Path))}

	if f.IsJSON() {
		return f.Success(detail)
	}

	w := f.Writer
	fmt.Fprintf(w, "Replay %s (#%d)\n", replay.ID, replay.Seq)
	fmt.Fprintf(w, "Operation: %s [%s]\n", replay.OperationID, replay.Mode)
	if replay.TraceHash != "" {
		fmt.Fprintf(w, "Trace hash: %s\n", replay.TraceHash)
	}
	if replay.Error != "" {
		fmt.Fprintf(w, "%s %s\n", mark(false), replay.Error)
	}
	if replay.Mode == store.ModeConcrete {
		if replay.Result != nil {
			fmt.Fprintln(w)
			printGraph(f, replay.Result)
		}
		return nil
	}
	fmt.Fprintln(w)
	printSteps(f, detail.Steps)
	return nil
}

// filterSteps keeps the steps at prefix or below it. An empty prefix keeps
// everything.
func filterSteps(steps []StepSummary, prefix ir.Path) []StepSummary {
	if prefix == "" {
		return steps
	}
	out := []StepSummary{}
	for _, s := range steps {
		if s.Path == prefix || strings.HasPrefix(string(s.Path), string(prefix)+".") {
			out = append(out, s)
		}
	}
	return out
}
