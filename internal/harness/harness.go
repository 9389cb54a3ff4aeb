package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
	"github.com/roach88/algot/internal/program"
	"github.com/roach88/algot/internal/store"
	"github.com/roach88/algot/internal/testutil"
)

// missingOutcome stands in for a path the trace never reached.
const missingOutcome engine.Outcome = "<not reached>"

// Harness runs scenarios.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to the engine. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load the program and build its catalog
//  2. Approximate the operation with the merged example values
//  3. Record the approximation in a fresh in-memory store and read the
//     trace back
//  4. Run the concrete replay, if requested
//  5. Check expectations and assertions
//
// The returned error covers scenarios that cannot run at all (missing
// program, unknown operation, invariant violations). Failed expectations
// only mark the result as failed.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	prog, err := program.Load(scenario.Program)
	if err != nil {
		return nil, err
	}
	cat, err := prog.Catalog()
	if err != nil {
		return nil, err
	}
	op, ok := prog.Operation(scenario.Operation)
	if !ok {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, ir.NewUnknownOperationError(scenario.Operation))
	}

	opts := []engine.Option{engine.WithLogger(h.logger)}
	if scenario.MaxDepth > 0 {
		opts = append(opts, engine.WithMaxDepth(scenario.MaxDepth))
	}
	eng := engine.New(cat, opts...)

	values := prog.ExampleValuesFor(op.ID)
	if values == nil {
		values = make(map[ir.PatternID]ir.Value)
	}
	maps.Copy(values, scenario.ExampleValues)

	ctx := context.Background()
	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewCountingIDGenerator("replay", 2)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	result := NewResult()

	approx, runErr := eng.Approximate(op, values)
	var trace *engine.Trace
	switch {
	case runErr == nil:
		trace = approx.Trace
	case ir.IsApproximationError(runErr):
		rt, _ := ir.AsRuntimeError(runErr)
		result.Error = rt.UserMessage()
	default:
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, runErr)
	}

	if result.Replay, err = st.RecordApproximation(ctx, op, values, trace, runErr); err != nil {
		return nil, err
	}
	if result.Trace, err = st.ReadTrace(ctx, result.Replay.ID); err != nil {
		return nil, err
	}

	if scenario.Execute != nil {
		h.execute(ctx, st, eng, prog, op, scenario.Execute, result)
	}

	checkExpectations(scenario.Expect, result)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"paths", result.Trace.Len())
	return result, nil
}

func (h *Harness) execute(ctx context.Context, st *store.Store, eng *engine.Engine, prog *program.Program, op *ir.Operation, ex *Execution, result *Result) {
	g := prog.Graph
	if g == nil {
		g = graph.NewConcreteGraph()
	}
	args := make([]engine.Argument, len(ex.Args))
	for i, a := range ex.Args {
		args[i] = a.Argument()
	}

	out, err := eng.Execute(op.ID, g, args)
	if err != nil {
		result.ExecuteError = err.Error()
		result.AddError(fmt.Sprintf("execute %s: %v", op.ID, err))
	} else {
		result.Graph = out
	}
	if _, recErr := st.RecordExecution(ctx, op, out, err); recErr != nil {
		result.AddError(fmt.Sprintf("record execution: %v", recErr))
	}
}

// checkExpectations compares the listed outcomes and the abort message.
func checkExpectations(want Expectation, result *Result) {
	if len(want.Outcomes) > 0 {
		all := result.Outcomes()
		got := make(map[ir.Path]engine.Outcome, len(want.Outcomes))
		for p := range want.Outcomes {
			o, ok := all[p]
			if !ok {
				o = missingOutcome
			}
			got[p] = o
		}
		if diff := cmp.Diff(want.Outcomes, got); diff != "" {
			result.AddError(fmt.Sprintf("outcomes mismatch (-want +got):\n%s", diff))
		}
	}
	if want.Error != result.Error {
		result.AddError(fmt.Sprintf("error: want %q, got %q", want.Error, result.Error))
	}
}

// reachedPaths lists the recorded paths, for failure messages.
func reachedPaths(result *Result) []ir.Path {
	paths := slices.Collect(maps.Keys(result.Outcomes()))
	ir.SortPaths(paths)
	return paths
}
