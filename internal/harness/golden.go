package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
)

// goldenDir is where golden traces live, relative to the test's package.
const goldenDir = "testdata/golden"

// TraceSnapshot captures what a scenario produced for golden comparison.
type TraceSnapshot struct {
	ScenarioName string               `json:"scenario_name"`
	Operation    ir.OperationID       `json:"operation"`
	Trace        *engine.Trace        `json:"trace"`
	Error        string               `json:"error,omitempty"`
	Graph        *graph.ConcreteGraph `json:"graph,omitempty"`
}

// GoldenJSON returns the canonical JSON stored in a golden file.
func GoldenJSON(name string, op ir.OperationID, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(TraceSnapshot{
		ScenarioName: name,
		Operation:    op,
		Trace:        result.Trace,
		Error:        result.Error,
		Graph:        result.Graph,
	})
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, scenario.Operation, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, op ir.OperationID, result *Result) error {
	t.Helper()
	return assertGoldenIn(t, goldenDir, name, op, result)
}

func assertGoldenIn(t *testing.T, dir, name string, op ir.OperationID, result *Result) error {
	t.Helper()

	data, err := GoldenJSON(name, op, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
