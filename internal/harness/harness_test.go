package harness

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/ir"
	"github.com/roach88/algot/internal/store"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	paths, err := DiscoverScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_Countdown(t *testing.T) {
	result, err := Run(loadTestScenario(t, "countdown"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, []ir.Path{"0", "1", "1.0", "1.1", "1.2", "2"}, result.Trace.Paths())

	step, ok := result.Trace.Step("1")
	require.True(t, ok)
	assert.True(t, step.Expandable)

	assert.Equal(t, store.ModeApproximate, result.Replay.Mode)
	assert.Equal(t, "replay-1", result.Replay.ID)
	assert.NotEmpty(t, result.Replay.TraceHash)
	assert.Equal(t, map[ir.PatternID]ir.Value{"n": ir.Number(2)}, result.Replay.ExampleValues)

	require.NotNil(t, result.Graph)
	assert.Equal(t, ir.Number(0), result.Graph.Nodes["0"].Value)
	assert.Empty(t, result.ExecuteError)
}

func TestRun_TraceHashIsDeterministic(t *testing.T) {
	first, err := Run(loadTestScenario(t, "countdown"))
	require.NoError(t, err)
	second, err := Run(loadTestScenario(t, "countdown"))
	require.NoError(t, err)

	assert.Equal(t, first.Replay.TraceHash, second.Replay.TraceHash)
}

func TestRun_ScenarioValuesOverrideProgram(t *testing.T) {
	result, err := Run(loadTestScenario(t, "literal_override"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, ir.Number(4), result.Replay.ExampleValues["n"])
	require.NotNil(t, result.Graph)
	assert.Empty(t, result.Graph.Nodes, "literal arguments leave no nodes behind")
}

func TestRun_AbortedApproximation(t *testing.T) {
	tests := []struct {
		scenario string
		wantMsg  string
	}{
		{scenario: "max_depth", wantMsg: "Max Depth exceeded!"},
		{scenario: "number_type", wantMsg: "Number Type expected!"},
	}

	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			result, err := Run(loadTestScenario(t, tt.scenario))
			require.NoError(t, err)

			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Equal(t, tt.wantMsg, result.Error)
			assert.Equal(t, 0, result.Trace.Len())
			assert.NotEmpty(t, result.Replay.Error)
			assert.Empty(t, result.Replay.TraceHash)
		})
	}
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	s := loadTestScenario(t, "max_depth")
	s.Expect.Error = ""

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `got "Max Depth exceeded!"`)
}

func TestRun_OutcomeMismatch(t *testing.T) {
	s := loadTestScenario(t, "grow")
	s.Expect.Outcomes = map[ir.Path]engine.Outcome{
		"1": engine.OutcomeQFalse,
		"9": engine.OutcomeRun,
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "outcomes mismatch")
	assert.Contains(t, result.Errors[0], string(missingOutcome))
}

func TestRun_ExecuteFailure(t *testing.T) {
	s := loadTestScenario(t, "grow")
	s.Execute = &Execution{Args: []ArgumentSpec{{Node: "42"}}}
	s.Assertions = nil

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Nil(t, result.Graph)
	assert.NotEmpty(t, result.ExecuteError)
}

func TestRun_UnknownOperation(t *testing.T) {
	s := loadTestScenario(t, "grow")
	s.Operation = "shrink"

	_, err := Run(s)
	require.Error(t, err)
	assert.True(t, ir.IsUnknownOperationError(err))
}

func TestRun_MissingProgram(t *testing.T) {
	s := loadTestScenario(t, "grow")
	s.Program = filepath.Join(t.TempDir(), "gone.yaml")

	_, err := Run(s)
	require.Error(t, err)
}

func TestRun_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	result, err := New(WithLogger(logger)).Run(loadTestScenario(t, "grow"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Contains(t, buf.String(), "action attempted")
	assert.Contains(t, buf.String(), "scenario finished")
}

// =============================================================================
// Golden traces
// =============================================================================

func TestRunWithGolden_EmptyOperation(t *testing.T) {
	require.NoError(t, RunWithGolden(t, loadTestScenario(t, "empty_operation")))
}

func TestGoldenJSON_IncludesError(t *testing.T) {
	result, err := Run(loadTestScenario(t, "max_depth"))
	require.NoError(t, err)

	data, err := GoldenJSON("max_depth", "spin", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"error":"Max Depth exceeded!","operation":"spin","scenario_name":"max_depth","trace":{}}`,
		string(data))
}
