package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/ir"
)

func TestLoadScenario_Countdown(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/countdown.yaml")
	require.NoError(t, err)

	assert.Equal(t, "countdown", s.Name)
	assert.Equal(t, ir.OperationID("countdown"), s.Operation)
	assert.Equal(t, filepath.Join("testdata", "programs", "countdown.yaml"), s.Program)
	assert.Equal(t, engine.OutcomeQFalse, s.Expect.Outcomes["1.1"])
	require.NotNil(t, s.Execute)
	require.Len(t, s.Execute.Args, 1)
	assert.Equal(t, engine.NodeArg("0"), s.Execute.Args[0].Argument())
	require.Len(t, s.Assertions, 5)
	assert.Equal(t, AssertFinalValue, s.Assertions[4].Type)
	assert.Equal(t, ir.Number(0), *s.Assertions[4].Value)
}

func TestLoadScenario_LiteralArgument(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/literal_override.yaml")
	require.NoError(t, err)

	assert.Equal(t, ir.Number(4), s.ExampleValues["n"])
	require.NotNil(t, s.Execute)
	assert.Equal(t, engine.LiteralArg(ir.Number(7)), s.Execute.Args[0].Argument())
}

func TestLoadScenario_NotFound(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/missing.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// =============================================================================
// Validation
// =============================================================================

func TestLoadScenario_Invalid(t *testing.T) {
	program, err := filepath.Abs("testdata/programs/grow.yaml")
	require.NoError(t, err)

	header := "name: bad\ndescription: invalid scenario\nprogram: " + program + "\noperation: grow\n"

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nprogram: " + program + "\noperation: grow\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nprogram: " + program + "\noperation: grow\n",
			wantErr: "description is required",
		},
		{
			name:    "missing program",
			content: "name: n\ndescription: d\noperation: grow\n",
			wantErr: "program is required",
		},
		{
			name:    "program not found",
			content: "name: n\ndescription: d\nprogram: nowhere.yaml\noperation: grow\n",
			wantErr: "program file not found",
		},
		{
			name:    "missing operation",
			content: "name: n\ndescription: d\nprogram: " + program + "\n",
			wantErr: "operation is required",
		},
		{
			name:    "negative max depth",
			content: header + "max_depth: -1\n",
			wantErr: "max_depth must be non-negative",
		},
		{
			name:    "unknown field",
			content: header + "flow_token: x\n",
			wantErr: "field flow_token not found",
		},
		{
			name:    "unknown expected outcome",
			content: header + "expect:\n  outcomes:\n    \"0\": Done\n",
			wantErr: `unknown outcome "Done"`,
		},
		{
			name:    "argument with node and literal",
			content: header + "execute:\n  args:\n    - {node: \"0\", literal: 1}\n",
			wantErr: "exactly one of node or literal",
		},
		{
			name:    "empty argument",
			content: header + "execute:\n  args:\n    - {}\n",
			wantErr: "exactly one of node or literal",
		},
		{
			name:    "assertion without type",
			content: header + "assertions:\n  - path: \"0\"\n",
			wantErr: "type is required",
		},
		{
			name:    "unknown assertion type",
			content: header + "assertions:\n  - type: trace_contains\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "outcome without path",
			content: header + "assertions:\n  - {type: outcome, outcome: Run}\n",
			wantErr: "path and a known outcome are required",
		},
		{
			name:    "outcome count with unknown outcome",
			content: header + "assertions:\n  - {type: outcome_count, outcome: Skip, count: 1}\n",
			wantErr: "a known outcome is required",
		},
		{
			name:    "node value without value",
			content: header + "assertions:\n  - {type: node_value, path: \"0\", node: \"pattern:a\"}\n",
			wantErr: "path, node and value are required",
		},
		{
			name:    "query result with bad held",
			content: header + "assertions:\n  - {type: query_result, path: \"0\", query_app: q1, held: maybe}\n",
			wantErr: "held must be true, false or unevaluated",
		},
		{
			name:    "final value without execute",
			content: header + "assertions:\n  - {type: final_value, node: \"0\", value: 1}\n",
			wantErr: "final_value needs an execute section",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// =============================================================================
// Discovery
// =============================================================================

func TestDiscoverScenarios(t *testing.T) {
	paths, err := DiscoverScenarios("testdata/scenarios")
	require.NoError(t, err)

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	assert.Equal(t, []string{
		"countdown.yaml",
		"empty_operation.yaml",
		"grow.yaml",
		"literal_override.yaml",
		"max_depth.yaml",
		"number_type.yaml",
	}, names)
}

func TestDiscoverScenarios_SingleFile(t *testing.T) {
	paths, err := DiscoverScenarios("testdata/scenarios/grow.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"testdata/scenarios/grow.yaml"}, paths)
}

func TestDiscoverScenarios_SkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"b.yml", "a.yaml", "notes.md", filepath.Join("nested", "c.yaml")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	paths, err := DiscoverScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, paths)
}

func TestDiscoverScenarios_Missing(t *testing.T) {
	_, err := DiscoverScenarios("testdata/nowhere")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
