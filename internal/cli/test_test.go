package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyTestdata copies testdata into a temporary directory so tests may
// write golden files and extra scenarios next to it.
func copyTestdata(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.CopyFS(dir, os.DirFS("testdata")))
	return dir
}

func TestTest_AllPass(t *testing.T) {
	out, err := runCLI(t, "test", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ countdown\n")
	assert.Contains(t, out, "✓ spin\n")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTest_JSON(t *testing.T) {
	out, err := runCLI(t, "test", "testdata/scenarios", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse[TestResult](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "countdown", resp.Data.Scenarios[0].Name)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "countdown.yaml"), resp.Data.Scenarios[0].File)
}

func TestTest_Filter(t *testing.T) {
	tests := []struct {
		name      string
		filter    string
		wantNames []string
	}{
		{name: "exact", filter: "spin", wantNames: []string{"spin"}},
		{name: "glob", filter: "count*", wantNames: []string{"countdown"}},
		{name: "everything", filter: "*", wantNames: []string{"countdown", "spin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, "test", "testdata/scenarios", "--filter", tt.filter, "--format", "json")
			require.NoError(t, err)

			names := []string{}
			for _, s := range decodeResponse[TestResult](t, out).Data.Scenarios {
				names = append(names, s.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestTest_SingleFile(t *testing.T) {
	out, err := runCLI(t, "test", "testdata/scenarios/spin.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

// ============================================================================
// Golden files
// ============================================================================

func TestTest_UpdateWritesGolden(t *testing.T) {
	dir := copyTestdata(t)
	scenarios := filepath.Join(dir, "scenarios")

	_, err := runCLI(t, "test", scenarios, "--update")
	require.NoError(t, err)

	golden, err := os.ReadFile(filepath.Join(scenarios, "golden", "countdown.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"countdown"`)
	assert.Contains(t, string(golden), `"1.1":{`)

	spin, err := os.ReadFile(filepath.Join(scenarios, "golden", "spin.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(spin), `"error":"Max Depth exceeded!"`)

	out, err := runCLI(t, "test", scenarios)
	require.NoError(t, err, "second run should match the files just written: %s", out)
}

func TestTest_GoldenMismatch(t *testing.T) {
	dir := copyTestdata(t)
	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(filepath.Join(scenarios, "golden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "golden", "spin.golden"), []byte(`{"trace":{}}`), 0o644))

	out, err := runCLI(t, "test", scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ countdown")
	assert.Contains(t, out, "✗ spin")
	assert.Contains(t, out, "trace does not match golden file")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

// ============================================================================
// Failures
// ============================================================================

func TestTest_FailingScenario(t *testing.T) {
	dir := copyTestdata(t)
	scenarios := filepath.Join(dir, "scenarios")
	broken := `name: broken
description: expects the nested decrement to be skipped
program: ../programs/countdown.yaml
operation: countdown
expect:
  outcomes:
    "1.1": Run
`
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "broken.yaml"), []byte(broken), 0o644))

	out, err := runCLI(t, "test", scenarios, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse[TestResult](t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	assert.Equal(t, 2, resp.Data.Passed)

	require.Len(t, resp.Data.Scenarios, 3)
	assert.Equal(t, "broken", resp.Data.Scenarios[0].Name)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	require.NotEmpty(t, resp.Data.Scenarios[0].Errors)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "outcomes mismatch (-want +got)")
	assert.NotContains(t, resp.Data.Scenarios[0].Errors[0], "failed to load scenario")
}

func TestTest_UnloadableScenario(t *testing.T) {
	dir := copyTestdata(t)
	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "bad.yaml"), []byte("name: [\n"), 0o644))

	out, err := runCLI(t, "test", scenarios)
	require.Error(t, err)
	assert.Contains(t, out, "✗ bad.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTest_CommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{name: "missing directory", args: []string{"testdata/nowhere"}, wantCode: ErrCodeNotFound},
		{name: "filter matches nothing", args: []string{"testdata/scenarios", "--filter", "zzz*"}, wantCode: ErrCodeNotFound},
		{name: "malformed filter", args: []string{"testdata/scenarios", "--filter", "[a"}, wantCode: ErrCodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"test", "--format", "json"}, tt.args...)
			out, err := runCLI(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeResponse[any](t, out)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}
