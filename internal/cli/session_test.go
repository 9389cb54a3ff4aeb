package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/ir"
)

func TestSession_Collapsed(t *testing.T) {
	out, err := runCLI(t, "session", "testdata/programs/countdown.yaml", "--op", "countdown")
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"0", "Run"},
		{"1", "Run", "[+]"},
		{"2", "Noop"},
	}, stepFields(out))
}

func TestSession_Expand(t *testing.T) {
	out, err := runCLI(t, "session", "testdata/programs/countdown.yaml", "--op", "countdown", "--expand", "1")
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"0", "Run"},
		{"1", "Run", "[+]"},
		{"1.0", "Run"},
		{"1.1", "QFalse"},
		{"2", "Noop"},
	}, stepFields(out))
}

func TestSession_PatternMatches(t *testing.T) {
	out, err := runCLI(t, "session", "testdata/programs/countdown.yaml", "--op", "countdown", "--at", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Pattern matches at 0:\n  n = pattern:n\n")
}

func TestSession_JSON(t *testing.T) {
	out, err := runCLI(t, "session", "testdata/programs/countdown.yaml",
		"--op", "countdown", "--expand", "1", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse[SessionView](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ir.OperationID("countdown"), resp.Data.Operation)
	assert.Equal(t, []string{"1"}, resp.Data.Expanded)

	paths := make([]ir.Path, 0, len(resp.Data.Steps))
	for _, s := range resp.Data.Steps {
		paths = append(paths, s.Path)
	}
	assert.Equal(t, []ir.Path{"0", "1", "1.0", "1.1", "2"}, paths)
	assert.Equal(t, engine.OutcomeQFalse, resp.Data.Steps[3].Outcome)
	assert.Equal(t, ir.PatternMatch("n"), resp.Data.Matches["0"]["n"])
}

func TestSession_MaxDepth(t *testing.T) {
	out, err := runCLI(t, "session", "testdata/programs/loop.yaml", "--op", "spin", "--max-depth", "4", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse[any](t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeReplayAborted, resp.Error.Code)
	assert.Equal(t, "Max Depth exceeded!", resp.Error.Message)
}

func TestSession_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"malformed expand path", []string{"--expand", "a.b"}, ErrCodeInvalidArgument},
		{"builtin call", []string{"--expand", "0"}, ErrCodeInvalidArgument},
		{"call whose condition failed", []string{"--expand", "1", "--expand", "1.1"}, ErrCodeInvalidArgument},
		{"path not open", []string{"--at", "1.0"}, ErrCodeNotFound},
		{"bad example value", []string{"--value", "n"}, ErrCodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"session", "testdata/programs/countdown.yaml", "--op", "countdown", "--format", "json"}, tt.args...)
			out, err := runCLI(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeResponse[any](t, out)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
