package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidProgram(t *testing.T) {
	out, err := runCLI(t, "validate", "testdata/programs/countdown.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "warning: operation countdown is recursive")
	assert.Contains(t, out, "✓ Program valid (1 operation(s))")
}

func TestValidate_CUEProgram(t *testing.T) {
	out, err := runCLI(t, "validate", "testdata/programs/grow.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Program valid (1 operation(s))")
	assert.NotContains(t, out, "warning")
}

func TestValidate_JSON(t *testing.T) {
	out, err := runCLI(t, "validate", "testdata/programs/loop.yaml", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse[ValidationResult](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Operations)
	require.Len(t, resp.Data.Warnings, 1)
	assert.True(t, resp.Data.Warnings[0].Unguarded)
	assert.Equal(t, "operation spin calls itself without a condition", resp.Data.Warnings[0].Message)
}

func TestValidate_InvalidProgram(t *testing.T) {
	out, err := runCLI(t, "validate", "testdata/programs/invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, `E003: operations[0].actions[0]: unknown operation "frobnicate"`)
}

func TestValidate_InvalidProgramJSON(t *testing.T) {
	out, err := runCLI(t, "validate", "testdata/programs/invalid.yaml", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse[ValidationResult](t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidProgram, resp.Error.Code)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "operations[0].actions[0]", resp.Data.Errors[0].Field)
}

func TestValidate_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	unsupported := filepath.Join(dir, "program.txt")
	require.NoError(t, os.WriteFile(unsupported, []byte("operations: []"), 0o644))
	malformed := filepath.Join(dir, "program.yaml")
	require.NoError(t, os.WriteFile(malformed, []byte("bogus: 1\noperations: []\n"), 0o644))

	tests := []struct {
		name     string
		path     string
		wantCode string
	}{
		{name: "missing", path: filepath.Join(dir, "missing.yaml"), wantCode: ErrCodeNotFound},
		{name: "unsupported extension", path: unsupported, wantCode: ErrCodeUnsupported},
		{name: "unknown field", path: malformed, wantCode: ErrCodeLoadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, "validate", tt.path, "--format", "json")
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeResponse[any](t, out)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}
