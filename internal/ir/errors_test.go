package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *RuntimeError
		want string
	}{
		{
			name: "code only",
			err:  NewInvariantError("action %q missing", "3"),
			want: `INVARIANT_VIOLATED: action "3" missing`,
		},
		{
			name: "with operation",
			err:  NewUnknownOperationError("frobnicate"),
			want: `UNKNOWN_OPERATION: operation "frobnicate" not found (operation=frobnicate)`,
		},
		{
			name: "with operation and path",
			err:  &RuntimeError{Code: ErrCodeMatchFailed, Message: "unbound", OperationID: "f", Path: "1.0"},
			want: "MATCH_FAILED: unbound (operation=f, path=1.0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestRuntimeErrorUserMessage(t *testing.T) {
	assert.Equal(t, "Max Depth exceeded!", NewMaxDepthError("spin", 101, 100).UserMessage())
	assert.Equal(t, "Number Type expected!", NewNumberTypeError(StringValue("x")).UserMessage())
	assert.Equal(t, `required pattern "p" was not matched`, NewMatchError("f", "p").UserMessage())
}

func TestRuntimeErrorPredicates(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		maxDepth      bool
		numberType    bool
		approximation bool
	}{
		{"max depth", NewMaxDepthError("spin", 4, 3), true, false, true},
		{"number type", NewNumberTypeError(StringValue("ten")), false, true, true},
		{"wrapped max depth", fmt.Errorf("replay: %w", NewMaxDepthError("spin", 4, 3)), true, false, true},
		{"match", NewMatchError("f", "p"), false, false, false},
		{"plain", errors.New("boom"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.maxDepth, IsMaxDepthError(tt.err))
			assert.Equal(t, tt.numberType, IsNumberTypeError(tt.err))
			assert.Equal(t, tt.approximation, IsApproximationError(tt.err))
		})
	}

	assert.True(t, IsMatchError(NewMatchError("f", "p")))
	assert.True(t, IsInvariantError(NewInvariantError("x")))
	assert.True(t, IsUnknownOperationError(NewUnknownOperationError("x")))
}

func TestAsRuntimeError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewMaxDepthError("spin", 4, 3))

	re, ok := AsRuntimeError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeMaxDepthExceeded, re.Code)
	assert.Equal(t, "3", re.Details["max_depth"])

	_, ok = AsRuntimeError(errors.New("boom"))
	assert.False(t, ok)
}
