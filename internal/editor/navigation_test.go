package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/algot/internal/ir"
	"github.com/roach88/algot/internal/testutil"
)

// nestedSession records main = [inner(a), increment(a)] where
// inner = [increment(x), increment(x)].
func nestedSession(t *testing.T) *Session {
	t.Helper()
	inner := testutil.Op("inner").
		Inputs("x").
		Action("0", "increment", testutil.Pat("x")).
		Action("1", "increment", testutil.Pat("x")).
		Build()
	main := testutil.Op("main").
		Inputs("a").
		Action("0", "inner", testutil.Pat("a")).
		Action("1", "increment", testutil.Pat("a")).
		Build()
	return openSession(t, "main", inner, main)
}

// =============================================================================
// Expansion
// =============================================================================

func TestToggleExpanded(t *testing.T) {
	s := nestedSession(t)
	st := s.State()
	require.Equal(t, []ir.Path{"0", "1", "2"}, st.OpenPaths)
	assert.Equal(t, []ir.Path{"0", "0.0", "0.1", "0.2", "1", "2"}, st.ReachablePaths)
	assert.True(t, st.Approximations["0"].Expandable)
	assert.False(t, st.Approximations["1"].Expandable)

	res, err := s.ToggleExpanded(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, Expanded, res)
	assert.Equal(t, []ir.Path{"0", "0.0", "0.1", "1", "2"}, s.State().OpenPaths)
	assert.True(t, s.State().IsExpanded([]ir.ActionID{"0"}))

	res, err = s.ToggleExpanded(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, Contracted, res)
	assert.Equal(t, []ir.Path{"0", "1", "2"}, s.State().OpenPaths)
}

func TestToggleExpanded_NotExpandable(t *testing.T) {
	s := nestedSession(t)

	res, err := s.ToggleExpanded(nil, 1)
	require.NoError(t, err)
	assert.Equal(t, NotExpandable, res, "builtins have no body")

	res, err = s.ToggleExpanded(nil, 2)
	require.NoError(t, err)
	assert.Equal(t, NotExpandable, res, "end position")
}

func TestToggleExpanded_ContractMovesCursorOut(t *testing.T) {
	s := nestedSession(t)
	_, err := s.ToggleExpanded(nil, 0)
	require.NoError(t, err)
	s.Forward()
	require.Equal(t, []int{0, 1}, s.State().ActionStack)

	_, err = s.ToggleExpanded(nil, 0)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, s.State().ActionStack)
}

func TestPatternMatches_NestedCall(t *testing.T) {
	s := nestedSession(t)
	_, err := s.ToggleExpanded(nil, 0)
	require.NoError(t, err)

	st := s.State()
	assert.Equal(t, map[ir.PatternID]ir.Descriptor{"a": testutil.Pat("a")}, st.PatternMatches["0"])
	assert.Equal(t, map[ir.PatternID]ir.Descriptor{"x": testutil.Pat("a")}, st.PatternMatches["0.0"])
	assert.Equal(t, map[ir.PatternID]ir.Descriptor{"x": testutil.Pat("a")}, s.PatternMatchesAt("0.1"))
}

func TestUpdateExpandedActions_ExpandsFailedCondition(t *testing.T) {
	inner := testutil.Op("inner").
		Inputs("x").
		Action("0", "increment", testutil.Pat("x")).
		Build()
	main := testutil.Op("main").
		Inputs("a").
		QueryApp("q1", "isPositive", testutil.Pat("a")).
		Action("0", "inner", testutil.Pat("a")).When("q1", ir.ExpectBool(true)).
		Build()
	s := openSession(t, "main", inner, main)
	require.False(t, s.State().IsExpanded([]ir.ActionID{"0"}))

	require.NoError(t, s.SetExampleValue("a", ir.Number(-1)))
	assert.True(t, s.State().IsExpanded([]ir.ActionID{"0"}), "a failed condition is shown expanded")
	assert.Equal(t, []ir.Path{"0", "1"}, s.State().OpenPaths, "a call that did not run has no body paths")

	require.NoError(t, s.SetExampleValue("a", ir.Number(3)))
	assert.True(t, s.State().IsExpanded([]ir.ActionID{"0"}))
	assert.Equal(t, []ir.Path{"0", "0.0", "1"}, s.State().OpenPaths)
}

// =============================================================================
// Cursor movement
// =============================================================================

func TestForwardBackward(t *testing.T) {
	s := nestedSession(t)
	_, err := s.ToggleExpanded(nil, 0)
	require.NoError(t, err)

	var forward [][]int
	for range 4 {
		s.Forward()
		forward = append(forward, s.State().ActionStack)
	}
	assert.Equal(t, [][]int{{0, 1}, {1}, {2}, {2}}, forward, "entering a call is not a step; the end is sticky")

	var backward [][]int
	for range 3 {
		s.Backward()
		backward = append(backward, s.State().ActionStack)
	}
	assert.Equal(t, [][]int{{1}, {0, 1}, {0}}, backward, "the call entry is skipped on the way back")
}

func TestCallStackAndCurrentOperation(t *testing.T) {
	s := nestedSession(t)
	_, err := s.ToggleExpanded(nil, 0)
	require.NoError(t, err)
	s.Forward()

	calls, err := s.CallStack()
	require.NoError(t, err)
	assert.Equal(t, []ir.OperationID{"main", "inner"}, calls)

	op, idx, err := s.CurrentOperation()
	require.NoError(t, err)
	assert.Equal(t, ir.OperationID("inner"), op.ID)
	assert.Equal(t, 1, idx)

	ids, err := s.ActionIDStack()
	require.NoError(t, err)
	assert.Equal(t, []ir.ActionID{"0", "1"}, ids)

	_, err = s.AddAction("increment", []ir.Descriptor{testutil.Pat("a")})
	assert.ErrorIs(t, err, ErrNotTopLevel)
}

func TestActionIDStack_End(t *testing.T) {
	s := nestedSession(t)
	s.StepTo([]int{1})

	ids, err := s.ActionIDStack()
	require.NoError(t, err)
	assert.Equal(t, []ir.ActionID{ir.EndActionID}, ids)
}

func TestStepIntoAndOut(t *testing.T) {
	s := nestedSession(t)

	require.NoError(t, s.StepInto())
	assert.Equal(t, []int{0, 1}, s.State().ActionStack)
	assert.True(t, s.State().IsExpanded([]ir.ActionID{"0"}))

	require.NoError(t, s.StepOut())
	assert.Equal(t, []int{1}, s.State().ActionStack)
	assert.False(t, s.State().IsExpanded([]ir.ActionID{"0"}), "leaving a call contracts it")
	assert.Equal(t, []ir.Path{"0", "1", "2"}, s.State().OpenPaths)
}

func TestStepTo(t *testing.T) {
	tests := []struct {
		name   string
		target []int
		want   []int
	}{
		{"past first action", []int{0}, []int{1}},
		{"past last action", []int{1}, []int{2}},
		{"closed nested path falls back to its call", []int{0, 1}, []int{1}},
		{"unknown path restarts", []int{7, 3}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := nestedSession(t)
			s.StepTo(tt.target)
			assert.Equal(t, tt.want, s.State().ActionStack)
		})
	}
}

func TestRestart(t *testing.T) {
	s := nestedSession(t)
	s.StepTo([]int{1})

	s.Restart()

	assert.Equal(t, []int{0}, s.State().ActionStack)
}
