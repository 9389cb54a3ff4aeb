package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/algot/internal/catalog"
	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/ir"
	"github.com/roach88/algot/internal/testutil"
)

func newTestEngine(t *testing.T, ops ...*ir.Operation) *engine.Engine {
	t.Helper()
	cat := catalog.Standard()
	for _, op := range ops {
		require.NoError(t, cat.Define(op))
	}
	return engine.New(cat, engine.WithMaxDepth(8))
}

func openSession(t *testing.T, id ir.OperationID, ops ...*ir.Operation) *Session {
	t.Helper()
	s, err := NewSession(newTestEngine(t, ops...), id)
	require.NoError(t, err)
	return s
}

// =============================================================================
// Opening a session
// =============================================================================

func TestNewSession_EmptyOperation(t *testing.T) {
	s := openSession(t, "main", testutil.Op("main").Inputs("a").Build())

	st := s.State()
	assert.Equal(t, []int{0}, st.ActionStack)
	assert.Equal(t, []ir.Path{"0"}, st.OpenPaths)
	assert.Equal(t, []ir.Path{"0"}, st.ReachablePaths)
	assert.Equal(t, map[ir.PatternID]ir.Value{"a": ir.Number(0)}, st.ExampleValues)
	require.Contains(t, st.Approximations, ir.Path("0"))
	assert.Equal(t, engine.OutcomeNoop, st.Approximations["0"].Outcome)
	assert.Empty(t, s.Error())
	assert.False(t, s.CanUndo())
}

func TestNewSession_ExampleValues(t *testing.T) {
	op := testutil.Op("main").Inputs("a", "b").Build()
	s, err := NewSession(newTestEngine(t, op), "main",
		WithExampleValues(map[ir.PatternID]ir.Value{"a": ir.Number(4)}))
	require.NoError(t, err)

	assert.Equal(t, map[ir.PatternID]ir.Value{"a": ir.Number(4), "b": ir.Number(0)}, s.State().ExampleValues)
}

func TestNewSession_RejectsBuiltin(t *testing.T) {
	_, err := NewSession(newTestEngine(t), "increment")
	assert.Error(t, err)
}

func TestNewSession_UnknownOperation(t *testing.T) {
	_, err := NewSession(newTestEngine(t), "missing")
	assert.True(t, ir.IsUnknownOperationError(err))
}

func TestNewSession_TopLevelRun(t *testing.T) {
	op := testutil.Op("grow").
		Inputs("a").
		Action("0", "addChild", testutil.Pat("a")).Output("0", "A").
		Build()
	s := openSession(t, "grow", op)

	st := s.State()
	assert.Equal(t, []ir.Path{"0", "1"}, st.OpenPaths)
	assert.Equal(t, engine.OutcomeRun, st.Approximations["0"].Outcome)
	assert.Equal(t, engine.OutcomeNoop, st.Approximations["1"].Outcome)
	assert.Len(t, st.Approximations["1"].Graph.Nodes, 2, "pattern node plus the new child")
}

// =============================================================================
// Rollback and undo
// =============================================================================

func TestEdit_RollsBackOnMaxDepth(t *testing.T) {
	s := openSession(t, "main", testutil.Op("main").Inputs("a").Build())
	opBefore := s.Operation().Clone()
	stateBefore := s.State()

	_, err := s.AddAction("main", []ir.Descriptor{testutil.Pat("a")})

	require.Error(t, err)
	assert.True(t, ir.IsMaxDepthError(err))
	assert.Equal(t, "Max Depth exceeded!", s.Error())
	assert.Equal(t, opBefore, s.Operation(), "operation must be restored verbatim")
	assert.Equal(t, stateBefore, s.State(), "editor state must be restored verbatim")
	assert.False(t, s.CanUndo(), "a rolled back edit leaves no undo entry")
}

func TestEdit_RollsBackOnNumberType(t *testing.T) {
	s := openSession(t, "main", testutil.Op("main").Inputs("a").Build())
	require.NoError(t, s.SetExampleValue("a", ir.StringValue("x")))
	opBefore := s.Operation().Clone()
	stateBefore := s.State()

	_, err := s.AddAction("increment", []ir.Descriptor{testutil.Pat("a")})

	require.Error(t, err)
	assert.True(t, ir.IsNumberTypeError(err))
	assert.Equal(t, "Number Type expected!", s.Error())
	assert.Equal(t, opBefore, s.Operation())
	assert.Equal(t, stateBefore, s.State())

	s.ClearError()
	assert.Empty(t, s.Error())
}

func TestSetExampleValue_RollsBackOnNumberType(t *testing.T) {
	op := testutil.Op("main").
		Inputs("a").
		Action("0", "increment", testutil.Pat("a")).
		Build()
	s := openSession(t, "main", op)

	err := s.SetExampleValue("a", ir.StringValue("seven"))

	require.Error(t, err)
	assert.Equal(t, ir.Number(0), s.State().ExampleValues["a"])
	assert.Equal(t, "Number Type expected!", s.Error())
}

func TestUndo(t *testing.T) {
	s := openSession(t, "main", testutil.Op("main").Inputs("a").Build())
	opBefore := s.Operation().Clone()
	stateBefore := s.State()

	_, err := s.AddAction("newNode", nil)
	require.NoError(t, err)
	require.Len(t, s.Operation().DemoSemantics.Actions, 1)
	require.True(t, s.CanUndo())

	assert.True(t, s.Undo())
	assert.Equal(t, opBefore, s.Operation())
	assert.Equal(t, stateBefore, s.State())
	assert.False(t, s.Undo(), "nothing left to undo")
}

func TestUndo_RestoresCatalogEntry(t *testing.T) {
	op := testutil.Op("main").Inputs("a").Build()
	eng := newTestEngine(t, op)
	s, err := NewSession(eng, "main")
	require.NoError(t, err)

	_, err = s.AddAction("increment", []ir.Descriptor{testutil.Pat("a")})
	require.NoError(t, err)
	require.True(t, s.Undo())

	resolved, ok := eng.Catalog().Lookup("main")
	require.True(t, ok)
	assert.Same(t, s.Operation(), resolved, "the catalog keeps resolving to the live operation")
	assert.Empty(t, resolved.DemoSemantics.Actions)
}
