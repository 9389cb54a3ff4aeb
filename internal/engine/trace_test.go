package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/algot/internal/ir"
)

func countdownTrace(t *testing.T) *Trace {
	t.Helper()
	op := countdownOp()
	approx, err := New(newCatalog(t, op)).Approximate(op, map[ir.PatternID]ir.Value{"n": ir.Number(2)})
	require.NoError(t, err)
	return approx.Trace
}

func TestTraceJSONRoundTrip(t *testing.T) {
	tr := countdownTrace(t)

	data, err := json.Marshal(tr)
	require.NoError(t, err)

	var decoded Trace
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, tr.Steps(), decoded.Steps())
	assert.Equal(t, tr.Paths(), decoded.Paths())
}

func TestTraceJSONShape(t *testing.T) {
	tr := TraceOf(map[ir.Path]Step{"0": {Outcome: OutcomeQFalse, Expandable: true}})

	data, err := ir.MarshalCanonical(tr)
	require.NoError(t, err)
	assert.Equal(t,
		`{"0":{"expandable":true,"graph":{"custom_query_result":false,"edges":null,"nodes":null,"query_results":null},"next_step":"QFalse"}}`,
		string(data))
}

func TestTraceFilter(t *testing.T) {
	tr := countdownTrace(t)

	f := tr.Filter([]ir.Path{"1.1", "7", "0"})
	assert.Equal(t, []ir.Path{"0", "1.1"}, f.Paths())
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 6, tr.Len(), "filtering leaves the source intact")
}

func TestTraceOfCopies(t *testing.T) {
	steps := map[ir.Path]Step{"0": {Outcome: OutcomeNoop}}
	tr := TraceOf(steps)
	steps["1"] = Step{Outcome: OutcomeRun}
	assert.Equal(t, 1, tr.Len())
}

func TestNilTrace(t *testing.T) {
	var tr *Trace
	tr.record("0", Step{})
	tr.update("0", func(*Step) {})

	_, ok := tr.Step("0")
	assert.False(t, ok)
	assert.Nil(t, tr.Paths())
	assert.Nil(t, tr.Steps())
	assert.Zero(t, tr.Len())

	data, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestTraceUpdateMissingPath(t *testing.T) {
	tr := NewTrace()
	tr.update("3", func(s *Step) { s.Outcome = OutcomeRun })
	assert.Zero(t, tr.Len())
}
