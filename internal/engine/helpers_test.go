package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/algot/internal/catalog"
	"github.com/roach88/algot/internal/ir"
	"github.com/roach88/algot/internal/testutil"
)

var (
	pat = testutil.Pat
	out = testutil.Out
	num = testutil.Num
)

// countdownOp decrements n until isZero(n) holds.
func countdownOp() *ir.Operation {
	return testutil.Op("countdown").
		Inputs("n").
		QueryApp("q1", "isZero", pat("n")).
		Action("0", "decrement", pat("n")).When("q1", ir.ExpectBool(false)).
		Action("1", "countdown", pat("n")).When("q1", ir.ExpectBool(false)).
		Build()
}

// growOp adds a child to a and increments it.
func growOp() *ir.Operation {
	return testutil.Op("grow").
		Inputs("a").
		Action("0", "addChild", pat("a")).Output("0", "A").
		Action("1", "increment", out("0.A")).
		Build()
}

// spinOp recurses without a base case.
func spinOp() *ir.Operation {
	return testutil.Op("spin").
		Inputs("n").
		Action("0", "increment", pat("n")).
		Action("1", "spin", pat("n")).
		Build()
}

// newCatalog returns the standard catalog with ops defined on top.
func newCatalog(t *testing.T, ops ...*ir.Operation) *catalog.Catalog {
	t.Helper()
	c := catalog.Standard()
	for _, op := range ops {
		require.NoError(t, c.Define(op))
	}
	return c
}

// outcomes flattens a trace into path -> outcome.
func outcomes(tr *Trace) map[ir.Path]Outcome {
	m := make(map[ir.Path]Outcome)
	for p, s := range tr.Steps() {
		m[p] = s.Outcome
	}
	return m
}

// patternValue returns the value of the PatternMatch node for p in s.
func patternValue(t *testing.T, tr *Trace, path ir.Path, p ir.PatternID) ir.Value {
	t.Helper()
	s, ok := tr.Step(path)
	require.True(t, ok, "no step at %s", path)
	for _, n := range s.Graph.Nodes {
		if n.AbstractNode != nil && n.AbstractNode.Key() == ir.PatternMatch(p).Key() {
			return n.Value
		}
	}
	t.Fatalf("pattern %s not in snapshot at %s", p, path)
	return ir.Value{}
}

func boolPtr(b bool) *bool {
	return &b
}
