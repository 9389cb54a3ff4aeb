package editor

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/algot/internal/ir"
	"github.com/roach88/algot/internal/testutil"
)

func TestOutputDependencyGraph(t *testing.T) {
	op := testutil.Op("main").
		Inputs("a").
		Action("0", "newNode").Output("0", "A").
		Action("1", "addChild", testutil.Out("0.A")).Output("1", "B").
		Action("2", "setValue", testutil.Pat("a"), testutil.Out("1.B")).
		Action("3", "increment", testutil.Pat("a")).
		Build()

	g := OutputDependencyGraph(op.DemoSemantics)

	assert.Equal(t, DependencyGraph{
		"0": {},
		"1": {{ID: "0", Input: 0}},
		"2": {{ID: "1", Input: 1}, {ID: "0", Input: 1}},
		"3": {},
	}, g)
	assert.True(t, g.DependsOn("2", "0"), "transitive")
	assert.False(t, g.DependsOn("3", "0"))
}

func TestOutputDependencyGraph_NestedKeys(t *testing.T) {
	// An output produced inside a nested call is keyed by the top-level
	// action that made the call.
	op := testutil.Op("main").
		Inputs("a").
		Action("0", "grow", testutil.Pat("a")).
		Action("1", "increment", testutil.Out("0.3.A")).
		Build()

	g := OutputDependencyGraph(op.DemoSemantics)

	assert.Equal(t, []Dependency{{ID: "0", Input: 0}}, g["1"])
}

func TestOutputDependencyGraph_DiamondDedupes(t *testing.T) {
	op := testutil.Op("main").
		Action("0", "newNode").Output("0", "A").
		Action("1", "addChild", testutil.Out("0.A")).Output("1", "B").
		Action("2", "addChild", testutil.Out("0.A")).Output("2", "C").
		Action("3", "sum", testutil.Out("1.B"), testutil.Out("2.C")).Output("3", "D").
		Build()

	g := OutputDependencyGraph(op.DemoSemantics)

	assert.ElementsMatch(t, []Dependency{
		{ID: "1", Input: 0},
		{ID: "2", Input: 1},
		{ID: "0", Input: 0},
		{ID: "0", Input: 1},
	}, g["3"])
	assert.Equal(t, []ir.ActionID{"0", "1", "2", "3"}, slices.Sorted(maps.Keys(g)))
}
