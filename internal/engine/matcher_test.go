package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
	"github.com/roach88/algot/internal/testutil"
)

// nodesOf returns handles for ids in a concrete replay of g.
func nodesOf(t *testing.T, g *graph.ConcreteGraph) func(id string) graph.Node {
	t.Helper()
	api := graph.NewConcreteAPI(g)
	return func(id string) graph.Node {
		n, ok := api.Node(id)
		require.True(t, ok, "node %s", id)
		return n
	}
}

func labels(b Bindings) map[ir.PatternID]string {
	out := make(map[ir.PatternID]string, len(b))
	for p, n := range b {
		if n == nil {
			out[p] = ""
			continue
		}
		out[p] = n.Label()
	}
	return out
}

func TestMatchPositionalNeighbours(t *testing.T) {
	op := testutil.Op("f").Inputs("a").Edge("a", "b").Edge("a", "c").Build()
	g := &graph.ConcreteGraph{Nodes: map[string]*graph.NodeData{
		"0": {Outgoing: []string{"2", "1"}},
		"1": {},
		"2": {},
	}}
	g.Normalize()
	node := nodesOf(t, g)

	b, err := Match(op, []graph.Node{node("0")})
	require.NoError(t, err)
	assert.Equal(t, map[ir.PatternID]string{"a": "0", "b": "2", "c": "1"}, labels(b))
}

func TestMatchTooFewNeighbours(t *testing.T) {
	op := testutil.Op("f").Inputs("a").Edge("a", "b").Edge("a", "c").Build()
	g := &graph.ConcreteGraph{Nodes: map[string]*graph.NodeData{
		"0": {Outgoing: []string{"1"}},
		"1": {},
	}}
	g.Normalize()
	node := nodesOf(t, g)

	b, err := Match(op, []graph.Node{node("0")})
	require.NoError(t, err)
	assert.Equal(t, map[ir.PatternID]string{"a": "0", "b": "1", "c": ""}, labels(b))

	required := testutil.Op("f").Inputs("a").Edge("a", "b").Edge("a", "c").Required("c").Build()
	_, err = Match(required, []graph.Node{node("0")})
	assert.True(t, ir.IsMatchError(err))
}

func TestMatchPivotsAroundSource(t *testing.T) {
	op := &ir.Operation{
		ID:     "f",
		Inputs: []ir.PatternID{"a"},
		Patterns: map[ir.PatternID]ir.Pattern{
			"a": {Outgoing: []ir.PatternID{"b"}},
			"b": {Incoming: []ir.PatternID{"x", "a", "y"}},
			"x": {Outgoing: []ir.PatternID{"b"}},
			"y": {Outgoing: []ir.PatternID{"b"}},
		},
	}
	op.Normalize()
	g := &graph.ConcreteGraph{Nodes: map[string]*graph.NodeData{
		"0": {Outgoing: []string{"1"}},
		"1": {Incoming: []string{"9", "0", "8"}},
		"8": {Outgoing: []string{"1"}},
		"9": {Outgoing: []string{"1"}},
	}}
	g.Normalize()
	node := nodesOf(t, g)

	b, err := Match(op, []graph.Node{node("0")})
	require.NoError(t, err)
	assert.Equal(t, map[ir.PatternID]string{"a": "0", "b": "1", "x": "9", "y": "8"}, labels(b))
}

func TestMatchFirstPatternKeepsNode(t *testing.T) {
	op := &ir.Operation{
		ID:     "f",
		Inputs: []ir.PatternID{"a"},
		Patterns: map[ir.PatternID]ir.Pattern{
			"a": {Outgoing: []ir.PatternID{"b"}, Incoming: []ir.PatternID{"c"}},
			"b": {Incoming: []ir.PatternID{"a"}},
			"c": {},
		},
	}
	op.Normalize()
	g := &graph.ConcreteGraph{Nodes: map[string]*graph.NodeData{
		"0": {Outgoing: []string{"1"}, Incoming: []string{"1"}},
		"1": {Outgoing: []string{"0"}, Incoming: []string{"0"}},
	}}
	g.Normalize()
	node := nodesOf(t, g)

	b, err := Match(op, []graph.Node{node("0")})
	require.NoError(t, err)
	assert.Equal(t, map[ir.PatternID]string{"a": "0", "b": "1", "c": ""}, labels(b))
}

func TestMatchSourceListedTwice(t *testing.T) {
	op := &ir.Operation{
		ID:     "f",
		Inputs: []ir.PatternID{"a"},
		Patterns: map[ir.PatternID]ir.Pattern{
			"a": {Outgoing: []ir.PatternID{"b"}},
			"b": {Incoming: []ir.PatternID{"a", "a"}},
		},
	}
	op.Normalize()
	g := &graph.ConcreteGraph{Nodes: map[string]*graph.NodeData{
		"0": {Outgoing: []string{"1"}},
		"1": {},
	}}
	g.Normalize()
	node := nodesOf(t, g)

	_, err := Match(op, []graph.Node{node("0")})
	assert.True(t, ir.IsInvariantError(err))
}

func TestMatchMultipleInputs(t *testing.T) {
	op := testutil.Op("f").Inputs("a", "b").Build()
	g := &graph.ConcreteGraph{Nodes: map[string]*graph.NodeData{"0": {}, "1": {}}}
	g.Normalize()
	node := nodesOf(t, g)

	b, err := Match(op, []graph.Node{node("1"), node("0")})
	require.NoError(t, err)
	assert.Equal(t, map[ir.PatternID]string{"a": "1", "b": "0"}, labels(b))

	b, err = Match(op, []graph.Node{node("1"), node("1")})
	require.NoError(t, err)
	assert.Equal(t, map[ir.PatternID]string{"a": "1", "b": ""}, labels(b), "a node binds to one pattern only")
}
