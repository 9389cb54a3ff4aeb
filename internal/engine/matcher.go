package engine

import (
	"maps"
	"slices"

	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
)

// Bindings maps every pattern of an operation to the node bound to it, or
// nil when the pattern stayed unmatched.
type Bindings map[ir.PatternID]graph.Node

// Match binds an operation's patterns to graph nodes.
//
// Each declared input inputs[i] is seeded with nodes[i]; from there the
// walk follows declared neighbours outward in both directions. A pattern's
// k-th declared outgoing (incoming) neighbour binds to the node's k-th
// outgoing (incoming) neighbour, by position, and stays unmatched if the
// node has fewer neighbours.
//
// When a pair was reached over an edge, the opposite direction's lists are
// pivoted at the source so the traversed edge is not walked back. Every
// node is visited at most once; the first pattern to reach a node keeps it.
//
// Fails with MATCH_FAILED if a Required pattern is unmatched, and with
// INVARIANT_VIOLATED if a pattern lists its source pattern among the
// neighbours that remain after pivoting.
func Match(op *ir.Operation, nodes []graph.Node) (Bindings, error) {
	m := &matcher{
		op:       op,
		bindings: make(Bindings, len(op.Patterns)),
		visited:  make(map[graph.Node]bool),
	}
	for id := range op.Patterns {
		m.bindings[id] = nil
	}

	for i, p := range op.Inputs {
		if i >= len(nodes) || nodes[i] == nil {
			continue
		}
		if err := m.walk(p, nodes[i], nil); err != nil {
			return nil, err
		}
	}

	for _, id := range slices.Sorted(maps.Keys(op.Patterns)) {
		if op.Patterns[id].Required && m.bindings[id] == nil {
			return nil, ir.NewMatchError(op.ID, id)
		}
	}
	return m.bindings, nil
}

type matcher struct {
	op       *ir.Operation
	bindings Bindings
	visited  map[graph.Node]bool
}

// arrival describes the edge a walk step came over.
type arrival struct {
	pattern ir.PatternID
	node    graph.Node
	forward bool
}

func (m *matcher) walk(p ir.PatternID, n graph.Node, from *arrival) error {
	if m.visited[n] {
		return nil
	}
	m.visited[n] = true

	pat, ok := m.op.Patterns[p]
	if !ok {
		return ir.NewInvariantError("operation %q has no pattern %q", m.op.ID, p)
	}
	m.bindings[p] = n

	if err := m.match(p, n, pat.Outgoing, n.Outgoing(), true, from); err != nil {
		return err
	}
	return m.match(p, n, pat.Incoming, n.Incoming(), false, from)
}

// match walks one direction. The side opposite to the arrival direction
// contains the source; it is split around the source and each half is
// matched positionally.
func (m *matcher) match(p ir.PatternID, n graph.Node, patterns []ir.PatternID, neighbors []graph.Node, forward bool, from *arrival) error {
	if from == nil || forward == from.forward {
		return m.matchSide(p, n, patterns, neighbors, forward, from)
	}

	pi := slices.Index(patterns, from.pattern)
	if pi < 0 {
		return m.matchSide(p, n, patterns, neighbors, forward, from)
	}
	ni := slices.Index(neighbors, from.node)
	if ni < 0 {
		return ir.NewInvariantError("pattern %q: source node %s is not a neighbour of %s", p, from.node.Label(), n.Label())
	}
	if err := m.matchSide(p, n, patterns[:pi], neighbors[:ni], forward, from); err != nil {
		return err
	}
	return m.matchSide(p, n, patterns[pi+1:], neighbors[ni+1:], forward, from)
}

func (m *matcher) matchSide(p ir.PatternID, n graph.Node, patterns []ir.PatternID, neighbors []graph.Node, forward bool, from *arrival) error {
	for k, np := range patterns {
		if from != nil && np == from.pattern {
			return ir.NewInvariantError("pattern %q: source pattern %q must be removed by pivoting", p, np)
		}
		if k >= len(neighbors) {
			continue
		}
		if err := m.walk(np, neighbors[k], &arrival{pattern: p, node: n, forward: forward}); err != nil {
			return err
		}
	}
	return nil
}
