package graph

import (
	"slices"

	"github.com/roach88/algot/internal/ir"
)

// ApproximateAPI is a disposable graph whose nodes are identified by
// descriptors. It is built fresh for every approximate replay.
type ApproximateAPI struct {
	*API
	nodes []*ApproxNode
}

// NewApproximateAPI returns an empty approximate graph.
func NewApproximateAPI() *ApproximateAPI {
	a := &ApproximateAPI{}
	a.API = &API{b: a}
	return a
}

// MakePatternNode creates the node standing in for a formal input pattern.
func (a *ApproximateAPI) MakePatternNode(p ir.PatternID, v ir.Value) *ApproxNode {
	n := &ApproxNode{desc: ir.PatternMatch(p), value: v, api: a}
	a.nodes = append(a.nodes, n)
	return n
}

// Nodes returns the live nodes in creation order.
func (a *ApproximateAPI) Nodes() []*ApproxNode {
	return slices.Clone(a.nodes)
}

// Find returns the node carrying the given descriptor.
func (a *ApproximateAPI) Find(d ir.Descriptor) (*ApproxNode, bool) {
	key := d.Key()
	for _, n := range a.nodes {
		if n.desc.Key() == key {
			return n, true
		}
	}
	return nil, false
}

func (a *ApproximateAPI) newNode(v ir.Value, temporary bool, key ir.OutputKey) Node {
	desc := ir.OperationOutput(key)
	if temporary {
		desc = ir.Literal(v)
	}
	n := &ApproxNode{desc: desc, value: v, api: a}
	a.nodes = append(a.nodes, n)
	return n
}

// snapshot omits Literal nodes; edges index into the emitted node list.
func (a *ApproximateAPI) snapshot() Snapshot {
	s := newSnapshot()
	index := make(map[*ApproxNode]int, len(a.nodes))
	for _, n := range a.nodes {
		if n.desc.Kind == ir.KindLiteral {
			continue
		}
		index[n] = len(s.Nodes)
		desc := n.desc
		s.Nodes = append(s.Nodes, SnapshotNode{AbstractNode: &desc, Value: n.value})
	}
	for _, n := range a.nodes {
		i, ok := index[n]
		if !ok {
			continue
		}
		for _, t := range n.out {
			if j, ok := index[t]; ok {
				s.Edges = append(s.Edges, SnapshotEdge{From: i, To: j})
			}
		}
	}
	return s
}

// ApproxNode is a node of an approximate graph.
type ApproxNode struct {
	desc    ir.Descriptor
	value   ir.Value
	out     []*ApproxNode
	in      []*ApproxNode
	api     *ApproximateAPI
	removed bool
}

// Descriptor returns the node's symbolic identity.
func (n *ApproxNode) Descriptor() ir.Descriptor {
	return n.desc
}

func (n *ApproxNode) Outgoing() []Node {
	return toNodes(n.out)
}

func (n *ApproxNode) Incoming() []Node {
	return toNodes(n.in)
}

func toNodes(ns []*ApproxNode) []Node {
	out := make([]Node, len(ns))
	for i, n := range ns {
		out[i] = n
	}
	return out
}

func (n *ApproxNode) AddEdgeTo(target Node) error {
	t, ok := target.(*ApproxNode)
	if !ok || t.api != n.api {
		return ir.NewInvariantError("edge target %s belongs to another graph", target.Label())
	}
	if slices.Contains(n.out, t) {
		return nil
	}
	n.out = append(n.out, t)
	t.in = append(t.in, n)
	return nil
}

func (n *ApproxNode) HasEdgeTo(target Node) bool {
	t, ok := target.(*ApproxNode)
	return ok && slices.Contains(n.out, t)
}

func (n *ApproxNode) RemoveEdges() {
	for _, t := range n.out {
		t.in = slices.DeleteFunc(t.in, func(x *ApproxNode) bool { return x == n })
	}
	for _, s := range n.in {
		s.out = slices.DeleteFunc(s.out, func(x *ApproxNode) bool { return x == n })
	}
	n.out = nil
	n.in = nil
}

func (n *ApproxNode) Remove() {
	if n.removed {
		return
	}
	n.RemoveEdges()
	n.removed = true
	n.api.nodes = slices.DeleteFunc(n.api.nodes, func(x *ApproxNode) bool { return x == n })
	n.api.notifyRemoved(n)
}

func (n *ApproxNode) Removed() bool {
	return n.removed
}

func (n *ApproxNode) Value() ir.Value {
	return n.value
}

func (n *ApproxNode) SetValue(v ir.Value) {
	n.value = v
}

func (n *ApproxNode) Number() (float64, error) {
	return n.value.AsNumber()
}

func (n *ApproxNode) Label() string {
	return n.desc.Key()
}

func (n *ApproxNode) setOutputKey(key ir.OutputKey) {
	if n.desc.Kind == ir.KindOperationOutput {
		n.desc.Output = key
	}
}
