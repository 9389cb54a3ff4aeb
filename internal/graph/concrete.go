package graph

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/roach88/algot/internal/ir"
)

// ConcreteGraph is the serializable state of a live graph.
type ConcreteGraph struct {
	NextID int                  `json:"next_id" yaml:"next_id"`
	Nodes  map[string]*NodeData `json:"nodes" yaml:"nodes"`
}

// NodeData is one node of a ConcreteGraph. Outgoing and Incoming hold
// neighbour ids in insertion order.
type NodeData struct {
	ID       string            `json:"id" yaml:"id"`
	Value    ir.Value          `json:"value" yaml:"value"`
	Outgoing []string          `json:"outgoing,omitempty" yaml:"outgoing,omitempty"`
	Incoming []string          `json:"incoming,omitempty" yaml:"incoming,omitempty"`
	Style    map[string]string `json:"style,omitempty" yaml:"style,omitempty"`
}

// NewConcreteGraph returns an empty graph.
func NewConcreteGraph() *ConcreteGraph {
	return &ConcreteGraph{Nodes: make(map[string]*NodeData)}
}

// Clone returns a deep copy of the graph.
func (g *ConcreteGraph) Clone() *ConcreteGraph {
	if g == nil {
		return nil
	}
	out := &ConcreteGraph{NextID: g.NextID, Nodes: make(map[string]*NodeData, len(g.Nodes))}
	for id, n := range g.Nodes {
		cp := *n
		cp.Outgoing = slices.Clone(n.Outgoing)
		cp.Incoming = slices.Clone(n.Incoming)
		cp.Style = maps.Clone(n.Style)
		out.Nodes[id] = &cp
	}
	return out
}

// Normalize fills node ids from map keys, derives Incoming from Outgoing
// when a loaded file only lists outgoing edges, and raises NextID above
// every numeric id.
func (g *ConcreteGraph) Normalize() {
	if g.Nodes == nil {
		g.Nodes = make(map[string]*NodeData)
	}
	hasIncoming := false
	for id, n := range g.Nodes {
		n.ID = id
		if len(n.Incoming) > 0 {
			hasIncoming = true
		}
		if k, err := strconv.Atoi(id); err == nil && k >= g.NextID {
			g.NextID = k + 1
		}
	}
	if hasIncoming {
		return
	}
	for _, id := range g.SortedIDs() {
		for _, t := range g.Nodes[id].Outgoing {
			if target, ok := g.Nodes[t]; ok {
				target.Incoming = append(target.Incoming, id)
			}
		}
	}
}

// SortedIDs returns node ids ordered numerically where both ids are
// decimal, lexically otherwise.
func (g *ConcreteGraph) SortedIDs() []string {
	ids := slices.Collect(maps.Keys(g.Nodes))
	slices.SortFunc(ids, compareIDs)
	return ids
}

func compareIDs(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na - nb
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ConcreteAPI replays against a private copy of a ConcreteGraph.
type ConcreteAPI struct {
	*API
	graph *ConcreteGraph
	ids   IDGenerator
	nodes map[string]*ConcreteNode
}

// ConcreteOption configures a ConcreteAPI.
type ConcreteOption func(*ConcreteAPI)

// WithIDGenerator sets the generator for new node ids.
// Default: SequentialIDs.
func WithIDGenerator(gen IDGenerator) ConcreteOption {
	return func(c *ConcreteAPI) {
		c.ids = gen
	}
}

// NewConcreteAPI wraps a deep copy of g. The caller's graph is never
// mutated; read the result back with Graph.
func NewConcreteAPI(g *ConcreteGraph, opts ...ConcreteOption) *ConcreteAPI {
	if g == nil {
		g = NewConcreteGraph()
	}
	c := &ConcreteAPI{
		graph: g.Clone(),
		ids:   SequentialIDs{},
		nodes: make(map[string]*ConcreteNode),
	}
	c.API = &API{b: c}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Graph returns the working copy.
func (c *ConcreteAPI) Graph() *ConcreteGraph {
	return c.graph
}

// Node returns the node with the given id.
func (c *ConcreteAPI) Node(id string) (*ConcreteNode, bool) {
	if _, ok := c.graph.Nodes[id]; !ok {
		return nil, false
	}
	return c.node(id), true
}

func (c *ConcreteAPI) node(id string) *ConcreteNode {
	if n, ok := c.nodes[id]; ok {
		return n
	}
	n := &ConcreteNode{id: id, api: c}
	c.nodes[id] = n
	return n
}

func (c *ConcreteAPI) newNode(v ir.Value, _ bool, _ ir.OutputKey) Node {
	id := c.ids.Generate(c.graph)
	c.graph.Nodes[id] = &NodeData{ID: id, Value: v}
	return c.node(id)
}

func (c *ConcreteAPI) snapshot() Snapshot {
	ids := c.graph.SortedIDs()
	index := make(map[string]int, len(ids))
	s := newSnapshot()
	for i, id := range ids {
		index[id] = i
		s.Nodes = append(s.Nodes, SnapshotNode{ID: id, Value: c.graph.Nodes[id].Value})
	}
	for i, id := range ids {
		for _, t := range c.graph.Nodes[id].Outgoing {
			if j, ok := index[t]; ok {
				s.Edges = append(s.Edges, SnapshotEdge{From: i, To: j})
			}
		}
	}
	return s
}

// ConcreteNode is a handle on one node of a ConcreteAPI's graph.
// Handles are canonical per id, so == compares node identity.
type ConcreteNode struct {
	id  string
	api *ConcreteAPI
}

// ID returns the node id.
func (n *ConcreteNode) ID() string {
	return n.id
}

func (n *ConcreteNode) data() *NodeData {
	return n.api.graph.Nodes[n.id]
}

func (n *ConcreteNode) handles(ids []string) []Node {
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, n.api.node(id))
	}
	return out
}

func (n *ConcreteNode) Outgoing() []Node {
	d := n.data()
	if d == nil {
		return nil
	}
	return n.handles(d.Outgoing)
}

func (n *ConcreteNode) Incoming() []Node {
	d := n.data()
	if d == nil {
		return nil
	}
	return n.handles(d.Incoming)
}

func (n *ConcreteNode) AddEdgeTo(target Node) error {
	t, ok := target.(*ConcreteNode)
	if !ok || t.api != n.api {
		return ir.NewInvariantError("edge target %s belongs to another graph", target.Label())
	}
	if t.id == n.id {
		return fmt.Errorf("add edge %s->%s: self loop", n.id, t.id)
	}
	src, dst := n.data(), t.data()
	if src == nil || dst == nil {
		return fmt.Errorf("add edge %s->%s: node removed", n.id, t.id)
	}
	if slices.Contains(src.Outgoing, t.id) {
		return nil
	}
	src.Outgoing = append(src.Outgoing, t.id)
	dst.Incoming = append(dst.Incoming, n.id)
	return nil
}

func (n *ConcreteNode) HasEdgeTo(target Node) bool {
	t, ok := target.(*ConcreteNode)
	d := n.data()
	return ok && d != nil && slices.Contains(d.Outgoing, t.id)
}

func (n *ConcreteNode) RemoveEdges() {
	d := n.data()
	if d == nil {
		return
	}
	for _, t := range d.Outgoing {
		if td := n.api.graph.Nodes[t]; td != nil {
			td.Incoming = slices.DeleteFunc(td.Incoming, func(s string) bool { return s == n.id })
		}
	}
	for _, s := range d.Incoming {
		if sd := n.api.graph.Nodes[s]; sd != nil {
			sd.Outgoing = slices.DeleteFunc(sd.Outgoing, func(t string) bool { return t == n.id })
		}
	}
	d.Outgoing = nil
	d.Incoming = nil
}

func (n *ConcreteNode) Remove() {
	if n.Removed() {
		return
	}
	n.RemoveEdges()
	delete(n.api.graph.Nodes, n.id)
	n.api.notifyRemoved(n)
}

func (n *ConcreteNode) Removed() bool {
	return n.data() == nil
}

func (n *ConcreteNode) Value() ir.Value {
	if d := n.data(); d != nil {
		return d.Value
	}
	return ir.Value{}
}

func (n *ConcreteNode) SetValue(v ir.Value) {
	if d := n.data(); d != nil {
		d.Value = v
	}
}

func (n *ConcreteNode) Number() (float64, error) {
	return n.Value().AsNumber()
}

// SetStyle records a display style entry. Style has no effect on replay.
func (n *ConcreteNode) SetStyle(key, value string) {
	d := n.data()
	if d == nil {
		return
	}
	if d.Style == nil {
		d.Style = make(map[string]string)
	}
	d.Style[key] = value
}

func (n *ConcreteNode) Label() string {
	return n.id
}

func (n *ConcreteNode) setOutputKey(ir.OutputKey) {}
