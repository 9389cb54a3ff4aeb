package graph

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/roach88/algot/internal/ir"
)

// Node is the capability set the interpreter and builtins use, implemented
// by ConcreteNode and ApproxNode.
//
// Neighbour order is significant: the pattern matcher binds the k-th
// declared neighbour to the k-th element of Outgoing or Incoming.
type Node interface {
	// Outgoing returns targets of edges leaving the node, in insertion order.
	Outgoing() []Node

	// Incoming returns sources of edges entering the node, in insertion order.
	Incoming() []Node

	// AddEdgeTo adds an edge to target. Duplicate edges are ignored.
	AddEdgeTo(target Node) error

	// HasEdgeTo reports whether an edge to target exists.
	HasEdgeTo(target Node) bool

	// RemoveEdges severs every edge incident to the node.
	RemoveEdges()

	// Remove deletes the node, severs its edges and notifies removal listeners.
	Remove()

	// Removed reports whether Remove has been called.
	Removed() bool

	Value() ir.Value
	SetValue(v ir.Value)

	// Number coerces the value to a number.
	Number() (float64, error)

	// Label identifies the node in logs and errors.
	Label() string

	setOutputKey(key ir.OutputKey)
}

// RemovalListener is invoked synchronously when a node is removed.
type RemovalListener func(n Node)

// IDGenerator allocates ids for new concrete nodes.
// Implemented by SequentialIDs (default) and UUIDIDs.
type IDGenerator interface {
	Generate(g *ConcreteGraph) string
}

// SequentialIDs hands out decimal ids from the graph's NextID counter,
// skipping any id already present.
type SequentialIDs struct{}

// Generate returns the next free decimal id.
func (SequentialIDs) Generate(g *ConcreteGraph) string {
	for {
		id := strconv.Itoa(g.NextID)
		g.NextID++
		if _, taken := g.Nodes[id]; !taken {
			return id
		}
	}
}

// UUIDIDs generates time-sortable UUIDv7 node ids.
//
// Replays using UUIDIDs are not byte-for-byte reproducible; use
// SequentialIDs where determinism matters.
type UUIDIDs struct{}

// Generate returns a new UUIDv7 string.
func (UUIDIDs) Generate(*ConcreteGraph) string {
	return uuid.Must(uuid.NewV7()).String()
}
