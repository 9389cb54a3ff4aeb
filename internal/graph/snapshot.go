package graph

import (
	"fmt"

	"github.com/roach88/algot/internal/ir"
)

// Snapshot is the serializable form of a graph consumed by the step
// debugger. Approximate snapshots identify nodes by AbstractNode, concrete
// snapshots by ID. Edge endpoints index into Nodes.
type Snapshot struct {
	Nodes []SnapshotNode `json:"nodes" yaml:"nodes"`
	Edges []SnapshotEdge `json:"edges" yaml:"edges"`

	// QueryResults holds, per query application guarding the action at
	// this path, whether its condition held; nil when not evaluated.
	QueryResults map[ir.QueryAppID]*bool `json:"query_results" yaml:"query_results"`

	CustomQueryResult bool `json:"custom_query_result" yaml:"custom_query_result"`
}

// SnapshotNode is one node of a Snapshot.
type SnapshotNode struct {
	AbstractNode *ir.Descriptor `json:"abstract_node,omitempty" yaml:"abstract_node,omitempty"`
	ID           string         `json:"id,omitempty" yaml:"id,omitempty"`
	Value        ir.Value       `json:"value" yaml:"value"`
}

// SnapshotEdge is a directed edge between two snapshot node indices.
type SnapshotEdge struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

func newSnapshot() Snapshot {
	return Snapshot{
		Nodes:        []SnapshotNode{},
		Edges:        []SnapshotEdge{},
		QueryResults: map[ir.QueryAppID]*bool{},
	}
}

// RestoreApproximate rebuilds an approximate graph from a snapshot taken
// by an ApproximateAPI. Node and edge order are preserved, so the pattern
// matcher sees the same neighbour positions as during the replay.
func RestoreApproximate(s Snapshot) (*ApproximateAPI, error) {
	a := NewApproximateAPI()
	for i, sn := range s.Nodes {
		if sn.AbstractNode == nil {
			return nil, fmt.Errorf("restore snapshot: node %d has no abstract node", i)
		}
		a.nodes = append(a.nodes, &ApproxNode{desc: *sn.AbstractNode, value: sn.Value, api: a})
	}
	for _, e := range s.Edges {
		if e.From < 0 || e.From >= len(a.nodes) || e.To < 0 || e.To >= len(a.nodes) {
			return nil, fmt.Errorf("restore snapshot: edge %d->%d out of range", e.From, e.To)
		}
		if err := a.nodes[e.From].AddEdgeTo(a.nodes[e.To]); err != nil {
			return nil, fmt.Errorf("restore snapshot: %w", err)
		}
	}
	return a, nil
}
