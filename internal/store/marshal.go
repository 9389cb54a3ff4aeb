package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
)

// marshalExampleValues converts example values to canonical JSON TEXT.
func marshalExampleValues(values map[ir.PatternID]ir.Value) (string, error) {
	if values == nil {
		values = map[ir.PatternID]ir.Value{}
	}
	data, err := ir.MarshalCanonical(values)
	if err != nil {
		return "", fmt.Errorf("marshal example values: %w", err)
	}
	return string(data), nil
}

func unmarshalExampleValues(data string) (map[ir.PatternID]ir.Value, error) {
	values := map[ir.PatternID]ir.Value{}
	if data == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("unmarshal example values: %w", err)
	}
	return values, nil
}

// marshalSnapshot converts a step graph to canonical JSON TEXT.
func marshalSnapshot(s graph.Snapshot) (string, error) {
	data, err := ir.MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}

func unmarshalSnapshot(data string) (graph.Snapshot, error) {
	var s graph.Snapshot
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return graph.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, nil
}

// marshalResult stores the graph a concrete replay produced. A nil graph
// is stored as the empty string.
func marshalResult(g *graph.ConcreteGraph) (string, error) {
	if g == nil {
		return "", nil
	}
	data, err := ir.MarshalCanonical(g)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}

func unmarshalResult(data string) (*graph.ConcreteGraph, error) {
	if data == "" {
		return nil, nil
	}
	g := graph.NewConcreteGraph()
	if err := json.Unmarshal([]byte(data), g); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return g, nil
}
