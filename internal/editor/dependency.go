package editor

import (
	"slices"

	"github.com/roach88/algot/internal/ir"
)

// Dependency records that an action consumes, through its own input slot
// Input, an output produced directly or transitively by action ID.
type Dependency struct {
	ID    ir.ActionID `json:"id"`
	Input int         `json:"input"`
}

// DependencyGraph maps every ActionId to its dependencies.
type DependencyGraph map[ir.ActionID][]Dependency

// OutputDependencyGraph computes the transitive output dependencies of
// every action in ds.
//
// If action C reads B's output through slot 1 and B reads A's output, C
// depends on B via slot 1 and on A via slot 1: resetting slot 1 of C is
// what cuts C off from A.
func OutputDependencyGraph(ds *ir.DemoSemantics) DependencyGraph {
	direct := make(DependencyGraph, len(ds.Actions))
	for _, a := range ds.Actions {
		deps := []Dependency{}
		for j, in := range a.Inputs {
			if in.Kind == ir.KindOperationOutput {
				deps = append(deps, Dependency{ID: in.Output.LeadingAction(), Input: j})
			}
		}
		direct[a.ID] = deps
	}
	return direct.closure()
}

func (g DependencyGraph) closure() DependencyGraph {
	out := make(DependencyGraph, len(g))
	for id, deps := range g {
		seen := make(map[Dependency]bool)
		res := []Dependency{}
		queue := slices.Clone(deps)
		for len(queue) > 0 {
			d := queue[0]
			queue = queue[1:]
			if seen[d] {
				continue
			}
			seen[d] = true
			res = append(res, d)
			for _, t := range g[d.ID] {
				queue = append(queue, Dependency{ID: t.ID, Input: d.Input})
			}
		}
		out[id] = res
	}
	return out
}

// DependsOn reports whether action id depends on dep through any slot.
func (g DependencyGraph) DependsOn(id, dep ir.ActionID) bool {
	return slices.ContainsFunc(g[id], func(d Dependency) bool { return d.ID == dep })
}
