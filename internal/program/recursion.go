package program

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/algot/internal/ir"
)

// RecursionWarning reports user-defined operations that can call
// themselves, directly or through other operations.
//
// Recursion is legal: a condition on the recursive call can end it. The
// warning exists because an unguarded cycle always ends in MaxDepthExceeded.
type RecursionWarning struct {
	Path      []ir.OperationID `json:"path"`
	Unguarded bool             `json:"unguarded"`
	Message   string           `json:"message"`
}

// callGraph maps an operation to the user-defined operations it calls.
type callGraph map[ir.OperationID][]call

type call struct {
	callee  ir.OperationID
	guarded bool
}

// AnalyzeRecursion finds strongly connected components of the call graph
// formed by actions and query applications. Each component with more than
// one member, or a single member calling itself, yields one warning.
// Warnings are ordered by their first operation id.
func AnalyzeRecursion(ops []*ir.Operation) []RecursionWarning {
	g := buildCallGraph(ops)
	warnings := []RecursionWarning{}
	for _, scc := range tarjanSCC(g) {
		if len(scc) == 1 && !g.calls(scc[0], scc[0]) {
			continue
		}
		warnings = append(warnings, sccWarning(scc, g))
	}
	slices.SortFunc(warnings, func(a, b RecursionWarning) int {
		return strings.Compare(string(a.Path[0]), string(b.Path[0]))
	})
	return warnings
}

func buildCallGraph(ops []*ir.Operation) callGraph {
	g := make(callGraph)
	for _, op := range ops {
		if op != nil && op.DemoSemantics != nil {
			g[op.ID] = []call{}
		}
	}
	for _, op := range ops {
		if op == nil || op.DemoSemantics == nil {
			continue
		}
		for _, a := range op.DemoSemantics.Actions {
			if _, user := g[a.Operation]; user {
				g[op.ID] = append(g[op.ID], call{callee: a.Operation, guarded: len(a.Conditions) > 0})
			}
		}
		for _, id := range slices.Sorted(maps.Keys(op.DemoSemantics.QueryApplications)) {
			q := op.DemoSemantics.QueryApplications[id].Query
			if _, user := g[q]; user {
				g[op.ID] = append(g[op.ID], call{callee: q})
			}
		}
	}
	return g
}

func (g callGraph) calls(from, to ir.OperationID) bool {
	return slices.ContainsFunc(g[from], func(c call) bool { return c.callee == to })
}

// tarjanSCC returns the strongly connected components of g. Roots are
// visited in id order so the result is deterministic.
func tarjanSCC(g callGraph) [][]ir.OperationID {
	var (
		index   int
		stack   []ir.OperationID
		indices = make(map[ir.OperationID]int)
		lowlink = make(map[ir.OperationID]int)
		onStack = make(map[ir.OperationID]bool)
		sccs    [][]ir.OperationID
	)

	var connect func(ir.OperationID)
	connect = func(v ir.OperationID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, c := range g[v] {
			w := c.callee
			if _, visited := indices[w]; !visited {
				connect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []ir.OperationID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, v := range slices.Sorted(maps.Keys(g)) {
		if _, visited := indices[v]; !visited {
			connect(v)
		}
	}
	return sccs
}

// sccWarning walks the component from its smallest id back to itself.
// The cycle counts as unguarded when no call along the walk carries a
// condition.
func sccWarning(scc []ir.OperationID, g callGraph) RecursionWarning {
	members := make(map[ir.OperationID]bool, len(scc))
	for _, id := range scc {
		members[id] = true
	}
	start := slices.Min(scc)
	path := []ir.OperationID{start}
	visited := map[ir.OperationID]bool{}
	guarded := false

	for cur := start; ; {
		visited[cur] = true
		next, found := call{}, false
		for _, c := range g[cur] {
			if c.callee == start && (len(path) > 1 || len(scc) == 1) {
				next, found = c, true
				break
			}
			if !found && members[c.callee] && !visited[c.callee] {
				next, found = c, true
			}
		}
		if !found {
			break
		}
		guarded = guarded || next.guarded
		path = append(path, next.callee)
		if next.callee == start {
			break
		}
		cur = next.callee
	}

	names := make([]string, len(path))
	for i, id := range path {
		names[i] = string(id)
	}
	w := RecursionWarning{Path: path, Unguarded: !guarded}
	switch {
	case len(scc) == 1 && w.Unguarded:
		w.Message = fmt.Sprintf("operation %s calls itself without a condition", start)
	case len(scc) == 1:
		w.Message = fmt.Sprintf("operation %s is recursive", start)
	case w.Unguarded:
		w.Message = fmt.Sprintf("unguarded recursion: %s", strings.Join(names, " -> "))
	default:
		w.Message = fmt.Sprintf("recursion: %s", strings.Join(names, " -> "))
	}
	return w
}
