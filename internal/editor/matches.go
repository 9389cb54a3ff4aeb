package editor

import (
	"maps"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
)

// patternMatches computes, for every open path, which descriptors of the
// recorded operation the patterns of the operation executing there are
// bound to.
//
// Top-level paths bind every pattern to itself. The first path inside an
// expanded call is matched against the graph recorded at the call; the
// match is shared by the call's other descendants until a deeper call
// refines it.
func (s *Session) patternMatches(open []ir.Path, steps map[ir.Path]engine.Step) map[ir.Path]map[ir.PatternID]ir.Descriptor {
	matches := make(map[ir.Path]map[ir.PatternID]ir.Descriptor)
	for i := range s.op.DemoSemantics.Actions {
		identity := make(map[ir.PatternID]ir.Descriptor, len(s.op.Patterns))
		for id := range s.op.Patterns {
			identity[id] = ir.PatternMatch(id)
		}
		matches[ir.PathOf([]int{i})] = identity
	}

	for i := 0; i+1 < len(open); i++ {
		if !isDescendant(open[i+1], open[i]) {
			continue
		}
		m := s.matchOneStep(open[i].Stack(), steps, matches[open[i]])
		matches[open[i+1]] = m
		for j := i + 2; j < len(open) && isDescendant(open[j], open[i]); j++ {
			matches[open[j]] = m
		}
	}
	return matches
}

// matchOneStep binds the callee of the action at stack against the graph
// recorded there. current holds the bindings of the caller's patterns. Any
// input that cannot be located yields an empty match.
func (s *Session) matchOneStep(stack []int, steps map[ir.Path]engine.Step, current map[ir.PatternID]ir.Descriptor) map[ir.PatternID]ir.Descriptor {
	none := map[ir.PatternID]ir.Descriptor{}

	op, idx, err := s.operationAt(stack)
	if err != nil {
		return none
	}
	action, err := actionAt(op, idx)
	if err != nil {
		return none
	}
	step, ok := steps[ir.PathOf(stack)]
	if !ok {
		return none
	}
	g, err := graph.RestoreApproximate(step.Graph)
	if err != nil {
		s.logger.Debug("pattern match skipped", "path", ir.PathOf(stack), "error", err)
		return none
	}
	callee, err := s.engine.Catalog().Resolve(action.Operation)
	if err != nil {
		return none
	}
	prefix, err := s.actionIDStack(stack[:len(stack)-1])
	if err != nil {
		return none
	}

	nodes := make([]graph.Node, len(action.Inputs))
	for i, d := range action.Inputs {
		switch d.Kind {
		case ir.KindPatternMatch:
			d, ok = current[d.Pattern]
			if !ok {
				return none
			}
		case ir.KindOperationOutput:
			key := d.Output
			for j := len(prefix) - 1; j >= 0; j-- {
				key = key.Prefixed(prefix[j])
			}
			d = ir.OperationOutput(key)
		case ir.KindLiteral:
			nodes[i] = g.MakeTemporaryNode(d.Value)
			continue
		}
		n, found := g.Find(d)
		if !found {
			return none
		}
		nodes[i] = n
	}

	bindings, err := engine.Match(callee.Operation, nodes)
	if err != nil {
		return none
	}
	out := make(map[ir.PatternID]ir.Descriptor, len(bindings))
	for p, n := range bindings {
		if an, ok := n.(*graph.ApproxNode); ok && an != nil {
			out[p] = an.Descriptor()
		}
	}
	return out
}

// PatternMatchesAt returns the bindings recorded for p.
func (s *Session) PatternMatchesAt(p ir.Path) map[ir.PatternID]ir.Descriptor {
	return maps.Clone(s.state.PatternMatches[p])
}
