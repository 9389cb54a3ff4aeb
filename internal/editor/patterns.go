package editor

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/algot/internal/catalog"
	"github.com/roach88/algot/internal/ir"
)

const patternLetters = "abcdefghijklmnopqrstuvwxyz"

// AddInput appends a new input pattern with example value 0. Every action
// in any user-defined operation that calls the recorded operation gets an
// Undefined descriptor for the new slot.
func (s *Session) AddInput() (ir.PatternID, error) {
	var id ir.PatternID
	err := s.edit("add_input", func() error {
		id = newPatternID(s.op)
		s.op.Patterns[id] = ir.Pattern{ID: id, Name: patternName(s.op)}
		s.op.Inputs = append(s.op.Inputs, id)
		s.state.ExampleValues[id] = ir.Number(0)
		extendCallers(s.engine.Catalog(), s.op.ID)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func extendCallers(cat *catalog.Catalog, callee ir.OperationID) {
	for _, op := range cat.UserOperations() {
		for i, a := range op.DemoSemantics.Actions {
			if a.Operation == callee {
				op.DemoSemantics.Actions[i].Inputs = append(a.Inputs, ir.Undefined())
			}
		}
	}
}

func shrinkCallers(cat *catalog.Catalog, callee ir.OperationID, slot int) {
	for _, op := range cat.UserOperations() {
		for i, a := range op.DemoSemantics.Actions {
			if a.Operation == callee && slot < len(a.Inputs) {
				op.DemoSemantics.Actions[i].Inputs = slices.Delete(slices.Clone(a.Inputs), slot, slot+1)
			}
		}
	}
}

// AddPatternNeighbor adds a pattern connected to an existing one: a
// successor when outgoing is true, otherwise a predecessor. The new
// pattern goes first among the neighbours when prepend is true.
func (s *Session) AddPatternNeighbor(of ir.PatternID, outgoing, prepend bool) (ir.PatternID, error) {
	if _, ok := s.op.Patterns[of]; !ok {
		return "", fmt.Errorf("add pattern neighbour: unknown pattern %q", of)
	}
	var id ir.PatternID
	err := s.edit("add_pattern_neighbor", func() error {
		id = newPatternID(s.op)
		p := ir.Pattern{ID: id, Name: patternName(s.op)}
		anchor := s.op.Patterns[of]
		if outgoing {
			p.Incoming = []ir.PatternID{of}
			anchor.Outgoing = insertNeighbor(anchor.Outgoing, id, prepend)
		} else {
			p.Outgoing = []ir.PatternID{of}
			anchor.Incoming = insertNeighbor(anchor.Incoming, id, prepend)
		}
		s.op.Patterns[id] = p
		s.op.Patterns[of] = anchor
		s.state.ExampleValues[id] = ir.Number(0)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func insertNeighbor(list []ir.PatternID, id ir.PatternID, prepend bool) []ir.PatternID {
	if prepend {
		return slices.Insert(list, 0, id)
	}
	return append(list, id)
}

// ToggleRequired flips whether pattern p must be matched.
func (s *Session) ToggleRequired(p ir.PatternID) error {
	if _, ok := s.op.Patterns[p]; !ok {
		return fmt.Errorf("toggle required: unknown pattern %q", p)
	}
	return s.edit("toggle_required", func() error {
		pat := s.op.Patterns[p]
		pat.Required = !pat.Required
		s.op.Patterns[p] = pat
		return nil
	})
}

// DeletePattern removes p together with every pattern that hangs off it
// on the side away from the inputs. Other inputs are never removed. Actions
// reading a removed pattern get an Undefined input, and the cursor
// restarts. Deleting an input also drops its slot from every caller.
func (s *Session) DeletePattern(p ir.PatternID) error {
	if _, ok := s.op.Patterns[p]; !ok {
		return fmt.Errorf("delete pattern: unknown pattern %q", p)
	}
	return s.edit("delete_pattern", func() error {
		removed := s.downstreamPatterns(p)

		if k := slices.Index(s.op.Inputs, p); k >= 0 {
			s.op.Inputs = slices.Delete(s.op.Inputs, k, k+1)
			shrinkCallers(s.engine.Catalog(), s.op.ID, k)
		}
		for id := range removed {
			delete(s.op.Patterns, id)
			delete(s.state.ExampleValues, id)
		}
		gone := func(id ir.PatternID) bool { return removed[id] }
		for id, pat := range s.op.Patterns {
			pat.Incoming = slices.DeleteFunc(pat.Incoming, gone)
			pat.Outgoing = slices.DeleteFunc(pat.Outgoing, gone)
			s.op.Patterns[id] = pat
		}
		for i := range s.op.DemoSemantics.Actions {
			for j, d := range s.op.DemoSemantics.Actions[i].Inputs {
				if d.Kind == ir.KindPatternMatch && removed[d.Pattern] {
					s.op.DemoSemantics.Actions[i].Inputs[j] = ir.Undefined()
				}
			}
		}
		s.state.ActionStack = []int{0}
		return nil
	})
}

// downstreamPatterns returns p and every pattern reachable from it without
// passing through the connector: the first pattern found next to p on a
// breadth-first walk from the inputs.
func (s *Session) downstreamPatterns(p ir.PatternID) map[ir.PatternID]bool {
	var connector ir.PatternID
	if !slices.Contains(s.op.Inputs, p) {
		seen := map[ir.PatternID]bool{}
		queue := slices.Clone(s.op.Inputs)
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if seen[cur] || cur == p {
				continue
			}
			seen[cur] = true
			pat := s.op.Patterns[cur]
			if slices.Contains(pat.Outgoing, p) || slices.Contains(pat.Incoming, p) {
				connector = cur
				break
			}
			queue = append(queue, pat.Outgoing...)
			queue = append(queue, pat.Incoming...)
		}
	}

	removed := map[ir.PatternID]bool{p: true}
	start := s.op.Patterns[p]
	queue := slices.DeleteFunc(slices.Concat(start.Incoming, start.Outgoing), func(id ir.PatternID) bool {
		return id == connector
	})
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if removed[cur] || cur == connector || slices.Contains(s.op.Inputs, cur) {
			continue
		}
		removed[cur] = true
		pat := s.op.Patterns[cur]
		queue = append(queue, pat.Outgoing...)
		queue = append(queue, pat.Incoming...)
	}
	return removed
}

// patternName returns the first letter not yet used as a pattern name.
func patternName(op *ir.Operation) string {
	used := make(map[string]bool, len(op.Patterns))
	for _, p := range op.Patterns {
		used[p.Name] = true
	}
	for _, c := range patternLetters {
		if !used[string(c)] {
			return string(c)
		}
	}
	return "newPattern"
}

func newPatternID(op *ir.Operation) ir.PatternID {
	for n := len(op.Patterns) + 1; ; n++ {
		id := ir.PatternID("p" + strconv.Itoa(n))
		if _, taken := op.Patterns[id]; !taken {
			return id
		}
	}
}
