package editor

import (
	"fmt"
	"slices"

	"github.com/roach88/algot/internal/ir"
)

// CurrentOperation returns the operation executing at the cursor and the
// index of the cursor's action within it.
func (s *Session) CurrentOperation() (*ir.Operation, int, error) {
	return s.operationAt(s.state.ActionStack)
}

// CallStack returns the ids of the operations entered along the cursor,
// starting with the recorded operation.
func (s *Session) CallStack() ([]ir.OperationID, error) {
	return s.callStack(s.state.ActionStack)
}

// ActionIDStack returns the cursor as an ActionId stack. The end position
// of the recorded operation is ["-1"].
func (s *Session) ActionIDStack() ([]ir.ActionID, error) {
	return s.actionIDStack(s.state.ActionStack)
}

func (s *Session) operationAt(stack []int) (*ir.Operation, int, error) {
	if len(stack) == 0 {
		return nil, 0, fmt.Errorf("empty action stack")
	}
	op := s.op
	for _, idx := range stack[:len(stack)-1] {
		callee, err := s.callee(op, idx)
		if err != nil {
			return nil, 0, err
		}
		op = callee
	}
	return op, stack[len(stack)-1], nil
}

func (s *Session) callStack(stack []int) ([]ir.OperationID, error) {
	ids := []ir.OperationID{s.op.ID}
	op := s.op
	for _, idx := range stack[:max(len(stack)-1, 0)] {
		callee, err := s.callee(op, idx)
		if err != nil {
			return nil, err
		}
		ids = append(ids, callee.ID)
		op = callee
	}
	return ids, nil
}

func (s *Session) actionIDStack(stack []int) ([]ir.ActionID, error) {
	if slices.Equal(stack, s.endStack()) {
		return []ir.ActionID{ir.EndActionID}, nil
	}
	ids := make([]ir.ActionID, 0, len(stack))
	op := s.op
	for i, idx := range stack {
		a, err := actionAt(op, idx)
		if err != nil {
			return nil, err
		}
		ids = append(ids, a.ID)
		if i == len(stack)-1 {
			break
		}
		entry, err := s.engine.Catalog().Resolve(a.Operation)
		if err != nil {
			return nil, err
		}
		op = entry.Operation
	}
	return ids, nil
}

// callee resolves the operation called by op's action at idx.
func (s *Session) callee(op *ir.Operation, idx int) (*ir.Operation, error) {
	a, err := actionAt(op, idx)
	if err != nil {
		return nil, err
	}
	entry, err := s.engine.Catalog().Resolve(a.Operation)
	if err != nil {
		return nil, err
	}
	return entry.Operation, nil
}

func actionAt(op *ir.Operation, idx int) (ir.Action, error) {
	if op.DemoSemantics == nil || idx < 0 || idx >= len(op.DemoSemantics.Actions) {
		return ir.Action{}, fmt.Errorf("operation %q has no action %d", op.ID, idx)
	}
	return op.DemoSemantics.Actions[idx], nil
}

// exploredPaths lists, depth first, every action path of op and of the
// bodies of expanded nested calls.
func (s *Session) exploredPaths(op *ir.Operation, prefix []int, idPrefix []ir.ActionID) ([]ir.Path, error) {
	if op.DemoSemantics == nil {
		return nil, nil
	}
	var out []ir.Path
	for i, a := range op.DemoSemantics.Actions {
		stack := append(slices.Clone(prefix), i)
		ids := append(slices.Clone(idPrefix), a.ID)
		out = append(out, ir.PathOf(stack))
		if !s.state.IsExpanded(ids) {
			continue
		}
		entry, err := s.engine.Catalog().Resolve(a.Operation)
		if err != nil {
			return nil, err
		}
		nested, err := s.exploredPaths(entry.Operation, stack, ids)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

// updateExpandedActions prunes the expansion set after the approximations
// changed. An action is contracted when its path is no longer open or a
// condition went unevaluated, and expanded when a condition failed.
func (s *Session) updateExpandedActions(actions []ir.Action, prefix []int, idPrefix []ir.ActionID) {
	for i, a := range actions {
		stack := append(slices.Clone(prefix), i)
		ids := append(slices.Clone(idPrefix), a.ID)
		key := ir.ActionIDPath(ids)

		step, ok := s.state.Approximations[ir.PathOf(stack)]
		if !ok {
			s.state.contract(key)
			continue
		}
		var unevaluated, failed bool
		for _, held := range step.Graph.QueryResults {
			switch {
			case held == nil:
				unevaluated = true
			case !*held:
				failed = true
			}
		}
		switch {
		case unevaluated:
			s.state.contract(key)
		case failed:
			s.state.expand(key)
		case s.state.IsExpanded(ids):
			entry, err := s.engine.Catalog().Resolve(a.Operation)
			if err != nil || entry.Operation.DemoSemantics == nil {
				continue
			}
			s.updateExpandedActions(entry.Operation.DemoSemantics.Actions, stack, ids)
		}
	}
}

// isDescendant reports whether p lies strictly inside the call at parent.
func isDescendant(p, parent ir.Path) bool {
	ps, qs := p.Stack(), parent.Stack()
	return len(ps) > len(qs) && slices.Equal(ps[:len(qs)], qs)
}

// withinPrefix reports whether p starts with the action stack prefix.
// Every path lies within the empty prefix.
func withinPrefix(p ir.Path, prefix []int) bool {
	ps := p.Stack()
	return len(ps) >= len(prefix) && slices.Equal(ps[:len(prefix)], prefix)
}
