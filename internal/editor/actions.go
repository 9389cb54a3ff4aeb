package editor

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/roach88/algot/internal/ir"
)

var (
	// ErrNotTopLevel is returned when adding an action while the cursor is
	// inside a nested call.
	ErrNotTopLevel = errors.New("actions can only be added at the top level")

	// ErrFutureInput is returned when an input would read the output of an
	// action at or after the consuming action.
	ErrFutureInput = errors.New("cannot use inputs from the future")

	// ErrNotQuery is returned when a query application names an operation
	// that is not a query.
	ErrNotQuery = errors.New("operation is not a query")
)

// AddAction records a call to id at the cursor and advances the cursor
// past it. The active conditions guard the new action. Builtins with an
// output get the smallest unused output name.
func (s *Session) AddAction(id ir.OperationID, inputs []ir.Descriptor) (ir.ActionID, error) {
	if len(s.state.ActionStack) != 1 {
		return "", ErrNotTopLevel
	}
	entry, err := s.engine.Catalog().Resolve(id)
	if err != nil {
		return "", err
	}
	if len(inputs) != len(entry.Operation.Inputs) {
		return "", fmt.Errorf("add action: %q takes %d inputs, got %d", id, len(entry.Operation.Inputs), len(inputs))
	}

	var actionID ir.ActionID
	err = s.edit("add_action", func() error {
		ds := s.op.DemoSemantics
		at := s.state.ActionStack[0]
		if at < 0 || at > len(ds.Actions) {
			return fmt.Errorf("add action: cursor %d out of range", at)
		}
		actionID = ds.NewActionID()
		ds.Actions = slices.Insert(ds.Actions, at, ir.Action{
			ID:         actionID,
			Operation:  id,
			Inputs:     slices.Clone(inputs),
			Conditions: slices.Clone(s.state.ActiveConditions),
		})
		if entry.Operation.HasOutput {
			ds.OutputNames[actionID] = OutputName(slices.Collect(maps.Values(ds.OutputNames)))
		}
		s.state.ActionStack[0]++
		return nil
	})
	if err != nil {
		return "", err
	}
	return actionID, nil
}

// DeleteAction removes the top-level action at idx. Inputs that depended
// on its output become Undefined and the cursor moves to the nearest open
// path at or before its old position.
func (s *Session) DeleteAction(idx int) error {
	err := s.edit("delete_action", func() error {
		ds := s.op.DemoSemantics
		target, err := actionAt(s.op, idx)
		if err != nil {
			return err
		}
		if err := s.retreatCursorFrom(idx); err != nil {
			return err
		}

		for id, deps := range OutputDependencyGraph(ds) {
			for _, d := range deps {
				if d.ID != target.ID {
					continue
				}
				if k := ds.ActionIndex(id); k >= 0 {
					ds.Actions[k].Inputs[d.Input] = ir.Undefined()
				}
			}
		}
		ds.Actions = slices.Delete(ds.Actions, idx, idx+1)
		delete(ds.OutputNames, target.ID)
		return nil
	})
	if err != nil {
		return err
	}
	s.clampCursor()
	return nil
}

// retreatCursorFrom keeps the cursor valid across the deletion of the
// action at idx. A cursor inside the deleted action's call is cut back to
// the action itself; positions after it, at every level executing the
// recorded operation, shift down by one.
func (s *Session) retreatCursorFrom(idx int) error {
	stack := s.state.ActionStack
	if len(stack) > 1 && stack[0] == idx {
		s.state.ActionStack = []int{idx}
		return nil
	}
	calls, err := s.callStack(stack)
	if err != nil {
		return err
	}
	for i, id := range calls {
		if id != s.op.ID || i >= len(stack) {
			continue
		}
		if stack[i] == idx {
			s.state.ActionStack = stack[:i+1]
			break
		}
		if stack[i] > idx {
			stack[i]--
		}
	}
	return nil
}

// ReorderActions moves the top-level action at source to target. Inputs
// that would now read an output produced at or after their own action
// become Undefined.
func (s *Session) ReorderActions(source, target int) error {
	err := s.edit("reorder_actions", func() error {
		ds := s.op.DemoSemantics
		if source < 0 || source >= len(ds.Actions) || target < 0 || target >= len(ds.Actions) {
			return fmt.Errorf("reorder actions: %d -> %d out of range", source, target)
		}
		deps := OutputDependencyGraph(ds)

		moved := ds.Actions[source]
		ds.Actions = slices.Delete(ds.Actions, source, source+1)
		ds.Actions = slices.Insert(ds.Actions, target, moved)

		for id, needs := range deps {
			at := ds.ActionIndex(id)
			for _, d := range needs {
				if ds.ActionIndex(d.ID) >= at {
					ds.Actions[at].Inputs[d.Input] = ir.Undefined()
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.clampCursor()
	return nil
}

// ChangeInput replaces input slot input of the top-level action at idx.
func (s *Session) ChangeInput(idx, input int, d ir.Descriptor) error {
	a, err := actionAt(s.op, idx)
	if err != nil {
		return err
	}
	if input < 0 || input >= len(a.Inputs) {
		return fmt.Errorf("change input: action %q has no input %d", a.ID, input)
	}
	if d.Kind == ir.KindOperationOutput {
		if producer := s.op.DemoSemantics.ActionIndex(d.Output.LeadingAction()); producer >= idx {
			return ErrFutureInput
		}
	}
	if d.Kind == ir.KindPatternMatch {
		if _, ok := s.op.Patterns[d.Pattern]; !ok {
			return fmt.Errorf("change input: unknown pattern %q", d.Pattern)
		}
	}

	err = s.edit("change_input", func() error {
		s.op.DemoSemantics.Actions[idx].Inputs[input] = d
		return nil
	})
	if err != nil {
		return err
	}
	s.updateExpandedActions(s.op.DemoSemantics.Actions, nil, nil)
	return s.layout()
}

// ChangeCalledOperation makes the top-level action at idx call id instead.
// Inputs are truncated or padded with Undefined to the new arity.
func (s *Session) ChangeCalledOperation(idx int, id ir.OperationID) error {
	entry, err := s.engine.Catalog().Resolve(id)
	if err != nil {
		return err
	}
	return s.edit("change_called_operation", func() error {
		if _, err := actionAt(s.op, idx); err != nil {
			return err
		}
		ds := s.op.DemoSemantics
		a := &ds.Actions[idx]
		a.Operation = id

		arity := len(entry.Operation.Inputs)
		if len(a.Inputs) > arity {
			a.Inputs = a.Inputs[:arity]
		}
		for len(a.Inputs) < arity {
			a.Inputs = append(a.Inputs, ir.Undefined())
		}

		if entry.Operation.HasOutput {
			if _, ok := ds.OutputNames[a.ID]; !ok {
				ds.OutputNames[a.ID] = OutputName(slices.Collect(maps.Values(ds.OutputNames)))
			}
		}
		return nil
	})
}

// AddQueryApplication binds query to inputs and returns the new id.
func (s *Session) AddQueryApplication(query ir.OperationID, inputs []ir.Descriptor) (ir.QueryAppID, error) {
	entry, err := s.engine.Catalog().Resolve(query)
	if err != nil {
		return "", err
	}
	if !entry.Operation.IsQuery {
		return "", fmt.Errorf("add query application %q: %w", query, ErrNotQuery)
	}
	if len(inputs) != len(entry.Operation.Inputs) {
		return "", fmt.Errorf("add query application: %q takes %d inputs, got %d", query, len(entry.Operation.Inputs), len(inputs))
	}

	var id ir.QueryAppID
	err = s.edit("add_query_application", func() error {
		qas := s.op.DemoSemantics.QueryApplications
		id = newQueryAppID(qas)
		qas[id] = ir.QueryApplication{ID: id, Query: query, Inputs: slices.Clone(inputs)}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// DeleteQueryApplication removes a query application and every condition
// that referred to it.
func (s *Session) DeleteQueryApplication(id ir.QueryAppID) error {
	if _, ok := s.op.DemoSemantics.QueryApplications[id]; !ok {
		return fmt.Errorf("delete query application: unknown id %q", id)
	}
	drop := func(c ir.ActionCondition) bool { return c.QueryApp == id }
	return s.edit("delete_query_application", func() error {
		ds := s.op.DemoSemantics
		delete(ds.QueryApplications, id)
		for i := range ds.Actions {
			ds.Actions[i].Conditions = slices.DeleteFunc(ds.Actions[i].Conditions, drop)
		}
		s.state.ActiveConditions = slices.DeleteFunc(s.state.ActiveConditions, drop)
		return nil
	})
}

// AddCondition activates a condition for subsequently added actions,
// replacing any active condition on the same query application.
func (s *Session) AddCondition(c ir.ActionCondition) error {
	if _, ok := s.op.DemoSemantics.QueryApplications[c.QueryApp]; !ok {
		return fmt.Errorf("add condition: unknown query application %q", c.QueryApp)
	}
	s.RemoveCondition(c.QueryApp)
	s.state.ActiveConditions = append(s.state.ActiveConditions, c)
	return nil
}

// RemoveCondition deactivates the condition on qa, if any.
func (s *Session) RemoveCondition(qa ir.QueryAppID) {
	s.state.ActiveConditions = slices.DeleteFunc(s.state.ActiveConditions, func(c ir.ActionCondition) bool {
		return c.QueryApp == qa
	})
}

// SetExampleValue changes the example value of pattern p. Expansions are
// pruned against the new replay and the cursor restarts.
func (s *Session) SetExampleValue(p ir.PatternID, v ir.Value) error {
	if _, ok := s.op.Patterns[p]; !ok {
		return fmt.Errorf("set example value: unknown pattern %q", p)
	}
	err := s.edit("set_example_value", func() error {
		s.state.ExampleValues[p] = v
		return nil
	})
	if err != nil {
		return err
	}
	s.updateExpandedActions(s.op.DemoSemantics.Actions, nil, nil)
	s.state.ActionStack = []int{0}
	return s.layout()
}

// OutputName returns the smallest output name not in used, counting
// A, B, ..., Z, AA, AB, ...
func OutputName(used []string) string {
	taken := make(map[int]bool, len(used))
	for _, name := range used {
		if n, ok := outputNameNumber(name); ok {
			taken[n] = true
		}
	}
	n := 1
	for taken[n] {
		n++
	}
	return outputNameString(n)
}

func outputNameNumber(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	n := 0
	for _, c := range name {
		if c < 'A' || c > 'Z' {
			return 0, false
		}
		n = n*26 + int(c-'A') + 1
	}
	return n, true
}

func outputNameString(n int) string {
	var out []byte
	for n > 0 {
		out = append([]byte{byte('A' + (n-1)%26)}, out...)
		n = (n - 1) / 26
	}
	return string(out)
}

func newQueryAppID(qas map[ir.QueryAppID]ir.QueryApplication) ir.QueryAppID {
	for n := len(qas) + 1; ; n++ {
		id := ir.QueryAppID("q" + strconv.Itoa(n))
		if _, taken := qas[id]; !taken {
			return id
		}
	}
}
