package editor

import (
	"slices"

	"github.com/roach88/algot/internal/ir"
)

// ExpandResult reports what ToggleExpanded did.
type ExpandResult string

const (
	Expanded      ExpandResult = "Expanded"
	Contracted    ExpandResult = "Contracted"
	NotExpandable ExpandResult = "NotExpandable"
)

// ToggleExpanded expands or contracts the nested call made by action idx
// of the operation reached through path.
//
// Only calls to user-defined operations whose guarding conditions all held
// can be expanded. Contracting moves a cursor inside the call back onto
// the call itself.
func (s *Session) ToggleExpanded(path []int, idx int) (ExpandResult, error) {
	stack := append(slices.Clone(path), idx)
	op, at, err := s.operationAt(stack)
	if err != nil {
		return NotExpandable, err
	}
	if op.DemoSemantics == nil || at < 0 || at >= len(op.DemoSemantics.Actions) {
		return NotExpandable, nil
	}
	callee, err := s.callee(op, at)
	if err != nil {
		return NotExpandable, err
	}
	if callee.IsBuiltin() {
		return NotExpandable, nil
	}
	ids, err := s.actionIDStack(stack)
	if err != nil {
		return NotExpandable, err
	}
	key := ir.ActionIDPath(ids)

	if s.state.IsExpanded(ids) {
		cursor := s.state.ActionStack
		for len(cursor) > len(stack) && withinPrefix(ir.PathOf(cursor), stack) {
			cursor = cursor[:len(cursor)-1]
		}
		s.state.ActionStack = cursor
		s.state.contract(key)
		return Contracted, s.layout()
	}

	step, ok := s.state.Approximations[ir.PathOf(stack)]
	if !ok {
		return NotExpandable, nil
	}
	for _, held := range step.Graph.QueryResults {
		if held == nil || !*held {
			return NotExpandable, nil
		}
	}
	s.state.expand(key)
	return Expanded, s.layout()
}

// Restart moves the cursor to the first action.
func (s *Session) Restart() {
	s.state.ActionStack = []int{0}
}

// Forward moves the cursor past the next executed action. Entering a call
// is not an execution step, so stepping onto an expanded call continues to
// the first position after its first action.
func (s *Session) Forward() {
	paths := s.state.OpenPaths
	cur := s.state.Path()
	if cur == s.endPath() {
		return
	}
	idx := slices.Index(paths, cur)
	if idx < 0 {
		return
	}
	for i := idx; i+1 < len(paths); i++ {
		if isExecutionStep(paths[i], paths[i+1]) {
			s.state.ActionStack = paths[i+1].Stack()
			return
		}
	}
	s.state.ActionStack = s.endStack()
}

// isExecutionStep reports whether moving from one open path to the next
// executes an action: either it returns from a call or it stays in the
// same call.
func isExecutionStep(from, to ir.Path) bool {
	fs, ts := from.Stack(), to.Stack()
	if len(fs) > len(ts) {
		return true
	}
	return slices.Equal(fs[:len(fs)-1], ts[:len(ts)-1])
}

// Backward moves the cursor to the previous open path, skipping call
// entries that show the same graph as the call itself.
func (s *Session) Backward() {
	paths := s.state.OpenPaths
	idx := slices.Index(paths, s.state.Path())
	if idx < 0 {
		idx = len(paths) - 1
	}
	if idx > 0 {
		idx--
	}
	for idx > 0 && isDescendant(paths[idx], paths[idx-1]) {
		idx--
	}
	s.state.ActionStack = paths[idx].Stack()
}

// StepTo moves the cursor just past the action at stack, or past its
// nearest open ancestor when stack itself is not open.
func (s *Session) StepTo(stack []int) {
	paths := s.state.OpenPaths
	looked := slices.Clone(stack)
	for len(looked) > 0 && !s.state.isOpen(ir.PathOf(looked)) {
		looked = looked[:len(looked)-1]
	}
	idx := -1
	if len(looked) > 0 {
		idx = slices.Index(paths, ir.PathOf(looked))
	}
	if idx+1 < len(paths) {
		s.state.ActionStack = paths[idx+1].Stack()
		return
	}
	s.state.ActionStack = s.endStack()
}

// StepInto expands the call at the cursor if needed and steps forward
// into it.
func (s *Session) StepInto() error {
	paths := s.state.OpenPaths
	cur := s.state.Path()
	idx := slices.Index(paths, cur)
	if idx >= 0 && idx+1 < len(paths) && !isDescendant(paths[idx+1], cur) {
		stack := s.state.ActionStack
		ids, err := s.actionIDStack(stack)
		if err == nil && !s.state.IsExpanded(ids) {
			if _, err := s.ToggleExpanded(stack[:len(stack)-1], stack[len(stack)-1]); err != nil {
				return err
			}
		}
	}
	s.Forward()
	return nil
}

// StepOut moves the cursor to the first open path after the call
// containing it, contracting that call when the cursor leaves it. At the
// top level it moves to the last open path.
func (s *Session) StepOut() error {
	stack := slices.Clone(s.state.ActionStack)
	paths := s.state.OpenPaths
	parent := stack[:len(stack)-1]

	idx := slices.Index(paths, ir.PathOf(stack))
	if idx < 0 {
		return nil
	}
	for idx < len(paths) && withinPrefix(paths[idx], parent) {
		idx++
	}
	idx = min(idx, len(paths)-1)
	next := paths[idx].Stack()

	if !withinPrefix(paths[idx], parent) && len(stack) >= 2 {
		if _, err := s.ToggleExpanded(stack[:len(stack)-2], stack[len(stack)-2]); err != nil {
			return err
		}
	}
	s.state.ActionStack = next
	return nil
}
