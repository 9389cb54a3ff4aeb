package editor

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/ir"
)

// Session records the DemoSemantics of one user-defined operation.
//
// The operation is edited in place inside the engine's catalog, so nested
// and recursive calls always replay the current recording.
//
// A Session is not safe for concurrent use.
type Session struct {
	engine *engine.Engine
	op     *ir.Operation
	state  State
	trace  *engine.Trace
	undo   []checkpoint
	err    string
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithExampleValues seeds the example values. Patterns without a value
// start at 0.
func WithExampleValues(values map[ir.PatternID]ir.Value) Option {
	return func(s *Session) {
		maps.Copy(s.state.ExampleValues, values)
	}
}

// NewSession opens a recording session for the user-defined operation id
// and runs the first approximation.
func NewSession(eng *engine.Engine, id ir.OperationID, opts ...Option) (*Session, error) {
	entry, err := eng.Catalog().Resolve(id)
	if err != nil {
		return nil, err
	}
	if entry.IsBuiltin() {
		return nil, fmt.Errorf("open session: %q is a builtin", id)
	}
	op := entry.Operation
	if op.DemoSemantics == nil {
		op.DemoSemantics = &ir.DemoSemantics{}
	}
	op.Normalize()

	s := &Session{
		engine: eng,
		op:     op,
		state: State{
			ExampleValues:   make(map[ir.PatternID]ir.Value, len(op.Patterns)),
			ActionStack:     []int{0},
			ExpandedActions: []string{},
			OpenPaths:       []ir.Path{"0"},
			ReachablePaths:  []ir.Path{"0"},
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	for p := range op.Patterns {
		if _, ok := s.state.ExampleValues[p]; !ok {
			s.state.ExampleValues[p] = ir.Number(0)
		}
	}

	if err := s.refresh(); err != nil {
		return nil, fmt.Errorf("open session %q: %w", id, err)
	}
	return s, nil
}

// Operation returns the operation being recorded. Callers must not modify
// it; use the edit methods.
func (s *Session) Operation() *ir.Operation {
	return s.op
}

// State returns a copy of the editor state.
func (s *Session) State() State {
	return s.state.Clone()
}

// Trace returns the full trace of the last successful approximation.
func (s *Session) Trace() *engine.Trace {
	return s.trace
}

// Error returns the user-facing message of the last replay-aborting error,
// or "".
func (s *Session) Error() string {
	return s.err
}

// ClearError resets the user-facing error.
func (s *Session) ClearError() {
	s.err = ""
}

// CanUndo reports whether an edit can be undone.
func (s *Session) CanUndo() bool {
	return len(s.undo) > 0
}

// Undo restores the state before the most recent edit. It returns false
// when there is nothing to undo.
func (s *Session) Undo() bool {
	cp, ok := s.pop()
	if !ok {
		return false
	}
	s.restore(cp)
	s.logger.Debug("edit undone", "operation", s.op.ID, "remaining", len(s.undo))
	return true
}

// edit applies one structural edit with rollback.
func (s *Session) edit(name string, mutate func() error) error {
	s.checkpoint()
	if err := mutate(); err != nil {
		s.rollback()
		s.logger.Debug("edit rejected", "edit", name, "operation", s.op.ID, "error", err)
		return err
	}
	if err := s.refresh(); err != nil {
		s.rollback()
		s.logger.Debug("edit rolled back", "edit", name, "operation", s.op.ID, "error", err)
		return err
	}
	s.logger.Debug("edit applied", "edit", name, "operation", s.op.ID, "actions", len(s.op.DemoSemantics.Actions))
	return nil
}

func (s *Session) checkpoint() {
	cp := checkpoint{state: s.state.Clone(), trace: s.trace}
	for _, op := range s.engine.Catalog().UserOperations() {
		cp.operations = append(cp.operations, savedOperation{live: op, saved: op.Clone()})
	}
	s.undo = append(s.undo, cp)
}

func (s *Session) pop() (checkpoint, bool) {
	k := len(s.undo)
	if k == 0 {
		return checkpoint{}, false
	}
	cp := s.undo[k-1]
	s.undo = s.undo[:k-1]
	return cp, true
}

func (s *Session) rollback() {
	if cp, ok := s.pop(); ok {
		s.restore(cp)
	}
}

// restore writes the saved operations back through their live pointers so
// the catalog keeps resolving to the same values.
func (s *Session) restore(cp checkpoint) {
	for _, so := range cp.operations {
		*so.live = *so.saved
	}
	s.state = cp.state
	s.trace = cp.trace
}

// refresh re-approximates the operation and recomputes the derived state.
func (s *Session) refresh() error {
	approx, err := s.engine.Approximate(s.op, s.state.ExampleValues)
	if err != nil {
		if re, ok := ir.AsRuntimeError(err); ok && ir.IsApproximationError(err) {
			s.err = re.UserMessage()
		}
		return err
	}
	s.trace = approx.Trace
	return s.layout()
}

// layout recomputes open paths, approximations and pattern matches from
// the current trace and expansion set.
func (s *Session) layout() error {
	explored, err := s.exploredPaths(s.op, nil, nil)
	if err != nil {
		return err
	}
	steps := s.trace.Steps()
	open := openPaths(steps, explored, s.endPath())

	s.state.OpenPaths = open
	s.state.ReachablePaths = s.trace.Paths()
	s.state.Approximations = make(map[ir.Path]engine.Step, len(open))
	for _, p := range open {
		if step, ok := steps[p]; ok {
			s.state.Approximations[p] = step
		}
	}
	s.state.PatternMatches = s.patternMatches(open, steps)
	return nil
}

// openPaths filters the recorded paths down to those the cursor may visit:
// explored paths and the end path, minus those whose action lacked an input.
func openPaths(steps map[ir.Path]engine.Step, explored []ir.Path, end ir.Path) []ir.Path {
	paths := slices.Collect(maps.Keys(steps))
	ir.SortPaths(paths)

	open := []ir.Path{}
	for _, p := range paths {
		if p != end && !slices.Contains(explored, p) {
			continue
		}
		if steps[p].Outcome == engine.OutcomeNoinput {
			continue
		}
		open = append(open, p)
	}
	if len(open) == 0 {
		open = append(open, ir.PathOf([]int{0}))
	}
	return open
}

func (s *Session) endPath() ir.Path {
	return ir.PathOf(s.endStack())
}

func (s *Session) endStack() []int {
	return []int{len(s.op.DemoSemantics.Actions)}
}

// clampCursor moves the cursor back until it rests on an open path.
func (s *Session) clampCursor() {
	stack := s.state.ActionStack
	for !s.state.isOpen(ir.PathOf(stack)) {
		switch {
		case len(stack) > 1:
			stack = stack[:len(stack)-1]
		case stack[0] > 0:
			stack[0]--
		default:
			s.state.ActionStack = stack
			return
		}
	}
	s.state.ActionStack = stack
}
