package engine

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
)

// Outcome is the terminal state of one attempted action.
type Outcome string

const (
	// OutcomeRun means the action executed.
	OutcomeRun Outcome = "Run"

	// OutcomeQFalse means a condition's query did not match.
	OutcomeQFalse Outcome = "QFalse"

	// OutcomeNoinput means an input did not resolve to a node.
	OutcomeNoinput Outcome = "Noinput"

	// OutcomeUnknownInput means an input slot is Undefined.
	OutcomeUnknownInput Outcome = "UnknownInput"

	// OutcomeNoop marks path boundaries (before the first and after each
	// action). It is never the outcome of a real attempt.
	OutcomeNoop Outcome = "Noop"
)

// Step is the recorded state at one path: the graph before the action at
// that path, and what happened to the action.
type Step struct {
	Graph   graph.Snapshot `json:"graph"`
	Outcome Outcome        `json:"next_step"`

	// Expandable is true iff the action's operation has DemoSemantics.
	Expandable bool `json:"expandable"`
}

// Trace maps paths to recorded steps. A nil *Trace records nothing.
type Trace struct {
	steps map[ir.Path]Step
}

// NewTrace returns an empty trace.
func NewTrace() *Trace {
	return &Trace{steps: make(map[ir.Path]Step)}
}

// TraceOf builds a trace from previously recorded steps.
func TraceOf(steps map[ir.Path]Step) *Trace {
	t := NewTrace()
	maps.Copy(t.steps, steps)
	return t
}

func (t *Trace) record(p ir.Path, s Step) {
	if t == nil {
		return
	}
	t.steps[p] = s
}

func (t *Trace) update(p ir.Path, fn func(*Step)) {
	if t == nil {
		return
	}
	s, ok := t.steps[p]
	if !ok {
		return
	}
	fn(&s)
	t.steps[p] = s
}

// Step returns the step recorded at p.
func (t *Trace) Step(p ir.Path) (Step, bool) {
	if t == nil {
		return Step{}, false
	}
	s, ok := t.steps[p]
	return s, ok
}

// Paths returns every recorded path in numeric-segment order.
func (t *Trace) Paths() []ir.Path {
	if t == nil {
		return nil
	}
	paths := slices.Collect(maps.Keys(t.steps))
	ir.SortPaths(paths)
	return paths
}

// Steps returns a copy of the recorded steps.
func (t *Trace) Steps() map[ir.Path]Step {
	if t == nil {
		return nil
	}
	return maps.Clone(t.steps)
}

// Len returns the number of recorded paths.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.steps)
}

// Filter returns a trace holding only the given paths.
func (t *Trace) Filter(paths []ir.Path) *Trace {
	out := NewTrace()
	for _, p := range paths {
		if s, ok := t.Step(p); ok {
			out.steps[p] = s
		}
	}
	return out
}

// MarshalJSON encodes the trace as an object keyed by path.
func (t *Trace) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	return json.Marshal(t.steps)
}

// UnmarshalJSON decodes a trace encoded by MarshalJSON.
func (t *Trace) UnmarshalJSON(data []byte) error {
	steps := make(map[ir.Path]Step)
	if err := json.Unmarshal(data, &steps); err != nil {
		return err
	}
	t.steps = steps
	return nil
}
