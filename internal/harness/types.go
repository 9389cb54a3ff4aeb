package harness

import (
	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
	"github.com/roach88/algot/internal/store"
)

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Replay is the stored record of the approximation.
	Replay store.Replay `json:"replay"`

	// Trace is the approximation trace as read back from the store. Empty
	// when the approximation aborted.
	Trace *engine.Trace `json:"trace"`

	// Error is the user message of the error that aborted the approximation.
	Error string `json:"error,omitempty"`

	// Graph is the result of the concrete replay, if one was requested.
	Graph *graph.ConcreteGraph `json:"graph,omitempty"`

	// ExecuteError is the message of a failed concrete replay.
	ExecuteError string `json:"execute_error,omitempty"`

	// Errors lists every failed expectation and assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  engine.NewTrace(),
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Outcomes returns the outcome recorded at every path of the trace.
func (r *Result) Outcomes() map[ir.Path]engine.Outcome {
	out := make(map[ir.Path]engine.Outcome, r.Trace.Len())
	for p, s := range r.Trace.Steps() {
		out[p] = s.Outcome
	}
	return out
}
