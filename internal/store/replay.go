package store

import (
	"context"
	"fmt"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
)

// Mode distinguishes approximate replays, which record a trace, from
// concrete ones, which record the resulting graph.
type Mode string

const (
	ModeApproximate Mode = "approximate"
	ModeConcrete    Mode = "concrete"
)

// Replay is one recorded replay.
type Replay struct {
	ID            string                    `json:"id"`
	Seq           int64                     `json:"seq"`
	OperationID   ir.OperationID            `json:"operation_id"`
	OperationHash string                    `json:"operation_hash"`
	Mode          Mode                      `json:"mode"`
	ExampleValues map[ir.PatternID]ir.Value `json:"example_values"`

	// TraceHash is the content hash of the recorded trace. Empty for
	// concrete replays and aborted approximations.
	TraceHash string `json:"trace_hash,omitempty"`

	// Result is the graph a successful concrete replay produced.
	Result *graph.ConcreteGraph `json:"result,omitempty"`

	// Error is the message of the error that aborted the replay.
	Error string `json:"error,omitempty"`

	EngineVersion string `json:"engine_version"`
	FormatVersion string `json:"format_version"`
}

// StoredStep is one row of a recorded trace.
type StoredStep struct {
	Path  ir.Path `json:"path"`
	Depth int     `json:"depth"`
	engine.Step
}

// RecordApproximation stores an approximate replay of op. trace may be nil
// when runErr aborted the replay; the error message is kept either way.
func (s *Store) RecordApproximation(ctx context.Context, op *ir.Operation, exampleValues map[ir.PatternID]ir.Value, trace *engine.Trace, runErr error) (Replay, error) {
	r, err := s.newReplay(op, ModeApproximate, runErr)
	if err != nil {
		return Replay{}, fmt.Errorf("record approximation: %w", err)
	}
	r.ExampleValues = exampleValues
	if trace != nil {
		if r.TraceHash, err = ir.TraceHash(trace); err != nil {
			return Replay{}, fmt.Errorf("record approximation: %w", err)
		}
	}
	return s.WriteReplay(ctx, r, trace)
}

// RecordExecution stores a concrete replay of op and the graph it produced.
func (s *Store) RecordExecution(ctx context.Context, op *ir.Operation, result *graph.ConcreteGraph, runErr error) (Replay, error) {
	r, err := s.newReplay(op, ModeConcrete, runErr)
	if err != nil {
		return Replay{}, fmt.Errorf("record execution: %w", err)
	}
	if runErr == nil {
		r.Result = result
	}
	return s.WriteReplay(ctx, r, nil)
}

func (s *Store) newReplay(op *ir.Operation, mode Mode, runErr error) (Replay, error) {
	hash, err := ir.OperationHash(op)
	if err != nil {
		return Replay{}, err
	}
	r := Replay{
		ID:            s.ids.Generate(),
		OperationID:   op.ID,
		OperationHash: hash,
		Mode:          mode,
		EngineVersion: ir.EngineVersion,
		FormatVersion: ir.FormatVersion,
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	return r, nil
}
