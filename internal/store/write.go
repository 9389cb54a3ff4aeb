package store

import (
	"context"
	"fmt"

	"github.com/roach88/algot/internal/engine"
)

// WriteReplay inserts a replay and the steps of its trace in one
// transaction. A zero Seq is replaced by the next logical sequence number.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing an id that
// already exists leaves the stored replay and its steps untouched and
// returns the stored replay.
func (s *Store) WriteReplay(ctx context.Context, r Replay, trace *engine.Trace) (Replay, error) {
	valuesJSON, err := marshalExampleValues(r.ExampleValues)
	if err != nil {
		return Replay{}, fmt.Errorf("write replay: %w", err)
	}
	resultJSON, err := marshalResult(r.Result)
	if err != nil {
		return Replay{}, fmt.Errorf("write replay: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Replay{}, fmt.Errorf("write replay: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if r.Seq == 0 {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM replays`).Scan(&r.Seq); err != nil {
			return Replay{}, fmt.Errorf("write replay: next seq: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO replays
		(id, seq, operation_id, operation_hash, mode, example_values, trace_hash, result, error, engine_version, format_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.Seq,
		string(r.OperationID),
		r.OperationHash,
		string(r.Mode),
		valuesJSON,
		r.TraceHash,
		resultJSON,
		r.Error,
		r.EngineVersion,
		r.FormatVersion,
	)
	if err != nil {
		return Replay{}, fmt.Errorf("write replay: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Replay{}, fmt.Errorf("write replay: rows affected: %w", err)
	}
	if affected == 0 {
		tx.Rollback()
		return s.ReadReplay(ctx, r.ID)
	}

	for _, p := range trace.Paths() {
		step, _ := trace.Step(p)
		graphJSON, err := marshalSnapshot(step.Graph)
		if err != nil {
			return Replay{}, fmt.Errorf("write replay step %s: %w", p, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO replay_steps
			(replay_id, path, depth, outcome, expandable, graph)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(replay_id, path) DO NOTHING
		`,
			r.ID,
			string(p),
			len(p.Stack()),
			string(step.Outcome),
			step.Expandable,
			graphJSON,
		)
		if err != nil {
			return Replay{}, fmt.Errorf("write replay step %s: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Replay{}, fmt.Errorf("write replay: commit: %w", err)
	}
	return r, nil
}
