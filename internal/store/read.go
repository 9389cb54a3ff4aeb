package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/ir"
)

// ErrReplayNotFound is returned when no replay has the requested id.
var ErrReplayNotFound = errors.New("replay not found")

const replayColumns = `id, seq, operation_id, operation_hash, mode, example_values, trace_hash, result, error, engine_version, format_version`

// ReadReplay returns the replay with the given id.
func (s *Store) ReadReplay(ctx context.Context, id string) (Replay, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+replayColumns+` FROM replays WHERE id = ?`, id)
	r, err := scanReplay(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Replay{}, fmt.Errorf("read replay %q: %w", id, ErrReplayNotFound)
	}
	if err != nil {
		return Replay{}, fmt.Errorf("read replay %q: %w", id, err)
	}
	return r, nil
}

// ListReplays returns the replays of one operation, or of all operations
// when opID is empty, ordered by seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListReplays(ctx context.Context, opID ir.OperationID) ([]Replay, error) {
	query := `SELECT ` + replayColumns + ` FROM replays`
	var args []any
	if opID != "" {
		query += ` WHERE operation_id = ?`
		args = append(args, string(opID))
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`
	return s.queryReplays(ctx, query, args...)
}

// FindByTraceHash returns every replay that recorded the given trace.
func (s *Store) FindByTraceHash(ctx context.Context, hash string) ([]Replay, error) {
	return s.queryReplays(ctx, `
		SELECT `+replayColumns+` FROM replays
		WHERE trace_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, hash)
}

// LatestReplay returns the most recent replay of an operation.
func (s *Store) LatestReplay(ctx context.Context, opID ir.OperationID) (Replay, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+replayColumns+` FROM replays
		WHERE operation_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, string(opID))
	r, err := scanReplay(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Replay{}, fmt.Errorf("latest replay of %q: %w", opID, ErrReplayNotFound)
	}
	if err != nil {
		return Replay{}, fmt.Errorf("latest replay of %q: %w", opID, err)
	}
	return r, nil
}

func (s *Store) queryReplays(ctx context.Context, query string, args ...any) ([]Replay, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query replays: %w", err)
	}
	defer rows.Close()

	replays := []Replay{}
	for rows.Next() {
		r, err := scanReplay(rows)
		if err != nil {
			return nil, err
		}
		replays = append(replays, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate replays: %w", err)
	}
	return replays, nil
}

// ReadSteps returns the recorded steps of a replay in path order.
func (s *Store) ReadSteps(ctx context.Context, replayID string) ([]StoredStep, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, depth, outcome, expandable, graph
		FROM replay_steps
		WHERE replay_id = ?
	`, replayID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []StoredStep{}
	for rows.Next() {
		var (
			st        StoredStep
			path      string
			outcome   string
			graphJSON string
		)
		if err := rows.Scan(&path, &st.Depth, &outcome, &st.Expandable, &graphJSON); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		st.Path = ir.Path(path)
		st.Outcome = engine.Outcome(outcome)
		if st.Graph, err = unmarshalSnapshot(graphJSON); err != nil {
			return nil, fmt.Errorf("step %s: %w", path, err)
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}

	slices.SortFunc(steps, func(a, b StoredStep) int {
		return ir.ComparePaths(a.Path, b.Path)
	})
	return steps, nil
}

// ReadTrace rebuilds the trace of an approximate replay.
func (s *Store) ReadTrace(ctx context.Context, replayID string) (*engine.Trace, error) {
	if _, err := s.ReadReplay(ctx, replayID); err != nil {
		return nil, err
	}
	stored, err := s.ReadSteps(ctx, replayID)
	if err != nil {
		return nil, err
	}
	steps := make(map[ir.Path]engine.Step, len(stored))
	for _, st := range stored {
		steps[st.Path] = st.Step
	}
	return engine.TraceOf(steps), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReplay(row rowScanner) (Replay, error) {
	var (
		r          Replay
		opID       string
		mode       string
		valuesJSON string
		resultJSON string
	)
	err := row.Scan(
		&r.ID,
		&r.Seq,
		&opID,
		&r.OperationHash,
		&mode,
		&valuesJSON,
		&r.TraceHash,
		&resultJSON,
		&r.Error,
		&r.EngineVersion,
		&r.FormatVersion,
	)
	if err != nil {
		return Replay{}, err
	}
	r.OperationID = ir.OperationID(opID)
	r.Mode = Mode(mode)
	if r.ExampleValues, err = unmarshalExampleValues(valuesJSON); err != nil {
		return Replay{}, err
	}
	if r.Result, err = unmarshalResult(resultJSON); err != nil {
		return Replay{}, err
	}
	return r, nil
}
