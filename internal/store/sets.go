package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lowaak/liftsession/internal/protocol"
)

// LogSet stores every row of a log action in one transaction and, when the
// action has a weighted primary row, folds its Epley estimate into the
// exercise's running e1RM maximum.
func (d *DB) LogSet(ctx context.Context, sessionID string, req protocol.LogRequest) (protocol.LogResult, error) {
	if sessionID == "" {
		return protocol.LogResult{}, errors.New("log set: no session")
	}
	if len(req.Sets) == 0 {
		return protocol.LogResult{Success: false, Error: "nothing to log"}, nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return protocol.LogResult{}, fmt.Errorf("begin log set: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	logID := uuid.New().String()
	for _, s := range req.Sets {
		var weight sql.NullFloat64
		if s.HasWeight {
			weight = sql.NullFloat64{Float64: s.Weight, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO logged_sets (id, session_id, log_id, block_id, block_type, exercise_id,
				set_number, sub_index, kind, weight, reps, duration_seconds, rounds, logged_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), sessionID, logID, s.BlockID, string(s.BlockType), s.ExerciseID,
			s.SetNumber, s.SubIndex, string(s.Kind), weight, s.Reps, s.DurationSeconds, req.Rounds,
			formatTime(s.LoggedAt))
		if err != nil {
			return protocol.LogResult{}, fmt.Errorf("insert logged set: %w", err)
		}
	}

	result := protocol.LogResult{Success: true, LogID: logID}

	if primary, ok := req.Primary(); ok && primary.HasWeight && primary.Weight > 0 {
		estimate := EstimateOneRepMax(primary.Weight, primary.Reps)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO exercise_stats (exercise_id, e1rm, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(exercise_id) DO UPDATE SET
				e1rm = MAX(e1rm, excluded.e1rm),
				updated_at = excluded.updated_at`,
			primary.ExerciseID, estimate, formatTime(primary.LoggedAt))
		if err != nil {
			return protocol.LogResult{}, fmt.Errorf("update exercise stats: %w", err)
		}

		var best float64
		if err := tx.QueryRowContext(ctx,
			`SELECT e1rm FROM exercise_stats WHERE exercise_id = ?`, primary.ExerciseID).Scan(&best); err != nil {
			return protocol.LogResult{}, fmt.Errorf("read exercise stats: %w", err)
		}
		result.EstimatedOneRepMax = &best
	}

	if err := tx.Commit(); err != nil {
		return protocol.LogResult{}, fmt.Errorf("commit log set: %w", err)
	}
	return result, nil
}

// SessionLogger binds the store to one session as the engine's set logger
type SessionLogger struct {
	db        *DB
	sessionID string
}

// NewSessionLogger creates a set logger writing into sessionID
func NewSessionLogger(db *DB, sessionID string) *SessionLogger {
	if db == nil {
		panic("SessionLogger: db cannot be nil")
	}
	return &SessionLogger{db: db, sessionID: sessionID}
}

// SessionID returns the bound session
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

// LogSet implements protocol.SetLogger
func (l *SessionLogger) LogSet(ctx context.Context, req protocol.LogRequest) (protocol.LogResult, error) {
	return l.db.LogSet(ctx, l.sessionID, req)
}
