package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for an unknown session id
var ErrSessionNotFound = errors.New("session not found")

// SessionStatus is the lifecycle state of a session
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// Session is one run through a workout plan
type Session struct {
	ID         string
	PlanName   string
	Status     SessionStatus
	StartedAt  time.Time
	FinishedAt *time.Time
}

// SessionSummary aggregates the sets logged in a session
type SessionSummary struct {
	SessionID string
	Rows      int
	Actions   int
	Volume    float64
}

// StartSession records a new active session
func (d *DB) StartSession(ctx context.Context, planName string) (*Session, error) {
	s := &Session{
		ID:        uuid.New().String(),
		PlanName:  planName,
		Status:    SessionActive,
		StartedAt: d.clock.Now().UTC(),
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO sessions (id, plan_name, status, started_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.PlanName, string(s.Status), formatTime(s.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return s, nil
}

// FinishSession sets the final status of a session
func (d *DB) FinishSession(ctx context.Context, id string, status SessionStatus) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, finished_at = ? WHERE id = ?`,
		string(status), formatTime(d.clock.Now()), id)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// GetSession loads a session by id
func (d *DB) GetSession(ctx context.Context, id string) (*Session, error) {
	var (
		s          Session
		status     string
		startedAt  string
		finishedAt sql.NullString
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT id, plan_name, status, started_at, finished_at FROM sessions WHERE id = ?`, id).
		Scan(&s.ID, &s.PlanName, &status, &startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	s.Status = SessionStatus(status)
	if s.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if finishedAt.Valid {
		t, err := parseTime(finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		s.FinishedAt = &t
	}
	return &s, nil
}

// Summarize counts the rows, log actions and volume of a session
func (d *DB) Summarize(ctx context.Context, sessionID string) (SessionSummary, error) {
	sum := SessionSummary{SessionID: sessionID}
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT log_id), COALESCE(SUM(COALESCE(weight, 0) * reps), 0)
		FROM logged_sets WHERE session_id = ?`, sessionID).
		Scan(&sum.Rows, &sum.Actions, &sum.Volume)
	if err != nil {
		return sum, fmt.Errorf("summarize session: %w", err)
	}
	return sum, nil
}
