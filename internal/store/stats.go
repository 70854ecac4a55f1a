package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/lowaak/liftsession/internal/suggest"
	"github.com/lowaak/liftsession/internal/workout"
)

// EstimateOneRepMax applies the Epley formula, rounded to 0.1. A single rep is
// its own maximum.
func EstimateOneRepMax(weight float64, reps int) float64 {
	if reps <= 1 {
		return weight
	}
	return math.Round(weight*(1+float64(reps)/30)*10) / 10
}

// E1RM returns the stored estimate for an exercise, or nil
func (d *DB) E1RM(ctx context.Context, exerciseID string) (*float64, error) {
	var v float64
	err := d.db.QueryRowContext(ctx,
		`SELECT e1rm FROM exercise_stats WHERE exercise_id = ?`, exerciseID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get e1rm: %w", err)
	}
	return &v, nil
}

// LastSessionWeight returns the heaviest non-drop weight of the most recent
// log action for the exercise outside excludeSession, or nil
func (d *DB) LastSessionWeight(ctx context.Context, exerciseID, excludeSession string) (*float64, error) {
	var v float64
	err := d.db.QueryRowContext(ctx, `
		SELECT weight FROM logged_sets
		WHERE exercise_id = ? AND session_id != ? AND weight IS NOT NULL AND kind != ?
		ORDER BY logged_at DESC, weight DESC
		LIMIT 1`,
		exerciseID, excludeSession, string(workout.EntryDrop)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last session weight: %w", err)
	}
	return &v, nil
}

// History is the read side of the store used to seed suggestions
type History interface {
	LastSessionWeight(ctx context.Context, exerciseID, excludeSession string) (*float64, error)
	E1RM(ctx context.Context, exerciseID string) (*float64, error)
}

var _ History = (*DB)(nil)

// SeedSignals loads prior-session history for every exercise into signals
func (d *DB) SeedSignals(ctx context.Context, signals *suggest.Signals, sessionID string, exerciseIDs []string) error {
	return SeedSignals(ctx, d, signals, sessionID, exerciseIDs)
}

// SeedSignals seeds signals from any History
func SeedSignals(ctx context.Context, h History, signals *suggest.Signals, sessionID string, exerciseIDs []string) error {
	for _, id := range exerciseIDs {
		last, err := h.LastSessionWeight(ctx, id, sessionID)
		if err != nil {
			return fmt.Errorf("seed %s: %w", id, err)
		}
		e1rm, err := h.E1RM(ctx, id)
		if err != nil {
			return fmt.Errorf("seed %s: %w", id, err)
		}
		signals.Seed(id, last, e1rm)
	}
	return nil
}
