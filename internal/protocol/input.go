package protocol

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lowaak/liftsession/internal/workout"
)

// Row is the raw text the user typed for one input row
type Row struct {
	Weight string
	Reps   string
}

// Input is one log action as typed: one Row per RowSpec of the block layout,
// plus the block-level fields used by For-Time and AMRAP
type Input struct {
	Rows        []Row
	TimeSeconds string
	Rounds      string
}

// RowSpec describes one input row of a log action
type RowSpec struct {
	ExerciseID string
	Label      string
	Kind       workout.EntryKind
	SubIndex   int
	TargetReps int // pyramid/ladder rung target, 0 when free
}

// Entry is one validated row
type Entry struct {
	ExerciseID string
	Kind       workout.EntryKind
	SubIndex   int
	Weight     float64
	HasWeight  bool
	Reps       int
}

// Volume is weight x reps, zero without a weight
func (e Entry) Volume() float64 {
	if !e.HasWeight {
		return 0
	}
	return e.Weight * float64(e.Reps)
}

// Submission is a fully validated log action
type Submission struct {
	Entries         []Entry
	DurationSeconds int
	Rounds          int
}

func parseWeight(row int, raw string, required bool) (float64, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return 0, false, &ValidationError{Row: row, Field: "weight", Message: "is required"}
		}
		return 0, false, nil
	}
	w, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, false, &ValidationError{Row: row, Field: "weight", Message: "must be a number"}
	}
	if w < 0 {
		return 0, false, &ValidationError{Row: row, Field: "weight", Message: "must not be negative"}
	}
	return w, true, nil
}

func parseReps(row int, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ValidationError{Row: row, Field: "reps", Message: "is required"}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Row: row, Field: "reps", Message: "must be a whole number"}
	}
	if n <= 0 {
		return 0, &ValidationError{Row: row, Field: "reps", Message: "must be greater than zero"}
	}
	return n, nil
}

func parsePositive(field, raw string, required bool) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return 0, &ValidationError{Field: field, Message: "is required"}
		}
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Field: field, Message: "must be a whole number"}
	}
	if n < 0 || (required && n == 0) {
		return 0, &ValidationError{Field: field, Message: "must be greater than zero"}
	}
	return n, nil
}

// validateRows checks every row before returning anything: one bad row rejects the action
func validateRows(layout []RowSpec, in Input, weightRequired bool) ([]Entry, error) {
	if len(in.Rows) != len(layout) {
		return nil, &ValidationError{Field: "rows", Message: fmt.Sprintf("expected %d entries, got %d", len(layout), len(in.Rows))}
	}
	entries := make([]Entry, 0, len(layout))
	for i, spec := range layout {
		w, hasWeight, err := parseWeight(i+1, in.Rows[i].Weight, weightRequired)
		if err != nil {
			return nil, err
		}
		reps, err := parseReps(i+1, in.Rows[i].Reps)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			ExerciseID: spec.ExerciseID,
			Kind:       spec.Kind,
			SubIndex:   spec.SubIndex,
			Weight:     w,
			HasWeight:  hasWeight,
			Reps:       reps,
		})
	}
	return entries, nil
}

// FormatWeight renders a weight the way the input fields expect it
func FormatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
