package protocol

import (
	"context"

	"github.com/lowaak/liftsession/internal/workout"
)

// LogRequest is one log action handed to the persistence collaborator
type LogRequest struct {
	BlockID   string
	BlockType workout.BlockType
	SetNumber int
	Sets      []workout.LoggedSet
	Rounds    int
	Volume    float64
	// PrimaryIndex selects the row of Sets allowed to update e1RM, -1 for none
	PrimaryIndex int
}

// Primary returns the primary row, if any
func (r LogRequest) Primary() (workout.LoggedSet, bool) {
	if r.PrimaryIndex < 0 || r.PrimaryIndex >= len(r.Sets) {
		return workout.LoggedSet{}, false
	}
	return r.Sets[r.PrimaryIndex], true
}

// LogResult is the persistence collaborator's answer
type LogResult struct {
	Success            bool
	Error              string
	EstimatedOneRepMax *float64
	LogID              string
}

// SetLogger persists log actions. Duplicate submissions are prevented by the caller.
type SetLogger interface {
	LogSet(ctx context.Context, req LogRequest) (LogResult, error)
}

// SetLoggerFunc adapts a function to SetLogger
type SetLoggerFunc func(ctx context.Context, req LogRequest) (LogResult, error)

func (f SetLoggerFunc) LogSet(ctx context.Context, req LogRequest) (LogResult, error) {
	return f(ctx, req)
}
