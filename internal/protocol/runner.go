package protocol

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/lowaak/liftsession/internal/events"
	"github.com/lowaak/liftsession/internal/interval"
	"github.com/lowaak/liftsession/internal/suggest"
	"github.com/lowaak/liftsession/internal/watchdog"
	"github.com/lowaak/liftsession/internal/workout"
)

// RowDefault is the prefilled value of one input row
type RowDefault struct {
	Spec       RowSpec
	Weight     string
	Reps       string
	Suggestion suggest.Suggestion
}

// Outcome describes one accepted log action
type Outcome struct {
	SetNumber int
	Volume    float64
	Progress  workout.BlockProgress
	Completed bool
	Sets      []workout.LoggedSet
	LogID     string
	E1RM      *float64
	// PersistErr is set when the save failed. Progress is kept regardless.
	PersistErr  error
	RestSeconds int
}

// BlockResult is published once when the block completes
type BlockResult struct {
	BlockID string
	Sets    []workout.LoggedSet
}

// Runner drives one block through its log actions
type Runner struct {
	block     *workout.Block
	proto     Protocol
	setLogger SetLogger
	signals   *suggest.Signals
	watchdog  *watchdog.Watchdog
	clock     clock.Clock
	logger    *log.Logger

	mu       sync.Mutex
	progress workout.BlockProgress
	logged   []workout.LoggedSet
	rest     *interval.Countdown

	Logged      *events.Event[Outcome]
	Completed   *events.Event[BlockResult]
	RestStarted *events.Event[*interval.Countdown]
	// InputReset fires when the input rows should be cleared and prefilled again
	InputReset *events.Event[[]RowDefault]
}

// NewRunner creates the runner for block. The block must have passed plan validation.
func NewRunner(block *workout.Block, setLogger SetLogger, signals *suggest.Signals, wd *watchdog.Watchdog, clk clock.Clock, logger *log.Logger) *Runner {
	if block == nil {
		panic("Runner: block cannot be nil")
	}
	if setLogger == nil {
		panic("Runner: setLogger cannot be nil")
	}
	if signals == nil {
		panic("Runner: signals cannot be nil")
	}
	if wd == nil {
		panic("Runner: watchdog cannot be nil")
	}
	if clk == nil {
		panic("Runner: clock cannot be nil")
	}
	if logger == nil {
		panic("Runner: logger cannot be nil")
	}
	return &Runner{
		block:       block,
		proto:       MustFor(block.Type),
		setLogger:   setLogger,
		signals:     signals,
		watchdog:    wd,
		clock:       clk,
		logger:      logger,
		progress:    workout.NewBlockProgress(block),
		Logged:      events.New[Outcome](false),
		Completed:   events.New[BlockResult](false),
		RestStarted: events.New[*interval.Countdown](false),
		InputReset:  events.New[[]RowDefault](false),
	}
}

// Block returns the block being run
func (r *Runner) Block() *workout.Block {
	return r.block
}

// Protocol returns the block type's protocol
func (r *Runner) Protocol() Protocol {
	return r.proto
}

// Progress returns the current progress
func (r *Runner) Progress() workout.BlockProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// LoggedSets returns a copy of every row logged in this block
func (r *Runner) LoggedSets() []workout.LoggedSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]workout.LoggedSet(nil), r.logged...)
}

// Saving reports whether a save is in flight
func (r *Runner) Saving() bool {
	return r.watchdog.InFlight()
}

// Rest returns the running rest countdown, or nil
func (r *Runner) Rest() *interval.Countdown {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rest
}

// Prefill computes the default row values from the performance signals
func (r *Runner) Prefill() []RowDefault {
	layout := r.proto.Layout(r.block)
	rows := make([]RowDefault, 0, len(layout))
	var prevWeight *float64

	for _, spec := range layout {
		row := RowDefault{Spec: spec}
		if spec.TargetReps > 0 {
			row.Reps = fmt.Sprint(spec.TargetReps)
		}

		ex, _ := r.block.ExerciseByID(spec.ExerciseID)
		switch {
		case spec.Kind == workout.EntryDrop && prevWeight != nil:
			w := DropWeight(*prevWeight, r.block.DropPercentage())
			prevWeight = &w
			row.Weight = FormatWeight(w)
		default:
			row.Suggestion = r.signals.Suggest(spec.ExerciseID, ex.LoadPercentage)
			if w := row.Suggestion.DefaultWeight; w != nil {
				row.Weight = FormatWeight(*w)
				prevWeight = w
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Submit validates and logs one action. Validation problems, a save already in
// flight and a completed block are returned as errors with no state change.
// A failed save is reported in Outcome.PersistErr; progress still advances.
func (r *Runner) Submit(ctx context.Context, in Input) (Outcome, error) {
	if r.Progress().IsCompleted {
		return Outcome{}, ErrBlockCompleted
	}

	sub, err := r.proto.Validate(r.block, in)
	if err != nil {
		return Outcome{}, err
	}

	tok, ok := r.watchdog.Acquire()
	if !ok {
		return Outcome{}, ErrSaveInFlight
	}

	r.mu.Lock()
	if r.progress.IsCompleted {
		r.mu.Unlock()
		r.watchdog.Release(tok)
		return Outcome{}, ErrBlockCompleted
	}
	setNumber := r.progress.CompletedSets + 1
	req := r.proto.BuildLogPayload(r.block, setNumber, sub, r.clock.Now())
	r.mu.Unlock()

	res, logErr := r.setLogger.LogSet(ctx, req)

	outcome := Outcome{
		SetNumber: setNumber,
		Volume:    req.Volume,
		Sets:      req.Sets,
		LogID:     res.LogID,
	}
	switch {
	case logErr != nil:
		outcome.PersistErr = fmt.Errorf("logging set %d of block %s: %w", setNumber, r.block.ID, logErr)
	case !res.Success:
		outcome.PersistErr = fmt.Errorf("%w: %s", ErrLogRejected, res.Error)
	default:
		outcome.E1RM = res.EstimatedOneRepMax
	}

	r.mu.Lock()
	r.logged = append(r.logged, req.Sets...)
	r.progress = r.proto.NextState(r.progress)
	outcome.Progress = r.progress
	outcome.Completed = r.progress.IsCompleted
	var all []workout.LoggedSet
	if outcome.Completed {
		all = append([]workout.LoggedSet(nil), r.logged...)
	}
	r.mu.Unlock()

	r.watchdog.Release(tok)
	r.updateSignals(req, outcome.E1RM)

	if outcome.PersistErr != nil {
		r.logger.Printf("Runner: block %s set %d not saved: %v", r.block.ID, setNumber, outcome.PersistErr)
	} else {
		r.logger.Printf("Runner: block %s set %d logged (volume %.1f)", r.block.ID, setNumber, outcome.Volume)
	}

	if outcome.Completed {
		r.Logged.Publish(outcome)
		r.logger.Printf("Runner: block %s complete with %d logged rows", r.block.ID, len(all))
		r.Completed.Publish(BlockResult{BlockID: r.block.ID, Sets: all})
		return outcome, nil
	}

	outcome.RestSeconds = r.restSeconds()
	r.Logged.Publish(outcome)
	if outcome.RestSeconds > 0 {
		r.startRest(outcome.RestSeconds)
	} else {
		r.InputReset.Publish(r.Prefill())
	}
	return outcome, nil
}

// CompleteTimed finishes an open-ended block whose timer ran out without a log.
// Blocks that count sets are left alone.
func (r *Runner) CompleteTimed() bool {
	if !r.block.Type.IsOpenEnded() {
		return false
	}
	r.mu.Lock()
	if r.progress.IsCompleted {
		r.mu.Unlock()
		return false
	}
	r.progress = r.progress.Complete()
	all := append([]workout.LoggedSet(nil), r.logged...)
	r.mu.Unlock()

	r.logger.Printf("Runner: block %s completed by its timer", r.block.ID)
	r.Completed.Publish(BlockResult{BlockID: r.block.ID, Sets: all})
	return true
}

// Close stops the rest countdown and the watchdog. Saves already issued are not cancelled.
func (r *Runner) Close() {
	r.mu.Lock()
	rest := r.rest
	r.rest = nil
	r.mu.Unlock()

	if rest != nil {
		rest.Deactivate()
	}
	r.watchdog.Stop()
}

func (r *Runner) restSeconds() int {
	if r.block.Type.HasCountdown() || r.block.Type.IsInterval() {
		return 0
	}
	return int(r.block.RestAfterSet().Seconds())
}

func (r *Runner) startRest(seconds int) {
	rest := interval.NewRest(seconds, r.logger)
	rest.Completed.Subscribe(func(interval.CountdownState) {
		r.mu.Lock()
		current := r.rest == rest
		if current {
			r.rest = nil
		}
		r.mu.Unlock()
		if current {
			r.InputReset.Publish(r.Prefill())
		}
	})

	r.mu.Lock()
	prev := r.rest
	r.rest = rest
	r.mu.Unlock()
	if prev != nil {
		prev.Deactivate()
	}

	rest.Start()
	r.RestStarted.Publish(rest)
}

// updateSignals stores sticky weights (the primary row for the primary
// exercise, the first weighted row for the others) and the returned e1RM
func (r *Runner) updateSignals(req LogRequest, e1rm *float64) {
	sticky := make(map[string]float64)
	var order []string
	primary, hasPrimary := req.Primary()

	for _, s := range req.Sets {
		if !s.HasWeight {
			continue
		}
		if _, seen := sticky[s.ExerciseID]; !seen {
			order = append(order, s.ExerciseID)
			sticky[s.ExerciseID] = s.Weight
		}
	}
	if hasPrimary && primary.HasWeight {
		sticky[primary.ExerciseID] = primary.Weight
	}
	for _, id := range order {
		r.signals.RecordWeight(id, sticky[id])
	}

	if e1rm != nil && hasPrimary {
		r.signals.UpdateE1RM(primary.ExerciseID, *e1rm)
	}
}
