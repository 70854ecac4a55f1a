// Package sequencer orders the blocks of a workout, activates one at a time
// and hands off from a block's completion to the next block.
package sequencer

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/lowaak/liftsession/internal/events"
	"github.com/lowaak/liftsession/internal/interval"
	"github.com/lowaak/liftsession/internal/protocol"
	"github.com/lowaak/liftsession/internal/suggest"
	"github.com/lowaak/liftsession/internal/watchdog"
	"github.com/lowaak/liftsession/internal/workout"
)

var (
	ErrIndexOutOfRange = errors.New("block index out of range")
	ErrNoBlock         = errors.New("no block in that direction")
	ErrNoTimer         = errors.New("active block has no timer")
	ErrNotStarted      = errors.New("workout not started")
)

// Options tunes the per-block collaborators
type Options struct {
	WatchdogTimeout time.Duration
	Interval        interval.Defaults
}

// Activation describes the block that just became active
type Activation struct {
	Index     int
	Total     int
	Block     *workout.Block
	Runner    *protocol.Runner
	Scheduler *interval.Scheduler // circuit and Tabata blocks
	Countdown *interval.Countdown // AMRAP, EMOM and For-Time blocks
}

// VideoRequest asks the host to show an exercise video
type VideoRequest struct {
	URL   string
	Title string
}

type activeBlock struct {
	index     int
	block     *workout.Block
	runner    *protocol.Runner
	watchdog  *watchdog.Watchdog
	scheduler *interval.Scheduler
	countdown *interval.Countdown
	unsubs    []func()
}

// Sequencer owns the current block index. Each block's runner and timer are
// discarded when the block is left.
type Sequencer struct {
	workout   *workout.Workout
	setLogger protocol.SetLogger
	signals   *suggest.Signals
	loop      *interval.Loop
	clock     clock.Clock
	logger    *log.Logger
	opts      Options

	mu       sync.Mutex
	index    int
	started  bool
	finished bool
	active   *activeBlock

	BlockActivated        *events.Event[Activation]
	BlockCompleted        *events.Event[protocol.BlockResult]
	Advanced              *events.Event[int]
	WorkoutCompleted      *events.Event[string]
	TimerFinished         *events.Event[int]
	SaveExpired           *events.Event[int] // block index whose pending save the watchdog gave up on
	VideoRequested        *events.Event[VideoRequest]
	AlternativesRequested *events.Event[string]
}

// New creates a Sequencer for w. Call Start to activate the first block.
func New(w *workout.Workout, setLogger protocol.SetLogger, signals *suggest.Signals, loop *interval.Loop, clk clock.Clock, logger *log.Logger, opts Options) *Sequencer {
	if w == nil || len(w.Blocks) == 0 {
		panic("Sequencer: workout must have blocks")
	}
	if setLogger == nil {
		panic("Sequencer: setLogger cannot be nil")
	}
	if signals == nil {
		panic("Sequencer: signals cannot be nil")
	}
	if loop == nil {
		panic("Sequencer: loop cannot be nil")
	}
	if clk == nil {
		panic("Sequencer: clock cannot be nil")
	}
	if logger == nil {
		panic("Sequencer: logger cannot be nil")
	}
	return &Sequencer{
		workout:               w,
		setLogger:             setLogger,
		signals:               signals,
		loop:                  loop,
		clock:                 clk,
		logger:                logger,
		opts:                  opts,
		BlockActivated:        events.New[Activation](true),
		BlockCompleted:        events.New[protocol.BlockResult](false),
		Advanced:              events.New[int](false),
		WorkoutCompleted:      events.New[string](false),
		TimerFinished:         events.New[int](false),
		SaveExpired:           events.New[int](false),
		VideoRequested:        events.New[VideoRequest](false),
		AlternativesRequested: events.New[string](false),
	}
}

// Workout returns the workout being sequenced
func (s *Sequencer) Workout() *workout.Workout {
	return s.workout
}

// Start activates the first block
func (s *Sequencer) Start() {
	s.logger.Printf("Sequencer: starting '%s' with %d blocks", s.workout.Name, len(s.workout.Blocks))
	s.activate(0)
}

// Restart forgets in-session sticky weights and starts over from the first block
func (s *Sequencer) Restart() {
	s.signals.Reset()
	s.activate(0)
}

// CurrentBlockIndex returns the active block index
func (s *Sequencer) CurrentBlockIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// CurrentBlock returns the active block, or nil before Start and after the last block
func (s *Sequencer) CurrentBlock() *workout.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	return s.active.block
}

// Active returns the current activation
func (s *Sequencer) Active() (Activation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Activation{}, false
	}
	return s.activationLocked(s.active), true
}

// Finished reports whether every block has been completed
func (s *Sequencer) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// HasPrevious reports whether a block precedes the current one
func (s *Sequencer) HasPrevious() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && s.index > 0
}

// HasNext reports whether a block follows the current one
func (s *Sequencer) HasNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && s.index+1 < len(s.workout.Blocks)
}

// Advance moves to the next block, or completes the workout after the last one
func (s *Sequencer) Advance() {
	s.mu.Lock()
	if !s.started || s.finished {
		s.mu.Unlock()
		return
	}
	next := s.index + 1
	if next >= len(s.workout.Blocks) {
		old := s.active
		s.active = nil
		s.finished = true
		s.mu.Unlock()

		if old != nil {
			s.teardown(old)
		}
		s.logger.Printf("Sequencer: workout '%s' complete", s.workout.Name)
		s.WorkoutCompleted.Publish(s.workout.Name)
		return
	}
	s.mu.Unlock()

	s.activate(next)
	s.Advanced.Publish(next)
}

// GoTo activates block i, discarding the current block's state
func (s *Sequencer) GoTo(i int) error {
	if i < 0 || i >= len(s.workout.Blocks) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	s.activate(i)
	return nil
}

// Previous activates the preceding block
func (s *Sequencer) Previous() error {
	if !s.HasPrevious() {
		return ErrNoBlock
	}
	return s.GoTo(s.CurrentBlockIndex() - 1)
}

// Next activates the following block without completing the current one
func (s *Sequencer) Next() error {
	if !s.HasNext() {
		return ErrNoBlock
	}
	return s.GoTo(s.CurrentBlockIndex() + 1)
}

// Foreground tells the active block's watchdog the application is visible again
func (s *Sequencer) Foreground() {
	s.mu.Lock()
	ab := s.active
	s.mu.Unlock()
	if ab != nil {
		ab.watchdog.Foreground()
	}
}

// RequestVideo publishes the video of an exercise of the active block.
// Returns false when the exercise has no video.
func (s *Sequencer) RequestVideo(exerciseID string) bool {
	b := s.CurrentBlock()
	if b == nil {
		return false
	}
	e, ok := b.ExerciseByID(exerciseID)
	if !ok || e.VideoURL == "" {
		return false
	}
	s.VideoRequested.Publish(VideoRequest{URL: e.VideoURL, Title: e.DisplayName()})
	return true
}

// RequestAlternatives publishes a request for substitutes of an exercise
func (s *Sequencer) RequestAlternatives(exerciseID string) {
	s.AlternativesRequested.Publish(exerciseID)
}

// Close tears down the active block. Saves already issued are not cancelled.
func (s *Sequencer) Close() {
	s.mu.Lock()
	old := s.active
	s.active = nil
	s.mu.Unlock()
	if old != nil {
		s.teardown(old)
	}
}

func (s *Sequencer) activate(i int) {
	ab := s.newActiveBlock(i)

	s.mu.Lock()
	old := s.active
	s.active = ab
	s.index = i
	s.started = true
	s.finished = false
	activation := s.activationLocked(ab)
	s.mu.Unlock()

	if old != nil {
		s.teardown(old)
	}
	s.wire(ab)

	s.logger.Printf("Sequencer: block %d/%d '%s' (%s) active", i+1, len(s.workout.Blocks), ab.block.DisplayName(), ab.block.Type)
	s.BlockActivated.Publish(activation)
}

func (s *Sequencer) newActiveBlock(i int) *activeBlock {
	b := &s.workout.Blocks[i]
	wd := watchdog.New(s.clock, s.opts.WatchdogTimeout, s.logger)
	ab := &activeBlock{
		index:    i,
		block:    b,
		watchdog: wd,
		runner:   protocol.NewRunner(b, s.setLogger, s.signals, wd, s.clock, s.logger),
	}

	switch b.Type {
	case workout.BlockTypeCircuit, workout.BlockTypeTabata:
		ab.scheduler = interval.NewScheduler(interval.FromBlock(b, s.opts.Interval), s.logger)
	case workout.BlockTypeAMRAP:
		secs := b.Params.DurationSeconds
		if secs <= 0 {
			secs = workout.DefaultAMRAPSeconds
		}
		ab.countdown = interval.NewAMRAP(secs, s.logger)
	case workout.BlockTypeEMOM:
		ab.countdown = interval.NewEMOM(b.EMOMIntervalSeconds(), b.EffectiveRounds(), s.logger)
	case workout.BlockTypeForTime:
		ab.countdown = interval.NewForTime(b.Params.DurationSeconds, s.logger)
	}
	return ab
}

// wire subscribes the sequencer to the block's runner and timer
func (s *Sequencer) wire(ab *activeBlock) {
	ab.unsubs = append(ab.unsubs,
		ab.runner.Completed.Subscribe(func(res protocol.BlockResult) {
			if !s.isActive(ab) {
				return
			}
			s.BlockCompleted.Publish(res)
			s.Advance()
		}),
		ab.runner.RestStarted.Subscribe(func(rest *interval.Countdown) {
			if s.isActive(ab) {
				s.loop.Start(rest)
			}
		}),
		ab.watchdog.Expired.Subscribe(func(watchdog.Token) {
			if s.isActive(ab) {
				s.SaveExpired.Publish(ab.index)
			}
		}),
	)

	timerDone := func() {
		if s.isActive(ab) {
			s.TimerFinished.Publish(ab.index)
		}
	}
	if ab.scheduler != nil {
		ab.unsubs = append(ab.unsubs, ab.scheduler.Completed.Subscribe(func(interval.TimerState) { timerDone() }))
	}
	if ab.countdown != nil {
		ab.unsubs = append(ab.unsubs, ab.countdown.Completed.Subscribe(func(interval.CountdownState) { timerDone() }))
	}
}

func (s *Sequencer) teardown(ab *activeBlock) {
	for _, unsub := range ab.unsubs {
		unsub()
	}
	ab.unsubs = nil

	s.loop.Stop()
	if ab.scheduler != nil {
		ab.scheduler.Deactivate()
	}
	if ab.countdown != nil {
		ab.countdown.Deactivate()
	}
	ab.runner.Close()
}

func (s *Sequencer) isActive(ab *activeBlock) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active == ab
}

// activationLocked MUST be called with mu held
func (s *Sequencer) activationLocked(ab *activeBlock) Activation {
	return Activation{
		Index:     ab.index,
		Total:     len(s.workout.Blocks),
		Block:     ab.block,
		Runner:    ab.runner,
		Scheduler: ab.scheduler,
		Countdown: ab.countdown,
	}
}
