package interval

import (
	"log"
	"sync"

	"github.com/lowaak/liftsession/internal/events"
)

// TimerState is a snapshot of the scheduler published after every change
type TimerState struct {
	Phase             Phase
	PhaseSecondsLeft  int
	PhaseSeconds      int
	Round             int
	TotalRounds       int
	SetIndex          int
	ExerciseIndex     int
	ExerciseID        string
	ExerciseName      string
	IsActive          bool
	IsPaused          bool
	IsComplete        bool
	CompletedSegments int
	TotalSegments     int
}

// Scheduler drives a circuit or Tabata block through its work/rest phases.
// Tick is called once per second by a Loop.
type Scheduler struct {
	cfg    Config
	logger *log.Logger

	mu          sync.Mutex
	cursor      Cursor
	secondsLeft int
	active      bool
	paused      bool
	complete    bool

	StateChanged *events.Event[TimerState]
	Completed    *events.Event[TimerState]
}

// NewScheduler creates a scheduler positioned at the first work phase
func NewScheduler(cfg Config, logger *log.Logger) *Scheduler {
	if logger == nil {
		panic("Scheduler: logger cannot be nil")
	}
	cfg = cfg.Normalize(Defaults{})
	if cfg.Empty() {
		panic("Scheduler: configuration has no exercises")
	}
	s := &Scheduler{
		cfg:          cfg,
		logger:       logger,
		cursor:       cfg.Start(),
		StateChanged: events.New[TimerState](true),
		Completed:    events.New[TimerState](false),
	}
	s.secondsLeft = cfg.PhaseSeconds(s.cursor)
	return s
}

// Config returns the normalized configuration
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Name identifies the scheduler in loop logs
func (s *Scheduler) Name() string {
	return "interval"
}

// Start activates the scheduler at its current cursor. A completed scheduler
// restarts from the beginning.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.complete {
		s.cursor = s.cfg.Start()
		s.secondsLeft = s.cfg.PhaseSeconds(s.cursor)
		s.complete = false
	}
	s.active = true
	s.paused = false
	state := s.buildState()
	s.mu.Unlock()

	s.logger.Printf("Scheduler: started at round %d, set %d, exercise %d (%s)",
		state.Round+1, state.SetIndex+1, state.ExerciseIndex+1, state.Phase)
	s.StateChanged.Publish(state)
}

// Tick advances the countdown by one second. It returns true once the block
// is complete and the scheduler no longer needs ticking.
func (s *Scheduler) Tick() bool {
	s.mu.Lock()
	if !s.active || s.paused {
		done := s.complete
		s.mu.Unlock()
		return done
	}
	if s.secondsLeft > 0 {
		s.secondsLeft--
	}
	var finished bool
	if s.secondsLeft == 0 {
		finished = s.advanceLocked()
	}
	state := s.buildState()
	s.mu.Unlock()

	s.publish(state, finished)
	return finished
}

// Next jumps to the following phase regardless of the time left
func (s *Scheduler) Next() {
	s.mu.Lock()
	if s.complete {
		s.mu.Unlock()
		return
	}
	finished := s.advanceLocked()
	state := s.buildState()
	s.mu.Unlock()

	s.publish(state, finished)
}

// Previous jumps back to the preceding phase with its full duration.
// At the very first phase the current phase restarts. On a complete scheduler
// the cursor still sits on the final phase, which is reopened.
func (s *Scheduler) Previous() {
	s.mu.Lock()
	if s.complete {
		s.complete = false
	} else if prev, ok := s.cfg.Previous(s.cursor); ok {
		s.cursor = prev
	}
	s.secondsLeft = s.cfg.PhaseSeconds(s.cursor)
	state := s.buildState()
	s.mu.Unlock()

	s.StateChanged.Publish(state)
}

// SetPaused freezes or resumes the countdown without touching the cursor
func (s *Scheduler) SetPaused(paused bool) {
	s.mu.Lock()
	if s.paused == paused {
		s.mu.Unlock()
		return
	}
	s.paused = paused
	state := s.buildState()
	s.mu.Unlock()

	s.StateChanged.Publish(state)
}

// Deactivate stops the scheduler, keeping the cursor so it can be resumed
func (s *Scheduler) Deactivate() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.paused = false
	state := s.buildState()
	s.mu.Unlock()

	s.logger.Printf("Scheduler: deactivated at segment %d/%d", state.CompletedSegments, state.TotalSegments)
	s.StateChanged.Publish(state)
}

// State returns the current snapshot
func (s *Scheduler) State() TimerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildState()
}

func (s *Scheduler) publish(state TimerState, finished bool) {
	s.StateChanged.Publish(state)
	if finished {
		s.logger.Printf("Scheduler: all %d rounds complete", state.TotalRounds)
		s.Completed.Publish(state)
	}
}

// advanceLocked moves to the next phase. MUST be called with mu held.
func (s *Scheduler) advanceLocked() bool {
	next, done := s.cfg.Next(s.cursor)
	if done {
		s.secondsLeft = 0
		s.complete = true
		s.active = false
		s.paused = false
		return true
	}
	s.cursor = next
	s.secondsLeft = s.cfg.PhaseSeconds(next)
	return false
}

// buildState MUST be called with mu held
func (s *Scheduler) buildState() TimerState {
	ex := s.cfg.Exercise(s.cursor)
	state := TimerState{
		Phase:             s.cursor.Phase,
		PhaseSecondsLeft:  s.secondsLeft,
		PhaseSeconds:      s.cfg.PhaseSeconds(s.cursor),
		Round:             s.cursor.Round,
		TotalRounds:       s.cfg.TotalRounds,
		SetIndex:          s.cursor.SetIndex,
		ExerciseIndex:     s.cursor.ExerciseIndex,
		ExerciseID:        ex.ExerciseID,
		ExerciseName:      ex.Name,
		IsActive:          s.active,
		IsPaused:          s.paused,
		IsComplete:        s.complete,
		CompletedSegments: s.cfg.CompletedSegments(s.cursor),
		TotalSegments:     s.cfg.TotalSegments(),
	}
	if s.complete {
		state.CompletedSegments = state.TotalSegments
	}
	return state
}
