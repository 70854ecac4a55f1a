package interval

import (
	"fmt"
	"log"
	"sync"

	"github.com/lowaak/liftsession/internal/events"
)

// CountdownKind selects how a Countdown counts
type CountdownKind string

const (
	// KindAMRAP counts down from the time cap
	KindAMRAP CountdownKind = "amrap"
	// KindForTime counts up until the cap or a manual Finish
	KindForTime CountdownKind = "for_time"
	// KindEMOM counts down each interval and starts the next round at zero
	KindEMOM CountdownKind = "emom"
	// KindRest counts down the rest between sets
	KindRest CountdownKind = "rest"
)

// CountdownState is a snapshot of a Countdown
type CountdownState struct {
	Kind                CountdownKind
	SecondsLeft         int // AMRAP/rest: time left overall; For-Time: time left to the cap (0 without cap)
	ElapsedSeconds      int
	TotalSeconds        int
	Round               int
	TotalRounds         int
	IntervalSecondsLeft int
	IsActive            bool
	IsPaused            bool
	IsComplete          bool
}

// Countdown is the single-phase timer used by AMRAP, EMOM, For-Time and rest periods
type Countdown struct {
	kind            CountdownKind
	totalSeconds    int
	intervalSeconds int
	totalRounds     int
	logger          *log.Logger

	mu       sync.Mutex
	elapsed  int
	active   bool
	paused   bool
	complete bool

	StateChanged *events.Event[CountdownState]
	Completed    *events.Event[CountdownState]
}

func newCountdown(kind CountdownKind, totalSeconds, intervalSeconds, rounds int, logger *log.Logger) *Countdown {
	if logger == nil {
		panic("Countdown: logger cannot be nil")
	}
	return &Countdown{
		kind:            kind,
		totalSeconds:    totalSeconds,
		intervalSeconds: intervalSeconds,
		totalRounds:     rounds,
		logger:          logger,
		StateChanged:    events.New[CountdownState](true),
		Completed:       events.New[CountdownState](false),
	}
}

// NewAMRAP counts down capSeconds
func NewAMRAP(capSeconds int, logger *log.Logger) *Countdown {
	if capSeconds <= 0 {
		capSeconds = 600
	}
	return newCountdown(KindAMRAP, capSeconds, 0, 1, logger)
}

// NewForTime counts up. capSeconds <= 0 means no cap.
func NewForTime(capSeconds int, logger *log.Logger) *Countdown {
	if capSeconds < 0 {
		capSeconds = 0
	}
	return newCountdown(KindForTime, capSeconds, 0, 1, logger)
}

// NewEMOM runs rounds intervals of intervalSeconds each
func NewEMOM(intervalSeconds, rounds int, logger *log.Logger) *Countdown {
	if intervalSeconds <= 0 {
		intervalSeconds = 60
	}
	if rounds <= 0 {
		rounds = 1
	}
	return newCountdown(KindEMOM, intervalSeconds*rounds, intervalSeconds, rounds, logger)
}

// NewRest counts down a rest period
func NewRest(seconds int, logger *log.Logger) *Countdown {
	return newCountdown(KindRest, seconds, 0, 1, logger)
}

// Name identifies the countdown in loop logs
func (c *Countdown) Name() string {
	return string(c.kind)
}

// Kind returns the countdown kind
func (c *Countdown) Kind() CountdownKind {
	return c.kind
}

// Start activates the countdown. A deactivated countdown resumes at its
// elapsed time; a complete one starts over from zero.
func (c *Countdown) Start() {
	c.mu.Lock()
	if c.complete {
		c.elapsed = 0
	}
	c.paused = false
	c.complete = c.kind != KindForTime && c.totalSeconds <= 0
	c.active = !c.complete
	state := c.buildState()
	c.mu.Unlock()

	c.logger.Printf("Countdown: %s started at %ds of %ds", c.kind, state.ElapsedSeconds, c.totalSeconds)
	c.StateChanged.Publish(state)
	if state.IsComplete {
		c.Completed.Publish(state)
	}
}

// Tick advances the countdown by one second and returns true once it is complete
func (c *Countdown) Tick() bool {
	c.mu.Lock()
	if !c.active || c.paused {
		done := c.complete
		c.mu.Unlock()
		return done
	}
	c.elapsed++
	finished := c.totalSeconds > 0 && c.elapsed >= c.totalSeconds
	if finished {
		c.elapsed = c.totalSeconds
		c.finishLocked()
	}
	state := c.buildState()
	c.mu.Unlock()

	c.StateChanged.Publish(state)
	if finished {
		c.logger.Printf("Countdown: %s finished after %ds", c.kind, state.ElapsedSeconds)
		c.Completed.Publish(state)
	}
	return finished
}

// Finish stops the countdown early and reports it complete (For-Time "done")
func (c *Countdown) Finish() CountdownState {
	c.mu.Lock()
	if c.complete {
		state := c.buildState()
		c.mu.Unlock()
		return state
	}
	c.finishLocked()
	state := c.buildState()
	c.mu.Unlock()

	c.logger.Printf("Countdown: %s finished manually after %ds", c.kind, state.ElapsedSeconds)
	c.StateChanged.Publish(state)
	c.Completed.Publish(state)
	return state
}

// SetPaused freezes or resumes the countdown
func (c *Countdown) SetPaused(paused bool) {
	c.mu.Lock()
	if c.paused == paused || !c.active {
		c.mu.Unlock()
		return
	}
	c.paused = paused
	state := c.buildState()
	c.mu.Unlock()

	c.StateChanged.Publish(state)
}

// Deactivate stops the countdown without completing it
func (c *Countdown) Deactivate() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	c.paused = false
	state := c.buildState()
	c.mu.Unlock()

	c.StateChanged.Publish(state)
}

// State returns the current snapshot
func (c *Countdown) State() CountdownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildState()
}

// finishLocked MUST be called with mu held
func (c *Countdown) finishLocked() {
	c.complete = true
	c.active = false
	c.paused = false
}

// buildState MUST be called with mu held
func (c *Countdown) buildState() CountdownState {
	state := CountdownState{
		Kind:           c.kind,
		ElapsedSeconds: c.elapsed,
		TotalSeconds:   c.totalSeconds,
		TotalRounds:    c.totalRounds,
		IsActive:       c.active,
		IsPaused:       c.paused,
		IsComplete:     c.complete,
	}
	if c.totalSeconds > 0 {
		state.SecondsLeft = c.totalSeconds - c.elapsed
	}
	if c.kind == KindEMOM {
		state.Round = c.elapsed / c.intervalSeconds
		if state.Round >= c.totalRounds {
			state.Round = c.totalRounds - 1
			state.IntervalSecondsLeft = 0
		} else {
			state.IntervalSecondsLeft = c.intervalSeconds - c.elapsed%c.intervalSeconds
		}
	}
	return state
}

// FormatSeconds renders seconds as m:ss
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
