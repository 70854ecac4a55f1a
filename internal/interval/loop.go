package interval

import (
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/lowaak/liftsession/internal/safego"
)

// TickInterval is the period of the ticking loop
const TickInterval = 1 * time.Second

// Target is anything the loop can drive: the interval scheduler or a countdown
type Target interface {
	Name() string
	// Tick advances one second and returns true when the target is finished
	Tick() bool
	SetPaused(paused bool)
}

// Loop is the single 1-second ticking loop. At most one target ticks at a
// time; starting a new target replaces the previous one.
type Loop struct {
	clock  clock.Clock
	logger *log.Logger

	mu      sync.Mutex
	target  Target
	paused  bool
	ticking bool

	wakeChan     chan struct{}
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewLoop creates the loop and starts its goroutine
func NewLoop(clk clock.Clock, logger *log.Logger) *Loop {
	if clk == nil {
		panic("Loop: clock cannot be nil")
	}
	if logger == nil {
		panic("Loop: logger cannot be nil")
	}
	l := &Loop{
		clock:    clk,
		logger:   logger,
		wakeChan: make(chan struct{}, 1),
		doneChan: make(chan struct{}),
	}
	safego.GoWait(logger, &l.wg, "interval loop", l.run)
	return l
}

// Start makes t the ticking target. Any previous target stops receiving ticks.
func (l *Loop) Start(t Target) {
	if t == nil {
		panic("Loop: target cannot be nil")
	}
	l.mu.Lock()
	prev := l.target
	l.target = t
	l.paused = false
	l.mu.Unlock()

	if prev != nil && prev != t {
		l.logger.Printf("Loop: replacing %s with %s", prev.Name(), t.Name())
	}
	l.wake()
}

// Pause suspends ticking and pauses the target
func (l *Loop) Pause() {
	l.setPaused(true)
}

// Resume restarts ticking and resumes the target
func (l *Loop) Resume() {
	l.setPaused(false)
}

func (l *Loop) setPaused(paused bool) {
	l.mu.Lock()
	t := l.target
	if t == nil || l.paused == paused {
		l.mu.Unlock()
		return
	}
	l.paused = paused
	l.mu.Unlock()

	t.SetPaused(paused)
	l.wake()
}

// Stop tears the loop down. The target keeps its state but gets no more ticks.
func (l *Loop) Stop() {
	l.mu.Lock()
	t := l.target
	l.target = nil
	l.paused = false
	l.mu.Unlock()

	if t != nil {
		l.logger.Printf("Loop: stopped %s", t.Name())
	}
	l.wake()
}

// Target returns the current target, or nil
func (l *Loop) Target() Target {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.target
}

// Paused reports whether the current target is paused
func (l *Loop) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// Ticking reports whether the loop goroutine currently holds a live ticker
func (l *Loop) Ticking() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticking
}

// Shutdown stops the goroutine. Safe to call multiple times.
func (l *Loop) Shutdown() {
	l.shutdownOnce.Do(func() {
		l.Stop()
		close(l.doneChan)
		l.wg.Wait()
		l.logger.Printf("Loop: shutdown complete")
	})
}

func (l *Loop) wake() {
	select {
	case l.wakeChan <- struct{}{}:
	default:
	}
}

// wantTicker MUST be called with mu held
func (l *Loop) wantTicker() bool {
	return l.target != nil && !l.paused
}

func (l *Loop) run() {
	var ticker *clock.Ticker
	var tickC <-chan time.Time

	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
		}
		l.mu.Lock()
		l.ticking = false
		l.mu.Unlock()
	}

	for {
		select {
		case <-l.doneChan:
			stopTicker()
			return

		case <-l.wakeChan:
			l.mu.Lock()
			want := l.wantTicker()
			l.mu.Unlock()

			switch {
			case want && ticker == nil:
				// each (re)start gets a fresh full second before the first tick
				ticker = l.clock.Ticker(TickInterval)
				tickC = ticker.C
				l.mu.Lock()
				l.ticking = true
				l.mu.Unlock()
			case want:
				ticker.Reset(TickInterval)
			default:
				stopTicker()
			}

		case <-tickC:
			l.mu.Lock()
			t := l.target
			skip := t == nil || l.paused
			l.mu.Unlock()
			if skip {
				continue
			}

			if finished := t.Tick(); finished {
				l.mu.Lock()
				if l.target == t {
					l.target = nil
				}
				l.mu.Unlock()
				l.logger.Printf("Loop: %s finished", t.Name())
				l.wake()
			}
		}
	}
}
