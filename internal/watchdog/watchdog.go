// Package watchdog guards the "save in flight" flag that disables the log button.
// A save that never resolves (a request abandoned while the app was in the
// background, a hung connection) must not leave logging disabled forever.
package watchdog

import (
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/lowaak/liftsession/internal/events"
)

// DefaultTimeout is how long a save may stay in flight before the flag is cleared
const DefaultTimeout = 12 * time.Second

// Token identifies one in-flight save. Releasing a stale token is a no-op.
type Token uint64

// Watchdog owns one in-flight flag
type Watchdog struct {
	clock   clock.Clock
	timeout time.Duration
	logger  *log.Logger

	mu        sync.Mutex
	inFlight  bool
	token     Token
	startedAt time.Time
	timer     *clock.Timer

	// Expired fires with the token of a flight cleared by the watchdog rather than by Release
	Expired *events.Event[Token]
}

// New creates a Watchdog. A non-positive timeout selects DefaultTimeout.
func New(clk clock.Clock, timeout time.Duration, logger *log.Logger) *Watchdog {
	if clk == nil {
		panic("Watchdog: clock cannot be nil")
	}
	if logger == nil {
		panic("Watchdog: logger cannot be nil")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Watchdog{
		clock:   clk,
		timeout: timeout,
		logger:  logger,
		Expired: events.New[Token](false),
	}
}

// Acquire sets the flag. It returns false if a save is already in flight.
func (w *Watchdog) Acquire() (Token, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight {
		return 0, false
	}
	w.token++
	tok := w.token
	w.inFlight = true
	w.startedAt = w.clock.Now()
	w.timer = w.clock.AfterFunc(w.timeout, func() { w.expire(tok) })
	return tok, true
}

// Release clears the flag if tok is the current flight.
// Returns false for a flight the watchdog already cleared.
func (w *Watchdog) Release(tok Token) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.inFlight || w.token != tok {
		return false
	}
	w.clearLocked()
	return true
}

// InFlight reports whether a save is pending
func (w *Watchdog) InFlight() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight
}

// Foreground is called when the application becomes visible again. Timers may
// not have run while in the background, so an overdue flight is cleared here.
func (w *Watchdog) Foreground() {
	w.mu.Lock()
	if !w.inFlight || w.clock.Since(w.startedAt) < w.timeout {
		w.mu.Unlock()
		return
	}
	tok := w.token
	w.clearLocked()
	w.mu.Unlock()

	w.logger.Printf("Watchdog: save %d overdue on foreground, logging re-enabled", tok)
	w.Expired.Publish(tok)
}

// Stop cancels any pending timer and clears the flag
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight {
		w.clearLocked()
	}
}

func (w *Watchdog) expire(tok Token) {
	w.mu.Lock()
	if !w.inFlight || w.token != tok {
		w.mu.Unlock()
		return
	}
	w.clearLocked()
	w.mu.Unlock()

	w.logger.Printf("Watchdog: save %d still pending after %v, logging re-enabled", tok, w.timeout)
	w.Expired.Publish(tok)
}

// clearLocked must be called with mu held
func (w *Watchdog) clearLocked() {
	w.inFlight = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
