package protocol

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/lowaak/liftsession/internal/suggest"
)

// DefaultManualEditWindow is how long a manual drop-weight edit is protected
// from being recalculated off the working weight
const DefaultManualEditWindow = 500 * time.Millisecond

// DropWeight returns the weight after one drop of percentage percent, rounded to 0.5
func DropWeight(from, percentage float64) float64 {
	return suggest.RoundToHalf(from * (1 - percentage/100))
}

type dropField struct {
	value            string
	lastManualEditAt time.Time
}

// DropSetForm holds the weight fields of a drop-set log action. Each drop is
// derived from the row above it unless the user edited it recently.
type DropSetForm struct {
	clock      clock.Clock
	window     time.Duration
	percentage float64

	mu      sync.Mutex
	working string
	drops   []dropField
}

// NewDropSetForm creates a form with dropCount drop rows
func NewDropSetForm(clk clock.Clock, dropCount int, percentage float64, window time.Duration) *DropSetForm {
	if clk == nil {
		panic("DropSetForm: clock cannot be nil")
	}
	if window <= 0 {
		window = DefaultManualEditWindow
	}
	return &DropSetForm{
		clock:      clk,
		window:     window,
		percentage: percentage,
		drops:      make([]dropField, dropCount),
	}
}

// SetWorkingWeight updates the working weight and recalculates the drops
func (f *DropSetForm) SetWorkingWeight(raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.working = raw
	f.recalculateLocked()
}

// EditDrop records a manual edit of drop i (0-based)
func (f *DropSetForm) EditDrop(i int, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.drops) {
		return
	}
	f.drops[i] = dropField{value: raw, lastManualEditAt: f.clock.Now()}
}

// WorkingWeight returns the raw working weight
func (f *DropSetForm) WorkingWeight() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.working
}

// DropWeights returns the raw drop weights
func (f *DropSetForm) DropWeights() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.drops))
	for i, d := range f.drops {
		out[i] = d.value
	}
	return out
}

// Weights returns the working weight followed by the drops, in layout order
func (f *DropSetForm) Weights() []string {
	return append([]string{f.WorkingWeight()}, f.DropWeights()...)
}

// recalculateLocked MUST be called with mu held
func (f *DropSetForm) recalculateLocked() {
	prev, err := strconv.ParseFloat(strings.TrimSpace(f.working), 64)
	if err != nil || prev < 0 {
		return
	}
	now := f.clock.Now()
	for i := range f.drops {
		d := &f.drops[i]
		if !d.lastManualEditAt.IsZero() && now.Sub(d.lastManualEditAt) < f.window {
			v, err := strconv.ParseFloat(strings.TrimSpace(d.value), 64)
			if err != nil {
				return
			}
			prev = v
			continue
		}
		w := DropWeight(prev, f.percentage)
		d.value = FormatWeight(w)
		d.lastManualEditAt = time.Time{}
		prev = w
	}
}
