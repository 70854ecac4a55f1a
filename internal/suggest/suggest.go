// Package suggest picks default and suggested loads from the session's performance signals.
package suggest

import (
	"math"
	"sync"
)

// Source names where a default weight came from
type Source string

const (
	SourceNone        Source = ""
	SourceSticky      Source = "sticky"
	SourceLastSession Source = "last_session"
	SourcePercentE1RM Source = "percent_e1rm"
)

// Input carries the optional historical signals for one exercise
type Input struct {
	SessionStickyWeight *float64
	LastSessionWeight   *float64
	LoadPercentage      *float64 // percent of e1RM, e.g. 70
	E1RM                *float64
}

// Suggestion is the result of Suggest. Nil weights mean "no value".
type Suggestion struct {
	DefaultWeight   *float64
	SuggestedWeight *float64
	Source          Source
}

// Suggest applies the priority sticky > last session > percent of e1RM.
// SuggestedWeight is filled whenever both load percentage and e1RM are known.
func Suggest(in Input) Suggestion {
	var s Suggestion

	if w, ok := PercentOfE1RM(in.LoadPercentage, in.E1RM); ok {
		s.SuggestedWeight = &w
	}

	switch {
	case in.SessionStickyWeight != nil:
		w := *in.SessionStickyWeight
		s.DefaultWeight = &w
		s.Source = SourceSticky
	case in.LastSessionWeight != nil:
		w := *in.LastSessionWeight
		s.DefaultWeight = &w
		s.Source = SourceLastSession
	case s.SuggestedWeight != nil:
		w := *s.SuggestedWeight
		s.DefaultWeight = &w
		s.Source = SourcePercentE1RM
	}
	return s
}

// PercentOfE1RM returns loadPercentage% of e1RM rounded to the nearest 0.5
func PercentOfE1RM(loadPercentage, e1rm *float64) (float64, bool) {
	if loadPercentage == nil || e1rm == nil || *loadPercentage <= 0 || *e1rm <= 0 {
		return 0, false
	}
	return RoundToHalf(*loadPercentage / 100 * *e1rm), true
}

// RoundToHalf rounds w to the nearest 0.5 weight unit
func RoundToHalf(w float64) float64 {
	return math.Round(w*2) / 2
}

// PerformanceSignal is the per-exercise history consumed by Suggest
type PerformanceSignal struct {
	SessionStickyWeight *float64
	LastSessionWeight   *float64
	E1RM                *float64
}

// Signals is the session-scoped board of performance signals, keyed by exercise id
type Signals struct {
	mu      sync.RWMutex
	signals map[string]PerformanceSignal
}

// NewSignals creates an empty board
func NewSignals() *Signals {
	return &Signals{signals: make(map[string]PerformanceSignal)}
}

// Seed sets prior-session history for an exercise. Nil values are left unset.
func (s *Signals) Seed(exerciseID string, lastSessionWeight, e1rm *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig := s.signals[exerciseID]
	if lastSessionWeight != nil {
		sig.LastSessionWeight = floatPtr(*lastSessionWeight)
	}
	if e1rm != nil {
		sig.E1RM = floatPtr(*e1rm)
	}
	s.signals[exerciseID] = sig
}

// RecordWeight stores the weight most recently logged for the exercise in this session
func (s *Signals) RecordWeight(exerciseID string, weight float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig := s.signals[exerciseID]
	sig.SessionStickyWeight = floatPtr(weight)
	s.signals[exerciseID] = sig
}

// UpdateE1RM stores a fresh estimated one-rep-max for the exercise
func (s *Signals) UpdateE1RM(exerciseID string, e1rm float64) {
	if e1rm <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sig := s.signals[exerciseID]
	sig.E1RM = floatPtr(e1rm)
	s.signals[exerciseID] = sig
}

// Get returns a copy of the signal for the exercise
func (s *Signals) Get(exerciseID string) PerformanceSignal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig := s.signals[exerciseID]
	return PerformanceSignal{
		SessionStickyWeight: copyPtr(sig.SessionStickyWeight),
		LastSessionWeight:   copyPtr(sig.LastSessionWeight),
		E1RM:                copyPtr(sig.E1RM),
	}
}

// Suggest runs the suggestion engine for one exercise
func (s *Signals) Suggest(exerciseID string, loadPercentage *float64) Suggestion {
	sig := s.Get(exerciseID)
	return Suggest(Input{
		SessionStickyWeight: sig.SessionStickyWeight,
		LastSessionWeight:   sig.LastSessionWeight,
		LoadPercentage:      loadPercentage,
		E1RM:                sig.E1RM,
	})
}

// ResolveSuggestedWeight returns the default weight for an exercise, or nil
func (s *Signals) ResolveSuggestedWeight(exerciseID string, loadPercentage *float64) *float64 {
	return s.Suggest(exerciseID, loadPercentage).DefaultWeight
}

// Reset forgets every in-session sticky weight, keeping prior-session history
func (s *Signals) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sig := range s.signals {
		sig.SessionStickyWeight = nil
		s.signals[id] = sig
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func copyPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return floatPtr(*p)
}
