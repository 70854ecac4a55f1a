package suggest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 {
	return &v
}

func TestSuggest_StickyWinsButSuggestionStillComputed(t *testing.T) {
	s := Suggest(Input{
		SessionStickyWeight: f(82.5),
		LastSessionWeight:   f(80),
		LoadPercentage:      f(70),
		E1RM:                f(100),
	})

	require.NotNil(t, s.DefaultWeight)
	require.NotNil(t, s.SuggestedWeight)
	assert.Equal(t, 82.5, *s.DefaultWeight)
	assert.Equal(t, 70.0, *s.SuggestedWeight)
	assert.Equal(t, SourceSticky, s.Source)
}

func TestSuggest_Priority(t *testing.T) {
	tests := []struct {
		name       string
		in         Input
		wantWeight *float64
		wantSource Source
	}{
		{"last session", Input{LastSessionWeight: f(80), LoadPercentage: f(70), E1RM: f(100)}, f(80), SourceLastSession},
		{"percent of e1rm", Input{LoadPercentage: f(70), E1RM: f(100)}, f(70), SourcePercentE1RM},
		{"rounded to half", Input{LoadPercentage: f(72), E1RM: f(101)}, f(72.5), SourcePercentE1RM},
		{"percent without e1rm", Input{LoadPercentage: f(70)}, nil, SourceNone},
		{"nothing", Input{}, nil, SourceNone},
		{"zero sticky is valid", Input{SessionStickyWeight: f(0), LastSessionWeight: f(20)}, f(0), SourceSticky},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Suggest(tt.in)
			assert.Equal(t, tt.wantSource, s.Source)
			if tt.wantWeight == nil {
				assert.Nil(t, s.DefaultWeight)
				return
			}
			require.NotNil(t, s.DefaultWeight)
			assert.Equal(t, *tt.wantWeight, *s.DefaultWeight)
		})
	}
}

func TestSuggest_DoesNotAliasInputs(t *testing.T) {
	sticky := f(60)
	s := Suggest(Input{SessionStickyWeight: sticky})
	*sticky = 99
	assert.Equal(t, 60.0, *s.DefaultWeight)
}

func TestRoundToHalf(t *testing.T) {
	assert.Equal(t, 80.0, RoundToHalf(80.1))
	assert.Equal(t, 80.5, RoundToHalf(80.3))
	assert.Equal(t, 81.0, RoundToHalf(80.75))
	assert.Equal(t, 0.0, RoundToHalf(0.2))
}

func TestSignals_RecordAndSuggest(t *testing.T) {
	board := NewSignals()
	board.Seed("bench", f(80), f(100))

	s := board.Suggest("bench", f(70))
	assert.Equal(t, SourceLastSession, s.Source)
	assert.Equal(t, 80.0, *s.DefaultWeight)

	board.RecordWeight("bench", 82.5)
	s = board.Suggest("bench", f(70))
	assert.Equal(t, SourceSticky, s.Source)
	assert.Equal(t, 82.5, *s.DefaultWeight)
	assert.Equal(t, 70.0, *s.SuggestedWeight)

	board.UpdateE1RM("bench", 110)
	assert.Equal(t, 77.0, *board.Suggest("bench", f(70)).SuggestedWeight)

	board.UpdateE1RM("bench", 0)
	assert.Equal(t, 110.0, *board.Get("bench").E1RM)
}

func TestSignals_ResolveSuggestedWeight(t *testing.T) {
	board := NewSignals()
	assert.Nil(t, board.ResolveSuggestedWeight("squat", f(75)))

	board.Seed("squat", nil, f(140))
	w := board.ResolveSuggestedWeight("squat", f(75))
	require.NotNil(t, w)
	assert.Equal(t, 105.0, *w)
}

func TestSignals_ResetKeepsHistory(t *testing.T) {
	board := NewSignals()
	board.Seed("row", f(60), nil)
	board.RecordWeight("row", 65)
	board.Reset()

	sig := board.Get("row")
	assert.Nil(t, sig.SessionStickyWeight)
	require.NotNil(t, sig.LastSessionWeight)
	assert.Equal(t, 60.0, *sig.LastSessionWeight)
}

func TestSignals_ConcurrentAccess(t *testing.T) {
	board := NewSignals()
	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 20; i++ {
		go func(i int) {
			defer wg.Done()
			board.RecordWeight("deadlift", float64(100+i))
			_ = board.Suggest("deadlift", f(80))
		}(i)
	}
	wg.Wait()
	assert.NotNil(t, board.Get("deadlift").SessionStickyWeight)
}
