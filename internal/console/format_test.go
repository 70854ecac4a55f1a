package console

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lowaak/liftsession/internal/interval"
	"github.com/lowaak/liftsession/internal/protocol"
	"github.com/lowaak/liftsession/internal/suggest"
	"github.com/lowaak/liftsession/internal/workout"
)

func TestFormatPlanItem(t *testing.T) {
	w := testWorkout()

	main, secondary := formatPlanItem(0, &w.Blocks[0])
	assert.Equal(t, "1. Back Squat", main)
	assert.Equal(t, "Straight sets x2: Back Squat", secondary)

	main, secondary = formatPlanItem(2, &w.Blocks[2])
	assert.Equal(t, "3. Thruster", main)
	assert.Equal(t, "For time: Thruster", secondary)

	ss := &workout.Block{ID: "ss", Name: "Arms", Type: workout.BlockTypeSuperset, TotalSets: 3, Exercises: []workout.Exercise{
		{ID: "curl", Name: "Curl"}, {ID: "pushdown"},
	}}
	main, secondary = formatPlanItem(4, ss)
	assert.Equal(t, "5. Arms", main)
	assert.Equal(t, "Superset x3: Curl, pushdown", secondary)
}

func TestFormatBlockPanel(t *testing.T) {
	w := testWorkout()
	s := SessionState{
		PlanName:    w.Name,
		BlockIndex:  0,
		TotalBlocks: 3,
		Block:       &w.Blocks[0],
		Progress:    workout.NewBlockProgress(&w.Blocks[0]),
		Saving:      true,
		Status:      "Set 1 logged",
	}

	text := formatBlockPanel(s)
	assert.Contains(t, text, "Back Squat")
	assert.Contains(t, text, "block 1/3")
	assert.Contains(t, text, "set[white] 1/2")
	assert.Contains(t, text, "@ 70% e1RM")
	assert.Contains(t, text, "(video)")
	assert.Contains(t, text, "Saving...")
	assert.Contains(t, text, "Set 1 logged")

	s.Progress = s.Progress.Advance().Advance()
	s.Saving = false
	text = formatBlockPanel(s)
	assert.Contains(t, text, "set[white] 2/2", "set number never exceeds the total")
	assert.Contains(t, text, "done")
	assert.NotContains(t, text, "Saving...")

	assert.Contains(t, formatBlockPanel(SessionState{}), "No active block")

	done := formatBlockPanel(SessionState{PlanName: "Console Day", Finished: true})
	assert.Contains(t, done, "Console Day complete")
	assert.NotContains(t, done, "[aqua]")
}

func TestFormatRowLabel(t *testing.T) {
	row := FormRow{Spec: protocol.RowSpec{Label: "Back Squat"}}
	assert.Equal(t, "Back Squat", formatRowLabel(row))

	row.Suggestion = suggest.Suggestion{SuggestedWeight: floatPtr(72.5), Source: suggest.SourceLastSession}
	assert.Equal(t, "Back Squat [gray]sugg. 72.5[white]", formatRowLabel(row))

	// a percent-of-e1RM suggestion is already shown in the block header
	row.Suggestion.Source = suggest.SourcePercentE1RM
	assert.Equal(t, "Back Squat", formatRowLabel(row))
}

func TestFormatTimerPanel(t *testing.T) {
	w := testWorkout()

	t.Run("no timer", func(t *testing.T) {
		assert.Contains(t, formatTimerPanel(TimerView{}, &w.Blocks[0]), "No timer")
		assert.Contains(t, formatTimerPanel(TimerView{}, nil), "No timer")
		assert.NotContains(t, formatTimerPanel(TimerView{}, &w.Blocks[2]), "No timer")
	})

	t.Run("rest", func(t *testing.T) {
		text := formatTimerPanel(TimerView{Rest: &interval.CountdownState{Kind: interval.KindRest, SecondsLeft: 75, IsActive: true, IsPaused: true}}, &w.Blocks[0])
		assert.Contains(t, text, "1:15")
		assert.Contains(t, text, "(paused)")
		assert.Contains(t, text, "F6 to skip")
		assert.NotContains(t, text, "No timer")
	})

	t.Run("interval", func(t *testing.T) {
		st := interval.TimerState{
			Phase:             interval.PhaseRestAfterSet,
			PhaseSecondsLeft:  42,
			Round:             2,
			TotalRounds:       4,
			SetIndex:          1,
			ExerciseName:      "Burpee",
			IsActive:          true,
			CompletedSegments: 5,
			TotalSegments:     16,
		}
		text := formatTimerPanel(TimerView{Interval: &st}, nil)
		assert.Contains(t, text, "SET REST")
		assert.Contains(t, text, "0:42")
		assert.Contains(t, text, "Burpee")
		assert.Contains(t, text, "Round[white] 2/4")
		assert.Contains(t, text, "Set[white] 2")
		assert.Contains(t, text, "Segments[white] 5/16")

		assert.Contains(t, formatTimerPanel(TimerView{Interval: &interval.TimerState{}}, nil), "F2 to start")
		assert.Contains(t, formatTimerPanel(TimerView{Interval: &interval.TimerState{IsComplete: true}}, nil), "Intervals complete")
	})

	t.Run("countdown", func(t *testing.T) {
		forTime := interval.CountdownState{Kind: interval.KindForTime, ElapsedSeconds: 95, TotalSeconds: 600, IsActive: true}
		text := formatTimerPanel(TimerView{Countdown: &forTime}, &w.Blocks[2])
		assert.Contains(t, text, "1:35")
		assert.Contains(t, text, "cap 10:00")

		emom := interval.CountdownState{Kind: interval.KindEMOM, IntervalSecondsLeft: 20, Round: 3, TotalRounds: 10, IsActive: true}
		assert.Contains(t, formatTimerPanel(TimerView{Countdown: &emom}, nil), "round[white] 3/10")

		amrap := interval.CountdownState{Kind: interval.KindAMRAP, SecondsLeft: 300, IsActive: true}
		assert.Contains(t, formatTimerPanel(TimerView{Countdown: &amrap}, nil), "5:00[white] [gray]left")

		finished := interval.CountdownState{Kind: interval.KindForTime, ElapsedSeconds: 415, IsComplete: true}
		assert.Contains(t, formatTimerPanel(TimerView{Countdown: &finished}, nil), "elapsed[white] 6:55")
	})
}
