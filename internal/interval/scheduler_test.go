package interval

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf, "", 0), &buf
}

func tickN(target Target, n int) bool {
	var done bool
	for i := 0; i < n; i++ {
		done = target.Tick()
	}
	return done
}

func TestScheduler_TicksThroughPhases(t *testing.T) {
	logger, _ := newTestLogger()
	s := NewScheduler(twoExerciseConfig(), logger)

	assert.False(t, s.Tick(), "inactive scheduler ignores ticks")
	assert.Equal(t, 20, s.State().PhaseSecondsLeft)

	s.Start()
	tickN(s, 19)
	state := s.State()
	assert.Equal(t, PhaseWork, state.Phase)
	assert.Equal(t, 1, state.PhaseSecondsLeft)

	s.Tick()
	state = s.State()
	assert.Equal(t, PhaseRest, state.Phase)
	assert.Equal(t, 10, state.PhaseSecondsLeft)
	assert.Equal(t, 1, state.CompletedSegments)
	assert.Equal(t, 7, state.TotalSegments)

	tickN(s, 10+20)
	state = s.State()
	assert.Equal(t, PhaseRestAfterSet, state.Phase)
	assert.Equal(t, 30, state.PhaseSecondsLeft)
	assert.Equal(t, "b", state.ExerciseID)
}

func TestScheduler_CompletesAndPublishes(t *testing.T) {
	logger, _ := newTestLogger()
	s := NewScheduler(twoExerciseConfig(), logger)

	var completions []TimerState
	s.Completed.Subscribe(func(st TimerState) { completions = append(completions, st) })

	s.Start()
	total := 20 + 10 + 20 + 30 + 20 + 10 + 20
	assert.False(t, tickN(s, total-1))
	assert.True(t, s.Tick())

	require.Len(t, completions, 1)
	final := completions[0]
	assert.True(t, final.IsComplete)
	assert.False(t, final.IsActive)
	assert.Equal(t, final.TotalSegments, final.CompletedSegments)
	assert.Equal(t, 1, final.Round)

	assert.True(t, s.Tick(), "complete scheduler keeps reporting finished")
	assert.Len(t, completions, 1)
}

func TestScheduler_PauseFreezesCountdown(t *testing.T) {
	logger, _ := newTestLogger()
	s := NewScheduler(twoExerciseConfig(), logger)
	s.Start()
	tickN(s, 5)

	s.SetPaused(true)
	tickN(s, 50)
	state := s.State()
	assert.True(t, state.IsPaused)
	assert.Equal(t, PhaseWork, state.Phase)
	assert.Equal(t, 15, state.PhaseSecondsLeft)

	s.SetPaused(false)
	s.Tick()
	assert.Equal(t, 14, s.State().PhaseSecondsLeft)
}

func TestScheduler_ManualScrubbing(t *testing.T) {
	logger, _ := newTestLogger()
	s := NewScheduler(twoExerciseConfig(), logger)
	s.Start()
	tickN(s, 7)

	s.Next()
	state := s.State()
	assert.Equal(t, PhaseRest, state.Phase)
	assert.Equal(t, 10, state.PhaseSecondsLeft)

	s.Next()
	s.Next()
	assert.Equal(t, PhaseRestAfterSet, s.State().Phase)

	s.Previous()
	state = s.State()
	assert.Equal(t, PhaseWork, state.Phase)
	assert.Equal(t, 1, state.ExerciseIndex)
	assert.Equal(t, 20, state.PhaseSecondsLeft, "previous restores the full phase duration")

	s.Previous()
	s.Previous()
	s.Previous()
	state = s.State()
	assert.Equal(t, Cursor{Phase: PhaseWork}, Cursor{Phase: state.Phase, Round: state.Round, SetIndex: state.SetIndex, ExerciseIndex: state.ExerciseIndex})
	assert.Equal(t, 0, state.CompletedSegments)
}

func TestScheduler_NextIntoCompletion(t *testing.T) {
	logger, _ := newTestLogger()
	s := NewScheduler(Config{Sets: []Set{{Exercises: []Exercise{{ExerciseID: "a"}}}}}, logger)

	completed := 0
	s.Completed.Subscribe(func(TimerState) { completed++ })
	s.Start()
	s.Next()

	assert.Equal(t, 1, completed)
	assert.True(t, s.State().IsComplete)

	s.Next()
	assert.Equal(t, 1, completed, "next on a complete scheduler is a no-op")

	s.Start()
	state := s.State()
	assert.False(t, state.IsComplete)
	assert.Equal(t, DefaultWorkSeconds, state.PhaseSecondsLeft)
}

func TestScheduler_PreviousAfterCompletion(t *testing.T) {
	logger, _ := newTestLogger()
	s := NewScheduler(Config{Sets: []Set{{Exercises: []Exercise{
		{ExerciseID: "a", WorkSeconds: 20, RestAfter: 10},
		{ExerciseID: "b", WorkSeconds: 25, RestAfter: 10},
	}}}}, logger)

	s.Start()
	s.Next()
	s.Next()
	before := s.State()
	require.Equal(t, PhaseWork, before.Phase)
	require.Equal(t, 1, before.ExerciseIndex)

	s.Next()
	require.True(t, s.State().IsComplete)

	s.Previous()
	after := s.State()
	assert.False(t, after.IsComplete)
	assert.Equal(t, PhaseWork, after.Phase)
	assert.Equal(t, before.Round, after.Round)
	assert.Equal(t, before.SetIndex, after.SetIndex)
	assert.Equal(t, 1, after.ExerciseIndex)
	assert.Equal(t, 25, after.PhaseSecondsLeft)
	assert.Equal(t, before.CompletedSegments, after.CompletedSegments)

	s.Previous()
	state := s.State()
	assert.Equal(t, PhaseRest, state.Phase)
	assert.Equal(t, 0, state.ExerciseIndex)
	assert.Equal(t, 10, state.PhaseSecondsLeft)

	// reopened final phase resumes rather than restarting the block
	s.Next()
	s.Start()
	state = s.State()
	assert.Equal(t, 1, state.ExerciseIndex)
	assert.True(t, state.IsActive)
}

func TestScheduler_DeactivateKeepsPosition(t *testing.T) {
	logger, _ := newTestLogger()
	s := NewScheduler(twoExerciseConfig(), logger)
	s.Start()
	s.Next()
	s.Next()
	tickN(s, 3)

	s.Deactivate()
	state := s.State()
	assert.False(t, state.IsActive)
	assert.Equal(t, 1, state.ExerciseIndex)
	assert.Equal(t, 17, state.PhaseSecondsLeft)

	s.Tick()
	assert.Equal(t, 17, s.State().PhaseSecondsLeft)

	s.Start()
	s.Tick()
	assert.Equal(t, 16, s.State().PhaseSecondsLeft)
}

func TestScheduler_StateChangedReplaysLast(t *testing.T) {
	logger, _ := newTestLogger()
	s := NewScheduler(twoExerciseConfig(), logger)
	s.Start()

	var got TimerState
	s.StateChanged.Subscribe(func(st TimerState) { got = st })
	assert.True(t, got.IsActive)
	assert.Equal(t, 20, got.PhaseSecondsLeft)
}

func TestNewScheduler_Panics(t *testing.T) {
	logger, _ := newTestLogger()
	assert.Panics(t, func() { NewScheduler(twoExerciseConfig(), nil) })
	assert.Panics(t, func() { NewScheduler(Config{}, logger) })
}

func TestScheduler_DrivenByLoop(t *testing.T) {
	logger, _ := newTestLogger()
	mock := clock.NewMock()
	loop := NewLoop(mock, logger)
	defer loop.Shutdown()

	s := NewScheduler(Config{Sets: []Set{{Exercises: []Exercise{{ExerciseID: "a", WorkSeconds: 2}}}}}, logger)
	s.Start()
	loop.Start(s)
	require.Eventually(t, loop.Ticking, time.Second, time.Millisecond)

	mock.Add(time.Second)
	require.Eventually(t, func() bool { return s.State().PhaseSecondsLeft == 1 }, time.Second, time.Millisecond)

	mock.Add(time.Second)
	require.Eventually(t, func() bool { return s.State().IsComplete }, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return loop.Target() == nil }, time.Second, time.Millisecond)
}
