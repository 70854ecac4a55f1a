package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAMRAP_CountsDown(t *testing.T) {
	logger, _ := newTestLogger()
	c := NewAMRAP(5, logger)

	completed := 0
	c.Completed.Subscribe(func(CountdownState) { completed++ })

	c.Start()
	assert.False(t, tickN(c, 4))
	assert.Equal(t, 1, c.State().SecondsLeft)
	assert.True(t, c.Tick())

	state := c.State()
	assert.True(t, state.IsComplete)
	assert.Zero(t, state.SecondsLeft)
	assert.Equal(t, 1, completed)
}

func TestForTime_CountsUpUntilFinish(t *testing.T) {
	logger, _ := newTestLogger()
	c := NewForTime(0, logger)
	c.Start()
	assert.False(t, tickN(c, 125))

	state := c.State()
	assert.Equal(t, 125, state.ElapsedSeconds)
	assert.Zero(t, state.SecondsLeft)

	var final CountdownState
	c.Completed.Subscribe(func(st CountdownState) { final = st })
	got := c.Finish()
	assert.True(t, got.IsComplete)
	assert.Equal(t, 125, final.ElapsedSeconds)

	assert.True(t, c.Tick())
	assert.Equal(t, 125, c.State().ElapsedSeconds)
}

func TestForTime_StopsAtCap(t *testing.T) {
	logger, _ := newTestLogger()
	c := NewForTime(3, logger)
	c.Start()
	assert.True(t, tickN(c, 10))
	assert.Equal(t, 3, c.State().ElapsedSeconds)
}

func TestEMOM_Rounds(t *testing.T) {
	logger, _ := newTestLogger()
	c := NewEMOM(60, 3, logger)
	c.Start()

	state := c.State()
	assert.Equal(t, 0, state.Round)
	assert.Equal(t, 60, state.IntervalSecondsLeft)
	assert.Equal(t, 180, state.TotalSeconds)

	tickN(c, 59)
	assert.Equal(t, 1, c.State().IntervalSecondsLeft)

	c.Tick()
	state = c.State()
	assert.Equal(t, 1, state.Round)
	assert.Equal(t, 60, state.IntervalSecondsLeft)

	assert.True(t, tickN(c, 120))
	state = c.State()
	assert.Equal(t, 2, state.Round)
	assert.True(t, state.IsComplete)
}

func TestCountdown_PauseAndDeactivate(t *testing.T) {
	logger, _ := newTestLogger()
	c := NewRest(90, logger)
	c.Start()
	tickN(c, 10)

	c.SetPaused(true)
	tickN(c, 10)
	assert.Equal(t, 80, c.State().SecondsLeft)
	assert.True(t, c.State().IsPaused)

	c.SetPaused(false)
	c.Tick()
	assert.Equal(t, 79, c.State().SecondsLeft)

	c.Deactivate()
	c.Tick()
	state := c.State()
	assert.False(t, state.IsActive)
	assert.False(t, state.IsComplete)
	assert.Equal(t, 79, state.SecondsLeft)
}

func TestCountdown_StartResumesAfterDeactivate(t *testing.T) {
	logger, _ := newTestLogger()
	c := NewAMRAP(60, logger)
	c.Start()
	tickN(c, 25)

	c.Deactivate()
	c.Start()
	state := c.State()
	assert.True(t, state.IsActive)
	assert.Equal(t, 25, state.ElapsedSeconds)
	assert.Equal(t, 35, state.SecondsLeft)

	assert.True(t, tickN(c, 35))
	c.Start()
	state = c.State()
	assert.False(t, state.IsComplete)
	assert.Zero(t, state.ElapsedSeconds, "a complete countdown starts over")
}

func TestRest_ZeroSecondsCompletesImmediately(t *testing.T) {
	logger, _ := newTestLogger()
	c := NewRest(0, logger)

	completed := false
	c.Completed.Subscribe(func(CountdownState) { completed = true })
	c.Start()
	require.True(t, completed)
	assert.True(t, c.Tick())
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0:00", FormatSeconds(0))
	assert.Equal(t, "1:05", FormatSeconds(65))
	assert.Equal(t, "10:00", FormatSeconds(600))
	assert.Equal(t, "0:00", FormatSeconds(-3))
}
