package console

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/liftsession/internal/protocol"
	"github.com/lowaak/liftsession/internal/watchdog"
)

func statusContains(f fixture, sub string) func() bool {
	return func() bool { return strings.Contains(f.model.GetSessionState().Status, sub) }
}

func TestController_SubmitLogsAndAdvances(t *testing.T) {
	f := newFixture(t)

	f.ctrl.OnRowChanged(0, FieldWeight, "85")
	f.ctrl.OnRowChanged(0, FieldReps, "5")
	f.ctrl.SubmitSet()

	require.Eventually(t, statusContains(f, "Set 1 logged"), waitFor, pollEvery)
	s := f.model.GetSessionState()
	assert.Equal(t, 1, s.Progress.CompletedSets)
	assert.False(t, s.Saving)
	assert.Equal(t, "85", s.Rows[0].Weight, "rows are prefilled with the sticky weight")
	assert.Equal(t, 1, f.sink.count())

	f.ctrl.OnRowChanged(0, FieldReps, "5")
	f.ctrl.SubmitSet()

	require.Eventually(t, func() bool { return f.model.GetSessionState().BlockIndex == 1 }, waitFor, pollEvery)
	s = f.model.GetSessionState()
	assert.Equal(t, "curls", s.Block.ID)
	assert.Len(t, s.Rows, 3)
	assert.Equal(t, 2, f.sink.count())
}

func TestController_ValidationErrorIsReported(t *testing.T) {
	f := newFixture(t)

	f.ctrl.OnRowChanged(0, FieldReps, "")
	f.ctrl.SubmitSet()

	require.Eventually(t, statusContains(f, "Check input"), waitFor, pollEvery)
	assert.Equal(t, 0, f.model.GetSessionState().Progress.CompletedSets)
	assert.Equal(t, 0, f.sink.count())
}

func TestController_ApplySuggestionWithoutOne(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.seq.GoTo(1))

	f.ctrl.ApplySuggestion(0)
	assert.Equal(t, "No suggested weight for this row", f.model.GetSessionState().Status)
}

func TestController_Navigation(t *testing.T) {
	f := newFixture(t)

	f.ctrl.PreviousBlock()
	assert.Equal(t, "Already at the first block", f.model.GetSessionState().Status)

	f.ctrl.NextBlock()
	assert.Equal(t, 1, f.model.GetSessionState().BlockIndex)
	assert.Empty(t, f.model.GetSessionState().Status)

	f.model.SetMode(UIModePlan)
	f.ctrl.OnBlockSelected(2)
	assert.Equal(t, 2, f.model.GetSessionState().BlockIndex)
	assert.Equal(t, UIModeSession, f.model.GetUIState().Mode)

	f.ctrl.NextBlock()
	assert.Equal(t, "Already at the last block", f.model.GetSessionState().Status)

	f.ctrl.OnBlockSelected(9)
	assert.Equal(t, 2, f.model.GetSessionState().BlockIndex)
}

func TestController_TimerOnBlockWithoutTimer(t *testing.T) {
	f := newFixture(t)

	f.ctrl.ToggleTimer()
	assert.Equal(t, "This block has no timer", f.model.GetSessionState().Status)

	f.ctrl.FinishBlock()
	assert.Equal(t, "Only timed blocks can be finished without logging", f.model.GetSessionState().Status)
}

func TestController_FinishTimerFillsTime(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.seq.GoTo(2))

	f.ctrl.ToggleTimer()
	f.ctrl.FinishTimer()

	s := f.model.GetSessionState()
	assert.Equal(t, "0", s.TimeSeconds)
	assert.Equal(t, "Finished in 0:00", s.Status)
	assert.True(t, f.model.GetTimerView().Countdown.IsComplete)
}

func TestController_ForTimeCompletesWorkout(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.seq.GoTo(2))

	f.ctrl.OnRowChanged(0, FieldReps, "21")
	f.ctrl.OnTimeChanged("415")
	f.ctrl.SubmitSet()

	require.Eventually(t, func() bool { return f.model.GetSessionState().Finished }, waitFor, pollEvery)
	s := f.model.GetSessionState()
	assert.Nil(t, s.Block)
	assert.Empty(t, s.Rows)
	assert.Nil(t, f.model.CurrentRunner())
	assert.Equal(t, "Workout 'Console Day' complete", s.Status)
	assert.Equal(t, 1, f.sink.count())

	f.ctrl.SubmitSet()
	assert.Equal(t, "No active block", f.model.GetSessionState().Status)

	f.ctrl.RestartWorkout()
	s = f.model.GetSessionState()
	assert.False(t, s.Finished)
	assert.Equal(t, 0, s.BlockIndex)
}

func TestController_VideoAndAlternatives(t *testing.T) {
	f := newFixture(t)

	f.ctrl.ShowVideo(0)
	assert.Equal(t, "Video: Back Squat  https://example.com/squat.mp4", f.model.GetSessionState().Status)

	f.ctrl.ShowAlternatives(0)
	assert.Equal(t, "Alternatives requested for back-squat", f.model.GetSessionState().Status)

	require.NoError(t, f.seq.GoTo(1))
	f.ctrl.ShowVideo(0)
	assert.Equal(t, "No video for curl", f.model.GetSessionState().Status)
}

func TestController_EscapeRequestsClose(t *testing.T) {
	f := newFixture(t)
	ch := make(chan struct{}, 1)
	unsub := f.model.ListenToCloseApplication(ch)
	defer unsub()

	f.ctrl.OnEscapeKey()
	select {
	case <-ch:
	default:
		t.Fatal("close not requested")
	}
}

func TestController_WatchdogClearsSaving(t *testing.T) {
	// the store never answers; only the controller's context ends the call
	hung := protocol.SetLoggerFunc(func(ctx context.Context, _ protocol.LogRequest) (protocol.LogResult, error) {
		<-ctx.Done()
		return protocol.LogResult{}, ctx.Err()
	})
	f := newFixtureWithLogger(t, hung)

	f.ctrl.OnRowChanged(0, FieldReps, "5")
	f.ctrl.SubmitSet()
	runner := f.model.CurrentRunner()
	require.Eventually(t, runner.Saving, waitFor, pollEvery)
	assert.True(t, f.model.GetSessionState().Saving)

	f.mock.Add(watchdog.DefaultTimeout)
	require.Eventually(t, func() bool { return !f.model.GetSessionState().Saving }, waitFor, pollEvery)
	assert.False(t, runner.Saving())
	assert.Equal(t, "Save still pending, logging re-enabled", f.model.GetSessionState().Status)
}
