package console

import (
	"bytes"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/liftsession/internal/workout"
)

type fakeView struct {
	mu        sync.Mutex
	mode      UIMode
	plan      *workout.Workout
	session   SessionState
	sessions  int
	timers    int
	logLines  []string
	stopped   bool
	draws     int
	logHeight int
}

func (v *fakeView) Initialize(*UIController)            {}
func (v *fakeView) SetupKeyboardHandlers(*UIController) {}
func (v *fakeView) Run() error                          { return nil }

func (v *fakeView) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopped = true
}

func (v *fakeView) Draw() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draws++
	return nil
}

func (v *fakeView) SetMode(mode UIMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
}

func (v *fakeView) GetCurrentMode() UIMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

func (v *fakeView) GetLogViewHeight() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.logHeight
}

func (v *fakeView) ClearLogView() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.logLines = nil
}

func (v *fakeView) WriteLogLine(line string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.logLines = append(v.logLines, line)
	return nil
}

func (v *fakeView) UpdateSessionState(s SessionState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.session = s
	v.sessions++
}

func (v *fakeView) UpdateTimer(TimerView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timers++
}

func (v *fakeView) SetPlan(w *workout.Workout) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.plan = w
}

type viewSnapshot struct {
	mode     UIMode
	plan     *workout.Workout
	session  SessionState
	sessions int
	timers   int
	logLines []string
	stopped  bool
}

func (v *fakeView) snapshot() viewSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return viewSnapshot{
		mode:     v.mode,
		plan:     v.plan,
		session:  v.session,
		sessions: v.sessions,
		timers:   v.timers,
		logLines: append([]string(nil), v.logLines...),
		stopped:  v.stopped,
	}
}

func newTestBaseView(t *testing.T, f fixture, view *fakeView) *BaseUIView {
	t.Helper()
	base := NewBaseUIView(NewBaseUIViewArg{
		UIViewImpl:   view,
		UIModel:      f.model,
		UIController: f.ctrl,
		Logger:       log.New(&bytes.Buffer{}, "", 0),
	})
	t.Cleanup(base.Shutdown)
	return base
}

func TestBaseUIView_InitialRender(t *testing.T) {
	f := newFixture(t)
	view := &fakeView{}
	newTestBaseView(t, f, view)

	s := view.snapshot()
	assert.Equal(t, UIModeSession, s.mode)
	require.NotNil(t, s.plan)
	assert.Equal(t, "Console Day", s.plan.Name)
	assert.GreaterOrEqual(t, s.sessions, 1)
	assert.GreaterOrEqual(t, s.timers, 1)
	require.NotNil(t, s.session.Block)
	assert.Equal(t, "squat", s.session.Block.ID)
}

func TestBaseUIView_FollowsModel(t *testing.T) {
	f := newFixture(t)
	view := &fakeView{}
	newTestBaseView(t, f, view)

	require.NoError(t, f.seq.GoTo(1))
	assert.Eventually(t, func() bool {
		s := view.snapshot()
		return s.session.Block != nil && s.session.Block.ID == "curls"
	}, waitFor, pollEvery)

	f.ctrl.OnModeChange(UIModePlan)
	assert.Eventually(t, func() bool { return view.GetCurrentMode() == UIModePlan }, waitFor, pollEvery)
}

func TestBaseUIView_LogTail(t *testing.T) {
	f := newFixture(t)
	view := &fakeView{logHeight: 2}
	newTestBaseView(t, f, view)

	f.logChan <- "first"
	f.logChan <- "second"
	f.logChan <- "third"
	assert.Eventually(t, func() bool {
		lines := view.snapshot().logLines
		return len(lines) == 2 && lines[0] == "second" && lines[1] == "third"
	}, waitFor, pollEvery)
}

func TestBaseUIView_CloseStopsView(t *testing.T) {
	f := newFixture(t)
	view := &fakeView{}
	newTestBaseView(t, f, view)

	f.ctrl.OnEscapeKey()
	assert.Eventually(t, func() bool { return view.snapshot().stopped }, waitFor, pollEvery)
}

func TestNewBaseUIView_PanicsOnNil(t *testing.T) {
	f := newFixture(t)
	logger := log.New(&bytes.Buffer{}, "", 0)
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIModel: f.model, UIController: f.ctrl, Logger: logger})
	})
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIViewImpl: &fakeView{}, UIController: f.ctrl, Logger: logger})
	})
}
