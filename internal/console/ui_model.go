package console

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/lowaak/liftsession/internal/events"
	"github.com/lowaak/liftsession/internal/interval"
	"github.com/lowaak/liftsession/internal/protocol"
	"github.com/lowaak/liftsession/internal/safego"
	"github.com/lowaak/liftsession/internal/sequencer"
	"github.com/lowaak/liftsession/internal/suggest"
	"github.com/lowaak/liftsession/internal/workout"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode UIMode
}

// FormRow is one input row of the current log action as typed so far
type FormRow struct {
	Spec       protocol.RowSpec
	Weight     string
	Reps       string
	Suggestion suggest.Suggestion
}

// SessionState is everything the session screen renders apart from timers
type SessionState struct {
	PlanName    string
	BlockIndex  int
	TotalBlocks int
	Block       *workout.Block
	Progress    workout.BlockProgress
	Rows        []FormRow
	TimeSeconds string
	Rounds      string
	Saving      bool
	Finished    bool
	Status      string
	// FormVersion changes whenever row values are replaced rather than typed
	FormVersion int
}

// TimerView holds the latest state of each timer of the active block. Nil means not shown.
type TimerView struct {
	Interval  *interval.TimerState
	Countdown *interval.CountdownState
	Rest      *interval.CountdownState
}

// UIModel mirrors the sequencer and the active block for the views
type UIModel struct {
	seq              *sequencer.Sequencer
	clock            clock.Clock
	manualEditWindow time.Duration
	logger           *log.Logger

	logEvent              *events.Event[string]
	closeApplicationEvent *events.Event[struct{}]
	uiStateEvent          *events.Event[UIState]
	sessionEvent          *events.Event[SessionState]
	timerEvent            *events.Event[TimerView]

	mu          sync.RWMutex
	uiState     UIState
	session     SessionState
	timer       TimerView
	runner      *protocol.Runner
	dropForm    *protocol.DropSetForm
	generation  int
	blockUnsubs []func()
	seqUnsubs   []func()

	logLines []string
	logMu    sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewUIModel creates the model and subscribes it to seq. Call it before seq.Start,
// or rely on the replayed activation.
func NewUIModel(seq *sequencer.Sequencer, clk clock.Clock, manualEditWindow time.Duration, logger *log.Logger, uiLogChan <-chan string) *UIModel {
	if seq == nil {
		panic("UIModel: sequencer cannot be nil")
	}
	if clk == nil {
		panic("UIModel: clock cannot be nil")
	}
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &UIModel{
		seq:                   seq,
		clock:                 clk,
		manualEditWindow:      manualEditWindow,
		logger:                logger,
		logEvent:              events.New[string](false),
		closeApplicationEvent: events.New[struct{}](true),
		uiStateEvent:          events.New[UIState](true),
		sessionEvent:          events.New[SessionState](true),
		timerEvent:            events.New[TimerView](true),
		uiState:               UIState{Mode: UIModeSession},
		session: SessionState{
			PlanName:    seq.Workout().Name,
			TotalBlocks: len(seq.Workout().Blocks),
		},
		logLines: make([]string, 0, maxLogLines),
		ctx:      ctx,
		cancel:   cancel,
	}

	m.seqUnsubs = append(m.seqUnsubs,
		seq.BlockActivated.Subscribe(m.onActivation),
		seq.WorkoutCompleted.Subscribe(m.onWorkoutCompleted),
		seq.TimerFinished.Subscribe(func(int) {
			m.SetStatus("Time! Log the block, or F7 to move on without logging")
		}),
		seq.SaveExpired.Subscribe(m.onSaveExpired),
		seq.VideoRequested.Subscribe(func(v sequencer.VideoRequest) {
			m.logger.Printf("UIModel: video for %s: %s", v.Title, v.URL)
			m.SetStatus(fmt.Sprintf("Video: %s  %s", v.Title, v.URL))
		}),
		seq.AlternativesRequested.Subscribe(func(exerciseID string) {
			m.logger.Printf("UIModel: alternatives requested for %s", exerciseID)
			m.SetStatus(fmt.Sprintf("Alternatives requested for %s", exerciseID))
		}),
	)

	// Read from the UI log channel and populate logLines
	safego.GoWait(m.logger, &m.wg, "UIModel.readFromLogChannel", func() { m.readFromLogChannel(ctx, uiLogChan) })

	return m
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	for _, unsub := range m.seqUnsubs {
		unsub()
	}
	m.mu.Lock()
	m.generation++
	unsubs := m.blockUnsubs
	m.blockUnsubs = nil
	m.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.SubscribeChan(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.SubscribeChan(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Publish(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
func (m *UIModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.SubscribeChan(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.mu.Unlock()

	m.uiStateEvent.Publish(state)
}

// ListenToSessionState registers a channel to receive session state changes
func (m *UIModel) ListenToSessionState(ch chan<- SessionState) func() {
	return m.sessionEvent.SubscribeChan(ch)
}

// GetSessionState returns a copy of the session state
func (m *UIModel) GetSessionState() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionSnapshotLocked()
}

// ListenToTimer registers a channel to receive timer changes
func (m *UIModel) ListenToTimer(ch chan<- TimerView) func() {
	return m.timerEvent.SubscribeChan(ch)
}

// GetTimerView returns the latest timer states
func (m *UIModel) GetTimerView() TimerView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timer
}

// CurrentRunner returns the runner of the active block, or nil
func (m *UIModel) CurrentRunner() *protocol.Runner {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runner
}

// Workout returns the plan being run
func (m *UIModel) Workout() *workout.Workout {
	return m.seq.Workout()
}

// SetRowValue records typed text for one field of row i. Drop-set weights go
// through the drop form so the drops below follow the row above.
func (m *UIModel) SetRowValue(i int, field RowField, raw string) {
	m.mu.Lock()
	if i < 0 || i >= len(m.session.Rows) {
		m.mu.Unlock()
		return
	}
	switch {
	case field == FieldReps:
		m.session.Rows[i].Reps = raw
	case m.dropForm != nil:
		if i == 0 {
			m.dropForm.SetWorkingWeight(raw)
		} else {
			m.dropForm.EditDrop(i-1, raw)
		}
		m.syncDropRowsLocked()
	default:
		m.session.Rows[i].Weight = raw
	}
	state := m.sessionSnapshotLocked()
	m.mu.Unlock()

	m.sessionEvent.Publish(state)
}

// ApplySuggestion replaces the weight of row i with its suggested weight.
// Returns false when the row has no suggestion.
func (m *UIModel) ApplySuggestion(i int) bool {
	m.mu.Lock()
	if i < 0 || i >= len(m.session.Rows) || m.session.Rows[i].Suggestion.SuggestedWeight == nil {
		m.mu.Unlock()
		return false
	}
	w := protocol.FormatWeight(*m.session.Rows[i].Suggestion.SuggestedWeight)
	if m.dropForm != nil && i == 0 {
		m.dropForm.SetWorkingWeight(w)
		m.syncDropRowsLocked()
	} else {
		m.session.Rows[i].Weight = w
	}
	m.session.FormVersion++
	state := m.sessionSnapshotLocked()
	m.mu.Unlock()

	m.sessionEvent.Publish(state)
	return true
}

// SetTimeSeconds records the typed completion time
func (m *UIModel) SetTimeSeconds(raw string) {
	m.updateSession(func(s *SessionState) { s.TimeSeconds = raw })
}

// SetRounds records the typed round count
func (m *UIModel) SetRounds(raw string) {
	m.updateSession(func(s *SessionState) { s.Rounds = raw })
}

// SetSaving updates the save-in-flight indicator
func (m *UIModel) SetSaving(saving bool) {
	m.updateSession(func(s *SessionState) { s.Saving = saving })
}

// SetStatus shows a one-line message on the session screen
func (m *UIModel) SetStatus(status string) {
	m.updateSession(func(s *SessionState) { s.Status = status })
}

// Input builds the runner input from the typed rows
func (m *UIModel) Input() protocol.Input {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in := protocol.Input{
		Rows:        make([]protocol.Row, len(m.session.Rows)),
		TimeSeconds: m.session.TimeSeconds,
		Rounds:      m.session.Rounds,
	}
	for i, r := range m.session.Rows {
		in.Rows[i] = protocol.Row{Weight: r.Weight, Reps: r.Reps}
	}
	return in
}

func (m *UIModel) updateSession(fn func(s *SessionState)) {
	m.mu.Lock()
	fn(&m.session)
	state := m.sessionSnapshotLocked()
	m.mu.Unlock()

	m.sessionEvent.Publish(state)
}

// onSaveExpired re-enables logging once the watchdog gives up on a pending save
func (m *UIModel) onSaveExpired(index int) {
	m.updateSession(func(s *SessionState) {
		if s.Block == nil || s.BlockIndex != index {
			return
		}
		s.Saving = false
		s.Status = "Save still pending, logging re-enabled"
	})
}

func (m *UIModel) onActivation(a sequencer.Activation) {
	rows := formRows(a.Runner.Prefill())
	var form *protocol.DropSetForm
	if a.Block.Type == workout.BlockTypeDropSet {
		form = protocol.NewDropSetForm(m.clock, a.Block.DropCount(), a.Block.DropPercentage(), m.manualEditWindow)
		if len(rows) > 0 {
			form.SetWorkingWeight(rows[0].Weight)
		}
	}

	timer := TimerView{}
	if a.Scheduler != nil {
		st := a.Scheduler.State()
		timer.Interval = &st
	}
	if a.Countdown != nil {
		st := a.Countdown.State()
		timer.Countdown = &st
	}

	m.mu.Lock()
	m.generation++
	gen := m.generation
	old := m.blockUnsubs
	m.blockUnsubs = nil
	m.runner = a.Runner
	m.dropForm = form
	m.timer = timer
	m.session = SessionState{
		PlanName:    m.seq.Workout().Name,
		BlockIndex:  a.Index,
		TotalBlocks: a.Total,
		Block:       a.Block,
		Progress:    a.Runner.Progress(),
		Rows:        rows,
		Saving:      a.Runner.Saving(),
		FormVersion: m.session.FormVersion + 1,
	}
	if form != nil {
		m.syncDropRowsLocked()
	}
	state := m.sessionSnapshotLocked()
	m.mu.Unlock()

	for _, unsub := range old {
		unsub()
	}
	m.subscribeBlock(gen, a)

	m.sessionEvent.Publish(state)
	m.timerEvent.Publish(timer)
}

func (m *UIModel) subscribeBlock(gen int, a sequencer.Activation) {
	unsubs := []func(){
		a.Runner.InputReset.Subscribe(func(defaults []protocol.RowDefault) { m.resetRows(gen, defaults) }),
		a.Runner.Logged.Subscribe(func(o protocol.Outcome) { m.onLogged(gen, o) }),
		a.Runner.RestStarted.Subscribe(func(rest *interval.Countdown) {
			m.track(gen, rest.StateChanged.Subscribe(func(st interval.CountdownState) { m.setRest(gen, st) }))
		}),
	}
	if a.Scheduler != nil {
		unsubs = append(unsubs, a.Scheduler.StateChanged.Subscribe(func(st interval.TimerState) {
			m.setTimer(gen, func(t *TimerView) { t.Interval = &st })
		}))
	}
	if a.Countdown != nil {
		unsubs = append(unsubs, a.Countdown.StateChanged.Subscribe(func(st interval.CountdownState) {
			m.setTimer(gen, func(t *TimerView) { t.Countdown = &st })
		}))
	}
	for _, unsub := range unsubs {
		m.track(gen, unsub)
	}
}

// track keeps unsub for the block of generation gen, or runs it at once when
// that block is already gone
func (m *UIModel) track(gen int, unsub func()) {
	m.mu.Lock()
	if m.generation == gen {
		m.blockUnsubs = append(m.blockUnsubs, unsub)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	unsub()
}

func (m *UIModel) resetRows(gen int, defaults []protocol.RowDefault) {
	rows := formRows(defaults)

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	m.session.Rows = rows
	m.session.TimeSeconds = ""
	m.session.Rounds = ""
	m.session.FormVersion++
	if m.dropForm != nil && len(rows) > 0 {
		m.dropForm.SetWorkingWeight(rows[0].Weight)
		m.syncDropRowsLocked()
	}
	m.timer.Rest = nil
	state := m.sessionSnapshotLocked()
	timer := m.timer
	m.mu.Unlock()

	m.sessionEvent.Publish(state)
	m.timerEvent.Publish(timer)
}

func (m *UIModel) onLogged(gen int, o protocol.Outcome) {
	m.updateCurrent(gen, func(s *SessionState) { s.Progress = o.Progress })
}

func (m *UIModel) updateCurrent(gen int, fn func(s *SessionState)) {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	fn(&m.session)
	state := m.sessionSnapshotLocked()
	m.mu.Unlock()

	m.sessionEvent.Publish(state)
}

func (m *UIModel) setRest(gen int, st interval.CountdownState) {
	m.setTimer(gen, func(t *TimerView) {
		if st.IsComplete || !st.IsActive {
			t.Rest = nil
			return
		}
		t.Rest = &st
	})
}

func (m *UIModel) setTimer(gen int, fn func(t *TimerView)) {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	fn(&m.timer)
	timer := m.timer
	m.mu.Unlock()

	m.timerEvent.Publish(timer)
}

func (m *UIModel) onWorkoutCompleted(name string) {
	m.mu.Lock()
	m.generation++
	old := m.blockUnsubs
	m.blockUnsubs = nil
	m.runner = nil
	m.dropForm = nil
	m.timer = TimerView{}
	m.session = SessionState{
		PlanName:    name,
		TotalBlocks: m.session.TotalBlocks,
		BlockIndex:  m.session.TotalBlocks,
		Finished:    true,
		Status:      fmt.Sprintf("Workout '%s' complete", name),
		FormVersion: m.session.FormVersion + 1,
	}
	state := m.sessionSnapshotLocked()
	m.mu.Unlock()

	for _, unsub := range old {
		unsub()
	}
	m.sessionEvent.Publish(state)
	m.timerEvent.Publish(TimerView{})
}

// syncDropRowsLocked copies the drop form weights into the rows. MUST be called with mu held.
func (m *UIModel) syncDropRowsLocked() {
	for i, w := range m.dropForm.Weights() {
		if i < len(m.session.Rows) {
			m.session.Rows[i].Weight = w
		}
	}
}

// sessionSnapshotLocked MUST be called with mu held (read or write)
func (m *UIModel) sessionSnapshotLocked() SessionState {
	s := m.session
	s.Rows = append([]FormRow(nil), m.session.Rows...)
	return s
}

func formRows(defaults []protocol.RowDefault) []FormRow {
	rows := make([]FormRow, len(defaults))
	for i, d := range defaults {
		rows[i] = FormRow{Spec: d.Spec, Weight: d.Weight, Reps: d.Reps, Suggestion: d.Suggestion}
	}
	return rows
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Publish(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}
	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}
	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}
