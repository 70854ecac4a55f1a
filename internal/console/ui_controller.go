package console

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/lowaak/liftsession/internal/interval"
	"github.com/lowaak/liftsession/internal/protocol"
	"github.com/lowaak/liftsession/internal/safego"
	"github.com/lowaak/liftsession/internal/sequencer"
)

// UIController handles UI events and coordinates the model with the sequencer
type UIController struct {
	model  *UIModel
	seq    *sequencer.Sequencer
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewUIController creates a new UIController with the given dependencies
func NewUIController(model *UIModel, seq *sequencer.Sequencer, logger *log.Logger) *UIController {
	if model == nil {
		panic("UIController: model cannot be nil")
	}
	if seq == nil {
		panic("UIController: sequencer cannot be nil")
	}
	if logger == nil {
		panic("UIController: logger cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &UIController{
		model:  model,
		seq:    seq,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnEscapeKey handles when the Escape key is pressed
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// OnModeChange handles when the user requests a mode change
func (c *UIController) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("Switching to %s mode", info.DisplayName)
	}
	c.model.SetMode(mode)
}

// --- Input form ---

// OnRowChanged records typed text for a row field
func (c *UIController) OnRowChanged(row int, field RowField, raw string) {
	c.model.SetRowValue(row, field, raw)
}

// OnTimeChanged records the typed completion time
func (c *UIController) OnTimeChanged(raw string) {
	c.model.SetTimeSeconds(raw)
}

// OnRoundsChanged records the typed round count
func (c *UIController) OnRoundsChanged(raw string) {
	c.model.SetRounds(raw)
}

// ApplySuggestion copies the suggested weight into row
func (c *UIController) ApplySuggestion(row int) {
	if !c.model.ApplySuggestion(row) {
		c.model.SetStatus("No suggested weight for this row")
	}
}

// SubmitSet logs the typed rows on a background goroutine. The result is
// reported through the model.
func (c *UIController) SubmitSet() {
	runner := c.model.CurrentRunner()
	if runner == nil {
		c.model.SetStatus("No active block")
		return
	}
	if runner.Saving() {
		c.model.SetStatus("Save in progress")
		return
	}
	in := c.model.Input()
	c.model.SetSaving(true)

	safego.GoWait(c.logger, &c.wg, "UIController.SubmitSet", func() {
		ctx, cancel := context.WithTimeout(c.ctx, SubmitTimeout)
		defer cancel()

		out, err := runner.Submit(ctx, in)
		c.model.SetSaving(runner.Saving())
		if err == nil && out.Completed && c.seq.Finished() {
			// the workout-complete message stays
			return
		}
		c.model.SetStatus(submitStatus(out, err))
		if err != nil && !protocol.IsValidation(err) {
			c.logger.Printf("UIController: submit on %s: %v", runner.Block().ID, err)
		}
	})
}

func submitStatus(out protocol.Outcome, err error) string {
	switch {
	case protocol.IsValidation(err):
		return "Check input: " + err.Error()
	case errors.Is(err, protocol.ErrSaveInFlight):
		return "Save in progress"
	case errors.Is(err, protocol.ErrBlockCompleted):
		return "Block already complete"
	case err != nil:
		return "Error: " + err.Error()
	}

	msg := fmt.Sprintf("Set %d logged (%s volume)", out.SetNumber, protocol.FormatWeight(out.Volume))
	if out.PersistErr != nil {
		msg = fmt.Sprintf("Set %d counted but not saved: %v", out.SetNumber, out.PersistErr)
	}
	if out.E1RM != nil {
		msg += fmt.Sprintf(", e1RM %s", protocol.FormatWeight(*out.E1RM))
	}
	switch {
	case out.Completed:
		msg += ". Block complete"
	case out.RestSeconds > 0:
		msg += fmt.Sprintf(". Rest %s", interval.FormatSeconds(out.RestSeconds))
	}
	return msg
}

// --- Block navigation ---

// NextBlock moves to the following block without completing the current one
func (c *UIController) NextBlock() {
	if err := c.seq.Next(); err != nil {
		c.model.SetStatus("Already at the last block")
	}
}

// PreviousBlock moves to the preceding block
func (c *UIController) PreviousBlock() {
	if err := c.seq.Previous(); err != nil {
		c.model.SetStatus("Already at the first block")
	}
}

// OnBlockSelected jumps to a block chosen from the plan overview
func (c *UIController) OnBlockSelected(index int) {
	if err := c.seq.GoTo(index); err != nil {
		c.logger.Printf("Invalid block index: %d", index)
		return
	}
	c.model.SetMode(UIModeSession)
}

// RestartWorkout starts the plan over and forgets in-session weights
func (c *UIController) RestartWorkout() {
	c.logger.Printf("Restarting workout")
	c.seq.Restart()
}

// FinishBlock moves on from an open-ended block without logging it
func (c *UIController) FinishBlock() {
	if !c.seq.FinishBlock() {
		c.model.SetStatus("Only timed blocks can be finished without logging")
	}
}

// Foreground is called when the terminal resumes after being suspended
func (c *UIController) Foreground() {
	c.seq.Foreground()
}

// --- Timers ---

// ToggleTimer starts, pauses or resumes the block timer
func (c *UIController) ToggleTimer() {
	t := c.model.GetTimerView()
	active, paused := false, false
	switch {
	case t.Interval != nil:
		active, paused = t.Interval.IsActive, t.Interval.IsPaused
	case t.Countdown != nil:
		active, paused = t.Countdown.IsActive, t.Countdown.IsPaused
	}

	var err error
	switch {
	case active && paused:
		err = c.seq.ResumeTimer()
	case active:
		err = c.seq.PauseTimer()
	default:
		err = c.seq.StartTimer()
	}
	c.reportTimerErr(err)
}

// TimerNext skips to the next interval phase
func (c *UIController) TimerNext() {
	c.reportTimerErr(c.seq.TimerNext())
}

// TimerPrevious returns to the previous interval phase
func (c *UIController) TimerPrevious() {
	c.reportTimerErr(c.seq.TimerPrevious())
}

// FinishTimer stops a countdown early. For-Time blocks get the elapsed time
// filled in as their completion time.
func (c *UIController) FinishTimer() {
	st, err := c.seq.FinishTimer()
	if err != nil {
		c.reportTimerErr(err)
		return
	}
	if st.Kind == interval.KindForTime {
		c.model.SetTimeSeconds(fmt.Sprint(st.ElapsedSeconds))
		c.model.SetStatus(fmt.Sprintf("Finished in %s", interval.FormatSeconds(st.ElapsedSeconds)))
	}
}

// SkipRest ends the rest countdown
func (c *UIController) SkipRest() {
	c.seq.SkipRest()
}

func (c *UIController) reportTimerErr(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, sequencer.ErrNoTimer) {
		c.model.SetStatus("This block has no timer")
		return
	}
	c.logger.Printf("UIController: timer: %v", err)
}

// --- Exercise extras ---

// ShowVideo requests the video of the exercise in row
func (c *UIController) ShowVideo(row int) {
	id, ok := c.exerciseAt(row)
	if !ok {
		return
	}
	if !c.seq.RequestVideo(id) {
		c.model.SetStatus(fmt.Sprintf("No video for %s", id))
	}
}

// ShowAlternatives requests substitutes for the exercise in row
func (c *UIController) ShowAlternatives(row int) {
	if id, ok := c.exerciseAt(row); ok {
		c.seq.RequestAlternatives(id)
	}
}

func (c *UIController) exerciseAt(row int) (string, bool) {
	rows := c.model.GetSessionState().Rows
	if row < 0 || row >= len(rows) {
		return "", false
	}
	return rows[row].Spec.ExerciseID, true
}

// Shutdown waits for pending saves and tears the sequencer down
func (c *UIController) Shutdown() {
	c.cancel()
	c.wg.Wait()
	c.seq.Close()
}
