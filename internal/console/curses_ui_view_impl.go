package console

import (
	"fmt"
	"log"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/liftsession/internal/protocol"
	"github.com/lowaak/liftsession/internal/workout"
)

// Page names for tview.Pages
const (
	pageSession = "session"
	pagePlan    = "plan"
)

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	controller  *UIController
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, timer and logs on right

	// Session mode components
	sessionFlex  *tview.Flex
	blockPanel   *tview.TextView
	timerPanel   *tview.TextView
	form         *tview.Form
	weightFields []*tview.InputField
	repsFields   []*tview.InputField
	timeField    *tview.InputField
	roundsField  *tview.InputField
	layoutKey    string
	formVersion  int
	syncing      bool // set while field text is written programmatically (UI goroutine only)

	// Plan mode components
	planFlex       *tview.Flex
	planTabWidgets []*tview.Box
	planList       *tview.List
	planDetails    *tview.TextView
	workout        *workout.Workout
}

func NewCursesUIView(logger *log.Logger, app *tview.Application) *CursesUIViewImpl {
	if logger == nil {
		panic("CursesUIViewImpl: logger cannot be nil")
	}
	if app == nil {
		panic("CursesUIViewImpl: app cannot be nil")
	}
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		currentMode: UIModeSession,
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	ui.controller = controller

	// No SetChangedFunc with app.Draw(): it can hang during shutdown when the
	// app has stopped but log lines are still written. BaseUIView draws.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.pages = tview.NewPages()

	ui.initSessionMode()
	ui.initPlanMode(controller)

	ui.pages.AddPage(pageSession, ui.sessionFlex, true, true)
	ui.pages.AddPage(pagePlan, ui.planFlex, true, false)

	rightColumn := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.timerPanel, 8, 0, false).
		AddItem(ui.logView, 0, 1, false)

	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 3, true).
		AddItem(rightColumn, 0, 2, false)

	ui.setFocusForCurrentMode()
}

// initSessionMode sets up the block header, the input form and the timer panel
func (ui *CursesUIViewImpl) initSessionMode() {
	instructionsText := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructionsText.SetText(SessionKeyHelp)

	ui.blockPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.blockPanel.SetBorder(true).SetTitle(" Block ")

	ui.form = tview.NewForm()
	ui.form.SetBorder(true).SetTitle(" Log ")

	ui.timerPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.timerPanel.SetBorder(true).SetTitle(" Timer ")

	ui.sessionFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructionsText, 3, 0, false).
		AddItem(ui.blockPanel, 0, 1, false).
		AddItem(ui.form, 0, 2, true)
}

// initPlanMode sets up the block overview
func (ui *CursesUIViewImpl) initPlanMode(controller *UIController) {
	ui.planList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.logger.Printf("UI: Block selected: index=%d, name=%s", index, mainText)
			controller.OnBlockSelected(index)
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.updatePlanDetailsDisplay(index)
		})
	ui.planList.SetBorder(true).SetTitle(" Blocks ")

	ui.planDetails = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.planDetails.SetBorder(true).SetTitle(" Block Details ")

	ui.planTabWidgets = append(ui.planTabWidgets, ui.planList.Box, ui.planDetails.Box)

	ui.planFlex = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.planList, 0, 1, true).
		AddItem(ui.planDetails, 0, 1, false)
}

// SetPlan populates the block overview
func (ui *CursesUIViewImpl) SetPlan(w *workout.Workout) {
	ui.workout = w
	ui.planList.Clear()
	ui.planList.SetTitle(fmt.Sprintf(" %s ", w.Name))
	for i := range w.Blocks {
		main, secondary := formatPlanItem(i, &w.Blocks[i])
		ui.planList.AddItem(main, secondary, 0, nil)
	}
	if len(w.Blocks) > 0 {
		ui.updatePlanDetailsDisplay(0)
	}
}

func (ui *CursesUIViewImpl) updatePlanDetailsDisplay(index int) {
	if ui.workout == nil || index < 0 || index >= len(ui.workout.Blocks) {
		ui.planDetails.SetText("\n  [gray]Select a block[white]\n")
		return
	}
	b := &ui.workout.Blocks[index]
	text := fmt.Sprintf("\n  [yellow]%s[white]\n  %s\n\n", b.DisplayName(), blockTypeName(b.Type))
	for _, e := range b.Exercises {
		text += fmt.Sprintf("  %s", e.DisplayName())
		if e.LoadPercentage != nil {
			text += fmt.Sprintf(" [gray]@ %s%%[white]", protocol.FormatWeight(*e.LoadPercentage))
		}
		text += "\n"
	}
	if rest := b.RestAfterSet(); rest > 0 {
		text += fmt.Sprintf("\n  [gray]Rest between sets:[white] %s\n", rest)
	}
	text += "\n  [green]Press Enter to jump to this block[white]\n"
	ui.planDetails.SetText(text)
}

// UpdateSessionState renders the block header and keeps the form in step with the model
func (ui *CursesUIViewImpl) UpdateSessionState(state SessionState) {
	ui.blockPanel.SetText(formatBlockPanel(state))

	// form items are not safe for concurrent use, TextViews lock internally
	ui.app.QueueUpdate(func() {
		key := formLayoutKey(state)
		if key != ui.layoutKey {
			ui.layoutKey = key
			ui.formVersion = state.FormVersion
			ui.rebuildForm(state)
			return
		}
		force := state.FormVersion != ui.formVersion
		ui.formVersion = state.FormVersion
		ui.syncForm(state, force)
	})
}

func formLayoutKey(s SessionState) string {
	if s.Block == nil {
		return fmt.Sprintf("none|%v", s.Finished)
	}
	return fmt.Sprintf("%d|%s|%d", s.BlockIndex, s.Block.ID, len(s.Rows))
}

// rebuildForm MUST run on the UI goroutine
func (ui *CursesUIViewImpl) rebuildForm(s SessionState) {
	ui.syncing = true
	defer func() { ui.syncing = false }()

	ui.form.Clear(true)
	ui.weightFields = ui.weightFields[:0]
	ui.repsFields = ui.repsFields[:0]
	ui.timeField, ui.roundsField = nil, nil

	if s.Block == nil {
		return
	}

	for i, r := range s.Rows {
		weight := tview.NewInputField().
			SetLabel(formatRowLabel(r) + " kg ").
			SetText(r.Weight).
			SetFieldWidth(8).
			SetAcceptanceFunc(tview.InputFieldFloat)
		weight.SetChangedFunc(func(text string) {
			if !ui.syncing {
				ui.controller.OnRowChanged(i, FieldWeight, text)
			}
		})

		reps := tview.NewInputField().
			SetLabel("    reps ").
			SetText(r.Reps).
			SetFieldWidth(5).
			SetAcceptanceFunc(tview.InputFieldInteger)
		reps.SetChangedFunc(func(text string) {
			if !ui.syncing {
				ui.controller.OnRowChanged(i, FieldReps, text)
			}
		})

		ui.weightFields = append(ui.weightFields, weight)
		ui.repsFields = append(ui.repsFields, reps)
		ui.form.AddFormItem(weight)
		ui.form.AddFormItem(reps)
	}

	switch s.Block.Type {
	case workout.BlockTypeForTime:
		ui.timeField = tview.NewInputField().
			SetLabel("Time (s) ").
			SetText(s.TimeSeconds).
			SetFieldWidth(6).
			SetAcceptanceFunc(tview.InputFieldInteger)
		ui.timeField.SetChangedFunc(func(text string) {
			if !ui.syncing {
				ui.controller.OnTimeChanged(text)
			}
		})
		ui.form.AddFormItem(ui.timeField)
	case workout.BlockTypeAMRAP:
		ui.roundsField = tview.NewInputField().
			SetLabel("Rounds ").
			SetText(s.Rounds).
			SetFieldWidth(4).
			SetAcceptanceFunc(tview.InputFieldInteger)
		ui.roundsField.SetChangedFunc(func(text string) {
			if !ui.syncing {
				ui.controller.OnRoundsChanged(text)
			}
		})
		ui.form.AddFormItem(ui.roundsField)
	}

	ui.form.AddButton("Log set", ui.controller.SubmitSet)
	ui.form.SetFocus(0)
}

// syncForm MUST run on the UI goroutine. The focused field is only
// overwritten when force is set, so typing is never clobbered.
func (ui *CursesUIViewImpl) syncForm(s SessionState, force bool) {
	ui.syncing = true
	defer func() { ui.syncing = false }()

	set := func(field *tview.InputField, value string) {
		if field == nil || field.GetText() == value {
			return
		}
		if force || !field.HasFocus() {
			field.SetText(value)
		}
	}
	for i, r := range s.Rows {
		if i >= len(ui.weightFields) {
			break
		}
		ui.weightFields[i].SetLabel(formatRowLabel(r) + " kg ")
		set(ui.weightFields[i], r.Weight)
		set(ui.repsFields[i], r.Reps)
	}
	set(ui.timeField, s.TimeSeconds)
	set(ui.roundsField, s.Rounds)
}

// focusedRow returns the input row holding the focus, or 0
func (ui *CursesUIViewImpl) focusedRow() int {
	for i := range ui.weightFields {
		if ui.weightFields[i].HasFocus() || ui.repsFields[i].HasFocus() {
			return i
		}
	}
	return 0
}

// UpdateTimer renders the timer panel
func (ui *CursesUIViewImpl) UpdateTimer(timer TimerView) {
	ui.timerPanel.SetText(formatTimerPanel(timer, ui.currentBlock()))
}

func (ui *CursesUIViewImpl) currentBlock() *workout.Block {
	if ui.controller == nil {
		return nil
	}
	return ui.controller.model.GetSessionState().Block
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}

	ui.currentMode = mode

	switch mode {
	case UIModeSession:
		ui.pages.SwitchToPage(pageSession)
	case UIModePlan:
		ui.pages.SwitchToPage(pagePlan)
	}

	ui.setFocusForCurrentMode()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

// setFocusForCurrentMode sets focus to the first widget in the current mode
func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	switch ui.currentMode {
	case UIModeSession:
		ui.app.SetFocus(ui.form)
	case UIModePlan:
		ui.app.SetFocus(ui.planList)
	}
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if mode, ok := GetUIModeByKey(event.Key()); ok {
			// Delegate to controller - it will update the model, which will notify us
			controller.OnModeChange(mode)
			return nil
		}

		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		switch ui.currentMode {
		case UIModeSession:
			// Tab is left to the form
			switch event.Key() {
			case tcell.KeyCtrlS:
				controller.SubmitSet()
			case tcell.KeyCtrlA:
				controller.ApplySuggestion(ui.focusedRow())
			case tcell.KeyCtrlR:
				controller.RestartWorkout()
			case tcell.KeyPgDn:
				controller.NextBlock()
			case tcell.KeyPgUp:
				controller.PreviousBlock()
			case tcell.KeyF2:
				controller.ToggleTimer()
			case tcell.KeyF3:
				controller.TimerPrevious()
			case tcell.KeyF4:
				controller.TimerNext()
			case tcell.KeyF5:
				controller.FinishTimer()
			case tcell.KeyF6:
				controller.SkipRest()
			case tcell.KeyF7:
				controller.FinishBlock()
			case tcell.KeyF8:
				controller.ShowVideo(ui.focusedRow())
			case tcell.KeyF9:
				controller.ShowAlternatives(ui.focusedRow())
			default:
				return event
			}
			return nil
		case UIModePlan:
			if event.Key() == tcell.KeyTab {
				for i, w := range ui.planTabWidgets {
					if w.HasFocus() {
						ui.app.SetFocus(ui.planTabWidgets[(i+1)%len(ui.planTabWidgets)])
						break
					}
				}
				return nil
			}
		}

		return event
	})
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprintln(ui.logView, tview.Escape(line))
	return err
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}
