package console

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeSession UIMode = iota // Active block, input rows and timers
	UIModePlan                  // Block overview and navigation
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
	KeyBinding  tcell.Key // function key, digits are reserved for weight and rep input
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeSession, DisplayName: "Session", KeyBinding: tcell.KeyF1},
	{Mode: UIModePlan, DisplayName: "Plan", KeyBinding: tcell.KeyF10},
}

// GetUIModeByKey returns the mode for a given key binding
func GetUIModeByKey(key tcell.Key) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return 0, false
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

// SubmitTimeout bounds one save. The watchdog re-enables logging on its own
// schedule; this only releases the goroutine.
const SubmitTimeout = 30 * time.Second

const maxLogLines = 1000

// RowField selects the weight or reps column of an input row
type RowField int

const (
	FieldWeight RowField = iota
	FieldReps
)

// SessionKeyHelp is shown above the input form
const SessionKeyHelp = "[yellow]Ctrl-S[white] Log set  |  [yellow]Ctrl-A[white] Apply suggestion  |  [yellow]PgUp/PgDn[white] Block  |  [yellow]F10[white] Plan\n" +
	"[yellow]F2[white] Timer start/pause  |  [yellow]F3/F4[white] Phase back/next  |  [yellow]F5[white] Finish timer  |  [yellow]F6[white] Skip rest  |  [yellow]F7[white] Finish block\n" +
	"[yellow]F8[white] Video  |  [yellow]F9[white] Alternatives  |  [yellow]Ctrl-R[white] Restart  |  [yellow]Esc[white] Quit"
