package console

import (
	"fmt"
	"strings"

	"github.com/lowaak/liftsession/internal/interval"
	"github.com/lowaak/liftsession/internal/protocol"
	"github.com/lowaak/liftsession/internal/suggest"
	"github.com/lowaak/liftsession/internal/workout"
)

var blockTypeNames = map[workout.BlockType]string{
	workout.BlockTypeStraightSet:   "Straight sets",
	workout.BlockTypeSuperset:      "Superset",
	workout.BlockTypeDropSet:       "Drop set",
	workout.BlockTypeClusterSet:    "Cluster set",
	workout.BlockTypeRestPause:     "Rest-pause",
	workout.BlockTypePyramid:       "Pyramid",
	workout.BlockTypeLadder:        "Ladder",
	workout.BlockTypeGiantSet:      "Giant set",
	workout.BlockTypePreExhaustion: "Pre-exhaustion",
	workout.BlockTypeAMRAP:         "AMRAP",
	workout.BlockTypeEMOM:          "EMOM",
	workout.BlockTypeForTime:       "For time",
	workout.BlockTypeCircuit:       "Circuit",
	workout.BlockTypeTabata:        "Tabata",
}

func blockTypeName(t workout.BlockType) string {
	if name, ok := blockTypeNames[t]; ok {
		return name
	}
	return string(t)
}

// formatPlanItem returns the main and secondary text of one plan overview entry
func formatPlanItem(i int, b *workout.Block) (string, string) {
	names := make([]string, 0, len(b.Exercises))
	for _, e := range b.Exercises {
		names = append(names, e.DisplayName())
	}
	main := fmt.Sprintf("%d. %s", i+1, b.DisplayName())
	var secondary string
	if b.Type.IsOpenEnded() {
		secondary = fmt.Sprintf("%s: %s", blockTypeName(b.Type), strings.Join(names, ", "))
	} else {
		secondary = fmt.Sprintf("%s x%d: %s", blockTypeName(b.Type), b.EffectiveTotalSets(), strings.Join(names, ", "))
	}
	return main, secondary
}

// formatBlockPanel renders the header of the session screen
func formatBlockPanel(s SessionState) string {
	if s.Finished {
		text := fmt.Sprintf("\n  [green]%s complete[white]\n\n", s.PlanName)
		text += "  [gray]Ctrl-R to start over, Esc to quit[white]\n"
		return withStatus(text, s.Status)
	}
	if s.Block == nil {
		return withStatus("\n  [gray]No active block[white]\n", s.Status)
	}

	b := s.Block
	text := fmt.Sprintf("\n  [yellow]%s[white]  [gray]block %d/%d[white]\n", b.DisplayName(), s.BlockIndex+1, s.TotalBlocks)
	text += fmt.Sprintf("  %s", blockTypeName(b.Type))
	if !b.Type.IsOpenEnded() {
		text += fmt.Sprintf("  [gray]set[white] %d/%d", min(s.Progress.CompletedSets+1, s.Progress.TotalSets), s.Progress.TotalSets)
	}
	if s.Progress.IsCompleted {
		text += "  [green]done[white]"
	}
	text += "\n"

	for _, e := range b.Exercises {
		text += fmt.Sprintf("    %s", e.DisplayName())
		if e.LoadPercentage != nil {
			text += fmt.Sprintf(" [gray]@ %s%% e1RM[white]", protocol.FormatWeight(*e.LoadPercentage))
		}
		if e.VideoURL != "" {
			text += " [blue](video)[white]"
		}
		text += "\n"
	}
	if s.Saving {
		text += "  [orange]Saving...[white]\n"
	}
	return withStatus(text, s.Status)
}

func withStatus(text, status string) string {
	if status == "" {
		return text
	}
	return text + fmt.Sprintf("\n  [aqua]%s[white]\n", status)
}

// formatRowLabel is the label of one input row, including the suggestion hint
func formatRowLabel(r FormRow) string {
	label := r.Spec.Label
	if w := r.Suggestion.SuggestedWeight; w != nil && r.Suggestion.Source != suggest.SourcePercentE1RM {
		label += fmt.Sprintf(" [gray]sugg. %s[white]", protocol.FormatWeight(*w))
	}
	return label
}

// formatTimerPanel renders whichever timers are showing
func formatTimerPanel(t TimerView, b *workout.Block) string {
	var text string
	if t.Rest != nil {
		text += fmt.Sprintf("\n  [cyan]Rest[white]  [yellow]%s[white]", interval.FormatSeconds(t.Rest.SecondsLeft))
		if t.Rest.IsPaused {
			text += " [gray](paused)[white]"
		}
		text += "\n  [gray]F6 to skip[white]\n"
	}

	switch {
	case t.Interval != nil:
		text += formatInterval(*t.Interval)
	case t.Countdown != nil:
		text += formatCountdown(*t.Countdown)
	case t.Rest == nil:
		if b == nil || (!b.Type.IsInterval() && !b.Type.HasCountdown()) {
			text += "\n  [gray]No timer for this block[white]\n"
		}
	}
	return text
}

func formatInterval(st interval.TimerState) string {
	if st.IsComplete {
		return "\n  [green]Intervals complete[white]\n"
	}
	if !st.IsActive {
		return "\n  [gray]Interval timer ready, F2 to start[white]\n"
	}

	phase := "[red]WORK[white]"
	switch st.Phase {
	case interval.PhaseRest:
		phase = "[green]REST[white]"
	case interval.PhaseRestAfterSet:
		phase = "[green]SET REST[white]"
	}
	text := fmt.Sprintf("\n  %s  [yellow]%s[white]", phase, interval.FormatSeconds(st.PhaseSecondsLeft))
	if st.IsPaused {
		text += " [gray](paused)[white]"
	}
	text += fmt.Sprintf("\n  %s\n", st.ExerciseName)
	text += fmt.Sprintf("  [gray]Round[white] %d/%d  [gray]Set[white] %d  [gray]Segments[white] %d/%d\n",
		st.Round, st.TotalRounds, st.SetIndex+1, st.CompletedSegments, st.TotalSegments)
	return text
}

func formatCountdown(st interval.CountdownState) string {
	if st.IsComplete {
		return fmt.Sprintf("\n  [green]Time![white]  [gray]elapsed[white] %s\n", interval.FormatSeconds(st.ElapsedSeconds))
	}
	if !st.IsActive {
		return "\n  [gray]Timer ready, F2 to start[white]\n"
	}

	var text string
	switch st.Kind {
	case interval.KindForTime:
		text = fmt.Sprintf("\n  [yellow]%s[white]", interval.FormatSeconds(st.ElapsedSeconds))
		if st.TotalSeconds > 0 {
			text += fmt.Sprintf(" [gray]cap %s[white]", interval.FormatSeconds(st.TotalSeconds))
		}
	case interval.KindEMOM:
		text = fmt.Sprintf("\n  [yellow]%s[white]  [gray]round[white] %d/%d", interval.FormatSeconds(st.IntervalSecondsLeft), st.Round, st.TotalRounds)
	default:
		text = fmt.Sprintf("\n  [yellow]%s[white] [gray]left[white]", interval.FormatSeconds(st.SecondsLeft))
	}
	if st.IsPaused {
		text += " [gray](paused)[white]"
	}
	return text + "\n"
}
