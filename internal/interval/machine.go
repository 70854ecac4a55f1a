package interval

// Phase is one state of the interval scheduler
type Phase string

const (
	PhaseWork         Phase = "work"
	PhaseRest         Phase = "rest"
	PhaseRestAfterSet Phase = "rest_after_set"
)

// Cursor is a position in the interval structure. During PhaseRest and
// PhaseRestAfterSet, ExerciseIndex is the exercise that was just worked.
type Cursor struct {
	Phase         Phase
	Round         int
	SetIndex      int
	ExerciseIndex int
}

// Start returns the first cursor of the configuration
func (c Config) Start() Cursor {
	return Cursor{Phase: PhaseWork}
}

func (c Config) lastExercise(setIndex int) int {
	return len(c.Sets[setIndex].Exercises) - 1
}

func (c Config) lastSet() int {
	return len(c.Sets) - 1
}

func (c Config) lastRound() int {
	return c.TotalRounds - 1
}

// Exercise returns the exercise at the cursor
func (c Config) Exercise(cur Cursor) Exercise {
	return c.Sets[cur.SetIndex].Exercises[cur.ExerciseIndex]
}

// PhaseSeconds derives the full duration of the phase at cur from the configuration
func (c Config) PhaseSeconds(cur Cursor) int {
	set := c.Sets[cur.SetIndex]
	switch cur.Phase {
	case PhaseRest:
		return set.Exercises[cur.ExerciseIndex].RestAfter
	case PhaseRestAfterSet:
		return set.RestBetweenSets
	default:
		return set.Exercises[cur.ExerciseIndex].WorkSeconds
	}
}

// Next returns the phase after cur. done is true when cur was the final phase.
// The last exercise of a set skips its own rest; the set-level rest replaces it.
// The rest after the final set of the final round never runs.
func (c Config) Next(cur Cursor) (next Cursor, done bool) {
	switch cur.Phase {
	case PhaseWork:
		if cur.ExerciseIndex < c.lastExercise(cur.SetIndex) {
			cur.Phase = PhaseRest
			return cur, false
		}
		if cur.SetIndex == c.lastSet() && cur.Round == c.lastRound() {
			return cur, true
		}
		cur.Phase = PhaseRestAfterSet
		return cur, false

	case PhaseRest:
		cur.ExerciseIndex++
		cur.Phase = PhaseWork
		return cur, false

	case PhaseRestAfterSet:
		if cur.SetIndex == c.lastSet() {
			if cur.Round == c.lastRound() {
				return cur, true
			}
			return Cursor{Phase: PhaseWork, Round: cur.Round + 1}, false
		}
		return Cursor{Phase: PhaseWork, Round: cur.Round, SetIndex: cur.SetIndex + 1}, false
	}
	return cur, true
}

// Previous is the inverse of Next. ok is false at the very first phase.
func (c Config) Previous(cur Cursor) (prev Cursor, ok bool) {
	switch cur.Phase {
	case PhaseRest:
		cur.Phase = PhaseWork
		return cur, true

	case PhaseRestAfterSet:
		cur.Phase = PhaseWork
		cur.ExerciseIndex = c.lastExercise(cur.SetIndex)
		return cur, true

	case PhaseWork:
		switch {
		case cur.ExerciseIndex > 0:
			cur.ExerciseIndex--
			cur.Phase = PhaseRest
			return cur, true
		case cur.SetIndex > 0:
			s := cur.SetIndex - 1
			return Cursor{Phase: PhaseRestAfterSet, Round: cur.Round, SetIndex: s, ExerciseIndex: c.lastExercise(s)}, true
		case cur.Round > 0:
			s := c.lastSet()
			return Cursor{Phase: PhaseRestAfterSet, Round: cur.Round - 1, SetIndex: s, ExerciseIndex: c.lastExercise(s)}, true
		}
	}
	return cur, false
}

func setSegments(set Set) int {
	return (len(set.Exercises)-1)*2 + 1 + 1
}

// SegmentsPerRound counts the phases of one round: a work+rest pair per
// non-final exercise, one work for the final exercise, one set rest per set
func (c Config) SegmentsPerRound() int {
	n := 0
	for _, set := range c.Sets {
		n += setSegments(set)
	}
	return n
}

// TotalSegments excludes the final set rest, which never occurs
func (c Config) TotalSegments() int {
	if c.Empty() {
		return 0
	}
	return c.SegmentsPerRound()*c.TotalRounds - 1
}

// CompletedSegments counts the phases finished before cur
func (c Config) CompletedSegments(cur Cursor) int {
	n := cur.Round * c.SegmentsPerRound()
	for i := 0; i < cur.SetIndex; i++ {
		n += setSegments(c.Sets[i])
	}
	switch cur.Phase {
	case PhaseWork:
		n += cur.ExerciseIndex * 2
	case PhaseRest:
		n += cur.ExerciseIndex*2 + 1
	case PhaseRestAfterSet:
		n += (len(c.Sets[cur.SetIndex].Exercises)-1)*2 + 1
	}
	return n
}
