// Package protocol implements the per-block-type set-completion contracts and
// the runner that drives one block from its first log action to completion.
package protocol

import (
	"fmt"
	"time"

	"github.com/lowaak/liftsession/internal/workout"
)

// Protocol is the contract every block type implements once
type Protocol interface {
	Type() workout.BlockType
	// Layout lists the input rows of one log action
	Layout(b *workout.Block) []RowSpec
	// Validate parses the raw input, all rows or nothing
	Validate(b *workout.Block, in Input) (Submission, error)
	ComputeVolume(sub Submission) float64
	BuildLogPayload(b *workout.Block, setNumber int, sub Submission, at time.Time) LogRequest
	NextState(p workout.BlockProgress) workout.BlockProgress
	// PrimaryIndex is the entry whose e1RM may be updated, or -1
	PrimaryIndex(sub Submission) int
	// WeightRequired is false where weight is advisory
	WeightRequired() bool
}

// For is the single dispatch point from block type to protocol
func For(t workout.BlockType) (Protocol, error) {
	switch t {
	case workout.BlockTypeStraightSet:
		return straightSet{}, nil
	case workout.BlockTypeSuperset:
		return superset{}, nil
	case workout.BlockTypeGiantSet:
		return giantSet{}, nil
	case workout.BlockTypePreExhaustion:
		return preExhaustion{}, nil
	case workout.BlockTypeDropSet:
		return dropSet{}, nil
	case workout.BlockTypeClusterSet:
		return clusterSet{}, nil
	case workout.BlockTypeRestPause:
		return restPause{}, nil
	case workout.BlockTypePyramid, workout.BlockTypeLadder:
		return rungSet{blockType: t}, nil
	case workout.BlockTypeAMRAP:
		return amrap{}, nil
	case workout.BlockTypeEMOM:
		return emom{}, nil
	case workout.BlockTypeForTime:
		return forTime{}, nil
	case workout.BlockTypeCircuit, workout.BlockTypeTabata:
		return intervalBlock{blockType: t}, nil
	}
	return nil, fmt.Errorf("no protocol for block type %q", t)
}

// MustFor is For for block types already checked by plan validation
func MustFor(t workout.BlockType) Protocol {
	p, err := For(t)
	if err != nil {
		panic(err)
	}
	return p
}

// base holds the behaviour shared by every variant
type base struct{}

func (base) ComputeVolume(sub Submission) float64 {
	var v float64
	for _, e := range sub.Entries {
		v += e.Volume()
	}
	return v
}

func (base) NextState(p workout.BlockProgress) workout.BlockProgress {
	return p.Advance()
}

func (base) WeightRequired() bool {
	return true
}

func (base) PrimaryIndex(sub Submission) int {
	if len(sub.Entries) == 0 {
		return -1
	}
	return 0
}

func buildPayload(p Protocol, b *workout.Block, setNumber int, sub Submission, at time.Time) LogRequest {
	sets := make([]workout.LoggedSet, 0, len(sub.Entries))
	for _, e := range sub.Entries {
		sets = append(sets, workout.LoggedSet{
			BlockID:         b.ID,
			BlockType:       b.Type,
			ExerciseID:      e.ExerciseID,
			SetNumber:       setNumber,
			SubIndex:        e.SubIndex,
			Kind:            e.Kind,
			Weight:          e.Weight,
			HasWeight:       e.HasWeight,
			Reps:            e.Reps,
			DurationSeconds: sub.DurationSeconds,
			LoggedAt:        at,
		})
	}
	return LogRequest{
		BlockID:      b.ID,
		BlockType:    b.Type,
		SetNumber:    setNumber,
		Sets:         sets,
		Rounds:       sub.Rounds,
		Volume:       p.ComputeVolume(sub),
		PrimaryIndex: p.PrimaryIndex(sub),
	}
}

func oneRowPerExercise(b *workout.Block, kind workout.EntryKind) []RowSpec {
	rows := make([]RowSpec, 0, len(b.Exercises))
	for i, e := range b.Exercises {
		rows = append(rows, RowSpec{ExerciseID: e.ID, Label: e.DisplayName(), Kind: kind, SubIndex: i})
	}
	return rows
}

func firstExercise(b *workout.Block) workout.Exercise {
	if len(b.Exercises) == 0 {
		return workout.Exercise{}
	}
	return b.Exercises[0]
}

// straightSet: one weight x reps row per set
type straightSet struct{ base }

func (straightSet) Type() workout.BlockType { return workout.BlockTypeStraightSet }

func (straightSet) Layout(b *workout.Block) []RowSpec {
	e := firstExercise(b)
	return []RowSpec{{ExerciseID: e.ID, Label: e.DisplayName(), Kind: workout.EntryWorking}}
}

func (p straightSet) Validate(b *workout.Block, in Input) (Submission, error) {
	entries, err := validateRows(p.Layout(b), in, true)
	return Submission{Entries: entries}, err
}

func (p straightSet) BuildLogPayload(b *workout.Block, n int, sub Submission, at time.Time) LogRequest {
	return buildPayload(p, b, n, sub, at)
}

// superset: exercises A and B back to back, A is primary
type superset struct{ base }

func (superset) Type() workout.BlockType { return workout.BlockTypeSuperset }

func (superset) Layout(b *workout.Block) []RowSpec {
	return oneRowPerExercise(b, workout.EntryWorking)
}

func (p superset) Validate(b *workout.Block, in Input) (Submission, error) {
	entries, err := validateRows(p.Layout(b), in, true)
	return Submission{Entries: entries}, err
}

func (p superset) BuildLogPayload(b *workout.Block, n int, sub Submission, at time.Time) LogRequest {
	return buildPayload(p, b, n, sub, at)
}

// giantSet: three or more exercises back to back, the first is primary
type giantSet struct{ base }

func (giantSet) Type() workout.BlockType { return workout.BlockTypeGiantSet }

func (giantSet) Layout(b *workout.Block) []RowSpec {
	return oneRowPerExercise(b, workout.EntryWorking)
}

func (p giantSet) Validate(b *workout.Block, in Input) (Submission, error) {
	entries, err := validateRows(p.Layout(b), in, true)
	return Submission{Entries: entries}, err
}

func (p giantSet) BuildLogPayload(b *workout.Block, n int, sub Submission, at time.Time) LogRequest {
	return buildPayload(p, b, n, sub, at)
}

// preExhaustion: an isolation movement then a compound one. Only the compound
// lift feeds e1RM.
type preExhaustion struct{ base }

func (preExhaustion) Type() workout.BlockType { return workout.BlockTypePreExhaustion }

func (preExhaustion) Layout(b *workout.Block) []RowSpec {
	return oneRowPerExercise(b, workout.EntryWorking)
}

func (p preExhaustion) Validate(b *workout.Block, in Input) (Submission, error) {
	entries, err := validateRows(p.Layout(b), in, true)
	return Submission{Entries: entries}, err
}

func (p preExhaustion) BuildLogPayload(b *workout.Block, n int, sub Submission, at time.Time) LogRequest {
	return buildPayload(p, b, n, sub, at)
}

func (preExhaustion) PrimaryIndex(sub Submission) int {
	if len(sub.Entries) < 2 {
		return -1
	}
	return 1
}

// dropSet: a working set followed by DropCount lighter drops
type dropSet struct{ base }

func (dropSet) Type() workout.BlockType { return workout.BlockTypeDropSet }

func (dropSet) Layout(b *workout.Block) []RowSpec {
	e := firstExercise(b)
	rows := []RowSpec{{ExerciseID: e.ID, Label: e.DisplayName(), Kind: workout.EntryWorking}}
	for i := 1; i <= b.DropCount(); i++ {
		rows = append(rows, RowSpec{ExerciseID: e.ID, Label: fmt.Sprintf("Drop %d", i), Kind: workout.EntryDrop, SubIndex: i})
	}
	return rows
}

func (p dropSet) Validate(b *workout.Block, in Input) (Submission, error) {
	entries, err := validateRows(p.Layout(b), in, true)
	return Submission{Entries: entries}, err
}

func (p dropSet) BuildLogPayload(b *workout.Block, n int, sub Submission, at time.Time) LogRequest {
	return buildPayload(p, b, n, sub, at)
}

// clusterSet: ClusterCount short mini-sets of the same lift
type clusterSet struct{ base }

func (clusterSet) Type() workout.BlockType { return workout.BlockTypeClusterSet }

func (clusterSet) Layout(b *workout.Block) []RowSpec {
	e := firstExercise(b)
	rows := make([]RowSpec, 0, b.ClusterCount())
	for i := 0; i < b.ClusterCount(); i++ {
		rows = append(rows, RowSpec{ExerciseID: e.ID, Label: fmt.Sprintf("Cluster %d", i+1), Kind: workout.EntryCluster, SubIndex: i})
	}
	return rows
}

func (p clusterSet) Validate(b *workout.Block, in Input) (Submission, error) {
	entries, err := validateRows(p.Layout(b), in, true)
	return Submission{Entries: entries}, err
}

func (p clusterSet) BuildLogPayload(b *workout.Block, n int, sub Submission, at time.Time) LogRequest {
	return buildPayload(p, b, n, sub, at)
}

// restPause: an activation set then short mini-sets after brief pauses
type restPause struct{ base }

func (restPause) Type() workout.BlockType { return workout.BlockTypeRestPause }

func (restPause) Layout(b *workout.Block) []RowSpec {
	e := firstExercise(b)
	rows := []RowSpec{{ExerciseID: e.ID, Label: e.DisplayName(), Kind: workout.EntryWorking}}
	for i := 1; i <= b.RestPauseMiniSets(); i++ {
		rows = append(rows, RowSpec{ExerciseID: e.ID, Label: fmt.Sprintf("Mini-set %d", i), Kind: workout.EntryMiniSet, SubIndex: i})
	}
	return rows
}

func (p restPause) Validate(b *workout.Block, in Input) (Submission, error) {
	entries, err := validateRows(p.Layout(b), in, true)
	return Submission{Entries: entries}, err
}

func (p restPause) BuildLogPayload(b *workout.Block, n int, sub Submission, at time.Time) LogRequest {
	return buildPayload(p, b, n, sub, at)
}

// rungSet covers pyramids and ladders: one row per rung, heaviest rung is primary
type rungSet struct {
	base
	blockType workout.BlockType
}

func (p rungSet) Type() workout.BlockType { return p.blockType }

func (rungSet) Layout(b *workout.Block) []RowSpec {
	e := firstExercise(b)
	rows := make([]RowSpec, 0, len(b.Params.Rungs))
	for i, target := range b.Params.Rungs {
		rows = append(rows, RowSpec{
			ExerciseID: e.ID,
			Label:      fmt.Sprintf("Rung %d (%d reps)", i+1, target),
			Kind:       workout.EntryRung,
			SubIndex:   i,
			TargetReps: target,
		})
	}
	return rows
}

func (p rungSet) Validate(b *workout.Block, in Input) (Submission, error) {
	entries, err := validateRows(p.Layout(b), in, true)
	return Submission{Entries: entries}, err
}

func (p rungSet) BuildLogPayload(b *workout.Block, n int, sub Submission, at time.Time) LogRequest {
	return buildPayload(p, b, n, sub, at)
}

func (rungSet) PrimaryIndex(sub Submission) int {
	best := -1
	for i, e := range sub.Entries {
		if best < 0 || e.Weight > sub.Entries[best].Weight {
			best = i
		}
	}
	return best
}

// advisory is shared by the timed types: weight is optional and nothing feeds e1RM
type advisory struct{ base }

func (advisory) WeightRequired() bool { return false }

func (advisory) PrimaryIndex(Submission) int { return -1 }

// amrap: reps per exercise plus optional completed rounds, done in one log
type amrap struct{ advisory }

func (amrap) Type() workout.BlockType { return workout.BlockTypeAMRAP }

func (amrap) Layout(b *workout.Block) []RowSpec {
	return oneRowPerExercise(b, workout.EntryRound)
}

func (p amrap) Validate(b *workout.Block, in Input) (Submission, error) {
	entries, err := validateRows(p.Layout(b), in, false)
	if err != nil {
		return Submission{}, err
	}
	rounds, err := parsePositive("rounds", in.Rounds, false)
	if err != nil {
		return Submission{}, err
	}
	return Submission{Entries: entries, Rounds: rounds}, nil
}

func (p amrap) BuildLogPayload(b *workout.Block, n int, sub Submission, at time.Time) LogRequest {
	return buildPayload(p, b, n, sub, at)
}

func (amrap) NextState(p workout.BlockProgress) workout.BlockProgress {
	return p.Complete()
}

// emom: one log per interval round
type emom struct{ advisory }

func (emom) Type() workout.BlockType { return workout.BlockTypeEMOM }

func (emom) Layout(b *workout.Block) []RowSpec {
	return oneRowPerExercise(b, workout.EntryRound)
}

func (p emom) Validate(b *workout.Block, in Input) (Submission, error) {
	entries, err := validateRows(p.Layout(b), in, false)
	return Submission{Entries: entries}, err
}

func (p emom) BuildLogPayload(b *workout.Block, n int, sub Submission, at time.Time) LogRequest {
	return buildPayload(p, b, n, sub, at)
}

// forTime: reps per exercise and the finishing time, both required
type forTime struct{ advisory }

func (forTime) Type() workout.BlockType { return workout.BlockTypeForTime }

func (forTime) Layout(b *workout.Block) []RowSpec {
	return oneRowPerExercise(b, workout.EntryRound)
}

func (p forTime) Validate(b *workout.Block, in Input) (Submission, error) {
	entries, err := validateRows(p.Layout(b), in, false)
	if err != nil {
		return Submission{}, err
	}
	secs, err := parsePositive("time", in.TimeSeconds, true)
	if err != nil {
		return Submission{}, err
	}
	return Submission{Entries: entries, DurationSeconds: secs}, nil
}

func (p forTime) BuildLogPayload(b *workout.Block, n int, sub Submission, at time.Time) LogRequest {
	return buildPayload(p, b, n, sub, at)
}

func (forTime) NextState(p workout.BlockProgress) workout.BlockProgress {
	return p.Complete()
}

// intervalBlock covers circuits and Tabata: one summary log of reps per exercise
type intervalBlock struct {
	advisory
	blockType workout.BlockType
}

func (p intervalBlock) Type() workout.BlockType { return p.blockType }

func (intervalBlock) Layout(b *workout.Block) []RowSpec {
	return oneRowPerExercise(b, workout.EntryRound)
}

func (p intervalBlock) Validate(b *workout.Block, in Input) (Submission, error) {
	entries, err := validateRows(p.Layout(b), in, false)
	if err != nil {
		return Submission{}, err
	}
	rounds, err := parsePositive("rounds", in.Rounds, false)
	if err != nil {
		return Submission{}, err
	}
	return Submission{Entries: entries, Rounds: rounds}, nil
}

func (p intervalBlock) BuildLogPayload(b *workout.Block, n int, sub Submission, at time.Time) LogRequest {
	return buildPayload(p, b, n, sub, at)
}

func (intervalBlock) NextState(p workout.BlockProgress) workout.BlockProgress {
	return p.Complete()
}
