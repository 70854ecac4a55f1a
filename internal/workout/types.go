package workout

import "time"

// BlockType tags the set-type variant of a block
type BlockType string

const (
	BlockTypeStraightSet   BlockType = "straight_set"
	BlockTypeSuperset      BlockType = "superset"
	BlockTypeDropSet       BlockType = "drop_set"
	BlockTypeClusterSet    BlockType = "cluster_set"
	BlockTypeRestPause     BlockType = "rest_pause"
	BlockTypePyramid       BlockType = "pyramid"
	BlockTypeLadder        BlockType = "ladder"
	BlockTypeGiantSet      BlockType = "giant_set"
	BlockTypePreExhaustion BlockType = "pre_exhaustion"
	BlockTypeAMRAP         BlockType = "amrap"
	BlockTypeEMOM          BlockType = "emom"
	BlockTypeForTime       BlockType = "for_time"
	BlockTypeCircuit       BlockType = "circuit"
	BlockTypeTabata        BlockType = "tabata"
)

// AllBlockTypes lists every supported block type in display order
var AllBlockTypes = []BlockType{
	BlockTypeStraightSet,
	BlockTypeSuperset,
	BlockTypeDropSet,
	BlockTypeClusterSet,
	BlockTypeRestPause,
	BlockTypePyramid,
	BlockTypeLadder,
	BlockTypeGiantSet,
	BlockTypePreExhaustion,
	BlockTypeAMRAP,
	BlockTypeEMOM,
	BlockTypeForTime,
	BlockTypeCircuit,
	BlockTypeTabata,
}

// Valid reports whether t is one of the known block types
func (t BlockType) Valid() bool {
	for _, known := range AllBlockTypes {
		if known == t {
			return true
		}
	}
	return false
}

// IsOpenEnded is true for blocks completed by a single log action rather than by counting sets
func (t BlockType) IsOpenEnded() bool {
	switch t {
	case BlockTypeAMRAP, BlockTypeForTime, BlockTypeCircuit, BlockTypeTabata:
		return true
	}
	return false
}

// IsInterval is true for blocks driven by the work/rest interval scheduler
func (t BlockType) IsInterval() bool {
	return t == BlockTypeCircuit || t == BlockTypeTabata
}

// HasCountdown is true for blocks driven by a simple countdown (not the interval scheduler)
func (t BlockType) HasCountdown() bool {
	switch t {
	case BlockTypeAMRAP, BlockTypeEMOM, BlockTypeForTime:
		return true
	}
	return false
}

// WeightAdvisory is true when weight is optional for the block type (reps or reps+time are required)
func (t BlockType) WeightAdvisory() bool {
	switch t {
	case BlockTypeAMRAP, BlockTypeEMOM, BlockTypeForTime, BlockTypeCircuit, BlockTypeTabata:
		return true
	}
	return false
}

// Default block parameters
const (
	DefaultDropCount           = 2
	DefaultDropPercentage      = 20.0
	DefaultClusterCount        = 3
	DefaultRestPauseMiniSets   = 2
	DefaultEMOMIntervalSeconds = 60
	DefaultAMRAPSeconds        = 10 * 60
	DefaultTabataRounds        = 8
	DefaultTabataWorkSeconds   = 20
	DefaultTabataRestSeconds   = 10
)

// Exercise is a single movement inside a block
type Exercise struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	VideoURL       string   `yaml:"video_url,omitempty"`
	LoadPercentage *float64 `yaml:"load_percentage,omitempty"` // percent of e1RM, e.g. 70
	RestSeconds    *int     `yaml:"rest_seconds,omitempty"`
}

// DisplayName returns the name, falling back to the ID
func (e Exercise) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

// IntervalExerciseDef is one work slot inside an interval set
type IntervalExerciseDef struct {
	ExerciseID  string `yaml:"exercise_id"`
	WorkSeconds int    `yaml:"work_seconds,omitempty"`
	RestAfter   int    `yaml:"rest_after,omitempty"`
}

// IntervalSetDef groups interval exercises followed by a set-level rest
type IntervalSetDef struct {
	Exercises       []IntervalExerciseDef `yaml:"exercises"`
	RestBetweenSets int                   `yaml:"rest_between_sets,omitempty"`
}

// BlockParams holds the type-specific parameters of a block.
// Zero values mean "use the default for the block type".
type BlockParams struct {
	DropCount       int              `yaml:"drop_count,omitempty"`
	DropPercentage  float64          `yaml:"drop_percentage,omitempty"`
	ClusterCount    int              `yaml:"cluster_count,omitempty"`
	MiniSets        int              `yaml:"mini_sets,omitempty"` // rest-pause mini-sets after the activation set
	PauseSeconds    int              `yaml:"pause_seconds,omitempty"`
	Rungs           []int            `yaml:"rungs,omitempty"` // target reps per pyramid/ladder rung
	DurationSeconds int              `yaml:"duration_seconds,omitempty"`
	IntervalSeconds int              `yaml:"interval_seconds,omitempty"`
	IntervalSets    []IntervalSetDef `yaml:"interval_sets,omitempty"`
}

// Block is one configured unit of a workout
type Block struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name,omitempty"`
	Type        BlockType   `yaml:"type"`
	Exercises   []Exercise  `yaml:"exercises"`
	TotalSets   int         `yaml:"total_sets,omitempty"`
	TotalRounds int         `yaml:"total_rounds,omitempty"`
	RestSeconds int         `yaml:"rest_seconds,omitempty"`
	Params      BlockParams `yaml:"params,omitempty"`
}

// EffectiveTotalSets returns the number of log actions that complete the block
func (b *Block) EffectiveTotalSets() int {
	if b.Type.IsOpenEnded() {
		return 1
	}
	if b.Type == BlockTypeEMOM {
		if b.TotalRounds > 0 {
			return b.TotalRounds
		}
		if b.TotalSets > 0 {
			return b.TotalSets
		}
		if b.Params.DurationSeconds > 0 {
			minutes := b.Params.DurationSeconds / b.EMOMIntervalSeconds()
			if minutes > 0 {
				return minutes
			}
		}
		return 1
	}
	if b.TotalSets > 0 {
		return b.TotalSets
	}
	return 1
}

// EffectiveRounds returns the configured round count for interval and EMOM blocks
func (b *Block) EffectiveRounds() int {
	if b.TotalRounds > 0 {
		return b.TotalRounds
	}
	if b.Type == BlockTypeTabata {
		return DefaultTabataRounds
	}
	if b.Type == BlockTypeEMOM {
		return b.EffectiveTotalSets()
	}
	return 1
}

// DropCount returns the number of drops following the working set
func (b *Block) DropCount() int {
	if b.Params.DropCount > 0 {
		return b.Params.DropCount
	}
	return DefaultDropCount
}

// DropPercentage returns the per-drop weight reduction in percent
func (b *Block) DropPercentage() float64 {
	if b.Params.DropPercentage > 0 {
		return b.Params.DropPercentage
	}
	return DefaultDropPercentage
}

// ClusterCount returns the number of mini-sets in one cluster
func (b *Block) ClusterCount() int {
	if b.Params.ClusterCount > 0 {
		return b.Params.ClusterCount
	}
	return DefaultClusterCount
}

// RestPauseMiniSets returns the number of mini-sets after the activation set
func (b *Block) RestPauseMiniSets() int {
	if b.Params.MiniSets > 0 {
		return b.Params.MiniSets
	}
	return DefaultRestPauseMiniSets
}

// EMOMIntervalSeconds returns the length of one EMOM interval
func (b *Block) EMOMIntervalSeconds() int {
	if b.Params.IntervalSeconds > 0 {
		return b.Params.IntervalSeconds
	}
	return DefaultEMOMIntervalSeconds
}

// RestAfterSet returns the rest between sets, falling back to the first exercise's rest
func (b *Block) RestAfterSet() time.Duration {
	if b.RestSeconds > 0 {
		return time.Duration(b.RestSeconds) * time.Second
	}
	if len(b.Exercises) > 0 && b.Exercises[0].RestSeconds != nil && *b.Exercises[0].RestSeconds > 0 {
		return time.Duration(*b.Exercises[0].RestSeconds) * time.Second
	}
	return 0
}

// ExerciseByID looks up an exercise of the block
func (b *Block) ExerciseByID(id string) (Exercise, bool) {
	for _, e := range b.Exercises {
		if e.ID == id {
			return e, true
		}
	}
	return Exercise{}, false
}

// DisplayName returns the block name, falling back to the exercise names
func (b *Block) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	if len(b.Exercises) > 0 {
		return b.Exercises[0].DisplayName()
	}
	return b.ID
}

// Workout is an ordered list of blocks
type Workout struct {
	Name   string  `yaml:"name"`
	Blocks []Block `yaml:"blocks"`
}

// ExerciseIDs returns every distinct exercise id in the workout, in first-seen order
func (w *Workout) ExerciseIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, b := range w.Blocks {
		for _, e := range b.Exercises {
			if !seen[e.ID] {
				seen[e.ID] = true
				ids = append(ids, e.ID)
			}
		}
	}
	return ids
}

// BlockProgress tracks completion of the active block
type BlockProgress struct {
	CompletedSets int
	TotalSets     int
	IsCompleted   bool
}

// NewBlockProgress creates the progress record for entering a block
func NewBlockProgress(b *Block) BlockProgress {
	return BlockProgress{TotalSets: b.EffectiveTotalSets()}
}

// Advance records one completed log action, never exceeding TotalSets
func (p BlockProgress) Advance() BlockProgress {
	if p.IsCompleted {
		return p
	}
	if p.CompletedSets < p.TotalSets {
		p.CompletedSets++
	}
	if p.CompletedSets == p.TotalSets {
		p.IsCompleted = true
	}
	return p
}

// Complete marks the block done in one step (open-ended block types)
func (p BlockProgress) Complete() BlockProgress {
	p.CompletedSets = p.TotalSets
	p.IsCompleted = true
	return p
}

// EntryKind describes what a logged row represents inside its log action
type EntryKind string

const (
	EntryWorking EntryKind = "working"
	EntryDrop    EntryKind = "drop"
	EntryCluster EntryKind = "cluster"
	EntryMiniSet EntryKind = "mini_set"
	EntryRung    EntryKind = "rung"
	EntryRound   EntryKind = "round"
)

// LoggedSet is one row handed to the persistence collaborator.
// It is a value type and is never modified after construction.
type LoggedSet struct {
	BlockID         string
	BlockType       BlockType
	ExerciseID      string
	SetNumber       int
	SubIndex        int
	Kind            EntryKind
	Weight          float64
	HasWeight       bool
	Reps            int
	DurationSeconds int
	LoggedAt        time.Time
}

// Volume returns weight x reps for the row (zero without a weight)
func (s LoggedSet) Volume() float64 {
	if !s.HasWeight {
		return 0
	}
	return s.Weight * float64(s.Reps)
}
