package workout

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPlan is returned when a workout file fails validation
var ErrInvalidPlan = errors.New("invalid workout plan")

//go:embed sample_plan.yaml
var samplePlan []byte

// SampleWorkout returns the built-in demo workout
func SampleWorkout() *Workout {
	w, err := ParseWorkout(samplePlan)
	if err != nil {
		panic("workout: built-in sample plan is invalid: " + err.Error())
	}
	return w
}

// LoadWorkout reads and validates a YAML workout file
func LoadWorkout(path string) (*Workout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workout file: %w", err)
	}
	w, err := ParseWorkout(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// ParseWorkout decodes and validates a YAML workout definition
func ParseWorkout(data []byte) (*Workout, error) {
	var w Workout
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing workout: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Validate checks the structural rules every block type relies on
func (w *Workout) Validate() error {
	if len(w.Blocks) == 0 {
		return fmt.Errorf("%w: no blocks", ErrInvalidPlan)
	}
	seen := make(map[string]bool)
	for i := range w.Blocks {
		b := &w.Blocks[i]
		if b.ID == "" {
			return fmt.Errorf("%w: block %d has no id", ErrInvalidPlan, i)
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate block id %q", ErrInvalidPlan, b.ID)
		}
		seen[b.ID] = true
		if err := b.validate(); err != nil {
			return fmt.Errorf("%w: block %q: %v", ErrInvalidPlan, b.ID, err)
		}
	}
	return nil
}

func (b *Block) validate() error {
	if !b.Type.Valid() {
		return fmt.Errorf("unknown block type %q", b.Type)
	}
	if b.TotalSets < 0 || b.TotalRounds < 0 || b.RestSeconds < 0 {
		return errors.New("counts and rest must not be negative")
	}
	for _, e := range b.Exercises {
		if e.ID == "" {
			return errors.New("exercise without id")
		}
		if e.LoadPercentage != nil && (*e.LoadPercentage <= 0 || *e.LoadPercentage > 100) {
			return fmt.Errorf("exercise %q: load_percentage must be in (0, 100]", e.ID)
		}
	}

	n := len(b.Exercises)
	switch b.Type {
	case BlockTypeStraightSet, BlockTypeDropSet, BlockTypeClusterSet, BlockTypeRestPause:
		if n != 1 {
			return fmt.Errorf("%s needs exactly 1 exercise, got %d", b.Type, n)
		}
	case BlockTypePyramid, BlockTypeLadder:
		if n != 1 {
			return fmt.Errorf("%s needs exactly 1 exercise, got %d", b.Type, n)
		}
		if len(b.Params.Rungs) == 0 {
			return fmt.Errorf("%s needs at least one rung", b.Type)
		}
		for _, r := range b.Params.Rungs {
			if r <= 0 {
				return errors.New("rung reps must be positive")
			}
		}
	case BlockTypeSuperset, BlockTypePreExhaustion:
		if n != 2 {
			return fmt.Errorf("%s needs exactly 2 exercises, got %d", b.Type, n)
		}
	case BlockTypeGiantSet:
		if n < 3 {
			return fmt.Errorf("giant set needs at least 3 exercises, got %d", n)
		}
	case BlockTypeAMRAP, BlockTypeEMOM, BlockTypeForTime:
		if n == 0 {
			return fmt.Errorf("%s needs at least 1 exercise", b.Type)
		}
	case BlockTypeCircuit, BlockTypeTabata:
		if n == 0 {
			return fmt.Errorf("%s needs at least 1 exercise", b.Type)
		}
		for si, set := range b.Params.IntervalSets {
			if len(set.Exercises) == 0 {
				return fmt.Errorf("interval set %d has no exercises", si)
			}
			for _, ie := range set.Exercises {
				if _, ok := b.ExerciseByID(ie.ExerciseID); !ok {
					return fmt.Errorf("interval set %d references unknown exercise %q", si, ie.ExerciseID)
				}
				if ie.WorkSeconds < 0 || ie.RestAfter < 0 {
					return fmt.Errorf("interval set %d has negative durations", si)
				}
			}
		}
	}
	if b.Params.DropPercentage < 0 || b.Params.DropPercentage >= 100 {
		return errors.New("drop_percentage must be in [0, 100)")
	}
	return nil
}
