package interval

import (
	"github.com/lowaak/liftsession/internal/workout"
)

// Fallbacks for missing interval durations, in seconds
const (
	DefaultWorkSeconds    = 20
	DefaultRestSeconds    = 10
	DefaultSetRestSeconds = 30
)

// Defaults overrides the fallback durations (zero fields keep the package defaults)
type Defaults struct {
	WorkSeconds    int
	RestSeconds    int
	SetRestSeconds int
}

func (d Defaults) orFallback() Defaults {
	if d.WorkSeconds <= 0 {
		d.WorkSeconds = DefaultWorkSeconds
	}
	if d.RestSeconds <= 0 {
		d.RestSeconds = DefaultRestSeconds
	}
	if d.SetRestSeconds <= 0 {
		d.SetRestSeconds = DefaultSetRestSeconds
	}
	return d
}

// Exercise is one work slot of an interval set
type Exercise struct {
	ExerciseID  string
	Name        string
	WorkSeconds int
	RestAfter   int
}

// Set is an ordered group of exercises followed by a set-level rest
type Set struct {
	Exercises       []Exercise
	RestBetweenSets int
}

// Config is the full interval structure, repeated TotalRounds times
type Config struct {
	Sets        []Set
	TotalRounds int
}

// Normalize fills missing durations with defaults, drops empty sets and
// guarantees at least one round
func (c Config) Normalize(d Defaults) Config {
	d = d.orFallback()
	out := Config{TotalRounds: c.TotalRounds}
	if out.TotalRounds < 1 {
		out.TotalRounds = 1
	}
	for _, set := range c.Sets {
		if len(set.Exercises) == 0 {
			continue
		}
		ns := Set{RestBetweenSets: set.RestBetweenSets}
		if ns.RestBetweenSets <= 0 {
			ns.RestBetweenSets = d.SetRestSeconds
		}
		for _, ex := range set.Exercises {
			if ex.WorkSeconds <= 0 {
				ex.WorkSeconds = d.WorkSeconds
			}
			if ex.RestAfter <= 0 {
				ex.RestAfter = d.RestSeconds
			}
			ns.Exercises = append(ns.Exercises, ex)
		}
		out.Sets = append(out.Sets, ns)
	}
	return out
}

// Empty reports whether there is nothing to schedule
func (c Config) Empty() bool {
	return len(c.Sets) == 0
}

// FromBlock builds the interval configuration of a circuit or Tabata block.
// Without explicit interval sets every exercise forms one set; Tabata uses
// its classic 20s/10s rhythm.
func FromBlock(b *workout.Block, d Defaults) Config {
	cfg := Config{TotalRounds: b.EffectiveRounds()}

	names := make(map[string]string, len(b.Exercises))
	for _, e := range b.Exercises {
		names[e.ID] = e.DisplayName()
	}

	if len(b.Params.IntervalSets) > 0 {
		for _, def := range b.Params.IntervalSets {
			set := Set{RestBetweenSets: def.RestBetweenSets}
			for _, ie := range def.Exercises {
				set.Exercises = append(set.Exercises, Exercise{
					ExerciseID:  ie.ExerciseID,
					Name:        names[ie.ExerciseID],
					WorkSeconds: ie.WorkSeconds,
					RestAfter:   ie.RestAfter,
				})
			}
			cfg.Sets = append(cfg.Sets, set)
		}
		return cfg.Normalize(d)
	}

	set := Set{}
	if b.Type == workout.BlockTypeTabata {
		set.RestBetweenSets = workout.DefaultTabataRestSeconds
	}
	for _, e := range b.Exercises {
		ex := Exercise{ExerciseID: e.ID, Name: e.DisplayName()}
		if b.Type == workout.BlockTypeTabata {
			ex.WorkSeconds = workout.DefaultTabataWorkSeconds
			ex.RestAfter = workout.DefaultTabataRestSeconds
		}
		set.Exercises = append(set.Exercises, ex)
	}
	cfg.Sets = append(cfg.Sets, set)
	return cfg.Normalize(d)
}
