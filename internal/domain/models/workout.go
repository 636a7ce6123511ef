package models

import "time"

// MuscleGroup identifies the primary muscle group an exercise targets.
type MuscleGroup string

const (
	MuscleChest     MuscleGroup = "chest"
	MuscleBack      MuscleGroup = "back"
	MuscleLegs      MuscleGroup = "legs"
	MuscleShoulders MuscleGroup = "shoulders"
	MuscleArms      MuscleGroup = "arms"
	MuscleCore      MuscleGroup = "core"
	MuscleOther     MuscleGroup = "other"
)

// SetEntry is one completed set within an exercise log.
// Exertion is RPE on a 1-10 scale; 0 means not reported.
type SetEntry struct {
	Weight   float64 `json:"weight"`
	Reps     int     `json:"reps"`
	Exertion float64 `json:"exertion,omitempty"`
}

// ExerciseLog groups the sets performed for a single exercise.
type ExerciseLog struct {
	Exercise string      `json:"exercise"`
	Muscle   MuscleGroup `json:"muscle"`
	Sets     []SetEntry  `json:"sets"`
}

// WorkoutSession is a completed session. Owned by the host application's
// storage layer; the engine only reads it.
type WorkoutSession struct {
	ID        string        `json:"id"`
	Date      time.Time     `json:"date"`
	Exercises []ExerciseLog `json:"exercises"`
	Duration  time.Duration `json:"duration,omitempty"`
	Notes     string        `json:"notes,omitempty"`
}

// TotalSets counts completed sets across all exercises.
func (w *WorkoutSession) TotalSets() int {
	n := 0
	for _, ex := range w.Exercises {
		n += len(ex.Sets)
	}
	return n
}

// AvgExertion averages the reported set RPEs. Sets without a report are
// skipped; returns 0 when nothing was reported.
func (w *WorkoutSession) AvgExertion() float64 {
	sum, n := 0.0, 0
	for _, ex := range w.Exercises {
		for _, s := range ex.Sets {
			if s.Exertion > 0 {
				sum += s.Exertion
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// DailyWellnessLog is the per-date self-report. At most one per day.
// All ratings are on a 1-5 scale; 0 means the field was not answered.
type DailyWellnessLog struct {
	Date               time.Time `json:"date"`
	SleepQuality       int       `json:"sleep_quality,omitempty"`
	SleepHours         float64   `json:"sleep_hours,omitempty"`
	Stress             int       `json:"stress,omitempty"`
	Soreness           int       `json:"soreness,omitempty"`
	PerceivedRecovery  int       `json:"perceived_recovery,omitempty"`
	EnergyLevel        int       `json:"energy_level,omitempty"`
}

// ExperienceLevel describes training age; it scales a few extractor
// thresholds.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// UserTrainingConfig carries optional per-user context for feature
// extraction. The zero value is valid: the extractor substitutes neutral
// defaults for anything missing.
type UserTrainingConfig struct {
	Experience   ExperienceLevel    `json:"experience,omitempty"`
	OneRepMaxes  map[string]float64 `json:"one_rep_maxes,omitempty"`
}
