package models

import "time"

// Channel indices into DailyFeatureVector.Channels. The channel layout is
// part of the model's versioned contract: reordering or resizing it
// invalidates persisted weights.
const (
	ChVolume = iota // total completed sets for the day
	ChAvgExertion
	ChMaxExertion
	ChAvgIntensity // estimated %1RM, 0-1
	ChACWR
	ChDaysSinceRest
	ChDaysSinceDeload
	ChWeekVolumeChange // week-over-week volume delta, fraction
	ChExertionTrend    // 7-day regression slope, clamped [-1,1]
	ChDayOfWeek        // 0=Monday .. 6=Sunday
	ChRestDay          // 1 when no workout
	ChPhase
	NumChannels
)

// Fatigue horizon: the model always emits one score per day, 14 days out.
const HorizonDays = 14

// DefaultSequenceLength is the input window in days.
const DefaultSequenceLength = 28

// TrainingPhase is the rule-based tag for the trailing training block.
type TrainingPhase string

const (
	PhaseAccumulation    TrainingPhase = "accumulation"
	PhaseIntensification TrainingPhase = "intensification"
	PhaseDeload          TrainingPhase = "deload"
	PhaseUnknown         TrainingPhase = "unknown"
)

// ChannelValue maps a phase onto its fixed channel encoding.
func (p TrainingPhase) ChannelValue() float64 {
	switch p {
	case PhaseAccumulation:
		return 1
	case PhaseIntensification:
		return 2
	case PhaseDeload:
		return 3
	default:
		return 0
	}
}

// DailyFeatureVector is the derived per-day signal: exactly NumChannels raw
// (pre-normalization) scalars plus per-muscle volume for explanations.
// Ephemeral; never persisted.
type DailyFeatureVector struct {
	Date         time.Time
	Channels     [NumChannels]float64
	MuscleVolume map[MuscleGroup]float64
	Phase        TrainingPhase

	// HasSignal is true when the day carried a workout or a wellness log.
	// Padding vectors and silent gap days leave it false.
	HasSignal bool

	// Padded is true for zero vectors synthesized before recorded history.
	Padded bool
}

// FeatureSequence is an ordered run of exactly Length daily vectors ending at
// EndDate, left-padded with zero vectors when history is short.
type FeatureSequence struct {
	EndDate time.Time
	Days    []DailyFeatureVector
}

// RealDays counts entries backed by actual history (non-padding).
func (s *FeatureSequence) RealDays() int {
	n := 0
	for i := range s.Days {
		if !s.Days[i].Padded {
			n++
		}
	}
	return n
}

// SignalDays counts entries that carried a workout or wellness log.
func (s *FeatureSequence) SignalDays() int {
	n := 0
	for i := range s.Days {
		if s.Days[i].HasSignal {
			n++
		}
	}
	return n
}

// TrainingSample pairs an input sequence with its forward-looking fatigue
// labels, one per horizon day, each in [0,1].
type TrainingSample struct {
	Sequence FeatureSequence
	Labels   [HorizonDays]float64
}
