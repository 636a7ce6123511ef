package training

import (
	"time"

	"LoadPulse/internal/domain/models"
	"LoadPulse/internal/services/features"
)

// Label fallbacks. Explicit recovery self-reports always win; workout days
// without one fall back to the session's own exertion; true rest days get a
// low neutral value rather than zero, since recovery is never instant.
const (
	restDayLabel           = 0.20
	unreportedWorkoutLabel = 0.50
)

// FatigueLabel derives the 0-1 fatigue target for one day.
//
// A perceived recovery of 5 ("fully recovered") maps to fatigue 0 and a 1
// maps to 1. The exertion proxy divides average session RPE by the scale
// ceiling of 10.
func FatigueLabel(day time.Time, h *features.History) float64 {
	if log := h.LogOn(day); log != nil && log.PerceivedRecovery >= 1 && log.PerceivedRecovery <= 5 {
		return float64(5-log.PerceivedRecovery) / 4
	}

	sessions := h.WorkoutsOn(day)
	if len(sessions) == 0 {
		return restDayLabel
	}

	sum, n := 0.0, 0
	for _, s := range sessions {
		if rpe := s.AvgExertion(); rpe > 0 {
			sum += rpe
			n++
		}
	}
	if n == 0 {
		return unreportedWorkoutLabel
	}
	label := sum / float64(n) / 10
	if label > 1 {
		label = 1
	}
	return label
}

// LabelWindow derives the full horizon of labels for a training window.
func LabelWindow(days []time.Time, h *features.History) [models.HorizonDays]float64 {
	var out [models.HorizonDays]float64
	for i, d := range days {
		if i >= models.HorizonDays {
			break
		}
		out[i] = FatigueLabel(d, h)
	}
	return out
}

// ProvisionalLabels builds the incremental-update target: the completed
// workout's own exertion profile repeated across the horizon. It is a
// placeholder that the next full retrain, trained on real self-reports,
// supersedes.
func ProvisionalLabels(workout *models.WorkoutSession) [models.HorizonDays]float64 {
	level := unreportedWorkoutLabel
	if rpe := workout.AvgExertion(); rpe > 0 {
		level = rpe / 10
		if level > 1 {
			level = 1
		}
	}
	var out [models.HorizonDays]float64
	for i := range out {
		out[i] = level
	}
	return out
}
