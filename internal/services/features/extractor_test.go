package features

import (
	"math"
	"testing"
	"time"

	"LoadPulse/internal/domain/models"
)

// day(0) is Monday, March 2 2026.
func day(n int) time.Time {
	return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func session(d time.Time, sets int, rpe float64) models.WorkoutSession {
	entries := make([]models.SetEntry, sets)
	for i := range entries {
		entries[i] = models.SetEntry{Weight: 100, Reps: 5, Exertion: rpe}
	}
	return models.WorkoutSession{
		ID:   d.Format("2006-01-02"),
		Date: d,
		Exercises: []models.ExerciseLog{
			{Exercise: "back squat", Muscle: models.MuscleLegs, Sets: entries},
		},
	}
}

func wellness(d time.Time, recovery int) models.DailyWellnessLog {
	return models.DailyWellnessLog{Date: d, PerceivedRecovery: recovery}
}

func denseWeek(sets int, rpe float64) *History {
	var sessions []models.WorkoutSession
	var logs []models.DailyWellnessLog
	for i := 0; i < 7; i++ {
		sessions = append(sessions, session(day(i), sets, rpe))
		logs = append(logs, wellness(day(i), 3))
	}
	return NewHistory(sessions, logs)
}

func TestExtractDayTrainingDay(t *testing.T) {
	h := denseWeek(4, 7)
	fv := ExtractDay(day(6), h, models.UserTrainingConfig{})

	if fv.Channels[models.ChVolume] != 4 {
		t.Fatalf("volume = %v, want 4", fv.Channels[models.ChVolume])
	}
	if fv.Channels[models.ChRestDay] != 0 {
		t.Fatalf("rest day flag set on a training day")
	}
	if fv.Channels[models.ChAvgExertion] != 7 || fv.Channels[models.ChMaxExertion] != 7 {
		t.Fatalf("exertion = (%v, %v), want (7, 7)",
			fv.Channels[models.ChAvgExertion], fv.Channels[models.ChMaxExertion])
	}
	// 28 acute sets against a 4-week chronic average of 7.
	if fv.Channels[models.ChACWR] != 4 {
		t.Fatalf("acwr = %v, want 4", fv.Channels[models.ChACWR])
	}
	if fv.Channels[models.ChDayOfWeek] != 6 {
		t.Fatalf("day of week = %v, want 6 (Sunday)", fv.Channels[models.ChDayOfWeek])
	}
	// 28 weekly sets clears the default high bound without high exertion.
	if fv.Phase != models.PhaseAccumulation {
		t.Fatalf("phase = %q, want accumulation", fv.Phase)
	}
	if !fv.HasSignal {
		t.Fatalf("training day should carry signal")
	}
	for i, v := range fv.Channels {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("channel %d is not finite: %v", i, v)
		}
	}
}

func TestExtractDayRestDay(t *testing.T) {
	// Wellness logs only: every day is a rest day with no chronic baseline.
	var logs []models.DailyWellnessLog
	for i := 0; i < 7; i++ {
		logs = append(logs, wellness(day(i), 4))
	}
	h := NewHistory(nil, logs)

	fv := ExtractDay(day(3), h, models.UserTrainingConfig{})
	if fv.Channels[models.ChRestDay] != 1 {
		t.Fatalf("rest day flag not set")
	}
	if fv.Channels[models.ChVolume] != 0 {
		t.Fatalf("volume = %v, want 0", fv.Channels[models.ChVolume])
	}
	if fv.Channels[models.ChACWR] != 1.0 {
		t.Fatalf("acwr without chronic baseline = %v, want neutral 1.0", fv.Channels[models.ChACWR])
	}
	if fv.Phase != models.PhaseUnknown {
		t.Fatalf("phase = %q, want unknown", fv.Phase)
	}
}

func TestExertionTrendRising(t *testing.T) {
	var sessions []models.WorkoutSession
	for i := 0; i < 7; i++ {
		sessions = append(sessions, session(day(i), 3, 5+0.5*float64(i)))
	}
	h := NewHistory(sessions, nil)

	got := ExertionTrend(day(6), h)
	// +0.5 RPE/day is the clamp boundary.
	if got < 0.95 || got > 1 {
		t.Fatalf("trend = %v, want ~1.0", got)
	}
}

func TestExertionTrendNeedsEnoughDays(t *testing.T) {
	sessions := []models.WorkoutSession{
		session(day(0), 3, 5),
		session(day(6), 3, 9),
	}
	h := NewHistory(sessions, nil)

	if got := ExertionTrend(day(6), h); got != 0 {
		t.Fatalf("trend with 2 reporting days = %v, want 0", got)
	}
}

func TestDayIntensity(t *testing.T) {
	h := denseWeek(3, 7)
	fv := ExtractDay(day(6), h, models.UserTrainingConfig{})
	if math.Abs(fv.Channels[models.ChAvgIntensity]-NeutralIntensity) > 1e-9 {
		t.Fatalf("intensity without 1RM = %v, want neutral %v",
			fv.Channels[models.ChAvgIntensity], NeutralIntensity)
	}

	cfg := models.UserTrainingConfig{OneRepMaxes: map[string]float64{"back squat": 200}}
	fv = ExtractDay(day(6), h, cfg)
	if math.Abs(fv.Channels[models.ChAvgIntensity]-0.5) > 1e-9 {
		t.Fatalf("intensity at 100/200 = %v, want 0.5", fv.Channels[models.ChAvgIntensity])
	}
}

func TestDetectPhaseDeload(t *testing.T) {
	h := denseWeek(1, 6) // 7 weekly sets, below the default low bound
	fv := ExtractDay(day(6), h, models.UserTrainingConfig{})

	if fv.Phase != models.PhaseDeload {
		t.Fatalf("phase = %q, want deload", fv.Phase)
	}
	if fv.Channels[models.ChDaysSinceDeload] != 0 {
		t.Fatalf("days since deload = %v, want 0", fv.Channels[models.ChDaysSinceDeload])
	}
}
