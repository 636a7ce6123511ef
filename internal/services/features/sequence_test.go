package features

import (
	"testing"

	"LoadPulse/internal/domain/models"
)

func denseHistory(days int) *History {
	var sessions []models.WorkoutSession
	var logs []models.DailyWellnessLog
	for i := 0; i < days; i++ {
		if i%7 != 6 { // one rest day a week
			sessions = append(sessions, session(day(i), 4, 7))
		}
		logs = append(logs, wellness(day(i), 3))
	}
	return NewHistory(sessions, logs)
}

func TestBuildSequencePadsShortHistory(t *testing.T) {
	h := denseHistory(10)
	seq := BuildSequence(day(9), h, models.UserTrainingConfig{}, 28)

	if len(seq.Days) != 28 {
		t.Fatalf("sequence length = %d, want 28", len(seq.Days))
	}
	if !seq.EndDate.Equal(day(9)) {
		t.Fatalf("end date = %v, want %v", seq.EndDate, day(9))
	}
	if got := seq.RealDays(); got != 10 {
		t.Fatalf("real days = %d, want 10", got)
	}
	for i := 0; i < 18; i++ {
		if !seq.Days[i].Padded {
			t.Fatalf("day %d should be padding", i)
		}
		for c, v := range seq.Days[i].Channels {
			if v != 0 {
				t.Fatalf("padding day %d channel %d = %v, want 0", i, c, v)
			}
		}
	}
	if seq.Days[27].Padded {
		t.Fatalf("last day should be real")
	}
}

func TestTrainingWindowsWeeklyStep(t *testing.T) {
	h := denseHistory(70)
	windows := TrainingWindows(h, models.UserTrainingConfig{}, 28, 5)

	if len(windows) != 5 {
		t.Fatalf("windows = %d, want 5", len(windows))
	}
	for i, w := range windows {
		// The earliest candidate leans on the padding budget (5 of 28 days),
		// then the weekly step takes over.
		wantEnd := day(22 + 7*i)
		if !w.Sequence.EndDate.Equal(wantEnd) {
			t.Fatalf("window %d ends %v, want %v", i, w.Sequence.EndDate, wantEnd)
		}
		if len(w.LabelDays) != models.HorizonDays {
			t.Fatalf("window %d has %d label days, want %d", i, len(w.LabelDays), models.HorizonDays)
		}
		if !w.LabelDays[0].Equal(wantEnd.AddDate(0, 0, 1)) {
			t.Fatalf("window %d first label day = %v, want day after the sequence", i, w.LabelDays[0])
		}
	}
}

func TestTrainingWindowsDensifyEightWeeks(t *testing.T) {
	// 56 dense days leave room for only 3 weekly candidates; the step
	// densifies so the sample floor is still reachable.
	h := denseHistory(56)
	windows := TrainingWindows(h, models.UserTrainingConfig{}, 28, 5)

	if len(windows) < 5 {
		t.Fatalf("windows = %d, want at least 5", len(windows))
	}
	last := windows[len(windows)-1].Sequence.EndDate
	if last.After(day(55 - models.HorizonDays)) {
		t.Fatalf("last window ends %v, label horizon would run past history", last)
	}
}

func TestTrainingWindowsAtEligibilityFloor(t *testing.T) {
	// 42 days is one sequence plus one horizon: daily step plus padded
	// candidates still produce the minimum sample count.
	h := denseHistory(42)
	windows := TrainingWindows(h, models.UserTrainingConfig{}, 28, 5)

	if len(windows) < 5 {
		t.Fatalf("windows = %d, want at least 5", len(windows))
	}
}

func TestTrainingWindowsEmptyHistory(t *testing.T) {
	h := NewHistory(nil, nil)
	if windows := TrainingWindows(h, models.UserTrainingConfig{}, 28, 5); windows != nil {
		t.Fatalf("expected no windows for empty history, got %d", len(windows))
	}
}

func TestTrainingWindowsSkipSparse(t *testing.T) {
	// Signal only every fifth day: each candidate window is ~80% silent.
	var sessions []models.WorkoutSession
	for i := 0; i < 70; i += 5 {
		sessions = append(sessions, session(day(i), 4, 7))
	}
	h := NewHistory(sessions, nil)

	if windows := TrainingWindows(h, models.UserTrainingConfig{}, 28, 5); len(windows) != 0 {
		t.Fatalf("sparse history produced %d windows, want 0", len(windows))
	}
}
