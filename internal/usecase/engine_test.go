package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"LoadPulse/internal/domain/models"
	drepo "LoadPulse/internal/domain/repository"
	"LoadPulse/internal/domain/service"
	internalrepo "LoadPulse/internal/repository"
	"LoadPulse/internal/services/training"
	"LoadPulse/pkg/cache"
	applogger "LoadPulse/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordPrediction(string)       {}
func (nopMetrics) RecordTrainingRun(string)      {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordLatency(string, float64) {}
func (nopMetrics) SetCachedModels(int)           {}

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

func fixtureHistory(days int) ([]models.WorkoutSession, []models.DailyWellnessLog) {
	var sessions []models.WorkoutSession
	var logs []models.DailyWellnessLog
	for i := 0; i < days; i++ {
		if i%7 != 6 {
			sessions = append(sessions, session(day(i), 4, 7))
		}
		logs = append(logs, models.DailyWellnessLog{Date: day(i), PerceivedRecovery: 3})
	}
	return sessions, logs
}

func newTestEngine(t *testing.T, store drepo.ModelStore) *ForecastEngine {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	trainCfg := training.DefaultConfig(28)
	trainCfg.MaxEpochs = 1

	engine, err := NewForecastEngine(Config{
		SequenceLength: 28,
		Training:       trainCfg,
	}, store, cache.NewMemoryCache(), nil, l, nopMetrics{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func newTestStore(t *testing.T) *internalrepo.FileModelStore {
	t.Helper()
	store, err := internalrepo.NewFileModelStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return store
}

func TestPredictEmptyHistory(t *testing.T) {
	engine := newTestEngine(t, newTestStore(t))

	_, err := engine.Predict(context.Background(), "u1", nil, nil, models.UserTrainingConfig{})
	if !errors.Is(err, service.ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestPredictShortHistory(t *testing.T) {
	engine := newTestEngine(t, newTestStore(t))
	sessions, logs := fixtureHistory(10)

	_, err := engine.Predict(context.Background(), "u1", sessions, logs, models.UserTrainingConfig{})
	if !errors.Is(err, service.ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestPredictTrainsAndPersists(t *testing.T) {
	engine := newTestEngine(t, newTestStore(t))
	sessions, logs := fixtureHistory(70)
	ctx := context.Background()

	res, err := engine.Predict(ctx, "u1", sessions, logs, models.UserTrainingConfig{})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(res.Days) != models.HorizonDays {
		t.Fatalf("forecast days = %d, want %d", len(res.Days), models.HorizonDays)
	}
	for i, d := range res.Days {
		if d.Level < 0 || d.Level > 1 {
			t.Fatalf("day %d level = %v, outside [0,1]", i, d.Level)
		}
		if d.Confidence <= 0 || d.Confidence > 1 {
			t.Fatalf("day %d confidence = %v", i, d.Confidence)
		}
		if d.Tier == "" || d.Recommendation == "" {
			t.Fatalf("day %d missing tier or recommendation", i)
		}
	}
	if res.ModelVersion != engine.ModelVersion() {
		t.Fatalf("model version = %q, want %q", res.ModelVersion, engine.ModelVersion())
	}

	trained, err := engine.HasTrainedModel(ctx, "u1")
	if err != nil || !trained {
		t.Fatalf("HasTrainedModel = (%v, %v), want (true, nil)", trained, err)
	}

	// Second call reuses the cached model instead of retraining.
	if _, err := engine.Predict(ctx, "u1", sessions, logs, models.UserTrainingConfig{}); err != nil {
		t.Fatalf("second predict: %v", err)
	}
}

func TestPredictEightWeeksOfHistory(t *testing.T) {
	engine := newTestEngine(t, newTestStore(t))
	sessions, logs := fixtureHistory(56)
	ctx := context.Background()

	res, err := engine.Predict(ctx, "u1", sessions, logs, models.UserTrainingConfig{})
	if err != nil {
		t.Fatalf("eight weeks of dense history must train and forecast: %v", err)
	}
	if len(res.Days) != models.HorizonDays {
		t.Fatalf("forecast days = %d, want %d", len(res.Days), models.HorizonDays)
	}

	trained, err := engine.HasTrainedModel(ctx, "u1")
	if err != nil || !trained {
		t.Fatalf("HasTrainedModel = (%v, %v), want (true, nil)", trained, err)
	}
}

func TestRecordWorkoutOutcome(t *testing.T) {
	engine := newTestEngine(t, newTestStore(t))
	sessions, logs := fixtureHistory(30)
	workout := sessions[len(sessions)-1]
	ctx := context.Background()

	// No queue configured: the update applies synchronously.
	err := engine.RecordWorkoutOutcome(ctx, "u1", workout, sessions, logs, models.UserTrainingConfig{})
	if err != nil {
		t.Fatalf("record outcome: %v", err)
	}

	trained, err := engine.HasTrainedModel(ctx, "u1")
	if err != nil || !trained {
		t.Fatalf("no snapshot persisted after outcome: (%v, %v)", trained, err)
	}
}

func TestDeleteModel(t *testing.T) {
	engine := newTestEngine(t, newTestStore(t))
	sessions, logs := fixtureHistory(70)
	ctx := context.Background()

	if _, err := engine.Predict(ctx, "u1", sessions, logs, models.UserTrainingConfig{}); err != nil {
		t.Fatalf("predict: %v", err)
	}
	if err := engine.DeleteModel(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	trained, err := engine.HasTrainedModel(ctx, "u1")
	if err != nil || trained {
		t.Fatalf("HasTrainedModel after delete = (%v, %v), want (false, nil)", trained, err)
	}
}

func TestCorruptSnapshotRebuilt(t *testing.T) {
	store := newTestStore(t)
	engine := newTestEngine(t, store)
	sessions, logs := fixtureHistory(70)
	ctx := context.Background()

	if err := store.Save(ctx, "u1", engine.ModelVersion(), []byte("garbage")); err != nil {
		t.Fatalf("seed corrupt snapshot: %v", err)
	}

	res, err := engine.Predict(ctx, "u1", sessions, logs, models.UserTrainingConfig{})
	if err != nil {
		t.Fatalf("predict over corrupt snapshot: %v", err)
	}
	if len(res.Days) != models.HorizonDays {
		t.Fatalf("forecast days = %d", len(res.Days))
	}
}

func TestUnavailableWithoutStore(t *testing.T) {
	engine := newTestEngine(t, nil)

	_, err := engine.Predict(context.Background(), "u1", nil, nil, models.UserTrainingConfig{})
	if !errors.Is(err, service.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
