package service

import (
	"context"
	"errors"

	"LoadPulse/internal/domain/models"
)

// Degradation sentinels. These are documented results, not faults: the
// caller is expected to branch on them with errors.Is and fall back to the
// host application's rule-based estimator. Nothing in the engine may
// surface an unhandled fault into the workout-logging path.
var (
	// ErrInsufficientData: too little history to predict or train on.
	ErrInsufficientData = errors.New("forecast: insufficient history")

	// ErrUnavailable: the host lacks a prerequisite (no durable storage,
	// numeric backend not initialized). Degrade once, log once.
	ErrUnavailable = errors.New("forecast: engine unavailable")

	// ErrNumeric: the model surfaced NaN/Inf; the result was discarded.
	ErrNumeric = errors.New("forecast: numeric failure")
)

// FatigueForecaster produces a 14-day fatigue forecast from raw history.
type FatigueForecaster interface {
	Predict(ctx context.Context, userID string, history []models.WorkoutSession,
		wellness []models.DailyWellnessLog, cfg models.UserTrainingConfig) (*models.PredictionResult, error)
}

// OutcomeRecorder folds a freshly completed workout into the user's model.
type OutcomeRecorder interface {
	RecordWorkoutOutcome(ctx context.Context, userID string, workout models.WorkoutSession,
		history []models.WorkoutSession, wellness []models.DailyWellnessLog, cfg models.UserTrainingConfig) error
}

// ModelAdmin exposes model lifecycle queries and teardown.
type ModelAdmin interface {
	HasTrainedModel(ctx context.Context, userID string) (bool, error)
	DeleteModel(ctx context.Context, userID string) error
}
