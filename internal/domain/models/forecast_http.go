package models

// Requests for the forecast HTTP endpoints. Defined in domain for consistency and reuse.

type ForecastRequest struct {
	UserID   string             `json:"user_id" validate:"required"`
	History  []WorkoutSession   `json:"history"`
	Wellness []DailyWellnessLog `json:"wellness"`
	Config   UserTrainingConfig `json:"config"`
}

type OutcomeRequest struct {
	UserID   string             `json:"user_id" validate:"required"`
	Workout  WorkoutSession     `json:"workout" validate:"required"`
	History  []WorkoutSession   `json:"history"`
	Wellness []DailyWellnessLog `json:"wellness"`
	Config   UserTrainingConfig `json:"config"`
}

type ModelStatusRequest struct {
	UserID string `query:"user_id" json:"user_id" validate:"required"`
}

// EngineStatus reports model availability for a user.
type EngineStatus struct {
	UserID       string `json:"user_id"`
	Trained      bool   `json:"trained"`
	ModelVersion string `json:"model_version,omitempty"`
}

// UnavailableResponse is the documented degradation payload. The host
// application falls back to its rule-based estimator when it sees one.
type UnavailableResponse struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason"`
}
