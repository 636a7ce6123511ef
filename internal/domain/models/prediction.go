package models

import "time"

// RiskTier buckets a predicted fatigue level.
type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskModerate RiskTier = "moderate"
	RiskHigh     RiskTier = "high"
	RiskCritical RiskTier = "critical"
)

// Tier boundaries on the [0,1] fatigue scale.
const (
	TierModerateFrom = 0.30
	TierHighFrom     = 0.70
	TierCriticalFrom = 0.85
)

// TierFor maps a fatigue level onto its risk tier.
func TierFor(level float64) RiskTier {
	switch {
	case level >= TierCriticalFrom:
		return RiskCritical
	case level >= TierHighFrom:
		return RiskHigh
	case level >= TierModerateFrom:
		return RiskModerate
	default:
		return RiskLow
	}
}

// FatiguePrediction is one forecast day.
type FatiguePrediction struct {
	Date           time.Time `json:"date"`
	DayOffset      int       `json:"day_offset"` // 0-indexed; offset i is i+1 days ahead
	Level          float64   `json:"level"`
	Confidence     float64   `json:"confidence"`
	Tier           RiskTier  `json:"tier"`
	Recommendation string    `json:"recommendation"`
	Factors        []string  `json:"factors,omitempty"`
}

// DeloadUrgency orders deload recommendations by how strongly the forecast
// calls for one.
type DeloadUrgency string

const (
	DeloadUrgent      DeloadUrgency = "urgent"
	DeloadRecommended DeloadUrgency = "recommended"
	DeloadSuggested   DeloadUrgency = "suggested"
)

// DeloadRecommendation is a proposed recovery window.
type DeloadRecommendation struct {
	Urgency DeloadUrgency `json:"urgency"`
	Start   time.Time     `json:"start"`
	End     time.Time     `json:"end"`
	Reason  string        `json:"reason"`
}

// PredictionResult is the full 14-day forecast. Ephemeral.
type PredictionResult struct {
	GeneratedAt  time.Time             `json:"generated_at"`
	ModelVersion string                `json:"model_version"`
	Days         []FatiguePrediction   `json:"days"`
	Confidence   float64               `json:"confidence"`
	Deload       *DeloadRecommendation `json:"deload,omitempty"`
}
