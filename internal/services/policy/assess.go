package policy

import (
	"fmt"
	"math"
	"time"

	"LoadPulse/internal/domain/models"
	"LoadPulse/internal/services/features"
)

// Confidence shape: certainty decays with forecast distance and grows with
// how much real (non-padded) history backed the input.
const (
	confidenceFloor = 0.35
	confidenceDecay = 0.06
)

// Assess turns a raw model output vector into the full per-day result:
// tiers, recommendations, confidence and contributing factors, plus the
// deload decision.
func Assess(out []float64, seq *models.FeatureSequence, h *features.History, version string, now time.Time) *models.PredictionResult {
	realFrac := float64(seq.RealDays()) / float64(len(seq.Days))
	base := confidenceFloor + (1-confidenceFloor)*realFrac

	factors := ContributingFactors(seq, h)

	res := &models.PredictionResult{
		GeneratedAt:  now,
		ModelVersion: version,
		Days:         make([]models.FatiguePrediction, len(out)),
	}

	confSum := 0.0
	for i, level := range out {
		date := seq.EndDate.AddDate(0, 0, i+1)
		tier := models.TierFor(level)
		conf := base * math.Exp(-confidenceDecay*float64(i))
		confSum += conf

		day := models.FatiguePrediction{
			Date:           date,
			DayOffset:      i,
			Level:          level,
			Confidence:     conf,
			Tier:           tier,
			Recommendation: recommendation(tier, date),
		}
		if tier != models.RiskLow {
			day.Factors = factors
			if len(factors) == 0 {
				day.Factors = []string{"cumulative training stress"}
			}
		}
		res.Days[i] = day
	}
	res.Confidence = confSum / float64(len(out))
	res.Deload = DeloadWindow(res.Days, seq.EndDate)
	return res
}

func recommendation(tier models.RiskTier, date time.Time) string {
	day := date.Format("Mon Jan 2")
	switch tier {
	case models.RiskCritical:
		return fmt.Sprintf("Schedule rest or active recovery by %s; fatigue is projected to peak.", day)
	case models.RiskHigh:
		return fmt.Sprintf("Plan a lighter session around %s and prioritize sleep.", day)
	case models.RiskModerate:
		return "Train as planned but keep intensity in check and watch recovery markers."
	default:
		return "Training load looks sustainable."
	}
}

// DeloadWindow evaluates the deload rules in order; the first match wins.
func DeloadWindow(days []models.FatiguePrediction, endDate time.Time) *models.DeloadRecommendation {
	// Rule 1: critical fatigue inside the first week.
	for i := 0; i < 7 && i < len(days); i++ {
		if days[i].Level > models.TierCriticalFrom {
			start := days[i].Date.AddDate(0, 0, -3)
			if start.Before(endDate) {
				start = endDate
			}
			return &models.DeloadRecommendation{
				Urgency: models.DeloadUrgent,
				Start:   start,
				End:     days[i].Date,
				Reason:  fmt.Sprintf("critical fatigue projected for %s", days[i].Date.Format("Jan 2")),
			}
		}
	}

	// Rule 2: high fatigue inside the first ten days.
	for i := 0; i < 10 && i < len(days); i++ {
		if days[i].Level > models.TierHighFrom {
			start := days[i].Date.AddDate(0, 0, -2)
			if start.Before(endDate) {
				start = endDate
			}
			return &models.DeloadRecommendation{
				Urgency: models.DeloadRecommended,
				Start:   start,
				End:     days[i].Date.AddDate(0, 0, 2),
				Reason:  fmt.Sprintf("high fatigue projected for %s", days[i].Date.Format("Jan 2")),
			}
		}
	}

	// Rule 3: a clearly rising second week.
	if len(days) >= models.HorizonDays {
		week1 := meanLevel(days[:7])
		week2 := meanLevel(days[7:14])
		if week2-week1 > 0.15 && week2 > models.TierModerateFrom {
			return &models.DeloadRecommendation{
				Urgency: models.DeloadSuggested,
				Start:   endDate.AddDate(0, 0, 8),
				End:     endDate.AddDate(0, 0, 14),
				Reason:  "fatigue is trending upward into the second week",
			}
		}
	}

	return nil
}

func meanLevel(days []models.FatiguePrediction) float64 {
	if len(days) == 0 {
		return 0
	}
	s := 0.0
	for _, d := range days {
		s += d.Level
	}
	return s / float64(len(days))
}
