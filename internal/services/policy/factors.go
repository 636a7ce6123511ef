package policy

import (
	"fmt"

	"LoadPulse/internal/domain/models"
	"LoadPulse/internal/services/features"
)

// Factor trigger thresholds over the trailing 7 input days.
const (
	highWeeklySets      = 25.0
	highAvgExertion     = 8.0
	acwrSafeLow         = 0.8
	acwrSafeHigh        = 1.5
	shortSleepHours     = 6.5
	poorSleepQuality    = 2.5
	consecutiveTrainMin = 5
)

// ContributingFactors re-inspects the trailing 7 real input days for the
// concrete triggers behind an elevated forecast.
func ContributingFactors(seq *models.FeatureSequence, h *features.History) []string {
	window := trailingReal(seq, 7)
	if len(window) == 0 {
		return nil
	}

	var out []string

	weeklySets := 0.0
	for _, fv := range window {
		weeklySets += fv.Channels[models.ChVolume]
	}
	if weeklySets >= highWeeklySets {
		out = append(out, fmt.Sprintf("elevated training volume (%.0f sets this week)", weeklySets))
	}

	rpeSum, rpeDays := 0.0, 0
	for _, fv := range window {
		if v := fv.Channels[models.ChAvgExertion]; v > 0 {
			rpeSum += v
			rpeDays++
		}
	}
	if rpeDays > 0 && rpeSum/float64(rpeDays) >= highAvgExertion {
		out = append(out, "consistently high perceived exertion")
	}

	last := window[len(window)-1]
	if acwr := last.Channels[models.ChACWR]; acwr < acwrSafeLow || acwr > acwrSafeHigh {
		out = append(out, fmt.Sprintf("acute:chronic workload ratio outside safe range (%.2f)", acwr))
	}

	if sleepDeficit(window, h) {
		out = append(out, "insufficient sleep over the past week")
	}

	if streak := trailingTrainingStreak(seq); streak >= consecutiveTrainMin {
		out = append(out, fmt.Sprintf("%d consecutive training days without rest", streak))
	}

	return out
}

func trailingReal(seq *models.FeatureSequence, n int) []models.DailyFeatureVector {
	var out []models.DailyFeatureVector
	for i := len(seq.Days) - 1; i >= 0 && len(out) < n; i-- {
		if seq.Days[i].Padded {
			break
		}
		out = append([]models.DailyFeatureVector{seq.Days[i]}, out...)
	}
	return out
}

func sleepDeficit(window []models.DailyFeatureVector, h *features.History) bool {
	hoursSum, hoursN := 0.0, 0
	qualSum, qualN := 0.0, 0
	for _, fv := range window {
		log := h.LogOn(fv.Date)
		if log == nil {
			continue
		}
		if log.SleepHours > 0 {
			hoursSum += log.SleepHours
			hoursN++
		}
		if log.SleepQuality > 0 {
			qualSum += float64(log.SleepQuality)
			qualN++
		}
	}
	if hoursN > 0 && hoursSum/float64(hoursN) < shortSleepHours {
		return true
	}
	return qualN > 0 && qualSum/float64(qualN) < poorSleepQuality
}

// trailingTrainingStreak counts consecutive training days ending at the
// sequence's last day.
func trailingTrainingStreak(seq *models.FeatureSequence) int {
	streak := 0
	for i := len(seq.Days) - 1; i >= 0; i-- {
		d := seq.Days[i]
		if d.Padded || d.Channels[models.ChRestDay] == 1 {
			break
		}
		streak++
	}
	return streak
}
