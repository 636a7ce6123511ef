package features

import (
	"math"
	"time"

	"LoadPulse/internal/domain/models"
	"LoadPulse/pkg/util"
)

// Volume is measured in completed sets per day. The thresholds below are in
// sets per week and scale with training age.
const (
	// NeutralIntensity is assumed when no 1RM estimate exists for an
	// exercise.
	NeutralIntensity = 0.70

	// Trend scaling: a slope of ±0.5 RPE/day maps to ±1.
	trendExtremeSlope = 0.5

	// Backward scan caps.
	restScanDays   = 30
	deloadScanDays = 84

	// Minimum reported-exertion days for a trend to count.
	minTrendDays = 3
)

// weeklyVolumeBounds returns (low, high) weekly set counts for the phase and
// deload rules.
func weeklyVolumeBounds(exp models.ExperienceLevel) (float64, float64) {
	switch exp {
	case models.ExperienceBeginner:
		return 8, 16
	case models.ExperienceAdvanced:
		return 15, 28
	default:
		return 12, 22
	}
}

// ExtractDay derives the feature vector for one day. Pure: no state is kept
// across calls, and missing context (empty history, absent config fields)
// yields neutral values rather than an error. Every channel is finite.
func ExtractDay(date time.Time, h *History, cfg models.UserTrainingConfig) models.DailyFeatureVector {
	day := util.Day(date)

	fv := models.DailyFeatureVector{
		Date:      day,
		HasSignal: h.HasSignal(day),
	}

	sessions := h.WorkoutsOn(day)
	fv.MuscleVolume = muscleVolume(sessions)

	volume := dayVolume(sessions)
	avgRPE, maxRPE := dayExertion(sessions)

	fv.Channels[models.ChVolume] = volume
	fv.Channels[models.ChAvgExertion] = avgRPE
	fv.Channels[models.ChMaxExertion] = maxRPE
	fv.Channels[models.ChAvgIntensity] = dayIntensity(sessions, cfg)
	fv.Channels[models.ChACWR] = acwr(day, h)
	fv.Channels[models.ChDaysSinceRest] = float64(daysSinceRest(day, h))
	fv.Channels[models.ChDaysSinceDeload] = float64(daysSinceDeload(day, h, cfg))
	fv.Channels[models.ChWeekVolumeChange] = weekVolumeChange(day, h)
	fv.Channels[models.ChExertionTrend] = ExertionTrend(day, h)
	fv.Channels[models.ChDayOfWeek] = float64(util.WeekdayIndex(day))
	if len(sessions) == 0 {
		fv.Channels[models.ChRestDay] = 1
	}

	fv.Phase = detectPhase(day, h, cfg)
	fv.Channels[models.ChPhase] = fv.Phase.ChannelValue()

	// Contract: no NaN/Inf ever leaves the extractor.
	for i := range fv.Channels {
		fv.Channels[i] = finiteOrZero(fv.Channels[i])
	}
	return fv
}

func dayVolume(sessions []*models.WorkoutSession) float64 {
	n := 0
	for _, s := range sessions {
		n += s.TotalSets()
	}
	return float64(n)
}

func muscleVolume(sessions []*models.WorkoutSession) map[models.MuscleGroup]float64 {
	if len(sessions) == 0 {
		return nil
	}
	mv := make(map[models.MuscleGroup]float64)
	for _, s := range sessions {
		for _, ex := range s.Exercises {
			m := ex.Muscle
			if m == "" {
				m = models.MuscleOther
			}
			mv[m] += float64(len(ex.Sets))
		}
	}
	return mv
}

func dayExertion(sessions []*models.WorkoutSession) (avg, max float64) {
	sum, n := 0.0, 0
	for _, s := range sessions {
		for _, ex := range s.Exercises {
			for _, set := range ex.Sets {
				if set.Exertion <= 0 {
					continue
				}
				sum += set.Exertion
				if set.Exertion > max {
					max = set.Exertion
				}
				n++
			}
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), max
}

// dayIntensity estimates average %1RM across the day's sets. Sets on
// exercises without a 1RM estimate contribute the neutral 70%.
func dayIntensity(sessions []*models.WorkoutSession, cfg models.UserTrainingConfig) float64 {
	sum, n := 0.0, 0
	for _, s := range sessions {
		for _, ex := range s.Exercises {
			oneRM, known := cfg.OneRepMaxes[ex.Exercise]
			for _, set := range ex.Sets {
				v := NeutralIntensity
				if known && oneRM > 0 && set.Weight > 0 {
					v = set.Weight / oneRM
					if v > 1 {
						v = 1
					}
				}
				sum += v
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// windowVolume sums daily volume over the window of `days` days ending at
// (and including) day.
func windowVolume(day time.Time, h *History, days int) float64 {
	total := 0.0
	for i := 0; i < days; i++ {
		total += dayVolume(h.WorkoutsOn(day.AddDate(0, 0, -i)))
	}
	return total
}

// acwr computes the acute:chronic workload ratio: 7-day volume over the
// 4-week average weekly volume. A zero chronic load means there is no
// baseline to compare against, so the ratio defaults to a neutral 1.0.
func acwr(day time.Time, h *History) float64 {
	acute := windowVolume(day, h, 7)
	chronic := windowVolume(day, h, 28) / 4
	if chronic == 0 {
		return 1.0
	}
	return acute / chronic
}

// daysSinceRest scans backwards for the last day without a workout, capped
// at restScanDays.
func daysSinceRest(day time.Time, h *History) int {
	for i := 0; i <= restScanDays; i++ {
		if dayVolume(h.WorkoutsOn(day.AddDate(0, 0, -i))) == 0 {
			return i
		}
	}
	return restScanDays
}

// isDeloadDay reports whether the trailing week ending at day looks like a
// deload: some training happened but weekly volume sits below the low bound.
func isDeloadDay(day time.Time, h *History, cfg models.UserTrainingConfig) bool {
	low, _ := weeklyVolumeBounds(cfg.Experience)
	wv := windowVolume(day, h, 7)
	return wv > 0 && wv < low
}

// daysSinceDeload scans backwards for the last detected deload day, capped
// at deloadScanDays.
func daysSinceDeload(day time.Time, h *History, cfg models.UserTrainingConfig) int {
	for i := 0; i <= deloadScanDays; i++ {
		if isDeloadDay(day.AddDate(0, 0, -i), h, cfg) {
			return i
		}
	}
	return deloadScanDays
}

// weekVolumeChange computes the week-over-week volume delta as a fraction,
// clamped to [-1,1] (±100%).
func weekVolumeChange(day time.Time, h *History) float64 {
	cur := windowVolume(day, h, 7)
	prev := windowVolume(day.AddDate(0, 0, -7), h, 7)
	if prev == 0 {
		return 0
	}
	return clamp((cur-prev)/prev, -1, 1)
}

// ExertionTrend fits a least-squares slope to daily average exertion over
// the trailing 7 days. Fewer than minTrendDays reporting days yields 0. The
// slope is scaled so that ±trendExtremeSlope RPE/day maps to ±1, clamped.
func ExertionTrend(day time.Time, h *History) float64 {
	var xs, ys []float64
	for i := 6; i >= 0; i-- {
		d := day.AddDate(0, 0, -i)
		avg, _ := dayExertion(h.WorkoutsOn(d))
		if avg <= 0 {
			continue
		}
		xs = append(xs, float64(6-i))
		ys = append(ys, avg)
	}
	if len(xs) < minTrendDays {
		return 0
	}
	slope := leastSquaresSlope(xs, ys)
	return clamp(slope/trendExtremeSlope, -1, 1)
}

// leastSquaresSlope returns the OLS slope of ys over xs. Zero when the xs
// are degenerate.
func leastSquaresSlope(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sx, sy, sxy, sxx float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxy += xs[i] * ys[i]
		sxx += xs[i] * xs[i]
	}
	denom := n*sxx - sx*sx
	if denom == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / denom
}

// detectPhase tags the trailing 7-day block. Rules, in order: low weekly
// volume with some training is a deload; high average intensity or exertion
// is intensification; high weekly volume is accumulation.
func detectPhase(day time.Time, h *History, cfg models.UserTrainingConfig) models.TrainingPhase {
	low, high := weeklyVolumeBounds(cfg.Experience)
	wv := windowVolume(day, h, 7)

	switch {
	case wv == 0:
		return models.PhaseUnknown
	case wv < low:
		return models.PhaseDeload
	}

	var rpeSum, inteSum float64
	days := 0
	for i := 0; i < 7; i++ {
		sessions := h.WorkoutsOn(day.AddDate(0, 0, -i))
		if len(sessions) == 0 {
			continue
		}
		avg, _ := dayExertion(sessions)
		rpeSum += avg
		inteSum += dayIntensity(sessions, cfg)
		days++
	}
	if days > 0 {
		avgRPE := rpeSum / float64(days)
		avgIntensity := inteSum / float64(days)
		if avgRPE >= 8.5 || avgIntensity >= 0.85 {
			return models.PhaseIntensification
		}
	}

	if wv >= high {
		return models.PhaseAccumulation
	}
	return models.PhaseUnknown
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
