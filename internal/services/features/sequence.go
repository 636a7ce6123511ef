package features

import (
	"time"

	"LoadPulse/internal/domain/models"
	"LoadPulse/pkg/util"
)

// maxSilentFraction is the largest share of signal-less days a training
// window may contain. Ordinary rest weeks pass; windows that would be mostly
// fabricated zeros do not.
const maxSilentFraction = 0.20

// BuildSequence assembles the seqLen-day feature sequence ending at refDate.
// Days before the first recorded day become zero padding vectors, so the
// result always has exactly seqLen entries.
func BuildSequence(refDate time.Time, h *History, cfg models.UserTrainingConfig, seqLen int) models.FeatureSequence {
	end := util.Day(refDate)
	seq := models.FeatureSequence{
		EndDate: end,
		Days:    make([]models.DailyFeatureVector, seqLen),
	}

	for i := 0; i < seqLen; i++ {
		day := end.AddDate(0, 0, -(seqLen - 1 - i))
		if h.Empty() || day.Before(h.First()) {
			seq.Days[i] = models.DailyFeatureVector{Date: day, Padded: true}
			continue
		}
		seq.Days[i] = ExtractDay(day, h, cfg)
	}
	return seq
}

// TrainingWindow pairs an input sequence with the dates of its
// forward-looking label window.
type TrainingWindow struct {
	Sequence  models.FeatureSequence
	LabelDays []time.Time
}

// TrainingWindows slides a stepped window across the full history and
// returns every candidate that carries enough signal. The label window is
// the HorizonDays days immediately after each sequence, so the last
// candidate ends HorizonDays before the final record.
//
// The earliest candidates lean on left padding up to the silent budget, and
// the step is weekly only while a weekly step can produce minWindows
// candidates; shorter histories densify the step down to daily. Both keep a
// history at the eligibility floor from starving the sample count.
func TrainingWindows(h *History, cfg models.UserTrainingConfig, seqLen, minWindows int) []TrainingWindow {
	if h.Empty() {
		return nil
	}

	maxPad := int(maxSilentFraction * float64(seqLen))
	firstEnd := h.First().AddDate(0, 0, seqLen-1-maxPad)
	lastEnd := h.Last().AddDate(0, 0, -models.HorizonDays)
	if lastEnd.Before(firstEnd) {
		return nil
	}

	step := 7
	if minWindows > 1 {
		span := util.DaysBetween(firstEnd, lastEnd)
		if span/step+1 < minWindows {
			step = span / (minWindows - 1)
			if step < 1 {
				step = 1
			}
		}
	}

	var out []TrainingWindow
	for end := firstEnd; !end.After(lastEnd); end = end.AddDate(0, 0, step) {
		seq := BuildSequence(end, h, cfg, seqLen)
		if tooSilent(&seq) {
			continue
		}

		labels := make([]time.Time, models.HorizonDays)
		for i := range labels {
			labels[i] = end.AddDate(0, 0, i+1)
		}
		out = append(out, TrainingWindow{Sequence: seq, LabelDays: labels})
	}
	return out
}

func tooSilent(seq *models.FeatureSequence) bool {
	silent := len(seq.Days) - seq.SignalDays()
	return float64(silent) > maxSilentFraction*float64(len(seq.Days))
}
