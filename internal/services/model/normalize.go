package model

import (
	"LoadPulse/internal/domain/models"
)

// Per-channel normalization scales. These constants travel with the model
// version: changing any of them invalidates persisted weights, because a
// network trained against one scaling cannot read inputs under another.
const (
	scaleVolume          = 50.0 // sets/day; capped
	scaleExertion        = 10.0 // RPE ceiling
	scaleACWRCap         = 2.0  // ratios above 2 carry no extra information
	scaleDaysSinceRest   = 30.0
	scaleDaysSinceDeload = 84.0
	scaleDayOfWeek       = 6.0
	scalePhase           = 3.0
)

// NormalizeChannels maps raw channel values into [0,1] model space.
func NormalizeChannels(raw [models.NumChannels]float64) [models.NumChannels]float64 {
	var out [models.NumChannels]float64

	out[models.ChVolume] = capped(raw[models.ChVolume]/scaleVolume, 1)
	out[models.ChAvgExertion] = capped(raw[models.ChAvgExertion]/scaleExertion, 1)
	out[models.ChMaxExertion] = capped(raw[models.ChMaxExertion]/scaleExertion, 1)
	out[models.ChAvgIntensity] = capped(raw[models.ChAvgIntensity], 1)

	acwr := raw[models.ChACWR]
	if acwr > scaleACWRCap {
		acwr = scaleACWRCap
	}
	out[models.ChACWR] = acwr / scaleACWRCap

	out[models.ChDaysSinceRest] = capped(raw[models.ChDaysSinceRest]/scaleDaysSinceRest, 1)
	out[models.ChDaysSinceDeload] = capped(raw[models.ChDaysSinceDeload]/scaleDaysSinceDeload, 1)

	// [-1,1] ranges shift to [0,1]
	out[models.ChWeekVolumeChange] = (raw[models.ChWeekVolumeChange] + 1) / 2
	out[models.ChExertionTrend] = (raw[models.ChExertionTrend] + 1) / 2

	out[models.ChDayOfWeek] = raw[models.ChDayOfWeek] / scaleDayOfWeek
	out[models.ChRestDay] = raw[models.ChRestDay]
	out[models.ChPhase] = raw[models.ChPhase] / scalePhase

	return out
}

// NormalizeSequence converts a feature sequence into the model's input
// matrix (seqLen rows of NumChannels columns). Padding days stay all-zero.
func NormalizeSequence(seq *models.FeatureSequence) [][]float64 {
	out := make([][]float64, len(seq.Days))
	for i := range seq.Days {
		row := make([]float64, models.NumChannels)
		if !seq.Days[i].Padded {
			norm := NormalizeChannels(seq.Days[i].Channels)
			copy(row, norm[:])
		}
		out[i] = row
	}
	return out
}

func capped(v, hi float64) float64 {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
