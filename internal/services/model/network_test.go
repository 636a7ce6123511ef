package model

import (
	"math"
	"testing"

	"LoadPulse/internal/domain/models"
)

func smallConfig() Config {
	return Config{
		SeqLen:      6,
		InputSize:   models.NumChannels,
		Hidden1:     8,
		Hidden2:     8,
		DenseHidden: 8,
		OutputSize:  models.HorizonDays,
		Dropout:     0,
		LearnRate:   0.01,
	}
}

func constantInput(seqLen int, v float64) [][]float64 {
	input := make([][]float64, seqLen)
	for i := range input {
		row := make([]float64, models.NumChannels)
		for j := range row {
			row[j] = v
		}
		input[i] = row
	}
	return input
}

func TestPredictShapeAndRange(t *testing.T) {
	net := NewNetwork(DefaultConfig(28), 1)
	out := net.Predict(constantInput(28, 0.5))

	if len(out) != models.HorizonDays {
		t.Fatalf("output length = %d, want %d", len(out), models.HorizonDays)
	}
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("output %d is not finite: %v", i, v)
		}
		if v < 0 || v > 1 {
			t.Fatalf("output %d = %v, outside [0,1]", i, v)
		}
	}
}

func TestPredictDeterministic(t *testing.T) {
	net := NewNetwork(smallConfig(), 7)
	input := constantInput(6, 0.3)

	a := net.Predict(input)
	b := net.Predict(input)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("output %d differs between identical calls: %v vs %v", i, a[i], b[i])
		}
	}
}

func trainingFixture() []*Sample {
	lowTarget := make([]float64, models.HorizonDays)
	highTarget := make([]float64, models.HorizonDays)
	for i := range lowTarget {
		lowTarget[i] = 0.2
		highTarget[i] = 0.8
	}
	return []*Sample{
		{Input: constantInput(6, 0.1), Target: lowTarget},
		{Input: constantInput(6, 0.2), Target: lowTarget},
		{Input: constantInput(6, 0.8), Target: highTarget},
		{Input: constantInput(6, 0.9), Target: highTarget},
	}
}

func TestTrainEpochReducesLoss(t *testing.T) {
	net := NewNetwork(smallConfig(), 42)
	samples := trainingFixture()

	before := net.Loss(samples)
	for i := 0; i < 60; i++ {
		net.TrainEpoch(samples, 2)
	}
	after := net.Loss(samples)

	if math.IsNaN(after) || math.IsInf(after, 0) {
		t.Fatalf("loss is not finite after training: %v", after)
	}
	if after >= before {
		t.Fatalf("loss did not improve: before=%v after=%v", before, after)
	}
}

func TestCheckpointRestore(t *testing.T) {
	net := NewNetwork(smallConfig(), 3)
	input := constantInput(6, 0.4)
	want := net.Predict(input)

	cp := net.CheckpointWeights()
	net.TrainEpoch(trainingFixture(), 2)
	net.RestoreWeights(cp)

	got := net.Predict(input)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("output %d changed after restore: %v vs %v", i, got[i], want[i])
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := smallConfig()
	net := NewNetwork(cfg, 11)
	net.TrainEpoch(trainingFixture(), 2)

	blob, err := net.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	loaded, err := Unmarshal(blob, cfg)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	input := constantInput(6, 0.6)
	want := net.Predict(input)
	got := loaded.Predict(input)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("output %d differs after reload: %v vs %v", i, got[i], want[i])
		}
	}
}

func TestUnmarshalRejectsVersionMismatch(t *testing.T) {
	net := NewNetwork(smallConfig(), 5)
	blob, err := net.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	other := smallConfig()
	other.Hidden1 = 16
	if _, err := Unmarshal(blob, other); err == nil {
		t.Fatalf("expected version mismatch error")
	}
}

func TestAllFinite(t *testing.T) {
	if !AllFinite([]float64{0, 0.5, 1}) {
		t.Fatalf("finite slice rejected")
	}
	if AllFinite([]float64{0.5, math.NaN()}) {
		t.Fatalf("NaN accepted")
	}
	if AllFinite([]float64{math.Inf(1)}) {
		t.Fatalf("Inf accepted")
	}
}
