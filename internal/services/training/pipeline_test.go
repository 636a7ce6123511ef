package training

import (
	"context"
	"testing"

	"LoadPulse/internal/domain/models"
	"LoadPulse/internal/services/features"
	"LoadPulse/internal/services/model"
	"LoadPulse/internal/services/policy"
)

func testConfig() Config {
	return Config{
		SeqLen:          28,
		MinEligibleDays: 42,
		MinSamples:      5,
		MaxEpochs:       2,
		Patience:        5,
		ValidationSplit: 0.2,
		BatchSize:       4,
	}
}

func testNetwork() *model.Network {
	return model.NewNetwork(model.Config{
		SeqLen:      28,
		InputSize:   models.NumChannels,
		Hidden1:     8,
		Hidden2:     8,
		DenseHidden: 8,
		OutputSize:  models.HorizonDays,
		Dropout:     0.2,
		LearnRate:   0.01,
	}, 1)
}

func trainingHistory(days int) *features.History {
	var sessions []models.WorkoutSession
	var logs []models.DailyWellnessLog
	for i := 0; i < days; i++ {
		if i%7 != 6 {
			sessions = append(sessions, session(day(i), 4, 7))
		}
		logs = append(logs, models.DailyWellnessLog{Date: day(i), PerceivedRecovery: 3})
	}
	return features.NewHistory(sessions, logs)
}

func TestFitDeclinesShortHistory(t *testing.T) {
	p := NewPipeline(testConfig(), nil)
	report := p.Fit(context.Background(), testNetwork(), trainingHistory(20), models.UserTrainingConfig{})

	if report.Outcome != OutcomeInsufficient {
		t.Fatalf("outcome = %q, want %q", report.Outcome, OutcomeInsufficient)
	}
	if report.Reason == "" {
		t.Fatalf("insufficient report should carry a reason")
	}
}

func TestFitTrains(t *testing.T) {
	p := NewPipeline(testConfig(), nil)
	report := p.Fit(context.Background(), testNetwork(), trainingHistory(70), models.UserTrainingConfig{})

	if report.Outcome != OutcomeTrained {
		t.Fatalf("outcome = %q (%s), want %q", report.Outcome, report.Reason, OutcomeTrained)
	}
	if report.Samples != 5 {
		t.Fatalf("samples = %d, want 5", report.Samples)
	}
	if report.Epochs < 1 || report.Epochs > 2 {
		t.Fatalf("epochs = %d, want 1..2", report.Epochs)
	}
}

func TestFitTrainsEightWeeks(t *testing.T) {
	p := NewPipeline(testConfig(), nil)
	report := p.Fit(context.Background(), testNetwork(), trainingHistory(56), models.UserTrainingConfig{})

	if report.Outcome != OutcomeTrained {
		t.Fatalf("outcome = %q (%s), want %q", report.Outcome, report.Reason, OutcomeTrained)
	}
	if report.Samples < 5 {
		t.Fatalf("samples = %d, want at least 5", report.Samples)
	}
}

// highStrainHistory builds eight weeks of daily records with climbing
// exertion and collapsing self-reported recovery.
func highStrainHistory(days int) *features.History {
	var sessions []models.WorkoutSession
	var logs []models.DailyWellnessLog
	for i := 0; i < days; i++ {
		if i%7 != 6 {
			rpe := 6 + 3.5*float64(i)/float64(days-1)
			sessions = append(sessions, session(day(i), 5, rpe))
		}
		recovery := 3
		if i >= 21 {
			recovery = 1
		}
		logs = append(logs, models.DailyWellnessLog{Date: day(i), PerceivedRecovery: recovery})
	}
	return features.NewHistory(sessions, logs)
}

func TestEightWeeksOfStrainYieldsDeload(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEpochs = 60
	cfg.Patience = 60

	net := model.NewNetwork(model.Config{
		SeqLen:      cfg.SeqLen,
		InputSize:   models.NumChannels,
		Hidden1:     8,
		Hidden2:     8,
		DenseHidden: 8,
		OutputSize:  models.HorizonDays,
		LearnRate:   0.05,
	}, 1)

	h := highStrainHistory(56)
	p := NewPipeline(cfg, nil)
	report := p.Fit(context.Background(), net, h, models.UserTrainingConfig{})
	if report.Outcome != OutcomeTrained {
		t.Fatalf("outcome = %q (%s), want %q", report.Outcome, report.Reason, OutcomeTrained)
	}

	seq := features.BuildSequence(h.Last(), h, models.UserTrainingConfig{}, cfg.SeqLen)
	out := net.Predict(model.NormalizeSequence(&seq))
	res := policy.Assess(out, &seq, h, net.Version(), h.Last())

	if res.Deload == nil {
		t.Fatalf("eight weeks of rising strain produced no deload recommendation; levels %v", out)
	}
	if res.Days[0].Tier == models.RiskLow {
		t.Fatalf("day 0 tier = %q after sustained poor recovery", res.Days[0].Tier)
	}
}

func TestFitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(testConfig(), nil)
	report := p.Fit(ctx, testNetwork(), trainingHistory(70), models.UserTrainingConfig{})

	if report.Outcome != OutcomeCancelled {
		t.Fatalf("outcome = %q, want %q", report.Outcome, OutcomeCancelled)
	}
}

func TestIncrementalStepShortHistory(t *testing.T) {
	p := NewPipeline(testConfig(), nil)
	w := session(day(9), 4, 8)
	report := p.IncrementalStep(context.Background(), testNetwork(), &w, trainingHistory(10), models.UserTrainingConfig{})

	if report.Outcome != OutcomeInsufficient {
		t.Fatalf("outcome = %q, want %q", report.Outcome, OutcomeInsufficient)
	}
}

func TestIncrementalStep(t *testing.T) {
	p := NewPipeline(testConfig(), nil)
	w := session(day(29), 4, 8)
	report := p.IncrementalStep(context.Background(), testNetwork(), &w, trainingHistory(30), models.UserTrainingConfig{})

	if report.Outcome != OutcomeTrained {
		t.Fatalf("outcome = %q, want %q", report.Outcome, OutcomeTrained)
	}
	if report.Samples != 1 || report.Epochs != 1 {
		t.Fatalf("report = %d samples / %d epochs, want 1/1", report.Samples, report.Epochs)
	}
}
