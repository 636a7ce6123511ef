package training

import (
	"context"
	"math"
	"math/rand"
	"time"

	"LoadPulse/internal/domain/models"
	imetrics "LoadPulse/internal/service/metrics"
	"LoadPulse/internal/services/features"
	"LoadPulse/internal/services/model"
	"LoadPulse/pkg/logger"
	"LoadPulse/pkg/util"
)

// Outcomes reported by a training run.
const (
	OutcomeTrained      = "trained"
	OutcomeInsufficient = "insufficient"
	OutcomeCancelled    = "cancelled"
)

// Config bounds a batch training run.
type Config struct {
	SeqLen          int
	MinEligibleDays int
	MinSamples      int
	MaxEpochs       int
	Patience        int
	ValidationSplit float64
	BatchSize       int
}

// DefaultConfig mirrors the engine defaults.
func DefaultConfig(seqLen int) Config {
	return Config{
		SeqLen:          seqLen,
		MinEligibleDays: 42,
		MinSamples:      5,
		MaxEpochs:       50,
		Patience:        5,
		ValidationSplit: 0.2,
		BatchSize:       8,
	}
}

// Report describes what a training run did. Declining to train is a normal
// report, never an error: the caller keeps its previous model.
type Report struct {
	Outcome     string
	Samples     int
	Epochs      int
	BestValLoss float64
	Reason      string
}

// Pipeline fits and incrementally updates fatigue networks.
type Pipeline struct {
	cfg    Config
	logger *logger.Logger
	rng    *rand.Rand
}

func NewPipeline(cfg Config, l *logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		logger: l,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fit runs batch training over the full history. It declines with an
// insufficient-data report when history is too small or too sparse, checks
// ctx between epochs for cooperative cancellation, and restores the best
// validation weights on early stop.
func (p *Pipeline) Fit(ctx context.Context, net *model.Network, h *features.History, userCfg models.UserTrainingConfig) *Report {
	if r := p.checkEligibility(h); r != nil {
		return r
	}

	windows := features.TrainingWindows(h, userCfg, p.cfg.SeqLen, p.cfg.MinSamples)
	samples := make([]*model.Sample, 0, len(windows))
	for i := range windows {
		labels := LabelWindow(windows[i].LabelDays, h)
		samples = append(samples, &model.Sample{
			Input:  model.NormalizeSequence(&windows[i].Sequence),
			Target: labels[:],
		})
	}
	if len(samples) < p.cfg.MinSamples {
		return &Report{
			Outcome: OutcomeInsufficient,
			Samples: len(samples),
			Reason:  "too few usable training windows",
		}
	}

	train, val := p.split(samples)

	best := math.Inf(1)
	bestCheckpoint := net.CheckpointWeights()
	sinceImprovement := 0
	epochs := 0

	for epoch := 0; epoch < p.cfg.MaxEpochs; epoch++ {
		select {
		case <-ctx.Done():
			net.RestoreWeights(bestCheckpoint)
			return &Report{Outcome: OutcomeCancelled, Samples: len(samples), Epochs: epochs, BestValLoss: best}
		default:
		}

		p.rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
		trainLoss := net.TrainEpoch(train, p.cfg.BatchSize)
		valLoss := net.Loss(val)
		epochs++

		if p.logger != nil {
			p.logger.Debug("training epoch",
				logger.Int("epoch", epoch),
				logger.Float64("train_loss", trainLoss),
				logger.Float64("val_loss", valLoss))
		}

		if valLoss < best {
			best = valLoss
			bestCheckpoint = net.CheckpointWeights()
			sinceImprovement = 0
		} else {
			sinceImprovement++
			if sinceImprovement >= p.cfg.Patience {
				break
			}
		}
	}

	net.RestoreWeights(bestCheckpoint)
	imetrics.TrainingEpochs.WithLabelValues("batch").Observe(float64(epochs))

	return &Report{
		Outcome:     OutcomeTrained,
		Samples:     len(samples),
		Epochs:      epochs,
		BestValLoss: best,
	}
}

// IncrementalStep folds a single completed workout into the network: one
// pass, batch size one, against a provisional label built from that
// workout's own exertion. Skipped when history is shorter than one input
// window.
func (p *Pipeline) IncrementalStep(ctx context.Context, net *model.Network, workout *models.WorkoutSession, h *features.History, userCfg models.UserTrainingConfig) *Report {
	select {
	case <-ctx.Done():
		return &Report{Outcome: OutcomeCancelled}
	default:
	}

	if h.SpanDays() < p.cfg.SeqLen {
		return &Report{
			Outcome: OutcomeInsufficient,
			Reason:  "history shorter than one input window",
		}
	}

	seq := features.BuildSequence(util.Day(workout.Date), h, userCfg, p.cfg.SeqLen)
	labels := ProvisionalLabels(workout)
	sample := &model.Sample{
		Input:  model.NormalizeSequence(&seq),
		Target: labels[:],
	}

	loss := net.TrainEpoch([]*model.Sample{sample}, 1)
	imetrics.TrainingEpochs.WithLabelValues("incremental").Observe(1)

	return &Report{
		Outcome:     OutcomeTrained,
		Samples:     1,
		Epochs:      1,
		BestValLoss: loss,
	}
}

// checkEligibility applies the hard floor: enough signal days and a span
// wide enough for one sequence plus its label horizon.
func (p *Pipeline) checkEligibility(h *features.History) *Report {
	eligible := h.EligibleDays()
	if eligible < p.cfg.MinEligibleDays {
		return &Report{
			Outcome: OutcomeInsufficient,
			Reason:  "not enough recorded days",
		}
	}
	if h.SpanDays() < p.cfg.SeqLen+models.HorizonDays {
		return &Report{
			Outcome: OutcomeInsufficient,
			Reason:  "history span shorter than window plus horizon",
		}
	}
	return nil
}

// split carves off the validation fraction (at least one sample).
func (p *Pipeline) split(samples []*model.Sample) (train, val []*model.Sample) {
	shuffled := append([]*model.Sample(nil), samples...)
	p.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	nVal := int(float64(len(shuffled)) * p.cfg.ValidationSplit)
	if nVal < 1 {
		nVal = 1
	}
	return shuffled[nVal:], shuffled[:nVal]
}
