package usecase

import (
	"context"
	"time"

	"LoadPulse/internal/domain/models"
	"LoadPulse/internal/services/features"
	"LoadPulse/internal/services/model"
	"LoadPulse/internal/services/training"
	"LoadPulse/pkg/logger"
	"LoadPulse/pkg/queue"
)

type outcomePayload struct {
	UserID   string
	Workout  models.WorkoutSession
	History  []models.WorkoutSession
	Wellness []models.DailyWellnessLog
	Config   models.UserTrainingConfig
}

// outcomeJob applies queued workout outcomes to the owning engine.
type outcomeJob struct {
	engine *ForecastEngine
}

func (j *outcomeJob) Name() string { return "workout-outcome" }
func (j *outcomeJob) Type() string { return outcomeMsgType }

func (j *outcomeJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[outcomePayload](payload)
	if err != nil {
		return err
	}
	return j.engine.applyOutcome(ctx, p)
}

// applyOutcome folds one completed workout into the user's model. After
// RetrainEvery incremental steps it retrains from scratch on the full
// history, replacing the provisional exertion-based labels with real
// recovery self-reports.
func (e *ForecastEngine) applyOutcome(ctx context.Context, p *outcomePayload) error {
	um, err := e.modelFor(ctx, p.UserID)
	if err != nil {
		return err
	}
	h := features.NewHistory(p.History, p.Wellness)

	um.mu.Lock()
	defer um.mu.Unlock()

	report := e.pipeline.IncrementalStep(ctx, um.net, &p.Workout, h, p.Config)
	e.metrics.RecordTrainingRun(report.Outcome)
	if report.Outcome != training.OutcomeTrained {
		e.logger.Debug("incremental update skipped",
			logger.String("user", p.UserID),
			logger.String("reason", report.Reason))
		return nil
	}

	um.sinceRetrain++
	e.persist(ctx, p.UserID, um)

	if um.sinceRetrain < e.cfg.RetrainEvery {
		return nil
	}

	tctx := ctx
	if e.cfg.TrainTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, e.cfg.TrainTimeout)
		defer cancel()
	}

	fresh := model.NewNetwork(um.net.Config(), time.Now().UnixNano())
	r := e.pipeline.Fit(tctx, fresh, h, p.Config)
	e.metrics.RecordTrainingRun(r.Outcome)
	if r.Outcome != training.OutcomeTrained {
		return nil
	}

	um.net = fresh
	um.trained = true
	um.sinceRetrain = 0
	e.persist(ctx, p.UserID, um)
	e.logger.Info("model retrained",
		logger.String("user", p.UserID),
		logger.Int("samples", r.Samples),
		logger.Int("epochs", r.Epochs),
		logger.Float64("val_loss", r.BestValLoss))
	return nil
}
