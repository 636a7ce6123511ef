package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"LoadPulse/internal/domain/models"
	drepo "LoadPulse/internal/domain/repository"
	"LoadPulse/internal/domain/service"
	imetrics "LoadPulse/internal/service/metrics"
	"LoadPulse/internal/services/features"
	"LoadPulse/internal/services/model"
	"LoadPulse/internal/services/policy"
	"LoadPulse/internal/services/training"
	"LoadPulse/pkg/cache"
	"LoadPulse/pkg/logger"
	"LoadPulse/pkg/queue"
)

const outcomeMsgType = "workout.outcome"

// Config tunes the engine's lifecycle behavior.
type Config struct {
	SequenceLength int
	Training       training.Config
	TrainTimeout   time.Duration
	// RetrainEvery triggers a full retrain after this many incremental
	// updates, replacing their provisional labels with real self-reports.
	RetrainEvery int
	CacheTTL     time.Duration
}

func (c *Config) normalize() {
	if c.SequenceLength <= 0 {
		c.SequenceLength = models.DefaultSequenceLength
	}
	if c.Training.SeqLen <= 0 {
		c.Training = training.DefaultConfig(c.SequenceLength)
	}
	if c.RetrainEvery <= 0 {
		c.RetrainEvery = 7
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Hour
	}
}

// ForecastEngine owns every per-user model: lazy load, lifetime caching,
// training hand-off and teardown. Callers never touch a network directly.
type ForecastEngine struct {
	cfg      Config
	store    drepo.ModelStore
	pipeline *training.Pipeline
	models   cache.Service
	queue    *queue.MemoryQueue
	logger   *logger.Logger
	metrics  drepo.Metrics

	mu sync.Mutex // guards load-or-create on cache miss

	backend      sync.Once
	backendErr   error
	degradedOnce sync.Once
}

// userModel is one cached network plus its serialization lock. Training and
// prediction on the same user never overlap.
type userModel struct {
	mu           sync.Mutex
	net          *model.Network
	trained      bool
	sinceRetrain int
}

// NewForecastEngine wires the engine and starts its single-worker queue.
func NewForecastEngine(cfg Config, store drepo.ModelStore, models cache.Service, q *queue.MemoryQueue, l *logger.Logger, m drepo.Metrics) (*ForecastEngine, error) {
	cfg.normalize()
	imetrics.Register()

	e := &ForecastEngine{
		cfg:      cfg,
		store:    store,
		pipeline: training.NewPipeline(cfg.Training, l),
		models:   models,
		queue:    q,
		logger:   l,
		metrics:  m,
	}

	if q != nil {
		if err := q.RegisterJob(&outcomeJob{engine: e}); err != nil {
			return nil, err
		}
		if err := q.Start(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Predict builds the forecast for userID from the supplied raw history. On a
// cache and store miss it trains a fresh model first, which makes the first
// call for a user expensive; subsequent calls reuse the cached network.
func (e *ForecastEngine) Predict(ctx context.Context, userID string, history []models.WorkoutSession,
	wellness []models.DailyWellnessLog, userCfg models.UserTrainingConfig) (*models.PredictionResult, error) {
	start := time.Now()

	if err := e.checkAvailable(); err != nil {
		return nil, err
	}

	h := features.NewHistory(history, wellness)
	if h.Empty() {
		e.metrics.RecordError("insufficient_data")
		return nil, service.ErrInsufficientData
	}

	um, err := e.modelFor(ctx, userID)
	if err != nil {
		e.metrics.RecordError("model_load")
		return nil, fmt.Errorf("load model: %w", err)
	}

	um.mu.Lock()
	defer um.mu.Unlock()

	if !um.trained {
		if err := e.fitLocked(ctx, userID, um, h, userCfg); err != nil {
			return nil, err
		}
	}

	seq := features.BuildSequence(h.Last(), h, userCfg, e.cfg.SequenceLength)
	out := um.net.Predict(model.NormalizeSequence(&seq))
	if !model.AllFinite(out) {
		imetrics.NumericDiscards.WithLabelValues("predict").Inc()
		e.metrics.RecordError("numeric")
		e.logger.Error("discarding non-finite forecast", logger.String("user", userID))
		return nil, service.ErrNumeric
	}

	res := policy.Assess(out, &seq, h, um.net.Version(), time.Now())
	e.metrics.RecordPrediction(userID)
	e.metrics.RecordLatency("predict", time.Since(start).Seconds())
	return res, nil
}

// RecordWorkoutOutcome queues the completed workout for an incremental model
// update. Fire-and-forget: a full queue drops the update with a warning
// instead of blocking the logging path.
func (e *ForecastEngine) RecordWorkoutOutcome(ctx context.Context, userID string, workout models.WorkoutSession,
	history []models.WorkoutSession, wellness []models.DailyWellnessLog, userCfg models.UserTrainingConfig) error {
	if err := e.checkAvailable(); err != nil {
		return err
	}
	if e.queue == nil {
		return e.applyOutcome(ctx, &outcomePayload{
			UserID: userID, Workout: workout, History: history, Wellness: wellness, Config: userCfg,
		})
	}

	err := e.queue.PublishMessage(ctx, outcomeMsgType, &outcomePayload{
		UserID:   userID,
		Workout:  workout,
		History:  history,
		Wellness: wellness,
		Config:   userCfg,
	})
	if errors.Is(err, queue.ErrQueueFull) {
		e.logger.Warn("outcome update dropped, queue full", logger.String("user", userID))
		e.metrics.RecordError("queue_full")
		return nil
	}
	return err
}

// HasTrainedModel reports whether a persisted snapshot exists for userID.
func (e *ForecastEngine) HasTrainedModel(ctx context.Context, userID string) (bool, error) {
	if err := e.checkAvailable(); err != nil {
		return false, err
	}
	return e.store.Exists(ctx, userID)
}

// DeleteModel evicts the cached network and removes the snapshot, e.g. on
// account deletion or an explicit retrain-from-scratch request.
func (e *ForecastEngine) DeleteModel(ctx context.Context, userID string) error {
	if err := e.checkAvailable(); err != nil {
		return err
	}
	if err := e.models.Delete(ctx, userID); err != nil {
		return err
	}
	e.metrics.SetCachedModels(e.models.Len())
	if err := e.store.Delete(ctx, userID); err != nil {
		return err
	}
	e.logger.Info("model deleted", logger.String("user", userID))
	return nil
}

// ModelVersion exposes the running architecture version string.
func (e *ForecastEngine) ModelVersion() string {
	return model.DefaultConfig(e.cfg.SequenceLength).Version()
}

// Close stops the worker queue and drops all cached models. Persisted
// snapshots survive for the next start.
func (e *ForecastEngine) Close() error {
	if e.queue != nil {
		e.queue.Stop()
	}
	return e.models.Close()
}

// checkAvailable gates every operation on the host prerequisites: durable
// storage and a working numeric core. Failures degrade to ErrUnavailable and
// are logged once.
func (e *ForecastEngine) checkAvailable() error {
	if e.store == nil {
		return e.unavailable("no durable model storage")
	}
	e.backend.Do(func() {
		probe := model.NewNetwork(model.Config{
			SeqLen:      2,
			InputSize:   models.NumChannels,
			Hidden1:     4,
			Hidden2:     4,
			DenseHidden: 4,
			OutputSize:  2,
			LearnRate:   0.001,
		}, 1)
		input := make([][]float64, 2)
		for i := range input {
			input[i] = make([]float64, models.NumChannels)
		}
		if out := probe.Predict(input); !model.AllFinite(out) {
			e.backendErr = errors.New("numeric self-check produced non-finite output")
		}
	})
	if e.backendErr != nil {
		return e.unavailable(e.backendErr.Error())
	}
	return nil
}

func (e *ForecastEngine) unavailable(reason string) error {
	e.degradedOnce.Do(func() {
		e.logger.Warn("forecast engine unavailable", logger.String("reason", reason))
	})
	e.metrics.RecordError("unavailable")
	return service.ErrUnavailable
}

// modelFor returns the cached network for userID, loading the persisted
// snapshot on a miss. A corrupt or incompatible snapshot is deleted and
// replaced with a fresh untrained network.
func (e *ForecastEngine) modelFor(ctx context.Context, userID string) (*userModel, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if v, err := e.models.Get(ctx, userID); err == nil {
		if um, ok := v.(*userModel); ok {
			return um, nil
		}
	}

	arch := model.DefaultConfig(e.cfg.SequenceLength)
	um := &userModel{}

	blob, err := e.store.Load(ctx, userID, arch.Version())
	switch {
	case err == nil:
		net, uerr := model.Unmarshal(blob, arch)
		if uerr != nil {
			e.logger.Warn("discarding undecodable snapshot",
				logger.String("user", userID), logger.Error(uerr))
			if derr := e.store.Delete(ctx, userID); derr != nil {
				return nil, derr
			}
			um.net = model.NewNetwork(arch, time.Now().UnixNano())
		} else {
			um.net = net
			um.trained = true
		}
	case errors.Is(err, drepo.ErrNotFound):
		um.net = model.NewNetwork(arch, time.Now().UnixNano())
	case errors.Is(err, drepo.ErrCorrupt):
		e.logger.Warn("discarding corrupt snapshot", logger.String("user", userID))
		if derr := e.store.Delete(ctx, userID); derr != nil {
			return nil, derr
		}
		um.net = model.NewNetwork(arch, time.Now().UnixNano())
	default:
		return nil, err
	}

	if err := e.models.Set(ctx, userID, um, e.cfg.CacheTTL); err != nil {
		return nil, err
	}
	e.metrics.SetCachedModels(e.models.Len())
	return um, nil
}

// fitLocked runs batch training under the model lock, bounded by the train
// timeout, and persists the result. An insufficient-data decline surfaces as
// ErrInsufficientData so the caller can fall back.
func (e *ForecastEngine) fitLocked(ctx context.Context, userID string, um *userModel, h *features.History, userCfg models.UserTrainingConfig) error {
	tctx := ctx
	if e.cfg.TrainTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, e.cfg.TrainTimeout)
		defer cancel()
	}

	report := e.pipeline.Fit(tctx, um.net, h, userCfg)
	e.metrics.RecordTrainingRun(report.Outcome)

	switch report.Outcome {
	case training.OutcomeTrained:
		um.trained = true
		um.sinceRetrain = 0
		e.persist(ctx, userID, um)
		e.logger.Info("model trained",
			logger.String("user", userID),
			logger.Int("samples", report.Samples),
			logger.Int("epochs", report.Epochs),
			logger.Float64("val_loss", report.BestValLoss))
		return nil
	case training.OutcomeCancelled:
		if err := tctx.Err(); err != nil {
			return err
		}
		return service.ErrUnavailable
	default:
		e.metrics.RecordError("insufficient_data")
		return service.ErrInsufficientData
	}
}

func (e *ForecastEngine) persist(ctx context.Context, userID string, um *userModel) {
	blob, err := um.net.Marshal()
	if err != nil {
		e.metrics.RecordError("serialize")
		e.logger.Error("snapshot encode failed", logger.String("user", userID), logger.Error(err))
		return
	}
	if err := e.store.Save(ctx, userID, um.net.Version(), blob); err != nil {
		e.metrics.RecordError("persist")
		e.logger.Error("snapshot save failed", logger.String("user", userID), logger.Error(err))
	}
}

var (
	_ service.FatigueForecaster = (*ForecastEngine)(nil)
	_ service.OutcomeRecorder   = (*ForecastEngine)(nil)
	_ service.ModelAdmin        = (*ForecastEngine)(nil)
)
