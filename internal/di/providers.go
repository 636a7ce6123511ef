package di

import (
	"fmt"

	"LoadPulse/internal/domain/repository"
	"LoadPulse/internal/handler/api"
	internalrepo "LoadPulse/internal/repository"
	"LoadPulse/internal/services/training"
	"LoadPulse/internal/usecase"
	"LoadPulse/pkg/cache"
	"LoadPulse/pkg/config"
	xhttp "LoadPulse/pkg/http"
	applogger "LoadPulse/pkg/logger"
	"LoadPulse/pkg/metrics"
	"LoadPulse/pkg/queue"
	"LoadPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideModelStore creates the on-disk snapshot store.
func ProvideModelStore(cfg *config.Config, l *applogger.Logger) (repository.ModelStore, error) {
	store, err := internalrepo.NewFileModelStore(cfg.Engine.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("model store: %w", err)
	}
	store.SetLogger(l)
	return store, nil
}

// ProvideModelCache creates the in-memory model cache. An evicted model is
// only log-worthy: the next predict reloads it from the snapshot store.
func ProvideModelCache(cfg *config.Config, l *applogger.Logger) cache.Service {
	return cache.NewMemoryCache(
		cache.WithMemoryMaxSize(cfg.Engine.CacheMaxModels),
		cache.WithEvictionHook(func(key string, _ interface{}) {
			l.Debug("model evicted from cache", applogger.String("user_id", key))
		}),
	)
}

// ProvideQueue creates the single-worker update queue. One worker is load
// bearing: it serializes training steps against predictions per model.
func ProvideQueue(cfg *config.Config, l *applogger.Logger) *queue.MemoryQueue {
	return queue.NewMemoryQueue(l, &queue.QueueConfig{
		Workers:   1,
		QueueSize: cfg.Engine.QueueSize,
	})
}

// ProvideEngine creates the forecast engine.
func ProvideEngine(
	cfg *config.Config,
	store repository.ModelStore,
	models cache.Service,
	q *queue.MemoryQueue,
	l *applogger.Logger,
	m repository.Metrics,
) (*usecase.ForecastEngine, error) {
	trainCfg := training.DefaultConfig(cfg.Engine.SequenceLength)
	if cfg.Engine.MinEligibleDays > 0 {
		trainCfg.MinEligibleDays = cfg.Engine.MinEligibleDays
	}
	if cfg.Engine.MinSamples > 0 {
		trainCfg.MinSamples = cfg.Engine.MinSamples
	}
	if cfg.Engine.MaxEpochs > 0 {
		trainCfg.MaxEpochs = cfg.Engine.MaxEpochs
	}
	if cfg.Engine.Patience > 0 {
		trainCfg.Patience = cfg.Engine.Patience
	}

	return usecase.NewForecastEngine(usecase.Config{
		SequenceLength: cfg.Engine.SequenceLength,
		Training:       trainCfg,
		TrainTimeout:   cfg.Engine.TrainTimeout,
		CacheTTL:       cfg.Engine.CacheTTL,
	}, store, models, q, l, m)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(l *applogger.Logger, engine *usecase.ForecastEngine) xhttp.Handler {
	return api.NewForecastEchoHandler(l, engine)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	engine *usecase.ForecastEngine,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, engine, handler)
}
