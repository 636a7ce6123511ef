package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"LoadPulse/internal/usecase"
	"LoadPulse/pkg/config"
	xhttp "LoadPulse/pkg/http"
	applogger "LoadPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	engine      *usecase.ForecastEngine
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, engine *usecase.ForecastEngine, handler xhttp.Handler) *App {
	return &App{
		cfg:         cfg,
		logger:      l,
		engine:      engine,
		httpHandler: handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("engine started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("model_dir", a.cfg.Engine.ModelDir),
		applogger.String("model_version", a.engine.ModelVersion()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services. The HTTP server drains first so no
// new work arrives while the engine finishes its queued updates.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.engine.Close(); err != nil {
		a.logger.Warn("engine close error", applogger.Error(err))
	}

	a.logger.Info("shutdown complete")
	return nil
}
