//go:build wireinject
// +build wireinject

package di

import (
	"LoadPulse/pkg/config"
	"LoadPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideModelStore,
		ProvideModelCache,
		ProvideQueue,

		// Use cases
		ProvideEngine,

		// HTTP surface
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
