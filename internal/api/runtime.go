package api

import (
	"github.com/JaimeStill/shroud/internal/config"
	"github.com/JaimeStill/shroud/internal/detection"
	"github.com/JaimeStill/shroud/internal/infrastructure"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Aggregator *detection.Aggregator
	Workers    int
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	logger := infra.Logger.With("module", "api")
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Registry:  infra.Registry,
			Opener:    infra.Opener,
		},
		Aggregator: detection.NewAggregator(infra.Registry, cfg.Detection.Workers, logger),
		Workers:    cfg.Detection.Workers,
	}
}
