// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, detector registry, document opener)
// that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/shroud/internal/config"
	"github.com/JaimeStill/shroud/internal/detection"
	"github.com/JaimeStill/shroud/pkg/document"
	"github.com/JaimeStill/shroud/pkg/layout"
	"github.com/JaimeStill/shroud/pkg/lifecycle"
	"github.com/JaimeStill/shroud/pkg/pdf"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, detector availability, and document format dispatch.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Registry  *detection.Registry
	Opener    *document.Opener
}

// New creates an Infrastructure from the application configuration, logging
// to stderr. Detectors are checked once here; an unreachable statistical
// detector degrades its language set instead of failing startup.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with the log output directed to w.
func NewWithWriter(cfg *config.Config, w io.Writer) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := NewLogger(&cfg.Logging, w)

	regs, err := Registrations(&cfg.Detection)
	if err != nil {
		return nil, fmt.Errorf("detector init failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(lc.Context(), checkTimeout(&cfg.Detection))
	defer cancel()

	registry, err := detection.NewRegistry(
		ctx,
		cfg.Detection.PrimaryLanguage,
		cfg.Detection.ScoreFloor,
		logger.With("system", "detection"),
		regs...,
	)
	if err != nil {
		return nil, fmt.Errorf("registry init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Registry:  registry,
		Opener:    document.NewOpener(pdf.NewProvider(), layout.NewProvider()),
	}, nil
}

// Start registers infrastructure hooks with the lifecycle coordinator.
// The startup hook reports every detector's availability once and marks
// unavailable detectors as degraded components.
func (i *Infrastructure) Start() error {
	i.Lifecycle.OnStartup(func() {
		for _, d := range i.Registry.Diagnostics() {
			attrs := []any{
				"language", d.Language,
				"detector", d.Detector,
				"kind", d.Kind,
				"entities", d.Entities,
			}
			if d.Available {
				i.Logger.Info("detector available", attrs...)
				continue
			}
			i.Logger.Warn("detector unavailable", append(attrs, "error", d.Error)...)
			i.Lifecycle.Degrade(d.Language+"/"+d.Detector, d.Error)
		}
		i.Logger.Info("detector registry ready", "primary", i.Registry.Primary())
	})
	return nil
}

// NewLogger builds the root logger from the logging config.
func NewLogger(cfg *config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
