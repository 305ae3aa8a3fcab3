package daemon

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/1broseidon/winkeep/internal/engine"
)

// Capturer is the operation the autosaver runs on every tick.
type Capturer interface {
	Capture(reason string) engine.CaptureResult
}

// AutosaverConfig holds configuration for the autosaver.
type AutosaverConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Autosaver periodically captures all windows.
type Autosaver struct {
	interval time.Duration
	target   Capturer
	logger   *slog.Logger
}

// NewAutosaver creates a new autosaver with the given configuration.
func NewAutosaver(cfg AutosaverConfig, target Capturer) *Autosaver {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Autosaver{
		interval: interval,
		target:   target,
		logger:   logger,
	}
}

// Run starts the autosave loop. Blocks until context is cancelled.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("autosave started", "interval", a.interval)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("autosave stopped")
			return
		case <-ticker.C:
			a.SaveNow()
		}
	}
}

// SaveNow performs a single capture.
func (a *Autosaver) SaveNow() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			a.logger.Error("autosave panic recovered", "error", err)
		}
	}()

	res := a.target.Capture("Autosave")
	a.logger.Debug("autosave captured windows", "windows", res.Windows, "saved", res.Saved)
}
