package daemon

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/winkeep/internal/config"
	"github.com/1broseidon/winkeep/internal/engine"
	"github.com/1broseidon/winkeep/internal/ipc"
	"github.com/1broseidon/winkeep/internal/platform"
	"github.com/1broseidon/winkeep/internal/statefile"
	"github.com/1broseidon/winkeep/internal/winstate"
)

const (
	ReasonEnable  = "Enable: Restore"
	ReasonDisable = "Disable: Save"
)

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Backend platform.Backend
	Config  *config.Config
	// Process defaults to engine.DefaultProcess().
	Process *engine.Process
	Logger  *slog.Logger
	// LoadConfig is used by Reload. Defaults to config.Load.
	LoadConfig func() (*config.Config, error)
	// OnConfigChange runs after Reload has re-enabled the engine.
	OnConfigChange func(*config.Config)
}

// Service owns the engine for the lifetime of the daemon. Enable and Disable
// mirror the life cycle of a desktop extension: every Enable builds a fresh
// engine, every Disable captures, saves and tears it down.
type Service struct {
	backend        platform.Backend
	process        *engine.Process
	logger         *slog.Logger
	loadConfig     func() (*config.Config, error)
	onConfigChange func(*config.Config)
	startTime      time.Time

	// lifecycle serializes Enable, Disable and Reload.
	lifecycle sync.Mutex

	mu     sync.RWMutex
	cfg    *config.Config
	engine *engine.Engine
	file   *statefile.File
}

// NewService creates a disabled Service.
func NewService(opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	process := opts.Process
	if process == nil {
		process = engine.DefaultProcess()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	loadConfig := opts.LoadConfig
	if loadConfig == nil {
		loadConfig = config.Load
	}

	return &Service{
		backend:        opts.Backend,
		process:        process,
		logger:         logger,
		loadConfig:     loadConfig,
		onConfigChange: opts.OnConfigChange,
		startTime:      time.Now(),
		cfg:            cfg,
	}
}

// Enable creates a new engine and, when restore_on_start is set, restores
// the saved layout for the current display.
func (s *Service) Enable() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.enable()
}

// Disable captures the current layout when capture_on_exit is set, then
// tears the engine down, which saves the store one final time.
func (s *Service) Disable() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.disable()
}

// Reload re-reads the configuration and cycles the engine in this process.
// The new engine reloads what the old one saved.
func (s *Service) Reload() error {
	cfg, err := s.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	s.ApplyConfig(cfg)
	return nil
}

// ApplyConfig swaps in cfg and cycles the engine.
func (s *Service) ApplyConfig(cfg *config.Config) {
	s.lifecycle.Lock()
	s.disable()
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.enable()
	s.lifecycle.Unlock()

	s.logger.Info("configuration applied", "instance", cfg.Instance)
	if s.onConfigChange != nil {
		s.onConfigChange(cfg)
	}
}

// Capture runs a capture on the current engine.
func (s *Service) Capture(reason string) engine.CaptureResult {
	e := s.currentEngine()
	if e == nil {
		s.logger.Warn("capture requested while disabled", "reason", reason)
		return engine.CaptureResult{Reason: reason}
	}
	return e.CaptureAll(reason)
}

// Restore runs a restore on the current engine.
func (s *Service) Restore(reason string) engine.RestoreResult {
	e := s.currentEngine()
	if e == nil {
		s.logger.Warn("restore requested while disabled", "reason", reason)
		return engine.RestoreResult{Reason: reason}
	}
	return e.RestoreAll(reason)
}

// Config returns the active configuration.
func (s *Service) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Status reports the daemon state for GET_STATUS.
func (s *Service) Status() ipc.StatusData {
	s.mu.RLock()
	cfg, e, file := s.cfg, s.engine, s.file
	s.mu.RUnlock()

	status := ipc.StatusData{
		DaemonRunning: true,
		Enabled:       e != nil,
		Instance:      cfg.Instance,
		ProcessID:     s.process.ID,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}
	if file != nil {
		status.StatePath = file.Path()
		status.ProcessSaved = s.process.SavedTo(file.Path())
		status.Persistent = file.Available()
	}
	if e != nil {
		status.Stats = e.Stats()
	}

	if width, height, err := s.backend.DisplaySize(); err == nil {
		status.DisplayWidth = width
		status.DisplayHeight = height
		status.DisplaySignature = int64(winstate.DisplaySignature(width, height))
	} else {
		s.logger.Debug("status: failed to read display size", "error", err)
	}

	if displays, err := s.backend.Displays(); err == nil {
		for _, d := range displays {
			status.Monitors = append(status.Monitors, ipc.MonitorInfo{
				ID:     d.ID,
				Name:   d.Name,
				X:      d.Bounds.X,
				Y:      d.Bounds.Y,
				Width:  d.Bounds.Width,
				Height: d.Bounds.Height,
			})
		}
	}

	return status
}

func (s *Service) currentEngine() *engine.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

func (s *Service) enable() {
	s.mu.Lock()
	if s.engine != nil {
		s.mu.Unlock()
		return
	}
	cfg := s.cfg

	baseDir, err := cfg.StateBaseDir()
	if err != nil {
		s.logger.Warn("failed to resolve state directory", "error", err)
		baseDir = ""
	}
	file := statefile.Open(baseDir, cfg.Instance, s.logger)
	e := engine.New(engine.Options{
		Host:          s.backend,
		File:          file,
		Process:       s.process,
		Logger:        s.logger,
		VerifyRestore: cfg.VerifyRestore,
	})
	s.engine = e
	s.file = file
	s.mu.Unlock()

	s.logger.Info("enabled",
		"instance", cfg.Instance,
		"state_file", file.Path(),
		"process_saved", s.process.SavedTo(file.Path()))

	if cfg.RestoreOnStart {
		e.RestoreAll(ReasonEnable)
	}
}

func (s *Service) disable() {
	s.mu.Lock()
	e, cfg := s.engine, s.cfg
	s.engine = nil
	s.mu.Unlock()

	if e == nil {
		return
	}
	if cfg.CaptureOnExit {
		e.CaptureAll(ReasonDisable)
	}
	e.Teardown()
	s.logger.Info("disabled", "instance", cfg.Instance)
}
