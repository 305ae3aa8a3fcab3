package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/1broseidon/winkeep/internal/config"
	"github.com/1broseidon/winkeep/internal/daemon"
	"github.com/1broseidon/winkeep/internal/hotkeys"
	"github.com/1broseidon/winkeep/internal/ipc"
	"github.com/1broseidon/winkeep/internal/platform"
)

// autosaveLoop owns the running autosaver so a reload can restart it with a
// new interval.
type autosaveLoop struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	target daemon.Capturer
	logger *slog.Logger
}

func (a *autosaveLoop) restart(cfg *config.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	interval := cfg.Autosave()
	if interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	saver := daemon.NewAutosaver(daemon.AutosaverConfig{Interval: interval, Logger: a.logger}, a.target)
	go saver.Run(ctx)
}

func (a *autosaveLoop) stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// applyDisplayEnv points the X11 connection at the configured display.
func applyDisplayEnv(cfg *config.Config) {
	if cfg.Display != "" {
		os.Setenv("DISPLAY", cfg.Display)
	}
	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}
}

func runDaemon() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded (instance: %s, restore_on_start: %t, capture_on_exit: %t)",
		cfg.Instance, cfg.RestoreOnStart, cfg.CaptureOnExit)

	var level slog.LevelVar
	level.Set(cfg.SlogLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: &level,
	}))

	// Connect to display server
	applyDisplayEnv(cfg)
	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()

	var hotkeyHandler *hotkeys.Handler
	autosave := &autosaveLoop{logger: logger}

	svc := daemon.NewService(daemon.ServiceOptions{
		Backend: backend,
		Config:  cfg,
		Logger:  logger,
		OnConfigChange: func(newCfg *config.Config) {
			level.Set(newCfg.SlogLevel())
			if err := hotkeyHandler.Bind(newCfg.CaptureHotkey, newCfg.RestoreHotkey); err != nil {
				log.Printf("Warning: failed to rebind hotkeys: %v", err)
			}
			autosave.restart(newCfg)
			log.Println("Config reloaded successfully")
		},
	})
	autosave.target = svc

	// Setup hotkey handler
	hotkeyHandler = hotkeys.NewHandler(backend, svc)
	if err := hotkeyHandler.Bind(cfg.CaptureHotkey, cfg.RestoreHotkey); err != nil {
		log.Printf("Warning: %v", err)
	}

	svc.Enable()
	log.Println("winkeep daemon started successfully")

	autosave.restart(cfg)
	defer autosave.stop()

	// Start IPC server
	ipcServer, err := ipc.NewServer(svc)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				log.Println("Received SIGHUP, reloading config...")
				if err := svc.Reload(); err != nil {
					log.Printf("Config reload failed: %v", err)
				}

			case os.Interrupt, syscall.SIGTERM:
				log.Println("Shutting down winkeep daemon...")
				autosave.stop()
				ipcServer.Stop()
				svc.Disable()
				backend.QuitEventLoop()
				backend.Disconnect()
				os.Exit(0)
			}
		}
	}()

	// Start event loop (blocking)
	log.Println("Entering event loop...")
	backend.EventLoop()
}
