package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/winkeep/internal/runtimepath"
	"gopkg.in/yaml.v3"
)

const (
	DefaultInstance      = "winkeep"
	DefaultLogLevel      = "info"
	MinAutosaveInterval  = 10 * time.Second
	DefaultCaptureHotkey = "Mod4-Mod1-s"
	DefaultRestoreHotkey = "Mod4-Mod1-r"
)

// Config holds the application configuration.
type Config struct {
	// Instance names the state subdirectory, so several independent
	// daemons (e.g. one per X display) do not share a state file.
	Instance         string `yaml:"instance"`
	CacheDir         string `yaml:"cache_dir,omitempty"`
	LogLevel         string `yaml:"log_level"`
	RestoreOnStart   bool   `yaml:"restore_on_start"`
	CaptureOnExit    bool   `yaml:"capture_on_exit"`
	VerifyRestore    bool   `yaml:"verify_restore"`
	AutosaveInterval string `yaml:"autosave_interval,omitempty"`
	CaptureHotkey    string `yaml:"capture_hotkey"`
	RestoreHotkey    string `yaml:"restore_hotkey"`
	Display          string `yaml:"display,omitempty"`
	XAuthority       string `yaml:"xauthority,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Instance:       DefaultInstance,
		LogLevel:       DefaultLogLevel,
		RestoreOnStart: true,
		CaptureOnExit:  true,
		CaptureHotkey:  DefaultCaptureHotkey,
		RestoreHotkey:  DefaultRestoreHotkey,
	}
}

// StateBaseDir returns the directory under which the per-instance state
// directory lives: cache_dir when set, otherwise the XDG cache directory.
func (c *Config) StateBaseDir() (string, error) {
	if strings.TrimSpace(c.CacheDir) != "" {
		return expandHome(c.CacheDir)
	}
	return runtimepath.CacheDir()
}

// Autosave returns the autosave period, or 0 when autosave is off.
func (c *Config) Autosave() time.Duration {
	if strings.TrimSpace(c.AutosaveInterval) == "" {
		return 0
	}
	d, err := time.ParseDuration(c.AutosaveInterval)
	if err != nil {
		return 0
	}
	return d
}

// SlogLevel maps log_level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}

	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	instance := strings.TrimSpace(c.Instance)
	if instance == "" {
		return &ValidationError{Path: "instance", Err: fmt.Errorf("instance is required")}
	}
	if instance == "." || instance == ".." || strings.ContainsRune(instance, filepath.Separator) {
		return &ValidationError{Path: "instance", Err: fmt.Errorf("instance %q must be a plain directory name", c.Instance)}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if strings.TrimSpace(c.AutosaveInterval) != "" {
		d, err := time.ParseDuration(c.AutosaveInterval)
		if err != nil {
			return &ValidationError{Path: "autosave_interval", Err: fmt.Errorf("invalid duration %q: %w", c.AutosaveInterval, err)}
		}
		if d < MinAutosaveInterval {
			return &ValidationError{Path: "autosave_interval", Err: fmt.Errorf("autosave_interval must be at least %s", MinAutosaveInterval)}
		}
	}
	if c.CaptureHotkey != "" && c.CaptureHotkey == c.RestoreHotkey {
		return &ValidationError{Path: "restore_hotkey", Err: fmt.Errorf("restore_hotkey must differ from capture_hotkey")}
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
