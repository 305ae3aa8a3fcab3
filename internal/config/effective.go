package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies the merged raw values on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Instance != nil {
		cfg.Instance = *raw.Instance
	}
	if raw.CacheDir != nil {
		cfg.CacheDir = *raw.CacheDir
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.RestoreOnStart != nil {
		cfg.RestoreOnStart = *raw.RestoreOnStart
	}
	if raw.CaptureOnExit != nil {
		cfg.CaptureOnExit = *raw.CaptureOnExit
	}
	if raw.VerifyRestore != nil {
		cfg.VerifyRestore = *raw.VerifyRestore
	}
	if raw.AutosaveInterval != nil {
		cfg.AutosaveInterval = *raw.AutosaveInterval
	}
	if raw.CaptureHotkey != nil {
		cfg.CaptureHotkey = *raw.CaptureHotkey
	}
	if raw.RestoreHotkey != nil {
		cfg.RestoreHotkey = *raw.RestoreHotkey
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}

	return cfg, nil
}
