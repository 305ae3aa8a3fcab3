package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "conf.d/*.yaml"
//
// Relative entries are resolved against the including file.
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawConfig is one YAML file as written; nil fields were not set there.
type RawConfig struct {
	Include          IncludeList `yaml:"include"`
	Instance         *string     `yaml:"instance"`
	CacheDir         *string     `yaml:"cache_dir"`
	LogLevel         *string     `yaml:"log_level"`
	RestoreOnStart   *bool       `yaml:"restore_on_start"`
	CaptureOnExit    *bool       `yaml:"capture_on_exit"`
	VerifyRestore    *bool       `yaml:"verify_restore"`
	AutosaveInterval *string     `yaml:"autosave_interval"`
	CaptureHotkey    *string     `yaml:"capture_hotkey"`
	RestoreHotkey    *string     `yaml:"restore_hotkey"`
	Display          *string     `yaml:"display"`
	XAuthority       *string     `yaml:"xauthority"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Instance != nil {
		out.Instance = overlay.Instance
	}
	if overlay.CacheDir != nil {
		out.CacheDir = overlay.CacheDir
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.RestoreOnStart != nil {
		out.RestoreOnStart = overlay.RestoreOnStart
	}
	if overlay.CaptureOnExit != nil {
		out.CaptureOnExit = overlay.CaptureOnExit
	}
	if overlay.VerifyRestore != nil {
		out.VerifyRestore = overlay.VerifyRestore
	}
	if overlay.AutosaveInterval != nil {
		out.AutosaveInterval = overlay.AutosaveInterval
	}
	if overlay.CaptureHotkey != nil {
		out.CaptureHotkey = overlay.CaptureHotkey
	}
	if overlay.RestoreHotkey != nil {
		out.RestoreHotkey = overlay.RestoreHotkey
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}

	// include is resolved per file and never carried over.
	out.Include = nil
	return out
}
