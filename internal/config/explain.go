package config

import (
	"fmt"
)

// Explain returns the effective value at the given top-level key and where it
// came from. Keys are the YAML names, for example:
//
//	instance
//	log_level
//	autosave_interval
//	capture_hotkey
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	switch path {
	case "instance":
		return cfg.Instance, nil
	case "cache_dir":
		return cfg.CacheDir, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "restore_on_start":
		return cfg.RestoreOnStart, nil
	case "capture_on_exit":
		return cfg.CaptureOnExit, nil
	case "verify_restore":
		return cfg.VerifyRestore, nil
	case "autosave_interval":
		return cfg.AutosaveInterval, nil
	case "capture_hotkey":
		return cfg.CaptureHotkey, nil
	case "restore_hotkey":
		return cfg.RestoreHotkey, nil
	case "display":
		return cfg.Display, nil
	case "xauthority":
		return cfg.XAuthority, nil
	default:
		return nil, fmt.Errorf("unknown config path %q", path)
	}
}
