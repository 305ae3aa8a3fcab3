package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceKind tells where an effective value came from.
type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source is the origin of one top-level key.
type Source struct {
	Kind   SourceKind
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // key -> file position of the value that won
	Files   []string          // loaded files, includes before their includer
}

func DefaultConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "winkeep", "config.yaml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "winkeep", "config.yaml"), nil
}

// Load reads the configuration from the standard location and returns an
// effective config ready for use by the daemon. A missing file yields defaults.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources loads config and returns per-key sources for introspection.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path together with everything it includes.
func LoadFromPath(path string) (*LoadResult, error) {
	l := &fileLoader{
		seen:    make(map[string]bool),
		sources: make(map[string]Source),
	}

	raw := RawConfig{}
	if _, err := os.Stat(path); err == nil {
		if raw, err = l.load(path, nil); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg, err := BuildEffectiveConfig(raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, l.withSource(err)
	}

	return &LoadResult{
		Config:  cfg,
		Sources: l.sources,
		Files:   l.files,
	}, nil
}

// fileLoader merges a config file with its includes. Included files are
// applied first, so the including file has the last word.
type fileLoader struct {
	seen    map[string]bool
	sources map[string]Source
	files   []string
}

func (l *fileLoader) load(path string, chain []string) (RawConfig, error) {
	file, err := filepath.Abs(path)
	if err != nil {
		return RawConfig{}, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if real, err := filepath.EvalSymlinks(file); err == nil {
		file = real
	}
	if slices.Contains(chain, file) {
		return RawConfig{}, fmt.Errorf("include cycle: %s -> %s", strings.Join(chain, " -> "), file)
	}
	if l.seen[file] {
		return RawConfig{}, nil
	}
	l.seen[file] = true

	data, err := os.ReadFile(file)
	if err != nil {
		return RawConfig{}, fmt.Errorf("%s: failed to read: %w", file, err)
	}
	raw, positions, err := parseFile(file, data)
	if err != nil {
		return RawConfig{}, err
	}

	merged := RawConfig{}
	next := append(chain[:len(chain):len(chain)], file)
	for _, pattern := range raw.Include {
		paths, err := resolveInclude(file, pattern)
		if err != nil {
			pos := positions["include"]
			return RawConfig{}, fmt.Errorf("%s:%d:%d: include %q: %w", file, pos.Line, pos.Column, pattern, err)
		}
		for _, inc := range paths {
			incRaw, err := l.load(inc, next)
			if err != nil {
				return RawConfig{}, err
			}
			merged = merged.merge(incRaw)
		}
	}

	for key, src := range positions {
		l.sources[key] = src
	}
	l.files = append(l.files, file)
	return merged.merge(raw), nil
}

func (l *fileLoader) withSource(err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) && verr.Path != "" {
		if src, ok := l.sources[verr.Path]; ok {
			verr.Source = src
		}
	}
	return err
}

// parseFile strictly decodes one file and records where each top-level key
// is set. Every winkeep setting is a top-level scalar.
func parseFile(file string, data []byte) (RawConfig, map[string]Source, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RawConfig{}, nil, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}

	var raw RawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return RawConfig{}, nil, fmt.Errorf("%s: %w", file, err)
	}

	positions := make(map[string]Source)
	if len(doc.Content) > 0 && doc.Content[0].Kind == yaml.MappingNode {
		top := doc.Content[0].Content
		for i := 0; i+1 < len(top); i += 2 {
			val := top[i+1]
			positions[top[i].Value] = Source{Kind: SourceFile, File: file, Line: val.Line, Column: val.Column}
		}
	}
	return raw, positions, nil
}

// resolveInclude expands ~ and glob patterns relative to the including file.
// A plain path must exist; a glob may match nothing. Directories are skipped.
func resolveInclude(from, pattern string) ([]string, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, errors.New("path is empty")
	}
	path, err := expandHome(pattern)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(from), path)
	}

	matches, err := filepath.Glob(path)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 && !strings.ContainsAny(pattern, "*?[") {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}

	files := matches[:0]
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			files = append(files, m)
		}
	}
	return files, nil
}
