// SPDX-License-Identifier: MIT

// Package config loads the process-wide benderjob configuration.
//
// Precedence: ENV > file > defaults. The file is YAML and discovered via
// Location() unless an explicit path is given.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoSalt marks a configuration without a usable salt. The atomizer
	// refuses to fingerprint user identities without one.
	ErrNoSalt = errors.New("config: salt missing")

	// ErrNotFound marks a missing configuration file.
	ErrNotFound = errors.New("config: file not found")
)

// Config holds the process-wide settings shared by all benderjob services.
type Config struct {
	// Salt is the shared secret mixed into user fingerprints.
	Salt string `yaml:"salt"`

	// ScanScript is the python script executed inside blender during a scan.
	ScanScript string `yaml:"scan_script"`

	// Root is the base directory holding blendfiles/ and frames/.
	Root string `yaml:"root"`

	// LogLevel controls the global logger ("debug", "info", ...).
	LogLevel string `yaml:"log_level"`
}

type envLookupFunc func(key string) (string, bool)

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath  string
	lookupEnvFn envLookupFunc
}

// NewLoader creates a configuration loader for the given path. An empty path
// means "use Location()".
func NewLoader(configPath string) *Loader {
	return NewLoaderWithEnv(configPath, os.LookupEnv)
}

// NewLoaderWithEnv creates a loader with an injected environment source.
func NewLoaderWithEnv(configPath string, lookup envLookupFunc) *Loader {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Loader{configPath: configPath, lookupEnvFn: lookup}
}

// Load loads configuration with precedence: ENV > file > defaults.
func (l *Loader) Load() (Config, error) {
	cfg := defaults()

	path := l.configPath
	if path == "" {
		path = l.location()
	}
	if path != "" {
		if err := mergeFile(&cfg, path); err != nil && !errors.Is(err, ErrNotFound) {
			return cfg, err
		}
	}

	l.mergeEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		ScanScript: "/usr/local/bin/optimize_blend.py",
		Root:       "/data",
		LogLevel:   "info",
	}
}

func mergeFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if file.Salt != "" {
		cfg.Salt = file.Salt
	}
	if file.ScanScript != "" {
		cfg.ScanScript = file.ScanScript
	}
	if file.Root != "" {
		cfg.Root = file.Root
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *Config) {
	if v, ok := l.lookupEnvFn("BENDERJOB_SALT"); ok && v != "" {
		cfg.Salt = v
	}
	if v, ok := l.lookupEnvFn("BENDERJOB_SCAN_SCRIPT"); ok && v != "" {
		cfg.ScanScript = v
	}
	if v, ok := l.lookupEnvFn("BENDERJOB_ROOT"); ok && v != "" {
		cfg.Root = v
	}
	if v, ok := l.lookupEnvFn("BENDERJOB_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
}

// location resolves the config file search path:
// $BENDERJOB_CONFIG, then $XDG_CONFIG_HOME/benderjob/config.yaml (or
// $HOME/.config/benderjob/config.yaml when XDG_CONFIG_HOME is unset),
// then /etc/benderjob/config.yaml. Returns the first existing candidate,
// or the system-wide path when none exists yet.
func (l *Loader) location() string {
	if v, ok := l.lookupEnvFn("BENDERJOB_CONFIG"); ok && v != "" {
		return v
	}

	candidates := []string{}
	if xdg, ok := l.lookupEnvFn("XDG_CONFIG_HOME"); ok && xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "benderjob", "config.yaml"))
	} else if home, ok := l.lookupEnvFn("HOME"); ok && home != "" {
		candidates = append(candidates, filepath.Join(home, ".config", "benderjob", "config.yaml"))
	}
	candidates = append(candidates, "/etc/benderjob/config.yaml")

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return candidates[len(candidates)-1]
}

// Location returns the discovered config path using the process environment.
func Location() string {
	return NewLoader("").location()
}

// Load is a convenience wrapper: load using the standard location convention.
func Load() (Config, error) {
	return NewLoader("").Load()
}

// GetSalt returns the configured salt, or ErrNoSalt when unset.
func (c Config) GetSalt() (string, error) {
	if c.Salt == "" {
		return "", ErrNoSalt
	}
	return c.Salt, nil
}
