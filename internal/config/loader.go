package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	defaultDir = ".dwarfcat"
	configFile = "config.yaml"
)

// Loader resolves and reads the config file.
type Loader struct {
	baseDir string
}

// NewLoader creates a config loader. The base directory is resolved in
// this order:
//  1. DWARFCAT_CONFIG environment variable.
//  2. User home directory (~/).
//  3. /tmp/dwarfcat-fallback (environments without a home dir).
//
// The loader never fails to construct; when no config file exists Load
// returns defaults with env overrides applied.
func NewLoader() *Loader {
	if baseDir := os.Getenv("DWARFCAT_CONFIG"); baseDir != "" {
		return &Loader{baseDir: baseDir}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		return &Loader{baseDir: homeDir}
	}

	return &Loader{baseDir: "/tmp/dwarfcat-fallback"}
}

// Path returns the path of the config file.
func (l *Loader) Path() string {
	return filepath.Join(l.baseDir, defaultDir, configFile)
}

// Load reads the configuration. A missing file yields defaults; a
// malformed file is an error. Environment overrides apply in both cases.
func (l *Loader) Load() (*Config, error) {
	path := l.Path()

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := MergeFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return cfg, nil
}
