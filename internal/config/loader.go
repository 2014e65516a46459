package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".crawldb"

// ErrConfigNotFound is returned when the configuration file does not
// exist. Callers decide whether that matters: an explicit --config path
// that is missing is an error, a missing default file is not.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the on-disk shape of the .crawldb YAML file. Every field is
// optional; set fields override the corresponding Config defaults.
// Durations are YAML strings in time.ParseDuration syntax ("1.5s").
type File struct {
	BaseURL          string   `yaml:"base_url,omitempty"`
	CollectionPath   string   `yaml:"collection_path,omitempty"`
	CookiePath       string   `yaml:"cookie_path,omitempty"`
	DataDir          string   `yaml:"data_dir,omitempty"`
	PicksDir         string   `yaml:"picks_dir,omitempty"`
	UserAgent        string   `yaml:"user_agent,omitempty"`
	Timeout          string   `yaml:"timeout,omitempty"`
	DelayMin         string   `yaml:"delay_min,omitempty"`
	DelayMax         string   `yaml:"delay_max,omitempty"`
	DisableEarlyStop *bool    `yaml:"disable_early_stop,omitempty"`
	Tags             []string `yaml:"tags,omitempty"`
	SortType         string   `yaml:"sort_type,omitempty"`
}

// LoadConfigFile reads and parses a .crawldb file.
// A missing file yields ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile locates the configuration file:
//  1. the explicit path when given,
//  2. .crawldb in the current directory,
//  3. .crawldb in the user's home directory.
//
// Returns the empty string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// Apply overlays the file's set fields onto cfg.
// Field errors (bad duration syntax) are reported with the field name.
func (f *File) Apply(cfg *Config) error {
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.CollectionPath != "" {
		cfg.CollectionPath = f.CollectionPath
	}
	if f.CookiePath != "" {
		cfg.CookiePath = f.CookiePath
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.PicksDir != "" {
		cfg.PicksDir = f.PicksDir
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.DisableEarlyStop != nil {
		cfg.DisableEarlyStop = *f.DisableEarlyStop
	}
	if len(f.Tags) > 0 {
		cfg.Tags = f.Tags
	}
	if f.SortType != "" {
		cfg.SortType = f.SortType
	}

	for _, d := range []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"timeout", f.Timeout, &cfg.Timeout},
		{"delay_min", f.DelayMin, &cfg.DelayMin},
		{"delay_max", f.DelayMax, &cfg.DelayMax},
	} {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("config field %s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}
