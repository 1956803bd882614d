// Package config handles project configuration for a conversion run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents project configuration stored in zm.yml.
// Relative paths are resolved against the directory of the config file.
type Config struct {
	Bibliography   string `yaml:"bibliography"`             // Path to the .bib file
	Records        string `yaml:"records"`                  // Path to the records CSV
	Delimiter      string `yaml:"delimiter,omitempty"`      // CSV field delimiter
	IDColumn       string `yaml:"id_column,omitempty"`      // Column holding the record ID
	SourcesColumn  string `yaml:"sources_column,omitempty"` // Column holding free-text sources
	Overrides      string `yaml:"overrides,omitempty"`      // Path to manual bibkey overrides (YAML)
	OutputDir      string `yaml:"output_dir,omitempty"`     // Where sources.jsonl and the cache go
	WarnUnresolved bool   `yaml:"warn_unresolved,omitempty"`
}

const (
	// DefaultConfigFile is looked up in the working directory.
	DefaultConfigFile = "zm.yml"
	// ConfigEnvVar overrides the config file location.
	ConfigEnvVar = "ZM_CONFIG"

	DefaultDelimiter     = ";"
	DefaultIDColumn      = "ID"
	DefaultSourcesColumn = "Source"
	DefaultOutputDir     = "out"

	SourcesFile = "sources.jsonl"
	CacheDir    = "cache"
	DBFile      = "zm.db"
)

// ErrNoConfig is returned when no config file can be located.
var ErrNoConfig = errors.New("no config file found")

// Locate returns the config path to use: the explicit path if given, else
// $ZM_CONFIG, else ./zm.yml.
func Locate(explicit string) (string, error) {
	path := explicit
	if path == "" {
		path = os.Getenv(ConfigEnvVar)
	}
	if path == "" {
		path = DefaultConfigFile
	}
	path = ExpandPath(path)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNoConfig, path)
		}
		return "", fmt.Errorf("checking config: %w", err)
	}
	return path, nil
}

// Load reads configuration from path, applies defaults, and resolves
// relative paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	cfg.resolvePaths(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}
	if c.IDColumn == "" {
		c.IDColumn = DefaultIDColumn
	}
	if c.SourcesColumn == "" {
		c.SourcesColumn = DefaultSourcesColumn
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{&c.Bibliography, &c.Records, &c.Overrides, &c.OutputDir} {
		if *p == "" {
			continue
		}
		*p = ExpandPath(*p)
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Validate checks required fields and value constraints.
func (c *Config) Validate() error {
	if c.Bibliography == "" {
		return fmt.Errorf("config: bibliography is required")
	}
	if c.Records == "" {
		return fmt.Errorf("config: records is required")
	}
	if len([]rune(c.Delimiter)) != 1 {
		return fmt.Errorf("config: delimiter must be a single character, got %q", c.Delimiter)
	}
	return nil
}

// DelimiterRune returns the CSV delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	return []rune(c.Delimiter)[0]
}

// SourcesPath returns the path to sources.jsonl.
func (c *Config) SourcesPath() string {
	return filepath.Join(c.OutputDir, SourcesFile)
}

// CachePath returns the path to the cache directory.
func (c *Config) CachePath() string {
	return filepath.Join(c.OutputDir, CacheDir)
}

// DBPath returns the path to the SQLite query cache.
func (c *Config) DBPath() string {
	return filepath.Join(c.OutputDir, CacheDir, DBFile)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
