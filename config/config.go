package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Duration wraps time.Duration so TOML files can carry values like "6s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type QueryConfig struct {
	Endpoint      string   `toml:"endpoint"`
	ContextSuffix string   `toml:"context_suffix"`
	Timeout       Duration `toml:"timeout"`
}

type ChatConfig struct {
	DefaultDataset string   `toml:"default_dataset"`
	CannedDelay    Duration `toml:"canned_delay"`
	RenderMarkdown bool     `toml:"render_markdown"`
}

type FileConfig struct {
	DataDirectory string      `toml:"data_directory"`
	Query         QueryConfig `toml:"query"`
	Chat          ChatConfig  `toml:"chat"`
}

type Config struct {
	DataDirectory  string
	QueryEndpoint  string
	ContextSuffix  string
	QueryTimeout   time.Duration
	DefaultDataset string
	CannedDelay    time.Duration
	RenderMarkdown bool
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyFile(fc *FileConfig) {
	if fc.DataDirectory != "" {
		c.DataDirectory = fc.DataDirectory
	}
	if fc.Query.Endpoint != "" {
		c.QueryEndpoint = fc.Query.Endpoint
	}
	if fc.Query.ContextSuffix != "" {
		c.ContextSuffix = fc.Query.ContextSuffix
	}
	if fc.Query.Timeout.Duration > 0 {
		c.QueryTimeout = fc.Query.Timeout.Duration
	}
	if fc.Chat.DefaultDataset != "" {
		c.DefaultDataset = fc.Chat.DefaultDataset
	}
	// Zero is a legal delay (instant canned replies), so only negative values are ignored
	if fc.Chat.CannedDelay.Duration >= 0 {
		c.CannedDelay = fc.Chat.CannedDelay.Duration
	}
	c.RenderMarkdown = fc.Chat.RenderMarkdown
}

func (c *Config) applyEnvOverrides() error {
	if endpoint := os.Getenv("EVOLVE_QUERY_ENDPOINT"); endpoint != "" {
		c.QueryEndpoint = endpoint
	}
	if dataset := os.Getenv("EVOLVE_DATASET"); dataset != "" {
		c.DefaultDataset = dataset
	}
	if dataDir := os.Getenv("EVOLVE_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if delay := os.Getenv("EVOLVE_CANNED_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid EVOLVE_CANNED_DELAY: %w", err)
		}
		c.CannedDelay = d
	}
	return nil
}

// Load builds the effective configuration: defaults, then config.toml, then
// EVOLVE_* environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	fc, err := LoadFileConfig(GetConfigFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if fc != nil {
		cfg.applyFile(fc)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	return cfg, nil
}
