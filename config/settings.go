package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LoadFileConfig decodes config.toml at path.
// Returns nil if the file doesn't exist (not an error)
func LoadFileConfig(path string) (*FileConfig, error) {
	if !FileExists(path) {
		return nil, nil
	}

	fc := DefaultFileConfig()
	meta, err := toml.DecodeFile(path, fc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 && DebugLog != nil {
		DebugLog.Warnf("[Config] Ignoring unknown keys in %s: %v", path, undecoded)
	}

	return fc, nil
}

// CreateDefaultConfig writes the commented template unless a config file already exists
func CreateDefaultConfig() error {
	path := GetConfigFilePath()
	if FileExists(path) {
		return nil
	}

	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(GenerateConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
