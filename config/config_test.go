package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestLoadFileConfigMissing(t *testing.T) {
	fc, err := LoadFileConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc != nil {
		t.Fatalf("expected nil config for missing file, got %+v", fc)
	}
}

func TestLoadFileConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
data_directory = "/tmp/evolve-test"

[query]
endpoint = "http://example.test/query"
timeout = "15s"

[chat]
default_dataset = "paytm"
canned_delay = "250ms"
render_markdown = false
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig: %v", err)
	}

	cfg := Defaults()
	cfg.applyFile(fc)

	if cfg.QueryEndpoint != "http://example.test/query" {
		t.Errorf("endpoint: got %q", cfg.QueryEndpoint)
	}
	if cfg.ContextSuffix != DefaultContextSuffix {
		t.Errorf("suffix should keep default, got %q", cfg.ContextSuffix)
	}
	if cfg.QueryTimeout != 15*time.Second {
		t.Errorf("timeout: got %v", cfg.QueryTimeout)
	}
	if cfg.DefaultDataset != "paytm" {
		t.Errorf("dataset: got %q", cfg.DefaultDataset)
	}
	if cfg.CannedDelay != 250*time.Millisecond {
		t.Errorf("delay: got %v", cfg.CannedDelay)
	}
	if cfg.RenderMarkdown {
		t.Error("render_markdown should be false")
	}
	if cfg.DataDir() != "/tmp/evolve-test" {
		t.Errorf("data dir: got %q", cfg.DataDir())
	}
}

func TestLoadFileConfigKeepsXDGDataDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG directories are not used on Windows")
	}
	t.Setenv("HOME", "/home/tester")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[chat]\ndefault_dataset = \"paytm\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig: %v", err)
	}

	cfg := Defaults()
	cfg.applyFile(fc)
	if cfg.DataDir() != "/xdg/data/evolve" {
		t.Errorf("data dir without data_directory key: got %q", cfg.DataDir())
	}

	template := filepath.Join(t.TempDir(), "template.toml")
	if err := os.WriteFile(template, []byte(GenerateConfigTemplate()), 0600); err != nil {
		t.Fatal(err)
	}
	fc, err = LoadFileConfig(template)
	if err != nil {
		t.Fatalf("LoadFileConfig(template): %v", err)
	}
	cfg = Defaults()
	cfg.applyFile(fc)
	if cfg.DataDir() != "/xdg/data/evolve" {
		t.Errorf("data dir from generated template: got %q", cfg.DataDir())
	}
}

func TestLoadFileConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[chat]\ncanned_delay = \"soon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFileConfig(path); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EVOLVE_QUERY_ENDPOINT", "http://env.test/query")
	t.Setenv("EVOLVE_DATASET", "custom-1")
	t.Setenv("EVOLVE_CANNED_DELAY", "0s")

	cfg := Defaults()
	if err := cfg.applyEnvOverrides(); err != nil {
		t.Fatalf("applyEnvOverrides: %v", err)
	}

	if cfg.QueryEndpoint != "http://env.test/query" {
		t.Errorf("endpoint: got %q", cfg.QueryEndpoint)
	}
	if cfg.DefaultDataset != "custom-1" {
		t.Errorf("dataset: got %q", cfg.DefaultDataset)
	}
	if cfg.CannedDelay != 0 {
		t.Errorf("delay: got %v", cfg.CannedDelay)
	}
}

func TestEnvOverridesInvalidDelay(t *testing.T) {
	t.Setenv("EVOLVE_CANNED_DELAY", "later")

	cfg := Defaults()
	if err := cfg.applyEnvOverrides(); err == nil {
		t.Fatal("expected error for invalid EVOLVE_CANNED_DELAY")
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	if got := ExpandPath("~/data"); got != "/home/tester/data" {
		t.Errorf("ExpandPath(~/data) = %q", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q", got)
	}
}

func TestXDGDirectories(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG directories are not used on Windows")
	}
	t.Setenv("HOME", "/home/tester")

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	if got := GetConfigFilePath(); got != "/home/tester/.config/evolve/config.toml" {
		t.Errorf("GetConfigFilePath() = %q", got)
	}
	if got := GetDefaultDataDir(); got != "/home/tester/.local/share/evolve" {
		t.Errorf("GetDefaultDataDir() = %q", got)
	}

	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "relative/ignored")
	if got := GetConfigDir(); got != "/xdg/config/evolve" {
		t.Errorf("GetConfigDir() = %q", got)
	}
	if got := GetDefaultDataDir(); got != "/home/tester/.local/share/evolve" {
		t.Errorf("GetDefaultDataDir() with relative XDG_DATA_HOME = %q", got)
	}
}
