package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"

	"rsrc/common"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Resources.BaseLocale != "default" {
		t.Errorf("BaseLocale = %q, want %q", cfg.Resources.BaseLocale, "default")
	}
	if cfg.Resources.Placeholder != "error" {
		t.Errorf("Placeholder = %q, want %q", cfg.Resources.Placeholder, "error")
	}
	if cfg.Resources.Mode != common.ResolutionModeDefault {
		t.Errorf("Mode = %v, want %v", cfg.Resources.Mode, common.ResolutionModeDefault)
	}
	if cfg.Resources.Mode.Resolve() != common.ResolutionModeLenient {
		t.Errorf("Default mode resolves to %v, want lenient", cfg.Resources.Mode.Resolve())
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
resources:
  bundle: /opt/app/resources.zip
  locale: fr-CA
  placeholder: missing
  mode: strict
logging:
  console:
    level: debug
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Resources.Bundle != "/opt/app/resources.zip" {
		t.Errorf("Bundle = %q", cfg.Resources.Bundle)
	}
	if cfg.Resources.Locale != "fr-CA" {
		t.Errorf("Locale = %q, want fr-CA", cfg.Resources.Locale)
	}
	if cfg.Resources.Placeholder != "missing" {
		t.Errorf("Placeholder = %q, want missing", cfg.Resources.Placeholder)
	}
	if cfg.Resources.Mode != common.ResolutionModeStrict {
		t.Errorf("Mode = %v, want strict", cfg.Resources.Mode)
	}
	// values not present in file keep template defaults
	if cfg.Resources.StringsDir != "strings" {
		t.Errorf("StringsDir = %q, want strings", cfg.Resources.StringsDir)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("Console level = %q, want debug", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPrefix+"MODE", "strict")
	t.Setenv(EnvPrefix+"LOCALE", "it")
	t.Setenv(EnvPrefix+"BUNDLE", "/srv/bundle")

	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Resources.Mode != common.ResolutionModeStrict {
		t.Errorf("Mode = %v, want strict", cfg.Resources.Mode)
	}
	if cfg.Resources.Locale != "it" {
		t.Errorf("Locale = %q, want it", cfg.Resources.Locale)
	}
	if cfg.Resources.Bundle != "/srv/bundle" {
		t.Errorf("Bundle = %q, want /srv/bundle", cfg.Resources.Bundle)
	}
}

func TestLoadConfiguration_EnvOverridesFile(t *testing.T) {
	t.Setenv(EnvPrefix+"MODE", "lenient")
	path := writeConfig(t, `version: 1
resources:
  mode: strict
`)
	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Resources.Mode != common.ResolutionModeLenient {
		t.Errorf("Mode = %v, want lenient", cfg.Resources.Mode)
	}
}

func TestLoadConfiguration_BadEnvMode(t *testing.T) {
	t.Setenv(EnvPrefix+"MODE", "loud")
	if _, err := LoadConfiguration(""); err == nil {
		t.Error("Expected error for invalid mode in environment")
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `version: 1
resources:
  bundle: x
  invalid indent
`)
	if _, err := LoadConfiguration(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadConfiguration_UnknownFields(t *testing.T) {
	path := writeConfig(t, `version: 1
unknown_field: value
`)
	if _, err := LoadConfiguration(path); err == nil {
		t.Error("Expected error for unknown fields")
	}
}

func TestLoadConfiguration_InvalidMode(t *testing.T) {
	path := writeConfig(t, `version: 1
resources:
  mode: loud
`)
	if _, err := LoadConfiguration(path); err == nil {
		t.Error("Expected error for invalid mode")
	}
}

func TestLoadConfiguration_ValidationError(t *testing.T) {
	path := writeConfig(t, `version: 2
`)
	if _, err := LoadConfiguration(path); err == nil {
		t.Error("Expected validation error for invalid version")
	}

	path = writeConfig(t, `version: 1
resources:
  placeholder: ""
`)
	if _, err := LoadConfiguration(path); err == nil {
		t.Error("Expected validation error for empty placeholder")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {
		// Options are opaque, just test that we can pass them
	}
	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Prepare() returned empty data")
	}
	if _, err = unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Resources.Mode = common.ResolutionModeStrict

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	out := string(data)
	for _, want := range []string{"version: 1", "mode: strict", "placeholder: error", "base_locale: default"} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() output missing %q:\n%s", want, out)
		}
	}

	// dumped configuration must load back
	back, err := unmarshalConfig(data, &Config{}, true)
	if err != nil {
		t.Fatalf("unmarshalConfig() of dumped data error = %v", err)
	}
	if back.Resources.Mode != common.ResolutionModeStrict {
		t.Errorf("Mode after round trip = %v, want strict", back.Resources.Mode)
	}
}
