package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	env "github.com/caarlos0/env/v11"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"rsrc/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

// EnvPrefix is prepended to names of environment variables which may
// override loaded configuration.
const EnvPrefix = "RSRC_"

type (
	ResourcesConfig struct {
		Bundle      string                `yaml:"bundle" env:"BUNDLE" sanitize:"path_clean" validate:"required"`
		StringsDir  string                `yaml:"strings_dir" validate:"required"`
		ImagesDir   string                `yaml:"images_dir" validate:"required"`
		BaseLocale  string                `yaml:"base_locale" validate:"required"`
		Locale      string                `yaml:"locale" env:"LOCALE" validate:"required"`
		Placeholder string                `yaml:"placeholder" env:"PLACEHOLDER" validate:"required"`
		Mode        common.ResolutionMode `yaml:"mode" env:"MODE" validate:"gte=0"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Resources ResourcesConfig `yaml:"resources"`
		Logging   LoggingConfig   `yaml:"logging"`
		Reporting ReporterConfig  `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := processConfig(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// processConfig applies environment overrides, then sanitizes and validates
// resulting values.
func processConfig(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := gencfg.Sanitize(cfg); err != nil {
		return err
	}
	if err := gencfg.Validate(cfg); err != nil {
		return err
	}
	return nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults, applies environment overrides and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
