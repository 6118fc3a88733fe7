// Package config loads the bawstun configuration from a YAML file, with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
	"github.com/wgbh/bawstun/internal/characterize"
	"github.com/wgbh/bawstun/internal/database"
	"github.com/wgbh/bawstun/internal/ffmpeg"
	"github.com/wgbh/bawstun/internal/ingest"
	"github.com/wgbh/bawstun/internal/tool"
)

const (
	DefaultFitsPath    = "fits.sh"
	DefaultFFprobePath = "ffprobe"
	DefaultCatalogName = ".bawstun-catalog.json"
)

// DefaultFitsArgs precede the file path when FITS is invoked.
var DefaultFitsArgs = []string{"-i"}

var ErrInvalidConfig = errors.New("configuration is invalid")

type (
	// Config is the complete configuration for bawstun. It is loaded once
	// on start-up and passed to the constructors which need it.
	Config struct {
		Storage      StorageConfig           `yaml:"storage"`
		Tools        ToolsConfig             `yaml:"tools"`
		FieldMapping map[string]string       `yaml:"field_mapping"`
		Database     database.DatabaseConfig `yaml:"database"`
		Metrics      MetricsConfig           `yaml:"metrics"`
		Watch        ingest.WatchConfig      `yaml:"watch"`
		Concurrency  int                     `yaml:"concurrency" env:"CONCURRENCY" env-default:"4" validate:"min=1,max=64"`
	}

	// StorageConfig locates stored content. When the database is disabled,
	// objects are kept in the catalog file (by default inside the base dir).
	StorageConfig struct {
		BaseDir     string `yaml:"base_dir" env:"STORAGE_BASE_DIR" validate:"required"`
		IDNamespace string `yaml:"id_namespace" env:"STORAGE_ID_NAMESPACE" env-default:"sufia" validate:"required,alphanum"`
		Catalog     string `yaml:"catalog" env:"STORAGE_CATALOG"`
	}

	ToolsConfig struct {
		Fits    ToolConfig `yaml:"fits"`
		FFprobe ToolConfig `yaml:"ffprobe"`
	}

	// ToolConfig describes how to invoke a single external tool. A zero
	// timeout falls back to tool.DefaultTimeout.
	ToolConfig struct {
		Path    string        `yaml:"path" validate:"required"`
		Args    []string      `yaml:"args"`
		Timeout time.Duration `yaml:"timeout" validate:"min=0"`
	}

	MetricsConfig struct {
		Textfile string `yaml:"textfile" env:"METRICS_TEXTFILE"`
	}
)

// Load reads the YAML file at the path provided (a leading ~ is expanded)
// and applies any environment overrides. If the path is empty, the
// configuration is read solely from the environment.
func Load(path string) (*Config, error) {
	config := &Config{}
	if path == "" {
		if err := cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to read configuration from environment: %w", err)
		}
	} else {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path %s: %w", path, err)
		}

		if err := cleanenv.ReadConfig(expanded, config); err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", expanded, err)
		}
	}

	if err := config.prepare(); err != nil {
		return nil, err
	}

	return config, nil
}

// prepare fills defaults, expands home-relative paths and validates the
// configuration.
func (config *Config) prepare() error {
	if config.Tools.Fits.Path == "" {
		config.Tools.Fits.Path = DefaultFitsPath
	}
	if config.Tools.Fits.Args == nil {
		config.Tools.Fits.Args = DefaultFitsArgs
	}
	if config.Tools.FFprobe.Path == "" {
		config.Tools.FFprobe.Path = DefaultFFprobePath
	}
	if config.Tools.FFprobe.Args == nil {
		config.Tools.FFprobe.Args = ffmpeg.DefaultProbeArgs
	}
	if config.FieldMapping == nil {
		config.FieldMapping = maps.Clone(characterize.DefaultFieldMapping)
	}
	if config.Watch.ForceSyncInterval == 0 {
		config.Watch.ForceSyncInterval = ingest.DefaultForceSyncInterval
	}
	if config.Watch.SettleTime == 0 {
		config.Watch.SettleTime = ingest.DefaultSettleTime
	}

	for _, p := range []*string{&config.Storage.BaseDir, &config.Storage.Catalog, &config.Tools.Fits.Path, &config.Tools.FFprobe.Path, &config.Metrics.Textfile, &config.Watch.Dir} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %s: %w", *p, err)
		}
		*p = expanded
	}
	if config.Storage.Catalog == "" && config.Storage.BaseDir != "" {
		config.Storage.Catalog = filepath.Join(config.Storage.BaseDir, DefaultCatalogName)
	}

	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	return nil
}

// FitsRunner returns a runner for the general characterization tool.
func (config *Config) FitsRunner() *tool.Runner {
	return tool.NewRunner("fits", config.Tools.Fits.Path, config.Tools.Fits.Args, config.Tools.Fits.Timeout)
}

// ProbeRunner returns a runner for the media probe.
func (config *Config) ProbeRunner() *tool.Runner {
	return tool.NewRunner("ffprobe", config.Tools.FFprobe.Path, config.Tools.FFprobe.Args, config.Tools.FFprobe.Timeout)
}
