// Package config provides typed configuration for stepwise.
//
// Configuration is assembled from three layers, later layers overriding
// earlier ones: built-in defaults, an optional TOML or YAML file, and
// STEPWISE_ environment variables.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/stepwise/internal/config/loader"
	"github.com/dshills/stepwise/internal/logging"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "STEPWISE_"

// Config is the complete stepwise configuration.
type Config struct {
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
	Script  ScriptConfig  `yaml:"script"`
}

// HistoryConfig configures the history manager.
type HistoryConfig struct {
	// MaxSteps is the number of applied steps retained. Zero means unbounded.
	MaxSteps int `yaml:"maxSteps"`
	// DropFailedSteps removes a step whose submission failed.
	DropFailedSteps bool `yaml:"dropFailedSteps"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ScriptConfig configures Lua operators.
type ScriptConfig struct {
	// Timeout bounds each call into Lua. Zero disables the timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History: HistoryConfig{MaxSteps: 0},
		Logging: LoggingConfig{Level: "info"},
		Script:  ScriptConfig{Timeout: 5 * time.Second},
	}
}

// Validate checks every setting and returns the first violation.
func (c Config) Validate() error {
	if c.History.MaxSteps < 0 {
		return &ValidationError{Path: "history.maxSteps", Value: c.History.MaxSteps, Message: "must not be negative"}
	}
	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		return &ValidationError{Path: "logging.level", Value: c.Logging.Level, Message: "must be one of debug, info, warn, error"}
	}
	if c.Script.Timeout < 0 {
		return &ValidationError{Path: "script.timeout", Value: c.Script.Timeout, Message: "must not be negative"}
	}
	return nil
}

// LogLevel returns the parsed logging level, defaulting to info.
func (c Config) LogLevel() logging.Level {
	if level, ok := logging.ParseLevel(c.Logging.Level); ok {
		return level
	}
	return logging.LevelInfo
}

// Load reads the configuration from path and the environment. An empty
// path or a missing file leaves the defaults in place.
func Load(path string) (Config, error) {
	return LoadFS(loader.DefaultFS(), path)
}

// LoadFS is Load over a custom file system.
func LoadFS(fsys loader.FileSystem, path string) (Config, error) {
	var fileValues map[string]any
	if path != "" {
		l, err := loader.ForPath(fsys, path)
		if err != nil {
			return Config{}, err
		}
		if fileValues, err = l.Load(); err != nil {
			return Config{}, err
		}
	}

	env := loader.NewEnvLoader(EnvPrefix)
	env.AddMapping(EnvPrefix+"MAX_STEPS", "history.maxSteps")
	env.AddMapping(EnvPrefix+"LOG_LEVEL", "logging.level")
	envValues, err := env.Load()
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := decode(loader.DeepMerge(fileValues, envValues), &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode applies values on top of cfg. Values are re-encoded as YAML so
// the struct tags drive field mapping and durations parse from strings.
func decode(values map[string]any, cfg *Config) error {
	if len(values) == 0 {
		return nil
	}
	data, err := yaml.Marshal(values)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
