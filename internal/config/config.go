// Package config loads the settings of the ecs-stress runner.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Run      RunConfig      `toml:"run" yaml:"run"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
	Scenario ScenarioConfig `toml:"scenario" yaml:"scenario"`
}

type RunConfig struct {
	Duration       time.Duration `toml:"duration" yaml:"duration"`
	Entities       int           `toml:"entities" yaml:"entities"`
	ChurnPerFrame  int           `toml:"churn_per_frame" yaml:"churn_per_frame"` // component add/remove edits per frame
	Seed           int64         `toml:"seed" yaml:"seed"`                       // 0 = time based
	Tick           time.Duration `toml:"tick" yaml:"tick"`                       // 0 = run frames back to back
	ReportInterval time.Duration `toml:"report_interval" yaml:"report_interval"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

type ScenarioConfig struct {
	Templates string `toml:"templates" yaml:"templates"` // YAML template table; empty = built-in
}

// Load reads a TOML file, or a YAML file when the extension is .yaml/.yml.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	return &Config{
		Run: RunConfig{
			Duration:       10 * time.Second,
			Entities:       10000,
			ChurnPerFrame:  100,
			ReportInterval: time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Run.Duration <= 0 {
		errs = append(errs, errors.New("run.duration must be positive"))
	}
	if c.Run.Entities < 0 {
		errs = append(errs, errors.New("run.entities must not be negative"))
	}
	if c.Run.ChurnPerFrame < 0 {
		errs = append(errs, errors.New("run.churn_per_frame must not be negative"))
	}
	if c.Run.ReportInterval <= 0 {
		errs = append(errs, errors.New("run.report_interval must be positive"))
	}
	if c.Run.Tick < 0 {
		errs = append(errs, errors.New("run.tick must not be negative"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be json or console", c.Logging.Format))
	}
	return errors.Join(errs...)
}
