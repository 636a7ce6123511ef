package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Engine struct {
		ModelDir        string        `yaml:"model_dir"`
		SequenceLength  int           `yaml:"sequence_length"`
		MinEligibleDays int           `yaml:"min_eligible_days"`
		MinSamples      int           `yaml:"min_samples"`
		MaxEpochs       int           `yaml:"max_epochs"`
		Patience        int           `yaml:"patience"`
		TrainTimeout    time.Duration `yaml:"train_timeout"`
		QueueSize       int           `yaml:"queue_size"`
		CacheMaxModels  int           `yaml:"cache_max_models"`
		CacheTTL        time.Duration `yaml:"cache_ttl"`
	} `yaml:"engine"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("LOADPULSE_MODEL_DIR"); v != "" {
		c.Engine.ModelDir = v
	}
	if v := os.Getenv("LOADPULSE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("LOADPULSE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Engine.SequenceLength == 0 {
		c.Engine.SequenceLength = 28
	}
	if c.Engine.MinEligibleDays == 0 {
		c.Engine.MinEligibleDays = 42
	}
	if c.Engine.MinSamples == 0 {
		c.Engine.MinSamples = 5
	}
	if c.Engine.MaxEpochs == 0 {
		c.Engine.MaxEpochs = 50
	}
	if c.Engine.Patience == 0 {
		c.Engine.Patience = 5
	}
	if c.Engine.TrainTimeout == 0 {
		c.Engine.TrainTimeout = 2 * time.Minute
	}
	if c.Engine.QueueSize == 0 {
		c.Engine.QueueSize = 64
	}
	if c.Engine.CacheMaxModels == 0 {
		c.Engine.CacheMaxModels = 16
	}
	if c.Engine.CacheTTL == 0 {
		c.Engine.CacheTTL = 12 * time.Hour
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Engine.ModelDir == "" {
		return fmt.Errorf("engine.model_dir is required")
	}
	if c.Engine.SequenceLength < 7 {
		return fmt.Errorf("engine.sequence_length must be at least 7, got %d", c.Engine.SequenceLength)
	}
	if c.Engine.MinEligibleDays < c.Engine.SequenceLength {
		return fmt.Errorf("engine.min_eligible_days must cover at least one sequence")
	}
	return nil
}
