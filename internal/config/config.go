package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	AnalysisTimeout time.Duration   `yaml:"analysis_timeout" envconfig:"ANALYSIS_TIMEOUT" default:"10m"`
	MaxUploadBytes  int64           `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"26214400"`
	JobWorkers      int             `yaml:"job_workers" envconfig:"JOB_WORKERS" default:"4" validate:"min=1,max=64"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"10"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system paths used by the CLI collaborator
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"outputs"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// AnalysisConfig configures the analysis pipeline. It is passed verbatim to
// the orchestrator by both the CLI and the web service.
type AnalysisConfig struct {
	// Loader settings
	MinObservations    int      `yaml:"min_observations" envconfig:"MIN_OBSERVATIONS" default:"30" validate:"min=2"`
	MaxDroppedFraction float64  `yaml:"max_dropped_fraction" envconfig:"MAX_DROPPED_FRACTION" default:"0.2" validate:"gte=0,lte=1"`
	TimestampAliases   []string `yaml:"timestamp_aliases" envconfig:"TIMESTAMP_ALIASES"`
	OpenAliases        []string `yaml:"open_aliases" envconfig:"OPEN_ALIASES"`
	HighAliases        []string `yaml:"high_aliases" envconfig:"HIGH_ALIASES"`
	LowAliases         []string `yaml:"low_aliases" envconfig:"LOW_ALIASES"`
	CloseAliases       []string `yaml:"close_aliases" envconfig:"CLOSE_ALIASES"`
	VolumeAliases      []string `yaml:"volume_aliases" envconfig:"VOLUME_ALIASES"`
	DateFormats        []string `yaml:"date_formats" envconfig:"DATE_FORMATS"`

	// Feature engineering
	Features []FeatureConfig `yaml:"features"`

	// Model settings
	Model ModelConfig `yaml:"model" envconfig:"MODEL"`
}

// FeatureConfig describes one engineered feature
type FeatureConfig struct {
	Name   string `yaml:"name" validate:"required"`
	Kind   string `yaml:"kind" validate:"required,oneof=return sma stddev momentum rsi direction"`
	Window int    `yaml:"window" validate:"min=1"`
}

// ModelConfig describes the model family and its hyperparameters
type ModelConfig struct {
	Kind         string  `yaml:"kind" envconfig:"KIND" default:"mlp" validate:"oneof=momentum linear mlp"`
	Seed         int64   `yaml:"seed" envconfig:"SEED" default:"42"`
	TrainSplit   float64 `yaml:"train_split" envconfig:"TRAIN_SPLIT" default:"0.8" validate:"gt=0,lt=1"`
	Target       string  `yaml:"target" envconfig:"TARGET" default:"direction"`
	HiddenUnits  int     `yaml:"hidden_units" envconfig:"HIDDEN_UNITS" default:"32" validate:"min=1,max=512"`
	Epochs       int     `yaml:"epochs" envconfig:"EPOCHS" default:"200" validate:"min=1"`
	LearningRate float64 `yaml:"learning_rate" envconfig:"LEARNING_RATE" default:"0.05" validate:"gt=0"`
	MinSamples   int     `yaml:"min_samples" envconfig:"MIN_SAMPLES" default:"30" validate:"min=2"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("EQ", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	cfg.Analysis.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence
// for scalar fields that were explicitly set; file fills in the rest)
func mergeConfigs(fileCfg, envCfg Config) Config {
	merged := envCfg

	if len(envCfg.Analysis.Features) == 0 {
		merged.Analysis.Features = fileCfg.Analysis.Features
	}
	if len(envCfg.Analysis.TimestampAliases) == 0 {
		merged.Analysis.TimestampAliases = fileCfg.Analysis.TimestampAliases
	}
	if len(envCfg.Analysis.OpenAliases) == 0 {
		merged.Analysis.OpenAliases = fileCfg.Analysis.OpenAliases
	}
	if len(envCfg.Analysis.HighAliases) == 0 {
		merged.Analysis.HighAliases = fileCfg.Analysis.HighAliases
	}
	if len(envCfg.Analysis.LowAliases) == 0 {
		merged.Analysis.LowAliases = fileCfg.Analysis.LowAliases
	}
	if len(envCfg.Analysis.CloseAliases) == 0 {
		merged.Analysis.CloseAliases = fileCfg.Analysis.CloseAliases
	}
	if len(envCfg.Analysis.VolumeAliases) == 0 {
		merged.Analysis.VolumeAliases = fileCfg.Analysis.VolumeAliases
	}
	if len(envCfg.Analysis.DateFormats) == 0 {
		merged.Analysis.DateFormats = fileCfg.Analysis.DateFormats
	}

	return merged
}

// Validate validates the configuration using struct tags
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

// getConfigFilePath returns the config file path, honoring EQ_CONFIG_FILE
func getConfigFilePath() string {
	if path := os.Getenv("EQ_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}
