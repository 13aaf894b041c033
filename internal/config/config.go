// Package config loads access-cli settings from config.yaml and ACCESS_*
// environment variables, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Dataset  DatasetConfig  `yaml:"dataset" mapstructure:"dataset"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnalysisConfig configures the accessibility engine.
type AnalysisConfig struct {
	SampleSize        int   `yaml:"sample_size" mapstructure:"sample_size"`
	Seed              int64 `yaml:"seed" mapstructure:"seed"`
	Workers           int   `yaml:"workers" mapstructure:"workers"`
	StrictCoordinates bool  `yaml:"strict_coordinates" mapstructure:"strict_coordinates"`
	TimeoutSecs       int   `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UnderservedTop    int   `yaml:"underserved_top" mapstructure:"underserved_top"`
	ProgressEvery     int   `yaml:"progress_every" mapstructure:"progress_every"`
}

// DatasetConfig configures input loading.
type DatasetConfig struct {
	JitterSeed    uint64              `yaml:"jitter_seed" mapstructure:"jitter_seed"`
	CentroidsPath string              `yaml:"centroids_path" mapstructure:"centroids_path"`
	Fields        map[string][]string `yaml:"fields" mapstructure:"fields"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ACCESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "access.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("analysis.sample_size", 9000)
	v.SetDefault("analysis.seed", 42)
	v.SetDefault("analysis.workers", 1)
	v.SetDefault("analysis.strict_coordinates", false)
	v.SetDefault("analysis.timeout_secs", 0)
	v.SetDefault("analysis.underserved_top", 5)
	v.SetDefault("analysis.progress_every", 500)
	v.SetDefault("dataset.jitter_seed", 42)
	v.SetDefault("dataset.centroids_path", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Known modes are
// "analyze", "runs", and "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}

	switch mode {
	case "analyze":
		if c.Analysis.Workers < 1 || c.Analysis.Workers > 256 {
			problems = append(problems, "analysis.workers must be between 1 and 256")
		}
		if c.Analysis.SampleSize < 0 {
			problems = append(problems, "analysis.sample_size must be >= 0")
		}
		if c.Analysis.TimeoutSecs < 0 {
			problems = append(problems, "analysis.timeout_secs must be >= 0")
		}
		if c.Analysis.UnderservedTop < 0 {
			problems = append(problems, "analysis.underserved_top must be >= 0")
		}
	case "runs":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
