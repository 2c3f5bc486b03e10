// Package config provides configuration management for the agent supervisor.
// It supports loading configuration from environment variables, a config file, and defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections for the supervisor.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Pool    PoolConfig    `mapstructure:"pool"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Debug   DebugConfig   `mapstructure:"debug"`
}

// StoreConfig controls where the event store root is resolved.
type StoreConfig struct {
	// Root overrides automatic root resolution (see internal/store.ResolveRoot).
	Root string `mapstructure:"root"`
}

// PoolConfig controls the process manager's concurrency bound.
type PoolConfig struct {
	MaxConcurrent int           `mapstructure:"maxConcurrent"`
	GracePeriod   time.Duration `mapstructure:"gracePeriod"`
}

// AgentConfig holds default spawn behavior.
type AgentConfig struct {
	DefaultMode   string `mapstructure:"defaultMode"`
	DefaultEffort string `mapstructure:"defaultEffort"`
	LoopFileName  string `mapstructure:"loopFileName"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// TracingConfig controls the optional OTLP tracing exporter.
type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	OTLPEndpoint   string `mapstructure:"otlpEndpoint"`
	ServiceName    string `mapstructure:"serviceName"`
	InsecureExport bool   `mapstructure:"insecureExport"`
}

// DebugConfig controls the optional HTTP debug transport for the Tool API.
type DebugConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// detectDefaultLogFormat mirrors the ecosystem's convention: JSON in
// container/production environments, human-readable console otherwise.
func detectDefaultLogFormat() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}
	if env := os.Getenv("AGENTSUP_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.root", "")

	v.SetDefault("pool.maxConcurrent", 50)
	v.SetDefault("pool.gracePeriod", "2s")

	v.SetDefault("agent.defaultMode", "plan")
	v.SetDefault("agent.defaultEffort", "default")
	v.SetDefault("agent.loopFileName", "LOOP.md")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlpEndpoint", "")
	v.SetDefault("tracing.serviceName", "agentsup")
	v.SetDefault("tracing.insecureExport", true)

	v.SetDefault("debug.enabled", false)
	v.SetDefault("debug.port", 9190)
}

// Load reads configuration from environment variables, config file, and defaults.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified directory or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("AGENTSUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit bindings for environment variables AutomaticEnv would not map:
	// AGENT_STORE_DIR has no AGENTSUP_ prefix, and the other two use
	// underscore names that differ from the derived AGENTSUP_POOL_MAXCONCURRENT
	// and AGENTSUP_LOGGING_LEVEL.
	_ = v.BindEnv("store.root", "AGENT_STORE_DIR")
	_ = v.BindEnv("pool.maxConcurrent", "AGENTSUP_POOL_MAX_CONCURRENT")
	_ = v.BindEnv("logging.level", "AGENTSUP_LOG_LEVEL")

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/agentsup/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.Pool.MaxConcurrent <= 0 {
		errs = append(errs, "pool.maxConcurrent must be positive")
	}
	if cfg.Pool.GracePeriod <= 0 {
		errs = append(errs, "pool.gracePeriod must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text, console")
	}

	if cfg.Agent.LoopFileName == "" {
		errs = append(errs, "agent.loopFileName must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
