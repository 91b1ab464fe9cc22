// Package config loads nodeflow's process-wide configuration: engine
// tuning plus the demo providers' external-service settings, cache
// settings, logging, and a feature-flag map. Trimmed down from graft's config
// package (which also covered its CLI/output/profile-switching
// concerns nodeflow has no equivalent of).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level configuration record, loadable from YAML via Load.
type Config struct {
	Engine      EngineConfig      `yaml:"engine" json:"engine"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Features    map[string]bool   `yaml:"features" json:"features"`
}

// EngineConfig holds nodeflow.EngineConfig's YAML-facing settings plus
// the external-service settings the demo providers read.
type EngineConfig struct {
	DataflowOrder      string `yaml:"dataflow_order" json:"dataflow_order"`
	MaxResolveRounds   int    `yaml:"max_resolve_rounds" json:"max_resolve_rounds"`
	StrictMode         bool   `yaml:"strict_mode" json:"strict_mode"`
	Vault              VaultConfig `yaml:"vault" json:"vault"`
	AWS                AWSConfig   `yaml:"aws" json:"aws"`
}

// VaultConfig names the Vault endpoint demo.VaultSecretNode fixtures connect to.
type VaultConfig struct {
	Address    string `yaml:"address" json:"address" env:"VAULT_ADDR"`
	Token      string `yaml:"token" json:"token" env:"VAULT_TOKEN"`
	SkipVerify bool   `yaml:"skip_verify" json:"skip_verify" env:"VAULT_SKIP_VERIFY"`
}

// AWSConfig names the region/profile demo.SSMParameterNode fixtures connect to.
type AWSConfig struct {
	Region  string `yaml:"region" json:"region" env:"AWS_REGION"`
	Profile string `yaml:"profile" json:"profile" env:"AWS_PROFILE"`
}

// PerformanceConfig holds cache settings. The engine's per-evaluation
// read cache (internal/cache) is built with its own defaults and does
// not read them.
type PerformanceConfig struct {
	EnableCaching bool          `yaml:"enable_caching" json:"enable_caching"`
	CacheSize     int           `yaml:"cache_size" json:"cache_size"`
	CacheTTL      time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

// LoggingConfig controls the log package's level/color/destination.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level" env:"NODEFLOW_LOG_LEVEL"`
	Output      string `yaml:"output" json:"output"`
	EnableColor bool   `yaml:"enable_color" json:"enable_color"`
}

// DefaultConfig returns nodeflow's baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			DataflowOrder:    "insertion",
			MaxResolveRounds: 10000,
		},
		Performance: PerformanceConfig{
			EnableCaching: true,
			CacheSize:     5000,
			CacheTTL:      5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Output:      "stderr",
			EnableColor: true,
		},
		Features: map[string]bool{},
	}
}

// Load reads and validates a YAML configuration file, overlaying it on
// DefaultConfig so unset fields keep their defaults.
func Load(path string) (*Config, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("config: expanding path: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", expanded, err)
	}
	cfg := DefaultConfig()
	if err := unmarshalYAML(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", expanded, err)
	}
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func Validate(cfg *Config) error {
	switch cfg.Engine.DataflowOrder {
	case "insertion", "alphabetical":
	default:
		return fmt.Errorf("engine.dataflow_order must be \"insertion\" or \"alphabetical\", got %q", cfg.Engine.DataflowOrder)
	}
	if cfg.Engine.MaxResolveRounds <= 0 {
		return fmt.Errorf("engine.max_resolve_rounds must be positive, got %d", cfg.Engine.MaxResolveRounds)
	}
	if cfg.Performance.CacheSize < 0 {
		return fmt.Errorf("performance.cache_size must be non-negative, got %d", cfg.Performance.CacheSize)
	}
	switch cfg.Logging.Level {
	case "trace", "debug", "info", "warn":
	default:
		return fmt.Errorf("logging.level must be one of trace/debug/info/warn, got %q", cfg.Logging.Level)
	}
	return nil
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}
