package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full daemon configuration, loaded from a TOML file with
// HOUSEHOLD_* environment overrides on top.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	AI       AIConfig       `toml:"ai"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type AIConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Timeout string `toml:"timeout"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Path: "household.db"},
		Logging:  LoggingConfig{Level: "info"},
		AI: AIConfig{
			Enabled: false,
			BaseURL: "",
			APIKey:  "",
			Timeout: "30s",
		},
	}
}

// Load reads the TOML file at path (missing file is not an error) and applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("decode config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HOUSEHOLD_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("HOUSEHOLD_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HOUSEHOLD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HOUSEHOLD_AI_URL"); v != "" {
		cfg.AI.BaseURL = v
		cfg.AI.Enabled = true
	}
	if v := os.Getenv("HOUSEHOLD_AI_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
}

// AITimeout parses the configured evaluator timeout, defaulting to 30s on a
// bad value.
func (c Config) AITimeout() time.Duration {
	d, err := time.ParseDuration(c.AI.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
