package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scicalc/internal/explain"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Session   SessionConfig   `mapstructure:"session"`
	LLM       LLMConfig       `mapstructure:"llm"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// TelemetryConfig switches OTLP export on. Exporter endpoints come from the
// standard OTEL_EXPORTER_OTLP_* variables.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// StorageConfig selects where history is persisted: "memory" or "sqlite".
type StorageConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type SessionConfig struct {
	MaxSessions int           `mapstructure:"max_sessions"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// LLMConfig holds explanation provider settings. An empty APIKeyEnv reads
// the provider's usual variable (GEMINI_API_KEY or OPENAI_API_KEY).
type LLMConfig struct {
	Provider  string        `mapstructure:"provider"`
	APIKeyEnv string        `mapstructure:"api_key_env"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Explain converts the LLM settings for the explain package.
func (c LLMConfig) Explain() explain.Config {
	return explain.Config{
		Provider:  c.Provider,
		APIKeyEnv: c.APIKeyEnv,
		APIKey:    c.APIKey,
		Model:     c.Model,
		Timeout:   c.Timeout,
	}
}

// Load reads configuration from file and env. Env var overrides use prefix CALC_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "scicalc")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.sqlite_path", filepath.Join(os.Getenv("HOME"), ".local", "share", "scicalc", "scicalc.db"))
	v.SetDefault("session.max_sessions", 1000)
	v.SetDefault("session.idle_timeout", "30m")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.api_key_env", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-3-flash-preview")
	v.SetDefault("llm.timeout", "8s")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("CALC_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "scicalc"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CALC")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini", "openai", "offline":
	default:
		return fmt.Errorf("config: unknown llm provider %q", c.LLM.Provider)
	}
	return nil
}
