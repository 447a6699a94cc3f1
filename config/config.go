package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// DefaultFile is the config file read when no path is given.
const DefaultFile = "iplstats.yaml"

var (
	// ErrMissingSetting is returned when a required setting has no value.
	ErrMissingSetting = errors.New("missing required setting")

	// ErrInvalidSetting is returned when a setting has a value outside its allowed set.
	ErrInvalidSetting = errors.New("invalid setting")
)

// DatasetConfig defines where ball-by-ball rows come from.
type DatasetConfig struct {
	Table      string `mapstructure:"table"`
	MaxRows    int    `mapstructure:"max_rows"`
	SchemaFile string `mapstructure:"schema_file"`
}

// LLMConfig defines the completion provider.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // groq, ollama, gemini
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
}

// NeedsAPIKey reports whether the provider authenticates with a key.
func (c LLMConfig) NeedsAPIKey() bool {
	return c.Provider != "ollama"
}

// AssistantConfig defines question handling.
type AssistantConfig struct {
	Fallback       bool `mapstructure:"fallback"`
	MaxRowsDisplay int  `mapstructure:"max_rows_display"`
}

// ServerConfig defines the HTTP server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig defines the logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Config is the top-level configuration struct.
type Config struct {
	DatabaseURL string          `mapstructure:"database_url"`
	Dataset     DatasetConfig   `mapstructure:"dataset"`
	LLM         LLMConfig       `mapstructure:"llm"`
	Assistant   AssistantConfig `mapstructure:"assistant"`
	Server      ServerConfig    `mapstructure:"server"`
	Logging     LoggingConfig   `mapstructure:"logging"`
}

var defaults = map[string]interface{}{
	"database_url":               "",
	"dataset.table":              "ipl_balls",
	"dataset.max_rows":           0,
	"dataset.schema_file":        "",
	"llm.provider":               "groq",
	"llm.api_key":                "",
	"llm.model":                  "",
	"llm.base_url":               "",
	"llm.timeout":                "30s",
	"llm.temperature":            0.1,
	"llm.max_tokens":             800,
	"assistant.fallback":         false,
	"assistant.max_rows_display": 12,
	"server.port":                8080,
	"logging.level":              "info",
	"logging.format":             "text",
	"logging.output":             "stderr",
}

// Read loads .env, the YAML file at path and the environment, without
// checking required settings. An empty path reads DefaultFile if it exists.
//
// Environment variables override the file: IPLSTATS_LLM_MODEL sets
// llm.model, and DATABASE_URL / GROQ_API_KEY are accepted as-is.
func Read(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("could not load .env")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("IPLSTATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", "IPLSTATS_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("llm.api_key", "IPLSTATS_LLM_API_KEY", "GROQ_API_KEY"); err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
		}
		logrus.WithField("file", path).Debug("config file loaded")
	} else if explicit {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	return &cfg, nil
}

// Load reads the configuration and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateSource checks the settings needed to load the dataset.
func (c *Config) ValidateSource() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("%w: DATABASE_URL", ErrMissingSetting)
	}
	if c.Dataset.MaxRows < 0 {
		return fmt.Errorf("%w: dataset.max_rows must not be negative", ErrInvalidSetting)
	}
	return nil
}

// Validate checks that every required setting is present.
func (c *Config) Validate() error {
	if err := c.ValidateSource(); err != nil {
		return err
	}
	switch c.LLM.Provider {
	case "groq", "ollama", "gemini":
	default:
		return fmt.Errorf("%w: llm.provider %q (want groq, ollama or gemini)", ErrInvalidSetting, c.LLM.Provider)
	}
	if c.LLM.NeedsAPIKey() && strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("%w: GROQ_API_KEY (or IPLSTATS_LLM_API_KEY)", ErrMissingSetting)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("%w: llm.timeout must not be negative", ErrInvalidSetting)
	}
	return nil
}
