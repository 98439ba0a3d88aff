package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultBaseURL is used when no API URL is configured.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// APIConfig holds settings for talking to the TaskTracker backend.
type APIConfig struct {
	// BaseURL is the API root including the version prefix.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// LogConfig holds logging preferences. The TUI owns the terminal, so
// logs go to a file.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// Config is the top-level application configuration.
type Config struct {
	API APIConfig `mapstructure:"api" yaml:"api"`
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// DefaultPath returns the default path for the configuration file,
// located at ~/.config/tasktracker/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "tasktracker", "config.yaml")
}

// defaultLogFile returns the default log file path next to the config.
func defaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "tasktracker.log")
	}
	return filepath.Join(home, ".config", "tasktracker", "tasktracker.log")
}

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{BaseURL: DefaultBaseURL},
		Log: LogConfig{Level: "info", File: defaultLogFile()},
	}
}

// Load reads configuration from the given YAML file path using Viper.
// A .env file in the working directory is loaded first so that
// development overrides are visible; the TASKTRACKER_API_URL
// environment variable takes precedence over the file. If the file
// does not exist, defaults are returned.
func Load(path string) (*Config, error) {
	// Missing .env is fine; only development setups carry one.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", defaultLogFile())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return applyEnv(defaultConfig()), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return applyEnv(defaultConfig()), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return applyEnv(cfg), nil
}

// applyEnv overlays environment variable overrides onto cfg.
func applyEnv(cfg *Config) *Config {
	if url := os.Getenv("TASKTRACKER_API_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	if level := os.Getenv("TASKTRACKER_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	return cfg
}

// Save writes the given configuration to a YAML file at path, creating
// parent directories if needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
