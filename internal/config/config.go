// Package config loads herd settings from a config file, HERD_* environment
// variables and command-line flags through viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jbweber/herd/internal/retry"
)

// EnvPrefix is the prefix for environment overrides, e.g. HERD_AUTH_USERNAME.
const EnvPrefix = "HERD"

// Config is the complete herd configuration.
type Config struct {
	// URL is the Proxmox endpoint, e.g. https://pve1.lab:8006.
	URL string `mapstructure:"url"`

	// Insecure skips TLS verification for self-signed certificates.
	Insecure bool `mapstructure:"insecure"`

	Auth AuthConfig `mapstructure:"auth"`

	// Node is the default node for lifecycle commands.
	Node string `mapstructure:"node"`

	// Concurrency is the number of pipelines allowed in flight.
	Concurrency int `mapstructure:"concurrency"`

	// PipelineTimeout bounds one target's pipeline. Zero disables it.
	PipelineTimeout time.Duration `mapstructure:"pipeline_timeout"`

	// RequestTimeout bounds a single HTTP request. Zero disables it.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	Poll PollConfig `mapstructure:"poll"`
	Log  LogConfig  `mapstructure:"log"`

	// Output is the result format: table, yaml or json.
	Output string `mapstructure:"output"`

	// MetricsFile, when set, receives a prometheus textfile at exit.
	MetricsFile string `mapstructure:"metrics_file"`
}

// AuthConfig holds login credentials.
type AuthConfig struct {
	Username string `mapstructure:"username"`
	// Realm is appended to Username unless it already names one.
	Realm    string `mapstructure:"realm"`
	Password string `mapstructure:"password"`
}

// PollConfig controls task status polling.
type PollConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	// Timeout bounds the wait for one task. Zero disables it.
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	poll := retry.DefaultConfig()
	return &Config{
		Auth: AuthConfig{
			Realm: "pam",
		},
		Concurrency:     1,
		PipelineTimeout: 15 * time.Minute,
		RequestTimeout:  time.Minute,
		Poll: PollConfig{
			InitialInterval: poll.InitialDelay,
			MaxInterval:     poll.MaxDelay,
			Multiplier:      poll.Multiplier,
			Timeout:         poll.Timeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Output: "table",
	}
}

// SetDefaults registers default values with v.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("url", defaults.URL)
	v.SetDefault("insecure", defaults.Insecure)
	v.SetDefault("node", defaults.Node)

	// Auth defaults
	v.SetDefault("auth.username", defaults.Auth.Username)
	v.SetDefault("auth.realm", defaults.Auth.Realm)
	v.SetDefault("auth.password", defaults.Auth.Password)

	// Batch defaults
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetDefault("pipeline_timeout", defaults.PipelineTimeout)
	v.SetDefault("request_timeout", defaults.RequestTimeout)

	// Poll defaults
	v.SetDefault("poll.initial_interval", defaults.Poll.InitialInterval)
	v.SetDefault("poll.max_interval", defaults.Poll.MaxInterval)
	v.SetDefault("poll.multiplier", defaults.Poll.Multiplier)
	v.SetDefault("poll.timeout", defaults.Poll.Timeout)

	// Logging defaults
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	// Output defaults
	v.SetDefault("output", defaults.Output)
	v.SetDefault("metrics_file", defaults.MetricsFile)
}

// BindEnv makes every key overridable through HERD_* variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadFile reads path, or the default config file when path is empty. A
// missing default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigFile(ConfigFile())
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(ConfigFile()); os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", ConfigFile(), err)
	}
	return nil
}

// Load reads the configuration from v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return &cfg, nil
}

// LoginName returns the username with its realm, e.g. root@pam.
func (c *Config) LoginName() string {
	if c.Auth.Username == "" || strings.Contains(c.Auth.Username, "@") {
		return c.Auth.Username
	}
	return c.Auth.Username + "@" + c.Auth.Realm
}

// Retry converts the poll settings to a backoff configuration.
func (p PollConfig) Retry() retry.Config {
	return retry.Config{
		InitialDelay: p.InitialInterval,
		MaxDelay:     p.MaxInterval,
		Multiplier:   p.Multiplier,
		Timeout:      p.Timeout,
	}
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "herd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".herd"
	}
	return filepath.Join(home, ".config", "herd")
}

// ConfigFile returns the path to the default config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
