package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRemoteBaseURL    = "https://api.notion.com"
	DefaultRemoteWebURL     = "https://www.notion.so"
	DefaultRemoteAPIVersion = "2022-06-28"
	DefaultRetryBudget      = 3
	DefaultRetryQuantum     = 2 * time.Second
	DefaultRequestsPerSec   = 3.0
	DefaultRemoteTimeout    = 30 * time.Second
)

var validate = validator.New()

// Config is built once per process and handed to every component
type Config struct {
	DatabaseURL string        `yaml:"database_url" validate:"required"`
	Timezone    string        `yaml:"timezone"`
	Remote      RemoteConfig  `yaml:"remote"`
	Log         LogConfig     `yaml:"log"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

// RemoteConfig configures the hosted document service client
type RemoteConfig struct {
	BaseURL           string        `yaml:"base_url" validate:"required,url"`
	WebURL            string        `yaml:"web_url" validate:"required,url"`
	Token             string        `yaml:"token"`
	APIVersion        string        `yaml:"api_version" validate:"required"`
	RetryBudget       int           `yaml:"retry_budget" validate:"gte=0,lte=20"`
	RetryQuantum      time.Duration `yaml:"retry_quantum" validate:"gt=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gt=0"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type MetricsConfig struct {
	// File receives a Prometheus textfile snapshot after each command when set
	File string `yaml:"file"`
}

// Default returns the configuration used when nothing overrides it
func Default() Config {
	return Config{
		DatabaseURL: DefaultDatabaseURL(),
		Remote: RemoteConfig{
			BaseURL:           DefaultRemoteBaseURL,
			WebURL:            DefaultRemoteWebURL,
			APIVersion:        DefaultRemoteAPIVersion,
			RetryBudget:       DefaultRetryBudget,
			RetryQuantum:      DefaultRetryQuantum,
			RequestsPerSecond: DefaultRequestsPerSec,
			Timeout:           DefaultRemoteTimeout,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// DefaultDatabaseURL points at the sqlite file under the XDG data directory
func DefaultDatabaseURL() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return "sqlite://" + filepath.Join(dataHome, "jupiter", "jupiter.db")
}

// DefaultPath returns the config file path from JUPITER_CONFIG,
// falling back to $XDG_CONFIG_HOME/jupiter/config.yaml
func DefaultPath() string {
	if env := os.Getenv("JUPITER_CONFIG"); env != "" {
		return env
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "jupiter", "config.yaml")
}

// Load layers defaults, the YAML file at path and the environment.
// An empty path means DefaultPath, which may be absent.
func Load(path string) (Config, error) {
	cfg := Default()

	required := path != ""
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if env := os.Getenv("JUPITER_DATABASE_URL"); env != "" {
		cfg.DatabaseURL = env
	}
	if env := os.Getenv("JUPITER_TIMEZONE"); env != "" {
		cfg.Timezone = env
	}
	if env := os.Getenv("JUPITER_REMOTE_TOKEN"); env != "" {
		cfg.Remote.Token = env
	}
	if env := os.Getenv("JUPITER_REMOTE_BASE_URL"); env != "" {
		cfg.Remote.BaseURL = env
	}
	if env := os.Getenv("JUPITER_RETRY_BUDGET"); env != "" {
		n, err := strconv.Atoi(env)
		if err != nil {
			return fmt.Errorf("JUPITER_RETRY_BUDGET: %w", err)
		}
		cfg.Remote.RetryBudget = n
	}
	if env := os.Getenv("JUPITER_LOG_LEVEL"); env != "" {
		cfg.Log.Level = strings.ToLower(env)
	}
	return nil
}

// Validate checks struct constraints and the timezone override
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid config: timezone %q: %w", c.Timezone, err)
		}
	}
	return nil
}
