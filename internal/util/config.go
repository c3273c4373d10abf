// Package util provides common utilities for netguard.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataDir  string `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`

	// Simulation
	TickInterval         time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
	BufferCapacity       int           `mapstructure:"buffer_capacity" yaml:"buffer_capacity"`
	AlertCapacity        int           `mapstructure:"alert_capacity" yaml:"alert_capacity"`
	PromotionThreshold   int           `mapstructure:"promotion_threshold" yaml:"promotion_threshold"`
	MaliciousProbability float64       `mapstructure:"malicious_probability" yaml:"malicious_probability"`
	GuardStaleFetch      bool          `mapstructure:"guard_stale_fetch" yaml:"guard_stale_fetch"`
	AutoStart            bool          `mapstructure:"auto_start" yaml:"auto_start"`

	// Upstream API
	APIBaseURL     string        `mapstructure:"api_base_url" yaml:"api_base_url"`
	AuthToken      string        `mapstructure:"auth_token" yaml:"auth_token,omitempty"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// Daemon jobs
	AutoRefreshInterval time.Duration `mapstructure:"auto_refresh_interval" yaml:"auto_refresh_interval"`
	StatusInterval      time.Duration `mapstructure:"status_interval" yaml:"status_interval"`

	// Web server
	WebPort   int     `mapstructure:"web_port" yaml:"web_port"`
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`
	// TrustProxy takes the client address from X-Forwarded-For. Enable it
	// only behind a reverse proxy that overwrites the header.
	TrustProxy bool `mapstructure:"trust_proxy" yaml:"trust_proxy"`

	// Alert forwarding
	NATSURL     string `mapstructure:"nats_url" yaml:"nats_url,omitempty"`
	NATSSubject string `mapstructure:"nats_subject" yaml:"nats_subject"`

	// Report settings
	ReportOutputDir string `mapstructure:"report_output_dir" yaml:"report_output_dir"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".netguard")

	return &Config{
		DataDir:  dataDir,
		LogLevel: "info",
		LogFile:  filepath.Join(dataDir, "netguard.log"),

		TickInterval:         3 * time.Second,
		BufferCapacity:       50,
		AlertCapacity:        5,
		PromotionThreshold:   70,
		MaliciousProbability: 0.2,

		APIBaseURL:     "http://localhost:8000",
		RequestTimeout: 5 * time.Second,

		StatusInterval: 5 * time.Second,

		WebPort:   8080,
		RateLimit: 20,
		RateBurst: 40,

		NATSSubject: "netguard.alerts",

		ReportOutputDir: filepath.Join(dataDir, "reports"),
	}
}

// LoadConfig loads configuration from file and environment.
// An explicit path overrides the default search locations.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := EnsureDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(cfg.DataDir)
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("netguard")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("data_dir", cfg.DataDir)
	viper.SetDefault("log_level", cfg.LogLevel)
	viper.SetDefault("log_file", cfg.LogFile)
	viper.SetDefault("tick_interval", cfg.TickInterval)
	viper.SetDefault("buffer_capacity", cfg.BufferCapacity)
	viper.SetDefault("alert_capacity", cfg.AlertCapacity)
	viper.SetDefault("promotion_threshold", cfg.PromotionThreshold)
	viper.SetDefault("malicious_probability", cfg.MaliciousProbability)
	viper.SetDefault("guard_stale_fetch", cfg.GuardStaleFetch)
	viper.SetDefault("auto_start", cfg.AutoStart)
	viper.SetDefault("api_base_url", cfg.APIBaseURL)
	viper.SetDefault("auth_token", cfg.AuthToken)
	viper.SetDefault("request_timeout", cfg.RequestTimeout)
	viper.SetDefault("auto_refresh_interval", cfg.AutoRefreshInterval)
	viper.SetDefault("status_interval", cfg.StatusInterval)
	viper.SetDefault("web_port", cfg.WebPort)
	viper.SetDefault("rate_limit", cfg.RateLimit)
	viper.SetDefault("rate_burst", cfg.RateBurst)
	viper.SetDefault("trust_proxy", cfg.TrustProxy)
	viper.SetDefault("nats_url", cfg.NATSURL)
	viper.SetDefault("nats_subject", cfg.NATSSubject)
	viper.SetDefault("report_output_dir", cfg.ReportOutputDir)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the monitor cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.TickInterval <= 0:
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	case c.BufferCapacity <= 0:
		return fmt.Errorf("buffer_capacity must be positive, got %d", c.BufferCapacity)
	case c.AlertCapacity <= 0:
		return fmt.Errorf("alert_capacity must be positive, got %d", c.AlertCapacity)
	case c.PromotionThreshold < 0 || c.PromotionThreshold > 100:
		return fmt.Errorf("promotion_threshold must be within [0,100], got %d", c.PromotionThreshold)
	case c.MaliciousProbability < 0 || c.MaliciousProbability > 1:
		return fmt.Errorf("malicious_probability must be within [0,1], got %g", c.MaliciousProbability)
	case c.AutoRefreshInterval < 0:
		return fmt.Errorf("auto_refresh_interval must not be negative, got %s", c.AutoRefreshInterval)
	case c.WebPort <= 0 || c.WebPort > 65535:
		return fmt.Errorf("web_port out of range: %d", c.WebPort)
	}
	return nil
}

// WriteConfigFile writes cfg as YAML to path, refusing to overwrite.
func WriteConfigFile(cfg *Config, path string) error {
	if FileExists(path) {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// EnsureDir ensures a directory exists.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
