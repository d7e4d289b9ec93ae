package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RefreshConfig controls the polling engine.
type RefreshConfig struct {
	// IntervalSec is how long an account may go without a successful sync
	// before an automatic refresh is due.
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec"`

	// TimeoutSec bounds a single fetch; exceeding it counts as a failure.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// TickMs is how often the poller asks the scheduler whether anything is due.
	TickMs int `mapstructure:"tick_ms" yaml:"tick_ms"`
}

// Interval returns IntervalSec as a duration.
func (c RefreshConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSec) * time.Second
}

// Timeout returns TimeoutSec as a duration.
func (c RefreshConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Tick returns TickMs as a duration.
func (c RefreshConfig) Tick() time.Duration {
	return time.Duration(c.TickMs) * time.Millisecond
}

// StorageConfig locates the local database.
type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Path       string `mapstructure:"path" yaml:"path"`
	Level      string `mapstructure:"level" yaml:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// GitHubConfig holds API client settings.
type GitHubConfig struct {
	// BaseURL is empty for github.com, or the Enterprise API root.
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	PerPage        int    `mapstructure:"per_page" yaml:"per_page"`
	IncludeReviews bool   `mapstructure:"include_reviews" yaml:"include_reviews"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Refresh RefreshConfig `mapstructure:"refresh" yaml:"refresh"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	GitHub  GitHubConfig  `mapstructure:"github" yaml:"github"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// EnvPrefix is the prefix for environment overrides, e.g.
// REMINDER_REFRESH_INTERVAL_SEC.
const EnvPrefix = "REMINDER"

// ConfigDir returns ~/.config/reminder, or "." when the home directory is
// unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "reminder")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/reminder/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		Refresh: RefreshConfig{
			IntervalSec: 180,
			TimeoutSec:  30,
			TickMs:      1000,
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(dir, "reminder.db"),
		},
		Log: LogConfig{
			Path:       filepath.Join(dir, "reminder.log"),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		GitHub: GitHubConfig{
			PerPage:        50,
			IncludeReviews: true,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// setDefaults registers every default with v so missing keys and
// environment overrides resolve the same way.
func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("refresh.interval_sec", d.Refresh.IntervalSec)
	v.SetDefault("refresh.timeout_sec", d.Refresh.TimeoutSec)
	v.SetDefault("refresh.tick_ms", d.Refresh.TickMs)
	v.SetDefault("storage.database_path", d.Storage.DatabasePath)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("github.base_url", d.GitHub.BaseURL)
	v.SetDefault("github.per_page", d.GitHub.PerPage)
	v.SetDefault("github.include_reviews", d.GitHub.IncludeReviews)
	v.SetDefault("display.theme", d.Display.Theme)
}

// NewViper returns a viper instance with defaults and environment
// overrides wired, reading from path.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file yields the defaults (plus any environment overrides).
func LoadConfig(path string) (*AppConfig, error) {
	return LoadConfigFrom(NewViper(path))
}

// LoadConfigFrom reads and validates configuration from an already
// prepared viper instance (e.g. one with command-line flags bound).
func LoadConfigFrom(v *viper.Viper) (*AppConfig, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", v.ConfigFileUsed(), err)
	}

	if cfg.Refresh.IntervalSec <= 0 {
		cfg.Refresh.IntervalSec = 180
	}
	if cfg.Refresh.TimeoutSec <= 0 {
		cfg.Refresh.TimeoutSec = 30
	}
	if cfg.Refresh.TickMs <= 0 {
		cfg.Refresh.TickMs = 1000
	}
	if cfg.GitHub.PerPage <= 0 || cfg.GitHub.PerPage > 100 {
		cfg.GitHub.PerPage = 50
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("refresh", cfg.Refresh)
	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)
	v.Set("github", cfg.GitHub)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
