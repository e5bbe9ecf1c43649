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

// DatabaseConfig locates the task store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AuthConfig holds account and session settings.
type AuthConfig struct {
	// JWTSecret signs session tokens. A random secret is generated at
	// startup when empty, which invalidates sessions across restarts.
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`

	SessionTTLHours int `mapstructure:"session_ttl_hours" yaml:"session_ttl_hours"`

	// RequireVerifiedEmail refuses sign-in until the email is confirmed.
	RequireVerifiedEmail bool `mapstructure:"require_verified_email" yaml:"require_verified_email"`

	// OutboxDir receives outgoing mail as .eml files.
	OutboxDir string `mapstructure:"outbox_dir" yaml:"outbox_dir"`

	ResetTTLMinutes int `mapstructure:"reset_ttl_minutes" yaml:"reset_ttl_minutes"`
}

// SessionTTL returns the session lifetime.
func (c AuthConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// ResetTTL returns how long a password reset token stays valid.
func (c AuthConfig) ResetTTL() time.Duration {
	return time.Duration(c.ResetTTLMinutes) * time.Minute
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// EventsConfig holds event publishing settings. An empty NATSURL
// disables publishing.
type EventsConfig struct {
	NATSURL       string `mapstructure:"nats_url" yaml:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix" yaml:"subject_prefix"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme           string `mapstructure:"theme" yaml:"theme"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// PollInterval is how often the task list is refreshed.
func (c DisplayConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Events   EventsConfig   `mapstructure:"events" yaml:"events"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ConfigDir returns ~/.config/focusflow, or the working directory when
// the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "focusflow")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		Database: DatabaseConfig{Path: filepath.Join(dir, "focusflow.db")},
		Auth: AuthConfig{
			SessionTTLHours:      24 * 7,
			RequireVerifiedEmail: true,
			OutboxDir:            filepath.Join(dir, "outbox"),
			ResetTTLMinutes:      60,
		},
		Server: ServerConfig{Addr: ":8080"},
		Events: EventsConfig{SubjectPrefix: "focusflow"},
		Display: DisplayConfig{
			Theme:           "default",
			PollIntervalSec: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   filepath.Join(dir, "focusflow.log"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with FOCUSFLOW_ override file values
// (e.g. FOCUSFLOW_AUTH_JWT_SECRET). A missing file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("focusflow")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values, and so
	// AutomaticEnv knows which keys exist.
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("auth.jwt_secret", def.Auth.JWTSecret)
	v.SetDefault("auth.session_ttl_hours", def.Auth.SessionTTLHours)
	v.SetDefault("auth.require_verified_email", def.Auth.RequireVerifiedEmail)
	v.SetDefault("auth.outbox_dir", def.Auth.OutboxDir)
	v.SetDefault("auth.reset_ttl_minutes", def.Auth.ResetTTLMinutes)
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("events.nats_url", def.Events.NATSURL)
	v.SetDefault("events.subject_prefix", def.Events.SubjectPrefix)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("display.poll_interval_sec", def.Display.PollIntervalSec)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file", def.Log.File)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Display.PollIntervalSec <= 0 {
		cfg.Display.PollIntervalSec = def.Display.PollIntervalSec
	}
	if cfg.Auth.SessionTTLHours <= 0 {
		cfg.Auth.SessionTTLHours = def.Auth.SessionTTLHours
	}
	if cfg.Auth.ResetTTLMinutes <= 0 {
		cfg.Auth.ResetTTLMinutes = def.Auth.ResetTTLMinutes
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. A file holding the session
// signing secret is made readable by the owner only.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("auth", cfg.Auth)
	v.Set("server", cfg.Server)
	v.Set("events", cfg.Events)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	if cfg.Auth.JWTSecret != "" {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("restricting config %s: %w", path, err)
		}
	}

	return nil
}
