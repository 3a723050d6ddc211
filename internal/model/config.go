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

// IMAPConfig holds the mailbox server settings used by the reader.
type IMAPConfig struct {
	Host       string `mapstructure:"host" yaml:"host"`
	Port       string `mapstructure:"port" yaml:"port"`
	Username   string `mapstructure:"username" yaml:"username"`
	TLS        bool   `mapstructure:"tls" yaml:"tls"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// SMTPConfig holds the outgoing server settings used by the sender.
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`

	// From overrides the envelope sender; defaults to Username.
	From string `mapstructure:"from" yaml:"from"`

	// TLS selects implicit TLS (port 465). When false STARTTLS is used.
	TLS bool `mapstructure:"tls" yaml:"tls"`
}

// AIConfig holds settings for the drafting service client.
type AIConfig struct {
	Model             string `mapstructure:"model" yaml:"model"`
	MaxTokens         int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	BaseURL           string `mapstructure:"base_url" yaml:"base_url"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	TimeoutSec        int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// StoreConfig selects the database backend.
type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// DSN is a file path for sqlite or a connection string for postgres.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// SyncConfig controls how much mail a sync pulls and how often the
// scheduler runs.
type SyncConfig struct {
	MaxResults  int    `mapstructure:"max_results" yaml:"max_results"`
	SinceDays   int    `mapstructure:"since_days" yaml:"since_days"`
	Schedule    string `mapstructure:"schedule" yaml:"schedule"`
	TimeoutSec  int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
}

// ViewConfig holds defaults for the category view.
type ViewConfig struct {
	CapPerCategory int `mapstructure:"cap_per_category" yaml:"cap_per_category"`

	// Timezone is the IANA zone used to decide calendar dates.
	// Empty means the local zone.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// CategoryConfig maps a category to the IMAP mailbox holding it.
// A category with an empty Folder is known but not fetchable.
type CategoryConfig struct {
	Name   string `mapstructure:"name" yaml:"name"`
	Folder string `mapstructure:"folder" yaml:"folder"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// ServerConfig holds the HTTP API listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// User is the default user id for CLI commands.
	User       string           `mapstructure:"user" yaml:"user"`
	IMAP       IMAPConfig       `mapstructure:"imap" yaml:"imap"`
	SMTP       SMTPConfig       `mapstructure:"smtp" yaml:"smtp"`
	AI         AIConfig         `mapstructure:"ai" yaml:"ai"`
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Sync       SyncConfig       `mapstructure:"sync" yaml:"sync"`
	View       ViewConfig       `mapstructure:"view" yaml:"view"`
	Categories []CategoryConfig `mapstructure:"categories" yaml:"categories"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

// CategoryNames returns the configured categories in order.
func (c *AppConfig) CategoryNames() []Category {
	names := make([]Category, 0, len(c.Categories))
	for _, cc := range c.Categories {
		names = append(names, Category(cc.Name))
	}
	return names
}

// FolderMap returns the category to mailbox mapping for the reader.
func (c *AppConfig) FolderMap() map[Category]string {
	folders := make(map[Category]string, len(c.Categories))
	for _, cc := range c.Categories {
		folders[Category(cc.Name)] = cc.Folder
	}
	return folders
}

// Location resolves View.Timezone.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.View.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.View.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.View.Timezone, err)
	}
	return loc, nil
}

// ConfigDir returns ~/.config/mailcache, or the working directory when
// the home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "mailcache")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailcache/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func defaultCategories() []CategoryConfig {
	out := make([]CategoryConfig, 0, len(DefaultCategories))
	for _, c := range DefaultCategories {
		cc := CategoryConfig{Name: string(c)}
		if c == CategoryInbox {
			cc.Folder = "INBOX"
		}
		out = append(out, cc)
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("user", "default")
	v.SetDefault("imap.host", "imap.gmail.com")
	v.SetDefault("imap.port", "993")
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.tls", true)
	v.SetDefault("imap.timeout_sec", 30)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", "587")
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.tls", false)
	v.SetDefault("ai.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("ai.base_url", "https://api.anthropic.com")
	v.SetDefault("ai.requests_per_minute", 50)
	v.SetDefault("ai.timeout_sec", 60)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", filepath.Join(ConfigDir(), "mailcache.db"))
	v.SetDefault("sync.max_results", 50)
	v.SetDefault("sync.since_days", 7)
	v.SetDefault("sync.schedule", "@every 5m")
	v.SetDefault("sync.timeout_sec", 120)
	v.SetDefault("sync.concurrency", 2)
	v.SetDefault("view.cap_per_category", 50)
	v.SetDefault("view.timezone", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("server.addr", "127.0.0.1:8080")
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file is not an error: defaults and MAILCACHE_* environment
// variables still apply.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("mailcache")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if len(cfg.Categories) == 0 {
		cfg.Categories = defaultCategories()
	}
	if cfg.SMTP.Username == "" {
		cfg.SMTP.Username = cfg.IMAP.Username
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
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

	v.Set("user", cfg.User)
	v.Set("imap", cfg.IMAP)
	v.Set("smtp", cfg.SMTP)
	v.Set("ai", cfg.AI)
	v.Set("store", cfg.Store)
	v.Set("sync", cfg.Sync)
	v.Set("view", cfg.View)
	v.Set("categories", cfg.Categories)
	v.Set("log", cfg.Log)
	v.Set("server", cfg.Server)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
