package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/custodio-dev/custodio/internal/domain"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Backup BackupConfig `mapstructure:"backup"`
	Remote RemoteConfig `mapstructure:"remote"`
	Notify NotifyConfig `mapstructure:"notify"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type BackupConfig struct {
	SourcePath      string `mapstructure:"source_path"`
	LocalDest       string `mapstructure:"local_dest"`
	RemoteFolderID  string `mapstructure:"remote_folder_id"`
	IntervalMinutes int    `mapstructure:"interval_minutes"`
	HistoryFile     string `mapstructure:"history_file"`
}

type RemoteConfig struct {
	Type string `mapstructure:"type"`

	// Google Drive
	ClientSecretFile string `mapstructure:"client_secret_file"`
	TokenFile        string `mapstructure:"token_file"`

	// AWS S3
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`

	// Local mirror
	Path string `mapstructure:"path"`

	// OAuth helper server
	AuthListenAddr string `mapstructure:"auth_listen_addr"`
}

type NotifyConfig struct {
	TelegramEnabled bool   `mapstructure:"telegram_enabled"`
	BotToken        string `mapstructure:"bot_token"`
	ChatID          string `mapstructure:"chat_id"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app.name", "custodio")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("backup.interval_minutes", 60)
	v.SetDefault("backup.history_file", "backup_log.csv")
	v.SetDefault("remote.type", "local")
	v.SetDefault("remote.token_file", "credentials.json")
	v.SetDefault("remote.auth_listen_addr", "localhost:8910")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Backup.SourcePath == "" {
		return fmt.Errorf("backup.source_path is required")
	}
	if c.Backup.LocalDest == "" {
		return fmt.Errorf("backup.local_dest is required")
	}
	if c.Backup.IntervalMinutes < 1 {
		return fmt.Errorf("backup.interval_minutes must be >= 1, got %d", c.Backup.IntervalMinutes)
	}
	if c.Backup.HistoryFile == "" {
		return fmt.Errorf("backup.history_file is required")
	}

	switch c.Remote.Type {
	case "gdrive":
		if c.Remote.TokenFile == "" {
			return fmt.Errorf("remote.token_file is required for gdrive")
		}
	case "s3":
		if c.Remote.Bucket == "" {
			return fmt.Errorf("remote.bucket is required for s3")
		}
		if c.Remote.Region == "" {
			return fmt.Errorf("remote.region is required for s3")
		}
	case "local":
		if c.Remote.Path == "" {
			return fmt.Errorf("remote.path is required for local")
		}
	default:
		return fmt.Errorf("unknown remote.type: %s", c.Remote.Type)
	}

	if c.Notify.TelegramEnabled {
		if c.Notify.BotToken == "" || c.Notify.ChatID == "" {
			return fmt.Errorf("notify.bot_token and notify.chat_id are required when telegram is enabled")
		}
	}

	return nil
}

// Job returns the per-run configuration snapshot handed to the engine.
func (c *Config) Job() domain.JobConfig {
	return domain.JobConfig{
		SourcePath:      c.Backup.SourcePath,
		LocalDestDir:    c.Backup.LocalDest,
		RemoteFolderID:  c.Backup.RemoteFolderID,
		IntervalMinutes: c.Backup.IntervalMinutes,
	}
}

// Save writes the current settings back to path so operator edits persist
// across restarts.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("app", map[string]any{
		"name":      c.App.Name,
		"log_level": c.App.LogLevel,
		"log_file":  c.App.LogFile,
	})
	v.Set("backup", map[string]any{
		"source_path":      c.Backup.SourcePath,
		"local_dest":       c.Backup.LocalDest,
		"remote_folder_id": c.Backup.RemoteFolderID,
		"interval_minutes": c.Backup.IntervalMinutes,
		"history_file":     c.Backup.HistoryFile,
	})
	v.Set("remote", map[string]any{
		"type":               c.Remote.Type,
		"client_secret_file": c.Remote.ClientSecretFile,
		"token_file":         c.Remote.TokenFile,
		"region":             c.Remote.Region,
		"bucket":             c.Remote.Bucket,
		"access_key":         c.Remote.AccessKey,
		"secret_key":         c.Remote.SecretKey,
		"path":               c.Remote.Path,
		"auth_listen_addr":   c.Remote.AuthListenAddr,
	})
	v.Set("notify", map[string]any{
		"telegram_enabled": c.Notify.TelegramEnabled,
		"bot_token":        c.Notify.BotToken,
		"chat_id":          c.Notify.ChatID,
	})

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
