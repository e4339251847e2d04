package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "STUDYDASH"

// DevelopmentEncryptionKey is used when no key is configured. It must be
// replaced in production.
const DevelopmentEncryptionKey = "please-change-me-please-change-m"

type Storage string

const (
	StorageBadger Storage = "badger"
	StorageSQLite Storage = "sqlite"
	StorageMemory Storage = "memory"
)

type Config struct {
	Address             string
	Storage             Storage
	DatabasePath        string
	EncryptionKey       string
	Timezone            string
	TargetPercent       float64
	LogLevel            slog.Level
	TelegramToken       string
	TelegramAdminChatID int64
}

func defaults(v *viper.Viper) {
	v.SetDefault("address", ":8080")
	v.SetDefault("storage", string(StorageBadger))
	v.SetDefault("database_path", "studydash.db")
	v.SetDefault("encryption_key", DevelopmentEncryptionKey)
	v.SetDefault("timezone", "Local")
	v.SetDefault("target_percent", 75.0)
	v.SetDefault("log_level", "info")
	v.SetDefault("telegram_token", "")
	v.SetDefault("telegram_admin_chat_id", 0)
}

// Load reads configuration from defaults, a .env file in the working
// directory, the optional file at path and STUDYDASH_ environment
// variables, later sources winning.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	defaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Address:             v.GetString("address"),
		Storage:             Storage(strings.ToLower(v.GetString("storage"))),
		DatabasePath:        v.GetString("database_path"),
		EncryptionKey:       v.GetString("encryption_key"),
		Timezone:            v.GetString("timezone"),
		TargetPercent:       v.GetFloat64("target_percent"),
		TelegramToken:       v.GetString("telegram_token"),
		TelegramAdminChatID: v.GetInt64("telegram_admin_chat_id"),
	}

	switch cfg.Storage {
	case StorageBadger, StorageSQLite, StorageMemory:
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}

	if cfg.TargetPercent <= 0 || cfg.TargetPercent > 100 {
		return nil, fmt.Errorf("target_percent must be in (0, 100], got %v", cfg.TargetPercent)
	}

	if cfg.Timezone == "Local" {
		cfg.Timezone = ""
	}

	return cfg, nil
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}
