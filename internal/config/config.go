package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Log      LogConfig
	Ledger   LedgerConfig
	Suggest  SuggestConfig
	Pending  PendingConfig
	UI       UIConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path        string
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// LedgerConfig holds store tuning.
type LedgerConfig struct {
	NotifyDebounce time.Duration `mapstructure:"notify_debounce"`
}

// SuggestConfig holds categorization lookup tuning.
type SuggestConfig struct {
	Debounce time.Duration
}

// PendingConfig holds bank feed monitor settings.
type PendingConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DefaultCurrency string `mapstructure:"default_currency"`
	Timezone        string
}

func configPath() string {
	if p := os.Getenv("JASKLEDGER_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "jaskledger", "config.toml")
}

func defaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "jaskledger", "ledger.db"))
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("ledger.notify_debounce", 150*time.Millisecond)
	v.SetDefault("suggest.debounce", 300*time.Millisecond)
	v.SetDefault("pending.poll_interval", 5*time.Minute)
	v.SetDefault("ui.default_currency", "UAH")
	v.SetDefault("ui.timezone", "Europe/Kyiv")
}

// Load reads configuration from file and env. Env var overrides use prefix JASKLEDGER_.
func Load() (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetConfigType("toml")
	if cfgPath := os.Getenv("JASKLEDGER_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "jaskledger"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("JASKLEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.auto_migrate", cfg.Database.AutoMigrate)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("ledger.notify_debounce", cfg.Ledger.NotifyDebounce.String())
	v.Set("suggest.debounce", cfg.Suggest.Debounce.String())
	v.Set("pending.poll_interval", cfg.Pending.PollInterval.String())
	v.Set("ui.default_currency", cfg.UI.DefaultCurrency)
	v.Set("ui.timezone", cfg.UI.Timezone)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
