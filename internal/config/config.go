// Package config loads server configuration from an optional YAML file with
// environment-variable overrides. Every field has a usable default so the
// server starts with no config file at all.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Push   PushConfig   `mapstructure:"push"`
	Tax    TaxConfig    `mapstructure:"tax"`
	News   NewsConfig   `mapstructure:"news"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type PushConfig struct {
	Subscriber      string `mapstructure:"subscriber"`
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	TTLSeconds      int    `mapstructure:"ttl_seconds"`
	Workers         int    `mapstructure:"workers"`
	QueueSize       int    `mapstructure:"queue_size"`
}

type TaxConfig struct {
	// Rate is the flat tax rate on profit withdrawals, e.g. "0.25".
	Rate string `mapstructure:"rate"`
}

type NewsConfig struct {
	Feeds    []FeedConfig  `mapstructure:"feeds"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Limit    int           `mapstructure:"limit"`
}

type FeedConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// TaxRate parses the configured flat rate.
func (c TaxConfig) TaxRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.Rate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: invalid tax rate %q: %w", c.Rate, err)
	}
	return rate, nil
}

// Load reads configuration. path may be empty, in which case only defaults
// and JOURNAL_* environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("JOURNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if _, err := cfg.Tax.TaxRate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8090")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("store.path", "journal.db")

	v.SetDefault("auth.session_ttl", 24*time.Hour)

	v.SetDefault("push.subscriber", "mailto:admin@localhost")
	v.SetDefault("push.ttl_seconds", 3600)
	v.SetDefault("push.workers", 4)
	v.SetDefault("push.queue_size", 256)

	v.SetDefault("tax.rate", "0.25")

	v.SetDefault("news.cache_ttl", 5*time.Minute)
	v.SetDefault("news.limit", 50)

	v.SetDefault("log.level", "info")
}
