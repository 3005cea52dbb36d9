package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the CLI configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	Username  string `mapstructure:"sauce_username"`
	AccessKey string `mapstructure:"sauce_access_key"`
	BaseURL   string `mapstructure:"sauce_base_url"`
	UserAgent string `mapstructure:"sauce_user_agent"`

	ConnectTimeoutSeconds int64         `mapstructure:"connect_timeout_seconds"`
	ReadTimeoutSeconds    int64         `mapstructure:"read_timeout_seconds"`
	ConnectTimeout        time.Duration `mapstructure:"-"`
	ReadTimeout           time.Duration `mapstructure:"-"`

	RetryMax           int           `mapstructure:"retry_max"`
	RetryMinIntervalMS int64         `mapstructure:"retry_min_interval_ms"`
	RetryMaxIntervalMS int64         `mapstructure:"retry_max_interval_ms"`
	RetryMinInterval   time.Duration `mapstructure:"-"`
	RetryMaxInterval   time.Duration `mapstructure:"-"`

	PublishersFile string `mapstructure:"publishers_file"`

	LedgerType            string        `mapstructure:"ledger_type"`
	LedgerPath            string        `mapstructure:"ledger_path"`
	LedgerTTLSeconds      int64         `mapstructure:"ledger_ttl_seconds"`
	LedgerCleanupSeconds  int64         `mapstructure:"ledger_cleanup_interval_seconds"`
	LedgerTTL             time.Duration `mapstructure:"-"`
	LedgerCleanupInterval time.Duration `mapstructure:"-"`

	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "saucerest")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sauce_username", "")
	v.SetDefault("sauce_access_key", "")
	v.SetDefault("sauce_base_url", "https://saucelabs.com")
	v.SetDefault("sauce_user_agent", "")
	v.SetDefault("connect_timeout_seconds", 10)
	v.SetDefault("read_timeout_seconds", 60)
	v.SetDefault("retry_max", 0)
	v.SetDefault("retry_min_interval_ms", 500)
	v.SetDefault("retry_max_interval_ms", 10000)
	v.SetDefault("publishers_file", "")
	v.SetDefault("ledger_type", "bbolt")
	v.SetDefault("ledger_path", "./data/uploads.db")
	v.SetDefault("ledger_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("ledger_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("metrics_textfile", "")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)

	if cfg.ConnectTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid connect_timeout_seconds (must be positive seconds)")
	}
	if cfg.ReadTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid read_timeout_seconds (must be positive seconds)")
	}
	cfg.ConnectTimeout = time.Duration(cfg.ConnectTimeoutSeconds) * time.Second
	cfg.ReadTimeout = time.Duration(cfg.ReadTimeoutSeconds) * time.Second

	if cfg.RetryMax < 0 {
		return nil, fmt.Errorf("invalid retry_max (must not be negative)")
	}
	if cfg.RetryMinIntervalMS <= 0 || cfg.RetryMaxIntervalMS <= 0 {
		return nil, fmt.Errorf("invalid retry intervals (must be positive milliseconds)")
	}
	if cfg.RetryMaxIntervalMS < cfg.RetryMinIntervalMS {
		return nil, fmt.Errorf("retry_max_interval_ms must not be below retry_min_interval_ms")
	}
	cfg.RetryMinInterval = time.Duration(cfg.RetryMinIntervalMS) * time.Millisecond
	cfg.RetryMaxInterval = time.Duration(cfg.RetryMaxIntervalMS) * time.Millisecond

	if cfg.LedgerTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid ledger_ttl_seconds (must be positive seconds)")
	}
	if cfg.LedgerCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid ledger_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.LedgerTTL = time.Duration(cfg.LedgerTTLSeconds) * time.Second
	cfg.LedgerCleanupInterval = time.Duration(cfg.LedgerCleanupSeconds) * time.Second

	return &cfg, nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.AccessKey != "" {
		c.AccessKey = "****"
	}
	return c
}
