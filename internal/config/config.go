// Package config loads settings from .env, MARKET_* environment variables
// and command line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sudo-init-do/marketfront/internal/logging"
)

const EnvPrefix = "MARKET"

type Config struct {
	HTTPAddr    string        `mapstructure:"http_addr"`
	BackendURL  string        `mapstructure:"backend_url"`
	ChatURL     string        `mapstructure:"chat_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`

	// RedisAddr enables the reference data cache when set.
	RedisAddr  string        `mapstructure:"redis_addr"`
	RefdataTTL time.Duration `mapstructure:"refdata_ttl"`

	TokenFile string `mapstructure:"token_file"`

	ChatReconnectAttempts uint          `mapstructure:"chat_reconnect_attempts"`
	ChatBackoffInitial    time.Duration `mapstructure:"chat_backoff_initial"`
	ChatBackoffMax        time.Duration `mapstructure:"chat_backoff_max"`

	// HomeBatchSize is how many recent products the home page filters locally.
	HomeBatchSize int `mapstructure:"home_batch_size"`

	Log logging.Config `mapstructure:",squash"`
}

func defaults() map[string]any {
	return map[string]any{
		"http_addr":               ":3000",
		"backend_url":             "http://localhost:8080",
		"chat_url":                "ws://localhost:8080/ws/chat/websocket",
		"http_timeout":            "0s",
		"redis_addr":              "",
		"refdata_ttl":             "10m",
		"token_file":              defaultTokenFile(),
		"chat_reconnect_attempts": 5,
		"chat_backoff_initial":    "500ms",
		"chat_backoff_max":        "10s",
		"home_batch_size":         100,
		"log_level":               "info",
		"log_format":              "json",
		"log_output":              "stdout",
		"log_file":                "logs/marketfront.log",
		"log_max_size_mb":         100,
		"log_max_backups":         5,
		"log_max_age_days":        30,
		"log_compress":            true,
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".marketfront-token"
	}
	return filepath.Join(dir, "marketfront", "token")
}

// RegisterFlags adds a flag for each of the given keys, e.g. "backend_url"
// becomes --backend-url.
func RegisterFlags(fs *pflag.FlagSet, keys ...string) {
	d := defaults()
	for _, k := range keys {
		name := strings.ReplaceAll(k, "_", "-")
		usage := fmt.Sprintf("overrides %s_%s", EnvPrefix, strings.ToUpper(k))
		fs.String(name, fmt.Sprint(d[k]), usage)
	}
}

// Load reads the configuration. fs may be nil; otherwise flags that were set
// win over the environment.
func Load(fs *pflag.FlagSet) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if !f.Changed {
				return
			}
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := checkURL("backend_url", c.BackendURL, "http", "https"); err != nil {
		return err
	}
	if err := checkURL("chat_url", c.ChatURL, "ws", "wss"); err != nil {
		return err
	}
	if c.HomeBatchSize <= 0 {
		return fmt.Errorf("home_batch_size must be positive, got %d", c.HomeBatchSize)
	}
	if c.ChatBackoffMax < c.ChatBackoffInitial {
		return fmt.Errorf("chat_backoff_max (%s) is below chat_backoff_initial (%s)", c.ChatBackoffMax, c.ChatBackoffInitial)
	}
	if c.TokenFile == "" {
		return fmt.Errorf("token_file is required")
	}
	return nil
}

func checkURL(key, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%s: %q is not an absolute URL", key, raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%s: scheme must be one of %v, got %q", key, schemes, u.Scheme)
}
