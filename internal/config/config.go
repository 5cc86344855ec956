package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type InstrumentationConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Backend         BackendConfig         `mapstructure:"backend"`
	Session         SessionConfig         `mapstructure:"session"`
	Search          SearchConfig          `mapstructure:"search"`
	Recent          RecentConfig          `mapstructure:"recent"`
	KV              KVConfig              `mapstructure:"kv"`
	Upload          UploadConfig          `mapstructure:"upload"`
	Log             LogConfig             `mapstructure:"log"`
	Instrumentation InstrumentationConfig `mapstructure:"instrumentation"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// BackendConfig points at the Frappe site every request is forwarded to.
type BackendConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

// Timeout returns the per-request backend timeout.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

type SessionConfig struct {
	CookieName   string `mapstructure:"cookie_name"`
	RememberDays int    `mapstructure:"remember_days"`
	MarkerCookie string `mapstructure:"marker_cookie"`
	MarkerSecret string `mapstructure:"marker_secret"`
	Secure       bool   `mapstructure:"secure"`
	// TrialMethod is the whitelisted method reporting trial status; empty
	// disables the lookup.
	TrialMethod  string `mapstructure:"trial_method"`
	// IdleMinutes bounds how long per-session console state outlives the
	// last request of a session that never logged out.
	IdleMinutes  int    `mapstructure:"idle_minutes"`
}

// IdleTTL is how long unused per-session state is kept. Zero disables
// sweeping.
func (s SessionConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleMinutes) * time.Minute
}

// RememberMaxAge is the cookie max-age in seconds for "remember me" logins.
func (s SessionConfig) RememberMaxAge() int {
	return s.RememberDays * 24 * 60 * 60
}

type SearchConfig struct {
	DebounceMs   int      `mapstructure:"debounce_ms"`
	LimitPerType int      `mapstructure:"limit_per_type"`
	Doctypes     []string `mapstructure:"doctypes"`
}

func (s SearchConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

type RecentConfig struct {
	MaxItems int `mapstructure:"max_items"`
}

// KVConfig selects the store behind recent items and other per-user state.
type KVConfig struct {
	Driver   string `mapstructure:"driver"` // memory, sqlite, postgres, redis
	Path     string `mapstructure:"path"`   // sqlite database file
	DSN      string `mapstructure:"dsn"`    // postgres connection string
	RedisURL string `mapstructure:"redis_url"`
}

type UploadConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads app.yaml (if present) and the environment into a Config.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../..")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.timeout_ms", 15000)
	v.SetDefault("session.cookie_name", "sid")
	v.SetDefault("session.remember_days", 30)
	v.SetDefault("session.marker_cookie", "kairos_session")
	v.SetDefault("session.marker_secret", "changeme-marker-secret")
	v.SetDefault("session.secure", false)
	v.SetDefault("session.trial_method", "kairos.kairos.api.trial.get_trial_status")
	v.SetDefault("session.idle_minutes", 120)
	v.SetDefault("search.debounce_ms", 300)
	v.SetDefault("search.limit_per_type", 5)
	v.SetDefault("search.doctypes", []string{"Student", "Guardian", "Staff", "Section", "Event", "News", "Message"})
	v.SetDefault("recent.max_items", 10)
	v.SetDefault("kv.driver", "memory")
	v.SetDefault("kv.path", "./data/kairos.db")
	v.SetDefault("upload.max_file_size", 10485760)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("instrumentation.enabled", true)
	v.SetDefault("instrumentation.sampling_rate", 1.0)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("backend.base_url is required (env BACKEND_BASE_URL)")
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	return &cfg, nil
}
