// Package config holds operator-level configuration for a provisio
// process: where the journal lives, which intent classifier to use,
// transport addresses, limits and log settings.
//
// Values come from Viper, which merges PROVISIO_* env vars, the optional
// provisio.config.yaml file and the defaults registered here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Viper keys. Each maps to an env var with the PROVISIO_ prefix
// (e.g. "journal_path" → PROVISIO_JOURNAL_PATH) and to a YAML field.
const (
	KeyDataDir           = "data_dir"
	KeyJournalPath       = "journal_path"
	KeyClassifier        = "classifier"
	KeyOpenAIAPIKey      = "openai_api_key"
	KeyOpenAIModel       = "openai_model"
	KeyOpenAIBaseURL     = "openai_base_url"
	KeyClassifierTimeout = "classifier_timeout"
	KeyHTTPAddr          = "http_addr"
	KeySessionRateLimit  = "session_rate_limit"
	KeySessionRateBurst  = "session_rate_burst"
	KeySessionIdleTTL    = "session_idle_ttl"
	KeyLogLevel          = "log_level"
	KeyLogFormat         = "log_format"
	KeyOTel              = "otel"
)

// EnvPrefix is prepended to every key to form its env var.
const EnvPrefix = "PROVISIO"

// Classifier choices.
const (
	ClassifierAuto    = "auto"
	ClassifierOpenAI  = "openai"
	ClassifierKeyword = "keyword"
)

// Defaults.
const (
	DefaultJournalPath       = ":memory:"
	DefaultOpenAIModel       = "gpt-4o-mini"
	DefaultClassifierTimeout = 10 * time.Second
	DefaultHTTPAddr          = ":8080"
	DefaultSessionRateBurst  = 5
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "console"
)

// Config holds resolved operator configuration.
type Config struct {
	DataDir     string
	JournalPath string // resolved; "" when the journal is disabled

	Classifier        string // resolved to openai or keyword
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	ClassifierTimeout time.Duration

	HTTPAddr         string
	SessionRateLimit float64 // requests per second per session, 0 disables
	SessionRateBurst int
	SessionIdleTTL   time.Duration // 0 keeps sessions forever

	LogLevel  string
	LogFormat string
	OTel      bool
}

func init() {
	SetDefaults(viper.GetViper())
}

// SetDefaults registers env binding and defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault(KeyJournalPath, DefaultJournalPath)
	v.SetDefault(KeyClassifier, ClassifierAuto)
	v.SetDefault(KeyOpenAIModel, DefaultOpenAIModel)
	v.SetDefault(KeyClassifierTimeout, DefaultClassifierTimeout)
	v.SetDefault(KeyHTTPAddr, DefaultHTTPAddr)
	v.SetDefault(KeySessionRateLimit, 0)
	v.SetDefault(KeySessionRateBurst, DefaultSessionRateBurst)
	v.SetDefault(KeySessionIdleTTL, time.Duration(0))
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)
	v.SetDefault(KeyOTel, false)
}

// Load reads configuration from the global Viper instance and returns a
// validated Config.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DataDir:           resolveDataDir(v),
		OpenAIAPIKey:      v.GetString(KeyOpenAIAPIKey),
		OpenAIModel:       v.GetString(KeyOpenAIModel),
		OpenAIBaseURL:     v.GetString(KeyOpenAIBaseURL),
		ClassifierTimeout: v.GetDuration(KeyClassifierTimeout),
		HTTPAddr:          v.GetString(KeyHTTPAddr),
		SessionRateLimit:  v.GetFloat64(KeySessionRateLimit),
		SessionRateBurst:  v.GetInt(KeySessionRateBurst),
		SessionIdleTTL:    v.GetDuration(KeySessionIdleTTL),
		LogLevel:          strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:         strings.ToLower(v.GetString(KeyLogFormat)),
		OTel:              v.GetBool(KeyOTel),
	}
	if cfg.OpenAIAPIKey == "" {
		// Quickstart fallback shared with other OpenAI tooling.
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.JournalPath = resolveJournalPath(cfg.DataDir, v.GetString(KeyJournalPath))
	cfg.Classifier = resolveClassifier(strings.ToLower(strings.TrimSpace(v.GetString(KeyClassifier))), cfg.OpenAIAPIKey)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// JournalEnabled reports whether a journal should be opened.
func (c *Config) JournalEnabled() bool {
	return c.JournalPath != ""
}

func resolveDataDir(v *viper.Viper) string {
	if dir := v.GetString(KeyDataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".provisio"
	}
	return filepath.Join(home, ".provisio")
}

// resolveJournalPath turns the configured value into a database path.
// Relative file paths live under the data directory.
func resolveJournalPath(dataDir, raw string) string {
	p := strings.TrimSpace(raw)
	switch {
	case p == "" || strings.EqualFold(p, "off"):
		return ""
	case p == DefaultJournalPath:
		return p
	case filepath.IsAbs(p):
		return p
	}
	return filepath.Join(dataDir, p)
}

func resolveClassifier(choice, apiKey string) string {
	if choice == ClassifierAuto || choice == "" {
		if apiKey != "" {
			return ClassifierOpenAI
		}
		return ClassifierKeyword
	}
	return choice
}

func (c *Config) validate() error {
	switch c.Classifier {
	case ClassifierOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("classifier %q requires openai_api_key or OPENAI_API_KEY", ClassifierOpenAI)
		}
	case ClassifierKeyword:
	default:
		return fmt.Errorf("classifier must be one of auto, openai, keyword; got %q", c.Classifier)
	}
	if c.ClassifierTimeout <= 0 {
		return fmt.Errorf("classifier_timeout must be positive")
	}
	if c.SessionRateLimit < 0 {
		return fmt.Errorf("session_rate_limit must not be negative")
	}
	if c.SessionRateLimit > 0 && c.SessionRateBurst <= 0 {
		return fmt.Errorf("session_rate_burst must be positive when rate limiting is on")
	}
	if c.SessionIdleTTL < 0 {
		return fmt.Errorf("session_idle_ttl must not be negative")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json; got %q", c.LogFormat)
	}
	return nil
}
