package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment names accepted in app.env.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// EnvPrefix is prepended to environment variable overrides,
// e.g. PRODUCTHOT_API_BASE_URL for api.base_url.
const EnvPrefix = "PRODUCTHOT"

// AppConfig holds application-level settings.
type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	Locale   string `mapstructure:"locale"`   // zh or en
	Timezone string `mapstructure:"timezone"` // IANA name, "Local" or empty for the host zone
	Profile  string `mapstructure:"profile"`  // namespace for persisted preferences
}

// APIConfig controls the news API client.
type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	NewsPath      string        `mapstructure:"news_path"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	MaxRedirects  int           `mapstructure:"max_redirects"`
	UserAgent     string        `mapstructure:"user_agent"`
}

// FeaturesConfig holds feature switches.
type FeaturesConfig struct {
	DebugMode       bool          `mapstructure:"debug_mode"`
	MockData        bool          `mapstructure:"mock_data"` // serve the embedded dataset, no network
	Caching         bool          `mapstructure:"caching"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	SynthesizeViews bool          `mapstructure:"synthesize_views"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// OpenAIConfig enables the AI channel analysis when APIKey is set.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// ServerConfig controls the HTTP edge started by `serve`.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// RefreshConfig controls periodic re-fetching.
type RefreshConfig struct {
	Auto     bool          `mapstructure:"auto"`
	Interval time.Duration `mapstructure:"interval"` // overrides the stored setting when > 0
}

// DigestConfig controls markdown digest output.
type DigestConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Title     string `mapstructure:"title"` // supports {.CurrentDate}
	Preface   string `mapstructure:"preface"`
}

// Config is the top-level configuration structure.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	API      APIConfig      `mapstructure:"api"`
	Features FeaturesConfig `mapstructure:"features"`
	Redis    RedisConfig    `mapstructure:"redis"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Server   ServerConfig   `mapstructure:"server"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Digest   DigestConfig   `mapstructure:"digest"`
}

// profile seeds environment-specific defaults.
type profile struct {
	baseURL       string
	timeout       time.Duration
	retryAttempts int
	retryDelay    time.Duration
	debugMode     bool
	caching       bool
	cacheTTL      time.Duration
	logLevel      string
}

var profiles = map[string]profile{
	EnvDevelopment: {
		baseURL:       "http://api.producthot.top:8030",
		timeout:       15 * time.Second,
		retryAttempts: 2,
		retryDelay:    time.Second,
		debugMode:     true,
		caching:       false,
		cacheTTL:      5 * time.Minute,
		logLevel:      "debug",
	},
	EnvStaging: {
		baseURL:       "https://staging-api.producthot.top",
		timeout:       12 * time.Second,
		retryAttempts: 3,
		retryDelay:    1500 * time.Millisecond,
		debugMode:     true,
		caching:       true,
		cacheTTL:      10 * time.Minute,
		logLevel:      "info",
	},
	EnvProduction: {
		baseURL:       "https://api.producthot.top",
		timeout:       10 * time.Second,
		retryAttempts: 3,
		retryDelay:    2 * time.Second,
		debugMode:     false,
		caching:       true,
		cacheTTL:      30 * time.Minute,
		logLevel:      "error",
	},
}

// NormalizeEnv maps aliases to a known environment; unknown values fall back to development.
func NormalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "prod", EnvProduction:
		return EnvProduction
	case "stage", EnvStaging:
		return EnvStaging
	default:
		return EnvDevelopment
	}
}

// ConfigureEnv makes v read PRODUCTHOT_* environment variables.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// SetDefaults registers the defaults of the given environment on v.
// Every key is registered so that environment overrides reach Unmarshal.
func SetDefaults(v *viper.Viper, env string) {
	p := profiles[NormalizeEnv(env)]

	v.SetDefault("app.env", NormalizeEnv(env))
	v.SetDefault("app.log_level", p.logLevel)
	v.SetDefault("app.locale", "zh")
	v.SetDefault("app.timezone", "Local")
	v.SetDefault("app.profile", "default")

	v.SetDefault("api.base_url", p.baseURL)
	v.SetDefault("api.news_path", "/api/news")
	v.SetDefault("api.timeout", p.timeout)
	v.SetDefault("api.retry_attempts", p.retryAttempts)
	v.SetDefault("api.retry_delay", p.retryDelay)
	v.SetDefault("api.max_redirects", 3)
	v.SetDefault("api.user_agent", "ProductHot/1.0")

	v.SetDefault("features.debug_mode", p.debugMode)
	v.SetDefault("features.mock_data", false)
	v.SetDefault("features.caching", p.caching)
	v.SetDefault("features.cache_ttl", p.cacheTTL)
	v.SetDefault("features.synthesize_views", false)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "producthot")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("refresh.auto", false)
	v.SetDefault("refresh.interval", 0) // 0 keeps the stored refresh_interval setting

	v.SetDefault("digest.output_dir", "./out")
	v.SetDefault("digest.title", "ProductHot Digest {.CurrentDate}")
	v.SetDefault("digest.preface", "")
}

// Load applies environment defaults to v, decodes it and validates the result.
func Load(v *viper.Viper) (Config, error) {
	env := NormalizeEnv(v.GetString("app.env"))
	SetDefaults(v, env)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.App.Env = env
	cfg.App.Locale = strings.ToLower(strings.TrimSpace(cfg.App.Locale))
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if !c.Features.MockData {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL))
		}
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be > 0"))
	}
	if c.API.RetryAttempts < 1 {
		errs = append(errs, errors.New("api.retry_attempts must be >= 1"))
	}
	if c.API.RetryDelay < 0 {
		errs = append(errs, errors.New("api.retry_delay must be >= 0"))
	}
	if c.API.MaxRedirects < 0 {
		errs = append(errs, errors.New("api.max_redirects must be >= 0"))
	}
	if c.App.Locale != "zh" && c.App.Locale != "en" {
		errs = append(errs, fmt.Errorf("app.locale must be zh or en, got %q", c.App.Locale))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("app.timezone: %w", err))
	}
	if c.Refresh.Interval < 0 || (c.Refresh.Interval > 0 && c.Refresh.Interval < time.Minute) {
		errs = append(errs, errors.New("refresh.interval must be 0 or at least 1m"))
	}
	if c.Features.Caching && c.Features.CacheTTL <= 0 {
		errs = append(errs, errors.New("features.cache_ttl must be > 0 when caching is enabled"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether fetch errors must propagate instead of falling back to mock data.
func (c Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// Location resolves app.timezone.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.App.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}
