package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SecurityConfig struct {
	BcryptCost    int
	CookieSecret  string
	SessionTTL    time.Duration
	SecureCookies bool
}

// RateLimitConfig holds the per-source-address limits. These are layered on
// top of the per-account lockout: the lockout alone does not stop credential
// stuffing spread across many accounts.
type RateLimitConfig struct {
	Window      time.Duration
	LoginMax    int
	SignupMax   int
	ValidateMax int
	APIMax      int
}

// BootstrapConfig carries the legacy single-admin credential pair. It is
// consumed exactly once, at first boot, when the users table is still empty.
type BootstrapConfig struct {
	AdminUsername string
	AdminPassword string
}

type AppConfig struct {
	Environment      string
	BaseURL          string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Security         SecurityConfig
	RateLimit        RateLimitConfig
	Bootstrap        BootstrapConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("MOVIESEARCH")
	v.AutomaticEnv()

	// Legacy environment names from the pre-database deployment.
	_ = v.BindEnv("security.cookiesecret", "MOVIESEARCH_SECURITY_COOKIESECRET", "SESSION_SECRET")
	_ = v.BindEnv("bootstrap.adminusername", "MOVIESEARCH_BOOTSTRAP_ADMINUSERNAME", "AUTH_USER")
	_ = v.BindEnv("bootstrap.adminpassword", "MOVIESEARCH_BOOTSTRAP_ADMINPASSWORD", "AUTH_PASS")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Security.CookieSecret == "" {
		return nil, fmt.Errorf("security.cookiesecret (SESSION_SECRET) is required")
	}
	if cfg.Environment == "production" {
		cfg.Security.SecureCookies = true
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("baseurl", "http://localhost:8080")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.bcryptcost", 12)
	v.SetDefault("security.sessionttl", "168h") // 7 days
	v.SetDefault("security.securecookies", false)

	v.SetDefault("ratelimit.window", "15m")
	v.SetDefault("ratelimit.loginmax", 10)
	v.SetDefault("ratelimit.signupmax", 5)
	v.SetDefault("ratelimit.validatemax", 10)
	v.SetDefault("ratelimit.apimax", 500)
}
