package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/airbuddy/airbuddy-api/internal/airquality"
)

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return ":" + strings.TrimPrefix(s.Port, ":")
}

// APIConfig holds credentials and endpoint of an upstream HTTP API.
type APIConfig struct {
	APIKey  string
	BaseURL string `validate:"required,url"`
}

type UpstreamConfig struct {
	Timeout          time.Duration
	MaxRetries       int `validate:"gte=0,lte=10"`
	BatchConcurrency int `validate:"gte=1"`
}

type CacheConfig struct {
	Backend    string `validate:"oneof=none memory redis"`
	TTL        time.Duration
	MaxEntries int `validate:"gte=0"`
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	RPS   float64 `validate:"gte=0"`
	Burst int     `validate:"gte=0"`
}

type AppConfig struct {
	Environment string
	LogLevel    string `validate:"oneof=debug info warn error"`

	Server     ServerConfig
	WAQI       APIConfig
	LocationIQ APIConfig
	// GoogleAPIKey enables the Google geocoding fallback when set.
	GoogleAPIKey string

	Upstream  UpstreamConfig
	Cache     CacheConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig

	// WarmerInterval controls how often configured cities are prefetched (0 = disabled).
	WarmerInterval time.Duration

	// Cities served by /api/cities and prefetched by the warmer.
	Cities []airquality.Location `validate:"dive"`
}

// IsProduction reports whether the service runs with production settings.
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

var defaultCities = []airquality.Location{
	{Name: "Kochi", Lat: 9.9312, Lon: 76.2673},
	{Name: "Palakkad", Lat: 10.7867, Lon: 76.6548},
	{Name: "Delhi", Lat: 28.6139, Lon: 77.2090},
	{Name: "London", Lat: 51.5074, Lon: -0.1278},
	{Name: "New York", Lat: 40.7128, Lon: -74.0060},
}

var envBindings = map[string]string{
	"server.port":         "PORT",
	"app.environment":     "APP_ENV",
	"waqi.api_key":        "AQI_API_KEY",
	"waqi.base_url":       "WAQI_BASE_URL",
	"locationiq.api_key":  "LOCATIONIQ_API_KEY",
	"locationiq.base_url": "LOCATIONIQ_BASE_URL",
	"google.api_key":      "GOOGLE_GEOCODING_API_KEY",
	"upstream.timeout":    "UPSTREAM_TIMEOUT",
	"cache.backend":       "CACHE_BACKEND",
	"redis.addr":          "REDIS_ADDR",
	"redis.password":      "REDIS_PASSWORD",
	"log.level":           "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("app.environment", "development")
	v.SetDefault("waqi.base_url", "https://api.waqi.info")
	v.SetDefault("locationiq.base_url", "https://us1.locationiq.com/v1/search")
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("upstream.max_retries", 0)
	v.SetDefault("upstream.batch_concurrency", 8)
	v.SetDefault("cache.backend", "none")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.max_entries", 1024)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("warmer.interval", "0s")
}

// Load reads configuration from an optional config.yaml (searched in dirs, then
// the working directory), a .env file and the environment, in increasing priority.
func Load(dirs ...string) (*AppConfig, error) {
	// A missing .env file is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &AppConfig{
		Environment: v.GetString("app.environment"),
		LogLevel:    strings.ToLower(v.GetString("log.level")),
		Server: ServerConfig{
			Port: v.GetString("server.port"),
		},
		WAQI: APIConfig{
			APIKey:  v.GetString("waqi.api_key"),
			BaseURL: v.GetString("waqi.base_url"),
		},
		LocationIQ: APIConfig{
			APIKey:  v.GetString("locationiq.api_key"),
			BaseURL: v.GetString("locationiq.base_url"),
		},
		GoogleAPIKey: v.GetString("google.api_key"),
		Upstream: UpstreamConfig{
			MaxRetries:       v.GetInt("upstream.max_retries"),
			BatchConcurrency: v.GetInt("upstream.batch_concurrency"),
		},
		Cache: CacheConfig{
			Backend:    strings.ToLower(v.GetString("cache.backend")),
			MaxEntries: v.GetInt("cache.max_entries"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("rate_limit.rps"),
			Burst: v.GetInt("rate_limit.burst"),
		},
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"server.read_timeout", &cfg.Server.ReadTimeout},
		{"server.write_timeout", &cfg.Server.WriteTimeout},
		{"upstream.timeout", &cfg.Upstream.Timeout},
		{"cache.ttl", &cfg.Cache.TTL},
		{"warmer.interval", &cfg.WarmerInterval},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("invalid %s: must not be negative", d.key)
		}
		*d.dst = parsed
	}

	if err := v.UnmarshalKey("cities", &cfg.Cities); err != nil {
		return nil, fmt.Errorf("invalid cities: %w", err)
	}
	if len(cfg.Cities) == 0 {
		cfg.Cities = append([]airquality.Location(nil), defaultCities...)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
