package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/scriptbay/forum-api/internal/models"
)

// Config holds runtime configuration values for the forum API service.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	DatabaseURL     string
	RedisURL        string
	NATSURL         string
	JWTSecret       string
	ContentMode     models.ContentMode
	ListingCacheTTL time.Duration
	DefaultPageSize int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SCRIPTBAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ScriptBay Forum API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("content.mode", string(models.ContentModeAll))
	v.SetDefault("listing.cache_ttl", "1m")
	v.SetDefault("listing.page_size", 25)

	ttlString := v.GetString("listing.cache_ttl")
	if ttlString == "" {
		ttlString = "1m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid listing cache ttl: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		DatabaseURL:     v.GetString("database.url"),
		RedisURL:        v.GetString("redis.url"),
		NATSURL:         v.GetString("nats.url"),
		JWTSecret:       v.GetString("jwt.secret"),
		ContentMode:     models.ContentMode(strings.ToLower(v.GetString("content.mode"))),
		ListingCacheTTL: ttl,
		DefaultPageSize: v.GetInt("listing.page_size"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.ContentMode {
	case models.ContentModeAll, models.ContentModeNonSensitive, models.ContentModeSensitive:
	default:
		return Config{}, fmt.Errorf("invalid content mode %q", cfg.ContentMode)
	}

	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 25
	}

	return cfg, nil
}
