// Package config loads the server configuration from the environment and the
// optional per-channel publish settings file.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config is the environment-driven server configuration.
type Config struct {
	ListenAddr  string `env:"LISTEN_ADDR,default=:8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisAddr   string `env:"REDIS_ADDR"`

	JWTSecret      string `env:"JWT_SECRET"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=*"`
	RateLimitRPS   int    `env:"RATE_LIMIT_RPS,default=20"`
	RateLimitBurst int    `env:"RATE_LIMIT_BURST,default=40"`

	GooglePlacesAPIKey string `env:"GOOGLE_PLACES_API_KEY"`
	GBPAccessToken     string `env:"GBP_ACCESS_TOKEN"`
	ApifyToken         string `env:"APIFY_TOKEN"`
	ApifyActor         string `env:"APIFY_ACTOR"`

	InstagramAppID       string `env:"IG_APP_ID"`
	InstagramAppSecret   string `env:"IG_APP_SECRET"`
	InstagramRedirectURI string `env:"IG_REDIRECT_URI"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL"`

	ReviewSyncInterval   time.Duration `env:"REVIEW_SYNC_INTERVAL,default=15m"`
	SchedulerInterval    time.Duration `env:"SCHEDULER_INTERVAL,default=1m"`
	TokenRefreshInterval time.Duration `env:"TOKEN_REFRESH_INTERVAL,default=6h"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=15s"`
	EnableBackgroundRuns bool          `env:"ENABLE_RUNNERS,default=true"`
	ChannelsConfigPath   string        `env:"CHANNELS_CONFIG,default=config/channels.yaml"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	return cfg, nil
}
