package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"cms"`
	ServerAddr  string `env:"SERVER_ADDR"  envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://data/cms.db"`

	Security Security

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	ESURL      string `env:"ES_URL"`
	ESUser     string `env:"ES_USER"`
	ESPassword string `env:"ES_PASSWORD"`
	ESIndex    string `env:"ES_INDEX" envDefault:"models"`

	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	RateLimit float64 `env:"RATE_LIMIT" envDefault:"10"`
	RateBurst int     `env:"RATE_BURST" envDefault:"20"`
}

// Security is loaded once at startup and never mutated afterwards.
type Security struct {
	SecretKey string        `env:"SECRET_KEY"`
	ExpiresIn time.Duration `env:"TOKEN_EXPIRES_IN" envDefault:"168h"`
}

type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Key, e.Reason)
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
	return Parse(env.Options{})
}

// Parse reads the configuration with the given options. Tests pass
// Options.Environment to avoid touching the process environment.
func Parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, &ConfigurationError{Key: "env", Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Security.SecretKey == "" {
		return &ConfigurationError{Key: "SECRET_KEY", Reason: "is required"}
	}
	if c.Security.ExpiresIn <= 0 {
		return &ConfigurationError{Key: "TOKEN_EXPIRES_IN", Reason: "must be positive"}
	}
	if c.DatabaseURL == "" {
		return &ConfigurationError{Key: "DATABASE_URL", Reason: "is required"}
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return &ConfigurationError{Key: "RATE_LIMIT", Reason: "must not be negative"}
	}
	return nil
}
