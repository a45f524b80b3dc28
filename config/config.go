package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-simpler.org/env"
)

// DevSecretKey signs tokens when SECRET_KEY is unset. It is public and
// therefore insecure; production refuses to start with it.
const DevSecretKey = "your-secret-key"

type Config struct {
	AppEnv   string `env:"APP_ENV" default:"dev"`
	Port     string `env:"PORT" default:"8000"`
	LogLevel string `env:"LOG_LEVEL" default:"info"`

	SecretKey    string        `env:"SECRET_KEY" default:"your-secret-key"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" default:"30m"`
	AuthUsername string        `env:"AUTH_USERNAME" default:"admin"`
	AuthPassword string        `env:"AUTH_PASSWORD" default:"admin123"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
	MaxUploadSize      string   `env:"MAX_UPLOAD_SIZE" default:"10M"`
	LoginRatePerSecond float64  `env:"LOGIN_RATE_PER_SECOND" default:"1"`
	LoginRateBurst     int      `env:"LOGIN_RATE_BURST" default:"5"`

	ValkeyAddress  string        `env:"VALKEY_INIT_ADDRESS"`
	ValkeyPassword string        `env:"VALKEY_PASSWORD"`
	ValkeyTLS      bool          `env:"VALKEY_TLS" default:"false"`
	CacheTTL       time.Duration `env:"CACHE_TTL" default:"24h"`

	AWSEndpoint  string `env:"AWS_ENDPOINT"`
	AWSRegion    string `env:"AWS_REGION" default:"us-west-2"`
	ResultsTable string `env:"RESULTS_TABLE"`

	KafkaBroker       string `env:"KAFKA_BROKER"`
	KafkaResultsTopic string `env:"KAFKA_RESULTS_TOPIC" default:"sentiment-results"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Load(&cfg, &env.Options{SliceSep: ","}); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	if cfg.SecretKey == DevSecretKey {
		slog.Warn("[Config] SECRET_KEY not set, signing tokens with the insecure development key")
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return errors.New("SECRET_KEY must not be empty")
	}
	if cfg.IsProduction() && cfg.SecretKey == DevSecretKey {
		return errors.New("SECRET_KEY must be set in production")
	}
	if cfg.AuthUsername == "" || cfg.AuthPassword == "" {
		return errors.New("AUTH_USERNAME and AUTH_PASSWORD are required")
	}
	if cfg.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	if cfg.LoginRatePerSecond <= 0 || cfg.LoginRateBurst <= 0 {
		return errors.New("LOGIN_RATE_PER_SECOND and LOGIN_RATE_BURST must be positive")
	}
	if cfg.ValkeyAddress == "" && cfg.ValkeyTLS {
		return errors.New("VALKEY_TLS requires VALKEY_INIT_ADDRESS")
	}
	return nil
}
