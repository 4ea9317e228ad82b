// Package config loads the application configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/shopkart/shopkart/pkg/config"
)

// Config holds all configuration for the shopkart backend.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"shopkart"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"shopkart_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"shopkart"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis (cart storage)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Payment gateway. When MockEnabled is true, the in-process mock
	// gateway replaces Razorpay and delivers its own webhooks after
	// MockCallbackDelay.
	RazorpayKeyID     string        `env:"RAZORPAY_KEY_ID" envDefault:""`
	RazorpayKeySecret string        `env:"RAZORPAY_KEY_SECRET" envDefault:""`
	Currency          string        `env:"PAYMENT_CURRENCY" envDefault:"INR"`
	MockEnabled       bool          `env:"PAYMENT_MOCK_ENABLED" envDefault:"true"`
	MockCallbackDelay time.Duration `env:"PAYMENT_MOCK_CALLBACK_DELAY" envDefault:"3s"`

	// Auth
	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	// Webhook rate limiting (requests per second per client IP)
	WebhookRPS   int `env:"WEBHOOK_RATE_LIMIT_RPS" envDefault:"10"`
	WebhookBurst int `env:"WEBHOOK_RATE_LIMIT_BURST" envDefault:"20"`

	// Tracing
	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSample    float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !c.MockEnabled && (c.RazorpayKeyID == "" || c.RazorpayKeySecret == "") {
		return fmt.Errorf("razorpay credentials are required when the mock gateway is disabled")
	}
	return nil
}
