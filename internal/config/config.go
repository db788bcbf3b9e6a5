package config

import (
	"fmt"

	pkgconfig "github.com/wellnexa/cart-service/pkg/config"
)

// Config holds all configuration for the cart service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CART_HTTP_PORT" envDefault:"8003"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Downstream services
	ProductServiceURL string `env:"PRODUCT_SERVICE_URL" envDefault:"http://localhost:8001"`
	UserServiceURL    string `env:"USER_SERVICE_URL" envDefault:"http://localhost:8002"`
	PaymentServiceURL string `env:"PAYMENT_SERVICE_URL" envDefault:"http://localhost:8005"`

	// Checkout redirect targets handed to the payment provider.
	CheckoutSuccessURL string `env:"CHECKOUT_SUCCESS_URL" envDefault:"http://localhost:3000/checkout/success"`
	CheckoutCancelURL  string `env:"CHECKOUT_CANCEL_URL" envDefault:"http://localhost:3000/checkout/cancel"`

	// Write-back pool sizing.
	WritebackMinWorkers  int `env:"WRITEBACK_MIN_WORKERS" envDefault:"4"`
	WritebackMaxWorkers  int `env:"WRITEBACK_MAX_WORKERS" envDefault:"10"`
	WritebackIdleSeconds int `env:"WRITEBACK_IDLE_SECONDS" envDefault:"60"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cart config: %w", err)
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
	if c.WritebackMinWorkers < 1 {
		return fmt.Errorf("invalid write-back min workers: %d", c.WritebackMinWorkers)
	}
	if c.WritebackMaxWorkers < c.WritebackMinWorkers {
		return fmt.Errorf("write-back max workers %d below min %d", c.WritebackMaxWorkers, c.WritebackMinWorkers)
	}
	return nil
}
