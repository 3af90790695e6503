// Package config loads the process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPPort     string `env:"HTTP_PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"netflix_bot.db"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	// AdminID authorizes bulk-add and stats. Binary access: this identity
	// or nothing.
	AdminID string `env:"ADMIN_USER_ID,required"`

	ProductPrice int64  `env:"PRODUCT_PRICE" envDefault:"50"`
	BkashNumber  string `env:"BKASH_NUMBER" envDefault:"01XXXXXXXXX"`
	NagadNumber  string `env:"NAGAD_NUMBER" envDefault:"01XXXXXXXXX"`

	OCRBinary   string        `env:"OCR_BINARY" envDefault:"tesseract"`
	OCRTimeout  time.Duration `env:"OCR_TIMEOUT" envDefault:"15s"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	MaxAttempts int           `env:"MAX_PROOF_ATTEMPTS" envDefault:"0"` // 0 = uncapped
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
