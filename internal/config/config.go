// Package config loads service configuration from the environment. A .env
// file in the working directory is applied first when present.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the service binaries.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	GeminiModel string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"transaction.recorded"`

	GCSBucket       string `env:"GCS_BUCKET"`
	BigQueryProject string `env:"BQ_PROJECT"`
	BigQueryDataset string `env:"BQ_DATASET" envDefault:"finance"`

	GoogleCredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}
	return cfg, nil
}
