// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the server and CLI need from the environment.
// Optional integrations (postgres, redis, kafka, bearer auth) stay off while
// their settings are empty.
type Config struct {
	Addr string `env:"ABITUR_ADDR" envDefault:":8080"`

	// CampaignFile points at the YAML campaign definition (programs, seats,
	// day calendar); DataDir holds the per-day CSV folders.
	CampaignFile string `env:"ABITUR_CAMPAIGN_FILE" envDefault:"campaign.yaml"`
	DataDir      string `env:"ABITUR_DATA_DIR" envDefault:"data"`

	DatabaseURL string        `env:"ABITUR_DATABASE_URL"`
	RedisURL    string        `env:"ABITUR_REDIS_URL"`
	CacheTTL    time.Duration `env:"ABITUR_CACHE_TTL" envDefault:"5m"`

	KafkaBrokers []string `env:"ABITUR_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"ABITUR_KAFKA_TOPIC" envDefault:"abitur.audit"`

	// JWTSigningKey enables bearer auth on mutating endpoints when set.
	JWTSigningKey string `env:"ABITUR_JWT_SIGNING_KEY"`

	AllowConsentDowngrade bool   `env:"ABITUR_ALLOW_CONSENT_DOWNGRADE"`
	MissingApplicant      string `env:"ABITUR_MISSING_APPLICANT" envDefault:"reject"`
}

// FromEnv parses the environment into a Config.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
