package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "campaign.yaml", cfg.CampaignFile)
	require.Equal(t, 5*time.Minute, cfg.CacheTTL)
	require.Equal(t, "reject", cfg.MissingApplicant)
	require.Empty(t, cfg.DatabaseURL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ABITUR_ADDR", ":9090")
	t.Setenv("ABITUR_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("ABITUR_ALLOW_CONSENT_DOWNGRADE", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	require.True(t, cfg.AllowConsentDowngrade)
}
