package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaultsAndEnv(t *testing.T) {
	path := writeConfig(t, `
[database]
host = "db"
user = "booking"
dbname = "stays"

[booking]
default_hold_ttl_minutes = 20
`)
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 20, cfg.Booking.DefaultHoldTTLMinutes)
	assert.Equal(t, 15, cfg.Booking.PaymentWindowMinutes)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Contains(t, cfg.Database.DSN(), "dbname=stays")
}

func TestLoad_RejectsTTLOutsideBounds(t *testing.T) {
	path := writeConfig(t, `
[booking]
max_hold_ttl_minutes = 120
`)
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_KafkaWithoutBrokers(t *testing.T) {
	path := writeConfig(t, `
[kafka]
enabled = true
`)
	t.Setenv("KAFKA_BROKERS", "")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
