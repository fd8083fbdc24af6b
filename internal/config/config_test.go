package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DatabaseHost)
	assert.Equal(t, 5432, cfg.DatabasePort)
	assert.Equal(t, "courtvision", cfg.DatabaseName)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTLSummary)
	assert.True(t, cfg.EnableMetrics)
}

func TestLoadMissingPassword(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err, "Missing database password should fail")
}

func TestValidatePortClash(t *testing.T) {
	cfg := &Config{
		DatabasePassword: "secret",
		APIPort:          9090,
		MetricsPort:      9090,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "METRICS_PORT")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DatabaseHost:     "db.internal",
		DatabasePort:     5433,
		DatabaseUser:     "app",
		DatabasePassword: "secret",
		DatabaseName:     "courtvision",
		DatabaseSSLMode:  "require",
	}

	dsn := cfg.DatabaseDSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "sslmode=require")
}

func TestRedisAddr(t *testing.T) {
	cfg := &Config{RedisHost: "cache.internal", RedisPort: 6380}
	assert.Equal(t, "cache.internal:6380", cfg.RedisAddr())
}

func TestEnvironmentChecks(t *testing.T) {
	dev := &Config{AppEnv: "development"}
	assert.True(t, dev.IsDevelopment())
	assert.False(t, dev.IsProduction())

	prod := &Config{AppEnv: "production"}
	assert.True(t, prod.IsProduction())
	assert.False(t, prod.IsDevelopment())
}
