package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PLATEFUL_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "plateful", cfg.App.Name)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TokenTTL)
	assert.Equal(t, "local", cfg.Media.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PLATEFUL_JWT_SECRET", "test-secret")
	t.Setenv("PLATEFUL_DATABASE_HOST", "db.internal")
	t.Setenv("PLATEFUL_APP_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "9000", cfg.App.Port)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "localhost", Port: 5432,
		User: "plateful", Password: "pw", DBName: "plateful", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=plateful password=pw dbname=plateful sslmode=disable",
		c.DSN())
}
