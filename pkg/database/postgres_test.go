package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optsignals/pkg/config"
)

func integrationConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	return config.DatabaseConfig{
		URL:             url,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

func TestNew(t *testing.T) {
	db, err := New(context.Background(), integrationConfig(t))
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, db.Ping(ctx))
}

func TestHealthCheck(t *testing.T) {
	db, err := New(context.Background(), integrationConfig(t))
	require.NoError(t, err)
	defer db.Close()

	status, err := db.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, int32(4), status.Stats.MaxConns)
}

func TestNewWithInvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.DatabaseConfig{URL: "invalid://url"})
	assert.Error(t, err)
}

func TestCloseNil(t *testing.T) {
	var db *DB
	assert.NotPanics(t, func() { db.Close() })
	assert.NotPanics(t, func() { (&DB{}).Close() })
}
