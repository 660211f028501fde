package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
)

func TestPoolConfig_AppliesLimits(t *testing.T) {
	cfg, err := poolConfig(config.PostgresConfig{
		DSN:            "postgres://accounts:pw@db:5432/accounts",
		MaxConns:       8,
		MinConns:       12,
		ConnMaxIdleSec: 15,
		ConnMaxLifeSec: 120,
	})
	require.NoError(t, err)

	assert.Equal(t, "accounts", cfg.ConnConfig.Database)
	assert.Equal(t, int32(8), cfg.MaxConns)
	assert.Equal(t, int32(8), cfg.MinConns, "min is capped at max")
	assert.Equal(t, 15*time.Second, cfg.MaxConnIdleTime)
	assert.Equal(t, 2*time.Minute, cfg.MaxConnLifetime)
}

func TestPoolConfig_RejectsBadDSN(t *testing.T) {
	_, err := poolConfig(config.PostgresConfig{DSN: "postgres://%zz"})
	require.Error(t, err)
}

func TestNewPostgres_EmptyDSNIsDisabled(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, pg.Enabled())
	assert.Nil(t, pg.PoolHandle())
	assert.ErrorIs(t, pg.Ping(context.Background()), ErrPostgresDisabled)
	pg.Close()

	var missing *Postgres
	assert.ErrorIs(t, missing.Ping(context.Background()), ErrPostgresDisabled)
}
