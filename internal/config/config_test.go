package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quicklendx/quicklendx/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_IDENTITY", "root")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "QuickLendX", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)

	assert.Equal(t, 25, cfg.DB.MaxOpenConns)
	assert.Equal(t, 5, cfg.DB.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.DB.ConnMaxLifetime)

	assert.Equal(t, int64(50), cfg.Fees.FundingBps)
	assert.Equal(t, int64(250), cfg.Fees.PlatformBps)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_IDENTITY", "root")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestConnectionString(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_IDENTITY", "root")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "qlx")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "market")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t,
		"postgres://qlx:pw@db.internal:5433/market?sslmode=disable",
		cfg.ConnectionString())
}
