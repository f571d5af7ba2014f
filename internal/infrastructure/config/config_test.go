package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.License.DownloadExpiryDays)
	assert.Equal(t, 30*24*time.Hour, cfg.License.DownloadExpiry())
	assert.Equal(t, 24*time.Hour, cfg.License.FetchURLExpiry())
	assert.Equal(t, 3, cfg.License.MaxDevices)
	assert.Equal(t, int64(1000), cfg.License.AccessCountThreshold)
	assert.Equal(t, 6*time.Hour, cfg.License.SweepInterval)
	assert.Equal(t, 500, cfg.License.SweepBatchSize)
	assert.Equal(t, time.Hour, cfg.Streaming.Expiry())
	assert.False(t, cfg.Redis.Enabled)
	assert.Same(t, cfg, Get())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("INPLAY_LICENSE_MAX_DEVICES", "5")
	t.Setenv("INPLAY_DATABASE_DRIVER", "sqlite")

	cfg, err := Load("release")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.License.MaxDevices)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "release", cfg.Server.Mode)
}
