package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadOrDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadOrDefaults(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	require.Equal(t, "stationd", cfg.Server.Name)
	require.Equal(t, "0.0.0.0:5433", cfg.Network.BindAddress)
	require.Equal(t, 200*time.Millisecond, cfg.Network.TickRate)
	require.Equal(t, int32(20), cfg.World.ViewRange)
	require.Equal(t, 32, cfg.Pool.DefaultCapacity)
	require.True(t, cfg.RateLimit.Enabled)
	require.NotZero(t, cfg.Server.StartTime)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
name = "test-station"

[network]
bind_address = "127.0.0.1:9999"
tick_rate = "100ms"

[pool]
default_capacity = 4
policy_scripts = false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "test-station", cfg.Server.Name)
	require.Equal(t, "127.0.0.1:9999", cfg.Network.BindAddress)
	require.Equal(t, 100*time.Millisecond, cfg.Network.TickRate)
	require.Equal(t, 4, cfg.Pool.DefaultCapacity)
	require.False(t, cfg.Pool.PolicyScripts)

	// Sections the file omits keep their defaults.
	require.Equal(t, int32(20), cfg.World.ViewRange)
	require.Equal(t, 128, cfg.Network.InQueueSize)
}

func TestLoadRejectsBrokenToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nname="), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
