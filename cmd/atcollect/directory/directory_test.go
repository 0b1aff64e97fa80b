package directory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_UserConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Setenv(UserConfigPathEnv, path)

	cfg, err := GetUserConfig()
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFileUsed())
	assert.False(t, cfg.IsSet(PortCfgKey))

	cfg.Set(PortCfgKey, "/dev/ttyUSB3")
	require.NoError(t, WriteConfig(cfg))

	cfg, err = GetUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB3", cfg.GetString(PortCfgKey))
}

func Test_DefaultPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(UserConfigPathEnv, path)

	cfg, err := GetUserConfig()
	require.NoError(t, err)
	cfg.Set(PortCfgKey, "COM7")
	require.NoError(t, WriteConfig(cfg))

	assert.Equal(t, "COM7", DefaultPort())

	t.Setenv(PortEnv, "/dev/ttyACM0")
	assert.Equal(t, "/dev/ttyACM0", DefaultPort())
}
