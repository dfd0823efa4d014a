package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadUsesFlagDefaultsWhenUnset(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(fs)
	require.NoError(t, err)
	require.False(t, cfg.Debug)
	require.False(t, cfg.GCAdaptive)
}

func TestLoadHonorsExplicitFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--debug", "--gc-max-count=64"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	require.True(t, cfg.Debug)
	require.Equal(t, 64, cfg.GCMaxCount)
}

func TestLoadHonorsEnvironmentOverride(t *testing.T) {
	t.Setenv("LAVASCRIPT_GLOBALS_TABLE", "true")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(fs)
	require.NoError(t, err)
	require.True(t, cfg.GlobalsTable)
}

func TestVMConfigTranslatesFields(t *testing.T) {
	cfg := &Config{StackSize: 512, GCMaxCount: 8, GCAdaptive: true}
	vmCfg := cfg.VMConfig(nil)
	require.Equal(t, 512, vmCfg.StackSize)
	require.Equal(t, 8, vmCfg.GCMaxCount)
	require.True(t, vmCfg.GCAdaptive)
}
