package config_test

import (
	"testing"

	"github.com/nytrix-lang/nytrix/internal/config"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := config.FromEnv()
	require.True(t, cfg.FastIntBinops)
	require.True(t, cfg.StdBuiltinOps)
	require.False(t, cfg.TraceVerbose)
	require.False(t, cfg.PurityDiag)
	require.Nil(t, cfg.EffectForbid)
}

func TestFromEnvReadsOverrides(t *testing.T) {
	t.Setenv("NYTRIX_FAST_INT_BINOPS", "false")
	t.Setenv("NYTRIX_TRACE_VERBOSE", "true")
	t.Setenv("NYTRIX_EFFECT_FORBID", "io, net ,fs")

	cfg := config.FromEnv()
	require.False(t, cfg.FastIntBinops)
	require.True(t, cfg.TraceVerbose)
	require.Equal(t, []string{"io", "net", "fs"}, cfg.EffectForbid)
}

func TestFromEnvIgnoresUnparsableBool(t *testing.T) {
	t.Setenv("NYTRIX_MEM_STATS", "not-a-bool")
	cfg := config.FromEnv()
	require.False(t, cfg.MemStats, "an unparsable value should fall back to the default")
}
