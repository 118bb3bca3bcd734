// Package config translates the NYTRIX_* environment variables into a
// typed Config consumed by fastpath, purity, and diag, so those packages
// never call os.Getenv directly — a Config can be constructed from a test
// without touching the process environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config mirrors §6.2's environment-variable surface.
type Config struct {
	FastIntBinops   bool // NYTRIX_FAST_INT_BINOPS
	StdBuiltinOps   bool // NYTRIX_STD_BUILTIN_OPS
	TraceVerbose    bool // NYTRIX_TRACE_VERBOSE
	MemStats        bool // NYTRIX_MEM_STATS

	EffectForbid       []string // NYTRIX_EFFECT_FORBID (comma-separated)
	EffectRequirePure   []string // NYTRIX_EFFECT_REQUIRE_PURE
	EffectRequireKnown  []string // NYTRIX_EFFECT_REQUIRE_KNOWN
	AliasRequireKnown    []string // NYTRIX_ALIAS_REQUIRE_KNOWN
	AliasRequireNoEscape []string // NYTRIX_ALIAS_REQUIRE_NO_ESCAPE

	PurityDiag bool // NYTRIX_PURITY_DIAG
	EffectDiag bool // NYTRIX_EFFECT_DIAG
	AliasDiag  bool // NYTRIX_ALIAS_DIAG
}

func boolEnv(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func listEnv(name string) []string {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FromEnv reads the process environment into a Config, defaulting the
// fast-path toggles on (matching the original runtime's default-enabled
// optimizations) and every diagnostic/policy gate off.
func FromEnv() *Config {
	return &Config{
		FastIntBinops: boolEnv("NYTRIX_FAST_INT_BINOPS", true),
		StdBuiltinOps: boolEnv("NYTRIX_STD_BUILTIN_OPS", true),
		TraceVerbose:  boolEnv("NYTRIX_TRACE_VERBOSE", false),
		MemStats:      boolEnv("NYTRIX_MEM_STATS", false),

		EffectForbid:         listEnv("NYTRIX_EFFECT_FORBID"),
		EffectRequirePure:    listEnv("NYTRIX_EFFECT_REQUIRE_PURE"),
		EffectRequireKnown:   listEnv("NYTRIX_EFFECT_REQUIRE_KNOWN"),
		AliasRequireKnown:    listEnv("NYTRIX_ALIAS_REQUIRE_KNOWN"),
		AliasRequireNoEscape: listEnv("NYTRIX_ALIAS_REQUIRE_NO_ESCAPE"),

		PurityDiag: boolEnv("NYTRIX_PURITY_DIAG", false),
		EffectDiag: boolEnv("NYTRIX_EFFECT_DIAG", false),
		AliasDiag:  boolEnv("NYTRIX_ALIAS_DIAG", false),
	}
}
