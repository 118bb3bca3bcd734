package fastpath_test

import (
	"math"
	"testing"

	"github.com/nytrix-lang/nytrix/internal/config"
	"github.com/nytrix-lang/nytrix/internal/fastpath"
	"github.com/stretchr/testify/require"
)

func TestFoldConstantArithmetic(t *testing.T) {
	require.Equal(t, int64(7), fastpath.FoldConstant(fastpath.Add, 3, 4))
	require.Equal(t, int64(-1), fastpath.FoldConstant(fastpath.Sub, 3, 4))
	require.Equal(t, int64(12), fastpath.FoldConstant(fastpath.Mul, 3, 4))
	require.Equal(t, int64(2), fastpath.FoldConstant(fastpath.Div, 7, 3))
	require.Equal(t, int64(1), fastpath.FoldConstant(fastpath.Mod, 7, 3))
}

func TestFoldConstantNeverTraps(t *testing.T) {
	require.Equal(t, int64(0), fastpath.FoldConstant(fastpath.Div, 5, 0))
	require.Equal(t, int64(0), fastpath.FoldConstant(fastpath.Mod, 5, 0))
	require.Equal(t, int64(math.MinInt64), fastpath.FoldConstant(fastpath.Div, math.MinInt64, -1))
	require.Equal(t, int64(0), fastpath.FoldConstant(fastpath.Mod, math.MinInt64, -1))
}

func TestIdentityFor(t *testing.T) {
	id, ok := fastpath.IdentityFor(fastpath.Add, 0)
	require.True(t, ok)
	require.True(t, id.SimplifiesToLeft)

	id, ok = fastpath.IdentityFor(fastpath.Mul, 0)
	require.True(t, ok)
	require.True(t, id.IsZero)

	id, ok = fastpath.IdentityFor(fastpath.Mul, 1)
	require.True(t, ok)
	require.True(t, id.SimplifiesToLeft)

	_, ok = fastpath.IdentityFor(fastpath.Mul, 2)
	require.False(t, ok)
}

func TestPolicyShouldInline(t *testing.T) {
	require.True(t, (&fastpath.Policy{}).ShouldInline(fastpath.Add))

	p := fastpath.NewPolicy(&config.Config{FastIntBinops: true, StdBuiltinOps: true})
	require.True(t, p.ShouldInline(fastpath.Add))

	p = fastpath.NewPolicy(&config.Config{FastIntBinops: false, StdBuiltinOps: true})
	require.False(t, p.ShouldInline(fastpath.Add))
}
