package ops_test

import (
	"testing"

	"github.com/nytrix-lang/nytrix/internal/memory"
	"github.com/nytrix-lang/nytrix/internal/ops"
	"github.com/nytrix-lang/nytrix/internal/value"
	"github.com/stretchr/testify/require"
)

func TestAddWrapsTaggedInts(t *testing.T) {
	h := memory.NewHeap()
	r := ops.Add(h, value.Tag(2), value.Tag(3))
	require.Equal(t, int64(5), r.Untag())
}

func TestDivByZeroNeverTraps(t *testing.T) {
	h := memory.NewHeap()
	r := ops.Div(h, value.Tag(10), value.Tag(0))
	require.Equal(t, int64(0), r.Untag())
}

func TestFloatPromotion(t *testing.T) {
	h := memory.NewHeap()
	f := ops.BoxFloat(h, 1.5)
	r := ops.Add(h, value.Tag(1), f)
	require.True(t, h.IsFloat(r))
	require.InDelta(t, 2.5, ops.UnboxFloat(h, r), 1e-9)
}

func TestStrConcatRendersEachSide(t *testing.T) {
	h := memory.NewHeap()
	s := h.NewString("x=")
	r := ops.StrConcat(h, s, value.Tag(7))
	out, ok := h.GoString(r)
	require.True(t, ok)
	require.Equal(t, "x=7", out)
}

func TestResultOkErrUnwrap(t *testing.T) {
	h := memory.NewHeap()
	ok := ops.ResultOk(h, value.Tag(42))
	require.True(t, h.IsOk(ok))
	require.Equal(t, int64(42), ops.Unwrap(h, ok).Untag())

	errv := ops.ResultErr(h, value.Tag(-1))
	require.True(t, h.IsErr(errv))
}

func TestRandDeterministicAfterSeed(t *testing.T) {
	ops.Srand(42)
	a := ops.Rand64()
	ops.Srand(42)
	b := ops.Rand64()
	require.Equal(t, a, b)
}
