package memory_test

import (
	"testing"

	"github.com/nytrix-lang/nytrix/internal/memory"
	"github.com/nytrix-lang/nytrix/internal/value"
	"github.com/stretchr/testify/require"
)

func TestAllocIsHeapPointerAligned(t *testing.T) {
	h := memory.NewHeap()
	v := h.Alloc(10)
	require.NotZero(t, v)
	require.True(t, h.IsHeapPointer(v))
	require.Zero(t, uintptr(v)&63)
}

func TestFreeClearsSentinels(t *testing.T) {
	h := memory.NewHeap()
	v := h.Alloc(8)
	require.True(t, h.IsHeapPointer(v))
	h.Free(v)
	require.False(t, h.IsHeapPointer(v))
	// double free is a no-op, not a crash
	h.Free(v)
}

func TestStoreLoadRoundTrip(t *testing.T) {
	h := memory.NewHeap()
	v := h.Alloc(64)
	h.Store64(v, 0, 123456)
	require.Equal(t, int64(123456), h.Load64(v, 0))
	h.Store8(v, 8, -5)
	require.Equal(t, int64(-5), h.Load8(v, 8))
}

func TestStringRoundTrip(t *testing.T) {
	h := memory.NewHeap()
	v := h.NewString("hello")
	require.True(t, h.IsString(v))
	s, ok := h.GoString(v)
	require.True(t, ok)
	require.Equal(t, "hello", s)
}

func TestReallocGrowsAndCopies(t *testing.T) {
	h := memory.NewHeap()
	v := h.Alloc(8)
	h.Store64(v, 0, 42)
	v2 := h.Realloc(v, 256)
	require.NotZero(t, v2)
	require.Equal(t, int64(42), h.Load64(v2, 0))
}

func TestIsHeapPointerRejectsRawInt(t *testing.T) {
	h := memory.NewHeap()
	require.False(t, h.IsHeapPointer(value.Tag(5)))
	require.False(t, h.IsHeapPointer(value.None))
}

func TestCheckOOBWithinCapacity(t *testing.T) {
	h := memory.NewHeap()
	v := h.Alloc(16)
	require.True(t, h.CheckOOB(v, 0, 8))
	require.False(t, h.CheckOOB(v, 60, 8))
}
