package control_test

import (
	"testing"

	"github.com/nytrix-lang/nytrix/internal/control"
	"github.com/nytrix-lang/nytrix/internal/value"
	"github.com/stretchr/testify/require"
)

func TestRegisterUnregisterAllocatesDistinctThreads(t *testing.T) {
	id1, t1 := control.Register()
	id2, t2 := control.Register()
	require.NotEqual(t, id1, id2)
	require.NotSame(t, t1, t2)
	control.Unregister(id1)
	control.Unregister(id2)
}

func TestDefersRunLIFOOnCatch(t *testing.T) {
	_, th := control.Register()
	var order []int
	run := func(fn, arg value.V) value.V {
		order = append(order, int(arg))
		return value.V(0)
	}
	caught := false
	th.Catch(func() {
		th.PushDefer(value.V(0), value.V(1), run)
		th.PushDefer(value.V(0), value.V(2), run)
		th.PushDefer(value.V(0), value.V(3), run)
		th.Panic(value.V(42))
	}, func(v value.V) {
		caught = true
		require.Equal(t, int64(42), int64(v))
	})

	require.True(t, caught)
	require.Equal(t, []int{3, 2, 1}, order)
}

func TestCatchOnlyUnwindsDefersSinceEntry(t *testing.T) {
	_, th := control.Register()
	var ran []int
	run := func(fn, arg value.V) value.V {
		ran = append(ran, int(arg))
		return value.V(0)
	}
	th.PushDefer(value.V(0), value.V(1), run)

	before := th.DeferLen()
	require.Equal(t, 1, before)

	th.Catch(func() {
		th.PushDefer(value.V(0), value.V(2), run)
		th.Panic(value.V(7))
	}, func(value.V) {})

	require.Equal(t, []int{2}, ran, "only the defer pushed after entry should have run")
	require.Equal(t, 1, th.DeferLen())
}

func TestCatchIgnoresNonNytrixPanics(t *testing.T) {
	_, th := control.Register()
	defer func() {
		r := recover()
		require.Equal(t, "boom", r)
	}()
	th.Catch(func() {
		panic("boom")
	}, func(value.V) {
		t.Fatal("handler should not run for a non-value.V panic")
	})
}
