// Package thread implements the concurrency primitives: thread_spawn and
// thread_join over goroutines, and mutex_new/lock/unlock/free over
// sync.Mutex. It preserves the original's synchronous, non-cooperative
// suspension-point contract — a join genuinely blocks the caller, a lock
// genuinely blocks until available — without a custom scheduler.
package thread

import (
	"sync"

	"github.com/nytrix-lang/nytrix/internal/control"
	"github.com/nytrix-lang/nytrix/internal/value"
)

// Handle is a join handle returned by Spawn.
type Handle struct {
	done   chan value.V
	result value.V
}

// Spawn implements thread_spawn: run fn(arg) on a new goroutine, wired
// into its own control.Thread so panics, defers, and the trace ring stay
// goroutine-local exactly as they would be OS-thread-local in the
// original runtime.
func Spawn(fn func(arg value.V) value.V, arg value.V) *Handle {
	h := &Handle{done: make(chan value.V, 1)}
	go func() {
		id, t := control.Register()
		defer control.Unregister(id)
		var result value.V
		t.Catch(func() {
			result = fn(arg)
		}, func(v value.V) {
			t.Fatal(v)
		})
		h.done <- result
	}()
	return h
}

// Join implements thread_join: block until the goroutine finishes and
// return its result.
func (h *Handle) Join() value.V {
	v := <-h.done
	h.result = v
	return v
}

// Mutex wraps sync.Mutex behind the tagged-value ABI mutex_new/lock/
// unlock/free primitives expect.
type Mutex struct {
	mu sync.Mutex
}

var (
	registryMu sync.Mutex
	registry   = make(map[int64]*Mutex)
	nextID     int64
)

// MutexNew implements mutex_new, returning an opaque handle.
func MutexNew() value.V {
	registryMu.Lock()
	defer registryMu.Unlock()
	nextID++
	id := nextID
	registry[id] = &Mutex{}
	return value.Tag(id)
}

func lookup(h value.V) *Mutex {
	registryMu.Lock()
	defer registryMu.Unlock()
	return registry[h.Untag()]
}

// MutexLock/MutexUnlock implement mutex_lock/mutex_unlock.
func MutexLock(h value.V) {
	if m := lookup(h); m != nil {
		m.mu.Lock()
	}
}

func MutexUnlock(h value.V) {
	if m := lookup(h); m != nil {
		m.mu.Unlock()
	}
}

// MutexFree implements mutex_free.
func MutexFree(h value.V) {
	registryMu.Lock()
	delete(registry, h.Untag())
	registryMu.Unlock()
}
