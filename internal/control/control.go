// Package control implements the panic/defer channel and the per-thread
// trace ring. The original runtime keeps a LIFO defer stack and a LIFO
// stack of setjmp panic environments per OS thread; this reimplementation
// keeps the same observable contract — a defer registered before a panic
// runs exactly once, unwound down to the catch point — using Go's
// panic/recover instead of setjmp/longjmp, with the defer/trace state
// scoped per goroutine the way the original scopes it per OS thread.
package control

import (
	"fmt"
	"os"
	"sync"

	"github.com/nytrix-lang/nytrix/internal/value"
)

// deferEntry is one registered deferred call.
type deferEntry struct {
	fn  value.V
	arg value.V
	run func(fn, arg value.V) value.V
}

// traceEntry is one slot of the 32-entry trace ring.
type traceEntry struct {
	file, fn     string
	line, column int
}

const traceRingSize = 32

// Thread is the per-goroutine panic/defer/trace state, analogous to the
// original runtime's thread-local globals.
type Thread struct {
	defers []deferEntry
	trace  [traceRingSize]traceEntry
	head   int
	count  int
}

var (
	registryMu sync.Mutex
	registry   = make(map[int64]*Thread)
	nextID     int64
)

// ids correlates goroutines to Thread objects without relying on runtime
// internals: callers obtain an ID from Register when a goroutine starts
// and pass it explicitly, the same way the compiler threads an explicit
// env/context pointer through generated code.
type ID int64

// Register allocates a fresh Thread and ID, used by internal/thread when
// spawning a goroutine and by the entry point for the main goroutine.
func Register() (ID, *Thread) {
	registryMu.Lock()
	defer registryMu.Unlock()
	nextID++
	id := nextID
	t := &Thread{}
	registry[id] = t
	return ID(id), t
}

// Unregister drops a finished goroutine's state.
func Unregister(id ID) {
	registryMu.Lock()
	delete(registry, int64(id))
	registryMu.Unlock()
}

// PushDefer implements __push_defer.
func (t *Thread) PushDefer(fn, arg value.V, run func(fn, arg value.V) value.V) {
	t.defers = append(t.defers, deferEntry{fn: fn, arg: arg, run: run})
}

// DeferLen returns the current defer-stack depth, saved by Catch before
// entering protected code — the Go equivalent of __jmpbuf_size snapshot.
func (t *Thread) DeferLen() int { return len(t.defers) }

// runDefersTo implements __run_defers_to: pop and run defers down to a
// saved stack length, LIFO order.
func (t *Thread) runDefersTo(n int) {
	for len(t.defers) > n {
		last := t.defers[len(t.defers)-1]
		t.defers = t.defers[:len(t.defers)-1]
		last.run(last.fn, last.arg)
	}
}

// Catch implements the Go-native replacement for __set_panic_env/__panic:
// it runs body, and if body panics with a value.V (the only panic payload
// generated code ever raises), unwinds defers registered since entry and
// invokes handler with the panic value. A panic of any other Go type
// (a programming error, not a Nytrix panic) propagates unchanged.
func (t *Thread) Catch(body func(), handler func(value.V)) {
	saved := t.DeferLen()
	defer func() {
		if r := recover(); r != nil {
			v, ok := r.(value.V)
			if !ok {
				t.runDefersTo(saved)
				panic(r)
			}
			t.runDefersTo(saved)
			handler(v)
		}
	}()
	body()
}

// Panic implements __panic: it raises v as a Go panic. The nearest Catch
// recovers it and runs the defers registered since that Catch was entered;
// Panic itself runs no defers, prints nothing and does not exit (Fatal is
// the uncaught-panic path).
func (t *Thread) Panic(v value.V) {
	panic(v)
}

// TraceLoc implements __trace_loc: record a (file,line,col) ring slot.
func (t *Thread) TraceLoc(file string, line, col int) {
	t.trace[t.head] = traceEntry{file: file, line: line, column: col, fn: t.trace[t.head].fn}
	t.head = (t.head + 1) % traceRingSize
	if t.count < traceRingSize {
		t.count++
	}
}

// TraceFunc implements __trace_func: stamp the current ring slot's
// function name (called immediately after TraceLoc by generated code).
func (t *Thread) TraceFunc(fn string) {
	prev := (t.head - 1 + traceRingSize) % traceRingSize
	t.trace[prev].fn = fn
}

// traceVerbose gates __trace_dump's output the way NYTRIX_TRACE_VERBOSE
// gates trace_should_print in rt/core.c.
func traceVerbose() bool {
	return os.Getenv("NYTRIX_TRACE_VERBOSE") != ""
}

// TraceDump implements __trace_dump: print the ring, oldest first, to
// stderr, only when verbose tracing is enabled.
func (t *Thread) TraceDump() {
	if !traceVerbose() {
		return
	}
	n := t.count
	start := t.head
	if n < traceRingSize {
		start = 0
	}
	for i := 0; i < n; i++ {
		e := t.trace[(start+i)%traceRingSize]
		fmt.Fprintf(os.Stderr, "  at %s:%d:%d in %s\n", e.file, e.line, e.column, e.fn)
	}
}

// Fatal implements the uncaught-panic path: dump the trace and terminate.
func (t *Thread) Fatal(v value.V) {
	fmt.Fprintf(os.Stderr, "nytrix: uncaught panic: %v\n", int64(v))
	t.TraceDump()
	os.Exit(1)
}
