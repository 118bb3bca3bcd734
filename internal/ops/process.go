package ops

import (
	"sync"

	"github.com/nytrix-lang/nytrix/internal/memory"
	"github.com/nytrix-lang/nytrix/internal/value"
)

// ProcessArgs holds the argv/envp snapshot __set_args installs and
// __argc/__argv/__envp/__envc read back, each argument/variable rendered
// as a heap string the first time it's requested.
type ProcessArgs struct {
	mu   sync.Mutex
	argv []string
	envp []string

	argvCache []value.V
	envpCache []value.V
}

var defaultArgs = &ProcessArgs{}

// SetArgs implements __set_args.
func SetArgs(argv, envp []string) {
	defaultArgs.mu.Lock()
	defaultArgs.argv = argv
	defaultArgs.envp = envp
	defaultArgs.argvCache = nil
	defaultArgs.envpCache = nil
	defaultArgs.mu.Unlock()
}

// Argc/Envc implement __argc/__envc.
func Argc() int64 { defaultArgs.mu.Lock(); defer defaultArgs.mu.Unlock(); return int64(len(defaultArgs.argv)) }
func Envc() int64 { defaultArgs.mu.Lock(); defer defaultArgs.mu.Unlock(); return int64(len(defaultArgs.envp)) }

// Argv/Envp implement __argv/__envp: lazily materialize each entry as a
// heap string and return it by index, or none(0) out of range.
func Argv(h *memory.Heap, i int64) value.V {
	return indexed(h, &defaultArgs.mu, &defaultArgs.argv, &defaultArgs.argvCache, i)
}

func Envp(h *memory.Heap, i int64) value.V {
	return indexed(h, &defaultArgs.mu, &defaultArgs.envp, &defaultArgs.envpCache, i)
}

func indexed(h *memory.Heap, mu *sync.Mutex, src *[]string, cache *[]value.V, i int64) value.V {
	mu.Lock()
	defer mu.Unlock()
	if i < 0 || int(i) >= len(*src) {
		return value.None
	}
	if *cache == nil {
		*cache = make([]value.V, len(*src))
	}
	if (*cache)[i] == 0 {
		(*cache)[i] = h.NewConstString((*src)[i])
	}
	return (*cache)[i]
}

// Errno implements __errno. The original runtime surfaces libc's errno
// directly; in Go there is no process-wide errno to read outside of a
// syscall return, so this tracks the last error value FFI calls into
// internal/ffi recorded via SetErrno.
var (
	errnoMu sync.Mutex
	errno   int64
)

func SetErrno(v int64) { errnoMu.Lock(); errno = v; errnoMu.Unlock() }
func Errno() int64     { errnoMu.Lock(); defer errnoMu.Unlock(); return errno }
