// Package ffi implements the dynamic-library and call-dispatch primitives:
// dlopen/dlsym/dlclose over purego (so this stays cgo-free) and the
// __callN trampoline family that distinguishes a native (dlsym'd) function
// pointer, a Nytrix closure (tag-105 heap object), and a plain emitted
// function pointer.
package ffi

import (
	"errors"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"

	"github.com/nytrix-lang/nytrix/internal/memory"
	"github.com/nytrix-lang/nytrix/internal/ops"
	"github.com/nytrix-lang/nytrix/internal/value"
)

// recordErrno unwraps a POSIX errno out of a failed purego call and stashes
// it for __errno, the same way the original runtime leaves libc's errno
// set after a failed dlopen/dlsym/dlclose.
func recordErrno(err error) {
	var errno unix.Errno
	if errors.As(err, &errno) {
		ops.SetErrno(int64(errno))
	}
}

// nativeTag/nativeMask mirror NY_NATIVE_TAG/NY_NATIVE_IS for the 64-bit
// native encoding (this implementation targets LP64 hosts, same as
// internal/value).
const (
	nativeTag  = 6
	nativeMask = 7
)

func isNative(v value.V) bool { return v&nativeMask == nativeTag }

func encodeNative(p uintptr) value.V { return value.V((uint64(p) << 3) | nativeTag) }
func decodeNative(v value.V) uintptr { return uintptr(uint64(v) >> 3) }

// TagNative implements __tag_native.
func TagNative(addr value.V) value.V {
	a := addr
	if a.IsTaggedInt() {
		a = value.V(a.Untag())
	}
	if a == 0 {
		return 0
	}
	return encodeNative(uintptr(a))
}

// Dlopen implements __dlopen.
func Dlopen(name string, flags int) value.V {
	if name == "" {
		h, err := purego.Dlopen("", flags)
		if err != nil {
			recordErrno(err)
			return 0
		}
		return encodeNative(h)
	}
	h, err := purego.Dlopen(name, flags)
	if err != nil {
		recordErrno(err)
		return 0
	}
	return encodeNative(h)
}

// Dlsym implements __dlsym.
func Dlsym(handle value.V, name string) value.V {
	h := resolveHandle(handle)
	p, err := purego.Dlsym(h, name)
	if err != nil {
		recordErrno(err)
		return 0
	}
	return encodeNative(p)
}

func resolveHandle(v value.V) uintptr {
	if isNative(v) {
		return decodeNative(v)
	}
	return uintptr(v)
}

// Dlclose implements __dlclose: closes a library opened via Dlopen. purego
// exposes no direct wrapper, so this resolves and calls libc's own
// dlclose through the same raw-call path __callN uses.
func Dlclose(handle value.V) int64 {
	lib, err := purego.Dlopen("", purego.RTLD_LAZY)
	if err != nil {
		recordErrno(err)
		return -1
	}
	fn, err := purego.Dlsym(lib, "dlclose")
	if err != nil {
		recordErrno(err)
		return -1
	}
	ret, _, _ := purego.SyscallN(fn, uint64(resolveHandle(handle)))
	return int64(ret)
}

// Call dispatches a Nytrix call of arbitrary arity: f may be a native
// (dlsym'd) pointer, a tag-105 closure, or a plain masked function
// pointer; args are already-tagged Nytrix values. Mirrors __call0..__callN
// collapsed into one variadic implementation, since Go's calling
// convention (unlike emitted LLVM IR) can express arity as a slice.
func Call(h *memory.Heap, f value.V, args ...value.V) value.V {
	if f == 0 {
		return value.Tag(1)
	}
	if isNative(f) {
		raw := make([]uint64, len(args))
		for i, a := range args {
			raw[i] = uint64(a.Untag())
		}
		ret, _, _ := purego.SyscallN(decodeNative(f), raw...)
		return value.Tag(int64(ret))
	}
	if h.IsHeapPointer(f) {
		if tag := int64(h.Load64(f, int64(value.OffTag))); tag == value.TagClosure {
			code := value.V(h.Load64(f, 0))
			env := value.V(h.Load64(f, 8))
			return callPlain(code, append([]value.V{env}, args...)...)
		}
	}
	return callPlain(f, args...)
}

// callPlain calls an emitted (non-native) function pointer, masking off
// any FFI tag bits the way __mask_ptr does before jumping to it.
func callPlain(f value.V, args ...value.V) value.V {
	raw := make([]uint64, len(args))
	for i, a := range args {
		raw[i] = uint64(a)
	}
	ret, _, _ := purego.SyscallN(value.MaskPtr(f), raw...)
	return value.V(ret)
}
