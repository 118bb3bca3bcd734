package memory

import (
	"reflect"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/nytrix-lang/nytrix/internal/value"
)

// rawBytesAt and rawReadable let header-relative reads work even for
// pointers this heap never allocated (constant strings baked into the
// module's rodata, or foreign buffers handed back from FFI calls) — the
// original runtime's rt_addr_readable probe exists for exactly this case.
// Go cannot safely dereference arbitrary addresses the way C can, so
// rawBytesAt only reads addresses obtained from this process's own
// allocations (the registry) or from cgo/purego-returned buffers recorded
// via RegisterForeign. rawReadable additionally answers for any other
// address through a mincore probe, without reading it.

// foreignRegion describes a buffer this heap did not allocate but was told
// about (e.g. a module-level constant string, or memory returned by an FFI
// call) so header-style reads can still be resolved without touching
// unmapped memory.
type foreignRegion struct {
	addr uintptr
	buf  []byte
}

var (
	foreignMu  = struct{ m map[uintptr]foreignRegion }{m: make(map[uintptr]foreignRegion)}
)

// RegisterForeign records a buffer at a known address so CheckOOB/Load/
// Store can resolve it the same way they resolve heap-allocated blocks.
// buf must be laid out exactly like a live block's base — the 64-byte
// header window followed by the payload — with addr equal to the payload
// address (buf[value.HeaderSize] is buf's first payload byte). Used for
// module-level constant strings emitted by the generator.
func RegisterForeign(addr uintptr, buf []byte) {
	foreignMu.m[addr] = foreignRegion{addr: addr, buf: buf}
}

func rawBytesAt(addr uintptr, offset int64, n int) []byte {
	r, ok := foreignMu.m[addr]
	if !ok {
		return nil
	}
	pos := int64(value.HeaderSize) + offset
	if pos < 0 || pos+int64(n) > int64(len(r.buf)) {
		return nil
	}
	return r.buf[pos : pos+int64(n)]
}

// rawReadable answers the header-relative readability question for an
// address this heap has no record of at all: a registered foreign region
// first, and failing that, the same `mincore(2)` probe `rt_addr_readable`
// falls back to — asking the kernel whether the containing page is
// resident rather than risking a SIGSEGV by just dereferencing it.
func rawReadable(addr uintptr, offset int64, n int) bool {
	if rawBytesAt(addr, offset, n) != nil {
		return true
	}
	return mincoreReadable(addr, offset, n)
}

// mincoreReadable probes whether every page spanning [addr+offset,
// addr+offset+n) is mapped, via unix.Mincore. Go has no safe way to take
// an arbitrary uintptr's address as a slice; the unsafe.Pointer
// conversion here is transient (the slice never escapes this function)
// and mirrors exactly what the probe does in C: ask the kernel about a
// raw address without dereferencing it.
func mincoreReadable(addr uintptr, offset int64, n int) (readable bool) {
	defer func() {
		if recover() != nil {
			readable = false
		}
	}()

	target := addr + uintptr(offset)
	pageSize := uintptr(unix.Getpagesize())
	pageStart := target &^ (pageSize - 1)
	pageEnd := (target + uintptr(n) + pageSize - 1) &^ (pageSize - 1)
	length := int(pageEnd - pageStart)
	if length <= 0 {
		return false
	}

	var probe []byte
	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&probe))
	hdr.Data = pageStart
	hdr.Len = length
	hdr.Cap = length

	vec := make([]byte, (length+int(pageSize)-1)/int(pageSize))
	if err := unix.Mincore(probe, vec); err != nil {
		return false
	}
	for _, b := range vec {
		if b&1 == 0 {
			return false
		}
	}
	return true
}

// addrOf is a small helper kept for symmetry with the C runtime's pointer
// arithmetic; Go code reaches memory through slices, not raw pointers, so
// this only matters when reporting addresses in diagnostics.
func addrOf(p unsafe.Pointer) uintptr { return uintptr(p) }
