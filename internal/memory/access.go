package memory

import (
	"encoding/binary"

	"github.com/nytrix-lang/nytrix/internal/value"
)

// Load8/16/32/64 and Store8/16/32/64 implement __loadN_idx/__storeN_idx:
// byte-addressed, header-relative access off a heap (or foreign) pointer.
// idx is in bytes and may be negative to reach the 64-byte header window.

func (h *Heap) Load8(addr value.V, idx int64) int64 {
	b := h.bytesAt(uintptr(addr), idx, 1)
	if b == nil {
		return 0
	}
	return int64(int8(b[0]))
}

func (h *Heap) Load16(addr value.V, idx int64) int64 {
	b := h.bytesAt(uintptr(addr), idx, 2)
	if b == nil {
		return 0
	}
	return int64(int16(binary.LittleEndian.Uint16(b)))
}

func (h *Heap) Load32(addr value.V, idx int64) int64 {
	b := h.bytesAt(uintptr(addr), idx, 4)
	if b == nil {
		return 0
	}
	return int64(int32(binary.LittleEndian.Uint32(b)))
}

func (h *Heap) Load64(addr value.V, idx int64) int64 {
	b := h.bytesAt(uintptr(addr), idx, 8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

func (h *Heap) Store8(addr value.V, idx int64, v int64) {
	b := h.bytesAt(uintptr(addr), idx, 1)
	if b == nil {
		return
	}
	b[0] = byte(v)
}

func (h *Heap) Store16(addr value.V, idx int64, v int64) {
	b := h.bytesAt(uintptr(addr), idx, 2)
	if b == nil {
		return
	}
	binary.LittleEndian.PutUint16(b, uint16(v))
}

func (h *Heap) Store32(addr value.V, idx int64, v int64) {
	b := h.bytesAt(uintptr(addr), idx, 4)
	if b == nil {
		return
	}
	binary.LittleEndian.PutUint32(b, uint32(v))
}

// Store64 needs no special case for idx == -8 (type tag) or idx == -16
// (tagged length): both fall inside the header window bytesAt exposes,
// and writing either word through the public store primitive is how
// generated code stamps a freshly allocated block's metadata after
// __malloc returns a bare payload pointer.
func (h *Heap) Store64(addr value.V, idx int64, v int64) {
	b := h.bytesAt(uintptr(addr), idx, 8)
	if b == nil {
		return
	}
	binary.LittleEndian.PutUint64(b, uint64(v))
}

// MemCpy/MemSet/MemCmp implement __memcpy/__memset/__memcmp over
// payload-relative byte ranges of (possibly different) heap pointers.
func (h *Heap) MemCpy(dst, src value.V, n int64) {
	if n <= 0 {
		return
	}
	d := h.bytesAt(uintptr(dst), 0, int(n))
	s := h.bytesAt(uintptr(src), 0, int(n))
	if d == nil || s == nil {
		return
	}
	copy(d, s)
}

func (h *Heap) MemSet(dst value.V, c int64, n int64) {
	if n <= 0 {
		return
	}
	d := h.bytesAt(uintptr(dst), 0, int(n))
	if d == nil {
		return
	}
	fill := byte(c)
	for i := range d {
		d[i] = fill
	}
}

func (h *Heap) MemCmp(a, b value.V, n int64) int64 {
	if n <= 0 {
		return 0
	}
	x := h.bytesAt(uintptr(a), 0, int(n))
	y := h.bytesAt(uintptr(b), 0, int(n))
	if x == nil || y == nil {
		return 0
	}
	for i := int64(0); i < n; i++ {
		if x[i] != y[i] {
			if x[i] < y[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// --- package-level ABI bindings over the default heap ---

func Alloc(n int64) value.V                       { return Default.Alloc(n) }
func Free(v value.V) value.V                      { return Default.Free(v) }
func Realloc(v value.V, n int64) value.V          { return Default.Realloc(v, n) }
func IsHeapPointer(v value.V) bool                { return Default.IsHeapPointer(v) }
func IsFloat(v value.V) bool                      { return Default.IsFloat(v) }
func IsString(v value.V) bool                     { return Default.IsString(v) }
func IsOk(v value.V) bool                         { return Default.IsOk(v) }
func IsErr(v value.V) bool                        { return Default.IsErr(v) }
func IsNyObject(v value.V) bool                   { return Default.IsNyObject(v) }
func HeapSize(v value.V) int64                    { return Default.HeapSize(v) }
func Load8(a value.V, i int64) int64              { return Default.Load8(a, i) }
func Load16(a value.V, i int64) int64             { return Default.Load16(a, i) }
func Load32(a value.V, i int64) int64             { return Default.Load32(a, i) }
func Load64(a value.V, i int64) int64             { return Default.Load64(a, i) }
func Store8(a value.V, i int64, v int64)          { Default.Store8(a, i, v) }
func Store16(a value.V, i int64, v int64)         { Default.Store16(a, i, v) }
func Store32(a value.V, i int64, v int64)         { Default.Store32(a, i, v) }
func Store64(a value.V, i int64, v int64)         { Default.Store64(a, i, v) }
func MemCpy(dst, src value.V, n int64)            { Default.MemCpy(dst, src, n) }
func MemSet(dst value.V, c, n int64)              { Default.MemSet(dst, c, n) }
func MemCmp(a, b value.V, n int64) int64          { return Default.MemCmp(a, b, n) }
func CheckOOB(a value.V, idx int64, sz int) bool  { return Default.CheckOOB(a, idx, sz) }
