// Package memory implements the 64-byte aligned allocator and the
// bounds-checked load/store primitives that back every heap pointer in the
// value encoding. It owns the one real heap generated code ever touches:
// every block is backed by its own anonymous `mmap` region (via
// golang.org/x/sys/unix), tracked in a registry so nothing but an
// explicit Free ever unmaps it, while sentinel magics at the block's
// header and footer give the runtime a way to recognize (and refuse) a
// corrupted or already-freed pointer.
package memory

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/nytrix-lang/nytrix/internal/value"
)

// block is one live allocation. base is the raw block (header + payload +
// footer); it is kept alive in the registry for as long as the block is
// considered allocated, which is what keeps the Go GC from reclaiming the
// backing array out from under a tagged pointer built from its address.
type block struct {
	base []byte
	size uint64 // payload capacity in bytes, as stored in the header
}

// Heap is one allocator instance. Production code uses the package-level
// Default heap; tests may construct their own to keep allocations isolated.
type Heap struct {
	mu    sync.Mutex
	live  map[uintptr]*block
	stats Stats
	asan  bool
	quar  []block // ASAN-mode quarantine, drained only at Close
}

// Stats mirrors the NYTRIX_MEM_STATS summary (rt/memory.c __stats).
type Stats struct {
	Allocated uint64
	Freed     uint64
	PoolHits  uint64
}

// Default is the process-wide heap that generated code's __malloc/__free
// ABI symbols bind to.
var Default = NewHeap()

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{live: make(map[uintptr]*block)}
}

// SetASAN toggles quarantine-on-free behavior (§4.2 failure modes: "under
// address-sanitizer builds the block is deferred in a quarantine and
// drained at shutdown").
func (h *Heap) SetASAN(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.asan = on
}

// Stats returns a snapshot of allocation counters.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// payloadAddr returns the tagged-pointer-free uintptr for a block's
// payload: base address plus the 64-byte header.
func payloadAddr(base []byte) uintptr {
	return uintptr(unsafe.Pointer(&base[0])) + value.HeaderSize
}

// Alloc implements __malloc: round up to a 64-byte multiple (minimum 64),
// allocate header+payload+footer, stamp the sentinels, and return the
// payload address as a tagged-value-compatible heap pointer.
func (h *Heap) Alloc(n int64) value.V {
	if n < 0 {
		return 0
	}
	size := uint64(n)
	if size < 64 {
		size = 64
	}
	size = (size + 63) &^ 63

	total := size + value.HeaderSize + value.FooterSlop
	buf, err := unix.Mmap(-1, 0, int(total), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		// Anonymous mmap only fails under resource exhaustion; the
		// original allocator treats that identically to malloc returning
		// NULL.
		return 0
	}

	binary.LittleEndian.PutUint64(buf[0:8], value.Magic1)
	binary.LittleEndian.PutUint64(buf[8:16], size)
	binary.LittleEndian.PutUint64(buf[16:24], value.Magic2)
	binary.LittleEndian.PutUint64(buf[value.HeaderSize+size:value.HeaderSize+size+8], value.Magic3)

	addr := payloadAddr(buf)

	h.mu.Lock()
	h.live[addr] = &block{base: buf, size: size}
	h.stats.Allocated += total
	h.mu.Unlock()

	return value.V(addr)
}

// lookup returns the block backing a heap pointer, if still live.
func (h *Heap) lookup(addr uintptr) *block {
	h.mu.Lock()
	b := h.live[addr]
	h.mu.Unlock()
	return b
}

// IsHeapPointer implements is_heap_ptr: pointer-shaped, 64-byte aligned,
// and carries intact MAGIC1/MAGIC2 sentinels. Falls back to a registered
// foreign region (module-level constant strings) when the address was
// never handed out by Alloc.
func (h *Heap) IsHeapPointer(v value.V) bool {
	if !v.IsPointer() || uintptr(v)&63 != 0 {
		return false
	}
	b := h.lookup(uintptr(v))
	if b != nil {
		m1 := binary.LittleEndian.Uint64(b.base[0:8])
		m2 := binary.LittleEndian.Uint64(b.base[16:24])
		return m1 == value.Magic1 && m2 == value.Magic2
	}
	m1raw := rawBytesAt(uintptr(v), value.OffMagic1, 8)
	m2raw := rawBytesAt(uintptr(v), value.OffMagic2, 8)
	if m1raw == nil || m2raw == nil {
		return false
	}
	return binary.LittleEndian.Uint64(m1raw) == value.Magic1 && binary.LittleEndian.Uint64(m2raw) == value.Magic2
}

// headerTag reads the type tag at payload-8, falling back to a foreign
// region for addresses this heap never allocated.
func (h *Heap) headerTag(addr uintptr) (int64, bool) {
	b := h.lookup(addr)
	if b != nil {
		off := value.HeaderSize + value.OffTag // == 56, i.e. base+56 == payload-8
		return int64(binary.LittleEndian.Uint64(b.base[off : off+8])), true
	}
	raw := rawBytesAt(addr, value.OffTag, 8)
	if raw == nil {
		return 0, false
	}
	return int64(binary.LittleEndian.Uint64(raw)), true
}

// headerLen reads the tagged length at payload-16, with the same foreign
// fallback as headerTag.
func (h *Heap) headerLen(addr uintptr) (int64, bool) {
	b := h.lookup(addr)
	if b != nil {
		off := value.HeaderSize + value.OffLength
		return int64(binary.LittleEndian.Uint64(b.base[off : off+8])), true
	}
	raw := rawBytesAt(addr, value.OffLength, 8)
	if raw == nil {
		return 0, false
	}
	return int64(binary.LittleEndian.Uint64(raw)), true
}

// IsFloat implements is_v_flt.
func (h *Heap) IsFloat(v value.V) bool {
	if !v.IsPointer() {
		return false
	}
	tag, ok := h.headerTag(uintptr(v))
	return ok && tag == value.TagFloat
}

// IsString implements is_v_str, including the non-negative-length and
// NUL-terminator checks.
func (h *Heap) IsString(v value.V) bool {
	if !v.IsPointer() {
		return false
	}
	tag, ok := h.headerTag(uintptr(v))
	if !ok || (tag != value.TagStr && tag != value.TagStrConst) {
		return false
	}
	lenRaw, ok := h.headerLen(uintptr(v))
	if !ok || lenRaw&1 == 0 || lenRaw < 0 {
		return false
	}
	n := uint64(lenRaw >> 1)
	if n > (1 << 40) {
		return false
	}
	nul := h.bytesAt(uintptr(v), int64(n), 1)
	return nul != nil && nul[0] == 0
}

// IsOk / IsErr implement is_v_ok / is_v_err.
func (h *Heap) IsOk(v value.V) bool {
	tag, ok := h.headerTag(uintptr(v))
	return v.IsPointer() && ok && tag == value.TagOk
}

func (h *Heap) IsErr(v value.V) bool {
	tag, ok := h.headerTag(uintptr(v))
	return v.IsPointer() && ok && tag == value.TagErr
}

// IsNyObject implements is_ny_obj: a live heap pointer whose tag falls in
// the generic Nytrix object range, or one of the Result tags.
func (h *Heap) IsNyObject(v value.V) bool {
	if !h.IsHeapPointer(v) {
		return false
	}
	tag, ok := h.headerTag(uintptr(v))
	if !ok {
		return false
	}
	if tag&1 != 0 {
		norm := tag >> 1
		return norm >= value.TagObjLo && norm <= value.TagObjHi
	}
	return (tag >= value.TagObjLo && tag <= value.TagObjHi) || (tag >= 200 && tag <= 250)
}

// HeapSize returns the payload capacity in bytes, or -1 if v is not a live
// heap pointer (mirrors __get_heap_size).
func (h *Heap) HeapSize(v value.V) int64 {
	b := h.lookup(uintptr(v))
	if b == nil {
		return -1
	}
	return int64(b.size)
}

// Free implements __free: verify the pointer, clear its sentinels so a
// repeat free is a no-op, and release (or quarantine) the underlying
// block.
func (h *Heap) Free(v value.V) value.V {
	if !h.IsHeapPointer(v) {
		return 0
	}
	h.mu.Lock()
	b, ok := h.live[uintptr(v)]
	if !ok {
		h.mu.Unlock()
		return 0
	}
	delete(h.live, uintptr(v))
	h.stats.Freed += b.size + value.HeaderSize + value.FooterSlop
	// Clear the header sentinels in place so any stale copy of this
	// pointer is immediately recognized as no longer a heap pointer.
	binary.LittleEndian.PutUint64(b.base[0:8], 0)
	binary.LittleEndian.PutUint64(b.base[16:24], 0)
	if h.asan {
		h.quar = append(h.quar, *b)
	} else {
		_ = unix.Munmap(b.base)
	}
	h.mu.Unlock()
	return 0
}

// Close drains the ASAN-mode quarantine, unmapping every block Free
// held onto instead of handing it back to the OS immediately.
func (h *Heap) Close() {
	h.mu.Lock()
	for _, b := range h.quar {
		_ = unix.Munmap(b.base)
	}
	h.quar = nil
	h.mu.Unlock()
}

// Realloc implements __realloc.
func (h *Heap) Realloc(v value.V, newSize int64) value.V {
	if newSize < 0 {
		newSize = 0
	}
	if !h.IsHeapPointer(v) {
		return h.Alloc(newSize)
	}
	b := h.lookup(uintptr(v))
	if uint64(newSize) <= b.size {
		return v
	}
	res := h.Alloc(newSize)
	if res == 0 {
		return 0
	}
	nb := h.lookup(uintptr(res))
	copy(nb.base[value.HeaderSize:value.HeaderSize+b.size], b.base[value.HeaderSize:value.HeaderSize+b.size])
	lenOff := value.HeaderSize + value.OffLength
	tagOff := value.HeaderSize + value.OffTag
	copy(nb.base[lenOff:lenOff+8], b.base[lenOff:lenOff+8])
	copy(nb.base[tagOff:tagOff+8], b.base[tagOff:tagOff+8])
	h.Free(v)
	return res
}

// bytesAt returns a byte slice view into a live block at a header-relative
// or payload-relative offset, or nil if out of range. Negative offsets
// down to -64 reach into the header window (used for metadata and for
// constant strings, which carry no heap magics).
func (h *Heap) bytesAt(addr uintptr, offset int64, n int) []byte {
	b := h.lookup(addr)
	if b == nil {
		// Constant strings and foreign buffers are not registered in the
		// live map; allow header-relative reads through raw pointer math
		// so emitted code can still read their length/tag words.
		return rawBytesAt(addr, offset, n)
	}
	blockOff := int64(value.HeaderSize) + offset
	if blockOff < 0 || blockOff+int64(n) > int64(len(b.base)) {
		return nil
	}
	return b.base[blockOff : blockOff+int64(n)]
}

// CheckOOB mirrors __check_oob: header-relative (negative) offsets are
// allowed within the 64-byte header window; positive offsets must lie
// within the recorded payload capacity.
func (h *Heap) CheckOOB(addr value.V, idx int64, accessSize int) bool {
	if idx < 0 {
		if idx < -64 {
			return false
		}
		return rawReadable(uintptr(addr), idx, accessSize)
	}
	if !h.IsHeapPointer(addr) {
		return true
	}
	sz := h.HeapSize(addr)
	return idx+int64(accessSize) <= sz
}

// atomic counter used only to make Stats.PoolHits meaningful when a
// future pooling allocator is layered on top; currently always zero.
var _ = atomic.AddUint64
