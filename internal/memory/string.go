package memory

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/nytrix-lang/nytrix/internal/value"
)

// NewString allocates a mutable Nytrix string object (tag 241): payload
// holds the bytes followed by a NUL terminator, header length is the byte
// count tagged as an integer (shape shared with every other tagged int).
func (h *Heap) NewString(s string) value.V {
	n := int64(len(s))
	v := h.Alloc(n + 1)
	if v == 0 {
		return 0
	}
	b := h.lookup(uintptr(v))
	copy(b.base[value.HeaderSize:value.HeaderSize+n], s)
	b.base[value.HeaderSize+n] = 0
	lenOff := value.HeaderSize + value.OffLength
	tagOff := value.HeaderSize + value.OffTag
	binary.LittleEndian.PutUint64(b.base[lenOff:lenOff+8], uint64(n<<1|1))
	binary.LittleEndian.PutUint64(b.base[tagOff:tagOff+8], uint64(value.TagStr))
	return v
}

// NewConstString is identical but stamps TagStrConst, mirroring how the
// original runtime marks compile-time string literals immutable.
func (h *Heap) NewConstString(s string) value.V {
	v := h.NewString(s)
	if v == 0 {
		return 0
	}
	b := h.lookup(uintptr(v))
	tagOff := value.HeaderSize + value.OffTag
	binary.LittleEndian.PutUint64(b.base[tagOff:tagOff+8], uint64(value.TagStrConst))
	return v
}

// GoString reads a Nytrix string object back into a Go string. Returns
// ("", false) if v is not a valid string object.
func (h *Heap) GoString(v value.V) (string, bool) {
	if !h.IsString(v) {
		return "", false
	}
	lenRaw, _ := h.headerLen(uintptr(v))
	n := lenRaw >> 1
	b := h.bytesAt(uintptr(v), 0, int(n))
	if b == nil {
		return "", false
	}
	return string(b), true
}

func NewString(s string) value.V      { return Default.NewString(s) }
func NewConstString(s string) value.V { return Default.NewConstString(s) }
func GoString(v value.V) (string, bool) { return Default.GoString(v) }

// DumpStats prints the NYTRIX_MEM_STATS shutdown summary to stderr,
// matching rt/memory.c's end-of-run report (Allocated/Freed/Leaked).
func (h *Heap) DumpStats() {
	s := h.Stats()
	leaked := int64(s.Allocated) - int64(s.Freed)
	fmt.Fprintf(os.Stderr, "nytrix: mem stats: allocated=%d freed=%d leaked=%d pool_hits=%d\n",
		s.Allocated, s.Freed, leaked, s.PoolHits)
}
