package ops

import (
	"github.com/nytrix-lang/nytrix/internal/memory"
	"github.com/nytrix-lang/nytrix/internal/value"
)

// ResultOk/ResultErr implement __result_ok/__result_err: a one-slot heap
// object (tag 201 or 202) wrapping the payload value.
func ResultOk(h *memory.Heap, payload value.V) value.V {
	v := h.Alloc(8)
	if v == 0 {
		return 0
	}
	h.Store64(v, 0, int64(payload))
	h.Store64(v, int64(value.OffTag), value.TagOk)
	return v
}

func ResultErr(h *memory.Heap, payload value.V) value.V {
	v := h.Alloc(8)
	if v == 0 {
		return 0
	}
	h.Store64(v, 0, int64(payload))
	h.Store64(v, int64(value.OffTag), value.TagErr)
	return v
}

// Unwrap implements __unwrap: returns the wrapped payload for Ok or Err,
// or none(0) if v is neither.
func Unwrap(h *memory.Heap, v value.V) value.V {
	if !h.IsOk(v) && !h.IsErr(v) {
		return value.None
	}
	return value.V(h.Load64(v, 0))
}
