package ops

import (
	"github.com/nytrix-lang/nytrix/internal/memory"
	"github.com/nytrix-lang/nytrix/internal/value"
)

// Eq implements __eq: structural equality across the tagged-int, boxed
// float, string, and pointer-identity cases.
func Eq(h *memory.Heap, a, b value.V) value.V {
	switch {
	case mixedFloat(h, a, b):
		return FloatEq(h, a, b)
	case h.IsString(a) && h.IsString(b):
		sa, _ := h.GoString(a)
		sb, _ := h.GoString(b)
		return value.Bool(sa == sb)
	default:
		return value.Bool(a == b)
	}
}

func Ne(h *memory.Heap, a, b value.V) value.V {
	return value.Bool(!Eq(h, a, b).IsTrue())
}

func cmpInts(a, b value.V) int {
	x, y := a.Untag(), b.Untag()
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// Lt/Le/Gt/Ge implement __lt/__le/__gt/__ge: numeric comparison promoting
// to float when either side is boxed, string comparison is lexicographic
// byte order, anything else compares the Untag'd words as signed
// integers (never traps).
func Lt(h *memory.Heap, a, b value.V) value.V {
	switch {
	case mixedFloat(h, a, b):
		return FloatLt(h, a, b)
	case h.IsString(a) && h.IsString(b):
		sa, _ := h.GoString(a)
		sb, _ := h.GoString(b)
		return value.Bool(sa < sb)
	default:
		return value.Bool(cmpInts(a, b) < 0)
	}
}

func Gt(h *memory.Heap, a, b value.V) value.V {
	switch {
	case mixedFloat(h, a, b):
		return FloatGt(h, a, b)
	case h.IsString(a) && h.IsString(b):
		sa, _ := h.GoString(a)
		sb, _ := h.GoString(b)
		return value.Bool(sa > sb)
	default:
		return value.Bool(cmpInts(a, b) > 0)
	}
}

func Le(h *memory.Heap, a, b value.V) value.V {
	return value.Bool(!Gt(h, a, b).IsTrue())
}

func Ge(h *memory.Heap, a, b value.V) value.V {
	return value.Bool(!Lt(h, a, b).IsTrue())
}
