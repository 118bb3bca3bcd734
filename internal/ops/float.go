// Package ops implements the primitive runtime operators: arithmetic,
// comparison, bitwise, string conversion/concatenation, boxed floats, the
// Result type, and the small grab-bag of process primitives (rand, errno,
// argv) that the original runtime exposes as C-ABI symbols. None of these
// ever trap — every operator returns a defined neutral value instead of
// raising on a bad operand, per the "operators never trap" design rule.
package ops

import (
	"github.com/nytrix-lang/nytrix/internal/memory"
	"github.com/nytrix-lang/nytrix/internal/value"
)

// BoxFloat allocates a heap float object (tag 221) wrapping f.
func BoxFloat(h *memory.Heap, f float64) value.V {
	v := h.Alloc(8)
	if v == 0 {
		return 0
	}
	h.Store64(v, 0, value.FloatToBits(f))
	// Stamp the tag directly; floats carry no tagged-length word.
	tagAddr := int64(value.OffTag)
	h.Store64(v, tagAddr, value.TagFloat)
	return v
}

// UnboxFloat reads the float payload of a boxed float, or 0 if v isn't one.
func UnboxFloat(h *memory.Heap, v value.V) float64 {
	if !h.IsFloat(v) {
		return 0
	}
	return value.BitsToFloat(h.Load64(v, 0))
}

// FloatFromInt boxes the float conversion of a tagged (or raw) integer.
func FloatFromInt(h *memory.Heap, v value.V) value.V {
	return BoxFloat(h, float64(v.Untag()))
}

// FloatToInt truncates a boxed float back to a tagged integer.
func FloatToInt(h *memory.Heap, v value.V) value.V {
	return value.Tag(int64(UnboxFloat(h, v)))
}

// FloatTrunc truncates the fractional part of a boxed float, returning a
// new boxed float (not an integer).
func FloatTrunc(h *memory.Heap, v value.V) value.V {
	f := UnboxFloat(h, v)
	if f >= 0 {
		return BoxFloat(h, float64(int64(f)))
	}
	return BoxFloat(h, float64(int64(f)))
}

func asFloat(h *memory.Heap, v value.V) (float64, bool) {
	switch {
	case h.IsFloat(v):
		return UnboxFloat(h, v), true
	case v.IsTaggedInt():
		return float64(v.Untag()), true
	default:
		return 0, false
	}
}

// FloatAdd/Sub/Mul/Div operate on (float|int) operands, always returning a
// boxed float, dividing by zero returns +Inf/-Inf/NaN rather than trapping
// (IEEE-754 semantics do this for free).
func FloatAdd(h *memory.Heap, a, b value.V) value.V {
	x, _ := asFloat(h, a)
	y, _ := asFloat(h, b)
	return BoxFloat(h, x+y)
}

func FloatSub(h *memory.Heap, a, b value.V) value.V {
	x, _ := asFloat(h, a)
	y, _ := asFloat(h, b)
	return BoxFloat(h, x-y)
}

func FloatMul(h *memory.Heap, a, b value.V) value.V {
	x, _ := asFloat(h, a)
	y, _ := asFloat(h, b)
	return BoxFloat(h, x*y)
}

func FloatDiv(h *memory.Heap, a, b value.V) value.V {
	x, _ := asFloat(h, a)
	y, _ := asFloat(h, b)
	return BoxFloat(h, x/y)
}

// FloatLt/Gt/Le/Ge/Eq return tagged booleans.
func FloatLt(h *memory.Heap, a, b value.V) value.V {
	x, _ := asFloat(h, a)
	y, _ := asFloat(h, b)
	return value.Bool(x < y)
}

func FloatGt(h *memory.Heap, a, b value.V) value.V {
	x, _ := asFloat(h, a)
	y, _ := asFloat(h, b)
	return value.Bool(x > y)
}

func FloatLe(h *memory.Heap, a, b value.V) value.V {
	x, _ := asFloat(h, a)
	y, _ := asFloat(h, b)
	return value.Bool(x <= y)
}

func FloatGe(h *memory.Heap, a, b value.V) value.V {
	x, _ := asFloat(h, a)
	y, _ := asFloat(h, b)
	return value.Bool(x >= y)
}

func FloatEq(h *memory.Heap, a, b value.V) value.V {
	x, _ := asFloat(h, a)
	y, _ := asFloat(h, b)
	return value.Bool(x == y)
}
