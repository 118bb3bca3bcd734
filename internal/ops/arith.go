package ops

import (
	"github.com/nytrix-lang/nytrix/internal/memory"
	"github.com/nytrix-lang/nytrix/internal/value"
)

// mixedFloat reports whether either operand is a boxed float, in which
// case arithmetic promotes to floating point the way the original
// runtime's __add/__sub/__mul/__div dispatch does.
func mixedFloat(h *memory.Heap, a, b value.V) bool {
	return h.IsFloat(a) || h.IsFloat(b)
}

// Add implements __add: tagged-int + tagged-int wraps in two's complement
// (Ny ints never trap on overflow); if either side is a float the result
// promotes to a boxed float; any other operand enters the sum through
// Untag, which passes an untagged word through unchanged.
func Add(h *memory.Heap, a, b value.V) value.V {
	if mixedFloat(h, a, b) {
		return FloatAdd(h, a, b)
	}
	return value.Tag(a.Untag() + b.Untag())
}

func Sub(h *memory.Heap, a, b value.V) value.V {
	if mixedFloat(h, a, b) {
		return FloatSub(h, a, b)
	}
	return value.Tag(a.Untag() - b.Untag())
}

func Mul(h *memory.Heap, a, b value.V) value.V {
	if mixedFloat(h, a, b) {
		return FloatMul(h, a, b)
	}
	return value.Tag(a.Untag() * b.Untag())
}

// Div implements __div: integer division by zero returns 0 rather than
// trapping; the smallest tagged int (-2^62) divided by -1 returns -2^62
// unchanged, since the true quotient does not fit in a 63-bit tagged int.
func Div(h *memory.Heap, a, b value.V) value.V {
	if mixedFloat(h, a, b) {
		return FloatDiv(h, a, b)
	}
	x, y := a.Untag(), b.Untag()
	if y == 0 {
		return value.Tag(0)
	}
	if x == -1<<62 && y == -1 {
		return value.Tag(x)
	}
	return value.Tag(x / y)
}

// Mod implements __mod: modulo by zero returns 0, not a trap.
func Mod(h *memory.Heap, a, b value.V) value.V {
	x, y := a.Untag(), b.Untag()
	if y == 0 {
		return value.Tag(0)
	}
	if x == -1<<62 && y == -1 {
		return value.Tag(0)
	}
	return value.Tag(x % y)
}
