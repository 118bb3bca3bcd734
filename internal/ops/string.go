package ops

import (
	"strconv"

	"github.com/nytrix-lang/nytrix/internal/memory"
	"github.com/nytrix-lang/nytrix/internal/value"
)

// ToString implements __to_str: every runtime value has a rendering, even
// a raw pointer that matches none of the recognized shapes.
func ToString(h *memory.Heap, v value.V) value.V {
	return h.NewString(render(h, v))
}

func render(h *memory.Heap, v value.V) string {
	switch {
	case v == value.None:
		return "none"
	case v == value.True:
		return "true"
	case v == value.False:
		return "false"
	case v.IsTaggedInt():
		return strconv.FormatInt(v.Untag(), 10)
	case value.IsTaggedFn(v):
		return "<function>"
	case h.IsString(v):
		s, _ := h.GoString(v)
		return s
	case h.IsFloat(v):
		return strconv.FormatFloat(UnboxFloat(h, v), 'g', -1, 64)
	case h.IsNyObject(v):
		return "<object>"
	default:
		return "<ptr>"
	}
}

// StrConcat implements __str_concat: each side renders through the same
// rules as ToString, then the two renderings are joined.
func StrConcat(h *memory.Heap, a, b value.V) value.V {
	return h.NewString(render(h, a) + render(h, b))
}
