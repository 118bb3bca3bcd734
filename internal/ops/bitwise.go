package ops

import "github.com/nytrix-lang/nytrix/internal/value"

// And/Or/Xor/Shl/Shr/Not implement __and/__or/__xor/__shl/__shr/__not over
// the untagged integer domain. Shift counts are masked to 63 bits so an
// out-of-range shift amount is well-defined instead of undefined behavior.
func And(a, b value.V) value.V { return value.Tag(a.Untag() & b.Untag()) }
func Or(a, b value.V) value.V  { return value.Tag(a.Untag() | b.Untag()) }
func Xor(a, b value.V) value.V { return value.Tag(a.Untag() ^ b.Untag()) }

func Shl(a, b value.V) value.V {
	n := uint(b.Untag()) & 63
	return value.Tag(a.Untag() << n)
}

func Shr(a, b value.V) value.V {
	n := uint(b.Untag()) & 63
	return value.Tag(a.Untag() >> n)
}

func Not(a value.V) value.V { return value.Tag(^a.Untag()) }
