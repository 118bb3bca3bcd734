// Package fastpath decides when a binary arithmetic operator on two
// operands known (or suspected) to be tagged integers can be lowered as
// inline untag/op/retag LLVM instructions instead of a call into
// internal/ops, with a PHI-merged fallback for the case either operand
// turns out not to be a tagged integer at runtime. It also folds constant
// arithmetic at compile time, including the two's-complement wraparound
// and INT64_MIN/-1 edge cases the runtime operators handle by never
// trapping.
package fastpath

import (
	"math"

	"github.com/nytrix-lang/nytrix/internal/config"
)

// Op identifies a binary arithmetic operator eligible for fast-path
// specialization.
type Op int

const (
	Add Op = iota
	Sub
	Mul
	Div
	Mod
)

// Policy decides, given the current configuration, whether an operator
// qualifies for inline specialization at all. Both toggles default on;
// NYTRIX_FAST_INT_BINOPS disables the inline fast path entirely,
// NYTRIX_STD_BUILTIN_OPS disables it even when operands are statically
// known to be tagged ints, forcing every arithmetic op through the
// internal/ops runtime helpers (useful for isolating a codegen bug to the
// fast path versus the runtime implementation).
type Policy struct {
	cfg *config.Config
}

func NewPolicy(cfg *config.Config) *Policy { return &Policy{cfg: cfg} }

// ShouldInline reports whether op on an operand pair that is *statically
// suspected* (not proven) to be tagged-int should get the inline
// untag/op/retag + runtime-fallback PHI treatment, versus always calling
// the runtime helper.
func (p *Policy) ShouldInline(_ Op) bool {
	if p.cfg == nil {
		return true
	}
	return p.cfg.FastIntBinops && p.cfg.StdBuiltinOps
}

// FoldConstant evaluates op on two known-constant tagged-integer operands
// at compile time, returning the raw (untagged) result. Division and
// modulo by zero return 0 rather than being treated as a compile error,
// matching the runtime's never-trap contract so constant folding never
// changes observable behavior relative to deferring to codegen.
func FoldConstant(op Op, a, b int64) int64 {
	switch op {
	case Add:
		return a + b
	case Sub:
		return a - b
	case Mul:
		return a * b
	case Div:
		if b == 0 {
			return 0
		}
		if a == math.MinInt64 && b == -1 {
			return a
		}
		return a / b
	case Mod:
		if b == 0 {
			return 0
		}
		if a == math.MinInt64 && b == -1 {
			return 0
		}
		return a % b
	default:
		return 0
	}
}

// Identity describes an algebraic simplification opportunity: when the
// right-hand operand of op is the constant `with`, the whole expression
// reduces to just the left operand (identitySimplifiesToLeft) or to the
// constant `zero` regardless of the left operand's value.
type Identity struct {
	SimplifiesToLeft bool
	IsZero           bool
}

// IdentityFor reports an algebraic identity applicable when the
// right-hand operand is the compile-time constant rhs, e.g. `x + 0`,
// `x * 1`, `x - 0`, and `x * 0`. Returns ok=false when no identity
// applies and codegen should emit the full operation.
func IdentityFor(op Op, rhs int64) (Identity, bool) {
	switch op {
	case Add, Sub:
		if rhs == 0 {
			return Identity{SimplifiesToLeft: true}, true
		}
	case Mul:
		switch rhs {
		case 1:
			return Identity{SimplifiesToLeft: true}, true
		case 0:
			return Identity{IsZero: true}, true
		}
	case Div:
		if rhs == 1 {
			return Identity{SimplifiesToLeft: true}, true
		}
	}
	return Identity{}, false
}
