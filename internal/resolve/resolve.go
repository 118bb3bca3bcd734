// Package resolve implements Nytrix's call-target name resolution as data
// instead of a hand-written cascade of loops: a fixed, ordered list of
// Strategy values, each trying one lookup rule and handing off to the
// next on a miss. This mirrors lookup_fun/lookup_use_module_fun/
// resolve_overload in the original compiler's syms.c, restructured per
// the "resolver strategies are data" design note so a new lookup rule is
// a new Strategy value, not a new branch threaded through existing ones.
package resolve

import (
	"strconv"
	"strings"

	"github.com/nytrix-lang/nytrix/internal/symtab"
)

// Strategy tries one way of turning an unqualified (or partially
// qualified) call-site name into a symbol table entry.
type Strategy interface {
	Resolve(t *symtab.Table, name string, argc int) (*symtab.FunSig, bool)
}

// Chain is the fixed, priority-ordered list of strategies consulted by
// Resolve. Declared as a variable (not inlined into Resolve) so a test or
// an alternate front end can substitute its own order.
var Chain = []Strategy{
	Local{},
	CurrentModule{},
	ImportAlias{},
	StdlibPrefix{},
	UseModule{},
	SuffixScan{},
}

// Resolve runs the strategy chain in order, returning the first hit.
func Resolve(t *symtab.Table, name string, argc int) (*symtab.FunSig, bool) {
	for _, s := range Chain {
		if sig, ok := s.Resolve(t, name, argc); ok {
			return sig, true
		}
	}
	return nil, false
}

// Local matches a name bound as a lexical local (a closure or parameter
// stored in a variable, called indirectly) — codegen should treat this as
// "not a static call target" and fall through to emitting an indirect
// call, so Local never returns a FunSig; its job is only to short-circuit
// the chain so a local binding never gets mistaken for a module function
// of the same name.
type Local struct{}

func (Local) Resolve(t *symtab.Table, name string, argc int) (*symtab.FunSig, bool) {
	if strings.Contains(name, ".") {
		return nil, false
	}
	if t.IsLocal(name) {
		return nil, true // handled: stop the chain, codegen emits an indirect call
	}
	return nil, false
}

// CurrentModule tries "<current module>.<name>" first, matching the
// original's "namespaced lookup if name is not qualified" step.
type CurrentModule struct{}

func (CurrentModule) Resolve(t *symtab.Table, name string, argc int) (*symtab.FunSig, bool) {
	if t.CurrentModule == "" || strings.Contains(name, ".") {
		return nil, false
	}
	return scoreAndFind(t, t.CurrentModule+"."+name, argc)
}

// ImportAlias rewrites a name through `use X as Y` and recurses once the
// alias expands to a full module path.
type ImportAlias struct{}

func (ImportAlias) Resolve(t *symtab.Table, name string, argc int) (*symtab.FunSig, bool) {
	dot := strings.IndexByte(name, '.')
	prefix := name
	rest := ""
	if dot >= 0 {
		prefix, rest = name[:dot], name[dot:]
	}
	full, ok := t.ResolveImportAlias(prefix)
	if !ok || full == prefix {
		return nil, false
	}
	return Resolve(t, full+rest, argc)
}

// StdlibPrefix tries each hard-coded stdlib module prefix in turn, the
// same fallback list lookup_fun consults for an unqualified name.
type StdlibPrefix struct{}

func (StdlibPrefix) Resolve(t *symtab.Table, name string, argc int) (*symtab.FunSig, bool) {
	if strings.Contains(name, ".") {
		return nil, false
	}
	for _, prefix := range symtab.StdlibFallbackPrefixes {
		if prefix == t.CurrentModule {
			continue
		}
		if sig, ok := scoreAndFind(t, prefix+"."+name, argc); ok {
			return sig, true
		}
	}
	return nil, false
}

// UseModule tries "<used module>.<name>" for every bare `use module`
// directive in scope.
type UseModule struct{}

func (UseModule) Resolve(t *symtab.Table, name string, argc int) (*symtab.FunSig, bool) {
	if name == "" {
		return nil, false
	}
	for _, mod := range t.UseModules {
		if sig, ok := scoreAndFind(t, mod+"."+name, argc); ok {
			return sig, true
		}
	}
	return nil, false
}

// SuffixScan is the last resort: an exact match on the full name, or (for
// an unqualified name) any registered signature whose name ends in
// ".<name>" provided its module prefix is a used module — matching the
// original's final linear scan with a use-module guard.
type SuffixScan struct{}

func (SuffixScan) Resolve(t *symtab.Table, name string, argc int) (*symtab.FunSig, bool) {
	if sig, ok := scoreAndFind(t, name, argc); ok {
		return sig, true
	}
	if strings.Contains(name, ".") {
		return nil, false
	}
	suffix := "." + name
	for i := len(t.FunSigs) - 1; i >= 0; i-- {
		sigName := t.FunSigs[i].Name
		if !strings.HasSuffix(sigName, suffix) {
			continue
		}
		modPrefix := sigName[:len(sigName)-len(suffix)]
		for _, um := range t.UseModules {
			if um == modPrefix {
				return &t.FunSigs[i], true
			}
		}
	}
	return nil, false
}

// scoreAndFind picks the best-scoring overload among every FunSig whose
// name matches exactly, per the arity-scoring rule: an exact-arity match
// scores 100, a variadic under-application of a fixed parameter list
// scores 80, and a variadic signature scores 60 plus its fixed arity
// (so among several variadics, the one with more required parameters
// wins). Ties keep the earliest (most specific) declaration.
func scoreAndFind(t *symtab.Table, name string, argc int) (*symtab.FunSig, bool) {
	var best *symtab.FunSig
	bestScore := -1
	for i := range t.FunSigs {
		sig := &t.FunSigs[i]
		if sig.Name != name {
			continue
		}
		score, ok := scoreOverload(sig, argc)
		if !ok {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = sig
		}
	}
	return best, best != nil
}

func scoreOverload(sig *symtab.FunSig, argc int) (int, bool) {
	switch {
	case !sig.IsVariadic && sig.Arity == argc:
		return 100, true
	case !sig.IsVariadic && argc < sig.Arity:
		return 80, true
	case sig.IsVariadic && argc >= sig.Arity:
		return 60 + sig.Arity, true
	default:
		return 0, false
	}
}

// RuntimeCallHelper returns the "__callN" builtin name for a given
// argument count, the synthetic target expr codegen falls back to when no
// statically resolvable signature exists, per gencall.c.
func RuntimeCallHelper(argc int) string {
	return "__call" + strconv.Itoa(argc)
}
