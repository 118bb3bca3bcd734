package codegen

import (
	"tinygo.org/x/go-llvm"

	"github.com/nytrix-lang/nytrix/internal/diag"
	"github.com/nytrix-lang/nytrix/internal/nyast"
	"github.com/nytrix-lang/nytrix/internal/resolve"
	"github.com/nytrix-lang/nytrix/internal/symtab"
	"github.com/nytrix-lang/nytrix/internal/value"
)

// calleeName extracts a statically resolvable name from a call target, or
// "" if the callee is some other expression (e.g. a parenthesized
// lambda) that can only be called indirectly.
func calleeName(e nyast.Expr) string {
	if id, ok := e.(*nyast.Ident); ok {
		return id.Name
	}
	return ""
}

func (c *Context) call(n *nyast.Call) llvm.Value {
	args := make([]llvm.Value, len(n.Args))
	for i, a := range n.Args {
		args[i] = c.Expr(a.Val)
	}

	if name := calleeName(n.Callee); name != "" {
		if sig, ok := resolve.Resolve(c.Table, name, len(args)); ok {
			if sig != nil {
				return c.directCall(sig.Name, args)
			}
			// sig == nil, ok == true: resolve.Local matched — callee is a
			// local closure/function value, fall through to indirect call.
		} else {
			c.Errorf(diag.StageCodegen, diag.CodeUndefinedSymbol, 0, 0, "undefined symbol '%s'", name)
			return c.constI64(int64(value.None))
		}
	}

	callee := c.Expr(n.Callee)
	return c.indirectCall(callee, args)
}

// memTypePrefixes is the typed-receiver cascade a method call `t.m(args)`
// walks before falling back to the unqualified name: since Ny values carry
// their type at runtime rather than at compile time, `t.push(x)` is only
// statically resolvable by trying each builtin container's `push` in turn
// and taking the first one the symbol table actually defines.
var memTypePrefixes = []string{
	"dict", "list", "str", "set", "bytes", "queue", "heap", "bigint",
}

func (c *Context) memcall(n *nyast.MemCall) llvm.Value {
	// `mod.m(args)` where mod is a `use ... as mod` alias resolves straight
	// to the qualified module function; it is never a method call, so the
	// receiver is never evaluated as a value.
	if alias, ok := calleeAlias(c.Table, n.Target); ok {
		qualified := alias + "." + n.Name
		callArgs := make([]llvm.Value, len(n.Args))
		for i, a := range n.Args {
			callArgs[i] = c.Expr(a.Val)
		}
		if sig, ok := resolve.Resolve(c.Table, qualified, len(callArgs)); ok && sig != nil {
			return c.directCall(sig.Name, callArgs)
		}
	}

	target := c.Expr(n.Target)
	args := make([]llvm.Value, len(n.Args)+1)
	args[0] = target
	for i, a := range n.Args {
		args[i+1] = c.Expr(a.Val)
	}

	for _, prefix := range memTypePrefixes {
		candidate := prefix + "_" + n.Name
		if sig, ok := resolve.Resolve(c.Table, candidate, len(args)); ok && sig != nil {
			return c.directCall(sig.Name, args)
		}
	}

	if sig, ok := resolve.Resolve(c.Table, n.Name, len(args)); ok && sig != nil {
		return c.directCall(sig.Name, args)
	}
	return c.indirectCall(c.ident(&nyast.Ident{Name: n.Name}), args)
}

// calleeAlias reports whether e is a bare identifier naming a `use ... as`
// import alias, so memcall can tell a module-qualified call (`coll.new()`)
// apart from a method call on a value bound to a local of the same name.
func calleeAlias(t *symtab.Table, e nyast.Expr) (string, bool) {
	id, ok := e.(*nyast.Ident)
	if !ok || t.IsLocal(id.Name) {
		return "", false
	}
	if _, ok := t.ResolveImportAlias(id.Name); ok {
		return id.Name, true
	}
	return "", false
}

func (c *Context) directCall(name string, args []llvm.Value) llvm.Value {
	fn := c.Module.NamedFunction(name)
	if fn.IsNil() {
		c.Errorf(diag.StageCodegen, diag.CodeUndefinedSymbol, 0, 0, "undefined symbol '%s'", name)
		return c.constI64(int64(value.None))
	}
	return c.Builder.CreateCall(fn.GlobalValueType(), fn, args, "")
}

// indirectCall dispatches through the __callN runtime trampoline family,
// the fallback path gencall.c takes when no statically resolvable
// signature exists: the callee may be a native (dlsym'd) pointer, a
// tag-105 closure, or a plain emitted function value, and internal/ffi's
// Call (which __callN wraps at runtime) tells them apart.
func (c *Context) indirectCall(callee llvm.Value, args []llvm.Value) llvm.Value {
	n := len(args)
	if n > maxCallArity {
		c.Errorf(diag.StageCodegen, diag.CodeMissingCallHelper, 0, 0,
			"runtime supports function calls up to %d arguments", maxCallArity)
		return c.constI64(int64(value.None))
	}
	helper := resolve.RuntimeCallHelper(n)
	fn := c.Module.NamedFunction(helper)
	if fn.IsNil() {
		c.Errorf(diag.StageCodegen, diag.CodeMissingCallHelper, 0, 0, "missing runtime call helper '%s'", helper)
		return c.constI64(int64(value.None))
	}
	callArgs := append([]llvm.Value{callee}, args...)
	return c.Builder.CreateCall(fn.GlobalValueType(), fn, callArgs, "")
}
