package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/nytrix-lang/nytrix/internal/symtab"
)

func symtabFunSig(name string, arity int, variadic, comptime bool) symtab.FunSig {
	return symtab.FunSig{Name: name, Arity: arity, IsVariadic: variadic, Comptime: comptime}
}

// builtinDef is one runtime ABI symbol: name, fixed arity, and whether
// codegen may evaluate a call to it at comptime. Grounded in the original
// compiler's builtin_defs table (src/code/syms.c) — the Go runtime
// implements every one of these in internal/value, internal/memory,
// internal/ops, internal/ffi, internal/control, and internal/thread.
type builtinDef struct {
	name     string
	arity    int
	comptime bool
}

var builtinDefs = []builtinDef{
	{"__malloc", 1, false}, {"__free", 1, false}, {"__realloc", 2, false},
	{"__memcpy", 3, true}, {"__memset", 3, true}, {"__memcmp", 3, true},
	{"__load8_idx", 2, true}, {"__load16_idx", 2, true}, {"__load32_idx", 2, true}, {"__load64_idx", 2, true},
	{"__store8_idx", 3, true}, {"__store16_idx", 3, true}, {"__store32_idx", 3, true}, {"__store64_idx", 3, true},
	{"__add", 2, true}, {"__sub", 2, true}, {"__mul", 2, true}, {"__div", 2, true}, {"__mod", 2, true},
	{"__and", 2, true}, {"__or", 2, true}, {"__xor", 2, true}, {"__shl", 2, true}, {"__shr", 2, true}, {"__not", 1, true},
	{"__str_concat", 2, true}, {"__to_str", 1, true},
	{"__eq", 2, true}, {"__lt", 2, true}, {"__le", 2, true}, {"__gt", 2, true}, {"__ge", 2, true},
	{"__is_int", 1, true}, {"__is_ptr", 1, true}, {"__is_str", 1, true}, {"__is_flt", 1, true},
	{"__panic", 1, false},
	{"__argc", 0, false}, {"__argv", 1, false}, {"__envp", 0, false}, {"__envc", 0, false},
	{"__errno", 0, false},
	{"__dlopen", 2, false}, {"__dlsym", 2, false}, {"__dlclose", 1, false}, {"__dlerror", 0, false},
	{"__get_panic_val", 0, false}, {"__set_panic_env", 1, false}, {"__clear_panic_env", 0, false}, {"__jmpbuf_size", 0, false},
	{"__thread_spawn", 2, false}, {"__thread_join", 1, false},
	{"__mutex_new", 0, false}, {"__mutex_lock64", 1, false}, {"__mutex_unlock64", 1, false}, {"__mutex_free", 1, false},
	{"__set_args", 3, false},
	{"__flt_from_int", 1, true}, {"__flt_to_int", 1, true}, {"__flt_trunc", 1, true},
	{"__flt_add", 2, true}, {"__flt_sub", 2, true}, {"__flt_mul", 2, true}, {"__flt_div", 2, true},
	{"__flt_lt", 2, true}, {"__flt_gt", 2, true}, {"__flt_le", 2, true}, {"__flt_ge", 2, true}, {"__flt_eq", 2, true},
	{"__flt_box_val", 1, true}, {"__flt_unbox_val", 1, true},
	{"__rand64", 0, false}, {"__srand", 1, false},
	{"__result_ok", 1, true}, {"__result_err", 1, true}, {"__is_ok", 1, true}, {"__is_err", 1, true}, {"__unwrap", 1, true},
}

// maxCallArity is the highest __callN/__callN_void helper arity codegen
// pre-declares (arities 0 through maxCallArity), matching gencall.c's "runtime supports function calls up
// to %d arguments" diagnostic bound.
const maxCallArity = 15

// AddBuiltins declares every runtime ABI symbol as an external function in
// the module, mirroring add_builtins in syms.c: each entry becomes both a
// declared LLVMValueRef and a registered symtab.FunSig so name resolution
// can find it like any other callable.
func AddBuiltins(c *Context) {
	for _, d := range builtinDefs {
		params := make([]llvm.Type, d.arity)
		for i := range params {
			params[i] = c.I64
		}
		fnType := llvm.FunctionType(c.I64, params, false)
		fn := c.Module.NamedFunction(d.name)
		if fn.IsNil() {
			fn = llvm.AddFunction(c.Module, d.name, fnType)
		}
		_ = fn
		c.Table.AddFunSig(symtabFunSig(d.name, d.arity, false, d.comptime))
	}

	for n := 0; n <= maxCallArity; n++ {
		declareCallHelper(c, n, false)
		declareCallHelper(c, n, true)
	}
}

func declareCallHelper(c *Context, n int, void bool) {
	name := fmt.Sprintf("__call%d", n)
	ret := c.I64
	if void {
		name += "_void"
		ret = c.LLVMCtx.VoidType()
	}
	params := make([]llvm.Type, n+1)
	for i := range params {
		params[i] = c.I64
	}
	fnType := llvm.FunctionType(ret, params, false)
	fn := c.Module.NamedFunction(name)
	if fn.IsNil() {
		llvm.AddFunction(c.Module, name, fnType)
	}
	if !void {
		c.Table.AddFunSig(symtabFunSig(name, n+1, false, false))
	}
}
