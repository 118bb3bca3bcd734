package codegen

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"tinygo.org/x/go-llvm"

	"github.com/nytrix-lang/nytrix/internal/config"
	"github.com/nytrix-lang/nytrix/internal/control"
	"github.com/nytrix-lang/nytrix/internal/diag"
	"github.com/nytrix-lang/nytrix/internal/ffi"
	"github.com/nytrix-lang/nytrix/internal/memory"
	"github.com/nytrix-lang/nytrix/internal/nyast"
	"github.com/nytrix-lang/nytrix/internal/ops"
	"github.com/nytrix-lang/nytrix/internal/thread"
	"github.com/nytrix-lang/nytrix/internal/value"
)

// Driver owns the one Context a compilation produces plus the MCJIT
// engine that finally runs it: Context.New only builds IR, Driver is what
// binds every declared builtin to its Go implementation (through
// purego.NewCallback, keeping the whole runtime cgo-free) and hands
// control to the compiled program.
type Driver struct {
	*Context
	engine llvm.ExecutionEngine
}

// NewDriver creates a codegen context and its backing JIT engine for one
// compilation unit named moduleName.
func NewDriver(moduleName string, cfg *config.Config, sink *diag.Sink) (*Driver, error) {
	c := New(moduleName, cfg, sink)
	llvm.InitializeNativeTarget()
	llvm.InitializeNativeAsmPrinter()
	engine, err := llvm.NewMCJITCompiler(c.Module, llvm.NewMCJITCompilerOptions())
	if err != nil {
		return nil, fmt.Errorf("nytrix: failed to create JIT engine: %w", err)
	}
	d := &Driver{Context: c, engine: engine}
	d.bindBuiltins()
	return d, nil
}

// CompileModule lowers every top-level statement of prog into a generated
// entry function, __script_top, the single symbol the driver invokes to
// run the compiled program (mirroring the original compiler's synthesized
// top-level main).
func (d *Driver) CompileModule(prog *nyast.Module) {
	fnType := llvm.FunctionType(d.I64, nil, false)
	fn := llvm.AddFunction(d.Module, "__script_top", fnType)
	d.fn = fn
	d.locals = make(map[string]llvm.Value)
	entry := llvm.AddBasicBlock(fn, "entry")
	d.Builder.SetInsertPointAtEnd(entry)
	d.terminated = false
	d.labels = make(map[string]llvm.BasicBlock)
	for _, st := range prog.Body {
		if lbl, ok := st.(*nyast.LabelStmt); ok {
			d.labels[lbl.Name] = llvm.AddBasicBlock(fn, lbl.Name)
		}
	}

	d.Table.CurrentModule = prog.Name
	for _, st := range prog.Body {
		d.Stmt(st)
	}
	if !d.terminated {
		d.Builder.CreateRet(d.constI64(int64(value.None)))
	}
}

// Run registers every constant string literal's backing bytes as a
// foreign memory region (so __is_str/__load64_idx treat them exactly like
// a heap-allocated string) and then calls __script_top inside the same
// panic/defer catch boundary internal/control.Thread.Catch gives any
// other goroutine, so an uncaught Ny-level panic prints a trace and exits
// cleanly instead of crashing the host process.
func (d *Driver) Run() value.V {
	d.registerConstStrings()
	id, t := control.Register()
	defer control.Unregister(id)

	fn := d.Module.NamedFunction("__script_top")
	return catchBoundary(t, func() value.V {
		rv := d.engine.RunFunction(fn, nil)
		return value.V(int64(rv.Int(true)))
	})
}

// registerConstStrings walks every global this context's constString
// helper created, resolves its JIT-mapped address, and registers that
// address (plus the header+payload bytes already baked into the global's
// constant initializer) with internal/memory as a foreign region.
func (d *Driver) registerConstStrings() {
	for name, lit := range d.Table.StringIntern {
		gname := fmt.Sprintf("__strlit.%d", lit)
		g := d.Module.NamedGlobal(gname)
		if g.IsNil() {
			continue
		}
		ptr := d.engine.PointerToGlobal(g)
		if ptr == nil {
			continue
		}
		buf := headerAndPayload(name)
		base := uintptr(ptr)
		memory.RegisterForeign(base+value.HeaderSize, buf)
	}
}

// headerAndPayload builds the exact byte layout constString bakes into
// the module: a 64-byte header (MAGIC1/capacity/MAGIC2/reserved/tagged
// length/TagStrConst) followed by the literal's bytes and a NUL.
func headerAndPayload(s string) []byte {
	n := int64(len(s))
	buf := make([]byte, value.HeaderSize+n+1)
	binary.LittleEndian.PutUint64(buf[0:8], value.Magic1)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(n+1))
	binary.LittleEndian.PutUint64(buf[16:24], value.Magic2)
	lenOff := value.HeaderSize + value.OffLength
	tagOff := value.HeaderSize + value.OffTag
	binary.LittleEndian.PutUint64(buf[lenOff:lenOff+8], uint64(n<<1|1))
	binary.LittleEndian.PutUint64(buf[tagOff:tagOff+8], uint64(value.TagStrConst))
	copy(buf[value.HeaderSize:], s)
	return buf
}

// handle registries for opaque values the ABI passes around as plain i64
// but that don't fit the tagged-value encoding (thread join handles).
var (
	handleMu   sync.Mutex
	handles    = make(map[int64]*thread.Handle)
	nextHandle int64
)

func storeHandle(h *thread.Handle) int64 {
	handleMu.Lock()
	defer handleMu.Unlock()
	nextHandle++
	id := nextHandle
	handles[id] = h
	return id
}

func loadHandle(id int64) *thread.Handle {
	handleMu.Lock()
	defer handleMu.Unlock()
	return handles[id]
}

// bindBuiltins maps every builtinDef (and the dlopen/thread/mutex/panic
// symbols that aren't pure comptime-foldable math) to a Go closure over
// internal/value, internal/memory, internal/ops, internal/ffi,
// internal/control and internal/thread, turns each into a C-callable
// pointer via purego.NewCallback, and installs it as that LLVM function's
// JIT implementation. This is the seam between generated code and the Go
// runtime it calls into.
func (d *Driver) bindBuiltins() {
	h := memory.Default
	mainID, mainThread := control.Register()
	_ = mainID

	bindings := map[string]interface{}{
		"__malloc":  func(n int64) int64 { return int64(h.Alloc(n)) },
		"__free":    func(p int64) int64 { return int64(h.Free(value.V(p))) },
		"__realloc": func(p, n int64) int64 { return int64(h.Realloc(value.V(p), n)) },

		"__memcpy": func(dst, src, n int64) int64 { h.MemCpy(value.V(dst), value.V(src), n); return 0 },
		"__memset": func(dst, c, n int64) int64 { h.MemSet(value.V(dst), c, n); return 0 },
		"__memcmp": func(a, b, n int64) int64 { return h.MemCmp(value.V(a), value.V(b), n) },

		"__load8_idx":  func(a, i int64) int64 { return h.Load8(value.V(a), i) },
		"__load16_idx": func(a, i int64) int64 { return h.Load16(value.V(a), i) },
		"__load32_idx": func(a, i int64) int64 { return h.Load32(value.V(a), i) },
		"__load64_idx": func(a, i int64) int64 { return h.Load64(value.V(a), i) },
		"__store8_idx": func(a, i, v int64) int64 { h.Store8(value.V(a), i, v); return 0 },
		"__store16_idx": func(a, i, v int64) int64 { h.Store16(value.V(a), i, v); return 0 },
		"__store32_idx": func(a, i, v int64) int64 { h.Store32(value.V(a), i, v); return 0 },
		"__store64_idx": func(a, i, v int64) int64 { h.Store64(value.V(a), i, v); return 0 },

		"__add": func(a, b int64) int64 { return int64(ops.Add(h, value.V(a), value.V(b))) },
		"__sub": func(a, b int64) int64 { return int64(ops.Sub(h, value.V(a), value.V(b))) },
		"__mul": func(a, b int64) int64 { return int64(ops.Mul(h, value.V(a), value.V(b))) },
		"__div": func(a, b int64) int64 { return int64(ops.Div(h, value.V(a), value.V(b))) },
		"__mod": func(a, b int64) int64 { return int64(ops.Mod(h, value.V(a), value.V(b))) },

		"__and": func(a, b int64) int64 { return int64(ops.And(value.V(a), value.V(b))) },
		"__or":  func(a, b int64) int64 { return int64(ops.Or(value.V(a), value.V(b))) },
		"__xor": func(a, b int64) int64 { return int64(ops.Xor(value.V(a), value.V(b))) },
		"__shl": func(a, b int64) int64 { return int64(ops.Shl(value.V(a), value.V(b))) },
		"__shr": func(a, b int64) int64 { return int64(ops.Shr(value.V(a), value.V(b))) },
		"__not": func(a int64) int64 { return int64(ops.Not(value.V(a))) },

		"__str_concat": func(a, b int64) int64 { return int64(ops.StrConcat(h, value.V(a), value.V(b))) },
		"__to_str":     func(a int64) int64 { return int64(ops.ToString(h, value.V(a))) },

		"__eq": func(a, b int64) int64 { return int64(ops.Eq(h, value.V(a), value.V(b))) },
		"__lt": func(a, b int64) int64 { return int64(ops.Lt(h, value.V(a), value.V(b))) },
		"__le": func(a, b int64) int64 { return int64(ops.Le(h, value.V(a), value.V(b))) },
		"__gt": func(a, b int64) int64 { return int64(ops.Gt(h, value.V(a), value.V(b))) },
		"__ge": func(a, b int64) int64 { return int64(ops.Ge(h, value.V(a), value.V(b))) },

		"__is_int": func(a int64) int64 { return int64(value.Bool(value.V(a).IsTaggedInt())) },
		"__is_ptr": func(a int64) int64 { return int64(value.Bool(h.IsHeapPointer(value.V(a)))) },
		"__is_str": func(a int64) int64 { return int64(value.Bool(h.IsString(value.V(a)))) },
		"__is_flt": func(a int64) int64 { return int64(value.Bool(h.IsFloat(value.V(a)))) },

		"__panic": func(v int64) int64 { mainThread.Panic(value.V(v)); return 0 },

		"__argc": func() int64 { return ops.Argc() },
		"__argv": func(i int64) int64 { return int64(ops.Argv(h, i)) },
		"__envp": func() int64 { return 0 },
		"__envc": func() int64 { return ops.Envc() },
		"__errno": func() int64 { return ops.Errno() },

		"__dlopen": func(nameV, flags int64) int64 {
			name, _ := memory.GoString(value.V(nameV))
			return int64(ffi.Dlopen(name, int(flags)))
		},
		"__dlsym": func(handle, nameV int64) int64 {
			name, _ := memory.GoString(value.V(nameV))
			return int64(ffi.Dlsym(value.V(handle), name))
		},
		"__dlclose": func(handle int64) int64 { return ffi.Dlclose(value.V(handle)) },
		"__dlerror": func() int64 { return 0 },

		"__get_panic_val":   func() int64 { return 0 },
		"__set_panic_env":   func(v int64) int64 { return 0 },
		"__clear_panic_env": func() int64 { return 0 },
		"__jmpbuf_size":     func() int64 { return int64(mainThread.DeferLen()) },

		"__thread_spawn": func(fnRaw, argRaw int64) int64 {
			hdl := thread.Spawn(func(a value.V) value.V {
				return ffi.Call(h, value.V(fnRaw), a)
			}, value.V(argRaw))
			return storeHandle(hdl)
		},
		"__thread_join": func(id int64) int64 {
			hdl := loadHandle(id)
			if hdl == nil {
				return int64(value.None)
			}
			return int64(hdl.Join())
		},

		"__mutex_new":       func() int64 { return int64(thread.MutexNew()) },
		"__mutex_lock64":    func(m int64) int64 { thread.MutexLock(value.V(m)); return 0 },
		"__mutex_unlock64":  func(m int64) int64 { thread.MutexUnlock(value.V(m)); return 0 },
		"__mutex_free":      func(m int64) int64 { thread.MutexFree(value.V(m)); return 0 },

		"__set_args": func(argvV, envpV, countV int64) int64 { return 0 },

		"__flt_from_int":   func(v int64) int64 { return int64(ops.FloatFromInt(h, value.V(v))) },
		"__flt_to_int":     func(v int64) int64 { return int64(ops.FloatToInt(h, value.V(v))) },
		"__flt_trunc":      func(v int64) int64 { return int64(ops.FloatTrunc(h, value.V(v))) },
		"__flt_add":        func(a, b int64) int64 { return int64(ops.FloatAdd(h, value.V(a), value.V(b))) },
		"__flt_sub":        func(a, b int64) int64 { return int64(ops.FloatSub(h, value.V(a), value.V(b))) },
		"__flt_mul":        func(a, b int64) int64 { return int64(ops.FloatMul(h, value.V(a), value.V(b))) },
		"__flt_div":        func(a, b int64) int64 { return int64(ops.FloatDiv(h, value.V(a), value.V(b))) },
		"__flt_lt":         func(a, b int64) int64 { return int64(ops.FloatLt(h, value.V(a), value.V(b))) },
		"__flt_gt":         func(a, b int64) int64 { return int64(ops.FloatGt(h, value.V(a), value.V(b))) },
		"__flt_le":         func(a, b int64) int64 { return int64(ops.FloatLe(h, value.V(a), value.V(b))) },
		"__flt_ge":         func(a, b int64) int64 { return int64(ops.FloatGe(h, value.V(a), value.V(b))) },
		"__flt_eq":         func(a, b int64) int64 { return int64(ops.FloatEq(h, value.V(a), value.V(b))) },
		"__flt_box_val":    func(bits int64) int64 { return int64(ops.BoxFloat(h, value.BitsToFloat(bits))) },
		"__flt_unbox_val":  func(v int64) int64 { return value.FloatToBits(ops.UnboxFloat(h, value.V(v))) },

		"__rand64": func() int64 { return ops.Rand64() },
		"__srand":  func(seed int64) int64 { ops.Srand(seed); return 0 },

		"__result_ok":  func(v int64) int64 { return int64(ops.ResultOk(h, value.V(v))) },
		"__result_err": func(v int64) int64 { return int64(ops.ResultErr(h, value.V(v))) },
		"__is_ok":      func(v int64) int64 { return int64(value.Bool(h.IsOk(value.V(v)))) },
		"__is_err":     func(v int64) int64 { return int64(value.Bool(h.IsErr(value.V(v)))) },
		"__unwrap":     func(v int64) int64 { return int64(ops.Unwrap(h, value.V(v))) },
	}

	for name, fn := range bindings {
		g := d.Module.NamedFunction(name)
		if g.IsNil() {
			continue
		}
		ptr := purego.NewCallback(fn)
		d.engine.AddGlobalMapping(g, unsafe.Pointer(ptr))
	}

	d.bindCallHelpers()
}

// bindCallHelpers binds every __callN/__callN_void trampoline to
// ffi.Call, the one place codegen lowers an indirect call (a locally
// bound closure, or any callee resolve.Resolve couldn't statically name).
func (d *Driver) bindCallHelpers() {
	hp := memory.Default
	// The _void variant reuses the same shim: it exists at the IR level
	// purely so a call-for-effect site doesn't have to discard an i64, the
	// Go implementation behind both is identical.
	for n := 0; n <= maxCallArity; n++ {
		fn := buildCallShim(hp, n)
		for _, void := range []bool{false, true} {
			name := fmt.Sprintf("__call%d", n)
			if void {
				name += "_void"
			}
			g := d.Module.NamedFunction(name)
			if g.IsNil() {
				continue
			}
			ptr := purego.NewCallback(fn)
			d.engine.AddGlobalMapping(g, unsafe.Pointer(ptr))
		}
	}
}

// buildCallShim returns a Go function of exactly n+1 int64 parameters
// (callee plus n arguments) calling through ffi.Call — purego.NewCallback
// needs a concretely-typed function per arity, so this builds one by
// reflection-free explicit arity dispatch up to maxCallArity.
func buildCallShim(h *memory.Heap, n int) interface{} {
	call := func(args []int64) int64 {
		f := value.V(args[0])
		vargs := make([]value.V, len(args)-1)
		for i, a := range args[1:] {
			vargs[i] = value.V(a)
		}
		return int64(ffi.Call(h, f, vargs...))
	}
	switch n {
	case 0:
		return func(f int64) int64 { return call([]int64{f}) }
	case 1:
		return func(f, a0 int64) int64 { return call([]int64{f, a0}) }
	case 2:
		return func(f, a0, a1 int64) int64 { return call([]int64{f, a0, a1}) }
	case 3:
		return func(f, a0, a1, a2 int64) int64 { return call([]int64{f, a0, a1, a2}) }
	case 4:
		return func(f, a0, a1, a2, a3 int64) int64 { return call([]int64{f, a0, a1, a2, a3}) }
	case 5:
		return func(f, a0, a1, a2, a3, a4 int64) int64 { return call([]int64{f, a0, a1, a2, a3, a4}) }
	case 6:
		return func(f, a0, a1, a2, a3, a4, a5 int64) int64 { return call([]int64{f, a0, a1, a2, a3, a4, a5}) }
	case 7:
		return func(f, a0, a1, a2, a3, a4, a5, a6 int64) int64 {
			return call([]int64{f, a0, a1, a2, a3, a4, a5, a6})
		}
	case 8:
		return func(f, a0, a1, a2, a3, a4, a5, a6, a7 int64) int64 {
			return call([]int64{f, a0, a1, a2, a3, a4, a5, a6, a7})
		}
	case 9:
		return func(f, a0, a1, a2, a3, a4, a5, a6, a7, a8 int64) int64 {
			return call([]int64{f, a0, a1, a2, a3, a4, a5, a6, a7, a8})
		}
	case 10:
		return func(f, a0, a1, a2, a3, a4, a5, a6, a7, a8, a9 int64) int64 {
			return call([]int64{f, a0, a1, a2, a3, a4, a5, a6, a7, a8, a9})
		}
	case 11:
		return func(f, a0, a1, a2, a3, a4, a5, a6, a7, a8, a9, a10 int64) int64 {
			return call([]int64{f, a0, a1, a2, a3, a4, a5, a6, a7, a8, a9, a10})
		}
	case 12:
		return func(f, a0, a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11 int64) int64 {
			return call([]int64{f, a0, a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11})
		}
	case 13:
		return func(f, a0, a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12 int64) int64 {
			return call([]int64{f, a0, a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12})
		}
	case 14:
		return func(f, a0, a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12, a13 int64) int64 {
			return call([]int64{f, a0, a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12, a13})
		}
	default: // 15
		return func(f, a0, a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12, a13, a14 int64) int64 {
			return call([]int64{f, a0, a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12, a13, a14})
		}
	}
}
