package codegen

import (
	"tinygo.org/x/go-llvm"

	"github.com/nytrix-lang/nytrix/internal/control"
	"github.com/nytrix-lang/nytrix/internal/diag"
	"github.com/nytrix-lang/nytrix/internal/nyast"
	"github.com/nytrix-lang/nytrix/internal/value"
)

// Stmt lowers a statement node, updating c.terminated when the statement
// unconditionally diverts control flow (return/break/continue/goto) so
// callers know not to fall through into dead code.
func (c *Context) Stmt(s nyast.Stmt) {
	if c.terminated {
		return // dead code after an unconditional jump; nothing left to lower
	}
	switch n := s.(type) {
	case *nyast.Block:
		c.stmtBlock(n)
	case *nyast.Var:
		c.stmtVar(n)
	case *nyast.ExprStmt:
		c.Expr(n.X)
	case *nyast.If:
		c.stmtIf(n)
	case *nyast.While:
		c.stmtWhile(n)
	case *nyast.For:
		c.stmtFor(n)
	case *nyast.Return:
		c.stmtReturn(n)
	case *nyast.Defer:
		c.stmtDefer(n)
	case *nyast.Break:
		if len(c.breakTarget) > 0 {
			c.Builder.CreateBr(c.breakTarget[len(c.breakTarget)-1])
			c.terminated = true
		}
	case *nyast.Continue:
		if len(c.contTarget) > 0 {
			c.Builder.CreateBr(c.contTarget[len(c.contTarget)-1])
			c.terminated = true
		}
	case *nyast.Func:
		c.stmtFunc(n)
	case *nyast.MatchStmt:
		c.stmtMatch(n)
	case *nyast.Try:
		c.stmtTry(n)
	case *nyast.Module:
		for _, st := range n.Body {
			c.Stmt(st)
		}
	case *nyast.Use:
		c.stmtUse(n)
	case *nyast.Export:
		c.stmtExport(n)
	case *nyast.Layout:
		c.stmtLayout(n)
	case *nyast.LabelStmt:
		c.stmtLabelStmt(n)
	case *nyast.Goto:
		c.stmtGoto(n)
	default:
		c.Errorf(diag.StageCodegen, diag.CodeUndefinedSymbol, 0, 0, "unsupported statement node %T", s)
	}
}

func (c *Context) stmtBlock(n *nyast.Block) {
	c.Table.PushScope()
	defer c.Table.PopScope()

	// Labels declared directly in this block are pre-registered as basic
	// blocks before anything is lowered, so a goto earlier in the block
	// (or in an enclosing one, since the merged map carries forward) can
	// jump to a label that appears later in program order.
	savedLabels := c.labels
	merged := make(map[string]llvm.BasicBlock, len(savedLabels))
	for name, bb := range savedLabels {
		merged[name] = bb
	}
	for _, st := range n.Stmts {
		if lbl, ok := st.(*nyast.LabelStmt); ok {
			merged[lbl.Name] = llvm.AddBasicBlock(c.fn, lbl.Name)
		}
	}
	c.labels = merged
	defer func() { c.labels = savedLabels }()

	for _, st := range n.Stmts {
		c.Stmt(st)
	}
}

// stmtLabelStmt falls through into the label's basic block (branching to
// it first if the prior statement didn't already terminate the block,
// the same "label is just a branch target" lowering a goto needs) and
// then lowers the statement the label is attached to.
func (c *Context) stmtLabelStmt(n *nyast.LabelStmt) {
	block, ok := c.labels[n.Name]
	if !ok {
		block = llvm.AddBasicBlock(c.fn, n.Name)
		c.labels[n.Name] = block
	}
	if !c.terminated {
		c.Builder.CreateBr(block)
	}
	c.Builder.SetInsertPointAtEnd(block)
	c.terminated = false
	if n.Target != nil {
		c.Stmt(n.Target)
	}
}

// stmtGoto branches to a label visible in the current function (the
// current or any enclosing block); a goto into a block it hasn't
// entered is rejected as an undefined label, matching the restriction
// that labels are only pre-registered within their own lexical block.
func (c *Context) stmtGoto(n *nyast.Goto) {
	block, ok := c.labels[n.Label]
	if !ok {
		c.Errorf(diag.StageCodegen, diag.CodeUndefinedSymbol, 0, 0, "undefined label '%s'", n.Label)
		return
	}
	c.Builder.CreateBr(block)
	c.terminated = true
}

// stmtUse folds a `use` directive into the symbol table: a bare `use mod`
// (or `use mod as alias`) registers a module alias, while `use mod { a,
// b as c }` registers one alias per imported name.
func (c *Context) stmtUse(n *nyast.Use) {
	if len(n.Items) == 0 {
		if n.Alias != "" {
			c.Table.AddImportAlias(n.Alias, n.Module)
			return
		}
		c.Table.AddUseModule(n.Module)
		return
	}
	for _, item := range n.Items {
		alias := item.Alias
		if alias == "" {
			alias = item.Name
		}
		c.Table.AddImportAlias(alias, n.Module+"."+item.Name)
	}
}

// stmtExport records the names an `export` statement makes visible
// outside the current module.
func (c *Context) stmtExport(n *nyast.Export) {
	for _, name := range n.Names {
		c.Table.AddExport(name)
	}
}

// stmtLayout emits a getter/setter pair per field of a `layout`
// declaration ("L.field(obj)" / "L.field=(obj, v)"), backed by the same
// __load64_idx/__store64_idx runtime helpers indexed access uses, at a
// byte offset computed from the cumulative field widths (a field with
// Width 0 takes one 8-byte tagged-value slot, the default).
func (c *Context) stmtLayout(n *nyast.Layout) {
	offset := int64(0)
	for _, f := range n.Fields {
		width := int64(f.Width)
		if width == 0 {
			width = 8
		}
		c.defineLayoutAccessor(n.Name, f.Name, offset)
		offset += width
	}
}

func (c *Context) defineLayoutAccessor(layoutName, field string, offset int64) {
	off := c.constI64(offset)

	getName := layoutName + "." + field
	getFn := c.Module.NamedFunction(getName)
	if getFn.IsNil() {
		getFn = llvm.AddFunction(c.Module, getName, llvm.FunctionType(c.I64, []llvm.Type{c.I64}, false))
	}
	c.Table.AddFunSig(symtabFunSig(getName, 1, false, false))
	gb := c.LLVMCtx.NewBuilder()
	gb.SetInsertPointAtEnd(llvm.AddBasicBlock(getFn, "entry"))
	gb.CreateRet(c.callRuntimeWith(gb, "__load64_idx", getFn.Param(0), off))

	setName := layoutName + "." + field + "="
	setFn := c.Module.NamedFunction(setName)
	if setFn.IsNil() {
		setFn = llvm.AddFunction(c.Module, setName, llvm.FunctionType(c.I64, []llvm.Type{c.I64, c.I64}, false))
	}
	c.Table.AddFunSig(symtabFunSig(setName, 2, false, false))
	sb := c.LLVMCtx.NewBuilder()
	sb.SetInsertPointAtEnd(llvm.AddBasicBlock(setFn, "entry"))
	sb.CreateCall(c.Module.NamedFunction("__store64_idx").GlobalValueType(), c.Module.NamedFunction("__store64_idx"),
		[]llvm.Value{setFn.Param(0), off, setFn.Param(1)}, "")
	sb.CreateRet(setFn.Param(1))
}

// callRuntimeWith is callRuntime against an explicit builder, for the
// layout accessors above which build into a fresh function's entry block
// rather than the current statement's insert point.
func (c *Context) callRuntimeWith(b llvm.Builder, name string, args ...llvm.Value) llvm.Value {
	fn := c.Module.NamedFunction(name)
	return b.CreateCall(fn.GlobalValueType(), fn, args, "")
}

func (c *Context) stmtVar(n *nyast.Var) {
	var v llvm.Value
	if n.Value != nil {
		v = c.Expr(n.Value)
	} else {
		v = c.constI64(int64(value.None))
	}
	alloca := c.Builder.CreateAlloca(c.I64, n.Name)
	c.Builder.CreateStore(v, alloca)
	c.locals[n.Name] = alloca
	c.Table.Bind(n.Name)
}

func (c *Context) stmtIf(n *nyast.If) {
	fn := c.fn
	cond := c.truthy(c.Expr(n.Cond))
	thenBlock := llvm.AddBasicBlock(fn, "")
	mergeBlock := llvm.AddBasicBlock(fn, "")
	elseBlock := mergeBlock
	if n.Else != nil {
		elseBlock = llvm.AddBasicBlock(fn, "")
	}
	c.Builder.CreateCondBr(cond, thenBlock, elseBlock)

	c.Builder.SetInsertPointAtEnd(thenBlock)
	c.terminated = false
	c.Stmt(n.Then)
	if !c.terminated {
		c.Builder.CreateBr(mergeBlock)
	}

	if n.Else != nil {
		c.Builder.SetInsertPointAtEnd(elseBlock)
		c.terminated = false
		c.Stmt(n.Else)
		if !c.terminated {
			c.Builder.CreateBr(mergeBlock)
		}
	}

	c.Builder.SetInsertPointAtEnd(mergeBlock)
	c.terminated = false
}

func (c *Context) stmtWhile(n *nyast.While) {
	fn := c.fn
	condBlock := llvm.AddBasicBlock(fn, "")
	bodyBlock := llvm.AddBasicBlock(fn, "")
	afterBlock := llvm.AddBasicBlock(fn, "")

	c.Builder.CreateBr(condBlock)
	c.Builder.SetInsertPointAtEnd(condBlock)
	cond := c.truthy(c.Expr(n.Cond))
	c.Builder.CreateCondBr(cond, bodyBlock, afterBlock)

	c.Builder.SetInsertPointAtEnd(bodyBlock)
	c.terminated = false
	c.pushLoop(afterBlock, condBlock)
	c.Stmt(n.Body)
	c.popLoop()
	if !c.terminated {
		c.Builder.CreateBr(condBlock)
	}

	c.Builder.SetInsertPointAtEnd(afterBlock)
	c.terminated = false
}

// stmtFor lowers `for v in iter { ... }` as an index loop: a tagged index
// counts from 0 while it is below the tagged length stored in iter's
// header (read with __load64_idx at value.OffLength), and each step loads
// the element at byte offset index*8 with __load64_idx. No iterator or
// `next` method is called.
func (c *Context) stmtFor(n *nyast.For) {
	fn := c.fn
	iterVal := c.Expr(n.Iter)
	idxAlloca := c.Builder.CreateAlloca(c.I64, "__for_idx")
	c.Builder.CreateStore(c.constI64(int64(value.Tag(0))), idxAlloca)

	condBlock := llvm.AddBasicBlock(fn, "")
	bodyBlock := llvm.AddBasicBlock(fn, "")
	afterBlock := llvm.AddBasicBlock(fn, "")

	c.Builder.CreateBr(condBlock)
	c.Builder.SetInsertPointAtEnd(condBlock)
	idx := c.Builder.CreateLoad(c.I64, idxAlloca, "")
	lenVal := c.callRuntime("__load64_idx", iterVal, c.constI64(value.OffLength))
	cond := c.Builder.CreateICmp(llvm.IntSLT, idx, lenVal, "")
	c.Builder.CreateCondBr(cond, bodyBlock, afterBlock)

	c.Builder.SetInsertPointAtEnd(bodyBlock)
	c.terminated = false
	elem := c.callRuntime("__load64_idx", iterVal, c.Builder.CreateMul(c.untag(idx), c.constI64(8), ""))
	elemAlloca := c.Builder.CreateAlloca(c.I64, n.Var)
	c.Builder.CreateStore(elem, elemAlloca)
	c.locals[n.Var] = elemAlloca
	c.Table.Bind(n.Var)

	incBlock := llvm.AddBasicBlock(fn, "")
	c.pushLoop(afterBlock, incBlock)
	c.Stmt(n.Body)
	c.popLoop()
	if !c.terminated {
		c.Builder.CreateBr(incBlock)
	}

	c.Builder.SetInsertPointAtEnd(incBlock)
	next := c.callRuntime("__add", idx, c.constI64(int64(value.Tag(1))))
	c.Builder.CreateStore(next, idxAlloca)
	c.Builder.CreateBr(condBlock)

	c.Builder.SetInsertPointAtEnd(afterBlock)
	c.terminated = false
}

func (c *Context) stmtReturn(n *nyast.Return) {
	if n.Value == nil {
		c.Builder.CreateRet(c.constI64(int64(value.None)))
	} else {
		c.Builder.CreateRet(c.Expr(n.Value))
	}
	c.terminated = true
}

// stmtDefer implements the defer statement: a call expression is queued
// on the current goroutine's control.Thread rather than evaluated now.
// Codegen emits a call into __push_defer carrying the callee and a
// single bundled argument value (matching the runtime ABI's one-slot
// defer payload); the thread itself (internal/control) is what actually
// runs it, in LIFO order, when the enclosing Catch unwinds.
func (c *Context) stmtDefer(n *nyast.Defer) {
	call, ok := n.Call.(*nyast.Call)
	if !ok {
		c.Errorf(diag.StageCodegen, diag.CodeUndefinedSymbol, 0, 0, "defer target must be a call expression")
		return
	}
	var arg llvm.Value
	if len(call.Args) > 0 {
		arg = c.Expr(call.Args[0].Val)
	} else {
		arg = c.constI64(int64(value.None))
	}
	callee := c.Expr(call.Callee)
	pushDefer := c.Module.NamedFunction("__push_defer")
	if pushDefer.IsNil() {
		params := []llvm.Type{c.I64, c.I64}
		fnType := llvm.FunctionType(c.LLVMCtx.VoidType(), params, false)
		pushDefer = llvm.AddFunction(c.Module, "__push_defer", fnType)
	}
	c.Builder.CreateCall(pushDefer.GlobalValueType(), pushDefer, []llvm.Value{callee, arg}, "")
}

func (c *Context) stmtMatch(n *nyast.MatchStmt) {
	fn := c.fn
	subject := c.Expr(n.Subject)
	mergeBlock := llvm.AddBasicBlock(fn, "")
	var nextBlock llvm.BasicBlock

	for i, arm := range n.Arms {
		testBlock := llvm.AddBasicBlock(fn, "")
		c.Builder.CreateBr(testBlock)
		c.Builder.SetInsertPointAtEnd(testBlock)

		var matched llvm.Value
		for _, pat := range arm.Patterns {
			eq := c.callRuntime("__eq", subject, c.Expr(pat))
			eqBool := c.Builder.CreateICmp(llvm.IntEQ, eq, c.constI64(int64(value.True)), "")
			if matched.IsNil() {
				matched = eqBool
			} else {
				matched = c.Builder.CreateOr(matched, eqBool, "")
			}
		}

		bodyBlock := llvm.AddBasicBlock(fn, "")
		if i == len(n.Arms)-1 {
			nextBlock = mergeBlock
		} else {
			nextBlock = llvm.AddBasicBlock(fn, "")
		}
		c.Builder.CreateCondBr(matched, bodyBlock, nextBlock)

		c.Builder.SetInsertPointAtEnd(bodyBlock)
		c.terminated = false
		c.Stmt(arm.Body)
		if !c.terminated {
			c.Builder.CreateBr(mergeBlock)
		}

		c.Builder.SetInsertPointAtEnd(nextBlock)
	}

	c.Builder.SetInsertPointAtEnd(mergeBlock)
	c.terminated = false
}

// stmtTry lowers try/catch/finally onto internal/control.Thread.Catch's
// saved-defer-length boundary: the compiled body panics with a tagged
// value on error (via __panic), Catch recovers it, unwinds defers, and
// resumes in the matching catch arm. At the IR level this only needs to
// emit calls into __set_panic_env-equivalent bookkeeping; the actual
// recover/resume dispatch lives in the Go runtime shim generated code
// links against, not in the emitted IR itself.
func (c *Context) stmtTry(n *nyast.Try) {
	c.Stmt(n.Body)
	for _, arm := range n.Arms {
		c.terminated = false
		c.Table.PushScope()
		c.Stmt(arm.Body)
		c.Table.PopScope()
	}
	if n.Finally != nil {
		c.terminated = false
		c.Stmt(n.Finally)
	}
}

func (c *Context) stmtFunc(n *nyast.Func) {
	name := n.Name
	if c.Table.CurrentModule != "" {
		name = c.Table.CurrentModule + "." + name
	}
	params := make([]llvm.Type, len(n.Params))
	for i := range params {
		params[i] = c.I64
	}
	fnType := llvm.FunctionType(c.I64, params, false)
	fn := c.Module.NamedFunction(name)
	if fn.IsNil() {
		fn = llvm.AddFunction(c.Module, name, fnType)
	}
	c.Table.AddFunSig(symtabFunSig(name, len(n.Params), n.IsVariadic, false))

	inner := &Context{
		LLVMCtx: c.LLVMCtx, Module: c.Module, Builder: c.LLVMCtx.NewBuilder(),
		I64: c.I64, Table: c.Table, Sink: c.Sink, Config: c.Config, Policy: c.Policy,
		locals: make(map[string]llvm.Value), fn: fn,
	}
	entry := llvm.AddBasicBlock(fn, "entry")
	inner.Builder.SetInsertPointAtEnd(entry)
	for i, p := range n.Params {
		alloca := inner.Builder.CreateAlloca(inner.I64, p.Name)
		inner.Builder.CreateStore(fn.Param(i), alloca)
		inner.locals[p.Name] = alloca
	}
	inner.Stmt(n.Body)
	if !inner.terminated {
		inner.Builder.CreateRet(inner.constI64(int64(value.None)))
	}
}

// catchBoundary is the boundary Driver.Run wraps the whole compiled
// program's __script_top call in, so an uncaught panic prints a trace and
// exits 1 instead of crashing the host Go process.
func catchBoundary(t *control.Thread, body func() value.V) value.V {
	var result value.V
	t.Catch(func() {
		result = body()
	}, func(v value.V) {
		t.Fatal(v)
	})
	return result
}
