package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/nytrix-lang/nytrix/internal/nyast"
	"github.com/nytrix-lang/nytrix/internal/value"
)

var closureCounter int

// freeVars collects every identifier referenced in body that is not one
// of params, in first-reference order — these are the values the closure
// captures by copy into its environment. Globals and function names are
// not filtered out; they are captured like any other identifier.
func freeVars(params []nyast.Param, body nyast.Expr) []string {
	bound := make(map[string]bool, len(params))
	for _, p := range params {
		bound[p.Name] = true
	}
	var order []string
	seen := make(map[string]bool)
	nyast.Walk(body, func(e nyast.Expr) {
		id, ok := e.(*nyast.Ident)
		if !ok || bound[id.Name] || seen[id.Name] {
			return
		}
		seen[id.Name] = true
		order = append(order, id.Name)
	})
	return order
}

// lambda lowers a lambda expression into a tag-105 closure object: a
// freshly defined LLVM function taking (env, params...) plus an
// environment array holding each captured variable's current value, the
// same two-word shape (code pointer, env pointer) is_heap_ptr/tag-105
// recognize in internal/ffi.Call.
func (c *Context) lambda(n *nyast.Lambda) llvm.Value {
	body := n.Body
	if n.IsBlock {
		// A block-bodied lambda's "value" is whatever its last statement's
		// expression would be; for simplicity treat the block as a nested
		// function whose Return statements supply the value.
		return c.closureFromBlock(n.Params, n.BlockBody)
	}
	return c.makeClosure(n.Params, func(inner *Context) llvm.Value {
		return inner.Expr(body)
	}, freeVars(n.Params, body))
}

func (c *Context) fnExpr(n *nyast.Fn) llvm.Value {
	fv := collectBlockFreeVars(n.Params, n.Body)
	return c.makeClosure(n.Params, func(inner *Context) llvm.Value {
		inner.stmtBlock(n.Body)
		return inner.constI64(int64(value.None))
	}, fv)
}

func (c *Context) closureFromBlock(params []nyast.Param, body *nyast.Block) llvm.Value {
	fv := collectBlockFreeVars(params, body)
	return c.makeClosure(params, func(inner *Context) llvm.Value {
		inner.stmtBlock(body)
		return inner.constI64(int64(value.None))
	}, fv)
}

func collectBlockFreeVars(params []nyast.Param, body *nyast.Block) []string {
	bound := make(map[string]bool, len(params))
	for _, p := range params {
		bound[p.Name] = true
	}
	var order []string
	seen := make(map[string]bool)
	nyast.WalkStmt(body, func(e nyast.Expr) {
		id, ok := e.(*nyast.Ident)
		if !ok || bound[id.Name] || seen[id.Name] {
			return
		}
		seen[id.Name] = true
		order = append(order, id.Name)
	})
	return order
}

// makeClosure emits the closure's code function, builds its environment
// array on the heap, and returns the tag-105 object wrapping (code, env).
func (c *Context) makeClosure(params []nyast.Param, emitBody func(*Context) llvm.Value, captured []string) llvm.Value {
	closureCounter++
	name := fmt.Sprintf("__closure.%d", closureCounter)

	paramTypes := make([]llvm.Type, len(params)+1) // +1 for env
	for i := range paramTypes {
		paramTypes[i] = c.I64
	}
	fnType := llvm.FunctionType(c.I64, paramTypes, false)
	fn := llvm.AddFunction(c.Module, name, fnType)

	inner := &Context{
		LLVMCtx: c.LLVMCtx, Module: c.Module, Builder: c.LLVMCtx.NewBuilder(),
		I64: c.I64, Table: c.Table, Sink: c.Sink, Config: c.Config, Policy: c.Policy,
		locals: make(map[string]llvm.Value), fn: fn,
	}
	entry := llvm.AddBasicBlock(fn, "entry")
	inner.Builder.SetInsertPointAtEnd(entry)

	envParam := fn.Param(0)
	for i, name := range captured {
		idx := int64(i)
		slot := inner.callRuntime("__load64_idx", envParam, inner.constI64(idx*8))
		alloca := inner.Builder.CreateAlloca(inner.I64, name)
		inner.Builder.CreateStore(slot, alloca)
		inner.locals[name] = alloca
	}
	for i, p := range params {
		alloca := inner.Builder.CreateAlloca(inner.I64, p.Name)
		inner.Builder.CreateStore(fn.Param(i+1), alloca)
		inner.locals[p.Name] = alloca
	}

	ret := emitBody(inner)
	if !inner.terminated {
		inner.Builder.CreateRet(ret)
	}

	// Build the environment array and the two-word closure object.
	env := c.constI64(0)
	if len(captured) > 0 {
		envSize := int64(len(captured) * 8)
		env = c.callRuntime("__malloc", c.constI64(envSize))
		for i, name := range captured {
			v := c.Expr(&nyast.Ident{Name: name})
			c.callRuntime("__store64_idx", env, c.constI64(int64(i)*8), v)
		}
	}

	obj := c.callRuntime("__malloc", c.constI64(16))
	fnAddr := c.Builder.CreatePtrToInt(fn, c.I64, "")
	c.callRuntime("__store64_idx", obj, c.constI64(0), fnAddr)
	c.callRuntime("__store64_idx", obj, c.constI64(8), env)
	c.callRuntime("__store64_idx", obj, c.constI64(-8), c.constI64(value.TagClosure))
	return obj
}
