// Package codegen lowers a Ny AST (internal/nyast) directly to LLVM IR
// using the real tinygo.org/x/go-llvm bindings, the way the teacher's
// generator lowers its own AST — but targeting the tagged-64-bit-value
// runtime of internal/value/memory/ops/ffi/control/thread instead of a
// statically-typed target. Every Ny value, regardless of shape, is one
// LLVM i64; there is no monomorphization, only runtime dispatch through
// the ABI declared in builtins.go.
package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/nytrix-lang/nytrix/internal/config"
	"github.com/nytrix-lang/nytrix/internal/diag"
	"github.com/nytrix-lang/nytrix/internal/fastpath"
	"github.com/nytrix-lang/nytrix/internal/symtab"
)

// Context is a single compilation's mutable codegen state: one LLVM
// module, one symbol table, one diagnostic sink. Nothing here is a
// package-level global, per the design note that these tables should be
// owned per-compilation.
type Context struct {
	LLVMCtx llvm.Context
	Module  llvm.Module
	Builder llvm.Builder

	I64 llvm.Type

	Table  *symtab.Table
	Sink   *diag.Sink
	Config *config.Config
	Policy *fastpath.Policy

	HadError bool

	fn          llvm.Value // current function being built
	locals      map[string]llvm.Value
	breakTarget []llvm.BasicBlock
	contTarget  []llvm.BasicBlock
	terminated  bool // current basic block already ends in a terminator
	labels      map[string]llvm.BasicBlock // goto targets visible in the current function
}

// New creates a codegen context for one module named moduleName.
func New(moduleName string, cfg *config.Config, sink *diag.Sink) *Context {
	lc := llvm.NewContext()
	mod := lc.NewModule(moduleName)
	b := lc.NewBuilder()
	c := &Context{
		LLVMCtx: lc,
		Module:  mod,
		Builder: b,
		I64:     lc.Int64Type(),
		Table:   symtab.New(),
		Sink:    sink,
		Config:  cfg,
		Policy:  fastpath.NewPolicy(cfg),
		locals:  make(map[string]llvm.Value),
	}
	AddBuiltins(c)
	return c
}

// Errorf records a codegen error and marks HadError, matching the
// teacher's "accumulate and keep going" error model: codegen never stops
// at the first error, only verify() (called by the driver, not here) is
// fatal.
func (c *Context) Errorf(stage diag.Stage, code diag.Code, line, col int, format string, args ...any) {
	c.HadError = true
	c.Sink.Report(diag.Diagnostic{
		Stage:    stage,
		Severity: diag.SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     diag.Span{Line: line, Column: col},
	})
}

func (c *Context) constI64(v int64) llvm.Value {
	return llvm.ConstInt(c.I64, uint64(v), false)
}

func (c *Context) pushLoop(brk, cont llvm.BasicBlock) {
	c.breakTarget = append(c.breakTarget, brk)
	c.contTarget = append(c.contTarget, cont)
}

func (c *Context) popLoop() {
	c.breakTarget = c.breakTarget[:len(c.breakTarget)-1]
	c.contTarget = c.contTarget[:len(c.contTarget)-1]
}
