package codegen

import (
	"math"
	"strconv"

	"tinygo.org/x/go-llvm"

	"github.com/nytrix-lang/nytrix/internal/diag"
	"github.com/nytrix-lang/nytrix/internal/fastpath"
	"github.com/nytrix-lang/nytrix/internal/nyast"
	"github.com/nytrix-lang/nytrix/internal/resolve"
	"github.com/nytrix-lang/nytrix/internal/value"
)

// Expr lowers an expression node to the i64 LLVM value that represents
// its tagged runtime value.
func (c *Context) Expr(e nyast.Expr) llvm.Value {
	switch n := e.(type) {
	case *nyast.Literal:
		return c.literal(n)
	case *nyast.Ident:
		return c.ident(n)
	case *nyast.Unary:
		return c.unary(n)
	case *nyast.Binary:
		return c.binary(n)
	case *nyast.Logical:
		return c.logical(n)
	case *nyast.Ternary:
		return c.ternary(n)
	case *nyast.Call:
		return c.call(n)
	case *nyast.MemCall:
		return c.memcall(n)
	case *nyast.Index:
		return c.index(n)
	case *nyast.Lambda:
		return c.lambda(n)
	case *nyast.Fn:
		return c.fnExpr(n)
	case *nyast.FString:
		return c.fstring(n)
	case *nyast.Match:
		return c.matchExpr(n)
	case *nyast.Assign:
		return c.assign(n)
	default:
		c.Errorf(diag.StageCodegen, diag.CodeUndefinedSymbol, 0, 0, "unsupported expression node %T", e)
		return c.constI64(int64(value.None))
	}
}

func (c *Context) literal(n *nyast.Literal) llvm.Value {
	switch n.Kind {
	case nyast.LitInt:
		return c.constI64(int64(value.Tag(n.I)))
	case nyast.LitBool:
		return c.constI64(int64(value.Bool(n.B)))
	case nyast.LitFloat:
		bits := int64(math.Float64bits(n.F))
		call := c.Module.NamedFunction("__flt_box_val")
		return c.Builder.CreateCall(call.GlobalValueType(), call, []llvm.Value{c.constI64(bits)}, "")
	case nyast.LitStr:
		return c.constString(n.S)
	case nyast.LitNone:
		return c.constI64(int64(value.None))
	default:
		c.Errorf(diag.StageCodegen, diag.CodeUndefinedSymbol, 0, 0, "unsupported literal kind %d", n.Kind)
		return c.constI64(int64(value.None))
	}
}

// constString emits a module-level constant byte array holding the full
// 64-byte header (MAGIC1/capacity/MAGIC2/reserved/tagged length/
// TagStrConst) immediately followed by the literal's bytes and a NUL, the
// same layout internal/memory.Alloc stamps for a heap string. Driver.Run
// registers the JIT-resolved payload address as a foreign region (see
// registerConstStrings in module.go) so every header-relative primitive
// (__is_str, __load64_idx, GoString) treats it exactly like a live heap
// string without ever going through __malloc.
func (c *Context) constString(s string) llvm.Value {
	id := c.Table.Intern(s)
	name := "__strlit." + strconv.Itoa(id)
	g := c.Module.NamedGlobal(name)
	if g.IsNil() {
		raw := headerAndPayload(s)
		data := c.LLVMCtx.ConstString(string(raw), false)
		g = llvm.AddGlobal(c.Module, data.Type(), name)
		g.SetInitializer(data)
		g.SetGlobalConstant(true)
		g.SetLinkage(llvm.PrivateLinkage)
	}
	zero := c.constI64(0)
	headerLen := c.constI64(int64(value.HeaderSize))
	payload := c.Builder.CreateGEP(g.GlobalValueType(), g, []llvm.Value{zero, headerLen}, "")
	return c.Builder.CreatePtrToInt(payload, c.I64, "")
}

func (c *Context) ident(n *nyast.Ident) llvm.Value {
	if alloca, ok := c.locals[n.Name]; ok {
		return c.Builder.CreateLoad(c.I64, alloca, n.Name)
	}
	if sig, ok := resolve.Resolve(c.Table, n.Name, 0); ok && sig != nil {
		fn := c.Module.NamedFunction(sig.Name)
		if !fn.IsNil() {
			return c.Builder.CreatePtrToInt(fn, c.I64, "")
		}
	}
	c.Errorf(diag.StageCodegen, diag.CodeUndefinedSymbol, 0, 0, "undefined symbol '%s'", n.Name)
	return c.constI64(int64(value.None))
}

// assign lowers `target = value`. An Ident target stores into the existing
// local slot (declared by a prior Var); an Index target lowers to
// __store64_idx the same way the for-loop desugaring reads elements with
// __load64_idx.
func (c *Context) assign(n *nyast.Assign) llvm.Value {
	v := c.Expr(n.Value)
	switch t := n.Target.(type) {
	case *nyast.Ident:
		alloca, ok := c.locals[t.Name]
		if !ok {
			c.Errorf(diag.StageCodegen, diag.CodeUndefinedSymbol, 0, 0, "undefined symbol '%s'", t.Name)
			return v
		}
		c.Builder.CreateStore(v, alloca)
		return v
	case *nyast.Index:
		target := c.Expr(t.Target)
		idx := c.Expr(t.Index)
		byteOff := c.Builder.CreateMul(c.untag(idx), c.constI64(8), "")
		c.callRuntime("__store64_idx", target, byteOff, v)
		return v
	default:
		c.Errorf(diag.StageCodegen, diag.CodeUndefinedSymbol, 0, 0, "invalid assignment target %T", n.Target)
		return v
	}
}

func (c *Context) callRuntime(name string, args ...llvm.Value) llvm.Value {
	fn := c.Module.NamedFunction(name)
	return c.Builder.CreateCall(fn.GlobalValueType(), fn, args, "")
}

var fastpathOpByToken = map[string]fastpath.Op{
	"+": fastpath.Add, "-": fastpath.Sub, "*": fastpath.Mul, "/": fastpath.Div, "%": fastpath.Mod,
}

var runtimeHelperByToken = map[string]string{
	"+": "__add", "-": "__sub", "*": "__mul", "/": "__div", "%": "__mod",
	"&": "__and", "|": "__or", "^": "__xor", "<<": "__shl", ">>": "__shr",
	"==": "__eq", "!=": "", "<": "__lt", "<=": "__le", ">": "__gt", ">=": "__ge",
}

func (c *Context) binary(n *nyast.Binary) llvm.Value {
	if n.Op == "+" {
		// '+' overloads arithmetic and string concatenation; a static
		// literal-string operand routes straight to __str_concat the way
		// the original generator special-cases it, everything else goes
		// through the arithmetic fast path / runtime helper.
		if isStringLiteral(n.X) || isStringLiteral(n.Y) {
			return c.callRuntime("__str_concat", c.Expr(n.X), c.Expr(n.Y))
		}
	}
	if op, ok := fastpathOpByToken[n.Op]; ok {
		if lit, isConst := n.Y.(*nyast.Literal); isConst && lit.Kind == nyast.LitInt && c.Policy.ShouldInline(op) {
			if id, ok := fastpath.IdentityFor(op, lit.I); ok {
				x := c.Expr(n.X)
				if id.IsZero {
					return c.constI64(int64(value.Tag(0)))
				}
				return x
			}
		}
		if xlit, xok := n.X.(*nyast.Literal); xok && xlit.Kind == nyast.LitInt {
			if ylit, yok := n.Y.(*nyast.Literal); yok && ylit.Kind == nyast.LitInt {
				return c.constI64(int64(value.Tag(fastpath.FoldConstant(op, xlit.I, ylit.I))))
			}
		}
	}
	if n.Op == "!=" {
		eq := c.callRuntime("__eq", c.Expr(n.X), c.Expr(n.Y))
		return c.callRuntime("__not", eq)
	}
	helper, ok := runtimeHelperByToken[n.Op]
	if !ok || helper == "" {
		c.Errorf(diag.StageCodegen, diag.CodeUndefinedSymbol, 0, 0, "unsupported binary operator '%s'", n.Op)
		return c.constI64(int64(value.None))
	}
	return c.callRuntime(helper, c.Expr(n.X), c.Expr(n.Y))
}

func isStringLiteral(e nyast.Expr) bool {
	lit, ok := e.(*nyast.Literal)
	return ok && lit.Kind == nyast.LitStr
}

func (c *Context) unary(n *nyast.Unary) llvm.Value {
	x := c.Expr(n.X)
	switch n.Op {
	case "-":
		return c.callRuntime("__sub", c.constI64(int64(value.Tag(0))), x)
	case "!":
		truthy := c.truthy(x)
		notTruthy := c.Builder.CreateNot(truthy, "")
		return c.selectBool(notTruthy)
	case "~":
		return c.callRuntime("__not", x)
	default:
		c.Errorf(diag.StageCodegen, diag.CodeUndefinedSymbol, 0, 0, "unsupported unary operator '%s'", n.Op)
		return x
	}
}

// truthy lowers Ny's truthiness rule (everything but none/false) to an i1.
func (c *Context) truthy(v llvm.Value) llvm.Value {
	none := c.constI64(int64(value.None))
	fls := c.constI64(int64(value.False))
	neNone := c.Builder.CreateICmp(llvm.IntNE, v, none, "")
	neFalse := c.Builder.CreateICmp(llvm.IntNE, v, fls, "")
	return c.Builder.CreateAnd(neNone, neFalse, "")
}

func (c *Context) selectBool(cond llvm.Value) llvm.Value {
	return c.Builder.CreateSelect(cond, c.constI64(int64(value.True)), c.constI64(int64(value.False)), "")
}

func (c *Context) logical(n *nyast.Logical) llvm.Value {
	fn := c.fn
	lhs := c.Expr(n.X)
	lhsTruthy := c.truthy(lhs)

	rhsBlock := llvm.AddBasicBlock(fn, "")
	mergeBlock := llvm.AddBasicBlock(fn, "")
	startBlock := c.Builder.GetInsertBlock()

	if n.Op == "&&" {
		c.Builder.CreateCondBr(lhsTruthy, rhsBlock, mergeBlock)
	} else {
		c.Builder.CreateCondBr(lhsTruthy, mergeBlock, rhsBlock)
	}

	c.Builder.SetInsertPointAtEnd(rhsBlock)
	rhs := c.Expr(n.Y)
	rhsEnd := c.Builder.GetInsertBlock()
	c.Builder.CreateBr(mergeBlock)

	c.Builder.SetInsertPointAtEnd(mergeBlock)
	phi := c.Builder.CreatePHI(c.I64, "")
	phi.AddIncoming([]llvm.Value{lhs, rhs}, []llvm.BasicBlock{startBlock, rhsEnd})
	return phi
}

func (c *Context) ternary(n *nyast.Ternary) llvm.Value {
	fn := c.fn
	cond := c.truthy(c.Expr(n.Cond))
	thenBlock := llvm.AddBasicBlock(fn, "")
	elseBlock := llvm.AddBasicBlock(fn, "")
	mergeBlock := llvm.AddBasicBlock(fn, "")
	c.Builder.CreateCondBr(cond, thenBlock, elseBlock)

	c.Builder.SetInsertPointAtEnd(thenBlock)
	thenVal := c.Expr(n.Then)
	thenEnd := c.Builder.GetInsertBlock()
	c.Builder.CreateBr(mergeBlock)

	c.Builder.SetInsertPointAtEnd(elseBlock)
	elseVal := c.Expr(n.Else)
	elseEnd := c.Builder.GetInsertBlock()
	c.Builder.CreateBr(mergeBlock)

	c.Builder.SetInsertPointAtEnd(mergeBlock)
	phi := c.Builder.CreatePHI(c.I64, "")
	phi.AddIncoming([]llvm.Value{thenVal, elseVal}, []llvm.BasicBlock{thenEnd, elseEnd})
	return phi
}

func (c *Context) index(n *nyast.Index) llvm.Value {
	target := c.Expr(n.Target)
	idx := c.Expr(n.Index)
	raw := c.untag(idx)
	scaled := c.Builder.CreateMul(raw, c.constI64(8), "")
	return c.callRuntime("__load64_idx", target, scaled)
}

func (c *Context) untag(v llvm.Value) llvm.Value {
	return c.Builder.CreateAShr(v, c.constI64(1), "")
}

func (c *Context) fstring(n *nyast.FString) llvm.Value {
	var acc llvm.Value
	for _, part := range n.Parts {
		var piece llvm.Value
		if part.Kind == nyast.FStringText {
			piece = c.constString(part.S)
		} else {
			piece = c.Expr(part.E)
		}
		if acc.IsNil() {
			acc = c.callRuntime("__to_str", piece)
			continue
		}
		acc = c.callRuntime("__str_concat", acc, piece)
	}
	if acc.IsNil() {
		return c.constString("")
	}
	return acc
}

func (c *Context) matchExpr(n *nyast.Match) llvm.Value {
	fn := c.fn
	subject := c.Expr(n.Subject)
	mergeBlock := llvm.AddBasicBlock(fn, "")

	var incomingVals []llvm.Value
	var incomingBlocks []llvm.BasicBlock
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
		v := c.Expr(arm.Conseq)
		incomingVals = append(incomingVals, v)
		incomingBlocks = append(incomingBlocks, c.Builder.GetInsertBlock())
		c.Builder.CreateBr(mergeBlock)

		c.Builder.SetInsertPointAtEnd(nextBlock)
	}

	c.Builder.SetInsertPointAtEnd(mergeBlock)
	phi := c.Builder.CreatePHI(c.I64, "")
	phi.AddIncoming(incomingVals, incomingBlocks)
	return phi
}
