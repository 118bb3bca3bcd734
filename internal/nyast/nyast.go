// Package nyast defines the Ny language AST the code generator consumes:
// a dynamically-typed expression/statement tree (no type-annotation
// nodes, since Ny has no static type system beyond literal shape), node
// kinds and field layouts grounded directly in the original compiler's
// ast.h. Positions reuse the lexer's Span the same way the teacher's AST
// package does, so diagnostics format identically regardless of which
// language's front end produced the node.
package nyast

import "github.com/nytrix-lang/nytrix/internal/lexer"

// Node is any AST node with an associated source span.
type Node interface {
	Span() lexer.Span
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

type base struct{ span lexer.Span }

func (b base) Span() lexer.Span { return b.span }

// SetSpan lets constructors outside this package (the parser) stamp a
// node's span after building it with a plain composite literal, since the
// embedded base field itself is unexported.
func (b *base) SetSpan(s lexer.Span) { b.span = s }

// --- Literals ---

// LiteralKind distinguishes the five literal shapes ast.h enumerates.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitBool
	LitStr
	LitNone
)

type Literal struct {
	base
	Kind LiteralKind
	I    int64
	F    float64
	B    bool
	S    string
}

func (*Literal) exprNode() {}

func NewLiteralInt(v int64, span lexer.Span) *Literal {
	return &Literal{base: base{span}, Kind: LitInt, I: v}
}

func NewLiteralFloat(v float64, span lexer.Span) *Literal {
	return &Literal{base: base{span}, Kind: LitFloat, F: v}
}

func NewLiteralBool(v bool, span lexer.Span) *Literal {
	return &Literal{base: base{span}, Kind: LitBool, B: v}
}

func NewLiteralStr(v string, span lexer.Span) *Literal {
	return &Literal{base: base{span}, Kind: LitStr, S: v}
}

func NewLiteralNone(span lexer.Span) *Literal {
	return &Literal{base: base{span}, Kind: LitNone}
}

// --- Identifiers ---

type Ident struct {
	base
	Name string
}

func (*Ident) exprNode() {}

func NewIdent(name string, span lexer.Span) *Ident { return &Ident{base: base{span}, Name: name} }

// --- Operators ---

type Unary struct {
	base
	Op string
	X  Expr
}

func (*Unary) exprNode() {}

type Binary struct {
	base
	Op   string
	X, Y Expr
}

func (*Binary) exprNode() {}

type Logical struct {
	base
	Op   string // "&&" or "||", short-circuiting
	X, Y Expr
}

func (*Logical) exprNode() {}

// Assign is `target = value`; target is an Ident or Index expression.
type Assign struct {
	base
	Target Expr
	Value  Expr
}

func (*Assign) exprNode() {}

type Ternary struct {
	base
	Cond, Then, Else Expr
}

func (*Ternary) exprNode() {}

// --- Calls ---

// CallArg is one call argument, possibly named (`f(x: 1)`).
type CallArg struct {
	Name string
	Val  Expr
}

type Call struct {
	base
	Callee Expr
	Args   []CallArg
}

func (*Call) exprNode() {}

// MemCall is `target.name(args...)`: a method-style call whose receiver
// is implicitly passed as the first argument at codegen time.
type MemCall struct {
	base
	Target Expr
	Name   string
	Args   []CallArg
}

func (*MemCall) exprNode() {}

type Index struct {
	base
	Target, Index Expr
}

func (*Index) exprNode() {}

// InferredMember is `.Name` with the target type inferred from context
// (e.g. an enum literal shorthand).
type InferredMember struct {
	base
	Name string
}

func (*InferredMember) exprNode() {}

// --- Functions and closures ---

type Param struct {
	Name string
	Type string // optional type annotation text; Ny does not enforce it
	Def  Expr   // default value, or nil
}

type Lambda struct {
	base
	Params   []Param
	Body     Expr
	IsBlock  bool // body is a Block statement rather than a single expr
	BlockBody *Block
}

func (*Lambda) exprNode() {}

// Fn is a named function literal used as an expression (first-class
// function value distinct from a top-level FuncStmt).
type Fn struct {
	base
	Name   string
	Params []Param
	Body   *Block
}

func (*Fn) exprNode() {}

// --- Collections ---

type List struct {
	base
	Elems []Expr
}

func (*List) exprNode() {}

type Tuple struct {
	base
	Elems []Expr
}

func (*Tuple) exprNode() {}

type DictPair struct {
	Key, Value Expr
}

type Dict struct {
	base
	Pairs []DictPair
}

func (*Dict) exprNode() {}

type Set struct {
	base
	Elems []Expr
}

func (*Set) exprNode() {}

// --- Escape hatches ---

// Asm is an inline-assembly expression, passed through to LLVM as a
// module-level inline asm string.
type Asm struct {
	base
	Constraint string
	Body       string
	Operands   []Expr
}

func (*Asm) exprNode() {}

// Comptime marks an expression to be evaluated at compile time (subject
// to the builtin comptime deny-list in internal/symtab).
type Comptime struct {
	base
	X Expr
}

func (*Comptime) exprNode() {}

// FStringPartKind distinguishes a literal text run from an interpolated
// expression inside an f-string.
type FStringPartKind int

const (
	FStringText FStringPartKind = iota
	FStringExpr
)

type FStringPart struct {
	Kind FStringPartKind
	S    string
	E    Expr
}

type FString struct {
	base
	Parts []FStringPart
}

func (*FString) exprNode() {}

// Embed inlines the contents of a file (resolved at compile time) as a
// constant string expression.
type Embed struct {
	base
	Path string
}

func (*Embed) exprNode() {}

// --- Match ---

type MatchArm struct {
	Patterns []Expr
	Conseq   Expr
}

type Match struct {
	base
	Subject Expr
	Arms    []MatchArm
}

func (*Match) exprNode() {}
