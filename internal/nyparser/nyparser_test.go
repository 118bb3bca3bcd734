package nyparser_test

import (
	"testing"

	"github.com/nytrix-lang/nytrix/internal/nyast"
	"github.com/nytrix-lang/nytrix/internal/nyparser"
	"github.com/stretchr/testify/require"
)

func parseOK(t *testing.T, src string) *nyast.Module {
	t.Helper()
	p := nyparser.New(src, "<test>")
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "unexpected parse errors for %q", src)
	return prog
}

func TestParseVarDecl(t *testing.T) {
	prog := parseOK(t, "var x = 1 + 2;")
	require.Len(t, prog.Body, 1)
	v, ok := prog.Body[0].(*nyast.Var)
	require.True(t, ok)
	require.Equal(t, "x", v.Name)
	bin, ok := v.Value.(*nyast.Binary)
	require.True(t, ok)
	require.Equal(t, "+", bin.Op)
}

func TestParseIfElseIfChainNestsAsIf(t *testing.T) {
	prog := parseOK(t, `
		if a {
			x;
		} else if b {
			y;
		} else {
			z;
		}
	`)
	require.Len(t, prog.Body, 1)
	top, ok := prog.Body[0].(*nyast.If)
	require.True(t, ok)
	elif, ok := top.Else.(*nyast.If)
	require.True(t, ok, "else-if should lower to a nested *nyast.If")
	require.NotNil(t, elif.Else)
}

func TestParseFuncWithReturn(t *testing.T) {
	prog := parseOK(t, `
		fn add(a, b) {
			return a + b;
		}
	`)
	require.Len(t, prog.Body, 1)
	fn, ok := prog.Body[0].(*nyast.Func)
	require.True(t, ok)
	require.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	require.Len(t, fn.Body.Stmts, 1)
	_, ok = fn.Body.Stmts[0].(*nyast.Return)
	require.True(t, ok)
}

func TestParseWhileLoop(t *testing.T) {
	prog := parseOK(t, `
		while x < 10 {
			x = x + 1;
		}
	`)
	w, ok := prog.Body[0].(*nyast.While)
	require.True(t, ok)
	_, ok = w.Cond.(*nyast.Binary)
	require.True(t, ok)
}

func TestParseForLoop(t *testing.T) {
	prog := parseOK(t, `
		for item in items {
			use_item(item);
		}
	`)
	f, ok := prog.Body[0].(*nyast.For)
	require.True(t, ok)
	require.Equal(t, "item", f.Var)
}

func TestParseTryCatchFinally(t *testing.T) {
	prog := parseOK(t, `
		try {
			risky();
		} catch err {
			handle(err);
		} finally {
			cleanup();
		}
	`)
	tr, ok := prog.Body[0].(*nyast.Try)
	require.True(t, ok)
	require.Len(t, tr.Arms, 1)
	require.NotNil(t, tr.Finally)
}

func TestParseMatchStmt(t *testing.T) {
	prog := parseOK(t, `
		match x {
			1, 2 => a();
			_ => b();
		}
	`)
	m, ok := prog.Body[0].(*nyast.MatchStmt)
	require.True(t, ok)
	require.Len(t, m.Arms, 2)
	require.Len(t, m.Arms[0].Patterns, 2)
}

func TestParseModuleUseExport(t *testing.T) {
	prog := parseOK(t, `
		module mymod {
			use std.collections { List, Map as M };
			export foo, bar;
		}
	`)
	mod, ok := prog.Body[0].(*nyast.Module)
	require.True(t, ok)
	require.Equal(t, "mymod", mod.Name)
	require.Len(t, mod.Body, 2)

	use, ok := mod.Body[0].(*nyast.Use)
	require.True(t, ok)
	require.Equal(t, "std.collections", use.Module)
	require.Len(t, use.Items, 2)
	require.Equal(t, "M", use.Items[1].Alias)

	export, ok := mod.Body[1].(*nyast.Export)
	require.True(t, ok)
	require.Equal(t, []string{"foo", "bar"}, export.Names)
}

func TestParseLayout(t *testing.T) {
	prog := parseOK(t, `
		layout Point {
			x: 8,
			y: 8,
		}
	`)
	l, ok := prog.Body[0].(*nyast.Layout)
	require.True(t, ok)
	require.Equal(t, "Point", l.Name)
	require.Len(t, l.Fields, 2)
	require.Equal(t, 8, l.Fields[0].Width)
}

func TestParseLambdaExpr(t *testing.T) {
	prog := parseOK(t, "var f = |a, b| a + b;")
	v := prog.Body[0].(*nyast.Var)
	lam, ok := v.Value.(*nyast.Lambda)
	require.True(t, ok)
	require.Len(t, lam.Params, 2)
	require.False(t, lam.IsBlock)
}

func TestParseFStringLiteral(t *testing.T) {
	prog := parseOK(t, `var s = f"hello {name}!";`)
	v := prog.Body[0].(*nyast.Var)
	_, ok := v.Value.(*nyast.FString)
	require.True(t, ok)
}

func TestParseTernaryAndLogical(t *testing.T) {
	prog := parseOK(t, "var x = a && b ? c : d;")
	v := prog.Body[0].(*nyast.Var)
	tern, ok := v.Value.(*nyast.Ternary)
	require.True(t, ok)
	_, ok = tern.Cond.(*nyast.Logical)
	require.True(t, ok)
}

func TestParseBreakContinueWithLabel(t *testing.T) {
	prog := parseOK(t, `
		while true {
			break outer;
			continue outer;
		}
	`)
	w := prog.Body[0].(*nyast.While)
	brk, ok := w.Body.(*nyast.Block).Stmts[0].(*nyast.Break)
	require.True(t, ok)
	require.Equal(t, "outer", brk.Label)
	cont, ok := w.Body.(*nyast.Block).Stmts[1].(*nyast.Continue)
	require.True(t, ok)
	require.Equal(t, "outer", cont.Label)
}

func TestParseGotoAndLabel(t *testing.T) {
	prog := parseOK(t, `
		start:
		x = x + 1;
		goto start;
	`)
	require.Len(t, prog.Body, 2)
	lbl, ok := prog.Body[0].(*nyast.LabelStmt)
	require.True(t, ok)
	require.Equal(t, "start", lbl.Name)
	_, ok = prog.Body[1].(*nyast.Goto)
	require.True(t, ok)
}

func TestParseErrorRecoveryReportsAndContinues(t *testing.T) {
	p := nyparser.New("var x = ;\nvar y = 2;", "<test>")
	prog := p.ParseProgram()
	require.NotEmpty(t, p.Errors())
	require.NotEmpty(t, prog.Body)
}
