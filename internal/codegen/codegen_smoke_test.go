package codegen_test

import (
	"strings"
	"testing"

	"github.com/nytrix-lang/nytrix/internal/codegen"
	"github.com/nytrix-lang/nytrix/internal/config"
	"github.com/nytrix-lang/nytrix/internal/diag"
	"github.com/nytrix-lang/nytrix/internal/nyparser"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) *codegen.Driver {
	t.Helper()
	p := nyparser.New(src, "<test>")
	prog := p.ParseProgram()
	require.Empty(t, p.Errors())

	d, err := codegen.NewDriver("<test>", config.FromEnv(), diag.NewSink(diag.BudgetQuiet))
	require.NoError(t, err)
	d.CompileModule(prog)
	return d
}

func TestCompileModuleEmitsScriptTop(t *testing.T) {
	d := compile(t, `
		fn add(a, b) {
			return a + b;
		}
		var x = add(1, 2);
	`)
	ir := d.Module.String()
	require.Contains(t, ir, "define i64 @__script_top")
	require.Contains(t, ir, "@add")
}

func TestCompileModuleLowersGotoAsBranch(t *testing.T) {
	d := compile(t, `
		var i = 0;
		start:
		i = i + 1;
		goto start;
	`)
	ir := d.Module.String()
	require.Contains(t, ir, "start:")
	require.Contains(t, ir, "br label %start")
}

func TestCompileModuleLowersMemCallViaTypedPrefixCascade(t *testing.T) {
	d := compile(t, `
		fn list_push(l, v) {
			return v;
		}
		var l = 0;
		l.push(1);
	`)
	ir := d.Module.String()
	require.Contains(t, ir, "call i64 @list_push")
}

func TestCompileModuleLowersMemCallFallsBackToUnqualifiedName(t *testing.T) {
	d := compile(t, `
		fn push(l, v) {
			return v;
		}
		var l = 0;
		l.push(1);
	`)
	ir := d.Module.String()
	require.Contains(t, ir, "call i64 @push")
}

func TestCompileModuleLowersLayoutAccessors(t *testing.T) {
	d := compile(t, `
		layout Point {
			x: 8,
			y: 8,
		}
	`)
	ir := d.Module.String()
	require.True(t, strings.Contains(ir, "@\"Point.x\"") || strings.Contains(ir, "@Point.x"))
	require.True(t, strings.Contains(ir, "@\"Point.x=\"") || strings.Contains(ir, "@Point.x="))
}
