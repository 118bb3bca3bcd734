package resolve_test

import (
	"testing"

	"github.com/nytrix-lang/nytrix/internal/resolve"
	"github.com/nytrix-lang/nytrix/internal/symtab"
	"github.com/stretchr/testify/require"
)

func TestCurrentModuleBeatsStdlibPrefix(t *testing.T) {
	tbl := symtab.New()
	tbl.CurrentModule = "app"
	tbl.AddFunSig(symtab.FunSig{Name: "app.greet", Arity: 1})
	tbl.AddFunSig(symtab.FunSig{Name: "std.core.greet", Arity: 1})

	sig, ok := resolve.Resolve(tbl, "greet", 1)
	require.True(t, ok)
	require.Equal(t, "app.greet", sig.Name)
}

func TestStdlibFallback(t *testing.T) {
	tbl := symtab.New()
	tbl.AddFunSig(symtab.FunSig{Name: "std.io.print", Arity: 1})

	sig, ok := resolve.Resolve(tbl, "print", 1)
	require.True(t, ok)
	require.Equal(t, "std.io.print", sig.Name)
}

func TestImportAliasRewrite(t *testing.T) {
	tbl := symtab.New()
	tbl.AddImportAlias("coll", "std.collections")
	tbl.AddFunSig(symtab.FunSig{Name: "std.collections.push", Arity: 2})

	sig, ok := resolve.Resolve(tbl, "coll.push", 2)
	require.True(t, ok)
	require.Equal(t, "std.collections.push", sig.Name)
}

func TestOverloadScoringPrefersExactArity(t *testing.T) {
	tbl := symtab.New()
	tbl.AddFunSig(symtab.FunSig{Name: "f", Arity: 1, IsVariadic: true})
	tbl.AddFunSig(symtab.FunSig{Name: "f", Arity: 2})

	sig, ok := resolve.Resolve(tbl, "f", 2)
	require.True(t, ok)
	require.Equal(t, 2, sig.Arity)
	require.False(t, sig.IsVariadic)
}

func TestLocalShortCircuits(t *testing.T) {
	tbl := symtab.New()
	tbl.Bind("cb")
	tbl.AddFunSig(symtab.FunSig{Name: "cb", Arity: 0})

	sig, ok := resolve.Resolve(tbl, "cb", 0)
	require.True(t, ok)
	require.Nil(t, sig)
}

func TestUseModuleFallback(t *testing.T) {
	tbl := symtab.New()
	tbl.AddUseModule("std.math")
	tbl.AddFunSig(symtab.FunSig{Name: "std.math.sqrt", Arity: 1})

	sig, ok := resolve.Resolve(tbl, "sqrt", 1)
	require.True(t, ok)
	require.Equal(t, "std.math.sqrt", sig.Name)
}
