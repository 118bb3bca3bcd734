package symtab_test

import (
	"testing"

	"github.com/nytrix-lang/nytrix/internal/symtab"
	"github.com/stretchr/testify/require"
)

func TestFunSigShadowing(t *testing.T) {
	tab := symtab.New()
	tab.AddFunSig(symtab.FunSig{Name: "add", Arity: 2})
	tab.AddFunSig(symtab.FunSig{Name: "add", Arity: 3})

	sig, ok := tab.FindExact("add")
	require.True(t, ok)
	require.Equal(t, 3, sig.Arity, "later registration should shadow the earlier one")

	_, ok = tab.FindExact("missing")
	require.False(t, ok)
}

func TestScopeBindingIsLexical(t *testing.T) {
	tab := symtab.New()
	tab.Bind("outer")
	tab.PushScope()
	tab.Bind("inner")
	require.True(t, tab.IsLocal("outer"))
	require.True(t, tab.IsLocal("inner"))
	tab.PopScope()
	require.True(t, tab.IsLocal("outer"))
	require.False(t, tab.IsLocal("inner"))
}

func TestImportAliasResolution(t *testing.T) {
	tab := symtab.New()
	tab.AddImportAlias("coll", "std.collections")
	full, ok := tab.ResolveImportAlias("coll")
	require.True(t, ok)
	require.Equal(t, "std.collections", full)

	_, ok = tab.ResolveImportAlias("nope")
	require.False(t, ok)
}

func TestExports(t *testing.T) {
	tab := symtab.New()
	require.False(t, tab.IsExported("dup"))
	tab.AddExport("dup")
	require.True(t, tab.IsExported("dup"))
	require.False(t, tab.IsExported("other"))
}

func TestIntern(t *testing.T) {
	tab := symtab.New()
	a := tab.Intern("hello")
	b := tab.Intern("world")
	c := tab.Intern("hello")
	require.Equal(t, a, c, "repeated literal text should reuse the same id")
	require.NotEqual(t, a, b)
}
