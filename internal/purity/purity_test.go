package purity_test

import (
	"testing"

	"github.com/nytrix-lang/nytrix/internal/purity"
	"github.com/stretchr/testify/require"
)

func TestMutualRecursionSharesImpurity(t *testing.T) {
	g := purity.NewGraph()
	g.AddFunction("isEven", purity.Facts{Pure: true})
	g.AddFunction("isOdd", purity.Facts{Pure: true})
	g.AddFunction("log", purity.Facts{Pure: false, Effects: []string{"io"}})
	g.AddCall("isEven", "isOdd")
	g.AddCall("isOdd", "isEven")
	g.AddCall("isOdd", "log")

	facts := purity.Solve(g)
	require.False(t, facts["isEven"].Pure)
	require.Contains(t, facts["isEven"].Effects, "io")
	require.False(t, facts["isOdd"].Pure)
}

func TestPureLeafStaysPure(t *testing.T) {
	g := purity.NewGraph()
	g.AddFunction("add", purity.Facts{Pure: true})
	facts := purity.Solve(g)
	require.True(t, facts["add"].Pure)
	require.Empty(t, facts["add"].Effects)
}
