package pnf

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crillab/goqbf/qbf"
)

func v(name string) qbf.Formula { return qbf.Variable{Name: name} }

func neg(f qbf.Formula) qbf.Formula { return &qbf.Not{Sub: f} }

func and(subs ...qbf.Formula) qbf.Formula {
	f, err := qbf.NewAnd(subs...)
	if err != nil {
		panic(err)
	}
	return f
}

func or(subs ...qbf.Formula) qbf.Formula {
	f, err := qbf.NewOr(subs...)
	if err != nil {
		panic(err)
	}
	return f
}

func forall(body qbf.Formula, vars ...string) qbf.Formula {
	f, err := qbf.NewForAll(body, vars...)
	if err != nil {
		panic(err)
	}
	return f
}

func exists(body qbf.Formula, vars ...string) qbf.Formula {
	f, err := qbf.NewExists(body, vars...)
	if err != nil {
		panic(err)
	}
	return f
}

func all() []Strategy {
	return []Strategy{
		ForAllDownExistsUp,
		ExistsDownForAllUp,
		ForAllUpExistsUp,
		ForAllDownExistsDown,
	}
}

func toPNF(t *testing.T, f qbf.Formula, s Strategy) qbf.Formula {
	t.Helper()
	got, err := ToPNF(context.Background(), f, s)
	require.NoError(t, err)
	return got
}

func TestToPNFHoistsSiblingsLeftToRight(t *testing.T) {
	f := and(forall(v("x"), "x"), exists(v("y"), "y"))
	expected := forall(exists(and(v("x"), v("y")), "y"), "x")
	got := toPNF(t, f, ForAllUpExistsUp)
	assert.True(t, qbf.Equal(expected, got), cmp.Diff(expected, got))
}

func TestToPNFHoistIsForcedByDisjunction(t *testing.T) {
	f := or(forall(v("x"), "x"), v("y"))
	expected := forall(or(v("x"), v("y")), "x")
	got := toPNF(t, f, ForAllDownExistsDown)
	assert.True(t, qbf.Equal(expected, got), cmp.Diff(expected, got))
}

func TestToPNFMergesSameKindSiblings(t *testing.T) {
	f := and(exists(v("a"), "a"), forall(v("b"), "b"), exists(v("c"), "c"))
	expected := exists(forall(and(v("a"), v("b"), v("c")), "b"), "a", "c")
	for _, s := range all() {
		got := toPNF(t, f, s)
		assert.True(t, qbf.Equal(expected, got), "%s: %s", s, cmp.Diff(expected, got))
	}
}

func TestToPNFMergesNestedSameKind(t *testing.T) {
	f := and(exists(exists(and(v("a"), v("b")), "b"), "a"), v("c"))
	expected := exists(and(v("a"), v("b"), v("c")), "a", "b")
	got := toPNF(t, f, ForAllUpExistsUp)
	assert.True(t, qbf.Equal(expected, got), cmp.Diff(expected, got))
}

func TestToPNFStrategiesDisagreeOnDeepAlternation(t *testing.T) {
	// The last conjunct carries ∃y below two universals, so its path
	// reads nQPath=0, nCritical=2 and the ∃-down strategies keep y at
	// a new innermost level while the ∃-up strategies merge it into
	// the existing existential block.
	f := and(
		forall(v("p"), "p"),
		exists(v("z"), "z"),
		exists(forall(and(v("t"), v("u")), "u"), "t"),
		forall(forall(exists(and(v("s"), v("y")), "y"), "s"), "r"),
	)
	matrix := and(v("p"), v("z"), v("t"), v("u"), v("s"), v("y"))

	raised := qbf.JoinPrefix([]qbf.Level{
		{Kind: qbf.Universal, Vars: []string{"p", "r", "s"}},
		{Kind: qbf.Existential, Vars: []string{"t", "y", "z"}},
		{Kind: qbf.Universal, Vars: []string{"u"}},
	}, matrix)
	kept := qbf.JoinPrefix([]qbf.Level{
		{Kind: qbf.Universal, Vars: []string{"p", "r", "s"}},
		{Kind: qbf.Existential, Vars: []string{"t", "z"}},
		{Kind: qbf.Universal, Vars: []string{"u"}},
		{Kind: qbf.Existential, Vars: []string{"y"}},
	}, matrix)

	for _, s := range []Strategy{ForAllDownExistsUp, ForAllUpExistsUp} {
		got := toPNF(t, f, s)
		assert.True(t, qbf.Equal(raised, got), "%s: %s", s, cmp.Diff(raised, got))
	}
	for _, s := range []Strategy{ExistsDownForAllUp, ForAllDownExistsDown} {
		got := toPNF(t, f, s)
		assert.True(t, qbf.Equal(kept, got), "%s: %s", s, cmp.Diff(kept, got))
	}
}

func TestToPNFUnchangedOnPrenexInput(t *testing.T) {
	inputs := []qbf.Formula{
		v("x"),
		and(v("a"), neg(v("b"))),
		forall(exists(or(v("x"), v("y")), "y"), "x"),
		exists(and(v("a"), or(v("b"), neg(v("a")))), "a", "b"),
	}
	for _, f := range inputs {
		for _, s := range all() {
			got := toPNF(t, f, s)
			assert.True(t, got == f, "%s must return a PNF input unchanged, got %s", s, got)
		}
	}
}

func TestToPNFIdempotent(t *testing.T) {
	inputs := []qbf.Formula{
		and(forall(v("x"), "x"), exists(v("y"), "y")),
		or(exists(and(v("a"), forall(v("b"), "b")), "a"), neg(v("c"))),
		exists(forall(forall(forall(and(v("e"), exists(v("y"), "y")), "c"), "b"), "a"), "e"),
	}
	for _, f := range inputs {
		for _, s := range all() {
			once := toPNF(t, f, s)
			twice := toPNF(t, once, s)
			assert.True(t, once == twice, "%s is not idempotent on %s", s, f)
		}
	}
}

func TestToPNFResultIsPrenex(t *testing.T) {
	inputs := []qbf.Formula{
		and(forall(v("x"), "x"), exists(v("y"), "y")),
		or(exists(and(v("a"), forall(v("b"), "b")), "a"), neg(v("c"))),
		and(exists(v("x"), "x"), exists(neg(v("x")), "x"), forall(v("z"), "z")),
	}
	for _, f := range inputs {
		for _, s := range all() {
			got := toPNF(t, f, s)
			assert.True(t, qbf.IsPNF(got), "%s(%s) = %s is not in PNF", s, f, got)
		}
	}
}

func TestToPNFRenamesCapturedSiblings(t *testing.T) {
	f := and(exists(v("x"), "x"), exists(neg(v("x")), "x"))
	expected := exists(and(v("x"), neg(v("x_1"))), "x", "x_1")
	got := toPNF(t, f, ForAllUpExistsUp)
	assert.True(t, qbf.Equal(expected, got), cmp.Diff(expected, got))
}

func TestToPNFRenamesBindersCollidingWithFreeVariables(t *testing.T) {
	f := and(v("x"), exists(v("x"), "x"))
	expected := exists(and(v("x"), v("x_1")), "x_1")
	got := toPNF(t, f, ForAllUpExistsUp)
	assert.True(t, qbf.Equal(expected, got), cmp.Diff(expected, got))
}

func TestToPNFPreservesFreeVariables(t *testing.T) {
	inputs := []qbf.Formula{
		and(v("x"), exists(v("x"), "x")),
		or(forall(or(v("a"), v("free")), "a"), exists(and(v("b"), v("free")), "b")),
		and(exists(v("x"), "x"), exists(neg(v("x")), "x")),
	}
	for _, f := range inputs {
		for _, s := range all() {
			got := toPNF(t, f, s)
			assert.Equal(t, qbf.FreeVariableSet(f), qbf.FreeVariableSet(got), "%s on %s", s, f)
		}
	}
}

func TestToPNFQuantifiersUnderNegationStay(t *testing.T) {
	// not reachable from NNF input; the hoister leaves them alone
	f := neg(forall(v("x"), "x"))
	got := toPNF(t, f, ForAllUpExistsUp)
	assert.True(t, got == f)
}

func TestToPNFCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := ToPNF(ctx, and(forall(v("x"), "x"), v("y")), ForAllUpExistsUp)
	assert.ErrorIs(t, err, qbf.ErrCancelled)
	assert.Nil(t, got)
}

func TestStrategyNames(t *testing.T) {
	for name, s := range Strategies {
		assert.Equal(t, name, s.String())
	}
	assert.Len(t, Strategies, 4)
}
