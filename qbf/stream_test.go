package qbf

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubformulasPreOrder(t *testing.T) {
	f := and(neg(v("a")), or(v("b"), v("c")))
	var visited []string
	for sub := range Subformulas(f) {
		visited = append(visited, sub.String())
	}
	assert.Equal(t, []string{"(¬a ∧ (b ∨ c))", "¬a", "a", "(b ∨ c)", "b", "c"}, visited)
}

func TestSubformulasStopsWhenAsked(t *testing.T) {
	f := forall(and(v("a"), v("b")), "a")
	count := 0
	for range Subformulas(f) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestVariablesYieldsOccurrences(t *testing.T) {
	f := forall(and(v("x"), neg(v("x")), v("y")), "x", "z")
	var names []string
	for occ := range Variables(f) {
		names = append(names, occ.Name)
	}
	// binding occurrences of x and z are not atoms
	assert.Equal(t, []string{"x", "x", "y"}, names)
}

func TestFreeVariables(t *testing.T) {
	tests := []struct {
		name     string
		f        Formula
		expected []string
	}{
		{"no binders", and(v("a"), v("b")), []string{"a", "b"}},
		{"bound excluded", exists(and(v("x"), v("y")), "x"), []string{"y"}},
		{"free and bound same name", and(v("x"), forall(v("x"), "x")), []string{"x"}},
		{"shadowing", forall(exists(v("x"), "x"), "x"), nil},
		{"deduplicated", or(v("a"), v("a")), []string{"a"}},
		{"closed", forall(exists(or(v("x"), v("y")), "y"), "x"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var names []string
			for name := range FreeVariables(tt.f) {
				names = append(names, name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestVariableSetIncludesBindings(t *testing.T) {
	f := forall(v("x"), "x", "unused")
	assert.Equal(t, map[string]bool{"x": true, "unused": true}, VariableSet(f))
}

func TestPrefix(t *testing.T) {
	matrix := and(v("a"), exists(v("b"), "b"))
	f := forall(exists(matrix, "y"), "x")
	var kinds []Kind
	var bound [][]string
	for q := range Prefix(f) {
		kinds = append(kinds, q.Kind())
		bound = append(bound, q.Bound())
	}
	// the inner ∃b is below the matrix, not part of the prefix
	assert.Equal(t, []Kind{Universal, Existential}, kinds)
	assert.Equal(t, [][]string{{"x"}, {"y"}}, bound)
}

func TestPrefixEmptyOnUnquantifiedRoot(t *testing.T) {
	for range Prefix(and(v("a"), forall(v("x"), "x"))) {
		t.Fatal("prefix of an unquantified root must be empty")
	}
}

func TestWalkParallelMatchesSequentialMultiset(t *testing.T) {
	f := forall(
		and(
			or(v("a"), neg(v("b")), v("c")),
			exists(or(and(v("d"), v("e")), neg(v("a"))), "d"),
			neg(or(v("b"), v("c"))),
		),
		"a", "b",
	)
	var sequential []string
	for sub := range Subformulas(f) {
		sequential = append(sequential, sub.String())
	}

	for _, workers := range []int{1, 4, 16} {
		var mu sync.Mutex
		var parallel []string
		WalkParallel(f, workers, func(sub Formula) {
			mu.Lock()
			parallel = append(parallel, sub.String())
			mu.Unlock()
		})
		require.Len(t, parallel, len(sequential))
		wantSorted := append([]string(nil), sequential...)
		sort.Strings(wantSorted)
		sort.Strings(parallel)
		assert.Equal(t, wantSorted, parallel, "workers=%d", workers)
	}
}

func TestStreamsAreReproducible(t *testing.T) {
	f := exists(or(v("x"), v("y")), "x")
	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for sub := range Subformulas(f) {
				results[i] = append(results[i], sub.String())
			}
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i])
	}
}
