package qbf

import (
	"iter"
	"sync"
)

// Subformulas yields every descendant of f including f itself, in
// pre-order. Each call returns a fresh iterator over the same pure
// tree, so distinct goroutines may each range over their own.
func Subformulas(f Formula) iter.Seq[Formula] {
	return func(yield func(Formula) bool) {
		walk(f, yield)
	}
}

func walk(f Formula, yield func(Formula) bool) bool {
	if !yield(f) {
		return false
	}
	switch f := f.(type) {
	case *Not:
		return walk(f.Sub, yield)
	case *And:
		for _, s := range f.Subs {
			if !walk(s, yield) {
				return false
			}
		}
	case *Or:
		for _, s := range f.Subs {
			if !walk(s, yield) {
				return false
			}
		}
	case *ForAll:
		return walk(f.Sub, yield)
	case *Exists:
		return walk(f.Sub, yield)
	}
	return true
}

// Variables yields every occurrence of a variable atom in f, bound
// or free, in document order. Binding occurrences in quantifiers are
// not atoms and are not yielded.
func Variables(f Formula) iter.Seq[Variable] {
	return func(yield func(Variable) bool) {
		for sub := range Subformulas(f) {
			if v, ok := sub.(Variable); ok {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// FreeVariables yields the names of variables occurring outside the
// scope of a binding quantifier, each once, in order of first free
// occurrence.
func FreeVariables(f Formula) iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]bool)
		freeWalk(f, make(map[string]int), seen, yield)
	}
}

func freeWalk(f Formula, bound map[string]int, seen map[string]bool, yield func(string) bool) bool {
	switch f := f.(type) {
	case Variable:
		if bound[f.Name] == 0 && !seen[f.Name] {
			seen[f.Name] = true
			return yield(f.Name)
		}
	case *Not:
		return freeWalk(f.Sub, bound, seen, yield)
	case *And:
		for _, s := range f.Subs {
			if !freeWalk(s, bound, seen, yield) {
				return false
			}
		}
	case *Or:
		for _, s := range f.Subs {
			if !freeWalk(s, bound, seen, yield) {
				return false
			}
		}
	case *ForAll:
		return freeWalkQuant(f.Sub, f.Vars, bound, seen, yield)
	case *Exists:
		return freeWalkQuant(f.Sub, f.Vars, bound, seen, yield)
	}
	return true
}

func freeWalkQuant(body Formula, vars []string, bound map[string]int, seen map[string]bool, yield func(string) bool) bool {
	for _, v := range vars {
		bound[v]++
	}
	ok := freeWalk(body, bound, seen, yield)
	for _, v := range vars {
		bound[v]--
	}
	return ok
}

// FreeVariableSet collects the free variable names of f.
func FreeVariableSet(f Formula) map[string]bool {
	set := make(map[string]bool)
	for name := range FreeVariables(f) {
		set[name] = true
	}
	return set
}

// VariableSet collects every variable name occurring in f, as an
// atom or as a quantifier binding.
func VariableSet(f Formula) map[string]bool {
	set := make(map[string]bool)
	for sub := range Subformulas(f) {
		switch sub := sub.(type) {
		case Variable:
			set[sub.Name] = true
		case *ForAll:
			for _, v := range sub.Vars {
				set[v] = true
			}
		case *Exists:
			for _, v := range sub.Vars {
				set[v] = true
			}
		}
	}
	return set
}

// Prefix yields the maximal chain of quantifier nodes starting at
// the root, outermost first. It stops at the first non-quantifier.
func Prefix(f Formula) iter.Seq[Quantifier] {
	return func(yield func(Quantifier) bool) {
		for {
			q, ok := f.(Quantifier)
			if !ok {
				return
			}
			if !yield(q) {
				return
			}
			f = q.Body()
		}
	}
}

// WalkParallel feeds every subformula of f to visit from a pool of
// worker goroutines. The multiset of visited nodes equals the one
// Subformulas yields sequentially; the order does not. visit must be
// safe for concurrent use. workers below 1 is treated as 1.
func WalkParallel(f Formula, workers int, visit func(Formula)) {
	if workers < 1 {
		workers = 1
	}
	nodes := make(chan Formula, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for sub := range nodes {
				visit(sub)
			}
		}()
	}
	for sub := range Subformulas(f) {
		nodes <- sub
	}
	close(nodes)
	wg.Wait()
}
