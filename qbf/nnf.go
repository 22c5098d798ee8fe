package qbf

import (
	"context"
	"slices"

	"github.com/samber/lo"
)

// ToNNF pushes every negation down to the variables, using the
// De Morgan laws, quantifier duality, double negation elimination and
// constant negation. The result contains Not nodes only directly
// above variables. ToNNF is pure and idempotent.
//
// The rewrite runs top-down over the kernel: nnfStep pushes a
// negation one level inwards, the recursion into the replacement's
// children pushes the residual negations the rest of the way. Each
// step strictly reduces the depth at which a negation occurs, so the
// rewrite terminates.
func ToNNF(f Formula) Formula {
	out, err := RewriteTopDown(context.Background(), f, nnfStep)
	if err != nil {
		// nnfStep never fails and the background context never
		// fires.
		panic(err)
	}
	return out
}

func nnfStep(f Formula) (Formula, error) {
	n, ok := f.(*Not)
	if !ok {
		return f, nil
	}
	switch sub := n.Sub.(type) {
	case Constant:
		if sub.Value {
			return False, nil
		}
		return True, nil
	case Variable:
		return n, nil
	case *Not:
		return nnfStep(sub.Sub)
	case *And:
		return Disjunction(lo.Map(sub.Subs, negated)), nil
	case *Or:
		return Conjunction(lo.Map(sub.Subs, negated)), nil
	case *ForAll:
		return &Exists{Sub: &Not{Sub: sub.Sub}, Vars: sub.Vars}, nil
	case *Exists:
		return &ForAll{Sub: &Not{Sub: sub.Sub}, Vars: sub.Vars}, nil
	default:
		return f, nil
	}
}

func negated(f Formula, _ int) Formula {
	return &Not{Sub: f}
}

// A Level is one quantifier block of a prefix.
type Level struct {
	Kind Kind
	Vars []string
}

// SplitPrefix separates the maximal chain of quantifiers at the root
// of f from its matrix, the first non-quantifier descendant along
// that chain. The returned levels are ordered outermost first; for a
// quantifier-free formula the levels are empty and the matrix is f.
func SplitPrefix(f Formula) ([]Level, Formula) {
	var levels []Level
	for q := range Prefix(f) {
		levels = append(levels, Level{Kind: q.Kind(), Vars: q.Bound()})
		f = q.Body()
	}
	return levels, f
}

// JoinPrefix rebuilds a formula from prefix levels and a matrix, the
// inverse of SplitPrefix. Levels must carry canonical binding sets,
// as produced by SplitPrefix or the prenexing machinery; levels
// binding no variables are skipped.
func JoinPrefix(levels []Level, matrix Formula) Formula {
	f := matrix
	for i := len(levels) - 1; i >= 0; i-- {
		if len(levels[i].Vars) == 0 {
			continue
		}
		f = newQuantifier(levels[i].Kind, f, levels[i].Vars)
	}
	return f
}

// Skeleton strips the prefix of f and returns the matrix. Inner
// quantifiers below the first non-quantifier node are left in place.
func Skeleton(f Formula) Formula {
	_, matrix := SplitPrefix(f)
	return matrix
}

// Rename substitutes the variable name from by to in every free
// occurrence inside f. Subtrees whose root re-binds from are left
// untouched. The caller must pick a name to that does not occur in f,
// otherwise the substitution captures.
func Rename(f Formula, from, to string) Formula {
	switch f := f.(type) {
	case Variable:
		if f.Name == from {
			return Variable{Name: to}
		}
		return f
	case *Not:
		if sub := Rename(f.Sub, from, to); sub != f.Sub {
			return &Not{Sub: sub}
		}
		return f
	case *And:
		subs, changed := renameSubs(f.Subs, from, to)
		if changed {
			return &And{Subs: subs}
		}
		return f
	case *Or:
		subs, changed := renameSubs(f.Subs, from, to)
		if changed {
			return &Or{Subs: subs}
		}
		return f
	case *ForAll:
		if slices.Contains(f.Vars, from) {
			return f
		}
		if sub := Rename(f.Sub, from, to); sub != f.Sub {
			return &ForAll{Sub: sub, Vars: f.Vars}
		}
		return f
	case *Exists:
		if slices.Contains(f.Vars, from) {
			return f
		}
		if sub := Rename(f.Sub, from, to); sub != f.Sub {
			return &Exists{Sub: sub, Vars: f.Vars}
		}
		return f
	default:
		return f
	}
}

func renameSubs(subs []Formula, from, to string) ([]Formula, bool) {
	out := make([]Formula, len(subs))
	changed := false
	for i, s := range subs {
		out[i] = Rename(s, from, to)
		if out[i] != s {
			changed = true
		}
	}
	return out, changed
}
