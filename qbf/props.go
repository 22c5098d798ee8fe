package qbf

import "slices"

// IsConstant reports whether f is ⊤ or ⊥.
func IsConstant(f Formula) bool {
	_, ok := f.(Constant)
	return ok
}

// IsNegation reports whether f is a negation node.
func IsNegation(f Formula) bool {
	_, ok := f.(*Not)
	return ok
}

// IsQuantifier reports whether f is a ForAll or Exists node.
func IsQuantifier(f Formula) bool {
	_, ok := f.(Quantifier)
	return ok
}

// IsLiteral reports whether f is a variable or a negated variable.
func IsLiteral(f Formula) bool {
	switch f := f.(type) {
	case Variable:
		return true
	case *Not:
		_, ok := f.Sub.(Variable)
		return ok
	}
	return false
}

// IsClause reports whether f is a literal or a disjunction of
// literals.
func IsClause(f Formula) bool {
	if o, ok := f.(*Or); ok {
		for _, s := range o.Subs {
			if !IsLiteral(s) {
				return false
			}
		}
		return true
	}
	return IsLiteral(f)
}

// IsCNF reports whether f is a clause or a conjunction of clauses.
func IsCNF(f Formula) bool {
	if a, ok := f.(*And); ok {
		for _, s := range a.Subs {
			if !IsClause(s) {
				return false
			}
		}
		return true
	}
	return IsClause(f)
}

// IsNNF reports whether every negation in f applies directly to a
// variable.
func IsNNF(f Formula) bool {
	for sub := range Subformulas(f) {
		if n, ok := sub.(*Not); ok {
			if _, ok := n.Sub.(Variable); !ok {
				return false
			}
		}
	}
	return true
}

// IsPNF reports whether every quantifier of f belongs to its prefix.
func IsPNF(f Formula) bool {
	_, matrix := SplitPrefix(f)
	for sub := range Subformulas(matrix) {
		if IsQuantifier(sub) {
			return false
		}
	}
	return true
}

// Equal reports structural equality of two formulas. And/Or children
// are compared as ordered sequences; quantifier bindings are sets,
// which the canonical sorted encoding reduces to slice comparison.
func Equal(a, b Formula) bool {
	switch a := a.(type) {
	case Constant:
		b, ok := b.(Constant)
		return ok && a.Value == b.Value
	case Variable:
		b, ok := b.(Variable)
		return ok && a.Name == b.Name
	case *Not:
		b, ok := b.(*Not)
		return ok && Equal(a.Sub, b.Sub)
	case *And:
		b, ok := b.(*And)
		return ok && equalSubs(a.Subs, b.Subs)
	case *Or:
		b, ok := b.(*Or)
		return ok && equalSubs(a.Subs, b.Subs)
	case *ForAll:
		b, ok := b.(*ForAll)
		return ok && slices.Equal(a.Vars, b.Vars) && Equal(a.Sub, b.Sub)
	case *Exists:
		b, ok := b.(*Exists)
		return ok && slices.Equal(a.Vars, b.Vars) && Equal(a.Sub, b.Sub)
	}
	return false
}

func equalSubs(a, b []Formula) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
