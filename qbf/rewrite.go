package qbf

import (
	"context"
	"errors"
	"fmt"
)

// ErrCancelled is returned when a rewrite is interrupted by its
// context. No partial formula is returned alongside it.
var ErrCancelled = errors.New("rewrite cancelled")

// A RewriteFunc maps a node, whose children have already been
// rewritten for the bottom-up direction, to its replacement.
type RewriteFunc func(Formula) (Formula, error)

// Rewrite rebuilds f bottom-up: children are rewritten first, the
// node is rebuilt from the rewritten children and handed to rw.
// Conjunctions and disjunctions produced along the way are
// normalized: nested same-operator children are flattened and a
// rebuild left with a single child collapses to that child. A node
// whose children come back unchanged is reused rather than
// reallocated. The context is checked between rewrite steps; on
// cancellation the result is nil and ErrCancelled.
func Rewrite(ctx context.Context, f Formula, rw RewriteFunc) (Formula, error) {
	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	rebuilt, err := rewriteChildren(f, func(sub Formula) (Formula, error) {
		return Rewrite(ctx, sub, rw)
	})
	if err != nil {
		return nil, err
	}
	return rw(rebuilt)
}

// RewriteTopDown is the dual of Rewrite for transformations whose
// decisions depend on outer context: rw runs on the node first, then
// the replacement's children are rewritten and the node is rebuilt
// with the same normalization rules as Rewrite.
func RewriteTopDown(ctx context.Context, f Formula, rw RewriteFunc) (Formula, error) {
	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	replaced, err := rw(f)
	if err != nil {
		return nil, err
	}
	return rewriteChildren(replaced, func(sub Formula) (Formula, error) {
		return RewriteTopDown(ctx, sub, rw)
	})
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return nil
}

// rewriteChildren applies rec to every direct child of f and rebuilds
// the node, flattening n-ary operators and sharing f when nothing
// changed.
func rewriteChildren(f Formula, rec RewriteFunc) (Formula, error) {
	switch f := f.(type) {
	case *Not:
		sub, err := rec(f.Sub)
		if err != nil {
			return nil, err
		}
		if sub == f.Sub {
			return f, nil
		}
		return &Not{Sub: sub}, nil
	case *And:
		subs, changed, err := rewriteSubs(f.Subs, rec)
		if err != nil {
			return nil, err
		}
		if !changed {
			return f, nil
		}
		return Conjunction(subs), nil
	case *Or:
		subs, changed, err := rewriteSubs(f.Subs, rec)
		if err != nil {
			return nil, err
		}
		if !changed {
			return f, nil
		}
		return Disjunction(subs), nil
	case *ForAll:
		sub, err := rec(f.Sub)
		if err != nil {
			return nil, err
		}
		if sub == f.Sub {
			return f, nil
		}
		return &ForAll{Sub: sub, Vars: f.Vars}, nil
	case *Exists:
		sub, err := rec(f.Sub)
		if err != nil {
			return nil, err
		}
		if sub == f.Sub {
			return f, nil
		}
		return &Exists{Sub: sub, Vars: f.Vars}, nil
	default:
		return f, nil
	}
}

func rewriteSubs(subs []Formula, rec RewriteFunc) ([]Formula, bool, error) {
	out := make([]Formula, len(subs))
	changed := false
	for i, s := range subs {
		r, err := rec(s)
		if err != nil {
			return nil, false, err
		}
		if r != s {
			changed = true
		}
		out[i] = r
	}
	return out, changed, nil
}
