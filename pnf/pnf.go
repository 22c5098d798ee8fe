// Package pnf converts formulas to prenex normal form.
//
// The transformation hoists every quantifier below the prefix into
// it, merging bound variable sets where the chosen Strategy allows,
// and renaming bound variables whenever a hoist would capture. Its
// input is expected in negation normal form; quantifiers under a
// negation are never hoisted, so callers normalize with qbf.ToNNF
// first.
package pnf

import (
	"context"
	"fmt"
	"sort"

	"github.com/crillab/goqbf/qbf"
)

// ToPNF returns an alpha-equivalent formula in prenex normal form,
// with the prefix arranged according to the strategy. A formula
// already in PNF is returned unchanged. The context is consulted
// between hoists; on cancellation no partial formula is returned.
func ToPNF(ctx context.Context, f qbf.Formula, s Strategy) (qbf.Formula, error) {
	levels, matrix := qbf.SplitPrefix(f)

	// Bottom-up identity pass over the kernel: the cancellation
	// checkpoint before hoisting. Nothing changes, so the matrix comes
	// back shared, not rebuilt; unflattened operators of hand-assembled
	// trees are merged by the hoisting fold, which rebuilds conjunctions
	// and disjunctions through the normalizing builders.
	matrix, err := qbf.Rewrite(ctx, matrix, func(sub qbf.Formula) (qbf.Formula, error) {
		return sub, nil
	})
	if err != nil {
		return nil, err
	}

	h := &hoister{
		ctx:      ctx,
		strategy: s,
		used:     qbf.VariableSet(f),
		free:     qbf.FreeVariableSet(f),
		placed:   make(map[string]bool),
	}
	path := make([]qbf.Kind, 0, len(levels))
	for _, lv := range levels {
		h.blocks = append(h.blocks, block{kind: lv.Kind, vars: lv.Vars})
		for _, v := range lv.Vars {
			h.placed[v] = true
		}
		path = append(path, lv.Kind)
	}

	skeleton, err := h.hoist(matrix, path, len(h.blocks)-1)
	if err != nil {
		return nil, err
	}
	if h.hoisted == 0 {
		return f, nil
	}
	out := make([]qbf.Level, len(h.blocks))
	for i, b := range h.blocks {
		out[i] = qbf.Level{Kind: b.kind, Vars: b.vars}
	}
	return qbf.JoinPrefix(out, skeleton), nil
}

// A block is one level of the prefix under construction.
type block struct {
	kind qbf.Kind
	vars []string
}

// hoister carries the explicit state threaded through the hoisting
// fold: the prefix blocks built so far, the variable names a fresh
// name must avoid, the free names of the input and the names already
// bound by placed quantifiers.
type hoister struct {
	ctx      context.Context
	strategy Strategy
	blocks   []block
	used     map[string]bool
	free     map[string]bool
	placed   map[string]bool
	hoisted  int
	fresh    int
}

// hoist walks the matrix in document order, removes every quantifier
// node it encounters and records its variables in the prefix blocks.
// path holds the quantifier kinds passed between the root and f,
// outermost first; ancestor is the index of the deepest block a
// passed quantifier was placed in, or -1.
func (h *hoister) hoist(f qbf.Formula, path []qbf.Kind, ancestor int) (qbf.Formula, error) {
	switch f := f.(type) {
	case *qbf.And:
		subs, err := h.hoistSubs(f.Subs, path, ancestor)
		if err != nil {
			return nil, err
		}
		return qbf.Conjunction(subs), nil
	case *qbf.Or:
		subs, err := h.hoistSubs(f.Subs, path, ancestor)
		if err != nil {
			return nil, err
		}
		return qbf.Disjunction(subs), nil
	case *qbf.ForAll:
		return h.hoistQuant(f, path, ancestor)
	case *qbf.Exists:
		return h.hoistQuant(f, path, ancestor)
	default:
		// Variables, constants and negations. In NNF a negation
		// only guards a variable; quantifiers hidden under other
		// negations stay where they are.
		return f, nil
	}
}

func (h *hoister) hoistSubs(subs []qbf.Formula, path []qbf.Kind, ancestor int) ([]qbf.Formula, error) {
	out := make([]qbf.Formula, len(subs))
	for i, s := range subs {
		r, err := h.hoist(s, path, ancestor)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (h *hoister) hoistQuant(q qbf.Quantifier, path []qbf.Kind, ancestor int) (qbf.Formula, error) {
	if err := h.ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", qbf.ErrCancelled, err)
	}
	kind := q.Kind()
	nQPath, nCritical := 0, 0
	for _, k := range path {
		if k == kind {
			nQPath++
		} else {
			nCritical++
		}
	}

	body := q.Body()
	vars := make([]string, 0, len(q.Bound()))
	for _, v := range q.Bound() {
		name := v
		if h.free[v] || h.placed[v] {
			name = h.freshName(v)
			body = qbf.Rename(body, v, name)
		}
		h.used[name] = true
		h.placed[name] = true
		vars = append(vars, name)
	}

	idx := h.place(kind, vars, ancestor, h.strategy.selects(kind, nQPath, nCritical))
	h.hoisted++
	return h.hoist(body, append(path, kind), idx)
}

// place merges vars into the prefix blocks and returns the index of
// the block they ended up in. The quantifier may not move outside a
// block holding one of its ancestors; a same-kind ancestor block is
// itself a legal target.
func (h *hoister) place(kind qbf.Kind, vars []string, ancestor int, raise bool) int {
	sort.Strings(vars)
	min := ancestor + 1
	if ancestor >= 0 && h.blocks[ancestor].kind == kind {
		min = ancestor
	}
	if raise {
		for i := min; i < len(h.blocks); i++ {
			if h.blocks[i].kind == kind {
				h.merge(i, vars)
				return i
			}
		}
	} else if last := len(h.blocks) - 1; last >= min && h.blocks[last].kind == kind {
		h.merge(last, vars)
		return last
	}
	h.blocks = append(h.blocks, block{kind: kind, vars: vars})
	return len(h.blocks) - 1
}

func (h *hoister) merge(i int, vars []string) {
	// A block may still share its slice with the input's prefix; the
	// capped slice makes append copy instead of writing into it.
	old := h.blocks[i].vars
	h.blocks[i].vars = append(old[:len(old):len(old)], vars...)
	sort.Strings(h.blocks[i].vars)
}

// freshName derives a name not occurring anywhere in the formula,
// deterministically from an operation-local counter.
func (h *hoister) freshName(v string) string {
	for {
		h.fresh++
		name := fmt.Sprintf("%s_%d", v, h.fresh)
		if !h.used[name] {
			return name
		}
	}
}
