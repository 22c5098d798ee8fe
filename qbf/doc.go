// Package qbf manipulates quantified boolean formulas.
//
// A quantified boolean formula, or QBF, extends a propositional
// formula with universal (∀) and existential (∃) quantification over
// its boolean variables. Deciding such formulas is the canonical
// PSPACE-complete problem, and most decision procedures expect their
// input in a restricted shape: prenex normal form, where all
// quantifiers are gathered in a prefix in front of a quantifier-free
// matrix, often with the matrix in conjunctive normal form.
//
// This package provides the formula representation itself together
// with the structural transformations leading to those shapes:
//
//   - constructors and predicates over the eight node variants,
//   - lazy traversal of subformulas, variable occurrences, free
//     variables and the quantifier prefix,
//   - a generic bottom-up/top-down rewriting kernel with cooperative
//     cancellation,
//   - conversion to negation normal form and extraction of the
//     quantifier-free skeleton.
//
// Prenexing strategies live in the companion package pnf, the
// QDIMACS and QCIR codecs in qdimacs and qcir.
//
// Formulas are immutable: every transformation returns a new tree
// and may share unchanged subtrees with its input. All operations
// are therefore safe to invoke concurrently, on distinct formulas or
// on a shared one.
//
// For example, ¬∀{x}.(x ∧ ¬y) is built and normalized with:
//
//	inner, _ := qbf.NewAnd(qbf.Variable{Name: "x"}, &qbf.Not{Sub: qbf.Variable{Name: "y"}})
//	q, _ := qbf.NewForAll(inner, "x")
//	n, _ := qbf.NewNot(q)
//	fmt.Println(qbf.ToNNF(n))
//	// ∃{x}. (¬x ∨ y)
package qbf
