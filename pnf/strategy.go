package pnf

import "github.com/crillab/goqbf/qbf"

// A SelectFunc decides whether a quantifier is raised into the
// outermost block of its kind the prefix under construction allows,
// or kept at its innermost legal position. nQPath is the number of
// same-kind quantifiers passed on the path up from the node,
// nCritical the number of opposite-kind quantifiers passed.
type SelectFunc func(nQPath, nCritical int) bool

// A Strategy fixes the placement decision for each quantifier kind.
// The four standard up/down strategies only differ in these two
// predicates; they all share the hoisting machinery of ToPNF.
type Strategy struct {
	Name         string
	SelectForAll SelectFunc
	SelectExists SelectFunc
}

func (s Strategy) String() string { return s.Name }

func (s Strategy) selects(kind qbf.Kind, nQPath, nCritical int) bool {
	if kind == qbf.Universal {
		return s.SelectForAll(nQPath, nCritical)
	}
	return s.SelectExists(nQPath, nCritical)
}

func always(nQPath, nCritical int) bool { return true }

func fewAlternations(nQPath, nCritical int) bool {
	return nCritical-nQPath <= 1
}

// The four standard prenexing strategies.
var (
	// ForAllDownExistsUp (∀↓∃↑) raises existential quantifiers
	// aggressively.
	ForAllDownExistsUp = Strategy{
		Name:         "ForAllDownExistsUp",
		SelectForAll: fewAlternations,
		SelectExists: always,
	}

	// ExistsDownForAllUp (∃↓∀↑) raises universal quantifiers
	// aggressively.
	ExistsDownForAllUp = Strategy{
		Name:         "ExistsDownForAllUp",
		SelectForAll: always,
		SelectExists: fewAlternations,
	}

	// ForAllUpExistsUp (∀↑∃↑) always raises both kinds.
	ForAllUpExistsUp = Strategy{
		Name:         "ForAllUpExistsUp",
		SelectForAll: always,
		SelectExists: always,
	}

	// ForAllDownExistsDown (∀↓∃↓) raises only when forced.
	ForAllDownExistsDown = Strategy{
		Name:         "ForAllDownExistsDown",
		SelectForAll: fewAlternations,
		SelectExists: fewAlternations,
	}
)

// Strategies maps strategy names to their values, for flag and
// configuration handling.
var Strategies = map[string]Strategy{
	ForAllDownExistsUp.Name:   ForAllDownExistsUp,
	ExistsDownForAllUp.Name:   ExistsDownForAllUp,
	ForAllUpExistsUp.Name:     ForAllUpExistsUp,
	ForAllDownExistsDown.Name: ForAllDownExistsDown,
}
