package qdimacs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/crillab/goqbf/qbf"
)

// ErrNotCNF is returned by the writer when the formula's matrix is
// not in conjunctive normal form, or when a quantifier occurs below
// the prefix.
var ErrNotCNF = errors.New("matrix is not in CNF")

// WriteFile writes f to the QDIMACS file at path.
func WriteFile(f qbf.Formula, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %q", path)
	}
	if err := Write(f, out); err != nil {
		out.Close()
		return err
	}
	return errors.Wrapf(out.Close(), "could not write %q", path)
}

// Write emits f in QDIMACS: the recomputed problem line, one prefix
// line per quantifier level outermost first, one line per clause.
// Variable names are written exactly as they appear in the formula.
// The body below the prefix must be a CNF matrix, otherwise the
// result is ErrNotCNF.
//
// The problem line states the number of distinct variable names
// occurring anywhere in the formula and the number of clause lines
// emitted, so the body is buffered and the header prepended.
func Write(f qbf.Formula, w io.Writer) error {
	levels, matrix := qbf.SplitPrefix(f)

	var buf bytes.Buffer
	for _, lv := range levels {
		letter := "a"
		if lv.Kind == qbf.Existential {
			letter = "e"
		}
		fmt.Fprintf(&buf, "%s %s 0\n", letter, strings.Join(lv.Vars, " "))
	}

	clauses := []qbf.Formula{matrix}
	if m, ok := matrix.(*qbf.And); ok {
		clauses = m.Subs
	}
	for _, clause := range clauses {
		tokens, err := clauseTokens(clause)
		if err != nil {
			return err
		}
		fmt.Fprintf(&buf, "%s 0\n", strings.Join(tokens, " "))
	}

	header := fmt.Sprintf("p cnf %d %d\n", len(qbf.VariableSet(f)), len(clauses))
	if _, err := io.WriteString(w, header); err != nil {
		return errors.Wrap(err, "could not write QDIMACS output")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "could not write QDIMACS output")
	}
	return nil
}

func clauseTokens(clause qbf.Formula) ([]string, error) {
	lits := []qbf.Formula{clause}
	if o, ok := clause.(*qbf.Or); ok {
		lits = o.Subs
	}
	tokens := make([]string, len(lits))
	for i, lit := range lits {
		tok, err := litToken(lit)
		if err != nil {
			return nil, err
		}
		tokens[i] = tok
	}
	return tokens, nil
}

func litToken(lit qbf.Formula) (string, error) {
	switch lit := lit.(type) {
	case qbf.Variable:
		return lit.Name, nil
	case *qbf.Not:
		if v, ok := lit.Sub.(qbf.Variable); ok {
			return "-" + v.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %s is not a literal", ErrNotCNF, lit)
}
