package qcir

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/crillab/goqbf/qbf"
)

// ErrNotPrenex is returned by the writer when the formula is not in
// prenex normal form: cleansed QCIR only allows quantifiers in the
// prefix.
var ErrNotPrenex = errors.New("formula is not in prenex normal form")

// WriteFile writes f to the QCIR file at path.
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

// Write emits f as cleansed QCIR-G14: the format line, the prefix,
// the output statement and one gate per conjunction, disjunction and
// constant of the matrix, in bottom-up order. f must be in prenex
// normal form.
func Write(f qbf.Formula, w io.Writer) error {
	if !qbf.IsPNF(f) {
		return ErrNotPrenex
	}
	levels, matrix := qbf.SplitPrefix(f)

	g := &gateWriter{used: qbf.VariableSet(f)}
	root := g.emit(matrix)

	var buf bytes.Buffer
	buf.WriteString("#QCIR-G14\n")
	for _, lv := range levels {
		kw := "forall"
		if lv.Kind == qbf.Existential {
			kw = "exists"
		}
		fmt.Fprintf(&buf, "%s(%s)\n", kw, strings.Join(lv.Vars, ", "))
	}
	fmt.Fprintf(&buf, "output(%s)\n", root)
	buf.Write(g.gates.Bytes())

	_, err := w.Write(buf.Bytes())
	return errors.Wrap(err, "could not write QCIR output")
}

type gateWriter struct {
	used  map[string]bool
	gates bytes.Buffer
	next  int
}

// emit returns the literal denoting f, appending gate definitions
// for its non-literal subformulas bottom-up.
func (g *gateWriter) emit(f qbf.Formula) string {
	switch f := f.(type) {
	case qbf.Constant:
		// and() is constant true, or() constant false
		if f.Value {
			return g.gate("and")
		}
		return g.gate("or")
	case qbf.Variable:
		return f.Name
	case *qbf.Not:
		lit := g.emit(f.Sub)
		if neg, ok := strings.CutPrefix(lit, "-"); ok {
			return neg
		}
		return "-" + lit
	case *qbf.And:
		return g.gate("and", g.emitAll(f.Subs)...)
	case *qbf.Or:
		return g.gate("or", g.emitAll(f.Subs)...)
	default:
		// IsPNF rules quantifiers out of the matrix.
		panic(fmt.Sprintf("unexpected %T in matrix", f))
	}
}

func (g *gateWriter) emitAll(subs []qbf.Formula) []string {
	lits := make([]string, len(subs))
	for i, s := range subs {
		lits[i] = g.emit(s)
	}
	return lits
}

// gate appends a gate definition and returns its name, skipping
// names already taken by variables of the formula.
func (g *gateWriter) gate(op string, lits ...string) string {
	var name string
	for {
		g.next++
		name = fmt.Sprintf("g%d", g.next)
		if !g.used[name] {
			break
		}
	}
	g.used[name] = true
	fmt.Fprintf(&g.gates, "%s = %s(%s)\n", name, op, strings.Join(lits, ", "))
	return name
}
