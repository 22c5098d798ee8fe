// Package qcir reads and writes the QCIR-G14 circuit format for
// quantified boolean formulas. The reader inlines gate definitions
// at their uses, so sharing in the circuit is not preserved in the
// resulting formula tree.
package qcir

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/crillab/goqbf/qbf"
)

// ParseError reports malformed QCIR input. Line is 1-based; a zero
// Line denotes an error about the file as a whole.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	switch {
	case e.Path == "" && e.Line == 0:
		return e.Msg
	case e.Path == "":
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	case e.Line == 0:
		return fmt.Sprintf("%s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// gateDef is an unresolved right-hand side of a gate statement.
type gateDef struct {
	op   string   // and, or, xor, ite, forall, exists
	vars []string // bound variables of a quantifier gate
	args []string // literal operands
	line int
}

type reader struct {
	path   string
	levels []qbf.Level
	output string
	gates  map[string]gateDef

	resolved  map[string]qbf.Formula
	resolving map[string]bool
}

// ReadFile reads the QCIR file at path.
func ReadFile(path string) (qbf.Formula, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %q", path)
	}
	defer f.Close()
	return Read(f, path)
}

// Read parses QCIR-G14 from r. path is only used in error messages
// and may be empty.
func Read(r io.Reader, path string) (qbf.Formula, error) {
	rd := &reader{
		path:      path,
		gates:     make(map[string]gateDef),
		resolved:  make(map[string]qbf.Formula),
		resolving: make(map[string]bool),
	}
	if err := rd.scan(r); err != nil {
		return nil, err
	}
	if rd.output == "" {
		return nil, &ParseError{Path: path, Msg: "missing output statement"}
	}
	matrix, err := rd.resolve(rd.output, 0)
	if err != nil {
		return nil, err
	}
	return qbf.JoinPrefix(rd.levels, matrix), nil
}

func (rd *reader) scan(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lineno := 0
	seenOutput := false
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			// comments, including the #QCIR-G14 format line
			continue
		}
		fail := func(msg string) error {
			return &ParseError{Path: rd.path, Line: lineno, Msg: msg}
		}
		switch {
		case strings.HasPrefix(line, "output"):
			if seenOutput {
				return fail("duplicate output statement")
			}
			arg, err := argList(line, "output", fail)
			if err != nil {
				return err
			}
			if len(arg) != 1 {
				return fail("output expects exactly one literal")
			}
			rd.output = arg[0]
			seenOutput = true
		case !seenOutput && hasKeyword(line, "free"):
			// Free variables need no representation: a variable
			// unbound by the prefix is free in the formula.
			if _, err := argList(line, "free", fail); err != nil {
				return err
			}
		case !seenOutput && hasKeyword(line, "forall"):
			if err := rd.prefixLine(line, qbf.Universal, fail); err != nil {
				return err
			}
		case !seenOutput && hasKeyword(line, "exists"):
			if err := rd.prefixLine(line, qbf.Existential, fail); err != nil {
				return err
			}
		default:
			if hasKeyword(line, "free") || hasKeyword(line, "forall") || hasKeyword(line, "exists") {
				return fail("prefix statement after output")
			}
			if err := rd.gateLine(line, lineno, fail); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "could not read input")
	}
	if lineno == 0 {
		return &ParseError{Path: rd.path, Msg: "file is empty"}
	}
	return nil
}

// hasKeyword reports whether the statement is an application of the
// given keyword, as opposed to a gate named after it.
func hasKeyword(line, kw string) bool {
	rest, ok := strings.CutPrefix(line, kw)
	if !ok {
		return false
	}
	rest = strings.TrimSpace(rest)
	return strings.HasPrefix(rest, "(")
}

// argList parses "kw ( a1 , a2 , ... )" and returns the trimmed
// arguments. An empty argument list yields nil.
func argList(line, kw string, fail func(string) error) ([]string, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, kw))
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return nil, fail(fmt.Sprintf("malformed %s statement", kw))
	}
	return splitArgs(rest[1 : len(rest)-1]), nil
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return lo.Map(strings.Split(s, ","), func(a string, _ int) string {
		return strings.TrimSpace(a)
	})
}

func (rd *reader) prefixLine(line string, kind qbf.Kind, fail func(string) error) error {
	kw := "forall"
	if kind == qbf.Existential {
		kw = "exists"
	}
	vars, err := argList(line, kw, fail)
	if err != nil {
		return err
	}
	if len(vars) == 0 {
		return fail("quantifier binds no variables")
	}
	for _, v := range vars {
		if _, err := qbf.NewVariable(v); err != nil {
			return fail(err.Error())
		}
	}
	set := slices.Clone(vars)
	sort.Strings(set)
	rd.levels = append(rd.levels, qbf.Level{Kind: kind, Vars: slices.Compact(set)})
	return nil
}

func (rd *reader) gateLine(line string, lineno int, fail func(string) error) error {
	name, rhs, ok := strings.Cut(line, "=")
	if !ok {
		return fail("expected a gate statement")
	}
	name = strings.TrimSpace(name)
	if strings.ContainsAny(name, " \t") || name == "" {
		return fail("malformed gate name")
	}
	if _, dup := rd.gates[name]; dup {
		return fail(fmt.Sprintf("duplicate definition of gate %s", name))
	}
	rhs = strings.TrimSpace(rhs)
	op, rest, ok := strings.Cut(rhs, "(")
	if !ok || !strings.HasSuffix(rest, ")") {
		return fail("malformed gate definition")
	}
	op = strings.TrimSpace(op)
	inner := rest[:len(rest)-1]

	def := gateDef{op: op, line: lineno}
	switch op {
	case "and", "or":
		def.args = splitArgs(inner)
	case "xor":
		def.args = splitArgs(inner)
		if len(def.args) != 2 {
			return fail("xor expects exactly two literals")
		}
	case "ite":
		def.args = splitArgs(inner)
		if len(def.args) != 3 {
			return fail("ite expects exactly three literals")
		}
	case "forall", "exists":
		varPart, litPart, ok := strings.Cut(inner, ";")
		if !ok {
			return fail(fmt.Sprintf("%s gate expects variables and a literal separated by ';'", op))
		}
		def.vars = splitArgs(varPart)
		def.args = splitArgs(litPart)
		if len(def.vars) == 0 {
			return fail("quantifier binds no variables")
		}
		if len(def.args) != 1 {
			return fail(fmt.Sprintf("%s gate expects exactly one literal", op))
		}
	default:
		return fail(fmt.Sprintf("unknown gate type %q", op))
	}
	rd.gates[name] = def
	return nil
}

// resolve turns a literal into a formula, inlining gate definitions.
func (rd *reader) resolve(lit string, line int) (qbf.Formula, error) {
	name, negated := strings.CutPrefix(lit, "-")
	f, err := rd.resolveName(name, line)
	if err != nil {
		return nil, err
	}
	if negated {
		return qbf.NewNot(f)
	}
	return f, nil
}

func (rd *reader) resolveName(name string, line int) (qbf.Formula, error) {
	if f, ok := rd.resolved[name]; ok {
		return f, nil
	}
	def, ok := rd.gates[name]
	if !ok {
		// Not a gate: a variable reference.
		v, err := qbf.NewVariable(name)
		if err != nil {
			return nil, &ParseError{Path: rd.path, Line: line, Msg: err.Error()}
		}
		return v, nil
	}
	if rd.resolving[name] {
		return nil, &ParseError{Path: rd.path, Line: def.line, Msg: fmt.Sprintf("gate %s is defined in terms of itself", name)}
	}
	rd.resolving[name] = true
	defer delete(rd.resolving, name)

	args := make([]qbf.Formula, len(def.args))
	for i, a := range def.args {
		f, err := rd.resolve(a, def.line)
		if err != nil {
			return nil, err
		}
		args[i] = f
	}

	var f qbf.Formula
	var err error
	switch def.op {
	case "and":
		f = qbf.Conjunction(args)
	case "or":
		f = qbf.Disjunction(args)
	case "xor":
		f, err = xor(args[0], args[1])
	case "ite":
		f, err = ite(args[0], args[1], args[2])
	case "forall":
		f, err = qbf.NewForAll(args[0], def.vars...)
	case "exists":
		f, err = qbf.NewExists(args[0], def.vars...)
	}
	if err != nil {
		return nil, &ParseError{Path: rd.path, Line: def.line, Msg: err.Error()}
	}
	rd.resolved[name] = f
	return f, nil
}

// xor expands a ⊕ b into (a ∧ ¬b) ∨ (¬a ∧ b).
func xor(a, b qbf.Formula) (qbf.Formula, error) {
	left, err := qbf.NewAnd(a, &qbf.Not{Sub: b})
	if err != nil {
		return nil, err
	}
	right, err := qbf.NewAnd(&qbf.Not{Sub: a}, b)
	if err != nil {
		return nil, err
	}
	return qbf.NewOr(left, right)
}

// ite expands if-then-else into (c ∧ t) ∨ (¬c ∧ e).
func ite(c, t, e qbf.Formula) (qbf.Formula, error) {
	left, err := qbf.NewAnd(c, t)
	if err != nil {
		return nil, err
	}
	right, err := qbf.NewAnd(&qbf.Not{Sub: c}, e)
	if err != nil {
		return nil, err
	}
	return qbf.NewOr(left, right)
}
