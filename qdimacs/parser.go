// Package qdimacs reads and writes QDIMACS files, the prenex-CNF
// wire format of QBF solvers. See http://www.qbflib.org/qdimacs.html
// for the format definition.
package qdimacs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/crillab/goqbf/qbf"
)

// ParseError reports malformed QDIMACS input. Line is 1-based; a
// zero Line denotes an error about the file as a whole.
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

// ReadFile reads the QDIMACS file at path.
func ReadFile(path string) (qbf.Formula, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %q", path)
	}
	defer f.Close()
	return Read(f, path)
}

// Read parses QDIMACS from r. path is only used in error messages
// and may be empty. The returned formula carries one quantifier node
// per prefix line, outermost first; a single-clause matrix is the
// clause itself and a single-literal clause the literal itself.
func Read(r io.Reader, path string) (qbf.Formula, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var (
		levels      []qbf.Level
		clauses     []qbf.Formula
		seenProblem bool
		inMatrix    bool
		lineno      int
		empty       = true
	)
	for sc.Scan() {
		lineno++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		empty = false
		fail := func(msg string) error {
			return &ParseError{Path: path, Line: lineno, Msg: msg}
		}
		switch {
		case strings.HasPrefix(line, "c"):
			// comment
		case strings.HasPrefix(line, "p"):
			if seenProblem {
				return nil, fail("duplicate problem line")
			}
			if inMatrix || len(levels) > 0 {
				return nil, fail("problem line after prefix or clauses")
			}
			fields := strings.Fields(line)
			if len(fields) < 2 || fields[0] != "p" || fields[1] != "cnf" {
				return nil, fail("malformed problem line")
			}
			// The numeric fields are ignored: the writer recomputes
			// them and inputs in the wild get them wrong.
			seenProblem = true
		case strings.HasPrefix(line, "a") || strings.HasPrefix(line, "e"):
			if !seenProblem {
				return nil, fail("prefix line before problem line")
			}
			if inMatrix {
				return nil, fail("prefix line after clauses")
			}
			lv, err := parsePrefixLine(line, fail)
			if err != nil {
				return nil, err
			}
			levels = append(levels, lv)
		default:
			if !seenProblem {
				return nil, fail("clause before problem line")
			}
			inMatrix = true
			clause, err := parseClause(line, fail)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, clause)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "could not read input")
	}
	if empty {
		return nil, &ParseError{Path: path, Msg: "file is empty"}
	}
	if !seenProblem {
		return nil, &ParseError{Path: path, Msg: "missing problem line"}
	}
	if len(clauses) == 0 {
		return nil, &ParseError{Path: path, Msg: "missing clauses"}
	}

	matrix := clauses[0]
	if len(clauses) > 1 {
		m, err := qbf.NewAnd(clauses...)
		if err != nil {
			return nil, err
		}
		matrix = m
	}
	return qbf.JoinPrefix(levels, matrix), nil
}

func parsePrefixLine(line string, fail func(string) error) (qbf.Level, error) {
	fields := strings.Fields(line)
	kind := qbf.Universal
	if fields[0] == "e" {
		kind = qbf.Existential
	} else if fields[0] != "a" {
		return qbf.Level{}, fail("malformed prefix line")
	}
	if fields[len(fields)-1] != "0" {
		return qbf.Level{}, fail("missing terminating 0")
	}
	vars := fields[1 : len(fields)-1]
	if len(vars) == 0 {
		return qbf.Level{}, fail("missing variables")
	}
	for _, v := range vars {
		if v == "0" {
			return qbf.Level{}, fail("unexpected 0 before end of line")
		}
		if _, err := qbf.NewVariable(v); err != nil {
			return qbf.Level{}, fail(err.Error())
		}
	}
	set := slices.Clone(vars)
	sort.Strings(set)
	return qbf.Level{Kind: kind, Vars: slices.Compact(set)}, nil
}

func parseClause(line string, fail func(string) error) (qbf.Formula, error) {
	fields := strings.Fields(line)
	if fields[len(fields)-1] != "0" {
		return nil, fail("missing terminating 0")
	}
	tokens := fields[:len(fields)-1]
	if len(tokens) == 0 {
		return nil, fail("missing variables")
	}
	lits := make([]qbf.Formula, len(tokens))
	for i, tok := range tokens {
		if tok == "0" {
			return nil, fail("unexpected 0 before end of line")
		}
		lit, err := parseLiteral(tok)
		if err != nil {
			return nil, fail(err.Error())
		}
		lits[i] = lit
	}
	if len(lits) == 1 {
		return lits[0], nil
	}
	return qbf.NewOr(lits...)
}

func parseLiteral(tok string) (qbf.Formula, error) {
	name, negated := strings.CutPrefix(tok, "-")
	v, err := qbf.NewVariable(name)
	if err != nil {
		return nil, err
	}
	if negated {
		return qbf.NewNot(v)
	}
	return v, nil
}
