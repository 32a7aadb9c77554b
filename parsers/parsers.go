// Package parsers bridges external file formats to the solver. It is kept
// deliberately thin: the solver core never parses text itself.
package parsers

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rhartert/dimacs"

	"github.com/mgranberg/cdclsat/internal/sat"
)

// SATSolver is the subset of *sat.CoreSolver the DIMACS adapter needs.
type SATSolver interface {
	AddVariable() sat.Var
	AddClause(lits []sat.Lit) sat.AddResult
}

func reader(filename string) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	rc := io.ReadCloser(file)
	if strings.HasSuffix(filename, ".gz") {
		rc, err = gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
	}
	return rc, nil
}

// LoadDIMACS parses a DIMACS CNF file (transparently gzip-decompressed for a
// .gz suffix) and loads its formula into solver via AddVariable/AddClause.
func LoadDIMACS(filename string, solver SATSolver) error {
	r, err := reader(filename)
	if err != nil {
		return fmt.Errorf("error reading file %q: %w", filename, err)
	}
	defer r.Close()

	b := &builder{solver: solver}
	if err := dimacs.ReadBuilder(r, b); err != nil {
		return fmt.Errorf("error parsing file %q: %w", filename, err)
	}
	if b.unsat {
		return fmt.Errorf("instance %q is unsatisfiable at load time", filename)
	}
	return nil
}

// builder adapts dimacs.Builder callbacks to SATSolver calls, translating
// DIMACS's 1-indexed signed integers to solver literals. It assumes
// variables are allocated densely in id order, so DIMACS id i maps to
// vars[i-1].
type builder struct {
	solver SATSolver
	vars   []sat.Var
	unsat  bool
}

func (b *builder) Problem(problem string, nVars int, nClauses int) error {
	if problem != "cnf" {
		return fmt.Errorf("not a CNF problem: %q", problem)
	}
	b.vars = make([]sat.Var, nVars)
	for i := range b.vars {
		b.vars[i] = b.solver.AddVariable()
	}
	return nil
}

func (b *builder) Clause(tmpClause []int) error {
	lits := make([]sat.Lit, len(tmpClause))
	for i, l := range tmpClause {
		if l < 0 {
			lits[i] = sat.NegativeLiteral(b.vars[-l-1])
		} else {
			lits[i] = sat.PositiveLiteral(b.vars[l-1])
		}
	}
	if b.solver.AddClause(lits) == sat.AddUnsat {
		b.unsat = true
	}
	return nil
}

func (b *builder) Comment(_ string) error {
	return nil // ignore comments
}

// ReadModels returns the list of models contained in a models fixture file:
// one model per line, using the same signed literals as the instance it was
// computed for, terminated by a trailing 0 (mirroring DIMACS clause syntax
// without a problem line). Used only by tests.
func ReadModels(filename string) ([][]bool, error) {
	r, err := reader(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading file %q: %w", filename, err)
	}
	defer r.Close()

	var models [][]bool
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == 'c' {
			continue
		}
		fields := strings.Fields(line)
		model := make([]bool, 0, len(fields))
		for _, f := range fields {
			l, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("error parsing literal %q in %q: %w", f, filename, err)
			}
			if l == 0 {
				continue
			}
			model = append(model, l > 0)
		}
		models = append(models, model)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file %q: %w", filename, err)
	}
	return models, nil
}
