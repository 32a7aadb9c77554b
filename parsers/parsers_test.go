package parsers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mgranberg/cdclsat/internal/sat"
)

// trackingSolver records the dense id-order variable list LoadDIMACS
// allocates, mirroring main.go's own wrapper, so tests can read back models
// in DIMACS variable order.
type trackingSolver struct {
	*sat.CoreSolver
	vars []sat.Var
}

func (s *trackingSolver) AddVariable() sat.Var {
	v := s.CoreSolver.AddVariable()
	s.vars = append(s.vars, v)
	return v
}

// toBoolSlice reorders a model map into DIMACS variable order.
func toBoolSlice(model map[sat.Var]bool, vars []sat.Var) []bool {
	out := make([]bool, len(vars))
	for i, v := range vars {
		out[i] = model[v]
	}
	return out
}

func toString(model []bool) string {
	s := make([]byte, 0, len(model))
	for _, b := range model {
		if b {
			s = append(s, 1)
		} else {
			s = append(s, 0)
		}
	}
	return string(s)
}

func toSet(models [][]bool) map[string]struct{} {
	set := map[string]struct{}{}
	for _, m := range models {
		set[toString(m)] = struct{}{}
	}
	return set
}

// solveAll exhausts every model of s by blocking each one found, the same
// technique the teacher's own solver test suite uses.
func solveAll(s *trackingSolver) [][]bool {
	var models [][]bool
	for {
		res := s.Solve(nil)
		if res.Kind != sat.ResultSat {
			break
		}
		model := toBoolSlice(res.Model, s.vars)
		models = append(models, model)

		block := make([]sat.Lit, len(s.vars))
		for i, v := range s.vars {
			if model[i] {
				block[i] = sat.NegativeLiteral(v)
			} else {
				block[i] = sat.PositiveLiteral(v)
			}
		}
		if s.AddClause(block) == sat.AddUnsat {
			break
		}
	}
	return models
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%q): %v", path, err)
	}
	return path
}

const smallCNF = `c a tiny three variable instance
p cnf 3 3
1 2 0
-1 3 0
-2 -3 0
`

// wantModels is the exact, hand-verified model set of smallCNF: (x1 x2 x3)
// assignments (F,T,F) and (T,F,T) are the only two satisfying the clauses.
var wantModels = [][]bool{
	{false, true, false},
	{true, false, true},
}

func TestLoadDIMACSAndSolveAll(t *testing.T) {
	path := writeTemp(t, "small.cnf", smallCNF)

	s := &trackingSolver{CoreSolver: sat.NewCoreSolver(sat.DefaultSettings)}
	if err := LoadDIMACS(path, s); err != nil {
		t.Fatalf("LoadDIMACS: %v", err)
	}
	if s.NumVars() != 3 {
		t.Fatalf("NumVars() = %d, want 3", s.NumVars())
	}

	got := solveAll(s)
	if len(got) != len(wantModels) {
		t.Errorf("got %d models, want %d", len(got), len(wantModels))
	}
	if !cmp.Equal(toSet(got), toSet(wantModels)) {
		t.Errorf("model set mismatch: got %v, want %v", toSet(got), toSet(wantModels))
	}
}

func TestLoadDIMACSDetectsContradiction(t *testing.T) {
	path := writeTemp(t, "unsat.cnf", "p cnf 1 2\n1 0\n-1 0\n")

	s := &trackingSolver{CoreSolver: sat.NewCoreSolver(sat.DefaultSettings)}
	if err := LoadDIMACS(path, s); err == nil {
		t.Fatalf("LoadDIMACS: expected an error for a unit-contradiction instance")
	}
}

func TestReadModels(t *testing.T) {
	path := writeTemp(t, "small.cnf.models", "1 2 -3 0\n-1 -2 3 0\n")

	got, err := ReadModels(path)
	if err != nil {
		t.Fatalf("ReadModels: %v", err)
	}
	want := [][]bool{
		{true, true, false},
		{false, false, true},
	}
	if !cmp.Equal(toSet(got), toSet(want)) {
		t.Errorf("model set mismatch: got %v, want %v", toSet(got), toSet(want))
	}
}
