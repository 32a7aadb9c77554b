package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/mgranberg/cdclsat/internal/sat"
	"github.com/mgranberg/cdclsat/parsers"
)

var flagCPUProfile = flag.Bool(
	"cpuprof",
	false,
	"save pprof CPU profile in cpuprof",
)

var flagMemProfile = flag.Bool(
	"memprof",
	false,
	"save pprof memory profile in memprof",
)

var flagAssume = flag.String(
	"assume",
	"",
	"comma-separated list of signed DIMACS literals to assume, e.g. 1,-2,3",
)

var flagTimeout = flag.Duration(
	"timeout",
	0,
	"abort the search (returning Interrupted) after this duration; 0 disables the budget",
)

type config struct {
	instanceFile string
	memProfile   bool
	cpuProfile   bool
	assume       string
	timeout      time.Duration
}

func parseConfig() (*config, error) {
	flag.Parse()

	if flag.NArg() == 0 || flag.Arg(0) == "" {
		return nil, fmt.Errorf("missing instance file")
	}
	return &config{
		instanceFile: flag.Arg(0),
		memProfile:   *flagMemProfile,
		cpuProfile:   *flagCPUProfile,
		assume:       *flagAssume,
		timeout:      *flagTimeout,
	}, nil
}

// parseAssumptions translates a comma-separated list of signed DIMACS
// integers into solver literals over the variables already allocated by
// LoadDIMACS (variable i is vars[i-1]).
func parseAssumptions(spec string, vars []sat.Var) ([]sat.Lit, error) {
	if spec == "" {
		return nil, nil
	}
	parts := strings.Split(spec, ",")
	lits := make([]sat.Lit, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid assumption literal %q: %w", p, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("assumption literal cannot be 0")
		}
		id := n
		if id < 0 {
			id = -id
		}
		if id > len(vars) {
			return nil, fmt.Errorf("assumption literal %d refers to an undeclared variable", n)
		}
		v := vars[id-1]
		if n < 0 {
			lits = append(lits, sat.NegativeLiteral(v))
		} else {
			lits = append(lits, sat.PositiveLiteral(v))
		}
	}
	return lits, nil
}

// trackingSolver wraps sat.CoreSolver to remember the dense id-order
// variable list LoadDIMACS allocated, so assumptions (given in DIMACS ids)
// can be translated the same way clauses are.
type trackingSolver struct {
	*sat.CoreSolver
	vars []sat.Var
}

func (s *trackingSolver) AddVariable() sat.Var {
	v := s.CoreSolver.AddVariable()
	s.vars = append(s.vars, v)
	return v
}

func run(cfg *config) (exitCode int, err error) {
	s := &trackingSolver{CoreSolver: sat.NewCoreSolver(sat.DefaultSettings)}

	if err := parsers.LoadDIMACS(cfg.instanceFile, s); err != nil {
		return 0, fmt.Errorf("could not load instance: %w", err)
	}

	assumps, err := parseAssumptions(cfg.assume, s.vars)
	if err != nil {
		return 0, fmt.Errorf("could not parse assumptions: %w", err)
	}

	fmt.Printf("c variables:  %d\n", s.NumVars())
	fmt.Printf("c clauses:    %d\n", s.NumClauses())
	fmt.Printf("c assumptions: %d\n", len(assumps))

	if cfg.timeout > 0 {
		timer := time.AfterFunc(cfg.timeout, s.Interrupt)
		defer timer.Stop()
	}

	t := time.Now()
	result := s.Solve(assumps)
	elapsed := time.Since(t)

	stats := s.Stats()
	fmt.Printf("c time (sec):    %f\n", elapsed.Seconds())
	fmt.Printf("c conflicts:     %d\n", stats.Conflicts)
	fmt.Printf("c decisions:     %d\n", stats.Decisions)
	fmt.Printf("c propagations:  %d\n", stats.Propagations)

	switch result.Kind {
	case sat.ResultSat:
		fmt.Println("c status:        SATISFIABLE")
		fmt.Println("s SATISFIABLE")
		return 10, nil
	case sat.ResultUnsat:
		fmt.Println("c status:        UNSATISFIABLE")
		fmt.Println("s UNSATISFIABLE")
		return 20, nil
	default:
		fmt.Printf("c status:        INDETERMINATE (progress=%.4f)\n", result.Progress)
		fmt.Println("s UNKNOWN")
		return 0, nil
	}
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.cpuProfile {
		f, err := os.Create("cpuprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	exitCode, err := run(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile {
		f, err := os.Create("memprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}

	os.Exit(exitCode)
}
