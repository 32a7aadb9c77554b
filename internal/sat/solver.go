package sat

import (
	"fmt"
	"sort"
	"time"
)

// Settings bundles every tunable exposed by the configuration table in
// spec.md section 6.
type Settings struct {
	CCMinMode CCMinMode

	RestartStrategy  RestartStrategy
	LearningSettings LearningStrategySettings

	GarbageFrac float64

	ClauseDecay float64
	VarDecay    float64
	PhaseSaving bool

	ConflictBudget    int64
	PropagationBudget int64
}

// DefaultSettings matches spec.md section 6's defaults exactly.
var DefaultSettings = Settings{
	CCMinMode:         CCMinDeep,
	RestartStrategy:   DefaultRestartStrategy,
	LearningSettings:  DefaultLearningStrategySettings,
	GarbageFrac:       0.20,
	ClauseDecay:       0.999,
	VarDecay:          0.95,
	PhaseSaving:       true,
	ConflictBudget:    -1,
	PropagationBudget: -1,
}

// ResultKind distinguishes the three PartialResult variants of spec.md
// section 6.
type ResultKind int

const (
	ResultUnsat ResultKind = iota
	ResultSat
	ResultInterrupted
)

// PartialResult is the outcome of a Solve/SolveLimited call.
type PartialResult struct {
	Kind     ResultKind
	Model    map[Var]bool // populated iff Kind == ResultSat
	Progress float64      // populated iff Kind == ResultInterrupted
}

// Stats is a point-in-time snapshot of search statistics, per spec.md
// section 6.
type Stats struct {
	Solves        uint64
	Starts        uint64
	Decisions     uint64
	RandDecisions uint64
	Conflicts     uint64
	Propagations  uint64
	MaxLiterals   uint64
	TotLiterals   uint64
	CPUTime       time.Duration
}

// searchStatus is the result of one inner search() call.
type searchStatus int

const (
	searchSat searchStatus = iota
	searchUnsat
	searchAssumpsConfl
	searchInterrupted
)

// CoreSolver ties every component together and implements the state machine
// of spec.md section 4.9.
type CoreSolver struct {
	settings Settings

	assigns *Assignment
	trail   *Trail
	watches *Watches
	ca      *ClauseAllocator
	db      *ClauseDB
	analyze *AnalyzeContext
	heur    *DecisionHeuristic
	budget  *Budget
	learn   *LearningStrategy

	ok bool

	assumptions  []Lit
	assumpHead   int
	finalConflit []Lit

	releaseQueue []Var
	releasedSet  resetSet

	simplifyGuard struct {
		assigns uint64 // trail size at last simplify
		props   uint64 // propagation count at last simplify
	}

	startTime time.Time
	stats     Stats

	iterations uint64

	// progressEMA smooths the conflicts/sec figure printed in periodic
	// search-progress rows, the same rows the teacher's own Solver prints
	// directly from within Search every 10000 iterations.
	progressEMA      EMA
	lastProgressTime time.Time
	lastProgressConf uint64
}

// NewCoreSolver returns an empty solver configured with the given settings.
func NewCoreSolver(settings Settings) *CoreSolver {
	ca := NewClauseAllocator()
	s := &CoreSolver{
		settings: settings,
		assigns:  NewAssignment(),
		trail:    NewTrail(),
		watches:  NewWatches(),
		ca:       ca,
		db: NewClauseDB(ca, ClauseDBSettings{
			ClauseDecay:     settings.ClauseDecay,
			RemoveSatisfied: true,
		}),
		analyze:     NewAnalyzeContext(settings.CCMinMode),
		heur:        NewDecisionHeuristic(settings.VarDecay, settings.PhaseSaving),
		budget:      NewBudget(),
		learn:       NewLearningStrategy(settings.LearningSettings),
		ok:          true,
		progressEMA: NewEMA(0.7),
	}
	s.budget.ConflictBudget = settings.ConflictBudget
	s.budget.PropagationBudget = settings.PropagationBudget
	return s
}

// NumVars returns the number of currently allocated variables.
func (s *CoreSolver) NumVars() int {
	return s.assigns.NumVars()
}

// NumClauses returns the number of original (non-learnt) clauses currently
// held by the clause database.
func (s *CoreSolver) NumClauses() int {
	return s.db.NumClauses
}

// Interrupt asynchronously requests that the Solve call in progress return
// Interrupted at its next check point. Solve clears the request when it
// starts, so a call made while no Solve is running has no effect. Safe to
// call from any goroutine, typically a signal handler or a timer.
func (s *CoreSolver) Interrupt() {
	s.budget.Interrupt()
}

// Stats returns a snapshot of the current search statistics.
func (s *CoreSolver) Stats() Stats {
	st := s.stats
	st.Propagations = s.watches.Propagations
	st.MaxLiterals = s.analyze.MaxLiterals
	st.TotLiterals = s.analyze.TotLiterals
	return st
}

// Ok reports whether the solver has not yet hit a ground-level logical
// contradiction.
func (s *CoreSolver) Ok() bool {
	return s.ok
}

// AddVariable allocates a fresh variable and registers it with every
// component that needs to know about it.
func (s *CoreSolver) AddVariable() Var {
	v := s.assigns.NewVar()
	s.watches.Init()
	s.analyze.InitVar()
	s.heur.InitVar(v, 0, true)
	s.releasedSet.Expand()
	return v
}

// ReleaseVariable marks v for recycling once it is safe to do so: it may be
// true at ground level (committed as a unit fact), in which case reclaiming
// its index is deferred to the next simplify() pass, per spec.md section 9's
// resolved open question.
func (s *CoreSolver) ReleaseVariable(v Var) {
	s.releaseQueue = append(s.releaseQueue, v)
}

// AddResult enumerates add_clause's outcomes per spec.md section 4.9.
type AddResult int

const (
	AddUnsat AddResult = iota
	AddConsumed
	AddAdded
)

// AddClause adds an original clause at ground level. It sorts and
// deduplicates lits, drops any already false at ground level, and detects a
// clause already satisfied, either by a true literal or by a complementary
// pair (a tautology).
func (s *CoreSolver) AddClause(lits []Lit) AddResult {
	if !s.trail.IsGroundLevel() {
		panic("sat: AddClause called above ground level")
	}
	if !s.ok {
		return AddUnsat
	}

	ls := append([]Lit(nil), lits...)
	sort.Slice(ls, func(i, j int) bool { return ls[i] < ls[j] })

	j := 0
	var prev Lit = LitUndef
	for _, l := range ls {
		if l == prev.Not() {
			return AddConsumed // complementary pair: tautology
		}
		if l == prev {
			continue // duplicate
		}
		if s.assigns.LitValue(l) == LTrue {
			return AddConsumed // already satisfied
		}
		if s.assigns.LitValue(l) == LFalse {
			continue // drop false-at-ground-level literal
		}
		ls[j] = l
		j++
		prev = l
	}
	ls = ls[:j]

	if len(ls) == 0 {
		s.ok = false
		return AddUnsat
	}

	if len(ls) == 1 {
		// Unit clauses are never stored in the clause database: they carry
		// no watchers, so enqueueing the fact directly is enough, the same
		// way the teacher's NewClause never allocates a one-literal clause.
		s.uncheckedEnqueue(ls[0], GroundLevel, ClauseRefUndef)
		if s.propagate() != ClauseRefUndef {
			s.ok = false
			return AddUnsat
		}
		return AddAdded
	}

	cr := s.db.AddClause(ls)
	s.watches.Attach(s.ca, cr)
	return AddAdded
}

func (s *CoreSolver) uncheckedEnqueue(l Lit, level int, reason ClauseRef) {
	s.assigns.AssignLit(l, level, reason)
	s.trail.Push(l)
}

func (s *CoreSolver) propagate() ClauseRef {
	return s.watches.Propagate(s.trail, s.assigns, s.ca)
}

// Solve runs the full restart loop of spec.md section 4.9 under the given
// assumptions.
func (s *CoreSolver) Solve(assumps []Lit) PartialResult {
	if !s.ok {
		return PartialResult{Kind: ResultUnsat}
	}

	s.startTime = time.Now()
	s.lastProgressTime = s.startTime
	s.lastProgressConf = s.stats.Conflicts
	s.stats.Solves++
	s.assumptions = assumps
	s.assumpHead = 0
	s.budget.ClearInterrupt()

	s.printSeparator()
	s.printSearchHeader()
	s.printSeparator()
	defer func() {
		s.printSearchStats()
		s.printSeparator()
	}()

	s.learn.Reset(s.db.NumClauses)
	currRestarts := uint64(0)

	for {
		nofConflicts := s.settings.RestartStrategy.ConflictsToGo(currRestarts)
		currRestarts++

		switch s.search(nofConflicts) {
		case searchSat:
			model := s.assigns.ExtractModel()
			s.cancelUntil(GroundLevel)
			s.stats.CPUTime += time.Since(s.startTime)
			return PartialResult{Kind: ResultSat, Model: model}
		case searchUnsat:
			s.ok = false
			s.cancelUntil(GroundLevel)
			s.stats.CPUTime += time.Since(s.startTime)
			return PartialResult{Kind: ResultUnsat}
		case searchAssumpsConfl:
			s.cancelUntil(GroundLevel)
			s.stats.CPUTime += time.Since(s.startTime)
			return PartialResult{Kind: ResultUnsat}
		case searchInterrupted:
			if !s.budget.Within(s.stats.Conflicts, s.watches.Propagations) {
				progress := s.progressEstimate()
				s.stats.CPUTime += time.Since(s.startTime)
				return PartialResult{Kind: ResultInterrupted, Progress: progress}
			}
		}
	}
}

// FinalConflict returns the assumption subset computed by the most recent
// AssumpsConfl outcome.
func (s *CoreSolver) FinalConflict() []Lit {
	return s.finalConflit
}

// search implements the inner loop of spec.md section 4.9.
func (s *CoreSolver) search(nofConflicts uint64) searchStatus {
	if !s.ok {
		return searchUnsat
	}
	s.stats.Starts++
	conflictC := uint64(0)

	for {
		if s.iterations%10000 == 0 {
			s.printSearchStats()
		}
		s.iterations++

		confl := s.propagate()
		if confl != ClauseRefUndef {
			s.stats.Conflicts++
			conflictC++

			if s.trail.IsGroundLevel() {
				return searchUnsat
			}

			learnt, btLevel := s.analyze.Analyze(s.db, s.heur, s.assigns, s.trail, confl)
			s.cancelUntil(btLevel)

			if len(learnt) == 1 {
				s.uncheckedEnqueue(learnt[0], GroundLevel, ClauseRefUndef)
			} else {
				cr := s.db.LearnClause(s.assigns, learnt)
				s.watches.Attach(s.ca, cr)
				s.db.BumpActivity(cr)
				s.uncheckedEnqueue(learnt[0], s.trail.DecisionLevel(), cr)
			}

			s.heur.Decay()
			s.db.DecayActivity()
			s.learn.Bump()
			continue
		}

		// No conflict.
		if !s.budget.Within(s.stats.Conflicts, s.watches.Propagations) || conflictC >= nofConflicts {
			s.cancelUntil(GroundLevel)
			return searchInterrupted
		}

		if s.trail.IsGroundLevel() {
			if !s.simplify() {
				return searchUnsat
			}
		}

		if s.db.NeedReduce(s.learn.Border(), s.trail.TotalSize()) {
			s.db.Reduce(s.assigns, s.watches)
		}
		if s.ca.NeedsGC(s.settings.GarbageFrac) {
			s.garbageCollect()
		}

		next := LitUndef
		for s.assumpHead < len(s.assumptions) {
			p := s.assumptions[s.assumpHead]
			s.assumpHead++
			switch s.assigns.LitValue(p) {
			case LTrue:
				s.trail.NewDecisionLevel()
				continue
			case LFalse:
				s.finalConflit = s.analyze.AnalyzeFinal(s.db, s.assigns, s.trail, p.Not())
				return searchAssumpsConfl
			default:
				next = p
			}
			if next != LitUndef {
				break
			}
		}

		if next == LitUndef {
			lit, ok := s.heur.Pick(s.assigns)
			if !ok {
				return searchSat
			}
			next = lit
			s.stats.Decisions++
		}

		s.trail.NewDecisionLevel()
		s.uncheckedEnqueue(next, s.trail.DecisionLevel(), ClauseRefUndef)
	}
}

// simplify runs at ground level only: it propagates, removes satisfied
// clauses, reaps released variables, rebuilds the heuristic's order heap,
// and checks for GC. Per spec.md section 9's resolved open question,
// released-variable reclamation is unconditional here, guarded only by the
// release queue's own emptiness.
func (s *CoreSolver) simplify() bool {
	if !s.trail.IsGroundLevel() {
		panic("sat: simplify called above ground level")
	}

	if confl := s.propagate(); confl != ClauseRefUndef {
		s.ok = false
		return false
	}

	if s.simplifyGuard.assigns == uint64(s.trail.TotalSize()) &&
		s.simplifyGuard.props == s.watches.Propagations &&
		len(s.releaseQueue) == 0 {
		return true
	}

	s.db.RemoveSatisfied(s.assigns, s.watches)

	if len(s.releaseQueue) > 0 {
		s.releasedSet.Clear()
		for _, v := range s.releaseQueue {
			s.releasedSet.Add(v)
		}
		s.trail.Retain(func(l Lit) bool { return !s.releasedSet.Contains(l.Var()) })
		for _, v := range s.releaseQueue {
			s.assigns.Cancel(v)
			s.assigns.FreeVar(v)
		}
		s.releaseQueue = s.releaseQueue[:0]
	}

	s.heur.RebuildOrderHeap(s.assigns)

	if s.ca.NeedsGC(s.settings.GarbageFrac) {
		s.garbageCollect()
	}

	s.simplifyGuard.assigns = uint64(s.trail.TotalSize())
	s.simplifyGuard.props = s.watches.Propagations
	return true
}

// cancelUntil pops the trail back to target, cancelling each popped
// variable in Assignment and notifying the heuristic whether this was the
// topmost open decision level (used to bias phase saving).
func (s *CoreSolver) cancelUntil(target int) {
	topLevel := s.trail.DecisionLevel()
	s.trail.CancelUntil(target, func(level int, l Lit) {
		s.assigns.Cancel(l.Var())
		s.heur.Cancel(l, level == topLevel)
	})
}

// garbageCollect runs a relocating GC pass over the clause arena, in the
// mandatory visiting order of spec.md section 4.1: Watches, then
// Assignment, then ClauseDB.
func (s *CoreSolver) garbageCollect() {
	to := NewClauseAllocatorSized(len(s.ca.clauses))

	s.watches.RelocGC(s.ca, to)
	s.assigns.RelocGC(s.trail, s.ca, to)
	s.db.RelocGC(to)

	s.ca = to
}

// progressEstimate returns Σ (1/V)^(i+1) × |level i| over all open decision
// levels, per spec.md section 4.9.
func (s *CoreSolver) progressEstimate() float64 {
	v := float64(s.assigns.NumVars())
	if v == 0 {
		return 0
	}
	progress := 0.0
	levels := s.trail.DecisionLevel() + 1
	for i := 0; i < levels; i++ {
		progress += pow(1.0/v, i+1) * float64(s.trail.LevelSize(i))
	}
	return progress
}

func pow(base float64, exp int) float64 {
	r := 1.0
	for i := 0; i < exp; i++ {
		r *= base
	}
	return r
}

func (s *CoreSolver) printSeparator() {
	fmt.Println("c ---------------------------------------------------------------------------")
}

func (s *CoreSolver) printSearchHeader() {
	fmt.Println("c            time     iterations      conflicts       restarts        learnts     confl/sec")
}

// printSearchStats prints one periodic progress row, called every 10000
// iterations from within search and once more when Solve returns, mirroring
// the teacher's own Solver.printSearchStats/Search cadence. The trailing
// column is an EMA-smoothed conflicts/sec rate rather than a raw counter, so
// a stalled search reads as a falling rate instead of a flat cumulative one.
func (s *CoreSolver) printSearchStats() {
	now := time.Now()
	if elapsed := now.Sub(s.lastProgressTime).Seconds(); elapsed > 0 {
		rate := float64(s.stats.Conflicts-s.lastProgressConf) / elapsed
		s.progressEMA.Add(rate)
	}
	s.lastProgressTime = now
	s.lastProgressConf = s.stats.Conflicts

	fmt.Printf(
		"c %14.3fs %14d %14d %14d %14d %13.1f\n",
		time.Since(s.startTime).Seconds(),
		s.iterations,
		s.stats.Conflicts,
		s.stats.Starts,
		s.db.NumLearnts,
		s.progressEMA.Val(),
	)
}
