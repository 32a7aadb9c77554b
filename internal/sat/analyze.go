package sat

// CCMinMode selects how aggressively conflict-clause minimization removes
// literals already implied by others in the learnt clause.
type CCMinMode int

const (
	CCMinNone CCMinMode = iota
	CCMinBasic
	CCMinDeep
)

// seenState is the per-variable marker used both during first-UIP
// derivation (Source) and during minimization's DFS (Removable / Failed).
type seenState uint8

const (
	seenUndef seenState = iota
	seenSource
	seenRemovable
	seenFailed
)

// analyzeStackEntry is one frame of the explicit (non-recursive) DFS stack
// used by litRedundant, pairing a literal with the index of the next
// not-yet-visited literal in its reason clause.
type analyzeStackEntry struct {
	lit Lit
	cr  ClauseRef
	idx int // next index into ca.Lits(cr) to visit, starting at 1
}

// AnalyzeContext implements first-UIP conflict analysis, clause
// minimization, and final-conflict extraction under assumptions. It owns the
// per-variable Seen array, which is reused and recycled across calls via
// toClear; every exported method clears every variable it touched before
// returning.
type AnalyzeContext struct {
	ccminMode CCMinMode
	seen      []seenState
	toClear   []Var

	MaxLiterals uint64
	TotLiterals uint64

	stack []analyzeStackEntry // reused scratch for litRedundant
}

// NewAnalyzeContext returns an analyzer configured with the given
// minimization mode.
func NewAnalyzeContext(mode CCMinMode) *AnalyzeContext {
	return &AnalyzeContext{ccminMode: mode}
}

// InitVar registers a freshly allocated variable.
func (ac *AnalyzeContext) InitVar() {
	ac.seen = append(ac.seen, seenUndef)
}

// Analyze derives a learnt clause and backtrack level from a conflicting
// clause confl0, per spec.md section 4.5. Precondition: the current decision
// level is > 0.
//
// The returned slice's first literal is the asserting literal; if it has
// more than one literal, out[1] carries the maximum decision level among
// out[1:].
func (ac *AnalyzeContext) Analyze(db *ClauseDB, heur *DecisionHeuristic, assigns *Assignment, trail *Trail, confl0 ClauseRef) ([]Lit, int) {
	var out []Lit
	pathC := 0
	confl := confl0
	index := trail.TotalSize()
	curLevel := trail.DecisionLevel()

	first := true
	var p Lit
	for {
		db.BumpActivity(confl)

		lits := db.ca.Lits(confl)
		start := 0
		if !first {
			start = 1
		}
		first = false

		for _, q := range lits[start:] {
			v := q.Var()
			if ac.seen[v] != seenUndef {
				continue
			}
			if assigns.Level(v) <= GroundLevel {
				continue
			}
			ac.seen[v] = seenSource
			heur.Bump(v)
			if assigns.Level(v) >= curLevel {
				pathC++
			} else {
				out = append(out, q)
			}
		}

		// Walk the trail backward to the next seen variable.
		for {
			index--
			p = trail.At(index)
			if ac.seen[p.Var()] != seenUndef {
				break
			}
		}
		ac.seen[p.Var()] = seenUndef
		pathC--
		if pathC <= 0 {
			break
		}
		confl = assigns.Reason(p.Var())
	}

	learnt := make([]Lit, 1, len(out)+1)
	learnt[0] = p.Not()
	learnt = append(learnt, out...)

	learnt, btLevel := ac.minimize(db, assigns, learnt)
	return learnt, btLevel
}

// minimize applies the configured CCMinMode and computes the final
// backtrack level, matching spec.md section 4.5's post-minimization step.
func (ac *AnalyzeContext) minimize(db *ClauseDB, assigns *Assignment, learnt []Lit) ([]Lit, int) {
	toClear := append([]Lit(nil), learnt...)
	ac.MaxLiterals += uint64(len(learnt))

	switch ac.ccminMode {
	case CCMinDeep:
		learnt = ac.filterRedundant(db, assigns, learnt, ac.litRedundantDeep)
	case CCMinBasic:
		learnt = ac.filterRedundant(db, assigns, learnt, ac.litRedundantBasic)
	case CCMinNone:
		// no-op
	}
	ac.TotLiterals += uint64(len(learnt))

	for _, l := range toClear {
		ac.seen[l.Var()] = seenUndef
	}
	for _, v := range ac.toClear {
		ac.seen[v] = seenUndef
	}
	ac.toClear = ac.toClear[:0]

	if len(learnt) == 1 {
		return learnt, GroundLevel
	}

	maxI, maxLevel := 1, assigns.Level(learnt[1].Var())
	for i := 2; i < len(learnt); i++ {
		if lvl := assigns.Level(learnt[i].Var()); lvl > maxLevel {
			maxI, maxLevel = i, lvl
		}
	}
	learnt[1], learnt[maxI] = learnt[maxI], learnt[1]
	return learnt, maxLevel
}

// filterRedundant keeps out[0] (the asserting literal is never minimized)
// and every literal for which redundant returns false.
func (ac *AnalyzeContext) filterRedundant(db *ClauseDB, assigns *Assignment, lits []Lit, redundant func(*ClauseDB, *Assignment, Lit) bool) []Lit {
	j := 1
	for i := 1; i < len(lits); i++ {
		if !redundant(db, assigns, lits[i]) {
			lits[j] = lits[i]
			j++
		}
	}
	return lits[:j]
}

// litRedundantBasic implements CCMinBasic: l is redundant iff its reason
// clause's other literals are all already seen or at ground level.
func (ac *AnalyzeContext) litRedundantBasic(db *ClauseDB, assigns *Assignment, l Lit) bool {
	cr := assigns.Reason(l.Var())
	if cr == ClauseRefUndef {
		return false
	}
	lits := db.ca.Lits(cr)
	for _, q := range lits[1:] {
		v := q.Var()
		if ac.seen[v] == seenUndef && assigns.Level(v) > GroundLevel {
			return false
		}
	}
	return true
}

// litRedundantDeep implements CCMinDeep: an iterative DFS through reasons,
// deliberately non-recursive to bound stack use on pathological formulas.
func (ac *AnalyzeContext) litRedundantDeep(db *ClauseDB, assigns *Assignment, l Lit) bool {
	if s := ac.seen[l.Var()]; s != seenUndef && s != seenSource {
		panic("sat: litRedundant called on an already-resolved literal")
	}

	cr := assigns.Reason(l.Var())
	if cr == ClauseRefUndef {
		return false
	}
	ac.stack = ac.stack[:0]
	ac.stack = append(ac.stack, analyzeStackEntry{lit: l, cr: cr, idx: 1})

	for len(ac.stack) > 0 {
		top := &ac.stack[len(ac.stack)-1]
		lits := db.ca.Lits(top.cr)

		if top.idx >= len(lits) {
			// Finished with this frame: mark it removable.
			p := top.lit
			ac.stack = ac.stack[:len(ac.stack)-1]
			if ac.seen[p.Var()] == seenUndef {
				ac.seen[p.Var()] = seenRemovable
				ac.toClear = append(ac.toClear, p.Var())
			}
			continue
		}

		q := lits[top.idx]
		top.idx++
		v := q.Var()
		s := ac.seen[v]

		if assigns.Level(v) == GroundLevel || s == seenSource || s == seenRemovable {
			continue
		}

		qr := assigns.Reason(v)
		if qr != ClauseRefUndef && s == seenUndef {
			ac.stack = append(ac.stack, analyzeStackEntry{lit: q, cr: qr, idx: 1})
			continue
		}

		// q cannot be removed: fail every frame currently on the stack.
		for _, entry := range ac.stack {
			if ac.seen[entry.lit.Var()] == seenUndef {
				ac.seen[entry.lit.Var()] = seenFailed
				ac.toClear = append(ac.toClear, entry.lit.Var())
			}
		}
		return false
	}

	return true
}

// AnalyzeFinal walks the trail from top to ground level, collecting the
// subset of assumptions responsible for the conflicting literal p (p is
// typically the negation of a false assumption). Seen is cleared before
// returning.
func (ac *AnalyzeContext) AnalyzeFinal(db *ClauseDB, assigns *Assignment, trail *Trail, p Lit) []Lit {
	var out []Lit
	ac.seen[p.Var()] = seenSource
	out = append(out, p)

	for i := trail.TotalSize() - 1; i >= 0; i-- {
		lit := trail.At(i)
		v := lit.Var()
		if assigns.Level(v) == GroundLevel {
			break
		}
		if ac.seen[v] == seenUndef {
			continue
		}
		if r := assigns.Reason(v); r == ClauseRefUndef {
			out = append(out, lit.Not())
		} else {
			for _, q := range db.ca.Lits(r)[1:] {
				qv := q.Var()
				if assigns.Level(qv) > GroundLevel {
					ac.seen[qv] = seenSource
				}
			}
		}
		ac.seen[v] = seenUndef
	}
	ac.seen[p.Var()] = seenUndef

	return out
}
