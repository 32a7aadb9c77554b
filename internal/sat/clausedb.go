package sat

import "sort"

// ClauseDBSettings configures clause-database bookkeeping.
type ClauseDBSettings struct {
	ClauseDecay     float64
	RemoveSatisfied bool // whether remove_satisfied also sweeps original clauses
}

// DefaultClauseDBSettings matches the teacher/original defaults.
var DefaultClauseDBSettings = ClauseDBSettings{
	ClauseDecay:     0.999,
	RemoveSatisfied: true,
}

// ClauseDB holds the original and learnt clause sets and the activity
// bookkeeping shared across them, per spec.md section 4.7.
type ClauseDB struct {
	ca *ClauseAllocator

	settings ClauseDBSettings

	constraints []ClauseRef
	learnts     []ClauseRef

	clauseInc float64

	NumClauses      int
	NumLearnts      int
	ClausesLiterals int
	LearntsLiterals int
}

// NewClauseDB returns an empty database backed by ca.
func NewClauseDB(ca *ClauseAllocator, settings ClauseDBSettings) *ClauseDB {
	return &ClauseDB{ca: ca, settings: settings, clauseInc: 1}
}

// AddClause allocates lits as an original clause, returning its reference.
func (db *ClauseDB) AddClause(lits []Lit) ClauseRef {
	cr := db.ca.Allocate(lits, false)
	db.constraints = append(db.constraints, cr)
	db.NumClauses++
	db.ClausesLiterals += len(lits)
	return cr
}

// LearnClause allocates lits as a learnt clause with the current activity
// increment and an LBD computed from the current assignment.
func (db *ClauseDB) LearnClause(assigns *Assignment, lits []Lit) ClauseRef {
	cr := db.ca.Allocate(lits, true)
	db.ca.SetActivity(cr, db.clauseInc)
	db.ca.View(cr).lbd = computeLBD(assigns, lits)
	db.learnts = append(db.learnts, cr)
	db.NumLearnts++
	db.LearntsLiterals += len(lits)
	return cr
}

// BumpActivity bumps cr's activity if it is a learnt clause; a no-op for
// original clauses.
func (db *ClauseDB) BumpActivity(cr ClauseRef) {
	if !db.ca.Learnt(cr) {
		return
	}
	newActivity := db.ca.Activity(cr) + db.clauseInc
	db.ca.SetActivity(cr, newActivity)
	if newActivity > 1e20 {
		for _, lr := range db.learnts {
			db.ca.SetActivity(lr, db.ca.Activity(lr)*1e-20)
		}
		db.clauseInc *= 1e-20
	}
}

// DecayActivity increases the activity increment, which has the effect of
// decreasing existing activities relative to future bumps.
func (db *ClauseDB) DecayActivity() {
	db.clauseInc /= db.settings.ClauseDecay
}

// NeedReduce reports whether the number of learnt clauses, net of the
// current trail size, has grown enough to warrant a reduction pass, per
// spec.md section 4.7: num_learnts - trail.total_size() >= limit.
func (db *ClauseDB) NeedReduce(limit, trailSize int) bool {
	return db.NumLearnts-trailSize-limit >= 0
}

// Reduce sorts learnt clauses by activity and drops roughly the lower half,
// keeping any clause that is locked (its reason is live) or has an LBD of 2
// or less (short clauses are valuable regardless of activity), per spec.md
// section 4.7.
func (db *ClauseDB) Reduce(assigns *Assignment, watches *Watches) {
	learnts := db.learnts
	sort.Slice(learnts, func(i, j int) bool {
		return db.ca.Activity(learnts[i]) < db.ca.Activity(learnts[j])
	})

	j := 0
	half := len(learnts) / 2
	for i, cr := range learnts {
		keep := i >= half || assigns.IsLocked(db.ca, cr) || db.ca.LBD(cr) <= 2
		if keep {
			learnts[j] = cr
			j++
			continue
		}
		db.removeClause(assigns, watches, cr, true)
	}
	db.learnts = learnts[:j]
}

// RemoveSatisfied drops every clause with a true literal at ground level.
// Learnt clauses are always swept; original clauses are swept only when the
// database was configured to do so (settings.RemoveSatisfied).
func (db *ClauseDB) RemoveSatisfied(assigns *Assignment, watches *Watches) {
	db.learnts = db.sweepSatisfied(assigns, watches, db.learnts, true)
	if db.settings.RemoveSatisfied {
		db.constraints = db.sweepSatisfied(assigns, watches, db.constraints, false)
	}
}

func (db *ClauseDB) sweepSatisfied(assigns *Assignment, watches *Watches, crs []ClauseRef, learnt bool) []ClauseRef {
	j := 0
	for _, cr := range crs {
		if db.ca.IsDeleted(cr) {
			continue
		}
		if clauseSatisfiedAtGround(assigns, db.ca.Lits(cr)) {
			db.removeClause(assigns, watches, cr, learnt)
			continue
		}
		crs[j] = cr
		j++
	}
	return crs[:j]
}

func clauseSatisfiedAtGround(assigns *Assignment, lits []Lit) bool {
	for _, l := range lits {
		if assigns.LitValue(l) == LTrue && assigns.Level(l.Var()) == GroundLevel {
			return true
		}
	}
	return false
}

// removeClause detaches cr's watchers, forgets it as any variable's reason,
// and frees it in the arena, updating the database's literal/clause
// counters.
func (db *ClauseDB) removeClause(assigns *Assignment, watches *Watches, cr ClauseRef, learnt bool) {
	n := len(db.ca.Lits(cr))
	watches.Detach(db.ca, cr)
	if v := db.ca.Lits(cr)[0].Var(); assigns.Reason(v) == cr {
		assigns.ForgetReason(v)
	}
	db.ca.Free(cr)
	if learnt {
		db.NumLearnts--
		db.LearntsLiterals -= n
	} else {
		db.NumClauses--
		db.ClausesLiterals -= n
	}
}

// RelocGC rewrites every clause reference held by the database into the
// destination arena, dropping any entry whose clause has been deleted.
func (db *ClauseDB) RelocGC(to *ClauseAllocator) {
	db.constraints = relocRefs(db.ca, to, db.constraints)
	db.learnts = relocRefs(db.ca, to, db.learnts)
	db.ca = to
}

func relocRefs(from, to *ClauseAllocator, crs []ClauseRef) []ClauseRef {
	j := 0
	for _, cr := range crs {
		if from.IsDeleted(cr) {
			continue
		}
		crs[j] = from.RelocateTo(to, cr)
		j++
	}
	return crs[:j]
}
