package sat

// GroundLevel is decision level 0, where unit facts and user assumptions'
// consequences live permanently (never backtracked past).
const GroundLevel = 0

// varData holds everything the solver knows about one variable's current
// assignment: its value, the decision level it was set at, and the clause
// that unit-propagated it (ClauseRefUndef for a decision or assumption).
type varData struct {
	value  LBool
	level  int
	reason ClauseRef
}

// Assignment is the single source of truth for variable state. The
// propagation trail is its append-ordered history; Assignment itself only
// knows the *current* value of each variable.
type Assignment struct {
	vars     []varData
	freeVars []Var
}

// NewAssignment returns an empty Assignment.
func NewAssignment() *Assignment {
	return &Assignment{}
}

// NumVars returns the number of currently allocated variables (including
// recycled ones still counted against the dense index space).
func (a *Assignment) NumVars() int {
	return len(a.vars)
}

// NewVar allocates a fresh variable, reusing a freed index LIFO if one is
// available.
func (a *Assignment) NewVar() Var {
	if n := len(a.freeVars); n > 0 {
		v := a.freeVars[n-1]
		a.freeVars = a.freeVars[:n-1]
		a.vars[v] = varData{value: LUndef, level: -1, reason: ClauseRefUndef}
		return v
	}
	a.vars = append(a.vars, varData{value: LUndef, level: -1, reason: ClauseRefUndef})
	return Var(len(a.vars) - 1)
}

// FreeVar releases v back to the pool of reusable indices. The caller must
// ensure v is currently Undef.
func (a *Assignment) FreeVar(v Var) {
	a.freeVars = append(a.freeVars, v)
}

// AssignLit records that l is now true, at the given level, for the given
// reason. The variable must currently be Undef.
func (a *Assignment) AssignLit(l Lit, level int, reason ClauseRef) {
	vd := &a.vars[l.Var()]
	if vd.value != LUndef {
		panic("sat: assigning an already-assigned variable")
	}
	if l.Sign() {
		vd.value = LFalse
	} else {
		vd.value = LTrue
	}
	vd.level = level
	vd.reason = reason
}

// Cancel reverts a variable to Undef. Its level and reason become
// meaningless until the next AssignLit.
func (a *Assignment) Cancel(v Var) {
	a.vars[v].value = LUndef
}

// Value returns the variable's current lifted value (LTrue means the
// positive literal holds).
func (a *Assignment) Value(v Var) LBool {
	return a.vars[v].value
}

// LitValue returns l's current truth value, accounting for its sign.
func (a *Assignment) LitValue(l Lit) LBool {
	v := a.vars[l.Var()].value
	if l.Sign() {
		return v.Not()
	}
	return v
}

// Level returns the decision level at which v was assigned. Only meaningful
// while v is assigned.
func (a *Assignment) Level(v Var) int {
	return a.vars[v].level
}

// Reason returns the clause that unit-propagated v, or ClauseRefUndef if v
// was decided or assumed. Only meaningful while v is assigned.
func (a *Assignment) Reason(v Var) ClauseRef {
	return a.vars[v].reason
}

// ForgetReason clears v's reason pointer. Used right before freeing a clause
// that happens to still be v's (stale, soon-to-be-dangling) reason.
func (a *Assignment) ForgetReason(v Var) {
	a.vars[v].reason = ClauseRefUndef
}

// IsLocked reports whether cr is the reason clause of its own first
// literal's variable: a locked clause must never be deleted, since doing so
// would leave a live assignment pointing at freed data.
func (a *Assignment) IsLocked(ca *ClauseAllocator, cr ClauseRef) bool {
	lits := ca.Lits(cr)
	if len(lits) == 0 {
		return false
	}
	first := lits[0]
	if a.LitValue(first) != LTrue {
		return false
	}
	return a.vars[first.Var()].reason == cr
}

// ExtractModel returns every assigned variable's Boolean value. It does not
// over-approximate: a variable that is unassigned when it is called is
// absent from the map.
func (a *Assignment) ExtractModel() map[Var]bool {
	model := make(map[Var]bool, len(a.vars))
	for i, vd := range a.vars {
		switch vd.value {
		case LTrue:
			model[Var(i)] = true
		case LFalse:
			model[Var(i)] = false
		}
	}
	return model
}

// RelocGC rewrites every trail-reachable reason that points at a relocated
// or locked clause. Reasons that are neither are left dangling on purpose:
// they are never dereferenced once IsLocked returns false for them, and
// IsLocked is only ever evaluated before the owning clause can have been
// relocated out from under it.
func (a *Assignment) RelocGC(trail *Trail, from, to *ClauseAllocator) {
	for _, l := range trail.lits {
		v := l.Var()
		vd := &a.vars[v]
		if vd.reason == ClauseRefUndef {
			continue
		}
		rec := from.View(vd.reason)
		if rec.relocated || a.IsLocked(from, vd.reason) {
			vd.reason = from.RelocateTo(to, vd.reason)
		}
	}
}
