package sat

// watcher is one entry in a literal's watch list: a clause that should be
// re-examined when the watched literal's negation becomes true, plus a
// cached "blocker" literal used to short-circuit the common case where the
// clause is already satisfied.
type watcher struct {
	clause  ClauseRef
	blocker Lit
}

// Watches indexes, for each literal, the clauses watching it, and runs the
// two-watched-literal BCP main loop.
type Watches struct {
	lists        [][]watcher
	Propagations uint64
}

// NewWatches returns an empty watch index.
func NewWatches() *Watches {
	return &Watches{}
}

// Init grows the watch index to cover a freshly allocated variable's two
// literals.
func (w *Watches) Init() {
	w.lists = append(w.lists, nil, nil)
}

// watch appends clause cr to lit's watch list, so that cr is examined when
// lit becomes true, that is, when the clause literal lit.Not() becomes false.
func (w *Watches) watch(lit Lit, cr ClauseRef, blocker Lit) {
	w.lists[lit] = append(w.lists[lit], watcher{clause: cr, blocker: blocker})
}

// unwatch removes clause cr from lit's watch list.
func (w *Watches) unwatch(lit Lit, cr ClauseRef) {
	ws := w.lists[lit]
	j := 0
	for i := range ws {
		if ws[i].clause != cr {
			ws[j] = ws[i]
			j++
		}
	}
	w.lists[lit] = ws[:j]
}

// Attach watches cr on its first two literals, per spec.md invariant 3: the
// watch lists of lits[0].Not() and lits[1].Not() must each contain cr.
func (w *Watches) Attach(ca *ClauseAllocator, cr ClauseRef) {
	lits := ca.Lits(cr)
	w.watch(lits[0].Not(), cr, lits[1])
	w.watch(lits[1].Not(), cr, lits[0])
}

// Detach removes cr from both of its watch lists.
func (w *Watches) Detach(ca *ClauseAllocator, cr ClauseRef) {
	lits := ca.Lits(cr)
	w.unwatch(lits[0].Not(), cr)
	w.unwatch(lits[1].Not(), cr)
}

// Propagate drains the trail from its qhead, running unit propagation until
// either the trail is exhausted (returns ClauseRefUndef) or a clause is
// found false under the current assignment (returns that clause). On a
// conflict, watchers not yet examined for the triggering literal are left in
// place so that a subsequent call resumes correctly.
func (w *Watches) Propagate(trail *Trail, assigns *Assignment, ca *ClauseAllocator) ClauseRef {
	for trail.qhead < len(trail.lits) {
		p := trail.At(trail.qhead)
		trail.qhead++
		w.Propagations++

		ws := w.lists[p]
		i, j := 0, 0
		for i < len(ws) {
			wr := ws[i]

			if assigns.LitValue(wr.blocker) == LTrue {
				ws[j] = wr
				i++
				j++
				continue
			}

			c := ca.View(wr.clause)
			falseLit := p.Not()
			if c.lits[0] == falseLit {
				c.lits[0], c.lits[1] = c.lits[1], c.lits[0]
			}
			first := c.lits[0]

			if first != wr.blocker && assigns.LitValue(first) == LTrue {
				ws[j] = watcher{clause: wr.clause, blocker: first}
				i++
				j++
				continue
			}

			moved := false
			for k := 2; k < len(c.lits); k++ {
				if assigns.LitValue(c.lits[k]) != LFalse {
					c.lits[1], c.lits[k] = c.lits[k], c.lits[1]
					w.watch(c.lits[1].Not(), wr.clause, first)
					moved = true
					break
				}
			}
			if moved {
				i++
				continue
			}

			// No new watch found: this watcher stays where it is.
			ws[j] = watcher{clause: wr.clause, blocker: first}
			j++
			i++

			if assigns.LitValue(first) == LFalse {
				// Conflict: preserve the remaining, not-yet-examined
				// watchers and stop here.
				for ; i < len(ws); i++ {
					ws[j] = ws[i]
					j++
				}
				w.lists[p] = ws[:j]
				return wr.clause
			}

			assigns.AssignLit(first, trail.DecisionLevel(), wr.clause)
			trail.Push(first)
		}
		w.lists[p] = ws[:j]
	}
	return ClauseRefUndef
}

// RelocGC rewrites every watcher's clause reference into the destination
// arena, dropping watchers whose clause has been deleted. This must visit
// every watch list exactly once; it is always the first component to run
// during a GC pass, per spec.md section 4.1.
func (w *Watches) RelocGC(from, to *ClauseAllocator) {
	for lit := range w.lists {
		ws := w.lists[lit]
		j := 0
		for _, wr := range ws {
			if from.IsDeleted(wr.clause) {
				continue
			}
			ws[j] = watcher{clause: from.RelocateTo(to, wr.clause), blocker: wr.blocker}
			j++
		}
		w.lists[lit] = ws[:j]
	}
}
