package sat

// ClauseRef is a stable handle into a ClauseAllocator's arena. It stays valid
// until a garbage collection relocates the arena, at which point every
// component holding a ClauseRef must have it rewritten through RelocateTo.
type ClauseRef int32

// ClauseRefUndef marks the absence of a clause reference (e.g. a decision or
// an assumed literal has no reason clause).
const ClauseRefUndef ClauseRef = -1

// clauseHeaderWords is the fixed per-clause bookkeeping overhead counted
// towards the arena's capacity/wasted accounting, mirroring the original
// ClauseAllocator's notion that a clause occupies more than just its literal
// payload (activity, LBD, flags). Go's slice-of-structs arena does not need
// this for correctness, only to keep the garbage_frac threshold meaningful.
const clauseHeaderWords = 3

// clauseRecord is one arena slot. A deleted record with relocated set carries
// the forwarding reference in relocTo; a deleted record without relocated is
// simply garbage awaiting the next GC pass.
type clauseRecord struct {
	lits      []Lit
	learnt    bool
	deleted   bool
	relocated bool
	relocTo   ClauseRef
	activity  float64
	lbd       int
}

func (c *clauseRecord) size() int {
	return len(c.lits) + clauseHeaderWords
}

// ClauseAllocator is a linear arena holding clauses back-to-back. It tracks
// wasted space from deletions and supports relocating garbage collection: a
// destination arena is built by copying only live clauses, and every
// reference into the source is rewritten to point at the destination.
type ClauseAllocator struct {
	clauses []clauseRecord
	wasted  int
}

// NewClauseAllocator returns an empty arena.
func NewClauseAllocator() *ClauseAllocator {
	return &ClauseAllocator{}
}

// NewClauseAllocatorSized returns an empty arena pre-sized for a GC
// destination, matching the original's ClauseAllocator::newForGC: the
// capacity hint avoids repeated growth while copying live clauses across.
func NewClauseAllocatorSized(capacityHint int) *ClauseAllocator {
	return &ClauseAllocator{clauses: make([]clauseRecord, 0, capacityHint)}
}

// Allocate copies lits into a new clause record and returns its reference.
func (ca *ClauseAllocator) Allocate(lits []Lit, learnt bool) ClauseRef {
	rec := clauseRecord{
		lits:    append([]Lit(nil), lits...),
		learnt:  learnt,
		relocTo: ClauseRefUndef,
	}
	ca.clauses = append(ca.clauses, rec)
	return ClauseRef(len(ca.clauses) - 1)
}

// View returns a pointer to the clause record so callers can read and mutate
// its literals in place (e.g. watch-swapping during BCP). The pointer must
// not be retained across a call to Allocate, since growing the backing slice
// may move it.
func (ca *ClauseAllocator) View(cr ClauseRef) *clauseRecord {
	return &ca.clauses[cr]
}

// Lits returns the clause's literals.
func (ca *ClauseAllocator) Lits(cr ClauseRef) []Lit {
	return ca.clauses[cr].lits
}

// IsDeleted reports whether the clause has been freed.
func (ca *ClauseAllocator) IsDeleted(cr ClauseRef) bool {
	return ca.clauses[cr].deleted
}

// Free marks a clause deleted and accounts its footprint as wasted space.
// Actual reclamation only happens during GC.
func (ca *ClauseAllocator) Free(cr ClauseRef) {
	rec := &ca.clauses[cr]
	if rec.deleted {
		return
	}
	ca.wasted += rec.size()
	rec.deleted = true
	rec.lits = nil
}

// NeedsGC reports whether wasted space has crossed the given fraction of the
// arena's total footprint.
func (ca *ClauseAllocator) NeedsGC(frac float64) bool {
	total := ca.wasted
	for i := range ca.clauses {
		if !ca.clauses[i].deleted {
			total += ca.clauses[i].size()
		}
	}
	if total == 0 {
		return false
	}
	return float64(ca.wasted)/float64(total) >= frac
}

// RelocateTo copies a clause from ca into dst, or follows an existing
// relocation mark if the clause was already moved this GC pass. The source
// slot is marked relocated with a forwarding reference.
func (ca *ClauseAllocator) RelocateTo(dst *ClauseAllocator, cr ClauseRef) ClauseRef {
	rec := &ca.clauses[cr]
	if rec.relocated {
		return rec.relocTo
	}
	newRef := ClauseRef(len(dst.clauses))
	dst.clauses = append(dst.clauses, clauseRecord{
		lits:     append([]Lit(nil), rec.lits...),
		learnt:   rec.learnt,
		activity: rec.activity,
		lbd:      rec.lbd,
		relocTo:  ClauseRefUndef,
	})
	rec.relocated = true
	rec.relocTo = newRef
	return newRef
}
