package sat

import "testing"

// TestGarbageCollectPreservesWatcherIntegrity exercises property P6: after a
// relocating GC pass, every watcher's clause reference must resolve to a
// live clause in the new arena, and that clause must still contain the
// watcher's cached blocker literal.
//
// A tiny GarbageFrac forces at least one collection to happen as soon as any
// clause is removed, and an unsatisfiable pigeonhole instance guarantees
// plenty of conflicts (hence learning, reduction and removal) along the way.
func TestGarbageCollectPreservesWatcherIntegrity(t *testing.T) {
	settings := DefaultSettings
	settings.GarbageFrac = 1e-9

	s := NewCoreSolver(settings)
	vars := make([]Var, 20) // pigeons 1..5 into holes 1..4, ids 0..19
	for i := range vars {
		vars[i] = s.AddVariable()
	}

	id := func(p, h int) int { return p*4 + h } // pigeon p (0..4), hole h (0..3)

	// Every pigeon sits in at least one hole.
	for p := 0; p < 5; p++ {
		clause := make([]Lit, 4)
		for h := 0; h < 4; h++ {
			clause[h] = PositiveLiteral(vars[id(p, h)])
		}
		s.AddClause(clause)
	}
	// No two pigeons share a hole.
	for h := 0; h < 4; h++ {
		for p1 := 0; p1 < 5; p1++ {
			for p2 := p1 + 1; p2 < 5; p2++ {
				s.AddClause([]Lit{
					NegativeLiteral(vars[id(p1, h)]),
					NegativeLiteral(vars[id(p2, h)]),
				})
			}
		}
	}

	res := s.Solve(nil)
	if res.Kind != ResultUnsat {
		t.Fatalf("Solve() = %v, want ResultUnsat", res.Kind)
	}

	for lit := 0; lit < len(s.watches.lists); lit++ {
		for _, wr := range s.watches.lists[lit] {
			if s.ca.IsDeleted(wr.clause) {
				t.Fatalf("lit %d watches deleted clause %d", lit, wr.clause)
			}
			lits := s.ca.Lits(wr.clause)
			found := false
			for _, l := range lits {
				if l == wr.blocker {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("lit %d watcher's blocker %v not found in clause %v", lit, wr.blocker, lits)
			}
		}
	}
}
