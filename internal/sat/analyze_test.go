package sat

import "testing"

// TestAnalyzeSingleDecisionChain hand-builds the classic single-decision
// implication chain (one decision, three propagated consequences, then a
// conflict) and checks that first-UIP analysis correctly resolves all the
// way back to the decision itself, producing a unit learnt clause and a
// ground-level backtrack (P5, applied to the n=1-literal edge case).
//
// Chain: decide v1. C1=(v2,-v1) propagates v2. C2=(v3,-v1) propagates v3.
// C3=(v4,-v2,-v3) propagates v4. C4=(-v4,-v1) then conflicts.
func TestAnalyzeSingleDecisionChain(t *testing.T) {
	ca := NewClauseAllocator()
	db := NewClauseDB(ca, DefaultClauseDBSettings)
	assigns := NewAssignment()
	trail := NewTrail()
	heur := NewDecisionHeuristic(0.95, true)
	ac := NewAnalyzeContext(CCMinNone)

	vars := make([]Var, 4)
	for i := range vars {
		vars[i] = assigns.NewVar()
		heur.InitVar(vars[i], 0, true)
		ac.InitVar()
	}
	v1, v2, v3, v4 := vars[0], vars[1], vars[2], vars[3]

	c1 := db.AddClause([]Lit{PositiveLiteral(v2), NegativeLiteral(v1)})
	c2 := db.AddClause([]Lit{PositiveLiteral(v3), NegativeLiteral(v1)})
	c3 := db.AddClause([]Lit{PositiveLiteral(v4), NegativeLiteral(v2), NegativeLiteral(v3)})
	c4 := db.AddClause([]Lit{NegativeLiteral(v4), NegativeLiteral(v1)})

	trail.NewDecisionLevel()
	assigns.AssignLit(PositiveLiteral(v1), 1, ClauseRefUndef)
	trail.Push(PositiveLiteral(v1))
	assigns.AssignLit(PositiveLiteral(v2), 1, c1)
	trail.Push(PositiveLiteral(v2))
	assigns.AssignLit(PositiveLiteral(v3), 1, c2)
	trail.Push(PositiveLiteral(v3))
	assigns.AssignLit(PositiveLiteral(v4), 1, c3)
	trail.Push(PositiveLiteral(v4))

	learnt, btLevel := ac.Analyze(db, heur, assigns, trail, c4)

	if len(learnt) != 1 {
		t.Fatalf("learnt clause = %v, want a single literal", learnt)
	}
	if learnt[0] != NegativeLiteral(v1) {
		t.Errorf("learnt[0] = %v, want %v", learnt[0], NegativeLiteral(v1))
	}
	if btLevel != GroundLevel {
		t.Errorf("backtrack level = %d, want GroundLevel (0)", btLevel)
	}

	for _, v := range vars {
		if ac.seen[v] != seenUndef {
			t.Errorf("seen[%v] = %v after Analyze returned, want seenUndef", v, ac.seen[v])
		}
	}
}

// TestAnalyzeTwoDecisionLevels checks the ordinary multi-level case: the
// learnt clause's asserting literal is the current level's first UIP (here
// the propagated v3, not the decision v2), and out[1] carries the maximum
// level among the remaining literals, per spec.md section 4.5's
// backtrack-level contract.
//
// Level 1: decide v1. Level 2: decide v2. C1=(v3,-v1,-v2) propagates v3 at
// level 2. C2=(-v3,-v1) conflicts at level 2.
func TestAnalyzeTwoDecisionLevels(t *testing.T) {
	ca := NewClauseAllocator()
	db := NewClauseDB(ca, DefaultClauseDBSettings)
	assigns := NewAssignment()
	trail := NewTrail()
	heur := NewDecisionHeuristic(0.95, true)
	ac := NewAnalyzeContext(CCMinNone)

	vars := make([]Var, 3)
	for i := range vars {
		vars[i] = assigns.NewVar()
		heur.InitVar(vars[i], 0, true)
		ac.InitVar()
	}
	v1, v2, v3 := vars[0], vars[1], vars[2]

	c1 := db.AddClause([]Lit{PositiveLiteral(v3), NegativeLiteral(v1), NegativeLiteral(v2)})
	c2 := db.AddClause([]Lit{NegativeLiteral(v3), NegativeLiteral(v1)})

	trail.NewDecisionLevel() // level 1
	assigns.AssignLit(PositiveLiteral(v1), 1, ClauseRefUndef)
	trail.Push(PositiveLiteral(v1))

	trail.NewDecisionLevel() // level 2
	assigns.AssignLit(PositiveLiteral(v2), 2, ClauseRefUndef)
	trail.Push(PositiveLiteral(v2))
	assigns.AssignLit(PositiveLiteral(v3), 2, c1)
	trail.Push(PositiveLiteral(v3))

	learnt, btLevel := ac.Analyze(db, heur, assigns, trail, c2)

	if len(learnt) != 2 {
		t.Fatalf("learnt clause = %v, want exactly 2 literals", learnt)
	}
	if learnt[0] != NegativeLiteral(v3) {
		t.Errorf("learnt[0] (asserting literal) = %v, want %v", learnt[0], NegativeLiteral(v3))
	}
	if learnt[1] != NegativeLiteral(v1) {
		t.Errorf("learnt[1] = %v, want %v", learnt[1], NegativeLiteral(v1))
	}
	if btLevel != 1 {
		t.Errorf("backtrack level = %d, want 1 (the level of learnt[1])", btLevel)
	}
}
