package sat

import (
	"github.com/rhartert/yagh"
)

// DecisionHeuristic is the VSIDS-style branching oracle described as a
// black box in spec.md section 9: init_var, pick, bump, decay, cancel,
// rebuild_order_heap. It is backed by a yagh.IntMap binary heap keyed by
// negated activity (yagh is a min-heap; VSIDS wants the maximum-activity
// variable), exactly as the teacher's ordering.go wires the same library.
type DecisionHeuristic struct {
	order *yagh.IntMap[float64]

	scores     []float64
	scoreInc   float64
	scoreDecay float64

	phases      []LBool
	phaseSaving bool

	RandDecisions uint64
}

// NewDecisionHeuristic returns a heuristic with the given activity decay and
// phase-saving setting.
func NewDecisionHeuristic(decay float64, phaseSaving bool) *DecisionHeuristic {
	return &DecisionHeuristic{
		order:       yagh.New[float64](0),
		scoreInc:    1,
		scoreDecay:  decay,
		phaseSaving: phaseSaving,
	}
}

// InitVar registers a freshly allocated variable with an initial activity
// and polarity.
func (h *DecisionHeuristic) InitVar(v Var, initScore float64, initPhase bool) {
	id := int(v)
	for len(h.scores) <= id {
		h.scores = append(h.scores, 0)
		h.phases = append(h.phases, LUndef)
	}
	h.scores[id] = initScore
	h.phases[id] = Lift(initPhase)

	h.order.GrowBy(1)
	h.order.Put(id, -initScore)
}

// Pick pops the heap until it finds an unassigned variable, discarding
// already-assigned entries along the way, and returns the literal to branch
// on according to the variable's saved (or default positive) phase. It
// returns (LitUndef, false) once every variable has a value: the formula is
// satisfied.
func (h *DecisionHeuristic) Pick(assigns *Assignment) (Lit, bool) {
	for {
		elem, ok := h.order.Pop()
		if !ok {
			return LitUndef, false
		}
		v := Var(elem.Elem)
		if assigns.Value(v) != LUndef {
			continue
		}
		switch h.phases[v] {
		case LFalse:
			return NegativeLiteral(v), true
		default:
			return PositiveLiteral(v), true
		}
	}
}

// Bump increases v's activity, rescaling every variable's activity (and the
// increment itself) if the threshold is crossed, to keep relative weights
// representable in float64.
func (h *DecisionHeuristic) Bump(v Var) {
	h.scores[v] += h.scoreInc
	if h.order.Contains(int(v)) {
		h.order.Put(int(v), -h.scores[v])
	}
	if h.scores[v] > 1e100 {
		h.rescale()
	}
}

func (h *DecisionHeuristic) rescale() {
	h.scoreInc *= 1e-100
	for v, s := range h.scores {
		h.scores[v] = s * 1e-100
		if h.order.Contains(v) {
			h.order.Put(v, -h.scores[v])
		}
	}
}

// Decay increases the activity increment, which has the effect of
// decreasing every existing activity relative to future bumps.
func (h *DecisionHeuristic) Decay() {
	h.scoreInc /= h.scoreDecay
	if h.scoreInc > 1e100 {
		h.rescale()
	}
}

// Cancel reinserts v into the candidate heap after it has been unassigned by
// a backtrack, recording its last value as the next phase when phase saving
// is enabled.
func (h *DecisionHeuristic) Cancel(l Lit, wasTopLevel bool) {
	v := l.Var()
	if h.phaseSaving {
		h.phases[v] = Lift(!l.Sign())
	}
	h.order.Put(int(v), -h.scores[v])
	_ = wasTopLevel // reserved for phase-saving variants that bias on restart depth
}

// RebuildOrderHeap rebuilds the heap from scratch over every currently
// unassigned variable, called by simplify() per spec.md section 4.9.
func (h *DecisionHeuristic) RebuildOrderHeap(assigns *Assignment) {
	h.order = yagh.New[float64](0)
	h.order.GrowBy(len(h.scores))
	for v := 0; v < len(h.scores); v++ {
		if assigns.Value(Var(v)) == LUndef {
			h.order.Put(v, -h.scores[v])
		}
	}
}
