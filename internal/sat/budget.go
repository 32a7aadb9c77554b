package sat

import "sync/atomic"

// Budget is the sole concurrency primitive in the solver: an atomic
// interrupt flag an external thread (a signal handler, a controller) may set
// at any time, polled by Within() at every restart boundary and conflict
// check, per spec.md section 5. Conflict/propagation budgets are disabled
// with a negative value.
type Budget struct {
	ConflictBudget    int64
	PropagationBudget int64
	interrupt         atomic.Bool
}

// NewBudget returns a Budget with no limits set.
func NewBudget() *Budget {
	return &Budget{ConflictBudget: -1, PropagationBudget: -1}
}

// Within reports whether the search may continue: the interrupt flag is
// clear and neither budget (if enabled) has been exhausted.
func (b *Budget) Within(conflicts, propagations uint64) bool {
	if b.interrupt.Load() {
		return false
	}
	if b.ConflictBudget >= 0 && conflicts >= uint64(b.ConflictBudget) {
		return false
	}
	if b.PropagationBudget >= 0 && propagations >= uint64(b.PropagationBudget) {
		return false
	}
	return true
}

// Interrupt asynchronously requests that the current or next search call
// return Interrupted at its next check point. Safe to call from any
// goroutine.
func (b *Budget) Interrupt() {
	b.interrupt.Store(true)
}

// Interrupted reports whether Interrupt has been called.
func (b *Budget) Interrupted() bool {
	return b.interrupt.Load()
}

// ClearInterrupt resets the interrupt flag, allowing a fresh solve after an
// Interrupted result.
func (b *Budget) ClearInterrupt() {
	b.interrupt.Store(false)
}

// Off disables both conflict and propagation budgets (interrupt flag is
// untouched).
func (b *Budget) Off() {
	b.ConflictBudget = -1
	b.PropagationBudget = -1
}
