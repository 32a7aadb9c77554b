package sat

import "fmt"

// Var is a dense, zero-based variable index. Variables are allocated by
// Assignment.NewVar and may be recycled after FreeVar.
type Var int32

// Lit is a literal packed as (var << 1 | sign), so that negation is a single
// XOR and the two literals of a variable are adjacent integers. Literals
// admit the natural integer ordering, which is enough for canonicalization
// (sorting and deduplicating a clause's literals).
type Lit int32

// LitUndef is a sentinel literal used where "no literal" must be
// distinguishable from any real one (e.g. DecisionHeuristic.Pick's result
// when no unassigned variable is left).
const LitUndef Lit = -1

// PositiveLiteral returns the literal asserting that v is true.
func PositiveLiteral(v Var) Lit {
	return Lit(v) << 1
}

// NegativeLiteral returns the literal asserting that v is false.
func NegativeLiteral(v Var) Lit {
	return PositiveLiteral(v) ^ 1
}

// Var returns the variable underlying the literal.
func (l Lit) Var() Var {
	return Var(l >> 1)
}

// Sign reports whether the literal is negative.
func (l Lit) Sign() bool {
	return l&1 != 0
}

// Not returns the opposite literal.
func (l Lit) Not() Lit {
	return l ^ 1
}

func (l Lit) String() string {
	if l.Sign() {
		return fmt.Sprintf("-%d", int(l.Var())+1)
	}
	return fmt.Sprintf("%d", int(l.Var())+1)
}
