package sat

import "math"

// RestartStrategy schedules the conflict budget between restarts, per
// spec.md section 4.8.
type RestartStrategy struct {
	LubyRestart  bool
	RestartFirst float64
	RestartInc   float64
}

// DefaultRestartStrategy matches spec.md section 6's configuration table.
var DefaultRestartStrategy = RestartStrategy{
	LubyRestart:  true,
	RestartFirst: 100,
	RestartInc:   2,
}

// ConflictsToGo returns the number of conflicts allowed before the k-th
// restart (k is 0 for the very first search call).
func (r RestartStrategy) ConflictsToGo(k uint64) uint64 {
	var base float64
	if r.LubyRestart {
		base = luby(r.RestartInc, k)
	} else {
		base = math.Pow(r.RestartInc, float64(k))
	}
	return uint64(base * r.RestartFirst)
}

// luby returns y^seq, where seq is the exponent of the k-th term of the Luby
// sequence (for y=2: 1,1,2,1,1,2,4,...), following the canonical formulation used by
// MiniSat: it never allocates the sequence, computing the term directly
// from k via repeated halving.
func luby(y float64, k uint64) float64 {
	size, seq := uint64(1), uint64(0)
	for size < k+1 {
		seq++
		size = 2*size + 1
	}
	for size-1 != k {
		size = (size - 1) / 2
		seq--
		k = k % size
	}
	return math.Pow(y, float64(seq))
}
