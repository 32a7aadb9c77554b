package sat

// LearningStrategySettings configures how the learnt-clause size cap grows
// over the course of a search, per spec.md section 4.8.
type LearningStrategySettings struct {
	MinLearntsLim        int
	SizeFactor           float64
	SizeInc              float64
	SizeAdjustStartConfl int
	SizeAdjustInc        float64
}

// DefaultLearningStrategySettings matches spec.md section 6's configuration
// table.
var DefaultLearningStrategySettings = LearningStrategySettings{
	MinLearntsLim:        0,
	SizeFactor:           1.0 / 3.0,
	SizeInc:              1.1,
	SizeAdjustStartConfl: 100,
	SizeAdjustInc:        1.5,
}

// LearningStrategy tracks the current learnt-clause cap (Border) and bumps
// it on a schedule of its own, independent of the restart schedule.
type LearningStrategy struct {
	settings        LearningStrategySettings
	maxLearnts      float64
	sizeAdjustConfl float64
	sizeAdjustCnt   int
}

// NewLearningStrategy returns a strategy configured with the given settings.
func NewLearningStrategy(settings LearningStrategySettings) *LearningStrategy {
	return &LearningStrategy{settings: settings}
}

// Reset reinitializes the cap for a fresh solve() call, sized relative to
// the current number of original clauses.
func (l *LearningStrategy) Reset(numClauses int) {
	l.maxLearnts = float64(numClauses) * l.settings.SizeFactor
	if min := float64(l.settings.MinLearntsLim); l.maxLearnts < min {
		l.maxLearnts = min
	}
	l.sizeAdjustConfl = float64(l.settings.SizeAdjustStartConfl)
	l.sizeAdjustCnt = l.settings.SizeAdjustStartConfl
}

// Bump should be called once per conflict. It returns true exactly when the
// cap was just grown, which callers may use to emit a progress log line.
func (l *LearningStrategy) Bump() bool {
	l.sizeAdjustCnt--
	if l.sizeAdjustCnt != 0 {
		return false
	}
	l.sizeAdjustConfl *= l.settings.SizeAdjustInc
	l.sizeAdjustCnt = int(l.sizeAdjustConfl)
	l.maxLearnts *= l.settings.SizeInc
	return true
}

// Border returns the current learnt-clause cap.
func (l *LearningStrategy) Border() int {
	return int(l.maxLearnts)
}
