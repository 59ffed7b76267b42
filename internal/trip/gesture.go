package trip

// ArrivalGesture models the deliberate drag-to-confirm arrival action as
// a two-phase commit: arming on gesture start, committing only once the
// displacement threshold is reached, and rolling back with no effect if
// released early. Pure displacement logic; no rendering concerns.
type ArrivalGesture struct {
	threshold float64
	armed     bool
	committed bool
}

// NewArrivalGesture creates a gesture requiring the given displacement
// fraction (0..1] to commit.
func NewArrivalGesture(threshold float64) *ArrivalGesture {
	if threshold <= 0 || threshold > 1 {
		threshold = 1
	}
	return &ArrivalGesture{threshold: threshold}
}

// Arm enters the provisional state on gesture start.
func (g *ArrivalGesture) Arm() {
	g.armed = true
	g.committed = false
}

// Update reports the current displacement fraction. Returns true exactly
// once, when the threshold is first reached while armed.
func (g *ArrivalGesture) Update(displacement float64) bool {
	if !g.armed || g.committed {
		return false
	}
	if displacement >= g.threshold {
		g.committed = true
		g.armed = false
		return true
	}
	return false
}

// Release ends the gesture. Releasing before the threshold is a no-op
// rollback: the gesture disarms with no state change.
func (g *ArrivalGesture) Release() {
	g.armed = false
}

// Committed reports whether the gesture reached full displacement.
func (g *ArrivalGesture) Committed() bool {
	return g.committed
}

// Reset clears the gesture for the next confirmation attempt.
func (g *ArrivalGesture) Reset() {
	g.armed = false
	g.committed = false
}
