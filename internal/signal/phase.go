// internal/signal/phase.go
package signal

// Phase is the discrete breathing phase derived from force deltas.
type Phase int

const (
	// PhasePause is the default phase: no significant force movement.
	PhasePause Phase = iota
	// PhaseInhale is rising force (belt expanding).
	PhaseInhale
	// PhaseExhale is falling force (belt contracting).
	PhaseExhale
)

// String returns the phase name as published on the live-state surface.
func (p Phase) String() string {
	switch p {
	case PhaseInhale:
		return "inhale"
	case PhaseExhale:
		return "exhale"
	default:
		return "pause"
	}
}

const (
	// EvalIntervalMs throttles phase evaluation; sub-100ms sensor jitter
	// would otherwise flap the phase rapidly.
	EvalIntervalMs = 100
	// CalibratedThresholdRatio is the delta threshold as a fraction of the
	// calibrated force range.
	CalibratedThresholdRatio = 0.04
	// FallbackThreshold is the absolute delta threshold used before a valid
	// calibration profile exists.
	FallbackThreshold = 0.2
)

// CycleCallback is called on each transition into the inhale phase, marking
// the onset of a new breath cycle. Invoked from the sample path; must be
// fast and non-blocking.
type CycleCallback func(timestampMs int64)

// Classifier is a throttled delta state machine over the force stream.
// Counting every inhale-labeled sample as a cycle would wildly overcount
// breaths per minute, so only the rising edge into inhale fires the cycle
// callback.
type Classifier struct {
	profile    *CalibrationProfile
	phase      Phase
	lastForce  float64
	lastEvalMs int64
	primed     bool
	cycleCb    CycleCallback
}

// NewClassifier creates a classifier in the pause phase.
func NewClassifier() *Classifier {
	return &Classifier{phase: PhasePause}
}

// SetCycleCallback registers the breath-cycle edge callback.
func (c *Classifier) SetCycleCallback(cb CycleCallback) {
	c.cycleCb = cb
}

// SetProfile supplies the calibrated force range used to scale the delta
// threshold. A nil or invalid profile falls back to the absolute threshold.
func (c *Classifier) SetProfile(p *CalibrationProfile) {
	c.profile = p
}

// Phase returns the current confirmed phase.
func (c *Classifier) Phase() Phase {
	return c.phase
}

// Observe feeds one force sample through the state machine and returns the
// current phase. The first observation only primes the delta reference; later
// observations closer than EvalIntervalMs to the previous evaluation are
// ignored.
func (c *Classifier) Observe(force float64, tsMs int64) Phase {
	if !c.primed {
		c.primed = true
		c.lastForce = force
		c.lastEvalMs = tsMs
		return c.phase
	}
	if tsMs-c.lastEvalMs < EvalIntervalMs {
		return c.phase
	}

	delta := force - c.lastForce
	threshold := FallbackThreshold
	if c.profile != nil && c.profile.IsValid {
		threshold = CalibratedThresholdRatio * c.profile.ForceRange
	}

	next := PhasePause
	switch {
	case delta > threshold:
		next = PhaseInhale
	case delta < -threshold:
		next = PhaseExhale
	}

	// Edge, not level: a new cycle only starts when entering inhale from a
	// non-inhale phase.
	if next == PhaseInhale && c.phase != PhaseInhale && c.cycleCb != nil {
		c.cycleCb(tsMs)
	}

	c.lastForce = force
	c.lastEvalMs = tsMs
	c.phase = next
	return next
}

// Reset returns the classifier to its initial pause state and clears the
// calibration profile. The cycle callback registration survives a reset.
func (c *Classifier) Reset() {
	c.profile = nil
	c.phase = PhasePause
	c.lastForce = 0
	c.lastEvalMs = 0
	c.primed = false
}
