// internal/signal/normalize.go
package signal

import "sort"

const (
	// MinSamplesForRange is the window length required before percentile
	// bounds are trusted; below it Normalize returns PlaceholderAmplitude
	// so the output signal does not flicker while history accumulates.
	MinSamplesForRange = 20
	// PlaceholderAmplitude is the centered amplitude reported before enough
	// history exists, and whenever the dynamic span is degenerate.
	PlaceholderAmplitude = 0.5
	// LowerPercentile and UpperPercentile are robust stand-ins for the
	// window minimum and maximum, resistant to single-sample spikes.
	LowerPercentile = 0.10
	UpperPercentile = 0.90
	// FloorTriggerRange is the first observed range that arms the floor.
	FloorTriggerRange = 0.5
	// FloorRatio keeps the runtime range from collapsing below this fraction
	// of the armed floor once breathing stabilizes.
	FloorRatio = 0.15
	// BufferBelowRatio and BufferAboveRatio are the asymmetric margins added
	// around the percentile bounds. A belt trace undershoots on inhale onset
	// far more than it overshoots on the exhale peak.
	BufferBelowRatio = 0.6
	BufferAboveRatio = 0.1
)

// RangeProfile holds the dynamic normalization bounds derived from the
// current window contents. It is recomputed on demand and never cached
// across pushes.
type RangeProfile struct {
	P10        float64
	P90        float64
	Range      float64
	DynamicMin float64
	DynamicMax float64
}

// CalibrationProfile is a personalized force range captured during an
// explicit baseline-collection step. IsValid is true only when the collected
// range is wide enough to normalize against.
type CalibrationProfile struct {
	MinForce      float64 `json:"minForce"`
	MaxForce      float64 `json:"maxForce"`
	BaselineForce float64 `json:"baselineForce"`
	ForceRange    float64 `json:"forceRange"`
	IsValid       bool    `json:"isValid"`
}

// Normalizer maps raw force readings into a jitter-resistant amplitude in
// [0,1] using percentile bounds over a rolling window. The range floor, once
// armed, prevents the normalization span from collapsing to near-zero width,
// which would make the amplitude hypersensitive to sensor noise.
type Normalizer struct {
	window   *Window
	floor    float64
	floorSet bool
}

// NewNormalizer creates a normalizer reading from the given window.
func NewNormalizer(w *Window) *Normalizer {
	return &Normalizer{window: w}
}

// Normalize maps currentForce into [0,1] against the dynamic bounds of the
// current window. Before MinSamplesForRange samples exist, or when the span
// is degenerate, it returns PlaceholderAmplitude.
func (n *Normalizer) Normalize(currentForce float64) float64 {
	if n.window.Len() < MinSamplesForRange {
		return PlaceholderAmplitude
	}

	p := n.Profile()
	span := p.DynamicMax - p.DynamicMin
	if span <= 0 {
		// Constant input with no armed floor; report centered.
		return PlaceholderAmplitude
	}

	return clamp((currentForce-p.DynamicMin)/span, 0, 1)
}

// Profile recomputes the range bounds from the window. Arms the range floor
// on the first observation wider than FloorTriggerRange.
func (n *Normalizer) Profile() RangeProfile {
	forces := n.window.Forces()
	sort.Float64s(forces)

	p10 := forces[percentileIndex(len(forces), LowerPercentile)]
	p90 := forces[percentileIndex(len(forces), UpperPercentile)]
	r := p90 - p10

	if !n.floorSet && r > FloorTriggerRange {
		n.floor = r
		n.floorSet = true
	}
	if n.floorSet && r < FloorRatio*n.floor {
		r = FloorRatio * n.floor
	}

	return RangeProfile{
		P10:        p10,
		P90:        p90,
		Range:      r,
		DynamicMin: p10 - BufferBelowRatio*r,
		DynamicMax: p90 + BufferAboveRatio*r,
	}
}

// SeedFloor overwrites the range floor with a calibrated force range. This is
// the only way an armed floor changes outside of Reset.
func (n *Normalizer) SeedFloor(forceRange float64) {
	n.floor = forceRange
	n.floorSet = true
}

// Floor returns the current range floor and whether it has been armed.
func (n *Normalizer) Floor() (float64, bool) {
	return n.floor, n.floorSet
}

// Reset disarms the floor. Window contents are reset separately by the owner.
func (n *Normalizer) Reset() {
	n.floor = 0
	n.floorSet = false
}

// percentileIndex maps a quantile to a sorted-slice index, clamped to the
// last element.
func percentileIndex(n int, q float64) int {
	idx := int(float64(n) * q)
	if idx >= n {
		idx = n - 1
	}
	return idx
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
