// internal/breath/calibration.go
package breath

import (
	"errors"
	"sort"

	"github.com/breathlab/respire/internal/signal"
)

const (
	// CollectDurationMs is the fixed calibration collection window.
	CollectDurationMs = 20_000
	// MinValidRange is the force range a collection must exceed to yield a
	// usable profile.
	MinValidRange = 0.5
)

var (
	// ErrAlreadyCollecting indicates a calibration is already in flight.
	ErrAlreadyCollecting = errors.New("calibration already in progress")
	// ErrNotCollecting indicates no calibration is in flight.
	ErrNotCollecting = errors.New("no calibration in progress")
	// ErrNoData indicates the collection window produced no samples.
	ErrNoData = errors.New("calibration collected no data")
	// ErrInsufficientRange indicates the collected range was too narrow.
	// User-actionable: breathe more deeply during the collection window.
	ErrInsufficientRange = errors.New("insufficient force range: breathe more deeply during calibration")
)

// Calibrator collects raw force samples for a fixed window and derives a
// CalibrationProfile from them. While collecting, the owner routes samples
// here instead of through normalization and phase classification.
//
// State machine: idle -> collecting -> (Finalize) -> idle. A failed
// finalize discards the partial collection and leaves any previously
// published profile untouched.
type Calibrator struct {
	collecting bool
	startMs    int64
	buffer     []float64
}

// NewCalibrator creates an idle calibrator.
func NewCalibrator() *Calibrator {
	return &Calibrator{}
}

// Start begins a collection window at nowMs, clearing any prior buffer.
func (c *Calibrator) Start(nowMs int64) error {
	if c.collecting {
		return ErrAlreadyCollecting
	}
	c.collecting = true
	c.startMs = nowMs
	c.buffer = c.buffer[:0]
	return nil
}

// Collecting reports whether a collection window is in flight.
func (c *Calibrator) Collecting() bool {
	return c.collecting
}

// Collect appends one raw force sample. Ignored when idle.
func (c *Calibrator) Collect(force float64) {
	if !c.collecting {
		return
	}
	c.buffer = append(c.buffer, force)
}

// SampleCount returns the number of samples collected so far.
func (c *Calibrator) SampleCount() int {
	return len(c.buffer)
}

// Progress reports completion of the collection window in [0,1].
func (c *Calibrator) Progress(nowMs int64) float64 {
	if !c.collecting {
		return 0
	}
	p := float64(nowMs-c.startMs) / CollectDurationMs
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Due reports whether the collection window has fully elapsed.
func (c *Calibrator) Due(nowMs int64) bool {
	return c.collecting && nowMs-c.startMs >= CollectDurationMs
}

// Finalize ends collection and derives a profile from the buffered samples.
// On any error the calibrator returns to idle with nothing published.
func (c *Calibrator) Finalize() (signal.CalibrationProfile, error) {
	if !c.collecting {
		return signal.CalibrationProfile{}, ErrNotCollecting
	}
	c.collecting = false

	if len(c.buffer) == 0 {
		return signal.CalibrationProfile{}, ErrNoData
	}

	forces := append([]float64(nil), c.buffer...)
	sort.Float64s(forces)

	minForce := forces[0]
	maxForce := forces[len(forces)-1]
	forceRange := maxForce - minForce

	profile := signal.CalibrationProfile{
		MinForce:      minForce,
		MaxForce:      maxForce,
		BaselineForce: median(forces),
		ForceRange:    forceRange,
		IsValid:       forceRange > MinValidRange,
	}
	if !profile.IsValid {
		return signal.CalibrationProfile{}, ErrInsufficientRange
	}
	return profile, nil
}

// Reset abandons any in-flight collection and returns to idle.
func (c *Calibrator) Reset() {
	c.collecting = false
	c.startMs = 0
	c.buffer = c.buffer[:0]
}

// median of an already sorted, non-empty slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
