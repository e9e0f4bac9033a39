// internal/breath/rate.go
// Package breath implements the breath-domain estimators built on the signal
// kernel: windowed breathing-rate estimation and the one-shot calibration
// protocol.
package breath

import "math"

const (
	// CycleLogRetentionMs is how long inhale-onset timestamps are retained.
	CycleLogRetentionMs = 120_000
	// RateWindowMs is the trailing window used to derive breaths per minute.
	RateWindowMs = 60_000
	// MinCyclesForRate is the minimum onsets in the window before a rate is
	// derived; fewer leaves the previous estimate untouched.
	MinCyclesForRate = 2
	// MinPlausibleBPM and MaxPlausibleBPM clamp the derived rate; values
	// outside this band are sensor noise, not physiology.
	MinPlausibleBPM = 4.0
	MaxPlausibleBPM = 30.0
	// MaxDeviceBPM bounds acceptable device-reported rates. The device rate
	// channel emits garbage while its internal estimator warms up.
	MaxDeviceBPM = 60.0
)

// RateEstimator maintains a trailing log of breath-cycle onsets and derives
// a breathing rate from it. An externally reported device rate, once seen,
// takes absolute priority: the local estimate never overwrites it for the
// remainder of the connection.
type RateEstimator struct {
	cycleLog  []int64
	bpm       float64
	deviceBPM float64
	hasDevice bool
}

// NewRateEstimator creates an estimator with an empty cycle log.
func NewRateEstimator() *RateEstimator {
	return &RateEstimator{}
}

// RecordCycle appends an inhale-onset timestamp and prunes entries older
// than the retention window.
func (r *RateEstimator) RecordCycle(tsMs int64) {
	r.cycleLog = append(r.cycleLog, tsMs)

	cutoff := tsMs - CycleLogRetentionMs
	drop := 0
	for drop < len(r.cycleLog) && r.cycleLog[drop] < cutoff {
		drop++
	}
	if drop > 0 {
		r.cycleLog = append(r.cycleLog[:0], r.cycleLog[drop:]...)
	}
}

// CycleCount returns the number of retained cycle onsets.
func (r *RateEstimator) CycleCount() int {
	return len(r.cycleLog)
}

// Recompute derives breaths per minute from onsets in the trailing rate
// window. The caller throttles the cadence; this is invoked from a periodic
// tick, not per sample. A no-op once a device rate has been received.
func (r *RateEstimator) Recompute(nowMs int64) {
	if r.hasDevice {
		return
	}

	cutoff := nowMs - RateWindowMs
	var recent []int64
	for _, ts := range r.cycleLog {
		if ts >= cutoff {
			recent = append(recent, ts)
		}
	}
	if len(recent) < MinCyclesForRate {
		return
	}

	elapsedSec := float64(recent[len(recent)-1]-recent[0]) / 1000.0
	if elapsedSec <= 0 {
		return
	}

	cyclesPerSecond := float64(len(recent)-1) / elapsedSec
	bpm := math.Round(cyclesPerSecond*60*10) / 10
	if bpm < MinPlausibleBPM {
		bpm = MinPlausibleBPM
	}
	if bpm > MaxPlausibleBPM {
		bpm = MaxPlausibleBPM
	}
	r.bpm = bpm
}

// SetDeviceRate accepts an externally reported rate. Non-finite values and
// values outside [0, MaxDeviceBPM] are dropped, never surfaced; the sensor
// emits transient invalid tokens during warm-up.
func (r *RateEstimator) SetDeviceRate(bpm float64) {
	if math.IsNaN(bpm) || math.IsInf(bpm, 0) || bpm < 0 || bpm > MaxDeviceBPM {
		return
	}
	r.deviceBPM = bpm
	r.hasDevice = true
}

// BPM returns the reported breathing rate, preferring the device rate once
// one has been received.
func (r *RateEstimator) BPM() float64 {
	if r.hasDevice {
		return r.deviceBPM
	}
	return r.bpm
}

// DeviceBPM returns the device-reported rate and whether one has arrived.
func (r *RateEstimator) DeviceBPM() (float64, bool) {
	return r.deviceBPM, r.hasDevice
}

// Reset clears the cycle log, the local estimate, and the device rate.
func (r *RateEstimator) Reset() {
	r.cycleLog = r.cycleLog[:0]
	r.bpm = 0
	r.deviceBPM = 0
	r.hasDevice = false
}
