// internal/session/processor.go
// Package session owns the per-connection processing context: the device
// lifecycle state machine, the sample path, the periodic timers, and the
// live-state surface exposed to collaborators.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/breathlab/respire/internal/breath"
	"github.com/breathlab/respire/internal/device"
	"github.com/breathlab/respire/internal/signal"
)

// State is the device connection lifecycle state.
type State int

const (
	// Disconnected is the initial state; no processing occurs.
	Disconnected State = iota
	// Connecting is the transient state while the device stream starts.
	Connecting
	// Connected is normal processing: normalize and classify every sample.
	Connected
	// Calibrating redirects samples into the calibrator, bypassing
	// normalization and phase classification.
	Calibrating
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Calibrating:
		return "calibrating"
	default:
		return "disconnected"
	}
}

var (
	// ErrAlreadyConnected indicates a connection is already established or
	// in progress.
	ErrAlreadyConnected = errors.New("device already connected")
	// ErrNotConnected indicates the requested operation needs an active
	// connection.
	ErrNotConnected = errors.New("device not connected")
)

const (
	elapsedTickInterval = time.Second
	rateTickInterval    = 10 * time.Second
)

// Processor turns the raw force stream from one device connection into a
// normalized breath amplitude, a discrete breath phase, and a breathing-rate
// estimate. All mutation of shared state happens under one mutex: the Go
// rendition of the source transport's serialized-callback model. A
// disconnect synchronously resets every component; no state survives a
// disconnect/reconnect cycle.
type Processor struct {
	dev device.Device

	mu         sync.Mutex
	state      State
	sessionID  string
	window     *signal.Window
	normalizer *signal.Normalizer
	classifier *signal.Classifier
	rate       *breath.RateEstimator
	calibrator *breath.Calibrator
	profile    *signal.CalibrationProfile

	amplitude    float64
	currentForce float64
	elapsedSec   int

	cancelTicks context.CancelFunc
	tickDone    chan struct{}
}

// NewProcessor creates a processor wired to the given device. Callbacks are
// registered immediately; nothing is processed until Connect.
func NewProcessor(dev device.Device) *Processor {
	w := signal.NewWindow()
	p := &Processor{
		dev:        dev,
		window:     w,
		normalizer: signal.NewNormalizer(w),
		classifier: signal.NewClassifier(),
		rate:       breath.NewRateEstimator(),
		calibrator: breath.NewCalibrator(),
	}
	// Cycle edges flow straight into the rate estimator; both are mutated
	// only under p.mu via the sample path.
	p.classifier.SetCycleCallback(p.rate.RecordCycle)
	dev.SetSampleCallback(p.onSample)
	dev.SetRateCallback(p.onDeviceRate)
	return p
}

// State returns the current lifecycle state.
func (p *Processor) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Connect starts the device stream and the periodic timers. A device error
// reverts to Disconnected and is returned as a retryable failure.
func (p *Processor) Connect(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Disconnected {
		p.mu.Unlock()
		return ErrAlreadyConnected
	}
	p.state = Connecting
	p.mu.Unlock()

	if err := p.dev.Start(ctx); err != nil {
		p.mu.Lock()
		p.state = Disconnected
		p.mu.Unlock()
		return fmt.Errorf("connect device: %w", err)
	}

	p.mu.Lock()
	p.state = Connected
	p.sessionID = uuid.NewString()
	p.elapsedSec = 0
	tickCtx, cancel := context.WithCancel(context.Background())
	p.cancelTicks = cancel
	p.tickDone = make(chan struct{})
	done := p.tickDone
	p.mu.Unlock()

	go func() {
		defer close(done)
		p.tickLoop(tickCtx)
	}()

	log.Printf("session: connected, session %s", p.sessionID)
	return nil
}

// Disconnect tears down the connection: stops the timers, stops the device,
// and synchronously resets all processing state. Idempotent. Samples from
// in-flight device callbacks are ignored once the state flips.
func (p *Processor) Disconnect() {
	p.mu.Lock()
	if p.state == Disconnected {
		p.mu.Unlock()
		return
	}
	id := p.sessionID
	cancel := p.cancelTicks
	done := p.tickDone
	p.state = Disconnected
	p.resetLocked()
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	_ = p.dev.Stop()
	if done != nil {
		<-done
	}
	log.Printf("session: disconnected, session %s", id)
}

// StartCalibration switches into calibration mode. Only allowed from
// Connected, with at most one calibration in flight.
func (p *Processor) StartCalibration() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Calibrating {
		return breath.ErrAlreadyCollecting
	}
	if p.state != Connected {
		return ErrNotConnected
	}
	if err := p.calibrator.Start(time.Now().UnixMilli()); err != nil {
		return err
	}
	p.state = Calibrating
	log.Printf("session: calibration started")
	return nil
}

// CompleteCalibration finalizes an in-flight calibration before the window
// elapses. Returns the calibration outcome.
func (p *Processor) CompleteCalibration() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Calibrating {
		return breath.ErrNotCollecting
	}
	return p.finalizeCalibrationLocked()
}

// Snapshot returns the live-state surface.
func (p *Processor) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		SessionID:             p.sessionID,
		IsConnected:           p.state == Connected || p.state == Calibrating,
		BreathAmplitude:       p.amplitude,
		BreathPhase:           p.classifier.Phase().String(),
		BreathingRate:         p.rate.BPM(),
		IsCalibrating:         p.state == Calibrating,
		CurrentForce:          p.currentForce,
		SessionElapsedSeconds: p.elapsedSec,
	}
	if p.state == Calibrating {
		st.CalibrationProgress = p.calibrator.Progress(time.Now().UnixMilli())
	}
	if p.profile != nil {
		profile := *p.profile
		st.CalibrationProfile = &profile
	}
	if bpm, ok := p.rate.DeviceBPM(); ok {
		st.DeviceBreathingRate = &bpm
	}
	return st
}

// onSample is the device push callback: the single entry point for all
// signal processing.
func (p *Processor) onSample(force float64, tsMs int64) {
	if math.IsNaN(force) || math.IsInf(force, 0) {
		// Warm-up noise from the sensor; dropped by policy.
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case Calibrating:
		p.calibrator.Collect(force)
		p.currentForce = force
		if p.calibrator.Due(tsMs) {
			_ = p.finalizeCalibrationLocked()
		}
	case Connected:
		p.window.Push(signal.ForceSample{Force: force, TimestampMs: tsMs})
		p.amplitude = p.normalizer.Normalize(force)
		p.classifier.Observe(force, tsMs)
		p.currentForce = force
	default:
		// Samples arriving after a stop are ignored.
	}
}

// onDeviceRate is the device-rate push callback. Validation lives in the
// rate estimator.
func (p *Processor) onDeviceRate(bpm float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Disconnected || p.state == Connecting {
		return
	}
	p.rate.SetDeviceRate(bpm)
}

// tickLoop drives the two periodic timers: the 1Hz elapsed-time tick and
// the 10s rate recompute. Both are cancelled together on disconnect.
func (p *Processor) tickLoop(ctx context.Context) {
	elapsed := time.NewTicker(elapsedTickInterval)
	defer elapsed.Stop()
	rate := time.NewTicker(rateTickInterval)
	defer rate.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-elapsed.C:
			p.onElapsedTick(time.Now().UnixMilli())
		case <-rate.C:
			p.onRateTick(time.Now().UnixMilli())
		}
	}
}

func (p *Processor) onElapsedTick(nowMs int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Disconnected {
		return
	}
	p.elapsedSec++
	// A stalled sample stream must not leave a finished calibration hanging.
	if p.state == Calibrating && p.calibrator.Due(nowMs) {
		_ = p.finalizeCalibrationLocked()
	}
}

func (p *Processor) onRateTick(nowMs int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Disconnected {
		return
	}
	p.rate.Recompute(nowMs)
}

// finalizeCalibrationLocked ends the collection window and publishes the
// profile on success. Caller holds p.mu.
func (p *Processor) finalizeCalibrationLocked() error {
	profile, err := p.calibrator.Finalize()
	p.state = Connected
	if err != nil {
		log.Printf("session: calibration failed: %v", err)
		return err
	}

	p.profile = &profile
	p.classifier.SetProfile(&profile)
	p.normalizer.SeedFloor(profile.ForceRange)
	log.Printf("session: calibration complete: range %.2f, baseline %.2f",
		profile.ForceRange, profile.BaselineForce)
	return nil
}

// resetLocked returns every owned component to its initial value. Caller
// holds p.mu.
func (p *Processor) resetLocked() {
	p.window.Reset()
	p.normalizer.Reset()
	p.classifier.Reset()
	p.rate.Reset()
	p.calibrator.Reset()
	p.profile = nil
	p.amplitude = 0
	p.currentForce = 0
	p.elapsedSec = 0
	p.sessionID = ""
	p.cancelTicks = nil
	p.tickDone = nil
}
