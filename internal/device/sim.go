// internal/device/sim.go
package device

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"
)

var (
	// ErrInvalidSampleInterval indicates the sample cadence is out of range.
	ErrInvalidSampleInterval = errors.New("sample interval must be between 10 and 1000 ms")
	// ErrInvalidBreathRate indicates the simulated rate is implausible.
	ErrInvalidBreathRate = errors.New("breaths per minute must be between 4 and 30")
	// ErrInvalidDepth indicates the simulated breathing depth is out of range.
	ErrInvalidDepth = errors.New("depth must be between 0 and 50")
	// ErrInvalidNoise indicates the noise amplitude is out of range.
	ErrInvalidNoise = errors.New("noise must be between 0.0 and 1.0")
)

// rateReportInterval is how often the simulated rate channel reports.
const rateReportInterval = 5 * time.Second

// SimConfig holds configuration for the simulated respiration belt.
// All values should come from the application config file.
type SimConfig struct {
	// SampleIntervalMs is the cadence of force samples (from config: sim_sample_interval_ms)
	SampleIntervalMs int
	// BreathsPerMinute is the simulated breathing rate (from config: sim_breaths_per_minute)
	BreathsPerMinute float64
	// Depth is the peak-to-peak force swing of a breath (from config: sim_depth)
	Depth float64
	// Baseline is the resting force level of the belt (from config: sim_baseline)
	Baseline float64
	// Noise is the uniform noise amplitude added to each sample (from config: sim_noise)
	Noise float64
	// RateWarmupMs is how long the rate channel emits NaN before reporting
	// (from config: sim_rate_warmup_ms). Mirrors the real sensor's warm-up.
	RateWarmupMs int
}

// DefaultSimConfig returns a plausible resting breathing pattern.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		SampleIntervalMs: 50,
		BreathsPerMinute: 12,
		Depth:            6.0,
		Baseline:         4.0,
		Noise:            0.05,
		RateWarmupMs:     30_000,
	}
}

// Sim is a simulated respiration belt producing a sinusoidal force trace
// with noise, plus a device-rate channel that mirrors the real sensor's
// warm-up behavior. It implements Device.
type Sim struct {
	config SimConfig

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	doneCh   chan struct{}
	sampleCb SampleCallback
	rateCb   RateCallback
	rng      *rand.Rand
}

// NewSim creates a simulated belt with the given configuration.
func NewSim(cfg SimConfig) (*Sim, error) {
	if cfg.SampleIntervalMs < 10 || cfg.SampleIntervalMs > 1000 {
		return nil, ErrInvalidSampleInterval
	}
	if cfg.BreathsPerMinute < 4 || cfg.BreathsPerMinute > 30 {
		return nil, ErrInvalidBreathRate
	}
	if cfg.Depth <= 0 || cfg.Depth > 50 {
		return nil, ErrInvalidDepth
	}
	if cfg.Noise < 0 || cfg.Noise > 1 {
		return nil, ErrInvalidNoise
	}
	return &Sim{
		config: cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// SetSampleCallback registers the force sample callback. Set before Start.
func (s *Sim) SetSampleCallback(cb SampleCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampleCb = cb
}

// SetRateCallback registers the device-rate callback. Set before Start.
func (s *Sim) SetRateCallback(cb RateCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateCb = cb
}

// Start begins streaming samples until Stop or context cancellation.
func (s *Sim) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.doneCh = make(chan struct{})
	s.running = true
	done := s.doneCh
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.run(runCtx)
	}()
	return nil
}

// Stop halts the sample stream. Idempotent.
func (s *Sim) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	done := s.doneCh
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	<-done
	return nil
}

// IsRunning reports whether the stream is active.
func (s *Sim) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sim) run(ctx context.Context) {
	sampleTicker := time.NewTicker(time.Duration(s.config.SampleIntervalMs) * time.Millisecond)
	defer sampleTicker.Stop()
	rateTicker := time.NewTicker(rateReportInterval)
	defer rateTicker.Stop()

	start := time.Now()
	cycleHz := s.config.BreathsPerMinute / 60.0

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-sampleTicker.C:
			elapsed := t.Sub(start).Seconds()
			force := s.config.Baseline +
				(s.config.Depth/2)*math.Sin(2*math.Pi*cycleHz*elapsed) +
				s.config.Noise*(2*s.rng.Float64()-1)
			s.emitSample(force, t.UnixMilli())
		case t := <-rateTicker.C:
			if t.Sub(start) < time.Duration(s.config.RateWarmupMs)*time.Millisecond {
				// Still warming up: the real sensor emits invalid tokens here.
				s.emitRate(math.NaN())
			} else {
				s.emitRate(s.config.BreathsPerMinute)
			}
		}
	}
}

func (s *Sim) emitSample(force float64, tsMs int64) {
	s.mu.Lock()
	cb := s.sampleCb
	s.mu.Unlock()
	if cb != nil {
		cb(force, tsMs)
	}
}

func (s *Sim) emitRate(bpm float64) {
	s.mu.Lock()
	cb := s.rateCb
	s.mu.Unlock()
	if cb != nil {
		cb(bpm)
	}
}
