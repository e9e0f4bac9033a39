// internal/device/device.go
// Package device defines the respiration-belt capability boundary: a push
// style sample source decoupled from any concrete transport or driver. The
// processing core consumes only this interface; discovery, pairing, and the
// wireless transport live behind it.
package device

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyRunning indicates the device stream has already started.
	ErrAlreadyRunning = errors.New("device already running")
	// ErrNotRunning indicates the device stream is not active.
	ErrNotRunning = errors.New("device not running")
	// ErrDeviceNotFound indicates the belt could not be reached. Retryable.
	ErrDeviceNotFound = errors.New("device not found")
)

// SampleCallback receives one raw force reading with a unix-millisecond
// timestamp. Called from the device goroutine; must be fast and non-blocking.
type SampleCallback func(force float64, timestampMs int64)

// RateCallback receives the device-reported breathing rate channel. The
// sensor emits non-finite values while its internal estimator warms up;
// consumers are expected to drop them.
type RateCallback func(bpm float64)

// Device is the minimal capability the processing core consumes. Stop is
// idempotent; callbacks must be registered before Start. In-flight callbacks
// cannot be preempted by Stop, so consumers treat stop as "stop reacting".
type Device interface {
	SetSampleCallback(cb SampleCallback)
	SetRateCallback(cb RateCallback)
	Start(ctx context.Context) error
	Stop() error
}
