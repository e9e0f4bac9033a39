// internal/signal/window.go
// Package signal implements the low-level breath signal kernel: the rolling
// sample window, percentile-based range normalization, and phase
// classification over raw force readings from a respiration belt.
package signal

// WindowCapacity is the number of recent samples retained for range statistics.
const WindowCapacity = 100

// ForceSample is one raw reading from the respiration belt's strain sensor.
type ForceSample struct {
	Force       float64
	TimestampMs int64
}

// Window is a fixed-capacity FIFO buffer of recent force samples.
// The newest sample is always at the tail; pushing beyond capacity evicts
// the oldest. Push is O(1) with bounded memory.
type Window struct {
	data  []ForceSample
	pos   int
	count int
}

// NewWindow creates an empty window with the standard capacity.
func NewWindow() *Window {
	return &Window{data: make([]ForceSample, WindowCapacity)}
}

// Push appends a sample, evicting the oldest sample when full.
func (w *Window) Push(s ForceSample) {
	w.data[w.pos] = s
	w.pos = (w.pos + 1) % len(w.data)
	if w.count < len(w.data) {
		w.count++
	}
}

// Len returns the number of samples currently buffered.
func (w *Window) Len() int {
	return w.count
}

// Forces returns a copy of the buffered force values in arrival order.
func (w *Window) Forces() []float64 {
	out := make([]float64, 0, w.count)
	if w.count < len(w.data) {
		for i := 0; i < w.count; i++ {
			out = append(out, w.data[i].Force)
		}
		return out
	}
	// Buffer is full; oldest sample sits at pos.
	for i := 0; i < w.count; i++ {
		out = append(out, w.data[(w.pos+i)%len(w.data)].Force)
	}
	return out
}

// Reset discards all buffered samples.
func (w *Window) Reset() {
	w.pos = 0
	w.count = 0
}
