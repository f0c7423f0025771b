package rtview

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Timing is the shared compute-duration readout. The frame orchestrator
// stores into it and the UI loads from it, from any goroutine and
// without locking. It holds float64 milliseconds as raw bits; NaN means
// no measurement is available.
//
// The value lags by one frame: during frame N it holds the duration of
// frame N-1's compute pass.
type Timing struct {
	bits atomic.Uint64
}

// NewTiming returns a Timing that reports "not available".
func NewTiming() *Timing {
	t := &Timing{}
	t.bits.Store(math.Float64bits(math.NaN()))
	return t
}

// Milliseconds returns the previous frame's compute duration, or NaN.
func (t *Timing) Milliseconds() float64 {
	return math.Float64frombits(t.bits.Load())
}

// Available reports whether a measurement has been stored.
func (t *Timing) Available() bool {
	return !math.IsNaN(t.Milliseconds())
}

// String formats the readout for display.
func (t *Timing) String() string {
	ms := t.Milliseconds()
	if math.IsNaN(ms) {
		return "not available"
	}
	return fmt.Sprintf("%.3f ms", ms)
}

func (t *Timing) store(ms float64) {
	t.bits.Store(math.Float64bits(ms))
}
