// Package trace records the pins of a harness.Bench cycle by cycle and
// exports them as a Value Change Dump, a rendered waveform image or as
// audio where uo_out is treated as the output of an 8 bit DAC.
package trace

import (
	"github.com/XeonicsCA/TT-8-Bit-Counter/harness"
)

var _ = harness.Recorder(&Trace{})

// Trace implements harness.Recorder and keeps every sample. Limit
// bounds memory for free running benches by dropping the oldest samples.
type Trace struct {
	samples []harness.Sample
	limit   int
}

// New returns an empty trace. A limit <= 0 keeps everything.
func New(limit int) *Trace {
	return &Trace{limit: limit}
}

// Record implements harness.Recorder.
func (t *Trace) Record(s harness.Sample) {
	t.samples = append(t.samples, s)
	if t.limit > 0 && len(t.samples) > t.limit {
		// Copy down rather than reslice so the backing array doesn't grow forever.
		n := copy(t.samples, t.samples[len(t.samples)-t.limit:])
		t.samples = t.samples[:n]
	}
}

// Samples returns the recorded samples oldest first.
func (t *Trace) Samples() []harness.Sample {
	return t.samples
}

// Reset drops all samples.
func (t *Trace) Reset() {
	t.samples = t.samples[:0]
}
