package harness

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/XeonicsCA/TT-8-Bit-Counter/bus"
	"github.com/XeonicsCA/TT-8-Bit-Counter/counter"
	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"
)

const (
	EN_BIT       = counter.EN_BIT
	LOAD_REQ_BIT = counter.LOAD_REQ_BIT
	DRIVE_BIT    = counter.DRIVE_BIT
)

type samples struct {
	s []Sample
}

func (r *samples) Record(s Sample) {
	r.s = append(r.s, s)
}

func newBench(t *testing.T, d *BenchDef) *Bench {
	t.Helper()
	b, err := Init(d)
	if err != nil {
		t.Fatalf("Can't init bench: %v", err)
	}
	return b
}

func clock(t *testing.T, b *Bench, n int) {
	t.Helper()
	if err := b.ClockCycles(n); err != nil {
		t.Fatalf("Unexpected error: %v\nstate: %s", err, spew.Sdump(b.chip))
	}
}

func TestCountTo20(t *testing.T) {
	b := newBench(t, nil)
	if err := b.ResetCycles(5); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	clock(t, b, 1)
	b.SetUI(EN_BIT | DRIVE_BIT)
	clock(t, b, 20)
	if got, want := b.UO(), uint8(20); got != want {
		t.Errorf("Bad count. Got %d and want %d", got, want)
	}
	if got, want := b.Cycle(), 26; got != want {
		t.Errorf("Bad cycle count. Got %d and want %d", got, want)
	}
}

func TestLoadTurnaround(t *testing.T) {
	tests := []struct {
		name        string
		strict      bool
		early       bool // Drive the pads before the request like a careless agent.
		contentions int
	}{
		{
			name:        "Early drive",
			early:       true,
			contentions: 1,
		},
		{
			name:   "Drive during RELEASE",
			strict: true,
		},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			loadVal := uint8(0xFA)
			b := newBench(t, &BenchDef{Strict: test.strict})
			if err := b.ResetCycles(2); err != nil {
				t.Fatalf("%s: reset failed: %v", test.name, err)
			}
			clock(t, b, 1)
			ui := EN_BIT | DRIVE_BIT
			b.SetUI(ui)
			clock(t, b, 2)
			if test.early {
				b.SetUIO(loadVal)
			}
			b.SetUI(ui | LOAD_REQ_BIT)
			clock(t, b, 1)
			b.SetUI(ui)
			if got, want := b.UIOOE(), uint8(0x00); got != want {
				t.Fatalf("%s: uio_oe should be 0 during RELEASE. Got %.2X", test.name, got)
			}
			if !test.early {
				b.SetUIO(loadVal)
			}
			clock(t, b, 1)
			if got, want := b.UIOOE(), uint8(0x00); got != want {
				t.Fatalf("%s: uio_oe should be 0 during CAPTURE. Got %.2X", test.name, got)
			}
			clock(t, b, 1)
			if got, want := b.UIOOE(), uint8(0xFF); got != want {
				t.Fatalf("%s: uio_oe should re-enable after CAPTURE. Got %.2X", test.name, got)
			}
			if got, want := b.UO(), loadVal; got != want {
				t.Fatalf("%s: capture failed. Got %.2X and want %.2X", test.name, got, want)
			}
			b.ReleaseUIO()
			clock(t, b, 10)
			if got, want := b.UO(), loadVal+10; got != want {
				t.Errorf("%s: bad count after wrap. Got %.2X and want %.2X", test.name, got, want)
			}
			if got, want := b.Contentions(), test.contentions; got != want {
				t.Errorf("%s: bad contention count. Got %d and want %d", test.name, got, want)
			}
		})
	}
}

func TestStrictContention(t *testing.T) {
	b := newBench(t, &BenchDef{Strict: true})
	b.SetUIO(0x01)
	err := b.ClockCycles(1)
	if err == nil {
		t.Fatal("Didn't get contention error driving against the chip")
	}
	var c bus.Contention
	if !errors.As(err, &c) {
		t.Fatalf("Wrong error type. Got %T: %v", err, err)
	}
	if got, want := c.Bits, uint8(0xFF); got != want {
		t.Errorf("Bad contention bits. Got %.2X and want %.2X", got, want)
	}
	if got, want := b.Cycle(), 0; got != want {
		t.Errorf("Edge ran despite contention. Cycle %d", got)
	}
	if err := b.ClockCycles(-1); err == nil {
		t.Error("Didn't get error for negative cycles")
	}
}

func TestRecorder(t *testing.T) {
	r := &samples{}
	b := newBench(t, &BenchDef{Recorder: r})
	b.SetUI(EN_BIT | DRIVE_BIT | LOAD_REQ_BIT)
	b.DriveUIO(0x0C, 0x0F)
	clock(t, b, 4)
	want := []Sample{
		{Cycle: 1, ResetN: true, UI: 0x07, UIOIn: 0x00, UO: 0x01, UIOOut: 0x01, UIOOE: 0x00, State: counter.STATE_RELEASE},
		{Cycle: 2, ResetN: true, UI: 0x07, UIOIn: 0x0C, UO: 0x01, UIOOut: 0x01, UIOOE: 0x00, State: counter.STATE_CAPTURE},
		{Cycle: 3, ResetN: true, UI: 0x07, UIOIn: 0x0C, UO: 0x0C, UIOOut: 0x0C, UIOOE: 0xFF, State: counter.STATE_DRIVE},
		{Cycle: 4, ResetN: true, UI: 0x07, UIOIn: 0x0C, UO: 0x0D, UIOOut: 0x0D, UIOOE: 0xFF, State: counter.STATE_DRIVE},
	}
	if diff := deep.Equal(r.s, want); diff != nil {
		t.Errorf("Bad samples: %v", diff)
	}
}

func TestDebugLog(t *testing.T) {
	var lines []string
	b := newBench(t, &BenchDef{
		Debug: true,
		Logf: func(format string, v ...interface{}) {
			lines = append(lines, fmt.Sprintf(format, v...))
		},
	})
	clock(t, b, 3)
	if got, want := len(lines), 3; got != want {
		t.Fatalf("Bad number of debug lines. Got %d and want %d", got, want)
	}
	if !strings.Contains(lines[2], "000003") {
		t.Errorf("Debug line missing clock count: %q", lines[2])
	}
}
