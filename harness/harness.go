// Package harness is a small testbench for the counter. It owns the chip and
// the shared uio pads and exposes them through the same pins a Tiny Tapeout
// tile has (rst_n, ui_in, uo_out, uio_in, uio_out, uio_oe) so tests read like
// the stimulus that would be run against the real silicon.
//
// Outputs read after ClockCycles() are the registered values after the last
// rising edge.
package harness

import (
	"errors"
	"fmt"
	"log"

	"github.com/XeonicsCA/TT-8-Bit-Counter/bus"
	"github.com/XeonicsCA/TT-8-Bit-Counter/counter"
)

// Sample is the state of every pin for one clock edge.
type Sample struct {
	Cycle  int           // Edge number starting at 1.
	ResetN bool          // rst_n at the edge.
	UI     uint8         // ui_in at the edge.
	UIOIn  uint8         // Resolved pads at the edge (what the chip sampled).
	UO     uint8         // uo_out after the edge.
	UIOOut uint8         // uio_out after the edge.
	UIOOE  uint8         // uio_oe after the edge.
	State  counter.State // Bus direction state after the edge.
}

// Recorder receives a Sample after every clock edge.
type Recorder interface {
	Record(s Sample)
}

type pin struct {
	b bool
}

func (p *pin) Input() bool {
	return p.b
}

type port struct {
	data uint8
}

func (p *port) Input() uint8 {
	return p.data
}

// Bench implements the testbench.
type Bench struct {
	chip        *counter.Chip
	pads        *bus.Bidir8
	rstN        *pin
	ui          *port
	strict      bool
	recorder    Recorder
	debug       bool
	logf        func(format string, v ...interface{})
	cycle       int
	contentions int
}

type BenchDef struct {
	// Pull is the level undriven uio pads settle to.
	Pull uint8

	// Strict if true makes ClockCycles() fail on bus contention. Otherwise it's only counted.
	Strict bool

	// Recorder if non-nil gets a Sample for every edge.
	Recorder Recorder

	// Debug if true sends the chip Debug() output to Logf every edge.
	Debug bool

	// Logf is used for debug output. Defaults to log.Printf.
	Logf func(format string, v ...interface{})
}

// Init returns a bench with the chip powered on, rst_n high and nothing driving ui_in or the pads.
func Init(d *BenchDef) (*Bench, error) {
	if d == nil {
		d = &BenchDef{}
	}
	b := &Bench{
		pads:     bus.New(&bus.Bidir8Def{Pull: d.Pull}),
		rstN:     &pin{true},
		ui:       &port{},
		strict:   d.Strict,
		recorder: d.Recorder,
		debug:    d.Debug,
		logf:     d.Logf,
	}
	if b.logf == nil {
		b.logf = log.Printf
	}
	var err error
	if b.chip, err = counter.Init(&counter.ChipDef{
		ResetN:  b.rstN,
		Control: b.ui,
		Bus:     b.pads,
		Debug:   d.Debug,
	}); err != nil {
		return nil, fmt.Errorf("can't initialize counter: %v", err)
	}
	b.pads.Attach(b.chip.BusOut(), b.chip.BusOE())
	return b, nil
}

// SetResetN sets the rst_n pin. false holds the chip in reset on following edges.
func (b *Bench) SetResetN(v bool) {
	b.rstN.b = v
}

// SetUI sets the ui_in port.
func (b *Bench) SetUI(v uint8) {
	b.ui.data = v
}

// UI returns the current ui_in value.
func (b *Bench) UI() uint8 {
	return b.ui.data
}

// SetUIO has the external agent drive all 8 uio pads with v.
func (b *Bench) SetUIO(v uint8) {
	b.pads.Drive(v, 0xFF)
}

// DriveUIO has the external agent drive v on only the pads in mask.
func (b *Bench) DriveUIO(v uint8, mask uint8) {
	b.pads.Drive(v, mask)
}

// ReleaseUIO stops the external agent driving the pads.
func (b *Bench) ReleaseUIO() {
	b.pads.Release()
}

// ClockCycles runs n rising edges.
func (b *Bench) ClockCycles(n int) error {
	if n < 0 {
		return errors.New("can't run a negative number of clock cycles")
	}
	for i := 0; i < n; i++ {
		if err := b.pads.Check(); err != nil {
			if b.strict {
				return fmt.Errorf("cycle %d: %w", b.cycle+1, err)
			}
			b.contentions++
		}
		s := Sample{
			ResetN: b.rstN.b,
			UI:     b.ui.data,
			UIOIn:  b.pads.Input(),
		}
		if err := b.chip.Tick(); err != nil {
			return fmt.Errorf("cycle %d: %v", b.cycle+1, err)
		}
		b.chip.TickDone()
		b.cycle++
		if b.debug {
			b.logf("%s", b.chip.Debug())
		}
		if b.recorder != nil {
			s.Cycle = b.cycle
			s.UO = b.UO()
			s.UIOOut = b.UIOOut()
			s.UIOOE = b.UIOOE()
			s.State = b.chip.State()
			b.recorder.Record(s)
		}
	}
	return nil
}

// ResetCycles holds rst_n low for n edges and then releases it.
func (b *Bench) ResetCycles(n int) error {
	b.SetResetN(false)
	if err := b.ClockCycles(n); err != nil {
		return err
	}
	b.SetResetN(true)
	return nil
}

// UO returns uo_out.
func (b *Bench) UO() uint8 {
	return b.chip.CountOut().Output()
}

// UIOOut returns uio_out.
func (b *Bench) UIOOut() uint8 {
	return b.chip.BusOut().Output()
}

// UIOOE returns uio_oe.
func (b *Bench) UIOOE() uint8 {
	return b.chip.BusOE().Output()
}

// UIOIn returns the resolved level of the uio pads right now.
func (b *Bench) UIOIn() uint8 {
	return b.pads.Input()
}

// State returns the chip's bus direction state.
func (b *Bench) State() counter.State {
	return b.chip.State()
}

// Cycle returns the number of edges run so far.
func (b *Bench) Cycle() int {
	return b.cycle
}

// Contentions returns how many edges saw bus contention in non-strict mode.
func (b *Bench) Contentions() int {
	return b.contentions
}

// Chip returns the counter under test.
func (b *Bench) Chip() *counter.Chip {
	return b.chip
}
