// Package bus models a bidirectional 8 bit pad group shared between a chip
// and an external agent. Rather than modelling electrical tri-state each side
// is described by two logical signals, a value and a per bit drive mask, and
// the bus resolves them into the level the pads would show.
//
// Resolution per bit:
//
//	chip OE set              -> chip value
//	else external mask set   -> external value
//	else                     -> pull level
//
// Both sides driving the same bit is contention. The resolved level is still
// the chip's value so the simulation can continue but Check() reports it.
package bus

import (
	"fmt"

	"github.com/XeonicsCA/TT-8-Bit-Counter/io"
)

var _ = io.PortIn8(&Bidir8{})

// Contention represents bits being driven by both the chip and the external agent.
type Contention struct {
	Bits     uint8 // Bits with both drivers enabled.
	Chip     uint8 // Chip value on those bits.
	External uint8 // External value on those bits.
}

// Error implements the interface for error types.
func (e Contention) Error() string {
	return fmt.Sprintf("bus contention on bits %.2X: chip driving %.2X, external driving %.2X", e.Bits, e.Chip, e.External)
}

// Bidir8 implements the shared pads.
type Bidir8 struct {
	chipOut io.PortOut8 // Value the chip presents (uio_out).
	chipOE  io.PortOut8 // Chip output enable mask (uio_oe).
	extVal  uint8       // Value presented by the external agent.
	extMask uint8       // Bits the external agent is driving.
	pull    uint8       // Level of bits nobody is driving.
}

type Bidir8Def struct {
	// Pull is the level undriven bits settle to.
	Pull uint8
}

// New returns a bus with nothing attached and nobody driving.
func New(d *Bidir8Def) *Bidir8 {
	b := &Bidir8{}
	if d != nil {
		b.pull = d.Pull
	}
	return b
}

// Attach connects the chip side. Chips generally need the bus as an input at
// init time so this is done after both exist.
func (b *Bidir8) Attach(out io.PortOut8, oe io.PortOut8) {
	b.chipOut = out
	b.chipOE = oe
}

// Drive sets the external agent to drive val on the bits in mask.
func (b *Bidir8) Drive(val uint8, mask uint8) {
	b.extVal = val
	b.extMask = mask
}

// Release stops the external agent driving any bits.
func (b *Bidir8) Release() {
	b.extMask = 0x00
}

// External returns the value and mask the external agent is presenting.
func (b *Bidir8) External() (uint8, uint8) {
	return b.extVal, b.extMask
}

func (b *Bidir8) chip() (uint8, uint8) {
	if b.chipOut == nil || b.chipOE == nil {
		return 0x00, 0x00
	}
	return b.chipOut.Output(), b.chipOE.Output()
}

// Input implements io.PortIn8 and returns the resolved pad levels (uio_in).
func (b *Bidir8) Input() uint8 {
	val, oe := b.chip()
	free := ^oe &^ b.extMask
	return (val & oe) | (b.extVal & b.extMask &^ oe) | (b.pull & free)
}

// Check returns a Contention error if any bit currently has both drivers enabled.
func (b *Bidir8) Check() error {
	val, oe := b.chip()
	if bits := oe & b.extMask; bits != 0x00 {
		return Contention{
			Bits:     bits,
			Chip:     val & bits,
			External: b.extVal & bits,
		}
	}
	return nil
}
