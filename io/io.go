// Package io defines the basic interfaces for working with the
// pins of a Tiny Tapeout style design. Inputs are polled by the
// chip on every clock edge so implementors should simply report
// the level currently being presented. Outputs are registered
// and only change when the owning chip finishes a cycle
// (i.e. after TickDone).
package io

// PortIn1 defines a single input pin.
type PortIn1 interface {
	// Input returns the current level on the pin (true == high).
	Input() bool
}

// PortIn8 defines an 8 bit input port.
type PortIn8 interface {
	// Input will return the current value being set on the given input port.
	Input() uint8
}

// PortOut8 defines an 8 bit output port.
type PortOut8 interface {
	// Output returns the value currently latched on the output pins.
	Output() uint8
}
