// Package counter implements the complete state of the Tiny Tapeout 8 bit
// load/turnaround counter. It's a synchronous up counter with an enable,
// a one cycle load request and a bidirectional bus which the chip can hand
// over to an external agent in order to latch a new count value.
//
// The bus handoff always takes 3 clock edges from the one where the load
// request is seen:
//
//	DRIVE   -> RELEASE  (chip stops driving the bus)
//	RELEASE -> CAPTURE  (external agent owns the bus)
//	CAPTURE -> DRIVE    (bus value becomes the count, chip drives again)
//
// The chip never checks the external agent. Driving the bus while the output
// enable is 0xFF or not having a valid value on it by the CAPTURE edge are
// protocol violations with undefined results (see the bus package for a
// contention checker).
package counter

import (
	"errors"
	"fmt"

	"github.com/XeonicsCA/TT-8-Bit-Counter/io"
)

// State is an enumeration of the bus direction states.
type State int

const (
	STATE_UNIMPLEMENTED State = iota // Start of valid state enumerations.
	STATE_DRIVE                      // Chip drives the count onto the bus.
	STATE_RELEASE                    // Bus released, external agent may start driving.
	STATE_CAPTURE                    // Bus sampled on the edge leaving this state.
	STATE_MAX                        // End of state enumerations.
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case STATE_DRIVE:
		return "DRIVE"
	case STATE_RELEASE:
		return "RELEASE"
	case STATE_CAPTURE:
		return "CAPTURE"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const (
	// Bits on the control (ui_in) port.
	EN_BIT       = uint8(0x01)
	LOAD_REQ_BIT = uint8(0x02)
	DRIVE_BIT    = uint8(0x04)

	kOE_DRIVE = uint8(0xFF)
	kOE_FLOAT = uint8(0x00)
)

// out holds the data for an 8 bit output port.
type out struct {
	data uint8
}

// Output implements the interface for io.PortOut8
func (o *out) Output() uint8 {
	return o.data
}

// InvalidState represents the state machine holding a value outside of the
// valid enumerations.
type InvalidState struct {
	State State
}

// Error implements the interface for error types.
func (e InvalidState) Error() string {
	return fmt.Sprintf("invalid counter state: %d", int(e.State))
}

// Chip implements the counter, its bus direction state machine and the
// registered outputs.
type Chip struct {
	clocks         int        // Total number of clock cycles since start.
	debug          bool       // If true Debug() emits output.
	tickDone       bool       // True if TickDone() was called before the current Tick() call
	resetN         io.PortIn1 // Active low synchronous reset. nil means never in reset.
	control        io.PortIn8 // ui_in. Bit 0 == enable, bit 1 == load request, bit 2 == drive enable.
	busIn          io.PortIn8 // uio_in. Only sampled on the CAPTURE edge.
	count          *out       // The count register which also drives uo_out and uio_out.
	shadowCount    uint8      // Shadow value for count to load on TickDone().
	busOE          *out       // uio_oe.
	state          State      // Current bus direction state.
	shadowState    State      // Shadow value for state to load on TickDone().
	loadSeen       bool       // Load request level sampled on the previous edge.
	shadowLoadSeen bool       // Shadow value for loadSeen to load on TickDone().
	captured       uint8      // The most recent value latched from the bus.
}

type ChipDef struct {
	// ResetN is the active low reset pin (rst_n). If nil the chip is never held in reset.
	ResetN io.PortIn1

	// Control is the ui_in port.
	Control io.PortIn8

	// Bus is the input side of the bidirectional uio port.
	Bus io.PortIn8

	// Debug if true wll emit output from Debug() calls
	Debug bool
}

// Init returns a fully initialized counter in its power on state.
func Init(d *ChipDef) (*Chip, error) {
	if d == nil {
		return nil, errors.New("can't initialize counter from a nil ChipDef")
	}
	c := &Chip{
		resetN:  d.ResetN,
		control: d.Control,
		busIn:   d.Bus,
		debug:   d.Debug,
		count:   &out{},
		busOE:   &out{},
	}
	c.PowerOn()
	return c, nil
}

// PowerOn performs a full power-on of the counter which is the same as a
// reset with the clock count cleared.
func (c *Chip) PowerOn() {
	c.clocks = 0
	c.Reset()
}

// Reset forces the chip into DRIVE with a zero count immediately. Holding
// rst_n low across a Tick() has the same effect on the following TickDone().
func (c *Chip) Reset() {
	c.tickDone = true
	c.count.data = 0x00
	c.shadowCount = 0x00
	c.state = STATE_DRIVE
	c.shadowState = STATE_DRIVE
	c.busOE.data = kOE_DRIVE
	c.loadSeen = false
	c.shadowLoadSeen = false
	c.captured = 0x00
}

// CountOut returns an io.PortOut8 for the count register (uo_out).
func (c *Chip) CountOut() io.PortOut8 {
	return c.count
}

// BusOut returns an io.PortOut8 for the value the chip presents to the
// bus pads (uio_out). It's only electrically present while BusOE() is 0xFF.
func (c *Chip) BusOut() io.PortOut8 {
	return c.count
}

// BusOE returns an io.PortOut8 for the bus output enable mask (uio_oe).
func (c *Chip) BusOE() io.PortOut8 {
	return c.busOE
}

// State returns the current bus direction state.
func (c *Chip) State() State {
	return c.state
}

// Clocks returns the number of Tick() calls since power on.
func (c *Chip) Clocks() int {
	return c.clocks
}

// Captured returns the value latched from the bus on the most recent CAPTURE edge.
func (c *Chip) Captured() uint8 {
	return c.captured
}

func input8(p io.PortIn8) uint8 {
	if p == nil {
		return 0x00
	}
	return p.Input()
}

// Tick does a single rising clock edge. All inputs are sampled here and the
// results are held in shadow registers until TickDone() so that anything
// reading the outputs during the cycle sees a consistent value.
func (c *Chip) Tick() error {
	c.clocks++
	if !c.tickDone {
		return errors.New("called Tick() without calling TickDone() at end of last cycle")
	}
	c.tickDone = false

	ctl := input8(c.control)
	load := (ctl & LOAD_REQ_BIT) != 0x00
	// Track the level even in reset or mid sequence so a request held
	// high never looks like a new pulse later.
	c.shadowLoadSeen = load

	if c.resetN != nil && !c.resetN.Input() {
		c.shadowState = STATE_DRIVE
		c.shadowCount = 0x00
		return nil
	}

	switch c.state {
	case STATE_DRIVE:
		c.shadowCount = c.count.data
		if (ctl & EN_BIT) != 0x00 {
			c.shadowCount++
		}
		c.shadowState = STATE_DRIVE
		// drive_enable only matters here. Once released the sequence always completes.
		if (ctl&DRIVE_BIT) != 0x00 && load && !c.loadSeen {
			c.shadowState = STATE_RELEASE
		}
	case STATE_RELEASE:
		c.shadowCount = c.count.data
		c.shadowState = STATE_CAPTURE
	case STATE_CAPTURE:
		c.captured = input8(c.busIn)
		c.shadowCount = c.captured
		c.shadowState = STATE_DRIVE
	default:
		return InvalidState{c.state}
	}
	return nil
}

// TickDone is to be called after all chips have run a given Tick() cycle in order to
// latch the registered outputs. This is the point where uo_out and uio_oe change.
func (c *Chip) TickDone() {
	c.count.data = c.shadowCount
	c.state = c.shadowState
	c.loadSeen = c.shadowLoadSeen
	c.busOE.data = kOE_FLOAT
	if c.state == STATE_DRIVE {
		c.busOE.data = kOE_DRIVE
	}
	c.tickDone = true
}

func (c *Chip) Debug() string {
	if c.debug {
		return fmt.Sprintf("%.6d state: %-7s count: %.2X oe: %.2X load: %t\n", c.clocks, c.state, c.count.data, c.busOE.data, c.loadSeen)
	}
	return ""
}
