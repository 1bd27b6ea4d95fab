// Package stim parses and runs simple line based stimulus scripts against a
// harness.Bench. It's intended to let the same sequences a cocotb testbench
// would run be kept as data files.
//
// Each line is one command. Anything after a # is a comment and keywords are
// case insensitive. Values are parsed with base prefixes (0x, 0b, 0o) or as
// decimal.
//
//	reset N              hold rst_n low for N edges then release it
//	clock N              run N edges
//	ui V                 set ui_in
//	set BIT / clear BIT  set or clear en, load or drive in ui_in
//	pulse BIT            set BIT for exactly one edge
//	uio V [mask M]       external agent drives the uio pads
//	release              external agent stops driving
//	expect SIG V         check uo, oe, uio (pads) or state (DRIVE/RELEASE/CAPTURE)
//	log TEXT             emit TEXT
package stim

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/XeonicsCA/TT-8-Bit-Counter/counter"
	"github.com/XeonicsCA/TT-8-Bit-Counter/harness"
)

// opType is an enumeration of the script commands.
type opType int

const (
	kOP_UNIMPLEMENTED opType = iota // Start of valid op enumerations.
	kOP_RESET
	kOP_CLOCK
	kOP_UI
	kOP_SET
	kOP_CLEAR
	kOP_PULSE
	kOP_UIO
	kOP_RELEASE
	kOP_EXPECT
	kOP_LOG
	kOP_MAX // End of op enumerations.
)

var kOPS = map[string]opType{
	"reset":   kOP_RESET,
	"clock":   kOP_CLOCK,
	"ui":      kOP_UI,
	"set":     kOP_SET,
	"clear":   kOP_CLEAR,
	"pulse":   kOP_PULSE,
	"uio":     kOP_UIO,
	"release": kOP_RELEASE,
	"expect":  kOP_EXPECT,
	"log":     kOP_LOG,
}

var kBITS = map[string]uint8{
	"en":    counter.EN_BIT,
	"load":  counter.LOAD_REQ_BIT,
	"drive": counter.DRIVE_BIT,
}

var kSTATES = map[string]counter.State{
	"drive":   counter.STATE_DRIVE,
	"release": counter.STATE_RELEASE,
	"capture": counter.STATE_CAPTURE,
}

// ParseError represents a line which couldn't be parsed.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

// Error implements the interface for error types.
func (e ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %s", e.Line, e.Text, e.Reason)
}

// ExpectError represents an expect command that didn't match.
type ExpectError struct {
	Line   int
	Cycle  int
	Signal string
	Got    uint8
	Want   uint8
}

// Error implements the interface for error types.
func (e ExpectError) Error() string {
	return fmt.Sprintf("line %d cycle %d: %s got %.2X and want %.2X", e.Line, e.Cycle, e.Signal, e.Got, e.Want)
}

type command struct {
	line   int
	text   string
	op     opType
	n      int    // reset/clock count.
	val    uint8  // ui/uio/expect value or bit mask.
	mask   uint8  // uio drive mask.
	signal string // expect signal.
	msg    string // log text.
}

// Script is a parsed stimulus file.
type Script struct {
	// Logf receives log commands. Defaults to log.Printf.
	Logf func(format string, v ...interface{})

	cmds []command
}

// Len returns the number of commands in the script.
func (s *Script) Len() int {
	return len(s.cmds)
}

func parseVal(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

func parseCount(s string) (int, error) {
	v, err := strconv.ParseUint(s, 0, 31)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// Parse reads a whole script.
func Parse(r io.Reader) (*Script, error) {
	s := &Script{Logf: log.Printf}
	scanner := bufio.NewScanner(r)
	l := 0
	for scanner.Scan() {
		l++
		text := scanner.Text()
		line := text
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		toks := strings.Fields(line)
		if len(toks) == 0 {
			continue
		}
		bad := func(format string, v ...interface{}) error {
			return ParseError{Line: l, Text: text, Reason: fmt.Sprintf(format, v...)}
		}
		op, ok := kOPS[strings.ToLower(toks[0])]
		if !ok {
			return nil, bad("unknown command %q", toks[0])
		}
		c := command{line: l, text: text, op: op}
		args := toks[1:]
		var err error
		switch op {
		case kOP_RESET, kOP_CLOCK:
			if len(args) != 1 {
				return nil, bad("want 1 count argument, got %d", len(args))
			}
			if c.n, err = parseCount(args[0]); err != nil {
				return nil, bad("bad count: %v", err)
			}
		case kOP_UI:
			if len(args) != 1 {
				return nil, bad("want 1 value argument, got %d", len(args))
			}
			if c.val, err = parseVal(args[0]); err != nil {
				return nil, bad("bad value: %v", err)
			}
		case kOP_SET, kOP_CLEAR, kOP_PULSE:
			if len(args) != 1 {
				return nil, bad("want 1 bit name, got %d", len(args))
			}
			if c.val, ok = kBITS[strings.ToLower(args[0])]; !ok {
				return nil, bad("unknown bit %q", args[0])
			}
		case kOP_UIO:
			if len(args) != 1 && !(len(args) == 3 && strings.ToLower(args[1]) == "mask") {
				return nil, bad("want value [mask M]")
			}
			if c.val, err = parseVal(args[0]); err != nil {
				return nil, bad("bad value: %v", err)
			}
			c.mask = 0xFF
			if len(args) == 3 {
				if c.mask, err = parseVal(args[2]); err != nil {
					return nil, bad("bad mask: %v", err)
				}
			}
		case kOP_RELEASE:
			if len(args) != 0 {
				return nil, bad("release takes no arguments")
			}
		case kOP_EXPECT:
			if len(args) != 2 {
				return nil, bad("want signal and value, got %d arguments", len(args))
			}
			c.signal = strings.ToLower(args[0])
			switch c.signal {
			case "uo", "oe", "uio":
				if c.val, err = parseVal(args[1]); err != nil {
					return nil, bad("bad value: %v", err)
				}
			case "state":
				st, ok := kSTATES[strings.ToLower(args[1])]
				if !ok {
					return nil, bad("unknown state %q", args[1])
				}
				c.val = uint8(st)
			default:
				return nil, bad("unknown signal %q", args[0])
			}
		case kOP_LOG:
			c.msg = strings.TrimSpace(strings.Join(args, " "))
		}
		s.cmds = append(s.cmds, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("can't read script: %v", err)
	}
	return s, nil
}

// Run executes the script against b, stopping at the first failure.
func (s *Script) Run(b *harness.Bench) error {
	for _, c := range s.cmds {
		if err := s.run(b, &c); err != nil {
			if _, ok := err.(ExpectError); ok {
				return err
			}
			return fmt.Errorf("line %d %q: %w", c.line, c.text, err)
		}
	}
	return nil
}

func (s *Script) run(b *harness.Bench, c *command) error {
	switch c.op {
	case kOP_RESET:
		return b.ResetCycles(c.n)
	case kOP_CLOCK:
		return b.ClockCycles(c.n)
	case kOP_UI:
		b.SetUI(c.val)
	case kOP_SET:
		b.SetUI(b.UI() | c.val)
	case kOP_CLEAR:
		b.SetUI(b.UI() &^ c.val)
	case kOP_PULSE:
		b.SetUI(b.UI() | c.val)
		if err := b.ClockCycles(1); err != nil {
			return err
		}
		b.SetUI(b.UI() &^ c.val)
	case kOP_UIO:
		b.DriveUIO(c.val, c.mask)
	case kOP_RELEASE:
		b.ReleaseUIO()
	case kOP_EXPECT:
		var got uint8
		switch c.signal {
		case "uo":
			got = b.UO()
		case "oe":
			got = b.UIOOE()
		case "uio":
			got = b.UIOIn()
		case "state":
			got = uint8(b.State())
		}
		if got != c.val {
			return ExpectError{Line: c.line, Cycle: b.Cycle(), Signal: c.signal, Got: got, Want: c.val}
		}
	case kOP_LOG:
		if s.Logf != nil {
			s.Logf("cycle %d: %s", b.Cycle(), c.msg)
		}
	default:
		return fmt.Errorf("impossible op %d", c.op)
	}
	return nil
}
