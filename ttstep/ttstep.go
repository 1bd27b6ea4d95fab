// ttstep single steps the counter model from a raw terminal.
//
// Keys:
//
//	space/enter  one clock edge
//	n            ten clock edges
//	e d          toggle en / drive_en
//	l            assert load_request for the next edge only
//	b            toggle the external agent driving uio
//	+ -          change the value the external agent drives
//	r            one edge with rst_n low
//	q            quit (writes -vcd if set)
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/XeonicsCA/TT-8-Bit-Counter/counter"
	"github.com/XeonicsCA/TT-8-Bit-Counter/harness"
	"github.com/XeonicsCA/TT-8-Bit-Counter/trace"
	"github.com/pkg/term"
)

var (
	tty       = flag.String("tty", "/dev/tty", "Terminal device to read keys from")
	vcd       = flag.String("vcd", "", "If set write a VCD trace of the session to this path on quit")
	timescale = flag.String("timescale", "5us", "VCD timescale (half a clock period)")
)

func status(t *term.Term, b *harness.Bench, busVal uint8, drive bool) {
	ui := b.UI()
	fmt.Fprintf(t, "%.6d  en:%d load:%d drive:%d  uo:%.2X oe:%.2X %-7s  ext:%.2X(%t)\r\n",
		b.Cycle(), ui&counter.EN_BIT, (ui&counter.LOAD_REQ_BIT)>>1, (ui&counter.DRIVE_BIT)>>2,
		b.UO(), b.UIOOE(), b.State(), busVal, drive)
}

func main() {
	flag.Parse()

	tr := trace.New(0)
	b, err := harness.Init(&harness.BenchDef{Recorder: tr})
	if err != nil {
		log.Fatalf("Can't init bench: %v", err)
	}

	t, err := term.Open(*tty, term.RawMode)
	if err != nil {
		log.Fatalf("Can't open %q: %v", *tty, err)
	}

	var busVal uint8
	var drive bool
	edges := func(n int, resetN bool) error {
		b.SetResetN(resetN)
		b.ReleaseUIO()
		if drive {
			b.SetUIO(busVal)
		}
		for i := 0; i < n; i++ {
			if err := b.ClockCycles(1); err != nil {
				return err
			}
			// Load request only lives for one edge.
			b.SetUI(b.UI() &^ counter.LOAD_REQ_BIT)
		}
		b.SetResetN(true)
		return nil
	}

	status(t, b, busVal, drive)
	buf := make([]byte, 1)
	var runErr error
loop:
	for {
		if _, err := t.Read(buf); err != nil {
			runErr = err
			break
		}
		switch buf[0] {
		case ' ', '\r', '\n':
			runErr = edges(1, true)
		case 'n':
			runErr = edges(10, true)
		case 'r':
			runErr = edges(1, false)
		case 'e':
			b.SetUI(b.UI() ^ counter.EN_BIT)
		case 'd':
			b.SetUI(b.UI() ^ counter.DRIVE_BIT)
		case 'l':
			b.SetUI(b.UI() | counter.LOAD_REQ_BIT)
		case 'b':
			drive = !drive
		case '+':
			busVal++
		case '-':
			busVal--
		case 'q', 0x03:
			break loop
		default:
			continue
		}
		if runErr != nil {
			break
		}
		status(t, b, busVal, drive)
	}
	t.Restore()
	t.Close()

	if *vcd != "" {
		o, err := os.Create(*vcd)
		if err != nil {
			log.Fatalf("Can't create %q: %v", *vcd, err)
		}
		if err := tr.WriteVCD(o, *timescale); err != nil {
			log.Fatalf("Can't write VCD: %v", err)
		}
		if err := o.Close(); err != nil {
			log.Fatalf("Error closing %q - %v", *vcd, err)
		}
	}
	if runErr != nil {
		log.Fatalf("Stopped: %v", runErr)
	}
}
