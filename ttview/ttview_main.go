// ttview free runs the counter model and shows the waveform live in an SDL
// window.
//
// Keys:
//
//	e      toggle en
//	d      toggle drive_en
//	l      pulse load_request for one edge
//	u      toggle the external agent driving uio
//	up/dn  change the value the external agent drives
//	r      hold rst_n low for 2 edges
//	space  pause/resume
//	q/esc  quit
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/XeonicsCA/TT-8-Bit-Counter/counter"
	"github.com/XeonicsCA/TT-8-Bit-Counter/harness"
	"github.com/XeonicsCA/TT-8-Bit-Counter/statsview"
	"github.com/XeonicsCA/TT-8-Bit-Counter/trace"
	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/image/draw"
)

var (
	debug      = flag.Bool("debug", false, "If true will emit counter debugging every cycle")
	width      = flag.Int("width", 1024, "Window width")
	height     = flag.Int("height", 320, "Window height")
	cycleWidth = flag.Int("cycle_width", 12, "Pixels per clock cycle before scaling to the window")
	rate       = flag.Int("rate", 8, "Clock cycles per second")
	stats      = flag.Bool("statsview", false, "If true launch the runtime stats server")
)

// controls holds the keyboard driven inputs between frames.
type controls struct {
	ui     uint8
	pulse  bool
	reset  int
	drive  bool
	busVal uint8
	paused bool
	quit   bool
}

func (c *controls) handle(ev sdl.Event) {
	switch e := ev.(type) {
	case *sdl.QuitEvent:
		c.quit = true
	case *sdl.KeyboardEvent:
		if e.Type != sdl.KEYDOWN {
			return
		}
		switch e.Keysym.Sym {
		case sdl.K_q, sdl.K_ESCAPE:
			c.quit = true
		case sdl.K_e:
			c.ui ^= counter.EN_BIT
		case sdl.K_d:
			c.ui ^= counter.DRIVE_BIT
		case sdl.K_l:
			c.pulse = true
		case sdl.K_u:
			c.drive = !c.drive
		case sdl.K_UP:
			c.busVal++
		case sdl.K_DOWN:
			c.busVal--
		case sdl.K_r:
			c.reset = 2
		case sdl.K_SPACE:
			c.paused = !c.paused
		}
	}
}

// step applies the controls and runs one edge.
func (c *controls) step(b *harness.Bench) error {
	ui := c.ui
	if c.pulse {
		ui |= counter.LOAD_REQ_BIT
		c.pulse = false
	}
	b.SetUI(ui)
	b.SetResetN(c.reset == 0)
	if c.reset > 0 {
		c.reset--
	}
	b.ReleaseUIO()
	if c.drive {
		b.SetUIO(c.busVal)
	}
	return b.ClockCycles(1)
}

func main() {
	flag.Parse()
	if *rate <= 0 || *cycleWidth <= 0 {
		log.Fatalf("-rate and -cycle_width must be positive")
	}
	if *stats {
		statsview.Launch(os.Stdout)
	}

	var window *sdl.Window
	var surface *sdl.Surface
	sdl.Main(func() {
		var wg sync.WaitGroup
		wg.Add(1)
		sdl.Do(func() {
			if err := sdl.Init(sdl.INIT_EVERYTHING); err != nil {
				log.Fatalf("Can't init SDL: %v", err)
			}
			var err error
			window, err = sdl.CreateWindow("tt counter", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(*width), int32(*height), sdl.WINDOW_SHOWN)
			if err != nil {
				log.Fatalf("Can't create window: %v", err)
			}
			surface, err = window.GetSurface()
			if err != nil {
				log.Fatalf("Can't get window surface: %v", err)
			}
			wg.Done()
		})
		wg.Wait()
		defer func() {
			sdl.Do(func() {
				window.Destroy()
				sdl.Quit()
			})
		}()

		tr := trace.New(*width / *cycleWidth)
		b, err := harness.Init(&harness.BenchDef{Recorder: tr, Debug: *debug})
		if err != nil {
			log.Fatalf("Can't init bench: %v", err)
		}

		ctl := &controls{ui: counter.EN_BIT | counter.DRIVE_BIT}
		tick := time.NewTicker(time.Second / time.Duration(*rate))
		defer tick.Stop()
		for range tick.C {
			sdl.Do(func() {
				for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
					ctl.handle(ev)
				}
			})
			if ctl.quit {
				return
			}
			if !ctl.paused {
				if err := ctl.step(b); err != nil {
					log.Fatalf("Tick error: %v", err)
				}
			}
			img := tr.Render(&trace.RenderDef{CycleWidth: *cycleWidth})
			title := fmt.Sprintf("tt counter  cycle %d  uo %.2X  oe %.2X  %s  ext %.2X drive %t  contentions %d",
				b.Cycle(), b.UO(), b.UIOOE(), b.State(), ctl.busVal, ctl.drive, b.Contentions())
			sdl.Do(func() {
				draw.NearestNeighbor.Scale(surface, surface.Bounds(), img, img.Bounds(), draw.Src, nil)
				window.SetTitle(title)
				window.UpdateSurface()
			})
		}
	})
}
