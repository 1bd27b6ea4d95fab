// ttsim runs a stimulus script against the counter model and optionally
// writes what happened as a VCD, a waveform PNG and/or a WAV file.
//
//	ttsim -script stim/testdata/load_turnaround.stim -vcd out.vcd -png out.png
package main

import (
	"flag"
	"image/png"
	"log"
	"os"

	"github.com/XeonicsCA/TT-8-Bit-Counter/harness"
	"github.com/XeonicsCA/TT-8-Bit-Counter/stim"
	"github.com/XeonicsCA/TT-8-Bit-Counter/trace"
	"github.com/bradleyjkemp/memviz"
)

var (
	script     = flag.String("script", "", "Path to the stimulus script to run")
	strict     = flag.Bool("strict", false, "If true bus contention fails the run")
	pull       = flag.Uint("pull", 0x00, "Level undriven uio pads settle to")
	debug      = flag.Bool("debug", false, "If true will emit counter debugging every cycle")
	vcd        = flag.String("vcd", "", "If set write a VCD trace to this path")
	timescale  = flag.String("timescale", "5us", "VCD timescale (half a clock period)")
	pngOut     = flag.String("png", "", "If set write a waveform PNG to this path")
	pngScale   = flag.Float64("png_scale", 1.0, "The amount to rescale the output PNG")
	cycleWidth = flag.Int("cycle_width", 8, "Pixels per clock cycle in the PNG")
	wavOut     = flag.String("wav", "", "If set write uo_out as audio to this path")
	wavRate    = flag.Int("wav_rate", 8000, "Sample rate for -wav (one sample per cycle)")
	memvizOut  = flag.String("memviz", "", "If set write a graphviz dot dump of the final bench to this path")
)

func main() {
	flag.Parse()
	if *script == "" {
		log.Fatalf("Usage: %s -script <file>", os.Args[0])
	}
	if *pull > 0xFF {
		log.Fatalf("Invalid -pull %d", *pull)
	}
	f, err := os.Open(*script)
	if err != nil {
		log.Fatalf("Can't open script: %v", err)
	}
	s, err := stim.Parse(f)
	f.Close()
	if err != nil {
		log.Fatalf("Can't parse %q: %v", *script, err)
	}

	tr := trace.New(0)
	b, err := harness.Init(&harness.BenchDef{
		Pull:     uint8(*pull),
		Strict:   *strict,
		Recorder: tr,
		Debug:    *debug,
	})
	if err != nil {
		log.Fatalf("Can't init bench: %v", err)
	}

	// Outputs are still written on failure since that's when they're most useful.
	runErr := s.Run(b)

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
	if *pngOut != "" {
		o, err := os.Create(*pngOut)
		if err != nil {
			log.Fatalf("Can't create %q: %v", *pngOut, err)
		}
		if err := png.Encode(o, tr.Render(&trace.RenderDef{CycleWidth: *cycleWidth, Scale: *pngScale})); err != nil {
			log.Fatalf("Can't write PNG: %v", err)
		}
		if err := o.Close(); err != nil {
			log.Fatalf("Error closing %q - %v", *pngOut, err)
		}
	}
	if *wavOut != "" {
		o, err := os.Create(*wavOut)
		if err != nil {
			log.Fatalf("Can't create %q: %v", *wavOut, err)
		}
		if err := tr.WriteWAV(o, *wavRate); err != nil {
			log.Fatalf("Can't write WAV: %v", err)
		}
		if err := o.Close(); err != nil {
			log.Fatalf("Error closing %q - %v", *wavOut, err)
		}
	}
	if *memvizOut != "" {
		o, err := os.Create(*memvizOut)
		if err != nil {
			log.Fatalf("Can't create %q: %v", *memvizOut, err)
		}
		memviz.Map(o, b.Chip())
		if err := o.Close(); err != nil {
			log.Fatalf("Error closing %q - %v", *memvizOut, err)
		}
	}

	if runErr != nil {
		log.Fatalf("Script failed: %v", runErr)
	}
	log.Printf("%s: passed in %d cycles (%d contentions)", *script, b.Cycle(), b.Contentions())
}
