package trace

import (
	"image"
	"image/color"

	"github.com/XeonicsCA/TT-8-Bit-Counter/counter"
	"github.com/XeonicsCA/TT-8-Bit-Counter/harness"
	"golang.org/x/image/draw"
)

const (
	kLANE_HEIGHT = 12
	kLANE_GAP    = 4
	kGLYPH_W     = 3
	kGLYPH_H     = 5
)

var (
	kBACKGROUND = color.NRGBA{0x10, 0x10, 0x18, 0xFF}
	kGRID       = color.NRGBA{0x28, 0x28, 0x34, 0xFF}
	kTEXT       = color.NRGBA{0xE0, 0xE0, 0xE0, 0xFF}

	// Colors per lane.
	kLANE_COLORS = []color.NRGBA{
		{0x70, 0x70, 0x70, 0xFF}, // clk
		{0xFF, 0x50, 0x50, 0xFF}, // rst_n
		{0x50, 0xFF, 0x50, 0xFF}, // en
		{0xFF, 0xC0, 0x30, 0xFF}, // load
		{0x50, 0xC0, 0xFF, 0xFF}, // drive
		{0xC0, 0x80, 0xFF, 0xFF}, // uio_oe
		{0xFF, 0xFF, 0x60, 0xFF}, // uo_out
		{0x60, 0xFF, 0xFF, 0xFF}, // uio_in
		{0xFF, 0x90, 0xC0, 0xFF}, // state
	}
)

// 3x5 hex digits. Each row is 3 bits, MSB left, top row in the high bits.
var kGLYPHS = [16]uint16{
	0x7B6F, // 0
	0x2C97, // 1
	0x73E7, // 2
	0x72CF, // 3
	0x5BC9, // 4
	0x79CF, // 5
	0x79EF, // 6
	0x7249, // 7
	0x7BEF, // 8
	0x7BCF, // 9
	0x2BED, // A
	0x6BAE, // B
	0x7927, // C
	0x6B6E, // D
	0x79E7, // E
	0x79E4, // F
}

type lane struct {
	bus   bool
	value func(s *harness.Sample) uint8
}

var kLANES = []lane{
	{false, nil}, // clk is synthesized
	{false, func(s *harness.Sample) uint8 { return bit(s.ResetN) }},
	{false, func(s *harness.Sample) uint8 { return s.UI & counter.EN_BIT }},
	{false, func(s *harness.Sample) uint8 { return s.UI & counter.LOAD_REQ_BIT }},
	{false, func(s *harness.Sample) uint8 { return s.UI & counter.DRIVE_BIT }},
	{false, func(s *harness.Sample) uint8 { return s.UIOOE }},
	{true, func(s *harness.Sample) uint8 { return s.UO }},
	{true, func(s *harness.Sample) uint8 { return s.UIOIn }},
	{true, func(s *harness.Sample) uint8 { return uint8(s.State) }},
}

// RenderDef controls waveform rendering.
type RenderDef struct {
	// CycleWidth is the number of pixels per clock cycle before scaling. Minimum 4.
	CycleWidth int

	// Scale rescales the final image (nearest neighbor). <= 0 means 1.0.
	Scale float64
}

// Render draws the trace as a logic analyzer style waveform.
func (t *Trace) Render(d *RenderDef) *image.NRGBA {
	cw := 8
	scale := 1.0
	if d != nil {
		if d.CycleWidth > 0 {
			cw = d.CycleWidth
		}
		if d.Scale > 0 {
			scale = d.Scale
		}
	}
	if cw < 4 {
		cw = 4
	}
	n := len(t.samples)
	if n == 0 {
		n = 1
	}
	w := n*cw + 2
	h := len(kLANES)*(kLANE_HEIGHT+kLANE_GAP) + kLANE_GAP
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{kBACKGROUND}, image.Point{}, draw.Src)
	for x := 1; x < w; x += cw {
		for y := 0; y < h; y++ {
			img.SetNRGBA(x, y, kGRID)
		}
	}

	for l, ln := range kLANES {
		top := kLANE_GAP + l*(kLANE_HEIGHT+kLANE_GAP)
		bottom := top + kLANE_HEIGHT - 1
		c := kLANE_COLORS[l]
		if !ln.bus {
			drawBitLane(img, t.samples, ln, l == 0, cw, top, bottom, c)
			continue
		}
		drawBusLane(img, t.samples, ln, cw, top, bottom, c)
	}

	if scale == 1.0 {
		return img
	}
	out := image.NewNRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.NearestNeighbor.Scale(out, out.Bounds(), img, img.Bounds(), draw.Over, nil)
	return out
}

func hline(img *image.NRGBA, x0, x1, y int, c color.NRGBA) {
	for x := x0; x < x1; x++ {
		img.SetNRGBA(x, y, c)
	}
}

func vline(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		img.SetNRGBA(x, y, c)
	}
}

func drawBitLane(img *image.NRGBA, samples []harness.Sample, ln lane, clk bool, cw, top, bottom int, c color.NRGBA) {
	prev := -1
	for i := range samples {
		x := 1 + i*cw
		if clk {
			// High for the first half of every cycle.
			vline(img, x, top, bottom, c)
			hline(img, x, x+cw/2, top, c)
			vline(img, x+cw/2, top, bottom, c)
			hline(img, x+cw/2, x+cw, bottom, c)
			continue
		}
		y := bottom
		if ln.value(&samples[i]) != 0x00 {
			y = top
		}
		if prev >= 0 && prev != y {
			vline(img, x, prev, y, c)
		}
		hline(img, x, x+cw, y, c)
		prev = y
	}
}

func drawBusLane(img *image.NRGBA, samples []harness.Sample, ln lane, cw, top, bottom int, c color.NRGBA) {
	start := 0
	for i := 0; i <= len(samples); i++ {
		if i < len(samples) && i > start && ln.value(&samples[i]) == ln.value(&samples[start]) {
			continue
		}
		if i == start {
			continue
		}
		// Run [start, i) holds one value.
		x0 := 1 + start*cw
		x1 := 1 + i*cw
		hline(img, x0+1, x1-1, top, c)
		hline(img, x0+1, x1-1, bottom, c)
		vline(img, x0, top+1, bottom-1, c)
		val := ln.value(&samples[start])
		// Two hex digits plus a pixel gap need 8 pixels inside the run.
		if x1-x0 >= 2*kGLYPH_W+4 {
			y := top + (kLANE_HEIGHT-kGLYPH_H)/2
			drawGlyph(img, x0+2, y, val>>4, kTEXT)
			drawGlyph(img, x0+2+kGLYPH_W+1, y, val&0x0F, kTEXT)
		}
		start = i
	}
}

func drawGlyph(img *image.NRGBA, x, y int, digit uint8, c color.NRGBA) {
	g := kGLYPHS[digit&0x0F]
	for row := 0; row < kGLYPH_H; row++ {
		bits := (g >> uint((kGLYPH_H-1-row)*kGLYPH_W)) & 0x7
		for col := 0; col < kGLYPH_W; col++ {
			if bits&(0x4>>uint(col)) != 0 {
				img.SetNRGBA(x+col, y+row, c)
			}
		}
	}
}
