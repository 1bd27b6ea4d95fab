package trace

import (
	"flag"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/XeonicsCA/TT-8-Bit-Counter/counter"
	"github.com/XeonicsCA/TT-8-Bit-Counter/harness"
	"github.com/davecgh/go-spew/spew"
	"github.com/go-audio/wav"
	"github.com/go-test/deep"
)

var (
	testImageDir    = flag.String("test_image_dir", "", "If set will generate images from tests to this directory")
	testImageScaler = flag.Float64("test_image_scaler", 1.0, "The amount to rescale the output PNGs")
)

// turnaround runs reset, a few counts and one load of val through a bench.
func turnaround(t *testing.T, tr *Trace, val uint8) {
	t.Helper()
	b, err := harness.Init(&harness.BenchDef{Recorder: tr})
	if err != nil {
		t.Fatalf("Can't init bench: %v", err)
	}
	steps := []func() error{
		func() error { return b.ResetCycles(2) },
		func() error { b.SetUI(counter.EN_BIT | counter.DRIVE_BIT); return b.ClockCycles(3) },
		func() error { b.SetUI(b.UI() | counter.LOAD_REQ_BIT); return b.ClockCycles(1) },
		func() error { b.SetUI(b.UI() &^ counter.LOAD_REQ_BIT); b.SetUIO(val); return b.ClockCycles(2) },
		func() error { b.ReleaseUIO(); return b.ClockCycles(6) },
	}
	for i, s := range steps {
		if err := s(); err != nil {
			t.Fatalf("Step %d failed: %v\nstate: %s", i, err, spew.Sdump(b))
		}
	}
}

func TestLimit(t *testing.T) {
	tr := New(4)
	for i := 0; i < 10; i++ {
		tr.Record(harness.Sample{Cycle: i + 1})
	}
	var got []int
	for _, s := range tr.Samples() {
		got = append(got, s.Cycle)
	}
	if diff := deep.Equal(got, []int{7, 8, 9, 10}); diff != nil {
		t.Errorf("Bad samples after limit: %v", diff)
	}
	tr.Reset()
	if got, want := len(tr.Samples()), 0; got != want {
		t.Errorf("Samples left after reset: %d", got)
	}
}

func TestVCD(t *testing.T) {
	tr := New(0)
	turnaround(t, tr, 0x5A)
	var sb strings.Builder
	if err := tr.WriteVCD(&sb, "5us"); err != nil {
		t.Fatalf("Can't write VCD: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		"$timescale 5us $end",
		"$var wire 8 % uo_out [7:0] $end",
		"$enddefinitions $end",
		"$dumpvars",
		"#0\n",
		"b01011010 %", // Loaded value on uo_out.
		"b00000000 '", // uio_oe released.
	} {
		if !strings.Contains(out, want) {
			t.Errorf("VCD missing %q:\n%s", want, out)
		}
	}
	// 14 samples == 28 timestamps.
	if got, want := strings.Count(out, "\n#"), 28; got != want {
		t.Errorf("Bad number of timestamps. Got %d and want %d", got, want)
	}
	// uio_oe only changes twice after the initial dump.
	if got, want := strings.Count(out, " '\n"), 3; got != want {
		t.Errorf("Bad number of uio_oe changes. Got %d and want %d", got, want)
	}
}

func TestRender(t *testing.T) {
	tr := New(0)
	turnaround(t, tr, 0xC3)
	img := tr.Render(&RenderDef{CycleWidth: 10})
	if got, want := img.Bounds().Dx(), 14*10+2; got != want {
		t.Errorf("Bad image width. Got %d and want %d", got, want)
	}
	if got, want := img.Bounds().Dy(), len(kLANES)*(kLANE_HEIGHT+kLANE_GAP)+kLANE_GAP; got != want {
		t.Errorf("Bad image height. Got %d and want %d", got, want)
	}
	// Clock lane is high at the start of the first cycle.
	if got, want := img.NRGBAAt(3, kLANE_GAP), kLANE_COLORS[0]; got != want {
		t.Errorf("Clock lane not drawn. Got %v and want %v", got, want)
	}
	scaled := tr.Render(&RenderDef{CycleWidth: 10, Scale: 2.0})
	if got, want := scaled.Bounds().Dx(), 2*img.Bounds().Dx(); got != want {
		t.Errorf("Bad scaled width. Got %d and want %d", got, want)
	}
	if got, want := scaled.NRGBAAt(6, 2*kLANE_GAP), kLANE_COLORS[0]; got != want {
		t.Errorf("Scaled clock lane not drawn. Got %v and want %v", got, want)
	}
	if empty := New(0).Render(nil); empty.Bounds().Dx() == 0 {
		t.Error("Empty trace rendered to an empty image")
	}

	if *testImageDir != "" {
		o, err := os.Create(filepath.Join(*testImageDir, "turnaround.png"))
		if err != nil {
			t.Fatalf("Can't create image: %v", err)
		}
		defer o.Close()
		if err := png.Encode(o, tr.Render(&RenderDef{Scale: *testImageScaler})); err != nil {
			t.Fatalf("Can't encode image: %v", err)
		}
	}
}

func TestWAV(t *testing.T) {
	tr := New(0)
	turnaround(t, tr, 0x80)
	fn := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(fn)
	if err != nil {
		t.Fatalf("Can't create %q: %v", fn, err)
	}
	if err := tr.WriteWAV(f, 8000); err != nil {
		t.Fatalf("Can't write wav: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Can't close wav: %v", err)
	}
	if err := tr.WriteWAV(nil, 0); err == nil {
		t.Error("Didn't get error for zero rate")
	}

	r, err := os.Open(fn)
	if err != nil {
		t.Fatalf("Can't reopen %q: %v", fn, err)
	}
	defer r.Close()
	buf, err := wav.NewDecoder(r).FullPCMBuffer()
	if err != nil {
		t.Fatalf("Can't decode wav: %v", err)
	}
	var want []int
	for _, s := range tr.Samples() {
		want = append(want, dacLevel(s.UO))
	}
	if diff := deep.Equal(buf.Data, want); diff != nil {
		t.Errorf("Bad PCM data: %v", diff)
	}
	if got, want := buf.Format.SampleRate, 8000; got != want {
		t.Errorf("Bad sample rate. Got %d and want %d", got, want)
	}
}
