package trace

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const kWAV_BIT_DEPTH = 16

// WriteWAV treats uo_out as an unsigned 8 bit DAC and writes one mono 16 bit
// PCM sample per clock cycle at the given sample rate. A free running counter
// comes out as a sawtooth at rate/256 Hz.
func (t *Trace) WriteWAV(w io.WriteSeeker, rate int) error {
	if rate <= 0 {
		return errors.New("sample rate must be positive")
	}
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  rate,
		},
		SourceBitDepth: kWAV_BIT_DEPTH,
		Data:           make([]int, len(t.samples)),
	}
	for i := range t.samples {
		buf.Data[i] = dacLevel(t.samples[i].UO)
	}
	// 1 == PCM
	e := wav.NewEncoder(w, rate, kWAV_BIT_DEPTH, 1, 1)
	if err := e.Write(buf); err != nil {
		return fmt.Errorf("can't write samples: %v", err)
	}
	if err := e.Close(); err != nil {
		return fmt.Errorf("can't finish wav: %v", err)
	}
	return nil
}

// dacLevel maps 0x00-0xFF onto the signed 16 bit range.
func dacLevel(v uint8) int {
	return (int(v) - 0x80) << 8
}
