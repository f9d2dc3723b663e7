// Package external defines the boundary interfaces the render graph
// consumes but does not implement itself: sample decoding, the output
// stream, and the sandboxed filesystem paths sample loading is confined to.
package external

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

// SampleDecoder decodes an audio file into a mono-downmixed float32 buffer
// plus its native sample rate. Multi-channel input is downmixed to mono by
// averaging channels; the engine resamples at playback time via its own
// pitch ratio, not here.
type SampleDecoder interface {
	Decode(path string) (samples []float32, sampleRate float64, err error)
}

// WavDecoder decodes PCM WAV files via go-audio/wav.
type WavDecoder struct{}

// NewWavDecoder creates a WAV sample decoder.
func NewWavDecoder() *WavDecoder { return &WavDecoder{} }

func (WavDecoder) Decode(path string) ([]float32, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("external: open %q: %w", path, err)
	}
	defer f.Close()
	return decodeWav(f)
}

func decodeWav(r io.Reader) ([]float32, float64, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("external: not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("external: decode PCM buffer: %w", err)
	}
	floatBuf := buf.AsFloatBuffer()
	channels := floatBuf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	sampleRate := float64(floatBuf.Format.SampleRate)

	frames := len(floatBuf.Data) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += floatBuf.Data[i*channels+c]
		}
		mono[i] = float32(sum / float64(channels))
	}
	return mono, sampleRate, nil
}
