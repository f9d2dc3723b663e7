// Package sideband implements the spectrum analyzer and level meter that
// observe the final mixed bus without sitting in its signal path: the audio
// thread only ever pushes samples into bounded, non-blocking queues, and a
// worker goroutine does the expensive analysis off the realtime thread.
package sideband

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/auricle/auricle/pkg/dsp/analysis"
)

const (
	spectrumBlockSize = 2048
	spectrumBins      = 128
	spectrumMinFreq   = 20.0
	spectrumMaxFreq   = 20000.0
)

// SpectrumFrame is one outbound block of mono samples awaiting analysis.
type SpectrumFrame struct {
	Samples [spectrumBlockSize]float32
}

// Spectrum accumulates the mono mixdown on the audio thread and hands full
// blocks to a worker over a bounded channel. Drops under load are expected
// and harmless: a missed UI frame is not a correctness issue.
type Spectrum struct {
	sampleRate float64
	buf        [spectrumBlockSize]float32
	pos        int
	out        chan SpectrumFrame

	fft    *fourier.FFT
	scratch []float64
	bins   []float64
}

// NewSpectrum creates a spectrum analyzer for the given live sample rate,
// with an outbound queue of queueDepth blocks.
func NewSpectrum(sampleRate float64, queueDepth int) *Spectrum {
	return &Spectrum{
		sampleRate: sampleRate,
		out:        make(chan SpectrumFrame, queueDepth),
		fft:        fourier.NewFFT(spectrumBlockSize),
		scratch:    make([]float64, spectrumBlockSize),
		bins:       make([]float64, spectrumBins),
	}
}

// Push is called once per output frame on the audio thread with the final
// mixed stereo pair; every spectrumBlockSize samples it attempts a
// non-blocking send of the accumulated mono block.
func (s *Spectrum) Push(left, right float32) {
	s.buf[s.pos] = (left + right) * 0.5
	s.pos++
	if s.pos < spectrumBlockSize {
		return
	}
	s.pos = 0
	select {
	case s.out <- SpectrumFrame{Samples: s.buf}:
	default:
	}
}

// Frames exposes the outbound channel for a worker goroutine to drain.
func (s *Spectrum) Frames() <-chan SpectrumFrame { return s.out }

// Analyze runs the full pipeline for one block: Hann window, pad (already a
// power of two at 2048), forward FFT, and 128 log-spaced magnitude bins
// between 20Hz and 20kHz. Bin target frequencies are spaced log-uniformly
// independent of sample rate; each is mapped to its nearest FFT bin at the
// analyzer's live sample rate. Intended for a worker goroutine, never the
// audio thread.
func (s *Spectrum) Analyze(frame SpectrumFrame) []float64 {
	for i, v := range frame.Samples {
		s.scratch[i] = float64(v)
	}
	windowed := analysis.ApplyHannWindow(s.scratch)

	coeffs := s.fft.Coefficients(nil, windowed)
	binHz := s.sampleRate / float64(spectrumBlockSize)

	logMin := math.Log10(spectrumMinFreq)
	logMax := math.Log10(spectrumMaxFreq)
	for i := 0; i < spectrumBins; i++ {
		t := float64(i) / float64(spectrumBins-1)
		freq := math.Pow(10, logMin+t*(logMax-logMin))
		bin := int(math.Round(freq / binHz))
		if bin < 0 {
			bin = 0
		}
		if bin >= len(coeffs) {
			bin = len(coeffs) - 1
		}
		s.bins[i] = cmplx.Abs(coeffs[bin])
	}
	return s.bins
}
