package sideband

import (
	"math"
	"testing"
)

func TestSpectrumPushEmitsEveryBlockSize(t *testing.T) {
	s := NewSpectrum(48000, 4)
	for i := 0; i < spectrumBlockSize-1; i++ {
		s.Push(0.1, 0.1)
	}
	select {
	case <-s.Frames():
		t.Fatal("expected no frame before a full block")
	default:
	}
	s.Push(0.1, 0.1)
	select {
	case <-s.Frames():
	default:
		t.Fatal("expected a frame once the block filled")
	}
}

func TestSpectrumAnalyzeConcentratesEnergyNearToneFrequency(t *testing.T) {
	s := NewSpectrum(48000, 1)
	var frame SpectrumFrame
	for i := range frame.Samples {
		frame.Samples[i] = float32(math.Sin(2 * math.Pi * 1000 * float64(i) / 48000))
	}
	bins := s.Analyze(frame)

	// Find the bin nearest 1kHz (log-spaced between 20Hz and 20kHz) and
	// confirm it holds more energy than the lowest bin near 20Hz.
	logMin := math.Log10(spectrumMinFreq)
	logMax := math.Log10(spectrumMaxFreq)
	target := math.Log10(1000.0)
	bestIdx, bestDist := 0, math.Inf(1)
	for i := 0; i < spectrumBins; i++ {
		tt := float64(i) / float64(spectrumBins-1)
		freqLog := logMin + tt*(logMax-logMin)
		if d := math.Abs(freqLog - target); d < bestDist {
			bestDist, bestIdx = d, i
		}
	}
	if bins[bestIdx] <= bins[0] {
		t.Errorf("expected bin near 1kHz (%v) to exceed the lowest bin (%v)", bins[bestIdx], bins[0])
	}
}

func TestMeterSmoothTracksRMSAndDecaysPeak(t *testing.T) {
	m := NewMeter(4)
	loud := RawLevels{RMSL: 1.0, RMSR: 1.0, PeakL: 1.0, PeakR: 1.0}
	first := m.Smooth(loud)
	if first.RMSL >= 0 {
		t.Errorf("expected first smoothed RMS to stay below 0dBFS headroom check, got %v", first.RMSL)
	}

	quiet := RawLevels{RMSL: 0, RMSR: 0, PeakL: 0, PeakR: 0}
	second := m.Smooth(quiet)
	if second.PeakL >= first.PeakL {
		t.Errorf("expected held peak to decay once no longer exceeded: %v should be < %v", second.PeakL, first.PeakL)
	}
}

func TestToDBFSFloorsAtMinus80(t *testing.T) {
	if got := toDBFS(0); got != dbFloor {
		t.Errorf("got %v, want floor %v", got, dbFloor)
	}
}
