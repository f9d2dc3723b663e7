package sideband

import "math"

const (
	meterBlockSize = 1024
	meterSmoothing = 0.6
	peakDecayRate  = 0.95
	dbFloor        = -80.0
)

// RawLevels is one un-smoothed measurement frame pushed to the worker.
type RawLevels struct {
	RMSL, RMSR, PeakL, PeakR float32
}

// Meter accumulates sum-of-squares and running peak per channel over
// meterBlockSize samples on the audio thread, handing raw frames to a
// worker that applies smoothing and dBFS conversion.
type Meter struct {
	sumL, sumR   float64
	peakL, peakR float32
	count        int
	out          chan RawLevels

	smoothRMSL, smoothRMSR float64
	heldPeakL, heldPeakR   float64
}

// NewMeter creates a meter with an outbound queue of queueDepth frames.
func NewMeter(queueDepth int) *Meter {
	return &Meter{out: make(chan RawLevels, queueDepth)}
}

// Push accumulates one stereo sample pair; every meterBlockSize samples it
// attempts a non-blocking send of the accumulated raw frame.
func (m *Meter) Push(left, right float32) {
	m.sumL += float64(left) * float64(left)
	m.sumR += float64(right) * float64(right)
	if a := float32(math.Abs(float64(left))); a > m.peakL {
		m.peakL = a
	}
	if a := float32(math.Abs(float64(right))); a > m.peakR {
		m.peakR = a
	}
	m.count++
	if m.count < meterBlockSize {
		return
	}

	frame := RawLevels{
		RMSL:  float32(math.Sqrt(m.sumL / float64(meterBlockSize))),
		RMSR:  float32(math.Sqrt(m.sumR / float64(meterBlockSize))),
		PeakL: m.peakL,
		PeakR: m.peakR,
	}
	select {
	case m.out <- frame:
	default:
	}
	m.sumL, m.sumR, m.count = 0, 0, 0
	m.peakL, m.peakR = 0, 0
}

// Frames exposes the outbound channel for a worker goroutine to drain.
func (m *Meter) Frames() <-chan RawLevels { return m.out }

// SmoothedLevels is a worker-side dBFS-converted reading, floored at -80dB.
type SmoothedLevels struct {
	RMSL, RMSR, PeakL, PeakR float64
}

// Smooth applies 0.6-weighted previous-biased RMS smoothing and 0.95 peak
// decay (only while not being newly exceeded), converting to dBFS. Intended
// for a worker goroutine, never the audio thread.
func (m *Meter) Smooth(frame RawLevels) SmoothedLevels {
	m.smoothRMSL = meterSmoothing*m.smoothRMSL + (1-meterSmoothing)*float64(frame.RMSL)
	m.smoothRMSR = meterSmoothing*m.smoothRMSR + (1-meterSmoothing)*float64(frame.RMSR)

	if float64(frame.PeakL) > m.heldPeakL {
		m.heldPeakL = float64(frame.PeakL)
	} else {
		m.heldPeakL *= peakDecayRate
	}
	if float64(frame.PeakR) > m.heldPeakR {
		m.heldPeakR = float64(frame.PeakR)
	} else {
		m.heldPeakR *= peakDecayRate
	}

	return SmoothedLevels{
		RMSL:  toDBFS(m.smoothRMSL),
		RMSR:  toDBFS(m.smoothRMSR),
		PeakL: toDBFS(m.heldPeakL),
		PeakR: toDBFS(m.heldPeakR),
	}
}

func toDBFS(lin float64) float64 {
	if lin <= 0 {
		return dbFloor
	}
	db := 20 * math.Log10(lin)
	if db < dbFloor {
		return dbFloor
	}
	return db
}
