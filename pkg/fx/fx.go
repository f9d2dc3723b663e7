// Package fx implements the per-part effects chain: four sequential slots,
// each lazily allocating one of nine algorithms, with shared wet/dry mixing
// and tail semantics on release.
package fx

import (
	"math"

	"github.com/auricle/auricle/pkg/dsp/distortion"
	"github.com/auricle/auricle/pkg/dsp/modulation"
	"github.com/auricle/auricle/pkg/dsp/reverb"
)

// Kind selects the algorithm running in a slot.
type Kind int32

const (
	KindNone Kind = iota
	KindReverb
	KindDelay
	KindPhaser
	KindChorus
	KindFlanger
	KindDistortion
	KindWaveshaper
	KindBitcrusher
)

const mixBypassThreshold = 5e-4

// delayLine is a simple circular buffer sized for the longest delay time
// this slot will request, used directly by the Delay algorithm (the
// reverb/modulation algorithms bring their own internal delay state).
type delayLine struct {
	buf      []float32
	writePos int
}

func newDelayLine(maxSamples int) *delayLine {
	if maxSamples < 1 {
		maxSamples = 1
	}
	return &delayLine{buf: make([]float32, maxSamples)}
}

func (d *delayLine) process(input float32, delaySamples float64, feedback float32) float32 {
	n := len(d.buf)
	readPos := float64(d.writePos) - delaySamples
	for readPos < 0 {
		readPos += float64(n)
	}
	i0 := int(readPos) % n
	i1 := (i0 + 1) % n
	frac := float32(readPos - math.Floor(readPos))
	delayed := d.buf[i0] + (d.buf[i1]-d.buf[i0])*frac

	d.buf[d.writePos] = input + delayed*feedback
	d.writePos = (d.writePos + 1) % n
	return delayed
}

// onePoleLP is the tone-tracking one-pole used to shape reverb wet output
// and the distortion tone control.
type onePoleLP struct {
	y, a float32
}

func (o *onePoleLP) setCutoff(cutoff, sr float64) {
	n := cutoff / sr
	if n < 0.0001 {
		n = 0.0001
	} else if n > 0.49 {
		n = 0.49
	}
	o.a = float32(1.0 - math.Exp(-2.0*math.Pi*n))
}

func (o *onePoleLP) process(x float32) float32 {
	o.y += o.a * (x - o.y)
	return o.y
}

// Slot is one chain position: a type, two generic knobs, and a wet/dry mix.
type Slot struct {
	sampleRate float64

	kind Kind
	p1, p2, mix float32

	reverbState     *reverb.Freeverb
	reverbTone      onePoleLP
	delayState      *delayLine
	phaserState     *modulation.Phaser
	chorusState     *modulation.Chorus
	flangerState    *modulation.Flanger
	tubeState       *distortion.TubeSaturator
	waveshaperState *distortion.Waveshaper
	bitcrusherState *distortion.BitCrusher
}

// NewSlot creates an empty (bypassed) FX slot for the given sample rate.
func NewSlot(sampleRate float64) *Slot {
	return &Slot{sampleRate: sampleRate}
}

// SetParams updates the slot's type and knobs. Switching away from a
// tail-producing algorithm releases its state immediately.
func (s *Slot) SetParams(kind Kind, p1, p2, mix float32) {
	if kind != s.kind {
		s.releaseState()
		s.kind = kind
		s.allocateState()
	}
	s.p1, s.p2, s.mix = p1, p2, mix
}

func (s *Slot) releaseState() {
	s.reverbState = nil
	s.delayState = nil
	s.phaserState = nil
	s.chorusState = nil
	s.flangerState = nil
	s.tubeState = nil
	s.waveshaperState = nil
	s.bitcrusherState = nil
}

func (s *Slot) allocateState() {
	switch s.kind {
	case KindReverb:
		s.reverbState = reverb.NewFreeverb(s.sampleRate)
	case KindDelay:
		maxSamples := int(s.sampleRate * 1.0)
		s.delayState = newDelayLine(maxSamples)
	case KindPhaser:
		s.phaserState = modulation.NewPhaser(s.sampleRate)
	case KindChorus:
		s.chorusState = modulation.NewChorus(s.sampleRate)
	case KindFlanger:
		s.flangerState = modulation.NewFlanger(s.sampleRate)
	case KindDistortion:
		s.tubeState = distortion.NewTubeSaturator(s.sampleRate)
	case KindWaveshaper:
		s.waveshaperState = distortion.NewWaveshaper(distortion.CurveSoftClip)
	case KindBitcrusher:
		s.bitcrusherState = distortion.NewBitCrusher(s.sampleRate)
	}
}

// IsBypassed reports whether the slot is disabled: no type selected, or mix
// at or below the effective-silence threshold.
func (s *Slot) IsBypassed() bool {
	return s.kind == KindNone || s.mix <= mixBypassThreshold
}

// HasTail reports whether a bypassed-by-mix slot must still be run to let
// its internal state decay naturally.
func (s *Slot) HasTail() bool {
	return s.kind == KindReverb || s.kind == KindDelay
}

// Process runs one sample through the slot's algorithm and returns the
// mix-blended result. If the slot is bypassed with no tail obligation, dry
// passes straight through.
func (s *Slot) Process(dry float32) float32 {
	if s.kind == KindNone {
		return dry
	}
	if s.mix <= mixBypassThreshold && !s.HasTail() {
		return dry
	}

	var wet float32
	switch s.kind {
	case KindReverb:
		room := 0.2 + float64(s.p1)*0.8
		damping := 0.2 + float64(s.p2)*0.8
		s.reverbState.SetRoomSize(room)
		s.reverbState.SetDamping(damping)
		s.reverbState.SetWetLevel(1.0)
		s.reverbState.SetDryLevel(0.0)
		cutoff := 2000.0 + (1.0-damping)*8000.0
		s.reverbTone.setCutoff(cutoff, s.sampleRate)
		wetL, _ := s.reverbState.ProcessStereo(dry, dry)
		wet = s.reverbTone.process(wetL)

	case KindDelay:
		timeMs := 10.0 + float64(s.p1)*990.0
		feedback := float64(s.p2) * 0.95
		if feedback > 0.95 {
			feedback = 0.95
		}
		delaySamples := timeMs * 0.001 * s.sampleRate
		wet = s.delayState.process(dry, delaySamples, float32(feedback))

	case KindPhaser:
		rateHz := 0.05 + float64(s.p1)*4.95
		depth := float64(s.p2)
		s.phaserState.SetRate(rateHz)
		s.phaserState.SetDepth(depth)
		s.phaserState.SetMix(1.0)
		wet = s.phaserState.Process(dry)

	case KindChorus:
		rateHz := 0.05 + float64(s.p1)*4.95
		depthMs := 4.0 * float64(s.p2)
		s.chorusState.SetRate(rateHz)
		s.chorusState.SetDepth(depthMs)
		s.chorusState.SetDelay(3.0)
		s.chorusState.SetMix(1.0)
		wetL, wetR := s.chorusState.Process(dry)
		wet = (wetL + wetR) * 0.5

	case KindFlanger:
		rateHz := 0.05 + float64(s.p1)*4.95
		depthMs := 6.0 * float64(s.p2)
		s.flangerState.SetRate(rateHz)
		s.flangerState.SetDepth(depthMs)
		s.flangerState.SetDelay(2.0)
		s.flangerState.SetMix(1.0)
		wet = s.flangerState.Process(dry)

	case KindDistortion:
		drive := 1.0 + float64(s.p1)*9.0
		warmth := float64(s.p2)
		s.tubeState.SetDrive(drive)
		s.tubeState.SetWarmth(warmth)
		s.tubeState.SetHarmonicBalance(warmth)
		s.tubeState.SetMix(1.0)
		wet = float32(s.tubeState.Process(float64(dry)))

	case KindWaveshaper:
		curve := distortion.CurveType(int(float64(s.p1) * 6.999))
		drive := 1.0 + float64(s.p2)*10.0
		s.waveshaperState.SetCurveType(curve)
		s.waveshaperState.SetDrive(drive)
		s.waveshaperState.SetMix(1.0)
		wet = float32(s.waveshaperState.Process(float64(dry)))

	case KindBitcrusher:
		bits := int(4.0 + float64(s.p1)*12.0)
		factor := 1.0 + float64(s.p2)*15.0
		s.bitcrusherState.SetBitDepth(bits)
		s.bitcrusherState.SetSampleRateRatio(1.0 / factor)
		s.bitcrusherState.SetMix(1.0)
		wet = float32(s.bitcrusherState.Process(float64(dry)))
	}

	return dry*(1-s.mix) + wet*s.mix
}

// Chain is the four-slot sequential FX chain for one part.
type Chain struct {
	slots [4]*Slot
}

// NewChain creates four bypassed slots for the given sample rate.
func NewChain(sampleRate float64) *Chain {
	c := &Chain{}
	for i := range c.slots {
		c.slots[i] = NewSlot(sampleRate)
	}
	return c
}

func (c *Chain) Slot(i int) *Slot { return c.slots[i] }

// AllBypassed reports whether every slot is fully bypassed with no tail
// obligation, letting the caller skip the chain entirely.
func (c *Chain) AllBypassed() bool {
	for _, s := range c.slots {
		if s.kind == KindNone {
			continue
		}
		if s.mix > mixBypassThreshold || s.HasTail() {
			return false
		}
	}
	return true
}

// Process runs a sample sequentially through all four slots.
func (c *Chain) Process(x float32) float32 {
	for _, s := range c.slots {
		x = s.Process(x)
	}
	return x
}
