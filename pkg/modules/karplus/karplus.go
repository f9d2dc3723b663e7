// Package karplus implements a mono Karplus-Strong plucked-string module: a
// variable-length delay loop excited by a short noise burst, with an in-loop
// one-pole lowpass shaping the decay.
package karplus

import (
	"fmt"
	"math"

	"github.com/auricle/auricle/pkg/param"
)

type delayLine struct {
	buffer   []float32
	writePos int
	length   int
}

func newDelayLine(maxLength int) *delayLine {
	return &delayLine{buffer: make([]float32, maxLength), length: maxLength}
}

func (d *delayLine) setLength(length int) {
	if length > len(d.buffer) {
		length = len(d.buffer)
	}
	if length < 1 {
		length = 1
	}
	d.length = length
	if d.writePos >= d.length {
		d.writePos = 0
	}
}

func (d *delayLine) read() float32 {
	var readPos int
	if d.writePos >= d.length {
		readPos = d.writePos - d.length
	} else {
		readPos = d.writePos + len(d.buffer) - d.length
	}
	readPos %= len(d.buffer)
	return d.buffer[readPos]
}

func (d *delayLine) write(sample float32) {
	d.buffer[d.writePos] = sample
	d.writePos = (d.writePos + 1) % len(d.buffer)
}

func (d *delayLine) clear() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

type onePoleLP struct {
	y1, a float32
}

func (o *onePoleLP) setCutoff(cutoff, sr float32) {
	normalized := cutoff / sr
	if normalized < 0.0001 {
		normalized = 0.0001
	} else if normalized > 0.4 {
		normalized = 0.4
	}
	a := 2.0 * math.Pi * normalized
	if a < 0.0001 {
		a = 0.0001
	} else if a > 0.9 {
		a = 0.9
	}
	o.a = float32(a)
}

func (o *onePoleLP) process(input float32) float32 {
	o.y1 = o.a*input + (1.0-o.a)*o.y1
	return o.y1
}

type keys struct {
	decay, damp, excite, tune param.Key
}

func makeKeys(partIdx int) keys {
	p := func(suffix string) param.Key {
		return param.MakeKey(fmt.Sprintf("part/%d/ks/%s", partIdx, suffix))
	}
	return keys{decay: p("decay"), damp: p("damp"), excite: p("excite"), tune: p("tune")}
}

// Module is the mono Karplus-Strong plucked-string engine for one part.
type Module struct {
	sampleRate float64
	keys       keys

	delay  *delayLine
	filt   onePoleLP

	exciteCounter, exciteLength uint32
	gate, justTriggered         bool
	rng                         uint32
	baseNote                    uint8
	lastTune                    float32
}

// New creates the Karplus-Strong module for part index partIdx. The delay
// line is sized for the lowest supported pitch (~25 Hz).
func New(sampleRate float64, partIdx int) *Module {
	maxDelaySamples := int(sampleRate / 25.0)
	return &Module{
		sampleRate: sampleRate,
		keys:       makeKeys(partIdx),
		delay:      newDelayLine(maxDelaySamples),
		rng:        0x12345678,
		baseNote:   60,
		lastTune:   0.5,
	}
}

func (m *Module) NoteOn(note uint8, _vel float32) {
	m.gate = true
	m.justTriggered = true
	m.baseNote = note
	m.updatePitch(m.lastTune)
	m.delay.clear()
	m.exciteCounter = 0
}

func (m *Module) NoteOff(_ uint8) {
	m.gate = false
}

func (m *Module) updatePitch(tuneParam float32) {
	tuneCents := (tuneParam - 0.5) * 100.0
	baseFreq := 440.0 * math.Pow(2.0, (float64(m.baseNote)-69.0)/12.0)
	tunedFreq := baseFreq * math.Pow(2.0, float64(tuneCents)/1200.0)
	delaySamples := int(m.sampleRate / tunedFreq)
	if delaySamples < 1 {
		delaySamples = 1
	}
	m.delay.setLength(delaySamples)
}

func (m *Module) rand01() float32 {
	m.rng = m.rng*1103515245 + 12345
	return float32((m.rng>>8)&0xffffff) / 16777216.0
}

// RenderSample renders one mono sample.
func (m *Module) RenderSample(store *param.Store) float32 {
	k := m.keys
	decay := clamp01(store.F32(k.decay, 0.7))
	damp := clamp01(store.F32(k.damp, 0.5))
	excite := clamp01(store.F32(k.excite, 0.5))
	tune := clamp01(store.F32(k.tune, 0.5))

	feedback := 0.85 + decay*0.14
	cutoffHz := 1000.0 + damp*10000.0
	exciteSamples := uint32(20.0 + excite*100.0)

	if m.justTriggered || float32(math.Abs(float64(tune-m.lastTune))) > 0.005 {
		m.updatePitch(tune)
		m.lastTune = tune
	}

	m.filt.setCutoff(cutoffHz, float32(m.sampleRate))

	if m.justTriggered {
		m.exciteLength = exciteSamples
		m.justTriggered = false
	}

	delayed := m.delay.read()

	var excitation float32
	if m.exciteCounter < m.exciteLength {
		excitation = (m.rand01()*2.0 - 1.0) * 0.3
		m.exciteCounter++
	}

	feedbackSignal := delayed*feedback + excitation
	filtered := m.filt.process(feedbackSignal)
	m.delay.write(filtered)

	return delayed
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
