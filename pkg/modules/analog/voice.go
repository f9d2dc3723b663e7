package analog

import (
	"math"

	"github.com/auricle/auricle/pkg/dsp/envelope"
	"github.com/auricle/auricle/pkg/dsp/filter"
)

// oscState is a single phase-accumulator oscillator within a voice, with its
// shape selection and waveform formulas implemented inline. It takes an
// externally supplied phase increment each sample (including FM from the
// companion oscillator's previous output) rather than owning its own
// independent phase-advance loop.
type oscState struct {
	phase    float64
	lastOut  float32
	noise    *xorshift32
	lastSeed uint32
}

func (o *oscState) reset(seed uint32) {
	o.phase = 0
	o.lastOut = 0
	if o.noise == nil {
		o.noise = newXorshift32(seed)
	} else {
		o.noise.reseed(seed)
	}
	o.lastSeed = seed
}

// next advances the oscillator by phaseInc (already including any FM phase
// offset baked in by the caller) and returns a sample for the given shape.
func (o *oscState) next(shape Shape, phaseInc, pulseWidth float64) float32 {
	var sample float32
	switch shape {
	case ShapeSine:
		sample = float32(math.Sin(2.0 * math.Pi * o.phase))
	case ShapeSaw:
		sample = float32(2.0*o.phase - 1.0)
	case ShapeSquare:
		if o.phase < 0.5 {
			sample = 1.0
		} else {
			sample = -1.0
		}
	case ShapeTriangle:
		if o.phase < 0.5 {
			sample = float32(4.0*o.phase - 1.0)
		} else {
			sample = float32(3.0 - 4.0*o.phase)
		}
	case ShapePulse:
		if o.phase < pulseWidth {
			sample = 1.0
		} else {
			sample = -1.0
		}
	case ShapeNoiseWhite:
		sample = o.noise.white()
	case ShapeNoisePink:
		sample = o.noise.pink()
	case ShapeNoiseBrown:
		sample = o.noise.brown()
	}

	o.phase += phaseInc
	o.phase -= math.Floor(o.phase)
	o.lastOut = sample
	return sample
}

// Voice is one of a part's fixed pool of analog poly voices.
type Voice struct {
	active   bool
	note     uint8
	age      uint64
	baseFreq float64
	vel      float32

	oscA, oscB oscState

	ampEnv, modEnv *envelope.ADSR

	filter1, filter2 *filter.SVF
	f1Cutoff, f1Q    float64
	f2Cutoff, f2Q    float64

	filterPhase int // staggers coefficient recompute across 4 samples

	seedCounter uint32
}

func newVoice(sampleRate float64, seed uint32) *Voice {
	v := &Voice{
		ampEnv:  envelope.New(sampleRate),
		modEnv:  envelope.New(sampleRate),
		filter1: filter.NewSVF(1),
		filter2: filter.NewSVF(1),
	}
	v.oscA.reset(seed)
	v.oscB.reset(seed ^ 0x45d9f3b)
	v.seedCounter = seed
	return v
}

func noteToFreq(note uint8) float64 {
	return 440.0 * math.Pow(2.0, (float64(note)-69.0)/12.0)
}

func (v *Voice) triggerNote(note uint8, vel float32) {
	v.active = true
	v.note = note
	v.age = 0
	v.baseFreq = noteToFreq(note)
	v.vel = vel
	v.seedCounter++
	v.oscA.reset(v.seedCounter)
	v.oscB.reset(v.seedCounter ^ 0x45d9f3b)
	v.ampEnv.Trigger()
	v.modEnv.Trigger()
	v.filter1.Reset()
	v.filter2.Reset()
	v.filterPhase = 0
}

func (v *Voice) releaseNote() {
	v.ampEnv.Release()
	v.modEnv.Release()
}

func (v *Voice) isActive() bool { return v.active }

// ampFloor is the audibility floor: once a released voice's amp envelope
// falls below it, the voice returns to the free pool.
const ampFloor = 1e-4

func (v *Voice) stealScore() uint64 { return v.age }
