// Package resonator implements a physically-modeled resonator bank: a small
// polyphonic pool of voices, each a bank of up to eight bandpass resonators
// excited by an impulse, noise, or click exciter. Modal mode tunes the bank
// to harmonic partials of a fundamental; Comb mode runs a single resonator
// with feedback around it.
package resonator

import (
	"fmt"
	"math"

	"github.com/auricle/auricle/pkg/dsp/filter"
	"github.com/auricle/auricle/pkg/param"
)

const (
	numVoices   = 3
	maxBank     = 8
	ampFloor    = 1e-6
)

func midiToFreq(note uint8) float64 {
	return 440.0 * math.Pow(2.0, (float64(note)-69.0)/12.0)
}

func centsToRatio(c float64) float64 {
	return math.Pow(2.0, c/1200.0)
}

func dbToGain(db float64) float64 {
	return math.Pow(10.0, db/20.0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// exciter generates impulse, noise, or click excitation with optional color
// tilt and periodic auto-retrigger.
type exciter struct {
	noiseState     uint32
	impulseCounter uint32
	noiseLP        float32
	strikeCounter  uint32
}

func newExciter() *exciter {
	return &exciter{noiseState: 1}
}

func (e *exciter) reset() {
	e.impulseCounter = 10
}

func (e *exciter) whiteNoise() float32 {
	e.noiseState = e.noiseState*1103515245 + 12345
	return float32(int16(e.noiseState>>16)) / 32768.0
}

func (e *exciter) process(kind int, amount, noiseColor, strikeRate float32, sr float32, triggered bool) float32 {
	var signal float32

	switch kind {
	case 0: // impulse
		if triggered {
			e.impulseCounter = 10
		}
		if e.impulseCounter > 0 {
			signal = amount * 5.0
			e.impulseCounter--
		}
	case 1: // noise
		signal = e.whiteNoise() * amount
	case 2: // click
		if triggered {
			n := sr * 0.001
			if n < 1.0 {
				n = 1.0
			}
			e.impulseCounter = uint32(n)
		}
		if e.impulseCounter > 0 {
			e.impulseCounter--
			clickSample := float32(-1.0)
			if e.impulseCounter%2 == 0 {
				clickSample = 1.0
			}
			denom := sr * 0.001
			if denom < 1.0 {
				denom = 1.0
			}
			decayFactor := float32(e.impulseCounter) / denom
			signal = clickSample * amount * 8.0 * decayFactor
		}
	}

	if abs32(noiseColor) > 0.01 {
		alpha := 0.05 + abs32(noiseColor)*0.6
		if noiseColor > 0.0 {
			e.noiseLP = e.noiseLP*(1.0-alpha) + signal*alpha
			signal = signal - e.noiseLP
		} else {
			e.noiseLP = e.noiseLP*(1.0-alpha) + signal*alpha
			signal = e.noiseLP
		}
	}

	if strikeRate > 0.01 {
		strikeHz := 0.5 + strikeRate*9.5
		samplesPerStrike := sr / strikeHz
		if samplesPerStrike < 1.0 {
			samplesPerStrike = 1.0
		}
		e.strikeCounter = (e.strikeCounter + 1) % uint32(samplesPerStrike)
		if e.strikeCounter == 0 {
			signal += amount * 0.7
		}
	}

	return signal
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

type keys struct {
	pitch, decay, brightness, bankSize, mode, inharmonicity param.Key
	feedback, drive, exciterType, exciterAmount             param.Key
	noiseColor, strikeRate, stereoWidth                     param.Key
	randomize, bodyBlend, outputGain                        param.Key
}

func makeKeys(partIdx int) keys {
	p := func(suffix string) param.Key {
		return param.MakeKey(fmt.Sprintf("part/%d/resonator/%s", partIdx, suffix))
	}
	return keys{
		pitch: p("pitch"), decay: p("decay"), brightness: p("brightness"),
		bankSize: p("bank_size"), mode: p("mode"), inharmonicity: p("inharmonicity"),
		feedback: p("feedback"), drive: p("drive"), exciterType: p("exciter_type"),
		exciterAmount: p("exciter_amount"), noiseColor: p("noise_color"),
		strikeRate: p("strike_rate"), stereoWidth: p("stereo_width"),
		randomize: p("randomize"), bodyBlend: p("body_blend"), outputGain: p("output_gain"),
	}
}

// voice is one polyphonic resonator-bank voice.
type voice struct {
	sr           float64
	note         uint8
	gate         bool
	justTriggered bool

	resonators     [maxBank]*filter.Biquad
	resonatorGains [maxBank]float64

	exc *exciter

	limiterState float64
	combOut      float64 // previous comb-mode resonator output, fed back

	lastPitch, lastDecay, lastBrightness float64
	lastBankSize                         int
	lastMode                             int
	lastInharmonicity, lastRandomize     float64
	lastBodyBlend                        float64

	partialWeights [maxBank]float64
}

func newVoice(sr float64) *voice {
	v := &voice{sr: sr, note: 60, exc: newExciter(),
		lastPitch: -999, lastDecay: -999, lastBrightness: -999,
		lastBankSize: 999, lastMode: -999, lastInharmonicity: -999,
		lastRandomize: -999, lastBodyBlend: -999,
	}
	for i := range v.resonators {
		v.resonators[i] = filter.NewBiquad(1)
		v.partialWeights[i] = 1.0
	}
	return v
}

func (v *voice) isActive() bool {
	return v.gate || math.Abs(v.limiterState) > 1e-6
}

func (v *voice) noteOn(note uint8) {
	v.note = note
	v.gate = true
	v.justTriggered = true
	v.exc.reset()
}

func (v *voice) noteOff() {
	v.gate = false
}

// computePartialWeights blends a "stringy" 1/(i+1)^1.2 curve against a
// "plate/glass" 1/(i+1)^0.6 curve and normalizes so the weights sum to
// bankSize.
func (v *voice) computePartialWeights(bodyBlend float64, bankSize int) {
	for i := 0; i < bankSize; i++ {
		partial := float64(i) + 1.0

		stringWeight := 1.0 / math.Pow(partial, 1.2)
		oddBias := 1.0
		if i%2 == 0 {
			oddBias = 1.05
		}
		stringWeight *= oddBias

		plateWeight := 1.0 / math.Pow(partial, 0.6)
		highShelf := 1.0
		if i >= 7 {
			highShelf = 1.5
		}
		plateWeight *= highShelf

		v.partialWeights[i] = stringWeight*(1.0-bodyBlend) + plateWeight*bodyBlend
	}

	sum := 0.0
	for i := 0; i < bankSize; i++ {
		sum += v.partialWeights[i]
	}
	if sum > 0.001 {
		norm := float64(bankSize) / sum
		for i := 0; i < bankSize; i++ {
			v.partialWeights[i] *= norm
		}
	}
}

func (v *voice) render(store *param.Store, k keys) float32 {
	pitchOffset := float64(store.F32(k.pitch, 0.0))
	decay := float64(store.F32(k.decay, 0.5))
	brightness := float64(store.F32(k.brightness, 0.5))
	bankSize := int(store.I32(k.bankSize, 8))
	if bankSize < 1 {
		bankSize = 1
	} else if bankSize > maxBank {
		bankSize = maxBank
	}
	mode := int(store.I32(k.mode, 0))
	inharmonicity := float64(store.F32(k.inharmonicity, 0.1))
	feedback := float64(store.F32(k.feedback, 0.3))
	drive := float64(store.F32(k.drive, 0.0))
	exciterType := int(store.I32(k.exciterType, 0))
	exciterAmount := store.F32(k.exciterAmount, 0.5)
	noiseColor := store.F32(k.noiseColor, 0.0)
	strikeRate := store.F32(k.strikeRate, 0.0)
	randomize := float64(store.F32(k.randomize, 0.0))
	bodyBlend := float64(store.F32(k.bodyBlend, 0.4))
	outputGainDB := float64(store.F32(k.outputGain, 0.0))

	noteFreq := midiToFreq(v.note)
	baseFreq := noteFreq * centsToRatio(pitchOffset*4800.0)

	changed := pitchOffset != v.lastPitch ||
		decay != v.lastDecay ||
		brightness != v.lastBrightness ||
		bankSize != v.lastBankSize ||
		mode != v.lastMode ||
		inharmonicity != v.lastInharmonicity ||
		randomize != v.lastRandomize ||
		bodyBlend != v.lastBodyBlend

	if changed || v.justTriggered {
		v.lastPitch = pitchOffset
		v.lastDecay = decay
		v.lastBrightness = brightness
		v.lastBankSize = bankSize
		v.lastMode = mode
		v.lastInharmonicity = inharmonicity
		v.lastRandomize = randomize
		v.lastBodyBlend = bodyBlend

		v.computePartialWeights(bodyBlend, bankSize)

		switch mode {
		case 0: // modal
			for i := 0; i < bankSize; i++ {
				partial := float64(i) + 1.0
				harmonicFreq := baseFreq * partial

				detuneCents := inharmonicity * partial * partial * 5.0

				randomDetune := 0.0
				if randomize > 0.01 {
					seed := math.Mod(float64(v.note)*17.0+float64(i)*23.0, 1000.0)
					randomDetune = (math.Sin(seed)*2.0 - 1.0) * randomize * 50.0
				}

				freq := harmonicFreq * centsToRatio(detuneCents+randomDetune)
				if freq > v.sr*0.45 {
					freq = v.sr * 0.45
				}

				decayFactor := 1.0 - brightness*0.8*(float64(i)/float64(bankSize))
				q := 5.0 + decay*45.0*decayFactor

				v.resonators[i].SetBandpass(v.sr, freq, q)

				gain := math.Sqrt(1.0 / (partial + brightness*partial*2.0))
				v.resonatorGains[i] = gain
			}
		case 1: // comb
			if bankSize > 0 {
				filterFreq := baseFreq * (1.0 + brightness*2.0)
				if filterFreq > v.sr*0.45 {
					filterFreq = v.sr * 0.45
				}
				q := 2.0 + decay*8.0
				v.resonators[0].SetBandpass(v.sr, filterFreq, q)
				v.resonatorGains[0] = 1.0
				for i := 1; i < bankSize; i++ {
					v.resonatorGains[i] = 0.0
				}
			}
		default:
			for i := 0; i < bankSize; i++ {
				partial := float64(i) + 1.0
				harmonicFreq := baseFreq * partial
				if harmonicFreq > v.sr*0.45 {
					harmonicFreq = v.sr * 0.45
				}
				q := 5.0 + decay*45.0
				v.resonators[i].SetBandpass(v.sr, harmonicFreq, q)
				v.resonatorGains[i] = 1.0 / math.Sqrt(partial)
			}
		}
	}

	excitation := v.exc.process(exciterType, exciterAmount, noiseColor, strikeRate, float32(v.sr), v.justTriggered)
	v.justTriggered = false

	var drivenExcitation float32
	if drive > 0.01 {
		gain := 1.0 + drive*4.0
		drivenExcitation = float32(math.Tanh(float64(excitation) * gain))
	} else {
		drivenExcitation = excitation
	}

	var output float64

	if mode == 1 && bankSize > 0 {
		scaledFeedback := feedback * 0.98
		buf := [1]float32{float32(float64(drivenExcitation) + v.combOut*scaledFeedback)}
		v.resonators[0].Process(buf[:], 0)
		v.combOut = float64(buf[0])
		bodyTilt := 0.7 + bodyBlend*0.6
		output = float64(buf[0]) * bodyTilt
	} else {
		scaledFeedback := feedback * 0.3
		for i := 0; i < bankSize; i++ {
			if v.resonatorGains[i] > 0.001 {
				in := float32(float64(drivenExcitation) + output*scaledFeedback)
				buf := [1]float32{in}
				v.resonators[i].Process(buf[:], 0)
				combinedGain := v.resonatorGains[i] * v.partialWeights[i]
				output += float64(buf[0]) * combinedGain
			}
		}
	}

	output *= dbToGain(outputGainDB * 24.0)

	v.limiterState = output

	return float32(output)
}

// Module is the 3-voice polyphonic resonator bank for one part.
type Module struct {
	sampleRate float64
	keys       keys

	voices    [numVoices]*voice
	allocator int
}

// New creates the resonator bank module for part index partIdx.
func New(sampleRate float64, partIdx int) *Module {
	m := &Module{sampleRate: sampleRate, keys: makeKeys(partIdx)}
	for i := range m.voices {
		m.voices[i] = newVoice(sampleRate)
	}
	return m
}

func (m *Module) NoteOn(note uint8, _vel float32) {
	idx := -1
	for i, v := range m.voices {
		if !v.isActive() {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = m.allocator
		m.allocator = (m.allocator + 1) % numVoices
	}
	m.voices[idx].noteOn(note)
}

func (m *Module) NoteOff(note uint8) {
	for _, v := range m.voices {
		if v.gate && v.note == note {
			v.noteOff()
			break
		}
	}
}

// RenderSample renders one mono sample, summing active voices and clamping
// to [-1,1].
func (m *Module) RenderSample(store *param.Store) float32 {
	var output float32
	for _, v := range m.voices {
		if v.isActive() {
			output += v.render(store, m.keys)
		}
	}
	if output > 1.0 {
		output = 1.0
	} else if output < -1.0 {
		output = -1.0
	}
	return output
}
