// Package acid implements the TB-303-style monophonic Acid303 module: a
// saw/square wavetable crossfade, a single fast-attack decay envelope, glide
// between notes, and one RBJ lowpass with accent-driven parameter boosts.
package acid

import (
	"fmt"
	"math"

	"github.com/auricle/auricle/pkg/dsp/filter"
	"github.com/auricle/auricle/pkg/param"
)

const wavetableSize = 256

type wavetable struct {
	saw, square [wavetableSize]float32
}

func newWavetable() *wavetable {
	w := &wavetable{}
	for i := 0; i < wavetableSize; i++ {
		p := float32(i) / float32(wavetableSize)
		w.saw[i] = 2.0 * (p - 0.5)
		if p < 0.5 {
			w.square[i] = 1.0
		} else {
			w.square[i] = -1.0
		}
	}
	return w
}

// sample reads the wavetable at phase [0,1) and crossfades equal-power
// between saw (blend=0) and square (blend=1).
func (w *wavetable) sample(phase, blend float32) float32 {
	idx := phase * float32(wavetableSize)
	if idx < 0 {
		idx = 0
	}
	if idx > float32(wavetableSize)-0.001 {
		idx = float32(wavetableSize) - 0.001
	}
	i0 := int(idx)
	i1 := (i0 + 1) & (wavetableSize - 1)
	t := idx - float32(i0)

	sSaw := w.saw[i0] + (w.saw[i1]-w.saw[i0])*t
	sSq := w.square[i0] + (w.square[i1]-w.square[i0])*t

	if blend < 0 {
		blend = 0
	} else if blend > 1 {
		blend = 1
	}
	w2 := float32(math.Sqrt(float64(blend)))
	w1 := float32(math.Sqrt(float64(1 - blend)))
	return sSaw*w1 + sSq*w2
}

func midiToFreq(note uint8) float64 {
	return 440.0 * math.Pow(2.0, (float64(note)-69.0)/12.0)
}

// mapCutoffNorm maps a normalized [0,1] knob to ~[20,10000] Hz perceptually.
func mapCutoffNorm(n float64) float64 {
	n = clamp01(n)
	return 20.0 * math.Pow(10.0, n*math.Log10(10000.0/20.0))
}

// mapDecayMs maps a normalized [0,1] knob to [5,800] ms with perceptual skew.
func mapDecayMs(n float64) float64 {
	n = clamp01(n)
	const min, max = 5.0, 800.0
	return min * math.Pow(max/min, n)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

type keys struct {
	wave, cutoff, reso, envmod, decay, accent, slide, drive param.Key
}

func makeKeys(partIdx int) keys {
	p := func(suffix string) param.Key {
		return param.MakeKey(fmt.Sprintf("part/%d/acid/%s", partIdx, suffix))
	}
	return keys{
		wave: p("wave"), cutoff: p("cutoff"), reso: p("reso"), envmod: p("envmod"),
		decay: p("decay"), accent: p("accent"), slide: p("slide"), drive: p("drive"),
	}
}

// Module is the monophonic Acid303 engine for one part.
type Module struct {
	sampleRate float64
	keys       keys
	wt         *wavetable

	phase                float64
	freq, targetFreq     float64
	glideAlpha           float64
	env                  float64
	decayAlpha           float64
	attackAlpha          float64
	inAttack             bool
	gate                 bool
	currentNote          int // -1 when no note held
	filt                 *filter.Biquad
	accentSmooth         float64
	accentSmoothAlpha    float64
}

// New creates the Acid303 module for part index partIdx.
func New(sampleRate float64, partIdx int) *Module {
	attackMs := 3.0
	m := &Module{
		sampleRate:        sampleRate,
		keys:              makeKeys(partIdx),
		wt:                newWavetable(),
		freq:              110.0,
		targetFreq:        110.0,
		decayAlpha:        1.0 - math.Exp(-1.0/(0.180*sampleRate)),
		attackAlpha:       1.0 - math.Exp(-1.0/((attackMs/1000.0)*sampleRate)),
		currentNote:       -1,
		filt:              filter.NewBiquad(1),
		accentSmoothAlpha: 1.0 - math.Exp(-1.0/(sampleRate*0.003)),
	}
	return m
}

// NoteOn sets the target pitch and retriggers the envelope unless this is a
// legato transition (gate already held, different note).
func (m *Module) NoteOn(note uint8, _vel float32) {
	m.targetFreq = midiToFreq(note)
	isLegato := m.gate && m.currentNote >= 0 && m.currentNote != int(note)

	m.gate = true
	m.currentNote = int(note)

	if !isLegato {
		m.env = 0.0
		m.inAttack = true
	}
}

// NoteOff releases the gate; the envelope decays through its release stage.
func (m *Module) NoteOff(note uint8) {
	m.gate = false
	m.currentNote = -1
	m.inAttack = false
}

func (m *Module) updateEnvelope() float64 {
	switch {
	case m.inAttack:
		m.env += (1.0 - m.env) * m.attackAlpha
		if m.env >= 0.999 {
			m.env = 1.0
			m.inAttack = false
		}
	case m.gate:
		m.env += (0.0 - m.env) * m.decayAlpha
	default:
		releaseAlpha := 1.0 - math.Exp(-1.0/((8.0/1000.0)*m.sampleRate))
		m.env += (0.0 - m.env) * releaseAlpha
	}
	if m.env < 1e-6 {
		m.env = 0.0
	}
	return m.env
}

func softClipDrive(x float32, amt float64) float32 {
	if amt <= 1e-4 {
		return x
	}
	g := 1.0 + 10.0*clamp01(amt)
	y := math.Tanh(float64(x) * g)
	norm := 1.0 / math.Tanh(g)
	out := float32(y * norm)
	if out > 1 {
		out = 1
	} else if out < -1 {
		out = -1
	}
	return out
}

// RenderSample renders one mono sample.
func (m *Module) RenderSample(store *param.Store) float32 {
	k := m.keys
	wave := clamp01(float64(store.F32(k.wave, 0.0)))
	cutoffN := clamp01(float64(store.F32(k.cutoff, float32(math.Log10(20.0)/math.Log10(10000.0/20.0)))))
	reso := clamp01(float64(store.F32(k.reso, 0.5)))
	envmod := clamp01(float64(store.F32(k.envmod, 0.6)))
	decayN := clamp01(float64(store.F32(k.decay, 0.5)))
	accentAmt := clamp01(float64(store.F32(k.accent, 0.7)))
	slideN := clamp01(float64(store.F32(k.slide, 0.4)))
	drive := clamp01(float64(store.F32(k.drive, 0.3)))

	m.accentSmooth += (accentAmt - m.accentSmooth) * m.accentSmoothAlpha
	aS := m.accentSmooth

	cutoffEff := cutoffN * (1.0 + 0.5*aS)
	envmodEff := envmod * (1.0 + 0.7*aS)
	resoEff := math.Min(reso+0.25*aS, 0.98)
	preGainEff := 1.0 + 1.5*aS
	decayMsBase := math.Max(mapDecayMs(decayN), 1.0)
	decayMsEff := decayMsBase * (1.0 + 0.25*aS)

	m.decayAlpha = 1.0 - math.Exp(-1.0/((decayMsEff/1000.0)*m.sampleRate))

	glideMs := math.Max(slideN*300.0, 0.0)
	if glideMs <= 1e-3 {
		m.glideAlpha = 0.0
	} else {
		m.glideAlpha = math.Exp(-1.0 / ((glideMs / 1000.0) * m.sampleRate))
	}

	if m.gate && m.glideAlpha > 0.0 {
		m.freq = m.freq*m.glideAlpha + m.targetFreq*(1.0-m.glideAlpha)
	} else {
		m.freq = m.targetFreq
	}

	phInc := m.freq / m.sampleRate
	if phInc < 0 {
		phInc = 0
	} else if phInc > 0.5 {
		phInc = 0.5
	}
	m.phase += phInc
	m.phase -= math.Floor(m.phase)

	osc := m.wt.sample(float32(m.phase), float32(wave))
	osc *= float32(preGainEff)

	env := m.updateEnvelope()

	cutoffHz := mapCutoffNorm(clamp01(cutoffEff))
	envHz := cutoffHz * math.Pow(2.0, envmodEff*env*3.0)
	cutoffHz = math.Max(20.0, math.Min(cutoffHz, 10000.0))
	cutoffHz = math.Min(cutoffHz+envHz, 12000.0)

	q := math.Max(0.5, math.Min(0.6+resoEff*12.0, 18.0))
	m.filt.SetLowpass(m.sampleRate, cutoffHz, q)

	buf := [1]float32{osc}
	m.filt.Process(buf[:], 0)
	y := buf[0]

	y = softClipDrive(y, drive)
	y *= float32(env)

	if y != y || math.Abs(float64(y)) < 1e-24 {
		y = 0
	}
	return y
}
