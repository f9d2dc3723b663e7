package analog

import (
	"math"

	"github.com/auricle/auricle/pkg/dsp/envelope"
	"github.com/auricle/auricle/pkg/dsp/filter"
	"github.com/auricle/auricle/pkg/dsp/modulation"
	"github.com/auricle/auricle/pkg/dsp/utility"
	"github.com/auricle/auricle/pkg/param"
)

const numVoices = 6

// Part is the six-voice analog-subtractive sound module for one part slot.
type Part struct {
	sampleRate float64
	keys       *keys

	voices        [numVoices]*Voice
	lastTriggered int

	lfo       *modulation.LFO
	lfoAmount *utility.SmoothParameter // ~10ms de-zipper on the global LFO depth
}

// New creates the analog module for part index partIdx.
func New(sampleRate float64, partIdx int) *Part {
	p := &Part{
		sampleRate: sampleRate,
		keys:       makeKeys(partIdx),
		lfo:        modulation.NewLFO(sampleRate),
		lfoAmount:  utility.NewSmoothParameter(0.010, sampleRate),
	}
	for i := range p.voices {
		p.voices[i] = newVoice(sampleRate, uint32(partIdx*97+i+1))
	}
	return p
}

// NoteOn selects the first inactive voice, stealing round-robin if all are
// busy; a same-note retrigger stops the existing voice first.
func (p *Part) NoteOn(note uint8, vel float32) {
	for _, v := range p.voices {
		if v.active && v.note == note {
			v.triggerNote(note, vel)
			return
		}
	}
	for i, v := range p.voices {
		if !v.active {
			v.triggerNote(note, vel)
			p.lastTriggered = i
			return
		}
	}
	// Steal round-robin from the voice after the last one triggered.
	idx := (p.lastTriggered + 1) % numVoices
	p.voices[idx].triggerNote(note, vel)
	p.lastTriggered = idx
}

// NoteOff releases every active voice currently holding note.
func (p *Part) NoteOff(note uint8) {
	for _, v := range p.voices {
		if v.active && v.note == note {
			v.releaseNote()
		}
	}
}

func clampShape(raw int32) Shape {
	if raw < int32(ShapeSine) || raw > int32(ShapeNoiseBrown) {
		return ShapeSine
	}
	return Shape(raw)
}

func clampFilterType(raw int32) FilterType {
	if raw < int32(FilterLP) || raw > int32(FilterNotch) {
		return FilterLP
	}
	return FilterType(raw)
}

func clampAssign(raw int32) FilterAssign {
	if raw < int32(AssignNone) || raw > int32(AssignAB) {
		return AssignNone
	}
	return FilterAssign(raw)
}

func centsToRatio(cents float64) float64 {
	return math.Pow(2.0, cents/1200.0)
}

// RenderSample produces one mono sample for this part's analog module,
// advancing every active voice's envelopes, oscillators, mod matrix, and
// filters, then retiring voices once their amp envelope has decayed below
// the audibility floor after release.
func (p *Part) RenderSample(store *param.Store, beatPhase float64) float32 {
	_ = beatPhase // analog module has no tempo dependency of its own

	k := p.keys

	oscAShape := clampShape(store.I32(k.oscAShape, int32(ShapeSaw)))
	oscBShape := clampShape(store.I32(k.oscBShape, int32(ShapeSaw)))
	oscALevel := store.F32(k.oscALevel, 1.0)
	oscBLevel := store.F32(k.oscBLevel, 1.0)
	oscADetune := float64(store.F32(k.oscADetune, 0))
	oscBDetune := float64(store.F32(k.oscBDetune, 0))
	oscAPW := float64(store.F32(k.oscAPW, 0.5))
	oscBPW := float64(store.F32(k.oscBPW, 0.5))
	oscAFM := store.F32(k.oscAFM, 0)
	oscBFM := store.F32(k.oscBFM, 0)

	ampA := float64(store.F32(k.ampA, 0.01))
	ampD := float64(store.F32(k.ampD, 0.1))
	ampS := float64(store.F32(k.ampS, 0.7))
	ampR := float64(store.F32(k.ampR, 0.3))
	modA := float64(store.F32(k.modA, 0.01))
	modD := float64(store.F32(k.modD, 0.1))
	modS := float64(store.F32(k.modS, 0.0))
	modR := float64(store.F32(k.modR, 0.1))

	lfoShape := store.I32(k.lfoShape, int32(modulation.WaveformSine))
	lfoRate := float64(store.F32(k.lfoRate, 1.0))
	lfoDrive := float64(store.F32(k.lfoDrive, 0))
	p.lfo.SetWaveform(modulation.Waveform(lfoShape))
	p.lfo.SetFrequency(lfoRate)
	p.lfoAmount.SetTarget(float64(store.F32(k.lfoAmount, 0)))
	lfoAmount := p.lfoAmount.Process()

	lfoRaw := p.lfo.Process()
	if lfoDrive > 1e-6 {
		lfoRaw = math.Tanh(lfoDrive*lfoRaw) / math.Tanh(lfoDrive)
	}
	lfoValue := float32(lfoRaw * lfoAmount)

	var lfoDest [5]Dest
	var lfoAmt [5]float32
	var envDest [5]Dest
	var envAmt [5]float32
	for row := 0; row < 5; row++ {
		lfoDest[row] = Dest(store.I32(k.lfoRowDest[row], int32(DestNone)))
		lfoAmt[row] = store.F32(k.lfoRowAmount[row], 0)
		envDest[row] = Dest(store.I32(k.envRowDest[row], int32(DestNone)))
		envAmt[row] = store.F32(k.envRowAmount[row], 0)
	}

	f1Type := clampFilterType(store.I32(k.f1Type, int32(FilterLP)))
	f1Base := float64(store.F32(k.f1Cutoff, 2000))
	f1Q := float64(store.F32(k.f1Q, 0.707))
	f1Assign := clampAssign(store.I32(k.f1Assign, int32(AssignAB)))
	f2Type := clampFilterType(store.I32(k.f2Type, int32(FilterLP)))
	f2Base := float64(store.F32(k.f2Cutoff, 2000))
	f2Q := float64(store.F32(k.f2Q, 0.707))
	f2Assign := clampAssign(store.I32(k.f2Assign, int32(AssignNone)))

	var out float32

	for _, v := range p.voices {
		if !v.active {
			continue
		}
		v.age++

		ampEnvVal := v.ampEnv.Next()
		v.ampEnv.SetADSR(ampA, ampD, ampS, ampR)
		modEnvVal := v.modEnv.Next()
		v.modEnv.SetADSR(modA, modD, modS, modR)

		if !v.ampEnv.IsActive() || (v.ampEnv.GetStage() == envelope.StageRelease && ampEnvVal < ampFloor) {
			v.active = false
			continue
		}

		var mf ModFrame
		for row := 0; row < 5; row++ {
			mf.add(lfoDest[row], lfoValue*lfoAmt[row])
			mf.add(envDest[row], modEnvVal*envAmt[row])
		}

		freqA := v.baseFreq * centsToRatio(oscADetune+float64(mf.CentsA)*100.0)
		freqB := v.baseFreq * centsToRatio(oscBDetune+float64(mf.CentsB)*100.0)

		const fmDepth = 0.25
		incA := freqA / p.sampleRate
		incB := freqB / p.sampleRate
		incA += float64(oscBFM) * fmDepth * float64(v.oscB.lastOut) / p.sampleRate * freqA
		incB += float64(oscAFM) * fmDepth * float64(v.oscA.lastOut) / p.sampleRate * freqB

		sampleA := v.oscA.next(oscAShape, incA, oscAPW)
		sampleB := v.oscB.next(oscBShape, incB, oscBPW)

		levelA := oscALevel + mf.LvlA
		levelB := oscBLevel + mf.LvlB
		if levelA < 0 {
			levelA = 0
		}
		if levelB < 0 {
			levelB = 0
		}

		mixed := sampleA*levelA + sampleB*levelB

		v.filterPhase++
		updateCoefs := v.filterPhase%4 == 0
		if updateCoefs {
			newCutoff1 := f1Base * math.Pow(2.0, 2.0*float64(mf.Filt1))
			newCutoff1 = clampHz(newCutoff1, p.sampleRate)
			if math.Abs(newCutoff1-v.f1Cutoff) > 1e-3 || math.Abs(f1Q-v.f1Q) > 1e-3 {
				v.filter1.SetFrequencyAndQ(p.sampleRate, newCutoff1, f1Q)
				v.f1Cutoff, v.f1Q = newCutoff1, f1Q
			}
			newCutoff2 := f2Base * math.Pow(2.0, 2.0*float64(mf.Filt2))
			newCutoff2 = clampHz(newCutoff2, p.sampleRate)
			if math.Abs(newCutoff2-v.f2Cutoff) > 1e-3 || math.Abs(f2Q-v.f2Q) > 1e-3 {
				v.filter2.SetFrequencyAndQ(p.sampleRate, newCutoff2, f2Q)
				v.f2Cutoff, v.f2Q = newCutoff2, f2Q
			}
		}

		var in1, in2 float32
		switch f1Assign {
		case AssignA:
			in1 = sampleA * levelA
		case AssignB:
			in1 = sampleB * levelB
		case AssignAB:
			in1 = mixed
		}
		switch f2Assign {
		case AssignA:
			in2 = sampleA * levelA
		case AssignB:
			in2 = sampleB * levelB
		case AssignAB:
			in2 = mixed
		}

		var filtered float32
		if f1Assign != AssignNone {
			filtered += tapSVF(v.filter1, in1, f1Type)
		}
		if f2Assign != AssignNone {
			filtered += tapSVF(v.filter2, in2, f2Type)
		}
		if f1Assign == AssignNone && f2Assign == AssignNone {
			filtered = mixed
		}

		out += filtered * ampEnvVal * v.vel
	}

	return out
}

func tapSVF(sv *filter.SVF, in float32, ft FilterType) float32 {
	outputs := sv.ProcessSample(in, 0)
	switch ft {
	case FilterHP:
		return outputs.Highpass
	case FilterBP:
		return outputs.Bandpass
	case FilterNotch:
		return outputs.Notch
	default:
		return outputs.Lowpass
	}
}

func clampHz(hz, sampleRate float64) float64 {
	nyquist := sampleRate * 0.5
	if hz < 20 {
		return 20
	}
	if hz > nyquist*0.99 {
		return nyquist * 0.99
	}
	return hz
}
