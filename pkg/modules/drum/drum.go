// Package drum implements a multi-sample drum player: up to 32 one-shot
// slots in a pack, each mapped from MIDI note, up to 64 concurrently
// playing voices with linear-interpolated pitch-shifted playback.
package drum

import (
	"fmt"
	"math"

	"github.com/auricle/auricle/pkg/param"
)

const (
	MaxSlots  = 32
	maxVoices = 64
	rootNote  = 36
)

// Sample is one loaded, mono-downmixed drum slot. Data is played back at the
// level it was loaded with; LoadPack does not normalize it.
type Sample struct {
	Data       []float32
	SampleRate float64
	Length     int
}

func (s *Sample) sampleAt(pos float64) float32 {
	if s == nil || s.Length == 0 || pos < 0 {
		return 0
	}
	idx := int(math.Floor(pos))
	if idx >= s.Length {
		return 0
	}
	next := idx + 1
	if next >= s.Length {
		next = s.Length - 1
	}
	frac := float32(pos - float64(idx))
	a, b := s.Data[idx], s.Data[next]
	return a + (b-a)*frac
}

type voice struct {
	slot     int
	position float64
	velocity float32
	active   bool
}

type keys struct {
	volume, pan, semitones, fine [MaxSlots]param.Key
}

func makeKeys(partIdx int) keys {
	var k keys
	for i := 0; i < MaxSlots; i++ {
		base := fmt.Sprintf("part/%d/drum/slot/%d", partIdx, i)
		k.volume[i] = param.MakeKey(base + "/volume")
		k.pan[i] = param.MakeKey(base + "/pan")
		k.semitones[i] = param.MakeKey(base + "/pitch_semitones")
		k.fine[i] = param.MakeKey(base + "/pitch_fine")
	}
	return k
}

// Frame is the accumulated per-sample output of the drum player: a mono sum,
// a pan-weighted accumulator for stereo placement, and a magnitude estimate
// for metering.
type Frame struct {
	Mono     float32
	PanAccum float32
	Energy   float32
}

// Module is the multi-sample drum player for one part.
type Module struct {
	sr float64

	keys keys

	samples     [MaxSlots]*Sample
	sampleNames [MaxSlots]string
	slotCount   int

	voices    [maxVoices]voice
	nextVoice int
}

// New creates an empty drum player for part index partIdx.
func New(sampleRate float64, partIdx int) *Module {
	return &Module{sr: sampleRate, keys: makeKeys(partIdx)}
}

// Clear removes the loaded pack and silences all voices.
func (m *Module) Clear() {
	m.slotCount = 0
	for i := range m.samples {
		m.samples[i] = nil
		m.sampleNames[i] = ""
	}
	for i := range m.voices {
		m.voices[i] = voice{}
	}
}

// LoadPack installs up to MaxSlots decoded samples, replacing any existing
// pack. names holds a display label per slot, parallel to samples.
func (m *Module) LoadPack(samples []*Sample, names []string) {
	m.Clear()
	n := len(samples)
	if n > MaxSlots {
		n = MaxSlots
	}
	for i := 0; i < n; i++ {
		m.samples[i] = samples[i]
		if i < len(names) {
			m.sampleNames[i] = names[i]
		}
	}
	m.slotCount = n
}

func (m *Module) SlotNames() []string {
	return m.sampleNames[:m.slotCount]
}

func (m *Module) slotForNote(note uint8) int {
	if m.slotCount == 0 {
		return 0
	}
	if note >= rootNote {
		return int(note-rootNote) % m.slotCount
	}
	return int(note) % m.slotCount
}

func (m *Module) NoteOn(note uint8, vel float32) {
	if m.slotCount == 0 {
		return
	}
	slot := m.slotForNote(note)
	if slot >= m.slotCount {
		return
	}
	velocity := clamp01(vel)

	for i := range m.voices {
		if !m.voices[i].active {
			m.voices[i] = voice{slot: slot, velocity: velocity, active: true}
			return
		}
	}
	idx := m.nextVoice
	m.nextVoice = (m.nextVoice + 1) % maxVoices
	m.voices[idx] = voice{slot: slot, velocity: velocity, active: true}
}

func (m *Module) NoteOff(note uint8) {
	if m.slotCount == 0 {
		return
	}
	slot := m.slotForNote(note)
	for i := range m.voices {
		if m.voices[i].active && m.voices[i].slot == slot {
			m.voices[i].active = false
		}
	}
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

// RenderFrame renders one sample of every active voice, returning the mono
// sum, pan-weighted accumulator, and absolute energy for metering.
func (m *Module) RenderFrame(store *param.Store) Frame {
	var frame Frame
	if m.slotCount == 0 {
		return frame
	}

	for i := range m.voices {
		v := &m.voices[i]
		if !v.active {
			continue
		}
		sample := m.samples[v.slot]
		if sample == nil || sample.Length == 0 {
			v.active = false
			continue
		}

		amp := sample.sampleAt(v.position)

		volume := store.F32(m.keys.volume[v.slot], 0.85)
		if volume < 0 {
			volume = 0
		} else if volume > 1.5 {
			volume = 1.5
		}
		panNorm := clamp01(store.F32(m.keys.pan[v.slot], 0.5))
		semis := float64(store.F32(m.keys.semitones[v.slot], 0.0))
		fine := float64(store.F32(m.keys.fine[v.slot], 0.0))
		totalSemi := semis + fine/100.0
		ratio := math.Pow(2.0, totalSemi/12.0)

		baseStep := sample.SampleRate / m.sr
		if baseStep < 0.01 {
			baseStep = 0.01
		}
		step := baseStep * ratio
		if step < 0.01 {
			step = 0.01
		} else if step > 64.0 {
			step = 64.0
		}

		ampScaled := amp * volume * v.velocity
		pan := panNorm*2.0 - 1.0
		frame.Mono += ampScaled
		frame.PanAccum += ampScaled * pan
		frame.Energy += absf32(ampScaled)

		v.position += step
		if v.position >= float64(sample.Length) {
			v.active = false
		}
	}
	return frame
}

func absf32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
