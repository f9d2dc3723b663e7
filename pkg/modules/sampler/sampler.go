// Package sampler implements the polyphonic sample-playback module: a
// shared, once-loaded sample buffer played back by up to six voices with
// OneShot, Loop, and Keytrack modes, cubic-interpolated pitch shifting, and a
// tempo-synced retrigger scheduler.
package sampler

import (
	"fmt"
	"math"

	"github.com/auricle/auricle/pkg/dsp/envelope"
	"github.com/auricle/auricle/pkg/dsp/interpolation"
	"github.com/auricle/auricle/pkg/param"
)

const numVoices = 6

// PlaybackMode selects how a voice traverses the loaded sample.
type PlaybackMode int32

const (
	ModeOneShot PlaybackMode = iota
	ModeLoop
	ModeKeytrack
)

func playbackModeFromIndex(i int32) PlaybackMode {
	switch i {
	case 1:
		return ModeLoop
	case 2:
		return ModeKeytrack
	default:
		return ModeOneShot
	}
}

// LoopMode selects the loop traversal shape.
type LoopMode int32

const (
	LoopForward LoopMode = iota
	LoopPingPong
)

func loopModeFromIndex(i int32) LoopMode {
	if i == 1 {
		return LoopPingPong
	}
	return LoopForward
}

func midiToFreq(note uint8) float64 {
	return 440.0 * math.Pow(2.0, (float64(note)-69.0)/12.0)
}

func centsToRatio(c float64) float64 {
	return math.Pow(2.0, c/1200.0)
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

// Buffer is an immutable-once-loaded, mono-downmixed PCM sample: length in
// frames, source sample rate, and data. Shared read-only by all voices of a
// single Module.
type Buffer struct {
	Data       []float32
	SampleRate float64
	Length     int
}

// NewBuffer wraps mono PCM data already downmixed by the caller.
func NewBuffer(data []float32, sampleRate float64) *Buffer {
	return &Buffer{Data: data, SampleRate: sampleRate, Length: len(data)}
}

func (b *Buffer) isEmpty() bool {
	return b == nil || b.Length == 0
}

// sampleAt reads the sample nearest to position with 4-point cubic
// interpolation, clamping at the buffer edges.
func (b *Buffer) sampleAt(position float64) float32 {
	if b.isEmpty() || position < 0 {
		return 0
	}
	posInt := int(math.Floor(position))
	if posInt >= b.Length {
		return 0
	}
	frac := float32(position - float64(posInt))

	at := func(i int) float32 {
		if i < 0 {
			i = 0
		}
		if i >= b.Length {
			i = b.Length - 1
		}
		return b.Data[i]
	}

	if posInt+2 >= b.Length {
		return at(posInt)
	}
	return interpolation.Cubic(at(posInt-1), at(posInt), at(posInt+1), at(posInt+2), frac)
}

type keys struct {
	sampleStart, sampleEnd, pitchSemitones, pitchCents, playbackMode param.Key
	loopStart, loopEnd, loopMode, smoothness                        param.Key
	attack, decay, sustain, release                                 param.Key
	retrigMode                                                      param.Key
}

func makeKeys(partIdx int) keys {
	p := func(suffix string) param.Key {
		return param.MakeKey(fmt.Sprintf("part/%d/sampler/%s", partIdx, suffix))
	}
	return keys{
		sampleStart: p("sample_start"), sampleEnd: p("sample_end"),
		pitchSemitones: p("pitch_semitones"), pitchCents: p("pitch_cents"),
		playbackMode: p("playback_mode"),
		loopStart:    p("loop_start"), loopEnd: p("loop_end"), loopMode: p("loop_mode"),
		smoothness: p("smoothness"),
		attack:     p("attack"), decay: p("decay"), sustain: p("sustain"), release: p("release"),
		retrigMode: p("retrig_mode"),
	}
}

const rootNote = 60

// voice is one sampler playback voice.
type voice struct {
	sr            float64
	note          uint8
	velocity      float32
	gate          bool
	justTriggered bool

	position  float64
	pitchRatio float64
	direction float64

	env *envelope.ADSR

	beatClock     float64
	nextTrigBeats float64
	retrigActive  bool

	serial uint64

	lastPositionRel float32
	lastLoopStartRel, lastLoopEndRel float32
	lastLoopMode                     LoopMode
	lastPlaying                      bool
}

func newVoice(sr float64) *voice {
	return &voice{sr: sr, note: rootNote, direction: 1, env: envelope.New(sr)}
}

func (v *voice) isActive() bool {
	return v.env.IsActive() || v.gate
}

func (v *voice) noteOn(note uint8, vel float32, serial uint64) {
	v.note = note
	v.velocity = clamp01(vel)
	v.gate = true
	v.justTriggered = true
	v.position = 0
	v.direction = 1
	v.beatClock = 0
	v.nextTrigBeats = 0
	v.retrigActive = false
	v.serial = serial
	v.env.Trigger()
}

func (v *voice) noteOff() {
	v.gate = false
	v.env.Release()
}

// maybeRetrigger advances the voice-local beat clock and resets playback to
// loop_start when a scheduled musical interval elapses. retrig_mode encodes a
// denominator of a whole note: 0 disables retriggering.
func (v *voice) maybeRetrigger(beatDelta float64, retrigMode int32, loopStartPos float64) {
	if retrigMode <= 0 {
		v.retrigActive = false
		return
	}
	intervalBeats := 4.0 / float64(retrigMode)
	if !v.retrigActive {
		v.retrigActive = true
		v.beatClock = 0
		v.nextTrigBeats = intervalBeats
		return
	}
	v.beatClock += beatDelta
	if v.beatClock >= v.nextTrigBeats {
		v.position = loopStartPos
		v.beatClock = 0
		v.nextTrigBeats = intervalBeats
	}
}

func (v *voice) render(buf *Buffer, store *param.Store, k keys, beatDelta float64) float32 {
	if buf.isEmpty() {
		return 0
	}

	sampleStart := float64(clamp01(store.F32(k.sampleStart, 0.0)))
	sampleEnd := float64(clamp01(store.F32(k.sampleEnd, 1.0)))
	pitchSemitones := float64(store.F32(k.pitchSemitones, 0.0))
	pitchCents := float64(store.F32(k.pitchCents, 0.0))
	mode := playbackModeFromIndex(store.I32(k.playbackMode, 0))

	loopStart := float64(clamp01(store.F32(k.loopStart, 0.0)))
	loopEnd := float64(clamp01(store.F32(k.loopEnd, 1.0)))
	loopMode := loopModeFromIndex(store.I32(k.loopMode, 0))
	smoothnessMs := float64(store.F32(k.smoothness, 0.0))
	if smoothnessMs < 0 {
		smoothnessMs = 0
	}

	attackMs := math.Max(1.0, float64(store.F32(k.attack, 10.0)))
	decayMs := math.Max(1.0, float64(store.F32(k.decay, 100.0)))
	sustain := float64(clamp01(store.F32(k.sustain, 0.7)))
	releaseMs := math.Max(1.0, float64(store.F32(k.release, 200.0)))
	retrigMode := store.I32(k.retrigMode, 0)

	v.env.SetADSR(attackMs/1000.0, decayMs/1000.0, sustain, releaseMs/1000.0)

	startPos := sampleStart * float64(buf.Length)
	endPos := sampleEnd * float64(buf.Length)

	totalSemis := pitchSemitones + pitchCents/100.0
	pitchRatio := centsToRatio(totalSemis * 100.0)
	if mode == ModeKeytrack {
		noteOffset := float64(v.note) - rootNote
		pitchRatio *= centsToRatio(noteOffset * 100.0)
	}
	v.pitchRatio = pitchRatio

	if v.justTriggered {
		v.position = startPos
		v.justTriggered = false
	}

	if !v.env.IsActive() && !v.gate {
		return 0
	}

	loopStartPos := startPos + loopStart*(endPos-startPos)
	loopEndPos := startPos + loopEnd*(endPos-startPos)

	var output float32

	switch mode {
	case ModeOneShot:
		if v.position < endPos {
			output = buf.sampleAt(v.position)
			v.position += v.pitchRatio
		} else if v.gate {
			v.env.Release()
			v.gate = false
		}
	case ModeLoop:
		smoothnessFrames := smoothnessMs * 0.001 * v.sr
		halfLoop := (loopEndPos - loopStartPos) / 2.0
		if smoothnessFrames > halfLoop {
			smoothnessFrames = halfLoop
		}
		if v.position >= loopStartPos && v.position <= loopEndPos && retrigMode == 0 {
			output = buf.sampleAt(v.position)
			if smoothnessFrames > 1.0 && loopMode == LoopForward {
				distToEnd := loopEndPos - v.position
				if distToEnd < smoothnessFrames {
					t := float32(1.0 - distToEnd/smoothnessFrames)
					tail := buf.sampleAt(loopStartPos + (loopEndPos - v.position))
					output = output*(1-t) + tail*t
				}
			}
			switch loopMode {
			case LoopForward:
				v.position += v.pitchRatio * v.direction
				if v.position >= loopEndPos {
					v.position = loopStartPos + (v.position - loopEndPos)
				}
			case LoopPingPong:
				v.position += v.pitchRatio * v.direction
				if v.position >= loopEndPos {
					v.direction = -1
					v.position = loopEndPos - (v.position - loopEndPos)
				} else if v.position <= loopStartPos {
					v.direction = 1
					v.position = loopStartPos + (loopStartPos - v.position)
				}
			}
		} else if retrigMode != 0 {
			if v.position >= loopStartPos && v.position <= loopEndPos {
				output = buf.sampleAt(v.position)
				v.position += v.pitchRatio * v.direction
			}
			v.maybeRetrigger(beatDelta, retrigMode, loopStartPos)
		} else {
			if v.position < endPos {
				output = buf.sampleAt(v.position)
				v.position += v.pitchRatio
			} else if v.gate {
				v.env.Release()
				v.gate = false
			}
		}
	case ModeKeytrack:
		if v.position < endPos {
			output = buf.sampleAt(v.position)
			v.position += v.pitchRatio
		} else if v.gate {
			v.env.Release()
			v.gate = false
		}
	}

	envLevel := v.env.Next()
	switch mode {
	case ModeOneShot:
		// OneShot holds the envelope at unity to avoid cropping transients.
		output *= v.velocity
	default:
		output *= envLevel * v.velocity
	}

	regionLen := endPos - startPos
	if regionLen > 0 {
		v.lastPositionRel = float32(clamp01(float32((v.position - startPos) / regionLen)))
	}
	v.lastLoopStartRel = float32(loopStart)
	v.lastLoopEndRel = float32(loopEnd)
	v.lastLoopMode = loopMode
	v.lastPlaying = v.isActive()

	return output
}

// PlayheadState is a published snapshot of one voice's playback position,
// reported for the most-recently-triggered active voice.
type PlayheadState struct {
	PositionRel, LoopStartRel, LoopEndRel float32
	LoopMode                              LoopMode
	Direction                             float32
	Playing                               bool
}

// Module is the 6-voice polyphonic sampler engine for one part.
type Module struct {
	sampleRate float64
	keys       keys

	voices    [numVoices]*voice
	allocator int
	buffer    *Buffer
	serial    uint64
	beatPhase float64
}

// New creates the sampler module for part index partIdx. No sample is loaded
// until LoadSample is called.
func New(sampleRate float64, partIdx int) *Module {
	m := &Module{sampleRate: sampleRate, keys: makeKeys(partIdx)}
	for i := range m.voices {
		m.voices[i] = newVoice(sampleRate)
	}
	return m
}

// LoadSample installs a new sample buffer, replacing any previous one.
func (m *Module) LoadSample(buf *Buffer) {
	m.buffer = buf
}

// ClearSample removes the loaded sample.
func (m *Module) ClearSample() {
	m.buffer = nil
}

func (m *Module) NoteOn(note uint8, vel float32) {
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
	m.serial++
	m.voices[idx].noteOn(note, vel, m.serial)
}

func (m *Module) NoteOff(note uint8) {
	for _, v := range m.voices {
		if v.note == note && v.gate {
			v.noteOff()
		}
	}
}

// RenderSample renders one mono sample given the current transport beat
// phase, which drives the retrigger scheduler.
func (m *Module) RenderSample(store *param.Store, beatPhase float64) float32 {
	beatDelta := beatPhase - m.beatPhase
	if beatDelta < 0 {
		beatDelta += 1.0
	}
	m.beatPhase = beatPhase

	var output float32
	for _, v := range m.voices {
		if v.isActive() {
			output += v.render(m.buffer, store, m.keys, beatDelta)
		}
	}
	return float32(math.Tanh(float64(output))) * 0.8
}

// Active reports whether any voice is still producing output, used by the
// preview sampler to know when one-shot audition playback has finished.
func (m *Module) Active() bool {
	for _, v := range m.voices {
		if v.isActive() {
			return true
		}
	}
	return false
}

// Playhead returns the published snapshot for the voice with the highest
// trigger serial among active voices, or false if none are active.
func (m *Module) Playhead() (PlayheadState, bool) {
	var best *voice
	for _, v := range m.voices {
		if !v.isActive() {
			continue
		}
		if best == nil || v.serial > best.serial {
			best = v
		}
	}
	if best == nil {
		return PlayheadState{}, false
	}
	return PlayheadState{
		PositionRel:  best.lastPositionRel,
		LoopStartRel: best.lastLoopStartRel,
		LoopEndRel:   best.lastLoopEndRel,
		LoopMode:     best.lastLoopMode,
		Direction:    float32(best.direction),
		Playing:      best.lastPlaying,
	}, true
}
