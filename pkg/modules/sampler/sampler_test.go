package sampler

import (
	"math"
	"testing"

	"github.com/auricle/auricle/pkg/param"
)

func sineBuffer(sr float64, freq float64, seconds float64) *Buffer {
	n := int(sr * seconds)
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / sr))
	}
	return NewBuffer(data, sr)
}

func TestOneShotPlaysToEndThenIdles(t *testing.T) {
	store := param.NewStore()
	m := New(48000, 0)
	m.LoadSample(sineBuffer(48000, 220, 0.05))
	m.NoteOn(60, 1.0)

	active := false
	for i := 0; i < 48000; i++ {
		m.RenderSample(store, 0)
		if m.voices[0].isActive() {
			active = true
		} else {
			break
		}
	}
	if !active {
		t.Fatal("expected voice to become active after NoteOn")
	}
	if m.voices[0].isActive() {
		t.Error("expected OneShot voice to go idle once the region is exhausted")
	}
}

func TestLoopModeLoopsAcrossRegion(t *testing.T) {
	store := param.NewStore()
	store.Set("part/0/sampler/playback_mode", param.I32(1))
	m := New(48000, 0)
	m.LoadSample(sineBuffer(48000, 220, 0.01))
	m.NoteOn(60, 1.0)

	nonZeroCount := 0
	for i := 0; i < 20000; i++ {
		if v := m.RenderSample(store, 0); v != 0 {
			nonZeroCount++
		}
	}
	if nonZeroCount == 0 {
		t.Error("expected loop mode to keep producing output past the sample's natural length")
	}
}

func TestVoiceStealingRoundRobinWhenAllActive(t *testing.T) {
	m := New(48000, 0)
	m.LoadSample(sineBuffer(48000, 220, 0.5))
	for note := uint8(60); note < 60+numVoices; note++ {
		m.NoteOn(note, 1.0)
	}
	for _, v := range m.voices {
		if !v.isActive() {
			t.Fatal("expected all voices active")
		}
	}
	m.NoteOn(72, 1.0)
	found := false
	for _, v := range m.voices {
		if v.note == 72 {
			found = true
		}
	}
	if !found {
		t.Error("expected stolen voice to carry the new note")
	}
}

func TestKeytrackAppliesPitchOffsetFromRootNote(t *testing.T) {
	store := param.NewStore()
	store.Set("part/0/sampler/playback_mode", param.I32(2))
	m := New(48000, 0)
	m.LoadSample(sineBuffer(48000, 220, 1.0))
	m.NoteOn(72, 1.0) // one octave above root note 60
	m.RenderSample(store, 0)
	if m.voices[0].pitchRatio < 1.9 || m.voices[0].pitchRatio > 2.1 {
		t.Errorf("expected pitch ratio ~2.0 an octave above root, got %v", m.voices[0].pitchRatio)
	}
}

func TestPlayheadReportsHighestSerialVoice(t *testing.T) {
	store := param.NewStore()
	store.Set("part/0/sampler/playback_mode", param.I32(1))
	m := New(48000, 0)
	m.LoadSample(sineBuffer(48000, 220, 0.5))
	m.NoteOn(60, 1.0)
	m.RenderSample(store, 0)
	m.NoteOn(64, 1.0)
	m.RenderSample(store, 0)

	ph, ok := m.Playhead()
	if !ok {
		t.Fatal("expected an active playhead")
	}
	if ph.PositionRel < 0 || ph.PositionRel > 1 {
		t.Errorf("position_rel out of range: %v", ph.PositionRel)
	}
}
