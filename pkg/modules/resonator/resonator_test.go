package resonator

import (
	"testing"

	"github.com/auricle/auricle/pkg/param"
)

func TestNoteOnProducesDecayingOutput(t *testing.T) {
	store := param.NewStore()
	m := New(48000, 0)
	m.NoteOn(60, 1.0)

	var early, late float64
	for i := 0; i < 50; i++ {
		v := m.RenderSample(store)
		early += float64(v) * float64(v)
	}
	for i := 0; i < 4000; i++ {
		m.RenderSample(store)
	}
	for i := 0; i < 50; i++ {
		v := m.RenderSample(store)
		late += float64(v) * float64(v)
	}
	if early <= late {
		t.Errorf("expected resonator energy to decay: early=%v late=%v", early, late)
	}
}

func TestVoiceStealingRoundRobinWhenAllActive(t *testing.T) {
	store := param.NewStore()
	m := New(48000, 0)
	for note := uint8(60); note < 60+numVoices; note++ {
		m.NoteOn(note, 1.0)
		for i := 0; i < 10; i++ {
			m.RenderSample(store)
		}
	}
	for _, v := range m.voices {
		if !v.gate {
			t.Fatal("expected all voices gated on")
		}
	}
	// Fourth note-on must steal one of the three voices.
	m.NoteOn(72, 1.0)
	found := false
	for _, v := range m.voices {
		if v.note == 72 && v.gate {
			found = true
		}
	}
	if !found {
		t.Error("expected stolen voice to carry the new note")
	}
}

func TestCombModeProducesOutput(t *testing.T) {
	store := param.NewStore()
	store.Set("part/0/resonator/mode", param.I32(1))
	m := New(48000, 0)
	m.NoteOn(60, 1.0)

	var energy float64
	for i := 0; i < 2000; i++ {
		v := m.RenderSample(store)
		energy += float64(v) * float64(v)
	}
	if energy <= 0 {
		t.Error("expected comb mode to produce nonzero output")
	}
}
