package drum

import (
	"testing"

	"github.com/auricle/auricle/pkg/param"
)

func impulseSample(sr float64, n int) *Sample {
	data := make([]float32, n)
	data[0] = 1.0
	return &Sample{Data: data, SampleRate: sr, Length: n}
}

func samplesAndNames(n int) ([]*Sample, []string) {
	samples := make([]*Sample, n)
	names := make([]string, n)
	for i := range samples {
		samples[i] = impulseSample(44100, 4410)
		names[i] = "kick"
	}
	return samples, names
}

func TestSlotMappingAboveRootNote(t *testing.T) {
	m := New(48000, 0)
	samples, names := samplesAndNames(4)
	m.LoadPack(samples, names)

	if got := m.slotForNote(36); got != 0 {
		t.Errorf("note 36 should map to slot 0, got %d", got)
	}
	if got := m.slotForNote(38); got != 2 {
		t.Errorf("note 38 should map to slot 2, got %d", got)
	}
}

func TestSlotMappingBelowRootNote(t *testing.T) {
	m := New(48000, 0)
	samples, names := samplesAndNames(4)
	m.LoadPack(samples, names)

	if got := m.slotForNote(5); got != 1 {
		t.Errorf("note 5 below root should map via note mod count, got %d", got)
	}
}

func TestNoteOnProducesNonSilentOutput(t *testing.T) {
	store := param.NewStore()
	m := New(48000, 0)
	samples, names := samplesAndNames(4)
	m.LoadPack(samples, names)
	m.NoteOn(36, 1.0)

	frame := m.RenderFrame(store)
	if frame.Mono == 0 {
		t.Error("expected non-silent output on the first rendered sample")
	}
}

func TestVoiceDeactivatesAtSampleEnd(t *testing.T) {
	store := param.NewStore()
	m := New(48000, 0)
	samples, names := samplesAndNames(1)
	m.LoadPack(samples, names)
	m.NoteOn(36, 1.0)

	for i := 0; i < 10000; i++ {
		m.RenderFrame(store)
	}
	if m.voices[0].active {
		t.Error("expected voice to deactivate once past sample length")
	}
}

func TestVoiceStealingWhenAllActive(t *testing.T) {
	store := param.NewStore()
	m := New(48000, 0)
	samples, names := samplesAndNames(1)
	for i := range samples {
		samples[i] = impulseSample(48000, 480000)
	}
	m.LoadPack(samples, names)
	for i := 0; i < maxVoices; i++ {
		m.NoteOn(36, 1.0)
	}
	for _, v := range m.voices {
		if !v.active {
			t.Fatal("expected all 64 voices active")
		}
	}
	m.NoteOn(36, 1.0) // must steal, not drop
	_ = store
}
