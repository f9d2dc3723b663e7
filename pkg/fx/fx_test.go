package fx

import "testing"

func TestNoneKindPassesDrySignalUnchanged(t *testing.T) {
	s := NewSlot(48000)
	s.SetParams(KindNone, 0, 0, 1.0)
	if got := s.Process(0.5); got != 0.5 {
		t.Errorf("expected dry passthrough, got %v", got)
	}
}

func TestZeroMixBypassesNonTailEffect(t *testing.T) {
	s := NewSlot(48000)
	s.SetParams(KindPhaser, 0.5, 0.5, 0)
	if got := s.Process(0.3); got != 0.3 {
		t.Errorf("expected bypass at zero mix for a non-tail effect, got %v", got)
	}
}

func TestReverbTailContinuesProcessingAtZeroMix(t *testing.T) {
	s := NewSlot(48000)
	s.SetParams(KindReverb, 0.5, 0.5, 1.0)
	for i := 0; i < 2000; i++ {
		s.Process(1.0)
	}
	s.SetParams(KindReverb, 0.5, 0.5, 0.0)
	out := s.Process(0.0)
	if out != 0.0 {
		// With mix at 0 the blended output must equal dry even though the
		// internal reverb state keeps decaying underneath.
		t.Errorf("expected output to equal dry (0) at zero mix, got %v", out)
	}
	if s.reverbState == nil {
		t.Error("expected reverb state to persist (tail) while type stays reverb")
	}
}

func TestBypassReleasesTailState(t *testing.T) {
	s := NewSlot(48000)
	s.SetParams(KindReverb, 0.5, 0.5, 1.0)
	s.Process(1.0)
	s.SetParams(KindNone, 0, 0, 0)
	if s.reverbState != nil {
		t.Error("expected reverb state to be released on type=none")
	}
}

func TestChainAllBypassedWhenEverySlotNone(t *testing.T) {
	c := NewChain(48000)
	if !c.AllBypassed() {
		t.Error("expected a freshly created chain to be fully bypassed")
	}
	c.Slot(0).SetParams(KindChorus, 0.5, 0.5, 0.5)
	if c.AllBypassed() {
		t.Error("expected chain to report active once a slot has nonzero mix")
	}
}

func TestDistortionProducesNonzeroOutput(t *testing.T) {
	s := NewSlot(48000)
	s.SetParams(KindDistortion, 0.5, 0.5, 1.0)
	out := s.Process(0.5)
	if out == 0 {
		t.Error("expected nonzero distorted output")
	}
}
